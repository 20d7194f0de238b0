package cli

import (
	"path/filepath"
	"testing"

	"github.com/evcraddock/visitor-desk/internal/auth"
	"github.com/evcraddock/visitor-desk/internal/db"
)

func TestUsersAndKeysCommands(t *testing.T) {
	t.Setenv("VD_ADMIN_EMAIL", "")
	path := filepath.Join(t.TempDir(), "admin.db")

	if _, err := executeCommand("--db", path, "keys", "create", "--email", "ann@example.com"); err == nil {
		t.Fatal("expected error creating a key for an unknown user")
	}

	if _, err := executeCommand("--db", path, "users", "add", "ann@example.com", "--name", "Ann", "--role", "company"); err != nil {
		t.Fatalf("users add: %v", err)
	}
	if _, err := executeCommand("--db", path, "users", "add", "bob@example.com", "--role", "janitor"); err == nil {
		t.Fatal("expected error for unknown role")
	}
	if _, err := executeCommand("--db", path, "keys", "create", "--email", "ann@example.com", "--name", "laptop"); err != nil {
		t.Fatalf("keys create: %v", err)
	}
	if _, err := executeCommand("--db", path, "keys", "list", "--format", "json"); err != nil {
		t.Fatalf("keys list: %v", err)
	}
	if _, err := executeCommand("--db", path, "users", "list"); err != nil {
		t.Fatalf("users list: %v", err)
	}

	database, err := db.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = database.Close() }()

	users := auth.NewUserStore(database, "")
	u, err := users.Lookup("ann@example.com")
	if err != nil || u == nil {
		t.Fatalf("Lookup = %v, %v", u, err)
	}
	if u.Role != auth.RoleCompany {
		t.Errorf("Role = %q, want company", u.Role)
	}

	keys, err := auth.NewAPIKeyStore(database).List("ann@example.com")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 1 || keys[0].Name != "laptop" {
		t.Fatalf("keys = %+v, want one named laptop", keys)
	}

	if _, err := executeCommand("--db", path, "keys", "delete", itoa(keys[0].ID)); err != nil {
		t.Fatalf("keys delete: %v", err)
	}
	if _, err := executeCommand("--db", path, "users", "remove", itoa(u.ID)); err != nil {
		t.Fatalf("users remove: %v", err)
	}
	if _, err := executeCommand("--db", path, "users", "remove", itoa(u.ID)); err == nil {
		t.Fatal("expected error removing a user twice")
	}
}
