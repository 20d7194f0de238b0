package visitor

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/evcraddock/visitor-desk/internal/db"
)

func TestAddAndList(t *testing.T) {
	repo := testRepo(t)

	v, err := repo.Add(NewVisitor{Name: " Ada Lovelace ", Phone: "555-0100", Purpose: "interview"}, "host@example.com")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if v.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if v.Name != "Ada Lovelace" {
		t.Errorf("name = %q, want trimmed", v.Name)
	}
	if v.Status != Pending {
		t.Errorf("status = %q, want %q", v.Status, Pending)
	}
	if v.AddedBy != "host@example.com" {
		t.Errorf("added_by = %q", v.AddedBy)
	}
	if v.CheckedInAt != nil || v.CheckedOutAt != nil {
		t.Error("expected no check-in/out times on a new visitor")
	}

	visitors, err := repo.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(visitors) != 1 {
		t.Fatalf("got %d visitors, want 1", len(visitors))
	}
	if visitors[0].Purpose != "interview" {
		t.Errorf("purpose = %q", visitors[0].Purpose)
	}
}

func TestAddRequiresName(t *testing.T) {
	repo := testRepo(t)

	if _, err := repo.Add(NewVisitor{Name: "   "}, "host@example.com"); err == nil {
		t.Fatal("expected error for blank name")
	}
}

func TestListEmpty(t *testing.T) {
	repo := testRepo(t)

	visitors, err := repo.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if visitors == nil {
		t.Error("expected empty slice, got nil")
	}
	if len(visitors) != 0 {
		t.Errorf("got %d visitors, want 0", len(visitors))
	}
}

func TestListNewestFirst(t *testing.T) {
	repo := testRepo(t)

	for _, name := range []string{"First", "Second", "Third"} {
		if _, err := repo.Add(NewVisitor{Name: name}, "host@example.com"); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}

	visitors, err := repo.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(visitors) != 3 {
		t.Fatalf("got %d visitors, want 3", len(visitors))
	}
	if visitors[0].Name != "Third" {
		t.Errorf("first = %q, want newest", visitors[0].Name)
	}
	if visitors[2].Name != "First" {
		t.Errorf("last = %q, want oldest", visitors[2].Name)
	}

	n, err := repo.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}

func TestUpdateStatus(t *testing.T) {
	repo := testRepo(t)

	v, err := repo.Add(NewVisitor{Name: "Ada"}, "host@example.com")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	in, err := repo.UpdateStatus(v.ID, CheckedIn)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if in.Status != CheckedIn {
		t.Errorf("status = %q, want %q", in.Status, CheckedIn)
	}
	if in.CheckedInAt == nil {
		t.Fatal("expected checked_in_at to be set")
	}

	out, err := repo.UpdateStatus(v.ID, CheckedOut)
	if err != nil {
		t.Fatalf("check out: %v", err)
	}
	if out.CheckedOutAt == nil {
		t.Fatal("expected checked_out_at to be set")
	}
	if !out.CheckedInAt.Equal(*in.CheckedInAt) {
		t.Errorf("checked_in_at changed on check-out: %v -> %v", in.CheckedInAt, out.CheckedInAt)
	}
}

func TestUpdateStatusInvalid(t *testing.T) {
	repo := testRepo(t)

	v, err := repo.Add(NewVisitor{Name: "Ada"}, "host@example.com")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, err := repo.UpdateStatus(v.ID, "arrived"); err == nil {
		t.Fatal("expected error for invalid status")
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.UpdateStatus(999, Approved)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	repo := testRepo(t)

	v, err := repo.Add(NewVisitor{Name: "Ada"}, "host@example.com")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := repo.Delete(v.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := repo.GetByID(v.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete: err = %v, want ErrNotFound", err)
	}

	if err := repo.Delete(v.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func testRepo(t *testing.T) *Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return NewRepository(d)
}
