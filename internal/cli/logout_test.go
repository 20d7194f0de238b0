package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogoutClearsKeyKeepsDesk(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := CLIConfig{
		APIKey:    "vd_testkey123",
		ServerURL: "http://frontdesk:9090",
		Intervals: IntervalConfig{Short: "5s"},
	}
	if err := saveConfig(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	var out bytes.Buffer
	if err := runLogout(&out); err != nil {
		t.Fatalf("logout: %v", err)
	}

	loaded, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.APIKey != "" {
		t.Errorf("api_key = %q, want empty after logout", loaded.APIKey)
	}
	if loaded.ServerURL != "http://frontdesk:9090" {
		t.Errorf("server_url = %q, want preserved after logout", loaded.ServerURL)
	}
	if loaded.Intervals.Short != "5s" {
		t.Errorf("intervals.short = %q, want preserved after logout", loaded.Intervals.Short)
	}

	msg := out.String()
	if !strings.Contains(msg, "http://frontdesk:9090") {
		t.Errorf("message %q does not name the server", msg)
	}
	if !strings.Contains(msg, "vd keys delete") {
		t.Errorf("message %q does not explain revocation", msg)
	}
}

func TestLogoutWhenNotLoggedIn(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	var out bytes.Buffer
	if err := runLogout(&out); err != nil {
		t.Fatalf("logout with no config: %v", err)
	}
	if !strings.Contains(out.String(), "Not logged in to "+defaultServerURL) {
		t.Errorf("message = %q", out.String())
	}
}
