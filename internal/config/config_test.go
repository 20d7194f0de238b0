package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestReadOverlaysDefaults(t *testing.T) {
	cfg, err := Read(strings.NewReader(`
admin_email = "admin@example.com"

[images]
backend = "s3"
s3_bucket = "visitor-photos"
s3_region = "us-east-1"
`))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if cfg.AdminEmail != "admin@example.com" {
		t.Errorf("AdminEmail = %q", cfg.AdminEmail)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want default 8080", cfg.Port)
	}
	if cfg.Images.Backend != BackendS3 || cfg.Images.S3Bucket != "visitor-photos" {
		t.Errorf("Images = %+v", cfg.Images)
	}
	if cfg.Database.Path == "" {
		t.Error("expected default database path")
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	original := Default()
	original.AdminEmail = "ops@example.com"
	original.Images.PresignExpiry = "5m"

	var buf bytes.Buffer
	if err := Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.AdminEmail != original.AdminEmail {
		t.Errorf("AdminEmail = %q, want %q", got.AdminEmail, original.AdminEmail)
	}
	if got.Images.PresignTTL() != 5*time.Minute {
		t.Errorf("PresignTTL = %s, want 5m", got.Images.PresignTTL())
	}
}

func TestReadInvalidTOML(t *testing.T) {
	if _, err := Read(strings.NewReader("port = ")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.toml")
	content := `
port = 9090
base_url = "https://visitors.example.com"
admin_email = "file@example.com"

[database]
path = "` + filepath.ToSlash(filepath.Join(dir, "v.db")) + `"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv("VD_ADMIN_EMAIL", "env@example.com")
	t.Setenv("VD_DEV_MODE", "true")
	t.Setenv("VD_IMAGE_BACKEND", "s3")
	t.Setenv("VD_S3_BUCKET", "env-bucket")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.AdminEmail != "env@example.com" {
		t.Errorf("AdminEmail = %q, want env override", cfg.AdminEmail)
	}
	if !cfg.DevMode {
		t.Error("expected DevMode from env")
	}
	if cfg.Images.Backend != BackendS3 || cfg.Images.S3Bucket != "env-bucket" {
		t.Errorf("Images = %+v", cfg.Images)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("VD_DB", filepath.Join(t.TempDir(), "x.db"))
	t.Setenv("VD_PORT", "7070")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 7070 {
		t.Errorf("Port = %d, want 7070", cfg.Port)
	}
	if cfg.Images.Backend != BackendSQLite {
		t.Errorf("Backend = %q, want sqlite", cfg.Images.Backend)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Port = 0 }, true},
		{"bad base url", func(c *Config) { c.BaseURL = "localhost" }, true},
		{"no db path", func(c *Config) { c.Database.Path = "" }, true},
		{"s3 without bucket", func(c *Config) { c.Images.Backend = BackendS3 }, true},
		{"s3 with bucket", func(c *Config) { c.Images.Backend = BackendS3; c.Images.S3Bucket = "b" }, false},
		{"s3 half credentials", func(c *Config) { c.Images.Backend = BackendS3; c.Images.S3Bucket = "b"; c.Images.S3AccessKey = "id" }, true},
		{"unknown backend", func(c *Config) { c.Images.Backend = "ftp" }, true},
		{"bad presign", func(c *Config) { c.Images.PresignExpiry = "soon" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPresignTTLDefault(t *testing.T) {
	if got := (ImagesConfig{}).PresignTTL(); got != 15*time.Minute {
		t.Errorf("PresignTTL = %s, want 15m", got)
	}
}

func TestBadPortEnv(t *testing.T) {
	t.Setenv("VD_PORT", "eighty")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for non-numeric VD_PORT")
	}
}
