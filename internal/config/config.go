// Package config loads the visitor-desk server configuration from a TOML
// file with environment overrides.
package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/evcraddock/visitor-desk/internal/db"
)

// Image storage backends.
const (
	BackendSQLite = "sqlite"
	BackendS3     = "s3"
)

const defaultPresignExpiry = 15 * time.Minute

// Config is the server configuration.
type Config struct {
	Port       int            `toml:"port"`
	BaseURL    string         `toml:"base_url"` // e.g. http://localhost:8080
	AdminEmail string         `toml:"admin_email"`
	DevMode    bool           `toml:"dev_mode"`
	Database   DatabaseConfig `toml:"database"`
	Images     ImagesConfig   `toml:"images"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// ImagesConfig selects where visitor photos are stored.
// The Backend field determines which other fields are relevant.
type ImagesConfig struct {
	Backend string `toml:"backend"` // "sqlite" (default) or "s3"

	// S3-specific fields (only used when Backend == "s3")
	S3Bucket      string `toml:"s3_bucket,omitempty"`
	S3Region      string `toml:"s3_region,omitempty"`
	S3Prefix      string `toml:"s3_prefix,omitempty"`
	S3Endpoint    string `toml:"s3_endpoint,omitempty"` // for S3-compatible stores
	S3AccessKey   string `toml:"s3_access_key_id,omitempty"`
	S3SecretKey   string `toml:"s3_secret_access_key,omitempty"`
	PresignExpiry string `toml:"presign_expiry,omitempty"`
}

// PresignTTL returns the lifetime of presigned image URIs.
func (c ImagesConfig) PresignTTL() time.Duration {
	d, err := time.ParseDuration(c.PresignExpiry)
	if err != nil || d <= 0 {
		return defaultPresignExpiry
	}
	return d
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	dbPath, err := db.DefaultPath()
	if err != nil {
		dbPath = "visitors.db"
	}
	return &Config{
		Port:     8080,
		BaseURL:  "http://localhost:8080",
		Database: DatabaseConfig{Path: dbPath},
		Images:   ImagesConfig{Backend: BackendSQLite},
	}
}

// Read decodes a Config from r on top of the defaults.
func Read(r io.Reader) (*Config, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// Write encodes cfg as TOML.
func Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

// Load reads the config file at path (if non-empty), applies VD_*
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		cfg, err = Read(f)
		if err != nil {
			return nil, fmt.Errorf("reading config from %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("VD_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid VD_PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v := os.Getenv("VD_ADMIN_EMAIL"); v != "" {
		c.AdminEmail = v
	}
	if v := os.Getenv("VD_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("VD_DEV_MODE"); v != "" {
		c.DevMode = v == "true" || v == "1"
	}
	if v := os.Getenv("VD_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("VD_IMAGE_BACKEND"); v != "" {
		c.Images.Backend = v
	}
	if v := os.Getenv("VD_S3_BUCKET"); v != "" {
		c.Images.S3Bucket = v
	}
	if v := os.Getenv("VD_S3_REGION"); v != "" {
		c.Images.S3Region = v
	}
	if v := os.Getenv("VD_S3_PREFIX"); v != "" {
		c.Images.S3Prefix = v
	}
	if v := os.Getenv("VD_S3_ENDPOINT"); v != "" {
		c.Images.S3Endpoint = v
	}
	if v := os.Getenv("VD_S3_ACCESS_KEY_ID"); v != "" {
		c.Images.S3AccessKey = v
	}
	if v := os.Getenv("VD_S3_SECRET_ACCESS_KEY"); v != "" {
		c.Images.S3SecretKey = v
	}
	return nil
}

// Validate checks the config for missing or inconsistent values.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base_url: %q", c.BaseURL)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch c.Images.Backend {
	case "", BackendSQLite:
		c.Images.Backend = BackendSQLite
	case BackendS3:
		if c.Images.S3Bucket == "" {
			return fmt.Errorf("images.s3_bucket is required for the s3 backend")
		}
		if (c.Images.S3AccessKey == "") != (c.Images.S3SecretKey == "") {
			return fmt.Errorf("images.s3_access_key_id and images.s3_secret_access_key must be set together")
		}
	default:
		return fmt.Errorf("unknown images.backend: %q", c.Images.Backend)
	}
	if c.Images.PresignExpiry != "" {
		if _, err := time.ParseDuration(c.Images.PresignExpiry); err != nil {
			return fmt.Errorf("invalid images.presign_expiry: %w", err)
		}
	}
	return nil
}
