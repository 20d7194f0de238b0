package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/evcraddock/visitor-desk/internal/refresh"
)

const defaultServerURL = "http://localhost:8080"

// CLIConfig holds CLI configuration persisted to disk.
type CLIConfig struct {
	ServerURL string         `yaml:"server_url,omitempty"`
	APIKey    string         `yaml:"api_key,omitempty"`
	Intervals IntervalConfig `yaml:"intervals,omitempty"`
}

// IntervalConfig overrides the polling periods used by watch.
// Values are Go durations such as "10s"; empty means the default.
type IntervalConfig struct {
	Short  string `yaml:"short,omitempty"`
	Medium string `yaml:"medium,omitempty"`
	Long   string `yaml:"long,omitempty"`
}

// Refresh converts the configured intervals, keeping defaults for empty
// fields.
func (ic IntervalConfig) Refresh() (refresh.Intervals, error) {
	iv := refresh.DefaultIntervals()
	for _, f := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"short", ic.Short, &iv.Short},
		{"medium", ic.Medium, &iv.Medium},
		{"long", ic.Long, &iv.Long},
	} {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return refresh.Intervals{}, fmt.Errorf("invalid %s interval %q: %w", f.name, f.raw, err)
		}
		if d < time.Second {
			return refresh.Intervals{}, fmt.Errorf("%s interval %s is below 1s", f.name, d)
		}
		*f.dst = d
	}
	return iv, nil
}

// configPath returns the path to the CLI config file.
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "vd", "config.yaml"), nil
}

// loadConfig reads the CLI config from disk.
// Returns a zero-value config if the file doesn't exist.
func loadConfig() (CLIConfig, error) {
	path, err := configPath()
	if err != nil {
		return CLIConfig{}, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return CLIConfig{}, nil
	}
	if err != nil {
		return CLIConfig{}, fmt.Errorf("reading config: %w", err)
	}

	var cfg CLIConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// saveConfig writes the CLI config to disk.
func saveConfig(cfg CLIConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// getServerURL returns the server URL from env var, config, or default.
func getServerURL() string {
	if v := os.Getenv("VD_SERVER_URL"); v != "" {
		return v
	}
	cfg, err := loadConfig()
	if err == nil && cfg.ServerURL != "" {
		return cfg.ServerURL
	}
	return defaultServerURL
}

// getAPIKey returns the API key from env var or config. It is read on
// every call so a login from another terminal takes effect immediately.
func getAPIKey() string {
	if v := os.Getenv("VD_API_KEY"); v != "" {
		return v
	}
	cfg, err := loadConfig()
	if err == nil {
		return cfg.APIKey
	}
	return ""
}

// getIntervals returns the polling periods from config.
func getIntervals() (refresh.Intervals, error) {
	cfg, err := loadConfig()
	if err != nil {
		return refresh.Intervals{}, err
	}
	return cfg.Intervals.Refresh()
}
