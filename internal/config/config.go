// Package config loads the settings CLI configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Platform appearance choices.
const (
	AppearanceAuto  = "auto"
	AppearanceDark  = "dark"
	AppearanceLight = "light"
)

// Config holds the settings CLI configuration.
type Config struct {
	// APIURL is the root of the account API.
	APIURL string `yaml:"api_url"`

	// DataDir holds the local storage file.
	DataDir string `yaml:"data_dir"`

	// Timeout bounds each API call, as a Go duration string.
	Timeout string `yaml:"timeout"`

	// PlatformAppearance is the colour scheme used when no preference is stored:
	// auto asks the terminal, dark or light force one.
	PlatformAppearance string `yaml:"platform_appearance"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	dataDir := filepath.Join(".", ".medibook")
	if dir, err := os.UserConfigDir(); err == nil {
		dataDir = filepath.Join(dir, "medibook")
	}
	return &Config{
		APIURL:             "http://localhost:8080",
		DataDir:            dataDir,
		Timeout:            "30s",
		PlatformAppearance: AppearanceAuto,
	}
}

// DefaultPath is where the CLI looks for its config file.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".medibook", "settings.yaml")
	}
	return filepath.Join(dir, "medibook", "settings.yaml")
}

// Load reads configuration from a YAML file and applies environment overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MEDIBOOK_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("MEDIBOOK_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("MEDIBOOK_TIMEOUT"); v != "" {
		c.Timeout = v
	}
}

// Validate checks that every field can be used.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_url must be an http(s) URL, got %q", c.APIURL)
	}
	if c.DataDir == "" {
		return errors.New("data_dir cannot be empty")
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	switch c.PlatformAppearance {
	case AppearanceAuto, AppearanceDark, AppearanceLight:
	default:
		return fmt.Errorf("platform_appearance must be auto, dark or light, got %q", c.PlatformAppearance)
	}
	return nil
}

// TimeoutDuration parses Timeout.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("timeout must be a positive duration, got %q", c.Timeout)
	}
	return d, nil
}

// LocalStorePath is the SQLite file backing client-local storage.
func (c *Config) LocalStorePath() string {
	return filepath.Join(c.DataDir, "local.db")
}
