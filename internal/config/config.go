package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// CodicentConfig holds authentication and connection state for Codicent.
// AccessToken and RefreshToken are written by the login flow; Project is
// derived from the token claims and tags every message sent from this machine.
type CodicentConfig struct {
	ClientID     string `toml:"client_id"`
	URL          string `toml:"url"`
	Project      string `toml:"project"`
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
}

// Config holds all codicent configuration.
type Config struct {
	Codicent CodicentConfig `toml:"codicent"`
}

// LoadFrom reads configuration from the given TOML file path.
// If the file does not exist, it returns an empty config without error.
// Environment variables always take precedence over file values:
//   - CODICENT_TOKEN   overrides codicent.access_token
//   - CODICENT_PROJECT overrides codicent.project
//   - CODICENT_URL     overrides codicent.url
func LoadFrom(path string) (Config, error) {
	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// DefaultConfigPath returns the default path for the codicent config file.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return home + "/.config/codicent/config.toml"
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CODICENT_TOKEN"); v != "" {
		cfg.Codicent.AccessToken = v
	}
	if v := os.Getenv("CODICENT_PROJECT"); v != "" {
		cfg.Codicent.Project = v
	}
	if v := os.Getenv("CODICENT_URL"); v != "" {
		cfg.Codicent.URL = v
	}
}

// Save writes cfg to the given TOML file path, creating parent directories as needed.
// Existing file contents are overwritten. Permissions on the written file are 0600.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	if encErr := toml.NewEncoder(f).Encode(cfg); encErr != nil {
		f.Close()
		return encErr
	}
	return f.Close()
}
