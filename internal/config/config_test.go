package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/izaxon/codicent-cli/internal/config"
)

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	content := `
[codicent]
access_token = "cod_testtoken"
refresh_token = "cod_refresh"
project = "demo"
url = "https://codicent.example.com"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Codicent.AccessToken != "cod_testtoken" {
		t.Errorf("expected access token 'cod_testtoken', got '%s'", cfg.Codicent.AccessToken)
	}
	if cfg.Codicent.RefreshToken != "cod_refresh" {
		t.Errorf("expected refresh token 'cod_refresh', got '%s'", cfg.Codicent.RefreshToken)
	}
	if cfg.Codicent.Project != "demo" {
		t.Errorf("expected project 'demo', got '%s'", cfg.Codicent.Project)
	}
	if cfg.Codicent.URL != "https://codicent.example.com" {
		t.Errorf("expected URL 'https://codicent.example.com', got '%s'", cfg.Codicent.URL)
	}
}

func TestLoad_EnvVarsTakePrecedence(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	content := `
[codicent]
access_token = "cod_fromfile"
project = "fileproject"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CODICENT_TOKEN", "cod_fromenv")
	t.Setenv("CODICENT_PROJECT", "envproject")
	t.Setenv("CODICENT_URL", "https://codicent.myco.com")

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Codicent.AccessToken != "cod_fromenv" {
		t.Errorf("expected env token 'cod_fromenv', got '%s'", cfg.Codicent.AccessToken)
	}
	if cfg.Codicent.Project != "envproject" {
		t.Errorf("expected env project 'envproject', got '%s'", cfg.Codicent.Project)
	}
	if cfg.Codicent.URL != "https://codicent.myco.com" {
		t.Errorf("expected env URL 'https://codicent.myco.com', got '%s'", cfg.Codicent.URL)
	}
}

func TestLoad_MissingFileIsNotError(t *testing.T) {
	t.Setenv("CODICENT_TOKEN", "cod_onlyenv")
	cfg, err := config.LoadFrom("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("missing file should not be an error, got: %v", err)
	}
	if cfg.Codicent.AccessToken != "cod_onlyenv" {
		t.Errorf("expected token from env, got '%s'", cfg.Codicent.AccessToken)
	}
}

func TestSave_RoundTripsTokens(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "nested", "config.toml")

	var cfg config.Config
	cfg.Codicent.AccessToken = "cod_roundtrip"
	cfg.Codicent.RefreshToken = "cod_refresh"
	cfg.Codicent.Project = "demo"

	if err := config.Save(configPath, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("stat saved config: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected file mode 0600, got %o", perm)
	}

	loaded, err := config.LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.Codicent.AccessToken != "cod_roundtrip" {
		t.Errorf("expected access token 'cod_roundtrip', got '%s'", loaded.Codicent.AccessToken)
	}
	if loaded.Codicent.Project != "demo" {
		t.Errorf("expected project 'demo', got '%s'", loaded.Codicent.Project)
	}
}
