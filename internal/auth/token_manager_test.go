package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/izaxon/codicent-cli/internal/auth"
	"github.com/izaxon/codicent-cli/internal/config"
)

func TestTokenManager_Store_PersistsTokensAndDerivedProject(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	cfg := &config.Config{}

	token := makeToken(t, map[string]interface{}{"project": "demo"})
	tm := auth.NewTokenManager(cfg, cfgPath, "")

	err := tm.Store(auth.TokenResult{AccessToken: token, RefreshToken: "refresh_1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Codicent.Project != "demo" {
		t.Errorf("expected project 'demo' derived from claims, got '%s'", cfg.Codicent.Project)
	}

	// Verify the round trip through the config file
	loaded, err := config.LoadFrom(cfgPath)
	if err != nil {
		t.Fatalf("loading saved config: %v", err)
	}
	if loaded.Codicent.AccessToken != token {
		t.Errorf("persisted access token differs from stored one")
	}
	if loaded.Codicent.RefreshToken != "refresh_1" {
		t.Errorf("expected persisted refresh_token 'refresh_1', got '%s'", loaded.Codicent.RefreshToken)
	}
	if loaded.Codicent.Project != "demo" {
		t.Errorf("expected persisted project 'demo', got '%s'", loaded.Codicent.Project)
	}
}

func TestTokenManager_Store_KeepsProjectWhenTokenHasNoClaims(t *testing.T) {
	cfg := &config.Config{}
	cfg.Codicent.Project = "existing"

	tm := auth.NewTokenManager(cfg, "", "")
	if err := tm.Store(auth.TokenResult{AccessToken: "opaque-token"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Codicent.Project != "existing" {
		t.Errorf("expected project 'existing' to survive, got '%s'", cfg.Codicent.Project)
	}
}

func TestTokenManager_Refresh_UpdatesTokensAndSaves(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"access_token":  "new_access",
			"refresh_token": "new_refresh",
		})
	}))
	defer server.Close()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	cfg := &config.Config{}
	cfg.Codicent.AccessToken = "old_access"
	cfg.Codicent.RefreshToken = "old_refresh"
	cfg.Codicent.ClientID = "test_client"

	tm := auth.NewTokenManager(cfg, cfgPath, server.URL)

	newToken, err := tm.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newToken != "new_access" {
		t.Errorf("expected new_access, got %s", newToken)
	}
	if cfg.Codicent.AccessToken != "new_access" {
		t.Errorf("expected cfg access token updated, got %s", cfg.Codicent.AccessToken)
	}
	if cfg.Codicent.RefreshToken != "new_refresh" {
		t.Errorf("expected cfg refresh_token updated, got %s", cfg.Codicent.RefreshToken)
	}

	// Verify config was persisted to disk
	loaded, err := config.LoadFrom(cfgPath)
	if err != nil {
		t.Fatalf("loading saved config: %v", err)
	}
	if loaded.Codicent.AccessToken != "new_access" {
		t.Errorf("expected persisted token 'new_access', got '%s'", loaded.Codicent.AccessToken)
	}
	if loaded.Codicent.RefreshToken != "new_refresh" {
		t.Errorf("expected persisted refresh_token 'new_refresh', got '%s'", loaded.Codicent.RefreshToken)
	}
}

func TestTokenManager_Refresh_ReturnsErrorWhenNoRefreshToken(t *testing.T) {
	cfg := &config.Config{}
	cfg.Codicent.AccessToken = "old_access"
	// No refresh token set

	tm := auth.NewTokenManager(cfg, "", "")

	_, err := tm.Refresh(context.Background())
	if err == nil {
		t.Fatal("expected error when no refresh token, got nil")
	}
}

func TestTokenManager_Refresh_ReturnsErrorOnHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
	}))
	defer server.Close()

	cfg := &config.Config{}
	cfg.Codicent.AccessToken = "old_access"
	cfg.Codicent.RefreshToken = "revoked_refresh"
	cfg.Codicent.ClientID = "test_client"

	tm := auth.NewTokenManager(cfg, "", server.URL)

	_, err := tm.Refresh(context.Background())
	if err == nil {
		t.Fatal("expected error for failed refresh, got nil")
	}
}
