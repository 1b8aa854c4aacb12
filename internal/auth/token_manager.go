package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/izaxon/codicent-cli/internal/config"
)

// defaultClientID matches the value in cmd/codicent/main.go.
const defaultClientID = "codicent-vscode"

// TokenManager owns the credential state for one user session: it persists
// freshly issued tokens and performs silent refresh against the token endpoint.
type TokenManager struct {
	cfg        *config.Config
	configPath string
	baseURL    string
	mu         sync.Mutex
}

// NewTokenManager creates a TokenManager.
// baseURL is the base URL for Codicent OAuth endpoints (pass empty for codicent.com).
func NewTokenManager(cfg *config.Config, configPath string, baseURL string) *TokenManager {
	return &TokenManager{
		cfg:        cfg,
		configPath: configPath,
		baseURL:    baseURL,
	}
}

// Store records a freshly issued token pair in the config, derives the project
// tag from the token claims, and persists the config to disk.
func (tm *TokenManager) Store(result TokenResult) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.cfg.Codicent.AccessToken = result.AccessToken
	tm.cfg.Codicent.RefreshToken = result.RefreshToken
	if project, ok := ProjectIdentifier(result.AccessToken); ok {
		tm.cfg.Codicent.Project = project
	}

	if tm.configPath == "" {
		return nil
	}
	if err := config.Save(tm.configPath, *tm.cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

// Refresh attempts to refresh the access token using the stored refresh token.
// On success, it updates the config in memory and persists it to disk.
// Returns the new access token or an error.
func (tm *TokenManager) Refresh(ctx context.Context) (string, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.cfg.Codicent.RefreshToken == "" {
		return "", fmt.Errorf("no refresh token available")
	}

	clientID := tm.cfg.Codicent.ClientID
	if clientID == "" {
		clientID = defaultClientID
	}

	flow := NewDeviceFlow(clientID, tm.baseURL)
	result, err := flow.RefreshToken(ctx, tm.cfg.Codicent.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("refreshing Codicent token: %w", err)
	}

	tm.cfg.Codicent.AccessToken = result.AccessToken
	tm.cfg.Codicent.RefreshToken = result.RefreshToken

	if tm.configPath != "" {
		if saveErr := config.Save(tm.configPath, *tm.cfg); saveErr != nil {
			// Token refreshed in memory but save failed -- still return success
			// since the token is usable for this session
			return result.AccessToken, fmt.Errorf("token refreshed but failed to save config: %w", saveErr)
		}
	}

	return result.AccessToken, nil
}

// Config returns the current config pointer.
func (tm *TokenManager) Config() *config.Config {
	return tm.cfg
}

// ConfigPath returns the config file path.
func (tm *TokenManager) ConfigPath() string {
	return tm.configPath
}
