package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultBaseURL = "https://codicent.com"

// grantTypeDeviceCode is the RFC 8628 grant type sent when polling for a token.
const grantTypeDeviceCode = "urn:ietf:params:oauth:grant-type:device_code"

// DeviceFlow implements the OAuth 2.0 Device Authorization Grant (RFC 8628)
// against the Codicent identity endpoints.
type DeviceFlow struct {
	clientID string
	baseURL  string
	client   *http.Client
}

// NewDeviceFlow creates a DeviceFlow.
// Pass an empty baseURL to use the real Codicent API. Pass a test server URL in tests.
func NewDeviceFlow(clientID string, baseURL string) *DeviceFlow {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &DeviceFlow{
		clientID: clientID,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// deviceAuthorizationWire tolerates both snake_case and camelCase field names.
// Normalization to the canonical DeviceAuthorization happens in one place here,
// never in the callers.
type deviceAuthorizationWire struct {
	DeviceCode      string `json:"device_code"`
	DeviceCodeAlt   string `json:"deviceCode"`
	UserCode        string `json:"user_code"`
	UserCodeAlt     string `json:"userCode"`
	VerificationURI string `json:"verification_uri"`
	VerificationAlt string `json:"verificationUri"`
	ExpiresIn       int    `json:"expires_in"`
	ExpiresInAlt    int    `json:"expiresIn"`
	Interval        int    `json:"interval"`
	PollIntervalAlt int    `json:"pollInterval"`
}

type tokenWire struct {
	AccessToken     string `json:"access_token"`
	AccessTokenAlt  string `json:"accessToken"`
	RefreshToken    string `json:"refresh_token"`
	RefreshTokenAlt string `json:"refreshToken"`
}

// tokenErrorWire is the 4xx error shape of the token endpoint. Errors carries
// field-level validation failures for malformed requests; Code and the message
// fields carry OAuth protocol errors such as authorization_pending.
type tokenErrorWire struct {
	Code        string              `json:"error"`
	Description string              `json:"error_description"`
	Message     string              `json:"message"`
	Errors      map[string][]string `json:"errors"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

// RequestCode requests a device code and user code from the authorization endpoint.
// The returned DeviceAuthorization.UserCode must be shown to the user along with
// VerificationURI. project optionally scopes the authorization to one Codicent project.
// A response missing the device code, user code, or verification URI is an error;
// a partially populated DeviceAuthorization is never returned.
func (f *DeviceFlow) RequestCode(ctx context.Context, project string) (DeviceAuthorization, error) {
	data := url.Values{}
	data.Set("ClientId", f.clientID)
	data.Set("Scope", "api")
	if project != "" {
		data.Set("Project", project)
	}

	endpoint, err := url.JoinPath(f.baseURL, "/oauth/device_authorization")
	if err != nil {
		return DeviceAuthorization{}, fmt.Errorf("building URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return DeviceAuthorization{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.client.Do(req)
	if err != nil {
		return DeviceAuthorization{}, fmt.Errorf("requesting device code: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return DeviceAuthorization{}, fmt.Errorf("device authorization endpoint returned %s", resp.Status)
	}

	var raw deviceAuthorizationWire
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return DeviceAuthorization{}, fmt.Errorf("decoding device code response: %w", err)
	}

	authz := DeviceAuthorization{
		DeviceCode:      firstNonEmpty(raw.DeviceCode, raw.DeviceCodeAlt),
		UserCode:        firstNonEmpty(raw.UserCode, raw.UserCodeAlt),
		VerificationURI: firstNonEmpty(raw.VerificationURI, raw.VerificationAlt),
		ExpiresIn:       firstPositive(raw.ExpiresIn, raw.ExpiresInAlt),
		Interval:        firstPositive(raw.Interval, raw.PollIntervalAlt),
	}
	if authz.DeviceCode == "" || authz.UserCode == "" || authz.VerificationURI == "" {
		return DeviceAuthorization{}, fmt.Errorf("malformed device authorization response: missing device code, user code, or verification URI")
	}
	return authz, nil
}

// PollOnce performs a single poll against the token endpoint and classifies
// the response. It never returns a transport or parse error directly; every
// failure mode is folded into the PollOutcome.
func (f *DeviceFlow) PollOnce(ctx context.Context, deviceCode string) PollOutcome {
	data := url.Values{}
	data.Set("GrantType", grantTypeDeviceCode)
	data.Set("DeviceCode", deviceCode)
	data.Set("ClientId", f.clientID)

	raw, status, err := f.postToken(ctx, data)
	if err != nil {
		return PollOutcome{Status: PollFatal, Err: err}
	}

	switch {
	case status >= 200 && status < 300:
		token := firstNonEmpty(raw.token.AccessToken, raw.token.AccessTokenAlt)
		if token == "" {
			return PollOutcome{Status: PollFatal, Err: ErrCredentialMissing}
		}
		return PollOutcome{Status: PollSuccess, Token: TokenResult{
			AccessToken:  token,
			RefreshToken: firstNonEmpty(raw.token.RefreshToken, raw.token.RefreshTokenAlt),
		}}
	case status == http.StatusBadRequest:
		return classifyBadRequest(raw.tokenErr)
	default:
		return PollOutcome{Status: PollFatal, Err: fmt.Errorf("token endpoint returned unexpected status %d", status)}
	}
}

// classifyBadRequest decides whether a 400 from the token endpoint is a normal
// "keep waiting" signal or a terminal failure. Field-level validation errors
// mean the outgoing request itself was malformed: retrying it cannot succeed.
func classifyBadRequest(raw tokenErrorWire) PollOutcome {
	if len(raw.Errors) > 0 {
		return PollOutcome{Status: PollFatal, Err: &RequestError{Fields: raw.Errors}}
	}

	message := strings.ToLower(firstNonEmpty(raw.Description, raw.Message))
	switch raw.Code {
	case "authorization_pending", "slow_down":
		return PollOutcome{Status: PollPending}
	case "invalid_grant", "expired_token", "access_denied":
		return PollOutcome{Status: PollExpired, Err: ErrAuthorizationExpired}
	}
	if strings.Contains(message, "pending") || strings.Contains(message, "slow down") {
		return PollOutcome{Status: PollPending}
	}
	reason := firstNonEmpty(raw.Code, raw.Description, raw.Message, "no error code")
	if len(reason) > 100 {
		reason = reason[:100]
	}
	return PollOutcome{Status: PollFatal, Err: fmt.Errorf("token endpoint rejected the poll: %s", reason)}
}

// MaxPollAttempts returns the poll attempt budget for one authorization
// window. An interval of zero (test mode) is treated as one-second spacing.
func MaxPollAttempts(expiresIn, interval int) int {
	if interval <= 0 {
		interval = 1
	}
	return expiresIn / interval
}

// Run drives the polling loop for an issued DeviceAuthorization until a token
// is granted, the authorization expires, or a fatal classification occurs.
// The interval is fixed for the whole session at the server-provided value and
// the number of attempts is capped at ExpiresIn/Interval, so polling always
// stops once the authorization window has passed regardless of what the
// server keeps answering.
//
// Interval=0 disables the sleep delay (test mode) and caps attempts at ExpiresIn.
func (f *DeviceFlow) Run(ctx context.Context, authz DeviceAuthorization) (TokenResult, error) {
	if authz.ExpiresIn <= 0 {
		return TokenResult{}, fmt.Errorf("device authorization has no validity window")
	}

	interval := authz.Interval
	if interval < 0 {
		interval = 0
	}
	maxAttempts := MaxPollAttempts(authz.ExpiresIn, interval)

	ctx, cancel := context.WithTimeout(ctx, time.Duration(authz.ExpiresIn)*time.Second)
	defer cancel()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if interval > 0 {
			select {
			case <-time.After(time.Duration(interval) * time.Second):
			case <-ctx.Done():
				return TokenResult{}, fmt.Errorf("%w: %v", ErrAuthorizationExpired, ctx.Err())
			}
		} else {
			select {
			case <-ctx.Done():
				return TokenResult{}, fmt.Errorf("%w: %v", ErrAuthorizationExpired, ctx.Err())
			default:
			}
		}

		outcome := f.PollOnce(ctx, authz.DeviceCode)
		switch outcome.Status {
		case PollSuccess:
			return outcome.Token, nil
		case PollPending:
			// Expected transient state: log it, never surface it as an error.
			log.Debug().
				Int("attempt", attempt).
				Int("max_attempts", maxAttempts).
				Msg("authorization pending")
		default:
			return TokenResult{}, outcome.Err
		}
	}
	return TokenResult{}, ErrAuthorizationExpired
}

// RefreshToken exchanges a refresh token for a new token pair.
func (f *DeviceFlow) RefreshToken(ctx context.Context, refreshToken string) (TokenResult, error) {
	data := url.Values{}
	data.Set("GrantType", "refresh_token")
	data.Set("RefreshToken", refreshToken)
	data.Set("ClientId", f.clientID)

	raw, status, err := f.postToken(ctx, data)
	if err != nil {
		return TokenResult{}, err
	}
	if status < 200 || status >= 300 {
		reason := firstNonEmpty(raw.tokenErr.Code, raw.tokenErr.Description, raw.tokenErr.Message, fmt.Sprintf("status %d", status))
		return TokenResult{}, fmt.Errorf("refreshing token: %s", reason)
	}
	token := firstNonEmpty(raw.token.AccessToken, raw.token.AccessTokenAlt)
	if token == "" {
		return TokenResult{}, ErrCredentialMissing
	}
	return TokenResult{
		AccessToken:  token,
		RefreshToken: firstNonEmpty(raw.token.RefreshToken, raw.token.RefreshTokenAlt),
	}, nil
}

// tokenResponse bundles both possible body shapes of the token endpoint; a
// single response is decoded into both and classified by status code.
type tokenResponse struct {
	token    tokenWire
	tokenErr tokenErrorWire
}

func (f *DeviceFlow) postToken(ctx context.Context, data url.Values) (tokenResponse, int, error) {
	endpoint, err := url.JoinPath(f.baseURL, "/oauth/token")
	if err != nil {
		return tokenResponse{}, 0, fmt.Errorf("building URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return tokenResponse{}, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.client.Do(req)
	if err != nil {
		return tokenResponse{}, 0, fmt.Errorf("polling token: %w", err)
	}
	defer resp.Body.Close()

	var parsed tokenResponse
	dec := json.NewDecoder(resp.Body)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if decodeErr := dec.Decode(&parsed.token); decodeErr != nil {
			return tokenResponse{}, 0, fmt.Errorf("decoding token response: %w", decodeErr)
		}
	} else {
		// Error bodies are best-effort: an unparseable body still classifies
		// by status code alone.
		_ = dec.Decode(&parsed.tokenErr)
	}
	return parsed, resp.StatusCode, nil
}
