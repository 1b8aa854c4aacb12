package codicent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/izaxon/codicent-cli/internal/domain"
)

const defaultBaseURL = "https://codicent.com"

// Client implements domain.MessagePoster against the Codicent HTTP API.
type Client struct {
	token   string
	baseURL string
	client  *http.Client
}

// Ensure Client fully implements domain.MessagePoster.
var _ domain.MessagePoster = (*Client)(nil)

// NewClient creates a Codicent API client.
// Pass an empty baseURL to use the real Codicent API. Pass a test server URL in tests.
func NewClient(token string, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		token:   token,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken replaces the bearer token used for subsequent requests.
// Called after a silent token refresh.
func (c *Client) SetToken(token string) {
	c.token = token
}

type messageRequest struct {
	ID      string   `json:"id"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// PostMessage sends one message to Codicent. The message id is generated
// client-side so a retried request cannot create a duplicate.
func (c *Client) PostMessage(ctx context.Context, content string, tags []string) (domain.Message, error) {
	apiURL, err := url.JoinPath(c.baseURL, "/api/message")
	if err != nil {
		return domain.Message{}, fmt.Errorf("building URL: %w", err)
	}

	payload := messageRequest{
		ID:      uuid.NewString(),
		Content: content,
		Tags:    tags,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.Message{}, fmt.Errorf("encoding message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return domain.Message{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Message{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return domain.Message{}, fmt.Errorf("codicent API error: %s: %w", resp.Status, domain.ErrUnauthorized)
	}
	if resp.StatusCode >= 400 {
		return domain.Message{}, fmt.Errorf("codicent API error: %s", resp.Status)
	}

	var raw messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return domain.Message{}, fmt.Errorf("decoding message response: %w", err)
	}

	msg := domain.Message{
		ID:        raw.ID,
		Content:   content,
		Tags:      tags,
		CreatedAt: raw.CreatedAt,
	}
	if msg.ID == "" {
		msg.ID = payload.ID
	}
	log.Debug().Str("message_id", msg.ID).Strs("tags", tags).Msg("message posted")
	return msg, nil
}
