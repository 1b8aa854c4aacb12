package mcp

import (
	"encoding/json"
	"net/url"
)

// Server is one entry in an AI assistant's server configuration file.
// Only the fields an HTTP tool endpoint needs are rendered; the tool protocol
// itself is handled entirely by the assistant and the Codicent backend.
type Server struct {
	Type    string            `json:"type"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// File is the top-level shape assistants expect for server registration.
type File struct {
	Servers map[string]Server `json:"servers"`
}

// Render produces the JSON snippet that registers the Codicent tool endpoint
// with an AI assistant, authenticated with the given bearer token.
func Render(baseURL string, accessToken string) ([]byte, error) {
	endpoint, err := url.JoinPath(baseURL, "/mcp")
	if err != nil {
		return nil, err
	}
	server := Server{
		Type: "http",
		URL:  endpoint,
	}
	if accessToken != "" {
		server.Headers = map[string]string{
			"Authorization": "Bearer " + accessToken,
		}
	}
	return json.MarshalIndent(File{Servers: map[string]Server{"codicent": server}}, "", "  ")
}
