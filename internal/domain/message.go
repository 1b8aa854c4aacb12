package domain

import (
	"context"
	"time"
)

// Message represents one message in a Codicent stream.
type Message struct {
	ID        string
	Content   string
	Tags      []string
	CreatedAt time.Time
}

// MessagePoster is the port interface for sending messages to Codicent.
// The domain does not know about HTTP or any specific transport.
type MessagePoster interface {
	PostMessage(ctx context.Context, content string, tags []string) (Message, error)
}
