// Package email delivers communication hub messages through an external
// provider.
package email

import (
	"context"
	"time"
)

// SendRequest is one outbound email.
type SendRequest struct {
	To      []string
	From    string // "Conference Secretariat <faculty@example.org>"; empty uses the sender default
	Subject string
	HTML    string
	Text    string // plain-text alternative
	ReplyTo string
	Tags    map[string]string // provider tags, e.g. message_id for delivery tracking
}

// SendResult contains the response from the email provider.
type SendResult struct {
	MessageID string    // provider's message ID
	SentAt    time.Time // when the provider accepted the send
}

// Sender is the interface for sending emails via an external provider.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
	SendBatch(ctx context.Context, reqs []SendRequest) ([]SendResult, error)
}
