package email

import (
	"context"
	"time"
)

// SendRequest is one outbound notification.
type SendRequest struct {
	To      []string
	From    string // Overrides the sender's default address when set
	Subject string
	HTML    string
}

// SendResult is the provider's acknowledgement.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers notifications through an external provider.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}

// New returns a Resend-backed sender when apiKey is set, otherwise a NoopSender.
func New(apiKey, from string) Sender {
	if apiKey == "" {
		return NewNoopSender()
	}
	return NewResendSender(apiKey, from)
}
