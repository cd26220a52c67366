package email

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// NoopSender logs notifications without delivering them. Used when no provider key is configured.
type NoopSender struct {
	sent atomic.Int64
}

// NewNoopSender creates a NoopSender.
func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

// Send logs the request and returns a synthetic message ID.
func (s *NoopSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	if len(req.To) == 0 {
		return SendResult{}, ErrNoRecipients
	}
	n := s.sent.Add(1)
	slog.Info("email_event", "event", "sent", "provider", "noop", "subject", req.Subject, "recipients", len(req.To))
	return SendResult{MessageID: fmt.Sprintf("noop-%d", n), SentAt: time.Now()}, nil
}

// Sent returns how many requests were accepted.
func (s *NoopSender) Sent() int64 {
	return s.sent.Load()
}
