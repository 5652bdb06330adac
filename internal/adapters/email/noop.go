package email

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// NoopSender logs emails instead of delivering them. It stands in when no
// Resend key is configured and keeps what it was asked to send.
type NoopSender struct {
	mu   sync.Mutex
	now  func() time.Time
	sent []SendRequest
}

// NewNoopSender creates a new NoopSender.
func NewNoopSender() *NoopSender {
	return &NoopSender{now: time.Now}
}

// Send records the email without delivering it.
// POST: Returns a noop-<n> message id, n counting from 1
func (s *NoopSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	s.mu.Lock()
	s.sent = append(s.sent, req)
	n := len(s.sent)
	s.mu.Unlock()

	slog.Info("email_event", "event", "noop_send", "category", req.Category, "recipients", len(req.To), "subject", req.Subject)
	return SendResult{MessageID: "noop-" + strconv.Itoa(n), SentAt: s.now()}, nil
}

// Sent returns a copy of every request seen so far.
func (s *NoopSender) Sent() []SendRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SendRequest(nil), s.sent...)
}
