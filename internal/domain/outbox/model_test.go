package outbox_test

import (
	"errors"
	"testing"
	"time"

	"warteam/internal/domain/outbox"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// TestEntry_Validate tests required fields and defaults.
func TestEntry_Validate(t *testing.T) {
	e := outbox.Entry{ActionType: outbox.ActionTypeEmail, Payload: "{}", CreatedAt: t0}
	if err := e.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.MaxAttempts != outbox.DefaultMaxAttempts || e.Status != outbox.StatusPending {
		t.Errorf("defaults not applied: %+v", e)
	}

	tests := []struct {
		name string
		e    outbox.Entry
		want error
	}{
		{"no action", outbox.Entry{Payload: "{}", CreatedAt: t0}, outbox.ErrEmptyActionType},
		{"no payload", outbox.Entry{ActionType: "email", CreatedAt: t0}, outbox.ErrEmptyPayload},
		{"no created", outbox.Entry{ActionType: "email", Payload: "{}"}, outbox.ErrEmptyCreatedAt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.e.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

// TestEntry_Lifecycle tests attempt counting through to permanent failure.
func TestEntry_Lifecycle(t *testing.T) {
	e := outbox.Entry{ActionType: outbox.ActionTypeDiscordDM, Payload: "{}", CreatedAt: t0, MaxAttempts: 2}
	_ = e.Validate()

	e.MarkAttempt(t0)
	e.MarkFailed(errors.New("no bot token"))
	if e.Status != outbox.StatusRetrying || !e.CanRetry() || e.IsTerminal() {
		t.Fatalf("after first failure: %+v", e)
	}

	e.MarkAttempt(t0.Add(time.Minute))
	e.MarkFailed(errors.New("no bot token"))
	if e.Status != outbox.StatusFailed || e.CanRetry() || !e.IsTerminal() {
		t.Fatalf("after second failure: %+v", e)
	}
	if e.ErrorMessage != "no bot token" {
		t.Errorf("ErrorMessage = %q", e.ErrorMessage)
	}
}

// TestEntry_MarkSuccess tests the done transition.
func TestEntry_MarkSuccess(t *testing.T) {
	e := outbox.Entry{ErrorMessage: "old"}
	e.MarkSuccess("msg-1")
	if e.Status != outbox.StatusDone || e.ExternalID != "msg-1" || e.ErrorMessage != "" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if !e.IsTerminal() {
		t.Error("done entries are terminal")
	}
}

// TestEntry_Backoff tests exponential delay and readiness.
func TestEntry_Backoff(t *testing.T) {
	base, max := 30*time.Second, 10*time.Minute
	e := outbox.Entry{}
	if !e.ReadyAt(t0, base, max) {
		t.Error("never-attempted entry should be ready")
	}
	e.MarkAttempt(t0)
	if got := e.NextRetryDelay(base, max); got != time.Minute {
		t.Errorf("delay after 1 attempt = %v, want 1m", got)
	}
	if e.ReadyAt(t0.Add(59*time.Second), base, max) {
		t.Error("should not be ready before the delay")
	}
	if !e.ReadyAt(t0.Add(time.Minute), base, max) {
		t.Error("should be ready once the delay elapsed")
	}
	e.Attempts = 10
	if got := e.NextRetryDelay(base, max); got != max {
		t.Errorf("delay should cap at %v, got %v", max, got)
	}
}
