package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"warteam/internal/adapters/email"
	outboxStore "warteam/internal/adapters/storage/outbox"
	"warteam/internal/domain/apperr"
	domain "warteam/internal/domain/outbox"
)

// ErrEntryTerminal is returned when retrying an entry that can no longer run.
var ErrEntryTerminal = apperr.Conflict("Outbox entry is in a terminal state and cannot be retried")

// OutboxProcessor delivers queued reminders, retrying failures with exponential backoff.
// INVARIANT: at most one run touches the store at a time, so an entry is
// never sent by two callers at once
type OutboxProcessor struct {
	mu        sync.Mutex
	store     outboxStore.Store
	executors map[string]ActionExecutor
	now       func() time.Time
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int
}

// ActionExecutor executes a specific type of external action.
type ActionExecutor interface {
	// Execute runs the external action with the given payload.
	// Returns the external ID (e.g. Discord message id) and any error.
	Execute(ctx context.Context, payload string) (string, error)
}

// NewOutboxProcessor creates a new outbox processor.
func NewOutboxProcessor(store outboxStore.Store, executors map[string]ActionExecutor, now func() time.Time) *OutboxProcessor {
	return &OutboxProcessor{
		store:     store,
		executors: executors,
		now:       now,
		baseDelay: 30 * time.Second,
		maxDelay:  1 * time.Hour,
		batchSize: 25,
	}
}

// ProcessPending processes pending outbox entries whose backoff has elapsed.
// PRE: Context is valid
// POST: Ready entries are attempted once; failures stay retryable until max attempts
func (p *OutboxProcessor) ProcessPending(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries, err := p.store.ListPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("list pending outbox entries: %w", err)
	}

	for _, entry := range entries {
		if !entry.ReadyAt(p.now(), p.baseDelay, p.maxDelay) {
			continue
		}
		if err := p.attempt(ctx, entry); err != nil {
			slog.Error("outbox_event", "event", "process_failed", "entry_id", entry.ID, "action_type", entry.ActionType, "error", err)
		}
	}
	return nil
}

func (p *OutboxProcessor) attempt(ctx context.Context, entry domain.Entry) error {
	executor, ok := p.executors[entry.ActionType]
	if !ok {
		entry.MarkAbandoned()
		entry.ErrorMessage = "no executor registered for action type: " + entry.ActionType
		return p.store.Save(ctx, entry)
	}

	entry.MarkAttempt(p.now())
	externalID, err := executor.Execute(ctx, entry.Payload)
	if err != nil {
		entry.MarkFailed(err)
		slog.Warn("outbox_event", "event", "action_failed", "entry_id", entry.ID, "attempt", entry.Attempts, "error", err)
	} else {
		entry.MarkSuccess(externalID)
		slog.Info("outbox_event", "event", "action_succeeded", "entry_id", entry.ID, "action_type", entry.ActionType, "external_id", externalID)
	}
	return p.store.Save(ctx, entry)
}

// ProcessSingle processes one entry immediately, ignoring backoff (manual retry).
// PRE: entryID is non-empty
// POST: Entry is attempted once and its status updated
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, entryID string) (domain.Entry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("get outbox entry: %w", err)
	}
	if entry.Status == domain.StatusDone || entry.Status == domain.StatusAbandoned {
		return domain.Entry{}, ErrEntryTerminal
	}
	if entry.Attempts >= entry.MaxAttempts {
		entry.MaxAttempts = entry.Attempts + 1
	}
	if err := p.attempt(ctx, entry); err != nil {
		return domain.Entry{}, err
	}
	return p.store.GetByID(ctx, entryID)
}

// AbandonEntry stops any further attempts at an entry.
// PRE: entryID is non-empty
// POST: Entry status set to abandoned
func (p *OutboxProcessor) AbandonEntry(ctx context.Context, entryID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	entry.MarkAbandoned()
	return p.store.Save(ctx, entry)
}

// Purge removes finished entries older than retention.
// POST: done and abandoned entries created before now-retention are gone
func (p *OutboxProcessor) Purge(ctx context.Context, retention time.Duration) error {
	n, err := p.store.PurgeFinished(ctx, p.now().Add(-retention))
	if err != nil {
		return fmt.Errorf("purge outbox: %w", err)
	}
	if n > 0 {
		slog.Info("outbox_event", "event", "purged", "entries", n)
	}
	return nil
}

// ListFailed returns entries that used up their attempts.
func (p *OutboxProcessor) ListFailed(ctx context.Context, limit int) ([]domain.Entry, error) {
	return p.store.ListFailed(ctx, limit)
}

// --- Discord DM Executor ---

// DMPayload is the JSON structure for a queued Discord direct message.
type DMPayload struct {
	UserID  string `json:"userId"`
	Content string `json:"content"`
}

// DMSender sends a direct message and returns its id.
type DMSender interface {
	Send(ctx context.Context, userID, content string) (string, error)
}

// DiscordDMExecutor delivers queued reminder DMs.
type DiscordDMExecutor struct {
	Sender DMSender
}

// Execute sends the DM described by payload.
// PRE: payload is valid JSON matching DMPayload
// POST: returns the Discord message id
// INVARIANT: outbox entry status managed by caller
func (e *DiscordDMExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var p DMPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return "", fmt.Errorf("unmarshal payload: %w", err)
	}
	return e.Sender.Send(ctx, p.UserID, p.Content)
}

// --- Email Executor ---

// EmailPayload is the JSON structure for a queued email.
type EmailPayload struct {
	To       []string `json:"to"`
	Subject  string   `json:"subject"`
	HTML     string   `json:"html"`
	Text     string   `json:"text,omitempty"`
	Category string   `json:"category,omitempty"`
}

// EmailExecutor delivers queued reminder emails.
type EmailExecutor struct {
	Sender email.Sender
}

// Execute sends the email described by payload.
// PRE: payload is valid JSON matching EmailPayload
// POST: returns the provider's message id
// INVARIANT: outbox entry status managed by caller
func (e *EmailExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var p EmailPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return "", fmt.Errorf("unmarshal payload: %w", err)
	}
	res, err := e.Sender.Send(ctx, email.SendRequest{To: p.To, Subject: p.Subject, HTML: p.HTML, Text: p.Text, Category: p.Category})
	if err != nil {
		return "", err
	}
	return res.MessageID, nil
}

// --- Background Workers ---

// StartBackgroundWorker starts a goroutine that periodically processes pending outbox entries.
// PRE: stopCh is provided to signal shutdown
// POST: Worker runs until stopCh is closed
func StartBackgroundWorker(processor *OutboxProcessor, interval time.Duration, stopCh <-chan struct{}) {
	StartTicker("outbox", interval, stopCh, processor.ProcessPending)
}

// StartTicker runs fn every interval until stopCh is closed. Each run gets a
// five minute deadline.
func StartTicker(name string, interval time.Duration, stopCh <-chan struct{}, fn func(ctx context.Context) error) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				if err := fn(ctx); err != nil {
					slog.Error("worker_event", "event", "run_failed", "worker", name, "error", err)
				}
				cancel()
			case <-stopCh:
				slog.Info("worker_event", "event", "stopped", "worker", name)
				return
			}
		}
	}()
}
