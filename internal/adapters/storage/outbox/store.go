package outbox

import (
	"context"
	"time"

	domain "warteam/internal/domain/outbox"
)

// Store defines the interface for outbox entry persistence.
type Store interface {
	// GetByID retrieves an outbox entry by its ID.
	// PRE: id is non-empty
	// POST: Returns the entry or an error if not found
	GetByID(ctx context.Context, id string) (domain.Entry, error)

	// Save persists an outbox entry (insert or update).
	// PRE: entity has been validated
	Save(ctx context.Context, e domain.Entry) error

	// ListPending returns entries that still need processing (pending or retrying).
	// PRE: limit > 0
	// POST: Returns up to limit entries ordered by created_at
	ListPending(ctx context.Context, limit int) ([]domain.Entry, error)

	// ListFailed returns entries that have permanently failed.
	// PRE: limit > 0
	ListFailed(ctx context.Context, limit int) ([]domain.Entry, error)

	// ListByGame returns every entry queued for a game.
	ListByGame(ctx context.Context, gameID string) ([]domain.Entry, error)

	// PurgeFinished deletes done and abandoned entries created before cutoff.
	// POST: Returns the number of entries removed; retryable and failed entries are kept
	PurgeFinished(ctx context.Context, cutoff time.Time) (int64, error)
}
