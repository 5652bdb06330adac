package game

import (
	"context"

	domain "warteam/internal/domain/game"
)

// Store persists Game state.
type Store interface {
	// GetByID returns the game or domain.ErrNotFound.
	GetByID(ctx context.Context, id string) (domain.Game, error)

	// List returns every game ordered by date, then time.
	List(ctx context.Context) ([]domain.Game, error)

	// ListByDate returns the games on date (YYYY-MM-DD) ordered by time.
	ListByDate(ctx context.Context, date string) ([]domain.Game, error)

	// Save inserts or replaces a game.
	// PRE: g has been validated
	Save(ctx context.Context, g domain.Game) error

	// SaveAll inserts or replaces every game in a single transaction.
	SaveAll(ctx context.Context, games []domain.Game) error

	// Update runs fn against the stored game and persists the result atomically.
	// Concurrent updates to the same game are serialized; none is lost.
	// PRE: id is non-empty
	// POST: on fn error nothing is written and the error is returned;
	// returns domain.ErrNotFound when the game does not exist
	Update(ctx context.Context, id string, fn func(g *domain.Game) error) (domain.Game, error)

	// Delete removes the game or returns domain.ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored games.
	Count(ctx context.Context) (int, error)
}
