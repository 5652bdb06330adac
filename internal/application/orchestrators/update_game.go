package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"warteam/internal/domain/game"
	"warteam/internal/domain/outbox"
)

// GameUpdater is the atomic read-modify-write every game mutation goes through.
type GameUpdater interface {
	Update(ctx context.Context, id string, fn func(*game.Game) error) (game.Game, error)
}

// UpdateGameInput carries input for the orchestrator.
type UpdateGameInput struct {
	GameID string
	Patch  game.Patch
}

// UpdateGameDeps holds dependencies for UpdateGame.
type UpdateGameDeps struct {
	GameStore GameUpdater
	Now       func() time.Time
}

// ExecuteUpdateGame merges the provided fields into a game.
// PRE: caller is a manager
// POST: non-nil patch fields are applied; the game is unchanged on error
func ExecuteUpdateGame(ctx context.Context, input UpdateGameInput, deps UpdateGameDeps) (game.Game, error) {
	g, err := deps.GameStore.Update(ctx, input.GameID, func(g *game.Game) error {
		if err := g.Apply(input.Patch); err != nil {
			return err
		}
		g.UpdatedAt = deps.Now()
		return nil
	})
	if err != nil {
		return game.Game{}, err
	}

	slog.Info("game_event", "event", "game_updated", "game_id", g.ID)
	return g, nil
}

// GameStoreForDelete defines the store interface needed by DeleteGame.
type GameStoreForDelete interface {
	Delete(ctx context.Context, id string) error
}

// OutboxStoreForDelete defines the outbox access needed to cancel a deleted game's reminders.
type OutboxStoreForDelete interface {
	ListByGame(ctx context.Context, gameID string) ([]outbox.Entry, error)
	Save(ctx context.Context, e outbox.Entry) error
}

// DeleteGameDeps holds dependencies for DeleteGame. OutboxStore may be nil.
type DeleteGameDeps struct {
	GameStore   GameStoreForDelete
	OutboxStore OutboxStoreForDelete
}

// ExecuteDeleteGame removes a game and abandons reminders still queued for it.
// PRE: caller is a manager
// POST: the game is gone; game.ErrNotFound leaves the store unchanged
// INVARIANT: a reminder that could not be abandoned is logged, never returned
func ExecuteDeleteGame(ctx context.Context, gameID string, deps DeleteGameDeps) error {
	if err := deps.GameStore.Delete(ctx, gameID); err != nil {
		return err
	}
	slog.Info("game_event", "event", "game_deleted", "game_id", gameID)

	if deps.OutboxStore == nil {
		return nil
	}
	entries, err := deps.OutboxStore.ListByGame(ctx, gameID)
	if err != nil {
		slog.Error("game_event", "event", "reminder_cancel_failed", "game_id", gameID, "error", err)
		return nil
	}
	abandoned := 0
	for _, e := range entries {
		if e.IsTerminal() {
			continue
		}
		e.MarkAbandoned()
		e.ErrorMessage = "game deleted"
		if err := deps.OutboxStore.Save(ctx, e); err != nil {
			slog.Error("game_event", "event", "reminder_cancel_failed", "game_id", gameID, "entry_id", e.ID, "error", err)
			continue
		}
		abandoned++
	}
	if abandoned > 0 {
		slog.Info("game_event", "event", "reminders_abandoned", "game_id", gameID, "count", abandoned)
	}
	return nil
}
