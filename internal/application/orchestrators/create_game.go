package orchestrators

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"warteam/internal/domain/game"
)

// GameStoreForCreate defines the store interface needed by CreateGame.
type GameStoreForCreate interface {
	Save(ctx context.Context, g game.Game) error
}

// CreateGameInput carries input for the orchestrator.
type CreateGameInput struct {
	Date     string
	Time     string
	Opponent string
	Notes    string
	League   string
	Division string
	GameMode string
	TeamSize int
}

// CreateGameDeps holds dependencies for CreateGame.
type CreateGameDeps struct {
	GameStore  GameStoreForCreate
	GenerateID func(now time.Time) string
	Now        func() time.Time
}

// ExecuteCreateGame schedules a new game.
// PRE: caller is a manager
// POST: a game with a fresh id and empty player sets is persisted
// INVARIANT: date, time and opponent are non-empty
func ExecuteCreateGame(ctx context.Context, input CreateGameInput, deps CreateGameDeps) (game.Game, error) {
	now := deps.Now()
	g := game.Game{
		ID:          deps.GenerateID(now),
		Date:        strings.TrimSpace(input.Date),
		Time:        strings.TrimSpace(input.Time),
		Opponent:    strings.TrimSpace(input.Opponent),
		Notes:       input.Notes,
		League:      strings.TrimSpace(input.League),
		Division:    strings.TrimSpace(input.Division),
		GameMode:    strings.TrimSpace(input.GameMode),
		TeamSize:    input.TeamSize,
		Available:   game.NewPlayerSet(),
		Unavailable: game.NewPlayerSet(),
		Roster:      game.NewPlayerSet(),
		Subs:        game.NewPlayerSet(),
		Withdrawals: game.NewPlayerSet(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := g.Validate(); err != nil {
		return game.Game{}, err
	}
	g.ApplyDefaults()

	if err := deps.GameStore.Save(ctx, g); err != nil {
		return game.Game{}, err
	}

	slog.Info("game_event", "event", "game_created", "game_id", g.ID, "date", g.Date, "opponent", g.Opponent)
	return g, nil
}
