package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"warteam/internal/domain/apperr"
	"warteam/internal/domain/game"
	"warteam/internal/domain/preference"
)

// Ownership errors for sessions linked to a player.
var (
	ErrNotOwnAvailability = apperr.Forbidden("Can only set your own availability")
	ErrNotOwnPreference   = apperr.Forbidden("Can only set your own preference")
	ErrNotOwnWithdrawal   = apperr.Forbidden("Can only withdraw yourself")
)

// Actor identifies who is making a player-facing change.
// LinkedPlayerID is empty for anonymous and unlinked sessions.
type Actor struct {
	LinkedPlayerID string
	IsManager      bool
}

func (a Actor) canActFor(playerID string) bool {
	return a.LinkedPlayerID == "" || a.LinkedPlayerID == playerID
}

// SetAvailabilityInput carries input for the orchestrator.
type SetAvailabilityInput struct {
	GameID      string
	PlayerID    string
	IsAvailable bool
	Actor       Actor
}

// PlayerActionDeps holds dependencies for the player-facing game mutations.
type PlayerActionDeps struct {
	GameStore GameUpdater
	Now       func() time.Time
}

// ExecuteSetAvailability records whether a player can make a game.
// PRE: PlayerID is non-empty
// POST: PlayerID is in exactly one of available/unavailable
// INVARIANT: a linked session may only change its own player
func ExecuteSetAvailability(ctx context.Context, input SetAvailabilityInput, deps PlayerActionDeps) (game.Game, error) {
	if input.PlayerID == "" {
		return game.Game{}, game.ErrPlayerIDRequired
	}
	if !input.Actor.canActFor(input.PlayerID) {
		return game.Game{}, ErrNotOwnAvailability
	}

	g, err := deps.GameStore.Update(ctx, input.GameID, func(g *game.Game) error {
		if err := g.SetAvailability(input.PlayerID, input.IsAvailable); err != nil {
			return err
		}
		g.UpdatedAt = deps.Now()
		return nil
	})
	if err != nil {
		return game.Game{}, err
	}

	slog.Info("game_event", "event", "availability_set", "game_id", g.ID, "player_id", input.PlayerID, "available", input.IsAvailable)
	return g, nil
}

// UpdateRosterInput carries input for the orchestrator.
type UpdateRosterInput struct {
	GameID string
	Roster []string
	Subs   []string
}

// ExecuteUpdateRoster replaces a game's roster and subs.
// PRE: caller is a manager
// POST: a following read returns the submitted ids, deduplicated, roster winning overlaps
func ExecuteUpdateRoster(ctx context.Context, input UpdateRosterInput, deps PlayerActionDeps) (game.Game, error) {
	g, err := deps.GameStore.Update(ctx, input.GameID, func(g *game.Game) error {
		g.SetRoster(input.Roster, input.Subs)
		g.UpdatedAt = deps.Now()
		return nil
	})
	if err != nil {
		return game.Game{}, err
	}

	slog.Info("game_event", "event", "roster_updated", "game_id", g.ID, "roster", g.Roster.Len(), "subs", g.Subs.Len())
	return g, nil
}

// WithdrawInput carries input for the orchestrator.
type WithdrawInput struct {
	GameID   string
	PlayerID string
	Actor    Actor
}

// ExecuteWithdraw takes a selected player off a game's roster or subs.
// PRE: PlayerID is non-empty
// POST: PlayerID is in withdrawals; availability is untouched
// INVARIANT: managers may withdraw anyone; linked players only themselves
func ExecuteWithdraw(ctx context.Context, input WithdrawInput, deps PlayerActionDeps) (game.Game, error) {
	if input.PlayerID == "" {
		return game.Game{}, game.ErrPlayerIDRequired
	}
	if !input.Actor.IsManager && !input.Actor.canActFor(input.PlayerID) {
		return game.Game{}, ErrNotOwnWithdrawal
	}

	g, err := deps.GameStore.Update(ctx, input.GameID, func(g *game.Game) error {
		if err := g.Withdraw(input.PlayerID); err != nil {
			return err
		}
		g.UpdatedAt = deps.Now()
		return nil
	})
	if err != nil {
		return game.Game{}, err
	}

	slog.Info("game_event", "event", "player_withdrew", "game_id", g.ID, "player_id", input.PlayerID)
	return g, nil
}

// PreferenceStoreForSet defines the store interface needed by SetPreference.
type PreferenceStoreForSet interface {
	Set(ctx context.Context, playerID, value string) error
}

// SetPreferenceInput carries input for the orchestrator.
type SetPreferenceInput struct {
	PlayerID   string
	Preference string
	Actor      Actor
}

// SetPreferenceDeps holds dependencies for SetPreference.
type SetPreferenceDeps struct {
	PreferenceStore PreferenceStoreForSet
}

// ExecuteSetPreference records whether a player prefers starting or subbing.
// PRE: Preference is "starter" or "sub"
// POST: the stored preference for PlayerID is Preference
func ExecuteSetPreference(ctx context.Context, input SetPreferenceInput, deps SetPreferenceDeps) (preference.Preference, error) {
	p := preference.Preference{PlayerID: input.PlayerID, Value: input.Preference}
	if err := p.Validate(); err != nil {
		return preference.Preference{}, err
	}
	if !input.Actor.canActFor(input.PlayerID) {
		return preference.Preference{}, ErrNotOwnPreference
	}
	if err := deps.PreferenceStore.Set(ctx, p.PlayerID, p.Value); err != nil {
		return preference.Preference{}, err
	}

	slog.Info("preference_event", "event", "preference_set", "player_id", p.PlayerID, "preference", p.Value)
	return p, nil
}
