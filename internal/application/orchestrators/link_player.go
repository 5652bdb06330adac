package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"warteam/internal/domain/account"
)

// AccountStoreForLink defines the store interface needed by LinkPlayer.
type AccountStoreForLink interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	GetByPlayerID(ctx context.Context, playerID string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// LinkPlayerInput carries input for the orchestrator.
type LinkPlayerInput struct {
	AccountID string
	PlayerID  string
}

// LinkPlayerDeps holds dependencies for LinkPlayer.
type LinkPlayerDeps struct {
	AccountStore AccountStoreForLink
}

// ExecuteLinkPlayer attaches the session's account to a team member.
// Player ids are opaque; membership is not checked.
// PRE: the session is authenticated
// POST: the account's PlayerID is set
// INVARIANT: at most one account links to a player
func ExecuteLinkPlayer(ctx context.Context, input LinkPlayerInput, deps LinkPlayerDeps) (account.Account, error) {
	if input.PlayerID == "" {
		return account.Account{}, account.ErrPlayerIDRequired
	}

	holder, err := deps.AccountStore.GetByPlayerID(ctx, input.PlayerID)
	switch {
	case err == nil && holder.ID != input.AccountID:
		return account.Account{}, account.ErrPlayerLinked
	case err != nil && !errors.Is(err, account.ErrNotFound):
		return account.Account{}, err
	}

	acct, err := deps.AccountStore.GetByID(ctx, input.AccountID)
	if err != nil {
		return account.Account{}, err
	}
	if err := acct.LinkPlayer(input.PlayerID); err != nil {
		return account.Account{}, err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return account.Account{}, err
	}

	slog.Info("auth_event", "event", "player_linked", "account_id", acct.ID, "player_id", input.PlayerID)
	return acct, nil
}
