package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"warteam/internal/domain/account"
)

// AccountStoreForRegister defines the store interface needed by Register.
type AccountStoreForRegister interface {
	GetByUsername(ctx context.Context, username string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// RegisterInput carries input for the orchestrator.
type RegisterInput struct {
	Username string
	Password string
}

// RegisterDeps holds dependencies for Register.
type RegisterDeps struct {
	AccountStore AccountStoreForRegister
	GenerateID   func() string
	Now          func() time.Time
}

// ExecuteRegister creates a player account. Players register themselves;
// manager accounts only come from ExecuteSeedManager.
// PRE: password >= 12 chars
// POST: a non-manager, unlinked account is persisted
// INVARIANT: usernames are unique after normalization
func ExecuteRegister(ctx context.Context, input RegisterInput, deps RegisterDeps) (account.Account, error) {
	acct := account.Account{
		ID:        deps.GenerateID(),
		Username:  account.NormalizeUsername(input.Username),
		CreatedAt: deps.Now(),
	}
	if err := acct.Validate(); err != nil {
		return account.Account{}, err
	}

	_, err := deps.AccountStore.GetByUsername(ctx, acct.Username)
	if err == nil {
		return account.Account{}, account.ErrUsernameTaken
	}
	if !errors.Is(err, account.ErrNotFound) {
		return account.Account{}, err
	}

	if err := acct.SetPassword(input.Password); err != nil {
		return account.Account{}, err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return account.Account{}, err
	}

	slog.Info("auth_event", "event", "account_created", "username", acct.Username)
	return acct, nil
}

// SeedManagerInput carries the configured manager credentials.
type SeedManagerInput struct {
	Username string
	Password string
}

// ExecuteSeedManager makes sure the configured manager account exists.
// An existing account with that username is promoted and its password reset.
// PRE: Username and Password are set
// POST: an account named Username exists with IsManager set
func ExecuteSeedManager(ctx context.Context, input SeedManagerInput, deps RegisterDeps) error {
	username := account.NormalizeUsername(input.Username)
	acct, err := deps.AccountStore.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, account.ErrNotFound):
		acct = account.Account{ID: deps.GenerateID(), Username: username, CreatedAt: deps.Now()}
		if err := acct.Validate(); err != nil {
			return err
		}
	case err != nil:
		return err
	}

	if acct.IsManager && acct.CheckPassword(input.Password) == nil {
		return nil
	}
	acct.IsManager = true
	if err := acct.SetPassword(input.Password); err != nil {
		return err
	}
	acct.ResetFailedLogins()
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return err
	}

	slog.Info("auth_event", "event", "manager_seeded", "username", username)
	return nil
}
