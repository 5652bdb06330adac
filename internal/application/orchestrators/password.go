package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"warteam/internal/domain/account"
	"warteam/internal/domain/apperr"
)

// ChangePasswordInput carries input for the change-password orchestrator.
type ChangePasswordInput struct {
	AccountID       string
	CurrentPassword string
	NewPassword     string
}

// AccountStoreForChangePassword defines the store interface needed by ChangePassword.
type AccountStoreForChangePassword interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// ChangePasswordDeps holds dependencies for ChangePassword.
type ChangePasswordDeps struct {
	AccountStore AccountStoreForChangePassword
	Now          func() time.Time
}

var (
	ErrPasswordFieldsRequired = apperr.Validation("Current and new password are required")
	ErrCurrentPasswordWrong   = apperr.Forbidden("Current password is incorrect")
	ErrNewPasswordSame        = apperr.Validation("New password must differ from the current one")
)

// ExecuteChangePassword replaces the password of a signed-in account.
// A wrong current password counts as a failed login, so a stolen session
// cannot be used to guess the password past the lockout.
// PRE: AccountID belongs to the caller's session
// POST: Password is replaced and failed logins reset, or the failure is recorded
func ExecuteChangePassword(ctx context.Context, input ChangePasswordInput, deps ChangePasswordDeps) error {
	if input.CurrentPassword == "" || input.NewPassword == "" {
		return ErrPasswordFieldsRequired
	}

	acct, err := deps.AccountStore.GetByID(ctx, input.AccountID)
	if err != nil {
		return err
	}
	now := deps.Now()
	if acct.IsLocked(now) {
		return ErrAccountLocked
	}

	if acct.CheckPassword(input.CurrentPassword) != nil {
		acct.RecordFailedLogin(now)
		if err := deps.AccountStore.Save(ctx, acct); err != nil {
			return fmt.Errorf("record failed password check: %w", err)
		}
		slog.Info("auth_event", "event", "password_change_denied", "account_id", acct.ID, "failed_logins", acct.FailedLogins)
		return ErrCurrentPasswordWrong
	}
	if input.NewPassword == input.CurrentPassword {
		return ErrNewPasswordSame
	}
	if err := acct.SetPassword(input.NewPassword); err != nil {
		return err
	}
	acct.ResetFailedLogins()
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return fmt.Errorf("save account: %w", err)
	}

	slog.Info("auth_event", "event", "password_changed", "account_id", acct.ID)
	return nil
}
