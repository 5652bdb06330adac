package account

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"warteam/internal/domain/apperr"
)

// Max length constants for user-editable fields.
const (
	MaxUsernameLength = 32
	MinPasswordLength = 12
)

// Lock-out policy
const (
	MaxFailedLogins = 5
	LockDuration    = 15 * time.Minute
)

// bcryptCost is the work factor for stored password hashes.
const bcryptCost = 12

// Domain errors
var (
	ErrEmptyUsername    = apperr.Validation("username cannot be empty")
	ErrUsernameLength   = apperr.Validation("username cannot exceed 32 characters")
	ErrUsernameFormat   = apperr.Validation("username may only contain letters, digits, '.', '-' and '_'")
	ErrEmptyPassword    = apperr.Validation("password cannot be empty")
	ErrPasswordTooShort = apperr.Validation("password must be at least 12 characters")
	ErrWrongPassword    = errors.New("incorrect password")
	ErrNotFound         = apperr.NotFound("Account not found")
	ErrPlayerIDRequired = apperr.Validation("Player ID required")
	ErrUsernameTaken    = apperr.Conflict("Username already taken")
	ErrPlayerLinked     = apperr.Conflict("Player is already linked to another account")
)

// Account is a login. Managers may edit games and rosters; any account may
// link itself to one team member.
type Account struct {
	ID           string
	Username     string
	PasswordHash string
	IsManager    bool
	PlayerID     string // linked member id, empty when unlinked
	CreatedAt    time.Time
	FailedLogins int
	LockedUntil  time.Time
}

// Validate checks if the Account has valid data.
// PRE: Account struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Account) Validate() error {
	name := strings.TrimSpace(a.Username)
	if name == "" {
		return ErrEmptyUsername
	}
	if len(name) > MaxUsernameLength {
		return ErrUsernameLength
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '.' || r == '-' || r == '_') {
			return ErrUsernameFormat
		}
	}
	return nil
}

// NormalizeUsername returns the canonical lookup form of a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// SetPassword hashes and stores a password using bcrypt.
// PRE: plaintext is non-empty and >= 12 characters
// POST: PasswordHash is set to bcrypt hash
func (a *Account) SetPassword(plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	if len(plaintext) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// PRE: PasswordHash is set
// INVARIANT: Account fields are not mutated
func (a *Account) CheckPassword(plaintext string) error {
	if a.PasswordHash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// IsLocked returns true if the account is locked out at now.
// INVARIANT: Account fields are not mutated
func (a *Account) IsLocked(now time.Time) bool {
	if a.LockedUntil.IsZero() {
		return false
	}
	return now.Before(a.LockedUntil)
}

// RecordFailedLogin increments the failed login counter and locks the account after 5 failures.
// PRE: Account exists
// POST: FailedLogins incremented; LockedUntil set if >= 5 failures
func (a *Account) RecordFailedLogin(now time.Time) {
	a.FailedLogins++
	if a.FailedLogins >= MaxFailedLogins {
		a.LockedUntil = now.Add(LockDuration)
	}
}

// ResetFailedLogins clears the failed login counter and lock.
// POST: FailedLogins is 0, LockedUntil is zero
func (a *Account) ResetFailedLogins() {
	a.FailedLogins = 0
	a.LockedUntil = time.Time{}
}

// LinkPlayer attaches the account to a team member.
// PRE: playerID is non-empty
// POST: PlayerID is set
func (a *Account) LinkPlayer(playerID string) error {
	if playerID == "" {
		return ErrPlayerIDRequired
	}
	a.PlayerID = playerID
	return nil
}

// CanActFor reports whether the account may change availability or preferences for playerID.
// Unlinked accounts may act for anyone; a linked account only for its own player.
func (a *Account) CanActFor(playerID string) bool {
	return a.PlayerID == "" || a.PlayerID == playerID
}
