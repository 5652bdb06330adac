package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"warteam/internal/adapters/storage"
	domain "warteam/internal/domain/account"
)

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"

const selectAccount = "SELECT id, username, password_hash, is_manager, player_id, created_at, failed_logins, locked_until FROM account"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new account store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Account by its ID.
// PRE: id is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	return s.getOne(ctx, selectAccount+" WHERE id = ?", id)
}

// GetByUsername retrieves an Account by its normalized username.
// PRE: username is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetByUsername(ctx context.Context, username string) (domain.Account, error) {
	return s.getOne(ctx, selectAccount+" WHERE username = ?", domain.NormalizeUsername(username))
}

// GetByPlayerID retrieves the Account linked to a member.
// PRE: playerID is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetByPlayerID(ctx context.Context, playerID string) (domain.Account, error) {
	return s.getOne(ctx, selectAccount+" WHERE player_id = ?", playerID)
}

func (s *SQLiteStore) getOne(ctx context.Context, query string, arg string) (domain.Account, error) {
	a, err := scanAccount(s.db.QueryRowContext(ctx, query, arg).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, domain.ErrNotFound
	}
	return a, err
}

// Save persists an Account (insert or update). Usernames are stored normalized.
// PRE: entity has been validated
// POST: Entity is persisted; ErrUsernameTaken or ErrPlayerLinked on a unique conflict
func (s *SQLiteStore) Save(ctx context.Context, a domain.Account) error {
	var playerID, lockedUntil any
	if a.PlayerID != "" {
		playerID = a.PlayerID
	}
	if !a.LockedUntil.IsZero() {
		lockedUntil = a.LockedUntil.UTC().Format(timeLayout)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO account (id, username, password_hash, is_manager, player_id, created_at, failed_logins, locked_until)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   username=excluded.username, password_hash=excluded.password_hash,
		   is_manager=excluded.is_manager, player_id=excluded.player_id,
		   failed_logins=excluded.failed_logins, locked_until=excluded.locked_until`,
		a.ID, domain.NormalizeUsername(a.Username), a.PasswordHash, a.IsManager, playerID,
		a.CreatedAt.UTC().Format(timeLayout), a.FailedLogins, lockedUntil)
	if err != nil {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "account.username"):
			return domain.ErrUsernameTaken
		case strings.Contains(msg, "account.player_id"):
			return domain.ErrPlayerLinked
		}
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

// LinkedPlayerIDs returns every player id that some account is linked to.
// POST: never nil
func (s *SQLiteStore) LinkedPlayerIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT player_id FROM account WHERE player_id IS NOT NULL ORDER BY player_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Count returns the total number of accounts.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM account").Scan(&count)
	return count, err
}

func scanAccount(scan func(dest ...any) error) (domain.Account, error) {
	var a domain.Account
	var playerID, lockedUntil sql.NullString
	var createdAt string
	if err := scan(&a.ID, &a.Username, &a.PasswordHash, &a.IsManager, &playerID, &createdAt, &a.FailedLogins, &lockedUntil); err != nil {
		return domain.Account{}, err
	}
	a.PlayerID = playerID.String
	a.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	if lockedUntil.Valid && lockedUntil.String != "" {
		a.LockedUntil, _ = time.Parse(timeLayout, lockedUntil.String)
	}
	return a, nil
}
