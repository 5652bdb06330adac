package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"warteam/internal/adapters/storage"
	domain "warteam/internal/domain/settings"
)

// SQLiteStore implements Store over the key/value setting table.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Webhook returns the configured Discord webhook; unconfigured when absent.
func (s *SQLiteStore) Webhook(ctx context.Context) (domain.Webhook, error) {
	v, err := s.get(ctx, domain.KeyDiscordWebhook)
	if err != nil {
		return domain.Webhook{}, err
	}
	return domain.Webhook{URL: v}, nil
}

// SetWebhook stores the webhook URL. An empty URL clears it.
// POST: Webhook returns w
func (s *SQLiteStore) SetWebhook(ctx context.Context, w domain.Webhook) error {
	if !w.Configured() {
		_, err := s.db.ExecContext(ctx, `DELETE FROM setting WHERE key = ?`, domain.KeyDiscordWebhook)
		return err
	}
	return s.set(ctx, s.db, domain.KeyDiscordWebhook, w.URL)
}

// Lists returns the league and division choices. Both lists are non-nil.
func (s *SQLiteStore) Lists(ctx context.Context) (domain.Lists, error) {
	var l domain.Lists
	for key, dst := range map[string]*[]string{domain.KeyLeagues: &l.Leagues, domain.KeyDivisions: &l.Divisions} {
		v, err := s.get(ctx, key)
		if err != nil {
			return domain.Lists{}, err
		}
		if v == "" {
			continue
		}
		if err := json.Unmarshal([]byte(v), dst); err != nil {
			return domain.Lists{}, fmt.Errorf("decode %s: %w", key, err)
		}
	}
	return l.Normalize(), nil
}

// SetLists replaces both lists in one transaction.
// PRE: l has been normalized and validated
func (s *SQLiteStore) SetLists(ctx context.Context, l domain.Lists) error {
	leagues, err := json.Marshal(l.Normalize().Leagues)
	if err != nil {
		return err
	}
	divisions, err := json.Marshal(l.Normalize().Divisions)
	if err != nil {
		return err
	}
	return storage.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.set(ctx, tx, domain.KeyLeagues, string(leagues)); err != nil {
			return err
		}
		return s.set(ctx, tx, domain.KeyDivisions, string(divisions))
	})
}

func (s *SQLiteStore) get(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM setting WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

func (s *SQLiteStore) set(ctx context.Context, q interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, key, value string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO setting (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, value)
	return err
}
