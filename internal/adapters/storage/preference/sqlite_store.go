package preference

import (
	"context"
	"database/sql"

	"warteam/internal/adapters/storage"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const upsertPreference = `INSERT INTO preference (player_id, value) VALUES (?, ?)
	ON CONFLICT(player_id) DO UPDATE SET value=excluded.value`

// Set stores one preference.
// PRE: value has been validated
// POST: the player's preference is value
func (s *SQLiteStore) Set(ctx context.Context, playerID, value string) error {
	_, err := s.db.ExecContext(ctx, upsertPreference, playerID, value)
	return err
}

// SetAll stores many preferences in one transaction.
func (s *SQLiteStore) SetAll(ctx context.Context, prefs map[string]string) error {
	return storage.InTx(ctx, s.db, func(tx *sql.Tx) error {
		for id, v := range prefs {
			if _, err := tx.ExecContext(ctx, upsertPreference, id, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// All returns every stored preference. Never nil.
func (s *SQLiteStore) All(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT player_id, value FROM preference`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prefs := map[string]string{}
	for rows.Next() {
		var id, v string
		if err := rows.Scan(&id, &v); err != nil {
			return nil, err
		}
		prefs[id] = v
	}
	return prefs, rows.Err()
}
