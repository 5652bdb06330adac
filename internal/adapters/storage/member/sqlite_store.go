package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"warteam/internal/adapters/storage"
	domain "warteam/internal/domain/member"
)

const memberColumns = `id, name, year, region, note, is_sub, sort_order, discord_id, email`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Member by its ID.
// PRE: id is non-empty
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM member WHERE id = ?`, id)
	m, err := scanMember(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Member{}, domain.ErrNotFound
	}
	return m, err
}

// List retrieves all members in sort order.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Member, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+memberColumns+` FROM member ORDER BY sort_order ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []domain.Member{}
	for rows.Next() {
		m, err := scanMember(rows.Scan)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// Save inserts or updates a Member.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, m domain.Member) error {
	return putMember(ctx, s.db, m)
}

// SaveAll inserts or updates members in one transaction.
func (s *SQLiteStore) SaveAll(ctx context.Context, members []domain.Member) error {
	return storage.InTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, m := range members {
			if err := putMember(ctx, tx, m); err != nil {
				return fmt.Errorf("save member %s: %w", m.ID, err)
			}
		}
		return nil
	})
}

// Delete removes a Member.
// PRE: id is non-empty
// POST: Entity removed; domain.ErrNotFound if absent
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM member WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Count returns the total number of members.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM member`).Scan(&n)
	return n, err
}

func putMember(ctx context.Context, q interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, m domain.Member) error {
	isSub := 0
	if m.IsSub {
		isSub = 1
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO member (`+memberColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name=excluded.name, year=excluded.year, region=excluded.region, note=excluded.note,
		   is_sub=excluded.is_sub, sort_order=excluded.sort_order, discord_id=excluded.discord_id,
		   email=excluded.email`,
		m.ID, m.Name, m.Year, m.Region, m.Note, isSub, m.SortOrder, m.DiscordID, m.Email)
	return err
}

// scanMember extracts a Member from a row scanner function.
func scanMember(scan func(dest ...any) error) (domain.Member, error) {
	var m domain.Member
	var isSub int
	err := scan(&m.ID, &m.Name, &m.Year, &m.Region, &m.Note, &isSub, &m.SortOrder, &m.DiscordID, &m.Email)
	if err != nil {
		return domain.Member{}, err
	}
	m.IsSub = isSub != 0
	return m, nil
}
