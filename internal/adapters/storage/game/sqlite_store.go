package game

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"warteam/internal/adapters/storage"
	domain "warteam/internal/domain/game"
)

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"

const gameColumns = `id, date, time, opponent, notes, league, division, game_mode, team_size,
		available, unavailable, roster, subs, withdrawals, reminded, created_at, updated_at`

// SQLiteStore implements Store using SQLite. Player sets are stored as JSON arrays.
type SQLiteStore struct {
	db storage.SQLDB
	mu sync.Mutex // serializes read-modify-write cycles
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// queryer is satisfied by both storage.SQLDB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// GetByID retrieves a game by ID.
// PRE: id is non-empty
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Game, error) {
	return getGame(ctx, s.db, id)
}

// List retrieves all games ordered by date and time.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Game, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+gameColumns+` FROM game ORDER BY date ASC, time ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGames(rows)
}

// ListByDate retrieves the games on a given date.
// PRE: date is YYYY-MM-DD
func (s *SQLiteStore) ListByDate(ctx context.Context, date string) ([]domain.Game, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+gameColumns+` FROM game WHERE date = ? ORDER BY time ASC, id ASC`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGames(rows)
}

// Save inserts or updates a game.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, g domain.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return putGame(ctx, s.db, g)
}

// SaveAll inserts or updates games in one transaction.
// POST: all games persisted, or none on error
func (s *SQLiteStore) SaveAll(ctx context.Context, games []domain.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return storage.InTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, g := range games {
			if err := putGame(ctx, tx, g); err != nil {
				return fmt.Errorf("save game %s: %w", g.ID, err)
			}
		}
		return nil
	})
}

// Update performs an atomic read-modify-write on one game.
// PRE: id is non-empty
// POST: fn's changes are persisted, or nothing is written when fn fails
// INVARIANT: the stored id never changes
func (s *SQLiteStore) Update(ctx context.Context, id string, fn func(g *domain.Game) error) (domain.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated domain.Game
	err := storage.InTx(ctx, s.db, func(tx *sql.Tx) error {
		g, err := getGame(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(&g); err != nil {
			return err
		}
		g.ID = id
		if err := putGame(ctx, tx, g); err != nil {
			return err
		}
		updated = g
		return nil
	})
	if err != nil {
		return domain.Game{}, err
	}
	return updated, nil
}

// Delete removes a game.
// PRE: id is non-empty
// POST: the game is gone; domain.ErrNotFound if it never existed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM game WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Count returns the total number of games.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM game`).Scan(&n)
	return n, err
}

func getGame(ctx context.Context, q queryer, id string) (domain.Game, error) {
	row := q.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM game WHERE id = ?`, id)
	g, err := scanGame(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Game{}, domain.ErrNotFound
	}
	return g, err
}

func putGame(ctx context.Context, q queryer, g domain.Game) error {
	sets := make([]string, 0, 5)
	for _, ps := range []domain.PlayerSet{g.Available, g.Unavailable, g.Roster, g.Subs, g.Withdrawals} {
		b, err := json.Marshal(ps)
		if err != nil {
			return err
		}
		sets = append(sets, string(b))
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO game (`+gameColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   date=excluded.date, time=excluded.time, opponent=excluded.opponent, notes=excluded.notes,
		   league=excluded.league, division=excluded.division, game_mode=excluded.game_mode,
		   team_size=excluded.team_size, available=excluded.available, unavailable=excluded.unavailable,
		   roster=excluded.roster, subs=excluded.subs, withdrawals=excluded.withdrawals,
		   reminded=excluded.reminded, created_at=excluded.created_at, updated_at=excluded.updated_at`,
		g.ID, g.Date, g.Time, g.Opponent, g.Notes, g.League, g.Division, g.GameMode, g.TeamSize,
		sets[0], sets[1], sets[2], sets[3], sets[4], boolToInt(g.Reminded),
		formatTime(g.CreatedAt), formatTime(g.UpdatedAt))
	return err
}

// scanGame extracts a Game from a row scanner function.
func scanGame(scan func(dest ...any) error) (domain.Game, error) {
	var g domain.Game
	var available, unavailable, roster, subs, withdrawals string
	var reminded int
	var createdAt, updatedAt string
	err := scan(&g.ID, &g.Date, &g.Time, &g.Opponent, &g.Notes, &g.League, &g.Division,
		&g.GameMode, &g.TeamSize, &available, &unavailable, &roster, &subs, &withdrawals,
		&reminded, &createdAt, &updatedAt)
	if err != nil {
		return domain.Game{}, err
	}
	targets := []*domain.PlayerSet{&g.Available, &g.Unavailable, &g.Roster, &g.Subs, &g.Withdrawals}
	for i, raw := range []string{available, unavailable, roster, subs, withdrawals} {
		if raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(raw), targets[i]); err != nil {
			return domain.Game{}, fmt.Errorf("decode player set for game %s: %w", g.ID, err)
		}
	}
	g.Reminded = reminded != 0
	g.CreatedAt = parseTime(createdAt)
	g.UpdatedAt = parseTime(updatedAt)
	return g, nil
}

func scanGames(rows *sql.Rows) ([]domain.Game, error) {
	games := []domain.Game{}
	for rows.Next() {
		g, err := scanGame(rows.Scan)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
