package account

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"warteam/internal/adapters/storage"
	domain "warteam/internal/domain/account"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLiteStore(db)
}

var created = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// TestSQLiteStore_SaveAndLookup tests each lookup path.
func TestSQLiteStore_SaveAndLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := domain.Account{ID: "acc-1", Username: "Coach", PasswordHash: "hash", IsManager: true, CreatedAt: created}
	if err := s.Save(ctx, a); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.GetByUsername(ctx, " coach ")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if got.ID != "acc-1" || got.Username != "coach" || !got.IsManager || got.PlayerID != "" {
		t.Errorf("got %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v", got.CreatedAt)
	}

	got.PlayerID = "alock"
	got.LockedUntil = created.Add(time.Hour)
	got.FailedLogins = 5
	if err := s.Save(ctx, got); err != nil {
		t.Fatalf("Save update: %v", err)
	}
	linked, err := s.GetByPlayerID(ctx, "alock")
	if err != nil {
		t.Fatalf("GetByPlayerID: %v", err)
	}
	if linked.ID != "acc-1" || linked.FailedLogins != 5 || !linked.LockedUntil.Equal(created.Add(time.Hour)) {
		t.Errorf("got %+v", linked)
	}

	if _, err := s.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByID missing: got %v, want ErrNotFound", err)
	}
	if ids, err := s.LinkedPlayerIDs(ctx); err != nil || len(ids) != 1 || ids[0] != "alock" {
		t.Errorf("LinkedPlayerIDs = %v, %v", ids, err)
	}
	if n, _ := s.Count(ctx); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

// TestSQLiteStore_UniqueConflicts tests username and player link uniqueness.
func TestSQLiteStore_UniqueConflicts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, domain.Account{ID: "a", Username: "kc", PlayerID: "kc", CreatedAt: created}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// Unlinked accounts never collide on player_id.
	if err := s.Save(ctx, domain.Account{ID: "b", Username: "loki", CreatedAt: created}); err != nil {
		t.Fatalf("Save b: %v", err)
	}
	if err := s.Save(ctx, domain.Account{ID: "c", Username: "mira", CreatedAt: created}); err != nil {
		t.Fatalf("Save c: %v", err)
	}

	if err := s.Save(ctx, domain.Account{ID: "d", Username: "KC", CreatedAt: created}); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Errorf("duplicate username: got %v", err)
	}
	if err := s.Save(ctx, domain.Account{ID: "b", Username: "loki", PlayerID: "kc", CreatedAt: created}); !errors.Is(err, domain.ErrPlayerLinked) {
		t.Errorf("duplicate player link: got %v", err)
	}
}
