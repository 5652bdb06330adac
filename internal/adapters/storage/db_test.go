package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

// openTestDB creates an in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// tableNames returns the user tables in db, sorted.
func tableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'")
	if err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			t.Fatalf("scan sqlite_master: %v", err)
		}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// expectedTables is the sorted list of tables after all migrations.
var expectedTables = []string{
	"account",
	"game",
	"member",
	"outbox",
	"preference",
	"schema_version",
	"setting",
}

// TestMigrateDB_Fresh tests a blank database ends at the latest version with every table.
func TestMigrateDB_Fresh(t *testing.T) {
	db := openTestDB(t)
	if v, err := SchemaVersion(db); err != nil || v != 0 {
		t.Fatalf("blank SchemaVersion = %d, %v", v, err)
	}

	if err := MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("MigrateDB: %v", err)
	}
	if v, err := SchemaVersion(db); err != nil || v != LatestSchemaVersion() {
		t.Errorf("SchemaVersion = %d, %v; want %d", v, err, LatestSchemaVersion())
	}
	if got := strings.Join(tableNames(t, db), ","); got != strings.Join(expectedTables, ",") {
		t.Errorf("tables = %s, want %v", got, expectedTables)
	}
}

// TestMigrateDB_Idempotent verifies that running MigrateDB twice produces no errors
// and the version remains the same.
func TestMigrateDB_Idempotent(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("first MigrateDB failed: %v", err)
	}
	version1, _ := SchemaVersion(db)

	if err := MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("second MigrateDB failed: %v", err)
	}
	version2, _ := SchemaVersion(db)
	if version1 != version2 {
		t.Errorf("version changed after idempotent run: %d -> %d", version1, version2)
	}
}

// TestMigrateDB_UpgradeMatchesFresh tests that upgrading from the baseline
// yields the same tables as a fresh install.
func TestMigrateDB_UpgradeMatchesFresh(t *testing.T) {
	fresh := openTestDB(t)
	if err := MigrateDB(fresh, ":memory:"); err != nil {
		t.Fatalf("MigrateDB fresh: %v", err)
	}

	upgraded := openTestDB(t)
	createBaseline(t, upgraded)
	if err := MigrateDB(upgraded, ":memory:"); err != nil {
		t.Fatalf("MigrateDB upgrade: %v", err)
	}

	want, got := tableNames(t, fresh), tableNames(t, upgraded)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("upgraded tables = %v, want %v", got, want)
	}
}

// createBaseline leaves db at schema version 1.
func createBaseline(t *testing.T, db *sql.DB) {
	t.Helper()
	if _, err := db.Exec(`CREATE TABLE schema_version (version INTEGER PRIMARY KEY, description TEXT NOT NULL, applied_at TEXT NOT NULL DEFAULT '')`); err != nil {
		t.Fatalf("create schema_version: %v", err)
	}
	if err := applyMigration(db, migrations[0]); err != nil {
		t.Fatalf("apply baseline: %v", err)
	}
}

// TestMigrateDB_UpgradeFromBaseline verifies a version 1 database keeps its games
// and picks up the later columns with their defaults.
func TestMigrateDB_UpgradeFromBaseline(t *testing.T) {
	db := openTestDB(t)
	createBaseline(t, db)
	if _, err := db.Exec(`INSERT INTO game (id, date, time, opponent, roster) VALUES ('g1', '2025-03-01', '20:00', 'Team X', '["alock"]')`); err != nil {
		t.Fatalf("insert baseline game: %v", err)
	}

	if err := MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("MigrateDB failed: %v", err)
	}

	var roster, subs, mode string
	var size int
	err := db.QueryRow(`SELECT roster, subs, game_mode, team_size FROM game WHERE id = 'g1'`).Scan(&roster, &subs, &mode, &size)
	if err != nil {
		t.Fatalf("game lost after migration: %v", err)
	}
	if roster != `["alock"]` || subs != "[]" || mode != "War" || size != 10 {
		t.Errorf("unexpected row: roster=%s subs=%s mode=%s size=%d", roster, subs, mode, size)
	}
}

// TestMigrateDB_BacksUpFile verifies a file database is copied aside before an upgrade.
func TestMigrateDB_BacksUpFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warteam.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	createBaseline(t, db)
	if err := MigrateDB(db, path); err != nil {
		t.Fatalf("MigrateDB failed: %v", err)
	}
	if _, err := os.Stat(path + ".v1.bak"); err != nil {
		t.Errorf("expected backup file: %v", err)
	}
}
