package storage

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// migration is one forward-only schema step. Steps run in order inside a
// transaction and are recorded in schema_version.
type migration struct {
	version     int
	description string
	statements  []string
}

var migrations = []migration{
	{
		version:     1,
		description: "baseline schema",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS game (
				id TEXT PRIMARY KEY,
				date TEXT NOT NULL,
				time TEXT NOT NULL,
				opponent TEXT NOT NULL,
				notes TEXT NOT NULL DEFAULT '',
				available TEXT NOT NULL DEFAULT '[]',
				unavailable TEXT NOT NULL DEFAULT '[]',
				roster TEXT NOT NULL DEFAULT '[]',
				reminded INTEGER NOT NULL DEFAULT 0
			)`,
			`CREATE TABLE IF NOT EXISTS preference (
				player_id TEXT PRIMARY KEY,
				value TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS setting (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL
			)`,
		},
	},
	{
		version:     2,
		description: "subs, withdrawals and game metadata",
		statements: []string{
			`ALTER TABLE game ADD COLUMN subs TEXT NOT NULL DEFAULT '[]'`,
			`ALTER TABLE game ADD COLUMN withdrawals TEXT NOT NULL DEFAULT '[]'`,
			`ALTER TABLE game ADD COLUMN league TEXT NOT NULL DEFAULT ''`,
			`ALTER TABLE game ADD COLUMN division TEXT NOT NULL DEFAULT ''`,
			`ALTER TABLE game ADD COLUMN game_mode TEXT NOT NULL DEFAULT 'War'`,
			`ALTER TABLE game ADD COLUMN team_size INTEGER NOT NULL DEFAULT 10`,
			`ALTER TABLE game ADD COLUMN created_at TEXT NOT NULL DEFAULT ''`,
			`ALTER TABLE game ADD COLUMN updated_at TEXT NOT NULL DEFAULT ''`,
			`CREATE INDEX IF NOT EXISTS idx_game_date ON game(date, time)`,
		},
	},
	{
		version:     3,
		description: "members and accounts",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS member (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				year INTEGER NOT NULL DEFAULT 0,
				region TEXT NOT NULL DEFAULT '',
				note TEXT NOT NULL DEFAULT '',
				is_sub INTEGER NOT NULL DEFAULT 0,
				sort_order INTEGER NOT NULL DEFAULT 0,
				discord_id TEXT NOT NULL DEFAULT '',
				email TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE TABLE IF NOT EXISTS account (
				id TEXT PRIMARY KEY,
				username TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL DEFAULT '',
				is_manager INTEGER NOT NULL DEFAULT 0,
				player_id TEXT,
				created_at TEXT NOT NULL,
				failed_logins INTEGER NOT NULL DEFAULT 0,
				locked_until TEXT
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_account_player ON account(player_id) WHERE player_id IS NOT NULL`,
		},
	},
	{
		version:     4,
		description: "reminder outbox",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS outbox (
				id TEXT PRIMARY KEY,
				action_type TEXT NOT NULL,
				payload TEXT NOT NULL,
				game_id TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL,
				attempts INTEGER NOT NULL DEFAULT 0,
				max_attempts INTEGER NOT NULL DEFAULT 5,
				last_attempted_at TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				external_id TEXT NOT NULL DEFAULT '',
				error_message TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox(status, created_at)`,
		},
	},
}

// LatestSchemaVersion returns the version the migration chain ends at.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the applied schema version, 0 for an unmigrated database.
// PRE: db is a valid database connection
// POST: Returns the highest recorded version
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'`).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check schema_version table: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(v.Int64), nil
}

// MigrateDB brings the schema up to LatestSchemaVersion. When dbPath names an
// existing file and migrations are pending, the file is copied aside first.
// PRE: db is a valid database connection
// POST: all migrations applied and recorded; re-running is a no-op
func MigrateDB(db *sql.DB, dbPath string) error {
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if current >= LatestSchemaVersion() {
		return nil
	}

	if current > 0 {
		if err := backupFile(dbPath, current); err != nil {
			return err
		}
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
		}
		slog.Info("schema_event", "event", "migration_applied", "version", m.version, "description", m.description)
	}
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.statements {
		if _, err := tx.Exec(stmt); err != nil {
			if isDuplicateColumn(err) {
				continue
			}
			return err
		}
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version, description) VALUES (?, ?)`, m.version, m.description); err != nil {
		return err
	}
	return tx.Commit()
}

// isDuplicateColumn lets ADD COLUMN steps run against databases that already
// have the column from an untracked schema.
func isDuplicateColumn(err error) bool {
	return strings.Contains(err.Error(), "duplicate column name")
}

// backupFile copies the database file to <path>.v<version>.bak.
func backupFile(dbPath string, version int) error {
	if dbPath == "" || strings.HasPrefix(dbPath, ":memory:") || strings.HasPrefix(dbPath, "file::memory:") {
		return nil
	}
	src, err := os.Open(dbPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open database for backup: %w", err)
	}
	defer src.Close()

	dst := fmt.Sprintf("%s.v%d.bak", dbPath, version)
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create database backup: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("copy database backup: %w", err)
	}
	slog.Info("schema_event", "event", "pre_migration_backup", "path", dst, "version", version)
	return out.Close()
}
