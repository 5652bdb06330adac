// Command backup exports the team data and posts it to the backup webhook.
package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/bwmarrin/discordgo"
	_ "modernc.org/sqlite"

	"warteam/internal/adapters/discord"
	"warteam/internal/adapters/storage"
	gameStore "warteam/internal/adapters/storage/game"
	memberStore "warteam/internal/adapters/storage/member"
	preferenceStore "warteam/internal/adapters/storage/preference"
	settingsStore "warteam/internal/adapters/storage/settings"
	"warteam/internal/application/projections"
	"warteam/internal/config"
	"warteam/internal/domain/document"
	"warteam/internal/domain/member"
)

func main() {
	cfg, err := config.LoadBackup()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := run(ctx, cfg, discord.NewWebhookClient(nil), time.Now()); err != nil {
		log.Fatalf("backup failed: %v", err)
	}
}

// uploader posts a file to a webhook.
type uploader interface {
	UploadFile(ctx context.Context, url string, params *discordgo.WebhookParams, filename string, data []byte) error
}

func run(ctx context.Context, cfg *config.Config, up uploader, now time.Time) error {
	db, err := sql.Open("sqlite", cfg.DatabasePath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := storage.MigrateDB(db, cfg.DatabasePath); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	members, err := memberStore.NewSQLiteStore(db).List(ctx)
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}
	doc, err := projections.QueryGetDocument(ctx, projections.GetDocumentDeps{
		GameStore:       gameStore.NewSQLiteStore(db),
		PreferenceStore: preferenceStore.NewSQLiteStore(db),
		SettingsStore:   settingsStore.NewSQLiteStore(db),
		Directory:       member.NewDirectory(members),
	})
	if err != nil {
		return fmt.Errorf("export document: %w", err)
	}

	var buf bytes.Buffer
	if err := document.Encode(&buf, doc.Masked()); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	summary := fmt.Sprintf("%d games, %d members, %d preferences", len(doc.Games), len(doc.Members), len(doc.PlayerPreferences))
	if err := up.UploadFile(ctx, cfg.BackupWebhookURL, discord.BackupMessage(summary, now), discord.BackupFilename(now), buf.Bytes()); err != nil {
		return err
	}

	slog.Info("backup_event", "event", "backup_posted", "games", len(doc.Games), "bytes", buf.Len())
	return nil
}
