package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"warteam/internal/adapters/discord"
	emailPkg "warteam/internal/adapters/email"
	web "warteam/internal/adapters/http"
	"warteam/internal/adapters/http/middleware"
	"warteam/internal/adapters/http/perf"
	"warteam/internal/adapters/storage"
	accountStore "warteam/internal/adapters/storage/account"
	gameStore "warteam/internal/adapters/storage/game"
	memberStore "warteam/internal/adapters/storage/member"
	outboxStorePkg "warteam/internal/adapters/storage/outbox"
	preferenceStore "warteam/internal/adapters/storage/preference"
	settingsStore "warteam/internal/adapters/storage/settings"
	"warteam/internal/application/orchestrators"
	"warteam/internal/config"
	"warteam/internal/domain/member"
	"warteam/internal/domain/outbox"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

const (
	// teamZone is where game dates and times are scheduled.
	teamZone = "America/New_York"
	// outboxRetention is how long delivered and abandoned reminders are kept.
	outboxRetention = 30 * 24 * time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	loc, err := time.LoadLocation(teamZone)
	if err != nil {
		log.Fatalf("failed to load time zone %s: %v", teamZone, err)
	}

	// WAL mode, busy timeout and foreign keys on every connection
	dsn := cfg.DatabasePath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.MigrateDB(db, cfg.DatabasePath); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQuery)

	stores := &web.Stores{
		GameStore:       gameStore.NewSQLiteStore(timedDB),
		MemberStore:     memberStore.NewSQLiteStore(timedDB),
		AccountStore:    accountStore.NewSQLiteStore(timedDB),
		PreferenceStore: preferenceStore.NewSQLiteStore(timedDB),
		SettingsStore:   settingsStore.NewSQLiteStore(timedDB),
		OutboxStore:     outboxStorePkg.NewSQLiteStore(timedDB),
	}

	ctx := context.Background()
	directory, err := orchestrators.ExecuteSeedMembers(ctx, orchestrators.SeedMembersDeps{
		MemberStore: stores.MemberStore,
		Seed:        member.Seed,
	})
	if err != nil {
		log.Fatalf("failed to seed members: %v", err)
	}

	if cfg.ManagerUsername != "" {
		if err := orchestrators.ExecuteSeedManager(ctx, orchestrators.SeedManagerInput{
			Username: cfg.ManagerUsername,
			Password: cfg.ManagerPassword,
		}, orchestrators.RegisterDeps{
			AccountStore: stores.AccountStore,
			GenerateID:   newID,
			Now:          time.Now,
		}); err != nil {
			log.Fatalf("failed to seed manager: %v", err)
		}
	} else {
		slog.Warn("startup_event", "event", "no_manager_configured", "hint", "set MANAGER_USERNAME and MANAGER_PASSWORD")
	}

	if cfg.LegacyDataFile != "" {
		imported, err := orchestrators.ExecuteImportLegacyFile(ctx, cfg.LegacyDataFile, orchestrators.ImportDocumentDeps{
			GameStore:       stores.GameStore,
			PreferenceStore: stores.PreferenceStore,
			SettingsStore:   stores.SettingsStore,
			MemberStore:     stores.MemberStore,
			Directory:       directory,
		})
		if err != nil {
			log.Fatalf("failed to import %s: %v", cfg.LegacyDataFile, err)
		}
		if imported {
			slog.Info("startup_event", "event", "legacy_data_imported", "path", cfg.LegacyDataFile)
		}
	}

	// Reminder delivery
	var mailer emailPkg.Sender
	if cfg.ResendAPIKey != "" {
		mailer = emailPkg.NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom, cfg.EmailReplyTo)
	} else {
		mailer = emailPkg.NewNoopSender()
		if cfg.IsProduction() {
			slog.Warn("startup_event", "event", "email_disabled", "hint", "set RESEND_API_KEY")
		}
	}
	dmSender, err := discord.NewDMSender(cfg.DiscordBotToken)
	if err != nil {
		log.Fatalf("failed to create Discord session: %v", err)
	}
	if cfg.DiscordBotToken == "" {
		slog.Warn("startup_event", "event", "discord_dm_disabled", "hint", "set DISCORD_BOT_TOKEN")
	}

	processor := orchestrators.NewOutboxProcessor(stores.OutboxStore, map[string]orchestrators.ActionExecutor{
		outbox.ActionTypeDiscordDM: &orchestrators.DiscordDMExecutor{Sender: dmSender},
		outbox.ActionTypeEmail:     &orchestrators.EmailExecutor{Sender: mailer},
	}, time.Now)

	stopCh := make(chan struct{})
	orchestrators.StartBackgroundWorker(processor, time.Minute, stopCh)
	orchestrators.StartTicker("reminders", cfg.ReminderInterval, stopCh, func(ctx context.Context) error {
		_, err := orchestrators.ExecuteQueueReminders(ctx, orchestrators.QueueRemindersDeps{
			GameStore:   stores.GameStore,
			OutboxStore: stores.OutboxStore,
			Directory:   directory,
			GenerateID:  newID,
			Now:         func() time.Time { return time.Now().In(loc) },
		})
		return err
	})

	orchestrators.StartTicker("outbox_purge", 24*time.Hour, stopCh, func(ctx context.Context) error {
		return processor.Purge(ctx, outboxRetention)
	})

	limiter := middleware.NewRateLimiter(web.RateLimitPerSecond, time.Second)
	orchestrators.StartTicker("rate_limit_sweep", time.Minute, stopCh, func(context.Context) error {
		limiter.Sweep(3 * time.Minute)
		return nil
	})

	handler, hub := web.NewMux(stores, web.Options{
		Directory:     directory,
		Poster:        discord.NewWebhookClient(nil),
		Outbox:        processor,
		Collector:     collector,
		SlowRequest:   cfg.SlowRequest,
		Limiter:       limiter,
		DB:            timedDB,
		Location:      loc,
		CSRFKey:       csrfKey(cfg),
		SecureCookies: cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("startup_event", "event", "listening", "addr", cfg.Addr(), "version", version,
			"env", cfg.AppEnv, "schema", storage.LatestSchemaVersion(), "members", len(directory.All()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	slog.Info("shutdown_event", "event", "shutting_down")
	close(stopCh)
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown_event", "event", "shutdown_failed", "error", err.Error())
	}
}

// csrfKey returns the configured key, or a throwaway one outside production.
func csrfKey(cfg *config.Config) []byte {
	if len(cfg.CSRFKey) == 32 {
		return []byte(cfg.CSRFKey)
	}
	slog.Warn("startup_event", "event", "ephemeral_csrf_key", "hint", "set CSRF_KEY to 32 bytes")
	return []byte(newID()[:32])
}

func newID() string {
	return uuid.NewString()
}
