package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds all configuration values for the server and the backup command.
type Config struct {
	// HTTP
	Port    string
	AppEnv  string
	CSRFKey string

	// Database
	DatabasePath   string
	LegacyDataFile string

	// Manager account seeded on startup
	ManagerUsername string
	ManagerPassword string

	// Reminders
	DiscordBotToken  string
	ResendAPIKey     string
	EmailFrom        string
	EmailReplyTo     string
	ReminderInterval time.Duration

	// Backup
	BackupWebhookURL string

	// Logging
	LogLevel    string
	SlowRequest time.Duration
	SlowQuery   time.Duration
}

// Load reads the server configuration from environment variables, after
// loading a .env file when one exists.
// PRE: none
// POST: Returns a Config with defaults applied, or an error for malformed values
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	if cfg.ManagerUsername != "" && cfg.ManagerPassword == "" {
		return nil, fmt.Errorf("MANAGER_PASSWORD is required when MANAGER_USERNAME is set")
	}

	if cfg.IsProduction() && len(cfg.CSRFKey) != 32 {
		return nil, fmt.Errorf("CSRF_KEY must be exactly 32 bytes in production")
	}

	return cfg, nil
}

// LoadBackup reads the configuration for the backup command. Server-only
// settings such as PORT and CSRF_KEY are not checked.
// POST: BackupWebhookURL is non-empty, or an error is returned
func LoadBackup() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.BackupWebhookURL == "" {
		return nil, fmt.Errorf("BACKUP_WEBHOOK_URL is required")
	}
	return cfg, nil
}

func load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnvOrDefault("PORT", "3000"),
		AppEnv:           getEnvOrDefault("APP_ENV", EnvDevelopment),
		CSRFKey:          os.Getenv("CSRF_KEY"),
		DatabasePath:     getEnvOrDefault("DATABASE_PATH", "warteam.db"),
		LegacyDataFile:   os.Getenv("LEGACY_DATA_FILE"),
		ManagerUsername:  os.Getenv("MANAGER_USERNAME"),
		ManagerPassword:  os.Getenv("MANAGER_PASSWORD"),
		DiscordBotToken:  os.Getenv("DISCORD_BOT_TOKEN"),
		ResendAPIKey:     os.Getenv("RESEND_API_KEY"),
		EmailFrom:        getEnvOrDefault("EMAIL_FROM", "Game Over War Team <noreply@example.com>"),
		EmailReplyTo:     os.Getenv("EMAIL_REPLY_TO"),
		BackupWebhookURL: os.Getenv("BACKUP_WEBHOOK_URL"),
		LogLevel:         strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
	}

	interval, err := time.ParseDuration(getEnvOrDefault("REMINDER_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDER_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("invalid REMINDER_INTERVAL: must be positive")
	}
	cfg.ReminderInterval = interval

	if cfg.SlowRequest, err = positiveDuration("SLOW_REQUEST", "200ms"); err != nil {
		return nil, err
	}
	if cfg.SlowQuery, err = positiveDuration("SLOW_QUERY", "50ms"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the app runs in production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func positiveDuration(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnvOrDefault(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
