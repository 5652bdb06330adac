package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"warteam/internal/adapters/discord"
	"warteam/internal/domain/game"
	"warteam/internal/domain/settings"
)

// GameReader looks up a single game.
type GameReader interface {
	GetByID(ctx context.Context, id string) (game.Game, error)
}

// WebhookReader returns the configured announcement webhook.
type WebhookReader interface {
	Webhook(ctx context.Context) (settings.Webhook, error)
}

// WebhookPoster delivers a message to a webhook URL.
type WebhookPoster interface {
	Post(ctx context.Context, url string, params *discordgo.WebhookParams) error
}

// PostToDiscordInput carries input for the orchestrator.
type PostToDiscordInput struct {
	GameID  string
	Mention bool
}

// PostToDiscordDeps holds dependencies for PostToDiscord.
type PostToDiscordDeps struct {
	GameStore     GameReader
	SettingsStore WebhookReader
	Names         discord.Namer
	Poster        WebhookPoster
	Now           func() time.Time
}

// ExecutePostToDiscord announces a game in the team channel.
// PRE: caller is a manager
// POST: exactly one webhook POST on success; none when the webhook is unset or the game is missing
// INVARIANT: no retry; a failed post changes no stored state
func ExecutePostToDiscord(ctx context.Context, input PostToDiscordInput, deps PostToDiscordDeps) error {
	hook, err := deps.SettingsStore.Webhook(ctx)
	if err != nil {
		return err
	}
	if !hook.Configured() {
		return settings.ErrWebhookNotConfigured
	}

	g, err := deps.GameStore.GetByID(ctx, input.GameID)
	if err != nil {
		return err
	}

	params := discord.Announcement(g, deps.Names, input.Mention, deps.Now())
	if err := deps.Poster.Post(ctx, hook.URL, params); err != nil {
		slog.Warn("discord_event", "event", "announcement_failed", "game_id", g.ID, "error", err)
		return err
	}

	slog.Info("discord_event", "event", "announcement_posted", "game_id", g.ID, "mention", input.Mention)
	return nil
}
