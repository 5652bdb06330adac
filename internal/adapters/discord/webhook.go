// Package discord delivers game announcements, reminder DMs and backups to Discord.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"warteam/internal/domain/apperr"
	"warteam/internal/domain/game"
)

// Announcement styling.
const (
	BotName     = "Game Over Bot"
	FooterText  = "Game Over Pop1 War Team"
	EmbedColor  = 0x00f0ff
	MentionText = "@everyone"
)

// DefaultTimeout bounds every outbound Discord request.
const DefaultTimeout = 15 * time.Second

// Namer resolves a player id to a display name.
type Namer interface {
	Name(id string) string
}

// Announcement builds the webhook message announcing g.
// Unknown player ids are shown verbatim.
// POST: exactly one embed; Subs and Notes fields appear only when non-empty
func Announcement(g game.Game, names Namer, mention bool, now time.Time) *discordgo.WebhookParams {
	fields := []*discordgo.MessageEmbedField{
		{Name: "⏰ Time", Value: g.DisplayTime(), Inline: true},
		{Name: "⚔️ Opponent", Value: g.Opponent, Inline: true},
		{
			Name:  fmt.Sprintf("👥 Roster (%d/%d)", g.Roster.Len(), g.RosterCapacity()),
			Value: nameList(g.Roster.IDs(), names, "TBD"),
		},
	}
	if g.Subs.Len() > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("🔄 Subs (%d)", g.Subs.Len()),
			Value: nameList(g.Subs.IDs(), names, ""),
		})
	}
	if strings.TrimSpace(g.Notes) != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "📝 Notes", Value: g.Notes})
	}

	params := &discordgo.WebhookParams{
		Username: BotName,
		Embeds: []*discordgo.MessageEmbed{{
			Title:     "🎮 Game Day: " + g.DisplayDate(),
			Color:     EmbedColor,
			Fields:    fields,
			Footer:    &discordgo.MessageEmbedFooter{Text: FooterText},
			Timestamp: now.UTC().Format(time.RFC3339),
		}},
	}
	if mention {
		params.Content = MentionText
	}
	return params
}

func nameList(ids []string, names Namer, empty string) string {
	if len(ids) == 0 {
		return empty
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = names.Name(id)
	}
	return strings.Join(out, ", ")
}

// WebhookClient posts messages to a Discord channel webhook. Discord webhook
// URLs go through the discordgo REST client; any other http(s) URL (a relay,
// a test server) gets the same payload as a plain POST.
type WebhookClient struct {
	http    *http.Client
	session *discordgo.Session
}

// NewWebhookClient creates a client. A nil httpClient gets DefaultTimeout.
func NewWebhookClient(httpClient *http.Client) *WebhookClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	// No token: webhook calls authenticate through the URL.
	session, _ := discordgo.New("")
	session.Client = httpClient
	return &WebhookClient{http: httpClient, session: session}
}

// Post sends params to url once. No retry beyond discordgo's rate-limit handling.
// PRE: url is a configured webhook URL
// POST: nil on a 2xx answer; otherwise an External error carrying the upstream body
func (c *WebhookClient) Post(ctx context.Context, url string, params *discordgo.WebhookParams) error {
	if id, token, ok := ParseWebhookURL(url); ok {
		_, err := c.session.WebhookExecute(id, token, false, params, discordgo.WithContext(ctx))
		return upstreamError(err)
	}

	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode webhook params: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return apperr.External("Discord API error: "+err.Error(), err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// ParseWebhookURL extracts the webhook id and token from a Discord webhook
// URL such as https://discord.com/api/webhooks/{id}/{token}. An optional
// API version segment is accepted.
func ParseWebhookURL(raw string) (id, token string, ok bool) {
	u, err := neturl.Parse(raw)
	if err != nil || u.Scheme != "https" {
		return "", "", false
	}
	switch strings.ToLower(u.Host) {
	case "discord.com", "discordapp.com", "ptb.discord.com", "canary.discord.com":
	default:
		return "", "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) > 1 && parts[0] == "api" && strings.HasPrefix(parts[1], "v") {
		parts = append(parts[:1:1], parts[2:]...)
	}
	if len(parts) != 4 || parts[0] != "api" || parts[1] != "webhooks" || parts[2] == "" || parts[3] == "" {
		return "", "", false
	}
	return parts[2], parts[3], true
}

// upstreamError maps a discordgo failure to an External error carrying
// Discord's response body when there is one.
func upstreamError(err error) error {
	if err == nil {
		return nil
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) {
		status := 0
		if rest.Response != nil {
			status = rest.Response.StatusCode
		}
		slog.Warn("discord_event", "event", "webhook_rejected", "status", status)
		return apperr.External("Discord API error: "+string(rest.ResponseBody), err)
	}
	slog.Error("discord_event", "event", "webhook_failed", "error", err)
	return apperr.External("Discord API error: "+err.Error(), err)
}

func (c *WebhookClient) do(req *http.Request) error {
	resp, err := c.http.Do(req)
	if err != nil {
		slog.Error("discord_event", "event", "webhook_failed", "error", err)
		return apperr.External("Discord API error: "+err.Error(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		upstream, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		slog.Warn("discord_event", "event", "webhook_rejected", "status", resp.StatusCode)
		return apperr.External("Discord API error: "+string(upstream), nil)
	}
	return nil
}
