package discord

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
)

// BackupMessage describes the embed posted next to a backup file.
func BackupMessage(summary string, now time.Time) *discordgo.WebhookParams {
	return &discordgo.WebhookParams{
		Username: BotName,
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "GO Calendar Backup",
			Description: summary,
			Color:       EmbedColor,
			Footer:      &discordgo.MessageEmbedFooter{Text: FooterText},
			Timestamp:   now.UTC().Format(time.RFC3339),
		}},
	}
}

// BackupFilename names a backup taken at now.
func BackupFilename(now time.Time) string {
	return fmt.Sprintf("backup-%s.json", now.UTC().Format("2006-01-02T15-04-05"))
}

// UploadFile posts params with data attached as a JSON file.
// POST: nil on a 2xx answer; otherwise an External error carrying the upstream body
// INVARIANT: params is not modified
func (c *WebhookClient) UploadFile(ctx context.Context, url string, params *discordgo.WebhookParams, filename string, data []byte) error {
	msg := *params
	msg.Files = append(append([]*discordgo.File{}, params.Files...), &discordgo.File{
		Name:        filename,
		ContentType: "application/json",
		Reader:      bytes.NewReader(data),
	})

	if id, token, ok := ParseWebhookURL(url); ok {
		_, err := c.session.WebhookExecute(id, token, false, &msg, discordgo.WithContext(ctx))
		return upstreamError(err)
	}

	contentType, body, err := discordgo.MultipartBodyWithJSON(&msg, msg.Files)
	if err != nil {
		return fmt.Errorf("encode backup upload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build backup request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req)
}
