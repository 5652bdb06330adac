package settings

import (
	"strings"

	"warteam/internal/domain/apperr"
)

// Setting keys
const (
	KeyDiscordWebhook = "discord_webhook"
	KeyLeagues        = "leagues"
	KeyDivisions      = "divisions"
)

// MaxListItemLength bounds a single league or division name.
const MaxListItemLength = 80

// ErrWebhookNotConfigured is returned when an announcement is attempted without a webhook.
var ErrWebhookNotConfigured = apperr.Config("Discord webhook not configured")

// Webhook is the Discord channel webhook used for announcements.
type Webhook struct {
	URL string
}

// Configured reports whether a webhook URL is set.
func (w Webhook) Configured() bool {
	return strings.TrimSpace(w.URL) != ""
}

// Preview masks the URL down to its last 10 characters.
// POST: returns "" when unconfigured, otherwise "****" + last 10 chars
func (w Webhook) Preview() string {
	if !w.Configured() {
		return ""
	}
	u := w.URL
	if len(u) > 10 {
		u = u[len(u)-10:]
	}
	return "****" + u
}

// Lists holds the league and division choices offered when creating games.
type Lists struct {
	Leagues   []string `json:"leagues"`
	Divisions []string `json:"divisions"`
}

// Normalize trims entries, drops blanks and duplicates, and keeps order.
// POST: both lists are non-nil
func (l Lists) Normalize() Lists {
	return Lists{Leagues: normalizeList(l.Leagues), Divisions: normalizeList(l.Divisions)}
}

// Validate checks entry lengths.
func (l Lists) Validate() error {
	for _, v := range append(append([]string{}, l.Leagues...), l.Divisions...) {
		if len(v) > MaxListItemLength {
			return apperr.Validation("league and division names cannot exceed 80 characters")
		}
	}
	return nil
}

func normalizeList(in []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
