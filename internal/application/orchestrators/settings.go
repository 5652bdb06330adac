package orchestrators

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"warteam/internal/domain/apperr"
	"warteam/internal/domain/settings"
)

// ErrInvalidWebhookURL is returned for webhook values that are not http(s) URLs.
var ErrInvalidWebhookURL = apperr.Validation("Webhook must be an http(s) URL")

// WebhookStoreForSet defines the store interface needed by SetWebhook.
type WebhookStoreForSet interface {
	SetWebhook(ctx context.Context, w settings.Webhook) error
}

// SetWebhookDeps holds dependencies for SetWebhook.
type SetWebhookDeps struct {
	SettingsStore WebhookStoreForSet
}

// ExecuteSetWebhook stores or clears the announcement webhook.
// PRE: caller is a manager
// POST: an empty url clears the webhook; otherwise it is stored trimmed
func ExecuteSetWebhook(ctx context.Context, rawURL string, deps SetWebhookDeps) (settings.Webhook, error) {
	w := settings.Webhook{URL: strings.TrimSpace(rawURL)}
	if w.Configured() {
		u, err := url.Parse(w.URL)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return settings.Webhook{}, ErrInvalidWebhookURL
		}
	}
	if err := deps.SettingsStore.SetWebhook(ctx, w); err != nil {
		return settings.Webhook{}, err
	}

	slog.Info("settings_event", "event", "webhook_set", "configured", w.Configured())
	return w, nil
}

// ListsStoreForSet defines the store interface needed by SetLists.
type ListsStoreForSet interface {
	SetLists(ctx context.Context, l settings.Lists) error
}

// SetListsDeps holds dependencies for SetLists.
type SetListsDeps struct {
	SettingsStore ListsStoreForSet
}

// ExecuteSetLists replaces the league and division choices.
// PRE: caller is a manager
// POST: stored lists are trimmed, deduplicated and non-nil
func ExecuteSetLists(ctx context.Context, input settings.Lists, deps SetListsDeps) (settings.Lists, error) {
	l := input.Normalize()
	if err := l.Validate(); err != nil {
		return settings.Lists{}, err
	}
	if err := deps.SettingsStore.SetLists(ctx, l); err != nil {
		return settings.Lists{}, err
	}

	slog.Info("settings_event", "event", "lists_set", "leagues", len(l.Leagues), "divisions", len(l.Divisions))
	return l, nil
}
