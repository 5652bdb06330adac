package projections

import (
	"context"
	"time"

	"warteam/internal/domain/document"
	"warteam/internal/domain/game"
	"warteam/internal/domain/member"
)

// GetDocumentDeps holds dependencies for GetDocument.
type GetDocumentDeps struct {
	GameStore       GameLister
	PreferenceStore PreferenceLister
	SettingsStore   SettingsReader
	Directory       *member.Directory
}

// QueryGetDocument assembles the full data document. The webhook URL is
// included unmasked; callers choose Masked or Blanked before sharing.
// POST: every collection is non-nil
func QueryGetDocument(ctx context.Context, deps GetDocumentDeps) (document.Document, error) {
	games, err := deps.GameStore.List(ctx)
	if err != nil {
		return document.Document{}, err
	}
	prefs, err := deps.PreferenceStore.All(ctx)
	if err != nil {
		return document.Document{}, err
	}
	hook, err := deps.SettingsStore.Webhook(ctx)
	if err != nil {
		return document.Document{}, err
	}
	lists, err := deps.SettingsStore.Lists(ctx)
	if err != nil {
		return document.Document{}, err
	}
	if games == nil {
		games = []game.Game{}
	}
	return document.Document{
		Games:             games,
		PlayerPreferences: prefs,
		DiscordWebhook:    hook.URL,
		Leagues:           lists.Leagues,
		Divisions:         lists.Divisions,
		Members:           deps.Directory.All(),
	}, nil
}

// GetPendingRemindersDeps holds dependencies for GetPendingReminders.
type GetPendingRemindersDeps struct {
	GameStore GameLister
	Now       func() time.Time
}

// QueryGetPendingReminders lists games dated tomorrow that have a roster and
// have not been reminded yet.
// POST: never nil
func QueryGetPendingReminders(ctx context.Context, deps GetPendingRemindersDeps) ([]game.Game, error) {
	games, err := deps.GameStore.List(ctx)
	if err != nil {
		return nil, err
	}
	now := deps.Now()
	due := []game.Game{}
	for _, g := range games {
		if g.IsDueForReminder(now) {
			due = append(due, g)
		}
	}
	return due, nil
}
