package projections

import (
	"context"
	"time"

	"warteam/internal/domain/game"
	"warteam/internal/domain/member"
	"warteam/internal/domain/settings"
)

var fixedNow = time.Date(2025, 2, 28, 18, 0, 0, 0, time.UTC)

// mockGameStore implements GameLister for testing.
type mockGameStore struct {
	games []game.Game
	err   error
}

// List implements GameLister.
// PRE: none
// POST: returns stored games or the configured error
func (m *mockGameStore) List(_ context.Context) ([]game.Game, error) {
	return m.games, m.err
}

// mockPreferenceStore implements PreferenceLister for testing.
type mockPreferenceStore struct {
	prefs map[string]string
}

// All implements PreferenceLister.
func (m *mockPreferenceStore) All(_ context.Context) (map[string]string, error) {
	if m.prefs == nil {
		return map[string]string{}, nil
	}
	return m.prefs, nil
}

// mockSettingsStore implements SettingsReader for testing.
type mockSettingsStore struct {
	webhook string
	lists   settings.Lists
}

// Webhook implements SettingsReader.
func (m *mockSettingsStore) Webhook(_ context.Context) (settings.Webhook, error) {
	return settings.Webhook{URL: m.webhook}, nil
}

// Lists implements SettingsReader.
func (m *mockSettingsStore) Lists(_ context.Context) (settings.Lists, error) {
	return m.lists.Normalize(), nil
}

// mockAccountStore implements LinkedPlayerLister for testing.
type mockAccountStore struct {
	linked []string
}

// LinkedPlayerIDs implements LinkedPlayerLister.
func (m *mockAccountStore) LinkedPlayerIDs(_ context.Context) ([]string, error) {
	return m.linked, nil
}

func testDirectory() *member.Directory {
	return member.NewDirectory([]member.Member{
		{ID: "alpha", Name: "Alpha", SortOrder: 1, DiscordID: "111", Email: "alpha@example.com"},
		{ID: "bravo", Name: "Bravo", SortOrder: 2},
		{ID: "charlie", Name: "Charlie", SortOrder: 3},
		{ID: "sierra", Name: "Sierra", IsSub: true, SortOrder: 4},
	})
}
