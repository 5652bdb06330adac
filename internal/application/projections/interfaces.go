package projections

import (
	"context"

	"warteam/internal/domain/game"
	"warteam/internal/domain/settings"
)

// GameLister interface for game queries.
type GameLister interface {
	List(ctx context.Context) ([]game.Game, error)
}

// PreferenceLister interface for preference queries.
type PreferenceLister interface {
	All(ctx context.Context) (map[string]string, error)
}

// SettingsReader interface for settings queries.
type SettingsReader interface {
	Webhook(ctx context.Context) (settings.Webhook, error)
	Lists(ctx context.Context) (settings.Lists, error)
}

// LinkedPlayerLister interface for account link queries.
type LinkedPlayerLister interface {
	LinkedPlayerIDs(ctx context.Context) ([]string, error)
}
