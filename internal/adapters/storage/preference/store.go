package preference

import "context"

// Store persists player preferences (player id to starter/sub).
type Store interface {
	Set(ctx context.Context, playerID, value string) error
	SetAll(ctx context.Context, prefs map[string]string) error
	All(ctx context.Context) (map[string]string, error)
}
