package settings

import (
	"context"

	domain "warteam/internal/domain/settings"
)

// Store persists the single-valued application settings.
type Store interface {
	Webhook(ctx context.Context) (domain.Webhook, error)
	SetWebhook(ctx context.Context, w domain.Webhook) error
	Lists(ctx context.Context) (domain.Lists, error)
	SetLists(ctx context.Context, l domain.Lists) error
}
