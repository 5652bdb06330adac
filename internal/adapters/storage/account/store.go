package account

import (
	"context"

	domain "warteam/internal/domain/account"
)

// Store defines the persistence interface for accounts.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByUsername(ctx context.Context, username string) (domain.Account, error)
	GetByPlayerID(ctx context.Context, playerID string) (domain.Account, error)
	Save(ctx context.Context, a domain.Account) error
	LinkedPlayerIDs(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
}
