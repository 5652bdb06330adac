package member

import (
	"context"

	domain "warteam/internal/domain/member"
)

// Store persists Member state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Member, error)
	List(ctx context.Context) ([]domain.Member, error)
	Save(ctx context.Context, m domain.Member) error
	SaveAll(ctx context.Context, members []domain.Member) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}
