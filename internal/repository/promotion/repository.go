package promotion

import (
	"context"
	"time"

	"watchstore/internal/domain"
)

// Repository persists discount campaigns and their product bindings.
type Repository interface {
	// List returns all non-archived promotions; window filtering is the
	// resolver's job, not the feed's.
	List(ctx context.Context) ([]domain.Promotion, error)
	// ListByProduct groups non-archived promotions per targeted product.
	ListByProduct(ctx context.Context) ([]domain.ProductPromotions, error)
	Create(ctx context.Context, p domain.Promotion) (*domain.Promotion, error)
	// ArchiveExpired marks promotions whose window ended before the cutoff.
	ArchiveExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
