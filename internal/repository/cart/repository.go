package cart

import (
	"context"

	"watchstore/internal/domain"
)

// Repository persists server-side carts, one flat item list per user.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.CartItem, error)
	// Insert adds a line item; an existing line for the same product has the
	// quantities added together instead.
	Insert(ctx context.Context, userID string, item domain.CartItem) (*domain.CartItem, error)
	UpdateQuantity(ctx context.Context, itemID string, quantity int) (*domain.CartItem, error)
	Delete(ctx context.Context, itemID string) error
	ClearByUser(ctx context.Context, userID string) error
}
