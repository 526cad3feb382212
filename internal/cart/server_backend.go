package cart

import (
	"context"

	"watchstore/internal/domain"
)

// CartAPI is the server cart collaborator contract.
type CartAPI interface {
	Cart(ctx context.Context, userID string) ([]domain.CartItem, error)
	AddItem(ctx context.Context, userID string, item domain.CartItem) (domain.CartItem, error)
	UpdateQuantity(ctx context.Context, itemID string, quantity int) (domain.CartItem, error)
	RemoveItem(ctx context.Context, itemID string) error
	ClearCart(ctx context.Context, userID string) error
}

// ServerBackend stores the cart through the cart API for an authenticated
// user. IDs are server-assigned.
type ServerBackend struct {
	api    CartAPI
	userID string
}

func NewServerBackend(api CartAPI, userID string) *ServerBackend {
	return &ServerBackend{api: api, userID: userID}
}

func (b *ServerBackend) Load(ctx context.Context) ([]domain.CartItem, error) {
	return b.api.Cart(ctx, b.userID)
}

func (b *ServerBackend) Insert(ctx context.Context, item domain.CartItem) (domain.CartItem, error) {
	return b.api.AddItem(ctx, b.userID, item)
}

func (b *ServerBackend) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	_, err := b.api.UpdateQuantity(ctx, itemID, quantity)
	return err
}

func (b *ServerBackend) Remove(ctx context.Context, itemID string) error {
	return b.api.RemoveItem(ctx, itemID)
}

func (b *ServerBackend) Clear(ctx context.Context) error {
	return b.api.ClearCart(ctx, b.userID)
}

// Flush patches only the items whose quantity was corrected.
func (b *ServerBackend) Flush(ctx context.Context, items []domain.CartItem, changedIDs []string) error {
	changed := make(map[string]struct{}, len(changedIDs))
	for _, id := range changedIDs {
		changed[id] = struct{}{}
	}
	for _, it := range items {
		if _, ok := changed[it.ID]; !ok {
			continue
		}
		if _, err := b.api.UpdateQuantity(ctx, it.ID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}
