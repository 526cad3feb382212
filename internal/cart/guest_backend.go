package cart

import (
	"context"

	"github.com/bwmarrin/snowflake"

	"watchstore/internal/domain"
)

// guestStore is the durable key-value store behind guest carts.
type guestStore interface {
	Load(guestID string) []domain.CartItem
	Save(guestID string, items []domain.CartItem) error
	Delete(guestID string) error
}

// GuestBackend persists the cart as one whole-collection record per guest.
// There is a single writer per guest, so every mutation is a plain
// read-modify-write of the full record. Line-item IDs are client-assigned.
type GuestBackend struct {
	store   guestStore
	guestID string
	node    *snowflake.Node
}

func NewGuestBackend(store guestStore, guestID string, node *snowflake.Node) *GuestBackend {
	return &GuestBackend{store: store, guestID: guestID, node: node}
}

func (b *GuestBackend) Load(_ context.Context) ([]domain.CartItem, error) {
	return b.store.Load(b.guestID), nil
}

func (b *GuestBackend) Insert(_ context.Context, item domain.CartItem) (domain.CartItem, error) {
	item.ID = b.node.Generate().String()
	items := append([]domain.CartItem{item}, b.store.Load(b.guestID)...)
	if err := b.store.Save(b.guestID, items); err != nil {
		return domain.CartItem{}, err
	}
	return item, nil
}

func (b *GuestBackend) UpdateQuantity(_ context.Context, itemID string, quantity int) error {
	items := b.store.Load(b.guestID)
	for i := range items {
		if items[i].ID == itemID {
			items[i].Quantity = quantity
			return b.store.Save(b.guestID, items)
		}
	}
	return domain.ErrNotFound
}

func (b *GuestBackend) Remove(_ context.Context, itemID string) error {
	items := b.store.Load(b.guestID)
	kept := items[:0]
	for _, it := range items {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}
	return b.store.Save(b.guestID, kept)
}

// Clear deletes the record entirely; presence of the key means "has a cart".
func (b *GuestBackend) Clear(_ context.Context) error {
	return b.store.Delete(b.guestID)
}

func (b *GuestBackend) Flush(_ context.Context, items []domain.CartItem, _ []string) error {
	return b.store.Save(b.guestID, items)
}
