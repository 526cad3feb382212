package cart

import (
	"context"
	"fmt"

	"watchstore/internal/domain"
	"watchstore/internal/notify"
)

// Merge pushes a guest cart into the authenticated user's server cart on
// login. Quantities for products already in the server cart are added
// together and capped to the item's stock; capping produces one aggregate
// notification. The guest record is deleted afterwards, superseded by the
// server cart.
func Merge(ctx context.Context, store guestStore, guestID string, api CartAPI, userID string, sink notifier) error {
	guestItems := store.Load(guestID)
	if len(guestItems) == 0 {
		return store.Delete(guestID)
	}

	serverItems, err := api.Cart(ctx, userID)
	if err != nil {
		return fmt.Errorf("load server cart: %w", err)
	}
	byProduct := make(map[string]domain.CartItem, len(serverItems))
	for _, it := range serverItems {
		byProduct[it.ProductID] = it
	}

	var capped []string
	// Guest items are newest-first; walk backwards so the server cart ends up
	// in the same relative order.
	for i := len(guestItems) - 1; i >= 0; i-- {
		g := guestItems[i]
		if existing, ok := byProduct[g.ProductID]; ok {
			qty := existing.Quantity + g.Quantity
			if limit, bounded := existing.StockLimit(); bounded && qty > limit {
				qty = limit
				capped = append(capped, existing.ID)
			}
			if qty != existing.Quantity {
				if _, err := api.UpdateQuantity(ctx, existing.ID, qty); err != nil {
					return fmt.Errorf("merge item %s: %w", existing.ID, err)
				}
			}
			continue
		}
		if limit, bounded := g.StockLimit(); bounded && g.Quantity > limit {
			g.Quantity = limit
			if g.Quantity < 1 {
				g.Quantity = 1
			}
			capped = append(capped, g.ID)
		}
		if _, err := api.AddItem(ctx, userID, g); err != nil {
			return fmt.Errorf("merge item %s: %w", g.ID, err)
		}
	}

	if len(capped) > 0 && sink != nil {
		sink.Publish(notify.Notification{
			Kind:    notify.KindAdjusted,
			Message: fmt.Sprintf("%d item(s) adjusted due to stock", len(capped)),
			ItemIDs: capped,
		})
	}

	return store.Delete(guestID)
}
