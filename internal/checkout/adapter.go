// Package checkout derives view state over the cart store and promotion
// resolver: the transient selection set, totals for the selected items, and
// the immutable snapshot handed to the checkout collaborator. It holds no
// persisted state of its own.
package checkout

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"watchstore/internal/cart"
	"watchstore/internal/domain"
	"watchstore/internal/notify"
	"watchstore/internal/promotion"
)

// Identity exposes the current session identity.
type Identity interface {
	UserID() string
	Authenticated() bool
}

// Catalog looks up live product data for checkout-time stock verification.
type Catalog interface {
	Product(ctx context.Context, id string) (*domain.Product, error)
}

type notifier interface {
	Publish(notify.Notification)
}

// Totals aggregates prices over the selected items only.
type Totals struct {
	Original   int64 `json:"totalOriginal"`
	Discounted int64 `json:"totalDiscounted"`
	Savings    int64 `json:"totalSavings"`
}

// Line is one presented cart row with its resolved discount.
type Line struct {
	Item            domain.CartItem `json:"item"`
	Selected        bool            `json:"selected"`
	Discount        int             `json:"discount"`
	DiscountedPrice int64           `json:"discountedPrice"`
	Savings         int64           `json:"savings"`
}

// Snapshot is the immutable hand-off to the checkout collaborator.
type Snapshot struct {
	UserID          string            `json:"userId"`
	Items           []domain.CartItem `json:"items"`
	TotalDiscounted int64             `json:"totalDiscounted"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// Adapter wires the cart store, promotion feeds, and identity into derived
// view state.
type Adapter struct {
	store    *cart.Store
	resolver *promotion.Resolver
	feeds    *promotion.Feeds
	identity Identity
	catalog  Catalog
	sink     notifier
	logger   *log.Logger

	mu       sync.Mutex
	selected map[string]struct{}
}

func NewAdapter(store *cart.Store, resolver *promotion.Resolver, feeds *promotion.Feeds, identity Identity, catalog Catalog, sink notifier, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Adapter{
		store:    store,
		resolver: resolver,
		feeds:    feeds,
		identity: identity,
		catalog:  catalog,
		sink:     sink,
		logger:   logger,
		selected: make(map[string]struct{}),
	}
}

// Select marks a line item for checkout.
func (a *Adapter) Select(itemID string) {
	items := a.store.Items()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pruneLocked(items)
	for _, it := range items {
		if it.ID == itemID {
			a.selected[itemID] = struct{}{}
			return
		}
	}
}

// Deselect unmarks a line item.
func (a *Adapter) Deselect(itemID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.selected, itemID)
}

// ToggleSelectAll clears the selection when it covers the whole cart,
// otherwise selects every current line item.
func (a *Adapter) ToggleSelectAll() {
	items := a.store.Items()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pruneLocked(items)
	if len(items) > 0 && len(a.selected) == len(items) {
		a.selected = make(map[string]struct{})
		return
	}
	for _, it := range items {
		a.selected[it.ID] = struct{}{}
	}
}

// AllSelected is true iff the selection covers a non-empty cart. An empty
// cart counts as "no selection", never as "all selected".
func (a *Adapter) AllSelected() bool {
	items := a.store.Items()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pruneLocked(items)
	return len(items) > 0 && len(a.selected) == len(items)
}

// SelectedIDs returns the current selection, pruned against the cart.
func (a *Adapter) SelectedIDs() []string {
	items := a.store.Items()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pruneLocked(items)
	out := make([]string, 0, len(a.selected))
	for _, it := range items {
		if _, ok := a.selected[it.ID]; ok {
			out = append(out, it.ID)
		}
	}
	return out
}

// RemoveItem removes the line item from the cart and from the selection.
func (a *Adapter) RemoveItem(ctx context.Context, itemID string) error {
	if err := a.store.RemoveItem(ctx, itemID); err != nil {
		return err
	}
	a.Deselect(itemID)
	return nil
}

// ClearCart empties the cart and the selection.
func (a *Adapter) ClearCart(ctx context.Context) error {
	if err := a.store.Clear(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	a.selected = make(map[string]struct{})
	a.mu.Unlock()
	return nil
}

// Lines resolves discounts for every cart row and marks selection state.
func (a *Adapter) Lines(ctx context.Context) []Line {
	items := a.store.Items()
	summary, byProduct := a.feeds.Fetch(ctx)

	a.mu.Lock()
	a.pruneLocked(items)
	selected := make(map[string]struct{}, len(a.selected))
	for id := range a.selected {
		selected[id] = struct{}{}
	}
	a.mu.Unlock()

	lines := make([]Line, 0, len(items))
	for _, it := range items {
		price, discount := a.resolver.PriceFor(it, summary, byProduct[it.ProductID])
		_, isSelected := selected[it.ID]
		lines = append(lines, Line{
			Item:            it,
			Selected:        isSelected,
			Discount:        discount,
			DiscountedPrice: price,
			Savings:         promotion.Savings(it.UnitPrice, discount),
		})
	}
	return lines
}

// Totals sums unit prices and discounted prices over the selected items
// only; unselected items contribute nothing.
func (a *Adapter) Totals(ctx context.Context) Totals {
	var t Totals
	for _, line := range a.Lines(ctx) {
		if !line.Selected {
			continue
		}
		qty := int64(line.Item.Quantity)
		t.Original += line.Item.UnitPrice * qty
		t.Discounted += line.DiscountedPrice * qty
	}
	t.Savings = t.Original - t.Discounted
	return t
}

// CheckoutSnapshot builds the immutable hand-off for the checkout
// collaborator. It rejects an empty selection and unauthenticated sessions,
// and re-verifies stock against the catalog before committing.
func (a *Adapter) CheckoutSnapshot(ctx context.Context) (*Snapshot, error) {
	if !a.identity.Authenticated() {
		a.sink.Publish(notify.Notification{
			Kind:    notify.KindCheckoutRejected,
			Message: "sign in to check out",
		})
		return nil, domain.ErrGuestCheckout
	}

	lines := a.Lines(ctx)
	var picked []Line
	for _, line := range lines {
		if line.Selected {
			picked = append(picked, line)
		}
	}
	if len(picked) == 0 {
		a.sink.Publish(notify.Notification{
			Kind:    notify.KindCheckoutRejected,
			Message: "no items selected",
		})
		return nil, domain.ErrEmptySelection
	}

	// The cart clamps on load but stock may have moved since; re-verify
	// against the catalog before handing off.
	for _, line := range picked {
		p, err := a.catalog.Product(ctx, line.Item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("verify stock for %s: %w", line.Item.ProductID, err)
		}
		if limit, bounded := p.StockLimit(); bounded && line.Item.Quantity > limit {
			a.sink.Publish(notify.Notification{
				Kind:    notify.KindCappedToStock,
				Message: fmt.Sprintf("insufficient stock for %s", line.Item.ProductName),
				ItemIDs: []string{line.Item.ID},
			})
			return nil, domain.ErrInsufficientStock
		}
	}

	snap := &Snapshot{
		UserID:    a.identity.UserID(),
		Items:     make([]domain.CartItem, 0, len(picked)),
		CreatedAt: time.Now().UTC(),
	}
	for _, line := range picked {
		snap.Items = append(snap.Items, line.Item)
		snap.TotalDiscounted += line.DiscountedPrice * int64(line.Item.Quantity)
	}
	return snap, nil
}

func (a *Adapter) pruneLocked(items []domain.CartItem) {
	present := make(map[string]struct{}, len(items))
	for _, it := range items {
		present[it.ID] = struct{}{}
	}
	for id := range a.selected {
		if _, ok := present[id]; !ok {
			delete(a.selected, id)
		}
	}
}
