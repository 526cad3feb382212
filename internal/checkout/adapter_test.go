package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"watchstore/internal/cart"
	"watchstore/internal/domain"
	"watchstore/internal/notify"
	"watchstore/internal/promotion"
)

type memBackend struct {
	items []domain.CartItem
	seq   int
}

func (b *memBackend) Load(_ context.Context) ([]domain.CartItem, error) {
	out := make([]domain.CartItem, len(b.items))
	copy(out, b.items)
	return out, nil
}

func (b *memBackend) Insert(_ context.Context, item domain.CartItem) (domain.CartItem, error) {
	b.seq++
	item.ID = fmt.Sprintf("i%d", b.seq)
	b.items = append([]domain.CartItem{item}, b.items...)
	return item, nil
}

func (b *memBackend) UpdateQuantity(_ context.Context, itemID string, quantity int) error {
	for i := range b.items {
		if b.items[i].ID == itemID {
			b.items[i].Quantity = quantity
			return nil
		}
	}
	return domain.ErrNotFound
}

func (b *memBackend) Remove(_ context.Context, itemID string) error {
	kept := b.items[:0]
	for _, it := range b.items {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}
	b.items = kept
	return nil
}

func (b *memBackend) Clear(_ context.Context) error {
	b.items = nil
	return nil
}

func (b *memBackend) Flush(_ context.Context, items []domain.CartItem, _ []string) error {
	b.items = items
	return nil
}

type stubIdentity struct {
	userID        string
	authenticated bool
}

func (s stubIdentity) UserID() string      { return s.userID }
func (s stubIdentity) Authenticated() bool { return s.authenticated }

type stubCatalog struct {
	products map[string]domain.Product
	err      error
}

func (s *stubCatalog) Product(_ context.Context, id string) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

type stubSink struct {
	notifications []notify.Notification
}

func (s *stubSink) Publish(n notify.Notification) {
	s.notifications = append(s.notifications, n)
}

type stubFeeds struct {
	summary []domain.Promotion
	scoped  []domain.ProductPromotions
}

func (s *stubFeeds) Promotions(_ context.Context) ([]domain.Promotion, error) {
	return s.summary, nil
}

func (s *stubFeeds) ProductPromotions(_ context.Context) ([]domain.ProductPromotions, error) {
	return s.scoped, nil
}

func intPtr(v int) *int { return &v }

type fixture struct {
	adapter *Adapter
	store   *cart.Store
	backend *memBackend
	sink    *stubSink
	catalog *stubCatalog
}

func newFixture(t *testing.T, identity Identity, feeds *stubFeeds) *fixture {
	t.Helper()
	if feeds == nil {
		feeds = &stubFeeds{}
	}
	backend := &memBackend{}
	sink := &stubSink{}
	store := cart.NewStore(backend, sink, nil)
	catalog := &stubCatalog{products: make(map[string]domain.Product)}
	resolver := promotion.NewResolver()
	adapter := NewAdapter(store, resolver, promotion.NewFeeds(feeds, nil), identity, catalog, sink, nil)
	return &fixture{adapter: adapter, store: store, backend: backend, sink: sink, catalog: catalog}
}

func (f *fixture) add(t *testing.T, productID string, price int64, qty int, stock *int) domain.CartItem {
	t.Helper()
	p := domain.Product{ID: productID, Name: "Watch " + productID, Price: price, StockQuantity: stock}
	f.catalog.products[productID] = p
	item, err := f.store.AddItem(context.Background(), p, qty)
	if err != nil {
		t.Fatalf("add %s: %v", productID, err)
	}
	return item
}

func activePromo(id string, discount int, productIDs ...string) domain.Promotion {
	now := time.Now()
	return domain.Promotion{
		ID:         id,
		Discount:   discount,
		StartDate:  now.Add(-time.Hour),
		EndDate:    now.Add(time.Hour),
		ProductIDs: productIDs,
	}
}

func TestToggleSelectAll(t *testing.T) {
	f := newFixture(t, stubIdentity{}, nil)
	f.add(t, "p1", 1000, 1, intPtr(5))
	f.add(t, "p2", 2000, 1, intPtr(5))

	f.adapter.ToggleSelectAll()
	if !f.adapter.AllSelected() {
		t.Fatalf("expected full selection")
	}
	f.adapter.ToggleSelectAll()
	if len(f.adapter.SelectedIDs()) != 0 {
		t.Fatalf("expected cleared selection, got %v", f.adapter.SelectedIDs())
	}
}

func TestSelectAllFalseForEmptyCart(t *testing.T) {
	f := newFixture(t, stubIdentity{}, nil)
	if f.adapter.AllSelected() {
		t.Fatalf("empty cart must not report all-selected")
	}
	f.adapter.ToggleSelectAll()
	if f.adapter.AllSelected() {
		t.Fatalf("toggling an empty cart selects nothing")
	}
}

func TestRemoveItemPrunesSelection(t *testing.T) {
	f := newFixture(t, stubIdentity{}, nil)
	a := f.add(t, "p1", 1000, 1, intPtr(5))
	f.add(t, "p2", 2000, 1, intPtr(5))
	f.adapter.ToggleSelectAll()

	if err := f.adapter.RemoveItem(context.Background(), a.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	ids := f.adapter.SelectedIDs()
	if len(ids) != 1 {
		t.Fatalf("expected selection pruned to one, got %v", ids)
	}
	if !f.adapter.AllSelected() {
		t.Fatalf("remaining selection covers the whole cart")
	}
}

func TestSelectionPrunedAfterExternalMutation(t *testing.T) {
	f := newFixture(t, stubIdentity{}, nil)
	a := f.add(t, "p1", 1000, 1, intPtr(5))
	b := f.add(t, "p2", 2000, 1, intPtr(5))
	f.adapter.Select(a.ID)
	f.adapter.Select(b.ID)

	// Item removed through the store directly, not the adapter.
	if err := f.store.RemoveItem(context.Background(), a.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	ids := f.adapter.SelectedIDs()
	if len(ids) != 1 || ids[0] != b.ID {
		t.Fatalf("stale selection must be pruned, got %v", ids)
	}
}

func TestTotalsCoverSelectedItemsOnly(t *testing.T) {
	feeds := &stubFeeds{summary: []domain.Promotion{activePromo("promo-20", 20, "p1")}}
	f := newFixture(t, stubIdentity{}, feeds)
	a := f.add(t, "p1", 100000, 2, intPtr(5))
	f.add(t, "p2", 50000, 1, intPtr(5))
	f.adapter.Select(a.ID)

	totals := f.adapter.Totals(context.Background())
	if totals.Original != 200000 {
		t.Fatalf("expected original 200000, got %d", totals.Original)
	}
	if totals.Discounted != 160000 {
		t.Fatalf("expected discounted 160000, got %d", totals.Discounted)
	}
	if totals.Savings != 40000 {
		t.Fatalf("expected savings 40000, got %d", totals.Savings)
	}
}

func TestLinesResolveBestDiscount(t *testing.T) {
	feeds := &stubFeeds{
		summary: []domain.Promotion{activePromo("small", 10, "p1")},
		scoped: []domain.ProductPromotions{
			{ProductID: "p1", Promotions: []domain.Promotion{activePromo("big", 30)}},
		},
	}
	f := newFixture(t, stubIdentity{}, feeds)
	f.add(t, "p1", 100000, 1, intPtr(5))

	lines := f.adapter.Lines(context.Background())
	if len(lines) != 1 || lines[0].Discount != 30 || lines[0].DiscountedPrice != 70000 {
		t.Fatalf("unexpected lines: %+v", lines)
	}
}

func TestCheckoutSnapshotRejectsGuest(t *testing.T) {
	f := newFixture(t, stubIdentity{authenticated: false}, nil)
	a := f.add(t, "p1", 1000, 1, intPtr(5))
	f.adapter.Select(a.ID)

	_, err := f.adapter.CheckoutSnapshot(context.Background())
	if !errors.Is(err, domain.ErrGuestCheckout) {
		t.Fatalf("expected guest rejection, got %v", err)
	}
}

func TestCheckoutSnapshotRejectsEmptySelection(t *testing.T) {
	f := newFixture(t, stubIdentity{userID: "u1", authenticated: true}, nil)
	f.add(t, "p1", 1000, 1, intPtr(5))

	_, err := f.adapter.CheckoutSnapshot(context.Background())
	if !errors.Is(err, domain.ErrEmptySelection) {
		t.Fatalf("expected empty-selection rejection, got %v", err)
	}
}

func TestCheckoutSnapshotReverifiesStock(t *testing.T) {
	f := newFixture(t, stubIdentity{userID: "u1", authenticated: true}, nil)
	a := f.add(t, "p1", 1000, 3, intPtr(5))
	f.adapter.Select(a.ID)

	// Stock dropped since the cart was loaded.
	p := f.catalog.products["p1"]
	p.StockQuantity = intPtr(1)
	f.catalog.products["p1"] = p

	_, err := f.adapter.CheckoutSnapshot(context.Background())
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected stock re-verification failure, got %v", err)
	}
}

func TestCheckoutSnapshotHappyPath(t *testing.T) {
	feeds := &stubFeeds{summary: []domain.Promotion{activePromo("promo-20", 20, "p1")}}
	f := newFixture(t, stubIdentity{userID: "u1", authenticated: true}, feeds)
	a := f.add(t, "p1", 100000, 2, intPtr(5))
	f.adapter.Select(a.ID)

	snap, err := f.adapter.CheckoutSnapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.UserID != "u1" || len(snap.Items) != 1 || snap.Items[0].ID != a.ID {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.TotalDiscounted != 160000 {
		t.Fatalf("expected total 160000, got %d", snap.TotalDiscounted)
	}
}
