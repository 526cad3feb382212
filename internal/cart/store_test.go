package cart

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"watchstore/internal/domain"
	"watchstore/internal/notify"
)

type stubBackend struct {
	items     []domain.CartItem
	loadErr   error
	insertErr error
	updateErr error
	removeErr error
	clearErr  error
	flushErr  error

	inserted    []domain.CartItem
	updateCalls []quantityUpdate
	removed     []string
	cleared     bool
	flushed     []domain.CartItem
	flushedIDs  []string
}

type quantityUpdate struct {
	ItemID   string
	Quantity int
}

func (b *stubBackend) Load(_ context.Context) ([]domain.CartItem, error) {
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	out := make([]domain.CartItem, len(b.items))
	copy(out, b.items)
	return out, nil
}

func (b *stubBackend) Insert(_ context.Context, item domain.CartItem) (domain.CartItem, error) {
	if b.insertErr != nil {
		return domain.CartItem{}, b.insertErr
	}
	item.ID = fmt.Sprintf("srv-%d", len(b.inserted)+1)
	b.inserted = append(b.inserted, item)
	return item, nil
}

func (b *stubBackend) UpdateQuantity(_ context.Context, itemID string, quantity int) error {
	if b.updateErr != nil {
		return b.updateErr
	}
	b.updateCalls = append(b.updateCalls, quantityUpdate{ItemID: itemID, Quantity: quantity})
	return nil
}

func (b *stubBackend) Remove(_ context.Context, itemID string) error {
	if b.removeErr != nil {
		return b.removeErr
	}
	b.removed = append(b.removed, itemID)
	return nil
}

func (b *stubBackend) Clear(_ context.Context) error {
	if b.clearErr != nil {
		return b.clearErr
	}
	b.cleared = true
	return nil
}

func (b *stubBackend) Flush(_ context.Context, items []domain.CartItem, changedIDs []string) error {
	if b.flushErr != nil {
		return b.flushErr
	}
	b.flushed = items
	b.flushedIDs = changedIDs
	return nil
}

type stubSink struct {
	notifications []notify.Notification
}

func (s *stubSink) Publish(n notify.Notification) {
	s.notifications = append(s.notifications, n)
}

func (s *stubSink) ofKind(kind notify.Kind) []notify.Notification {
	var out []notify.Notification
	for _, n := range s.notifications {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func intPtr(v int) *int { return &v }

func watch(id string, price int64, stock *int) domain.Product {
	return domain.Product{ID: id, Name: "Watch " + id, Price: price, StockQuantity: stock}
}

func TestLoadClampsToStockOnce(t *testing.T) {
	backend := &stubBackend{items: []domain.CartItem{
		{ID: "i1", ProductID: "p1", Quantity: 5, Stock: intPtr(3)},
		{ID: "i2", ProductID: "p2", Quantity: 9, Stock: intPtr(2)},
		{ID: "i3", ProductID: "p3", Quantity: 1, Stock: intPtr(4)},
	}}
	sink := &stubSink{}
	store := NewStore(backend, sink, nil)

	items := store.Load(context.Background())

	if items[0].Quantity != 3 || items[1].Quantity != 2 || items[2].Quantity != 1 {
		t.Fatalf("unexpected quantities after clamp: %+v", items)
	}
	adjusted := sink.ofKind(notify.KindAdjusted)
	if len(adjusted) != 1 {
		t.Fatalf("expected exactly one aggregate notification, got %d", len(adjusted))
	}
	if len(adjusted[0].ItemIDs) != 2 {
		t.Fatalf("expected two adjusted ids, got %+v", adjusted[0].ItemIDs)
	}
	if len(backend.flushedIDs) != 2 || backend.flushed[0].Quantity != 3 {
		t.Fatalf("corrections not persisted: ids=%v items=%+v", backend.flushedIDs, backend.flushed)
	}
}

func TestLoadClampsZeroStockToOne(t *testing.T) {
	backend := &stubBackend{items: []domain.CartItem{
		{ID: "i1", ProductID: "p1", Quantity: 4, Stock: intPtr(0)},
	}}
	store := NewStore(backend, &stubSink{}, nil)
	items := store.Load(context.Background())
	if items[0].Quantity != 1 {
		t.Fatalf("expected clamp to max(1, stock)=1, got %d", items[0].Quantity)
	}
}

func TestLoadDegradesToEmptyOnBackendError(t *testing.T) {
	backend := &stubBackend{loadErr: errors.New("storage down")}
	sink := &stubSink{}
	store := NewStore(backend, sink, nil)
	if items := store.Load(context.Background()); len(items) != 0 {
		t.Fatalf("expected empty cart, got %+v", items)
	}
	if len(sink.notifications) != 0 {
		t.Fatalf("degraded load must not notify, got %+v", sink.notifications)
	}
}

func TestAddItemInsertsAtFront(t *testing.T) {
	backend := &stubBackend{}
	store := NewStore(backend, &stubSink{}, nil)
	ctx := context.Background()

	if _, err := store.AddItem(ctx, watch("p1", 1000, intPtr(5)), 1); err != nil {
		t.Fatalf("add p1: %v", err)
	}
	if _, err := store.AddItem(ctx, watch("p2", 2000, intPtr(5)), 1); err != nil {
		t.Fatalf("add p2: %v", err)
	}

	items := store.Items()
	if len(items) != 2 || items[0].ProductID != "p2" || items[1].ProductID != "p1" {
		t.Fatalf("expected most-recently-added first, got %+v", items)
	}
}

func TestAddItemCapsNewItemToStock(t *testing.T) {
	backend := &stubBackend{}
	sink := &stubSink{}
	store := NewStore(backend, sink, nil)

	item, err := store.AddItem(context.Background(), watch("p1", 1000, intPtr(2)), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Quantity != 2 {
		t.Fatalf("expected capped quantity 2, got %d", item.Quantity)
	}
	if len(sink.ofKind(notify.KindCappedToStock)) != 1 {
		t.Fatalf("expected capped warning, got %+v", sink.notifications)
	}
}

func TestAddItemOutOfStock(t *testing.T) {
	backend := &stubBackend{}
	sink := &stubSink{}
	store := NewStore(backend, sink, nil)

	_, err := store.AddItem(context.Background(), watch("p1", 1000, intPtr(0)), 1)
	if !errors.Is(err, domain.ErrOutOfStock) {
		t.Fatalf("expected out of stock, got %v", err)
	}
	if len(backend.inserted) != 0 {
		t.Fatalf("out-of-stock add must not insert")
	}
	if len(sink.ofKind(notify.KindOutOfStock)) != 1 {
		t.Fatalf("expected out-of-stock notification")
	}
}

func TestAddItemIncrementsExisting(t *testing.T) {
	backend := &stubBackend{}
	store := NewStore(backend, &stubSink{}, nil)
	ctx := context.Background()

	if _, err := store.AddItem(ctx, watch("p1", 1000, intPtr(10)), 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	item, err := store.AddItem(ctx, watch("p1", 1000, intPtr(10)), 3)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if item.Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", item.Quantity)
	}
	if len(store.Items()) != 1 {
		t.Fatalf("expected one line item, got %+v", store.Items())
	}
}

func TestAddItemExistingClampedToStock(t *testing.T) {
	backend := &stubBackend{}
	sink := &stubSink{}
	store := NewStore(backend, sink, nil)
	ctx := context.Background()

	if _, err := store.AddItem(ctx, watch("p1", 1000, intPtr(4)), 3); err != nil {
		t.Fatalf("first add: %v", err)
	}
	item, err := store.AddItem(ctx, watch("p1", 1000, intPtr(4)), 3)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if item.Quantity != 4 {
		t.Fatalf("expected quantity capped to 4, got %d", item.Quantity)
	}
	if len(sink.ofKind(notify.KindCappedToStock)) != 1 {
		t.Fatalf("expected capped warning")
	}
}

func TestAddItemExistingStockDepleted(t *testing.T) {
	backend := &stubBackend{}
	sink := &stubSink{}
	store := NewStore(backend, sink, nil)
	ctx := context.Background()

	if _, err := store.AddItem(ctx, watch("p1", 1000, intPtr(2)), 2); err != nil {
		t.Fatalf("first add: %v", err)
	}

	// Stock sold out elsewhere between the two adds.
	_, err := store.AddItem(ctx, watch("p1", 1000, intPtr(0)), 1)
	if !errors.Is(err, domain.ErrOutOfStock) {
		t.Fatalf("expected out of stock, got %v", err)
	}
	if len(backend.updateCalls) != 0 {
		t.Fatalf("depleted add must not write to the backend, got %+v", backend.updateCalls)
	}
	if got := store.Items()[0].Quantity; got != 2 {
		t.Fatalf("confirmed quantity must be unchanged, got %d", got)
	}
	if len(sink.ofKind(notify.KindOutOfStock)) != 1 {
		t.Fatalf("expected out-of-stock notification")
	}
}

func TestAddItemExistingStockBelowQuantity(t *testing.T) {
	backend := &stubBackend{}
	sink := &stubSink{}
	store := NewStore(backend, sink, nil)
	ctx := context.Background()

	if _, err := store.AddItem(ctx, watch("p1", 1000, intPtr(5)), 3); err != nil {
		t.Fatalf("first add: %v", err)
	}

	// Stock dropped below the quantity already in the cart.
	_, err := store.AddItem(ctx, watch("p1", 1000, intPtr(2)), 1)
	if !errors.Is(err, domain.ErrOutOfStock) {
		t.Fatalf("expected out of stock, got %v", err)
	}
	if len(backend.updateCalls) != 0 {
		t.Fatalf("confirmed quantity must never be reduced by an add, got %+v", backend.updateCalls)
	}
	if got := store.Items()[0].Quantity; got != 3 {
		t.Fatalf("confirmed quantity must be unchanged, got %d", got)
	}
}

func TestAddItemUnboundedStock(t *testing.T) {
	backend := &stubBackend{}
	store := NewStore(backend, &stubSink{}, nil)
	item, err := store.AddItem(context.Background(), domain.Product{ID: "p1", Name: "No inventory", Price: 500}, 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Quantity != 99 || item.Stock != nil {
		t.Fatalf("unbounded product must not be capped: %+v", item)
	}
}

func TestUpdateQuantityInsufficientStock(t *testing.T) {
	backend := &stubBackend{items: []domain.CartItem{
		{ID: "i1", ProductID: "p1", Quantity: 3, Stock: intPtr(3)},
	}}
	sink := &stubSink{}
	store := NewStore(backend, sink, nil)
	ctx := context.Background()
	store.Load(ctx)

	err := store.UpdateQuantity(ctx, "i1", +1)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if store.Items()[0].Quantity != 3 {
		t.Fatalf("state must be unchanged, got %+v", store.Items())
	}
	if len(backend.updateCalls) != 0 {
		t.Fatalf("backend must not be called on validation failure")
	}
}

func TestUpdateQuantityFloorsAtOne(t *testing.T) {
	backend := &stubBackend{items: []domain.CartItem{
		{ID: "i1", ProductID: "p1", Quantity: 2, Stock: intPtr(5)},
	}}
	store := NewStore(backend, &stubSink{}, nil)
	ctx := context.Background()
	store.Load(ctx)

	if err := store.UpdateQuantity(ctx, "i1", -10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.Items()[0].Quantity != 1 {
		t.Fatalf("expected floor at 1, got %d", store.Items()[0].Quantity)
	}
}

func TestUpdateQuantityBackendFailureKeepsState(t *testing.T) {
	backend := &stubBackend{items: []domain.CartItem{
		{ID: "i1", ProductID: "p1", Quantity: 2, Stock: intPtr(5)},
	}}
	store := NewStore(backend, &stubSink{}, nil)
	ctx := context.Background()
	store.Load(ctx)

	backend.updateErr = errors.New("network down")
	if err := store.UpdateQuantity(ctx, "i1", +1); err == nil {
		t.Fatalf("expected error")
	}
	if store.Items()[0].Quantity != 2 {
		t.Fatalf("no optimistic change may be retained, got %+v", store.Items())
	}
}

func TestUpdateQuantityUnknownItem(t *testing.T) {
	store := NewStore(&stubBackend{}, &stubSink{}, nil)
	if err := store.UpdateQuantity(context.Background(), "missing", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemoveItem(t *testing.T) {
	backend := &stubBackend{items: []domain.CartItem{
		{ID: "i1", ProductID: "p1", Quantity: 1},
		{ID: "i2", ProductID: "p2", Quantity: 1},
	}}
	store := NewStore(backend, &stubSink{}, nil)
	ctx := context.Background()
	store.Load(ctx)

	if err := store.RemoveItem(ctx, "i1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	items := store.Items()
	if len(items) != 1 || items[0].ID != "i2" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if len(backend.removed) != 1 || backend.removed[0] != "i1" {
		t.Fatalf("backend remove not called: %v", backend.removed)
	}
}

func TestClear(t *testing.T) {
	backend := &stubBackend{items: []domain.CartItem{{ID: "i1", ProductID: "p1", Quantity: 1}}}
	store := NewStore(backend, &stubSink{}, nil)
	ctx := context.Background()
	store.Load(ctx)

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(store.Items()) != 0 || !backend.cleared {
		t.Fatalf("expected empty cart and backend clear")
	}
}

func TestConcurrentMutationOnSameItemRejected(t *testing.T) {
	backend := &stubBackend{
		items: []domain.CartItem{{ID: "i1", ProductID: "p1", Quantity: 1, Stock: intPtr(10)}},
	}
	store := NewStore(backend, &stubSink{}, nil)
	ctx := context.Background()
	store.Load(ctx)

	// Simulate an unresolved mutation holding the per-item gate.
	if err := store.begin("i1"); err != nil {
		t.Fatalf("begin: %v", err)
	}

	if err := store.UpdateQuantity(ctx, "i1", +1); !errors.Is(err, domain.ErrMutationInFlight) {
		t.Fatalf("expected mutation-in-flight rejection, got %v", err)
	}
	if err := store.RemoveItem(ctx, "i1"); !errors.Is(err, domain.ErrMutationInFlight) {
		t.Fatalf("expected mutation-in-flight rejection on remove, got %v", err)
	}

	store.end("i1")
	if err := store.UpdateQuantity(ctx, "i1", +1); err != nil {
		t.Fatalf("mutation after gate release failed: %v", err)
	}
	if store.Items()[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %+v", store.Items())
	}
}
