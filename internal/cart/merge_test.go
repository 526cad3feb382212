package cart

import (
	"context"
	"fmt"
	"testing"

	"watchstore/internal/domain"
	"watchstore/internal/notify"
)

type memGuestStore struct {
	records map[string][]domain.CartItem
}

func newMemGuestStore() *memGuestStore {
	return &memGuestStore{records: make(map[string][]domain.CartItem)}
}

func (m *memGuestStore) Load(guestID string) []domain.CartItem {
	return m.records[guestID]
}

func (m *memGuestStore) Save(guestID string, items []domain.CartItem) error {
	m.records[guestID] = items
	return nil
}

func (m *memGuestStore) Delete(guestID string) error {
	delete(m.records, guestID)
	return nil
}

type stubCartAPI struct {
	items   []domain.CartItem
	added   []domain.CartItem
	updates []quantityUpdate
}

func (a *stubCartAPI) Cart(_ context.Context, _ string) ([]domain.CartItem, error) {
	return a.items, nil
}

func (a *stubCartAPI) AddItem(_ context.Context, _ string, item domain.CartItem) (domain.CartItem, error) {
	item.ID = fmt.Sprintf("srv-%d", len(a.added)+1)
	a.added = append(a.added, item)
	return item, nil
}

func (a *stubCartAPI) UpdateQuantity(_ context.Context, itemID string, quantity int) (domain.CartItem, error) {
	a.updates = append(a.updates, quantityUpdate{ItemID: itemID, Quantity: quantity})
	return domain.CartItem{ID: itemID, Quantity: quantity}, nil
}

func (a *stubCartAPI) RemoveItem(_ context.Context, _ string) error { return nil }

func (a *stubCartAPI) ClearCart(_ context.Context, _ string) error { return nil }

func TestMergePushesGuestItemsOldestFirst(t *testing.T) {
	guest := newMemGuestStore()
	// Guest cart stores newest first.
	guest.Save("g1", []domain.CartItem{
		{ID: "l2", ProductID: "p2", Quantity: 1},
		{ID: "l1", ProductID: "p1", Quantity: 2},
	})
	api := &stubCartAPI{}

	if err := Merge(context.Background(), guest, "g1", api, "u1", &stubSink{}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(api.added) != 2 || api.added[0].ProductID != "p1" || api.added[1].ProductID != "p2" {
		t.Fatalf("expected oldest-first adds, got %+v", api.added)
	}
	if _, ok := guest.records["g1"]; ok {
		t.Fatalf("guest record must be deleted after merge")
	}
}

func TestMergeSumsSharedProductAndCaps(t *testing.T) {
	guest := newMemGuestStore()
	guest.Save("g1", []domain.CartItem{{ID: "l1", ProductID: "p1", Quantity: 4}})
	api := &stubCartAPI{items: []domain.CartItem{
		{ID: "srv-9", ProductID: "p1", Quantity: 2, Stock: intPtr(5)},
	}}
	sink := &stubSink{}

	if err := Merge(context.Background(), guest, "g1", api, "u1", sink); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(api.updates) != 1 || api.updates[0].ItemID != "srv-9" || api.updates[0].Quantity != 5 {
		t.Fatalf("expected capped update to 5, got %+v", api.updates)
	}
	if len(api.added) != 0 {
		t.Fatalf("shared product must not be added twice")
	}
	if len(sink.ofKind(notify.KindAdjusted)) != 1 {
		t.Fatalf("expected one aggregate adjustment notification")
	}
}

func TestMergeEmptyGuestCartDeletesRecord(t *testing.T) {
	guest := newMemGuestStore()
	guest.Save("g1", nil)
	api := &stubCartAPI{}

	if err := Merge(context.Background(), guest, "g1", api, "u1", &stubSink{}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if _, ok := guest.records["g1"]; ok {
		t.Fatalf("guest record must be deleted")
	}
	if len(api.added) != 0 {
		t.Fatalf("nothing to merge")
	}
}
