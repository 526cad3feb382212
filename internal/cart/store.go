// Package cart owns the authoritative line-item list for one storefront
// session, guest or authenticated, and enforces the stock invariant: an
// item's quantity never exceeds its finite stock cap once the cart has been
// loaded or mutated.
package cart

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"watchstore/internal/domain"
	"watchstore/internal/notify"
)

// Backend persists cart items for one identity. Guest carts overwrite a
// local record; server carts go through the cart API.
type Backend interface {
	Load(ctx context.Context) ([]domain.CartItem, error)
	// Insert stores a new item and returns it with its assigned ID.
	Insert(ctx context.Context, item domain.CartItem) (domain.CartItem, error)
	UpdateQuantity(ctx context.Context, itemID string, quantity int) error
	Remove(ctx context.Context, itemID string) error
	Clear(ctx context.Context) error
	// Flush persists clamp corrections: the full collection plus the IDs
	// whose quantity changed.
	Flush(ctx context.Context, items []domain.CartItem, changedIDs []string) error
}

type notifier interface {
	Publish(notify.Notification)
}

// Store is the session cart. Mutations acquire a per-item gate so a second
// mutation on the same line item is rejected while the first is unresolved;
// confirmed state only changes after the backend reports success.
type Store struct {
	backend Backend
	sink    notifier
	logger  *log.Logger
	now     func() time.Time

	mu       sync.Mutex
	items    []domain.CartItem
	inflight map[string]struct{}
}

func NewStore(backend Backend, sink notifier, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Store{
		backend:  backend,
		sink:     sink,
		logger:   logger,
		now:      time.Now,
		inflight: make(map[string]struct{}),
	}
}

// Load fetches the persisted cart, clamps every quantity that exceeds a
// finite stock cap to max(1, stock), persists the corrections, and emits one
// aggregate "adjusted due to stock" notification when anything was clamped.
// Storage failures degrade to an empty cart; the cart never fails the view.
func (s *Store) Load(ctx context.Context) []domain.CartItem {
	items, err := s.backend.Load(ctx)
	if err != nil {
		s.logger.Printf("cart: load failed, degrading to empty cart: %v", err)
		items = nil
	}

	var adjusted []string
	for i := range items {
		limit, bounded := items[i].StockLimit()
		if !bounded || items[i].Quantity <= limit {
			continue
		}
		clamped := limit
		if clamped < 1 {
			clamped = 1
		}
		items[i].Quantity = clamped
		adjusted = append(adjusted, items[i].ID)
	}

	if len(adjusted) > 0 {
		if err := s.backend.Flush(ctx, items, adjusted); err != nil {
			s.logger.Printf("cart: persisting stock corrections failed: %v", err)
		}
		s.sink.Publish(notify.Notification{
			Kind:    notify.KindAdjusted,
			Message: fmt.Sprintf("%d item(s) adjusted due to stock", len(adjusted)),
			ItemIDs: adjusted,
		})
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return s.Items()
}

// Items returns a copy of the current line items, most recently added first.
func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// AddItem adds the requested quantity of a product. An existing line item is
// incremented and clamped to the stock cap with a warning; a new item is
// inserted at the front with min(requested, cap), failing out-of-stock when
// nothing is purchasable.
func (s *Store) AddItem(ctx context.Context, product domain.Product, requested int) (domain.CartItem, error) {
	if requested <= 0 {
		requested = 1
	}
	limit, bounded := product.StockLimit()

	s.mu.Lock()
	var existing *domain.CartItem
	for i := range s.items {
		if s.items[i].ProductID == product.ID {
			cur := s.items[i]
			existing = &cur
			break
		}
	}
	gateKey := "add:" + product.ID
	if existing != nil {
		gateKey = existing.ID
	}
	if err := s.beginLocked(gateKey); err != nil {
		s.mu.Unlock()
		return domain.CartItem{}, err
	}
	s.mu.Unlock()
	defer s.end(gateKey)

	if existing != nil {
		return s.addToExisting(ctx, *existing, requested, limit, bounded)
	}

	initial := requested
	capped := false
	if bounded && initial > limit {
		initial = limit
		capped = true
	}
	if initial <= 0 {
		s.sink.Publish(notify.Notification{
			Kind:    notify.KindOutOfStock,
			Message: product.Name + " is out of stock",
		})
		return domain.CartItem{}, domain.ErrOutOfStock
	}

	item := domain.CartItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		ImageURL:    product.ImageURL,
		UnitPrice:   product.Price,
		Quantity:    initial,
		AddedAt:     s.now().UTC(),
	}
	if bounded {
		stock := limit
		item.Stock = &stock
	}

	stored, err := s.backend.Insert(ctx, item)
	if err != nil {
		return domain.CartItem{}, err
	}
	if capped {
		s.sink.Publish(notify.Notification{
			Kind:    notify.KindCappedToStock,
			Message: fmt.Sprintf("only %d of %s available, quantity was capped", limit, product.Name),
			ItemIDs: []string{stored.ID},
		})
	}

	s.mu.Lock()
	// Most recently added first; a deliberate product decision.
	s.items = append([]domain.CartItem{stored}, s.items...)
	s.mu.Unlock()
	return stored, nil
}

func (s *Store) addToExisting(ctx context.Context, item domain.CartItem, requested, limit int, bounded bool) (domain.CartItem, error) {
	// Live stock may have dropped to or below the confirmed quantity since
	// the item was added. Nothing can be added; the confirmed state stays and
	// a quantity below 1 is never written.
	if bounded && limit <= item.Quantity {
		s.sink.Publish(notify.Notification{
			Kind:    notify.KindOutOfStock,
			Message: item.ProductName + " is out of stock",
			ItemIDs: []string{item.ID},
		})
		return domain.CartItem{}, domain.ErrOutOfStock
	}

	newQty := item.Quantity + requested
	capped := false
	if bounded && newQty > limit {
		newQty = limit
		capped = true
	}

	if newQty != item.Quantity {
		if err := s.backend.UpdateQuantity(ctx, item.ID, newQty); err != nil {
			return domain.CartItem{}, err
		}
	}
	if capped {
		s.sink.Publish(notify.Notification{
			Kind:    notify.KindCappedToStock,
			Message: fmt.Sprintf("only %d of %s available, quantity was capped", limit, item.ProductName),
			ItemIDs: []string{item.ID},
		})
	}

	s.mu.Lock()
	if i := s.indexLocked(item.ID); i >= 0 {
		s.items[i].Quantity = newQty
		item = s.items[i]
	} else {
		item.Quantity = newQty
	}
	s.mu.Unlock()
	return item, nil
}

// UpdateQuantity applies a delta to a line item, flooring at 1. A change past
// a finite stock cap fails with insufficient stock and leaves the confirmed
// state untouched.
func (s *Store) UpdateQuantity(ctx context.Context, itemID string, delta int) error {
	if err := s.begin(itemID); err != nil {
		return err
	}
	defer s.end(itemID)

	s.mu.Lock()
	idx := s.indexLocked(itemID)
	if idx < 0 {
		s.mu.Unlock()
		return domain.ErrNotFound
	}
	item := s.items[idx]
	s.mu.Unlock()

	newQty := item.Quantity + delta
	if newQty < 1 {
		newQty = 1
	}
	if limit, bounded := item.StockLimit(); bounded && newQty > limit {
		s.sink.Publish(notify.Notification{
			Kind:    notify.KindCappedToStock,
			Message: fmt.Sprintf("insufficient stock for %s", item.ProductName),
			ItemIDs: []string{item.ID},
		})
		return domain.ErrInsufficientStock
	}
	if newQty == item.Quantity {
		return nil
	}

	if err := s.backend.UpdateQuantity(ctx, itemID, newQty); err != nil {
		// No optimistic change is retained on failure.
		return err
	}

	s.mu.Lock()
	if idx := s.indexLocked(itemID); idx >= 0 {
		s.items[idx].Quantity = newQty
	}
	s.mu.Unlock()
	return nil
}

// RemoveItem unconditionally removes the line item.
func (s *Store) RemoveItem(ctx context.Context, itemID string) error {
	if err := s.begin(itemID); err != nil {
		return err
	}
	defer s.end(itemID)

	if err := s.backend.Remove(ctx, itemID); err != nil {
		return err
	}

	s.mu.Lock()
	if idx := s.indexLocked(itemID); idx >= 0 {
		s.items = append(s.items[:idx], s.items[idx+1:]...)
	}
	s.mu.Unlock()
	return nil
}

// Clear empties the cart. Guest backends delete the persisted record rather
// than writing an empty one.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Clear(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
	return nil
}

func (s *Store) indexLocked(itemID string) int {
	for i := range s.items {
		if s.items[i].ID == itemID {
			return i
		}
	}
	return -1
}

func (s *Store) begin(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beginLocked(key)
}

func (s *Store) beginLocked(key string) error {
	if _, busy := s.inflight[key]; busy {
		return domain.ErrMutationInFlight
	}
	s.inflight[key] = struct{}{}
	return nil
}

func (s *Store) end(key string) {
	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()
}
