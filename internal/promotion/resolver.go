// Package promotion computes which discount campaigns apply to a cart item
// and the resulting prices. Promotions never stack: only the single largest
// active discount applies.
package promotion

import (
	"math"
	"time"

	"watchstore/internal/domain"
)

// Resolver selects active promotions for cart items. Now is injectable for
// window checks.
type Resolver struct {
	Now func() time.Time
}

func NewResolver() *Resolver {
	return &Resolver{Now: time.Now}
}

// ActiveFor collects candidates from the summary feed (membership-filtered by
// the item's product) and the per-product feed (already scoped), keeps only
// promotions whose window covers the current time, and deduplicates by
// promotion ID with first occurrence winning.
func (r *Resolver) ActiveFor(item domain.CartItem, summary []domain.Promotion, scoped []domain.Promotion) []domain.Promotion {
	now := r.Now()
	seen := make(map[string]struct{})
	var active []domain.Promotion

	for _, p := range summary {
		if !p.AppliesTo(item.ProductID) {
			continue
		}
		active = appendActive(active, seen, p, now)
	}
	for _, p := range scoped {
		active = appendActive(active, seen, p, now)
	}
	return active
}

func appendActive(active []domain.Promotion, seen map[string]struct{}, p domain.Promotion, now time.Time) []domain.Promotion {
	if _, dup := seen[p.ID]; dup {
		return active
	}
	if !p.ActiveAt(now) {
		return active
	}
	seen[p.ID] = struct{}{}
	return append(active, p)
}

// BestDiscount returns the maximum discount among the promotions, 0 for an
// empty set.
func BestDiscount(promos []domain.Promotion) int {
	best := 0
	for _, p := range promos {
		if p.Discount > best {
			best = p.Discount
		}
	}
	return best
}

// DiscountedPrice applies the percentage discount to the unit price, rounding
// half up to an integer currency unit.
func DiscountedPrice(unitPrice int64, discount int) int64 {
	if discount <= 0 {
		return unitPrice
	}
	return roundHalfUp(float64(unitPrice) * (1 - float64(discount)/100))
}

// Savings is the rounded discount amount per unit. Because DiscountedPrice
// and Savings round independently, their sum may differ from the unit price
// by one unit.
func Savings(unitPrice int64, discount int) int64 {
	if discount <= 0 {
		return 0
	}
	return roundHalfUp(float64(unitPrice) * float64(discount) / 100)
}

// PriceFor resolves the best active discount for the item and returns the
// discounted unit price alongside the discount percentage used.
func (r *Resolver) PriceFor(item domain.CartItem, summary, scoped []domain.Promotion) (price int64, discount int) {
	discount = BestDiscount(r.ActiveFor(item, summary, scoped))
	return DiscountedPrice(item.UnitPrice, discount), discount
}

func roundHalfUp(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}
