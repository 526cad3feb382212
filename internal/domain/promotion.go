package domain

import "time"

// Promotion is a percentage discount campaign over a set of products.
type Promotion struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Discount   int       `json:"discount"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	ProductIDs []string  `json:"productIds,omitempty"`
}

// ActiveAt reports whether t falls inside the promotion window, inclusive on
// both ends. Promotions outside the window never affect price.
func (p Promotion) ActiveAt(t time.Time) bool {
	return !t.Before(p.StartDate) && !t.After(p.EndDate)
}

// AppliesTo reports whether the promotion targets the given product.
func (p Promotion) AppliesTo(productID string) bool {
	for _, id := range p.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// ProductPromotions is the per-product promotion feed entry: promotions
// already scoped to one product.
type ProductPromotions struct {
	ProductID  string      `json:"productId"`
	Promotions []Promotion `json:"promotions"`
}
