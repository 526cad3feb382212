package domain

import "time"

// CartItem is one product entry in a cart. Prices are whole currency units
// captured at add-time; Stock is the maximum purchasable quantity, nil when
// the inventory for the product is unknown or unbounded.
type CartItem struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"productId"`
	ProductName string    `json:"productName"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	UnitPrice   int64     `json:"price"`
	Quantity    int       `json:"quantity"`
	Stock       *int      `json:"stock,omitempty"`
	AddedAt     time.Time `json:"addedAt"`
}

// StockLimit returns the finite stock cap for the item and whether one exists.
func (i CartItem) StockLimit() (int, bool) {
	if i.Stock == nil {
		return 0, false
	}
	return *i.Stock, true
}

// ExceedsStock reports whether the quantity violates the stock invariant.
func (i CartItem) ExceedsStock() bool {
	limit, bounded := i.StockLimit()
	return bounded && i.Quantity > limit
}
