package domain

import "time"

// Product is a catalog entry (a watch) as served by the catalog API.
// StockQuantity is the authoritative inventory count; Stock is the older
// catalog field still present in some payloads and honored second.
type Product struct {
	ID            string    `json:"id"`
	Brand         string    `json:"brand,omitempty"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	Price         int64     `json:"price"`
	StockQuantity *int      `json:"stockQuantity,omitempty"`
	Stock         *int      `json:"stock,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// StockLimit resolves the purchasable cap: StockQuantity when finite, then
// Stock, otherwise unbounded.
func (p Product) StockLimit() (int, bool) {
	if p.StockQuantity != nil {
		return *p.StockQuantity, true
	}
	if p.Stock != nil {
		return *p.Stock, true
	}
	return 0, false
}
