package promotion

import (
	"context"
	"io"
	"log"

	"watchstore/internal/domain"
)

// FeedSource is the upstream pair of promotion feeds.
type FeedSource interface {
	Promotions(ctx context.Context) ([]domain.Promotion, error)
	ProductPromotions(ctx context.Context) ([]domain.ProductPromotions, error)
}

// Feeds fetches both promotion feeds and degrades each one independently: a
// feed that is unreachable contributes an empty set for that call, so a
// missing summary feed never suppresses promotions known via the per-product
// feed, and vice versa.
type Feeds struct {
	src    FeedSource
	logger *log.Logger
}

func NewFeeds(src FeedSource, logger *log.Logger) *Feeds {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Feeds{src: src, logger: logger}
}

// Fetch returns the summary feed and the per-product feed indexed by product
// ID. Errors are logged and replaced by empty sets.
func (f *Feeds) Fetch(ctx context.Context) ([]domain.Promotion, map[string][]domain.Promotion) {
	summary, err := f.src.Promotions(ctx)
	if err != nil {
		f.logger.Printf("promotion feeds: summary unavailable: %v", err)
		summary = nil
	}

	byProduct := make(map[string][]domain.Promotion)
	scoped, err := f.src.ProductPromotions(ctx)
	if err != nil {
		f.logger.Printf("promotion feeds: per-product unavailable: %v", err)
		return summary, byProduct
	}
	for _, entry := range scoped {
		byProduct[entry.ProductID] = append(byProduct[entry.ProductID], entry.Promotions...)
	}
	return summary, byProduct
}
