package cartclient

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"watchstore/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// The decoders below unwrap exactly the documented payload shapes. A payload
// that decodes differently, or is missing its envelope field, is reported as
// domain.ErrMalformedResponse instead of being branch-sniffed.

func decodeCartPayload(body []byte) ([]domain.CartItem, error) {
	var payload struct {
		Items *[]domain.CartItem `json:"items"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if payload.Items == nil {
		return nil, fmt.Errorf("%w: missing items field", domain.ErrMalformedResponse)
	}
	return *payload.Items, nil
}

func decodeItemPayload(body []byte) (domain.CartItem, error) {
	var item domain.CartItem
	if err := json.Unmarshal(body, &item); err != nil {
		return domain.CartItem{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if item.ID == "" {
		return domain.CartItem{}, fmt.Errorf("%w: item without id", domain.ErrMalformedResponse)
	}
	return item, nil
}

func decodePromotions(body []byte) ([]domain.Promotion, error) {
	var promos []domain.Promotion
	if err := json.Unmarshal(body, &promos); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return promos, nil
}

func decodeProductPromotions(body []byte) ([]domain.ProductPromotions, error) {
	var entries []domain.ProductPromotions
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return entries, nil
}

func decodeProduct(body []byte) (*domain.Product, error) {
	var p domain.Product
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("%w: product without id", domain.ErrMalformedResponse)
	}
	return &p, nil
}
