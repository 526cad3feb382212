// Package cartclient is the thin HTTP client for the cart API and promotion
// feeds. Every endpoint has exactly one documented response shape; anything
// else is treated as data corruption, never sniffed around.
package cartclient

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/guonaihong/gout"
	"github.com/guonaihong/gout/dataflow"

	"watchstore/internal/domain"
)

// Client talks to the cart API over HTTP.
type Client struct {
	baseURL string
	timeout time.Duration
	logger  *log.Logger
}

func New(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{baseURL: baseURL, timeout: timeout, logger: logger}
}

// Cart fetches the server cart for a user. Documented shape: {"items": [...]}.
func (c *Client) Cart(ctx context.Context, userID string) ([]domain.CartItem, error) {
	body, err := c.do(ctx, gout.GET(c.baseURL+"/api/carts/"+userID), http.StatusOK)
	if err != nil {
		return nil, err
	}
	return decodeCartPayload(body)
}

// AddItem inserts a line item into the server cart and returns the stored
// item with its server-assigned ID.
func (c *Client) AddItem(ctx context.Context, userID string, item domain.CartItem) (domain.CartItem, error) {
	req := gout.POST(c.baseURL + "/api/carts/" + userID + "/items").SetJSON(item)
	body, err := c.do(ctx, req, http.StatusCreated)
	if err != nil {
		return domain.CartItem{}, err
	}
	return decodeItemPayload(body)
}

// UpdateQuantity patches a line item's quantity.
func (c *Client) UpdateQuantity(ctx context.Context, itemID string, quantity int) (domain.CartItem, error) {
	req := gout.PATCH(c.baseURL + "/api/cart-items/" + itemID).
		SetJSON(gout.H{"quantity": quantity})
	body, err := c.do(ctx, req, http.StatusOK)
	if err != nil {
		return domain.CartItem{}, err
	}
	return decodeItemPayload(body)
}

// RemoveItem deletes a line item.
func (c *Client) RemoveItem(ctx context.Context, itemID string) error {
	_, err := c.do(ctx, gout.DELETE(c.baseURL+"/api/cart-items/"+itemID), http.StatusNoContent)
	return err
}

// ClearCart deletes every line item in the user's cart.
func (c *Client) ClearCart(ctx context.Context, userID string) error {
	_, err := c.do(ctx, gout.DELETE(c.baseURL+"/api/carts/"+userID), http.StatusNoContent)
	return err
}

// Promotions is the flat summary feed. Documented shape: a JSON array.
func (c *Client) Promotions(ctx context.Context) ([]domain.Promotion, error) {
	body, err := c.do(ctx, gout.GET(c.baseURL+"/api/promotions"), http.StatusOK)
	if err != nil {
		return nil, err
	}
	return decodePromotions(body)
}

// ProductPromotions is the per-product feed. Documented shape: a JSON array.
func (c *Client) ProductPromotions(ctx context.Context) ([]domain.ProductPromotions, error) {
	body, err := c.do(ctx, gout.GET(c.baseURL+"/api/products-with-promotions"), http.StatusOK)
	if err != nil {
		return nil, err
	}
	return decodeProductPromotions(body)
}

// Product looks up one catalog entry.
func (c *Client) Product(ctx context.Context, id string) (*domain.Product, error) {
	body, err := c.do(ctx, gout.GET(c.baseURL+"/api/products/"+id), http.StatusOK)
	if err != nil {
		return nil, err
	}
	return decodeProduct(body)
}

func (c *Client) do(ctx context.Context, req *dataflow.DataFlow, wantStatus int) ([]byte, error) {
	var body []byte
	var code int
	err := req.
		WithContext(ctx).
		SetTimeout(c.timeout).
		BindBody(&body).
		Code(&code).
		Do()
	if err != nil {
		return nil, fmt.Errorf("cart api request: %w", err)
	}
	if code == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if code != wantStatus {
		c.logger.Printf("cart api: unexpected status %d (want %d)", code, wantStatus)
		return nil, fmt.Errorf("cart api: unexpected status %d", code)
	}
	return body, nil
}
