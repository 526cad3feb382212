package cart

import (
	"context"
	"errors"
	"strings"

	"watchstore/internal/domain"
)

// Service implements server-side cart operations on top of the cart and
// product repositories. Line items carry a snapshot of the product at the
// time they were added.
type Service struct {
	repo        cartRepo
	productRepo productRepo
}

type cartRepo interface {
	ListByUser(ctx context.Context, userID string) ([]domain.CartItem, error)
	Insert(ctx context.Context, userID string, item domain.CartItem) (*domain.CartItem, error)
	UpdateQuantity(ctx context.Context, itemID string, quantity int) (*domain.CartItem, error)
	Delete(ctx context.Context, itemID string) error
	ClearByUser(ctx context.Context, userID string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

func New(repo cartRepo, productRepo productRepo) *Service {
	return &Service{repo: repo, productRepo: productRepo}
}

type AddItemInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type UpdateItemInput struct {
	Quantity int `json:"quantity"`
}

func (s *Service) Items(ctx context.Context, userID string) ([]domain.CartItem, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("user id required")
	}
	return s.repo.ListByUser(ctx, userID)
}

// AddItem snapshots the product into a line item and inserts it. An existing
// line for the same product gains the quantity instead of duplicating.
func (s *Service) AddItem(ctx context.Context, userID string, in AddItemInput) (*domain.CartItem, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("user id required")
	}
	if strings.TrimSpace(in.ProductID) == "" {
		return nil, errors.New("product id required")
	}
	if in.Quantity <= 0 {
		in.Quantity = 1
	}

	product, err := s.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}

	item := domain.CartItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		ImageURL:    product.ImageURL,
		UnitPrice:   product.Price,
		Quantity:    in.Quantity,
		Stock:       product.StockQuantity,
	}
	return s.repo.Insert(ctx, userID, item)
}

func (s *Service) UpdateQuantity(ctx context.Context, itemID string, in UpdateItemInput) (*domain.CartItem, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, errors.New("item id required")
	}
	if in.Quantity < 1 {
		return nil, errors.New("quantity must be at least 1")
	}
	return s.repo.UpdateQuantity(ctx, itemID, in.Quantity)
}

func (s *Service) RemoveItem(ctx context.Context, itemID string) error {
	if strings.TrimSpace(itemID) == "" {
		return errors.New("item id required")
	}
	return s.repo.Delete(ctx, itemID)
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return errors.New("user id required")
	}
	return s.repo.ClearByUser(ctx, userID)
}
