package product

import (
	"context"
	"errors"
	"strings"

	"watchstore/internal/domain"
)

type Service struct {
	repo repo
}

type repo interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

func New(repo repo) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("product id required")
	}
	return s.repo.GetByID(ctx, id)
}
