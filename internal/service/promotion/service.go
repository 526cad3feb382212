package promotion

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"watchstore/internal/domain"
)

// Service exposes the two promotion feeds and campaign management.
type Service struct {
	repo   repo
	logger *log.Logger
}

type repo interface {
	List(ctx context.Context) ([]domain.Promotion, error)
	ListByProduct(ctx context.Context) ([]domain.ProductPromotions, error)
	Create(ctx context.Context, p domain.Promotion) (*domain.Promotion, error)
	ArchiveExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

func New(repo repo, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]domain.Promotion, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListByProduct(ctx context.Context) ([]domain.ProductPromotions, error) {
	return s.repo.ListByProduct(ctx)
}

func (s *Service) Create(ctx context.Context, p domain.Promotion) (*domain.Promotion, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, errors.New("name required")
	}
	if p.Discount < 0 || p.Discount > 100 {
		return nil, errors.New("discount must be between 0 and 100")
	}
	if p.EndDate.Before(p.StartDate) {
		return nil, errors.New("end date before start date")
	}
	return s.repo.Create(ctx, p)
}

// ArchiveExpired retires campaigns whose window ended before now. Wired to a
// cron schedule by the API binary.
func (s *Service) ArchiveExpired(ctx context.Context) error {
	n, err := s.repo.ArchiveExpired(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Printf("promotion sweep: error=%v", err)
		return err
	}
	if n > 0 {
		s.logger.Printf("promotion sweep: archived=%d", n)
	}
	return nil
}
