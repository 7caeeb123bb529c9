package customers

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, orgID int64, search string) ([]Customer, error) {
	return s.repo.List(ctx, orgID, search)
}

func (s *Service) Get(ctx context.Context, orgID, id int64) (Customer, error) {
	return s.repo.Get(ctx, orgID, id)
}

func (s *Service) Create(ctx context.Context, c Customer) (Customer, error) {
	if strings.TrimSpace(c.Name) == "" {
		return Customer{}, fmt.Errorf("%w: customer name is required", shared.ErrValidation)
	}
	return s.repo.Create(ctx, c)
}

func (s *Service) Update(ctx context.Context, c Customer) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: customer name is required", shared.ErrValidation)
	}
	return s.repo.Update(ctx, c)
}

func (s *Service) Delete(ctx context.Context, orgID, id int64) error {
	return s.repo.Delete(ctx, orgID, id)
}
