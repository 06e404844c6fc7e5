package materials

import (
	"context"
	"fmt"

	"github.com/drydock-works/drydock/internal/masterdata/shared"
	"github.com/drydock-works/drydock/internal/platform/httpx"
)

// Service holds business rules for the materials catalog.
type Service struct {
	repo Repository
}

// NewService constructs the materials service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Material, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Material, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, input MaterialInput) (Material, error) {
	if err := input.Validate(); err != nil {
		return Material{}, err
	}
	return s.repo.Create(ctx, Material{
		Name:      input.Name,
		Unit:      input.Unit,
		UnitPrice: input.UnitPrice,
	})
}

func (s *Service) Update(ctx context.Context, id int64, input MaterialInput) (Material, error) {
	if err := input.Validate(); err != nil {
		return Material{}, err
	}
	if err := s.repo.Update(ctx, id, Material{
		Name:      input.Name,
		Unit:      input.Unit,
		UnitPrice: input.UnitPrice,
	}); err != nil {
		return Material{}, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a catalog entry. Entries referenced by repair order lines
// cannot be deleted; historical lines carry their own price snapshots but
// still point back to the catalog row.
func (s *Service) Delete(ctx context.Context, id int64) error {
	refs, err := s.repo.CountLineReferences(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("%w: material %d is referenced by %d repair order lines", httpx.ErrConflict, id, refs)
	}
	return s.repo.Delete(ctx, id)
}
