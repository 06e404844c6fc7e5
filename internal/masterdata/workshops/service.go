package workshops

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/drydock-works/drydock/internal/masterdata/shared"
	"github.com/drydock-works/drydock/internal/platform/httpx"
)

var validate = validator.New()

// WorkshopInput is the create/update payload for a workshop.
type WorkshopInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Address  string `json:"address" validate:"max=500"`
	Capacity int    `json:"capacity" validate:"gte=0"`
}

// Service holds business rules for the workshop registry.
type Service struct {
	repo Repository
}

// NewService constructs the workshops service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Workshop, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Workshop, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, input WorkshopInput) (Workshop, error) {
	if err := validate.Struct(input); err != nil {
		return Workshop{}, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}
	return s.repo.Create(ctx, Workshop{
		Name:     input.Name,
		Address:  input.Address,
		Capacity: input.Capacity,
	})
}

func (s *Service) Update(ctx context.Context, id int64, input WorkshopInput) (Workshop, error) {
	if err := validate.Struct(input); err != nil {
		return Workshop{}, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}
	if err := s.repo.Update(ctx, id, Workshop{
		Name:     input.Name,
		Address:  input.Address,
		Capacity: input.Capacity,
	}); err != nil {
		return Workshop{}, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a workshop unless employees are still assigned to it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	staff, err := s.repo.CountEmployees(ctx, id)
	if err != nil {
		return err
	}
	if staff > 0 {
		return fmt.Errorf("%w: workshop %d still has %d employees", httpx.ErrConflict, id, staff)
	}
	return s.repo.Delete(ctx, id)
}
