package ships

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/drydock-works/drydock/internal/masterdata/shared"
	"github.com/drydock-works/drydock/internal/platform/httpx"
)

var validate = validator.New()

// ShipInput is the create/update payload for a vessel.
type ShipInput struct {
	Name           string `json:"name" validate:"required,max=255"`
	RegistrationNo string `json:"registration_no" validate:"required,max=64"`
	OwnerUserID    int64  `json:"owner_user_id" validate:"required,gt=0"`
}

// Service holds business rules for the vessel registry.
type Service struct {
	repo Repository
}

// NewService constructs the ships service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns ships, optionally restricted to a single owner. Customers only
// see their own vessels; staff pass ownerID zero to see everything.
func (s *Service) List(ctx context.Context, filters shared.ListFilters, ownerID int64) ([]Ship, int, error) {
	return s.repo.List(ctx, filters, ownerID)
}

func (s *Service) Get(ctx context.Context, id int64) (Ship, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, input ShipInput) (Ship, error) {
	if err := validate.Struct(input); err != nil {
		return Ship{}, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}
	return s.repo.Create(ctx, Ship{
		Name:           input.Name,
		RegistrationNo: input.RegistrationNo,
		OwnerUserID:    input.OwnerUserID,
	})
}

func (s *Service) Update(ctx context.Context, id int64, input ShipInput) (Ship, error) {
	if err := validate.Struct(input); err != nil {
		return Ship{}, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}
	if err := s.repo.Update(ctx, id, Ship{
		Name:           input.Name,
		RegistrationNo: input.RegistrationNo,
		OwnerUserID:    input.OwnerUserID,
	}); err != nil {
		return Ship{}, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a vessel unless repair orders reference it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	refs, err := s.repo.CountOrderReferences(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("%w: ship %d has %d repair orders", httpx.ErrConflict, id, refs)
	}
	return s.repo.Delete(ctx, id)
}
