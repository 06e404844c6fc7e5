package employees

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/drydock-works/drydock/internal/masterdata/shared"
	"github.com/drydock-works/drydock/internal/platform/httpx"
)

var validate = validator.New()

// EmployeeInput is the create/update payload for a staff record.
type EmployeeInput struct {
	WorkshopID int64   `json:"workshop_id" validate:"required,gt=0"`
	FullName   string  `json:"full_name" validate:"required,max=255"`
	Specialty  string  `json:"specialty" validate:"max=255"`
	DailyRate  float64 `json:"daily_rate" validate:"gte=0"`
}

// Service holds business rules for workshop staff.
type Service struct {
	repo Repository
}

// NewService constructs the employees service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters, workshopID int64) ([]Employee, int, error) {
	return s.repo.List(ctx, filters, workshopID)
}

func (s *Service) Get(ctx context.Context, id int64) (Employee, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, input EmployeeInput) (Employee, error) {
	if err := validate.Struct(input); err != nil {
		return Employee{}, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}
	return s.repo.Create(ctx, Employee{
		WorkshopID: input.WorkshopID,
		FullName:   input.FullName,
		Specialty:  input.Specialty,
		DailyRate:  input.DailyRate,
	})
}

func (s *Service) Update(ctx context.Context, id int64, input EmployeeInput) (Employee, error) {
	if err := validate.Struct(input); err != nil {
		return Employee{}, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}
	if err := s.repo.Update(ctx, id, Employee{
		WorkshopID: input.WorkshopID,
		FullName:   input.FullName,
		Specialty:  input.Specialty,
		DailyRate:  input.DailyRate,
	}); err != nil {
		return Employee{}, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a staff record. Records referenced by proposal labor lines
// are kept; the lines carry their own rate snapshots but keep the reference.
func (s *Service) Delete(ctx context.Context, id int64) error {
	refs, err := s.repo.CountLaborReferences(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("%w: employee %d is referenced by %d labor lines", httpx.ErrConflict, id, refs)
	}
	return s.repo.Delete(ctx, id)
}
