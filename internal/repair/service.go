package repair

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/drydock-works/drydock/internal/masterdata/employees"
	"github.com/drydock-works/drydock/internal/masterdata/materials"
	"github.com/drydock-works/drydock/internal/masterdata/ships"
	"github.com/drydock-works/drydock/internal/platform/httpx"
	"github.com/drydock-works/drydock/internal/shared"
)

// MaterialCatalog resolves catalog entries whose prices get frozen onto
// proposal lines.
type MaterialCatalog interface {
	Get(ctx context.Context, id int64) (materials.Material, error)
}

// EmployeeDirectory resolves staff records for labor lines.
type EmployeeDirectory interface {
	Get(ctx context.Context, id int64) (employees.Employee, error)
}

// ShipRegistry resolves vessels for order creation.
type ShipRegistry interface {
	Get(ctx context.Context, id int64) (ships.Ship, error)
}

// SummaryInvalidator drops a cached cost summary after a mutation.
type SummaryInvalidator interface {
	Invalidate(ctx context.Context, orderID int64)
}

// Service drives the repair order workflow.
type Service struct {
	logger    *slog.Logger
	repo      Repository
	catalog   MaterialCatalog
	directory EmployeeDirectory
	registry  ShipRegistry
	audit     *shared.AuditLogger
	summaries SummaryInvalidator
	validator *validator.Validate

	// dailyRate applies to labor lines whose employee has no rate.
	dailyRate float64
}

// NewService constructs the workflow service. dailyRate zero falls back to
// the built-in default.
func NewService(logger *slog.Logger, repo Repository, catalog MaterialCatalog, directory EmployeeDirectory, registry ShipRegistry, audit *shared.AuditLogger, summaries SummaryInvalidator, dailyRate float64) *Service {
	if dailyRate <= 0 {
		dailyRate = DefaultDailyRate
	}
	return &Service{
		logger:    logger,
		repo:      repo,
		catalog:   catalog,
		directory: directory,
		registry:  registry,
		audit:     audit,
		summaries: summaries,
		validator: validator.New(),
		dailyRate: dailyRate,
	}
}

// ListOrders returns orders visible to the actor. Customers only see their
// own; inspectors, workshops and accountants see everything they may act on.
func (s *Service) ListOrders(ctx context.Context, actor Actor, filters ListFilters) ([]RepairOrder, int, error) {
	if actor.Role == "customer" {
		filters.CustomerID = actor.ID
	}
	return s.repo.List(ctx, filters)
}

// GetOrder returns the order with its current lines, enforcing customer
// visibility scoping.
func (s *Service) GetOrder(ctx context.Context, actor Actor, orderID int64) (OrderDetail, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return OrderDetail{}, err
	}
	if actor.Role == "customer" && order.CustomerID != actor.ID {
		return OrderDetail{}, ErrNotOrderOwner
	}
	mats, labor, err := s.repo.Lines(ctx, orderID)
	if err != nil {
		return OrderDetail{}, err
	}
	return OrderDetail{Order: order, Materials: mats, Labor: labor}, nil
}

// CreateOrder registers a new repair request in AWAITING_INSPECTION.
func (s *Service) CreateOrder(ctx context.Context, actor Actor, input CreateOrderInput) (RepairOrder, error) {
	if err := s.validator.Struct(input); err != nil {
		return RepairOrder{}, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}
	ship, err := s.registry.Get(ctx, input.ShipID)
	if err != nil {
		return RepairOrder{}, err
	}
	if ship.OwnerUserID != actor.ID {
		return RepairOrder{}, fmt.Errorf("%w: ship %d belongs to another customer", httpx.ErrForbidden, input.ShipID)
	}

	order, err := s.repo.Create(ctx, RepairOrder{
		DocNumber:   newDocNumber(),
		ShipID:      input.ShipID,
		WorkshopID:  input.WorkshopID,
		CustomerID:  actor.ID,
		Status:      StatusAwaitingInspection,
		Description: strings.TrimSpace(input.Description),
	})
	if err != nil {
		return RepairOrder{}, err
	}
	s.recordAudit(ctx, actor, "repair.create", order.ID, map[string]any{"doc_number": order.DocNumber})
	return order, nil
}

// ClaimOrder moves an awaiting order to UNDER_INSPECTION for this inspector.
// The claim is decided at write time; losing a race yields ErrAlreadyClaimed.
func (s *Service) ClaimOrder(ctx context.Context, actor Actor, orderID int64) (RepairOrder, error) {
	if err := s.repo.Claim(ctx, orderID, actor.ID, actor.Name); err != nil {
		return RepairOrder{}, err
	}
	s.recordAudit(ctx, actor, "repair.claim", orderID, nil)
	return s.repo.Get(ctx, orderID)
}

// SubmitProposal attaches the inspector's plan and fully replaces the line
// sets. Valid from UNDER_INSPECTION and REPROPOSAL_REQUESTED; a reproposal
// must carry plan text that differs from the rejected one.
func (s *Service) SubmitProposal(ctx context.Context, actor Actor, orderID int64, input ProposalInput) (OrderDetail, error) {
	plan := strings.TrimSpace(input.Plan)
	if plan == "" {
		return OrderDetail{}, ErrEmptyPlan
	}
	if err := s.validator.Struct(input); err != nil {
		return OrderDetail{}, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}

	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return OrderDetail{}, err
	}
	if !proposalSource(order.Status) {
		return OrderDetail{}, ErrInvalidTransition
	}
	if order.InspectorID == nil || *order.InspectorID != actor.ID {
		return OrderDetail{}, ErrNotOwningInspector
	}
	if order.Status == StatusReproposalRequested && plan == strings.TrimSpace(order.RepairPlan) {
		return OrderDetail{}, ErrPlanUnchanged
	}

	mats, err := s.resolveMaterialLines(ctx, orderID, input.Materials)
	if err != nil {
		return OrderDetail{}, err
	}
	labor, err := s.resolveLaborLines(ctx, orderID, input.Labor)
	if err != nil {
		return OrderDetail{}, err
	}
	snap := ComputeCosts(mats, labor)

	if err := s.repo.SubmitProposal(ctx, orderID, order.Status, plan, mats, labor, snap); err != nil {
		return OrderDetail{}, err
	}
	s.summaries.Invalidate(ctx, orderID)
	s.recordAudit(ctx, actor, "repair.propose", orderID, map[string]any{
		"materials_cost": snap.Materials,
		"labor_cost":     snap.Labor,
		"total_cost":     snap.Total,
	})
	return s.GetOrder(ctx, actor, orderID)
}

// Decide records the owning customer's verdict on a submitted proposal.
func (s *Service) Decide(ctx context.Context, actor Actor, orderID int64, input DecisionInput) (RepairOrder, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return RepairOrder{}, err
	}
	if order.CustomerID != actor.ID {
		return RepairOrder{}, ErrNotOrderOwner
	}

	if input.Accept {
		if err := s.repo.SetStatus(ctx, orderID, StatusProposalSubmitted, StatusAcceptedPendingSchedule); err != nil {
			return RepairOrder{}, err
		}
		s.recordAudit(ctx, actor, "repair.accept", orderID, nil)
		return s.repo.Get(ctx, orderID)
	}

	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return RepairOrder{}, ErrEmptyReason
	}
	adj := AdjustmentRequest{Text: reason, AuthorID: actor.ID, AuthorName: actor.Name, At: time.Now()}
	if err := s.repo.RequestReproposal(ctx, orderID, adj); err != nil {
		return RepairOrder{}, err
	}
	s.recordAudit(ctx, actor, "repair.request_reproposal", orderID, map[string]any{"reason": reason})
	return s.repo.Get(ctx, orderID)
}

// ScheduleOrder sets the work window. Both dates are required together; one
// date alone is a validation failure and no transition happens.
func (s *Service) ScheduleOrder(ctx context.Context, actor Actor, orderID int64, input ScheduleInput) (RepairOrder, error) {
	if input.Start == nil || input.End == nil {
		return RepairOrder{}, ErrIncompleteSchedule
	}
	if input.Start.After(*input.End) {
		return RepairOrder{}, ErrScheduleOrder
	}
	if err := s.repo.Schedule(ctx, orderID, *input.Start, *input.End); err != nil {
		return RepairOrder{}, err
	}
	s.recordAudit(ctx, actor, "repair.schedule", orderID, map[string]any{
		"start": input.Start.Format(time.RFC3339),
		"end":   input.End.Format(time.RFC3339),
	})
	return s.repo.Get(ctx, orderID)
}

// CompleteOrder marks scheduled work as done.
func (s *Service) CompleteOrder(ctx context.Context, actor Actor, orderID int64) (RepairOrder, error) {
	if err := s.repo.Complete(ctx, orderID, time.Now()); err != nil {
		return RepairOrder{}, err
	}
	s.recordAudit(ctx, actor, "repair.complete", orderID, nil)
	return s.repo.Get(ctx, orderID)
}

// CancelOrder deletes the order and its lines. Only the owning customer may
// cancel, and only before the proposal has been accepted.
func (s *Service) CancelOrder(ctx context.Context, actor Actor, orderID int64) error {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if order.CustomerID != actor.ID {
		return ErrNotOrderOwner
	}
	if !Cancellable(order.Status) {
		return ErrInvalidTransition
	}
	if err := s.repo.CancelDelete(ctx, orderID); err != nil {
		return err
	}
	s.summaries.Invalidate(ctx, orderID)
	s.recordAudit(ctx, actor, "repair.cancel", orderID, map[string]any{"doc_number": order.DocNumber})
	return nil
}

func (s *Service) resolveMaterialLines(ctx context.Context, orderID int64, inputs []MaterialLineInput) ([]MaterialLine, error) {
	lines := make([]MaterialLine, 0, len(inputs))
	for _, in := range inputs {
		entry, err := s.catalog.Get(ctx, in.MaterialID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, MaterialLine{
			RepairOrderID: orderID,
			MaterialID:    entry.ID,
			MaterialName:  entry.Name,
			Unit:          entry.Unit,
			UnitPrice:     entry.UnitPrice,
			Quantity:      in.Quantity,
		})
	}
	return lines, nil
}

func (s *Service) resolveLaborLines(ctx context.Context, orderID int64, inputs []LaborLineInput) ([]LaborLine, error) {
	lines := make([]LaborLine, 0, len(inputs))
	for _, in := range inputs {
		emp, err := s.directory.Get(ctx, in.EmployeeID)
		if err != nil {
			return nil, err
		}
		rate := emp.DailyRate
		if rate <= 0 {
			rate = s.dailyRate
		}
		lines = append(lines, LaborLine{
			RepairOrderID: orderID,
			EmployeeID:    emp.ID,
			Description:   strings.TrimSpace(in.Description),
			Days:          in.Days,
			DailyRate:     rate,
		})
	}
	return lines, nil
}

func (s *Service) recordAudit(ctx context.Context, actor Actor, action string, orderID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	log := shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "repair_order",
		EntityID: strconv.FormatInt(orderID, 10),
		Meta:     meta,
	}
	if err := s.audit.Record(ctx, log); err != nil {
		s.logger.Error("audit record", slog.Any("error", err), slog.String("action", action))
	}
}

func newDocNumber() string {
	return "RO-" + strings.ToUpper(uuid.NewString()[:8])
}
