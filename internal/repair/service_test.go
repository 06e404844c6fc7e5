package repair

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drydock-works/drydock/internal/masterdata/employees"
	"github.com/drydock-works/drydock/internal/masterdata/materials"
	"github.com/drydock-works/drydock/internal/masterdata/ships"
	"github.com/drydock-works/drydock/internal/platform/httpx"
)

type fakeRepo struct {
	orders map[int64]RepairOrder
	mats   map[int64][]MaterialLine
	labor  map[int64][]LaborLine
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders: map[int64]RepairOrder{},
		mats:   map[int64][]MaterialLine{},
		labor:  map[int64][]LaborLine{},
		nextID: 1,
	}
}

func (f *fakeRepo) List(_ context.Context, filters ListFilters) ([]RepairOrder, int, error) {
	var out []RepairOrder
	for _, o := range f.orders {
		if filters.Status != "" && o.Status != filters.Status {
			continue
		}
		if filters.CustomerID > 0 && o.CustomerID != filters.CustomerID {
			continue
		}
		out = append(out, o)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (RepairOrder, error) {
	o, ok := f.orders[id]
	if !ok {
		return RepairOrder{}, fmt.Errorf("%w: repair order %d", httpx.ErrNotFound, id)
	}
	return o, nil
}

func (f *fakeRepo) Lines(_ context.Context, orderID int64) ([]MaterialLine, []LaborLine, error) {
	return f.mats[orderID], f.labor[orderID], nil
}

func (f *fakeRepo) Create(_ context.Context, o RepairOrder) (RepairOrder, error) {
	o.ID = f.nextID
	f.nextID++
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeRepo) Claim(_ context.Context, orderID, inspectorID int64, inspectorName string) error {
	o, ok := f.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: repair order %d", httpx.ErrNotFound, orderID)
	}
	if o.InspectorID != nil || o.Status != StatusAwaitingInspection {
		return ErrAlreadyClaimed
	}
	o.InspectorID = &inspectorID
	o.InspectorName = inspectorName
	o.Status = StatusUnderInspection
	f.orders[orderID] = o
	return nil
}

func (f *fakeRepo) SubmitProposal(_ context.Context, orderID int64, from Status, plan string, mats []MaterialLine, labor []LaborLine, snap CostSnapshot) error {
	o, ok := f.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: repair order %d", httpx.ErrNotFound, orderID)
	}
	if o.Status != from {
		return ErrInvalidTransition
	}
	o.Status = StatusProposalSubmitted
	o.RepairPlan = plan
	o.MaterialsCost = &snap.Materials
	o.LaborCost = &snap.Labor
	o.TotalCost = &snap.Total
	f.orders[orderID] = o
	f.mats[orderID] = mats
	f.labor[orderID] = labor
	return nil
}

func (f *fakeRepo) SetStatus(_ context.Context, orderID int64, from, to Status) error {
	o, ok := f.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: repair order %d", httpx.ErrNotFound, orderID)
	}
	if o.Status != from {
		return ErrInvalidTransition
	}
	o.Status = to
	f.orders[orderID] = o
	return nil
}

func (f *fakeRepo) RequestReproposal(_ context.Context, orderID int64, adj AdjustmentRequest) error {
	o, ok := f.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: repair order %d", httpx.ErrNotFound, orderID)
	}
	if o.Status != StatusProposalSubmitted {
		return ErrInvalidTransition
	}
	o.Status = StatusReproposalRequested
	o.Adjustment = &adj
	f.orders[orderID] = o
	return nil
}

func (f *fakeRepo) Schedule(_ context.Context, orderID int64, start, end time.Time) error {
	o, ok := f.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: repair order %d", httpx.ErrNotFound, orderID)
	}
	if o.Status != StatusAcceptedPendingSchedule {
		return ErrInvalidTransition
	}
	o.Status = StatusScheduled
	o.ScheduledStart = &start
	o.ScheduledEnd = &end
	f.orders[orderID] = o
	return nil
}

func (f *fakeRepo) Complete(_ context.Context, orderID int64, at time.Time) error {
	o, ok := f.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: repair order %d", httpx.ErrNotFound, orderID)
	}
	if o.Status != StatusScheduled {
		return ErrInvalidTransition
	}
	o.Status = StatusCompleted
	o.CompletedAt = &at
	f.orders[orderID] = o
	return nil
}

func (f *fakeRepo) CancelDelete(_ context.Context, orderID int64) error {
	if _, ok := f.orders[orderID]; !ok {
		return fmt.Errorf("%w: repair order %d", httpx.ErrNotFound, orderID)
	}
	delete(f.orders, orderID)
	delete(f.mats, orderID)
	delete(f.labor, orderID)
	return nil
}

type fakeCatalog map[int64]materials.Material

func (c fakeCatalog) Get(_ context.Context, id int64) (materials.Material, error) {
	m, ok := c[id]
	if !ok {
		return materials.Material{}, fmt.Errorf("%w: material %d", httpx.ErrNotFound, id)
	}
	return m, nil
}

type fakeDirectory map[int64]employees.Employee

func (d fakeDirectory) Get(_ context.Context, id int64) (employees.Employee, error) {
	e, ok := d[id]
	if !ok {
		return employees.Employee{}, fmt.Errorf("%w: employee %d", httpx.ErrNotFound, id)
	}
	return e, nil
}

type fakeRegistry map[int64]ships.Ship

func (r fakeRegistry) Get(_ context.Context, id int64) (ships.Ship, error) {
	s, ok := r[id]
	if !ok {
		return ships.Ship{}, fmt.Errorf("%w: ship %d", httpx.ErrNotFound, id)
	}
	return s, nil
}

type noopSummaries struct{}

func (noopSummaries) Invalidate(context.Context, int64) {}

var (
	customer  = Actor{ID: 10, Name: "Nguyen Van A", Role: "customer"}
	inspector = Actor{ID: 20, Name: "Tran Van B", Role: "inspector"}
	rival     = Actor{ID: 21, Name: "Le Van C", Role: "inspector"}
	workshop  = Actor{ID: 30, Name: "Xưởng 1", Role: "workshop"}
)

func newTestService(repo *fakeRepo) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog := fakeCatalog{
		1: {ID: 1, Name: "Steel plate", Unit: "unit", UnitPrice: 100000},
		2: {ID: 2, Name: "Sealant", Unit: "unit", UnitPrice: 50000},
	}
	directory := fakeDirectory{
		5: {ID: 5, FullName: "Pham Van D", DailyRate: 0},
		6: {ID: 6, FullName: "Hoang Van E", DailyRate: 400000},
	}
	registry := fakeRegistry{
		7: {ID: 7, Name: "Sao Bien", OwnerUserID: customer.ID},
	}
	return NewService(logger, repo, catalog, directory, registry, nil, noopSummaries{}, 0)
}

func createOrder(t *testing.T, svc *Service) RepairOrder {
	t.Helper()
	order, err := svc.CreateOrder(context.Background(), customer, CreateOrderInput{
		ShipID:      7,
		WorkshopID:  3,
		Description: "hull corrosion around the waterline",
	})
	require.NoError(t, err)
	require.Equal(t, StatusAwaitingInspection, order.Status)
	return order
}

func submitProposal(t *testing.T, svc *Service, orderID int64) OrderDetail {
	t.Helper()
	detail, err := svc.SubmitProposal(context.Background(), inspector, orderID, ProposalInput{
		Plan: "sand, patch and repaint the hull",
		Materials: []MaterialLineInput{
			{MaterialID: 1, Quantity: 2},
			{MaterialID: 2, Quantity: 1},
		},
		Labor: []LaborLineInput{
			{EmployeeID: 5, Description: "hull work", Days: 2},
		},
	})
	require.NoError(t, err)
	return detail
}

func TestClaimIsExclusive(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	order := createOrder(t, svc)

	claimed, err := svc.ClaimOrder(context.Background(), inspector, order.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusUnderInspection, claimed.Status)
	require.NotNil(t, claimed.InspectorID)
	assert.Equal(t, inspector.ID, *claimed.InspectorID)

	_, err = svc.ClaimOrder(context.Background(), rival, order.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrConflict))
}

func TestProposalSnapshotsCosts(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	order := createOrder(t, svc)
	_, err := svc.ClaimOrder(context.Background(), inspector, order.ID)
	require.NoError(t, err)

	detail := submitProposal(t, svc, order.ID)
	require.Equal(t, StatusProposalSubmitted, detail.Order.Status)

	// 2×100000 + 1×50000 materials, 2 days at the default 350000 rate.
	require.NotNil(t, detail.Order.TotalCost)
	assert.Equal(t, 250000.0, *detail.Order.MaterialsCost)
	assert.Equal(t, 700000.0, *detail.Order.LaborCost)
	assert.Equal(t, 950000.0, *detail.Order.TotalCost)

	require.Len(t, detail.Materials, 2)
	assert.Equal(t, 100000.0, detail.Materials[0].UnitPrice)
	require.Len(t, detail.Labor, 1)
	assert.Equal(t, 350000.0, detail.Labor[0].DailyRate)
}

func TestProposalUsesEmployeeRateWhenSet(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	order := createOrder(t, svc)
	_, err := svc.ClaimOrder(context.Background(), inspector, order.ID)
	require.NoError(t, err)

	detail, err := svc.SubmitProposal(context.Background(), inspector, order.ID, ProposalInput{
		Plan:  "engine overhaul",
		Labor: []LaborLineInput{{EmployeeID: 6, Days: 3}},
	})
	require.NoError(t, err)
	require.Len(t, detail.Labor, 1)
	assert.Equal(t, 400000.0, detail.Labor[0].DailyRate)
	assert.Equal(t, 1200000.0, *detail.Order.TotalCost)
}

func TestProposalRejectsEmptyPlan(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	order := createOrder(t, svc)
	_, err := svc.ClaimOrder(context.Background(), inspector, order.ID)
	require.NoError(t, err)

	_, err = svc.SubmitProposal(context.Background(), inspector, order.ID, ProposalInput{Plan: "   "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestProposalRejectsForeignInspector(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	order := createOrder(t, svc)
	_, err := svc.ClaimOrder(context.Background(), inspector, order.ID)
	require.NoError(t, err)

	_, err = svc.SubmitProposal(context.Background(), rival, order.ID, ProposalInput{Plan: "steal the job"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
}

func TestReproposalCycle(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	order := createOrder(t, svc)
	_, err := svc.ClaimOrder(context.Background(), inspector, order.ID)
	require.NoError(t, err)
	submitProposal(t, svc, order.ID)

	// Customer rejects; reason is mandatory.
	_, err = svc.Decide(context.Background(), customer, order.ID, DecisionInput{Accept: false, Reason: "  "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	rejected, err := svc.Decide(context.Background(), customer, order.ID, DecisionInput{
		Accept: false,
		Reason: "cần giảm chi phí vật liệu",
	})
	require.NoError(t, err)
	require.Equal(t, StatusReproposalRequested, rejected.Status)
	require.NotNil(t, rejected.Adjustment)
	assert.Equal(t, "cần giảm chi phí vật liệu", rejected.Adjustment.Text)
	assert.Equal(t, customer.ID, rejected.Adjustment.AuthorID)

	// Resubmitting the unchanged plan text must fail.
	_, err = svc.SubmitProposal(context.Background(), inspector, order.ID, ProposalInput{
		Plan: "sand, patch and repaint the hull",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	// A changed plan fully replaces the line sets.
	detail, err := svc.SubmitProposal(context.Background(), inspector, order.ID, ProposalInput{
		Plan:      "patch the hull with cheaper sealant",
		Materials: []MaterialLineInput{{MaterialID: 2, Quantity: 3}},
		Labor:     []LaborLineInput{{EmployeeID: 5, Days: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusProposalSubmitted, detail.Order.Status)
	require.Len(t, detail.Materials, 1)
	assert.Equal(t, int64(2), detail.Materials[0].MaterialID)
	require.Len(t, detail.Labor, 1)
	assert.Equal(t, 500000.0, *detail.Order.TotalCost)
}

func TestDecideRequiresOwnership(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	order := createOrder(t, svc)
	_, err := svc.ClaimOrder(context.Background(), inspector, order.ID)
	require.NoError(t, err)
	submitProposal(t, svc, order.ID)

	stranger := Actor{ID: 99, Role: "customer"}
	_, err = svc.Decide(context.Background(), stranger, order.ID, DecisionInput{Accept: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
}

func TestScheduleRequiresBothDates(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	order := createOrder(t, svc)
	_, err := svc.ClaimOrder(context.Background(), inspector, order.ID)
	require.NoError(t, err)
	submitProposal(t, svc, order.ID)
	_, err = svc.Decide(context.Background(), customer, order.ID, DecisionInput{Accept: true})
	require.NoError(t, err)

	start := time.Now().Add(24 * time.Hour)
	end := start.Add(72 * time.Hour)

	_, err = svc.ScheduleOrder(context.Background(), workshop, order.ID, ScheduleInput{Start: &start})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	// A rejected schedule must not have transitioned the order.
	current, err := repo.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAcceptedPendingSchedule, current.Status)

	_, err = svc.ScheduleOrder(context.Background(), workshop, order.ID, ScheduleInput{Start: &end, End: &start})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	scheduled, err := svc.ScheduleOrder(context.Background(), workshop, order.ID, ScheduleInput{Start: &start, End: &end})
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, scheduled.Status)
	require.NotNil(t, scheduled.ScheduledStart)
	require.NotNil(t, scheduled.ScheduledEnd)
}

func TestCompleteFollowsSchedule(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	order := createOrder(t, svc)

	// Completing before scheduling is an invalid transition.
	_, err := svc.CompleteOrder(context.Background(), workshop, order.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrConflict))

	_, err = svc.ClaimOrder(context.Background(), inspector, order.ID)
	require.NoError(t, err)
	submitProposal(t, svc, order.ID)
	_, err = svc.Decide(context.Background(), customer, order.ID, DecisionInput{Accept: true})
	require.NoError(t, err)
	start := time.Now()
	end := start.Add(48 * time.Hour)
	_, err = svc.ScheduleOrder(context.Background(), workshop, order.ID, ScheduleInput{Start: &start, End: &end})
	require.NoError(t, err)

	completed, err := svc.CompleteOrder(context.Background(), workshop, order.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
}

func TestCancelDeletesOrderAndLines(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	order := createOrder(t, svc)
	_, err := svc.ClaimOrder(context.Background(), inspector, order.ID)
	require.NoError(t, err)
	submitProposal(t, svc, order.ID)

	// Only the owner may cancel.
	err = svc.CancelOrder(context.Background(), Actor{ID: 99, Role: "customer"}, order.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))

	require.NoError(t, svc.CancelOrder(context.Background(), customer, order.ID))

	_, err = repo.Get(context.Background(), order.ID)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
	assert.Empty(t, repo.mats[order.ID])
	assert.Empty(t, repo.labor[order.ID])
}

func TestCancelRejectedAfterAcceptance(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	order := createOrder(t, svc)
	_, err := svc.ClaimOrder(context.Background(), inspector, order.ID)
	require.NoError(t, err)
	submitProposal(t, svc, order.ID)
	_, err = svc.Decide(context.Background(), customer, order.ID, DecisionInput{Accept: true})
	require.NoError(t, err)

	err = svc.CancelOrder(context.Background(), customer, order.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrConflict))
}

func TestCreateOrderRequiresOwnShip(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	_, err := svc.CreateOrder(context.Background(), Actor{ID: 42, Role: "customer"}, CreateOrderInput{
		ShipID:      7,
		WorkshopID:  3,
		Description: "rudder jammed",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
}

func TestCustomerListScopedToOwnOrders(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	createOrder(t, svc)

	other := RepairOrder{DocNumber: "RO-OTHER", ShipID: 8, CustomerID: 99, Status: StatusAwaitingInspection}
	_, err := repo.Create(context.Background(), other)
	require.NoError(t, err)

	mine, total, err := svc.ListOrders(context.Background(), customer, ListFilters{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, mine, 1)
	assert.Equal(t, customer.ID, mine[0].CustomerID)
}
