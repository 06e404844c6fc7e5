package billing

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

	"github.com/drydock-works/drydock/internal/platform/httpx"
	"github.com/drydock-works/drydock/internal/repair"
)

type fakeOrder struct {
	status repair.Status
	total  float64
}

type fakeRepo struct {
	orders   map[int64]*fakeOrder
	invoices map[int64]Invoice
	payments map[int64][]Payment
	nextID   int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders:   map[int64]*fakeOrder{},
		invoices: map[int64]Invoice{},
		payments: map[int64][]Payment{},
		nextID:   1,
	}
}

func (f *fakeRepo) CreateInvoice(_ context.Context, orderID int64, number string, createdBy int64) (Invoice, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return Invoice{}, fmt.Errorf("%w: repair order %d", httpx.ErrNotFound, orderID)
	}
	if order.status != repair.StatusCompleted {
		return Invoice{}, ErrOrderNotCompleted
	}
	for _, inv := range f.invoices {
		if inv.RepairOrderID == orderID {
			return Invoice{}, ErrDuplicateInvoice
		}
	}
	inv := Invoice{
		ID:              f.nextID,
		Number:          number,
		RepairOrderID:   orderID,
		TotalAmount:     order.total,
		RemainingAmount: order.total,
		PaymentStatus:   PaymentStatusUnpaid,
		CreatedBy:       createdBy,
		CreatedAt:       time.Now(),
	}
	f.nextID++
	f.invoices[inv.ID] = inv
	order.status = repair.StatusInvoiced
	return inv, nil
}

func (f *fakeRepo) GetInvoice(_ context.Context, id int64) (Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return Invoice{}, fmt.Errorf("%w: invoice %d", httpx.ErrNotFound, id)
	}
	return inv, nil
}

func (f *fakeRepo) InvoiceByOrder(_ context.Context, orderID int64) (Invoice, error) {
	for _, inv := range f.invoices {
		if inv.RepairOrderID == orderID {
			return inv, nil
		}
	}
	return Invoice{}, fmt.Errorf("%w: no invoice for order %d", httpx.ErrNotFound, orderID)
}

func (f *fakeRepo) ListInvoices(_ context.Context, _ ListFilters) ([]Invoice, int, error) {
	var out []Invoice
	for _, inv := range f.invoices {
		out = append(out, inv)
	}
	return out, len(out), nil
}

func (f *fakeRepo) InvoiceLines(_ context.Context, _ int64) ([]InvoiceMaterialLine, []InvoiceLaborLine, error) {
	return nil, nil, nil
}

func (f *fakeRepo) ListPayments(_ context.Context, invoiceID int64) ([]Payment, error) {
	return f.payments[invoiceID], nil
}

func (f *fakeRepo) RecordPayment(_ context.Context, invoiceID int64, amount float64, method PaymentMethod, note string, recordedBy int64) (Invoice, Payment, error) {
	inv, ok := f.invoices[invoiceID]
	if !ok {
		return Invoice{}, Payment{}, fmt.Errorf("%w: invoice %d", httpx.ErrNotFound, invoiceID)
	}
	if err := inv.ApplyPayment(amount); err != nil {
		return Invoice{}, Payment{}, err
	}
	pay := Payment{
		ID:         int64(len(f.payments[invoiceID]) + 1),
		InvoiceID:  invoiceID,
		Amount:     amount,
		Method:     method,
		Note:       note,
		PaidAt:     time.Now(),
		RecordedBy: recordedBy,
	}
	f.invoices[invoiceID] = inv
	f.payments[invoiceID] = append(f.payments[invoiceID], pay)
	return inv, pay, nil
}

func (f *fakeRepo) OutstandingInvoices(_ context.Context) ([]OutstandingInvoice, error) {
	var out []OutstandingInvoice
	for _, inv := range f.invoices {
		if inv.PaymentStatus != PaymentStatusPaid {
			out = append(out, OutstandingInvoice{Invoice: inv})
		}
	}
	return out, nil
}

func (f *fakeRepo) OverdueInvoices(_ context.Context, cutoff time.Time) ([]OverdueInvoice, error) {
	var out []OverdueInvoice
	for _, inv := range f.invoices {
		if inv.PaymentStatus != PaymentStatusPaid && inv.CreatedAt.Before(cutoff) {
			out = append(out, OverdueInvoice{Invoice: inv})
		}
	}
	return out, nil
}

func newTestService(repo *fakeRepo) *Service {
	return NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, nil)
}

const accountant = int64(40)

func TestInvoiceRequiresCompletedOrder(t *testing.T) {
	repo := newFakeRepo()
	repo.orders[1] = &fakeOrder{status: repair.StatusScheduled, total: 950000}
	svc := newTestService(repo)

	_, err := svc.CreateInvoice(context.Background(), accountant, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrConflict))
}

func TestInvoiceIsUniquePerOrder(t *testing.T) {
	repo := newFakeRepo()
	repo.orders[1] = &fakeOrder{status: repair.StatusCompleted, total: 950000}
	svc := newTestService(repo)

	inv, err := svc.CreateInvoice(context.Background(), accountant, 1)
	require.NoError(t, err)
	assert.Equal(t, 950000.0, inv.TotalAmount)
	assert.Equal(t, 950000.0, inv.RemainingAmount)
	assert.Equal(t, PaymentStatusUnpaid, inv.PaymentStatus)
	assert.Equal(t, repair.StatusInvoiced, repo.orders[1].status)

	_, err = svc.CreateInvoice(context.Background(), accountant, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrConflict))
	assert.Len(t, repo.invoices, 1)
}

func TestPaymentLedgerWorkedExample(t *testing.T) {
	repo := newFakeRepo()
	repo.orders[1] = &fakeOrder{status: repair.StatusCompleted, total: 950000}
	svc := newTestService(repo)

	inv, err := svc.CreateInvoice(context.Background(), accountant, 1)
	require.NoError(t, err)

	after, pay, err := svc.RecordPayment(context.Background(), accountant, inv.ID, 400000, MethodCash, "")
	require.NoError(t, err)
	assert.Equal(t, 550000.0, after.RemainingAmount)
	assert.Equal(t, PaymentStatusPartiallyPaid, after.PaymentStatus)
	assert.Equal(t, 400000.0, pay.Amount)

	after, _, err = svc.RecordPayment(context.Background(), accountant, inv.ID, 550000, MethodBankTransfer, "final")
	require.NoError(t, err)
	assert.Zero(t, after.RemainingAmount)
	assert.Equal(t, PaymentStatusPaid, after.PaymentStatus)

	// Any further positive payment is an overpayment.
	_, _, err = svc.RecordPayment(context.Background(), accountant, inv.ID, 1, MethodCash, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	// Ledger invariant: total minus remaining equals the payment sum, and a
	// rejected payment left no entry behind.
	final, err := repo.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	var paid float64
	for _, p := range repo.payments[inv.ID] {
		paid += p.Amount
	}
	assert.Equal(t, final.TotalAmount-final.RemainingAmount, paid)
	assert.Len(t, repo.payments[inv.ID], 2)
}

func TestRecordPaymentValidation(t *testing.T) {
	repo := newFakeRepo()
	repo.orders[1] = &fakeOrder{status: repair.StatusCompleted, total: 100000}
	svc := newTestService(repo)
	inv, err := svc.CreateInvoice(context.Background(), accountant, 1)
	require.NoError(t, err)

	_, _, err = svc.RecordPayment(context.Background(), accountant, inv.ID, 50000, "CHECK", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	_, _, err = svc.RecordPayment(context.Background(), accountant, inv.ID, 0, MethodCash, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	_, _, err = svc.RecordPayment(context.Background(), accountant, inv.ID, -5, MethodCash, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	// Overpayment on the first payment mutates nothing.
	_, _, err = svc.RecordPayment(context.Background(), accountant, inv.ID, 100001, MethodCash, "")
	require.Error(t, err)
	current, err := repo.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 100000.0, current.RemainingAmount)
	assert.Equal(t, PaymentStatusUnpaid, current.PaymentStatus)
	assert.Empty(t, repo.payments[inv.ID])
}

func TestApplyPaymentInvariants(t *testing.T) {
	inv := Invoice{TotalAmount: 1000, RemainingAmount: 1000, PaymentStatus: PaymentStatusUnpaid}

	require.NoError(t, inv.ApplyPayment(400))
	assert.Equal(t, 600.0, inv.RemainingAmount)
	assert.Equal(t, PaymentStatusPartiallyPaid, inv.PaymentStatus)

	require.NoError(t, inv.ApplyPayment(600))
	assert.Zero(t, inv.RemainingAmount)
	assert.Equal(t, PaymentStatusPaid, inv.PaymentStatus)

	err := inv.ApplyPayment(1)
	assert.True(t, errors.Is(err, ErrOverpayment))
	assert.Zero(t, inv.RemainingAmount)
}

func TestAgingBuckets(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	now := time.Now()
	repo.invoices[1] = Invoice{ID: 1, TotalAmount: 100, RemainingAmount: 100, PaymentStatus: PaymentStatusUnpaid, CreatedAt: now.Add(-2 * 24 * time.Hour)}
	repo.invoices[2] = Invoice{ID: 2, TotalAmount: 200, RemainingAmount: 150, PaymentStatus: PaymentStatusPartiallyPaid, CreatedAt: now.Add(-45 * 24 * time.Hour)}
	repo.invoices[3] = Invoice{ID: 3, TotalAmount: 300, RemainingAmount: 0, PaymentStatus: PaymentStatusPaid, CreatedAt: now.Add(-100 * 24 * time.Hour)}
	repo.invoices[4] = Invoice{ID: 4, TotalAmount: 400, RemainingAmount: 400, PaymentStatus: PaymentStatusUnpaid, CreatedAt: now.Add(-120 * 24 * time.Hour)}

	report, err := svc.Aging(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 650.0, report.Total)

	byLabel := map[string]AgingBucket{}
	for _, b := range report.Buckets {
		byLabel[b.Label] = b
	}
	assert.Equal(t, 100.0, byLabel["current"].Balance)
	assert.Equal(t, 150.0, byLabel["31-60"].Balance)
	assert.Equal(t, 400.0, byLabel["90+"].Balance)
	assert.Zero(t, byLabel["1-30"].Count)
}
