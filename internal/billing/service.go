package billing

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/drydock-works/drydock/internal/shared"
)

// Service drives the ledger operations.
type Service struct {
	logger *slog.Logger
	repo   Repository
	audit  *shared.AuditLogger
}

// NewService constructs the billing service.
func NewService(logger *slog.Logger, repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{logger: logger, repo: repo, audit: audit}
}

// CreateInvoice freezes a completed order's costs into a new invoice and
// flips the order to INVOICED. Exactly one invoice may exist per order.
func (s *Service) CreateInvoice(ctx context.Context, actorID, orderID int64) (Invoice, error) {
	inv, err := s.repo.CreateInvoice(ctx, orderID, newInvoiceNumber(), actorID)
	if err != nil {
		return Invoice{}, err
	}
	s.recordAudit(ctx, actorID, "billing.invoice", inv.ID, map[string]any{
		"repair_order_id": orderID,
		"total_amount":    inv.TotalAmount,
	})
	return inv, nil
}

// GetInvoice returns the invoice with its frozen lines and payment history.
func (s *Service) GetInvoice(ctx context.Context, invoiceID int64) (InvoiceDetail, error) {
	inv, err := s.repo.GetInvoice(ctx, invoiceID)
	if err != nil {
		return InvoiceDetail{}, err
	}
	materials, labor, err := s.repo.InvoiceLines(ctx, invoiceID)
	if err != nil {
		return InvoiceDetail{}, err
	}
	payments, err := s.repo.ListPayments(ctx, invoiceID)
	if err != nil {
		return InvoiceDetail{}, err
	}
	return InvoiceDetail{Invoice: inv, Materials: materials, Labor: labor, Payments: payments}, nil
}

// InvoiceForOrder resolves the invoice raised for a repair order.
func (s *Service) InvoiceForOrder(ctx context.Context, orderID int64) (Invoice, error) {
	return s.repo.InvoiceByOrder(ctx, orderID)
}

// ListInvoices returns invoices matching the filters.
func (s *Service) ListInvoices(ctx context.Context, filters ListFilters) ([]Invoice, int, error) {
	return s.repo.ListInvoices(ctx, filters)
}

// RecordPayment appends a ledger entry. Validation beyond the method check
// happens inside the locked transaction so a concurrent payment cannot push
// the balance negative.
func (s *Service) RecordPayment(ctx context.Context, actorID, invoiceID int64, amount float64, method PaymentMethod, note string) (Invoice, Payment, error) {
	if !ValidMethod(method) {
		return Invoice{}, Payment{}, ErrInvalidMethod
	}
	inv, pay, err := s.repo.RecordPayment(ctx, invoiceID, amount, method, strings.TrimSpace(note), actorID)
	if err != nil {
		return Invoice{}, Payment{}, err
	}
	s.recordAudit(ctx, actorID, "billing.pay", invoiceID, map[string]any{
		"amount":    amount,
		"method":    string(method),
		"remaining": inv.RemainingAmount,
	})
	return inv, pay, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, invoiceID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	log := shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "invoice",
		EntityID: strconv.FormatInt(invoiceID, 10),
		Meta:     meta,
		At:       time.Now(),
	}
	if err := s.audit.Record(ctx, log); err != nil {
		s.logger.Error("audit record", slog.Any("error", err), slog.String("action", action))
	}
}

func newInvoiceNumber() string {
	return "INV-" + strings.ToUpper(uuid.NewString()[:8])
}
