package billing

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/drydock-works/drydock/internal/platform/httpx"
	"github.com/drydock-works/drydock/internal/rbac"
	"github.com/drydock-works/drydock/internal/shared"
)

// Handler serves the ledger endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	idempotency *shared.IdempotencyStore
	rbac        rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, idempotency *shared.IdempotencyStore, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, idempotency: idempotency, rbac: rbacMW}
}

// MountRoutes registers the ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermBillingView))
		r.Get("/", h.list)
		r.Get("/aging", h.aging)
		r.Get("/{id}", h.show)
	})
	r.With(h.rbac.RequireAll(shared.PermBillingInvoice)).Post("/", h.create)
	r.With(h.rbac.RequireAll(shared.PermBillingPay)).Post("/{id}/payments", h.recordPayment)
}

func actorID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(sess.User(), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ListFilters{}
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	if filters.Page < 1 {
		filters.Page = 1
	}
	filters.Limit, _ = strconv.Atoi(q.Get("limit"))
	if filters.Limit < 1 || filters.Limit > 100 {
		filters.Limit = 20
	}
	if raw := strings.ToUpper(strings.TrimSpace(q.Get("payment_status"))); raw != "" {
		filters.PaymentStatus = PaymentStatus(raw)
	}
	filters.OrderID, _ = strconv.ParseInt(q.Get("repair_order_id"), 10, 64)

	invoices, total, err := h.service.ListInvoices(r.Context(), filters)
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if invoices == nil {
		invoices = []Invoice{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"invoices":   invoices,
		"pagination": shared.NewPagination(filters.Page, filters.Limit, total),
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid invoice id")
		return
	}
	detail, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) aging(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Aging(r.Context())
	if err != nil {
		h.logger.Error("aging report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

type createInvoiceRequest struct {
	RepairOrderID int64 `json:"repair_order_id"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "session required")
		return
	}
	var req createInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.RepairOrderID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "repair_order_id is required")
		return
	}
	inv, err := h.service.CreateInvoice(r.Context(), actor, req.RepairOrderID)
	if err != nil {
		h.logger.Error("create invoice", slog.Any("error", err), slog.Int64("order_id", req.RepairOrderID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

type recordPaymentRequest struct {
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
	Note   string  `json:"note"`
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "session required")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid invoice id")
		return
	}
	var req recordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}

	key := r.Header.Get("Idempotency-Key")
	if key != "" {
		if err := h.idempotency.CheckAndInsert(r.Context(), key, "billing.payment"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.Problem(w, http.StatusConflict, "Conflict", "payment already processed")
				return
			}
			h.logger.Error("idempotency check", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
	}

	method := PaymentMethod(strings.ToUpper(strings.TrimSpace(req.Method)))
	inv, pay, err := h.service.RecordPayment(r.Context(), actor, id, req.Amount, method, req.Note)
	if err != nil {
		if key != "" {
			_ = h.idempotency.Delete(r.Context(), key)
		}
		h.logger.Error("record payment", slog.Any("error", err), slog.Int64("invoice_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"invoice": inv,
		"payment": pay,
	})
}
