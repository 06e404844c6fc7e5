package repair

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/drydock-works/drydock/internal/platform/httpx"
	"github.com/drydock-works/drydock/internal/rbac"
	"github.com/drydock-works/drydock/internal/shared"
	"github.com/drydock-works/drydock/internal/users"
)

// UserDirectory resolves actor display names for audit and claim records.
type UserDirectory interface {
	GetUser(ctx context.Context, id int64) (*users.User, error)
}

// Handler serves the repair order workflow endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	summaries   *Summarizer
	directory   UserDirectory
	idempotency *shared.IdempotencyStore
	rbac        rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, summaries *Summarizer, directory UserDirectory, idempotency *shared.IdempotencyStore, rbacMW rbac.Middleware) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		summaries:   summaries,
		directory:   directory,
		idempotency: idempotency,
		rbac:        rbacMW,
	}
}

// MountRoutes registers the workflow routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(shared.PermRepairView)).Get("/", h.list)
	r.With(h.rbac.RequireAny(shared.PermRepairView)).Get("/{id}", h.show)
	r.With(h.rbac.RequireAny(shared.PermRepairView)).Get("/{id}/cost-summary", h.costSummary)

	r.With(h.rbac.RequireAll(shared.PermRepairCreate)).Post("/", h.create)
	r.With(h.rbac.RequireAll(shared.PermRepairClaim)).Post("/{id}/claim", h.claim)
	r.With(h.rbac.RequireAll(shared.PermRepairPropose)).Post("/{id}/proposal", h.propose)
	r.With(h.rbac.RequireAll(shared.PermRepairDecide)).Post("/{id}/decision", h.decide)
	r.With(h.rbac.RequireAll(shared.PermRepairSchedule)).Post("/{id}/schedule", h.schedule)
	r.With(h.rbac.RequireAll(shared.PermRepairComplete)).Post("/{id}/complete", h.complete)
	r.With(h.rbac.RequireAll(shared.PermRepairCancel)).Post("/{id}/cancel", h.cancel)
}

func (h *Handler) actor(r *http.Request) (Actor, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return Actor{}, false
	}
	id, err := strconv.ParseInt(sess.User(), 10, 64)
	if err != nil || id == 0 {
		return Actor{}, false
	}
	actor := Actor{ID: id, Role: sess.Role()}
	if user, err := h.directory.GetUser(r.Context(), id); err == nil {
		actor.Name = user.FullName
	}
	return actor, true
}

func orderID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(r)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "session required")
		return
	}

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
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := ParseStatus(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		filters.Status = status
	}
	filters.WorkshopID, _ = strconv.ParseInt(q.Get("workshop_id"), 10, 64)
	filters.InspectorID, _ = strconv.ParseInt(q.Get("inspector_id"), 10, 64)

	orders, total, err := h.service.ListOrders(r.Context(), actor, filters)
	if err != nil {
		h.logger.Error("list repair orders", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if orders == nil {
		orders = []RepairOrder{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"orders":     orders,
		"pagination": shared.NewPagination(filters.Page, filters.Limit, total),
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(r)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "session required")
		return
	}
	id, ok := orderID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	detail, err := h.service.GetOrder(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) costSummary(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(r)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "session required")
		return
	}
	id, ok := orderID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	// Visibility check runs through the same scoping as the detail view.
	if _, err := h.service.GetOrder(r.Context(), actor, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	summary, err := h.summaries.Summary(r.Context(), id)
	if err != nil {
		h.logger.Error("cost summary", slog.Any("error", err), slog.Int64("order_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(r)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "session required")
		return
	}
	var input CreateOrderInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}

	if key := r.Header.Get("Idempotency-Key"); key != "" {
		if err := h.idempotency.CheckAndInsert(r.Context(), key, "repair.create"); err != nil {
			if err == shared.ErrIdempotencyConflict {
				httpx.Problem(w, http.StatusConflict, "Conflict", "request already processed")
				return
			}
			h.logger.Error("idempotency check", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
	}

	order, err := h.service.CreateOrder(r.Context(), actor, input)
	if err != nil {
		if key := r.Header.Get("Idempotency-Key"); key != "" {
			_ = h.idempotency.Delete(r.Context(), key)
		}
		h.logger.Error("create repair order", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) claim(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "claim order", func(ctx context.Context, actor Actor, id int64) (any, error) {
		return h.service.ClaimOrder(ctx, actor, id)
	})
}

func (h *Handler) propose(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(r)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "session required")
		return
	}
	id, ok := orderID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	var input ProposalInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	detail, err := h.service.SubmitProposal(r.Context(), actor, id, input)
	if err != nil {
		h.logger.Error("submit proposal", slog.Any("error", err), slog.Int64("order_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(r)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "session required")
		return
	}
	id, ok := orderID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	var input DecisionInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	order, err := h.service.Decide(r.Context(), actor, id, input)
	if err != nil {
		h.logger.Error("decide proposal", slog.Any("error", err), slog.Int64("order_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(r)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "session required")
		return
	}
	id, ok := orderID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	var input ScheduleInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	order, err := h.service.ScheduleOrder(r.Context(), actor, id, input)
	if err != nil {
		h.logger.Error("schedule order", slog.Any("error", err), slog.Int64("order_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "complete order", func(ctx context.Context, actor Actor, id int64) (any, error) {
		return h.service.CompleteOrder(ctx, actor, id)
	})
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(r)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "session required")
		return
	}
	id, ok := orderID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	if err := h.service.CancelOrder(r.Context(), actor, id); err != nil {
		h.logger.Error("cancel order", slog.Any("error", err), slog.Int64("order_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, action string, fn func(context.Context, Actor, int64) (any, error)) {
	actor, ok := h.actor(r)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "session required")
		return
	}
	id, ok := orderID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	result, err := fn(r.Context(), actor, id)
	if err != nil {
		h.logger.Error(action, slog.Any("error", err), slog.Int64("order_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
