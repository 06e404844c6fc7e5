package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/drydock-works/drydock/internal/auth"
	"github.com/drydock-works/drydock/internal/billing"
	"github.com/drydock-works/drydock/internal/masterdata/employees"
	"github.com/drydock-works/drydock/internal/masterdata/materials"
	"github.com/drydock-works/drydock/internal/masterdata/ships"
	"github.com/drydock-works/drydock/internal/masterdata/workshops"
	"github.com/drydock-works/drydock/internal/observability"
	"github.com/drydock-works/drydock/internal/rbac"
	"github.com/drydock-works/drydock/internal/repair"
	"github.com/drydock-works/drydock/internal/shared"
	"github.com/drydock-works/drydock/internal/users"
)

// RouterConfig carries everything the router needs.
type RouterConfig struct {
	Logger  *slog.Logger
	Config  *Config
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Metrics *observability.Metrics
}

// NewRouter wires every handler into the chi router.
func NewRouter(cfg RouterConfig) http.Handler {
	sessions := shared.NewSessionManager(cfg.Redis, "drydock_session", cfg.Config.SessionSecret, cfg.Config.SessionTTL, cfg.Config.IsProduction())
	csrf := shared.NewCSRFManager(cfg.Config.CSRFSecret)
	audit := shared.NewAuditLogger(cfg.Pool)
	idempotency := shared.NewIdempotencyStore(cfg.Pool)

	tokens := auth.NewTokenIssuer(cfg.Config.AdminTokenSecret, cfg.Config.AdminTokenTTL)
	authService := auth.NewService(auth.NewRepository(cfg.Pool))
	authHandler := auth.NewHandler(cfg.Logger, authService, sessions, csrf, tokens)

	rbacService := rbac.NewService(cfg.Pool)
	rbacMW := rbac.Middleware{Service: rbacService, Logger: cfg.Logger}

	userService := users.NewService(users.NewRepository(cfg.Pool), sessions)
	userHandler := users.NewHandler(cfg.Logger, userService, tokens, rbacMW)

	materialService := materials.NewService(materials.NewRepository(cfg.Pool))
	materialHandler := materials.NewHandler(cfg.Logger, materialService, rbacMW)
	shipService := ships.NewService(ships.NewRepository(cfg.Pool))
	shipHandler := ships.NewHandler(cfg.Logger, shipService, rbacMW)
	workshopService := workshops.NewService(workshops.NewRepository(cfg.Pool))
	workshopHandler := workshops.NewHandler(cfg.Logger, workshopService, rbacMW)
	employeeService := employees.NewService(employees.NewRepository(cfg.Pool))
	employeeHandler := employees.NewHandler(cfg.Logger, employeeService, rbacMW)

	repairRepo := repair.NewRepository(cfg.Pool)
	summarizer := repair.NewSummarizer(cfg.Logger, repairRepo, cfg.Redis, 0)
	repairService := repair.NewService(cfg.Logger, repairRepo, materialService, employeeService, shipService, audit, summarizer, cfg.Config.LaborDailyRate)
	repairHandler := repair.NewHandler(cfg.Logger, repairService, summarizer, userService, idempotency, rbacMW)

	billingService := billing.NewService(cfg.Logger, billing.NewRepository(cfg.Pool), audit)
	billingHandler := billing.NewHandler(cfg.Logger, billingService, idempotency, rbacMW)

	r := chi.NewRouter()
	r.Use(MiddlewareStack(MiddlewareConfig{
		Logger:         cfg.Logger,
		Config:         cfg.Config,
		SessionManager: sessions,
		CSRFManager:    csrf,
		Metrics:        cfg.Metrics,
	})...)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", authHandler.MountRoutes)
		r.Route("/users", userHandler.MountRoutes)
		r.Route("/materials", materialHandler.MountRoutes)
		r.Route("/ships", shipHandler.MountRoutes)
		r.Route("/workshops", workshopHandler.MountRoutes)
		r.Route("/employees", employeeHandler.MountRoutes)
		r.Route("/repair-orders", repairHandler.MountRoutes)
		r.Route("/invoices", billingHandler.MountRoutes)
	})

	r.Route("/admin", userHandler.MountAdminRoutes)

	return r
}
