package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/pawhaven-backend/api/controllers"
	"github.com/angelmondragon/pawhaven-backend/api/middleware"
	"github.com/angelmondragon/pawhaven-backend/internal/adoptions"
	"github.com/angelmondragon/pawhaven-backend/internal/donations"
	"github.com/angelmondragon/pawhaven-backend/internal/lostreports"
	"github.com/angelmondragon/pawhaven-backend/internal/pets"
	"github.com/angelmondragon/pawhaven-backend/internal/verification"
	"github.com/angelmondragon/pawhaven-backend/internal/views"
	"github.com/angelmondragon/pawhaven-backend/pkg/config"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
	"github.com/angelmondragon/pawhaven-backend/pkg/redis"
)

// ViewStats serves the per-day view counts.
type ViewStats interface {
	Daily(ctx context.Context, objectType enums.ViewObjectType, objectID uuid.UUID, days int) ([]views.DailyCount, error)
}

type rateLimitStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// Services are the domain services exposed over HTTP.
type Services struct {
	Pets         pets.Service
	Adoptions    adoptions.Service
	Donations    donations.Service
	LostReports  lostreports.Service
	Verification verification.Service
	Views        ViewStats
}

// Dependencies are the infrastructure handles the router needs. GCS and
// Metrics may be nil.
type Dependencies struct {
	Config  *config.Config
	DB      controllers.Pinger
	Redis   *redis.Client
	GCS     controllers.Pinger
	Metrics http.Handler
}

func NewRouter(deps Dependencies, svcs Services, logg *logger.Logger) http.Handler {
	cfg := deps.Config
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.ClientIP(cfg.App.ProxyHops),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins()...),
	)

	var (
		idempotencyStore redis.IdempotencyStore
		limitStore       rateLimitStore
	)
	if deps.Redis != nil {
		idempotencyStore = deps.Redis
		limitStore = deps.Redis
	}

	readiness := map[string]controllers.Pinger{"db": deps.DB, "gcs": deps.GCS}
	if deps.Redis != nil {
		readiness["redis"] = deps.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	table := commandTable(svcs, newLimiters(cfg.RateLimit, limitStore, logg), logg)

	r.Route(scopePrefixes[scopePublic], func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))
		r.Get("/ping", controllers.Ping("public"))
		mount(r, table, scopePublic)
	})

	r.Route(scopePrefixes[scopeUser], func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))
		r.Get("/ping", controllers.Ping("user"))
		mount(r, table, scopeUser)
	})

	r.Route(scopePrefixes[scopeStaff], func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireStaff(logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))
		r.Get("/ping", controllers.Ping("admin"))
		mount(r, table, scopeStaff)
	})

	return r
}

func mount(r chi.Router, table []command, s scope) {
	for _, cmd := range table {
		if cmd.scope != s {
			continue
		}
		r.With(cmd.use...).Method(cmd.method, cmd.path, cmd.handler)
	}
}
