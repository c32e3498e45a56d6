package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stewardship/internal/platform/health"
	"stewardship/pkg/platform/middleware/admin"
	"stewardship/pkg/platform/middleware/auth"
	"stewardship/pkg/platform/middleware/metadata"
	"stewardship/pkg/platform/middleware/request"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxBodyBytes = 1 << 20
)

// Routes mounts a bounded context's authenticated endpoints.
type Routes interface {
	Register(r chi.Router)
}

// AdminRoutes mounts endpoints reserved for administrators.
type AdminRoutes interface {
	RegisterAdmin(r chi.Router)
}

type Config struct {
	Logger       *slog.Logger
	Tokens       auth.JWTValidator
	Admins       admin.Checker
	Metadata     *metadata.Middleware
	Metrics      *request.Metrics
	Health       *health.Handler
	Timeout      time.Duration
	MaxBodyBytes int64
}

// NewRouter wires the middleware stack and every context's routes. Health
// probes and /metrics are public; everything else requires a bearer token.
func NewRouter(cfg Config, routes []Routes, adminRoutes []AdminRoutes) http.Handler {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.Metadata == nil {
		cfg.Metadata = metadata.NewMiddleware(nil)
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.RequestID)
	r.Use(request.RequestTime)
	r.Use(cfg.Metadata.Handler)
	r.Use(request.Logger(cfg.Logger))
	r.Use(request.Latency(cfg.Metrics, routePattern))
	r.Use(request.Timeout(cfg.Timeout))

	if cfg.Health != nil {
		cfg.Health.Register(r)
	}
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(request.ContentTypeJSON)
		r.Use(request.BodyLimit(cfg.MaxBodyBytes))
		r.Use(auth.RequireAuth(cfg.Tokens, cfg.Logger))
		for _, rt := range routes {
			rt.Register(r)
		}
		r.Group(func(r chi.Router) {
			r.Use(admin.RequireAdmin(cfg.Admins, cfg.Logger))
			for _, rt := range adminRoutes {
				rt.RegisterAdmin(r)
			}
		})
	})
	return r
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
