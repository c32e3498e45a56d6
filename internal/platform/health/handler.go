// Package health serves the probe endpoints used by the orchestrator.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"stewardship/pkg/platform/httputil"
)

// Version is overridden with -ldflags at release time.
var Version = "dev"

const defaultCheckTimeout = 2 * time.Second

type CheckFunc func(ctx context.Context) error

type Handler struct {
	started     time.Time
	environment string
	timeout     time.Duration

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

func New(environment string) *Handler {
	return &Handler{
		started:     time.Now(),
		environment: environment,
		timeout:     defaultCheckTimeout,
		checks:      map[string]CheckFunc{},
	}
}

// RegisterCheck makes readiness depend on check. Registering a name twice
// replaces the earlier check.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.mu.Lock()
	h.checks[name] = check
	h.mu.Unlock()
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleStatus)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

type LivenessResponse struct {
	Status string `json:"status"`
}

type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type StatusResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Environment   string `json:"environment"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Timestamp     string `json:"timestamp"`
}

func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, LivenessResponse{Status: "alive"})
}

// HandleReadiness runs all checks in parallel under one shared timeout.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	results := h.runChecks(r.Context())

	resp := ReadinessResponse{Status: "ready", Checks: make(map[string]string, len(results))}
	status := http.StatusOK
	for name, err := range results {
		if err != nil {
			resp.Checks[name] = "down: " + err.Error()
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "up"
	}
	httputil.WriteJSON(w, status, resp)
}

func (h *Handler) runChecks(ctx context.Context) map[string]error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	h.mu.RLock()
	defer h.mu.RUnlock()

	var (
		g       errgroup.Group
		mu      sync.Mutex
		results = make(map[string]error, len(h.checks))
	)
	for name, check := range h.checks {
		g.Go(func() error {
			err := check(ctx)
			mu.Lock()
			results[name] = err
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	now := time.Now()
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Status:        "healthy",
		Version:       Version,
		Environment:   h.environment,
		UptimeSeconds: int64(now.Sub(h.started).Seconds()),
		Timestamp:     now.UTC().Format(time.RFC3339),
	})
}
