package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	dashboardservice "stewardship/internal/dashboard/service"
	dErrors "stewardship/pkg/domain-errors"
	"stewardship/pkg/platform/httputil"
	"stewardship/pkg/requestcontext"
)

type Service interface {
	Build(ctx context.Context, rng dashboardservice.Range) (*dashboardservice.Dashboard, error)
}

type Handler struct {
	dashboard Service
	logger    *slog.Logger
}

func New(dashboard Service, logger *slog.Logger) *Handler {
	return &Handler{dashboard: dashboard, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/dashboard", h.handleGet)
}

// handleGet accepts optional from/to query parameters as RFC 3339 timestamps
// or plain dates. A plain to date includes that whole day.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	from, err := parseBound(r.URL.Query().Get("from"), false)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	to, err := parseBound(r.URL.Query().Get("to"), true)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rng, err := dashboardservice.Resolve(from, to, requestcontext.Now(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	d, err := h.dashboard.Build(ctx, rng)
	if err != nil {
		h.logger.ErrorContext(ctx, "dashboard request failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func parseBound(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid date: "+raw)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1)
	}
	return &t, nil
}
