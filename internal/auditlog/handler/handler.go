// Package handler exposes the audit logs over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"stewardship/internal/auditlog/models"
	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
	"stewardship/pkg/platform/httputil"
	"stewardship/pkg/requestcontext"
	"stewardship/pkg/validation"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// Service is the audit log surface the handler needs.
type Service interface {
	List(ctx context.Context, filter models.Filter) ([]*models.Entry, error)
	Get(ctx context.Context, entryID id.EntryID) (*models.Entry, error)
	Reference(ctx context.Context, entry *models.Entry) (string, error)
	OpenRecord(ctx context.Context, entry *models.Entry) (*models.Navigation, bool)
	Purge(ctx context.Context, olderThan time.Duration, kinds ...models.Kind) (int64, error)
}

type Handler struct {
	logs   Service
	logger *slog.Logger
}

func New(logs Service, logger *slog.Logger) *Handler {
	return &Handler{logs: logs, logger: logger}
}

// Register mounts the read routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/audit", h.handleList)
	r.Get("/audit/{id}", h.handleGet)
	r.Get("/audit/{id}/open", h.handleOpen)
}

// RegisterAdmin mounts the purge route; the caller guards it with the admin
// middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/audit/purge", h.handlePurge)
}

type EntryResponse struct {
	*models.Entry
	Label     string `json:"label"`
	Reference string `json:"reference"`
}

type ListResponse struct {
	Entries []EntryResponse `json:"entries"`
	Count   int             `json:"count"`
}

type PurgeRequest struct {
	OlderThanDays int      `json:"older_than_days" validate:"required,min=1"`
	Kinds         []string `json:"kinds" validate:"omitempty,dive,oneof=ownership assignment access responsibility"`
}

func (r *PurgeRequest) Normalize() {
	for i := range r.Kinds {
		r.Kinds[i] = strings.ToLower(strings.TrimSpace(r.Kinds[i]))
	}
}

func (r *PurgeRequest) Validate() error {
	return validation.Validate(r)
}

type PurgeResponse struct {
	Deleted int64 `json:"deleted"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	filter, err := parseFilter(r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid audit log filter",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.logs.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit log",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	res := ListResponse{Entries: make([]EntryResponse, 0, len(entries))}
	for _, e := range entries {
		res.Entries = append(res.Entries, h.toResponse(ctx, e))
	}
	res.Count = len(res.Entries)
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.loadEntry(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.toResponse(r.Context(), entry))
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.loadEntry(w, r)
	if !ok {
		return
	}
	nav, found := h.logs.OpenRecord(r.Context(), entry)
	if !found {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "record can no longer be opened"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, nav)
}

func (h *Handler) handlePurge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[PurgeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	kinds := make([]models.Kind, 0, len(req.Kinds))
	for _, k := range req.Kinds {
		kinds = append(kinds, models.Kind(k))
	}

	deleted, err := h.logs.Purge(ctx, time.Duration(req.OlderThanDays)*24*time.Hour, kinds...)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to purge audit log",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PurgeResponse{Deleted: deleted})
}

func (h *Handler) loadEntry(w http.ResponseWriter, r *http.Request) (*models.Entry, bool) {
	ctx := r.Context()
	entryID, err := id.ParseEntryID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	entry, err := h.logs.Get(ctx, entryID)
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	return entry, true
}

func (h *Handler) toResponse(ctx context.Context, e *models.Entry) EntryResponse {
	ref, err := h.logs.Reference(ctx, e)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to resolve audit log reference",
			"entry_id", e.ID.String(),
			"error", err,
		)
		ref = "ID: " + e.TargetID.String()
	}
	return EntryResponse{Entry: e, Label: e.DisplayLabel(), Reference: ref}
}

func parseFilter(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	filter := models.Filter{Model: q.Get("model"), Limit: defaultListLimit}

	for _, raw := range splitList(q.Get("kind")) {
		kind, err := models.ParseKind(raw)
		if err != nil {
			return filter, err
		}
		filter.Kinds = append(filter.Kinds, kind)
	}
	for _, raw := range splitList(q.Get("action")) {
		filter.Actions = append(filter.Actions, models.Action(raw))
	}
	if raw := q.Get("record"); raw != "" {
		recordID, err := id.ParseRecordID(raw)
		if err != nil {
			return filter, err
		}
		filter.TargetID = &recordID
	}
	if raw := q.Get("actor"); raw != "" {
		actorID, err := id.ParseActorID(raw)
		if err != nil {
			return filter, err
		}
		filter.Actor = &actorID
	}
	var err error
	if filter.From, err = parseTime(q.Get("from"), "from"); err != nil {
		return filter, err
	}
	if filter.To, err = parseTime(q.Get("to"), "to"); err != nil {
		return filter, err
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxListLimit {
			return filter, dErrors.New(dErrors.CodeInvalidInput, "limit must be between 1 and 1000")
		}
		filter.Limit = limit
	}
	return filter, nil
}

func parseTime(raw, field string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		if d, dateErr := time.Parse(time.DateOnly, raw); dateErr == nil {
			return &d, nil
		}
		return nil, dErrors.New(dErrors.CodeInvalidInput, field+" must be an RFC 3339 timestamp or a date")
	}
	return &t, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
