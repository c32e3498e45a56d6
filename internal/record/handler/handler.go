// Package handler exposes record creation, lookup and deletion over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"stewardship/internal/record/models"
	"stewardship/internal/record/service"
	id "stewardship/pkg/domain"
	"stewardship/pkg/platform/httputil"
	"stewardship/pkg/requestcontext"
	"stewardship/pkg/validation"
)

type Service interface {
	Create(ctx context.Context, cmd service.CreateCommand) (*models.Record, error)
	Get(ctx context.Context, recordID id.RecordID) (*models.Record, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Record, error)
	Delete(ctx context.Context, recordID id.RecordID) error
}

type Handler struct {
	records  Service
	registry *models.Registry
	logger   *slog.Logger
}

func New(records Service, registry *models.Registry, logger *slog.Logger) *Handler {
	return &Handler{records: records, registry: registry, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/models", h.handleModels)
	r.Post("/records", h.handleCreate)
	r.Get("/records", h.handleList)
	r.Get("/records/{id}", h.handleGet)
	r.Delete("/records/{id}", h.handleDelete)
}

type CreateRequest struct {
	Model string `json:"model" validate:"required"`
	Name  string `json:"name" validate:"required,notblank,max=255"`
}

func (r *CreateRequest) Normalize() {
	r.Model = strings.TrimSpace(r.Model)
	r.Name = strings.TrimSpace(r.Name)
}

func (r *CreateRequest) Validate() error {
	return validation.Validate(r)
}

type RecordResponse struct {
	*models.Record
	Capabilities []models.Capability `json:"capabilities"`
}

type ModelResponse struct {
	Model        string              `json:"model"`
	Capabilities []models.Capability `json:"capabilities"`
}

func toResponse(r *models.Record) RecordResponse {
	return RecordResponse{Record: r, Capabilities: r.Capabilities()}
}

func (h *Handler) handleModels(w http.ResponseWriter, _ *http.Request) {
	names := h.registry.Models()
	res := make([]ModelResponse, 0, len(names))
	for _, name := range names {
		caps, _ := h.registry.Capabilities(name)
		res = append(res, ModelResponse{Model: name, Capabilities: caps})
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if _, err := httputil.RequireActorID(ctx, h.logger, requestID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	record, err := h.records.Create(ctx, service.CreateCommand{Model: req.Model, Name: req.Name})
	if err != nil {
		h.logger.WarnContext(ctx, "failed to create record",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(record))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := models.Filter{Model: r.URL.Query().Get("model")}
	if raw := r.URL.Query().Get("custom_group"); raw != "" {
		groupID, err := id.ParseCustomGroupID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.CustomGroupID = &groupID
	}

	records, err := h.records.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list records",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	res := make([]RecordResponse, 0, len(records))
	for _, record := range records {
		res = append(res, toResponse(record))
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	record, err := h.records.Get(r.Context(), recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(record))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.records.Delete(ctx, recordID); err != nil {
		h.logger.WarnContext(ctx, "failed to delete record",
			"request_id", requestcontext.RequestID(ctx),
			"record_id", recordID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
