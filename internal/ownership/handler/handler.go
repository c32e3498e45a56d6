// Package handler exposes record ownership over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"stewardship/internal/record/models"
	id "stewardship/pkg/domain"
	"stewardship/pkg/platform/httputil"
	platformstrings "stewardship/pkg/platform/strings"
	"stewardship/pkg/requestcontext"
	"stewardship/pkg/validation"
)

type Service interface {
	Transfer(ctx context.Context, recordID id.RecordID, newOwner id.ActorID, reason string) (*models.Record, error)
	Release(ctx context.Context, recordID id.RecordID, reason string) (*models.Record, error)
	Claim(ctx context.Context, recordID id.RecordID, reason string) (*models.Record, error)
	AddCoOwner(ctx context.Context, recordID id.RecordID, actor id.ActorID, reason string) (*models.Record, error)
	RemoveCoOwner(ctx context.Context, recordID id.RecordID, actor id.ActorID, reason string) (*models.Record, error)
	AddCoOwners(ctx context.Context, recordID id.RecordID, actors []id.ActorID, reason string) (*models.Record, error)
	RemoveAllCoOwners(ctx context.Context, recordID id.RecordID, reason string) (*models.Record, error)
}

// Records loads the record for the ownership read route.
type Records interface {
	Get(ctx context.Context, recordID id.RecordID) (*models.Record, error)
}

type Handler struct {
	ownership Service
	records   Records
	logger    *slog.Logger
}

func New(ownership Service, records Records, logger *slog.Logger) *Handler {
	return &Handler{ownership: ownership, records: records, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/records/{id}/ownership", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Post("/transfer", h.handleTransfer)
		r.Post("/release", h.handleRelease)
		r.Post("/claim", h.handleClaim)
		r.Post("/co-owners", h.handleAddCoOwners)
		r.Delete("/co-owners", h.handleRemoveAllCoOwners)
		r.Delete("/co-owners/{actor}", h.handleRemoveCoOwner)
	})
}

type ReasonRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

func (r *ReasonRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *ReasonRequest) Validate() error {
	return validation.Validate(r)
}

type TransferRequest struct {
	NewOwner string `json:"new_owner" validate:"required,uuid"`
	Reason   string `json:"reason" validate:"max=500"`
}

func (r *TransferRequest) Normalize() {
	r.NewOwner = strings.TrimSpace(r.NewOwner)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *TransferRequest) Validate() error {
	return validation.Validate(r)
}

// CoOwnersRequest adds one co-owner or several; a single actor is logged as
// an individual addition.
type CoOwnersRequest struct {
	Actors []string `json:"actors" validate:"required,min=1,max=200,dive,uuid"`
	Reason string   `json:"reason" validate:"max=500"`
}

func (r *CoOwnersRequest) Normalize() {
	r.Actors = platformstrings.DedupeAndTrim(r.Actors)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *CoOwnersRequest) Validate() error {
	return validation.Validate(r)
}

type OwnershipResponse struct {
	RecordID      id.RecordID  `json:"record_id"`
	Owner         *id.ActorID  `json:"owner,omitempty"`
	CoOwners      []id.ActorID `json:"co_owners"`
	PreviousOwner *id.ActorID  `json:"previous_owner,omitempty"`
	EstablishedAt time.Time    `json:"established_at"`
	IsOwned       bool         `json:"is_owned"`
	CoOwnerCount  int          `json:"co_owner_count"`
	OwnedByMe     bool         `json:"owned_by_me"`
}

func toResponse(ctx context.Context, r *models.Record) OwnershipResponse {
	own := r.Ownership
	coOwners := own.CoOwners
	if coOwners == nil {
		coOwners = []id.ActorID{}
	}
	return OwnershipResponse{
		RecordID:      r.ID,
		Owner:         own.Owner,
		CoOwners:      coOwners,
		PreviousOwner: own.PreviousOwner,
		EstablishedAt: own.EstablishedAt,
		IsOwned:       own.IsOwned(),
		CoOwnerCount:  own.CoOwnerCount(),
		OwnedByMe:     own.IsOwnedBy(requestcontext.ActorID(ctx)),
	}
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
	if record.Ownership == nil {
		httputil.WriteJSON(w, http.StatusOK, OwnershipResponse{RecordID: record.ID, CoOwners: []id.ActorID{}})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(r.Context(), record))
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	newOwner, err := id.ParseActorID(req.NewOwner)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.respond(w, r, "transfer", func() (*models.Record, error) {
		return h.ownership.Transfer(ctx, recordID, newOwner, req.Reason)
	})
}

func (h *Handler) handleRelease(w http.ResponseWriter, r *http.Request) {
	h.withReason(w, r, "release", h.ownership.Release)
}

func (h *Handler) handleClaim(w http.ResponseWriter, r *http.Request) {
	h.withReason(w, r, "claim", h.ownership.Claim)
}

func (h *Handler) handleRemoveAllCoOwners(w http.ResponseWriter, r *http.Request) {
	h.withReason(w, r, "remove all co-owners", h.ownership.RemoveAllCoOwners)
}

func (h *Handler) handleAddCoOwners(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[CoOwnersRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	actors, err := id.ParseActorIDs(req.Actors)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.respond(w, r, "add co-owners", func() (*models.Record, error) {
		if len(actors) == 1 {
			return h.ownership.AddCoOwner(ctx, recordID, actors[0], req.Reason)
		}
		return h.ownership.AddCoOwners(ctx, recordID, actors, req.Reason)
	})
}

func (h *Handler) handleRemoveCoOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, err := id.ParseActorID(chi.URLParam(r, "actor"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reason := strings.TrimSpace(r.URL.Query().Get("reason"))
	h.respond(w, r, "remove co-owner", func() (*models.Record, error) {
		return h.ownership.RemoveCoOwner(ctx, recordID, actor, reason)
	})
}

func (h *Handler) withReason(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, id.RecordID, string) (*models.Record, error)) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReasonRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	h.respond(w, r, op, func() (*models.Record, error) {
		return fn(ctx, recordID, req.Reason)
	})
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, op string, call func() (*models.Record, error)) {
	ctx := r.Context()
	record, err := call()
	if err != nil {
		h.logger.WarnContext(ctx, "ownership "+op+" failed",
			"request_id", requestcontext.RequestID(ctx),
			"record_id", chi.URLParam(r, "id"),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(ctx, record))
}
