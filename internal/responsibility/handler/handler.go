// Package handler exposes two-tier responsibility over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"stewardship/internal/record/models"
	responsibilityservice "stewardship/internal/responsibility/service"
	id "stewardship/pkg/domain"
	"stewardship/pkg/platform/httputil"
	platformstrings "stewardship/pkg/platform/strings"
	"stewardship/pkg/requestcontext"
	"stewardship/pkg/validation"
)

type Service interface {
	CanDelegate(ctx context.Context, record *models.Record, actor id.ActorID) (bool, error)
	Assign(ctx context.Context, recordID id.RecordID, cmd responsibilityservice.AssignCommand) (*models.Record, error)
	AssignSecondary(ctx context.Context, recordID id.RecordID, actors []id.ActorID, reason string) (*models.Record, error)
	Delegate(ctx context.Context, recordID id.RecordID, tier models.Tier, actors []id.ActorID, reason string) (*models.Record, error)
	Transfer(ctx context.Context, recordID id.RecordID, tier models.Tier, actors []id.ActorID, reason string) (*models.Record, error)
	AddResponsible(ctx context.Context, recordID id.RecordID, tier models.Tier, actor id.ActorID, reason string) (*models.Record, error)
	RemoveResponsible(ctx context.Context, recordID id.RecordID, tier models.Tier, actor id.ActorID, reason string) (*models.Record, error)
	Escalate(ctx context.Context, recordID id.RecordID, targets []id.ActorID, reason string) (*models.Record, error)
	RevokeAll(ctx context.Context, recordID id.RecordID, reason string) (*models.Record, error)
}

// Records loads the record for the responsibility read route.
type Records interface {
	Get(ctx context.Context, recordID id.RecordID) (*models.Record, error)
}

type Handler struct {
	responsibility Service
	records        Records
	logger         *slog.Logger
}

func New(responsibility Service, records Records, logger *slog.Logger) *Handler {
	return &Handler{responsibility: responsibility, records: records, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/records/{id}/responsibility", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Post("/assign", h.handleAssign)
		r.Post("/assign-secondary", h.handleAssignSecondary)
		r.Post("/delegate", h.handleDelegate)
		r.Post("/transfer", h.handleTransfer)
		r.Post("/escalate", h.handleEscalate)
		r.Post("/revoke-all", h.handleRevokeAll)
		r.Post("/responsibles/{actor}", h.handleAdd)
		r.Delete("/responsibles/{actor}", h.handleRemove)
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

type AssignRequest struct {
	Actors      []string   `json:"actors" validate:"required,min=1,max=200,dive,uuid"`
	End         *time.Time `json:"end"`
	Description string     `json:"description" validate:"max=2000"`
	Reason      string     `json:"reason" validate:"max=500"`
}

func (r *AssignRequest) Normalize() {
	r.Actors = platformstrings.DedupeAndTrim(r.Actors)
	r.Description = strings.TrimSpace(r.Description)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *AssignRequest) Validate() error {
	return validation.Validate(r)
}

// ChangeRequest replaces one tier. Tier defaults to primary.
type ChangeRequest struct {
	Actors []string `json:"actors" validate:"required,min=1,max=200,dive,uuid"`
	Tier   string   `json:"tier" validate:"omitempty,oneof=primary secondary"`
	Reason string   `json:"reason" validate:"max=500"`
}

func (r *ChangeRequest) Normalize() {
	r.Actors = platformstrings.DedupeAndTrim(r.Actors)
	r.Tier = strings.ToLower(strings.TrimSpace(r.Tier))
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *ChangeRequest) Validate() error {
	return validation.Validate(r)
}

// EscalateRequest carries the escalation target. The service enforces
// that exactly one is given.
type EscalateRequest struct {
	Targets []string `json:"targets" validate:"max=200,dive,uuid"`
	Reason  string   `json:"reason" validate:"max=500"`
}

func (r *EscalateRequest) Normalize() {
	r.Targets = platformstrings.DedupeAndTrim(r.Targets)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *EscalateRequest) Validate() error {
	return validation.Validate(r)
}

type ResponsibilityResponse struct {
	RecordID       id.RecordID  `json:"record_id"`
	Primary        []id.ActorID `json:"primary"`
	Secondary      []id.ActorID `json:"secondary"`
	Start          *time.Time   `json:"start,omitempty"`
	End            *time.Time   `json:"end,omitempty"`
	DelegatedBy    *id.ActorID  `json:"delegated_by,omitempty"`
	Description    string       `json:"description,omitempty"`
	IsActive       bool         `json:"is_active"`
	IsExpired      bool         `json:"is_expired"`
	PrimaryCount   int          `json:"primary_count"`
	SecondaryCount int          `json:"secondary_count"`
	ResponsibleMe  bool         `json:"responsible_me"`
	CanDelegate    *bool        `json:"can_delegate,omitempty"`
}

func toResponse(ctx context.Context, r *models.Record) ResponsibilityResponse {
	resp := r.Responsibility
	now := requestcontext.Now(ctx)
	return ResponsibilityResponse{
		RecordID:       r.ID,
		Primary:        nonNil(resp.Primary),
		Secondary:      nonNil(resp.Secondary),
		Start:          resp.Start,
		End:            resp.End,
		DelegatedBy:    resp.DelegatedBy,
		Description:    resp.Description,
		IsActive:       resp.IsActive(now),
		IsExpired:      resp.IsExpired(now),
		PrimaryCount:   resp.ResponsibleCount(),
		SecondaryCount: resp.SecondaryCount(),
		ResponsibleMe:  resp.IsResponsible(requestcontext.ActorID(ctx)),
	}
}

func nonNil(actors []id.ActorID) []id.ActorID {
	if actors == nil {
		return []id.ActorID{}
	}
	return actors
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	record, err := h.records.Get(ctx, recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if record.Responsibility == nil {
		httputil.WriteJSON(w, http.StatusOK, ResponsibilityResponse{
			RecordID:  record.ID,
			Primary:   []id.ActorID{},
			Secondary: []id.ActorID{},
		})
		return
	}
	can, err := h.responsibility.CanDelegate(ctx, record, requestcontext.ActorID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res := toResponse(ctx, record)
	res.CanDelegate = &can
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[AssignRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	actors, err := id.ParseActorIDs(req.Actors)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.respond(w, r, "assign", func() (*models.Record, error) {
		return h.responsibility.Assign(ctx, recordID, responsibilityservice.AssignCommand{
			Actors:      actors,
			End:         req.End,
			Description: req.Description,
			Reason:      req.Reason,
		})
	})
}

func (h *Handler) handleAssignSecondary(w http.ResponseWriter, r *http.Request) {
	h.withChange(w, r, "assign secondary", func(ctx context.Context, recordID id.RecordID, _ models.Tier, actors []id.ActorID, reason string) (*models.Record, error) {
		return h.responsibility.AssignSecondary(ctx, recordID, actors, reason)
	})
}

func (h *Handler) handleDelegate(w http.ResponseWriter, r *http.Request) {
	h.withChange(w, r, "delegate", h.responsibility.Delegate)
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	h.withChange(w, r, "transfer", h.responsibility.Transfer)
}

func (h *Handler) handleEscalate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[EscalateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	targets, err := id.ParseActorIDs(req.Targets)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.respond(w, r, "escalate", func() (*models.Record, error) {
		return h.responsibility.Escalate(ctx, recordID, targets, req.Reason)
	})
}

func (h *Handler) handleRevokeAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReasonRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.respond(w, r, "revoke all", func() (*models.Record, error) {
		return h.responsibility.RevokeAll(ctx, recordID, req.Reason)
	})
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	h.withActor(w, r, "add responsible", h.responsibility.AddResponsible)
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	h.withActor(w, r, "remove responsible", h.responsibility.RemoveResponsible)
}

func (h *Handler) withChange(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, id.RecordID, models.Tier, []id.ActorID, string) (*models.Record, error)) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ChangeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	actors, err := id.ParseActorIDs(req.Actors)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	tier, err := models.ParseTier(req.Tier)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.respond(w, r, op, func() (*models.Record, error) {
		return fn(ctx, recordID, tier, actors, req.Reason)
	})
}

// withActor serves the per-actor routes; tier and reason travel in the
// query string.
func (h *Handler) withActor(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, id.RecordID, models.Tier, id.ActorID, string) (*models.Record, error)) {
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
	query := r.URL.Query()
	tier, err := models.ParseTier(strings.ToLower(strings.TrimSpace(query.Get("tier"))))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reason := strings.TrimSpace(query.Get("reason"))
	h.respond(w, r, op, func() (*models.Record, error) {
		return fn(ctx, recordID, tier, actor, reason)
	})
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, op string, call func() (*models.Record, error)) {
	ctx := r.Context()
	record, err := call()
	if err != nil {
		h.logger.WarnContext(ctx, "responsibility "+op+" failed",
			"request_id", requestcontext.RequestID(ctx),
			"record_id", chi.URLParam(r, "id"),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(ctx, record))
}
