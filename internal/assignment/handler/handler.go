// Package handler exposes the assignment state machine over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	assignmentservice "stewardship/internal/assignment/service"
	"stewardship/internal/record/models"
	id "stewardship/pkg/domain"
	"stewardship/pkg/platform/httputil"
	platformstrings "stewardship/pkg/platform/strings"
	"stewardship/pkg/requestcontext"
	"stewardship/pkg/validation"
)

type Service interface {
	CanAssign(ctx context.Context, record *models.Record, actor id.ActorID) (bool, error)
	Assign(ctx context.Context, recordID id.RecordID, cmd assignmentservice.AssignCommand) (*models.Record, error)
	Reassign(ctx context.Context, recordID id.RecordID, actors []id.ActorID, reason string) (*models.Record, error)
	AddAssignee(ctx context.Context, recordID id.RecordID, actor id.ActorID, reason string) (*models.Record, error)
	RemoveAssignee(ctx context.Context, recordID id.RecordID, actor id.ActorID, reason string) (*models.Record, error)
	Start(ctx context.Context, recordID id.RecordID, reason string) (*models.Record, error)
	Complete(ctx context.Context, recordID id.RecordID, reason string) (*models.Record, error)
	Cancel(ctx context.Context, recordID id.RecordID, reason string) (*models.Record, error)
	UnassignAll(ctx context.Context, recordID id.RecordID, reason string) (*models.Record, error)
}

// Records loads the record for the assignment read route.
type Records interface {
	Get(ctx context.Context, recordID id.RecordID) (*models.Record, error)
}

type Handler struct {
	assignment Service
	records    Records
	logger     *slog.Logger
}

func New(assignment Service, records Records, logger *slog.Logger) *Handler {
	return &Handler{assignment: assignment, records: records, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/records/{id}/assignment", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Post("/assign", h.handleAssign)
		r.Post("/reassign", h.handleReassign)
		r.Post("/start", h.handleStart)
		r.Post("/complete", h.handleComplete)
		r.Post("/cancel", h.handleCancel)
		r.Post("/unassign-all", h.handleUnassignAll)
		r.Post("/assignees/{actor}", h.handleAddAssignee)
		r.Delete("/assignees/{actor}", h.handleRemoveAssignee)
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
	Deadline    *time.Time `json:"deadline"`
	Description string     `json:"description" validate:"max=2000"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Reason      string     `json:"reason" validate:"max=500"`
}

func (r *AssignRequest) Normalize() {
	r.Actors = platformstrings.DedupeAndTrim(r.Actors)
	r.Description = strings.TrimSpace(r.Description)
	r.Priority = strings.ToLower(strings.TrimSpace(r.Priority))
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *AssignRequest) Validate() error {
	return validation.Validate(r)
}

type AssignmentResponse struct {
	RecordID      id.RecordID     `json:"record_id"`
	Assignees     []id.ActorID    `json:"assignees"`
	Assigner      *id.ActorID     `json:"assigner,omitempty"`
	AssignedAt    *time.Time      `json:"assigned_at,omitempty"`
	Deadline      *time.Time      `json:"deadline,omitempty"`
	Status        models.Status   `json:"status"`
	Priority      models.Priority `json:"priority"`
	Description   string          `json:"description,omitempty"`
	IsOverdue     bool            `json:"is_overdue"`
	AssignedCount int             `json:"assigned_count"`
	AssignedToMe  bool            `json:"assigned_to_me"`
	CanAssign     *bool           `json:"can_assign,omitempty"`
}

func toResponse(ctx context.Context, r *models.Record) AssignmentResponse {
	a := r.Assignment
	assignees := a.Assignees
	if assignees == nil {
		assignees = []id.ActorID{}
	}
	return AssignmentResponse{
		RecordID:      r.ID,
		Assignees:     assignees,
		Assigner:      a.Assigner,
		AssignedAt:    a.AssignedAt,
		Deadline:      a.Deadline,
		Status:        a.Status,
		Priority:      a.Priority,
		Description:   a.Description,
		IsOverdue:     a.IsOverdue(requestcontext.Now(ctx)),
		AssignedCount: a.AssignedCount(),
		AssignedToMe:  a.IsAssignedTo(requestcontext.ActorID(ctx)),
	}
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
	if record.Assignment == nil {
		httputil.WriteJSON(w, http.StatusOK, AssignmentResponse{
			RecordID:  record.ID,
			Assignees: []id.ActorID{},
			Status:    models.StatusUnassigned,
		})
		return
	}
	can, err := h.assignment.CanAssign(ctx, record, requestcontext.ActorID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res := toResponse(ctx, record)
	res.CanAssign = &can
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	h.withAssignees(w, r, "assign", func(ctx context.Context, recordID id.RecordID, actors []id.ActorID, req *AssignRequest) (*models.Record, error) {
		return h.assignment.Assign(ctx, recordID, assignmentservice.AssignCommand{
			Actors:      actors,
			Deadline:    req.Deadline,
			Description: req.Description,
			Priority:    req.Priority,
			Reason:      req.Reason,
		})
	})
}

func (h *Handler) handleReassign(w http.ResponseWriter, r *http.Request) {
	h.withAssignees(w, r, "reassign", func(ctx context.Context, recordID id.RecordID, actors []id.ActorID, req *AssignRequest) (*models.Record, error) {
		return h.assignment.Reassign(ctx, recordID, actors, req.Reason)
	})
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	h.withReason(w, r, "start", h.assignment.Start)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	h.withReason(w, r, "complete", h.assignment.Complete)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.withReason(w, r, "cancel", h.assignment.Cancel)
}

func (h *Handler) handleUnassignAll(w http.ResponseWriter, r *http.Request) {
	h.withReason(w, r, "unassign all", h.assignment.UnassignAll)
}

func (h *Handler) handleAddAssignee(w http.ResponseWriter, r *http.Request) {
	h.withActor(w, r, "add assignee", h.assignment.AddAssignee)
}

func (h *Handler) handleRemoveAssignee(w http.ResponseWriter, r *http.Request) {
	h.withActor(w, r, "remove assignee", h.assignment.RemoveAssignee)
}

func (h *Handler) withAssignees(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, id.RecordID, []id.ActorID, *AssignRequest) (*models.Record, error)) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[AssignRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	actors, err := id.ParseActorIDs(req.Actors)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.respond(w, r, op, func() (*models.Record, error) {
		return fn(ctx, recordID, actors, req)
	})
}

// withActor serves the per-assignee routes. The reason travels in the query
// string so DELETE needs no body.
func (h *Handler) withActor(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, id.RecordID, id.ActorID, string) (*models.Record, error)) {
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
	h.respond(w, r, op, func() (*models.Record, error) {
		return fn(ctx, recordID, actor, reason)
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
		h.logger.WarnContext(ctx, "assignment "+op+" failed",
			"request_id", requestcontext.RequestID(ctx),
			"record_id", chi.URLParam(r, "id"),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(ctx, record))
}
