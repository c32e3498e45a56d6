// Package handler exposes bulk stewardship operations over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	accessservice "stewardship/internal/access/service"
	assignmentservice "stewardship/internal/assignment/service"
	bulkservice "stewardship/internal/bulk/service"
	"stewardship/internal/record/models"
	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
	"stewardship/pkg/platform/httputil"
	platformstrings "stewardship/pkg/platform/strings"
	"stewardship/pkg/requestcontext"
	"stewardship/pkg/validation"
)

type Service interface {
	Assign(ctx context.Context, cmd bulkservice.AssignCommand) (*bulkservice.Result, error)
	TransferOwnership(ctx context.Context, recordIDs []id.RecordID, newOwner id.ActorID, reason string) (*bulkservice.Result, error)
	SetAccess(ctx context.Context, cmd bulkservice.SetAccessCommand) (*bulkservice.Result, error)
	Delegate(ctx context.Context, recordIDs []id.RecordID, tier models.Tier, actors []id.ActorID, reason string) (*bulkservice.Result, error)
}

type Handler struct {
	bulk   Service
	logger *slog.Logger
}

func New(bulk Service, logger *slog.Logger) *Handler {
	return &Handler{bulk: bulk, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/bulk", func(r chi.Router) {
		r.Post("/assign", h.handleAssign)
		r.Post("/transfer-ownership", h.handleTransferOwnership)
		r.Post("/set-access", h.handleSetAccess)
		r.Post("/delegate", h.handleDelegate)
	})
}

type AssignRequest struct {
	Records     []string   `json:"records" validate:"required,min=1,max=500,dive,uuid"`
	Actors      []string   `json:"actors" validate:"required,min=1,max=200,dive,uuid"`
	Deadline    *time.Time `json:"deadline"`
	Description string     `json:"description" validate:"max=2000"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Reason      string     `json:"reason" validate:"max=500"`
}

func (r *AssignRequest) Normalize() {
	r.Records = platformstrings.DedupeAndTrim(r.Records)
	r.Actors = platformstrings.DedupeAndTrim(r.Actors)
	r.Description = strings.TrimSpace(r.Description)
	r.Priority = strings.ToLower(strings.TrimSpace(r.Priority))
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *AssignRequest) Validate() error {
	return validation.Validate(r)
}

type TransferRequest struct {
	Records  []string `json:"records" validate:"required,min=1,max=500,dive,uuid"`
	NewOwner string   `json:"new_owner" validate:"required,uuid"`
	Reason   string   `json:"reason" validate:"max=500"`
}

func (r *TransferRequest) Normalize() {
	r.Records = platformstrings.DedupeAndTrim(r.Records)
	r.NewOwner = strings.TrimSpace(r.NewOwner)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *TransferRequest) Validate() error {
	return validation.Validate(r)
}

type SetAccessRequest struct {
	Records      []string   `json:"records" validate:"required,min=1,max=500,dive,uuid"`
	Level        string     `json:"level" validate:"required,oneof=public internal restricted private"`
	Actors       []string   `json:"actors" validate:"max=200,dive,uuid"`
	Groups       []string   `json:"groups" validate:"max=50,dive,uuid"`
	CustomGroups []string   `json:"custom_groups" validate:"max=50,dive,uuid"`
	WindowStart  *time.Time `json:"window_start"`
	WindowEnd    *time.Time `json:"window_end"`
	Reason       string     `json:"reason" validate:"max=500"`
}

func (r *SetAccessRequest) Normalize() {
	r.Records = platformstrings.DedupeAndTrim(r.Records)
	r.Actors = platformstrings.DedupeAndTrim(r.Actors)
	r.Groups = platformstrings.DedupeAndTrim(r.Groups)
	r.CustomGroups = platformstrings.DedupeAndTrim(r.CustomGroups)
	r.Level = strings.ToLower(strings.TrimSpace(r.Level))
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *SetAccessRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	if r.WindowStart != nil && r.WindowEnd != nil && r.WindowStart.After(*r.WindowEnd) {
		return dErrors.New(dErrors.CodeValidation, "window_start must not be after window_end")
	}
	return nil
}

type DelegateRequest struct {
	Records []string `json:"records" validate:"required,min=1,max=500,dive,uuid"`
	Actors  []string `json:"actors" validate:"required,min=1,max=200,dive,uuid"`
	Tier    string   `json:"tier" validate:"omitempty,oneof=primary secondary"`
	Reason  string   `json:"reason" validate:"max=500"`
}

func (r *DelegateRequest) Normalize() {
	r.Records = platformstrings.DedupeAndTrim(r.Records)
	r.Actors = platformstrings.DedupeAndTrim(r.Actors)
	r.Tier = strings.ToLower(strings.TrimSpace(r.Tier))
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *DelegateRequest) Validate() error {
	return validation.Validate(r)
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[AssignRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	recordIDs, err := parseRecordIDs(req.Records)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actors, err := id.ParseActorIDs(req.Actors)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.respond(w, r, bulkservice.OperationAssign, func() (*bulkservice.Result, error) {
		return h.bulk.Assign(ctx, bulkservice.AssignCommand{
			RecordIDs: recordIDs,
			AssignCommand: assignmentservice.AssignCommand{
				Actors:      actors,
				Deadline:    req.Deadline,
				Description: req.Description,
				Priority:    req.Priority,
				Reason:      req.Reason,
			},
		})
	})
}

func (h *Handler) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	recordIDs, err := parseRecordIDs(req.Records)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	newOwner, err := id.ParseActorID(req.NewOwner)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.respond(w, r, bulkservice.OperationTransferOwnership, func() (*bulkservice.Result, error) {
		return h.bulk.TransferOwnership(ctx, recordIDs, newOwner, req.Reason)
	})
}

func (h *Handler) handleSetAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SetAccessRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	recordIDs, err := parseRecordIDs(req.Records)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actors, err := id.ParseActorIDs(req.Actors)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	groups := make([]id.GroupID, 0, len(req.Groups))
	for _, g := range req.Groups {
		groups = append(groups, id.GroupID(uuid.MustParse(g)))
	}
	customGroups := make([]id.CustomGroupID, 0, len(req.CustomGroups))
	for _, g := range req.CustomGroups {
		customGroups = append(customGroups, id.CustomGroupID(uuid.MustParse(g)))
	}
	h.respond(w, r, bulkservice.OperationSetAccess, func() (*bulkservice.Result, error) {
		return h.bulk.SetAccess(ctx, bulkservice.SetAccessCommand{
			RecordIDs:    recordIDs,
			Level:        models.Level(req.Level),
			Actors:       actors,
			Groups:       groups,
			CustomGroups: customGroups,
			Window:       accessservice.Window{Start: req.WindowStart, End: req.WindowEnd},
			Reason:       req.Reason,
		})
	})
}

func (h *Handler) handleDelegate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[DelegateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	recordIDs, err := parseRecordIDs(req.Records)
	if err != nil {
		httputil.WriteError(w, err)
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
	h.respond(w, r, bulkservice.OperationDelegate, func() (*bulkservice.Result, error) {
		return h.bulk.Delegate(ctx, recordIDs, tier, actors, req.Reason)
	})
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, op string, call func() (*bulkservice.Result, error)) {
	ctx := r.Context()
	result, err := call()
	if err != nil {
		h.logger.WarnContext(ctx, "bulk "+op+" failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func parseRecordIDs(values []string) ([]id.RecordID, error) {
	ids := make([]id.RecordID, 0, len(values))
	for _, v := range values {
		recordID, err := id.ParseRecordID(v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, recordID)
	}
	return ids, nil
}
