// Package handler exposes record access evaluation and access grants over
// HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"stewardship/internal/access/service"
	agmodels "stewardship/internal/accessgroup/models"
	"stewardship/internal/record/models"
	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
	"stewardship/pkg/platform/httputil"
	platformstrings "stewardship/pkg/platform/strings"
	"stewardship/pkg/requestcontext"
	"stewardship/pkg/validation"
)

type Service interface {
	HasAccess(ctx context.Context, recordID id.RecordID, actor id.ActorID) (bool, error)
	AccessibleActors(ctx context.Context, recordID id.RecordID) ([]id.ActorID, error)
	CheckGroupAccess(ctx context.Context, recordID id.RecordID, actor id.ActorID) (bool, error)
	GroupAccessSummary(ctx context.Context, recordID id.RecordID) (*service.GroupAccessSummary, error)
	GrantActor(ctx context.Context, recordID id.RecordID, actor id.ActorID, window service.Window, reason string) (*models.Record, error)
	RevokeActor(ctx context.Context, recordID id.RecordID, actor id.ActorID, reason string) (*models.Record, error)
	GrantGroup(ctx context.Context, recordID id.RecordID, groupID id.GroupID, window service.Window, reason string) (*models.Record, error)
	RevokeGroup(ctx context.Context, recordID id.RecordID, groupID id.GroupID, reason string) (*models.Record, error)
	GrantCustomGroup(ctx context.Context, recordID id.RecordID, groupID id.CustomGroupID, window service.Window, reason string) (*models.Record, error)
	RevokeCustomGroup(ctx context.Context, recordID id.RecordID, groupID id.CustomGroupID, reason string) (*models.Record, error)
	CreateAndAttachCustomGroup(ctx context.Context, recordID id.RecordID, cmd service.AttachGroupCommand) (*models.Record, *agmodels.Group, error)
	SetLevel(ctx context.Context, recordID id.RecordID, level models.Level, reason string) (*models.Record, error)
	SetWindow(ctx context.Context, recordID id.RecordID, window service.Window, reason string) (*models.Record, error)
	BulkGrant(ctx context.Context, recordID id.RecordID, actors []id.ActorID, window service.Window, reason string) (*models.Record, error)
	BulkRevoke(ctx context.Context, recordID id.RecordID, actors []id.ActorID, reason string) (*models.Record, error)
	ReplaceCustomGroups(ctx context.Context, recordID id.RecordID, groupIDs []id.CustomGroupID, reason string) (*models.Record, error)
	ClearCustomGroups(ctx context.Context, recordID id.RecordID, reason string) (*models.Record, error)
}

type Handler struct {
	access Service
	logger *slog.Logger
}

func New(access Service, logger *slog.Logger) *Handler {
	return &Handler{access: access, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/records/{id}/access", func(r chi.Router) {
		r.Get("/", h.handleCheck)
		r.Get("/actors", h.handleActors)
		r.Get("/groups", h.handleGroupSummary)
		r.Get("/groups/check", h.handleGroupCheck)
		r.Post("/grant/{target}", h.handleGrant)
		r.Post("/revoke/{target}", h.handleRevoke)
		r.Put("/level", h.handleSetLevel)
		r.Put("/window", h.handleSetWindow)
		r.Post("/bulk-grant", h.handleBulkGrant)
		r.Post("/bulk-revoke", h.handleBulkRevoke)
		r.Post("/custom-groups", h.handleCreateCustomGroup)
		r.Put("/custom-groups", h.handleReplaceCustomGroups)
		r.Delete("/custom-groups", h.handleClearCustomGroups)
	})
}

const (
	targetActor       = "actor"
	targetGroup       = "group"
	targetCustomGroup = "custom-group"
)

// GrantRequest names the grantee by ID; the route decides whether it is an
// actor, a system group or a custom group.
type GrantRequest struct {
	ID          string     `json:"id" validate:"required,uuid"`
	WindowStart *time.Time `json:"window_start"`
	WindowEnd   *time.Time `json:"window_end"`
	Reason      string     `json:"reason" validate:"max=500"`
}

func (r *GrantRequest) Normalize() {
	r.ID = strings.TrimSpace(r.ID)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *GrantRequest) Validate() error {
	return validation.Validate(r)
}

func (r *GrantRequest) window() service.Window {
	return service.Window{Start: r.WindowStart, End: r.WindowEnd}
}

type LevelRequest struct {
	Level  string `json:"level" validate:"required,oneof=public internal restricted private"`
	Reason string `json:"reason" validate:"max=500"`
}

func (r *LevelRequest) Normalize() {
	r.Level = strings.ToLower(strings.TrimSpace(r.Level))
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *LevelRequest) Validate() error {
	return validation.Validate(r)
}

type WindowRequest struct {
	WindowStart *time.Time `json:"window_start"`
	WindowEnd   *time.Time `json:"window_end"`
	Reason      string     `json:"reason" validate:"max=500"`
}

func (r *WindowRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *WindowRequest) Validate() error {
	if r.WindowStart != nil && r.WindowEnd != nil && r.WindowStart.After(*r.WindowEnd) {
		return dErrors.New(dErrors.CodeValidation, "window_start must be before window_end")
	}
	return validation.Validate(r)
}

type BulkRequest struct {
	Actors      []string   `json:"actors" validate:"required,min=1,max=200,dive,uuid"`
	WindowStart *time.Time `json:"window_start"`
	WindowEnd   *time.Time `json:"window_end"`
	Reason      string     `json:"reason" validate:"max=500"`
}

func (r *BulkRequest) Normalize() {
	r.Actors = platformstrings.DedupeAndTrim(r.Actors)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *BulkRequest) Validate() error {
	return validation.Validate(r)
}

type CreateGroupRequest struct {
	Name    string   `json:"name" validate:"required,max=100"`
	Type    string   `json:"type" validate:"omitempty,oneof=general project department temporary external custom"`
	Members []string `json:"members" validate:"required,min=1,max=200,dive,uuid"`
	Reason  string   `json:"reason" validate:"max=500"`
}

func (r *CreateGroupRequest) Normalize() {
	r.Name = platformstrings.NormalizeName(r.Name)
	r.Type = strings.ToLower(strings.TrimSpace(r.Type))
	r.Members = platformstrings.DedupeAndTrim(r.Members)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *CreateGroupRequest) Validate() error {
	return validation.Validate(r)
}

type ReplaceGroupsRequest struct {
	Groups []string `json:"groups" validate:"max=50,dive,uuid"`
	Reason string   `json:"reason" validate:"max=500"`
}

func (r *ReplaceGroupsRequest) Normalize() {
	r.Groups = platformstrings.DedupeAndTrim(r.Groups)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *ReplaceGroupsRequest) Validate() error {
	return validation.Validate(r)
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

type AccessResponse struct {
	RecordID     id.RecordID        `json:"record_id"`
	Level        models.Level       `json:"level"`
	Actors       []id.ActorID       `json:"actors"`
	Groups       []id.GroupID       `json:"groups"`
	CustomGroups []id.CustomGroupID `json:"custom_groups"`
	WindowStart  *time.Time         `json:"window_start,omitempty"`
	WindowEnd    *time.Time         `json:"window_end,omitempty"`
	WindowOpen   bool               `json:"window_open"`
}

type CheckResponse struct {
	RecordID id.RecordID `json:"record_id"`
	Actor    id.ActorID  `json:"actor"`
	Allowed  bool        `json:"allowed"`
}

type ActorsResponse struct {
	RecordID id.RecordID  `json:"record_id"`
	Actors   []id.ActorID `json:"actors"`
	Count    int          `json:"count"`
}

type CreateGroupResponse struct {
	Access AccessResponse  `json:"access"`
	Group  *agmodels.Group `json:"group"`
}

func toResponse(ctx context.Context, r *models.Record) AccessResponse {
	a := r.Access
	return AccessResponse{
		RecordID:     r.ID,
		Level:        a.Level,
		Actors:       nonNil(a.Actors),
		Groups:       nonNil(a.Groups),
		CustomGroups: nonNil(a.CustomGroups),
		WindowStart:  a.WindowStart,
		WindowEnd:    a.WindowEnd,
		WindowOpen:   a.WindowOpen(requestcontext.Now(ctx)),
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// handleCheck evaluates access for ?actor=, defaulting to the caller.
func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, actor, err := recordAndActor(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	allowed, err := h.access.HasAccess(ctx, recordID, actor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CheckResponse{RecordID: recordID, Actor: actor, Allowed: allowed})
}

func (h *Handler) handleGroupCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, actor, err := recordAndActor(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	allowed, err := h.access.CheckGroupAccess(ctx, recordID, actor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CheckResponse{RecordID: recordID, Actor: actor, Allowed: allowed})
}

func (h *Handler) handleActors(w http.ResponseWriter, r *http.Request) {
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actors, err := h.access.AccessibleActors(r.Context(), recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ActorsResponse{RecordID: recordID, Actors: actors, Count: len(actors)})
}

func (h *Handler) handleGroupSummary(w http.ResponseWriter, r *http.Request) {
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	summary, err := h.access.GroupAccessSummary(r.Context(), recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	target := chi.URLParam(r, "target")
	req, ok := httputil.DecodeAndPrepare[GrantRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.respond(w, r, "grant "+target, func() (*models.Record, error) {
		switch target {
		case targetActor:
			actor, err := id.ParseActorID(req.ID)
			if err != nil {
				return nil, err
			}
			return h.access.GrantActor(ctx, recordID, actor, req.window(), req.Reason)
		case targetGroup:
			groupID, err := id.ParseGroupID(req.ID)
			if err != nil {
				return nil, err
			}
			return h.access.GrantGroup(ctx, recordID, groupID, req.window(), req.Reason)
		case targetCustomGroup:
			groupID, err := id.ParseCustomGroupID(req.ID)
			if err != nil {
				return nil, err
			}
			return h.access.GrantCustomGroup(ctx, recordID, groupID, req.window(), req.Reason)
		}
		return nil, unknownTarget(target)
	})
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	target := chi.URLParam(r, "target")
	req, ok := httputil.DecodeAndPrepare[GrantRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.respond(w, r, "revoke "+target, func() (*models.Record, error) {
		switch target {
		case targetActor:
			actor, err := id.ParseActorID(req.ID)
			if err != nil {
				return nil, err
			}
			return h.access.RevokeActor(ctx, recordID, actor, req.Reason)
		case targetGroup:
			groupID, err := id.ParseGroupID(req.ID)
			if err != nil {
				return nil, err
			}
			return h.access.RevokeGroup(ctx, recordID, groupID, req.Reason)
		case targetCustomGroup:
			groupID, err := id.ParseCustomGroupID(req.ID)
			if err != nil {
				return nil, err
			}
			return h.access.RevokeCustomGroup(ctx, recordID, groupID, req.Reason)
		}
		return nil, unknownTarget(target)
	})
}

func (h *Handler) handleSetLevel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[LevelRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.respond(w, r, "set level", func() (*models.Record, error) {
		level, err := models.ParseLevel(req.Level)
		if err != nil {
			return nil, err
		}
		return h.access.SetLevel(ctx, recordID, level, req.Reason)
	})
}

func (h *Handler) handleSetWindow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[WindowRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.respond(w, r, "set window", func() (*models.Record, error) {
		return h.access.SetWindow(ctx, recordID, service.Window{Start: req.WindowStart, End: req.WindowEnd}, req.Reason)
	})
}

func (h *Handler) handleBulkGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[BulkRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	actors, err := id.ParseActorIDs(req.Actors)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.respond(w, r, "bulk grant", func() (*models.Record, error) {
		return h.access.BulkGrant(ctx, recordID, actors, service.Window{Start: req.WindowStart, End: req.WindowEnd}, req.Reason)
	})
}

func (h *Handler) handleBulkRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[BulkRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	actors, err := id.ParseActorIDs(req.Actors)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.respond(w, r, "bulk revoke", func() (*models.Record, error) {
		return h.access.BulkRevoke(ctx, recordID, actors, req.Reason)
	})
}

func (h *Handler) handleCreateCustomGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateGroupRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	members, err := id.ParseActorIDs(req.Members)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	record, group, err := h.access.CreateAndAttachCustomGroup(ctx, recordID, service.AttachGroupCommand{
		Name:    req.Name,
		Type:    agmodels.Type(req.Type),
		Members: members,
		Reason:  req.Reason,
	})
	if err != nil {
		h.logFailure(r, "create custom group", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, CreateGroupResponse{Access: toResponse(ctx, record), Group: group})
}

func (h *Handler) handleReplaceCustomGroups(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReplaceGroupsRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	groupIDs := make([]id.CustomGroupID, 0, len(req.Groups))
	for _, raw := range req.Groups {
		groupID, err := id.ParseCustomGroupID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		groupIDs = append(groupIDs, groupID)
	}
	h.respond(w, r, "replace custom groups", func() (*models.Record, error) {
		return h.access.ReplaceCustomGroups(ctx, recordID, groupIDs, req.Reason)
	})
}

func (h *Handler) handleClearCustomGroups(w http.ResponseWriter, r *http.Request) {
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
	h.respond(w, r, "clear custom groups", func() (*models.Record, error) {
		return h.access.ClearCustomGroups(ctx, recordID, req.Reason)
	})
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, op string, call func() (*models.Record, error)) {
	record, err := call()
	if err != nil {
		h.logFailure(r, op, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(r.Context(), record))
}

func (h *Handler) logFailure(r *http.Request, op string, err error) {
	ctx := r.Context()
	h.logger.WarnContext(ctx, "access "+op+" failed",
		"request_id", requestcontext.RequestID(ctx),
		"record_id", chi.URLParam(r, "id"),
		"error", err,
	)
}

func recordAndActor(r *http.Request) (id.RecordID, id.ActorID, error) {
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		return id.RecordID{}, id.ActorID{}, err
	}
	raw := strings.TrimSpace(r.URL.Query().Get("actor"))
	if raw == "" {
		return recordID, requestcontext.ActorID(r.Context()), nil
	}
	actor, err := id.ParseActorID(raw)
	if err != nil {
		return id.RecordID{}, id.ActorID{}, err
	}
	return recordID, actor, nil
}

func unknownTarget(target string) error {
	return dErrors.New(dErrors.CodeNotFound, "unknown grant target: "+target)
}
