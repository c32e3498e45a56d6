// Package handler exposes custom access group management over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"stewardship/internal/accessgroup/models"
	"stewardship/internal/accessgroup/service"
	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
	"stewardship/pkg/platform/httputil"
	platformstrings "stewardship/pkg/platform/strings"
	"stewardship/pkg/requestcontext"
	"stewardship/pkg/validation"
)

type Service interface {
	Create(ctx context.Context, cmd service.CreateCommand) (*models.Group, error)
	CreateProjectTeam(ctx context.Context, project string, members []id.ActorID) (*models.Group, error)
	CreateDepartment(ctx context.Context, department string, members []id.ActorID) (*models.Group, error)
	Get(ctx context.Context, groupID id.CustomGroupID) (*models.Group, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Group, error)
	Update(ctx context.Context, groupID id.CustomGroupID, cmd service.UpdateCommand) (*models.Group, error)
	AddMembers(ctx context.Context, groupID id.CustomGroupID, actors []id.ActorID, reason string) (*models.Group, error)
	RemoveMembers(ctx context.Context, groupID id.CustomGroupID, actors []id.ActorID, reason string) (*models.Group, error)
	AddManagers(ctx context.Context, groupID id.CustomGroupID, actors []id.ActorID) (*models.Group, error)
	RemoveManagers(ctx context.Context, groupID id.CustomGroupID, actors []id.ActorID) (*models.Group, error)
	Duplicate(ctx context.Context, groupID id.CustomGroupID, name string, withMembers bool) (*models.Group, error)
	Archive(ctx context.Context, groupID id.CustomGroupID, reason string) (*models.Group, error)
	Reactivate(ctx context.Context, groupID id.CustomGroupID) (*models.Group, error)
}

type Handler struct {
	groups Service
	logger *slog.Logger
}

func New(groups Service, logger *slog.Logger) *Handler {
	return &Handler{groups: groups, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/access-groups", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Post("/templates/{template}", h.handleCreateFromTemplate)
		r.Get("/{id}", h.handleGet)
		r.Patch("/{id}", h.handleUpdate)
		r.Post("/{id}/members", h.handleAddMembers)
		r.Post("/{id}/members/remove", h.handleRemoveMembers)
		r.Delete("/{id}/members/{actor}", h.handleRemoveMember)
		r.Post("/{id}/managers", h.handleAddManagers)
		r.Delete("/{id}/managers/{actor}", h.handleRemoveManager)
		r.Post("/{id}/duplicate", h.handleDuplicate)
		r.Post("/{id}/archive", h.handleArchive)
		r.Post("/{id}/reactivate", h.handleReactivate)
	})
}

type CreateRequest struct {
	Name           string     `json:"name" validate:"required,max=100"`
	Description    string     `json:"description" validate:"max=2000"`
	Type           string     `json:"type" validate:"omitempty,oneof=general project department temporary external custom"`
	ProjectName    string     `json:"project_name"`
	DepartmentName string     `json:"department_name"`
	Members        []string   `json:"members" validate:"max=200,dive,uuid"`
	Managers       []string   `json:"managers" validate:"max=200,dive,uuid"`
	ExpiresAt      *time.Time `json:"expires_at"`
}

func (r *CreateRequest) Normalize() {
	r.Name = platformstrings.NormalizeName(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.Type = strings.ToLower(strings.TrimSpace(r.Type))
	r.ProjectName = strings.TrimSpace(r.ProjectName)
	r.DepartmentName = strings.TrimSpace(r.DepartmentName)
	r.Members = platformstrings.DedupeAndTrim(r.Members)
	r.Managers = platformstrings.DedupeAndTrim(r.Managers)
}

func (r *CreateRequest) Validate() error {
	return validation.Validate(r)
}

type TemplateRequest struct {
	Name    string   `json:"name" validate:"required,max=80"`
	Members []string `json:"members" validate:"required,min=1,max=200,dive,uuid"`
}

func (r *TemplateRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Members = platformstrings.DedupeAndTrim(r.Members)
}

func (r *TemplateRequest) Validate() error {
	return validation.Validate(r)
}

type UpdateRequest struct {
	Name        *string    `json:"name" validate:"omitempty,max=100"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	ExpiresAt   *time.Time `json:"expires_at"`
	ClearExpiry bool       `json:"clear_expiry"`
}

func (r *UpdateRequest) Normalize() {
	r.Name = platformstrings.TrimSpacePtr(r.Name)
	r.Description = platformstrings.TrimSpacePtr(r.Description)
	if r.Name != nil {
		*r.Name = platformstrings.NormalizeName(*r.Name)
	}
}

func (r *UpdateRequest) Validate() error {
	if r.ClearExpiry && r.ExpiresAt != nil {
		return dErrors.New(dErrors.CodeValidation, "expires_at and clear_expiry are mutually exclusive")
	}
	return validation.Validate(r)
}

type ActorsRequest struct {
	Actors []string `json:"actors" validate:"required,min=1,max=200,dive,uuid"`
	Reason string   `json:"reason" validate:"max=500"`
}

func (r *ActorsRequest) Normalize() {
	r.Actors = platformstrings.DedupeAndTrim(r.Actors)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *ActorsRequest) Validate() error {
	return validation.Validate(r)
}

type DuplicateRequest struct {
	Name        string `json:"name" validate:"max=100"`
	WithMembers bool   `json:"with_members"`
}

func (r *DuplicateRequest) Normalize() {
	r.Name = platformstrings.NormalizeName(r.Name)
}

func (r *DuplicateRequest) Validate() error {
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

type GroupResponse struct {
	*models.Group
	DisplayName string `json:"display_name"`
	MemberCount int    `json:"member_count"`
	Expired     bool   `json:"expired"`
}

type ListResponse struct {
	Groups []GroupResponse `json:"groups"`
	Count  int             `json:"count"`
}

func toResponse(ctx context.Context, g *models.Group) GroupResponse {
	if g.Members == nil {
		g.Members = []id.ActorID{}
	}
	return GroupResponse{
		Group:       g,
		DisplayName: g.DisplayName(),
		MemberCount: g.MemberCount(),
		Expired:     g.ExpiresAt != nil && !g.ExpiresAt.After(requestcontext.Now(ctx)),
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	groups, err := h.groups.List(ctx, filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res := ListResponse{Groups: make([]GroupResponse, 0, len(groups)), Count: len(groups)}
	for _, g := range groups {
		res.Groups = append(res.Groups, toResponse(ctx, g))
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func parseFilter(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	var f models.Filter
	if v := q.Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return f, dErrors.New(dErrors.CodeBadRequest, "active must be true or false")
		}
		f.ActiveOnly = active
	}
	if v := q.Get("type"); v != "" {
		t, err := models.ParseType(v)
		if err != nil {
			return f, dErrors.New(dErrors.CodeBadRequest, err.Error())
		}
		f.Type = t
	}
	if v := q.Get("member"); v != "" {
		actor, err := id.ParseActorID(v)
		if err != nil {
			return f, err
		}
		f.Member = &actor
	}
	if v := q.Get("manager"); v != "" {
		actor, err := id.ParseActorID(v)
		if err != nil {
			return f, err
		}
		f.Manager = &actor
	}
	return f, nil
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	members, err := id.ParseActorIDs(req.Members)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	managers, err := id.ParseActorIDs(req.Managers)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	groupType, err := models.ParseType(req.Type)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.respond(w, r, http.StatusCreated, "create", func() (*models.Group, error) {
		return h.groups.Create(ctx, service.CreateCommand{
			Name:           req.Name,
			Description:    req.Description,
			Type:           groupType,
			ProjectName:    req.ProjectName,
			DepartmentName: req.DepartmentName,
			Members:        members,
			Managers:       managers,
			ExpiresAt:      req.ExpiresAt,
		})
	})
}

func (h *Handler) handleCreateFromTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var create func(context.Context, string, []id.ActorID) (*models.Group, error)
	switch chi.URLParam(r, "template") {
	case "project":
		create = h.groups.CreateProjectTeam
	case "department":
		create = h.groups.CreateDepartment
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "unknown group template"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[TemplateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	members, err := id.ParseActorIDs(req.Members)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.respond(w, r, http.StatusCreated, "create from template", func() (*models.Group, error) {
		return create(ctx, req.Name, members)
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	groupID, ok := groupParam(w, r)
	if !ok {
		return
	}
	h.respond(w, r, http.StatusOK, "get", func() (*models.Group, error) {
		return h.groups.Get(r.Context(), groupID)
	})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, ok := groupParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.respond(w, r, http.StatusOK, "update", func() (*models.Group, error) {
		return h.groups.Update(ctx, groupID, service.UpdateCommand{
			Name:        req.Name,
			Description: req.Description,
			ExpiresAt:   req.ExpiresAt,
			ClearExpiry: req.ClearExpiry,
		})
	})
}

func (h *Handler) handleAddMembers(w http.ResponseWriter, r *http.Request) {
	h.withActors(w, r, "add members", h.groups.AddMembers)
}

func (h *Handler) handleRemoveMembers(w http.ResponseWriter, r *http.Request) {
	h.withActors(w, r, "remove members", h.groups.RemoveMembers)
}

func (h *Handler) handleAddManagers(w http.ResponseWriter, r *http.Request) {
	h.withActors(w, r, "add managers", func(ctx context.Context, groupID id.CustomGroupID, actors []id.ActorID, _ string) (*models.Group, error) {
		return h.groups.AddManagers(ctx, groupID, actors)
	})
}

func (h *Handler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	reason := strings.TrimSpace(r.URL.Query().Get("reason"))
	h.withActorParam(w, r, "remove member", func(ctx context.Context, groupID id.CustomGroupID, actor id.ActorID) (*models.Group, error) {
		return h.groups.RemoveMembers(ctx, groupID, []id.ActorID{actor}, reason)
	})
}

func (h *Handler) handleRemoveManager(w http.ResponseWriter, r *http.Request) {
	h.withActorParam(w, r, "remove manager", func(ctx context.Context, groupID id.CustomGroupID, actor id.ActorID) (*models.Group, error) {
		return h.groups.RemoveManagers(ctx, groupID, []id.ActorID{actor})
	})
}

func (h *Handler) handleDuplicate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, ok := groupParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[DuplicateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.respond(w, r, http.StatusCreated, "duplicate", func() (*models.Group, error) {
		return h.groups.Duplicate(ctx, groupID, req.Name, req.WithMembers)
	})
}

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, ok := groupParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReasonRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.respond(w, r, http.StatusOK, "archive", func() (*models.Group, error) {
		return h.groups.Archive(ctx, groupID, req.Reason)
	})
}

func (h *Handler) handleReactivate(w http.ResponseWriter, r *http.Request) {
	groupID, ok := groupParam(w, r)
	if !ok {
		return
	}
	h.respond(w, r, http.StatusOK, "reactivate", func() (*models.Group, error) {
		return h.groups.Reactivate(r.Context(), groupID)
	})
}

func (h *Handler) withActors(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, id.CustomGroupID, []id.ActorID, string) (*models.Group, error)) {
	ctx := r.Context()
	groupID, ok := groupParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ActorsRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	actors, err := id.ParseActorIDs(req.Actors)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.respond(w, r, http.StatusOK, op, func() (*models.Group, error) {
		return fn(ctx, groupID, actors, req.Reason)
	})
}

func (h *Handler) withActorParam(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, id.CustomGroupID, id.ActorID) (*models.Group, error)) {
	groupID, ok := groupParam(w, r)
	if !ok {
		return
	}
	actor, err := id.ParseActorID(chi.URLParam(r, "actor"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.respond(w, r, http.StatusOK, op, func() (*models.Group, error) {
		return fn(r.Context(), groupID, actor)
	})
}

func groupParam(w http.ResponseWriter, r *http.Request) (id.CustomGroupID, bool) {
	groupID, err := id.ParseCustomGroupID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return groupID, false
	}
	return groupID, true
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, op string, call func() (*models.Group, error)) {
	ctx := r.Context()
	group, err := call()
	if err != nil {
		h.logger.WarnContext(ctx, "access group "+op+" failed",
			"request_id", requestcontext.RequestID(ctx),
			"group_id", chi.URLParam(r, "id"),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, status, toResponse(ctx, group))
}
