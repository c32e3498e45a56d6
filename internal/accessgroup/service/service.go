// Package service manages custom access groups: creation from scratch or
// from a template, membership and manager changes, duplication, archiving
// and the expiry of temporary groups.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"stewardship/internal/accessgroup/models"
	dirmodels "stewardship/internal/directory/models"
	"stewardship/internal/platform/metrics"
	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
	"stewardship/pkg/platform/sentinel"
	"stewardship/pkg/platform/sets"
	"stewardship/pkg/platform/tx"
	"stewardship/pkg/platform/validation"
	"stewardship/pkg/requestcontext"
)

// Store persists groups.
// Error Contract:
// - FindByID, FindByName and Update return sentinel.ErrNotFound
// - Create and Update return sentinel.ErrAlreadyUsed for a taken name
type Store interface {
	Create(ctx context.Context, group *models.Group) error
	FindByID(ctx context.Context, groupID id.CustomGroupID) (*models.Group, error)
	FindByName(ctx context.Context, name string) (*models.Group, error)
	Update(ctx context.Context, group *models.Group) error
	List(ctx context.Context, filter models.Filter) ([]*models.Group, error)
}

type Directory interface {
	IsAdmin(ctx context.Context, actorID id.ActorID) (bool, error)
	RequireActors(ctx context.Context, actorIDs []id.ActorID) ([]*dirmodels.Actor, error)
}

// Listener is told about every stored change to a group. The access
// evaluator uses it to drop cached accessible-actor sets.
type Listener interface {
	GroupChanged(ctx context.Context, groupID id.CustomGroupID)
}

type Service struct {
	store     Store
	directory Directory
	tx        tx.Runner
	listeners []Listener
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithListener(l Listener) Option {
	return func(s *Service) {
		s.listeners = append(s.listeners, l)
	}
}

func New(store Store, directory Directory, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		store:     store,
		directory: directory,
		tx:        runner,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe adds a listener after construction, for wiring cycles between
// the group service and the access evaluator.
func (s *Service) Subscribe(l Listener) {
	s.listeners = append(s.listeners, l)
}

type CreateCommand struct {
	Name           string
	Description    string
	Type           models.Type
	ProjectName    string
	DepartmentName string
	Members        []id.ActorID
	Managers       []id.ActorID
	ExpiresAt      *time.Time
}

// Create stores a new active group. The caller always becomes a manager.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*models.Group, error) {
	caller := requestcontext.ActorID(ctx)
	if caller.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "acting user is required")
	}
	now := requestcontext.Now(ctx)
	if cmd.Type == "" {
		cmd.Type = models.TypeGeneral
	}
	if cmd.ExpiresAt != nil && !cmd.ExpiresAt.After(now) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "expiry date must be in the future")
	}
	if err := validation.CheckSliceCount("members", len(cmd.Members), validation.MaxActorsPerRequest); err != nil {
		return nil, err
	}

	group := &models.Group{
		ID:             id.CustomGroupID(uuid.New()),
		Name:           strings.TrimSpace(cmd.Name),
		Description:    strings.TrimSpace(cmd.Description),
		Type:           cmd.Type,
		ProjectName:    strings.TrimSpace(cmd.ProjectName),
		DepartmentName: strings.TrimSpace(cmd.DepartmentName),
		Members:        sets.Dedupe(cmd.Members),
		Managers:       sets.Union([]id.ActorID{caller}, cmd.Managers),
		Active:         true,
		ExpiresAt:      cmd.ExpiresAt,
		CreatedBy:      caller,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := group.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.directory.RequireActors(ctx, sets.Union(group.Members, group.Managers)); err != nil {
		return nil, err
	}
	if err := s.create(ctx, group); err != nil {
		return nil, err
	}
	s.logEvent(ctx, "custom_group_created", group, "",
		"type", string(group.Type),
		"members", len(group.Members),
	)
	return group, nil
}

// CreateProjectTeam creates a project group named after the project.
func (s *Service) CreateProjectTeam(ctx context.Context, project string, members []id.ActorID) (*models.Group, error) {
	if strings.TrimSpace(project) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "project name is required")
	}
	return s.Create(ctx, CreateCommand{
		Name:        models.ProjectTeamName(project),
		Description: models.ProjectTeamDescription(project),
		Type:        models.TypeProject,
		ProjectName: project,
		Members:     members,
	})
}

// CreateDepartment creates a department group named after the department.
func (s *Service) CreateDepartment(ctx context.Context, department string, members []id.ActorID) (*models.Group, error) {
	if strings.TrimSpace(department) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "department name is required")
	}
	return s.Create(ctx, CreateCommand{
		Name:           models.DepartmentName(department),
		Description:    models.DepartmentDescription(department),
		Type:           models.TypeDepartment,
		DepartmentName: department,
		Members:        members,
	})
}

// Get returns the group or invalid_reference when it does not exist.
func (s *Service) Get(ctx context.Context, groupID id.CustomGroupID) (*models.Group, error) {
	group, err := s.store.FindByID(ctx, groupID)
	if err != nil {
		return nil, translateFindErr(err, groupID)
	}
	return group, nil
}

// FindByName looks a group up by its case-insensitive name.
func (s *Service) FindByName(ctx context.Context, name string) (*models.Group, error) {
	group, err := s.store.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no access group named "+name)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load custom group")
	}
	return group, nil
}

func (s *Service) List(ctx context.Context, filter models.Filter) ([]*models.Group, error) {
	groups, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list custom groups")
	}
	return groups, nil
}

// CanManage is true for the group's managers and platform admins.
func (s *Service) CanManage(ctx context.Context, group *models.Group, actor id.ActorID) (bool, error) {
	if group.IsManager(actor) {
		return true, nil
	}
	return s.directory.IsAdmin(ctx, actor)
}

type UpdateCommand struct {
	Name        *string
	Description *string
	ExpiresAt   *time.Time
	ClearExpiry bool
}

func (s *Service) Update(ctx context.Context, groupID id.CustomGroupID, cmd UpdateCommand) (*models.Group, error) {
	now := requestcontext.Now(ctx)
	if cmd.ExpiresAt != nil && !cmd.ExpiresAt.After(now) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "expiry date must be in the future")
	}
	return s.mutate(ctx, groupID, "custom_group_updated", "", func(g *models.Group) (bool, error) {
		if cmd.Name != nil {
			g.Name = strings.TrimSpace(*cmd.Name)
		}
		if cmd.Description != nil {
			g.Description = strings.TrimSpace(*cmd.Description)
		}
		switch {
		case cmd.ClearExpiry:
			g.ExpiresAt = nil
		case cmd.ExpiresAt != nil:
			g.ExpiresAt = cmd.ExpiresAt
		}
		return true, nil
	})
}

// AddMembers adds actors to the group. Actors that are already members are
// skipped; adding nobody new stores nothing.
func (s *Service) AddMembers(ctx context.Context, groupID id.CustomGroupID, actors []id.ActorID, reason string) (*models.Group, error) {
	if err := checkActors(actors, reason); err != nil {
		return nil, err
	}
	if _, err := s.directory.RequireActors(ctx, actors); err != nil {
		return nil, err
	}
	return s.mutate(ctx, groupID, "custom_group_members_added", reason, func(g *models.Group) (bool, error) {
		var added []id.ActorID
		g.Members, added = sets.AddAll(g.Members, actors)
		return len(added) > 0, nil
	})
}

// RemoveMembers removes actors from the group. An active group keeps at
// least one member.
func (s *Service) RemoveMembers(ctx context.Context, groupID id.CustomGroupID, actors []id.ActorID, reason string) (*models.Group, error) {
	if err := checkActors(actors, reason); err != nil {
		return nil, err
	}
	return s.mutate(ctx, groupID, "custom_group_members_removed", reason, func(g *models.Group) (bool, error) {
		var removed []id.ActorID
		g.Members, removed = sets.RemoveAll(g.Members, actors)
		if len(removed) > 0 && g.Active && len(g.Members) == 0 {
			return false, dErrors.New(dErrors.CodeInvalidState, "cannot remove every member of an active group; archive it instead")
		}
		return len(removed) > 0, nil
	})
}

func (s *Service) AddMember(ctx context.Context, groupID id.CustomGroupID, actor id.ActorID, reason string) (*models.Group, error) {
	return s.AddMembers(ctx, groupID, []id.ActorID{actor}, reason)
}

func (s *Service) RemoveMember(ctx context.Context, groupID id.CustomGroupID, actor id.ActorID, reason string) (*models.Group, error) {
	return s.RemoveMembers(ctx, groupID, []id.ActorID{actor}, reason)
}

func (s *Service) AddManagers(ctx context.Context, groupID id.CustomGroupID, actors []id.ActorID) (*models.Group, error) {
	if err := checkActors(actors, ""); err != nil {
		return nil, err
	}
	if _, err := s.directory.RequireActors(ctx, actors); err != nil {
		return nil, err
	}
	return s.mutate(ctx, groupID, "custom_group_managers_added", "", func(g *models.Group) (bool, error) {
		var added []id.ActorID
		g.Managers, added = sets.AddAll(g.Managers, actors)
		return len(added) > 0, nil
	})
}

// RemoveManagers removes explicit managers. The last one cannot be removed.
func (s *Service) RemoveManagers(ctx context.Context, groupID id.CustomGroupID, actors []id.ActorID) (*models.Group, error) {
	if err := checkActors(actors, ""); err != nil {
		return nil, err
	}
	return s.mutate(ctx, groupID, "custom_group_managers_removed", "", func(g *models.Group) (bool, error) {
		var removed []id.ActorID
		g.Managers, removed = sets.RemoveAll(g.Managers, actors)
		if len(removed) > 0 && len(g.Managers) == 0 {
			return false, dErrors.New(dErrors.CodeInvalidState, "cannot remove the last manager of a group")
		}
		return len(removed) > 0, nil
	})
}

// Duplicate copies a group's configuration under a new name. Without
// members the copy starts archived, since an active group cannot be empty;
// it can be reactivated once members are added.
func (s *Service) Duplicate(ctx context.Context, groupID id.CustomGroupID, name string, withMembers bool) (*models.Group, error) {
	caller := requestcontext.ActorID(ctx)
	source, err := s.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManager(ctx, source, caller); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	name = strings.TrimSpace(name)
	if name == "" {
		name = source.Name + " (copy)"
	}
	copied := source.Clone()
	copied.ID = id.CustomGroupID(uuid.New())
	copied.Name = name
	copied.Managers = sets.Union([]id.ActorID{caller}, source.Managers)
	copied.CreatedBy = caller
	copied.CreatedAt = now
	copied.UpdatedAt = now
	copied.ArchivedAt = nil
	copied.Active = true
	if !withMembers {
		copied.Members = nil
		copied.Active = false
	}
	if copied.ExpiresAt != nil && !copied.ExpiresAt.After(now) {
		copied.ExpiresAt = nil
		if copied.Type == models.TypeTemporary {
			return nil, dErrors.New(dErrors.CodeInvalidState, "cannot duplicate an expired temporary group")
		}
	}
	if err := copied.Validate(); err != nil {
		return nil, err
	}
	if err := s.create(ctx, copied); err != nil {
		return nil, err
	}
	s.logEvent(ctx, "custom_group_duplicated", copied, "",
		"source_group_id", source.ID.String(),
		"with_members", withMembers,
	)
	return copied, nil
}

// Archive deactivates the group. Records keep the reference but its members
// stop granting access.
func (s *Service) Archive(ctx context.Context, groupID id.CustomGroupID, reason string) (*models.Group, error) {
	if err := validation.CheckStringLength("reason", reason, validation.MaxReasonLength); err != nil {
		return nil, err
	}
	return s.mutate(ctx, groupID, "custom_group_archived", reason, func(g *models.Group) (bool, error) {
		if !g.Active {
			return false, nil
		}
		archive(g, requestcontext.Now(ctx))
		return true, nil
	})
}

// Reactivate restores an archived group. It needs at least one member.
func (s *Service) Reactivate(ctx context.Context, groupID id.CustomGroupID) (*models.Group, error) {
	return s.mutate(ctx, groupID, "custom_group_reactivated", "", func(g *models.Group) (bool, error) {
		if g.Active {
			return false, nil
		}
		if g.ExpiresAt != nil && !g.ExpiresAt.After(requestcontext.Now(ctx)) {
			return false, dErrors.New(dErrors.CodeInvalidState, "cannot reactivate a group past its expiry; extend it first")
		}
		g.Active = true
		g.ArchivedAt = nil
		return true, nil
	})
}

// ExpireDue archives every active group whose expiry has passed and returns
// how many were archived. It runs without a caller and checks no manager.
func (s *Service) ExpireDue(ctx context.Context) (int, error) {
	now := requestcontext.Now(ctx)
	groups, err := s.store.List(ctx, models.Filter{ActiveOnly: true})
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list custom groups")
	}
	expired := 0
	for _, candidate := range groups {
		if !candidate.IsExpired(now) {
			continue
		}
		archived := false
		err := s.tx.RunInTx(ctx, lockKey(candidate.ID), func(ctx context.Context) error {
			g, err := s.store.FindByID(ctx, candidate.ID)
			if err != nil {
				return translateFindErr(err, candidate.ID)
			}
			if !g.IsExpired(now) {
				return nil
			}
			archive(g, now)
			if err := s.store.Update(ctx, g); err != nil {
				return translateUpdateErr(err, g)
			}
			archived = true
			s.logEvent(ctx, "custom_group_expired", g, "")
			return nil
		})
		if err != nil {
			return expired, err
		}
		if archived {
			expired++
			s.notify(ctx, candidate.ID)
		}
	}
	s.metrics.AddGroupsExpired(expired)
	return expired, nil
}

func archive(g *models.Group, now time.Time) {
	g.Active = false
	g.ArchivedAt = &now
}

func (s *Service) create(ctx context.Context, group *models.Group) error {
	if err := s.store.Create(ctx, group); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return dErrors.New(dErrors.CodeConflict, "an access group named "+group.Name+" already exists")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create custom group")
	}
	return nil
}

// mutate applies fn to a copy of the group under the group's lock. The
// caller must manage the group; fn reports whether anything changed.
// Listeners hear about the change once the unit of work has committed.
func (s *Service) mutate(ctx context.Context, groupID id.CustomGroupID, event, reason string, fn func(g *models.Group) (bool, error)) (*models.Group, error) {
	caller := requestcontext.ActorID(ctx)
	var result *models.Group
	stored := false
	err := s.tx.RunInTx(ctx, lockKey(groupID), func(ctx context.Context) error {
		current, err := s.store.FindByID(ctx, groupID)
		if err != nil {
			return translateFindErr(err, groupID)
		}
		if err := s.requireManager(ctx, current, caller); err != nil {
			return err
		}
		next := current.Clone()
		changed, err := fn(next)
		if err != nil {
			return err
		}
		if !changed {
			result = current
			return nil
		}
		if err := next.Validate(); err != nil {
			return err
		}
		next.UpdatedAt = requestcontext.Now(ctx)
		if err := s.store.Update(ctx, next); err != nil {
			return translateUpdateErr(err, next)
		}
		result = next
		stored = true
		s.logEvent(ctx, event, next, reason)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if stored {
		s.notify(ctx, groupID)
	}
	return result, nil
}

func (s *Service) requireManager(ctx context.Context, group *models.Group, caller id.ActorID) error {
	ok, err := s.CanManage(ctx, group, caller)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeForbidden, "only the group's managers or an administrator can change it")
	}
	return nil
}

func (s *Service) notify(ctx context.Context, groupID id.CustomGroupID) {
	for _, l := range s.listeners {
		l.GroupChanged(ctx, groupID)
	}
}

func (s *Service) logEvent(ctx context.Context, event string, g *models.Group, reason string, attrs ...any) {
	args := []any{
		"group_id", g.ID.String(),
		"group", g.Name,
		"active", g.Active,
		"actor_id", requestcontext.ActorID(ctx).String(),
		"request_id", requestcontext.RequestID(ctx),
	}
	if reason != "" {
		args = append(args, "reason", reason)
	}
	s.logger.InfoContext(ctx, event, append(args, attrs...)...)
}

func checkActors(actors []id.ActorID, reason string) error {
	if len(actors) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "at least one actor is required")
	}
	if err := validation.CheckSliceCount("actors", len(actors), validation.MaxActorsPerRequest); err != nil {
		return err
	}
	return validation.CheckStringLength("reason", reason, validation.MaxReasonLength)
}

func lockKey(groupID id.CustomGroupID) string {
	return "custom_group:" + groupID.String()
}

func translateFindErr(err error, groupID id.CustomGroupID) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeInvalidReference, "custom group "+groupID.String()+" does not exist")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load custom group")
}

func translateUpdateErr(err error, g *models.Group) error {
	switch {
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "an access group named "+g.Name+" already exists")
	case errors.Is(err, sentinel.ErrNotFound):
		return translateFindErr(err, g.ID)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update custom group")
}
