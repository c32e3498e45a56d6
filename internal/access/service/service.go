// Package service evaluates and manages record-level access: the access
// level, the three grant channels (actors, system groups, custom groups) and
// the validity window. Every mutation runs in the record's unit of work and
// appends one access log entry.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"stewardship/internal/access/cache"
	agmodels "stewardship/internal/accessgroup/models"
	agservice "stewardship/internal/accessgroup/service"
	auditmodels "stewardship/internal/auditlog/models"
	dirmodels "stewardship/internal/directory/models"
	"stewardship/internal/platform/metrics"
	"stewardship/internal/platform/tracer"
	"stewardship/internal/record/models"
	recordservice "stewardship/internal/record/service"
	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
	"stewardship/pkg/platform/sets"
	"stewardship/pkg/platform/validation"
	"stewardship/pkg/requestcontext"
)

// Records is the record unit of work.
type Records interface {
	Get(ctx context.Context, recordID id.RecordID) (*models.Record, error)
	Mutate(ctx context.Context, recordID id.RecordID, capability models.Capability, fn recordservice.Mutation) (*models.Record, error)
}

// Directory resolves actors and system groups.
type Directory interface {
	IsAdmin(ctx context.Context, actorID id.ActorID) (bool, error)
	IsRecognizedUser(ctx context.Context, actorID id.ActorID) (bool, error)
	GroupsOf(ctx context.Context, actorID id.ActorID) ([]id.GroupID, error)
	Actor(ctx context.Context, actorID id.ActorID) (*dirmodels.Actor, error)
	RequireActors(ctx context.Context, actorIDs []id.ActorID) ([]*dirmodels.Actor, error)
	Group(ctx context.Context, groupID id.GroupID) (*dirmodels.Group, error)
	GroupMembers(ctx context.Context, groupID id.GroupID) ([]id.ActorID, error)
	DisplayNames(ctx context.Context, actorIDs []id.ActorID) []string
}

// CustomGroups resolves and creates custom access groups.
type CustomGroups interface {
	Get(ctx context.Context, groupID id.CustomGroupID) (*agmodels.Group, error)
	Create(ctx context.Context, cmd agservice.CreateCommand) (*agmodels.Group, error)
}

type Service struct {
	records   Records
	directory Directory
	groups    CustomGroups
	cache     cache.Cache
	tracer    tracer.Tracer
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

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithCache replaces the default in-memory actor-set cache.
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func New(records Records, directory Directory, groups CustomGroups, opts ...Option) *Service {
	s := &Service{
		records:   records,
		directory: directory,
		groups:    groups,
		cache:     cache.NewInMemory(30 * time.Second),
		tracer:    tracer.NewNoop(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Window bounds a grant. Nil bounds are left as they are.
type Window struct {
	Start *time.Time
	End   *time.Time
}

func (w Window) IsZero() bool {
	return w.Start == nil && w.End == nil
}

func (w Window) validate() error {
	return models.ValidateWindow(w.Start, w.End)
}

// apply overwrites the provided bounds and reports whether either changed.
func (w Window) apply(a *models.Access) (bool, error) {
	changed := false
	if w.Start != nil && !sameTime(a.WindowStart, w.Start) {
		a.WindowStart = models.TimePtr(*w.Start)
		changed = true
	}
	if w.End != nil && !sameTime(a.WindowEnd, w.End) {
		a.WindowEnd = models.TimePtr(*w.End)
		changed = true
	}
	if err := models.ValidateWindow(a.WindowStart, a.WindowEnd); err != nil {
		return false, err
	}
	return changed, nil
}

// GrantActor gives actor an explicit grant. Granting twice keeps one grant
// and logs both calls.
func (s *Service) GrantActor(ctx context.Context, recordID id.RecordID, actor id.ActorID, window Window, reason string) (*models.Record, error) {
	if err := checkInput(reason, window); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "access_granted", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.requireGrant(ctx, r, "grant access to"); err != nil {
			return nil, err
		}
		if _, err := s.directory.Actor(ctx, actor); err != nil {
			return nil, err
		}
		access := r.Access
		access.Actors, _ = sets.Add(access.Actors, actor)
		if _, err := window.apply(access); err != nil {
			return nil, err
		}
		return []auditmodels.Change{{
			Kind:      auditmodels.KindAccess,
			Action:    auditmodels.ActionGrantUser,
			NewActors: []id.ActorID{actor},
			Reason:    reason,
		}}, nil
	})
}

// RevokeActor removes actor's explicit grant. Revoking an absent grant is
// still logged.
func (s *Service) RevokeActor(ctx context.Context, recordID id.RecordID, actor id.ActorID, reason string) (*models.Record, error) {
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "access_revoked", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.requireGrant(ctx, r, "revoke access to"); err != nil {
			return nil, err
		}
		if _, err := s.directory.Actor(ctx, actor); err != nil {
			return nil, err
		}
		r.Access.Actors, _ = sets.Remove(r.Access.Actors, actor)
		return []auditmodels.Change{{
			Kind:      auditmodels.KindAccess,
			Action:    auditmodels.ActionRevokeUser,
			OldActors: []id.ActorID{actor},
			Reason:    reason,
		}}, nil
	})
}

func (s *Service) GrantGroup(ctx context.Context, recordID id.RecordID, groupID id.GroupID, window Window, reason string) (*models.Record, error) {
	if err := checkInput(reason, window); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "group_access_granted", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.requireGrant(ctx, r, "grant access to"); err != nil {
			return nil, err
		}
		if _, err := s.directory.Group(ctx, groupID); err != nil {
			return nil, err
		}
		access := r.Access
		access.Groups, _ = sets.Add(access.Groups, groupID)
		if _, err := window.apply(access); err != nil {
			return nil, err
		}
		return []auditmodels.Change{{
			Kind:   auditmodels.KindAccess,
			Action: auditmodels.ActionGrantGroup,
			Groups: []id.GroupID{groupID},
			Reason: reason,
		}}, nil
	})
}

func (s *Service) RevokeGroup(ctx context.Context, recordID id.RecordID, groupID id.GroupID, reason string) (*models.Record, error) {
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "group_access_revoked", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.requireGrant(ctx, r, "revoke access to"); err != nil {
			return nil, err
		}
		if _, err := s.directory.Group(ctx, groupID); err != nil {
			return nil, err
		}
		r.Access.Groups, _ = sets.Remove(r.Access.Groups, groupID)
		return []auditmodels.Change{{
			Kind:   auditmodels.KindAccess,
			Action: auditmodels.ActionRevokeGroup,
			Groups: []id.GroupID{groupID},
			Reason: reason,
		}}, nil
	})
}

// GrantCustomGroup attaches an active custom group to the record.
func (s *Service) GrantCustomGroup(ctx context.Context, recordID id.RecordID, groupID id.CustomGroupID, window Window, reason string) (*models.Record, error) {
	if err := checkInput(reason, window); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "custom_group_access_granted", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.requireGrant(ctx, r, "grant access to"); err != nil {
			return nil, err
		}
		group, err := s.groups.Get(ctx, groupID)
		if err != nil {
			return nil, err
		}
		if !grants(group, requestcontext.Now(ctx)) {
			return nil, dErrors.New(dErrors.CodeInvalidState, "cannot grant access to inactive group "+group.Name)
		}
		access := r.Access
		access.CustomGroups, _ = sets.Add(access.CustomGroups, groupID)
		if _, err := window.apply(access); err != nil {
			return nil, err
		}
		return []auditmodels.Change{{
			Kind:         auditmodels.KindAccess,
			Action:       auditmodels.ActionGrantCustomGroup,
			CustomGroups: []id.CustomGroupID{groupID},
			Reason:       reason,
		}}, nil
	})
}

// RevokeCustomGroup detaches a custom group. Archived groups can be
// detached; groups that do not exist cannot.
func (s *Service) RevokeCustomGroup(ctx context.Context, recordID id.RecordID, groupID id.CustomGroupID, reason string) (*models.Record, error) {
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "custom_group_access_revoked", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.requireGrant(ctx, r, "revoke access to"); err != nil {
			return nil, err
		}
		if _, err := s.groups.Get(ctx, groupID); err != nil {
			return nil, err
		}
		r.Access.CustomGroups, _ = sets.Remove(r.Access.CustomGroups, groupID)
		return []auditmodels.Change{{
			Kind:         auditmodels.KindAccess,
			Action:       auditmodels.ActionRevokeCustomGroup,
			CustomGroups: []id.CustomGroupID{groupID},
			Reason:       reason,
		}}, nil
	})
}

// AttachGroupCommand describes a custom group created for one record.
type AttachGroupCommand struct {
	Name    string
	Type    agmodels.Type
	Members []id.ActorID
	Reason  string
}

// CreateAndAttachCustomGroup creates a custom group managed by the caller and
// grants it on the record in the same unit of work.
func (s *Service) CreateAndAttachCustomGroup(ctx context.Context, recordID id.RecordID, cmd AttachGroupCommand) (*models.Record, *agmodels.Group, error) {
	if err := checkReason(cmd.Reason); err != nil {
		return nil, nil, err
	}
	if cmd.Type == "" {
		cmd.Type = agmodels.TypeCustom
	}
	var created *agmodels.Group
	record, err := s.mutate(ctx, recordID, "custom_group_created_and_attached", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.requireGrant(ctx, r, "create access groups for"); err != nil {
			return nil, err
		}
		group, err := s.groups.Create(ctx, agservice.CreateCommand{
			Name:        cmd.Name,
			Description: "Access group created for " + r.Model + " record",
			Type:        cmd.Type,
			Members:     cmd.Members,
		})
		if err != nil {
			return nil, err
		}
		created = group
		r.Access.CustomGroups, _ = sets.Add(r.Access.CustomGroups, group.ID)
		return []auditmodels.Change{{
			Kind:         auditmodels.KindAccess,
			Action:       auditmodels.ActionCreateAssignCustomGroup,
			NewActors:    group.Members,
			CustomGroups: []id.CustomGroupID{group.ID},
			ExtraInfo:    "Created group: " + group.Name,
			Reason:       cmd.Reason,
		}}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return record, created, nil
}

func (s *Service) SetLevel(ctx context.Context, recordID id.RecordID, level models.Level, reason string) (*models.Record, error) {
	if !level.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid access level: "+string(level))
	}
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "access_level_changed", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.requireGrant(ctx, r, "change the access level of"); err != nil {
			return nil, err
		}
		old := r.Access.Level
		r.Access.Level = level
		return []auditmodels.Change{{
			Kind:      auditmodels.KindAccess,
			Action:    auditmodels.ActionChangeLevel,
			ExtraInfo: "From " + old.String() + " to " + level.String(),
			Reason:    reason,
		}}, nil
	})
}

// SetWindow replaces both window bounds; a nil bound clears it.
func (s *Service) SetWindow(ctx context.Context, recordID id.RecordID, window Window, reason string) (*models.Record, error) {
	if err := checkInput(reason, window); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "access_window_changed", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.requireGrant(ctx, r, "change the access window of"); err != nil {
			return nil, err
		}
		r.Access.WindowStart = window.Start
		r.Access.WindowEnd = window.End
		return []auditmodels.Change{{
			Kind:      auditmodels.KindAccess,
			Action:    auditmodels.ActionChangeDuration,
			ExtraInfo: "Start: " + formatBound(window.Start) + ", End: " + formatBound(window.End),
			Reason:    reason,
		}}, nil
	})
}

// ApplyCommand is a complete access configuration for one record. Grants
// are added to the existing ones; a non-zero Window replaces both bounds.
type ApplyCommand struct {
	Level        models.Level
	Actors       []id.ActorID
	Groups       []id.GroupID
	CustomGroups []id.CustomGroupID
	Window       Window
	Reason       string
}

func (c ApplyCommand) validate() error {
	if !c.Level.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid access level: "+string(c.Level))
	}
	if err := checkInput(c.Reason, c.Window); err != nil {
		return err
	}
	if err := validation.CheckSliceCount("actors", len(c.Actors), validation.MaxActorsPerRequest); err != nil {
		return err
	}
	return validation.CheckSliceCount("groups", len(c.Groups)+len(c.CustomGroups), validation.MaxGroupsPerRequest)
}

// ApplyAccess sets the level, grants and window in one change. Every
// referenced actor and group is resolved before the record is touched, so
// an unknown or inactive reference leaves the record and its log as they
// were.
func (s *Service) ApplyAccess(ctx context.Context, recordID id.RecordID, cmd ApplyCommand) (*models.Record, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	actors := sets.Dedupe(cmd.Actors)
	groups := sets.Dedupe(cmd.Groups)
	customGroups := sets.Dedupe(cmd.CustomGroups)

	return s.mutate(ctx, recordID, "access_applied", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.requireGrant(ctx, r, "change access to"); err != nil {
			return nil, err
		}
		if len(actors) > 0 {
			if _, err := s.directory.RequireActors(ctx, actors); err != nil {
				return nil, err
			}
		}
		for _, groupID := range groups {
			if _, err := s.directory.Group(ctx, groupID); err != nil {
				return nil, err
			}
		}
		now := requestcontext.Now(ctx)
		for _, groupID := range customGroups {
			group, err := s.groups.Get(ctx, groupID)
			if err != nil {
				return nil, err
			}
			if !grants(group, now) {
				return nil, dErrors.New(dErrors.CodeInvalidState, "cannot grant access to inactive group "+group.Name)
			}
		}

		access := r.Access
		changes := []auditmodels.Change{{
			Kind:      auditmodels.KindAccess,
			Action:    auditmodels.ActionChangeLevel,
			ExtraInfo: "From " + access.Level.String() + " to " + cmd.Level.String(),
			Reason:    cmd.Reason,
		}}
		access.Level = cmd.Level

		var added []id.ActorID
		access.Actors, added = sets.AddAll(access.Actors, actors)
		if len(added) > 0 {
			changes = append(changes, auditmodels.Change{
				Kind:      auditmodels.KindAccess,
				Action:    auditmodels.ActionBulkGrantUsers,
				NewActors: added,
				ExtraInfo: "Granted access to: " + strings.Join(s.directory.DisplayNames(ctx, added), ", "),
				Reason:    cmd.Reason,
			})
		}
		for _, groupID := range groups {
			access.Groups, _ = sets.Add(access.Groups, groupID)
			changes = append(changes, auditmodels.Change{
				Kind:   auditmodels.KindAccess,
				Action: auditmodels.ActionGrantGroup,
				Groups: []id.GroupID{groupID},
				Reason: cmd.Reason,
			})
		}
		for _, groupID := range customGroups {
			access.CustomGroups, _ = sets.Add(access.CustomGroups, groupID)
			changes = append(changes, auditmodels.Change{
				Kind:         auditmodels.KindAccess,
				Action:       auditmodels.ActionGrantCustomGroup,
				CustomGroups: []id.CustomGroupID{groupID},
				Reason:       cmd.Reason,
			})
		}
		if !cmd.Window.IsZero() {
			access.WindowStart = cmd.Window.Start
			access.WindowEnd = cmd.Window.End
			changes = append(changes, auditmodels.Change{
				Kind:      auditmodels.KindAccess,
				Action:    auditmodels.ActionChangeDuration,
				ExtraInfo: "Start: " + formatBound(access.WindowStart) + ", End: " + formatBound(access.WindowEnd),
				Reason:    cmd.Reason,
			})
		}
		return changes, nil
	})
}

// BulkGrant grants several actors at once. Only actors without a grant are
// added and logged; when none are new but the window moved, the window
// change is logged instead.
func (s *Service) BulkGrant(ctx context.Context, recordID id.RecordID, actors []id.ActorID, window Window, reason string) (*models.Record, error) {
	if err := checkActors(actors); err != nil {
		return nil, err
	}
	if err := checkInput(reason, window); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "access_bulk_granted", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.requireGrant(ctx, r, "grant access to"); err != nil {
			return nil, err
		}
		if _, err := s.directory.RequireActors(ctx, actors); err != nil {
			return nil, err
		}
		access := r.Access
		var added []id.ActorID
		access.Actors, added = sets.AddAll(access.Actors, actors)
		windowChanged, err := window.apply(access)
		if err != nil {
			return nil, err
		}
		switch {
		case len(added) > 0:
			return []auditmodels.Change{{
				Kind:      auditmodels.KindAccess,
				Action:    auditmodels.ActionBulkGrantUsers,
				NewActors: added,
				ExtraInfo: "Granted access to: " + strings.Join(s.directory.DisplayNames(ctx, added), ", "),
				Reason:    reason,
			}}, nil
		case windowChanged:
			return []auditmodels.Change{{
				Kind:      auditmodels.KindAccess,
				Action:    auditmodels.ActionChangeDuration,
				ExtraInfo: "Start: " + formatBound(access.WindowStart) + ", End: " + formatBound(access.WindowEnd),
				Reason:    reason,
			}}, nil
		}
		return nil, nil
	})
}

// BulkRevoke removes several explicit grants. Actors without a grant are
// ignored; nothing is logged when none had one.
func (s *Service) BulkRevoke(ctx context.Context, recordID id.RecordID, actors []id.ActorID, reason string) (*models.Record, error) {
	if err := checkActors(actors); err != nil {
		return nil, err
	}
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "access_bulk_revoked", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.requireGrant(ctx, r, "revoke access to"); err != nil {
			return nil, err
		}
		var removed []id.ActorID
		r.Access.Actors, removed = sets.RemoveAll(r.Access.Actors, actors)
		if len(removed) == 0 {
			return nil, nil
		}
		return []auditmodels.Change{{
			Kind:      auditmodels.KindAccess,
			Action:    auditmodels.ActionBulkRevokeUsers,
			OldActors: removed,
			ExtraInfo: "Revoked access from: " + strings.Join(s.directory.DisplayNames(ctx, removed), ", "),
			Reason:    reason,
		}}, nil
	})
}

// ReplaceCustomGroups swaps the record's custom groups for groupIDs. Every
// group must exist and be active.
func (s *Service) ReplaceCustomGroups(ctx context.Context, recordID id.RecordID, groupIDs []id.CustomGroupID, reason string) (*models.Record, error) {
	if err := validation.CheckSliceCount("custom groups", len(groupIDs), validation.MaxGroupsPerRequest); err != nil {
		return nil, err
	}
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	groupIDs = sets.Dedupe(groupIDs)
	if groupIDs == nil {
		groupIDs = []id.CustomGroupID{}
	}
	return s.mutate(ctx, recordID, "custom_groups_replaced", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.requireManageGroups(ctx, r); err != nil {
			return nil, err
		}
		now := requestcontext.Now(ctx)
		newNames := make([]string, 0, len(groupIDs))
		var inactive []string
		for _, groupID := range groupIDs {
			group, err := s.groups.Get(ctx, groupID)
			if err != nil {
				return nil, err
			}
			if !grants(group, now) {
				inactive = append(inactive, group.Name)
			}
			newNames = append(newNames, group.Name)
		}
		if len(inactive) > 0 {
			return nil, dErrors.New(dErrors.CodeInvalidState, "cannot attach inactive access groups: "+strings.Join(inactive, ", "))
		}
		oldNames, err := s.customGroupNames(ctx, r.Access.CustomGroups)
		if err != nil {
			return nil, err
		}
		r.Access.CustomGroups = groupIDs
		return []auditmodels.Change{{
			Kind:         auditmodels.KindAccess,
			Action:       auditmodels.ActionReplaceCustomGroups,
			CustomGroups: groupIDs,
			ExtraInfo:    "Replaced groups: " + strings.Join(oldNames, ", ") + " → " + strings.Join(newNames, ", "),
			Reason:       reason,
		}}, nil
	})
}

// ClearCustomGroups detaches every custom group. Nothing is logged when the
// record had none.
func (s *Service) ClearCustomGroups(ctx context.Context, recordID id.RecordID, reason string) (*models.Record, error) {
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "custom_groups_cleared", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.requireManageGroups(ctx, r); err != nil {
			return nil, err
		}
		old := r.Access.CustomGroups
		if len(old) == 0 {
			return nil, nil
		}
		names, err := s.customGroupNames(ctx, old)
		if err != nil {
			return nil, err
		}
		r.Access.CustomGroups = []id.CustomGroupID{}
		return []auditmodels.Change{{
			Kind:         auditmodels.KindAccess,
			Action:       auditmodels.ActionClearCustomGroups,
			CustomGroups: old,
			ExtraInfo:    "Cleared all custom groups: " + strings.Join(names, ", "),
			Reason:       reason,
		}}, nil
	})
}

func (s *Service) mutate(ctx context.Context, recordID id.RecordID, event string, fn recordservice.Mutation) (*models.Record, error) {
	record, err := s.records.Mutate(ctx, recordID, models.CapabilityAccess, fn)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, recordID); err != nil {
		s.logger.WarnContext(ctx, "access cache invalidation failed", "record_id", recordID.String(), "error", err)
	}
	s.logger.InfoContext(ctx, event,
		"record_id", recordID.String(),
		"model", record.Model,
		"level", record.Access.Level.String(),
		"actor_id", requestcontext.ActorID(ctx).String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return record, nil
}

func (s *Service) requireGrant(ctx context.Context, r *models.Record, verb string) error {
	ok, err := s.CanGrantAccess(ctx, r, requestcontext.ActorID(ctx))
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeForbidden, "you do not have permission to "+verb+" this record")
	}
	return nil
}

func (s *Service) requireManageGroups(ctx context.Context, r *models.Record) error {
	ok, err := s.CanManageGroups(ctx, r, requestcontext.ActorID(ctx))
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeForbidden, "you do not have permission to manage access groups for this record")
	}
	return nil
}

// customGroupNames names the groups for log text; missing groups are shown
// by ID.
func (s *Service) customGroupNames(ctx context.Context, groupIDs []id.CustomGroupID) ([]string, error) {
	names := make([]string, 0, len(groupIDs))
	for _, groupID := range groupIDs {
		group, err := s.customGroup(ctx, groupID)
		if err != nil {
			return nil, err
		}
		if group == nil {
			names = append(names, groupID.String())
			continue
		}
		names = append(names, group.Name)
	}
	return names, nil
}

func checkReason(reason string) error {
	return validation.CheckStringLength("reason", reason, validation.MaxReasonLength)
}

func checkInput(reason string, window Window) error {
	if err := checkReason(reason); err != nil {
		return err
	}
	return window.validate()
}

func checkActors(actors []id.ActorID) error {
	if len(actors) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "at least one user must be specified")
	}
	return validation.CheckSliceCount("actors", len(actors), validation.MaxActorsPerRequest)
}

func formatBound(t *time.Time) string {
	if t == nil {
		return "not set"
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
