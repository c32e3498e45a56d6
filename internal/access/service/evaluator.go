package service

import (
	"context"
	"time"

	agmodels "stewardship/internal/accessgroup/models"
	"stewardship/internal/platform/tracer"
	"stewardship/internal/record/models"
	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
	"stewardship/pkg/platform/sets"
	"stewardship/pkg/requestcontext"
)

const (
	cacheHit   = "hit"
	cacheMiss  = "miss"
	cacheError = "error"
)

// HasAccess loads the record and evaluates actor against it.
func (s *Service) HasAccess(ctx context.Context, recordID id.RecordID, actor id.ActorID) (bool, error) {
	record, err := s.records.Get(ctx, recordID)
	if err != nil {
		return false, err
	}
	return s.Evaluate(ctx, record, actor)
}

// Evaluate decides whether actor may see record. The access window is
// checked first and binds admins and owners too; then admins, owners and
// co-owners are admitted; then the level decides which grant channels
// count. Records without access state behave as internal.
func (s *Service) Evaluate(ctx context.Context, record *models.Record, actor id.ActorID) (allowed bool, err error) {
	ctx, span := s.tracer.Start(ctx, "access.evaluate",
		tracer.String("record_id", record.ID.String()),
		tracer.String("model", record.Model),
	)
	level := "none"
	defer func() {
		span.SetAttributes(tracer.String("level", level), tracer.Bool("allowed", allowed))
		span.End(err)
		if err == nil {
			s.metrics.IncAccessDecision(level, allowed)
		}
	}()

	access, accessible := record.AccessState()
	if accessible {
		level = access.Level.String()
		now := requestcontext.Now(ctx)
		if access.IsAccessExpired(now) {
			span.AddEvent("window_ended")
			return false, nil
		}
		if access.WindowNotStarted(now) {
			span.AddEvent("window_not_started")
			return false, nil
		}
	}

	admin, err := s.directory.IsAdmin(ctx, actor)
	if err != nil {
		return false, err
	}
	if admin {
		span.AddEvent("admin")
		return true, nil
	}
	if own, ok := record.OwnershipState(); ok && own.IsOwnedBy(actor) {
		span.AddEvent("owner")
		return true, nil
	}
	if !accessible {
		return s.directory.IsRecognizedUser(ctx, actor)
	}

	switch access.Level {
	case models.LevelPublic:
		return true, nil
	case models.LevelInternal:
		return s.directory.IsRecognizedUser(ctx, actor)
	case models.LevelRestricted:
		if access.HasActor(actor) {
			return true, nil
		}
		groups, err := s.directory.GroupsOf(ctx, actor)
		if err != nil {
			return false, err
		}
		if sets.Intersects(groups, access.Groups) {
			return true, nil
		}
		return s.inCustomGroup(ctx, access.CustomGroups, actor)
	case models.LevelPrivate:
		// system groups never grant private records
		if access.HasActor(actor) {
			return true, nil
		}
		return s.inCustomGroup(ctx, access.CustomGroups, actor)
	}
	return false, nil
}

// CanGrantAccess is true for admins, the record's owner and actors already
// holding an explicit grant.
func (s *Service) CanGrantAccess(ctx context.Context, record *models.Record, actor id.ActorID) (bool, error) {
	access, ok := record.AccessState()
	if !ok {
		return false, nil
	}
	if own, ok := record.OwnershipState(); ok && own.IsOwner(actor) {
		return true, nil
	}
	if access.HasActor(actor) {
		return true, nil
	}
	return s.directory.IsAdmin(ctx, actor)
}

// CanManageGroups widens CanGrantAccess to co-owners for the custom group
// replace and clear operations.
func (s *Service) CanManageGroups(ctx context.Context, record *models.Record, actor id.ActorID) (bool, error) {
	access, ok := record.AccessState()
	if !ok {
		return false, nil
	}
	if own, ok := record.OwnershipState(); ok && own.IsOwnedBy(actor) {
		return true, nil
	}
	if access.HasActor(actor) {
		return true, nil
	}
	return s.directory.IsAdmin(ctx, actor)
}

// AccessibleActors returns the effective accessible-actor set of a record:
// explicit actors, members of granted system groups and members of granted
// active custom groups. The result is served from the cache when present and
// is not cached while a granted custom group can still expire.
func (s *Service) AccessibleActors(ctx context.Context, recordID id.RecordID) ([]id.ActorID, error) {
	record, err := s.records.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	access, ok := record.AccessState()
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidState, "model "+record.Model+" does not support access")
	}

	cached, hit, err := s.cache.Get(ctx, recordID)
	switch {
	case err != nil:
		s.metrics.IncAccessCache(cacheError)
		s.logger.WarnContext(ctx, "access cache read failed", "record_id", recordID.String(), "error", err)
	case hit:
		s.metrics.IncAccessCache(cacheHit)
		return cached, nil
	default:
		s.metrics.IncAccessCache(cacheMiss)
	}

	systemMembers, err := s.systemGroupMembers(ctx, access.Groups)
	if err != nil {
		return nil, err
	}
	customMembers, expiring, err := s.customGroupMembers(ctx, access.CustomGroups)
	if err != nil {
		return nil, err
	}
	actors := sets.Union(access.Actors, systemMembers, customMembers)
	if actors == nil {
		actors = []id.ActorID{}
	}
	// a cached set would outlive a granted group's expiry
	if expiring {
		return actors, nil
	}
	if err := s.cache.Set(ctx, recordID, actors); err != nil {
		s.logger.WarnContext(ctx, "access cache write failed", "record_id", recordID.String(), "error", err)
	}
	return actors, nil
}

// CheckGroupAccess reports whether actor reaches the record through any
// group channel, system or custom, regardless of the access level.
func (s *Service) CheckGroupAccess(ctx context.Context, recordID id.RecordID, actor id.ActorID) (bool, error) {
	record, err := s.records.Get(ctx, recordID)
	if err != nil {
		return false, err
	}
	access, ok := record.AccessState()
	if !ok {
		return false, nil
	}
	groups, err := s.directory.GroupsOf(ctx, actor)
	if err != nil {
		return false, err
	}
	if sets.Intersects(groups, access.Groups) {
		return true, nil
	}
	return s.inCustomGroup(ctx, access.CustomGroups, actor)
}

type SystemGroupSummary struct {
	ID        id.GroupID `json:"id"`
	Name      string     `json:"name"`
	UserCount int        `json:"user_count"`
}

type CustomGroupSummary struct {
	ID        id.CustomGroupID `json:"id"`
	Name      string           `json:"name"`
	Active    bool             `json:"active"`
	Type      agmodels.Type    `json:"group_type"`
	UserCount int              `json:"user_count"`
}

// GroupAccessSummary describes the groups granted on a record.
type GroupAccessSummary struct {
	SystemGroups       []SystemGroupSummary `json:"system_groups"`
	CustomGroups       []CustomGroupSummary `json:"custom_groups"`
	TotalUsers         int                  `json:"total_users"`
	ActiveCustomGroups int                  `json:"active_custom_groups"`
}

func (s *Service) GroupAccessSummary(ctx context.Context, recordID id.RecordID) (*GroupAccessSummary, error) {
	record, err := s.records.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	access, ok := record.AccessState()
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidState, "model "+record.Model+" does not support access")
	}

	now := requestcontext.Now(ctx)
	summary := &GroupAccessSummary{
		SystemGroups: []SystemGroupSummary{},
		CustomGroups: []CustomGroupSummary{},
	}
	var users []id.ActorID
	for _, groupID := range access.Groups {
		group, err := s.directory.Group(ctx, groupID)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeInvalidReference) {
				continue
			}
			return nil, err
		}
		summary.SystemGroups = append(summary.SystemGroups, SystemGroupSummary{
			ID:        group.ID,
			Name:      group.Name,
			UserCount: len(group.Members),
		})
		users = sets.Union(users, group.Members)
	}
	for _, groupID := range access.CustomGroups {
		group, err := s.customGroup(ctx, groupID)
		if err != nil {
			return nil, err
		}
		if group == nil {
			continue
		}
		active := grants(group, now)
		summary.CustomGroups = append(summary.CustomGroups, CustomGroupSummary{
			ID:        group.ID,
			Name:      group.Name,
			Active:    active,
			Type:      group.Type,
			UserCount: group.MemberCount(),
		})
		if active {
			summary.ActiveCustomGroups++
			users = sets.Union(users, group.Members)
		}
	}
	summary.TotalUsers = len(users)
	return summary, nil
}

// GroupChanged drops every cached actor set; any record may reference the
// changed group.
func (s *Service) GroupChanged(ctx context.Context, groupID id.CustomGroupID) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.WarnContext(ctx, "access cache invalidation failed",
			"custom_group_id", groupID.String(),
			"error", err,
		)
	}
}

// MembershipChanged drops every cached actor set when a system group gains
// or loses a member.
func (s *Service) MembershipChanged(ctx context.Context, groupID id.GroupID) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.WarnContext(ctx, "access cache invalidation failed",
			"group_id", groupID.String(),
			"error", err,
		)
	}
}

func (s *Service) inCustomGroup(ctx context.Context, groupIDs []id.CustomGroupID, actor id.ActorID) (bool, error) {
	now := requestcontext.Now(ctx)
	for _, groupID := range groupIDs {
		group, err := s.customGroup(ctx, groupID)
		if err != nil {
			return false, err
		}
		if group != nil && grants(group, now) && group.IsMember(actor) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) systemGroupMembers(ctx context.Context, groupIDs []id.GroupID) ([]id.ActorID, error) {
	var members []id.ActorID
	for _, groupID := range groupIDs {
		m, err := s.directory.GroupMembers(ctx, groupID)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeInvalidReference) {
				continue
			}
			return nil, err
		}
		members = sets.Union(members, m)
	}
	return members, nil
}

// customGroupMembers unions the members of the granting custom groups and
// reports whether any of them carries an expiry.
func (s *Service) customGroupMembers(ctx context.Context, groupIDs []id.CustomGroupID) ([]id.ActorID, bool, error) {
	now := requestcontext.Now(ctx)
	var members []id.ActorID
	expiring := false
	for _, groupID := range groupIDs {
		group, err := s.customGroup(ctx, groupID)
		if err != nil {
			return nil, false, err
		}
		if group != nil && grants(group, now) {
			members = sets.Union(members, group.Members)
			expiring = expiring || group.ExpiresAt != nil
		}
	}
	return members, expiring, nil
}

// customGroup resolves a granted custom group. A reference to a group that
// no longer exists resolves to nil.
func (s *Service) customGroup(ctx context.Context, groupID id.CustomGroupID) (*agmodels.Group, error) {
	group, err := s.groups.Get(ctx, groupID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidReference) {
			s.logger.DebugContext(ctx, "dangling custom group reference", "custom_group_id", groupID.String())
			return nil, nil
		}
		return nil, err
	}
	return group, nil
}

// grants is true for active groups. A group past its expiry stops granting
// before the expiry sweep archives it.
func grants(g *agmodels.Group, now time.Time) bool {
	return g.Active && !g.IsExpired(now)
}
