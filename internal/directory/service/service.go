// Package service resolves actors and system groups for the stewardship
// capabilities: existence, display names, group memberships and the admin
// and recognized-user flags.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"stewardship/internal/directory/models"
	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
	"stewardship/pkg/platform/sentinel"
	"stewardship/pkg/requestcontext"
)

// Store is the persistence contract the directory needs.
type Store interface {
	CreateActor(ctx context.Context, actor *models.Actor) error
	UpdateActor(ctx context.Context, actor *models.Actor) error
	FindActor(ctx context.Context, actorID id.ActorID) (*models.Actor, error)
	ListActors(ctx context.Context) ([]*models.Actor, error)
	CreateGroup(ctx context.Context, group *models.Group) error
	FindGroup(ctx context.Context, groupID id.GroupID) (*models.Group, error)
	ListGroups(ctx context.Context) ([]*models.Group, error)
	AddMember(ctx context.Context, groupID id.GroupID, actorID id.ActorID) error
	RemoveMember(ctx context.Context, groupID id.GroupID, actorID id.ActorID) error
}

// Listener is told when a system group gains or loses a member.
type Listener interface {
	MembershipChanged(ctx context.Context, groupID id.GroupID)
}

type Service struct {
	store     Store
	listeners []Listener
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithListener(l Listener) Option {
	return func(s *Service) {
		s.listeners = append(s.listeners, l)
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe adds a listener after construction. The access evaluator is
// built after the directory, so it subscribes here.
func (s *Service) Subscribe(l Listener) {
	s.listeners = append(s.listeners, l)
}

// Actor returns the actor or an invalid_reference error when unknown.
func (s *Service) Actor(ctx context.Context, actorID id.ActorID) (*models.Actor, error) {
	actor, err := s.store.FindActor(ctx, actorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeInvalidReference, "actor "+actorID.String()+" does not exist")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load actor")
	}
	return actor, nil
}

// RequireActors loads every actor, failing on the first unknown ID.
func (s *Service) RequireActors(ctx context.Context, actorIDs []id.ActorID) ([]*models.Actor, error) {
	actors := make([]*models.Actor, 0, len(actorIDs))
	for _, actorID := range actorIDs {
		actor, err := s.Actor(ctx, actorID)
		if err != nil {
			return nil, err
		}
		actors = append(actors, actor)
	}
	return actors, nil
}

func (s *Service) ActorExists(ctx context.Context, actorID id.ActorID) (bool, error) {
	_, err := s.store.FindActor(ctx, actorID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load actor")
}

// IsAdmin reports the platform-admin flag. Unknown actors are not admins.
func (s *Service) IsAdmin(ctx context.Context, actorID id.ActorID) (bool, error) {
	actor, err := s.lookup(ctx, actorID)
	if err != nil || actor == nil {
		return false, err
	}
	return actor.Admin, nil
}

// IsRecognizedUser is true for known, non-anonymous actors.
func (s *Service) IsRecognizedUser(ctx context.Context, actorID id.ActorID) (bool, error) {
	actor, err := s.lookup(ctx, actorID)
	if err != nil || actor == nil {
		return false, err
	}
	return actor.IsRecognizedUser(), nil
}

// GroupsOf returns the system groups actorID belongs to. Unknown actors
// belong to none.
func (s *Service) GroupsOf(ctx context.Context, actorID id.ActorID) ([]id.GroupID, error) {
	actor, err := s.lookup(ctx, actorID)
	if err != nil || actor == nil {
		return nil, err
	}
	return actor.Groups, nil
}

func (s *Service) Group(ctx context.Context, groupID id.GroupID) (*models.Group, error) {
	group, err := s.store.FindGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeInvalidReference, "group "+groupID.String()+" does not exist")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load group")
	}
	return group, nil
}

// GroupMembers resolves a system group to its members.
func (s *Service) GroupMembers(ctx context.Context, groupID id.GroupID) ([]id.ActorID, error) {
	group, err := s.Group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return group.Members, nil
}

// DisplayNames maps actors to names for audit text. Unknown actors are
// rendered by ID rather than failing the caller.
func (s *Service) DisplayNames(ctx context.Context, actorIDs []id.ActorID) []string {
	names := make([]string, 0, len(actorIDs))
	for _, actorID := range actorIDs {
		actor, err := s.store.FindActor(ctx, actorID)
		if err != nil {
			names = append(names, actorID.String())
			continue
		}
		names = append(names, actor.DisplayName())
	}
	return names
}

// GroupNames maps system groups to names, falling back to IDs.
func (s *Service) GroupNames(ctx context.Context, groupIDs []id.GroupID) []string {
	names := make([]string, 0, len(groupIDs))
	for _, groupID := range groupIDs {
		group, err := s.store.FindGroup(ctx, groupID)
		if err != nil {
			names = append(names, groupID.String())
			continue
		}
		names = append(names, group.Name)
	}
	return names
}

func (s *Service) ListActors(ctx context.Context) ([]*models.Actor, error) {
	actors, err := s.store.ListActors(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list actors")
	}
	return actors, nil
}

func (s *Service) ListGroups(ctx context.Context) ([]*models.Group, error) {
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list groups")
	}
	return groups, nil
}

// RegisterActorCommand carries the fields for a new directory entry.
type RegisterActorCommand struct {
	ID        id.ActorID
	Name      string
	Email     string
	Admin     bool
	Anonymous bool
}

// RegisterActor adds an actor. A nil ID is replaced with a fresh one.
func (s *Service) RegisterActor(ctx context.Context, cmd RegisterActorCommand) (*models.Actor, error) {
	actorID := cmd.ID
	if actorID.IsNil() {
		actorID = id.ActorID(uuid.New())
	}
	actor, err := models.NewActor(actorID, cmd.Name, cmd.Email, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	actor.Admin = cmd.Admin
	actor.Anonymous = cmd.Anonymous
	if err := s.store.CreateActor(ctx, actor); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "actor already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create actor")
	}
	s.logInfo(ctx, "actor_registered", "actor_id", actor.ID.String(), "admin", actor.Admin)
	return actor, nil
}

// SetAdmin toggles the platform-admin flag.
func (s *Service) SetAdmin(ctx context.Context, actorID id.ActorID, admin bool) (*models.Actor, error) {
	actor, err := s.Actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	actor.Admin = admin
	if err := s.store.UpdateActor(ctx, actor); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update actor")
	}
	s.logInfo(ctx, "actor_admin_changed", "actor_id", actorID.String(), "admin", admin)
	return actor, nil
}

// RegisterGroup adds a system group with optional initial members.
func (s *Service) RegisterGroup(ctx context.Context, groupID id.GroupID, name string, members []id.ActorID) (*models.Group, error) {
	if groupID.IsNil() {
		groupID = id.GroupID(uuid.New())
	}
	group, err := models.NewGroup(groupID, name)
	if err != nil {
		return nil, err
	}
	if _, err := s.RequireActors(ctx, members); err != nil {
		return nil, err
	}
	group.Members = members
	if err := s.store.CreateGroup(ctx, group); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "group already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create group")
	}
	s.logInfo(ctx, "group_registered", "group_id", group.ID.String(), "members", len(members))
	return group, nil
}

func (s *Service) AddGroupMember(ctx context.Context, groupID id.GroupID, actorID id.ActorID) error {
	if _, err := s.Group(ctx, groupID); err != nil {
		return err
	}
	if _, err := s.Actor(ctx, actorID); err != nil {
		return err
	}
	if err := s.store.AddMember(ctx, groupID, actorID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to add group member")
	}
	s.logInfo(ctx, "group_member_added", "group_id", groupID.String(), "actor_id", actorID.String())
	s.notify(ctx, groupID)
	return nil
}

func (s *Service) RemoveGroupMember(ctx context.Context, groupID id.GroupID, actorID id.ActorID) error {
	if err := s.store.RemoveMember(ctx, groupID, actorID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeInvalidReference, "group "+groupID.String()+" does not exist")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove group member")
	}
	s.logInfo(ctx, "group_member_removed", "group_id", groupID.String(), "actor_id", actorID.String())
	s.notify(ctx, groupID)
	return nil
}

func (s *Service) notify(ctx context.Context, groupID id.GroupID) {
	for _, l := range s.listeners {
		l.MembershipChanged(ctx, groupID)
	}
}

func (s *Service) lookup(ctx context.Context, actorID id.ActorID) (*models.Actor, error) {
	actor, err := s.store.FindActor(ctx, actorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load actor")
	}
	return actor, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, args ...any) {
	if s.logger == nil {
		return
	}
	args = append(args, "request_id", requestcontext.RequestID(ctx))
	s.logger.InfoContext(ctx, msg, args...)
}
