package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"stewardship/internal/directory/service/mocks"
	"stewardship/internal/directory/store"
	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
)

type membershipListener struct {
	changed []id.GroupID
}

func (l *membershipListener) MembershipChanged(_ context.Context, groupID id.GroupID) {
	l.changed = append(l.changed, groupID)
}

type DirectorySuite struct {
	suite.Suite
	ctx     context.Context
	service *Service
}

func TestDirectorySuite(t *testing.T) {
	suite.Run(t, new(DirectorySuite))
}

func (s *DirectorySuite) SetupTest() {
	s.ctx = context.Background()
	s.service = New(store.NewInMemory())
}

func (s *DirectorySuite) register(name string, admin, anonymous bool) id.ActorID {
	actor, err := s.service.RegisterActor(s.ctx, RegisterActorCommand{Name: name, Admin: admin, Anonymous: anonymous})
	s.Require().NoError(err)
	return actor.ID
}

func (s *DirectorySuite) TestFlags() {
	admin := s.register("Ada", true, false)
	user := s.register("Bob", false, false)
	guest := s.register("Portal Guest", false, true)
	unknown := id.ActorID(uuid.New())

	isAdmin, err := s.service.IsAdmin(s.ctx, admin)
	s.Require().NoError(err)
	s.True(isAdmin)

	isAdmin, err = s.service.IsAdmin(s.ctx, unknown)
	s.Require().NoError(err)
	s.False(isAdmin, "unknown actors are never admins")

	for actorID, want := range map[id.ActorID]bool{admin: true, user: true, guest: false, unknown: false} {
		got, err := s.service.IsRecognizedUser(s.ctx, actorID)
		s.Require().NoError(err)
		s.Equal(want, got)
	}
}

func (s *DirectorySuite) TestGroups() {
	a := s.register("A", false, false)
	b := s.register("B", false, false)

	group, err := s.service.RegisterGroup(s.ctx, id.GroupID{}, "Engineering", []id.ActorID{a})
	s.Require().NoError(err)

	s.Require().NoError(s.service.AddGroupMember(s.ctx, group.ID, b))
	members, err := s.service.GroupMembers(s.ctx, group.ID)
	s.Require().NoError(err)
	s.ElementsMatch([]id.ActorID{a, b}, members)

	groups, err := s.service.GroupsOf(s.ctx, b)
	s.Require().NoError(err)
	s.Equal([]id.GroupID{group.ID}, groups)

	s.Require().NoError(s.service.RemoveGroupMember(s.ctx, group.ID, b))
	groups, err = s.service.GroupsOf(s.ctx, b)
	s.Require().NoError(err)
	s.Empty(groups)

	s.Run("unknown group is an invalid reference", func() {
		_, err := s.service.GroupMembers(s.ctx, id.GroupID(uuid.New()))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidReference))
	})

	s.Run("group members must exist", func() {
		_, err := s.service.RegisterGroup(s.ctx, id.GroupID{}, "Ghosts", []id.ActorID{id.ActorID(uuid.New())})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidReference))
	})
}

func (s *DirectorySuite) TestMembershipChangesNotifyListeners() {
	listener := &membershipListener{}
	s.service.Subscribe(listener)
	a := s.register("A", false, false)
	group, err := s.service.RegisterGroup(s.ctx, id.GroupID{}, "Ops", nil)
	s.Require().NoError(err)
	s.Empty(listener.changed)

	s.Require().NoError(s.service.AddGroupMember(s.ctx, group.ID, a))
	s.Require().NoError(s.service.RemoveGroupMember(s.ctx, group.ID, a))
	s.Equal([]id.GroupID{group.ID, group.ID}, listener.changed)

	err = s.service.AddGroupMember(s.ctx, group.ID, id.ActorID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidReference))
	s.Len(listener.changed, 2, "failed changes notify nobody")
}

func (s *DirectorySuite) TestRequireActors() {
	a := s.register("A", false, false)

	actors, err := s.service.RequireActors(s.ctx, []id.ActorID{a})
	s.Require().NoError(err)
	s.Len(actors, 1)

	_, err = s.service.RequireActors(s.ctx, []id.ActorID{a, id.ActorID(uuid.New())})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidReference))
}

func (s *DirectorySuite) TestDisplayNamesFallBackToID() {
	a := s.register("Alice", false, false)
	ghost := id.ActorID(uuid.New())

	s.Equal([]string{"Alice", ghost.String()}, s.service.DisplayNames(s.ctx, []id.ActorID{a, ghost}))
}

func (s *DirectorySuite) TestDuplicateActorConflicts() {
	a := s.register("A", false, false)
	_, err := s.service.RegisterActor(s.ctx, RegisterActorCommand{ID: a, Name: "Again"})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestStoreErrorPropagation(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := mocks.NewMockStore(ctrl)
	svc := New(mockStore)

	mockStore.EXPECT().FindActor(gomock.Any(), gomock.Any()).Return(nil, assert.AnError).Times(2)

	_, err := svc.IsAdmin(context.Background(), id.ActorID(uuid.New()))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))

	_, err = svc.Actor(context.Background(), id.ActorID(uuid.New()))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}
