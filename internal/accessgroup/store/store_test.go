package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"stewardship/internal/accessgroup/models"
	id "stewardship/pkg/domain"
	"stewardship/pkg/platform/sentinel"
	"stewardship/pkg/testutil"
)

type groupStore interface {
	Create(ctx context.Context, g *models.Group) error
	FindByID(ctx context.Context, groupID id.CustomGroupID) (*models.Group, error)
	FindByName(ctx context.Context, name string) (*models.Group, error)
	Update(ctx context.Context, g *models.Group) error
	List(ctx context.Context, filter models.Filter) ([]*models.Group, error)
}

type StoreSuite struct {
	suite.Suite
	newStore func() groupStore
	store    groupStore
	ctx      context.Context
}

func TestInMemoryStore(t *testing.T) {
	suite.Run(t, &StoreSuite{newStore: func() groupStore { return NewInMemory() }})
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore()
}

func (s *StoreSuite) group(name string, typ models.Type, members ...id.ActorID) *models.Group {
	g := &models.Group{
		ID:        id.CustomGroupID(uuid.New()),
		Name:      name,
		Type:      typ,
		Members:   members,
		Managers:  []id.ActorID{testutil.TestIDs.ActorID1},
		Active:    true,
		CreatedBy: testutil.TestIDs.ActorID1,
		CreatedAt: testutil.FixedNow,
		UpdatedAt: testutil.FixedNow,
	}
	if typ == models.TypeTemporary {
		expires := testutil.FixedNow.Add(24 * time.Hour)
		g.ExpiresAt = &expires
	}
	s.Require().NoError(s.store.Create(s.ctx, g))
	return g
}

func (s *StoreSuite) TestCreateAndFind() {
	g := s.group("Launch Crew", models.TypeTemporary, testutil.TestIDs.ActorID2)

	got, err := s.store.FindByID(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Equal("Launch Crew", got.Name)
	s.Equal(models.TypeTemporary, got.Type)
	s.Equal([]id.ActorID{testutil.TestIDs.ActorID2}, got.Members)
	s.True(got.Active)
	s.Require().NotNil(got.ExpiresAt)
	s.True(g.ExpiresAt.Equal(*got.ExpiresAt))

	byName, err := s.store.FindByName(s.ctx, "  launch crew ")
	s.Require().NoError(err)
	s.Equal(g.ID, byName.ID)
}

func (s *StoreSuite) TestNamesAreUniqueIgnoringCase() {
	s.group("Reviewers", models.TypeGeneral, testutil.TestIDs.ActorID2)

	dup := &models.Group{
		ID:        id.CustomGroupID(uuid.New()),
		Name:      "REVIEWERS",
		Type:      models.TypeGeneral,
		CreatedBy: testutil.TestIDs.ActorID1,
		CreatedAt: testutil.FixedNow,
		UpdatedAt: testutil.FixedNow,
	}
	s.ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrAlreadyUsed)
}

func (s *StoreSuite) TestUpdate() {
	g := s.group("Editors", models.TypeGeneral, testutil.TestIDs.ActorID2)
	taken := s.group("Writers", models.TypeGeneral, testutil.TestIDs.ActorID2)

	g.Members = append(g.Members, testutil.TestIDs.ActorID3)
	g.Active = false
	archived := testutil.FixedNow.Add(time.Hour)
	g.ArchivedAt = &archived
	s.Require().NoError(s.store.Update(s.ctx, g))

	got, err := s.store.FindByID(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Len(got.Members, 2)
	s.False(got.Active)
	s.Require().NotNil(got.ArchivedAt)

	g.Name = taken.Name
	s.ErrorIs(s.store.Update(s.ctx, g), sentinel.ErrAlreadyUsed)

	g.Name = "Copy Editors"
	s.Require().NoError(s.store.Update(s.ctx, g))
	_, err = s.store.FindByName(s.ctx, "Editors")
	s.ErrorIs(err, sentinel.ErrNotFound, "the old name is released")
}

func (s *StoreSuite) TestNotFound() {
	missing := id.CustomGroupID(uuid.New())
	_, err := s.store.FindByID(s.ctx, missing)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindByName(s.ctx, "nobody")
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Update(s.ctx, &models.Group{ID: missing, Name: "x"}), sentinel.ErrNotFound)
}

func (s *StoreSuite) TestListFilters() {
	alice, bob := testutil.TestIDs.ActorID2, testutil.TestIDs.ActorID3
	s.group("beta", models.TypeGeneral, alice)
	s.group("Alpha", models.TypeTemporary, alice, bob)
	archived := s.group("Gamma", models.TypeGeneral, bob)
	archived.Active = false
	s.Require().NoError(s.store.Update(s.ctx, archived))

	all, err := s.store.List(s.ctx, models.Filter{})
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal([]string{"Alpha", "beta", "Gamma"}, []string{all[0].Name, all[1].Name, all[2].Name})

	active, err := s.store.List(s.ctx, models.Filter{ActiveOnly: true})
	s.Require().NoError(err)
	s.Len(active, 2)

	withBob, err := s.store.List(s.ctx, models.Filter{Member: &bob})
	s.Require().NoError(err)
	s.Len(withBob, 2)

	temporary, err := s.store.List(s.ctx, models.Filter{Type: models.TypeTemporary})
	s.Require().NoError(err)
	s.Len(temporary, 1)

	managed, err := s.store.List(s.ctx, models.Filter{Manager: &testutil.TestIDs.ActorID1})
	s.Require().NoError(err)
	s.Len(managed, 3)
}
