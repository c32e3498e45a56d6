package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"stewardship/internal/record/models"
	id "stewardship/pkg/domain"
	"stewardship/pkg/platform/sentinel"
	"stewardship/pkg/testutil"
)

type recordStore interface {
	Create(ctx context.Context, record *models.Record) error
	FindByID(ctx context.Context, recordID id.RecordID) (*models.Record, error)
	FindForUpdate(ctx context.Context, recordID id.RecordID) (*models.Record, error)
	Update(ctx context.Context, record *models.Record) error
	Delete(ctx context.Context, recordID id.RecordID) error
	List(ctx context.Context, filter models.Filter) ([]*models.Record, error)
}

// StoreSuite runs against every store implementation; newStore must return
// an empty store.
type StoreSuite struct {
	suite.Suite
	newStore func() recordStore
	store    recordStore
	ctx      context.Context
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore()
}

func TestInMemoryStore(t *testing.T) {
	suite.Run(t, &StoreSuite{newStore: func() recordStore { return NewInMemory() }})
}

func (s *StoreSuite) TestCreateAndFind() {
	member := id.ActorID(uuid.New())
	group := id.CustomGroupID(uuid.New())
	r := testutil.NewRecordBuilder().
		WithCoOwners(member).
		WithLevel(models.LevelRestricted).
		WithCustomGroups(group).
		AssignedTo(member).
		Build()
	s.Require().NoError(s.store.Create(s.ctx, r))

	got, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(r.Name, got.Name)
	s.Equal(r.Model, got.Model)
	s.True(r.CreatedAt.Equal(got.CreatedAt))
	s.Equal(testutil.TestIDs.ActorID1, *got.Ownership.Owner)
	s.Equal([]id.ActorID{member}, got.Ownership.CoOwners)
	s.Equal(models.LevelRestricted, got.Access.Level)
	s.Equal([]id.CustomGroupID{group}, got.Access.CustomGroups)
	s.Equal(models.StatusAssigned, got.Assignment.Status)
	s.NotNil(got.Responsibility)
}

func (s *StoreSuite) TestMissingCapabilityStaysNil() {
	r, err := models.NewRecord(id.RecordID(uuid.New()), models.ModelMilestone, "Beta",
		testutil.TestIDs.ActorID1, []models.Capability{models.CapabilityOwnership}, testutil.FixedNow)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, r))

	got, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.NotNil(got.Ownership)
	s.Nil(got.Access)
	s.Nil(got.Assignment)
	s.Nil(got.Responsibility)
}

func (s *StoreSuite) TestCreateDuplicate() {
	r := testutil.NewRecordBuilder().Build()
	s.Require().NoError(s.store.Create(s.ctx, r))
	s.ErrorIs(s.store.Create(s.ctx, r), sentinel.ErrAlreadyUsed)
}

func (s *StoreSuite) TestUpdate() {
	r := testutil.NewRecordBuilder().Build()
	s.Require().NoError(s.store.Create(s.ctx, r))

	locked, err := s.store.FindForUpdate(s.ctx, r.ID)
	s.Require().NoError(err)
	locked.Name = "Renamed"
	locked.Ownership.Owner = nil
	locked.UpdatedAt = testutil.FixedNow.Add(time.Hour)
	s.Require().NoError(s.store.Update(s.ctx, locked))

	got, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal("Renamed", got.Name)
	s.Nil(got.Ownership.Owner)
	s.True(locked.UpdatedAt.Equal(got.UpdatedAt))
}

func (s *StoreSuite) TestReturnedRecordsAreCopies() {
	r := testutil.NewRecordBuilder().Build()
	s.Require().NoError(s.store.Create(s.ctx, r))

	got, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	got.Ownership.CoOwners = append(got.Ownership.CoOwners, testutil.TestIDs.ActorID2)

	again, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Empty(again.Ownership.CoOwners)
}

func (s *StoreSuite) TestNotFound() {
	missing := testutil.NewRecordBuilder().Build()
	_, err := s.store.FindByID(s.ctx, missing.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Update(s.ctx, missing), sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(s.ctx, missing.ID), sentinel.ErrNotFound)
}

func (s *StoreSuite) TestDelete() {
	r := testutil.NewRecordBuilder().Build()
	s.Require().NoError(s.store.Create(s.ctx, r))
	s.Require().NoError(s.store.Delete(s.ctx, r.ID))
	_, err := s.store.FindByID(s.ctx, r.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreSuite) TestListFilters() {
	group := id.CustomGroupID(uuid.New())
	first := testutil.NewRecordBuilder().WithCustomGroups(group).Build()
	second := testutil.NewRecordBuilder().Build()
	second.CreatedAt = testutil.FixedNow.Add(time.Minute)
	doc, err := models.NewRecord(id.RecordID(uuid.New()), models.ModelDocument, "Notes",
		testutil.TestIDs.ActorID1, []models.Capability{models.CapabilityOwnership}, testutil.FixedNow)
	s.Require().NoError(err)
	for _, r := range []*models.Record{second, doc, first} {
		s.Require().NoError(s.store.Create(s.ctx, r))
	}

	all, err := s.store.List(s.ctx, models.Filter{})
	s.Require().NoError(err)
	s.Len(all, 3)
	s.Equal(second.ID, all[2].ID, "ordered by creation time")

	tasks, err := s.store.List(s.ctx, models.Filter{Model: models.ModelTask})
	s.Require().NoError(err)
	s.Len(tasks, 2)

	inGroup, err := s.store.List(s.ctx, models.Filter{CustomGroupID: &group})
	s.Require().NoError(err)
	s.Require().Len(inGroup, 1)
	s.Equal(first.ID, inGroup[0].ID)
}
