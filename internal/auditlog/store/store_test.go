package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"stewardship/internal/auditlog/models"
	id "stewardship/pkg/domain"
	"stewardship/pkg/platform/sentinel"
	"stewardship/pkg/testutil"
)

type logStore interface {
	Append(ctx context.Context, e *models.Entry) error
	FindByID(ctx context.Context, entryID id.EntryID) (*models.Entry, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Entry, error)
	Count(ctx context.Context, filter models.Filter) (int, error)
	DeleteBefore(ctx context.Context, kind models.Kind, before time.Time) (int64, error)
}

type StoreSuite struct {
	suite.Suite
	newStore func() logStore
	store    logStore
	ctx      context.Context
	record   id.RecordID
}

func TestInMemoryStore(t *testing.T) {
	suite.Run(t, &StoreSuite{newStore: func() logStore { return NewInMemory() }})
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore()
	s.record = id.RecordID(uuid.New())
}

func (s *StoreSuite) append(c models.Change, by id.ActorID, at time.Time) *models.Entry {
	e, err := models.NewEntry(id.EntryID(uuid.New()), "project.task", s.record, by, c, at)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Append(s.ctx, e))
	return e
}

func (s *StoreSuite) TestAppendAndFind() {
	alice, bob := testutil.TestIDs.ActorID1, testutil.TestIDs.ActorID2
	e := s.append(models.Change{
		Kind:      models.KindOwnership,
		Action:    models.ActionTransfer,
		OldActors: []id.ActorID{alice},
		NewActors: []id.ActorID{bob},
		Reason:    "handover",
	}, alice, testutil.FixedNow)
	s.ErrorIs(s.store.Append(s.ctx, e), sentinel.ErrAlreadyUsed)

	got, err := s.store.FindByID(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(models.KindOwnership, got.Kind)
	s.Equal(models.ActionTransfer, got.Action)
	s.Equal(s.record, got.TargetID)
	s.Equal(alice, *got.OldActor)
	s.Equal(bob, *got.NewActor)
	s.Equal([]id.ActorID{bob}, got.NewActors)
	s.Equal("handover", got.Reason)
	s.True(testutil.FixedNow.Equal(got.Timestamp))

	_, err = s.store.FindByID(s.ctx, id.EntryID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreSuite) TestListNewestFirstWithFilters() {
	alice, bob, carol := testutil.TestIDs.ActorID1, testutil.TestIDs.ActorID2, testutil.TestIDs.ActorID3
	oldest := s.append(models.Change{Kind: models.KindAccess, Action: models.ActionGrantUser, NewActors: []id.ActorID{bob}},
		alice, testutil.FixedNow)
	middle := s.append(models.Change{Kind: models.KindAssignment, Action: models.ActionAssign, NewActors: []id.ActorID{carol}},
		alice, testutil.FixedNow.Add(time.Hour))
	newest := s.append(models.Change{Kind: models.KindAccess, Action: models.ActionRevokeUser, OldActors: []id.ActorID{bob}},
		carol, testutil.FixedNow.Add(2*time.Hour))

	all, err := s.store.List(s.ctx, models.Filter{})
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal([]id.EntryID{newest.ID, middle.ID, oldest.ID}, []id.EntryID{all[0].ID, all[1].ID, all[2].ID})

	access, err := s.store.List(s.ctx, models.Filter{Kinds: []models.Kind{models.KindAccess}})
	s.Require().NoError(err)
	s.Len(access, 2)

	involvingBob, err := s.store.List(s.ctx, models.Filter{Actor: &bob})
	s.Require().NoError(err)
	s.Len(involvingBob, 2, "granted and revoked")

	from := testutil.FixedNow.Add(time.Hour)
	to := testutil.FixedNow.Add(2 * time.Hour)
	window, err := s.store.List(s.ctx, models.Filter{From: &from, To: &to})
	s.Require().NoError(err)
	s.Require().Len(window, 1, "from is inclusive, to exclusive")
	s.Equal(middle.ID, window[0].ID)

	limited, err := s.store.List(s.ctx, models.Filter{Limit: 1})
	s.Require().NoError(err)
	s.Require().Len(limited, 1)
	s.Equal(newest.ID, limited[0].ID)

	other := id.RecordID(uuid.New())
	none, err := s.store.List(s.ctx, models.Filter{TargetID: &other})
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *StoreSuite) TestCount() {
	alice := testutil.TestIDs.ActorID1
	for range 3 {
		s.append(models.Change{Kind: models.KindOwnership, Action: models.ActionClaim, NewActors: []id.ActorID{alice}},
			alice, testutil.FixedNow)
	}
	s.append(models.Change{Kind: models.KindOwnership, Action: models.ActionRelease, OldActors: []id.ActorID{alice}},
		alice, testutil.FixedNow)

	n, err := s.store.Count(s.ctx, models.Filter{Actions: []models.Action{models.ActionClaim}})
	s.Require().NoError(err)
	s.Equal(3, n)

	n, err = s.store.Count(s.ctx, models.Filter{Model: "document"})
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *StoreSuite) TestDeleteBeforeOnlyTouchesKind() {
	alice := testutil.TestIDs.ActorID1
	old := s.append(models.Change{Kind: models.KindAccess, Action: models.ActionChangeLevel}, alice, testutil.FixedNow)
	s.append(models.Change{Kind: models.KindAccess, Action: models.ActionChangeLevel}, alice, testutil.FixedNow.Add(48*time.Hour))
	s.append(models.Change{Kind: models.KindOwnership, Action: models.ActionRelease}, alice, testutil.FixedNow)

	removed, err := s.store.DeleteBefore(s.ctx, models.KindAccess, testutil.FixedNow.Add(24*time.Hour))
	s.Require().NoError(err)
	s.Equal(int64(1), removed)

	_, err = s.store.FindByID(s.ctx, old.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	n, err := s.store.Count(s.ctx, models.Filter{})
	s.Require().NoError(err)
	s.Equal(2, n)
}
