package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	auditmodels "stewardship/internal/auditlog/models"
	"stewardship/internal/record/models"
	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
	"stewardship/pkg/testutil"
	"stewardship/pkg/testutil/stack"
)

type OwnershipSuite struct {
	suite.Suite
	env     *stack.Env
	owner   id.ActorID
	alice   id.ActorID
	bob     id.ActorID
	admin   id.ActorID
	service *Service
}

func TestOwnershipSuite(t *testing.T) {
	suite.Run(t, new(OwnershipSuite))
}

func (s *OwnershipSuite) SetupTest() {
	s.env = stack.New(s.T())
	s.owner = s.env.Actor("Olivia Owner")
	s.alice = s.env.Actor("Alice")
	s.bob = s.env.Actor("Bob")
	s.admin = s.env.Admin("Ada Admin")
	s.service = New(s.env.Records, s.env.Directory)
}

func (s *OwnershipSuite) assertCode(err error, code dErrors.Code) {
	s.T().Helper()
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, code), "expected %s, got %v", code, err)
}

func (s *OwnershipSuite) TestTransfer() {
	record := s.env.Record(models.ModelTask, s.owner)
	s.env.Advance(time.Hour)

	updated, err := s.service.Transfer(s.env.As(s.owner), record.ID, s.alice, "handover")
	s.Require().NoError(err)

	own := updated.Ownership
	s.True(own.IsOwner(s.alice))
	s.Require().NotNil(own.PreviousOwner)
	s.Equal(s.owner, *own.PreviousOwner)
	s.Equal(s.env.Now, own.EstablishedAt)

	entry := s.env.LastEntry(auditmodels.KindOwnership, record.ID)
	s.Equal(auditmodels.ActionTransfer, entry.Action)
	s.Equal(s.owner, *entry.OldActor)
	s.Equal(s.alice, *entry.NewActor)
	s.Equal("handover", entry.Reason)
	s.Equal(s.owner, entry.PerformedBy)
}

func (s *OwnershipSuite) TestTransferPermissions() {
	record := s.env.Record(models.ModelTask, s.owner)

	_, err := s.service.Transfer(s.env.As(s.alice), record.ID, s.alice, "")
	s.assertCode(err, dErrors.CodeForbidden)
	s.True(s.env.Reload(record.ID).Ownership.IsOwner(s.owner), "rejected transfer leaves the owner in place")
	s.Empty(s.env.Entries(auditmodels.KindOwnership, record.ID))

	_, err = s.service.Transfer(s.env.As(s.admin), record.ID, s.bob, "reorg")
	s.Require().NoError(err)
	s.True(s.env.Reload(record.ID).Ownership.IsOwner(s.bob))
}

func (s *OwnershipSuite) TestTransferToUnknownActor() {
	record := s.env.Record(models.ModelTask, s.owner)

	_, err := s.service.Transfer(s.env.As(s.owner), record.ID, id.ActorID(uuid.New()), "")
	s.assertCode(err, dErrors.CodeInvalidReference)
}

func (s *OwnershipSuite) TestTransferPromotesCoOwner() {
	record := s.env.Record(models.ModelTask, s.owner)
	_, err := s.service.AddCoOwner(s.env.As(s.owner), record.ID, s.alice, "")
	s.Require().NoError(err)

	updated, err := s.service.Transfer(s.env.As(s.owner), record.ID, s.alice, "")
	s.Require().NoError(err)
	s.True(updated.Ownership.IsOwner(s.alice))
	s.False(updated.Ownership.IsCoOwner(s.alice))
}

func (s *OwnershipSuite) TestReleaseThenClaim() {
	record := s.env.Record(models.ModelTask, s.owner)

	released, err := s.service.Release(s.env.As(s.owner), record.ID, "leaving team")
	s.Require().NoError(err)
	s.False(released.Ownership.HasOwner())
	s.Equal(s.owner, *released.Ownership.PreviousOwner)

	owned, err := s.service.IsOwned(s.env.As(s.owner), record.ID)
	s.Require().NoError(err)
	s.False(owned)

	claimed, err := s.service.Claim(s.env.As(s.bob), record.ID, "")
	s.Require().NoError(err)
	s.True(claimed.Ownership.IsOwner(s.bob))

	entries := s.env.Entries(auditmodels.KindOwnership, record.ID)
	s.Require().Len(entries, 2)
	s.Equal(auditmodels.ActionClaim, entries[0].Action)
	s.Nil(entries[0].OldActor)
	s.Equal(s.bob, *entries[0].NewActor)
	s.Equal(auditmodels.ActionRelease, entries[1].Action)
	s.Nil(entries[1].NewActor)
}

func (s *OwnershipSuite) TestClaimOwnedRecordFails() {
	record := s.env.Record(models.ModelTask, s.owner)

	for _, caller := range []id.ActorID{s.alice, s.owner, s.admin} {
		_, err := s.service.Claim(s.env.As(caller), record.ID, "")
		s.assertCode(err, dErrors.CodeInvalidState)
	}
	s.True(s.env.Reload(record.ID).Ownership.IsOwner(s.owner))
}

func (s *OwnershipSuite) TestConcurrentClaimsHaveOneWinner() {
	record := s.env.Record(models.ModelTask, s.owner)
	_, err := s.service.Release(s.env.As(s.owner), record.ID, "")
	s.Require().NoError(err)
	claimers := []id.ActorID{s.alice, s.bob, s.owner, s.admin}

	result := testutil.RunConcurrent(len(claimers), func(i int) error {
		_, err := s.service.Claim(s.env.As(claimers[i]), record.ID, "")
		return err
	})

	s.Equal(int32(1), result.Successes)
	s.Equal(int32(len(claimers)-1), result.Rejected)
}

func (s *OwnershipSuite) TestCoOwnerManagement() {
	record := s.env.Record(models.ModelTask, s.owner)

	_, err := s.service.AddCoOwner(s.env.As(s.owner), record.ID, s.alice, "")
	s.Require().NoError(err)

	// co-owners may manage co-owners
	updated, err := s.service.AddCoOwner(s.env.As(s.alice), record.ID, s.bob, "")
	s.Require().NoError(err)
	s.Equal([]id.ActorID{s.alice, s.bob}, updated.Ownership.CoOwners)
	s.True(updated.Ownership.IsOwned())
	s.Equal(2, updated.Ownership.CoOwnerCount())
	s.Equal([]id.ActorID{s.owner, s.alice, s.bob}, updated.Ownership.AllOwners())

	_, err = s.service.AddCoOwner(s.env.As(s.owner), record.ID, s.owner, "")
	s.assertCode(err, dErrors.CodeInvalidInput)

	_, err = s.service.AddCoOwner(s.env.As(s.owner), record.ID, s.alice, "")
	s.assertCode(err, dErrors.CodeConflict)

	updated, err = s.service.RemoveCoOwner(s.env.As(s.owner), record.ID, s.bob, "")
	s.Require().NoError(err)
	s.Equal([]id.ActorID{s.alice}, updated.Ownership.CoOwners)

	_, err = s.service.RemoveCoOwner(s.env.As(s.owner), record.ID, s.bob, "")
	s.assertCode(err, dErrors.CodeInvalidInput)

	entry := s.env.LastEntry(auditmodels.KindOwnership, record.ID)
	s.Equal(auditmodels.ActionRemoveCoOwner, entry.Action)
	s.Equal(s.bob, *entry.OldActor)
}

func (s *OwnershipSuite) TestOutsiderCannotManageCoOwners() {
	record := s.env.Record(models.ModelTask, s.owner)

	_, err := s.service.AddCoOwner(s.env.As(s.alice), record.ID, s.bob, "")
	s.assertCode(err, dErrors.CodeForbidden)

	_, err = s.service.AddCoOwner(s.env.As(s.admin), record.ID, s.bob, "")
	s.Require().NoError(err)
}

func (s *OwnershipSuite) TestAddCoOwnersIsAllOrNothing() {
	record := s.env.Record(models.ModelTask, s.owner)
	carol := s.env.Actor("Carol")

	_, err := s.service.AddCoOwners(s.env.As(s.owner), record.ID, []id.ActorID{s.alice, s.owner}, "")
	s.assertCode(err, dErrors.CodeInvalidInput)
	_, err = s.service.AddCoOwners(s.env.As(s.owner), record.ID, []id.ActorID{s.alice, id.ActorID(uuid.New())}, "")
	s.assertCode(err, dErrors.CodeInvalidReference)
	_, err = s.service.AddCoOwners(s.env.As(s.owner), record.ID, nil, "")
	s.assertCode(err, dErrors.CodeInvalidInput)
	s.Empty(s.env.Reload(record.ID).Ownership.CoOwners)

	updated, err := s.service.AddCoOwners(s.env.As(s.owner), record.ID, []id.ActorID{s.alice, s.bob, carol}, "project staffing")
	s.Require().NoError(err)
	s.Len(updated.Ownership.CoOwners, 3)

	entry := s.env.LastEntry(auditmodels.KindOwnership, record.ID)
	s.Equal(auditmodels.ActionAddMultipleCoOwners, entry.Action)
	s.Equal([]id.ActorID{s.alice, s.bob, carol}, entry.NewActors)
	s.Equal(s.alice, *entry.NewActor)
	s.Equal("Added co-owners: Alice, Bob, Carol", entry.ExtraInfo)
	s.Equal("project staffing", entry.Reason)
}

func (s *OwnershipSuite) TestRemoveAllCoOwners() {
	record := s.env.Record(models.ModelTask, s.owner)

	_, err := s.service.RemoveAllCoOwners(s.env.As(s.owner), record.ID, "")
	s.assertCode(err, dErrors.CodeInvalidInput)

	_, err = s.service.AddCoOwners(s.env.As(s.owner), record.ID, []id.ActorID{s.alice, s.bob}, "")
	s.Require().NoError(err)

	updated, err := s.service.RemoveAllCoOwners(s.env.As(s.owner), record.ID, "")
	s.Require().NoError(err)
	s.Empty(updated.Ownership.CoOwners)

	entry := s.env.LastEntry(auditmodels.KindOwnership, record.ID)
	s.Equal([]id.ActorID{s.alice, s.bob}, entry.OldActors)
	s.Equal("Removed all co-owners: Alice, Bob", entry.ExtraInfo)
}

func (s *OwnershipSuite) TestIsOwnedByCoOwnersAlone() {
	record := s.env.Record(models.ModelTask, s.owner)
	_, err := s.service.AddCoOwner(s.env.As(s.owner), record.ID, s.alice, "")
	s.Require().NoError(err)
	_, err = s.service.Release(s.env.As(s.owner), record.ID, "")
	s.Require().NoError(err)

	owned, err := s.service.IsOwned(s.env.As(s.owner), record.ID)
	s.Require().NoError(err)
	s.True(owned)
}

func (s *OwnershipSuite) TestModelWithoutOwnership() {
	registry := s.env.Records.Registry()
	s.Require().NoError(registry.Register("helpdesk.ticket", models.CapabilityAssignment))
	ticket := s.env.Record("helpdesk.ticket", s.owner)

	_, err := s.service.Claim(s.env.As(s.alice), ticket.ID, "")
	s.assertCode(err, dErrors.CodeInvalidState)

	owned, err := s.service.IsOwned(s.env.As(s.alice), ticket.ID)
	s.Require().NoError(err)
	s.False(owned)
}
