package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	cachemocks "stewardship/internal/access/cache/mocks"
	agmodels "stewardship/internal/accessgroup/models"
	agservice "stewardship/internal/accessgroup/service"
	auditmodels "stewardship/internal/auditlog/models"
	"stewardship/internal/record/models"
	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
	"stewardship/pkg/requestcontext"
	"stewardship/pkg/testutil/stack"
)

func agCreate(name string, member id.ActorID, expiry time.Time) agservice.CreateCommand {
	return agservice.CreateCommand{
		Name:      name,
		Type:      agmodels.TypeTemporary,
		Members:   []id.ActorID{member},
		ExpiresAt: &expiry,
	}
}

type AccessSuite struct {
	suite.Suite
	env     *stack.Env
	owner   id.ActorID
	alice   id.ActorID
	bob     id.ActorID
	carol   id.ActorID
	admin   id.ActorID
	service *Service
}

func TestAccessSuite(t *testing.T) {
	suite.Run(t, new(AccessSuite))
}

func (s *AccessSuite) SetupTest() {
	s.env = stack.New(s.T())
	s.owner = s.env.Actor("Olivia Owner")
	s.alice = s.env.Actor("Alice")
	s.bob = s.env.Actor("Bob")
	s.carol = s.env.Actor("Carol")
	s.admin = s.env.Admin("Ada Admin")
	s.service = New(s.env.Records, s.env.Directory, s.env.Groups)
	s.env.Groups.Subscribe(s.service)
	s.env.Directory.Subscribe(s.service)
}

func (s *AccessSuite) assertCode(err error, code dErrors.Code) {
	s.T().Helper()
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, code), "expected %s, got %v", code, err)
}

func (s *AccessSuite) restricted() *models.Record {
	record := s.env.Record(models.ModelTask, s.owner)
	_, err := s.service.SetLevel(s.env.As(s.owner), record.ID, models.LevelRestricted, "")
	s.Require().NoError(err)
	return record
}

func (s *AccessSuite) hasAccess(recordID id.RecordID, actor id.ActorID) bool {
	s.T().Helper()
	ok, err := s.service.HasAccess(s.env.As(actor), recordID, actor)
	s.Require().NoError(err)
	return ok
}

func (s *AccessSuite) TestPublicAlwaysAllows() {
	record := s.env.Record(models.ModelTask, s.owner)
	guest := s.env.Guest("Share Link")

	_, err := s.service.SetLevel(s.env.As(s.owner), record.ID, models.LevelPublic, "open up")
	s.Require().NoError(err)

	s.True(s.hasAccess(record.ID, guest))
	s.True(s.hasAccess(record.ID, id.ActorID(uuid.New())))

	entry := s.env.LastEntry(auditmodels.KindAccess, record.ID)
	s.Equal(auditmodels.ActionChangeLevel, entry.Action)
	s.Equal("From internal to public", entry.ExtraInfo)
	s.Equal("open up", entry.Reason)
}

func (s *AccessSuite) TestExpiredWindowDeniesEveryoneButNothingElseChanges() {
	record := s.env.Record(models.ModelTask, s.owner)
	_, err := s.service.GrantActor(s.env.As(s.owner), record.ID, s.alice, Window{}, "")
	s.Require().NoError(err)
	end := s.env.Now.Add(time.Hour)
	_, err = s.service.SetWindow(s.env.As(s.owner), record.ID, Window{End: &end}, "")
	s.Require().NoError(err)
	s.True(s.hasAccess(record.ID, s.alice))

	s.env.Advance(2 * time.Hour)
	s.False(s.hasAccess(record.ID, s.alice))
	s.False(s.hasAccess(record.ID, s.owner))
	s.False(s.hasAccess(record.ID, s.admin))
	s.True(s.env.Reload(record.ID).Access.HasActor(s.alice), "the grant itself survives the window")
}

func (s *AccessSuite) TestGrantTwiceKeepsOneGrantAndTwoEntries() {
	record := s.restricted()

	for range 2 {
		_, err := s.service.GrantActor(s.env.As(s.owner), record.ID, s.alice, Window{}, "needs it")
		s.Require().NoError(err)
	}

	s.Equal([]id.ActorID{s.alice}, s.env.Reload(record.ID).Access.Actors)
	entries := s.env.Entries(auditmodels.KindAccess, record.ID)
	s.Require().Len(entries, 3)
	for _, e := range entries[:2] {
		s.Equal(auditmodels.ActionGrantUser, e.Action)
		s.Equal(s.alice, *e.NewActor)
		s.Equal("needs it", e.Reason)
	}
	s.True(s.hasAccess(record.ID, s.alice))
}

func (s *AccessSuite) TestGrantWithWindow() {
	record := s.restricted()
	start := s.env.Now.Add(time.Hour)
	end := s.env.Now.Add(48 * time.Hour)

	updated, err := s.service.GrantActor(s.env.As(s.owner), record.ID, s.alice, Window{Start: &start, End: &end}, "")
	s.Require().NoError(err)
	s.Equal(start, *updated.Access.WindowStart)
	s.Equal(end, *updated.Access.WindowEnd)
	s.False(s.hasAccess(record.ID, s.alice), "window has not started")

	s.env.Advance(2 * time.Hour)
	s.True(s.hasAccess(record.ID, s.alice))

	earlier := s.env.Now.Add(-24 * time.Hour)
	_, err = s.service.GrantActor(s.env.As(s.owner), record.ID, s.bob, Window{End: &earlier}, "")
	s.assertCode(err, dErrors.CodeInvalidInput)
	s.False(s.env.Reload(record.ID).Access.HasActor(s.bob))

	_, err = s.service.GrantActor(s.env.As(s.owner), record.ID, s.bob, Window{Start: &end, End: &start}, "")
	s.assertCode(err, dErrors.CodeInvalidInput)
}

func (s *AccessSuite) TestGrantPermissions() {
	record := s.restricted()

	_, err := s.service.GrantActor(s.env.As(s.alice), record.ID, s.alice, Window{}, "")
	s.assertCode(err, dErrors.CodeForbidden)
	s.Len(s.env.Entries(auditmodels.KindAccess, record.ID), 1)

	_, err = s.service.GrantActor(s.env.As(s.admin), record.ID, s.alice, Window{}, "")
	s.Require().NoError(err)

	_, err = s.service.GrantActor(s.env.As(s.alice), record.ID, s.bob, Window{}, "")
	s.Require().NoError(err, "explicit grant holders may grant")
	s.True(s.hasAccess(record.ID, s.bob))
}

func (s *AccessSuite) TestGrantReferencesMustExist() {
	record := s.restricted()
	ctx := s.env.As(s.owner)

	_, err := s.service.GrantActor(ctx, record.ID, id.ActorID(uuid.New()), Window{}, "")
	s.assertCode(err, dErrors.CodeInvalidReference)
	_, err = s.service.GrantGroup(ctx, record.ID, id.GroupID(uuid.New()), Window{}, "")
	s.assertCode(err, dErrors.CodeInvalidReference)
	_, err = s.service.GrantCustomGroup(ctx, record.ID, id.CustomGroupID(uuid.New()), Window{}, "")
	s.assertCode(err, dErrors.CodeInvalidReference)
	_, err = s.service.GrantActor(ctx, id.RecordID(uuid.New()), s.alice, Window{}, "")
	s.assertCode(err, dErrors.CodeNotFound)
}

func (s *AccessSuite) TestRevokeAbsentGrantIsLogged() {
	record := s.restricted()

	_, err := s.service.RevokeActor(s.env.As(s.owner), record.ID, s.alice, "cleanup")
	s.Require().NoError(err)

	entry := s.env.LastEntry(auditmodels.KindAccess, record.ID)
	s.Equal(auditmodels.ActionRevokeUser, entry.Action)
	s.Equal(s.alice, *entry.OldActor)
}

func (s *AccessSuite) TestSystemGroupGrant() {
	record := s.restricted()
	group := s.env.Group("Engineering", s.bob)

	_, err := s.service.GrantGroup(s.env.As(s.owner), record.ID, group, Window{}, "")
	s.Require().NoError(err)
	s.True(s.hasAccess(record.ID, s.bob))
	s.Equal([]id.GroupID{group}, s.env.LastEntry(auditmodels.KindAccess, record.ID).Groups)

	_, err = s.service.SetLevel(s.env.As(s.owner), record.ID, models.LevelPrivate, "")
	s.Require().NoError(err)
	s.False(s.hasAccess(record.ID, s.bob), "private records ignore system groups")

	_, err = s.service.SetLevel(s.env.As(s.owner), record.ID, models.LevelRestricted, "")
	s.Require().NoError(err)
	_, err = s.service.RevokeGroup(s.env.As(s.owner), record.ID, group, "")
	s.Require().NoError(err)
	s.False(s.hasAccess(record.ID, s.bob))
	s.Equal(auditmodels.ActionRevokeGroup, s.env.LastEntry(auditmodels.KindAccess, record.ID).Action)
}

func (s *AccessSuite) TestArchivingCustomGroupRevokesAccess() {
	record := s.restricted()
	group := s.env.CustomGroup("Reviewers", s.owner, s.carol)

	_, err := s.service.GrantCustomGroup(s.env.As(s.owner), record.ID, group.ID, Window{}, "")
	s.Require().NoError(err)
	s.Empty(s.env.Reload(record.ID).Access.Actors)
	s.True(s.hasAccess(record.ID, s.carol))

	_, err = s.env.Groups.Archive(s.env.As(s.owner), group.ID, "project over")
	s.Require().NoError(err)
	s.False(s.hasAccess(record.ID, s.carol))

	actors, err := s.service.AccessibleActors(s.env.As(s.owner), record.ID)
	s.Require().NoError(err)
	s.Empty(actors)
}

func (s *AccessSuite) TestInactiveCustomGroupCannotBeGranted() {
	record := s.restricted()
	group := s.env.CustomGroup("Reviewers", s.owner, s.carol)
	_, err := s.env.Groups.Archive(s.env.As(s.owner), group.ID, "")
	s.Require().NoError(err)

	_, err = s.service.GrantCustomGroup(s.env.As(s.owner), record.ID, group.ID, Window{}, "")
	s.assertCode(err, dErrors.CodeInvalidState)

	_, err = s.service.RevokeCustomGroup(s.env.As(s.owner), record.ID, group.ID, "")
	s.Require().NoError(err, "archived groups can still be detached")
}

func (s *AccessSuite) TestSetLevelRejectsUnknownLevel() {
	record := s.env.Record(models.ModelTask, s.owner)
	_, err := s.service.SetLevel(s.env.As(s.owner), record.ID, models.Level("secret"), "")
	s.assertCode(err, dErrors.CodeInvalidInput)
}

func (s *AccessSuite) TestSetWindowReplacesBothBounds() {
	record := s.env.Record(models.ModelTask, s.owner)
	start := s.env.Now.Add(-time.Hour)
	end := s.env.Now.Add(time.Hour)

	_, err := s.service.SetWindow(s.env.As(s.owner), record.ID, Window{Start: &start, End: &end}, "")
	s.Require().NoError(err)
	s.Equal("Start: 2025-03-14 08:00:00, End: 2025-03-14 10:00:00",
		s.env.LastEntry(auditmodels.KindAccess, record.ID).ExtraInfo)

	updated, err := s.service.SetWindow(s.env.As(s.owner), record.ID, Window{Start: &start}, "")
	s.Require().NoError(err)
	s.Nil(updated.Access.WindowEnd)
	s.Equal("Start: 2025-03-14 08:00:00, End: not set",
		s.env.LastEntry(auditmodels.KindAccess, record.ID).ExtraInfo)

	_, err = s.service.SetWindow(s.env.As(s.owner), record.ID, Window{Start: &end, End: &start}, "")
	s.assertCode(err, dErrors.CodeInvalidInput)
}

func (s *AccessSuite) TestBulkGrant() {
	record := s.restricted()
	_, err := s.service.GrantActor(s.env.As(s.owner), record.ID, s.alice, Window{}, "")
	s.Require().NoError(err)

	_, err = s.service.BulkGrant(s.env.As(s.owner), record.ID, []id.ActorID{s.alice, s.bob, s.carol}, Window{}, "onboarding")
	s.Require().NoError(err)

	entry := s.env.LastEntry(auditmodels.KindAccess, record.ID)
	s.Equal(auditmodels.ActionBulkGrantUsers, entry.Action)
	s.Equal([]id.ActorID{s.bob, s.carol}, entry.NewActors)
	s.Equal(s.bob, *entry.NewActor)
	s.Equal("Granted access to: Bob, Carol", entry.ExtraInfo)
	s.Equal([]id.ActorID{s.alice, s.bob, s.carol}, s.env.Reload(record.ID).Access.Actors)

	before := len(s.env.Entries(auditmodels.KindAccess, record.ID))
	_, err = s.service.BulkGrant(s.env.As(s.owner), record.ID, []id.ActorID{s.bob}, Window{}, "")
	s.Require().NoError(err)
	s.Len(s.env.Entries(auditmodels.KindAccess, record.ID), before, "nothing new, nothing logged")

	end := s.env.Now.Add(time.Hour)
	_, err = s.service.BulkGrant(s.env.As(s.owner), record.ID, []id.ActorID{s.bob}, Window{End: &end}, "")
	s.Require().NoError(err)
	s.Equal(auditmodels.ActionChangeDuration, s.env.LastEntry(auditmodels.KindAccess, record.ID).Action)
}

func (s *AccessSuite) TestBulkGrantValidation() {
	record := s.restricted()

	_, err := s.service.BulkGrant(s.env.As(s.owner), record.ID, nil, Window{}, "")
	s.assertCode(err, dErrors.CodeInvalidInput)

	_, err = s.service.BulkGrant(s.env.As(s.owner), record.ID, []id.ActorID{s.alice, id.ActorID(uuid.New())}, Window{}, "")
	s.assertCode(err, dErrors.CodeInvalidReference)
	s.Empty(s.env.Reload(record.ID).Access.Actors, "no partial grant")
}

func (s *AccessSuite) TestApplyAccess() {
	engineering := s.env.Group("Engineering", s.carol)
	record := s.env.Record(models.ModelTask, s.owner)
	end := s.env.Now.Add(48 * time.Hour)

	updated, err := s.service.ApplyAccess(s.env.As(s.owner), record.ID, ApplyCommand{
		Level:  models.LevelRestricted,
		Actors: []id.ActorID{s.alice, s.bob, s.alice},
		Groups: []id.GroupID{engineering},
		Window: Window{End: &end},
		Reason: "handover",
	})
	s.Require().NoError(err)
	s.Equal(models.LevelRestricted, updated.Access.Level)
	s.Equal([]id.ActorID{s.alice, s.bob}, updated.Access.Actors)
	s.Equal([]id.GroupID{engineering}, updated.Access.Groups)
	s.Require().NotNil(updated.Access.WindowEnd)
	s.Len(s.env.Entries(auditmodels.KindAccess, record.ID), 4)
}

func (s *AccessSuite) TestApplyAccessIsAllOrNothing() {
	record := s.env.Record(models.ModelTask, s.owner)

	_, err := s.service.ApplyAccess(s.env.As(s.owner), record.ID, ApplyCommand{
		Level:        models.LevelPrivate,
		Actors:       []id.ActorID{s.alice},
		CustomGroups: []id.CustomGroupID{id.CustomGroupID(uuid.New())},
	})
	s.assertCode(err, dErrors.CodeInvalidReference)

	reloaded := s.env.Reload(record.ID)
	s.Equal(record.Access.Level, reloaded.Access.Level)
	s.Empty(reloaded.Access.Actors)
	s.Empty(s.env.Entries(auditmodels.KindAccess, record.ID))

	_, err = s.service.ApplyAccess(s.env.As(s.alice), record.ID, ApplyCommand{Level: models.LevelPublic})
	s.assertCode(err, dErrors.CodeForbidden)
}

func (s *AccessSuite) TestBulkRevoke() {
	record := s.restricted()
	_, err := s.service.BulkGrant(s.env.As(s.owner), record.ID, []id.ActorID{s.alice, s.bob}, Window{}, "")
	s.Require().NoError(err)

	_, err = s.service.BulkRevoke(s.env.As(s.owner), record.ID, []id.ActorID{s.bob, s.carol}, "offboarding")
	s.Require().NoError(err)

	entry := s.env.LastEntry(auditmodels.KindAccess, record.ID)
	s.Equal(auditmodels.ActionBulkRevokeUsers, entry.Action)
	s.Equal([]id.ActorID{s.bob}, entry.OldActors)
	s.Equal("Revoked access from: Bob", entry.ExtraInfo)
	s.Equal([]id.ActorID{s.alice}, s.env.Reload(record.ID).Access.Actors)

	before := len(s.env.Entries(auditmodels.KindAccess, record.ID))
	_, err = s.service.BulkRevoke(s.env.As(s.owner), record.ID, []id.ActorID{s.carol}, "")
	s.Require().NoError(err)
	s.Len(s.env.Entries(auditmodels.KindAccess, record.ID), before)
}

func (s *AccessSuite) TestCreateAndAttachCustomGroup() {
	record := s.restricted()

	updated, group, err := s.service.CreateAndAttachCustomGroup(s.env.As(s.owner), record.ID, AttachGroupCommand{
		Name:    "Launch reviewers",
		Members: []id.ActorID{s.alice, s.bob},
		Reason:  "launch",
	})
	s.Require().NoError(err)
	s.Equal(agmodels.TypeCustom, group.Type)
	s.True(group.IsManager(s.owner))
	s.Equal("Access group created for project.task record", group.Description)
	s.Equal([]id.CustomGroupID{group.ID}, updated.Access.CustomGroups)
	s.True(s.hasAccess(record.ID, s.bob))

	entry := s.env.LastEntry(auditmodels.KindAccess, record.ID)
	s.Equal(auditmodels.ActionCreateAssignCustomGroup, entry.Action)
	s.Equal("Created group: Launch reviewers", entry.ExtraInfo)
	s.Equal([]id.CustomGroupID{group.ID}, entry.CustomGroups)

	_, _, err = s.service.CreateAndAttachCustomGroup(s.env.As(s.alice), record.ID, AttachGroupCommand{
		Name:    "Sneaky",
		Members: []id.ActorID{s.alice},
	})
	s.assertCode(err, dErrors.CodeForbidden)
	_, err = s.env.Groups.FindByName(s.env.As(s.owner), "Sneaky")
	s.assertCode(err, dErrors.CodeNotFound)

	_, _, err = s.service.CreateAndAttachCustomGroup(s.env.As(s.owner), record.ID, AttachGroupCommand{Name: "Empty"})
	s.assertCode(err, dErrors.CodeInvalidState)
}

func (s *AccessSuite) TestReplaceAndClearCustomGroups() {
	record := s.restricted()
	first := s.env.CustomGroup("First", s.owner, s.alice)
	second := s.env.CustomGroup("Second", s.owner, s.bob)
	archived := s.env.CustomGroup("Archived", s.owner, s.carol)
	_, err := s.env.Groups.Archive(s.env.As(s.owner), archived.ID, "")
	s.Require().NoError(err)

	_, err = s.service.GrantCustomGroup(s.env.As(s.owner), record.ID, first.ID, Window{}, "")
	s.Require().NoError(err)

	_, err = s.service.ReplaceCustomGroups(s.env.As(s.owner), record.ID, []id.CustomGroupID{second.ID, archived.ID}, "")
	s.assertCode(err, dErrors.CodeInvalidState)
	s.Equal([]id.CustomGroupID{first.ID}, s.env.Reload(record.ID).Access.CustomGroups)

	_, err = s.service.ReplaceCustomGroups(s.env.As(s.owner), record.ID, []id.CustomGroupID{second.ID}, "rotate")
	s.Require().NoError(err)
	s.False(s.hasAccess(record.ID, s.alice))
	s.True(s.hasAccess(record.ID, s.bob))
	s.Equal("Replaced groups: First → Second", s.env.LastEntry(auditmodels.KindAccess, record.ID).ExtraInfo)

	_, err = s.service.ClearCustomGroups(s.env.As(s.owner), record.ID, "")
	s.Require().NoError(err)
	entry := s.env.LastEntry(auditmodels.KindAccess, record.ID)
	s.Equal(auditmodels.ActionClearCustomGroups, entry.Action)
	s.Equal("Cleared all custom groups: Second", entry.ExtraInfo)
	s.Empty(s.env.Reload(record.ID).Access.CustomGroups)

	before := len(s.env.Entries(auditmodels.KindAccess, record.ID))
	_, err = s.service.ClearCustomGroups(s.env.As(s.owner), record.ID, "")
	s.Require().NoError(err)
	s.Len(s.env.Entries(auditmodels.KindAccess, record.ID), before)
}

func (s *AccessSuite) TestAccessibleActorsFollowGroupChanges() {
	record := s.restricted()
	dave := s.env.Actor("Dave")
	engineering := s.env.Group("Engineering", s.bob)
	reviewers := s.env.CustomGroup("Reviewers", s.owner, s.carol)
	ctx := s.env.As(s.owner)

	_, err := s.service.GrantActor(ctx, record.ID, s.alice, Window{}, "")
	s.Require().NoError(err)
	_, err = s.service.GrantGroup(ctx, record.ID, engineering, Window{}, "")
	s.Require().NoError(err)
	_, err = s.service.GrantCustomGroup(ctx, record.ID, reviewers.ID, Window{}, "")
	s.Require().NoError(err)

	actors, err := s.service.AccessibleActors(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal([]id.ActorID{s.alice, s.bob, s.carol}, actors)

	_, err = s.env.Groups.AddMember(ctx, reviewers.ID, dave, "")
	s.Require().NoError(err)
	actors, err = s.service.AccessibleActors(ctx, record.ID)
	s.Require().NoError(err)
	s.Contains(actors, dave, "group changes invalidate cached sets")

	_, err = s.service.RevokeActor(ctx, record.ID, s.alice, "")
	s.Require().NoError(err)
	actors, err = s.service.AccessibleActors(ctx, record.ID)
	s.Require().NoError(err)
	s.NotContains(actors, s.alice, "record mutations invalidate the record's set")
}

func (s *AccessSuite) TestAccessibleActorsFollowSystemGroupMembership() {
	record := s.restricted()
	engineering := s.env.Group("Engineering", s.bob)
	ctx := s.env.As(s.owner)

	_, err := s.service.GrantGroup(ctx, record.ID, engineering, Window{}, "")
	s.Require().NoError(err)
	actors, err := s.service.AccessibleActors(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal([]id.ActorID{s.bob}, actors)

	s.Require().NoError(s.env.Directory.AddGroupMember(ctx, engineering, s.carol))
	actors, err = s.service.AccessibleActors(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal([]id.ActorID{s.bob, s.carol}, actors)

	s.Require().NoError(s.env.Directory.RemoveGroupMember(ctx, engineering, s.bob))
	actors, err = s.service.AccessibleActors(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal([]id.ActorID{s.carol}, actors)
}

func (s *AccessSuite) TestAccessibleActorsDropExpiredCustomGroup() {
	record := s.restricted()
	ctx := s.env.As(s.owner)
	auditors, err := s.env.Groups.Create(ctx, agCreate("Auditors", s.carol, s.env.Now.Add(time.Hour)))
	s.Require().NoError(err)
	_, err = s.service.GrantCustomGroup(ctx, record.ID, auditors.ID, Window{}, "")
	s.Require().NoError(err)

	actors, err := s.service.AccessibleActors(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal([]id.ActorID{s.carol}, actors)

	later := requestcontext.WithTime(ctx, s.env.Now.Add(2*time.Hour))
	actors, err = s.service.AccessibleActors(later, record.ID)
	s.Require().NoError(err)
	s.Empty(actors, "the expiry sweep has not run yet")
}

func (s *AccessSuite) TestExpiringCustomGroupSetsAreNotCached() {
	ctrl := gomock.NewController(s.T())
	c := cachemocks.NewMockCache(ctrl)
	svc := New(s.env.Records, s.env.Directory, s.env.Groups, WithCache(c))
	record := s.env.Record(models.ModelTask, s.owner)
	ctx := s.env.As(s.owner)
	auditors, err := s.env.Groups.Create(ctx, agCreate("Auditors", s.carol, s.env.Now.Add(time.Hour)))
	s.Require().NoError(err)

	c.EXPECT().Invalidate(gomock.Any(), record.ID).Return(nil).Times(2)
	_, err = svc.SetLevel(ctx, record.ID, models.LevelRestricted, "")
	s.Require().NoError(err)
	_, err = svc.GrantCustomGroup(ctx, record.ID, auditors.ID, Window{}, "")
	s.Require().NoError(err)

	c.EXPECT().Get(gomock.Any(), record.ID).Return(nil, false, nil)
	actors, err := svc.AccessibleActors(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal([]id.ActorID{s.carol}, actors)
}

func (s *AccessSuite) TestCheckGroupAccessAndSummary() {
	record := s.restricted()
	engineering := s.env.Group("Engineering", s.bob, s.carol)
	reviewers := s.env.CustomGroup("Reviewers", s.owner, s.carol, s.alice)
	old := s.env.CustomGroup("Old crew", s.owner, s.admin)
	ctx := s.env.As(s.owner)

	_, err := s.service.GrantGroup(ctx, record.ID, engineering, Window{}, "")
	s.Require().NoError(err)
	_, err = s.service.ReplaceCustomGroups(ctx, record.ID, []id.CustomGroupID{reviewers.ID, old.ID}, "")
	s.Require().NoError(err)
	_, err = s.env.Groups.Archive(ctx, old.ID, "")
	s.Require().NoError(err)

	ok, err := s.service.CheckGroupAccess(ctx, record.ID, s.alice)
	s.Require().NoError(err)
	s.True(ok)
	ok, err = s.service.CheckGroupAccess(ctx, record.ID, s.admin)
	s.Require().NoError(err)
	s.False(ok, "archived groups grant nothing")

	summary, err := s.service.GroupAccessSummary(ctx, record.ID)
	s.Require().NoError(err)
	s.Require().Len(summary.SystemGroups, 1)
	s.Equal("Engineering", summary.SystemGroups[0].Name)
	s.Equal(2, summary.SystemGroups[0].UserCount)
	s.Require().Len(summary.CustomGroups, 2)
	s.True(summary.CustomGroups[0].Active)
	s.False(summary.CustomGroups[1].Active)
	s.Equal(1, summary.ActiveCustomGroups)
	s.Equal(3, summary.TotalUsers, "bob, carol and alice")
}

func (s *AccessSuite) TestModelWithoutAccessRejectsMutations() {
	milestone := s.env.Record(models.ModelMilestone, s.owner)

	_, err := s.service.GrantActor(s.env.As(s.owner), milestone.ID, s.alice, Window{}, "")
	s.assertCode(err, dErrors.CodeInvalidState)
	_, err = s.service.AccessibleActors(s.env.As(s.owner), milestone.ID)
	s.assertCode(err, dErrors.CodeInvalidState)
}

func (s *AccessSuite) TestCacheFailuresDegradeToComputation() {
	ctrl := gomock.NewController(s.T())
	broken := cachemocks.NewMockCache(ctrl)
	svc := New(s.env.Records, s.env.Directory, s.env.Groups, WithCache(broken))
	record := s.env.Record(models.ModelTask, s.owner)

	broken.EXPECT().Invalidate(gomock.Any(), record.ID).Return(errors.New("redis down"))
	_, err := svc.GrantActor(s.env.As(s.owner), record.ID, s.alice, Window{}, "")
	s.Require().NoError(err, "invalidation failures do not fail the mutation")

	broken.EXPECT().Get(gomock.Any(), record.ID).Return(nil, false, errors.New("redis down"))
	broken.EXPECT().Set(gomock.Any(), record.ID, []id.ActorID{s.alice}).Return(errors.New("redis down"))
	actors, err := svc.AccessibleActors(s.env.As(s.owner), record.ID)
	s.Require().NoError(err)
	s.Equal([]id.ActorID{s.alice}, actors)
}
