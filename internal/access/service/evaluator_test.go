package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Records,Directory,CustomGroups

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"stewardship/internal/access/service/mocks"
	"stewardship/internal/record/models"
	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
	"stewardship/pkg/testutil"
	"stewardship/pkg/testutil/stack"
)

func TestEvaluate(t *testing.T) {
	env := stack.New(t)
	owner := env.Actor("Olivia Owner")
	coOwner := env.Actor("Colin CoOwner")
	alice := env.Actor("Alice")
	bob := env.Actor("Bob")
	carol := env.Actor("Carol")
	dave := env.Actor("Dave")
	guest := env.Guest("Share Link")
	admin := env.Admin("Ada Admin")
	stranger := id.ActorID(uuid.New())

	engineering := env.Group("Engineering", bob)
	reviewers := env.CustomGroup("Reviewers", owner, carol)
	archived := env.CustomGroup("Old crew", owner, dave)
	_, err := env.Groups.Archive(env.As(owner), archived.ID, "")
	require.NoError(t, err)

	past := env.Now.Add(-time.Hour)
	future := env.Now.Add(time.Hour)

	record := func(level models.Level) *testutil.RecordBuilder {
		return testutil.NewRecordBuilder().OwnedBy(owner).WithCoOwners(coOwner).WithLevel(level)
	}

	tests := []struct {
		name   string
		record *models.Record
		actor  id.ActorID
		want   bool
	}{
		{"public admits guests", record(models.LevelPublic).Build(), guest, true},
		{"public admits unknown actors", record(models.LevelPublic).Build(), stranger, true},
		{"internal admits recognized users", record(models.LevelInternal).Build(), alice, true},
		{"internal rejects guests", record(models.LevelInternal).Build(), guest, false},
		{"internal rejects unknown actors", record(models.LevelInternal).Build(), stranger, false},
		{"restricted without grant", record(models.LevelRestricted).Build(), alice, false},
		{"restricted explicit grant", record(models.LevelRestricted).WithAccessActors(alice).Build(), alice, true},
		{"restricted system group", record(models.LevelRestricted).WithAccessGroups(engineering).Build(), bob, true},
		{"restricted custom group", record(models.LevelRestricted).WithCustomGroups(reviewers.ID).Build(), carol, true},
		{"restricted archived custom group", record(models.LevelRestricted).WithCustomGroups(archived.ID).Build(), dave, false},
		{"restricted dangling custom group", record(models.LevelRestricted).WithCustomGroups(id.CustomGroupID(uuid.New())).Build(), carol, false},
		{"private ignores system groups", record(models.LevelPrivate).WithAccessGroups(engineering).Build(), bob, false},
		{"private custom group", record(models.LevelPrivate).WithCustomGroups(reviewers.ID).Build(), carol, true},
		{"private explicit grant", record(models.LevelPrivate).WithAccessActors(alice).Build(), alice, true},
		{"private owner", record(models.LevelPrivate).Build(), owner, true},
		{"private co-owner", record(models.LevelPrivate).Build(), coOwner, true},
		{"private admin", record(models.LevelPrivate).Build(), admin, true},
		{"ended window binds public", record(models.LevelPublic).WithWindow(nil, &past).Build(), alice, false},
		{"ended window binds owners", record(models.LevelPublic).WithWindow(nil, &past).Build(), owner, false},
		{"ended window binds admins", record(models.LevelPublic).WithWindow(nil, &past).Build(), admin, false},
		{"window not started", record(models.LevelPublic).WithWindow(&future, nil).Build(), alice, false},
		{"open window", record(models.LevelRestricted).WithAccessActors(alice).WithWindow(&past, &future).Build(), alice, true},
	}

	svc := New(env.Records, env.Directory, env.Groups)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Evaluate(env.As(tt.actor), tt.record, tt.actor)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateWithoutAccessState(t *testing.T) {
	env := stack.New(t)
	owner := env.Actor("Olivia Owner")
	alice := env.Actor("Alice")
	guest := env.Guest("Share Link")
	milestone := env.Record(models.ModelMilestone, owner)
	require.False(t, milestone.Has(models.CapabilityAccess))

	svc := New(env.Records, env.Directory, env.Groups)

	for actor, want := range map[id.ActorID]bool{owner: true, alice: true, guest: false} {
		got, err := svc.HasAccess(env.As(actor), milestone.ID, actor)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestEvaluateExpiredCustomGroupBeforeSweep(t *testing.T) {
	env := stack.New(t)
	owner := env.Actor("Olivia Owner")
	carol := env.Actor("Carol")
	expiry := env.Now.Add(time.Hour)
	temp, err := env.Groups.Create(env.As(owner), agCreate("Auditors", carol, expiry))
	require.NoError(t, err)

	record := testutil.NewRecordBuilder().OwnedBy(owner).WithLevel(models.LevelRestricted).WithCustomGroups(temp.ID).Build()
	svc := New(env.Records, env.Directory, env.Groups)

	got, err := svc.Evaluate(env.As(carol), record, carol)
	require.NoError(t, err)
	assert.True(t, got)

	env.Advance(2 * time.Hour)
	got, err = svc.Evaluate(env.As(carol), record, carol)
	require.NoError(t, err)
	assert.False(t, got, "a group past its expiry stops granting before the sweep runs")
}

func TestEvaluatePropagatesDirectoryErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	directory := mocks.NewMockDirectory(ctrl)
	svc := New(mocks.NewMockRecords(ctrl), directory, mocks.NewMockCustomGroups(ctrl))

	record := testutil.NewRecordBuilder().WithLevel(models.LevelInternal).Build()
	actor := testutil.TestIDs.ActorID2
	directory.EXPECT().IsAdmin(gomock.Any(), actor).
		Return(false, dErrors.Wrap(errors.New("connection reset"), dErrors.CodeInternal, "failed to load actor"))

	_, err := svc.Evaluate(context.Background(), record, actor)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestCanGrantAccess(t *testing.T) {
	env := stack.New(t)
	owner := env.Actor("Olivia Owner")
	coOwner := env.Actor("Colin CoOwner")
	holder := env.Actor("Hal Holder")
	alice := env.Actor("Alice")
	admin := env.Admin("Ada Admin")

	record := testutil.NewRecordBuilder().OwnedBy(owner).WithCoOwners(coOwner).WithAccessActors(holder).Build()
	svc := New(env.Records, env.Directory, env.Groups)

	for actor, want := range map[id.ActorID]bool{owner: true, holder: true, admin: true, coOwner: false, alice: false} {
		got, err := svc.CanGrantAccess(context.Background(), record, actor)
		require.NoError(t, err)
		assert.Equal(t, want, got, "actor %s", actor)

		manage, err := svc.CanManageGroups(context.Background(), record, actor)
		require.NoError(t, err)
		assert.Equal(t, want || actor == coOwner, manage, "actor %s", actor)
	}
}
