package testutil

import (
	"time"

	"github.com/google/uuid"

	dirmodels "stewardship/internal/directory/models"
	recordmodels "stewardship/internal/record/models"
	id "stewardship/pkg/domain"
)

// TestIDs provides convenient pre-generated IDs for tests.
// Use these for deterministic test data.
var TestIDs = struct {
	ActorID1       id.ActorID
	ActorID2       id.ActorID
	ActorID3       id.ActorID
	GroupID1       id.GroupID
	CustomGroupID1 id.CustomGroupID
	RecordID1      id.RecordID
}{
	ActorID1:       id.ActorID(uuid.MustParse("11111111-1111-1111-1111-111111111111")),
	ActorID2:       id.ActorID(uuid.MustParse("22222222-2222-2222-2222-222222222222")),
	ActorID3:       id.ActorID(uuid.MustParse("33333333-3333-3333-3333-333333333333")),
	GroupID1:       id.GroupID(uuid.MustParse("aaaa0000-0000-0000-0000-000000000001")),
	CustomGroupID1: id.CustomGroupID(uuid.MustParse("cccc0000-0000-0000-0000-000000000001")),
	RecordID1:      id.RecordID(uuid.MustParse("eeee0000-0000-0000-0000-000000000001")),
}

// FixedNow is the reference clock used by fixtures.
var FixedNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

// ActorBuilder provides a fluent interface for building directory actors.
type ActorBuilder struct {
	actor *dirmodels.Actor
}

// NewActorBuilder creates a recognized, non-admin actor.
func NewActorBuilder() *ActorBuilder {
	return &ActorBuilder{
		actor: &dirmodels.Actor{
			ID:        id.ActorID(uuid.New()),
			Name:      "Test Actor",
			Email:     "actor@example.com",
			CreatedAt: FixedNow,
		},
	}
}

func (b *ActorBuilder) WithID(actorID id.ActorID) *ActorBuilder {
	b.actor.ID = actorID
	return b
}

func (b *ActorBuilder) WithName(name string) *ActorBuilder {
	b.actor.Name = name
	return b
}

func (b *ActorBuilder) Admin() *ActorBuilder {
	b.actor.Admin = true
	return b
}

func (b *ActorBuilder) Anonymous() *ActorBuilder {
	b.actor.Anonymous = true
	return b
}

func (b *ActorBuilder) Build() *dirmodels.Actor {
	return b.actor
}

// RecordBuilder provides a fluent interface for building records with
// capability states already populated.
type RecordBuilder struct {
	record *recordmodels.Record
}

// NewRecordBuilder creates a task record owned by TestIDs.ActorID1.
func NewRecordBuilder() *RecordBuilder {
	r, err := recordmodels.NewRecord(id.RecordID(uuid.New()), recordmodels.ModelTask, "Test record",
		TestIDs.ActorID1, recordmodels.AllCapabilities, FixedNow)
	if err != nil {
		panic(err)
	}
	return &RecordBuilder{record: r}
}

func (b *RecordBuilder) WithID(recordID id.RecordID) *RecordBuilder {
	b.record.ID = recordID
	return b
}

func (b *RecordBuilder) OwnedBy(owner id.ActorID) *RecordBuilder {
	b.record.Ownership.Owner = recordmodels.ActorPtr(owner)
	return b
}

func (b *RecordBuilder) Unowned() *RecordBuilder {
	b.record.Ownership.Owner = nil
	return b
}

func (b *RecordBuilder) WithCoOwners(actors ...id.ActorID) *RecordBuilder {
	b.record.Ownership.CoOwners = actors
	return b
}

func (b *RecordBuilder) WithLevel(level recordmodels.Level) *RecordBuilder {
	b.record.Access.Level = level
	return b
}

func (b *RecordBuilder) WithAccessActors(actors ...id.ActorID) *RecordBuilder {
	b.record.Access.Actors = actors
	return b
}

func (b *RecordBuilder) WithAccessGroups(groups ...id.GroupID) *RecordBuilder {
	b.record.Access.Groups = groups
	return b
}

func (b *RecordBuilder) WithCustomGroups(groups ...id.CustomGroupID) *RecordBuilder {
	b.record.Access.CustomGroups = groups
	return b
}

func (b *RecordBuilder) WithWindow(start, end *time.Time) *RecordBuilder {
	b.record.Access.WindowStart = start
	b.record.Access.WindowEnd = end
	return b
}

func (b *RecordBuilder) AssignedTo(actors ...id.ActorID) *RecordBuilder {
	b.record.Assignment.Assignees = actors
	b.record.Assignment.Status = recordmodels.StatusAssigned
	return b
}

func (b *RecordBuilder) WithStatus(status recordmodels.Status) *RecordBuilder {
	b.record.Assignment.Status = status
	return b
}

func (b *RecordBuilder) WithDeadline(deadline time.Time) *RecordBuilder {
	b.record.Assignment.Deadline = recordmodels.TimePtr(deadline)
	return b
}

func (b *RecordBuilder) ResponsibleActors(primary []id.ActorID, secondary []id.ActorID) *RecordBuilder {
	b.record.Responsibility.Primary = primary
	b.record.Responsibility.Secondary = secondary
	return b
}

func (b *RecordBuilder) ResponsibleUntil(end time.Time) *RecordBuilder {
	b.record.Responsibility.End = recordmodels.TimePtr(end)
	return b
}

func (b *RecordBuilder) Build() *recordmodels.Record {
	return b.record
}
