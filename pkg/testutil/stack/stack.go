// Package stack wires the in-memory stewardship stack for service tests:
// directory, custom groups, audit log and record unit of work, sharing one
// clock.
package stack

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	agmodels "stewardship/internal/accessgroup/models"
	agservice "stewardship/internal/accessgroup/service"
	agstore "stewardship/internal/accessgroup/store"
	auditmodels "stewardship/internal/auditlog/models"
	auditservice "stewardship/internal/auditlog/service"
	auditstore "stewardship/internal/auditlog/store"
	dirmodels "stewardship/internal/directory/models"
	dirservice "stewardship/internal/directory/service"
	dirstore "stewardship/internal/directory/store"
	recordmodels "stewardship/internal/record/models"
	recordservice "stewardship/internal/record/service"
	recordstore "stewardship/internal/record/store"
	id "stewardship/pkg/domain"
	"stewardship/pkg/platform/tx"
	"stewardship/pkg/requestcontext"
	"stewardship/pkg/testutil"
)

type Env struct {
	T           testing.TB
	Now         time.Time
	Directory   *dirservice.Service
	Groups      *agservice.Service
	Logs        *auditservice.Service
	LogStore    *auditstore.InMemoryStore
	Records     *recordservice.Service
	RecordStore *recordstore.InMemoryStore
	Runner      tx.Runner
}

func New(t testing.TB) *Env {
	t.Helper()
	e := &Env{
		T:           t,
		Now:         testutil.FixedNow,
		LogStore:    auditstore.NewInMemory(),
		RecordStore: recordstore.NewInMemory(),
		Runner:      tx.NewShardedRunner(time.Second),
	}
	e.Directory = dirservice.New(dirstore.NewInMemory())
	e.Groups = agservice.New(agstore.NewInMemory(), e.Directory, e.Runner)
	e.Logs = auditservice.New(e.LogStore)
	e.Records = recordservice.New(e.RecordStore, recordmodels.DefaultRegistry(), e.Runner, e.Logs, e.Directory)
	e.Logs.SetRecordResolver(e.Records)
	return e
}

// As returns a request context acting as actor at the env clock.
func (e *Env) As(actor id.ActorID) context.Context {
	ctx := requestcontext.WithTime(context.Background(), e.Now)
	ctx = requestcontext.WithRequestID(ctx, "test-"+uuid.NewString()[:8])
	return requestcontext.WithActorID(ctx, actor)
}

// Advance moves the env clock forward.
func (e *Env) Advance(d time.Duration) {
	e.Now = e.Now.Add(d)
}

// Actor registers a recognized, non-admin actor.
func (e *Env) Actor(name string) id.ActorID {
	return e.register(testutil.NewActorBuilder().WithName(name).Build())
}

func (e *Env) Admin(name string) id.ActorID {
	return e.register(testutil.NewActorBuilder().WithName(name).Admin().Build())
}

// Guest registers an anonymous actor, e.g. a portal or share link user.
func (e *Env) Guest(name string) id.ActorID {
	return e.register(testutil.NewActorBuilder().WithName(name).Anonymous().Build())
}

func (e *Env) register(a *dirmodels.Actor) id.ActorID {
	e.T.Helper()
	actor, err := e.Directory.RegisterActor(context.Background(), dirservice.RegisterActorCommand{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Admin:     a.Admin,
		Anonymous: a.Anonymous,
	})
	if err != nil {
		e.T.Fatalf("register actor %s: %v", a.Name, err)
	}
	return actor.ID
}

// Group registers a system group with members.
func (e *Env) Group(name string, members ...id.ActorID) id.GroupID {
	e.T.Helper()
	g, err := e.Directory.RegisterGroup(context.Background(), id.GroupID(uuid.New()), name, members)
	if err != nil {
		e.T.Fatalf("register group %s: %v", name, err)
	}
	return g.ID
}

// CustomGroup creates an active general custom group managed by manager.
func (e *Env) CustomGroup(name string, manager id.ActorID, members ...id.ActorID) *agmodels.Group {
	e.T.Helper()
	g, err := e.Groups.Create(e.As(manager), agservice.CreateCommand{Name: name, Members: members})
	if err != nil {
		e.T.Fatalf("create custom group %s: %v", name, err)
	}
	return g
}

// Record creates a record of model owned by owner.
func (e *Env) Record(model string, owner id.ActorID) *recordmodels.Record {
	e.T.Helper()
	r, err := e.Records.Create(e.As(owner), recordservice.CreateCommand{Model: model, Name: "Record " + uuid.NewString()[:8]})
	if err != nil {
		e.T.Fatalf("create record: %v", err)
	}
	return r
}

// Reload returns the stored state of a record.
func (e *Env) Reload(recordID id.RecordID) *recordmodels.Record {
	e.T.Helper()
	r, err := e.Records.Get(context.Background(), recordID)
	if err != nil {
		e.T.Fatalf("reload record: %v", err)
	}
	return r
}

// Entries lists the log entries of kind for a record, newest first.
func (e *Env) Entries(kind auditmodels.Kind, recordID id.RecordID) []*auditmodels.Entry {
	e.T.Helper()
	entries, err := e.Logs.List(context.Background(), auditmodels.Filter{
		Kinds:    []auditmodels.Kind{kind},
		TargetID: &recordID,
	})
	if err != nil {
		e.T.Fatalf("list entries: %v", err)
	}
	return entries
}

// LastEntry returns the newest entry of kind for a record.
func (e *Env) LastEntry(kind auditmodels.Kind, recordID id.RecordID) *auditmodels.Entry {
	e.T.Helper()
	entries := e.Entries(kind, recordID)
	if len(entries) == 0 {
		e.T.Fatalf("no %s log entries for record %s", kind, recordID)
	}
	return entries[0]
}
