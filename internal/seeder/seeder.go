// Package seeder populates a fresh deployment with demo actors, groups and
// records so the API can be explored without setup.
package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	accessservice "stewardship/internal/access/service"
	agmodels "stewardship/internal/accessgroup/models"
	assignmentservice "stewardship/internal/assignment/service"
	dirmodels "stewardship/internal/directory/models"
	dirservice "stewardship/internal/directory/service"
	"stewardship/internal/record/models"
	recordservice "stewardship/internal/record/service"
	responsibilityservice "stewardship/internal/responsibility/service"
	id "stewardship/pkg/domain"
	"stewardship/pkg/requestcontext"
)

type Directory interface {
	ListActors(ctx context.Context) ([]*dirmodels.Actor, error)
	RegisterActor(ctx context.Context, cmd dirservice.RegisterActorCommand) (*dirmodels.Actor, error)
	RegisterGroup(ctx context.Context, groupID id.GroupID, name string, members []id.ActorID) (*dirmodels.Group, error)
}

type Groups interface {
	CreateProjectTeam(ctx context.Context, project string, members []id.ActorID) (*agmodels.Group, error)
}

type Records interface {
	Create(ctx context.Context, cmd recordservice.CreateCommand) (*models.Record, error)
}

type Ownership interface {
	AddCoOwner(ctx context.Context, recordID id.RecordID, actor id.ActorID, reason string) (*models.Record, error)
	Release(ctx context.Context, recordID id.RecordID, reason string) (*models.Record, error)
}

type Access interface {
	SetLevel(ctx context.Context, recordID id.RecordID, level models.Level, reason string) (*models.Record, error)
	GrantGroup(ctx context.Context, recordID id.RecordID, groupID id.GroupID, window accessservice.Window, reason string) (*models.Record, error)
	GrantCustomGroup(ctx context.Context, recordID id.RecordID, groupID id.CustomGroupID, window accessservice.Window, reason string) (*models.Record, error)
}

type Assignment interface {
	Assign(ctx context.Context, recordID id.RecordID, cmd assignmentservice.AssignCommand) (*models.Record, error)
}

type Responsibility interface {
	Assign(ctx context.Context, recordID id.RecordID, cmd responsibilityservice.AssignCommand) (*models.Record, error)
	AssignSecondary(ctx context.Context, recordID id.RecordID, actors []id.ActorID, reason string) (*models.Record, error)
}

// Services bundles what the seeder drives. Every change goes through the
// services so the demo history shows up in the audit log.
type Services struct {
	Directory      Directory
	Groups         Groups
	Records        Records
	Ownership      Ownership
	Access         Access
	Assignment     Assignment
	Responsibility Responsibility
}

// Summary lists what was created, for printing tokens afterwards.
type Summary struct {
	Admin   id.ActorID
	Actors  map[string]id.ActorID
	Records []id.RecordID
}

type Seeder struct {
	svc    Services
	logger *slog.Logger
}

func New(svc Services, logger *slog.Logger) *Seeder {
	return &Seeder{svc: svc, logger: logger}
}

// SeedAll is a no-op returning nil when the directory already has actors.
func (s *Seeder) SeedAll(ctx context.Context) (*Summary, error) {
	existing, err := s.svc.Directory.ListActors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list actors: %w", err)
	}
	if len(existing) > 0 {
		s.logger.InfoContext(ctx, "directory already populated, skipping seed", "actors", len(existing))
		return nil, nil
	}

	s.logger.InfoContext(ctx, "seeding demo data...")

	summary, err := s.seedActors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to seed actors: %w", err)
	}
	if err := s.seedRecords(ctx, summary); err != nil {
		return nil, fmt.Errorf("failed to seed records: %w", err)
	}

	s.logger.InfoContext(ctx, "demo data seeded successfully",
		"actors", len(summary.Actors),
		"records", len(summary.Records),
	)
	return summary, nil
}

func (s *Seeder) seedActors(ctx context.Context) (*Summary, error) {
	demoActors := []struct {
		name      string
		email     string
		admin     bool
		anonymous bool
	}{
		{"Ada Admin", "ada@example.com", true, false},
		{"Alice Anderson", "alice@example.com", false, false},
		{"Bob Brown", "bob@example.com", false, false},
		{"Charlie Chen", "charlie@example.com", false, false},
		{"Diana Davis", "diana@example.com", false, false},
		{"Portal Guest", "", false, true},
	}

	summary := &Summary{Actors: make(map[string]id.ActorID, len(demoActors))}
	for _, a := range demoActors {
		actor, err := s.svc.Directory.RegisterActor(ctx, dirservice.RegisterActorCommand{
			Name:      a.name,
			Email:     a.email,
			Admin:     a.admin,
			Anonymous: a.anonymous,
		})
		if err != nil {
			return nil, err
		}
		summary.Actors[a.name] = actor.ID
		if a.admin {
			summary.Admin = actor.ID
		}
	}
	return summary, nil
}

func (s *Seeder) seedRecords(ctx context.Context, summary *Summary) error {
	alice := summary.Actors["Alice Anderson"]
	bob := summary.Actors["Bob Brown"]
	charlie := summary.Actors["Charlie Chen"]
	diana := summary.Actors["Diana Davis"]
	asAlice := requestcontext.WithActorID(ctx, alice)

	engineering, err := s.svc.Directory.RegisterGroup(ctx, id.GroupID(uuid.New()), "Engineering", []id.ActorID{bob, charlie})
	if err != nil {
		return err
	}
	team, err := s.svc.Groups.CreateProjectTeam(asAlice, "Apollo", []id.ActorID{alice, diana})
	if err != nil {
		return err
	}

	project, err := s.create(asAlice, summary, models.ModelProject, "Apollo")
	if err != nil {
		return err
	}
	if _, err := s.svc.Access.SetLevel(asAlice, project.ID, models.LevelRestricted, "project kickoff"); err != nil {
		return err
	}
	if _, err := s.svc.Access.GrantCustomGroup(asAlice, project.ID, team.ID, accessservice.Window{}, ""); err != nil {
		return err
	}
	if _, err := s.svc.Access.GrantGroup(asAlice, project.ID, engineering.ID, accessservice.Window{}, ""); err != nil {
		return err
	}
	end := requestcontext.Now(ctx).Add(90 * 24 * time.Hour)
	if _, err := s.svc.Responsibility.Assign(asAlice, project.ID, responsibilityservice.AssignCommand{
		Actors:      []id.ActorID{alice},
		End:         &end,
		Description: "Project lead",
	}); err != nil {
		return err
	}
	if _, err := s.svc.Responsibility.AssignSecondary(asAlice, project.ID, []id.ActorID{diana}, "backup lead"); err != nil {
		return err
	}

	task, err := s.create(asAlice, summary, models.ModelTask, "Write launch checklist")
	if err != nil {
		return err
	}
	if _, err := s.svc.Ownership.AddCoOwner(asAlice, task.ID, bob, ""); err != nil {
		return err
	}
	deadline := requestcontext.Now(ctx).Add(7 * 24 * time.Hour)
	if _, err := s.svc.Assignment.Assign(asAlice, task.ID, assignmentservice.AssignCommand{
		Actors:   []id.ActorID{bob, charlie},
		Deadline: &deadline,
		Priority: string(models.PriorityHigh),
	}); err != nil {
		return err
	}

	if _, err := s.create(asAlice, summary, models.ModelMilestone, "Beta release"); err != nil {
		return err
	}

	doc, err := s.create(asAlice, summary, models.ModelDocument, "Architecture notes")
	if err != nil {
		return err
	}
	if _, err := s.svc.Ownership.Release(asAlice, doc.ID, "up for grabs"); err != nil {
		return err
	}
	return nil
}

func (s *Seeder) create(ctx context.Context, summary *Summary, model, name string) (*models.Record, error) {
	r, err := s.svc.Records.Create(ctx, recordservice.CreateCommand{Model: model, Name: name})
	if err != nil {
		return nil, err
	}
	summary.Records = append(summary.Records, r.ID)
	return r, nil
}
