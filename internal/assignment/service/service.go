// Package service implements the assignment state machine of a record:
//
//	unassigned -> assigned -> in_progress -> completed | cancelled
//
// Assign and reassign may be issued from any state and always land in
// assigned. Every other transition requires open work (assigned or
// in_progress). Each change is appended to the assignment log together with
// a before and after summary of the assignees.
package service

import (
	"context"
	"log/slog"
	"slices"
	"time"

	auditmodels "stewardship/internal/auditlog/models"
	dirmodels "stewardship/internal/directory/models"
	"stewardship/internal/record/models"
	recordservice "stewardship/internal/record/service"
	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
	"stewardship/pkg/platform/sets"
	"stewardship/pkg/platform/validation"
	"stewardship/pkg/requestcontext"
)

// Records is the record unit of work.
type Records interface {
	Get(ctx context.Context, recordID id.RecordID) (*models.Record, error)
	Mutate(ctx context.Context, recordID id.RecordID, capability models.Capability, fn recordservice.Mutation) (*models.Record, error)
}

// Directory resolves actors.
type Directory interface {
	IsAdmin(ctx context.Context, actorID id.ActorID) (bool, error)
	IsRecognizedUser(ctx context.Context, actorID id.ActorID) (bool, error)
	RequireActors(ctx context.Context, actorIDs []id.ActorID) ([]*dirmodels.Actor, error)
	DisplayNames(ctx context.Context, actorIDs []id.ActorID) []string
}

// Access answers whether an actor can currently see a record.
type Access interface {
	Evaluate(ctx context.Context, record *models.Record, actor id.ActorID) (bool, error)
}

type Service struct {
	records   Records
	directory Directory
	access    Access
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(records Records, directory Directory, access Access, opts ...Option) *Service {
	s := &Service{
		records:   records,
		directory: directory,
		access:    access,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AssignCommand replaces the assignee set of a record.
type AssignCommand struct {
	Actors      []id.ActorID
	Deadline    *time.Time
	Description string
	Priority    string
	Reason      string
}

func (c AssignCommand) validate() error {
	if len(c.Actors) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "at least one assignee is required")
	}
	if err := validation.CheckSliceCount("assignees", len(c.Actors), validation.MaxActorsPerRequest); err != nil {
		return err
	}
	if err := validation.CheckStringLength("description", c.Description, validation.MaxDescriptionLength); err != nil {
		return err
	}
	return checkReason(c.Reason)
}

// CanAssign reports whether actor may change the assignment of record. The
// actor must be a recognized platform user and be one of: a current
// assignee, an owner or co-owner, anyone when the record is unowned, anyone
// with access, or an administrator.
func (s *Service) CanAssign(ctx context.Context, record *models.Record, actor id.ActorID) (bool, error) {
	recognized, err := s.directory.IsRecognizedUser(ctx, actor)
	if err != nil || !recognized {
		return false, err
	}
	if a, ok := record.AssignmentState(); ok && a.IsAssignedTo(actor) {
		return true, nil
	}
	if own, ok := record.OwnershipState(); ok && (own.IsOwnedBy(actor) || !own.IsOwned()) {
		return true, nil
	}
	admin, err := s.directory.IsAdmin(ctx, actor)
	if err != nil || admin {
		return admin, err
	}
	return s.access.Evaluate(ctx, record, actor)
}

// IsOverdue reports whether the record has open work past its deadline.
func (s *Service) IsOverdue(ctx context.Context, recordID id.RecordID) (bool, error) {
	record, err := s.records.Get(ctx, recordID)
	if err != nil {
		return false, err
	}
	a, ok := record.AssignmentState()
	return ok && a.IsOverdue(requestcontext.Now(ctx)), nil
}

// Assign sets the assignees and moves the record to assigned. Deadline and
// description are kept when not supplied; priority defaults to normal.
func (s *Service) Assign(ctx context.Context, recordID id.RecordID, cmd AssignCommand) (*models.Record, error) {
	return s.replace(ctx, recordID, cmd, "assignment_assigned", auditmodels.ActionAssign, auditmodels.ActionAssignMultiple)
}

// Reassign replaces the assignee set wholesale. It differs from Assign only
// in what is logged.
func (s *Service) Reassign(ctx context.Context, recordID id.RecordID, actorIDs []id.ActorID, reason string) (*models.Record, error) {
	cmd := AssignCommand{Actors: actorIDs, Reason: reason}
	return s.replace(ctx, recordID, cmd, "assignment_reassigned", auditmodels.ActionReassign, auditmodels.ActionReassignMultiple)
}

func (s *Service) replace(ctx context.Context, recordID id.RecordID, cmd AssignCommand, event string, single, multiple auditmodels.Action) (*models.Record, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	priority, err := models.ParsePriority(cmd.Priority)
	if err != nil {
		return nil, err
	}
	assignees := sets.Dedupe(cmd.Actors)
	return s.mutate(ctx, recordID, event, func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		caller := requestcontext.ActorID(ctx)
		if err := s.requireAssign(ctx, r, caller); err != nil {
			return nil, err
		}
		if _, err := s.directory.RequireActors(ctx, assignees); err != nil {
			return nil, err
		}

		a := r.Assignment
		old := a.Assignees
		a.Assignees = assignees
		a.Assigner = models.ActorPtr(caller)
		a.AssignedAt = models.TimePtr(requestcontext.Now(ctx))
		a.Status = models.StatusAssigned
		if cmd.Priority != "" || a.Priority == "" {
			a.Priority = priority
		}
		if cmd.Deadline != nil {
			a.Deadline = models.TimePtr(cmd.Deadline.UTC())
		}
		if cmd.Description != "" {
			a.Description = cmd.Description
		}

		action := single
		if len(assignees) > 1 {
			action = multiple
		}
		return []auditmodels.Change{s.change(ctx, action, old, assignees, cmd.Reason)}, nil
	})
}

// AddAssignee adds one actor to open work. Adding a current assignee is a
// no-op.
func (s *Service) AddAssignee(ctx context.Context, recordID id.RecordID, actor id.ActorID, reason string) (*models.Record, error) {
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "assignee_added", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.requireAssign(ctx, r, requestcontext.ActorID(ctx)); err != nil {
			return nil, err
		}
		a := r.Assignment
		if err := requireOpen(a, "add assignees"); err != nil {
			return nil, err
		}
		if _, err := s.directory.RequireActors(ctx, []id.ActorID{actor}); err != nil {
			return nil, err
		}
		if a.IsAssignedTo(actor) {
			return nil, nil
		}

		old := a.Assignees
		a.Assignees = append(slices.Clone(old), actor)

		return []auditmodels.Change{s.change(ctx, auditmodels.ActionAddAssignee, old, a.Assignees, reason)}, nil
	})
}

// RemoveAssignee removes one actor from open work. Removing the last
// assignee returns the record to unassigned.
func (s *Service) RemoveAssignee(ctx context.Context, recordID id.RecordID, actor id.ActorID, reason string) (*models.Record, error) {
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "assignee_removed", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.requireAssign(ctx, r, requestcontext.ActorID(ctx)); err != nil {
			return nil, err
		}
		a := r.Assignment
		if err := requireOpen(a, "remove assignees"); err != nil {
			return nil, err
		}
		old := a.Assignees
		remaining, removed := sets.Remove(old, actor)
		if !removed {
			return nil, nil
		}

		a.Assignees = remaining
		if len(remaining) == 0 {
			a.Status = models.StatusUnassigned
		}

		return []auditmodels.Change{s.change(ctx, auditmodels.ActionRemoveAssignee, old, remaining, reason)}, nil
	})
}

// Start moves assigned work to in_progress. Only an assignee or an
// administrator may start it.
func (s *Service) Start(ctx context.Context, recordID id.RecordID, reason string) (*models.Record, error) {
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "assignment_started", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		caller := requestcontext.ActorID(ctx)
		if err := s.requireAssignee(ctx, r, caller); err != nil {
			return nil, err
		}
		a := r.Assignment
		if a.Status != models.StatusAssigned {
			return nil, dErrors.New(dErrors.CodeInvalidState, "only assigned work can be started, status is "+string(a.Status))
		}

		a.Status = models.StatusInProgress

		return []auditmodels.Change{s.change(ctx, auditmodels.ActionStart, a.Assignees, []id.ActorID{caller}, reason)}, nil
	})
}

// Complete closes open work. Same actor rule as Start.
func (s *Service) Complete(ctx context.Context, recordID id.RecordID, reason string) (*models.Record, error) {
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "assignment_completed", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		caller := requestcontext.ActorID(ctx)
		if err := s.requireAssignee(ctx, r, caller); err != nil {
			return nil, err
		}
		a := r.Assignment
		if err := requireOpen(a, "complete"); err != nil {
			return nil, err
		}

		a.Status = models.StatusCompleted

		return []auditmodels.Change{s.change(ctx, auditmodels.ActionComplete, a.Assignees, []id.ActorID{caller}, reason)}, nil
	})
}

// Cancel abandons open work and clears the assignees.
func (s *Service) Cancel(ctx context.Context, recordID id.RecordID, reason string) (*models.Record, error) {
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "assignment_cancelled", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.requireAssign(ctx, r, requestcontext.ActorID(ctx)); err != nil {
			return nil, err
		}
		a := r.Assignment
		if err := requireOpen(a, "cancel"); err != nil {
			return nil, err
		}

		old := a.Assignees
		a.Assignees = nil
		a.Status = models.StatusCancelled

		return []auditmodels.Change{s.change(ctx, auditmodels.ActionCancel, old, nil, reason)}, nil
	})
}

// UnassignAll clears the assignees of open work and returns the record to
// unassigned.
func (s *Service) UnassignAll(ctx context.Context, recordID id.RecordID, reason string) (*models.Record, error) {
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "assignment_cleared", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.requireAssign(ctx, r, requestcontext.ActorID(ctx)); err != nil {
			return nil, err
		}
		a := r.Assignment
		if err := requireOpen(a, "unassign"); err != nil {
			return nil, err
		}

		old := a.Assignees
		a.Assignees = nil
		a.Status = models.StatusUnassigned

		return []auditmodels.Change{s.change(ctx, auditmodels.ActionUnassignAll, old, nil, reason)}, nil
	})
}

func (s *Service) change(ctx context.Context, action auditmodels.Action, old, next []id.ActorID, reason string) auditmodels.Change {
	return auditmodels.Change{
		Kind:      auditmodels.KindAssignment,
		Action:    action,
		OldActors: old,
		NewActors: next,
		ExtraInfo: auditmodels.ChangeSummary(s.directory.DisplayNames(ctx, old), s.directory.DisplayNames(ctx, next)),
		Reason:    reason,
	}
}

func (s *Service) mutate(ctx context.Context, recordID id.RecordID, event string, fn recordservice.Mutation) (*models.Record, error) {
	record, err := s.records.Mutate(ctx, recordID, models.CapabilityAssignment, fn)
	if err != nil {
		return nil, err
	}
	a := record.Assignment
	s.logger.InfoContext(ctx, event,
		"record_id", recordID.String(),
		"model", record.Model,
		"status", string(a.Status),
		"assignees", len(a.Assignees),
		"actor_id", requestcontext.ActorID(ctx).String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return record, nil
}

func (s *Service) requireAssign(ctx context.Context, r *models.Record, caller id.ActorID) error {
	ok, err := s.CanAssign(ctx, r, caller)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeForbidden, "you do not have permission to assign this record")
	}
	return nil
}

func (s *Service) requireAssignee(ctx context.Context, r *models.Record, caller id.ActorID) error {
	if r.Assignment.IsAssignedTo(caller) {
		return nil
	}
	admin, err := s.directory.IsAdmin(ctx, caller)
	if err != nil {
		return err
	}
	if !admin {
		return dErrors.New(dErrors.CodeForbidden, "you are not assigned to this record")
	}
	return nil
}

func requireOpen(a *models.Assignment, verb string) error {
	if !a.Status.IsOpen() {
		return dErrors.New(dErrors.CodeInvalidState, "cannot "+verb+" when status is "+string(a.Status))
	}
	return nil
}

func checkReason(reason string) error {
	return validation.CheckStringLength("reason", reason, validation.MaxReasonLength)
}
