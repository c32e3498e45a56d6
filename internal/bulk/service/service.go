// Package service applies one stewardship operation to many records. Each
// record is handled in its own unit of work; a failure on one record is
// reported in the result and does not stop the others.
package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	accessservice "stewardship/internal/access/service"
	assignmentservice "stewardship/internal/assignment/service"
	"stewardship/internal/platform/metrics"
	"stewardship/internal/record/models"
	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
	"stewardship/pkg/platform/sets"
	"stewardship/pkg/platform/tx"
	"stewardship/pkg/platform/validation"
	"stewardship/pkg/requestcontext"
)

type Assignment interface {
	Assign(ctx context.Context, recordID id.RecordID, cmd assignmentservice.AssignCommand) (*models.Record, error)
}

type Ownership interface {
	Transfer(ctx context.Context, recordID id.RecordID, newOwner id.ActorID, reason string) (*models.Record, error)
}

type Access interface {
	ApplyAccess(ctx context.Context, recordID id.RecordID, cmd accessservice.ApplyCommand) (*models.Record, error)
}

type Responsibility interface {
	Delegate(ctx context.Context, recordID id.RecordID, tier models.Tier, actors []id.ActorID, reason string) (*models.Record, error)
}

const (
	OperationAssign            = "assign"
	OperationTransferOwnership = "transfer_ownership"
	OperationSetAccess         = "set_access"
	OperationDelegate          = "delegate"
)

// DefaultConcurrency bounds how many records are processed at once.
const DefaultConcurrency = 4

// Failure describes why one record was not updated.
type Failure struct {
	RecordID id.RecordID  `json:"record_id"`
	Code     dErrors.Code `json:"code"`
	Message  string       `json:"message"`
}

// Result summarizes a bulk run. Failures keep the order of the request.
type Result struct {
	Operation string    `json:"operation"`
	Succeeded int       `json:"succeeded"`
	Failures  []Failure `json:"failures"`
}

func (r *Result) Failed() int {
	return len(r.Failures)
}

type Service struct {
	assignment     Assignment
	ownership      Ownership
	access         Access
	responsibility Responsibility
	tx             tx.Runner
	concurrency    int
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func New(assignment Assignment, ownership Ownership, access Access, responsibility Responsibility, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		assignment:     assignment,
		ownership:      ownership,
		access:         access,
		responsibility: responsibility,
		tx:             runner,
		concurrency:    DefaultConcurrency,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AssignCommand assigns the same actors to every record.
type AssignCommand struct {
	RecordIDs []id.RecordID
	assignmentservice.AssignCommand
}

func (s *Service) Assign(ctx context.Context, cmd AssignCommand) (*Result, error) {
	return s.run(ctx, OperationAssign, cmd.RecordIDs, func(ctx context.Context, recordID id.RecordID) error {
		_, err := s.assignment.Assign(ctx, recordID, cmd.AssignCommand)
		return err
	})
}

func (s *Service) TransferOwnership(ctx context.Context, recordIDs []id.RecordID, newOwner id.ActorID, reason string) (*Result, error) {
	return s.run(ctx, OperationTransferOwnership, recordIDs, func(ctx context.Context, recordID id.RecordID) error {
		_, err := s.ownership.Transfer(ctx, recordID, newOwner, reason)
		return err
	})
}

// SetAccessCommand sets the level of every record. Actors and groups are
// granted only when the level is restricted or private; the window is
// applied when either bound is set.
type SetAccessCommand struct {
	RecordIDs    []id.RecordID
	Level        models.Level
	Actors       []id.ActorID
	Groups       []id.GroupID
	CustomGroups []id.CustomGroupID
	Window       accessservice.Window
	Reason       string
}

func (s *Service) SetAccess(ctx context.Context, cmd SetAccessCommand) (*Result, error) {
	if _, err := models.ParseLevel(string(cmd.Level)); err != nil {
		return nil, err
	}
	if err := validation.CheckSliceCount("users", len(cmd.Actors), validation.MaxActorsPerRequest); err != nil {
		return nil, err
	}
	if err := validation.CheckSliceCount("groups", len(cmd.Groups)+len(cmd.CustomGroups), validation.MaxGroupsPerRequest); err != nil {
		return nil, err
	}
	apply := accessservice.ApplyCommand{Level: cmd.Level, Window: cmd.Window, Reason: cmd.Reason}
	if cmd.Level == models.LevelRestricted || cmd.Level == models.LevelPrivate {
		apply.Actors = cmd.Actors
		apply.Groups = cmd.Groups
		apply.CustomGroups = cmd.CustomGroups
	}
	return s.run(ctx, OperationSetAccess, cmd.RecordIDs, func(ctx context.Context, recordID id.RecordID) error {
		_, err := s.access.ApplyAccess(ctx, recordID, apply)
		return err
	})
}

func (s *Service) Delegate(ctx context.Context, recordIDs []id.RecordID, tier models.Tier, actors []id.ActorID, reason string) (*Result, error) {
	return s.run(ctx, OperationDelegate, recordIDs, func(ctx context.Context, recordID id.RecordID) error {
		_, err := s.responsibility.Delegate(ctx, recordID, tier, actors, reason)
		return err
	})
}

// run applies fn to every record, each inside its own unit of work. fn must
// change a record through a single mutation so a failure leaves it as it
// was.
func (s *Service) run(ctx context.Context, operation string, recordIDs []id.RecordID, fn func(context.Context, id.RecordID) error) (*Result, error) {
	recordIDs = sets.Dedupe(recordIDs)
	if len(recordIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "no records selected")
	}
	if err := validation.CheckSliceCount("records", len(recordIDs), validation.MaxRecordsPerBulk); err != nil {
		return nil, err
	}

	errs := make([]error, len(recordIDs))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, recordID := range recordIDs {
		g.Go(func() error {
			errs[i] = s.tx.RunInTx(ctx, recordID.String(), func(ctx context.Context) error {
				return fn(ctx, recordID)
			})
			return nil
		})
	}
	_ = g.Wait()

	result := &Result{Operation: operation, Failures: []Failure{}}
	for i, err := range errs {
		s.metrics.IncBulkItem(operation, err == nil)
		if err == nil {
			result.Succeeded++
			continue
		}
		result.Failures = append(result.Failures, Failure{
			RecordID: recordIDs[i],
			Code:     dErrors.CodeOf(err),
			Message:  err.Error(),
		})
	}

	s.logger.InfoContext(ctx, "bulk operation finished",
		"operation", operation,
		"records", len(recordIDs),
		"succeeded", result.Succeeded,
		"failed", result.Failed(),
		"actor_id", requestcontext.ActorID(ctx).String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return result, nil
}
