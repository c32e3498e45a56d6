// Package service manages host records and provides the unit of work every
// capability service mutates records through.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditmodels "stewardship/internal/auditlog/models"
	"stewardship/internal/platform/metrics"
	"stewardship/internal/record/models"
	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
	"stewardship/pkg/platform/sentinel"
	"stewardship/pkg/platform/tx"
	"stewardship/pkg/requestcontext"
)

// Store persists records.
// Error Contract:
// - Create returns sentinel.ErrAlreadyUsed when the ID exists
// - FindByID, FindForUpdate, Update and Delete return sentinel.ErrNotFound
type Store interface {
	Create(ctx context.Context, record *models.Record) error
	FindByID(ctx context.Context, recordID id.RecordID) (*models.Record, error)
	FindForUpdate(ctx context.Context, recordID id.RecordID) (*models.Record, error)
	Update(ctx context.Context, record *models.Record) error
	Delete(ctx context.Context, recordID id.RecordID) error
	List(ctx context.Context, filter models.Filter) ([]*models.Record, error)
}

// AuditLog appends entries inside the unit of work.
type AuditLog interface {
	Append(ctx context.Context, model string, recordID id.RecordID, change auditmodels.Change) (*auditmodels.Entry, error)
}

// AdminChecker reports the platform-admin flag.
type AdminChecker interface {
	IsAdmin(ctx context.Context, actorID id.ActorID) (bool, error)
}

// Mutation validates and applies one change to a working copy of the
// record. It returns the log changes to append; none means nothing changed
// and nothing is written.
type Mutation func(ctx context.Context, record *models.Record) ([]auditmodels.Change, error)

type Service struct {
	store    Store
	registry *models.Registry
	tx       tx.Runner
	logs     AuditLog
	admins   AdminChecker
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, registry *models.Registry, runner tx.Runner, logs AuditLog, admins AdminChecker, opts ...Option) *Service {
	s := &Service{
		store:    store,
		registry: registry,
		tx:       runner,
		logs:     logs,
		admins:   admins,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateCommand struct {
	Model string
	Name  string
}

// Create registers a new record of a registered model. The caller becomes
// the creator and, for ownable models, the owner.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*models.Record, error) {
	caps, ok := s.registry.Capabilities(cmd.Model)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown model: "+cmd.Model)
	}
	creator := requestcontext.ActorID(ctx)
	if creator.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "acting user is required")
	}

	record, err := models.NewRecord(id.RecordID(uuid.New()), cmd.Model, cmd.Name, creator, caps, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "record already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create record")
	}

	s.metrics.IncRecordCreated(record.Model)
	s.logger.InfoContext(ctx, "record_created",
		"record_id", record.ID.String(),
		"model", record.Model,
		"actor_id", creator.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return record, nil
}

// Get returns the record or not_found.
func (s *Service) Get(ctx context.Context, recordID id.RecordID) (*models.Record, error) {
	record, err := s.store.FindByID(ctx, recordID)
	if err != nil {
		return nil, translateFindErr(err)
	}
	return record, nil
}

// Find satisfies the audit log's record resolver.
func (s *Service) Find(ctx context.Context, recordID id.RecordID) (*models.Record, error) {
	return s.Get(ctx, recordID)
}

func (s *Service) KnowsModel(model string) bool {
	_, ok := s.registry.Capabilities(model)
	return ok
}

func (s *Service) Registry() *models.Registry {
	return s.registry
}

func (s *Service) List(ctx context.Context, filter models.Filter) ([]*models.Record, error) {
	records, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list records")
	}
	return records, nil
}

// Delete removes a record. Admins, the owner of an ownable record, and the
// creator of a record without ownership may delete it. Log entries stay.
func (s *Service) Delete(ctx context.Context, recordID id.RecordID) error {
	return s.tx.RunInTx(ctx, recordID.String(), func(ctx context.Context) error {
		record, err := s.store.FindForUpdate(ctx, recordID)
		if err != nil {
			return translateFindErr(err)
		}
		caller := requestcontext.ActorID(ctx)
		allowed, err := s.canDelete(ctx, record, caller)
		if err != nil {
			return err
		}
		if !allowed {
			return dErrors.New(dErrors.CodeForbidden, "only the owner or an administrator can delete this record")
		}
		if err := s.store.Delete(ctx, recordID); err != nil {
			return translateFindErr(err)
		}
		s.logger.InfoContext(ctx, "record_deleted",
			"record_id", recordID.String(),
			"model", record.Model,
			"actor_id", caller.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil
	})
}

func (s *Service) canDelete(ctx context.Context, record *models.Record, caller id.ActorID) (bool, error) {
	admin, err := s.admins.IsAdmin(ctx, caller)
	if err != nil || admin {
		return admin, err
	}
	if own, ok := record.OwnershipState(); ok {
		return own.IsOwner(caller), nil
	}
	return record.CreatedBy == caller, nil
}

// Mutate runs fn against a working copy of the record inside the record's
// unit of work. The copy is persisted and its log changes appended only
// when fn succeeds; a failed validation leaves the stored record untouched.
// Records whose model lacks capability fail with invalid_state.
func (s *Service) Mutate(ctx context.Context, recordID id.RecordID, capability models.Capability, fn Mutation) (*models.Record, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveOperation(string(capability), time.Since(start).Seconds())
	}()

	var result *models.Record
	err := s.tx.RunInTx(ctx, recordID.String(), func(ctx context.Context) error {
		current, err := s.store.FindForUpdate(ctx, recordID)
		if err != nil {
			return translateFindErr(err)
		}
		if !current.Has(capability) {
			return dErrors.New(dErrors.CodeInvalidState,
				"model "+current.Model+" does not support "+string(capability))
		}

		next := current.Clone()
		changes, err := fn(ctx, next)
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			result = current
			return nil
		}

		// in-memory stores cannot roll back, so reject bad log changes before writing
		for _, change := range changes {
			if !change.Kind.Allows(change.Action) {
				return dErrors.New(dErrors.CodeInternal, "unloggable change: "+string(change.Kind)+"."+string(change.Action))
			}
		}

		next.UpdatedAt = requestcontext.Now(ctx)
		if err := s.store.Update(ctx, next); err != nil {
			return translateFindErr(err)
		}
		for _, change := range changes {
			if _, err := s.logs.Append(ctx, next.Model, next.ID, change); err != nil {
				s.restore(ctx, current)
				return err
			}
		}
		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// restore puts back the record as it was before a mutation whose log append
// failed. A SQL transaction rolls the update back on its own.
func (s *Service) restore(ctx context.Context, previous *models.Record) {
	if _, inSQL := tx.From(ctx); inSQL {
		return
	}
	if err := s.store.Update(ctx, previous); err != nil {
		s.logger.ErrorContext(ctx, "failed to restore record after log append failure",
			"record_id", previous.ID.String(),
			"error", err,
		)
	}
}

func translateFindErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "record not found")
	}
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
}
