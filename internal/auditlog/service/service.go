// Package service owns the four audit logs: appending entries inside the
// caller's unit of work, listing and resolving them, and purging by age.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"stewardship/internal/auditlog/models"
	"stewardship/internal/auditlog/outbox"
	"stewardship/internal/platform/metrics"
	recordmodels "stewardship/internal/record/models"
	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
	"stewardship/pkg/platform/clientinfo"
	"stewardship/pkg/platform/sentinel"
	"stewardship/pkg/requestcontext"
)

// Store persists audit entries.
// Error Contract:
// - Append returns sentinel.ErrAlreadyUsed when the entry ID exists
// - FindByID returns sentinel.ErrNotFound when no entry exists
type Store interface {
	Append(ctx context.Context, entry *models.Entry) error
	FindByID(ctx context.Context, entryID id.EntryID) (*models.Entry, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Entry, error)
	Count(ctx context.Context, filter models.Filter) (int, error)
	DeleteBefore(ctx context.Context, kind models.Kind, before time.Time) (int64, error)
}

// Outbox receives a copy of every entry for the Kafka audit sink. It shares
// the caller's transaction, so an entry and its event commit together.
type Outbox interface {
	Append(ctx context.Context, entry *outbox.Entry) error
}

// RecordResolver looks up the live target of an entry.
type RecordResolver interface {
	Find(ctx context.Context, recordID id.RecordID) (*recordmodels.Record, error)
	KnowsModel(model string) bool
}

// DefaultRetention is the purge cutoff when none is configured.
const DefaultRetention = 365 * 24 * time.Hour

type Service struct {
	store    Store
	outbox   Outbox
	records  RecordResolver
	metrics  *metrics.Metrics
	logger   *slog.Logger
	newEntry func() id.EntryID
}

type Option func(*Service)

// WithOutbox enables the Kafka audit sink.
func WithOutbox(o Outbox) Option {
	return func(s *Service) {
		s.outbox = o
	}
}

// WithRecordResolver enables Reference and OpenRecord lookups.
func WithRecordResolver(r RecordResolver) Option {
	return func(s *Service) {
		s.records = r
	}
}

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

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		logger:   slog.Default(),
		newEntry: func() id.EntryID { return id.EntryID(uuid.New()) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetRecordResolver wires the record lookup after construction; the record
// service itself depends on this service for appends.
func (s *Service) SetRecordResolver(r RecordResolver) {
	s.records = r
}

// Append writes one entry for a change to the record. It must run inside
// the unit of work that applied the change.
func (s *Service) Append(ctx context.Context, model string, recordID id.RecordID, change models.Change) (*models.Entry, error) {
	performedBy := requestcontext.ActorID(ctx)
	entry, err := models.NewEntry(s.newEntry(), model, recordID, performedBy, change, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	entry.RequestID = requestcontext.RequestID(ctx)
	entry.Client = clientinfo.Summary(requestcontext.ClientIP(ctx), requestcontext.UserAgent(ctx))

	if err := s.store.Append(ctx, entry); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "log entry already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append log entry")
	}

	if s.outbox != nil {
		payload, err := json.Marshal(entry)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode log entry")
		}
		event := outbox.NewEntry(uuid.UUID(entry.ID), recordID.String(), eventType(entry), payload, entry.Timestamp)
		if err := s.outbox.Append(ctx, event); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to enqueue log entry")
		}
	}

	s.metrics.IncAuditEntry(string(entry.Kind), string(entry.Action))
	s.logger.InfoContext(ctx, string(entry.Action),
		"log_type", "audit",
		"kind", entry.Kind,
		"model", model,
		"record_id", recordID.String(),
		"actor_id", performedBy.String(),
		"request_id", entry.RequestID,
	)
	return entry, nil
}

func eventType(e *models.Entry) string {
	return string(e.Kind) + "." + string(e.Action)
}

func (s *Service) Get(ctx context.Context, entryID id.EntryID) (*models.Entry, error) {
	entry, err := s.store.FindByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "log entry not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load log entry")
	}
	return entry, nil
}

// List returns matching entries, newest first.
func (s *Service) List(ctx context.Context, filter models.Filter) ([]*models.Entry, error) {
	for _, k := range filter.Kinds {
		if !k.IsValid() {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid log kind: "+string(k))
		}
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "from must not be after to")
	}
	entries, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list log entries")
	}
	return entries, nil
}

func (s *Service) Count(ctx context.Context, filter models.Filter) (int, error) {
	n, err := s.store.Count(ctx, filter)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count log entries")
	}
	return n, nil
}

// Reference resolves the entry's target lazily. A deleted target or an
// unknown model yields a placeholder rather than an error.
func (s *Service) Reference(ctx context.Context, entry *models.Entry) (string, error) {
	if entry.TargetModel == "" || entry.TargetID.IsNil() {
		return "N/A", nil
	}
	if s.records == nil || !s.records.KnowsModel(entry.TargetModel) {
		return invalidReference(entry), nil
	}
	record, err := s.records.Find(ctx, entry.TargetID)
	switch {
	case err == nil:
	case dErrors.HasCode(err, dErrors.CodeInvalidReference), dErrors.HasCode(err, dErrors.CodeNotFound):
		return fmt.Sprintf("Deleted Record (ID: %s)", entry.TargetID), nil
	default:
		return "", err
	}
	if record.Model != entry.TargetModel {
		return invalidReference(entry), nil
	}
	return record.Reference(), nil
}

func invalidReference(e *models.Entry) string {
	return fmt.Sprintf("Invalid Model/ID: %s/%s", e.TargetModel, e.TargetID)
}

// OpenRecord returns where the entry's target lives, or false when it can no
// longer be opened.
func (s *Service) OpenRecord(ctx context.Context, entry *models.Entry) (*models.Navigation, bool) {
	if s.records == nil || entry.TargetModel == "" || entry.TargetID.IsNil() {
		return nil, false
	}
	if !s.records.KnowsModel(entry.TargetModel) {
		return nil, false
	}
	record, err := s.records.Find(ctx, entry.TargetID)
	if err != nil || record.Model != entry.TargetModel {
		return nil, false
	}
	return &models.Navigation{
		Model:    record.Model,
		RecordID: record.ID,
		Path:     "/records/" + record.ID.String(),
	}, true
}

// Purge deletes entries of the given kinds older than olderThan and returns
// how many were removed. No kinds means all four logs.
func (s *Service) Purge(ctx context.Context, olderThan time.Duration, kinds ...models.Kind) (int64, error) {
	if olderThan <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "retention period must be positive")
	}
	if len(kinds) == 0 {
		kinds = models.AllKinds
	}
	cutoff := requestcontext.Now(ctx).Add(-olderThan)

	var total int64
	for _, kind := range kinds {
		if !kind.IsValid() {
			return total, dErrors.New(dErrors.CodeInvalidInput, "invalid log kind: "+string(kind))
		}
		n, err := s.store.DeleteBefore(ctx, kind, cutoff)
		if err != nil {
			return total, dErrors.Wrap(err, dErrors.CodeInternal, "failed to purge "+string(kind)+" log")
		}
		s.metrics.AddAuditPurged(string(kind), int(n))
		total += n
	}
	s.logger.InfoContext(ctx, "audit_log_purged",
		"deleted", total,
		"cutoff", cutoff,
		"request_id", requestcontext.RequestID(ctx),
	)
	return total, nil
}
