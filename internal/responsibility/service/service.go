// Package service implements two-tier responsibility for records. A record
// has a primary and a secondary set of responsible actors, a validity
// window and the actor who last delegated it. Delegate and transfer are the
// same replace operation and differ only in the logged action.
package service

import (
	"context"
	"log/slog"
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

// AssignCommand sets the primary responsible actors. End and description
// are kept when not supplied.
type AssignCommand struct {
	Actors      []id.ActorID
	End         *time.Time
	Description string
	Reason      string
}

// CanDelegate reports whether actor may change responsibility for record.
// Same shape as assignment: a recognized platform user who is responsible
// in either tier, owns or co-owns the record, finds it unowned, has access
// to it, or is an administrator.
func (s *Service) CanDelegate(ctx context.Context, record *models.Record, actor id.ActorID) (bool, error) {
	recognized, err := s.directory.IsRecognizedUser(ctx, actor)
	if err != nil || !recognized {
		return false, err
	}
	if resp, ok := record.ResponsibilityState(); ok && resp.IsResponsible(actor) {
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

// IsActive reports whether someone holds primary responsibility inside the
// window.
func (s *Service) IsActive(ctx context.Context, recordID id.RecordID) (bool, error) {
	resp, err := s.state(ctx, recordID)
	if err != nil || resp == nil {
		return false, err
	}
	return resp.IsActive(requestcontext.Now(ctx)), nil
}

// IsExpired reports whether the responsibility window has closed.
func (s *Service) IsExpired(ctx context.Context, recordID id.RecordID) (bool, error) {
	resp, err := s.state(ctx, recordID)
	if err != nil || resp == nil {
		return false, err
	}
	return resp.IsExpired(requestcontext.Now(ctx)), nil
}

func (s *Service) state(ctx context.Context, recordID id.RecordID) (*models.Responsibility, error) {
	record, err := s.records.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	resp, _ := record.ResponsibilityState()
	return resp, nil
}

// Assign replaces the primary set and records the caller as delegator.
func (s *Service) Assign(ctx context.Context, recordID id.RecordID, cmd AssignCommand) (*models.Record, error) {
	if err := checkActors(cmd.Actors); err != nil {
		return nil, err
	}
	if err := validation.CheckStringLength("description", cmd.Description, validation.MaxDescriptionLength); err != nil {
		return nil, err
	}
	if err := checkReason(cmd.Reason); err != nil {
		return nil, err
	}
	actorIDs := sets.Dedupe(cmd.Actors)
	return s.mutate(ctx, recordID, "responsibility_assigned", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.prepare(ctx, r, actorIDs); err != nil {
			return nil, err
		}
		resp := r.Responsibility
		old := resp.Primary
		resp.Primary = actorIDs
		stamp(ctx, resp)
		if cmd.End != nil {
			resp.End = models.TimePtr(cmd.End.UTC())
		}
		if cmd.Description != "" {
			resp.Description = cmd.Description
		}

		action := auditmodels.ActionAssign
		if len(actorIDs) > 1 {
			action = auditmodels.ActionAssignMultiple
		}
		return []auditmodels.Change{s.change(ctx, action, old, actorIDs, cmd.Reason)}, nil
	})
}

// AssignSecondary replaces the secondary set.
func (s *Service) AssignSecondary(ctx context.Context, recordID id.RecordID, actorIDs []id.ActorID, reason string) (*models.Record, error) {
	return s.replace(ctx, recordID, models.TierSecondary, actorIDs, reason, "secondary_responsibility_assigned", auditmodels.ActionAssignSecondary, auditmodels.ActionAssignSecondary)
}

// Delegate hands the tier to actorIDs.
func (s *Service) Delegate(ctx context.Context, recordID id.RecordID, tier models.Tier, actorIDs []id.ActorID, reason string) (*models.Record, error) {
	if tier == models.TierSecondary {
		return s.replace(ctx, recordID, tier, actorIDs, reason, "responsibility_delegated", auditmodels.ActionDelegateSecondary, auditmodels.ActionDelegateSecondary)
	}
	return s.replace(ctx, recordID, tier, actorIDs, reason, "responsibility_delegated", auditmodels.ActionDelegate, auditmodels.ActionDelegateMultiple)
}

// Transfer is Delegate logged as a transfer.
func (s *Service) Transfer(ctx context.Context, recordID id.RecordID, tier models.Tier, actorIDs []id.ActorID, reason string) (*models.Record, error) {
	if tier == models.TierSecondary {
		return s.replace(ctx, recordID, tier, actorIDs, reason, "responsibility_transferred", auditmodels.ActionTransferSecondary, auditmodels.ActionTransferSecondary)
	}
	return s.replace(ctx, recordID, tier, actorIDs, reason, "responsibility_transferred", auditmodels.ActionTransfer, auditmodels.ActionTransferMultiple)
}

// replace overwrites one tier. Replacing the primary tier also stamps the
// delegator and restarts the window.
func (s *Service) replace(ctx context.Context, recordID id.RecordID, tier models.Tier, actorIDs []id.ActorID, reason, event string, single, multiple auditmodels.Action) (*models.Record, error) {
	if err := checkTier(tier); err != nil {
		return nil, err
	}
	if err := checkActors(actorIDs); err != nil {
		return nil, err
	}
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	actorIDs = sets.Dedupe(actorIDs)
	return s.mutate(ctx, recordID, event, func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.prepare(ctx, r, actorIDs); err != nil {
			return nil, err
		}
		resp := r.Responsibility
		old := resp.Set(tier)
		resp.Replace(tier, actorIDs)
		if tier == models.TierPrimary {
			stamp(ctx, resp)
		}

		action := single
		if len(actorIDs) > 1 {
			action = multiple
		}
		return []auditmodels.Change{s.change(ctx, action, old, actorIDs, reason)}, nil
	})
}

// AddResponsible adds one actor to a tier. Adding a present actor is a
// no-op.
func (s *Service) AddResponsible(ctx context.Context, recordID id.RecordID, tier models.Tier, actor id.ActorID, reason string) (*models.Record, error) {
	if err := checkTier(tier); err != nil {
		return nil, err
	}
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "responsible_added", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.prepare(ctx, r, []id.ActorID{actor}); err != nil {
			return nil, err
		}
		resp := r.Responsibility
		next, added := sets.Add(resp.Set(tier), actor)
		if !added {
			return nil, nil
		}
		resp.Replace(tier, next)

		action := auditmodels.ActionAddResponsible
		if tier == models.TierSecondary {
			action = auditmodels.ActionAddSecondary
		}
		return []auditmodels.Change{s.change(ctx, action, nil, []id.ActorID{actor}, reason)}, nil
	})
}

// RemoveResponsible removes one actor from a tier. Removing an absent actor
// is a no-op.
func (s *Service) RemoveResponsible(ctx context.Context, recordID id.RecordID, tier models.Tier, actor id.ActorID, reason string) (*models.Record, error) {
	if err := checkTier(tier); err != nil {
		return nil, err
	}
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "responsible_removed", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.requireDelegate(ctx, r); err != nil {
			return nil, err
		}
		resp := r.Responsibility
		next, removed := sets.Remove(resp.Set(tier), actor)
		if !removed {
			return nil, nil
		}
		resp.Replace(tier, next)

		action := auditmodels.ActionRemoveResponsible
		if tier == models.TierSecondary {
			action = auditmodels.ActionRemoveSecondary
		}
		return []auditmodels.Change{s.change(ctx, action, []id.ActorID{actor}, nil, reason)}, nil
	})
}

// Escalate hands primary responsibility to exactly one target and clears
// the secondary tier.
func (s *Service) Escalate(ctx context.Context, recordID id.RecordID, targets []id.ActorID, reason string) (*models.Record, error) {
	targets = sets.Dedupe(targets)
	if len(targets) != 1 {
		return nil, dErrors.New(dErrors.CodeInvalidState, "escalation requires exactly one target")
	}
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "responsibility_escalated", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.prepare(ctx, r, targets); err != nil {
			return nil, err
		}
		resp := r.Responsibility
		old := sets.Union(resp.Primary, resp.Secondary)
		resp.Primary = targets
		resp.Secondary = nil
		stamp(ctx, resp)

		return []auditmodels.Change{s.change(ctx, auditmodels.ActionEscalate, old, targets, reason)}, nil
	})
}

// RevokeAll clears both tiers. Nothing is logged when both were empty.
func (s *Service) RevokeAll(ctx context.Context, recordID id.RecordID, reason string) (*models.Record, error) {
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "responsibility_revoked", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.requireDelegate(ctx, r); err != nil {
			return nil, err
		}
		resp := r.Responsibility
		old := sets.Union(resp.Primary, resp.Secondary)
		if len(old) == 0 {
			return nil, nil
		}
		resp.Primary = nil
		resp.Secondary = nil

		return []auditmodels.Change{s.change(ctx, auditmodels.ActionRevokeAll, old, nil, reason)}, nil
	})
}

func (s *Service) prepare(ctx context.Context, r *models.Record, actorIDs []id.ActorID) error {
	if err := s.requireDelegate(ctx, r); err != nil {
		return err
	}
	_, err := s.directory.RequireActors(ctx, actorIDs)
	return err
}

func (s *Service) change(ctx context.Context, action auditmodels.Action, old, next []id.ActorID, reason string) auditmodels.Change {
	return auditmodels.Change{
		Kind:      auditmodels.KindResponsibility,
		Action:    action,
		OldActors: old,
		NewActors: next,
		ExtraInfo: auditmodels.ChangeSummary(s.directory.DisplayNames(ctx, old), s.directory.DisplayNames(ctx, next)),
		Reason:    reason,
	}
}

func (s *Service) mutate(ctx context.Context, recordID id.RecordID, event string, fn recordservice.Mutation) (*models.Record, error) {
	record, err := s.records.Mutate(ctx, recordID, models.CapabilityResponsibility, fn)
	if err != nil {
		return nil, err
	}
	resp := record.Responsibility
	s.logger.InfoContext(ctx, event,
		"record_id", recordID.String(),
		"model", record.Model,
		"primary", len(resp.Primary),
		"secondary", len(resp.Secondary),
		"actor_id", requestcontext.ActorID(ctx).String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return record, nil
}

func (s *Service) requireDelegate(ctx context.Context, r *models.Record) error {
	ok, err := s.CanDelegate(ctx, r, requestcontext.ActorID(ctx))
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeForbidden, "you do not have permission to change responsibility for this record")
	}
	return nil
}

func stamp(ctx context.Context, resp *models.Responsibility) {
	resp.DelegatedBy = models.ActorPtr(requestcontext.ActorID(ctx))
	resp.Start = models.TimePtr(requestcontext.Now(ctx))
}

func checkActors(actorIDs []id.ActorID) error {
	if len(actorIDs) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "at least one user is required")
	}
	return validation.CheckSliceCount("users", len(actorIDs), validation.MaxActorsPerRequest)
}

func checkTier(tier models.Tier) error {
	if tier != models.TierPrimary && tier != models.TierSecondary {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid tier: "+string(tier))
	}
	return nil
}

func checkReason(reason string) error {
	return validation.CheckStringLength("reason", reason, validation.MaxReasonLength)
}
