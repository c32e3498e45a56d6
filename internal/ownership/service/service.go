// Package service implements record ownership: a single optional owner plus
// co-owners, with transfer, release, claim and co-owner management. Every
// change is appended to the ownership log in the record's unit of work.
package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"

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
	Actor(ctx context.Context, actorID id.ActorID) (*dirmodels.Actor, error)
	RequireActors(ctx context.Context, actorIDs []id.ActorID) ([]*dirmodels.Actor, error)
	DisplayNames(ctx context.Context, actorIDs []id.ActorID) []string
}

type Service struct {
	records   Records
	directory Directory
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(records Records, directory Directory, opts ...Option) *Service {
	s := &Service{
		records:   records,
		directory: directory,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CanTransfer reports whether actor may transfer or release the record:
// the current owner or an administrator.
func (s *Service) CanTransfer(ctx context.Context, record *models.Record, actor id.ActorID) (bool, error) {
	own, ok := record.OwnershipState()
	if !ok {
		return false, nil
	}
	if own.IsOwner(actor) {
		return true, nil
	}
	return s.directory.IsAdmin(ctx, actor)
}

// CanManageCoOwners reports whether actor may change the co-owner set:
// the owner, any co-owner, or an administrator.
func (s *Service) CanManageCoOwners(ctx context.Context, record *models.Record, actor id.ActorID) (bool, error) {
	own, ok := record.OwnershipState()
	if !ok {
		return false, nil
	}
	if own.IsOwnedBy(actor) {
		return true, nil
	}
	return s.directory.IsAdmin(ctx, actor)
}

// IsOwned reports whether the record has an owner or any co-owner.
func (s *Service) IsOwned(ctx context.Context, recordID id.RecordID) (bool, error) {
	record, err := s.records.Get(ctx, recordID)
	if err != nil {
		return false, err
	}
	own, ok := record.OwnershipState()
	return ok && own.IsOwned(), nil
}

// Transfer hands the record to newOwner, remembering the previous owner.
func (s *Service) Transfer(ctx context.Context, recordID id.RecordID, newOwner id.ActorID, reason string) (*models.Record, error) {
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "ownership_transferred", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		caller := requestcontext.ActorID(ctx)
		if err := s.requireTransfer(ctx, r, caller, "transfer"); err != nil {
			return nil, err
		}
		if _, err := s.directory.Actor(ctx, newOwner); err != nil {
			return nil, err
		}

		own := r.Ownership
		old := own.Owner
		own.PreviousOwner = old
		own.Owner = models.ActorPtr(newOwner)
		own.CoOwners = without(own.CoOwners, newOwner)
		own.EstablishedAt = requestcontext.Now(ctx)

		return []auditmodels.Change{{
			Kind:      auditmodels.KindOwnership,
			Action:    auditmodels.ActionTransfer,
			OldActors: actors(old),
			NewActors: []id.ActorID{newOwner},
			Reason:    reason,
		}}, nil
	})
}

// Release clears the owner. Co-owners are kept.
func (s *Service) Release(ctx context.Context, recordID id.RecordID, reason string) (*models.Record, error) {
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "ownership_released", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		caller := requestcontext.ActorID(ctx)
		if err := s.requireTransfer(ctx, r, caller, "release"); err != nil {
			return nil, err
		}

		own := r.Ownership
		old := own.Owner
		own.PreviousOwner = old
		own.Owner = nil
		own.EstablishedAt = requestcontext.Now(ctx)

		return []auditmodels.Change{{
			Kind:      auditmodels.KindOwnership,
			Action:    auditmodels.ActionRelease,
			OldActors: actors(old),
			Reason:    reason,
		}}, nil
	})
}

// Claim makes the caller the owner of an ownerless record.
func (s *Service) Claim(ctx context.Context, recordID id.RecordID, reason string) (*models.Record, error) {
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "ownership_claimed", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		caller := requestcontext.ActorID(ctx)
		own := r.Ownership
		if own.HasOwner() {
			return nil, dErrors.New(dErrors.CodeInvalidState, "record already has an owner")
		}
		if _, err := s.directory.Actor(ctx, caller); err != nil {
			return nil, err
		}

		own.Owner = models.ActorPtr(caller)
		own.CoOwners = without(own.CoOwners, caller)
		own.EstablishedAt = requestcontext.Now(ctx)

		return []auditmodels.Change{{
			Kind:      auditmodels.KindOwnership,
			Action:    auditmodels.ActionClaim,
			NewActors: []id.ActorID{caller},
			Reason:    reason,
		}}, nil
	})
}

// AddCoOwner adds a single co-owner.
func (s *Service) AddCoOwner(ctx context.Context, recordID id.RecordID, actor id.ActorID, reason string) (*models.Record, error) {
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "co_owner_added", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.requireManage(ctx, r, "add co-owners"); err != nil {
			return nil, err
		}
		if _, err := s.directory.Actor(ctx, actor); err != nil {
			return nil, err
		}
		own := r.Ownership
		if own.IsOwner(actor) {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "the owner cannot also be a co-owner")
		}
		if own.IsCoOwner(actor) {
			return nil, dErrors.New(dErrors.CodeConflict, "user is already a co-owner")
		}

		own.CoOwners = append(own.CoOwners, actor)

		return []auditmodels.Change{{
			Kind:      auditmodels.KindOwnership,
			Action:    auditmodels.ActionAddCoOwner,
			NewActors: []id.ActorID{actor},
			Reason:    reason,
		}}, nil
	})
}

// RemoveCoOwner removes a single co-owner.
func (s *Service) RemoveCoOwner(ctx context.Context, recordID id.RecordID, actor id.ActorID, reason string) (*models.Record, error) {
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "co_owner_removed", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.requireManage(ctx, r, "remove co-owners"); err != nil {
			return nil, err
		}
		own := r.Ownership
		if !own.IsCoOwner(actor) {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "user is not a co-owner")
		}

		own.CoOwners = without(own.CoOwners, actor)

		return []auditmodels.Change{{
			Kind:      auditmodels.KindOwnership,
			Action:    auditmodels.ActionRemoveCoOwner,
			OldActors: []id.ActorID{actor},
			Reason:    reason,
		}}, nil
	})
}

// AddCoOwners adds several co-owners at once. Either all are added or none.
func (s *Service) AddCoOwners(ctx context.Context, recordID id.RecordID, actorIDs []id.ActorID, reason string) (*models.Record, error) {
	if len(actorIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "at least one user is required")
	}
	if err := validation.CheckSliceCount("co-owners", len(actorIDs), validation.MaxActorsPerRequest); err != nil {
		return nil, err
	}
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "co_owners_added", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.requireManage(ctx, r, "add co-owners"); err != nil {
			return nil, err
		}
		if _, err := s.directory.RequireActors(ctx, actorIDs); err != nil {
			return nil, err
		}
		own := r.Ownership
		added := make([]id.ActorID, 0, len(actorIDs))
		for _, actor := range actorIDs {
			switch {
			case own.IsOwner(actor):
				return nil, dErrors.New(dErrors.CodeInvalidInput, "the owner cannot also be a co-owner")
			case own.IsCoOwner(actor), slices.Contains(added, actor):
				return nil, dErrors.New(dErrors.CodeConflict, "user "+actor.String()+" is already a co-owner")
			}
			added = append(added, actor)
		}

		own.CoOwners = append(own.CoOwners, added...)

		return []auditmodels.Change{{
			Kind:      auditmodels.KindOwnership,
			Action:    auditmodels.ActionAddMultipleCoOwners,
			NewActors: added,
			ExtraInfo: "Added co-owners: " + strings.Join(s.directory.DisplayNames(ctx, added), ", "),
			Reason:    reason,
		}}, nil
	})
}

// RemoveAllCoOwners empties the co-owner set.
func (s *Service) RemoveAllCoOwners(ctx context.Context, recordID id.RecordID, reason string) (*models.Record, error) {
	if err := checkReason(reason); err != nil {
		return nil, err
	}
	return s.mutate(ctx, recordID, "co_owners_cleared", func(ctx context.Context, r *models.Record) ([]auditmodels.Change, error) {
		if err := s.requireManage(ctx, r, "remove co-owners"); err != nil {
			return nil, err
		}
		own := r.Ownership
		if len(own.CoOwners) == 0 {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "no co-owners to remove")
		}

		removed := own.CoOwners
		own.CoOwners = nil

		return []auditmodels.Change{{
			Kind:      auditmodels.KindOwnership,
			Action:    auditmodels.ActionRemoveAllCoOwners,
			OldActors: removed,
			ExtraInfo: "Removed all co-owners: " + strings.Join(s.directory.DisplayNames(ctx, removed), ", "),
			Reason:    reason,
		}}, nil
	})
}

func (s *Service) mutate(ctx context.Context, recordID id.RecordID, event string, fn recordservice.Mutation) (*models.Record, error) {
	record, err := s.records.Mutate(ctx, recordID, models.CapabilityOwnership, fn)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, event,
		"record_id", recordID.String(),
		"model", record.Model,
		"actor_id", requestcontext.ActorID(ctx).String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return record, nil
}

func (s *Service) requireTransfer(ctx context.Context, r *models.Record, caller id.ActorID, verb string) error {
	ok, err := s.CanTransfer(ctx, r, caller)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeForbidden, "only the owner or an administrator can "+verb+" ownership")
	}
	return nil
}

func (s *Service) requireManage(ctx context.Context, r *models.Record, verb string) error {
	ok, err := s.CanManageCoOwners(ctx, r, requestcontext.ActorID(ctx))
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeForbidden, "you do not have permission to "+verb)
	}
	return nil
}

func checkReason(reason string) error {
	return validation.CheckStringLength("reason", reason, validation.MaxReasonLength)
}

func actors(a *id.ActorID) []id.ActorID {
	if a == nil {
		return nil
	}
	return []id.ActorID{*a}
}

func without(list []id.ActorID, actor id.ActorID) []id.ActorID {
	out, _ := sets.Remove(list, actor)
	return out
}
