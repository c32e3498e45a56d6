package models

import (
	"slices"
	"time"

	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
)

// Tier selects the primary or secondary responsible set.
type Tier string

const (
	TierPrimary   Tier = "primary"
	TierSecondary Tier = "secondary"
)

// ParseTier reads a tier name; the empty string is the primary tier.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case "", TierPrimary:
		return TierPrimary, nil
	case TierSecondary:
		return TierSecondary, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "invalid tier: "+s)
}

// Responsibility holds two independent sets of responsible actors.
type Responsibility struct {
	Primary     []id.ActorID `json:"primary"`
	Secondary   []id.ActorID `json:"secondary"`
	Start       *time.Time   `json:"start,omitempty"`
	End         *time.Time   `json:"end,omitempty"`
	DelegatedBy *id.ActorID  `json:"delegated_by,omitempty"`
	Description string       `json:"description,omitempty"`
}

func NewResponsibility(now time.Time) *Responsibility {
	return &Responsibility{Start: TimePtr(now)}
}

// IsActive is true when someone holds primary responsibility and the window
// has not closed.
func (r *Responsibility) IsActive(now time.Time) bool {
	return len(r.Primary) > 0 && (r.End == nil || r.End.After(now))
}

func (r *Responsibility) IsExpired(now time.Time) bool {
	return r.End != nil && r.End.Before(now)
}

// IsResponsible reports whether actor is in either tier.
func (r *Responsibility) IsResponsible(actor id.ActorID) bool {
	return slices.Contains(r.Primary, actor) || slices.Contains(r.Secondary, actor)
}

func (r *Responsibility) ResponsibleCount() int {
	return len(r.Primary)
}

func (r *Responsibility) SecondaryCount() int {
	return len(r.Secondary)
}

// Set returns the actors of the given tier.
func (r *Responsibility) Set(t Tier) []id.ActorID {
	if t == TierSecondary {
		return r.Secondary
	}
	return r.Primary
}

// Replace overwrites the actors of the given tier.
func (r *Responsibility) Replace(t Tier, actors []id.ActorID) {
	if t == TierSecondary {
		r.Secondary = actors
		return
	}
	r.Primary = actors
}
