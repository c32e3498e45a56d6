package models

import (
	"slices"
	"time"

	id "stewardship/pkg/domain"
)

// Ownership tracks a single optional owner plus co-owners.
type Ownership struct {
	Owner         *id.ActorID  `json:"owner,omitempty"`
	CoOwners      []id.ActorID `json:"co_owners"`
	PreviousOwner *id.ActorID  `json:"previous_owner,omitempty"`
	EstablishedAt time.Time    `json:"established_at"`
}

func NewOwnership(owner id.ActorID, now time.Time) *Ownership {
	o := &Ownership{EstablishedAt: now}
	if !owner.IsNil() {
		o.Owner = ActorPtr(owner)
	}
	return o
}

// IsOwned is true when an owner is set or any co-owner exists.
func (o *Ownership) IsOwned() bool {
	return o.Owner != nil || len(o.CoOwners) > 0
}

func (o *Ownership) HasOwner() bool {
	return o.Owner != nil
}

func (o *Ownership) IsOwner(actor id.ActorID) bool {
	return o.Owner != nil && *o.Owner == actor
}

func (o *Ownership) IsCoOwner(actor id.ActorID) bool {
	return slices.Contains(o.CoOwners, actor)
}

// IsOwnedBy reports whether actor is the owner or a co-owner.
func (o *Ownership) IsOwnedBy(actor id.ActorID) bool {
	return o.IsOwner(actor) || o.IsCoOwner(actor)
}

// AllOwners returns the owner followed by the co-owners.
func (o *Ownership) AllOwners() []id.ActorID {
	all := make([]id.ActorID, 0, len(o.CoOwners)+1)
	if o.Owner != nil {
		all = append(all, *o.Owner)
	}
	for _, c := range o.CoOwners {
		if !slices.Contains(all, c) {
			all = append(all, c)
		}
	}
	return all
}

func (o *Ownership) CoOwnerCount() int {
	return len(o.CoOwners)
}
