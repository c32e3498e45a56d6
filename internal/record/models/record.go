package models

import (
	"slices"
	"strings"
	"time"

	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
)

const MaxNameLength = 255

// Record is a host entity (task, project, document...) carrying the
// capability states its model opted into. A nil state means the model does
// not have that capability.
type Record struct {
	ID        id.RecordID `json:"id"`
	Model     string      `json:"model"`
	Name      string      `json:"name"`
	CreatedBy id.ActorID  `json:"created_by"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`

	Ownership      *Ownership      `json:"ownership,omitempty"`
	Access         *Access         `json:"access,omitempty"`
	Assignment     *Assignment     `json:"assignment,omitempty"`
	Responsibility *Responsibility `json:"responsibility,omitempty"`
}

// NewRecord builds a record with default capability states. The creator
// becomes the owner when the model is ownable.
func NewRecord(recordID id.RecordID, model, name string, createdBy id.ActorID, caps []Capability, now time.Time) (*Record, error) {
	name = strings.TrimSpace(name)
	if model == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "model is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "record name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "record name must be 255 characters or less")
	}
	r := &Record{
		ID:        recordID,
		Model:     model,
		Name:      name,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, c := range caps {
		switch c {
		case CapabilityOwnership:
			r.Ownership = NewOwnership(createdBy, now)
		case CapabilityAccess:
			r.Access = NewAccess()
		case CapabilityAssignment:
			r.Assignment = NewAssignment()
		case CapabilityResponsibility:
			r.Responsibility = NewResponsibility(now)
		default:
			return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown capability: "+string(c))
		}
	}
	return r, nil
}

func (r *Record) OwnershipState() (*Ownership, bool) {
	return r.Ownership, r.Ownership != nil
}

func (r *Record) AccessState() (*Access, bool) {
	return r.Access, r.Access != nil
}

func (r *Record) AssignmentState() (*Assignment, bool) {
	return r.Assignment, r.Assignment != nil
}

func (r *Record) ResponsibilityState() (*Responsibility, bool) {
	return r.Responsibility, r.Responsibility != nil
}

// Has reports whether the record carries the state for c.
func (r *Record) Has(c Capability) bool {
	switch c {
	case CapabilityOwnership:
		return r.Ownership != nil
	case CapabilityAccess:
		return r.Access != nil
	case CapabilityAssignment:
		return r.Assignment != nil
	case CapabilityResponsibility:
		return r.Responsibility != nil
	}
	return false
}

// Capabilities lists the capability states present on the record.
func (r *Record) Capabilities() []Capability {
	var caps []Capability
	for _, c := range AllCapabilities {
		if r.Has(c) {
			caps = append(caps, c)
		}
	}
	return caps
}

// Reference is the human-readable name used by audit log lookups.
func (r *Record) Reference() string {
	if r.Name != "" {
		return r.Name
	}
	return "ID: " + r.ID.String()
}

// Clone returns a deep copy. Services mutate clones so a failed validation
// never leaves a half-written record behind.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	if r.Ownership != nil {
		o := *r.Ownership
		o.Owner = cloneActor(r.Ownership.Owner)
		o.PreviousOwner = cloneActor(r.Ownership.PreviousOwner)
		o.CoOwners = slices.Clone(r.Ownership.CoOwners)
		c.Ownership = &o
	}
	if r.Access != nil {
		a := *r.Access
		a.Actors = slices.Clone(r.Access.Actors)
		a.Groups = slices.Clone(r.Access.Groups)
		a.CustomGroups = slices.Clone(r.Access.CustomGroups)
		a.WindowStart = cloneTime(r.Access.WindowStart)
		a.WindowEnd = cloneTime(r.Access.WindowEnd)
		c.Access = &a
	}
	if r.Assignment != nil {
		a := *r.Assignment
		a.Assignees = slices.Clone(r.Assignment.Assignees)
		a.Assigner = cloneActor(r.Assignment.Assigner)
		a.AssignedAt = cloneTime(r.Assignment.AssignedAt)
		a.Deadline = cloneTime(r.Assignment.Deadline)
		c.Assignment = &a
	}
	if r.Responsibility != nil {
		s := *r.Responsibility
		s.Primary = slices.Clone(r.Responsibility.Primary)
		s.Secondary = slices.Clone(r.Responsibility.Secondary)
		s.Start = cloneTime(r.Responsibility.Start)
		s.End = cloneTime(r.Responsibility.End)
		s.DelegatedBy = cloneActor(r.Responsibility.DelegatedBy)
		c.Responsibility = &s
	}
	return &c
}

// Filter narrows record listings. Zero values match everything.
type Filter struct {
	Model         string
	CustomGroupID *id.CustomGroupID
}

func (f Filter) Matches(r *Record) bool {
	if f.Model != "" && r.Model != f.Model {
		return false
	}
	if f.CustomGroupID != nil {
		if r.Access == nil || !slices.Contains(r.Access.CustomGroups, *f.CustomGroupID) {
			return false
		}
	}
	return true
}

func cloneActor(a *id.ActorID) *id.ActorID {
	if a == nil {
		return nil
	}
	v := *a
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// ActorPtr returns a pointer to a copy of a.
func ActorPtr(a id.ActorID) *id.ActorID {
	return &a
}

// TimePtr returns a pointer to a copy of t.
func TimePtr(t time.Time) *time.Time {
	return &t
}
