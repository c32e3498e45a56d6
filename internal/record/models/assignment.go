package models

import (
	"slices"
	"time"

	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
)

type Status string

const (
	StatusUnassigned Status = "unassigned"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// IsOpen is true for the states an assignee is still working in.
func (s Status) IsOpen() bool {
	return s == StatusAssigned || s == StatusInProgress
}

// IsTerminal is true once work is completed or cancelled.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func ParsePriority(s string) (Priority, error) {
	if s == "" {
		return PriorityNormal, nil
	}
	p := Priority(s)
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return p, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "invalid priority: "+s)
}

// Assignment tracks who is working on a record and the state of that work.
type Assignment struct {
	Assignees   []id.ActorID `json:"assignees"`
	Assigner    *id.ActorID  `json:"assigner,omitempty"`
	AssignedAt  *time.Time   `json:"assigned_at,omitempty"`
	Deadline    *time.Time   `json:"deadline,omitempty"`
	Status      Status       `json:"status"`
	Priority    Priority     `json:"priority"`
	Description string       `json:"description,omitempty"`
}

func NewAssignment() *Assignment {
	return &Assignment{Status: StatusUnassigned, Priority: PriorityNormal}
}

func (a *Assignment) IsAssigned() bool {
	return len(a.Assignees) > 0
}

func (a *Assignment) IsAssignedTo(actor id.ActorID) bool {
	return slices.Contains(a.Assignees, actor)
}

func (a *Assignment) AssignedCount() int {
	return len(a.Assignees)
}

// IsOverdue is true when a deadline has passed while work is still open.
func (a *Assignment) IsOverdue(now time.Time) bool {
	return a.Deadline != nil && a.Deadline.Before(now) && a.Status.IsOpen()
}
