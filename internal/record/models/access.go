package models

import (
	"slices"
	"time"

	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
)

// Level governs which grant channels are consulted when evaluating access.
type Level string

const (
	LevelPublic     Level = "public"
	LevelInternal   Level = "internal"
	LevelRestricted Level = "restricted"
	LevelPrivate    Level = "private"
)

func (l Level) IsValid() bool {
	switch l {
	case LevelPublic, LevelInternal, LevelRestricted, LevelPrivate:
		return true
	}
	return false
}

func (l Level) String() string {
	return string(l)
}

func ParseLevel(s string) (Level, error) {
	l := Level(s)
	if !l.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid access level: "+s)
	}
	return l, nil
}

// Access is the record's access configuration: a level, three grant
// channels and an optional validity window.
type Access struct {
	Level        Level              `json:"level"`
	Actors       []id.ActorID       `json:"actors"`
	Groups       []id.GroupID       `json:"groups"`
	CustomGroups []id.CustomGroupID `json:"custom_groups"`
	WindowStart  *time.Time         `json:"window_start,omitempty"`
	WindowEnd    *time.Time         `json:"window_end,omitempty"`
}

func NewAccess() *Access {
	return &Access{Level: LevelInternal}
}

// WindowNotStarted is true when the window has a start in the future.
func (a *Access) WindowNotStarted(now time.Time) bool {
	return a.WindowStart != nil && now.Before(*a.WindowStart)
}

// IsAccessExpired is true when the window has an end that has passed.
func (a *Access) IsAccessExpired(now time.Time) bool {
	return a.WindowEnd != nil && a.WindowEnd.Before(now)
}

func (a *Access) WindowOpen(now time.Time) bool {
	return !a.WindowNotStarted(now) && !a.IsAccessExpired(now)
}

func (a *Access) HasActor(actor id.ActorID) bool {
	return slices.Contains(a.Actors, actor)
}

func (a *Access) HasGroup(group id.GroupID) bool {
	return slices.Contains(a.Groups, group)
}

func (a *Access) HasCustomGroup(group id.CustomGroupID) bool {
	return slices.Contains(a.CustomGroups, group)
}

// ValidateWindow rejects windows whose start is after their end.
func ValidateWindow(start, end *time.Time) error {
	if start != nil && end != nil && start.After(*end) {
		return dErrors.New(dErrors.CodeInvalidInput, "access window start must be before its end")
	}
	return nil
}
