package models

import (
	"strings"
	"time"

	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
)

// Actor is a platform principal that can be granted access or hold
// ownership, assignments and responsibilities.
type Actor struct {
	ID        id.ActorID   `json:"id"`
	Name      string       `json:"name"`
	Email     string       `json:"email,omitempty"`
	Admin     bool         `json:"admin"`
	Anonymous bool         `json:"anonymous"`
	Groups    []id.GroupID `json:"groups"`
	CreatedAt time.Time    `json:"created_at"`
}

// IsRecognizedUser is true for known, non-anonymous actors. The internal
// access level admits exactly these.
func (a *Actor) IsRecognizedUser() bool {
	return a != nil && !a.Anonymous
}

// DisplayName falls back to the ID when no name is set.
func (a *Actor) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID.String()
}

func NewActor(actorID id.ActorID, name, email string, now time.Time) (*Actor, error) {
	name = strings.TrimSpace(name)
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "actor ID is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "actor name cannot be empty")
	}
	return &Actor{
		ID:        actorID,
		Name:      name,
		Email:     strings.TrimSpace(email),
		CreatedAt: now,
	}, nil
}

// Group is a platform-managed (system) group of actors.
type Group struct {
	ID      id.GroupID   `json:"id"`
	Name    string       `json:"name"`
	Members []id.ActorID `json:"members"`
}

func NewGroup(groupID id.GroupID, name string) (*Group, error) {
	name = strings.TrimSpace(name)
	if groupID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "group ID is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "group name cannot be empty")
	}
	return &Group{ID: groupID, Name: name}, nil
}
