// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "stewardship/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing ActorID where GroupID is expected.
type (
	ActorID       uuid.UUID
	GroupID       uuid.UUID
	CustomGroupID uuid.UUID
	RecordID      uuid.UUID
	EntryID       uuid.UUID
)

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseActorID(s string) (ActorID, error) {
	id, err := parseUUID(s, "actor ID")
	return ActorID(id), err
}

func ParseGroupID(s string) (GroupID, error) {
	id, err := parseUUID(s, "group ID")
	return GroupID(id), err
}

func ParseCustomGroupID(s string) (CustomGroupID, error) {
	id, err := parseUUID(s, "custom group ID")
	return CustomGroupID(id), err
}

func ParseRecordID(s string) (RecordID, error) {
	id, err := parseUUID(s, "record ID")
	return RecordID(id), err
}

func ParseEntryID(s string) (EntryID, error) {
	id, err := parseUUID(s, "log entry ID")
	return EntryID(id), err
}

// ParseActorIDs parses a list of actor IDs, failing on the first invalid entry.
func ParseActorIDs(values []string) ([]ActorID, error) {
	ids := make([]ActorID, 0, len(values))
	for _, v := range values {
		actorID, err := ParseActorID(v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, actorID)
	}
	return ids, nil
}

// String methods - for logging and debugging.

func (id ActorID) String() string       { return uuid.UUID(id).String() }
func (id GroupID) String() string       { return uuid.UUID(id).String() }
func (id CustomGroupID) String() string { return uuid.UUID(id).String() }
func (id RecordID) String() string      { return uuid.UUID(id).String() }
func (id EntryID) String() string       { return uuid.UUID(id).String() }

// IsNil checks - used for service-layer validation.

func (id ActorID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id GroupID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id CustomGroupID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id RecordID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id EntryID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets typed IDs serialize as plain UUID strings in JSON.

func (id ActorID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id GroupID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id CustomGroupID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id RecordID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id EntryID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }

func (id *ActorID) UnmarshalText(b []byte) error       { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *GroupID) UnmarshalText(b []byte) error       { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *CustomGroupID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *RecordID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *EntryID) UnmarshalText(b []byte) error       { return (*uuid.UUID)(id).UnmarshalText(b) }

// parseUUID is the shared validation logic. Nil UUIDs are rejected because
// no stewardship entity is ever addressed by the zero identifier.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return id, nil
}
