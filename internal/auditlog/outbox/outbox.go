// Package outbox implements the transactional outbox for the audit sink:
// log entries are staged in the same unit of work as the record mutation
// and published to Kafka by the worker afterwards.
package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is a staged message awaiting publication.
type Entry struct {
	ID          uuid.UUID
	RecordID    string // partition key; keeps one record's changes ordered
	EventType   string // "<kind>.<action>", e.g. "access.grant_user"
	Payload     []byte // JSON-encoded audit log entry
	CreatedAt   time.Time
	ProcessedAt *time.Time // nil while pending
}

func (e *Entry) IsPending() bool {
	return e.ProcessedAt == nil
}

func NewEntry(entryID uuid.UUID, recordID, eventType string, payload []byte, now time.Time) *Entry {
	return &Entry{
		ID:        entryID,
		RecordID:  recordID,
		EventType: eventType,
		Payload:   payload,
		CreatedAt: now,
	}
}

// Store defines the outbox persistence operations.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append stages an entry. Call it inside the mutation's unit of work.
	Append(ctx context.Context, entry *Entry) error

	// FetchUnprocessed returns up to limit pending entries, oldest first.
	FetchUnprocessed(ctx context.Context, limit int) ([]*Entry, error)

	MarkProcessed(ctx context.Context, id uuid.UUID, processedAt time.Time) error

	CountPending(ctx context.Context) (int64, error)

	// DeleteProcessedBefore removes published entries older than before.
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
