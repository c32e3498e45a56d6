// Package cache holds the effective accessible-actor set of each record.
// Entries are derived from the record's grants and the groups they name;
// they are never authoritative and may be dropped at any time.
//
// Error Contract:
//   - Get reports a miss with ok=false and a nil error
//   - transport and decode failures are returned wrapped
package cache

import (
	"context"

	id "stewardship/pkg/domain"
)

// Cache stores accessible-actor sets keyed by record.
type Cache interface {
	Get(ctx context.Context, recordID id.RecordID) ([]id.ActorID, bool, error)
	Set(ctx context.Context, recordID id.RecordID, actors []id.ActorID) error
	Invalidate(ctx context.Context, recordID id.RecordID) error
	// InvalidateAll drops every entry, e.g. after a custom group's
	// membership or active flag changed.
	InvalidateAll(ctx context.Context) error
}
