package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	txcontext "stewardship/pkg/platform/tx"
)

// PostgresStore implements Store on the audit_outbox table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append joins the caller's transaction when one is on the context, so the
// staged message commits or rolls back with the record change.
func (s *PostgresStore) Append(ctx context.Context, entry *Entry) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO audit_outbox (id, record_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.ID, entry.RecordID, entry.EventType, entry.Payload, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// FetchUnprocessed uses FOR UPDATE SKIP LOCKED so concurrent workers do not
// block each other.
func (s *PostgresStore) FetchUnprocessed(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	const maxBatch = 1000
	if limit > maxBatch {
		limit = maxBatch
	}
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, record_id, event_type, payload, created_at, processed_at
		FROM audit_outbox
		WHERE processed_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch unprocessed entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		var processedAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.RecordID, &e.EventType, &e.Payload, &e.CreatedAt, &processedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		if processedAt.Valid {
			e.ProcessedAt = &processedAt.Time
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox entries: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) MarkProcessed(ctx context.Context, id uuid.UUID, processedAt time.Time) error {
	result, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE audit_outbox SET processed_at = $2 WHERE id = $1 AND processed_at IS NULL
	`, id, processedAt)
	if err != nil {
		return fmt.Errorf("mark outbox entry processed: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("outbox entry not found or already processed: %s", id)
	}
	return nil
}

func (s *PostgresStore) CountPending(ctx context.Context) (int64, error) {
	var count int64
	if err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM audit_outbox WHERE processed_at IS NULL
	`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending entries: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.execer(ctx).ExecContext(ctx, `
		DELETE FROM audit_outbox WHERE processed_at IS NOT NULL AND processed_at < $1
	`, before)
	if err != nil {
		return 0, fmt.Errorf("delete processed entries: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return rowsAffected, nil
}
