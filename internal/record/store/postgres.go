package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"stewardship/internal/record/models"
	id "stewardship/pkg/domain"
	"stewardship/pkg/platform/sentinel"
	txcontext "stewardship/pkg/platform/tx"
)

// PostgresStore keeps one row per record in the records table. Each
// capability state is a JSONB column that is NULL when the model lacks it.
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

const selectColumns = `id, model, name, created_by, created_at, updated_at,
	ownership, access, assignment, responsibility`

func (s *PostgresStore) Create(ctx context.Context, record *models.Record) error {
	states, err := encodeStates(record)
	if err != nil {
		return err
	}
	_, err = s.execer(ctx).ExecContext(ctx, `
		INSERT INTO records (id, model, name, created_by, created_at, updated_at,
			ownership, access, assignment, responsibility)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, uuid.UUID(record.ID), record.Model, record.Name, uuid.UUID(record.CreatedBy),
		record.CreatedAt, record.UpdatedAt, states[0], states[1], states[2], states[3])
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create record: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, recordID id.RecordID) (*models.Record, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM records WHERE id = $1`, uuid.UUID(recordID))
	return scanRecord(row)
}

// FindForUpdate locks the row for the rest of the surrounding transaction.
func (s *PostgresStore) FindForUpdate(ctx context.Context, recordID id.RecordID) (*models.Record, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM records WHERE id = $1 FOR UPDATE`, uuid.UUID(recordID))
	return scanRecord(row)
}

func (s *PostgresStore) Update(ctx context.Context, record *models.Record) error {
	states, err := encodeStates(record)
	if err != nil {
		return err
	}
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE records SET name = $2, updated_at = $3,
			ownership = $4, access = $5, assignment = $6, responsibility = $7
		WHERE id = $1
	`, uuid.UUID(record.ID), record.Name, record.UpdatedAt, states[0], states[1], states[2], states[3])
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return requireAffected(res, "update record")
}

func (s *PostgresStore) Delete(ctx context.Context, recordID id.RecordID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM records WHERE id = $1`, uuid.UUID(recordID))
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return requireAffected(res, "delete record")
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter) ([]*models.Record, error) {
	var (
		where []string
		args  []any
	)
	if filter.Model != "" {
		args = append(args, filter.Model)
		where = append(where, fmt.Sprintf("model = $%d", len(args)))
	}
	if filter.CustomGroupID != nil {
		args = append(args, filter.CustomGroupID.String())
		where = append(where, fmt.Sprintf("access -> 'custom_groups' ? $%d", len(args)))
	}
	query := `SELECT ` + selectColumns + ` FROM records`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		r                          models.Record
		rawID, rawCreator          uuid.UUID
		ownership, access          []byte
		assignment, responsibility []byte
	)
	err := row.Scan(&rawID, &r.Model, &r.Name, &rawCreator, &r.CreatedAt, &r.UpdatedAt,
		&ownership, &access, &assignment, &responsibility)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan record: %w", err)
	}
	r.ID = id.RecordID(rawID)
	r.CreatedBy = id.ActorID(rawCreator)

	if err := decodeState(ownership, &r.Ownership); err != nil {
		return nil, err
	}
	if err := decodeState(access, &r.Access); err != nil {
		return nil, err
	}
	if err := decodeState(assignment, &r.Assignment); err != nil {
		return nil, err
	}
	if err := decodeState(responsibility, &r.Responsibility); err != nil {
		return nil, err
	}
	return &r, nil
}

// encodeStates returns the four JSONB column values in column order.
func encodeStates(r *models.Record) ([4]any, error) {
	var out [4]any
	for i, state := range []any{r.Ownership, r.Access, r.Assignment, r.Responsibility} {
		v, err := encodeState(state)
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}

func encodeState(state any) (any, error) {
	switch s := state.(type) {
	case *models.Ownership:
		if s == nil {
			return nil, nil
		}
	case *models.Access:
		if s == nil {
			return nil, nil
		}
	case *models.Assignment:
		if s == nil {
			return nil, nil
		}
	case *models.Responsibility:
		if s == nil {
			return nil, nil
		}
	}
	b, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode record state: %w", err)
	}
	return string(b), nil
}

func decodeState[T any](raw []byte, dst **T) error {
	if raw == nil {
		return nil
	}
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode record state: %w", err)
	}
	*dst = v
	return nil
}

func requireAffected(res sql.Result, op string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
