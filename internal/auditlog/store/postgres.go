package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"stewardship/internal/auditlog/models"
	id "stewardship/pkg/domain"
	"stewardship/pkg/platform/sentinel"
	txcontext "stewardship/pkg/platform/tx"
)

// PostgresStore persists entries in the audit_log table. Actor and group
// sets are stored as uuid[] columns.
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

const entryColumns = `id, kind, target_model, target_id, action, old_actor_id, new_actor_id,
	old_actor_ids, new_actor_ids, group_ids, custom_group_ids, extra_info, reason,
	performed_by, occurred_at, request_id, client`

func (s *PostgresStore) Append(ctx context.Context, e *models.Entry) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO audit_log (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`,
		uuid.UUID(e.ID),
		string(e.Kind),
		e.TargetModel,
		uuid.UUID(e.TargetID),
		string(e.Action),
		nullableActor(e.OldActor),
		nullableActor(e.NewActor),
		actorArray(e.OldActors),
		actorArray(e.NewActors),
		groupArray(e.Groups),
		customGroupArray(e.CustomGroups),
		e.ExtraInfo,
		e.Reason,
		uuid.UUID(e.PerformedBy),
		e.Timestamp,
		e.RequestID,
		e.Client,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, entryID id.EntryID) (*models.Entry, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `SELECT `+entryColumns+` FROM audit_log WHERE id = $1`, uuid.UUID(entryID))
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find audit entry: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter) ([]*models.Entry, error) {
	where, args := buildWhere(filter)
	query := `SELECT ` + entryColumns + ` FROM audit_log` + where + ` ORDER BY occurred_at DESC, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) Count(ctx context.Context, filter models.Filter) (int, error) {
	where, args := buildWhere(filter)
	var n int
	if err := s.execer(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) DeleteBefore(ctx context.Context, kind models.Kind, before time.Time) (int64, error) {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM audit_log WHERE kind = $1 AND occurred_at < $2`, string(kind), before)
	if err != nil {
		return 0, fmt.Errorf("purge audit entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge audit entries rows affected: %w", err)
	}
	return n, nil
}

func buildWhere(f models.Filter) (string, []any) {
	var clauses []string
	var args []any
	add := func(clause string, v any) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if len(f.Kinds) > 0 {
		kinds := make([]string, len(f.Kinds))
		for i, k := range f.Kinds {
			kinds[i] = string(k)
		}
		add("kind = ANY($%d)", kinds)
	}
	if f.Model != "" {
		add("target_model = $%d", f.Model)
	}
	if f.TargetID != nil {
		add("target_id = $%d", uuid.UUID(*f.TargetID))
	}
	if f.Actor != nil {
		args = append(args, uuid.UUID(*f.Actor))
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(performed_by = $%d OR $%d = ANY(old_actor_ids) OR $%d = ANY(new_actor_ids))", n, n, n))
	}
	if len(f.Actions) > 0 {
		actions := make([]string, len(f.Actions))
		for i, a := range f.Actions {
			actions[i] = string(a)
		}
		add("action = ANY($%d)", actions)
	}
	if f.From != nil {
		add("occurred_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("occurred_at < $%d", *f.To)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.Entry, error) {
	var (
		e                                 models.Entry
		rawID, rawTarget, rawPerformedBy  uuid.UUID
		kind, action                      string
		oldActor, newActor                uuid.NullUUID
		oldActors, newActors, groups, cgs []uuid.UUID
	)
	// database/sql cannot scan uuid[] on its own; pgtype bridges it.
	m := pgtype.NewMap()
	err := row.Scan(&rawID, &kind, &e.TargetModel, &rawTarget, &action, &oldActor, &newActor,
		m.SQLScanner(&oldActors), m.SQLScanner(&newActors), m.SQLScanner(&groups), m.SQLScanner(&cgs),
		&e.ExtraInfo, &e.Reason, &rawPerformedBy, &e.Timestamp, &e.RequestID, &e.Client)
	if err != nil {
		return nil, err
	}
	e.ID = id.EntryID(rawID)
	e.Kind = models.Kind(kind)
	e.Action = models.Action(action)
	e.TargetID = id.RecordID(rawTarget)
	e.PerformedBy = id.ActorID(rawPerformedBy)
	if oldActor.Valid {
		a := id.ActorID(oldActor.UUID)
		e.OldActor = &a
	}
	if newActor.Valid {
		a := id.ActorID(newActor.UUID)
		e.NewActor = &a
	}
	e.OldActors = toActors(oldActors)
	e.NewActors = toActors(newActors)
	for _, g := range groups {
		e.Groups = append(e.Groups, id.GroupID(g))
	}
	for _, g := range cgs {
		e.CustomGroups = append(e.CustomGroups, id.CustomGroupID(g))
	}
	return &e, nil
}

func nullableActor(a *id.ActorID) uuid.NullUUID {
	if a == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*a), Valid: true}
}

func actorArray(ids []id.ActorID) []uuid.UUID {
	out := make([]uuid.UUID, len(ids))
	for i, v := range ids {
		out[i] = uuid.UUID(v)
	}
	return out
}

func groupArray(ids []id.GroupID) []uuid.UUID {
	out := make([]uuid.UUID, len(ids))
	for i, v := range ids {
		out[i] = uuid.UUID(v)
	}
	return out
}

func customGroupArray(ids []id.CustomGroupID) []uuid.UUID {
	out := make([]uuid.UUID, len(ids))
	for i, v := range ids {
		out[i] = uuid.UUID(v)
	}
	return out
}

func toActors(raw []uuid.UUID) []id.ActorID {
	if len(raw) == 0 {
		return nil
	}
	out := make([]id.ActorID, len(raw))
	for i, v := range raw {
		out[i] = id.ActorID(v)
	}
	return out
}
