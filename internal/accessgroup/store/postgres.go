package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"stewardship/internal/accessgroup/models"
	id "stewardship/pkg/domain"
	"stewardship/pkg/platform/sentinel"
	txcontext "stewardship/pkg/platform/tx"
)

// PostgresStore keeps groups in the custom_groups table. Members and
// managers are uuid[] columns; names are unique on lower(name).
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

const groupColumns = `id, name, description, group_type, project_name, department_name,
	member_ids, manager_ids, active, expires_at, created_by, created_at, updated_at, archived_at`

func (s *PostgresStore) Create(ctx context.Context, g *models.Group) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO custom_groups (`+groupColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		uuid.UUID(g.ID), g.Name, g.Description, string(g.Type), g.ProjectName, g.DepartmentName,
		actorArray(g.Members), actorArray(g.Managers), g.Active, g.ExpiresAt,
		uuid.UUID(g.CreatedBy), g.CreatedAt, g.UpdatedAt, g.ArchivedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create custom group: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, groupID id.CustomGroupID) (*models.Group, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM custom_groups WHERE id = $1`, uuid.UUID(groupID))
	return findOne(row)
}

func (s *PostgresStore) FindByName(ctx context.Context, name string) (*models.Group, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM custom_groups WHERE lower(name) = lower($1)`, strings.TrimSpace(name))
	return findOne(row)
}

func (s *PostgresStore) Update(ctx context.Context, g *models.Group) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE custom_groups SET
			name = $2, description = $3, group_type = $4, project_name = $5, department_name = $6,
			member_ids = $7, manager_ids = $8, active = $9, expires_at = $10,
			updated_at = $11, archived_at = $12
		WHERE id = $1
	`,
		uuid.UUID(g.ID), g.Name, g.Description, string(g.Type), g.ProjectName, g.DepartmentName,
		actorArray(g.Members), actorArray(g.Managers), g.Active, g.ExpiresAt,
		g.UpdatedAt, g.ArchivedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update custom group: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update custom group rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter) ([]*models.Group, error) {
	var clauses []string
	var args []any
	add := func(clause string, v any) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if filter.ActiveOnly {
		clauses = append(clauses, "active")
	}
	if filter.Type != "" {
		add("group_type = $%d", string(filter.Type))
	}
	if filter.Member != nil {
		add("$%d = ANY(member_ids)", uuid.UUID(*filter.Member))
	}
	if filter.Manager != nil {
		args = append(args, uuid.UUID(*filter.Manager))
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(created_by = $%d OR $%d = ANY(manager_ids))", n, n))
	}
	query := `SELECT ` + groupColumns + ` FROM custom_groups`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY lower(name)"

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list custom groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan custom group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate custom groups: %w", err)
	}
	return groups, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func findOne(row rowScanner) (*models.Group, error) {
	g, err := scanGroup(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find custom group: %w", err)
	}
	return g, nil
}

func scanGroup(row rowScanner) (*models.Group, error) {
	var (
		g                 models.Group
		rawID, createdBy  uuid.UUID
		groupType         string
		members, managers []uuid.UUID
	)
	m := pgtype.NewMap()
	err := row.Scan(&rawID, &g.Name, &g.Description, &groupType, &g.ProjectName, &g.DepartmentName,
		m.SQLScanner(&members), m.SQLScanner(&managers), &g.Active, &g.ExpiresAt,
		&createdBy, &g.CreatedAt, &g.UpdatedAt, &g.ArchivedAt)
	if err != nil {
		return nil, err
	}
	g.ID = id.CustomGroupID(rawID)
	g.Type = models.Type(groupType)
	g.CreatedBy = id.ActorID(createdBy)
	g.Members = toActors(members)
	g.Managers = toActors(managers)
	return &g, nil
}

func actorArray(ids []id.ActorID) []uuid.UUID {
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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
