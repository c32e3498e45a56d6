package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"stewardship/internal/directory/models"
	id "stewardship/pkg/domain"
	"stewardship/pkg/platform/sentinel"
	txcontext "stewardship/pkg/platform/tx"
)

// PostgresStore persists the directory in the actors, system_groups and
// system_group_members tables.
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

func (s *PostgresStore) CreateActor(ctx context.Context, actor *models.Actor) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO actors (id, name, email, is_admin, is_anonymous, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.UUID(actor.ID), actor.Name, actor.Email, actor.Admin, actor.Anonymous, actor.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create actor: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateActor(ctx context.Context, actor *models.Actor) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE actors SET name = $2, email = $3, is_admin = $4, is_anonymous = $5
		WHERE id = $1
	`, uuid.UUID(actor.ID), actor.Name, actor.Email, actor.Admin, actor.Anonymous)
	if err != nil {
		return fmt.Errorf("update actor: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update actor rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindActor(ctx context.Context, actorID id.ActorID) (*models.Actor, error) {
	exec := s.execer(ctx)
	actor := &models.Actor{}
	var rawID uuid.UUID
	err := exec.QueryRowContext(ctx, `
		SELECT id, name, email, is_admin, is_anonymous, created_at
		FROM actors WHERE id = $1
	`, uuid.UUID(actorID)).Scan(&rawID, &actor.Name, &actor.Email, &actor.Admin, &actor.Anonymous, &actor.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find actor: %w", err)
	}
	actor.ID = id.ActorID(rawID)

	groups, err := s.groupsOf(ctx, exec, actorID)
	if err != nil {
		return nil, err
	}
	actor.Groups = groups
	return actor, nil
}

func (s *PostgresStore) ListActors(ctx context.Context) ([]*models.Actor, error) {
	exec := s.execer(ctx)
	rows, err := exec.QueryContext(ctx, `
		SELECT id, name, email, is_admin, is_anonymous, created_at
		FROM actors ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list actors: %w", err)
	}
	defer rows.Close()

	var actors []*models.Actor
	for rows.Next() {
		actor := &models.Actor{}
		var rawID uuid.UUID
		if err := rows.Scan(&rawID, &actor.Name, &actor.Email, &actor.Admin, &actor.Anonymous, &actor.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan actor: %w", err)
		}
		actor.ID = id.ActorID(rawID)
		actors = append(actors, actor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actors: %w", err)
	}

	for _, actor := range actors {
		groups, err := s.groupsOf(ctx, exec, actor.ID)
		if err != nil {
			return nil, err
		}
		actor.Groups = groups
	}
	return actors, nil
}

func (s *PostgresStore) groupsOf(ctx context.Context, exec dbExecutor, actorID id.ActorID) ([]id.GroupID, error) {
	rows, err := exec.QueryContext(ctx, `
		SELECT group_id FROM system_group_members WHERE actor_id = $1 ORDER BY group_id
	`, uuid.UUID(actorID))
	if err != nil {
		return nil, fmt.Errorf("list actor groups: %w", err)
	}
	defer rows.Close()

	var groups []id.GroupID
	for rows.Next() {
		var g uuid.UUID
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("scan actor group: %w", err)
		}
		groups = append(groups, id.GroupID(g))
	}
	return groups, rows.Err()
}

func (s *PostgresStore) CreateGroup(ctx context.Context, group *models.Group) error {
	exec := s.execer(ctx)
	_, err := exec.ExecContext(ctx, `INSERT INTO system_groups (id, name) VALUES ($1, $2)`,
		uuid.UUID(group.ID), group.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create group: %w", err)
	}
	for _, m := range group.Members {
		if err := s.AddMember(ctx, group.ID, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) FindGroup(ctx context.Context, groupID id.GroupID) (*models.Group, error) {
	exec := s.execer(ctx)
	group := &models.Group{ID: groupID}
	err := exec.QueryRowContext(ctx, `SELECT name FROM system_groups WHERE id = $1`,
		uuid.UUID(groupID)).Scan(&group.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find group: %w", err)
	}
	members, err := s.membersOf(ctx, exec, groupID)
	if err != nil {
		return nil, err
	}
	group.Members = members
	return group, nil
}

func (s *PostgresStore) ListGroups(ctx context.Context) ([]*models.Group, error) {
	exec := s.execer(ctx)
	rows, err := exec.QueryContext(ctx, `SELECT id, name FROM system_groups ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		var rawID uuid.UUID
		g := &models.Group{}
		if err := rows.Scan(&rawID, &g.Name); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		g.ID = id.GroupID(rawID)
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}
	for _, g := range groups {
		members, err := s.membersOf(ctx, exec, g.ID)
		if err != nil {
			return nil, err
		}
		g.Members = members
	}
	return groups, nil
}

func (s *PostgresStore) membersOf(ctx context.Context, exec dbExecutor, groupID id.GroupID) ([]id.ActorID, error) {
	rows, err := exec.QueryContext(ctx, `
		SELECT actor_id FROM system_group_members WHERE group_id = $1 ORDER BY added_at, actor_id
	`, uuid.UUID(groupID))
	if err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	defer rows.Close()

	var members []id.ActorID
	for rows.Next() {
		var a uuid.UUID
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("scan group member: %w", err)
		}
		members = append(members, id.ActorID(a))
	}
	return members, rows.Err()
}

func (s *PostgresStore) AddMember(ctx context.Context, groupID id.GroupID, actorID id.ActorID) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO system_group_members (group_id, actor_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, uuid.UUID(groupID), uuid.UUID(actorID))
	if err != nil {
		if isForeignKeyViolation(err) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("add group member: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveMember(ctx context.Context, groupID id.GroupID, actorID id.ActorID) error {
	exec := s.execer(ctx)
	var exists bool
	if err := exec.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM system_groups WHERE id = $1)`,
		uuid.UUID(groupID)).Scan(&exists); err != nil {
		return fmt.Errorf("check group: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	_, err := exec.ExecContext(ctx, `DELETE FROM system_group_members WHERE group_id = $1 AND actor_id = $2`,
		uuid.UUID(groupID), uuid.UUID(actorID))
	if err != nil {
		return fmt.Errorf("remove group member: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
