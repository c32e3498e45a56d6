//go:build integration

package containers

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"stewardship/internal/platform/database"
	"stewardship/migrations"
)

// stewardshipTables lists every table in child-before-parent order.
var stewardshipTables = []string{
	"audit_outbox",
	"audit_log",
	"records",
	"custom_groups",
	"system_group_members",
	"system_groups",
	"actors",
}

// PostgresContainer is a migrated Postgres instance shared by the suites of
// one test binary.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts Postgres and applies the embedded migrations
// through the same code path the server uses.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("stewardship_test"),
		postgres.WithUsername("stewardship"),
		postgres.WithPassword("stewardship_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("postgres connection string: %v", err)
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("open postgres: %v", err)
	}
	if err := database.Migrate(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("migrate: %v", err)
	}

	// No t.Cleanup: the Manager shares the container across suites and the
	// testcontainers reaper removes it when the process exits.
	return &PostgresContainer{Container: container, DSN: dsn, DB: db}
}

// Reset empties every table so suites can share the container.
func (p *PostgresContainer) Reset(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE "+strings.Join(stewardshipTables, ", ")+" CASCADE")
	return err
}
