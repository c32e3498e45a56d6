// Package database owns the PostgreSQL connection pool and schema
// migrations.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"stewardship/internal/platform/config"
)

const pingTimeout = 5 * time.Second

var errNotConfigured = errors.New("database not configured")

type Pool struct {
	db *sql.DB
}

// New returns a nil Pool and no error when cfg.URL is empty; the server then
// runs on in-memory stores.
func New(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	p := &Pool{db: db}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := p.Health(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}
	return p, nil
}

func (p *Pool) DB() *sql.DB { return p.db }

// Health and Close are safe on a nil Pool.
func (p *Pool) Health(ctx context.Context) error {
	if p == nil || p.db == nil {
		return errNotConfigured
	}
	return p.db.PingContext(ctx)
}

func (p *Pool) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}
