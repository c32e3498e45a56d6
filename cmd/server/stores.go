package main

import (
	"context"
	"fmt"
	"log/slog"

	agservice "stewardship/internal/accessgroup/service"
	agstore "stewardship/internal/accessgroup/store"
	"stewardship/internal/auditlog/outbox"
	auditservice "stewardship/internal/auditlog/service"
	auditstore "stewardship/internal/auditlog/store"
	dirservice "stewardship/internal/directory/service"
	dirstore "stewardship/internal/directory/store"
	"stewardship/internal/platform/config"
	"stewardship/internal/platform/database"
	recordservice "stewardship/internal/record/service"
	recordstore "stewardship/internal/record/store"
	"stewardship/migrations"
	"stewardship/pkg/platform/tx"
)

// stores bundles the persistence layer. With no DATABASE_URL everything is
// in memory and the sharded runner serializes writers per record.
type stores struct {
	pool      *database.Pool
	runner    tx.Runner
	directory dirservice.Store
	groups    agservice.Store
	logs      auditservice.Store
	records   recordservice.Store
	outbox    outbox.Store
}

func openStores(ctx context.Context, cfg config.Server, log *slog.Logger) (*stores, error) {
	pool, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		return &stores{
			runner:    tx.NewShardedRunner(cfg.TxTimeout),
			directory: dirstore.NewInMemory(),
			groups:    agstore.NewInMemory(),
			logs:      auditstore.NewInMemory(),
			records:   recordstore.NewInMemory(),
			outbox:    outbox.NewInMemory(),
		}, nil
	}

	db := pool.DB()
	if err := database.Migrate(ctx, db, migrations.FS); err != nil {
		pool.Close() //nolint:errcheck // best-effort cleanup on init failure
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	log.Info("connected to postgres")
	return &stores{
		pool:      pool,
		runner:    tx.NewPostgresRunner(db, cfg.TxTimeout),
		directory: dirstore.NewPostgres(db),
		groups:    agstore.NewPostgres(db),
		logs:      auditstore.NewPostgres(db),
		records:   recordstore.NewPostgres(db),
		outbox:    outbox.NewPostgres(db),
	}, nil
}

func (s *stores) Close() error {
	return s.pool.Close()
}
