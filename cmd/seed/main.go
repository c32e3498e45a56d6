// Command seed loads demo actors, groups and records into the Postgres
// database named by DATABASE_URL and prints a bearer token for each actor.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	accessservice "stewardship/internal/access/service"
	agservice "stewardship/internal/accessgroup/service"
	agstore "stewardship/internal/accessgroup/store"
	auditservice "stewardship/internal/auditlog/service"
	auditstore "stewardship/internal/auditlog/store"
	assignmentservice "stewardship/internal/assignment/service"
	dirservice "stewardship/internal/directory/service"
	dirstore "stewardship/internal/directory/store"
	jwttoken "stewardship/internal/jwt_token"
	ownershipservice "stewardship/internal/ownership/service"
	"stewardship/internal/platform/config"
	"stewardship/internal/platform/database"
	"stewardship/internal/platform/logger"
	"stewardship/internal/record/models"
	recordservice "stewardship/internal/record/service"
	recordstore "stewardship/internal/record/store"
	responsibilityservice "stewardship/internal/responsibility/service"
	"stewardship/internal/seeder"
	"stewardship/migrations"
	"stewardship/pkg/platform/tx"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	pool, err := database.New(ctx, cfg.Database)
	if err != nil {
		return err
	}
	if pool == nil {
		return fmt.Errorf("DATABASE_URL is required")
	}
	defer pool.Close() //nolint:errcheck // process exit
	db := pool.DB()
	if err := database.Migrate(ctx, db, migrations.FS); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	runner := tx.NewPostgresRunner(db, cfg.TxTimeout)
	directory := dirservice.New(dirstore.NewPostgres(db), dirservice.WithLogger(log))
	logs := auditservice.New(auditstore.NewPostgres(db), auditservice.WithLogger(log))
	records := recordservice.New(recordstore.NewPostgres(db), models.DefaultRegistry(), runner, logs, directory,
		recordservice.WithLogger(log),
	)
	logs.SetRecordResolver(records)
	groups := agservice.New(agstore.NewPostgres(db), directory, runner, agservice.WithLogger(log))
	access := accessservice.New(records, directory, groups, accessservice.WithLogger(log))

	summary, err := seeder.New(seeder.Services{
		Directory:      directory,
		Groups:         groups,
		Records:        records,
		Ownership:      ownershipservice.New(records, directory, ownershipservice.WithLogger(log)),
		Access:         access,
		Assignment:     assignmentservice.New(records, directory, access, assignmentservice.WithLogger(log)),
		Responsibility: responsibilityservice.New(records, directory, access, responsibilityservice.WithLogger(log)),
	}, log).SeedAll(ctx)
	if err != nil {
		return err
	}
	if summary == nil {
		fmt.Println("database already seeded")
		return nil
	}

	tokens := jwttoken.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL)
	names := make([]string, 0, len(summary.Actors))
	for name := range summary.Actors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		actorID := summary.Actors[name]
		token, err := tokens.Issue(ctx, actorID)
		if err != nil {
			return err
		}
		fmt.Printf("%-16s %s\n  %s\n", name, actorID, token)
	}
	fmt.Printf("admin: %s\nrecords: %d\n", summary.Admin, len(summary.Records))
	return nil
}
