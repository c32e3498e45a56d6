package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	accesscache "stewardship/internal/access/cache"
	accesshandler "stewardship/internal/access/handler"
	accessservice "stewardship/internal/access/service"
	"stewardship/internal/accessgroup/expiry"
	aghandler "stewardship/internal/accessgroup/handler"
	agservice "stewardship/internal/accessgroup/service"
	assignmenthandler "stewardship/internal/assignment/handler"
	assignmentservice "stewardship/internal/assignment/service"
	audithandler "stewardship/internal/auditlog/handler"
	outboxmetrics "stewardship/internal/auditlog/outbox/metrics"
	"stewardship/internal/auditlog/outbox/worker"
	"stewardship/internal/auditlog/retention"
	auditservice "stewardship/internal/auditlog/service"
	bulkhandler "stewardship/internal/bulk/handler"
	bulkservice "stewardship/internal/bulk/service"
	dashboardhandler "stewardship/internal/dashboard/handler"
	dashboardservice "stewardship/internal/dashboard/service"
	dirservice "stewardship/internal/directory/service"
	jwttoken "stewardship/internal/jwt_token"
	ownershiphandler "stewardship/internal/ownership/handler"
	ownershipservice "stewardship/internal/ownership/service"
	"stewardship/internal/platform/config"
	"stewardship/internal/platform/health"
	"stewardship/internal/platform/kafka/producer"
	"stewardship/internal/platform/logger"
	"stewardship/internal/platform/metrics"
	redisclient "stewardship/internal/platform/redis"
	"stewardship/internal/platform/tracer"
	recordhandler "stewardship/internal/record/handler"
	"stewardship/internal/record/models"
	recordservice "stewardship/internal/record/service"
	responsibilityhandler "stewardship/internal/responsibility/handler"
	responsibilityservice "stewardship/internal/responsibility/service"
	"stewardship/internal/seeder"
	httptransport "stewardship/internal/transport/http"
	"stewardship/pkg/platform/circuit"
	"stewardship/pkg/platform/middleware/metadata"
	"stewardship/pkg/platform/middleware/request"
)

const (
	shutdownTimeout   = 15 * time.Second
	poolStatsInterval = 15 * time.Second
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// background tracks goroutines that must finish before the process exits.
type background struct {
	done []chan struct{}
}

func (b *background) Go(fn func()) {
	ch := make(chan struct{})
	b.done = append(b.done, ch)
	go func() {
		defer close(ch)
		fn()
	}()
}

func (b *background) Wait(ctx context.Context) {
	for _, ch := range b.done {
		select {
		case <-ch:
		case <-ctx.Done():
			return
		}
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	m := metrics.New()
	hc := health.New(cfg.Environment)

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck // shutdown path
	if st.pool != nil {
		hc.RegisterCheck("postgres", st.pool.Health)
	}

	directory := dirservice.New(st.directory, dirservice.WithLogger(log))

	auditOpts := []auditservice.Option{
		auditservice.WithMetrics(m),
		auditservice.WithLogger(log),
	}
	var kafka *producer.Producer
	if cfg.Kafka.Brokers != "" {
		kafka, err = producer.New(producer.Config{
			Brokers:         cfg.Kafka.Brokers,
			Acks:            cfg.Kafka.Acks,
			Retries:         cfg.Kafka.Retries,
			DeliveryTimeout: cfg.Kafka.DeliveryTimeout,
		}, log)
		if err != nil {
			return err
		}
		defer kafka.Close() //nolint:errcheck // shutdown path
		hc.RegisterCheck("kafka", kafka.Health)
		auditOpts = append(auditOpts, auditservice.WithOutbox(st.outbox))
	}
	logs := auditservice.New(st.logs, auditOpts...)

	registry := models.DefaultRegistry()
	records := recordservice.New(st.records, registry, st.runner, logs, directory,
		recordservice.WithMetrics(m),
		recordservice.WithLogger(log),
	)
	logs.SetRecordResolver(records)

	groups := agservice.New(st.groups, directory, st.runner,
		agservice.WithMetrics(m),
		agservice.WithLogger(log),
	)

	var cache accesscache.Cache = accesscache.NewInMemory(cfg.Redis.AccessCacheTTL)
	rdb, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close() //nolint:errcheck // shutdown path
		hc.RegisterCheck("redis", rdb.Health)
		cache = accesscache.NewRedis(rdb.Client, cfg.Redis.AccessCacheTTL)
		log.Info("access cache backed by redis")
	}
	access := accessservice.New(records, directory, groups,
		accessservice.WithLogger(log),
		accessservice.WithMetrics(m),
		accessservice.WithTracer(tracer.NewOTel(nil)),
		accessservice.WithCache(cache),
	)
	groups.Subscribe(access)
	directory.Subscribe(access)

	ownership := ownershipservice.New(records, directory, ownershipservice.WithLogger(log))
	assignment := assignmentservice.New(records, directory, access, assignmentservice.WithLogger(log))
	responsibility := responsibilityservice.New(records, directory, access, responsibilityservice.WithLogger(log))
	bulk := bulkservice.New(assignment, ownership, access, responsibility, st.runner,
		bulkservice.WithLogger(log),
		bulkservice.WithMetrics(m),
	)
	dashboard := dashboardservice.New(logs, records,
		dashboardservice.WithLogger(log),
		dashboardservice.WithMetrics(m),
	)

	if cfg.Environment == "local" {
		summary, err := seeder.New(seeder.Services{
			Directory:      directory,
			Groups:         groups,
			Records:        records,
			Ownership:      ownership,
			Access:         access,
			Assignment:     assignment,
			Responsibility: responsibility,
		}, log).SeedAll(ctx)
		if err != nil {
			return err
		}
		if summary != nil {
			log.Info("seeded demo admin", "actor_id", summary.Admin.String())
		}
	}

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()
	var bg background

	expirer, err := expiry.New(groups,
		expiry.WithInterval(cfg.Groups.ExpiryInterval),
		expiry.WithLogger(log),
	)
	if err != nil {
		return err
	}
	bg.Go(func() { _ = expirer.Start(workerCtx) })

	if cfg.Audit.Retention > 0 {
		purger, err := retention.New(logs, cfg.Audit.Retention,
			retention.WithInterval(cfg.Audit.RetentionInterval),
			retention.WithLogger(log),
		)
		if err != nil {
			return err
		}
		bg.Go(func() { _ = purger.Start(workerCtx) })
	}

	if rdb != nil {
		bg.Go(func() { rdb.RunPoolStats(workerCtx, poolStatsInterval) })
	}

	var publisher *worker.Worker
	if kafka != nil {
		publisher = worker.New(st.outbox, kafka,
			worker.WithTopic(cfg.Kafka.AuditTopic),
			worker.WithPollInterval(cfg.Kafka.OutboxInterval),
			worker.WithBreaker(circuit.New("kafka")),
			worker.WithMetrics(outboxmetrics.New()),
			worker.WithLogger(log),
		)
		publisher.Start()
	}

	proxies, err := metadata.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}
	tokens := jwttoken.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL)
	audits := audithandler.New(logs, log)

	router := httptransport.NewRouter(httptransport.Config{
		Logger:   log,
		Tokens:   tokens,
		Admins:   directory,
		Metadata: metadata.NewMiddleware(&metadata.Config{TrustedProxies: proxies}),
		Metrics:  request.NewMetrics(),
		Health:   hc,
	}, []httptransport.Routes{
		recordhandler.New(records, registry, log),
		accesshandler.New(access, log),
		ownershiphandler.New(ownership, records, log),
		assignmenthandler.New(assignment, records, log),
		responsibilityhandler.New(responsibility, records, log),
		aghandler.New(groups, log),
		audits,
		bulkhandler.New(bulk, log),
		dashboardhandler.New(dashboard, log),
	}, []httptransport.AdminRoutes{audits})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting stewardship server", "addr", cfg.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}
	cancelWorkers()
	if publisher != nil {
		if err := publisher.Stop(shutdownCtx); err != nil {
			log.Error("outbox worker stop failed", "error", err)
		}
	}
	bg.Wait(shutdownCtx)
	return nil
}
