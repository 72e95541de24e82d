package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"commission/internal/activity/publisher"
	activitystore "commission/internal/activity/store"
	employeehandler "commission/internal/employee/handler"
	employeeservice "commission/internal/employee/service"
	employeestore "commission/internal/employee/store"
	jwttoken "commission/internal/jwt_token"
	newsstore "commission/internal/news/store"
	"commission/internal/platform/config"
	"commission/internal/platform/httpserver"
	"commission/internal/platform/kafka"
	"commission/internal/platform/logger"
	platformmetrics "commission/internal/platform/metrics"
	"commission/internal/platform/postgres"
	"commission/internal/platform/redis"
	"commission/internal/platform/tracing"
	proposalstore "commission/internal/proposal/store"
	queuestore "commission/internal/queue/store"
	httptransport "commission/internal/transport/http"
	"commission/internal/workflow"
	workflowhandler "commission/internal/workflow/handler"
	"commission/internal/workflow/lock"
	workflowmetrics "commission/internal/workflow/metrics"
	"commission/pkg/platform/tx"
)

const serviceName = "commission"

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var checks []func(context.Context) error

	b, err := buildStores(ctx, cfg)
	if err != nil {
		return err
	}
	if b.db != nil {
		defer b.db.Close()
		checks = append(checks, b.db.PingContext)
		log.Info("using postgres stores")
	} else {
		log.Info("using in-memory stores")
	}

	engineOpts := []workflow.Option{
		workflow.WithLogger(log),
		workflow.WithMetrics(workflowmetrics.New(reg)),
	}
	serviceOpts := []employeeservice.Option{employeeservice.WithLogger(log)}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		checks = append(checks, redisClient.Health)
		engineOpts = append(engineOpts, workflow.WithLocker(lock.NewRedis(redisClient.Client,
			lock.WithTTL(cfg.LockTTL),
			lock.WithLogger(log),
		)))
		log.Info("using redis decision locks")
	}

	producer, err := buildProducer(ctx, cfg.Kafka)
	if err != nil {
		return err
	}
	if producer != nil {
		defer producer.Close()
		sink := publisher.NewKafka(producer, cfg.Kafka.ActivityTopic)
		engineOpts = append(engineOpts, workflow.WithActivitySink(sink))
		serviceOpts = append(serviceOpts, employeeservice.WithActivitySink(sink))
		log.Info("mirroring activity to kafka", "topic", cfg.Kafka.ActivityTopic)
	}

	engine := workflow.New(b.stores, b.runner, engineOpts...)
	employees := employeeservice.New(b.employees, b.stores.Activity, b.runner, serviceOpts...)
	jwt := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)

	router := httptransport.NewRouter(httptransport.Config{
		Logger:         log,
		Validator:      jwttoken.NewJWTServiceAdapter(jwt),
		Metrics:        platformmetrics.New(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Health: func(ctx context.Context) error {
			for _, check := range checks {
				if err := check(ctx); err != nil {
					return err
				}
			}
			return nil
		},
		Modules: []httptransport.Registrar{
			employeehandler.New(employees, log),
			workflowhandler.New(engine, log),
		},
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting commission", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// backend is the selected storage: the workflow stores plus the full
// employee store used by direct administration.
type backend struct {
	stores    workflow.Stores
	employees employeeservice.Store
	runner    tx.Runner
	db        *sql.DB
}

// buildStores selects postgres when a database URL is configured.
func buildStores(ctx context.Context, cfg config.Server) (backend, error) {
	if cfg.DatabaseURL == "" {
		employees := employeestore.NewInMemory()
		return backend{
			stores: workflow.Stores{
				Employees: employees,
				News:      newsstore.NewInMemory(),
				Proposals: proposalstore.NewInMemory(),
				Queue:     queuestore.NewInMemory(),
				Activity:  activitystore.NewInMemory(),
			},
			employees: employees,
			runner:    tx.NewInMemory(cfg.TxTimeout),
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return backend{}, err
	}
	employees := employeestore.NewPostgres(db)
	return backend{
		stores: workflow.Stores{
			Employees: employees,
			News:      newsstore.NewPostgres(db),
			Proposals: proposalstore.NewPostgres(db),
			Queue:     queuestore.NewPostgres(db),
			Activity:  activitystore.NewPostgres(db),
		},
		employees: employees,
		runner:    newPostgresTx(db, cfg.TxTimeout),
		db:        db,
	}, nil
}

// buildProducer returns nil when no brokers are configured.
func buildProducer(ctx context.Context, cfg config.KafkaConfig) (*kgo.Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	kcfg := kafka.Config{
		Brokers:           cfg.Brokers,
		ClientID:          cfg.ClientID,
		Partitions:        cfg.Partitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}
	client, err := kafka.NewClient(kcfg)
	if err != nil {
		return nil, err
	}
	if err := kafka.EnsureTopic(ctx, client, kcfg, cfg.ActivityTopic); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
