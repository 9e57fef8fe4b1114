// Command cron-worker runs the periodic maintenance jobs under a redis lock.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/pawhaven-backend/internal/adoptions"
	"github.com/angelmondragon/pawhaven-backend/internal/cron"
	"github.com/angelmondragon/pawhaven-backend/internal/pets"
	"github.com/angelmondragon/pawhaven-backend/pkg/config"
	"github.com/angelmondragon/pawhaven-backend/pkg/db"
	"github.com/angelmondragon/pawhaven-backend/pkg/instance"
	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
	"github.com/angelmondragon/pawhaven-backend/pkg/metrics"
	"github.com/angelmondragon/pawhaven-backend/pkg/migrate"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox"
	"github.com/angelmondragon/pawhaven-backend/pkg/redis"
)

const serviceKind = "cron-worker"

var errCycleFailed = errors.New("cron cycle finished with failed jobs")

func main() {
	boot := logger.New(logger.Options{ServiceName: serviceKind})
	if err := godotenv.Load(); err != nil {
		boot.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		boot.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceKind

	logg := logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"instance":    instance.GetID(),
		"serviceKind": serviceKind,
	})

	err = run(ctx, cfg, logg)
	stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shut down")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer closeWith(ctx, logg, "database", dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer closeWith(ctx, logg, "redis", redisClient.Close)

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(serviceKind, envOrLocal(cfg.App.Env)), 0)
	if err != nil {
		return fmt.Errorf("cron lock: %w", err)
	}

	jobs, err := buildJobs(cfg, logg, dbClient)
	if err != nil {
		return err
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: jobs,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		return err
	}

	if !cfg.Cron.RunOnce {
		logg.Info(ctx, "starting cron worker")
		return service.Run(ctx)
	}

	report, err := service.RunOnce(ctx)
	if err != nil {
		return err
	}
	if len(report.Failed) > 0 {
		logg.Warn(logg.WithField(ctx, "failed_jobs", report.Failed), "cron cycle finished with failures")
		return errCycleFailed
	}
	return nil
}

// buildJobs wires the reconcile and outbox retention jobs.
func buildJobs(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (*cron.Registry, error) {
	lifecycle := metrics.NewLifecycleMetrics(prometheus.DefaultRegisterer)
	outboxRepo := outbox.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outboxRepo, logg)

	petsRepo := pets.NewRepository(dbClient.DB())
	transitions, err := pets.NewTransitioner(petsRepo, outboxService, lifecycle)
	if err != nil {
		return nil, fmt.Errorf("pet transitioner: %w", err)
	}
	adoptionsService, err := adoptions.NewService(
		adoptions.NewRepository(dbClient.DB()),
		petsRepo,
		dbClient,
		outboxService,
		transitions,
		lifecycle,
		logg,
	)
	if err != nil {
		return nil, fmt.Errorf("adoptions service: %w", err)
	}

	reconcile, err := cron.NewPetStatusReconcileJob(cron.PetStatusReconcileJobParams{
		Logger:     logg,
		Reconciler: adoptionsService,
	})
	if err != nil {
		return nil, err
	}
	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		Repository: outboxRepo,
		Retention:  cfg.Cron.OutboxRetentionDays,
	})
	if err != nil {
		return nil, err
	}
	return cron.NewRegistry(reconcile, retention), nil
}

func envOrLocal(env string) string {
	if env == "" {
		return "local"
	}
	return env
}

func closeWith(ctx context.Context, logg *logger.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(ctx, "error closing "+name, err)
	}
}
