// Command api serves the PawHaven HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/pawhaven-backend/api/controllers"
	"github.com/angelmondragon/pawhaven-backend/api/routes"
	"github.com/angelmondragon/pawhaven-backend/internal/adoptions"
	"github.com/angelmondragon/pawhaven-backend/internal/donations"
	"github.com/angelmondragon/pawhaven-backend/internal/lostreports"
	"github.com/angelmondragon/pawhaven-backend/internal/pets"
	"github.com/angelmondragon/pawhaven-backend/internal/verification"
	"github.com/angelmondragon/pawhaven-backend/internal/views"
	"github.com/angelmondragon/pawhaven-backend/pkg/config"
	"github.com/angelmondragon/pawhaven-backend/pkg/db"
	"github.com/angelmondragon/pawhaven-backend/pkg/env"
	"github.com/angelmondragon/pawhaven-backend/pkg/instance"
	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
	"github.com/angelmondragon/pawhaven-backend/pkg/metrics"
	"github.com/angelmondragon/pawhaven-backend/pkg/migrate"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox"
	"github.com/angelmondragon/pawhaven-backend/pkg/redis"
	"github.com/angelmondragon/pawhaven-backend/pkg/security"
	"github.com/angelmondragon/pawhaven-backend/pkg/storage/gcs"
)

const (
	serviceKind       = "api"
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 10 * time.Second
)

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
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
	})

	err = run(ctx, cfg, logg)
	stop()
	if err != nil {
		logg.Error(ctx, "api stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api shut down")
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

	var (
		photoStore donations.ObjectStore
		gcsPinger  controllers.Pinger
	)
	if cfg.FeatureFlags.CopyPhotos && cfg.GCS.BucketName != "" {
		gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		if err != nil {
			return fmt.Errorf("bootstrap gcs: %w", err)
		}
		photoStore, gcsPinger = gcsClient, gcsClient
	} else {
		logg.Warn(ctx, "photo copies disabled, donated pets keep the donor photo urls")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svcs, err := buildServices(cfg, logg, dbClient, redisClient, photoStore, metrics.NewLifecycleMetrics(reg))
	if err != nil {
		return err
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:  cfg,
			DB:      dbClient,
			Redis:   redisClient,
			GCS:     gcsPinger,
			Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		}, svcs, logg),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return serve(logg.WithField(ctx, "addr", addr), logg, server)
}

// serve blocks until the server fails or ctx is cancelled, then drains
// in-flight requests.
func serve(ctx context.Context, logg *logger.Logger, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "api server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	photoStore donations.ObjectStore,
	lifecycle *metrics.LifecycleMetrics,
) (routes.Services, error) {
	var svcs routes.Services
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	viewRecorder, err := views.NewRecorder(dbClient.DB(), redisClient, lifecycle, cfg.Lifecycle.ViewDedupeTTL)
	if err != nil {
		return svcs, fmt.Errorf("view recorder: %w", err)
	}
	svcs.Views = viewRecorder

	petsRepo := pets.NewRepository(dbClient.DB())
	transitions, err := pets.NewTransitioner(petsRepo, outboxService, lifecycle)
	if err != nil {
		return svcs, fmt.Errorf("pet transitioner: %w", err)
	}
	if svcs.Pets, err = pets.NewService(petsRepo, dbClient, outboxService, transitions, viewRecorder, logg); err != nil {
		return svcs, fmt.Errorf("pets service: %w", err)
	}

	svcs.Adoptions, err = adoptions.NewService(
		adoptions.NewRepository(dbClient.DB()),
		petsRepo,
		dbClient,
		outboxService,
		transitions,
		lifecycle,
		logg,
	)
	if err != nil {
		return svcs, fmt.Errorf("adoptions service: %w", err)
	}

	svcs.Donations, err = donations.NewService(
		donations.NewRepository(dbClient.DB()),
		petsRepo,
		dbClient,
		outboxService,
		donations.Options{
			MaxPhotos: cfg.Lifecycle.MaxDonationPhotos,
			PetPrefix: cfg.GCS.PetPrefix,
			Store:     photoStore,
			Metrics:   lifecycle,
			Logger:    logg,
		},
	)
	if err != nil {
		return svcs, fmt.Errorf("donations service: %w", err)
	}

	svcs.LostReports, err = lostreports.NewService(
		lostreports.NewRepository(dbClient.DB()),
		petsRepo,
		dbClient,
		outboxService,
		viewRecorder,
		logg,
	)
	if err != nil {
		return svcs, fmt.Errorf("lost reports service: %w", err)
	}

	hasher, err := security.NewCodeHasher(cfg.CodeSecret())
	if err != nil {
		return svcs, err
	}
	svcs.Verification, err = verification.NewService(verification.ServiceParams{
		Store:      redisClient,
		Hasher:     hasher,
		Tx:         dbClient,
		Outbox:     outboxService,
		TTL:        cfg.Lifecycle.VerificationCodeTTL,
		RateLimit:  cfg.RateLimit.VerificationLimit,
		RateWindow: cfg.RateLimit.VerificationWindow,
		Logger:     logg,
	})
	if err != nil {
		return svcs, fmt.Errorf("verification service: %w", err)
	}
	return svcs, nil
}

func closeWith(ctx context.Context, logg *logger.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(ctx, "error closing "+name, err)
	}
}
