package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/pawhaven-backend/pkg/config"
	"github.com/angelmondragon/pawhaven-backend/pkg/db"
	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
)

// MaybeRunDev applies the embedded migrations on startup, but only in the dev
// environment with PAWHAVEN_AUTO_MIGRATE set. Other environments run cmd/migrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg == nil || !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("migrate: unwrap sql.DB: %w", err)
	}
	runner, err := NewRunner(sqlDB, EmbeddedDir)
	if err != nil {
		return err
	}

	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	steps, err := runner.Up(ctx)
	for _, step := range steps {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"version":  step.Version,
			"took_ms":  step.Took.Milliseconds(),
			"filename": step.Path,
		}), "migration applied")
	}
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "applied", len(steps)), "embedded migrations up to date")
	return nil
}
