package migrate

import (
	"context"
	"fmt"

	"github.com/aquamesh/aquaview-backend/pkg/config"
	"github.com/aquamesh/aquaview-backend/pkg/db"
	"github.com/aquamesh/aquaview-backend/pkg/logger"
)

// MaybeRunDev applies the embedded migrations on start in dev when
// AQUAVIEW_AUTO_MIGRATE is set. The SQL targets Postgres, so a sqlite
// database is left to the caller.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if cfg.FeatureFlags.UseSQLite {
		logg.Warn(ctx, "migrate.autorun_skipped_sqlite")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	versions, err := Embedded()
	if err != nil {
		return fmt.Errorf("listing embedded migrations: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "migrations": len(versions)})
	logg.Info(ctx, "migrate.autorun_started")
	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	logg.Info(ctx, "migrate.autorun_completed")
	return nil
}
