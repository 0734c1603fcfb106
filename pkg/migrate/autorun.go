package migrate

import (
	"context"

	"github.com/sellora/sellora-backend/pkg/config"
	"github.com/sellora/sellora-backend/pkg/db"
	"github.com/sellora/sellora-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations automatically in development when the
// SELLORA_AUTO_MIGRATE flag is on. Production deploys use the migrate command.
func MaybeRunDev(ctx context.Context, cfg *config.Config, client *db.Client, logg *logger.Logger) error {
	if cfg == nil || client == nil {
		return nil
	}
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return err
	}

	if logg != nil {
		logg.Info(ctx, "running dev auto-migrations")
	}
	return Run(ctx, sqlDB, DefaultDir, "up")
}
