package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/smartcart/pkg/config"
	"github.com/angelmondragon/smartcart/pkg/db"
	"github.com/angelmondragon/smartcart/pkg/logger"
)

// MaybeRunDev applies the embedded migrations on boot when running in dev
// with SMARTCART_AUTO_MIGRATE set.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate || client == nil {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	dialect := DialectFor(cfg.FeatureFlags.UseSQLite)
	ctx = logg.WithField(ctx, "dialect", dialect)
	logg.Info(ctx, "running goose migrations (dev auto-run)")

	if err := Run(ctx, sqlDB, dialect, "", "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}
