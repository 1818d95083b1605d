package migrate

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// MaybeRun applies pending migrations at boot. It does nothing for the JSON
// store, and for SQL stores outside dev unless auto-migrate is switched on.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if client == nil || !cfg.Storage.UsesSQL() || !(cfg.Storage.AutoMigrate || cfg.App.IsDev()) {
		return nil
	}
	ctx = logg.WithField(ctx, "driver", cfg.Storage.Driver)
	if err := Run(ctx, client.SQL(), cfg.Storage.Driver, "up"); err != nil {
		return err
	}
	logg.Info(ctx, "migrate.applied")
	return nil
}
