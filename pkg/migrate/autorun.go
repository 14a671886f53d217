package migrate

import (
	"context"
	"fmt"

	"github.com/artcafe/storefront/pkg/config"
	"github.com/artcafe/storefront/pkg/db"
	"github.com/artcafe/storefront/pkg/logger"
)

// MaybeRun applies the embedded migrations at boot when auto-migrate is
// enabled, or always for sqlite which only backs dev and tests.
func MaybeRun(ctx context.Context, cfg config.DocStoreConfig, logg *logger.Logger, client *db.Client) error {
	driver := cfg.NormalizedDriver()
	if !cfg.AutoMigrate && driver != config.DriverSQLite {
		return nil
	}

	dialect, err := Dialect(driver)
	if err != nil {
		return err
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"driver": driver, "dir": EmbeddedDir})
	logg.Info(ctx, "running goose migrations (auto-run)")

	if err := Run(ctx, sqlDB, dialect, EmbeddedDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}
