// Package driver opens the document store backend selected by configuration.
package driver

import (
	"context"
	"fmt"

	"github.com/artcafe/storefront/pkg/config"
	"github.com/artcafe/storefront/pkg/db"
	"github.com/artcafe/storefront/pkg/docstore"
	"github.com/artcafe/storefront/pkg/docstore/mongostore"
	"github.com/artcafe/storefront/pkg/docstore/sqlstore"
	"github.com/artcafe/storefront/pkg/logger"
	"github.com/artcafe/storefront/pkg/migrate"
)

// Open connects the configured backend. SQL drivers run the embedded
// migrations first when enabled.
func Open(ctx context.Context, cfg config.DocStoreConfig, logg *logger.Logger) (docstore.Store, error) {
	switch cfg.NormalizedDriver() {
	case config.DriverMongo:
		return mongostore.Connect(ctx, cfg, logg)
	case config.DriverPostgres, config.DriverSQLite:
		client, err := db.New(ctx, cfg, logg)
		if err != nil {
			return nil, err
		}
		if err := migrate.MaybeRun(ctx, cfg, logg, client); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		return sqlstore.New(client)
	default:
		return nil, fmt.Errorf("unsupported docstore driver %q", cfg.Driver)
	}
}
