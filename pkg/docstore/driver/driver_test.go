package driver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artcafe/storefront/pkg/config"
	"github.com/artcafe/storefront/pkg/docstore"
	"github.com/artcafe/storefront/pkg/logger"
)

func TestOpenSQLiteRunsMigrations(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, config.DocStoreConfig{
		Driver: config.DriverSQLite,
		DSN:    "file:driver_open?mode=memory&cache=shared",
	}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })

	require.NoError(t, store.Ping(ctx))
	id, err := store.Create(ctx, docstore.CollectionMenuItems, map[string]any{"name": "Filter Coffee", "price": "₹80"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DocStoreConfig{Driver: "cassandra"}, logger.Nop())
	assert.Error(t, err)
}
