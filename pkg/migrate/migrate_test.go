package migrate

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/artcafe/storefront/pkg/config"
	"github.com/artcafe/storefront/pkg/db"
	"github.com/artcafe/storefront/pkg/logger"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) *db.Client {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	client := db.NewFromGorm(conn, config.DriverSQLite)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestEmbeddedMigrationsValidate(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))

	files, err := EmbeddedFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		require.True(t, strings.HasPrefix(f, EmbeddedDir+"/"), f)
	}
}

func TestMaybeRunAppliesDocumentsSchemaOnSQLite(t *testing.T) {
	client := openSQLite(t)
	ctx := context.Background()

	cfg := config.DocStoreConfig{Driver: config.DriverSQLite}
	require.NoError(t, MaybeRun(ctx, cfg, logger.Nop(), client))

	require.True(t, client.DB().Migrator().HasTable("documents"))

	insert := `INSERT INTO documents (id, collection, idempotency_key, payload, created_at, updated_at)
		VALUES (?, 'orders', ?, '{}', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	require.NoError(t, client.DB().Exec(insert, "a", "key-1").Error)
	require.Error(t, client.DB().Exec(insert, "b", "key-1").Error, "idempotency key must be unique per collection")
	require.NoError(t, client.DB().Exec(insert, "c", nil).Error)
	require.NoError(t, client.DB().Exec(insert, "d", nil).Error, "documents without a key are not constrained")

	// second run is a no-op
	require.NoError(t, MaybeRun(ctx, cfg, logger.Nop(), client))
}

func TestMaybeRunSkipsPostgresWithoutFlag(t *testing.T) {
	cfg := config.DocStoreConfig{Driver: config.DriverPostgres}
	require.NoError(t, MaybeRun(context.Background(), cfg, logger.Nop(), nil))
}

func TestDialect(t *testing.T) {
	d, err := Dialect(config.DriverPostgres)
	require.NoError(t, err)
	require.Equal(t, "postgres", d)

	d, err = Dialect(config.DriverSQLite)
	require.NoError(t, err)
	require.Equal(t, "sqlite3", d)

	_, err = Dialect(config.DriverMongo)
	require.Error(t, err)
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Order Notes!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(filepath.Base(path), "_add_order_notes.sql"), path)
	require.NoError(t, ValidateDir(dir))
}
