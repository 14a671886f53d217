// Package docstoretest provides a migrated in-memory sqlite document store for tests.
package docstoretest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/artcafe/storefront/pkg/config"
	"github.com/artcafe/storefront/pkg/db"
	"github.com/artcafe/storefront/pkg/docstore/sqlstore"
	"github.com/artcafe/storefront/pkg/logger"
	"github.com/artcafe/storefront/pkg/migrate"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewSQLite returns a store backed by a private in-memory sqlite database.
func NewSQLite(t testing.TB) *sqlstore.Store {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	client := db.NewFromGorm(conn, config.DriverSQLite)
	if err := migrate.MaybeRun(context.Background(), config.DocStoreConfig{Driver: config.DriverSQLite}, logger.Nop(), client); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	// shared-cache sqlite reports table locks under concurrent connections
	sqlDB.SetMaxOpenConns(1)

	store, err := sqlstore.New(client)
	if err != nil {
		t.Fatalf("new sqlstore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}
