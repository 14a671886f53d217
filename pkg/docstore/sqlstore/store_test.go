package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/artcafe/storefront/pkg/config"
	"github.com/artcafe/storefront/pkg/db"
	"github.com/artcafe/storefront/pkg/docstore"
	"github.com/artcafe/storefront/pkg/logger"
	"github.com/artcafe/storefront/pkg/migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type orderDoc struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	TotalAmount    int64  `json:"total_amount"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

func (o orderDoc) IdempotencyToken() string { return o.IdempotencyKey }

type menuDoc struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

func newStore(t *testing.T) *Store {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	client := db.NewFromGorm(conn, config.DriverSQLite)
	require.NoError(t, migrate.MaybeRun(context.Background(), config.DocStoreConfig{Driver: config.DriverSQLite}, logger.Nop(), client))

	store, err := New(client)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func TestCreateAndGet(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, docstore.CollectionOrders, orderDoc{UserID: "u1", TotalAmount: 125000, IdempotencyKey: "k1"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	var got orderDoc
	require.NoError(t, store.Get(ctx, docstore.CollectionOrders, id, &got))
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, int64(125000), got.TotalAmount)

	err = store.Get(ctx, docstore.CollectionMenuItems, id, &got)
	assert.ErrorIs(t, err, docstore.ErrNotFound, "ids are scoped by collection")
}

func TestCreateDuplicateIdempotencyKey(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, docstore.CollectionOrders, orderDoc{UserID: "u1", IdempotencyKey: "same"})
	require.NoError(t, err)

	_, err = store.Create(ctx, docstore.CollectionOrders, orderDoc{UserID: "u1", IdempotencyKey: "same"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, docstore.ErrDuplicate))
	existing, ok := docstore.DuplicateID(err)
	require.True(t, ok)
	assert.Equal(t, first, existing)

	var all []orderDoc
	require.NoError(t, store.List(ctx, docstore.CollectionOrders, &all))
	assert.Len(t, all, 1)
}

func TestListPreservesInsertionOrder(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	var empty []menuDoc
	require.NoError(t, store.List(ctx, docstore.CollectionMenuItems, &empty))
	assert.Empty(t, empty)

	for _, name := range []string{"Masala Chai", "Cold Brew", "Croissant"} {
		_, err := store.Create(ctx, docstore.CollectionMenuItems, menuDoc{Name: name, Price: "₹120"})
		require.NoError(t, err)
	}

	var items []menuDoc
	require.NoError(t, store.List(ctx, docstore.CollectionMenuItems, &items))
	require.Len(t, items, 3)
	assert.Equal(t, "Masala Chai", items[0].Name)
	assert.Equal(t, "Croissant", items[2].Name)
	for _, item := range items {
		assert.NotEmpty(t, item.ID)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, docstore.CollectionMenuItems, menuDoc{Name: "Latte", Price: "₹150"})
	require.NoError(t, err)

	require.NoError(t, store.Update(ctx, docstore.CollectionMenuItems, id, map[string]any{"price": "₹180", "id": "hijack"}))

	var got menuDoc
	require.NoError(t, store.Get(ctx, docstore.CollectionMenuItems, id, &got))
	assert.Equal(t, "₹180", got.Price)
	assert.Equal(t, "Latte", got.Name)
	assert.Equal(t, id, got.ID)

	assert.ErrorIs(t, store.Update(ctx, docstore.CollectionMenuItems, "missing", map[string]any{"price": "1"}), docstore.ErrNotFound)

	require.NoError(t, store.Delete(ctx, docstore.CollectionMenuItems, id))
	assert.ErrorIs(t, store.Delete(ctx, docstore.CollectionMenuItems, id), docstore.ErrNotFound)
	assert.ErrorIs(t, store.Get(ctx, docstore.CollectionMenuItems, id, &got), docstore.ErrNotFound)
}

func TestCreateRejectsNonObjectDocuments(t *testing.T) {
	store := newStore(t)
	_, err := store.Create(context.Background(), docstore.CollectionOrders, []string{"not", "an", "object"})
	require.Error(t, err)
}

func TestPing(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Ping(context.Background()))
}
