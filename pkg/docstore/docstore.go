// Package docstore defines the document store the storefront persists
// catalog entries and orders into.
package docstore

import (
	"context"
	"errors"
	"fmt"
)

const (
	CollectionOrders    = "orders"
	CollectionMenuItems = "menu_items"
	CollectionArtPieces = "art_pieces"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate document")
)

// Store is implemented by every backing driver.
type Store interface {
	// Create inserts doc and returns its assigned id. When doc carries an
	// idempotency key that already exists in the collection the returned
	// error matches ErrDuplicate and DuplicateID yields the stored id.
	Create(ctx context.Context, collection string, doc any) (string, error)
	Get(ctx context.Context, collection, id string, dest any) error
	// List decodes every document of the collection into dest, a pointer to a slice.
	List(ctx context.Context, collection string, dest any) error
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Keyed documents expose an idempotency key the store enforces uniqueness on.
type Keyed interface {
	IdempotencyToken() string
}

// IdempotencyKeyOf returns the key carried by doc, if any.
func IdempotencyKeyOf(doc any) string {
	if k, ok := doc.(Keyed); ok {
		return k.IdempotencyToken()
	}
	return ""
}

// DuplicateError reports an idempotency key collision.
type DuplicateError struct {
	Collection string
	Key        string
	ExistingID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s: idempotency key %q already stored as %s", e.Collection, e.Key, e.ExistingID)
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// DuplicateID returns the id of the document that already holds the key.
func DuplicateID(err error) (string, bool) {
	var dup *DuplicateError
	if errors.As(err, &dup) && dup.ExistingID != "" {
		return dup.ExistingID, true
	}
	return "", false
}
