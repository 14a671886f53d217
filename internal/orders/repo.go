package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/artcafe/storefront/pkg/docstore"
)

// Repository persists orders in the document store.
type Repository interface {
	// Create stores the order and sets its ID. When the idempotency key was
	// already used it returns the earlier order's id together with an error
	// matching docstore.ErrDuplicate.
	Create(ctx context.Context, order *Order) (string, error)
	Get(ctx context.Context, id string) (*Order, error)
}

type repository struct {
	store docstore.Store
}

func NewRepository(store docstore.Store) (Repository, error) {
	if store == nil {
		return nil, fmt.Errorf("document store required")
	}
	return &repository{store: store}, nil
}

func (r *repository) Create(ctx context.Context, order *Order) (string, error) {
	if order == nil {
		return "", fmt.Errorf("order required")
	}
	id, err := r.store.Create(ctx, docstore.CollectionOrders, order)
	if err != nil {
		if existing, ok := docstore.DuplicateID(err); ok {
			order.ID = existing
			return existing, err
		}
		return "", err
	}
	order.ID = id
	return id, nil
}

func (r *repository) Get(ctx context.Context, id string) (*Order, error) {
	var order Order
	if err := r.store.Get(ctx, docstore.CollectionOrders, id, &order); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if !order.Status.IsValid() {
		return nil, fmt.Errorf("get order %s: unknown status %q", id, order.Status)
	}
	return &order, nil
}
