package orders

import (
	"time"

	"github.com/artcafe/storefront/internal/cart"
	"github.com/artcafe/storefront/pkg/enums"
	"github.com/artcafe/storefront/pkg/money"
)

// Order is written once per successful checkout and never mutated by this service.
type Order struct {
	ID             string            `json:"id" bson:"_id,omitempty"`
	UserID         string            `json:"user_id" bson:"user_id"`
	UserEmail      string            `json:"user_email" bson:"user_email"`
	Items          []cart.LineItem   `json:"items" bson:"items"`
	TotalAmount    money.Paise       `json:"total_amount" bson:"total_amount"`
	Status         enums.OrderStatus `json:"status" bson:"status"`
	CreatedAt      time.Time         `json:"created_at" bson:"created_at"`
	IdempotencyKey string            `json:"idempotency_key,omitempty" bson:"idempotency_key,omitempty"`
}

// IdempotencyToken lets the document store enforce one order per key.
func (o Order) IdempotencyToken() string {
	return o.IdempotencyKey
}

// NewPending builds a pending order from a cart snapshot.
func NewPending(userID, email string, snap cart.Snapshot, key string, now time.Time) *Order {
	items := make([]cart.LineItem, len(snap.Items))
	copy(items, snap.Items)
	return &Order{
		UserID:         userID,
		UserEmail:      email,
		Items:          items,
		TotalAmount:    snap.Total,
		Status:         enums.OrderStatusPending,
		CreatedAt:      now.UTC(),
		IdempotencyKey: key,
	}
}
