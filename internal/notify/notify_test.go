package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/artcafe/storefront/internal/cart"
	"github.com/artcafe/storefront/internal/orders"
	"github.com/artcafe/storefront/pkg/enums"
	"github.com/artcafe/storefront/pkg/logger"
	"github.com/artcafe/storefront/pkg/mailrelay"
	"github.com/artcafe/storefront/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrder() orders.Order {
	return orders.Order{
		ID:        "ord-1",
		UserID:    "u1",
		UserEmail: "u1@example.com",
		Items: []cart.LineItem{
			{CartItemID: "c1", SourceID: "a1", ItemType: enums.ItemTypeArt, Title: "Monsoon", UnitPrice: 125000, Quantity: 1},
			{CartItemID: "c2", SourceID: "m1", ItemType: enums.ItemTypeMenu, Title: "Chai", UnitPrice: 9000, Quantity: 2},
		},
		TotalAmount: money.Paise(143000),
		Status:      enums.OrderStatusPending,
		CreatedAt:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailrelay.Confirmation
	err  error
}

func (f *fakeMailer) SendOrderConfirmation(_ context.Context, msg mailrelay.Confirmation) (*mailrelay.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	if f.err != nil {
		return nil, f.err
	}
	return &mailrelay.Receipt{Message: "ok"}, nil
}

type fakeSink struct {
	mu     sync.Mutex
	orders []string
	err    error
}

func (f *fakeSink) OrderCreated(_ context.Context, order orders.Order) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, order.ID)
	return "srv-1", f.err
}

type stubResult struct {
	id  string
	err error
}

func (s stubResult) Get(context.Context) (string, error) { return s.id, s.err }

type capturePublisher struct {
	msgs []*gcppubsub.Message
	err  error
}

func (c *capturePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	c.msgs = append(c.msgs, msg)
	return stubResult{id: "srv-9", err: c.err}
}

func TestNotifierDeliversMailAndEvent(t *testing.T) {
	mail := &fakeMailer{}
	sink := &fakeSink{}
	n := &Notifier{mail: mail, events: sink, logg: logger.Nop()}

	ctx, cancel := context.WithCancel(context.Background())
	n.OrderPlaced(ctx, sampleOrder())
	cancel()
	require.NoError(t, n.Wait(context.Background()))

	require.Len(t, mail.sent, 1)
	got := mail.sent[0]
	assert.Equal(t, "u1@example.com", got.RecipientEmail)
	assert.Equal(t, "ord-1", got.OrderID)
	assert.Equal(t, "₹1,430.00", got.Total)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "₹180.00", got.Items[1].Subtotal)
	assert.Equal(t, []string{"ord-1"}, sink.orders)
}

func TestNotifierSwallowsFailures(t *testing.T) {
	mail := &fakeMailer{err: errors.New("relay down")}
	sink := &fakeSink{err: errors.New("pubsub down")}
	n := &Notifier{mail: mail, events: sink, logg: logger.Nop()}

	err := n.deliver(context.Background(), sampleOrder())
	require.Error(t, err)
	assert.ErrorContains(t, err, "relay down")
	assert.ErrorContains(t, err, "pubsub down")

	n.OrderPlaced(context.Background(), sampleOrder())
	require.NoError(t, n.Wait(context.Background()))
	assert.Len(t, sink.orders, 2, "event still attempted after mail failure")
}

func TestNotifierDisabledIsNoop(t *testing.T) {
	n := NewNotifier(nil, NewEventPublisher(nil), nil)
	n.OrderPlaced(context.Background(), sampleOrder())
	require.NoError(t, n.Wait(context.Background()))

	var nilNotifier *Notifier
	nilNotifier.OrderPlaced(context.Background(), sampleOrder())
	require.NoError(t, nilNotifier.Wait(context.Background()))
}

func TestEventPublisherEnvelope(t *testing.T) {
	pub := &capturePublisher{}
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.FixedZone("IST", 19800))
	events := &EventPublisher{pub: pub, now: func() time.Time { return fixed }}

	id, err := events.OrderCreated(context.Background(), sampleOrder())
	require.NoError(t, err)
	assert.Equal(t, "srv-9", id)
	require.Len(t, pub.msgs, 1)

	msg := pub.msgs[0]
	assert.Equal(t, EventOrderCreated, msg.Attributes["event_type"])
	assert.Equal(t, "ord-1", msg.Attributes["order_id"])

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Data, &env))
	assert.Equal(t, 1, env.Version)
	assert.Equal(t, EventOrderCreated, env.EventType)
	assert.NotEmpty(t, env.EventID)
	assert.True(t, env.OccurredAt.Equal(fixed))
	assert.Equal(t, time.UTC, env.OccurredAt.Location())

	var order orders.Order
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, money.Paise(143000), order.TotalAmount)
}

func TestEventPublisherPropagatesPublishError(t *testing.T) {
	events := &EventPublisher{pub: &capturePublisher{err: errors.New("deadline")}, now: time.Now}
	_, err := events.OrderCreated(context.Background(), sampleOrder())
	assert.ErrorContains(t, err, "publish order.created")
}

func TestDisabledEventPublisher(t *testing.T) {
	events := NewEventPublisher(nil)
	assert.False(t, events.Enabled())
	id, err := events.OrderCreated(context.Background(), sampleOrder())
	require.NoError(t, err)
	assert.Empty(t, id)
}
