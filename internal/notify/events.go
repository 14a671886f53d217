package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/artcafe/storefront/internal/orders"
	"github.com/google/uuid"
)

const (
	EventOrderCreated   = "order.created"
	envelopeVersion     = 1
	attrEventType       = "event_type"
	attrOrderID         = "order_id"
	defaultPublishLimit = 10 * time.Second
)

// Envelope is the stable wire shape of published domain events.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// EventPublisher emits order events to Pub/Sub. A nil publisher is a no-op.
type EventPublisher struct {
	pub publisher
	now func() time.Time
}

// NewEventPublisher wraps a Pub/Sub publisher handle; nil disables publishing.
func NewEventPublisher(p *gcppubsub.Publisher) *EventPublisher {
	if p == nil {
		return &EventPublisher{now: time.Now}
	}
	return &EventPublisher{pub: &gcpPublisher{Publisher: p}, now: time.Now}
}

// Enabled reports whether events leave the process.
func (e *EventPublisher) Enabled() bool {
	return e != nil && e.pub != nil
}

// OrderCreated publishes an order.created envelope and waits for the server ack.
func (e *EventPublisher) OrderCreated(ctx context.Context, order orders.Order) (string, error) {
	if !e.Enabled() {
		return "", nil
	}
	msg, err := e.orderCreatedMessage(order)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultPublishLimit)
	defer cancel()

	result := e.pub.Publish(ctx, msg)
	if result == nil {
		return "", errors.New("publish returned no result")
	}
	serverID, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish %s: %w", EventOrderCreated, err)
	}
	return serverID, nil
}

func (e *EventPublisher) orderCreatedMessage(order orders.Order) (*gcppubsub.Message, error) {
	data, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}
	body, err := json.Marshal(Envelope{
		Version:    envelopeVersion,
		EventID:    uuid.NewString(),
		EventType:  EventOrderCreated,
		OccurredAt: e.now().UTC(),
		Data:       data,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return &gcppubsub.Message{
		Data: body,
		Attributes: map[string]string{
			attrEventType: EventOrderCreated,
			attrOrderID:   order.ID,
		},
	}, nil
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}
