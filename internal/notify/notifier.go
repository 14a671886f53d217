package notify

import (
	"context"
	"sync"
	"time"

	"github.com/artcafe/storefront/internal/orders"
	"github.com/artcafe/storefront/pkg/logger"
	"github.com/artcafe/storefront/pkg/mailrelay"
	"go.uber.org/multierr"
)

const sideEffectTimeout = 15 * time.Second

type mailer interface {
	SendOrderConfirmation(ctx context.Context, msg mailrelay.Confirmation) (*mailrelay.Receipt, error)
}

type eventSink interface {
	OrderCreated(ctx context.Context, order orders.Order) (string, error)
}

// Notifier fires post-checkout side effects in the background. Failures are
// logged and never surface to the shopper.
type Notifier struct {
	mail   mailer
	events eventSink
	logg   *logger.Logger
	wg     sync.WaitGroup
}

// NewNotifier accepts nil mailer/events to disable either channel.
func NewNotifier(mail *mailrelay.Client, events *EventPublisher, logg *logger.Logger) *Notifier {
	n := &Notifier{logg: logg}
	if mail != nil {
		n.mail = mail
	}
	if events.Enabled() {
		n.events = events
	}
	if n.logg == nil {
		n.logg = logger.Nop()
	}
	return n
}

// OrderPlaced schedules the confirmation mail and order event. It returns
// immediately; the work outlives the request context.
func (n *Notifier) OrderPlaced(ctx context.Context, order orders.Order) {
	if n == nil || (n.mail == nil && n.events == nil) {
		return
	}
	bg := context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		runCtx, cancel := context.WithTimeout(bg, sideEffectTimeout)
		defer cancel()
		if err := n.deliver(runCtx, order); err != nil {
			n.logg.Error(n.logg.WithField(runCtx, "order_id", order.ID), "order side effects failed", err)
		}
	}()
}

func (n *Notifier) deliver(ctx context.Context, order orders.Order) error {
	var errs error
	if n.mail != nil {
		if _, err := n.mail.SendOrderConfirmation(ctx, confirmationFor(order)); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if n.events != nil {
		if _, err := n.events.OrderCreated(ctx, order); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// Wait blocks until in-flight side effects finish or ctx expires.
func (n *Notifier) Wait(ctx context.Context) error {
	if n == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func confirmationFor(order orders.Order) mailrelay.Confirmation {
	rows := make([]mailrelay.ConfirmationRow, 0, len(order.Items))
	for _, item := range order.Items {
		rows = append(rows, mailrelay.ConfirmationRow{
			Title:    item.Title,
			Quantity: item.Quantity,
			Subtotal: item.Subtotal().String(),
		})
	}
	return mailrelay.Confirmation{
		RecipientEmail: order.UserEmail,
		OrderID:        order.ID,
		Total:          order.TotalAmount.String(),
		Items:          rows,
	}
}
