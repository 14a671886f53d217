package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/artcafe/storefront/internal/cart"
	"github.com/artcafe/storefront/internal/orders"
	"github.com/artcafe/storefront/pkg/auth"
	"github.com/artcafe/storefront/pkg/config"
	"github.com/artcafe/storefront/pkg/docstore"
	"github.com/artcafe/storefront/pkg/enums"
	pkgerrors "github.com/artcafe/storefront/pkg/errors"
	"github.com/artcafe/storefront/pkg/logger"
	"github.com/artcafe/storefront/pkg/money"
	"github.com/google/uuid"
)

const (
	msgPlaceOrderFailed = "we could not place your order, please try again"
	msgEmptyCart        = "cart contains no items"
	msgInFlight         = "checkout already in progress"
	msgKeyReused        = "idempotency key already used for a different order"
)

// keyNamespace scopes derived idempotency keys.
var keyNamespace = uuid.MustParse("5b0e8f6a-3c1d-4f0e-9a57-2f6c1d9b7e41")

type orderWriter interface {
	Create(ctx context.Context, order *orders.Order) (string, error)
	Get(ctx context.Context, id string) (*orders.Order, error)
}

type sideEffects interface {
	OrderPlaced(ctx context.Context, order orders.Order)
}

type recorder interface {
	Transition(state string)
	ObserveDuration(outcome string, d time.Duration)
}

// Request carries the per-call inputs of a checkout attempt.
type Request struct {
	SessionKey string
	// IdempotencyKey is optional and scoped to the signed-in user. When empty
	// a key is derived from the cart instance and revision so a retry of an
	// unchanged cart reuses it.
	IdempotencyKey string
}

// Result describes where the attempt ended.
type Result struct {
	State     enums.CheckoutState
	SignInURL string
	OrderID   string
	Total     money.Paise
	// Replayed is set when the order already existed under the same key.
	Replayed bool
}

type Params struct {
	Auth     auth.Provider
	Orders   orderWriter
	Notifier sideEffects
	Metrics  recorder
	Logger   *logger.Logger
	Config   config.CheckoutConfig
	Now      func() time.Time
}

// Orchestrator runs the checkout state machine against a cart.
type Orchestrator struct {
	auth      auth.Provider
	orders    orderWriter
	effects   sideEffects
	metrics   recorder
	logg      *logger.Logger
	delay     time.Duration
	signInURL string
	now       func() time.Time
	wait      func(context.Context, time.Duration) error
}

func NewOrchestrator(p Params) (*Orchestrator, error) {
	if p.Auth == nil {
		return nil, fmt.Errorf("auth provider required")
	}
	if p.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if p.Config.SettlementDelay < 0 {
		return nil, fmt.Errorf("settlement delay must not be negative")
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	signIn := strings.TrimSpace(p.Config.SignInURL)
	if signIn == "" {
		signIn = "/sign-in"
	}
	return &Orchestrator{
		auth:      p.Auth,
		orders:    p.Orders,
		effects:   p.Notifier,
		metrics:   p.Metrics,
		logg:      p.Logger,
		delay:     p.Config.SettlementDelay,
		signInURL: signIn,
		now:       now,
		wait:      sleepContext,
	}, nil
}

// Checkout drives one attempt from idle to a terminal state. Anonymous
// callers get awaiting_auth with a nil error. The cart is cleared only when
// the attempt reaches complete.
func (o *Orchestrator) Checkout(ctx context.Context, store *cart.Store, req Request) (Result, error) {
	if store == nil {
		return Result{State: enums.CheckoutStateIdle}, pkgerrors.New(pkgerrors.CodeInternal, "cart store missing")
	}
	if req.SessionKey != "" {
		ctx = o.logg.WithSessionID(ctx, req.SessionKey)
	}
	run := &attempt{o: o, state: enums.CheckoutStateIdle, started: o.now()}
	ctx = run.to(ctx, enums.CheckoutStateAuthCheck)

	identity, ok := o.auth.CurrentIdentity(ctx)
	if !ok {
		run.to(ctx, enums.CheckoutStateAwaitingAuth)
		run.finish()
		return Result{State: enums.CheckoutStateAwaitingAuth, SignInURL: o.signInURL}, nil
	}
	ctx = o.logg.WithUserID(ctx, identity.UserID)

	release, ok := store.BeginCheckout()
	if !ok {
		ctx = run.to(ctx, enums.CheckoutStateFailed)
		o.logg.Warn(ctx, "checkout rejected: attempt already in flight")
		run.finish()
		return Result{State: enums.CheckoutStateFailed}, pkgerrors.New(pkgerrors.CodeConflict, msgInFlight)
	}
	defer release()

	snap := store.Snapshot()
	if snap.Empty() {
		run.to(ctx, enums.CheckoutStateFailed)
		run.finish()
		return Result{State: enums.CheckoutStateFailed}, pkgerrors.New(pkgerrors.CodeValidation, msgEmptyCart)
	}

	ctx = run.to(ctx, enums.CheckoutStateSubmitting)
	key := ScopeIdempotencyKey(identity.UserID, req.IdempotencyKey)
	if key == "" {
		key = DeriveIdempotencyKey(identity.UserID, store.ID(), snap.Revision)
	}
	order := orders.NewPending(identity.UserID, identity.Email, snap, key, o.now())

	replayed := false
	orderID, err := o.orders.Create(ctx, order)
	if err != nil {
		if !errors.Is(err, docstore.ErrDuplicate) || orderID == "" {
			ctx = run.to(ctx, enums.CheckoutStateFailed)
			o.logg.Error(ctx, "order write failed", err)
			run.finish()
			return Result{State: enums.CheckoutStateFailed, Total: snap.Total},
				pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgPlaceOrderFailed)
		}
		ctx = o.logg.WithField(ctx, "order_id", orderID)
		existing, getErr := o.orders.Get(ctx, orderID)
		if getErr != nil {
			ctx = run.to(ctx, enums.CheckoutStateFailed)
			o.logg.Error(ctx, "load order for idempotency key failed", getErr)
			run.finish()
			return Result{State: enums.CheckoutStateFailed, Total: snap.Total},
				pkgerrors.Wrap(pkgerrors.CodeDependency, getErr, msgPlaceOrderFailed)
		}
		if !sameOrder(existing, identity.UserID, snap) {
			ctx = run.to(ctx, enums.CheckoutStateFailed)
			o.logg.Warn(ctx, "idempotency key reused for a different cart")
			run.finish()
			return Result{State: enums.CheckoutStateFailed, Total: snap.Total},
				pkgerrors.New(pkgerrors.CodeIdempotency, msgKeyReused)
		}
		replayed = true
		order = existing
		o.logg.Info(ctx, "order already recorded for idempotency key")
	} else {
		ctx = o.logg.WithField(ctx, "order_id", orderID)
	}

	ctx = run.to(ctx, enums.CheckoutStateSettlementSimulation)
	if err := o.wait(ctx, o.delay); err != nil {
		// The order stays written; the cart keeps its items so the shopper
		// can see what was submitted.
		ctx = run.to(context.WithoutCancel(ctx), enums.CheckoutStateFailed)
		o.logg.Warn(ctx, "checkout interrupted during settlement")
		run.finish()
		return Result{State: enums.CheckoutStateFailed, OrderID: orderID, Total: snap.Total, Replayed: replayed}, err
	}

	ctx = run.to(ctx, enums.CheckoutStateComplete)
	store.Clear()
	if o.effects != nil {
		o.effects.OrderPlaced(ctx, *order)
	}
	o.logg.Info(ctx, "checkout complete")
	run.finish()

	return Result{
		State:    enums.CheckoutStateComplete,
		OrderID:  orderID,
		Total:    snap.Total,
		Replayed: replayed,
	}, nil
}

// DeriveIdempotencyKey returns a stable key for (user, cart instance, revision).
func DeriveIdempotencyKey(userID, cartID string, revision uint64) string {
	name := userID + ":" + cartID + ":" + strconv.FormatUint(revision, 10)
	return uuid.NewSHA1(keyNamespace, []byte(name)).String()
}

// ScopeIdempotencyKey binds a client supplied key to the user so two shoppers
// sending the same value never share an order. Blank keys stay blank.
func ScopeIdempotencyKey(userID, clientKey string) string {
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" {
		return ""
	}
	return uuid.NewSHA1(keyNamespace, []byte("client:"+userID+":"+clientKey)).String()
}

// sameOrder reports whether existing was placed by userID for the same lines
// and total as snap. Cart item ids are ignored since a rebuilt cart issues
// new ones.
func sameOrder(existing *orders.Order, userID string, snap cart.Snapshot) bool {
	if existing == nil || existing.UserID != userID || existing.TotalAmount != snap.Total {
		return false
	}
	if len(existing.Items) != len(snap.Items) {
		return false
	}
	for i, item := range existing.Items {
		want := snap.Items[i]
		if item.SourceID != want.SourceID || item.ItemType != want.ItemType ||
			item.Quantity != want.Quantity || item.UnitPrice != want.UnitPrice {
			return false
		}
	}
	return true
}

type attempt struct {
	o       *Orchestrator
	state   enums.CheckoutState
	started time.Time
}

func (a *attempt) to(ctx context.Context, next enums.CheckoutState) context.Context {
	if !a.state.CanTransitionTo(next) {
		a.o.logg.Warn(a.o.logg.WithFields(ctx, map[string]any{
			"from": a.state.String(),
			"to":   next.String(),
		}), "illegal checkout transition")
	}
	a.state = next
	if a.o.metrics != nil {
		a.o.metrics.Transition(next.String())
	}
	ctx = a.o.logg.WithCheckoutState(ctx, next.String())
	a.o.logg.Debug(ctx, "checkout transition")
	return ctx
}

func (a *attempt) finish() {
	if !a.state.Terminal() {
		a.o.logg.Warn(a.o.logg.WithCheckoutState(context.Background(), a.state.String()), "checkout attempt finished before a terminal state")
	}
	if a.o.metrics != nil {
		a.o.metrics.ObserveDuration(a.state.String(), a.o.now().Sub(a.started))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
