package controllers

import (
	"context"
	"net/http"

	"github.com/artcafe/storefront/api/middleware"
	"github.com/artcafe/storefront/api/responses"
	"github.com/artcafe/storefront/internal/cart"
	"github.com/artcafe/storefront/internal/checkout"
	"github.com/artcafe/storefront/pkg/enums"
	"github.com/artcafe/storefront/pkg/logger"
	"github.com/artcafe/storefront/pkg/money"
)

// CheckoutRunner is satisfied by *checkout.Orchestrator.
type CheckoutRunner interface {
	Checkout(ctx context.Context, store *cart.Store, req checkout.Request) (checkout.Result, error)
}

type checkoutResponse struct {
	State        enums.CheckoutState `json:"state"`
	SignInURL    string              `json:"sign_in_url,omitempty"`
	OrderID      string              `json:"order_id,omitempty"`
	Total        money.Paise         `json:"total,omitempty"`
	TotalDisplay string              `json:"total_display,omitempty"`
	Replayed     bool                `json:"replayed,omitempty"`
}

func Checkout(registry *cart.Registry, runner CheckoutRunner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := sessionCart(r, registry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := runner.Checkout(r.Context(), store, checkout.Request{
			SessionKey:     middleware.SessionKeyFromContext(r.Context()),
			IdempotencyKey: middleware.IdempotencyKeyFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := checkoutResponse{State: result.State}
		switch result.State {
		case enums.CheckoutStateAwaitingAuth:
			resp.SignInURL = result.SignInURL
			// Not an error: the body tells the client where to sign in.
			responses.WriteSuccessStatus(w, http.StatusUnauthorized, resp)
		default:
			resp.OrderID = result.OrderID
			resp.Total = result.Total
			resp.TotalDisplay = result.Total.String()
			resp.Replayed = result.Replayed
			responses.WriteSuccessStatus(w, http.StatusCreated, resp)
		}
	}
}
