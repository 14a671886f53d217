package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artcafe/storefront/api/middleware"
	"github.com/artcafe/storefront/api/responses"
	"github.com/artcafe/storefront/api/validators"
	"github.com/artcafe/storefront/internal/cart"
	"github.com/artcafe/storefront/internal/catalog"
	"github.com/artcafe/storefront/pkg/enums"
	pkgerrors "github.com/artcafe/storefront/pkg/errors"
	"github.com/artcafe/storefront/pkg/logger"
	"github.com/artcafe/storefront/pkg/money"
)

type cartLineResponse struct {
	cart.LineItem
	UnitPriceDisplay string      `json:"unit_price_display"`
	Subtotal         money.Paise `json:"subtotal"`
	SubtotalDisplay  string      `json:"subtotal_display"`
}

type cartResponse struct {
	Items        []cartLineResponse `json:"items"`
	Total        money.Paise        `json:"total"`
	TotalDisplay string             `json:"total_display"`
	ItemCount    int                `json:"item_count"`
	Revision     uint64             `json:"revision"`
}

func newCartResponse(snap cart.Snapshot) cartResponse {
	items := make([]cartLineResponse, 0, len(snap.Items))
	for _, item := range snap.Items {
		items = append(items, cartLineResponse{
			LineItem:         item,
			UnitPriceDisplay: item.UnitPrice.String(),
			Subtotal:         item.Subtotal(),
			SubtotalDisplay:  item.Subtotal().String(),
		})
	}
	return cartResponse{
		Items:        items,
		Total:        snap.Total,
		TotalDisplay: snap.Total.String(),
		ItemCount:    snap.ItemCount(),
		Revision:     snap.Revision,
	}
}

type addCartItemRequest struct {
	SourceID string `json:"source_id" validate:"required,max=128"`
	ItemType string `json:"item_type" validate:"required,item_type"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

func sessionCart(r *http.Request, registry *cart.Registry) (*cart.Store, error) {
	key := middleware.SessionKeyFromContext(r.Context())
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart session missing")
	}
	return registry.Get(key), nil
}

func CartFetch(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := sessionCart(r, registry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(store.Snapshot()))
	}
}

// CartAddItem resolves the item from the catalog so prices always come from
// the server, then adds one unit.
func CartAddItem(registry *cart.Registry, items catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := enums.ParseItemType(payload.ItemType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item type"))
			return
		}
		item, err := items.Get(r.Context(), kind, payload.SourceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store, err := sessionCart(r, registry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store.AddItem(item)
		responses.WriteSuccessStatus(w, http.StatusCreated, newCartResponse(store.Snapshot()))
	}
}

// CartUpdateItem sets a line's quantity; zero or below removes the line.
// An unknown cartItemId leaves the cart as it was.
func CartUpdateItem(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store, err := sessionCart(r, registry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store.UpdateQuantity(chi.URLParam(r, "cartItemId"), *payload.Quantity)
		responses.WriteSuccess(w, newCartResponse(store.Snapshot()))
	}
}

// CartRemoveItem is a no-op for ids not in the cart.
func CartRemoveItem(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := sessionCart(r, registry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store.RemoveItem(chi.URLParam(r, "cartItemId"))
		responses.WriteSuccess(w, newCartResponse(store.Snapshot()))
	}
}

func CartClear(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := sessionCart(r, registry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store.Clear()
		responses.WriteSuccess(w, newCartResponse(store.Snapshot()))
	}
}
