package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artcafe/storefront/api/responses"
	"github.com/artcafe/storefront/api/validators"
	"github.com/artcafe/storefront/internal/catalog"
	"github.com/artcafe/storefront/pkg/enums"
	pkgerrors "github.com/artcafe/storefront/pkg/errors"
	"github.com/artcafe/storefront/pkg/logger"
)

type catalogItemResponse struct {
	ID          string         `json:"id"`
	ItemType    enums.ItemType `json:"item_type"`
	Title       string         `json:"title"`
	Price       string         `json:"price"`
	PricePaise  int64          `json:"price_paise"`
	ImageURL    string         `json:"image_url,omitempty"`
	Category    string         `json:"category,omitempty"`
	Description string         `json:"description,omitempty"`
	Artist      string         `json:"artist,omitempty"`
	Medium      string         `json:"medium,omitempty"`
}

func newCatalogItemResponse(item catalog.Item) catalogItemResponse {
	resp := catalogItemResponse{
		ID:         item.SourceID(),
		ItemType:   item.Kind(),
		Title:      item.Title(),
		Price:      item.PriceText(),
		PricePaise: int64(item.UnitPrice()),
		ImageURL:   item.ImageURL(),
	}
	switch v := item.(type) {
	case catalog.MenuItem:
		resp.Category = v.Category
		resp.Description = v.Description
	case catalog.ArtPiece:
		resp.Artist = v.Artist
		resp.Medium = v.Medium
	}
	return resp
}

func CatalogMenu(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListMenu(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]catalogItemResponse, 0, len(items))
		for _, item := range items {
			out = append(out, newCatalogItemResponse(item))
		}
		responses.WriteSuccess(w, out)
	}
}

func CatalogArt(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListArt(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]catalogItemResponse, 0, len(items))
		for _, item := range items {
			out = append(out, newCatalogItemResponse(item))
		}
		responses.WriteSuccess(w, out)
	}
}

func CatalogItem(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := enums.ParseItemType(chi.URLParam(r, "itemType"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "unknown catalog"))
			return
		}
		item, err := svc.Get(r.Context(), kind, validators.SanitizeString(chi.URLParam(r, "itemId"), 128))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCatalogItemResponse(item))
	}
}
