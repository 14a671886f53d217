package catalog

import (
	"github.com/artcafe/storefront/pkg/enums"
	"github.com/artcafe/storefront/pkg/money"
)

// Item is a purchasable catalog entry. MenuItem and ArtPiece are the only
// implementations; the cart consumes items through this surface.
type Item interface {
	SourceID() string
	Kind() enums.ItemType
	Title() string
	PriceText() string
	UnitPrice() money.Paise
	ImageURL() string
}

type MenuItem struct {
	ID          string `json:"id" bson:"_id,omitempty"`
	Name        string `json:"name" bson:"name"`
	Category    string `json:"category,omitempty" bson:"category,omitempty"`
	Price       string `json:"price" bson:"price"`
	Image       string `json:"image_url,omitempty" bson:"image_url,omitempty"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
}

func (m MenuItem) SourceID() string       { return m.ID }
func (m MenuItem) Kind() enums.ItemType   { return enums.ItemTypeMenu }
func (m MenuItem) Title() string          { return m.Name }
func (m MenuItem) PriceText() string      { return m.Price }
func (m MenuItem) UnitPrice() money.Paise { return money.ParsePrice(m.Price) }
func (m MenuItem) ImageURL() string       { return m.Image }

type ArtPiece struct {
	ID     string `json:"id" bson:"_id,omitempty"`
	Name   string `json:"title" bson:"title"`
	Artist string `json:"artist,omitempty" bson:"artist,omitempty"`
	Medium string `json:"medium,omitempty" bson:"medium,omitempty"`
	Price  string `json:"price" bson:"price"`
	Image  string `json:"image_url,omitempty" bson:"image_url,omitempty"`
}

func (a ArtPiece) SourceID() string       { return a.ID }
func (a ArtPiece) Kind() enums.ItemType   { return enums.ItemTypeArt }
func (a ArtPiece) Title() string          { return a.Name }
func (a ArtPiece) PriceText() string      { return a.Price }
func (a ArtPiece) UnitPrice() money.Paise { return money.ParsePrice(a.Price) }
func (a ArtPiece) ImageURL() string       { return a.Image }

var (
	_ Item = MenuItem{}
	_ Item = ArtPiece{}
)

// CollectionFor maps an item type onto its document store collection.
func CollectionFor(kind enums.ItemType) (string, bool) {
	switch kind {
	case enums.ItemTypeMenu:
		return collectionMenu, true
	case enums.ItemTypeArt:
		return collectionArt, true
	default:
		return "", false
	}
}
