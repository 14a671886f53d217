package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"

	"github.com/artcafe/storefront/internal/catalog"
	"github.com/artcafe/storefront/pkg/docstore"
	"github.com/artcafe/storefront/pkg/money"
)

// fixture is the on-disk catalog format: {"menu": [...], "art": [...]}.
type fixture struct {
	Menu []catalog.MenuItem `json:"menu"`
	Art  []catalog.ArtPiece `json:"art"`
}

type fixtureEntry struct {
	Name  string `validate:"required"`
	Price string `validate:"required"`
}

type seedCounts struct {
	Menu int
	Art  int
}

var fixtureValidator = validator.New(validator.WithRequiredStructEnabled())

func decodeFixture(r io.Reader) (*fixture, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var f fixture
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	var errs error
	for i, m := range f.Menu {
		errs = multierr.Append(errs, checkEntry("menu", i, m.Name, m.Price))
	}
	for i, a := range f.Art {
		errs = multierr.Append(errs, checkEntry("art", i, a.Name, a.Price))
	}
	if errs != nil {
		return nil, errs
	}
	return &f, nil
}

func checkEntry(kind string, idx int, name, price string) error {
	if err := fixtureValidator.Struct(fixtureEntry{Name: name, Price: price}); err != nil {
		return fmt.Errorf("%s[%d]: %w", kind, idx, err)
	}
	if money.ParsePrice(price) <= 0 {
		return fmt.Errorf("%s[%d]: price %q does not parse to a positive amount", kind, idx, price)
	}
	return nil
}

// seedCatalog inserts every fixture entry. Ids in the fixture are ignored; the
// store assigns them.
func seedCatalog(ctx context.Context, store docstore.Store, f *fixture) (seedCounts, error) {
	var counts seedCounts
	for _, m := range f.Menu {
		m.ID = ""
		if _, err := store.Create(ctx, docstore.CollectionMenuItems, m); err != nil {
			return counts, fmt.Errorf("insert menu item %q: %w", m.Name, err)
		}
		counts.Menu++
	}
	for _, a := range f.Art {
		a.ID = ""
		if _, err := store.Create(ctx, docstore.CollectionArtPieces, a); err != nil {
			return counts, fmt.Errorf("insert art piece %q: %w", a.Name, err)
		}
		counts.Art++
	}
	return counts, nil
}
