package cart

import (
	"fmt"
	"sync"
	"testing"

	"github.com/artcafe/storefront/internal/catalog"
	"github.com/artcafe/storefront/pkg/enums"
	"github.com/artcafe/storefront/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	chai   = catalog.MenuItem{ID: "m1", Name: "Masala Chai", Price: "₹90"}
	brew   = catalog.MenuItem{ID: "m2", Name: "Cold Brew", Price: "₹180.50"}
	canvas = catalog.ArtPiece{ID: "a1", Name: "Monsoon", Artist: "R. Iyer", Price: "₹1,250.00", Image: "https://cdn/monsoon.jpg"}
)

func TestAddItemCreatesLineThenIncrements(t *testing.T) {
	s := NewStore()

	first := s.AddItem(chai)
	require.NotEmpty(t, first.CartItemID)
	assert.Equal(t, 1, first.Quantity)
	assert.Equal(t, "m1", first.SourceID)
	assert.Equal(t, enums.ItemTypeMenu, first.ItemType)
	assert.Equal(t, "₹90", first.UnitPriceText)
	assert.Equal(t, money.Paise(9000), first.UnitPrice)

	again := s.AddItem(chai)
	assert.Equal(t, first.CartItemID, again.CartItemID, "cart item id is stable")
	assert.Equal(t, 2, again.Quantity)
	assert.Equal(t, 1, s.Len())
}

func TestUniquenessIsKeyedOnSourceAndType(t *testing.T) {
	s := NewStore()
	menu := catalog.MenuItem{ID: "shared", Name: "Scone", Price: "₹60"}
	art := catalog.ArtPiece{ID: "shared", Name: "Still Life", Price: "₹900"}

	s.AddItem(menu)
	s.AddItem(art)
	s.AddItem(menu)

	snap := s.Snapshot()
	require.Len(t, snap.Items, 2)
	assert.Equal(t, enums.ItemTypeMenu, snap.Items[0].ItemType)
	assert.Equal(t, 2, snap.Items[0].Quantity)
	assert.Equal(t, enums.ItemTypeArt, snap.Items[1].ItemType)
	assert.Equal(t, 1, snap.Items[1].Quantity)

	seen := map[string]bool{}
	for _, item := range snap.Items {
		key := fmt.Sprintf("%s|%s", item.SourceID, item.ItemType)
		assert.False(t, seen[key], "duplicate line for %s", key)
		seen[key] = true
	}
}

func TestAddIncrementsExactlyByOne(t *testing.T) {
	s := NewStore()
	for i := 1; i <= 5; i++ {
		line := s.AddItem(brew)
		assert.Equal(t, i, line.Quantity)
	}
}

func TestUpdateQuantityZeroEqualsRemove(t *testing.T) {
	viaUpdate := NewStore()
	viaRemove := NewStore()
	for _, s := range []*Store{viaUpdate, viaRemove} {
		s.AddItem(chai)
		s.AddItem(canvas)
	}

	target := viaUpdate.Snapshot().Items[0].CartItemID
	require.True(t, viaUpdate.UpdateQuantity(target, 0))
	require.True(t, viaRemove.RemoveItem(viaRemove.Snapshot().Items[0].CartItemID))

	a, b := viaUpdate.Snapshot(), viaRemove.Snapshot()
	require.Len(t, a.Items, 1)
	require.Len(t, b.Items, 1)
	assert.Equal(t, a.Items[0].SourceID, b.Items[0].SourceID)
	assert.Equal(t, a.Total, b.Total)

	s := NewStore()
	line := s.AddItem(chai)
	s.UpdateQuantity(line.CartItemID, -3)
	assert.True(t, s.Snapshot().Empty(), "negative quantity removes the line")
}

func TestUpdateQuantitySetsValue(t *testing.T) {
	s := NewStore()
	line := s.AddItem(canvas)
	require.True(t, s.UpdateQuantity(line.CartItemID, 4))
	assert.Equal(t, 4, s.Snapshot().Items[0].Quantity)
	assert.Equal(t, money.Paise(500000), s.TotalPrice())
}

func TestUnknownIDsAreNoOps(t *testing.T) {
	s := NewStore()
	s.AddItem(chai)
	before := s.Snapshot()

	assert.False(t, s.RemoveItem("nope"))
	assert.False(t, s.UpdateQuantity("nope", 3))
	assert.False(t, s.UpdateQuantity("nope", 0))

	after := s.Snapshot()
	assert.Equal(t, before, after)
}

func TestTotalPrice(t *testing.T) {
	s := NewStore()
	s.AddItem(canvas)
	assert.Equal(t, money.Paise(125000), s.TotalPrice(), "₹1,250.00 totals to 1250.00")

	s.AddItem(chai)
	s.AddItem(chai)
	s.AddItem(brew)
	// 1250.00 + 2×90 + 180.50
	assert.Equal(t, money.Paise(161050), s.TotalPrice())
	assert.Equal(t, s.TotalPrice(), s.Snapshot().Total)

	free := catalog.MenuItem{ID: "water", Name: "Water", Price: "complimentary"}
	s.AddItem(free)
	assert.Equal(t, money.Paise(161050), s.TotalPrice(), "unparseable price counts as zero")

	s.Clear()
	assert.Equal(t, money.Paise(0), s.TotalPrice())
}

func TestSnapshotIsolation(t *testing.T) {
	s := NewStore()
	line := s.AddItem(chai)
	snap := s.Snapshot()

	s.AddItem(chai)
	s.AddItem(brew)
	s.UpdateQuantity(line.CartItemID, 9)
	s.Clear()

	require.Len(t, snap.Items, 1)
	assert.Equal(t, 1, snap.Items[0].Quantity)
	assert.Equal(t, money.Paise(9000), snap.Total)

	snap.Items[0].Quantity = 100
	assert.True(t, s.Snapshot().Empty(), "mutating a snapshot never touches the store")
}

func TestRevisionAdvancesOnlyOnAppliedMutations(t *testing.T) {
	s := NewStore()
	assert.Equal(t, uint64(0), s.Snapshot().Revision)

	line := s.AddItem(chai)
	assert.Equal(t, uint64(1), s.Snapshot().Revision)

	s.RemoveItem("nope")
	s.UpdateQuantity(line.CartItemID, 1)
	assert.Equal(t, uint64(1), s.Snapshot().Revision)

	s.UpdateQuantity(line.CartItemID, 2)
	assert.Equal(t, uint64(2), s.Snapshot().Revision)

	s.Clear()
	s.Clear()
	assert.Equal(t, uint64(3), s.Snapshot().Revision)
}

func TestSubscribersSeeEveryMutationInOrder(t *testing.T) {
	s := NewStore()
	var seen []int
	unsubscribe := s.Subscribe(func(snap Snapshot) {
		seen = append(seen, snap.ItemCount())
		_ = s.TotalPrice()
	})

	line := s.AddItem(chai)
	s.AddItem(chai)
	s.UpdateQuantity(line.CartItemID, 5)
	s.RemoveItem("nope")
	s.Clear()

	assert.Equal(t, []int{1, 2, 5, 0}, seen)

	unsubscribe()
	unsubscribe()
	s.AddItem(brew)
	assert.Len(t, seen, 4)
}

func TestConcurrentAddsKeepInvariants(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				s.AddItem(chai)
			} else {
				s.AddItem(canvas)
			}
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot()
	require.Len(t, snap.Items, 2)
	assert.Equal(t, 50, snap.ItemCount())
	assert.Equal(t, uint64(50), snap.Revision)
}

func TestBeginCheckoutIsExclusive(t *testing.T) {
	s := NewStore()
	release, ok := s.BeginCheckout()
	require.True(t, ok)
	assert.True(t, s.CheckoutInFlight())

	_, ok = s.BeginCheckout()
	assert.False(t, ok)

	release()
	release()
	assert.False(t, s.CheckoutInFlight())

	release2, ok := s.BeginCheckout()
	require.True(t, ok)
	release2()
}

func TestStoreIDIsPerInstance(t *testing.T) {
	a, b := NewStore(), NewStore()
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
	a.Clear()
	assert.NotEmpty(t, a.ID())
}
