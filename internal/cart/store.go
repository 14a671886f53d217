// Package cart holds the per-session, in-memory shopping cart.
package cart

import (
	"slices"
	"sync"

	"github.com/artcafe/storefront/internal/catalog"
	"github.com/artcafe/storefront/pkg/enums"
	"github.com/artcafe/storefront/pkg/money"
	"github.com/google/uuid"
)

// LineItem is one distinct (source id, item type) pair in the cart.
type LineItem struct {
	CartItemID    string         `json:"cart_item_id" bson:"cart_item_id"`
	SourceID      string         `json:"source_id" bson:"source_id"`
	ItemType      enums.ItemType `json:"item_type" bson:"item_type"`
	Title         string         `json:"title" bson:"title"`
	UnitPriceText string         `json:"unit_price_text" bson:"unit_price_text"`
	UnitPrice     money.Paise    `json:"unit_price" bson:"unit_price"`
	ImageURL      string         `json:"image_url,omitempty" bson:"image_url,omitempty"`
	Quantity      int            `json:"quantity" bson:"quantity"`
}

// Subtotal is UnitPrice × Quantity.
func (l LineItem) Subtotal() money.Paise {
	return l.UnitPrice.Mul(l.Quantity)
}

// Snapshot is an immutable copy of the cart at one revision.
type Snapshot struct {
	Items    []LineItem
	Total    money.Paise
	Revision uint64
}

func (s Snapshot) Empty() bool {
	return len(s.Items) == 0
}

// ItemCount sums quantities across lines.
func (s Snapshot) ItemCount() int {
	n := 0
	for _, item := range s.Items {
		n += item.Quantity
	}
	return n
}

// Observer receives the cart state after every applied mutation.
type Observer func(Snapshot)

// Store is a single shopper's cart. Mutations are serialised and observers
// are notified synchronously, in mutation order, after each applied change.
// Observers may read the store but must not mutate it.
type Store struct {
	dispatch sync.Mutex
	mu       sync.RWMutex

	id        string
	items     []LineItem
	revision  uint64
	observers map[int]Observer
	nextObsID int
	newID     func() string

	checkingOut bool
}

func NewStore() *Store {
	return &Store{
		id:        uuid.NewString(),
		observers: map[int]Observer{},
		newID:     uuid.NewString,
	}
}

// AddItem increments the line for (item.SourceID, item.Kind) or appends a new
// line with quantity 1. It never fails.
func (s *Store) AddItem(item catalog.Item) LineItem {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	s.mu.Lock()
	var added LineItem
	if idx := s.indexOfSource(item.SourceID(), item.Kind()); idx >= 0 {
		s.items[idx].Quantity++
		added = s.items[idx]
	} else {
		added = LineItem{
			CartItemID:    s.newID(),
			SourceID:      item.SourceID(),
			ItemType:      item.Kind(),
			Title:         item.Title(),
			UnitPriceText: item.PriceText(),
			UnitPrice:     item.UnitPrice(),
			ImageURL:      item.ImageURL(),
			Quantity:      1,
		}
		s.items = append(s.items, added)
	}
	s.revision++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return added
}

// RemoveItem deletes the line if present; it reports whether anything changed.
func (s *Store) RemoveItem(cartItemID string) bool {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	s.mu.Lock()
	idx := s.indexOfCartItem(cartItemID)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.removeAtLocked(idx)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// UpdateQuantity sets the quantity of a line. quantity <= 0 removes it.
// Unknown ids are ignored.
func (s *Store) UpdateQuantity(cartItemID string, quantity int) bool {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	s.mu.Lock()
	idx := s.indexOfCartItem(cartItemID)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	if quantity <= 0 {
		s.removeAtLocked(idx)
	} else {
		if s.items[idx].Quantity == quantity {
			s.mu.Unlock()
			return true
		}
		s.items[idx].Quantity = quantity
		s.revision++
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	s.mu.Lock()
	if len(s.items) == 0 {
		s.mu.Unlock()
		return
	}
	s.items = nil
	s.revision++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// TotalPrice recomputes Σ(unit price × quantity) on every call.
func (s *Store) TotalPrice() money.Paise {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return totalOf(s.items)
}

// Snapshot returns a deep copy; later mutations never alter it.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

// ID identifies this cart instance. A cart recreated for the same session
// gets a new ID, so (ID, revision) never repeats.
func (s *Store) ID() string {
	return s.id
}

// BeginCheckout marks the cart as having a checkout in flight. It returns
// false when one is already running; the caller must call the returned
// release func when its attempt ends.
func (s *Store) BeginCheckout() (release func(), ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkingOut {
		return func() {}, false
	}
	s.checkingOut = true

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.checkingOut = false
			s.mu.Unlock()
		})
	}, true
}

// CheckoutInFlight reports whether a checkout attempt currently holds the cart.
func (s *Store) CheckoutInFlight() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkingOut
}

func (s *Store) notify(snap Snapshot) {
	s.mu.RLock()
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	fns := make([]Observer, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, s.observers[id])
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Store) removeAtLocked(idx int) {
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.revision++
}

func (s *Store) snapshotLocked() Snapshot {
	items := make([]LineItem, len(s.items))
	copy(items, s.items)
	return Snapshot{
		Items:    items,
		Total:    totalOf(items),
		Revision: s.revision,
	}
}

func (s *Store) indexOfSource(sourceID string, kind enums.ItemType) int {
	for i, item := range s.items {
		if item.SourceID == sourceID && item.ItemType == kind {
			return i
		}
	}
	return -1
}

func (s *Store) indexOfCartItem(cartItemID string) int {
	for i, item := range s.items {
		if item.CartItemID == cartItemID {
			return i
		}
	}
	return -1
}

func totalOf(items []LineItem) money.Paise {
	var total money.Paise
	for _, item := range items {
		total += item.Subtotal()
	}
	return total
}
