package cart

import (
	"context"
	"sync"
	"time"

	"github.com/artcafe/storefront/pkg/logger"
)

type entry struct {
	store    *Store
	lastSeen time.Time
}

// Registry owns the carts of all live sessions in this process.
type Registry struct {
	mu    sync.Mutex
	carts map[string]*entry
	ttl   time.Duration
	now   func() time.Time
}

func NewRegistry(idleTTL time.Duration) *Registry {
	return &Registry{
		carts: map[string]*entry{},
		ttl:   idleTTL,
		now:   time.Now,
	}
}

// Get returns the cart for sessionKey, creating it on first use.
func (r *Registry) Get(sessionKey string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.carts[sessionKey]
	if !ok {
		e = &entry{store: NewStore()}
		r.carts[sessionKey] = e
	}
	e.lastSeen = r.now()
	return e.store
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carts)
}

// Sweep evicts carts idle for longer than the TTL. Carts with a checkout in
// flight are kept. It returns the number evicted.
func (r *Registry) Sweep(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for key, e := range r.carts {
		if now.Sub(e.lastSeen) <= r.ttl || e.store.CheckoutInFlight() {
			continue
		}
		delete(r.carts, key)
		evicted++
	}
	return evicted
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration, logg *logger.Logger, onSweep func(active, evicted int)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			evicted := r.Sweep(now)
			if evicted > 0 && logg != nil {
				logg.Info(logg.WithField(ctx, "evicted", evicted), "idle carts evicted")
			}
			if onSweep != nil {
				onSweep(r.Len(), evicted)
			}
		}
	}
}
