package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/artcafe/storefront/pkg/config"
	"github.com/artcafe/storefront/pkg/docstore"
	"github.com/artcafe/storefront/pkg/enums"
	pkgerrors "github.com/artcafe/storefront/pkg/errors"
	"github.com/artcafe/storefront/pkg/logger"
	"golang.org/x/sync/singleflight"
)

const (
	collectionMenu = docstore.CollectionMenuItems
	collectionArt  = docstore.CollectionArtPieces
)

// Service exposes read-only catalog browsing.
type Service interface {
	ListMenu(ctx context.Context) ([]MenuItem, error)
	ListArt(ctx context.Context) ([]ArtPiece, error)
	Get(ctx context.Context, kind enums.ItemType, id string) (Item, error)
	Invalidate(ctx context.Context) error
}

type service struct {
	store docstore.Store
	cache *listCache
	logg  *logger.Logger
	sfg   singleflight.Group
}

// NewService builds a catalog service. kv may be nil, which disables caching.
func NewService(store docstore.Store, kv KV, cfg config.CatalogConfig, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("document store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	svc := &service{store: store, logg: logg}
	if kv != nil && cfg.CacheTTL > 0 {
		svc.cache = &listCache{kv: kv, baseTTL: cfg.CacheTTL, jitter: cfg.CacheJitter}
	}
	return svc, nil
}

func (s *service) ListMenu(ctx context.Context) ([]MenuItem, error) {
	v, err, _ := s.sfg.Do(collectionMenu, func() (any, error) {
		var items []MenuItem
		if err := s.readThrough(ctx, collectionMenu, &items); err != nil {
			return nil, err
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneSlice(v.([]MenuItem)), nil
}

func (s *service) ListArt(ctx context.Context) ([]ArtPiece, error) {
	v, err, _ := s.sfg.Do(collectionArt, func() (any, error) {
		var items []ArtPiece
		if err := s.readThrough(ctx, collectionArt, &items); err != nil {
			return nil, err
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneSlice(v.([]ArtPiece)), nil
}

// readThrough serves from the cache when possible and refills it from the
// document store otherwise. Cache failures are logged and never surface.
func (s *service) readThrough(ctx context.Context, collection string, dest any) error {
	if s.cache != nil {
		err := s.cache.get(ctx, collection, dest)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errCacheMiss) {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "catalog cache read failed")
		}
	}

	if err := s.store.List(ctx, collection, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog")
	}

	if s.cache != nil {
		if err := s.cache.set(ctx, collection, dest); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "catalog cache write failed")
		}
	}
	return nil
}

func (s *service) Get(ctx context.Context, kind enums.ItemType, id string) (Item, error) {
	collection, ok := CollectionFor(kind)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown item type").
			WithDetails(map[string]any{"item_type": kind})
	}
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "source id is required")
	}

	var (
		item Item
		err  error
	)
	switch kind {
	case enums.ItemTypeMenu:
		var m MenuItem
		err = s.store.Get(ctx, collection, id, &m)
		item = m
	case enums.ItemTypeArt:
		var a ArtPiece
		err = s.store.Get(ctx, collection, id, &a)
		item = a
	}
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog item not found").
			WithDetails(map[string]any{"item_type": kind, "source_id": id})
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog item")
	}
	return item, nil
}

// Invalidate drops cached listings so the next read goes to the store.
func (s *service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.invalidate(ctx, collectionMenu, collectionArt)
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
