package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GTDGit/catalog_api/internal/models"
)

// ResolutionCache remembers which listing a slug resolved to.
// Key: resolve:slug:{slug}  Value: listing id string (goods:12)
type ResolutionCache struct {
	store Store
	ttl   time.Duration
}

// NewResolutionCache creates a new ResolutionCache.
func NewResolutionCache(store Store, ttl time.Duration) *ResolutionCache {
	return &ResolutionCache{store: store, ttl: ttl}
}

func (c *ResolutionCache) keyBySlug(slug string) string {
	return fmt.Sprintf("resolve:slug:%s", slug)
}

// GetListingID returns the cached id for slug. An unreadable entry counts as a miss and is dropped.
func (c *ResolutionCache) GetListingID(ctx context.Context, slug string) (models.ListingID, bool, error) {
	raw, err := c.store.Get(ctx, c.keyBySlug(slug))
	if errors.Is(err, ErrCacheMiss) {
		return models.ListingID{}, false, nil
	}
	if err != nil {
		return models.ListingID{}, false, err
	}

	id, err := models.ParseListingID(raw)
	if err != nil {
		_ = c.store.Delete(ctx, c.keyBySlug(slug))
		return models.ListingID{}, false, nil
	}
	return id, true, nil
}

// SetListingID stores the resolution for slug.
func (c *ResolutionCache) SetListingID(ctx context.Context, slug string, id models.ListingID) error {
	if err := c.store.Set(ctx, c.keyBySlug(slug), id.String(), c.ttl); err != nil {
		return fmt.Errorf("failed to cache resolution: %w", err)
	}
	return nil
}

// DeleteListingID evicts slug.
func (c *ResolutionCache) DeleteListingID(ctx context.Context, slug string) error {
	return c.store.Delete(ctx, c.keyBySlug(slug))
}
