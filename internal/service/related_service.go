package service

import (
	"context"

	"github.com/GTDGit/catalog_api/internal/models"
)

// DefaultRelatedLimit is used when GetRelated is called without a positive limit.
const DefaultRelatedLimit = 10

// RelatedService lists other listings of the same kind.
type RelatedService struct {
	adapters     map[models.SourceKind]SourceAdapter
	normalizer   *Normalizer
	defaultLimit int
}

// NewRelatedService creates a new RelatedService
func NewRelatedService(normalizer *Normalizer, defaultLimit int, adapters ...SourceAdapter) *RelatedService {
	if defaultLimit <= 0 {
		defaultLimit = DefaultRelatedLimit
	}
	s := &RelatedService{
		adapters:     make(map[models.SourceKind]SourceAdapter, len(adapters)),
		normalizer:   normalizer,
		defaultLimit: defaultLimit,
	}
	for _, a := range adapters {
		s.adapters[a.Kind()] = a
	}
	return s
}

// GetRelated returns up to limit normalized listings of the same kind, never
// including listing itself. External listings have no related set.
func (s *RelatedService) GetRelated(ctx context.Context, listing *models.Listing, limit int) ([]models.Listing, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if listing == nil || !listing.SourceKind.Addressable() {
		return []models.Listing{}, nil
	}
	adapter, ok := s.adapters[listing.SourceKind]
	if !ok {
		return []models.Listing{}, nil
	}

	// one extra so the result is still full after the listing itself is removed
	records, err := adapter.FetchMany(ctx, limit+1)
	if err != nil {
		return nil, err
	}

	related := make([]models.Listing, 0, limit)
	for _, rec := range records {
		if rec.Kind != listing.SourceKind || rec.ID() == listing.ID {
			continue
		}
		l, err := s.normalizer.Normalize(rec)
		if err != nil {
			continue
		}
		related = append(related, *l)
		if len(related) == limit {
			break
		}
	}
	return related, nil
}

// Window returns items[offset:offset+size], clamped to the slice bounds.
// A non-positive size means everything from offset on.
func Window[T any](items []T, offset, size int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if size > 0 && offset+size < end {
		end = offset + size
	}
	return items[offset:end]
}
