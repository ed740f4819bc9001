package service

import (
	"context"
	"fmt"

	"github.com/GTDGit/catalog_api/internal/models"
	"github.com/GTDGit/catalog_api/pkg/marketplace"
)

// MutationHistory reads the write-back audit trail.
type MutationHistory interface {
	ListByListing(ctx context.Context, kind models.SourceKind, listingID int64, limit int) ([]models.MutationLog, error)
}

// SourceHealthReader reads per-source probe statistics.
type SourceHealthReader interface {
	ListToday(ctx context.Context) ([]models.SourceProbeHealth, error)
}

// ListingService is the entry point the HTTP layer uses. It wires resolution,
// normalization, reviews, related items and write-backs together.
type ListingService struct {
	resolver   *ListingResolver
	normalizer *Normalizer
	projector  *StatusProjector
	related    *RelatedService
	adapters   map[models.SourceKind]SourceAdapter
	history    MutationHistory
	health     SourceHealthReader
}

// NewListingService creates a new ListingService. history and health may be nil.
func NewListingService(
	resolver *ListingResolver,
	normalizer *Normalizer,
	projector *StatusProjector,
	related *RelatedService,
	history MutationHistory,
	health SourceHealthReader,
	adapters ...SourceAdapter,
) *ListingService {
	s := &ListingService{
		resolver:   resolver,
		normalizer: normalizer,
		projector:  projector,
		related:    related,
		adapters:   make(map[models.SourceKind]SourceAdapter, len(adapters)),
		history:    history,
		health:     health,
	}
	for _, a := range adapters {
		s.adapters[a.Kind()] = a
	}
	return s
}

// GetListing resolves ref and returns the canonical listing.
func (s *ListingService) GetListing(ctx context.Context, ref models.ListingRef) (*models.Listing, error) {
	res, err := s.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.normalizer.Normalize(res.Record)
}

// GetByID returns the listing with the given composite id.
func (s *ListingService) GetByID(ctx context.Context, id models.ListingID) (*models.Listing, error) {
	if !id.Kind.Addressable() {
		return nil, ErrSourceNotAddressable
	}
	return s.GetListing(ctx, models.ListingRef{ID: id.ID, KindHint: id.Kind})
}

// Reviews returns the merged reviews of a listing and their summary.
func (s *ListingService) Reviews(ctx context.Context, id models.ListingID) ([]models.Review, models.RatingSummary, error) {
	rec, err := s.fetch(ctx, id)
	if err != nil {
		return nil, models.RatingSummary{}, err
	}
	listing, err := s.normalizer.Normalize(rec)
	if err != nil {
		return nil, models.RatingSummary{}, err
	}
	return s.normalizer.Reviews().MergeReviews(rec), listing.RatingSummary, nil
}

// PreviewRating returns the average the listing would have after one more rating.
func (s *ListingService) PreviewRating(ctx context.Context, id models.ListingID, rating float64) (float64, error) {
	if rating < minReviewRating || rating > maxReviewRating {
		return 0, fmt.Errorf("%w: must be between %d and %d", ErrInvalidRating, minReviewRating, maxReviewRating)
	}
	rec, err := s.fetch(ctx, id)
	if err != nil {
		return 0, err
	}
	reviews := s.normalizer.Reviews().MergeReviews(rec)
	return RecomputeAverage(Ratings(reviews), rating), nil
}

// Related returns the related listings for the listing with the given id.
func (s *ListingService) Related(ctx context.Context, id models.ListingID, limit int) ([]models.Listing, error) {
	if id.Kind == models.SourceExternal {
		return []models.Listing{}, nil
	}
	listing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.related.GetRelated(ctx, listing, limit)
}

// NormalizeExternal maps pre-fetched third-party hits onto listings, in order.
func (s *ListingService) NormalizeExternal(hits []marketplace.ExternalResult) []models.Listing {
	records := make([]models.SourceRecord, len(hits))
	for i := range hits {
		records[i] = models.ExternalRecord(&hits[i])
	}
	return s.normalizer.NormalizeAll(records)
}

// ListByKind returns up to limit listings of one kind.
func (s *ListingService) ListByKind(ctx context.Context, kind models.SourceKind, limit int) ([]models.Listing, error) {
	adapter, ok := s.adapters[kind]
	if !ok || !kind.Addressable() {
		return nil, ErrSourceNotAddressable
	}
	records, err := adapter.FetchMany(ctx, limit)
	if err != nil {
		return nil, err
	}
	return s.normalizer.NormalizeAll(records), nil
}

// ToggleStatus flips published and paused on behalf of actor.
func (s *ListingService) ToggleStatus(ctx context.Context, id models.ListingID, actor string) (*models.Listing, error) {
	return s.projector.ToggleStatusAs(ctx, id, actor)
}

// Delete removes a listing on behalf of actor.
func (s *ListingService) Delete(ctx context.Context, id models.ListingID, actor string) error {
	return s.projector.DeleteAs(ctx, id, actor)
}

// MutationLog returns the most recent write-back attempts for a listing.
func (s *ListingService) MutationLog(ctx context.Context, id models.ListingID, limit int) ([]models.MutationLog, error) {
	if !id.Kind.Addressable() {
		return nil, ErrSourceNotAddressable
	}
	if s.history == nil {
		return []models.MutationLog{}, nil
	}
	return s.history.ListByListing(ctx, id.Kind, id.ID, limit)
}

// SourceHealth returns today's probe statistics per source.
func (s *ListingService) SourceHealth(ctx context.Context) ([]models.SourceProbeHealth, error) {
	if s.health == nil {
		return []models.SourceProbeHealth{}, nil
	}
	return s.health.ListToday(ctx)
}

func (s *ListingService) fetch(ctx context.Context, id models.ListingID) (models.SourceRecord, error) {
	if !id.Kind.Addressable() {
		return models.SourceRecord{}, ErrSourceNotAddressable
	}
	res, err := s.resolver.Resolve(ctx, models.ListingRef{ID: id.ID, KindHint: id.Kind})
	if err != nil {
		return models.SourceRecord{}, err
	}
	return res.Record, nil
}
