package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/catalog_api/internal/models"
	"github.com/GTDGit/catalog_api/pkg/marketplace"
)

func TestListingService_GetListing(t *testing.T) {
	goods := newGoodsBackend(marketplace.GoodsEntity{
		ID: 12, Slug: "lamp", GoodsPrice: marketplace.Num(199), GoodsImage: "a.jpg", City: "Lagos", Country: "Nigeria",
	})
	services := newServiceBackend(marketplace.ServiceEntity{
		ID: 3, Slug: "plumbing", StartingPrice: marketplace.Num(100), MaxPrice: marketplace.Num(1000), FeaturedImage: "b.jpg",
	})
	s := newStack(goods, services)
	defer s.close()
	ctx := context.Background()

	l, err := s.listings.GetListing(ctx, models.ListingRef{Slug: "lamp"})
	require.NoError(t, err)
	assert.Equal(t, models.FixedPrice(199), l.Price)
	assert.Equal(t, "Lagos, Nigeria", l.Location)

	l, err = s.listings.GetListing(ctx, models.ListingRef{Slug: "plumbing"})
	require.NoError(t, err)
	assert.Equal(t, models.RangePrice(100, 1000), l.Price)
	assert.Equal(t, []string{"b.jpg"}, l.Images)

	_, err = s.listings.GetByID(ctx, models.ListingID{Kind: models.SourceExternal, Key: "etsy:1"})
	assert.ErrorIs(t, err, ErrSourceNotAddressable)
}

func TestListingService_Reviews(t *testing.T) {
	goods := newGoodsBackend(marketplace.GoodsEntity{
		ID: 1,
		GoodsRatings: []marketplace.GoodsRating{
			{ID: 1, Rating: marketplace.Num(5)},
			{ID: 2, Rating: marketplace.Num(4)},
			{ID: 3, Rating: marketplace.Num(3)},
		},
	})
	s := newStack(goods, newServiceBackend())
	defer s.close()
	ctx := context.Background()
	id := models.ListingID{Kind: models.SourceGoods, ID: 1}

	reviews, summary, err := s.listings.Reviews(ctx, id)
	require.NoError(t, err)
	assert.Len(t, reviews, 3)
	assert.Equal(t, models.RatingSummary{Average: 4, Count: 3, HasRatings: true}, summary)

	avg, err := s.listings.PreviewRating(ctx, id, 5)
	require.NoError(t, err)
	assert.Equal(t, 4.25, avg)

	_, err = s.listings.PreviewRating(ctx, id, 5.5)
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = s.listings.PreviewRating(ctx, id, -1)
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, _, err = s.listings.Reviews(ctx, models.ListingID{Kind: models.SourceGoods, ID: 404})
	assert.True(t, IsNotFound(err))
}

func TestListingService_ListByKindAndExternal(t *testing.T) {
	s := newStack(newGoodsBackend(shelf(3)...), newServiceBackend())
	defer s.close()
	ctx := context.Background()

	listings, err := s.listings.ListByKind(ctx, models.SourceGoods, 2)
	require.NoError(t, err)
	assert.Len(t, listings, 2)

	_, err = s.listings.ListByKind(ctx, models.SourceExternal, 2)
	assert.ErrorIs(t, err, ErrSourceNotAddressable)

	hits := s.listings.NormalizeExternal([]marketplace.ExternalResult{
		{Source: "etsy", Key: "b", Price: marketplace.Num(3)},
		{Source: "etsy", Key: "a", Price: raw(`"£4"`)},
	})
	require.Len(t, hits, 2)
	assert.Equal(t, "external:etsy:b", hits[0].ID.String())
	assert.Equal(t, models.DisplayPrice("£4"), hits[1].Price)
}

func TestListingService_HistoryWithoutStores(t *testing.T) {
	s := newStack(newGoodsBackend(), newServiceBackend())
	defer s.close()
	ctx := context.Background()

	entries, err := s.listings.MutationLog(ctx, models.ListingID{Kind: models.SourceGoods, ID: 1}, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = s.listings.MutationLog(ctx, models.ListingID{Kind: models.SourceExternal, Key: "x:y"}, 10)
	assert.ErrorIs(t, err, ErrSourceNotAddressable)

	health, err := s.listings.SourceHealth(ctx)
	require.NoError(t, err)
	assert.Empty(t, health)
}
