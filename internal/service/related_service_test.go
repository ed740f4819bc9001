package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/catalog_api/internal/models"
	"github.com/GTDGit/catalog_api/pkg/marketplace"
)

func shelf(n int) []marketplace.GoodsEntity {
	items := make([]marketplace.GoodsEntity, n)
	for i := range items {
		items[i] = marketplace.GoodsEntity{ID: int64(i + 1), GoodsName: "item"}
	}
	return items
}

func TestGetRelated(t *testing.T) {
	goods := newGoodsBackend(shelf(6)...)
	s := newStack(goods, newServiceBackend(marketplace.ServiceEntity{ID: 1}))
	defer s.close()
	ctx := context.Background()

	self, err := s.listings.GetByID(ctx, models.ListingID{Kind: models.SourceGoods, ID: 2})
	require.NoError(t, err)

	related, err := s.related.GetRelated(ctx, self, 3)
	require.NoError(t, err)
	require.Len(t, related, 3)
	for _, l := range related {
		assert.NotEqual(t, self.ID, l.ID)
		assert.Equal(t, models.SourceGoods, l.SourceKind)
	}
	assert.Equal(t, []int{4}, goods.listLimits)
}

func TestGetRelated_DefaultLimit(t *testing.T) {
	goods := newGoodsBackend(shelf(15)...)
	s := newStack(goods, newServiceBackend())
	defer s.close()

	self := &models.Listing{ID: models.ListingID{Kind: models.SourceGoods, ID: 1}, SourceKind: models.SourceGoods}
	related, err := s.related.GetRelated(context.Background(), self, 0)
	require.NoError(t, err)
	assert.Len(t, related, DefaultRelatedLimit)
	assert.Equal(t, []int{DefaultRelatedLimit + 1}, goods.listLimits)
}

func TestGetRelated_ExternalHasNone(t *testing.T) {
	s := newStack(newGoodsBackend(shelf(3)...), newServiceBackend())
	defer s.close()

	self := &models.Listing{ID: models.ListingID{Kind: models.SourceExternal, Key: "etsy:1"}, SourceKind: models.SourceExternal}
	related, err := s.related.GetRelated(context.Background(), self, 5)
	require.NoError(t, err)
	assert.Empty(t, related)
	assert.NotNil(t, related)

	related, err = s.listings.Related(context.Background(), self.ID, 5)
	require.NoError(t, err)
	assert.Empty(t, related)
}

func TestGetRelated_BackendFailure(t *testing.T) {
	goods := newGoodsBackend()
	goods.readErr = errors.New("timeout")
	s := newStack(goods, newServiceBackend())
	defer s.close()

	self := &models.Listing{ID: models.ListingID{Kind: models.SourceGoods, ID: 1}, SourceKind: models.SourceGoods}
	_, err := s.related.GetRelated(context.Background(), self, 5)
	assert.True(t, IsLoadFailure(err))
}

func TestWindow(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name   string
		offset int
		size   int
		want   []int
	}{
		{"first page", 0, 2, []int{1, 2}},
		{"middle", 2, 2, []int{3, 4}},
		{"clamped end", 4, 10, []int{5}},
		{"past end", 9, 2, []int{}},
		{"negative offset", -3, 1, []int{1}},
		{"whole tail", 1, 0, []int{2, 3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Window(items, tt.offset, tt.size))
		})
	}
}
