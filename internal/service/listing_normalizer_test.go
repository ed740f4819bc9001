package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/catalog_api/internal/models"
	"github.com/GTDGit/catalog_api/pkg/marketplace"
)

func raw(s string) marketplace.Number {
	var n marketplace.Number
	_ = json.Unmarshal([]byte(s), &n)
	return n
}

func newTestNormalizer(sink *anomalySink) *Normalizer {
	return NewNormalizer(
		NormalizerConfig{OnAnomaly: sink.hook},
		NewGoodsAdapter(newGoodsBackend()),
		NewServiceAdapter(newServiceBackend()),
		NewExternalAdapter(),
	)
}

func TestNormalize_GoodsPrice(t *testing.T) {
	tests := []struct {
		name      string
		price     marketplace.Number
		want      models.Price
		anomalies []string
	}{
		{"positive", marketplace.Num(199), models.FixedPrice(199), nil},
		{"numeric string", raw(`"250.5"`), models.FixedPrice(250.5), nil},
		{"null", raw(`null`), models.DisplayPrice(models.PriceNotAvailable), nil},
		{"zero", marketplace.Num(0), models.DisplayPrice(models.PriceNotAvailable), nil},
		{"negative", marketplace.Num(-5), models.DisplayPrice(models.PriceNotAvailable), []string{"goods_price"}},
		{"text", raw(`"call me"`), models.DisplayPrice(models.PriceNotAvailable), []string{"goods_price"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &anomalySink{}
			n := newTestNormalizer(sink)

			l, err := n.Normalize(models.GoodsRecord(&marketplace.GoodsEntity{ID: 1, GoodsPrice: tt.price}))
			require.NoError(t, err)
			assert.Equal(t, tt.want, l.Price)
			if tt.anomalies == nil {
				assert.Empty(t, sink.fields())
			} else {
				assert.Equal(t, tt.anomalies, sink.fields())
			}
		})
	}
}

func TestNormalize_GoodsExample(t *testing.T) {
	n := newTestNormalizer(&anomalySink{})

	l, err := n.Normalize(models.GoodsRecord(&marketplace.GoodsEntity{
		ID:            12,
		GoodsPrice:    marketplace.Num(199),
		GoodsImage:    "a.jpg",
		GalleryImages: []string{},
	}))
	require.NoError(t, err)
	assert.Equal(t, models.FixedPrice(199), l.Price)
	assert.Equal(t, []string{"a.jpg"}, l.Images)
	assert.Equal(t, models.ListingID{Kind: models.SourceGoods, ID: 12}, l.ID)
	assert.Equal(t, models.SourceGoods, l.SourceKind)
}

func TestNormalize_ServicePrice(t *testing.T) {
	tests := []struct {
		name      string
		start     marketplace.Number
		max       marketplace.Number
		want      models.Price
		anomalies []string
	}{
		{"start and max", marketplace.Num(100), marketplace.Num(1000), models.RangePrice(100, 1000), nil},
		{"max absent", marketplace.Num(100), marketplace.Number{}, models.RangePrice(100, 100), nil},
		{"max below start", marketplace.Num(100), marketplace.Num(50), models.RangePrice(100, 100), []string{"max_price"}},
		{"start missing", marketplace.Number{}, marketplace.Num(500), models.RangePrice(0, 500), []string{"starting_price"}},
		{"start malformed", raw(`"n/a"`), marketplace.Number{}, models.RangePrice(0, 0), []string{"starting_price"}},
		{"max malformed", marketplace.Num(80), raw(`"lots"`), models.RangePrice(80, 80), []string{"max_price"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &anomalySink{}
			n := newTestNormalizer(sink)

			l, err := n.Normalize(models.ServiceRecord(&marketplace.ServiceEntity{
				ID: 2, StartingPrice: tt.start, MaxPrice: tt.max, FeaturedImage: "b.jpg",
			}))
			require.NoError(t, err)
			assert.Equal(t, tt.want, l.Price)
			assert.LessOrEqual(t, l.Price.Min, l.Price.Max)
			if tt.anomalies == nil {
				assert.Empty(t, sink.fields())
			} else {
				assert.Equal(t, tt.anomalies, sink.fields())
			}
		})
	}
}

func TestNormalize_Images(t *testing.T) {
	tests := []struct {
		name    string
		primary string
		gallery []string
		want    []string
	}{
		{"primary then gallery", "a.jpg", []string{"b.jpg", "c.jpg"}, []string{"a.jpg", "b.jpg", "c.jpg"}},
		{"duplicates and blanks dropped", "a.jpg", []string{"", " ", "a.jpg", "b.jpg", "b.jpg"}, []string{"a.jpg", "b.jpg"}},
		{"no primary", "", []string{"g.jpg"}, []string{"g.jpg"}},
		{"nothing", "", nil, []string{DefaultPlaceholderImage}},
		{"only blanks", " ", []string{""}, []string{DefaultPlaceholderImage}},
	}

	n := newTestNormalizer(&anomalySink{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goods, err := n.Normalize(models.GoodsRecord(&marketplace.GoodsEntity{ID: 1, GoodsImage: tt.primary, GalleryImages: tt.gallery}))
			require.NoError(t, err)
			assert.Equal(t, tt.want, goods.Images)

			svc, err := n.Normalize(models.ServiceRecord(&marketplace.ServiceEntity{ID: 1, FeaturedImage: tt.primary, GalleryImages: tt.gallery}))
			require.NoError(t, err)
			assert.Equal(t, tt.want, svc.Images)
			assert.NotEmpty(t, svc.PrimaryImage())
		})
	}

	t.Run("configured placeholder", func(t *testing.T) {
		custom := NewNormalizer(NormalizerConfig{PlaceholderImage: "/none.svg"}, NewGoodsAdapter(newGoodsBackend()))
		l, err := custom.Normalize(models.GoodsRecord(&marketplace.GoodsEntity{ID: 1}))
		require.NoError(t, err)
		assert.Equal(t, []string{"/none.svg"}, l.Images)
	})
}

func TestNormalize_Location(t *testing.T) {
	n := newTestNormalizer(&anomalySink{})

	tests := []struct {
		name  string
		goods marketplace.GoodsEntity
		want  string
	}{
		{"skips empty part", marketplace.GoodsEntity{City: "Lagos", State: "", Country: "Nigeria"}, "Lagos, Nigeria"},
		{"all parts", marketplace.GoodsEntity{City: " Ikeja ", State: "Lagos", Country: "Nigeria"}, "Ikeja, Lagos, Nigeria"},
		{"nothing", marketplace.GoodsEntity{}, "Location not specified"},
		{"whitespace only", marketplace.GoodsEntity{City: "  ", Country: "\t"}, "Location not specified"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.goods.ID = 1
			l, err := n.Normalize(models.GoodsRecord(&tt.goods))
			require.NoError(t, err)
			assert.Equal(t, tt.want, l.Location)
		})
	}

	t.Run("service address with stray commas", func(t *testing.T) {
		l, err := n.Normalize(models.ServiceRecord(&marketplace.ServiceEntity{ID: 1, Address: " , Lagos,, ,Nigeria ,"}))
		require.NoError(t, err)
		assert.Equal(t, "Lagos, Nigeria", l.Location)
	})
}

func TestNormalize_TagsVendorCurrency(t *testing.T) {
	n := newTestNormalizer(&anomalySink{})

	l, err := n.Normalize(models.GoodsRecord(&marketplace.GoodsEntity{
		ID:          1,
		Tags:        " chair, wood ,chair,, ",
		UserDetails: &marketplace.UserDetails{FirstName: "Ada", LastName: " Obi", Rating: marketplace.Num(4.5), IsVerified: true},
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"chair", "wood"}, l.Tags)
	assert.Equal(t, "Ada Obi", l.Vendor.Name)
	assert.Equal(t, 4.5, l.Vendor.Rating)
	assert.True(t, l.Flags.IsVerified)
	assert.Equal(t, DefaultCurrencySymbol, l.CurrencySymbol)

	l, err = n.Normalize(models.ServiceRecord(&marketplace.ServiceEntity{
		ID:             2,
		CurrencySymbol: "$",
		UserDetails:    &marketplace.UserDetails{Username: "fixit"},
	}))
	require.NoError(t, err)
	assert.Equal(t, "fixit", l.Vendor.Name)
	assert.Equal(t, "$", l.CurrencySymbol)
	assert.Equal(t, []string{}, l.Tags)

	l, err = n.Normalize(models.GoodsRecord(&marketplace.GoodsEntity{ID: 3}))
	require.NoError(t, err)
	assert.Equal(t, "Unknown User", l.Vendor.Name)
}

func TestNormalize_LifecycleStatus(t *testing.T) {
	tests := []struct {
		name      string
		rec       models.SourceRecord
		want      models.LifecycleStatus
		anomalies int
	}{
		{"goods active", models.GoodsRecord(&marketplace.GoodsEntity{ID: 1, GoodsStatus: strPtr("active")}), models.StatusPublished, 0},
		{"goods inactive", models.GoodsRecord(&marketplace.GoodsEntity{ID: 1, GoodsStatus: strPtr("INACTIVE")}), models.StatusPaused, 0},
		{"goods absent", models.GoodsRecord(&marketplace.GoodsEntity{ID: 1}), models.DefaultLifecycleStatus, 0},
		{"goods unknown", models.GoodsRecord(&marketplace.GoodsEntity{ID: 1, GoodsStatus: strPtr("archived")}), models.DefaultLifecycleStatus, 1},
		{"service paused", models.ServiceRecord(&marketplace.ServiceEntity{ID: 1, ServiceStatus: strPtr("paused")}), models.StatusPaused, 0},
		{"service draft", models.ServiceRecord(&marketplace.ServiceEntity{ID: 1, ServiceStatus: strPtr("draft")}), models.StatusDraft, 0},
		{"external", models.ExternalRecord(&marketplace.ExternalResult{Source: "etsy", Key: "1"}), models.DefaultLifecycleStatus, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &anomalySink{}
			l, err := newTestNormalizer(sink).Normalize(tt.rec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, l.LifecycleStatus)
			assert.Len(t, sink.fields(), tt.anomalies)
		})
	}
}

func TestNormalize_External(t *testing.T) {
	n := newTestNormalizer(&anomalySink{})

	l, err := n.Normalize(models.ExternalRecord(&marketplace.ExternalResult{
		Source:      "etsy",
		Key:         "abc",
		Title:       " Mug ",
		Price:       raw(`"$12.99"`),
		Thumbnail:   "t.jpg",
		Location:    "Brooklyn, NY",
		Rating:      marketplace.Num(4.5),
		ReviewCount: 10,
		Sponsored:   true,
		URL:         "https://etsy.example/abc",
	}))
	require.NoError(t, err)
	assert.Equal(t, "external:etsy:abc", l.ID.String())
	assert.Equal(t, "Mug", l.Title)
	assert.Equal(t, models.DisplayPrice("$12.99"), l.Price)
	assert.Equal(t, []string{"t.jpg"}, l.Images)
	assert.Equal(t, "Brooklyn, NY", l.Location)
	assert.Equal(t, "etsy", l.Vendor.Name)
	assert.Equal(t, models.RatingSummary{Average: 4.5, Count: 10, HasRatings: true}, l.RatingSummary)
	assert.True(t, l.Flags.IsPromoted)
	require.NotNil(t, l.External)
	assert.Equal(t, "https://etsy.example/abc", l.External.URL)

	l, err = n.Normalize(models.ExternalRecord(&marketplace.ExternalResult{
		Source: "ebay", Key: "9", Price: marketplace.Num(30), Images: []string{"x.jpg"}, Thumbnail: "t.jpg", SellerName: "Lamps Ltd",
	}))
	require.NoError(t, err)
	assert.Equal(t, models.FixedPrice(30), l.Price)
	assert.Equal(t, []string{"x.jpg"}, l.Images)
	assert.Equal(t, "Lamps Ltd", l.Vendor.Name)
	assert.Equal(t, models.RatingSummary{}, l.RatingSummary)

	l, err = n.Normalize(models.ExternalRecord(&marketplace.ExternalResult{Key: "z"}))
	require.NoError(t, err)
	assert.Equal(t, models.DisplayPrice(models.PriceNotAvailable), l.Price)
	assert.Equal(t, "Unknown User", l.Vendor.Name)
	assert.Equal(t, []string{DefaultPlaceholderImage}, l.Images)
}

func TestNormalize_Errors(t *testing.T) {
	n := newTestNormalizer(&anomalySink{})

	_, err := n.Normalize(models.SourceRecord{Kind: models.SourceGoods})
	assert.Error(t, err)

	_, err = n.Normalize(models.SourceRecord{Kind: models.SourceGoods, Service: &marketplace.ServiceEntity{}})
	assert.Error(t, err)

	goodsOnly := NewNormalizer(NormalizerConfig{}, NewGoodsAdapter(newGoodsBackend()))
	_, err = goodsOnly.Normalize(models.ServiceRecord(&marketplace.ServiceEntity{ID: 1}))
	assert.Error(t, err)

	listings := n.NormalizeAll([]models.SourceRecord{
		models.GoodsRecord(&marketplace.GoodsEntity{ID: 1}),
		{Kind: models.SourceService},
		models.ServiceRecord(&marketplace.ServiceEntity{ID: 2}),
	})
	require.Len(t, listings, 2)
	assert.Equal(t, "goods:1", listings[0].ID.String())
	assert.Equal(t, "service:2", listings[1].ID.String())
}

func TestNormalize_Timestamps(t *testing.T) {
	sink := &anomalySink{}
	l, err := newTestNormalizer(sink).Normalize(models.GoodsRecord(&marketplace.GoodsEntity{
		ID:        1,
		CreatedAt: "2024-03-01T10:00:00Z",
		UpdatedAt: "yesterday",
	}))
	require.NoError(t, err)
	assert.Equal(t, 2024, l.CreatedAt.Year())
	assert.True(t, l.UpdatedAt.IsZero())
	assert.Equal(t, []string{"updated_at"}, sink.fields())
}
