package service

import (
	"context"
	"strconv"

	"github.com/GTDGit/catalog_api/internal/models"
	"github.com/GTDGit/catalog_api/pkg/marketplace"
)

// GoodsBackend is the part of the marketplace client the goods adapter uses.
type GoodsBackend interface {
	GetGoods(ctx context.Context, id int64) (*marketplace.GoodsEntity, error)
	GetGoodsBySlug(ctx context.Context, slug string) (*marketplace.GoodsEntity, error)
	ListGoods(ctx context.Context, limit int) ([]marketplace.GoodsEntity, error)
	UpdateGoodsStatus(ctx context.Context, id int64, status string) (bool, error)
	DeleteGoods(ctx context.Context, id int64) (bool, error)
}

// GoodsAdapter reads and writes goods listings.
type GoodsAdapter struct {
	backend GoodsBackend
}

// NewGoodsAdapter creates a new GoodsAdapter
func NewGoodsAdapter(backend GoodsBackend) *GoodsAdapter {
	return &GoodsAdapter{backend: backend}
}

func (a *GoodsAdapter) Kind() models.SourceKind {
	return models.SourceGoods
}

func (a *GoodsAdapter) FetchOne(ctx context.Context, id int64) (models.SourceRecord, error) {
	g, err := a.backend.GetGoods(ctx, id)
	if err != nil {
		return models.SourceRecord{}, classifyFetchError(models.SourceGoods, "fetch", strconv.FormatInt(id, 10), err)
	}
	return models.GoodsRecord(g), nil
}

func (a *GoodsAdapter) FetchBySlug(ctx context.Context, slug string) (models.SourceRecord, error) {
	g, err := a.backend.GetGoodsBySlug(ctx, slug)
	if err != nil {
		return models.SourceRecord{}, classifyFetchError(models.SourceGoods, "fetch", slug, err)
	}
	return models.GoodsRecord(g), nil
}

func (a *GoodsAdapter) FetchMany(ctx context.Context, limit int) ([]models.SourceRecord, error) {
	goods, err := a.backend.ListGoods(ctx, limit)
	if err != nil {
		return nil, &LoadFailure{Op: "list", Source: models.SourceGoods, Err: err}
	}
	records := make([]models.SourceRecord, 0, len(goods))
	for i := range goods {
		records = append(records, models.GoodsRecord(&goods[i]))
	}
	return records, nil
}

// MapToCanonical maps goods_* fields. A missing, zero or unreadable price becomes a display price.
func (a *GoodsAdapter) MapToCanonical(rec models.SourceRecord) (*ListingDraft, []MalformedSourceDataError, error) {
	if rec.Kind != models.SourceGoods || rec.Goods == nil {
		return nil, nil, recordMismatch(models.SourceGoods, rec)
	}
	g := rec.Goods
	id := rec.ID()
	an := newAnomalies(models.SourceGoods, id.String())

	price := models.DisplayPrice(models.PriceNotAvailable)
	switch {
	case g.GoodsPrice.Valid && g.GoodsPrice.Value > 0:
		price = models.FixedPrice(g.GoodsPrice.Value)
	case g.GoodsPrice.Valid && g.GoodsPrice.Value < 0:
		an.add("goods_price", strconv.FormatFloat(g.GoodsPrice.Value, 'f', -1, 64), models.PriceNotAvailable)
	case g.GoodsPrice.Malformed():
		an.add("goods_price", string(g.GoodsPrice.Raw), models.PriceNotAvailable)
	}

	images := make([]string, 0, len(g.GalleryImages)+1)
	images = append(images, g.GoodsImage)
	images = append(images, g.GalleryImages...)

	vendor := vendorFromUser(g.UserDetails, an)
	flags := models.Flags{IsPromoted: g.IsPromoted, IsFeatured: g.IsFeatured}
	if g.UserDetails != nil {
		flags.IsVerified = g.UserDetails.IsVerified
	}

	draft := &ListingDraft{
		ID:              id,
		Kind:            models.SourceGoods,
		Slug:            g.Slug,
		Title:           g.GoodsName,
		Description:     g.GoodsDescription,
		Images:          images,
		Price:           price,
		CurrencySymbol:  g.CurrencySymbol,
		LocationParts:   []string{g.City, g.State, g.Country},
		Tags:            splitTags(g.Tags),
		Vendor:          vendor,
		ReportedAverage: reportedAverage("average_rating", g.AverageRating, an),
		Flags:           flags,
		CreatedAt:       parseTimestamp("created_at", g.CreatedAt, an),
		UpdatedAt:       parseTimestamp("updated_at", g.UpdatedAt, an),
	}
	return draft, an.list, nil
}

// WithStatus copies the goods entity and replaces goods_status only.
func (a *GoodsAdapter) WithStatus(rec models.SourceRecord, value string) (models.SourceRecord, error) {
	if rec.Kind != models.SourceGoods || rec.Goods == nil {
		return models.SourceRecord{}, recordMismatch(models.SourceGoods, rec)
	}
	patched := *rec.Goods
	patched.GoodsStatus = &value
	return models.GoodsRecord(&patched), nil
}

func (a *GoodsAdapter) SubmitStatus(ctx context.Context, rec models.SourceRecord) (bool, error) {
	if rec.Kind != models.SourceGoods || rec.Goods == nil || rec.Goods.GoodsStatus == nil {
		return false, recordMismatch(models.SourceGoods, rec)
	}
	ok, err := a.backend.UpdateGoodsStatus(ctx, rec.Goods.ID, *rec.Goods.GoodsStatus)
	if err != nil {
		return false, classifyWriteError(models.SourceGoods, rec.Goods.ID, err)
	}
	return ok, nil
}

func (a *GoodsAdapter) Remove(ctx context.Context, id int64) (bool, error) {
	ok, err := a.backend.DeleteGoods(ctx, id)
	if err != nil {
		return false, classifyWriteError(models.SourceGoods, id, err)
	}
	return ok, nil
}
