package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/GTDGit/catalog_api/internal/models"
)

// ExternalAdapter maps third-party search hits. Hits arrive already fetched, so
// there is nothing to look up by id or slug.
type ExternalAdapter struct{}

// NewExternalAdapter creates a new ExternalAdapter
func NewExternalAdapter() *ExternalAdapter {
	return &ExternalAdapter{}
}

func (a *ExternalAdapter) Kind() models.SourceKind {
	return models.SourceExternal
}

func (a *ExternalAdapter) FetchOne(ctx context.Context, id int64) (models.SourceRecord, error) {
	return models.SourceRecord{}, ErrSourceNotAddressable
}

func (a *ExternalAdapter) FetchBySlug(ctx context.Context, slug string) (models.SourceRecord, error) {
	return models.SourceRecord{}, ErrSourceNotAddressable
}

func (a *ExternalAdapter) FetchMany(ctx context.Context, limit int) ([]models.SourceRecord, error) {
	return nil, ErrSourceNotAddressable
}

// MapToCanonical maps a search hit. A numeric price is fixed, a pre-formatted one is shown as is.
func (a *ExternalAdapter) MapToCanonical(rec models.SourceRecord) (*ListingDraft, []MalformedSourceDataError, error) {
	if rec.Kind != models.SourceExternal || rec.External == nil {
		return nil, nil, recordMismatch(models.SourceExternal, rec)
	}
	e := rec.External
	id := rec.ID()
	an := newAnomalies(models.SourceExternal, id.String())

	price := models.DisplayPrice(models.PriceNotAvailable)
	if e.Price.Valid {
		price = models.FixedPrice(e.Price.Value)
	} else if text, ok := e.Price.Text(); ok && text != "" {
		price = models.DisplayPrice(text)
	} else if e.Price.Malformed() {
		an.add("price", string(e.Price.Raw), models.PriceNotAvailable)
	}

	images := append([]string(nil), e.Images...)
	if len(images) == 0 {
		images = append(images, e.Thumbnail)
	}

	vendor := models.Vendor{Name: strings.TrimSpace(e.SellerName)}
	if vendor.Name == "" {
		vendor.Name = strings.TrimSpace(e.Source)
	}
	if vendor.Name == "" {
		vendor.Name = unknownUser
	}

	var avg *float64
	if e.Rating.Valid {
		v := e.Rating.Value
		avg = &v
		vendor.Rating = v
	} else if e.Rating.Malformed() {
		an.add("rating", string(e.Rating.Raw), "0")
	}
	count := e.ReviewCount
	if count < 0 {
		an.add("review_count", strconv.Itoa(count), "0")
		count = 0
	}

	draft := &ListingDraft{
		ID:              id,
		Kind:            models.SourceExternal,
		Title:           e.Title,
		Description:     e.Description,
		Images:          images,
		Price:           price,
		CurrencySymbol:  e.Currency,
		LocationParts:   []string{e.Location},
		Tags:            splitTags(e.Tags),
		Vendor:          vendor,
		ReportedAverage: avg,
		ReportedCount:   count,
		Flags:           models.Flags{IsPromoted: e.Sponsored},
		External: &models.ExternalExtras{
			Source:    e.Source,
			URL:       e.URL,
			Sponsored: e.Sponsored,
		},
	}
	return draft, an.list, nil
}
