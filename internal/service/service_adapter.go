package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/GTDGit/catalog_api/internal/models"
	"github.com/GTDGit/catalog_api/pkg/marketplace"
)

// ServiceBackend is the part of the marketplace client the service adapter uses.
type ServiceBackend interface {
	GetService(ctx context.Context, id int64) (*marketplace.ServiceEntity, error)
	GetServiceBySlug(ctx context.Context, slug string) (*marketplace.ServiceEntity, error)
	ListServices(ctx context.Context, limit int) ([]marketplace.ServiceEntity, error)
	UpdateServiceStatus(ctx context.Context, id int64, status string) (bool, error)
	DeleteService(ctx context.Context, id int64) (bool, error)
}

// ServiceAdapter reads and writes service listings.
type ServiceAdapter struct {
	backend ServiceBackend
}

// NewServiceAdapter creates a new ServiceAdapter
func NewServiceAdapter(backend ServiceBackend) *ServiceAdapter {
	return &ServiceAdapter{backend: backend}
}

func (a *ServiceAdapter) Kind() models.SourceKind {
	return models.SourceService
}

func (a *ServiceAdapter) FetchOne(ctx context.Context, id int64) (models.SourceRecord, error) {
	s, err := a.backend.GetService(ctx, id)
	if err != nil {
		return models.SourceRecord{}, classifyFetchError(models.SourceService, "fetch", strconv.FormatInt(id, 10), err)
	}
	return models.ServiceRecord(s), nil
}

func (a *ServiceAdapter) FetchBySlug(ctx context.Context, slug string) (models.SourceRecord, error) {
	s, err := a.backend.GetServiceBySlug(ctx, slug)
	if err != nil {
		return models.SourceRecord{}, classifyFetchError(models.SourceService, "fetch", slug, err)
	}
	return models.ServiceRecord(s), nil
}

func (a *ServiceAdapter) FetchMany(ctx context.Context, limit int) ([]models.SourceRecord, error) {
	services, err := a.backend.ListServices(ctx, limit)
	if err != nil {
		return nil, &LoadFailure{Op: "list", Source: models.SourceService, Err: err}
	}
	records := make([]models.SourceRecord, 0, len(services))
	for i := range services {
		records = append(records, models.ServiceRecord(&services[i]))
	}
	return records, nil
}

// MapToCanonical maps service_* fields. Prices always come out as a range.
func (a *ServiceAdapter) MapToCanonical(rec models.SourceRecord) (*ListingDraft, []MalformedSourceDataError, error) {
	if rec.Kind != models.SourceService || rec.Service == nil {
		return nil, nil, recordMismatch(models.SourceService, rec)
	}
	s := rec.Service
	id := rec.ID()
	an := newAnomalies(models.SourceService, id.String())

	images := make([]string, 0, len(s.GalleryImages)+1)
	images = append(images, s.FeaturedImage)
	images = append(images, s.GalleryImages...)

	vendor := vendorFromUser(s.UserDetails, an)
	flags := models.Flags{IsPromoted: s.IsPromoted, IsFeatured: s.IsFeatured}
	if s.UserDetails != nil {
		flags.IsVerified = s.UserDetails.IsVerified
	}

	draft := &ListingDraft{
		ID:              id,
		Kind:            models.SourceService,
		Slug:            s.Slug,
		Title:           s.ServiceName,
		Description:     s.ServiceDescription,
		Images:          images,
		Price:           servicePrice(s, an),
		CurrencySymbol:  s.CurrencySymbol,
		LocationParts:   []string{s.Address},
		Tags:            splitTags(s.Tags),
		Vendor:          vendor,
		ReportedAverage: reportedAverage("average_rating", s.AverageRating, an),
		Flags:           flags,
		Service: &models.ServiceExtras{
			ServesRemote: s.ServesRemote,
			ResponseTime: strings.TrimSpace(s.ResponseTime),
		},
		CreatedAt: parseTimestamp("created_at", s.CreatedAt, an),
		UpdatedAt: parseTimestamp("updated_at", s.UpdatedAt, an),
	}
	return draft, an.list, nil
}

// servicePrice builds range(starting, max ?? starting). A max below the starting price is
// reported and collapsed to the starting price.
func servicePrice(s *marketplace.ServiceEntity, an *anomalies) models.Price {
	var start float64
	switch {
	case s.StartingPrice.Valid && s.StartingPrice.Value >= 0:
		start = s.StartingPrice.Value
	case s.StartingPrice.Valid:
		an.add("starting_price", strconv.FormatFloat(s.StartingPrice.Value, 'f', -1, 64), "0")
	case s.StartingPrice.Malformed():
		an.add("starting_price", string(s.StartingPrice.Raw), "0")
	default:
		an.add("starting_price", "null", "0")
	}

	switch {
	case s.MaxPrice.Valid && s.MaxPrice.Value < start:
		an.add("max_price", strconv.FormatFloat(s.MaxPrice.Value, 'f', -1, 64), "starting_price")
		return models.RangePrice(start, start)
	case s.MaxPrice.Valid:
		return models.RangePrice(start, s.MaxPrice.Value)
	case s.MaxPrice.Malformed():
		an.add("max_price", string(s.MaxPrice.Raw), "starting_price")
	}
	return models.RangePrice(start, start)
}

// WithStatus copies the service entity and replaces service_status only.
func (a *ServiceAdapter) WithStatus(rec models.SourceRecord, value string) (models.SourceRecord, error) {
	if rec.Kind != models.SourceService || rec.Service == nil {
		return models.SourceRecord{}, recordMismatch(models.SourceService, rec)
	}
	patched := *rec.Service
	patched.ServiceStatus = &value
	return models.ServiceRecord(&patched), nil
}

func (a *ServiceAdapter) SubmitStatus(ctx context.Context, rec models.SourceRecord) (bool, error) {
	if rec.Kind != models.SourceService || rec.Service == nil || rec.Service.ServiceStatus == nil {
		return false, recordMismatch(models.SourceService, rec)
	}
	ok, err := a.backend.UpdateServiceStatus(ctx, rec.Service.ID, *rec.Service.ServiceStatus)
	if err != nil {
		return false, classifyWriteError(models.SourceService, rec.Service.ID, err)
	}
	return ok, nil
}

func (a *ServiceAdapter) Remove(ctx context.Context, id int64) (bool, error) {
	ok, err := a.backend.DeleteService(ctx, id)
	if err != nil {
		return false, classifyWriteError(models.SourceService, id, err)
	}
	return ok, nil
}
