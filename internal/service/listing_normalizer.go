package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/catalog_api/internal/models"
)

const (
	locationNotSpecified = "Location not specified"

	DefaultPlaceholderImage = "/images/placeholder.png"
	DefaultCurrencySymbol   = "₦"
)

var repeatedCommas = regexp.MustCompile(`\s*,(\s*,)+\s*`)

// AnomalyHook receives per-field problems found while normalizing.
type AnomalyHook func(MalformedSourceDataError)

// LogAnomaly is the default hook.
func LogAnomaly(a MalformedSourceDataError) {
	log.Warn().
		Str("kind", string(a.Kind)).
		Str("record", a.RecordID).
		Str("field", a.Field).
		Str("value", a.Value).
		Str("default", a.Default).
		Msg("Malformed source data")
}

// NormalizerConfig holds the defaults substituted for missing fields.
type NormalizerConfig struct {
	PlaceholderImage string
	CurrencySymbol   string
	OnAnomaly        AnomalyHook
}

// Normalizer turns any SourceRecord into a canonical Listing.
type Normalizer struct {
	adapters    map[models.SourceKind]SourceAdapter
	reviews     *ReviewAggregator
	placeholder string
	currency    string
	onAnomaly   AnomalyHook
}

// NewNormalizer creates a new Normalizer over the given adapters
func NewNormalizer(cfg NormalizerConfig, adapters ...SourceAdapter) *Normalizer {
	if cfg.PlaceholderImage == "" {
		cfg.PlaceholderImage = DefaultPlaceholderImage
	}
	if cfg.CurrencySymbol == "" {
		cfg.CurrencySymbol = DefaultCurrencySymbol
	}
	if cfg.OnAnomaly == nil {
		cfg.OnAnomaly = LogAnomaly
	}
	n := &Normalizer{
		adapters:    make(map[models.SourceKind]SourceAdapter, len(adapters)),
		reviews:     NewReviewAggregator(cfg.OnAnomaly),
		placeholder: cfg.PlaceholderImage,
		currency:    cfg.CurrencySymbol,
		onAnomaly:   cfg.OnAnomaly,
	}
	for _, a := range adapters {
		n.adapters[a.Kind()] = a
	}
	return n
}

// Reviews returns the aggregator used for rating summaries.
func (n *Normalizer) Reviews() *ReviewAggregator {
	return n.reviews
}

// Normalize maps rec onto a Listing. It fails only when the record's tag and payload
// disagree or no adapter serves its kind; bad field values are defaulted and reported.
func (n *Normalizer) Normalize(rec models.SourceRecord) (*models.Listing, error) {
	if !rec.Consistent() {
		return nil, fmt.Errorf("inconsistent source record of kind %q", rec.Kind)
	}
	adapter, ok := n.adapters[rec.Kind]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for %q", rec.Kind)
	}

	draft, found, err := adapter.MapToCanonical(rec)
	if err != nil {
		return nil, err
	}
	for i := range found {
		n.onAnomaly(found[i])
	}

	status := models.DefaultLifecycleStatus
	if rec.Kind != models.SourceExternal {
		var anomaly *MalformedSourceDataError
		status, anomaly = deriveStatus(rec)
		if anomaly != nil {
			n.onAnomaly(*anomaly)
		}
	}

	reviews := n.reviews.MergeReviews(rec)

	currency := strings.TrimSpace(draft.CurrencySymbol)
	if currency == "" {
		currency = n.currency
	}

	return &models.Listing{
		ID:              draft.ID,
		SourceKind:      draft.Kind,
		Slug:            strings.TrimSpace(draft.Slug),
		Title:           strings.TrimSpace(draft.Title),
		Description:     strings.TrimSpace(draft.Description),
		Images:          normalizeImages(draft.Images, n.placeholder),
		Price:           draft.Price,
		CurrencySymbol:  currency,
		Location:        normalizeLocation(draft.LocationParts),
		Tags:            normalizeTags(draft.Tags),
		Vendor:          draft.Vendor,
		RatingSummary:   Summarize(reviews, draft.ReportedAverage, draft.ReportedCount),
		LifecycleStatus: status,
		Flags:           draft.Flags,
		Service:         draft.Service,
		External:        draft.External,
		CreatedAt:       draft.CreatedAt,
		UpdatedAt:       draft.UpdatedAt,
	}, nil
}

// NormalizeAll normalizes records in order, skipping and logging the ones that fail.
func (n *Normalizer) NormalizeAll(records []models.SourceRecord) []models.Listing {
	out := make([]models.Listing, 0, len(records))
	for _, rec := range records {
		l, err := n.Normalize(rec)
		if err != nil {
			log.Warn().Err(err).Str("kind", string(rec.Kind)).Msg("Skipping record")
			continue
		}
		out = append(out, *l)
	}
	return out
}

// normalizeImages drops empties and duplicates, keeping order. An empty result gets the placeholder.
func normalizeImages(candidates []string, placeholder string) []string {
	seen := make(map[string]struct{}, len(candidates))
	images := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		images = append(images, c)
	}
	if len(images) == 0 {
		images = append(images, placeholder)
	}
	return images
}

// normalizeLocation joins the non-empty parts with ", ".
func normalizeLocation(parts []string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	loc := strings.Join(kept, ", ")
	loc = repeatedCommas.ReplaceAllString(loc, ", ")
	loc = strings.Trim(loc, ", ")
	if loc == "" {
		return locationNotSpecified
	}
	return loc
}

// normalizeTags trims, drops empties and de-duplicates, keeping the first occurrence.
func normalizeTags(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	return tags
}
