package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/GTDGit/catalog_api/internal/models"
	"github.com/GTDGit/catalog_api/pkg/marketplace"
)

const unknownUser = "Unknown User"

// SourceAdapter reads one backend entity kind and maps it onto the canonical shape.
type SourceAdapter interface {
	// Kind returns the source kind this adapter serves
	Kind() models.SourceKind

	// FetchOne fetches a record by numeric id
	FetchOne(ctx context.Context, id int64) (models.SourceRecord, error)

	// FetchBySlug fetches a record by slug
	FetchBySlug(ctx context.Context, slug string) (models.SourceRecord, error)

	// FetchMany fetches up to limit records
	FetchMany(ctx context.Context, limit int) ([]models.SourceRecord, error)

	// MapToCanonical absorbs field naming and value shapes into a draft
	MapToCanonical(rec models.SourceRecord) (*ListingDraft, []MalformedSourceDataError, error)
}

// StatusWriter is implemented by adapters whose backend accepts write-backs.
type StatusWriter interface {
	// WithStatus returns a copy of rec whose status field is value. Nothing else changes.
	WithStatus(rec models.SourceRecord, value string) (models.SourceRecord, error)

	// SubmitStatus sends the status of rec to the backend. false means the backend refused.
	SubmitStatus(ctx context.Context, rec models.SourceRecord) (bool, error)

	// Remove deletes the record. false means the backend refused.
	Remove(ctx context.Context, id int64) (bool, error)
}

// ListingDraft is the adapter output: names and shapes unified, no defaults applied yet.
type ListingDraft struct {
	ID              models.ListingID
	Kind            models.SourceKind
	Slug            string
	Title           string
	Description     string
	Images          []string
	Price           models.Price
	CurrencySymbol  string
	LocationParts   []string
	Tags            []string
	Vendor          models.Vendor
	ReportedAverage *float64
	ReportedCount   int
	Flags           models.Flags
	Service         *models.ServiceExtras
	External        *models.ExternalExtras
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// anomalies collects per-field problems for one record.
type anomalies struct {
	kind     models.SourceKind
	recordID string
	list     []MalformedSourceDataError
}

func newAnomalies(kind models.SourceKind, recordID string) *anomalies {
	return &anomalies{kind: kind, recordID: recordID}
}

func (a *anomalies) add(field, value, def string) {
	a.list = append(a.list, MalformedSourceDataError{
		Kind:     a.kind,
		RecordID: a.recordID,
		Field:    field,
		Value:    value,
		Default:  def,
	})
}

// vendorFromUser assembles the vendor block: first+last, then username, then a fixed fallback.
func vendorFromUser(u *marketplace.UserDetails, a *anomalies) models.Vendor {
	if u == nil {
		return models.Vendor{Name: unknownUser}
	}
	v := models.Vendor{
		Name:      displayName(u),
		AvatarRef: strings.TrimSpace(u.ProfilePicture),
	}
	if u.Rating.Valid {
		v.Rating = u.Rating.Value
	} else if u.Rating.Malformed() {
		a.add("user_details.rating", string(u.Rating.Raw), "0")
	}
	return v
}

func displayName(u *marketplace.UserDetails) string {
	if u == nil {
		return unknownUser
	}
	full := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if full != "" {
		return full
	}
	if name := strings.TrimSpace(u.Username); name != "" {
		return name
	}
	return unknownUser
}

// splitTags splits a comma separated tag string. Cleanup happens in the normalizer.
func splitTags(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	return strings.Split(csv, ",")
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp reads the backend timestamp formats. Empty is the zero time, unreadable is an anomaly.
func parseTimestamp(field, raw string, a *anomalies) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	a.add(field, strconv.Quote(raw), "zero time")
	return time.Time{}
}

// reportedAverage reads an average_rating field.
func reportedAverage(field string, n marketplace.Number, a *anomalies) *float64 {
	if n.Valid {
		v := n.Value
		return &v
	}
	if n.Malformed() {
		a.add(field, string(n.Raw), "computed from reviews")
	}
	return nil
}

// classifyFetchError turns a client error into NotFoundError or LoadFailure.
func classifyFetchError(kind models.SourceKind, op, ref string, err error) error {
	if errors.Is(err, marketplace.ErrNotFound) {
		return &NotFoundError{Ref: ref, Probed: []models.SourceKind{kind}}
	}
	return &LoadFailure{Op: op, Source: kind, Err: err}
}

// classifyWriteError reports a listing that vanished before a write as not found;
// other errors pass through for the caller to wrap.
func classifyWriteError(kind models.SourceKind, id int64, err error) error {
	if errors.Is(err, marketplace.ErrNotFound) {
		return &NotFoundError{Ref: models.ListingID{Kind: kind, ID: id}.String(), Probed: []models.SourceKind{kind}}
	}
	return err
}

func recordMismatch(want models.SourceKind, rec models.SourceRecord) error {
	return errors.New("record of kind " + string(rec.Kind) + " passed to " + string(want) + " adapter")
}
