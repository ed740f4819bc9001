package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SourceKind identifies the backend entity type a listing was derived from.
type SourceKind string

const (
	SourceGoods    SourceKind = "goods"
	SourceService  SourceKind = "service"
	SourceExternal SourceKind = "external"
)

// ParseSourceKind accepts the kind names used in URLs ("goods", "service", "services", "external").
func ParseSourceKind(s string) (SourceKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "goods":
		return SourceGoods, true
	case "service", "services":
		return SourceService, true
	case "external":
		return SourceExternal, true
	}
	return "", false
}

// Addressable reports whether listings of this kind can be fetched and mutated by id.
func (k SourceKind) Addressable() bool {
	return k == SourceGoods || k == SourceService
}

// ListingID is the composite identity of a canonical listing. Goods and service
// listings use the numeric backend id; external hits use source + key.
type ListingID struct {
	Kind SourceKind
	ID   int64
	Key  string
}

// String renders the id as "goods:12", "service:7" or "external:etsy:abc".
func (id ListingID) String() string {
	if id.Kind == SourceExternal {
		return string(id.Kind) + ":" + id.Key
	}
	return string(id.Kind) + ":" + strconv.FormatInt(id.ID, 10)
}

// MarshalJSON writes the string form.
func (id ListingID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON reads the string form.
func (id *ListingID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseListingID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ErrInvalidListingID is returned when a listing id string cannot be parsed.
var ErrInvalidListingID = errors.New("invalid listing id")

// ParseListingID parses the String form of a ListingID.
func ParseListingID(s string) (ListingID, error) {
	kindPart, rest, ok := strings.Cut(s, ":")
	if !ok || rest == "" {
		return ListingID{}, fmt.Errorf("%w: %q", ErrInvalidListingID, s)
	}
	kind, ok := ParseSourceKind(kindPart)
	if !ok {
		return ListingID{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidListingID, kindPart)
	}
	if kind == SourceExternal {
		return ListingID{Kind: kind, Key: rest}, nil
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || n <= 0 {
		return ListingID{}, fmt.Errorf("%w: %q", ErrInvalidListingID, s)
	}
	return ListingID{Kind: kind, ID: n}, nil
}

// PriceType discriminates the Price union.
type PriceType string

const (
	PriceFixed   PriceType = "fixed"
	PriceRange   PriceType = "range"
	PriceDisplay PriceType = "display"
)

// PriceNotAvailable is the display text used when a source carries no usable price.
const PriceNotAvailable = "Price not available"

// Price is a discriminated union: Fixed(amount) | Range(min, max) | Display(text).
// Only the fields belonging to Type are meaningful.
type Price struct {
	Type   PriceType
	Amount float64
	Min    float64
	Max    float64
	Text   string
}

// FixedPrice builds a single-amount price.
func FixedPrice(amount float64) Price {
	return Price{Type: PriceFixed, Amount: amount}
}

// RangePrice builds a min/max price. A max below min is raised to min.
func RangePrice(minAmount, maxAmount float64) Price {
	if maxAmount < minAmount {
		maxAmount = minAmount
	}
	return Price{Type: PriceRange, Min: minAmount, Max: maxAmount}
}

// DisplayPrice builds a pre-formatted price.
func DisplayPrice(text string) Price {
	return Price{Type: PriceDisplay, Text: text}
}

type priceJSON struct {
	Type   PriceType `json:"type"`
	Amount *float64  `json:"amount,omitempty"`
	Min    *float64  `json:"min,omitempty"`
	Max    *float64  `json:"max,omitempty"`
	Text   string    `json:"text,omitempty"`
}

// MarshalJSON emits only the fields of the active variant.
func (p Price) MarshalJSON() ([]byte, error) {
	out := priceJSON{Type: p.Type}
	switch p.Type {
	case PriceFixed:
		out.Amount = &p.Amount
	case PriceRange:
		out.Min, out.Max = &p.Min, &p.Max
	case PriceDisplay:
		out.Text = p.Text
	default:
		return nil, fmt.Errorf("unknown price type %q", p.Type)
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the variant written by MarshalJSON.
func (p *Price) UnmarshalJSON(b []byte) error {
	var in priceJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	switch in.Type {
	case PriceFixed:
		if in.Amount == nil {
			return errors.New("fixed price without amount")
		}
		*p = FixedPrice(*in.Amount)
	case PriceRange:
		if in.Min == nil || in.Max == nil {
			return errors.New("range price without bounds")
		}
		*p = RangePrice(*in.Min, *in.Max)
	case PriceDisplay:
		*p = DisplayPrice(in.Text)
	default:
		return fmt.Errorf("unknown price type %q", in.Type)
	}
	return nil
}

// Vendor is the seller block shown next to a listing.
type Vendor struct {
	Name      string  `json:"name"`
	AvatarRef string  `json:"avatarRef,omitempty"`
	Rating    float64 `json:"rating"`
}

// RatingSummary aggregates reviews. HasRatings separates "no ratings yet" from a low average.
type RatingSummary struct {
	Average    float64 `json:"average"`
	Count      int     `json:"count"`
	HasRatings bool    `json:"hasRatings"`
}

// NewRatingSummary enforces count == 0 => average == 0.
func NewRatingSummary(average float64, count int) RatingSummary {
	if count <= 0 {
		return RatingSummary{}
	}
	return RatingSummary{Average: average, Count: count, HasRatings: true}
}

// Flags are the promotional markers a listing can carry.
type Flags struct {
	IsPromoted bool `json:"isPromoted"`
	IsFeatured bool `json:"isFeatured"`
	IsVerified bool `json:"isVerified"`
}

// ServiceExtras holds fields that only service listings have.
type ServiceExtras struct {
	ServesRemote bool   `json:"servesRemote"`
	ResponseTime string `json:"responseTime,omitempty"`
}

// ExternalExtras holds fields that only third-party hits have.
type ExternalExtras struct {
	Source    string `json:"source"`
	URL       string `json:"url,omitempty"`
	Sponsored bool   `json:"sponsored,omitempty"`
}

// Listing is the canonical, kind-agnostic representation consumed by every surface.
type Listing struct {
	ID              ListingID       `json:"id"`
	SourceKind      SourceKind      `json:"sourceKind"`
	Slug            string          `json:"slug,omitempty"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Images          []string        `json:"images"`
	Price           Price           `json:"price"`
	CurrencySymbol  string          `json:"currencySymbol"`
	Location        string          `json:"location"`
	Tags            []string        `json:"tags"`
	Vendor          Vendor          `json:"vendor"`
	RatingSummary   RatingSummary   `json:"ratingSummary"`
	LifecycleStatus LifecycleStatus `json:"lifecycleStatus"`
	Flags           Flags           `json:"flags"`
	Service         *ServiceExtras  `json:"service,omitempty"`
	External        *ExternalExtras `json:"external,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// PrimaryImage returns the first image.
func (l *Listing) PrimaryImage() string {
	if len(l.Images) == 0 {
		return ""
	}
	return l.Images[0]
}
