package marketplace

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Number is a JSON number that tolerates the shapes the backend actually sends:
// plain numbers, numeric strings, empty strings and null. Anything else is kept
// in Raw so callers can report it instead of failing the whole decode.
type Number struct {
	Value float64
	Valid bool
	Raw   json.RawMessage
}

// Num returns a valid Number.
func Num(v float64) Number {
	return Number{Value: v, Valid: true}
}

// UnmarshalJSON never fails; unreadable tokens land in Raw.
func (n *Number) UnmarshalJSON(b []byte) error {
	s := bytes.TrimSpace(b)
	if len(s) == 0 || string(s) == "null" {
		*n = Number{}
		return nil
	}
	if f, err := strconv.ParseFloat(string(s), 64); err == nil {
		*n = Number{Value: f, Valid: true}
		return nil
	}
	var str string
	if err := json.Unmarshal(s, &str); err == nil {
		str = strings.TrimSpace(str)
		if str == "" {
			*n = Number{}
			return nil
		}
		if f, err := strconv.ParseFloat(str, 64); err == nil {
			*n = Number{Value: f, Valid: true}
			return nil
		}
	}
	*n = Number{Raw: append(json.RawMessage(nil), s...)}
	return nil
}

// MarshalJSON writes the value back in the shape it was received.
func (n Number) MarshalJSON() ([]byte, error) {
	if n.Valid {
		return json.Marshal(n.Value)
	}
	if len(n.Raw) > 0 {
		return n.Raw, nil
	}
	return []byte("null"), nil
}

// Malformed reports a value that was present but not numeric.
func (n Number) Malformed() bool {
	return !n.Valid && len(n.Raw) > 0
}

// Text returns the raw token as a string when the backend sent text.
func (n Number) Text() (string, bool) {
	if n.Valid || len(n.Raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(n.Raw, &s); err != nil {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// UserDetails is the owner block embedded in goods and service payloads.
type UserDetails struct {
	ID             int64  `json:"id,omitempty"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	IsVerified     bool   `json:"is_verified,omitempty"`
	Rating         Number `json:"rating,omitempty"`
}

// GoodsRating is a single review left on a goods listing.
type GoodsRating struct {
	ID                 int64        `json:"id"`
	Rating             Number       `json:"rating"`
	Review             string       `json:"review"`
	Pros               string       `json:"pros,omitempty"`
	Cons               string       `json:"cons,omitempty"`
	User               *UserDetails `json:"user,omitempty"`
	IsVerifiedPurchase bool         `json:"is_verified_purchase"`
	CreatedAt          string       `json:"created_at"`
}

// ServiceRating is a single review left on a service listing.
type ServiceRating struct {
	ID                  int64        `json:"id"`
	Rating              Number       `json:"rating"`
	Review              string       `json:"review"`
	CommunicationRating Number       `json:"communication_rating,omitempty"`
	QualityRating       Number       `json:"quality_rating,omitempty"`
	TimelinessRating    Number       `json:"timeliness_rating,omitempty"`
	WouldHireAgain      *bool        `json:"would_hire_again,omitempty"`
	User                *UserDetails `json:"user,omitempty"`
	IsVerified          bool         `json:"is_verified"`
	CreatedAt           string       `json:"created_at"`
}

// GoodsEntity is the backend representation of a goods listing.
type GoodsEntity struct {
	ID               int64         `json:"id"`
	Slug             string        `json:"slug"`
	GoodsName        string        `json:"goods_name"`
	GoodsDescription string        `json:"goods_description"`
	GoodsPrice       Number        `json:"goods_price"`
	GoodsImage       string        `json:"goods_image"`
	GalleryImages    []string      `json:"gallery_images"`
	City             string        `json:"city"`
	State            string        `json:"state"`
	Country          string        `json:"country"`
	Tags             string        `json:"tags"`
	CurrencySymbol   string        `json:"currency_symbol,omitempty"`
	UserDetails      *UserDetails  `json:"user_details"`
	AverageRating    Number        `json:"average_rating"`
	GoodsStatus      *string       `json:"goods_status"`
	GoodsRatings     []GoodsRating `json:"goods_ratings"`
	IsPromoted       bool          `json:"is_promoted"`
	IsFeatured       bool          `json:"is_featured"`
	CreatedAt        string        `json:"created_at"`
	UpdatedAt        string        `json:"updated_at"`
}

// ServiceEntity is the backend representation of a service listing.
type ServiceEntity struct {
	ID                 int64           `json:"id"`
	Slug               string          `json:"slug"`
	ServiceName        string          `json:"service_name"`
	ServiceDescription string          `json:"service_description"`
	StartingPrice      Number          `json:"starting_price"`
	MaxPrice           Number          `json:"max_price"`
	FeaturedImage      string          `json:"featured_image"`
	GalleryImages      []string        `json:"gallery_images"`
	Address            string          `json:"address"`
	Tags               string          `json:"tags"`
	CurrencySymbol     string          `json:"currency_symbol,omitempty"`
	UserDetails        *UserDetails    `json:"user_details"`
	AverageRating      Number          `json:"average_rating"`
	ServiceStatus      *string         `json:"service_status"`
	ServiceRatings     []ServiceRating `json:"service_ratings"`
	ServesRemote       bool            `json:"serves_remote"`
	ResponseTime       string          `json:"response_time"`
	IsPromoted         bool            `json:"is_promoted"`
	IsFeatured         bool            `json:"is_featured"`
	CreatedAt          string          `json:"created_at"`
	UpdatedAt          string          `json:"updated_at"`
}

// ExternalResult is a third-party marketplace hit produced by conversational search.
// Price is either a number or a pre-formatted string such as "$12.99".
type ExternalResult struct {
	Source      string   `json:"source"`
	Key         string   `json:"key"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       Number   `json:"price"`
	Currency    string   `json:"currency,omitempty"`
	Images      []string `json:"images"`
	Thumbnail   string   `json:"thumbnail,omitempty"`
	URL         string   `json:"url"`
	Location    string   `json:"location,omitempty"`
	Tags        string   `json:"tags,omitempty"`
	SellerName  string   `json:"seller_name,omitempty"`
	Rating      Number   `json:"rating,omitempty"`
	ReviewCount int      `json:"review_count,omitempty"`
	Sponsored   bool     `json:"sponsored,omitempty"`
}

// apiResponse is the envelope every backend endpoint answers with.
type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// StatusUpdateRequest is the body of a status patch.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}
