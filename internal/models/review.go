package models

import "time"

// Review is a single canonical review, independent of the listing kind it came from.
type Review struct {
	ID         int64             `json:"id"`
	Rating     float64           `json:"rating"`
	Text       string            `json:"text"`
	AuthorName string            `json:"authorName"`
	CreatedAt  time.Time         `json:"createdAt"`
	Verified   bool              `json:"verified"`
	SubRatings *ReviewSubRatings `json:"subRatings,omitempty"`
}

// ReviewSubRatings carries the optional kind-specific review details.
type ReviewSubRatings struct {
	// goods
	Pros string `json:"pros,omitempty"`
	Cons string `json:"cons,omitempty"`

	// service
	Communication  *float64 `json:"communication,omitempty"`
	Quality        *float64 `json:"quality,omitempty"`
	Timeliness     *float64 `json:"timeliness,omitempty"`
	WouldHireAgain *bool    `json:"wouldHireAgain,omitempty"`
}

// IsZero reports whether no sub-rating is set.
func (s ReviewSubRatings) IsZero() bool {
	return s.Pros == "" && s.Cons == "" && s.Communication == nil &&
		s.Quality == nil && s.Timeliness == nil && s.WouldHireAgain == nil
}
