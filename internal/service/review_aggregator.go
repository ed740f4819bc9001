package service

import (
	"strconv"
	"strings"

	"github.com/GTDGit/catalog_api/internal/models"
	"github.com/GTDGit/catalog_api/pkg/marketplace"
)

const (
	minReviewRating = 0
	maxReviewRating = 5
)

// ReviewAggregator merges kind-specific review arrays into canonical reviews.
type ReviewAggregator struct {
	onAnomaly AnomalyHook
}

// NewReviewAggregator creates a new ReviewAggregator. A nil hook logs anomalies.
func NewReviewAggregator(onAnomaly AnomalyHook) *ReviewAggregator {
	if onAnomaly == nil {
		onAnomaly = LogAnomaly
	}
	return &ReviewAggregator{onAnomaly: onAnomaly}
}

// MergeReviews returns the record's reviews in source order. Reviews with an
// unreadable rating are dropped and reported.
func (r *ReviewAggregator) MergeReviews(rec models.SourceRecord) []models.Review {
	an := newAnomalies(rec.Kind, rec.ID().String())
	var reviews []models.Review

	switch rec.Kind {
	case models.SourceGoods:
		if rec.Goods == nil {
			break
		}
		reviews = make([]models.Review, 0, len(rec.Goods.GoodsRatings))
		for _, gr := range rec.Goods.GoodsRatings {
			rating, ok := reviewRating(gr.ID, gr.Rating, an)
			if !ok {
				continue
			}
			review := models.Review{
				ID:         gr.ID,
				Rating:     rating,
				Text:       strings.TrimSpace(gr.Review),
				AuthorName: displayName(gr.User),
				CreatedAt:  parseTimestamp(reviewField(gr.ID, "created_at"), gr.CreatedAt, an),
				Verified:   gr.IsVerifiedPurchase,
			}
			sub := models.ReviewSubRatings{Pros: strings.TrimSpace(gr.Pros), Cons: strings.TrimSpace(gr.Cons)}
			if !sub.IsZero() {
				review.SubRatings = &sub
			}
			reviews = append(reviews, review)
		}
	case models.SourceService:
		if rec.Service == nil {
			break
		}
		reviews = make([]models.Review, 0, len(rec.Service.ServiceRatings))
		for _, sr := range rec.Service.ServiceRatings {
			rating, ok := reviewRating(sr.ID, sr.Rating, an)
			if !ok {
				continue
			}
			review := models.Review{
				ID:         sr.ID,
				Rating:     rating,
				Text:       strings.TrimSpace(sr.Review),
				AuthorName: displayName(sr.User),
				CreatedAt:  parseTimestamp(reviewField(sr.ID, "created_at"), sr.CreatedAt, an),
				Verified:   sr.IsVerified,
			}
			sub := models.ReviewSubRatings{
				Communication:  subRating(sr.ID, "communication_rating", sr.CommunicationRating, an),
				Quality:        subRating(sr.ID, "quality_rating", sr.QualityRating, an),
				Timeliness:     subRating(sr.ID, "timeliness_rating", sr.TimelinessRating, an),
				WouldHireAgain: sr.WouldHireAgain,
			}
			if !sub.IsZero() {
				review.SubRatings = &sub
			}
			reviews = append(reviews, review)
		}
	case models.SourceExternal:
		// hits carry only an aggregate rating
	}

	for i := range an.list {
		r.onAnomaly(an.list[i])
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return reviews
}

// RecomputeAverage returns the average after adding newRating to existing. No rounding.
func RecomputeAverage(existing []float64, newRating float64) float64 {
	sum := newRating
	for _, v := range existing {
		sum += v
	}
	return sum / float64(len(existing)+1)
}

// Summarize builds the rating summary. The count is the number of reviews, or the
// source's reported count when it ships none. The reported average wins over the mean.
func Summarize(reviews []models.Review, reportedAverage *float64, reportedCount int) models.RatingSummary {
	count := len(reviews)
	if count == 0 {
		count = reportedCount
	}
	if count <= 0 {
		return models.RatingSummary{}
	}

	if reportedAverage != nil {
		return models.NewRatingSummary(*reportedAverage, count)
	}
	if len(reviews) == 0 {
		return models.NewRatingSummary(0, count)
	}
	var sum float64
	for _, r := range reviews {
		sum += r.Rating
	}
	return models.NewRatingSummary(sum/float64(len(reviews)), count)
}

// Ratings extracts the rating values of reviews.
func Ratings(reviews []models.Review) []float64 {
	out := make([]float64, len(reviews))
	for i, r := range reviews {
		out[i] = r.Rating
	}
	return out
}

func reviewRating(id int64, n marketplace.Number, an *anomalies) (float64, bool) {
	field := reviewField(id, "rating")
	switch {
	case n.Valid && n.Value >= minReviewRating && n.Value <= maxReviewRating:
		return n.Value, true
	case n.Valid:
		an.add(field, strconv.FormatFloat(n.Value, 'f', -1, 64), "review dropped")
	case n.Malformed():
		an.add(field, string(n.Raw), "review dropped")
	default:
		an.add(field, "null", "review dropped")
	}
	return 0, false
}

func subRating(id int64, name string, n marketplace.Number, an *anomalies) *float64 {
	if n.Valid {
		v := n.Value
		return &v
	}
	if n.Malformed() {
		an.add(reviewField(id, name), string(n.Raw), "omitted")
	}
	return nil
}

func reviewField(id int64, name string) string {
	return "reviews[" + strconv.FormatInt(id, 10) + "]." + name
}
