package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/catalog_api/internal/models"
	"github.com/GTDGit/catalog_api/internal/service"
	"github.com/GTDGit/catalog_api/internal/utils"
)

// maxWindowSize caps the window query parameter on list endpoints.
const maxWindowSize = 100

// ListingHandler serves the public listing endpoints.
type ListingHandler struct {
	listingService *service.ListingService
}

// NewListingHandler constructs a ListingHandler.
func NewListingHandler(listingService *service.ListingService) *ListingHandler {
	return &ListingHandler{listingService: listingService}
}

// GetListing handles
//
//	GET /v1/listing/:slug
//	GET /v1/listing/id/:id
//	GET /v1/goods/:slug
//	GET /v1/service/:slug
func (h *ListingHandler) GetListing(c *gin.Context) {
	ref, err := models.ParseListingPath(c.Request.URL.Path)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, utils.CodeInvalidRequest, "Invalid listing reference")
		return
	}

	listing, err := h.listingService.GetListing(c.Request.Context(), ref)
	if err != nil {
		respondError(c, err, "Failed to load listing")
		return
	}

	utils.Success(c, http.StatusOK, "Listing retrieved", listing)
}

// GetRelated handles GET /v1/listings/:kind/:id/related?limit=&offset=&window=
func (h *ListingHandler) GetRelated(c *gin.Context) {
	id, err := listingIDParam(c)
	if err != nil {
		respondError(c, err, "Invalid listing reference")
		return
	}
	limit := queryInt(c, "limit", 0)

	related, err := h.listingService.Related(c.Request.Context(), id, limit)
	if err != nil {
		respondError(c, err, "Failed to load related listings")
		return
	}

	offset, size := windowParams(c, len(related))
	utils.SuccessWithWindow(c, http.StatusOK, "Related listings retrieved", gin.H{
		"listings": service.Window(related, offset, size),
	}, offset, size, len(related))
}

// GetReviews handles GET /v1/listings/:kind/:id/reviews?offset=&window=
func (h *ListingHandler) GetReviews(c *gin.Context) {
	id, err := listingIDParam(c)
	if err != nil {
		respondError(c, err, "Invalid listing reference")
		return
	}

	reviews, summary, err := h.listingService.Reviews(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to load reviews")
		return
	}

	offset, size := windowParams(c, len(reviews))
	utils.SuccessWithWindow(c, http.StatusOK, "Reviews retrieved", gin.H{
		"reviews": service.Window(reviews, offset, size),
		"summary": summary,
	}, offset, size, len(reviews))
}

// PreviewRatingRequest is the body of a rating preview.
type PreviewRatingRequest struct {
	Rating *float64 `json:"rating" binding:"required"`
}

// PreviewRating handles POST /v1/listings/:kind/:id/reviews/preview
func (h *ListingHandler) PreviewRating(c *gin.Context) {
	id, err := listingIDParam(c)
	if err != nil {
		respondError(c, err, "Invalid listing reference")
		return
	}

	var req PreviewRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, utils.CodeInvalidRequest, "Invalid request body")
		return
	}

	average, err := h.listingService.PreviewRating(c.Request.Context(), id, *req.Rating)
	if err != nil {
		respondError(c, err, "Failed to compute rating")
		return
	}

	utils.Success(c, http.StatusOK, "Rating preview computed", gin.H{
		"listingId": id,
		"rating":    *req.Rating,
		"average":   average,
	})
}

// windowParams reads offset and window. The window defaults to the whole list, capped.
func windowParams(c *gin.Context, total int) (int, int) {
	offset := queryInt(c, "offset", 0)
	size := queryInt(c, "window", total)
	if size > maxWindowSize {
		size = maxWindowSize
	}
	return offset, size
}

// queryInt returns a non-negative integer query param or def.
func queryInt(c *gin.Context, key string, def int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
