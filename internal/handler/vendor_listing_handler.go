package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/catalog_api/internal/middleware"
	"github.com/GTDGit/catalog_api/internal/models"
	"github.com/GTDGit/catalog_api/internal/service"
	"github.com/GTDGit/catalog_api/internal/utils"
)

const (
	defaultVendorListLimit = 50
	defaultMutationLimit   = 20
)

// VendorListingHandler serves the authenticated vendor dashboard endpoints.
type VendorListingHandler struct {
	listingService *service.ListingService
}

// NewVendorListingHandler constructs a VendorListingHandler.
func NewVendorListingHandler(listingService *service.ListingService) *VendorListingHandler {
	return &VendorListingHandler{listingService: listingService}
}

// ListListings handles GET /v1/vendor/listings/:kind?limit=
func (h *VendorListingHandler) ListListings(c *gin.Context) {
	kind, ok := models.ParseSourceKind(c.Param("kind"))
	if !ok {
		utils.Error(c, http.StatusBadRequest, utils.CodeInvalidRequest, "Unknown listing kind")
		return
	}
	limit := queryInt(c, "limit", defaultVendorListLimit)

	listings, err := h.listingService.ListByKind(c.Request.Context(), kind, limit)
	if err != nil {
		respondError(c, err, "Failed to list listings")
		return
	}

	utils.Success(c, http.StatusOK, "Listings retrieved", gin.H{
		"listings": listings,
		"total":    len(listings),
	})
}

// ToggleStatus handles PATCH /v1/vendor/listings/:kind/:id/status/toggle
func (h *VendorListingHandler) ToggleStatus(c *gin.Context) {
	id, err := listingIDParam(c)
	if err != nil {
		respondError(c, err, "Invalid listing reference")
		return
	}

	listing, err := h.listingService.ToggleStatus(c.Request.Context(), id, c.GetString(middleware.VendorIDKey))
	if err != nil {
		respondError(c, err, "Failed to toggle listing status")
		return
	}

	utils.Success(c, http.StatusOK, "Listing status updated", listing)
}

// DeleteListing handles DELETE /v1/vendor/listings/:kind/:id
func (h *VendorListingHandler) DeleteListing(c *gin.Context) {
	id, err := listingIDParam(c)
	if err != nil {
		respondError(c, err, "Invalid listing reference")
		return
	}

	if err := h.listingService.Delete(c.Request.Context(), id, c.GetString(middleware.VendorIDKey)); err != nil {
		respondError(c, err, "Failed to delete listing")
		return
	}

	utils.Success(c, http.StatusOK, "Listing deleted", gin.H{"listingId": id})
}

// GetMutationLog handles GET /v1/vendor/listings/:kind/:id/mutations?limit=
func (h *VendorListingHandler) GetMutationLog(c *gin.Context) {
	id, err := listingIDParam(c)
	if err != nil {
		respondError(c, err, "Invalid listing reference")
		return
	}

	entries, err := h.listingService.MutationLog(c.Request.Context(), id, queryInt(c, "limit", defaultMutationLimit))
	if err != nil {
		respondError(c, err, "Failed to load mutation log")
		return
	}

	utils.Success(c, http.StatusOK, "Mutation log retrieved", gin.H{
		"mutations": entries,
		"total":     len(entries),
	})
}

// GetSourceHealth handles GET /v1/vendor/sources/health
func (h *VendorListingHandler) GetSourceHealth(c *gin.Context) {
	stats, err := h.listingService.SourceHealth(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to load source health")
		return
	}

	utils.Success(c, http.StatusOK, "Source health retrieved", gin.H{"sources": stats})
}
