package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/catalog_api/internal/service"
	"github.com/GTDGit/catalog_api/internal/utils"
	"github.com/GTDGit/catalog_api/pkg/marketplace"
)

// maxSearchResults bounds one normalization request.
const maxSearchResults = 200

// SearchHandler normalizes third-party search hits for the conversational search surface.
type SearchHandler struct {
	listingService *service.ListingService
}

// NewSearchHandler constructs a SearchHandler.
func NewSearchHandler(listingService *service.ListingService) *SearchHandler {
	return &SearchHandler{listingService: listingService}
}

// NormalizeRequest carries hits already fetched from external marketplaces.
type NormalizeRequest struct {
	Results []marketplace.ExternalResult `json:"results" binding:"required"`
}

// Normalize handles POST /v1/search/normalize
func (h *SearchHandler) Normalize(c *gin.Context) {
	var req NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, utils.CodeInvalidRequest, "Invalid request body")
		return
	}
	if len(req.Results) > maxSearchResults {
		utils.Error(c, http.StatusBadRequest, utils.CodeInvalidRequest, "Too many results in one request")
		return
	}

	listings := h.listingService.NormalizeExternal(req.Results)
	utils.Success(c, http.StatusOK, "Results normalized", gin.H{
		"listings": listings,
		"total":    len(listings),
	})
}
