package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/catalog_api/internal/models"
	"github.com/GTDGit/catalog_api/internal/service"
	"github.com/GTDGit/catalog_api/internal/utils"
)

// respondError maps service errors onto the response envelope. Anything
// unrecognised is logged and reported as an internal error with fallback.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case service.IsNotFound(err):
		utils.Error(c, http.StatusNotFound, utils.CodeNotFound, "Listing not found")
	case errors.Is(err, service.ErrOperationPending):
		utils.Error(c, http.StatusConflict, utils.CodeOperationPending, "Another change to this listing is in progress")
	case errors.Is(err, service.ErrToggleNotApplicable):
		utils.Error(c, http.StatusUnprocessableEntity, utils.CodeToggleNotApplicable, "Only published or paused listings can be toggled")
	case errors.Is(err, service.ErrSourceNotAddressable):
		utils.Error(c, http.StatusUnprocessableEntity, utils.CodeNotAddressable, "Listings from this source cannot be addressed directly")
	case errors.Is(err, service.ErrInvalidRating):
		utils.Error(c, http.StatusBadRequest, utils.CodeInvalidRequest, err.Error())
	case errors.Is(err, models.ErrInvalidListingID), errors.Is(err, models.ErrInvalidListingPath):
		utils.Error(c, http.StatusBadRequest, utils.CodeInvalidRequest, "Invalid listing reference")
	case service.IsWriteConflict(err):
		utils.Error(c, http.StatusConflict, utils.CodeWriteConflict, "The backend rejected the change")
	case service.IsLoadFailure(err):
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Upstream failure")
		utils.Error(c, http.StatusBadGateway, utils.CodeUpstreamFailure, "Listing source unavailable")
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(fallback)
		utils.Error(c, http.StatusInternalServerError, utils.CodeInternalError, fallback)
	}
}

// listingIDParam reads the :kind and :id path params as a composite id.
func listingIDParam(c *gin.Context) (models.ListingID, error) {
	return models.ParseListingID(c.Param("kind") + ":" + c.Param("id"))
}
