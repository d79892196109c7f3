package api

import (
	"net/http"

	resdto "pharmex/internal/handler/dto/response"
	"pharmex/internal/handler/middleware"
	"pharmex/internal/pkg/errs"
	"pharmex/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OfferHandler struct {
	offerQueries queries.OfferQueries
}

func NewOfferHandler(offerQueries queries.OfferQueries) *OfferHandler {
	return &OfferHandler{offerQueries: offerQueries}
}

// @Summary Get offer availability
// @Description Current capacity figures for an offer, relative to the calling pharmacy
// @Tags offers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offer ID"
// @Success 200 {object} resdto.AvailabilityResponse
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /offers/{id}/availability [get]
func (h *OfferHandler) GetAvailability(c *gin.Context) {
	pharmacyID, ok := middleware.GetPharmacyID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	offerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid offer ID",
		})
		return
	}

	view, err := h.offerQueries.GetAvailability(c.Request.Context(), offerID, pharmacyID)
	if err != nil {
		switch {
		case errs.Is(err, errs.ErrOfferNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Offer not found",
			})
		case errs.Is(err, errs.ErrInvalidBundle):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Offer has an invalid bundle configuration",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromAvailabilityView(view))
}
