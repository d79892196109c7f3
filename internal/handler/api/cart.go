package api

import (
	"net/http"

	"pharmex/internal/cart"
	reqdto "pharmex/internal/handler/dto/request"
	resdto "pharmex/internal/handler/dto/response"
	"pharmex/internal/handler/middleware"
	"pharmex/internal/pkg/errs"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CartHandler struct {
	carts *cart.Registry
}

func NewCartHandler(carts *cart.Registry) *CartHandler {
	return &CartHandler{carts: carts}
}

// @Summary Get cart
// @Description The calling pharmacy's cart, including provisional quantities
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.CartResponse
// @Failure 401 {object} map[string]string
// @Router /cart [get]
func (h *CartHandler) GetCart(c *gin.Context) {
	engine, ok := h.engineFor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resdto.FromSnapshot(engine.Snapshot()))
}

// @Summary Set cart item quantity
// @Description Applies the quantity locally at once; the reservation settles in the background. A quantity of zero or less removes the item.
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param offerId path string true "Offer ID"
// @Param request body reqdto.SetCartItemRequest true "Desired quantity"
// @Success 202 {object} resdto.CartItemResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /cart/items/{offerId} [put]
func (h *CartHandler) SetItem(c *gin.Context) {
	engine, ok := h.engineFor(c)
	if !ok {
		return
	}

	offerID, err := uuid.Parse(c.Param("offerId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid offer ID",
		})
		return
	}

	var req reqdto.SetCartItemRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	view, err := engine.RequestQuantityChange(c.Request.Context(), offerID, req.Quantity, req.DepotFulfillment)
	if err != nil {
		switch {
		case errs.Is(err, errs.ErrItemNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Cart item not found",
			})
		default:
			// A non-positive quantity is a removal; its release failed and the
			// item was restored.
			c.JSON(http.StatusConflict, gin.H{
				"error": "Could not release the reservation; item kept in cart",
			})
		}
		return
	}

	// Accepted, not OK: the ledger has not confirmed this quantity yet.
	c.JSON(http.StatusAccepted, resdto.FromItemView(view))
}

// @Summary Remove cart item
// @Description Drops the item and releases its reservation
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param offerId path string true "Offer ID"
// @Success 204
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /cart/items/{offerId} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	engine, ok := h.engineFor(c)
	if !ok {
		return
	}

	offerID, err := uuid.Parse(c.Param("offerId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid offer ID",
		})
		return
	}

	if err := engine.Remove(c.Request.Context(), offerID); err != nil {
		switch {
		case errs.Is(err, errs.ErrItemNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Cart item not found",
			})
		default:
			// Release failed; the item was restored.
			c.JSON(http.StatusConflict, gin.H{
				"error": "Could not release the reservation; item kept in cart",
			})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Clear cart
// @Description Removes every item and releases all reservations
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} map[string]string
// @Failure 409 {object} resdto.CartResponse
// @Router /cart [delete]
func (h *CartHandler) ClearCart(c *gin.Context) {
	engine, ok := h.engineFor(c)
	if !ok {
		return
	}

	if err := engine.Clear(c.Request.Context()); err != nil {
		if errs.Is(err, errs.ErrPartialClear) {
			// Failed releases were restored; report what is still held.
			c.JSON(http.StatusConflict, resdto.FromSnapshot(engine.Snapshot()))
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Checkout
// @Description Converts every settled reservation into a purchase
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.CheckoutResponse
// @Failure 401 {object} map[string]string
// @Router /cart/checkout [post]
func (h *CartHandler) Checkout(c *gin.Context) {
	engine, ok := h.engineFor(c)
	if !ok {
		return
	}

	outcomes := engine.CommitAll(c.Request.Context())
	c.JSON(http.StatusOK, resdto.FromCommitOutcomes(outcomes))
}

func (h *CartHandler) engineFor(c *gin.Context) (*cart.Engine, bool) {
	pharmacyID, ok := middleware.GetPharmacyID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return nil, false
	}
	return h.carts.ForHolder(pharmacyID), true
}
