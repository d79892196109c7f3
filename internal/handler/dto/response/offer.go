package response

import (
	"pharmex/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type AvailabilityResponse struct {
	OfferID           uuid.UUID `json:"offerId"`
	Type              string    `json:"type"`
	Status            string    `json:"status"`
	Price             string    `json:"price"`
	MyClaimed         int       `json:"myClaimed"`
	OthersClaimed     int       `json:"othersClaimed"`
	EffectiveCapacity int       `json:"effectiveCapacity"`
	RemainingCapacity int       `json:"remainingCapacity"`
	UsagePercent      float64   `json:"usagePercent"`
	BundleQuantity    int       `json:"bundleQuantity"`
	BundleBonus       int       `json:"bundleBonus"`
}

func FromAvailabilityView(view *queries.AvailabilityView) *AvailabilityResponse {
	var resp AvailabilityResponse
	_ = copier.Copy(&resp, view)
	resp.Type = string(view.Type)
	resp.Status = string(view.Status)
	resp.Price = view.Price.StringFixed(2)
	return &resp
}
