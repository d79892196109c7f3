package response

import (
	"pharmex/internal/cart"

	"github.com/google/uuid"
)

type CartItemResponse struct {
	OfferID          uuid.UUID `json:"offerId"`
	Quantity         int       `json:"quantity"`
	State            string    `json:"state"`
	Provisional      bool      `json:"provisional"`
	DepotFulfillment bool      `json:"depotFulfillment"`
	AdjustedFrom     *int      `json:"adjustedFrom,omitempty"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
}

type CheckoutItemResponse struct {
	OfferID  uuid.UUID `json:"offerId"`
	Quantity int       `json:"quantity"`
	Kind     string    `json:"kind,omitempty"`
	Error    string    `json:"error,omitempty"`
}

type CheckoutResponse struct {
	Items     []CheckoutItemResponse `json:"items"`
	Committed int                    `json:"committed"`
	Failed    int                    `json:"failed"`
}

func FromItemView(view cart.ItemView) CartItemResponse {
	return CartItemResponse{
		OfferID:          view.OfferID,
		Quantity:         view.Quantity,
		State:            string(view.State),
		Provisional:      view.Provisional,
		DepotFulfillment: view.DepotFulfillment,
		AdjustedFrom:     view.AdjustedFrom,
	}
}

func FromSnapshot(views []cart.ItemView) *CartResponse {
	items := make([]CartItemResponse, 0, len(views))
	for _, v := range views {
		items = append(items, FromItemView(v))
	}
	return &CartResponse{Items: items}
}

func FromCommitOutcomes(outcomes []cart.CommitOutcome) *CheckoutResponse {
	resp := &CheckoutResponse{
		Items: make([]CheckoutItemResponse, 0, len(outcomes)),
	}
	for _, o := range outcomes {
		item := CheckoutItemResponse{
			OfferID:  o.OfferID,
			Quantity: o.Quantity,
			Kind:     string(o.Kind),
		}
		if o.Err != nil {
			item.Error = o.Err.Error()
			item.Kind = ""
			resp.Failed++
		} else {
			resp.Committed++
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}
