package request

type SetCartItemRequest struct {
	// Quantity of zero or less is treated as a removal request.
	Quantity int `json:"quantity"`
	// DepotFulfillment asks the depot to ship this buyer's share of a
	// pooled order directly. Ignored for stock sales.
	DepotFulfillment bool `json:"depot_fulfillment"`
}
