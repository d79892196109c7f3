package offer

// Type distinguishes the three listing flavors on the marketplace.
type Type string

const (
	// TypeStockSale sells a literal declared quantity off the seller's shelf.
	TypeStockSale Type = "stock_sale"
	// TypeJointOrder pools demand from multiple buyers toward depot bundles.
	TypeJointOrder Type = "joint_order"
	// TypePurchaseRequest is a buyer-organized pool; contributors may opt to
	// order from the depot themselves.
	TypePurchaseRequest Type = "purchase_request"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case TypeStockSale, TypeJointOrder, TypePurchaseRequest:
		return true
	default:
		return false
	}
}

// Pooled reports whether capacity for this type grows in bundle-unit
// multiples instead of being fixed by the declared quantity.
func (t Type) Pooled() bool {
	return t == TypeJointOrder || t == TypePurchaseRequest
}

type Status string

const (
	StatusActive  Status = "active"
	StatusClosed  Status = "closed"
	StatusExpired Status = "expired"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusClosed, StatusExpired:
		return true
	default:
		return false
	}
}

// CanTransitionTo encodes the offer lifecycle: Active -> Closed -> Expired.
// Expired is terminal; an active offer may also expire directly.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusActive:
		return next == StatusClosed || next == StatusExpired
	case StatusClosed:
		return next == StatusExpired
	default:
		return false
	}
}
