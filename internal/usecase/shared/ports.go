package shared

import (
	"context"

	"github.com/google/uuid"
)

type ChangeKind string

const (
	ChangeReserved  ChangeKind = "reserved"
	ChangeReleased  ChangeKind = "released"
	ChangeCommitted ChangeKind = "committed"
)

// ChangeEvent tells other viewers of an offer that their cached
// "claimed by others" figure is out of date and should be re-fetched.
type ChangeEvent struct {
	OfferID         uuid.UUID   `json:"offer_id"`
	AffectedHolders []uuid.UUID `json:"affected_holders"`
	Kind            ChangeKind  `json:"kind"`
}

// Publisher is the outbound half of the change notification relay. Delivery
// is at-least-once; consumers re-query rather than applying deltas.
type Publisher interface {
	Publish(ctx context.Context, event ChangeEvent) error
}

// Subscriber delivers change events for all offers; consumers filter by the
// offers they currently display.
type Subscriber interface {
	Subscribe(ctx context.Context, fn func(ChangeEvent)) (cancel func(), err error)
}

// Unlocker releases a held per-offer critical section.
type Unlocker interface {
	Release(ctx context.Context) error
}

// OfferLocker serializes mutating ledger operations per offer. Operations on
// different offers proceed fully in parallel.
type OfferLocker interface {
	Lock(ctx context.Context, offerID uuid.UUID) (Unlocker, error)
}
