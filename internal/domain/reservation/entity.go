package reservation

import (
	"time"

	"pharmex/internal/pkg/errs"

	"github.com/google/uuid"
)

// Reservation is an ephemeral claim on offer capacity: units sitting in a
// shopper's cart before checkout. It is a domain record with a lifecycle,
// not a synchronization primitive; the ledger serializes access to it.
type Reservation struct {
	offerID       uuid.UUID
	holderID      uuid.UUID
	quantity      int
	createdAt     time.Time
	lastRenewedAt time.Time
}

func NewReservation(offerID, holderID uuid.UUID, quantity int, now time.Time) (*Reservation, error) {
	if quantity <= 0 {
		return nil, errs.ErrInvalidQuantity
	}
	return &Reservation{
		offerID:       offerID,
		holderID:      holderID,
		quantity:      quantity,
		createdAt:     now,
		lastRenewedAt: now,
	}, nil
}

func ReconstructReservation(offerID, holderID uuid.UUID, quantity int, createdAt, lastRenewedAt time.Time) *Reservation {
	return &Reservation{
		offerID:       offerID,
		holderID:      holderID,
		quantity:      quantity,
		createdAt:     createdAt,
		lastRenewedAt: lastRenewedAt,
	}
}

func (r *Reservation) OfferID() uuid.UUID       { return r.offerID }
func (r *Reservation) HolderID() uuid.UUID      { return r.holderID }
func (r *Reservation) Quantity() int            { return r.quantity }
func (r *Reservation) CreatedAt() time.Time     { return r.createdAt }
func (r *Reservation) LastRenewedAt() time.Time { return r.lastRenewedAt }

// Resize replaces the claimed quantity and counts as a renewal.
func (r *Reservation) Resize(quantity int, now time.Time) error {
	if quantity <= 0 {
		return errs.ErrInvalidQuantity
	}
	r.quantity = quantity
	r.lastRenewedAt = now
	return nil
}

func (r *Reservation) Renew(now time.Time) {
	r.lastRenewedAt = now
}

// IsStale reports whether the holder's client stopped renewing long enough
// ago that the claim is treated as abandoned.
func (r *Reservation) IsStale(now time.Time, renewalWindow time.Duration) bool {
	return now.Sub(r.lastRenewedAt) > renewalWindow
}

// Contribution is the permanent record of a buyer's finalized purchase,
// created when their reservation commits. For pooled offers it is the share
// the pool grows around; for stock sales it attributes sold units to their
// buyer. Append-only.
type Contribution struct {
	offerID          uuid.UUID
	buyerID          uuid.UUID
	quantity         int
	depotFulfillment bool
	contributedAt    time.Time
}

func NewContribution(offerID, buyerID uuid.UUID, quantity int, depotFulfillment bool, now time.Time) (*Contribution, error) {
	if quantity <= 0 {
		return nil, errs.ErrInvalidQuantity
	}
	return &Contribution{
		offerID:          offerID,
		buyerID:          buyerID,
		quantity:         quantity,
		depotFulfillment: depotFulfillment,
		contributedAt:    now,
	}, nil
}

func (c *Contribution) OfferID() uuid.UUID      { return c.offerID }
func (c *Contribution) BuyerID() uuid.UUID      { return c.buyerID }
func (c *Contribution) Quantity() int           { return c.quantity }
func (c *Contribution) DepotFulfillment() bool  { return c.depotFulfillment }
func (c *Contribution) ContributedAt() time.Time { return c.contributedAt }
