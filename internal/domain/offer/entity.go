package offer

import (
	"time"

	"pharmex/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Offer is a seller's listing as the reservation core sees it: quantity
// fields and lifecycle state. Authoring and editing happen in the external
// catalog service; the core only advances status and sold quantity, and only
// at commit time.
type Offer struct {
	id                    uuid.UUID
	medicationID          uuid.UUID
	sellerID              uuid.UUID
	typ                   Type
	price                 decimal.Decimal
	declaredQuantity      int
	declaredBonusQuantity int
	bundle                BundleSpec
	expirationLabel       string
	status                Status
	soldQuantity          int
	createdAt             time.Time
	updatedAt             time.Time
}

func ReconstructOffer(
	id, medicationID, sellerID uuid.UUID,
	typ Type,
	price decimal.Decimal,
	declaredQuantity, declaredBonusQuantity int,
	bundle BundleSpec,
	expirationLabel string,
	status Status,
	soldQuantity int,
	createdAt, updatedAt time.Time,
) (*Offer, error) {
	if !typ.IsValid() {
		return nil, errs.Newf("unknown offer type %q", typ)
	}
	if !status.IsValid() {
		return nil, errs.Newf("unknown offer status %q", status)
	}
	if price.IsNegative() {
		return nil, errs.New("offer price cannot be negative")
	}

	return &Offer{
		id:                    id,
		medicationID:          medicationID,
		sellerID:              sellerID,
		typ:                   typ,
		price:                 price,
		declaredQuantity:      declaredQuantity,
		declaredBonusQuantity: declaredBonusQuantity,
		bundle:                bundle,
		expirationLabel:       expirationLabel,
		status:                status,
		soldQuantity:          soldQuantity,
		createdAt:             createdAt,
		updatedAt:             updatedAt,
	}, nil
}

func (o *Offer) ID() uuid.UUID            { return o.id }
func (o *Offer) MedicationID() uuid.UUID  { return o.medicationID }
func (o *Offer) SellerID() uuid.UUID      { return o.sellerID }
func (o *Offer) Type() Type               { return o.typ }
func (o *Offer) Price() decimal.Decimal   { return o.price }
func (o *Offer) DeclaredQuantity() int    { return o.declaredQuantity }
func (o *Offer) DeclaredBonus() int       { return o.declaredBonusQuantity }
func (o *Offer) Bundle() BundleSpec       { return o.bundle }
func (o *Offer) ExpirationLabel() string  { return o.expirationLabel }
func (o *Offer) Status() Status           { return o.status }
func (o *Offer) SoldQuantity() int        { return o.soldQuantity }
func (o *Offer) CreatedAt() time.Time     { return o.createdAt }
func (o *Offer) UpdatedAt() time.Time     { return o.updatedAt }

func (o *Offer) IsActive() bool {
	return o.status == StatusActive
}

// FullyCommitted reports whether a stock-sale offer has no sellable units
// left. Pooled offers never run out in this sense; their pool grows instead.
func (o *Offer) FullyCommitted() bool {
	if o.typ.Pooled() {
		return false
	}
	return o.soldQuantity >= o.declaredQuantity
}

func (o *Offer) Close() error {
	if !o.status.CanTransitionTo(StatusClosed) {
		return errs.Mark(
			errs.Newf("cannot close offer in status %q", o.status),
			errs.ErrInvalidTransition,
		)
	}
	o.status = StatusClosed
	return nil
}

func (o *Offer) Expire() error {
	if !o.status.CanTransitionTo(StatusExpired) {
		return errs.Mark(
			errs.Newf("cannot expire offer in status %q", o.status),
			errs.ErrInvalidTransition,
		)
	}
	o.status = StatusExpired
	return nil
}

// RecordSale accounts committed stock-sale units on the entity. The caller
// persists the matching decrement in the same transaction.
func (o *Offer) RecordSale(quantity int) error {
	if o.typ.Pooled() {
		return errs.Newf("offer type %q commits contributions, not stock", o.typ)
	}
	if quantity <= 0 {
		return errs.ErrInvalidQuantity
	}
	o.soldQuantity += quantity
	return nil
}
