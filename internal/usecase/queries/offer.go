package queries

import (
	"context"

	"pharmex/internal/domain/offer"
	"pharmex/internal/infra"
	"pharmex/internal/infra/repository"
	"pharmex/internal/pkg/clock"
	"pharmex/internal/pkg/config"
	"pharmex/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AvailabilityView is the holder-relative snapshot a cart session renders:
// capacity figures plus the split between the holder's own claim and
// everyone else's. Stale reservations are excluded but not evicted here;
// reads never take the offer lock.
type AvailabilityView struct {
	OfferID           uuid.UUID
	Type              offer.Type
	Status            offer.Status
	Price             decimal.Decimal
	MyClaimed         int
	OthersClaimed     int
	EffectiveCapacity int
	RemainingCapacity int
	UsagePercent      float64
	BundleQuantity    int
	BundleBonus       int
}

type OfferQueries interface {
	GetAvailability(ctx context.Context, offerID, holderID uuid.UUID) (*AvailabilityView, error)
}

type offerQueriesImpl struct {
	db            repository.DBTX
	offers        OfferReader
	reservations  ReservationReader
	contributions ContributionReader
	clock         clock.Clock
	cfg           config.LedgerConfig
}

func NewOfferQueries(
	db repository.DBTX,
	offers OfferReader,
	reservations ReservationReader,
	contributions ContributionReader,
	clock clock.Clock,
	cfg config.LedgerConfig,
) OfferQueries {
	return &offerQueriesImpl{
		db:            db,
		offers:        offers,
		reservations:  reservations,
		contributions: contributions,
		clock:         clock,
		cfg:           cfg,
	}
}

func (q *offerQueriesImpl) GetAvailability(ctx context.Context, offerID, holderID uuid.UUID) (*AvailabilityView, error) {
	off, err := q.offers.FindByID(ctx, q.db, offerID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrOfferNotFound)
		}
		return nil, err
	}

	cutoff := q.clock.Now().Add(-q.cfg.RenewalWindow)
	othersReserved, err := q.reservations.SumOthersActive(ctx, q.db, offerID, holderID, cutoff)
	if err != nil {
		return nil, err
	}
	myClaimed, err := q.reservations.HolderQuantity(ctx, q.db, offerID, holderID, cutoff)
	if err != nil {
		return nil, err
	}

	view := &AvailabilityView{
		OfferID:        offerID,
		Type:           off.Type(),
		Status:         off.Status(),
		Price:          off.Price(),
		MyClaimed:      myClaimed,
		BundleQuantity: off.Bundle().Quantity,
		BundleBonus:    off.Bundle().Bonus,
	}

	// The holder's own committed purchases occupy capacity like anyone
	// else's, but they are never part of their "claimed by others" figure.
	myCommitted, err := q.contributions.SumByBuyer(ctx, q.db, offerID, holderID)
	if err != nil {
		return nil, err
	}

	if off.Type().Pooled() {
		contributed, err := q.contributions.SumByOffer(ctx, q.db, offerID)
		if err != nil {
			return nil, err
		}
		total := contributed + othersReserved + myClaimed
		effective, err := offer.EffectiveCapacity(off.Bundle(), total, q.cfg.MaxPoolMultiple)
		if err != nil {
			return nil, err
		}
		remaining, err := offer.RemainingCapacity(off.Bundle(), total, q.cfg.MaxPoolMultiple)
		if err != nil {
			return nil, err
		}
		usage, err := offer.UsagePercent(off.Bundle(), total, q.cfg.MaxPoolMultiple)
		if err != nil {
			return nil, err
		}
		view.OthersClaimed = contributed - myCommitted + othersReserved
		view.EffectiveCapacity = effective
		view.RemainingCapacity = remaining
		view.UsagePercent = usage
		return view, nil
	}

	claimed := off.SoldQuantity() + othersReserved + myClaimed
	remaining := off.DeclaredQuantity() - claimed
	if remaining < 0 {
		remaining = 0
	}
	view.OthersClaimed = off.SoldQuantity() - myCommitted + othersReserved
	view.EffectiveCapacity = off.DeclaredQuantity()
	view.RemainingCapacity = remaining
	if off.DeclaredQuantity() > 0 {
		view.UsagePercent = float64(claimed) / float64(off.DeclaredQuantity()) * 100
		if view.UsagePercent > 100 {
			view.UsagePercent = 100
		}
	}
	return view, nil
}
