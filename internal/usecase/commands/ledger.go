package commands

import (
	"context"
	"log/slog"
	"time"

	"pharmex/internal/domain/offer"
	"pharmex/internal/domain/reservation"
	"pharmex/internal/infra"
	"pharmex/internal/infra/repository"
	"pharmex/internal/pkg/clock"
	"pharmex/internal/pkg/config"
	"pharmex/internal/pkg/errs"
	"pharmex/internal/usecase/shared"

	"github.com/google/uuid"
)

// SetResult reports what the ledger actually accepted. Over-requests are
// never hard failures: the quantity is clamped to current capacity and the
// adjustment reported so the caller can surface it to the shopper.
type SetResult struct {
	Requested int
	Accepted  int
	Adjusted  bool
	// AvailableToHolder is the capacity this holder could claim at decision
	// time, before clamping. Callers cache it as their known capacity.
	AvailableToHolder int
	// EffectiveCapacity is the offer-wide capacity figure for display: the
	// declared quantity for stock sales, the grown pool for pooled types.
	EffectiveCapacity int
}

type CommitKind string

const (
	CommitStockDecrement CommitKind = "stock_decrement"
	CommitContribution   CommitKind = "contribution"
)

type CommitResult struct {
	Kind        CommitKind
	Quantity    int
	OfferStatus offer.Status
}

type LedgerCommands interface {
	SetReservation(ctx context.Context, offerID, holderID uuid.UUID, quantity int) (*SetResult, error)
	ReleaseReservation(ctx context.Context, offerID, holderID uuid.UUID) error
	Commit(ctx context.Context, offerID, holderID uuid.UUID, depotFulfillment bool) (*CommitResult, error)
}

type ledgerImpl struct {
	offerRepo        OfferRepository
	reservationRepo  ReservationRepository
	contributionRepo ContributionRepository
	locker           shared.OfferLocker
	relay            shared.Publisher
	tx               shared.TxRunner
	clock            clock.Clock
	cfg              config.LedgerConfig
}

func NewLedgerCommands(
	offerRepo OfferRepository,
	reservationRepo ReservationRepository,
	contributionRepo ContributionRepository,
	locker shared.OfferLocker,
	relay shared.Publisher,
	tx shared.TxRunner,
	clock clock.Clock,
	cfg config.LedgerConfig,
) LedgerCommands {
	return &ledgerImpl{
		offerRepo:        offerRepo,
		reservationRepo:  reservationRepo,
		contributionRepo: contributionRepo,
		locker:           locker,
		relay:            relay,
		tx:               tx,
		clock:            clock,
		cfg:              cfg,
	}
}

func (l *ledgerImpl) SetReservation(ctx context.Context, offerID, holderID uuid.UUID, quantity int) (*SetResult, error) {
	if quantity <= 0 {
		return nil, errs.ErrInvalidQuantity
	}

	unlock, err := l.locker.Lock(ctx, offerID)
	if err != nil {
		return nil, err
	}
	defer l.release(ctx, unlock)

	var result *SetResult
	err = l.tx.RunInTx(ctx, func(db repository.DBTX) error {
		off, err := l.loadActiveOffer(ctx, db, offerID)
		if err != nil {
			return err
		}

		now := l.clock.Now()
		cutoff := now.Add(-l.cfg.RenewalWindow)
		if _, err := l.reservationRepo.DeleteStale(ctx, db, offerID, cutoff); err != nil {
			return err
		}

		avail, effective, err := l.availableToHolder(ctx, db, off, holderID, quantity, cutoff)
		if err != nil {
			return err
		}

		accepted := quantity
		if accepted > avail {
			accepted = avail
		}
		if accepted < 0 {
			accepted = 0
		}

		if accepted == 0 {
			// Nothing left for this holder; any previous claim is dropped
			// rather than silently kept at its old size.
			if _, err := l.reservationRepo.Delete(ctx, db, offerID, holderID); err != nil {
				return err
			}
		} else {
			res, err := reservation.NewReservation(offerID, holderID, accepted, now)
			if err != nil {
				return err
			}
			if err := l.reservationRepo.Upsert(ctx, db, res); err != nil {
				return err
			}
		}

		result = &SetResult{
			Requested:         quantity,
			Accepted:          accepted,
			Adjusted:          accepted != quantity,
			AvailableToHolder: avail,
			EffectiveCapacity: effective,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.publish(ctx, offerID, holderID, shared.ChangeReserved)
	return result, nil
}

func (l *ledgerImpl) ReleaseReservation(ctx context.Context, offerID, holderID uuid.UUID) error {
	unlock, err := l.locker.Lock(ctx, offerID)
	if err != nil {
		return err
	}
	defer l.release(ctx, unlock)

	var deleted bool
	err = l.tx.RunInTx(ctx, func(db repository.DBTX) error {
		cutoff := l.clock.Now().Add(-l.cfg.RenewalWindow)
		if _, err := l.reservationRepo.DeleteStale(ctx, db, offerID, cutoff); err != nil {
			return err
		}

		// Idempotent: releasing an absent reservation is a no-op.
		deleted, err = l.reservationRepo.Delete(ctx, db, offerID, holderID)
		return err
	})
	if err != nil {
		return err
	}

	if deleted {
		l.publish(ctx, offerID, holderID, shared.ChangeReleased)
	}
	return nil
}

func (l *ledgerImpl) Commit(ctx context.Context, offerID, holderID uuid.UUID, depotFulfillment bool) (*CommitResult, error) {
	unlock, err := l.locker.Lock(ctx, offerID)
	if err != nil {
		return nil, err
	}
	defer l.release(ctx, unlock)

	var result *CommitResult
	err = l.tx.RunInTx(ctx, func(db repository.DBTX) error {
		now := l.clock.Now()
		cutoff := now.Add(-l.cfg.RenewalWindow)

		// Evict first: a stale reservation must not be committable.
		if _, err := l.reservationRepo.DeleteStale(ctx, db, offerID, cutoff); err != nil {
			return err
		}

		res, err := l.reservationRepo.Get(ctx, db, offerID, holderID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return errs.Mark(err, errs.ErrReservationNotFound)
			}
			return err
		}

		off, err := l.loadActiveOffer(ctx, db, offerID)
		if err != nil {
			return err
		}

		quantity := res.Quantity()

		// Capacity is re-validated under the same lock that guarded the
		// reservation; a shrink since then fails cleanly.
		avail, _, err := l.availableToHolder(ctx, db, off, holderID, quantity, cutoff)
		if err != nil {
			return err
		}
		if quantity > avail {
			return errs.ErrStaleReservation
		}

		status := off.Status()
		var kind CommitKind

		if off.Type().Pooled() {
			contribution, err := reservation.NewContribution(offerID, holderID, quantity, depotFulfillment, now)
			if err != nil {
				return err
			}
			if err := l.contributionRepo.Insert(ctx, db, contribution); err != nil {
				return err
			}
			kind = CommitContribution
		} else {
			// Stock purchases are recorded too, so availability views can
			// subtract the buyer's own purchases from "claimed by others".
			purchase, err := reservation.NewContribution(offerID, holderID, quantity, depotFulfillment, now)
			if err != nil {
				return err
			}
			if err := l.contributionRepo.Insert(ctx, db, purchase); err != nil {
				return err
			}
			newSold, err := l.offerRepo.AddSoldQuantity(ctx, db, offerID, quantity)
			if err != nil {
				return err
			}
			if newSold >= off.DeclaredQuantity() {
				if err := off.Close(); err != nil {
					return err
				}
				if err := l.offerRepo.UpdateStatus(ctx, db, offerID, offer.StatusClosed); err != nil {
					return err
				}
				status = offer.StatusClosed
			}
			kind = CommitStockDecrement
		}

		if _, err := l.reservationRepo.Delete(ctx, db, offerID, holderID); err != nil {
			return err
		}

		result = &CommitResult{
			Kind:        kind,
			Quantity:    quantity,
			OfferStatus: status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.publish(ctx, offerID, holderID, shared.ChangeCommitted)
	return result, nil
}

func (l *ledgerImpl) loadActiveOffer(ctx context.Context, db repository.DBTX, offerID uuid.UUID) (*offer.Offer, error) {
	off, err := l.offerRepo.FindByID(ctx, db, offerID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrOfferNotFound)
		}
		return nil, err
	}
	if !off.IsActive() {
		return nil, errs.ErrOfferNotActive
	}
	return off, nil
}

func (l *ledgerImpl) release(ctx context.Context, unlock shared.Unlocker) {
	if err := unlock.Release(ctx); err != nil {
		slog.Warn("failed to release offer lock", "error", err)
	}
}

// publish is best effort: the accounting already committed, and the relay
// only promises at-least-once hints, so a push failure is logged, not raised.
func (l *ledgerImpl) publish(ctx context.Context, offerID, holderID uuid.UUID, kind shared.ChangeKind) {
	event := shared.ChangeEvent{
		OfferID:         offerID,
		AffectedHolders: []uuid.UUID{holderID},
		Kind:            kind,
	}
	if err := l.relay.Publish(ctx, event); err != nil {
		slog.Warn("failed to publish change event", "offer_id", offerID, "kind", kind, "error", err)
	}
}

// availableToHolder computes how many units this holder could claim right
// now, excluding their own active reservation (it is being replaced by the
// request under evaluation). The second return is the offer-wide effective
// capacity at that moment.
//
// For pooled types the pool is sized for existing claims plus the request
// being evaluated, so it grows exactly as far as demand justifies and no
// further. requested is ignored for stock sales.
func (l *ledgerImpl) availableToHolder(
	ctx context.Context,
	db repository.DBTX,
	off *offer.Offer,
	holderID uuid.UUID,
	requested int,
	cutoff time.Time,
) (avail int, effective int, err error) {
	othersReserved, err := l.reservationRepo.SumOthersActive(ctx, db, off.ID(), holderID, cutoff)
	if err != nil {
		return 0, 0, err
	}

	if !off.Type().Pooled() {
		effective = off.DeclaredQuantity()
		avail = effective - off.SoldQuantity() - othersReserved
		return avail, effective, nil
	}

	contributed, err := l.contributionRepo.SumByOffer(ctx, db, off.ID())
	if err != nil {
		return 0, 0, err
	}

	total := contributed + othersReserved
	effective, err = offer.EffectiveCapacity(off.Bundle(), total+requested, l.cfg.MaxPoolMultiple)
	if err != nil {
		// A non-positive bundle unit is an offer configuration defect, not a
		// caller mistake; surface it loudly.
		slog.Error("offer has an unusable bundle configuration", "offer_id", off.ID(), "error", err)
		return 0, 0, err
	}
	return effective - total, effective, nil
}
