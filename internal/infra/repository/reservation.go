package repository

import (
	"context"
	"time"

	"pharmex/internal/domain/reservation"
	"pharmex/internal/infra"

	"github.com/google/uuid"
)

type ReservationRepository struct{}

func NewReservationRepository() *ReservationRepository {
	return &ReservationRepository{}
}

func (r *ReservationRepository) Get(ctx context.Context, db DBTX, offerID, holderID uuid.UUID) (*reservation.Reservation, error) {
	var (
		quantity                 int
		createdAt, lastRenewedAt time.Time
	)
	err := db.QueryRow(ctx, `
		SELECT quantity, created_at, last_renewed_at
		FROM reservations
		WHERE offer_id = $1 AND holder_id = $2`,
		offerID, holderID).Scan(&quantity, &createdAt, &lastRenewedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation", err)
	}

	return reservation.ReconstructReservation(offerID, holderID, quantity, createdAt, lastRenewedAt), nil
}

// Upsert writes or resizes the holder's claim; a resize refreshes the
// renewal timestamp so an active cart never goes stale.
func (r *ReservationRepository) Upsert(ctx context.Context, db DBTX, res *reservation.Reservation) error {
	_, err := db.Exec(ctx, `
		INSERT INTO reservations (offer_id, holder_id, quantity, created_at, last_renewed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (offer_id, holder_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, last_renewed_at = EXCLUDED.last_renewed_at`,
		res.OfferID(), res.HolderID(), res.Quantity(), res.CreatedAt(), res.LastRenewedAt())
	if err != nil {
		return infra.WrapRepoErr("failed to upsert reservation", err)
	}
	return nil
}

func (r *ReservationRepository) Delete(ctx context.Context, db DBTX, offerID, holderID uuid.UUID) (bool, error) {
	tag, err := db.Exec(ctx, `
		DELETE FROM reservations WHERE offer_id = $1 AND holder_id = $2`,
		offerID, holderID)
	if err != nil {
		return false, infra.WrapRepoErr("failed to delete reservation", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteStale lazily evicts abandoned claims; any ledger operation on the
// offer may trigger it.
func (r *ReservationRepository) DeleteStale(ctx context.Context, db DBTX, offerID uuid.UUID, cutoff time.Time) (int, error) {
	tag, err := db.Exec(ctx, `
		DELETE FROM reservations WHERE offer_id = $1 AND last_renewed_at < $2`,
		offerID, cutoff)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to evict stale reservations", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *ReservationRepository) SumOthersActive(ctx context.Context, db DBTX, offerID, excludeHolder uuid.UUID, cutoff time.Time) (int, error) {
	var sum int
	err := db.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM reservations
		WHERE offer_id = $1 AND holder_id <> $2 AND last_renewed_at >= $3`,
		offerID, excludeHolder, cutoff).Scan(&sum)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to sum other holders' reservations", err)
	}
	return sum, nil
}

func (r *ReservationRepository) HolderQuantity(ctx context.Context, db DBTX, offerID, holderID uuid.UUID, cutoff time.Time) (int, error) {
	var sum int
	err := db.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM reservations
		WHERE offer_id = $1 AND holder_id = $2 AND last_renewed_at >= $3`,
		offerID, holderID, cutoff).Scan(&sum)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to sum holder's reservations", err)
	}
	return sum, nil
}
