package repository

import (
	"context"
	"time"

	"pharmex/internal/domain/offer"
	"pharmex/internal/infra"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OfferRepository struct{}

func NewOfferRepository() *OfferRepository {
	return &OfferRepository{}
}

const offerColumns = `
	id, medication_id, seller_id, offer_type, price::text,
	declared_quantity, declared_bonus_quantity,
	base_bundle_quantity, base_bundle_bonus,
	expiration_label, status, sold_quantity, created_at, updated_at`

func (r *OfferRepository) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*offer.Offer, error) {
	row := db.QueryRow(ctx, `SELECT`+offerColumns+` FROM offers WHERE id = $1`, id)

	o, err := scanOffer(row)
	if err != nil {
		if isNoRows(err) {
			return nil, infra.WrapRepoErr("offer not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find offer", err)
	}
	return o, nil
}

// AddSoldQuantity is the stock decrement half of a commit; it returns the
// new sold total so the caller can decide on a close transition.
func (r *OfferRepository) AddSoldQuantity(ctx context.Context, db DBTX, id uuid.UUID, quantity int) (int, error) {
	var sold int
	err := db.QueryRow(ctx, `
		UPDATE offers
		SET sold_quantity = sold_quantity + $2, updated_at = now()
		WHERE id = $1
		RETURNING sold_quantity`, id, quantity).Scan(&sold)
	if err != nil {
		if isNoRows(err) {
			return 0, infra.WrapRepoErr("offer not found", err, infra.KindNotFound)
		}
		return 0, infra.WrapRepoErr("failed to record sold quantity", err)
	}
	return sold, nil
}

func (r *OfferRepository) UpdateStatus(ctx context.Context, db DBTX, id uuid.UUID, status offer.Status) error {
	tag, err := db.Exec(ctx, `
		UPDATE offers SET status = $2, updated_at = now() WHERE id = $1`,
		id, status.String())
	if err != nil {
		return infra.WrapRepoErr("failed to update offer status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("offer not found", nil, infra.KindNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOffer(row rowScanner) (*offer.Offer, error) {
	var (
		id, medicationID, sellerID uuid.UUID
		typ, priceText             string
		declaredQty, declaredBonus int
		bundleQty, bundleBonus     int
		expirationLabel, status    string
		soldQty                    int
		createdAt, updatedAt       time.Time
	)

	err := row.Scan(
		&id, &medicationID, &sellerID, &typ, &priceText,
		&declaredQty, &declaredBonus,
		&bundleQty, &bundleBonus,
		&expirationLabel, &status, &soldQty, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	price, err := decimal.NewFromString(priceText)
	if err != nil {
		return nil, err
	}

	return offer.ReconstructOffer(
		id, medicationID, sellerID,
		offer.Type(typ),
		price,
		declaredQty, declaredBonus,
		offer.BundleSpec{Quantity: bundleQty, Bonus: bundleBonus},
		expirationLabel,
		offer.Status(status),
		soldQty,
		createdAt, updatedAt,
	)
}
