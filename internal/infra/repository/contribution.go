package repository

import (
	"context"

	"pharmex/internal/domain/reservation"
	"pharmex/internal/infra"

	"github.com/google/uuid"
)

type ContributionRepository struct{}

func NewContributionRepository() *ContributionRepository {
	return &ContributionRepository{}
}

func (r *ContributionRepository) Insert(ctx context.Context, db DBTX, c *reservation.Contribution) error {
	_, err := db.Exec(ctx, `
		INSERT INTO participant_contributions
			(offer_id, buyer_id, quantity, depot_fulfillment, contributed_at)
		VALUES ($1, $2, $3, $4, $5)`,
		c.OfferID(), c.BuyerID(), c.Quantity(), c.DepotFulfillment(), c.ContributedAt())
	if err != nil {
		if isUniqueViolation(err) {
			return infra.WrapRepoErr("duplicate contribution", err, infra.KindDuplicateKey)
		}
		return infra.WrapRepoErr("failed to insert contribution", err)
	}
	return nil
}

func (r *ContributionRepository) SumByOffer(ctx context.Context, db DBTX, offerID uuid.UUID) (int, error) {
	var sum int
	err := db.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM participant_contributions
		WHERE offer_id = $1`, offerID).Scan(&sum)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to sum contributions", err)
	}
	return sum, nil
}

func (r *ContributionRepository) SumByBuyer(ctx context.Context, db DBTX, offerID, buyerID uuid.UUID) (int, error) {
	var sum int
	err := db.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM participant_contributions
		WHERE offer_id = $1 AND buyer_id = $2`, offerID, buyerID).Scan(&sum)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to sum buyer contributions", err)
	}
	return sum, nil
}
