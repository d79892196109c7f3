package queries

import (
	"context"
	"time"

	"pharmex/internal/domain/offer"
	"pharmex/internal/infra/repository"

	"github.com/google/uuid"
)

type OfferReader interface {
	FindByID(ctx context.Context, db repository.DBTX, id uuid.UUID) (*offer.Offer, error)
}

type ReservationReader interface {
	SumOthersActive(ctx context.Context, db repository.DBTX, offerID, excludeHolder uuid.UUID, cutoff time.Time) (int, error)
	HolderQuantity(ctx context.Context, db repository.DBTX, offerID, holderID uuid.UUID, cutoff time.Time) (int, error)
}

type ContributionReader interface {
	SumByOffer(ctx context.Context, db repository.DBTX, offerID uuid.UUID) (int, error)
	SumByBuyer(ctx context.Context, db repository.DBTX, offerID, buyerID uuid.UUID) (int, error)
}
