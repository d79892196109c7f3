package commands

import (
	"context"
	"time"

	"pharmex/internal/domain/offer"
	"pharmex/internal/domain/reservation"
	"pharmex/internal/infra/repository"

	"github.com/google/uuid"
)

type OfferRepository interface {
	FindByID(ctx context.Context, db repository.DBTX, id uuid.UUID) (*offer.Offer, error)
	AddSoldQuantity(ctx context.Context, db repository.DBTX, id uuid.UUID, quantity int) (int, error)
	UpdateStatus(ctx context.Context, db repository.DBTX, id uuid.UUID, status offer.Status) error
}

type ReservationRepository interface {
	Get(ctx context.Context, db repository.DBTX, offerID, holderID uuid.UUID) (*reservation.Reservation, error)
	Upsert(ctx context.Context, db repository.DBTX, res *reservation.Reservation) error
	Delete(ctx context.Context, db repository.DBTX, offerID, holderID uuid.UUID) (bool, error)
	DeleteStale(ctx context.Context, db repository.DBTX, offerID uuid.UUID, cutoff time.Time) (int, error)
	SumOthersActive(ctx context.Context, db repository.DBTX, offerID, excludeHolder uuid.UUID, cutoff time.Time) (int, error)
	HolderQuantity(ctx context.Context, db repository.DBTX, offerID, holderID uuid.UUID, cutoff time.Time) (int, error)
}

type ContributionRepository interface {
	Insert(ctx context.Context, db repository.DBTX, c *reservation.Contribution) error
	SumByOffer(ctx context.Context, db repository.DBTX, offerID uuid.UUID) (int, error)
	SumByBuyer(ctx context.Context, db repository.DBTX, offerID, buyerID uuid.UUID) (int, error)
}
