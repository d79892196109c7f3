package components

import (
	"log/slog"

	"pharmex/internal/infra/db"
	"pharmex/internal/infra/lock"
	"pharmex/internal/infra/relay"
	"pharmex/internal/infra/repository"
	"pharmex/internal/usecase/commands"
	"pharmex/internal/usecase/queries"
	"pharmex/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		NewDBTX,
		fx.Annotate(
			db.NewPgTxRunner,
			fx.As(new(shared.TxRunner)),
		),
		fx.Annotate(
			lock.NewRedisOfferLocker,
			fx.As(new(shared.OfferLocker)),
		),
		NewRelay,
		fx.Annotate(
			repository.NewOfferRepository,
			fx.As(new(commands.OfferRepository)),
			fx.As(new(queries.OfferReader)),
		),
		fx.Annotate(
			repository.NewReservationRepository,
			fx.As(new(commands.ReservationRepository)),
			fx.As(new(queries.ReservationReader)),
		),
		fx.Annotate(
			repository.NewContributionRepository,
			fx.As(new(commands.ContributionRepository)),
			fx.As(new(queries.ContributionReader)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) repository.DBTX {
	return pool
}

// NewRelay provides the redis pub/sub relay under both of its roles.
func NewRelay(rdb *redis.Client, logger *slog.Logger) (shared.Publisher, shared.Subscriber) {
	r := relay.NewRedisRelay(rdb, logger)
	return r, r
}
