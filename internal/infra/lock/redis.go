package lock

import (
	"context"
	"errors"

	"pharmex/internal/infra"
	"pharmex/internal/pkg/config"
	"pharmex/internal/pkg/errs"
	"pharmex/internal/usecase/shared"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisOfferLocker implements the per-offer critical section on redislock.
// The TTL is a crash guard, not the unit of serialization: holders release
// explicitly as soon as the ledger transaction finishes.
type RedisOfferLocker struct {
	locker *redislock.Client
	cfg    config.LedgerConfig
}

func NewRedisOfferLocker(rdb *redis.Client, cfg config.LedgerConfig) *RedisOfferLocker {
	return &RedisOfferLocker{
		locker: redislock.New(rdb),
		cfg:    cfg,
	}
}

func (l *RedisOfferLocker) Lock(ctx context.Context, offerID uuid.UUID) (shared.Unlocker, error) {
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(
			redislock.LinearBackoff(l.cfg.LockRetryInterval),
			l.cfg.LockRetryLimit,
		),
	}

	lk, err := l.locker.Obtain(ctx, lockKey(offerID), l.cfg.LockTTL, opts)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, errs.Mark(err, errs.ErrOfferBusy)
		}
		return nil, infra.WrapRepoErr("failed to obtain offer lock", err, infra.KindUnavailable)
	}

	return &redisUnlocker{lock: lk}, nil
}

type redisUnlocker struct {
	lock *redislock.Lock
}

func (u *redisUnlocker) Release(ctx context.Context) error {
	err := u.lock.Release(ctx)
	if err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
		return infra.WrapRepoErr("failed to release offer lock", err, infra.KindUnavailable)
	}
	return nil
}

func lockKey(offerID uuid.UUID) string {
	return "offer-lock:" + offerID.String()
}
