package relay

import (
	"context"
	"encoding/json"
	"log/slog"

	"pharmex/internal/infra"
	"pharmex/internal/usecase/shared"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "offer-changed:"

// RedisRelay is the change notification push channel. One channel per offer
// keeps subscribers cheap; the registry subscribes with a pattern and fans
// out to whichever sessions display the offer.
type RedisRelay struct {
	rdb    *redis.Client
	logger *slog.Logger
}

func NewRedisRelay(rdb *redis.Client, logger *slog.Logger) *RedisRelay {
	return &RedisRelay{rdb: rdb, logger: logger}
}

func (r *RedisRelay) Publish(ctx context.Context, event shared.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return infra.WrapRepoErr("failed to encode change event", err)
	}

	if err := r.rdb.Publish(ctx, channelPrefix+event.OfferID.String(), payload).Err(); err != nil {
		return infra.WrapRepoErr("failed to publish change event", err, infra.KindUnavailable)
	}
	return nil
}

func (r *RedisRelay) Subscribe(ctx context.Context, fn func(shared.ChangeEvent)) (func(), error) {
	ps := r.rdb.PSubscribe(ctx, channelPrefix+"*")

	// Force the subscription to be established before returning.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, infra.WrapRepoErr("failed to subscribe to change events", err, infra.KindUnavailable)
	}

	go func() {
		for msg := range ps.Channel() {
			var event shared.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.logger.Warn("dropping malformed change event", "channel", msg.Channel, "error", err)
				continue
			}
			fn(event)
		}
	}()

	cancel := func() {
		if err := ps.Close(); err != nil {
			r.logger.Warn("failed to close relay subscription", "error", err)
		}
	}
	return cancel, nil
}
