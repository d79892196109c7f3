package components

import (
	"context"

	"pharmex/internal/cart"

	"go.uber.org/fx"
)

var CartModule = fx.Module("cart",
	fx.Provide(
		cart.NewRegistry,
	),
	fx.Invoke(startRegistry),
)

func startRegistry(lc fx.Lifecycle, registry *cart.Registry) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// The relay subscription outlives the start context.
			return registry.Start(context.WithoutCancel(ctx))
		},
		OnStop: func(_ context.Context) error {
			registry.Stop()
			return nil
		},
	})
}
