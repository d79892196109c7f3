package bootstrap

import (
	"pharmex/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
		func(cfg config.Config) config.LedgerConfig { return cfg.Ledger },
		func(cfg config.Config) config.CartConfig { return cfg.Cart },
	),
)
