package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timeouts, accounting windows), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Redis  RedisConfig
	CORS   CORSConfig
	Log    LogConfig
	JWT    JWTConfig
	Ledger LedgerConfig
	Cart   CartConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	PoolSize int    `envconfig:"REDIS_POOL_SIZE" default:"50"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"UTC"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"0"`
}

type JWTConfig struct {
	Secret   string `envconfig:"JWT_SECRET" required:"true"`
	Duration string `envconfig:"JWT_DURATION" default:"24h"`
}

// LedgerConfig governs the reservation accounting rules.
type LedgerConfig struct {
	// RenewalWindow is how long a reservation stays valid without being
	// renewed before it is treated as abandoned.
	RenewalWindow time.Duration `envconfig:"LEDGER_RENEWAL_WINDOW" default:"10m"`
	// MaxPoolMultiple caps how many bundle units a threshold pool may grow
	// to. Zero means no cap, which is almost never what an operator wants.
	MaxPoolMultiple int `envconfig:"LEDGER_MAX_POOL_MULTIPLE" default:"20"`
	// LockTTL bounds the per-offer critical section.
	LockTTL time.Duration `envconfig:"LEDGER_LOCK_TTL" default:"5s"`
	// LockRetryInterval / LockRetryLimit shape the backoff when an offer's
	// critical section is contended.
	LockRetryInterval time.Duration `envconfig:"LEDGER_LOCK_RETRY_INTERVAL" default:"50ms"`
	LockRetryLimit    int           `envconfig:"LEDGER_LOCK_RETRY_LIMIT" default:"40"`
}

type CartConfig struct {
	// SettleWindow is the debounce window: rapid quantity changes within it
	// collapse into a single ledger call carrying the final value.
	SettleWindow time.Duration `envconfig:"CART_SETTLE_WINDOW" default:"500ms"`
	// HardCeiling is the system-wide maximum quantity per line item.
	HardCeiling int `envconfig:"CART_HARD_CEILING" default:"10000"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
		},
		Redis: RedisConfig{
			Addr:     "localhost:16380",
			PoolSize: 10,
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "UTC",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 0,
		},
		Ledger: LedgerConfig{
			RenewalWindow:     10 * time.Minute,
			MaxPoolMultiple:   20,
			LockTTL:           5 * time.Second,
			LockRetryInterval: 10 * time.Millisecond,
			LockRetryLimit:    10,
		},
		Cart: CartConfig{
			SettleWindow: 20 * time.Millisecond,
			HardCeiling:  10000,
		},
	}
}
