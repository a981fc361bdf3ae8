// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/DoyleJ11/draft-room/internal/storage"
)

type Config struct {
	Addr     string `env:"ADDR" envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogDev   bool   `env:"LOG_DEV" envDefault:"false"`

	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"500ms"`
	// RoomIdleTTL unloads rooms with no sessions after this long. 0 never does.
	RoomIdleTTL time.Duration `env:"ROOM_IDLE_TTL" envDefault:"30m"`
	ChatLimit     int           `env:"CHAT_LIMIT" envDefault:"200"`
	// RandomSeed makes random picks reproducible. 0 seeds from the runtime.
	RandomSeed  uint64 `env:"RANDOM_SEED" envDefault:"0"`
	CatalogPath string `env:"CATALOG_PATH"`

	AllowedOrigins  []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	ClientRateLimit float64  `env:"CLIENT_RATE_LIMIT" envDefault:"10"`
	ClientRateBurst int      `env:"CLIENT_RATE_BURST" envDefault:"20"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Storage storage.Config `envPrefix:"STORAGE_"`
}

// Load reads .env files if present, then the environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}
	return Parse()
}

// Parse reads the environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Storage.Driver {
	case storage.DriverMemory, storage.DriverSQLite, storage.DriverPostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == storage.DriverPostgres && c.Storage.PostgresDSN == "" {
		return errors.New("STORAGE_POSTGRES_DSN is required for the postgres driver")
	}
	if c.SweepInterval <= 0 {
		return errors.New("SWEEP_INTERVAL must be positive")
	}
	if c.RoomIdleTTL < 0 {
		return errors.New("ROOM_IDLE_TTL must not be negative")
	}
	if c.ChatLimit <= 0 {
		return errors.New("CHAT_LIMIT must be positive")
	}
	return nil
}
