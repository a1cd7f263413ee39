package bus

import (
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds environment-driven defaults for receivers built without
// explicit per-receiver options.
type Config struct {
	DefaultLimit     uint64        `env:"BUS_DEFAULT_LIMIT" envDefault:"10"`
	DefaultQueueSize int           `env:"BUS_DEFAULT_QUEUE_CAPACITY" envDefault:"100"`
	ShutdownTimeout  time.Duration `env:"BUS_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// DefaultConfig returns Config populated with the same values its env
// tags default to, for use when no environment is loaded at all.
func DefaultConfig() Config {
	return Config{
		DefaultLimit:     10,
		DefaultQueueSize: 100,
		ShutdownTimeout:  30 * time.Second,
	}
}

var dotenvOnce sync.Once

// LoadConfig parses Config from the process environment, auto-loading a
// .env file on first use if present. Unlike core/config's generic
// per-type cache (this package has only one config type, so caching
// would buy nothing), every call re-reads the environment.
func LoadConfig() (Config, error) {
	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// MustLoadConfig is LoadConfig, panicking on failure. Intended for
// startup paths where a misconfigured environment should fail fast.
func MustLoadConfig() Config {
	cfg, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return cfg
}
