package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Upstream UpstreamConfig
	Store    StoreConfig
	Session  SessionConfig
	Redis    RedisConfig
}

type UpstreamConfig struct {
	BaseURL string        `env:"UPSTREAM_API_URL, default=http://localhost:9000"`
	Timeout time.Duration `env:"UPSTREAM_TIMEOUT, default=10s"`
}

type StoreConfig struct {
	// Backend selects the credential store: "file" (default) or "redis".
	Backend string `env:"CREDENTIAL_STORE, default=file"`
	// Path overrides the credential file location; empty means the
	// platform config directory.
	Path string `env:"CREDENTIAL_FILE"`
}

type SessionConfig struct {
	// TokenLeeway is the safety margin applied when checking the access
	// token's expiry claim.
	TokenLeeway time.Duration `env:"TOKEN_LEEWAY, default=30s"`
	// BootstrapTimeout is the hard wall-clock bound on the one-time session
	// check at startup.
	BootstrapTimeout time.Duration `env:"BOOTSTRAP_TIMEOUT, default=5s"`
	// GuardTimeout bounds how long a guarded request waits for the session
	// to settle.
	GuardTimeout time.Duration `env:"GUARD_TIMEOUT, default=5s"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
