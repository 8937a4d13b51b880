package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const envDevelopment = "development"

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Identity IdentityConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Mongo    MongoConfig
}

type IdentityConfig struct {
	BaseURL            string        `env:"IDENTITY_BASE_URL,             default=https://lib.mardens.com"`
	Timeout            time.Duration `env:"IDENTITY_TIMEOUT,              default=10s"`
	InsecureSkipVerify bool          `env:"IDENTITY_INSECURE_SKIP_VERIFY, default=false"`
	UserAgent          string        `env:"IDENTITY_USER_AGENT,           default=Mardens Actix Auth Library"`
}

type AuthConfig struct {
	Header               string `env:"AUTH_HEADER,                 default=X-Authentication"`
	Cookie               string `env:"AUTH_COOKIE,                 default=token"`
	ExposeUpstreamErrors bool   `env:"AUTH_EXPOSE_UPSTREAM_ERRORS, default=false"`
}

// RedisConfig backs the token cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,        default=0"`
	TokenTTL time.Duration `env:"TOKEN_CACHE_TTL, default=30s"`
}

// MongoConfig backs the audit trail. An empty URI disables it.
type MongoConfig struct {
	URI          string `env:"MONGO_URI"`
	Database     string `env:"MONGO_DB,      default=authgate"`
	AuditWorkers int    `env:"AUDIT_WORKERS, default=4"`
}

// IsDevelopment reports whether the service runs in the development
// environment.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), envDevelopment)
}

// CacheEnabled reports whether a Redis address was configured.
func (c *Config) CacheEnabled() bool { return c.Redis.Addr != "" && c.Redis.TokenTTL > 0 }

// AuditEnabled reports whether a MongoDB URI was configured.
func (c *Config) AuditEnabled() bool { return c.Mongo.URI != "" }

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith resolves configuration from the given lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if cfg.Mongo.AuditWorkers <= 0 {
		return nil, fmt.Errorf("AUDIT_WORKERS must be positive, got %d", cfg.Mongo.AuditWorkers)
	}
	return &cfg, nil
}
