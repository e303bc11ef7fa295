package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration. It is built once at process
// start and passed by reference; nothing reads the environment after boot.
// TokenIssuer and TokenAudience are fixed per deployment environment and
// are the mechanism that keeps tokens from one environment structurally
// unusable against another.
type Config struct {
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	ServerAddr string `env:"SERVER_ADDR" envDefault:":8080"`
	AdminAddr  string `env:"ADMIN_ADDR" envDefault:":9091"`

	TokenIssuer   string        `env:"TOKEN_ISSUER,required"`
	TokenAudience string        `env:"TOKEN_AUDIENCE,required"`
	JWKSURL       string        `env:"JWKS_URL,required"`
	JWKSCacheTTL  time.Duration `env:"JWKS_CACHE_TTL" envDefault:"5m"`

	TenantStore         string        `env:"TENANT_STORE" envDefault:"dynamodb"` // dynamodb | postgres
	TenantTable         string        `env:"TENANT_TABLE" envDefault:"tenants"`
	AWSRegion           string        `env:"AWS_REGION" envDefault:"eu-west-2"`
	PostgresURL         string        `env:"POSTGRES_URL"`
	TenantLookupTimeout time.Duration `env:"TENANT_LOOKUP_TIMEOUT" envDefault:"2s"`

	RedisAddr  string        `env:"REDIS_ADDR"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"15m"`

	RuntimeEndpoint string        `env:"AGENT_RUNTIME_ENDPOINT,required"`
	RuntimeTimeout  time.Duration `env:"AGENT_RUNTIME_TIMEOUT" envDefault:"60s"`

	KafkaBrokers string `env:"KAFKA_BROKERS"`
	AuditTopic   string `env:"AUDIT_TOPIC" envDefault:"agentgate.decisions"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	switch cfg.TenantStore {
	case "dynamodb":
	case "postgres":
		if cfg.PostgresURL == "" {
			return nil, fmt.Errorf("TENANT_STORE=postgres requires POSTGRES_URL")
		}
	default:
		return nil, fmt.Errorf("unsupported TENANT_STORE %q", cfg.TenantStore)
	}

	return cfg, nil
}
