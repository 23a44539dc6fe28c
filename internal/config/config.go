package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env          string
	Host         string
	Port         string
	DatabaseURL  string // sqlite file/DSN, or postgres:// URL
	RedisURL     string // empty keeps the session registry in memory
	AdminLogin   string // login name of the administrator account
	HealthPort   string // empty disables the health HTTP server
	HealthKey    string // guards GET /health/reset
	LogLevel     string
	SeedDefaults bool
	IdleTimeout  time.Duration
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("SERVER_HOST", "127.0.0.1")
	v.SetDefault("SERVER_PORT", "12345")
	v.SetDefault("DATABASE_URL", "file:tradeledger.db")
	v.SetDefault("ADMIN_LOGIN", "Root")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SEED_DEFAULTS", true)
	v.SetDefault("IDLE_TIMEOUT", "0s")

	env := v.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	return &Config{
		Env:          env,
		Host:         v.GetString("SERVER_HOST"),
		Port:         v.GetString("SERVER_PORT"),
		DatabaseURL:  v.GetString("DATABASE_URL"),
		RedisURL:     v.GetString("REDIS_URL"),
		AdminLogin:   strings.TrimSpace(v.GetString("ADMIN_LOGIN")),
		HealthPort:   v.GetString("HEALTH_PORT"),
		HealthKey:    v.GetString("HEALTH_ADMIN_KEY"),
		LogLevel:     v.GetString("LOG_LEVEL"),
		SeedDefaults: v.GetBool("SEED_DEFAULTS"),
		IdleTimeout:  v.GetDuration("IDLE_TIMEOUT"),
	}, nil
}

// Addr is the host:port the ledger server listens on.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// IsPostgres reports whether DatabaseURL points at Postgres rather than sqlite.
func (c *Config) IsPostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://")
}
