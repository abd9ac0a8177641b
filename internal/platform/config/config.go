// Package config loads process configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config captures everything the binaries need from the environment.
type Config struct {
	// Addr is the listen address of the operations HTTP server.
	Addr string `env:"ROLLCALL_ADDR" envDefault:":8080"`

	// DatabasePath is the SQLite database file.
	DatabasePath string `env:"ROLLCALL_DB_PATH" envDefault:"rollcall.db"`

	// PostgresDSN switches storage to PostgreSQL when set.
	PostgresDSN string `env:"ROLLCALL_POSTGRES_DSN"`

	// KafkaBrokers enables audit event publishing when non-empty.
	KafkaBrokers []string `env:"ROLLCALL_KAFKA_BROKERS"`
	KafkaTopic   string   `env:"ROLLCALL_KAFKA_TOPIC" envDefault:"rollcall.audit"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"ROLLCALL_LOG_LEVEL" envDefault:"info"`
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	// Missing .env is normal outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
