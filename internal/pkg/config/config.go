package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // json or text

	// SourceHostname is the label placed in every record's `host` field.
	// Deliberately not read from the OS hostname: in containers that would
	// leak ephemeral pod names into the log stream.
	SourceHostname string `env:"SOURCE_HOSTNAME" envDefault:"keycloak"`

	// GELF collector destination.
	GelfHost string `env:"GELF_HOST" envDefault:"127.0.0.1"`
	GelfPort int    `env:"GELF_PORT" envDefault:"12201"`

	RedisAddr   string `env:"REDIS_ADDR,required"`
	AuditStream string `env:"AUDIT_STREAM" envDefault:"audit_events"`
	BatchSize   int    `env:"BATCH_SIZE" envDefault:"100"`

	// IncludeRepresentation controls whether admin events carry the full
	// resource representation in the record.
	IncludeRepresentation bool `env:"INCLUDE_REPRESENTATION" envDefault:"false"`

	// MaxSendRate caps outbound datagrams per second; 0 means unlimited.
	// Events over the cap are dropped, never queued.
	MaxSendRate float64 `env:"MAX_SEND_RATE" envDefault:"0"`

	AdminAddr string `env:"ADMIN_ADDR" envDefault:":9091"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
