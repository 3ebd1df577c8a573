// Package config defines the configuration for the reminder platform.
// Configuration is loaded once at process initialization and is immutable
// thereafter; sub-components receive only the specific subsets they require.
//
// Values are resolved from the OS environment with a .env fallback for local
// development. Any missing required value or invalid format causes the
// process to fail immediately on startup.
package config

import (
	"time"

	"reminderd/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used in configuration to prevent accidental logging of sensitive values.
type SecretString = types.SecretString

// Config is the top-level configuration struct.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server    ServerConfig
	Database  DatabaseConfig
	Email     EmailConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"15s"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required"`

	MaxConns        int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
}

// EmailConfig holds email delivery provider credentials and sender identity.
type EmailConfig struct {
	SendGridAPIKey SecretString `envconfig:"SENDGRID_API_KEY" validate:"required"`
	FromAddress    string       `envconfig:"EMAIL_FROM_ADDRESS" default:"lembretes@reminderd.io" validate:"email"`
	FromName       string       `envconfig:"EMAIL_FROM_NAME" default:"Lembretes"`
	// DisableURLBase is the public base URL for per-reminder
	// disable-notification links embedded in emails.
	DisableURLBase string `envconfig:"EMAIL_DISABLE_URL_BASE" default:"#"`
	// SendTimeout bounds a single provider call, including the client's
	// internal retries.
	SendTimeout time.Duration `envconfig:"EMAIL_SEND_TIMEOUT" default:"30s"`
}

// SchedulerConfig holds trigger-engine tuning parameters.
type SchedulerConfig struct {
	// RetrySweepInterval is how often the failure queue is drained.
	RetrySweepInterval time.Duration `envconfig:"RETRY_SWEEP_INTERVAL" default:"20m" validate:"min=1m"`
	// RetryBatchSize bounds the number of failure records retried per sweep.
	RetryBatchSize int `envconfig:"RETRY_BATCH_SIZE" default:"20" validate:"min=1"`
	// DisplayTimezone is the IANA zone used when formatting dates in
	// outgoing email text.
	DisplayTimezone string `envconfig:"DISPLAY_TIMEZONE" default:"America/Sao_Paulo"`
}
