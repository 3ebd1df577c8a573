// loader.go implements the configuration loading lifecycle.
//
// The loading sequence is:
//  1. Enforce UTC process timezone to prevent drift bugs.
//  2. Load a .env file via godotenv (non-fatal if absent).
//  3. Process envconfig struct tags to populate the Config struct.
//  4. Validate the struct using go-playground/validator.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load reads, populates, and validates the process configuration.
// It fails fast: any missing required value or validation error is returned
// and the caller is expected to abort startup.
func Load() (*Config, error) {
	// Enforce UTC so instants stored and compared by the scheduler never
	// depend on the host zone. Display formatting uses its own zone.
	time.Local = time.UTC

	// godotenv.Load silently succeeds if no .env exists and never
	// overrides variables already present in the environment.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: processing environment: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks a populated Config against its validation tags and the
// cross-field rules envconfig tags cannot express.
func Validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("config: validation failed: %w", err)
	}

	// The display zone must resolve; a typo here would otherwise surface as
	// garbled dates in every outgoing email.
	if _, err := time.LoadLocation(cfg.Scheduler.DisplayTimezone); err != nil {
		return fmt.Errorf("config: invalid DISPLAY_TIMEZONE %q: %w", cfg.Scheduler.DisplayTimezone, err)
	}

	return nil
}
