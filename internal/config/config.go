// Package config loads the settings of `skema serve` from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/reoring/skema/internal/logging"
)

var (
	// ErrParsingConfig is returned when environment variables cannot be parsed.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")
	// ErrInvalidConfig is returned when a parsed value is out of range.
	ErrInvalidConfig = errors.New("invalid config")
)

// ServeConfig configures the validation server.
type ServeConfig struct {
	Addr         string `env:"SKEMA_ADDR" envDefault:":8080"`
	LogLevel     string `env:"SKEMA_LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"SKEMA_LOG_FORMAT" envDefault:"text"`
	MaxBodyBytes int64  `env:"SKEMA_MAX_BODY_BYTES" envDefault:"1048576"`
	SchemasFile  string `env:"SKEMA_SCHEMAS_FILE"`
	Lang         string `env:"SKEMA_LANG" envDefault:"en"`
}

// Load reads an optional .env file (the given paths, or ./.env) and parses
// the process environment. Variables already set win over the file.
func Load(envFiles ...string) (ServeConfig, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return ServeConfig{}, fmt.Errorf("load env files: %w", err)
		}
	} else {
		// .env is optional.
		_ = godotenv.Load()
	}
	var cfg ServeConfig
	if err := env.Parse(&cfg); err != nil {
		return ServeConfig{}, errors.Join(ErrParsingConfig, err)
	}
	return cfg, cfg.Validate()
}

// LoadFrom parses vars instead of the process environment.
func LoadFrom(vars map[string]string) (ServeConfig, error) {
	var cfg ServeConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return ServeConfig{}, errors.Join(ErrParsingConfig, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the log settings and the body limit.
func (c ServeConfig) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		errs = append(errs, err)
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("SKEMA_MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}

// Logger builds the logger described by the config. Call Validate first.
func (c ServeConfig) Logger(opts ...logging.Option) *slog.Logger {
	level, _ := logging.ParseLevel(c.LogLevel)
	format, _ := logging.ParseFormat(c.LogFormat)
	return logging.New(append([]logging.Option{logging.WithLevel(level), logging.WithFormat(format)}, opts...)...)
}
