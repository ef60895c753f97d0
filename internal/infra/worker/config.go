// Package worker holds the operational shell of the harvest worker:
// environment configuration, Prometheus metrics, and the health endpoint.
package worker

import (
	"fmt"
	"log/slog"
	"time"

	"nordfeed/internal/infra/scraper"
	"nordfeed/internal/pkg/config"
)

// Config holds the runtime configuration for the harvest worker.
// All fields have safe defaults; loading is fail-open, so an invalid
// environment value degrades to the default instead of preventing startup.
type Config struct {
	// HarvestSchedule is the cron expression driving the harvest ticks.
	// Five fields, standard cron syntax.
	HarvestSchedule string

	// Timezone is the IANA timezone used both for cron evaluation and for
	// the display form of article timestamps.
	Timezone string

	// HarvestTimeout bounds a single harvest tick across all sources.
	HarvestTimeout time.Duration

	// HealthPort is the listen port of the health check server.
	HealthPort int

	// MetricsPort is the listen port of the Prometheus metrics server.
	MetricsPort int

	// LookupBaseURL is the metadata lookup endpoint used by the bulletin
	// scraper. The target page URL is appended query-escaped.
	LookupBaseURL string
}

// DefaultConfig returns the production defaults: a tick every 15 minutes,
// Oslo time, and a 5 minute budget per tick.
func DefaultConfig() Config {
	return Config{
		HarvestSchedule: "*/15 * * * *",
		Timezone:        "Europe/Oslo",
		HarvestTimeout:  5 * time.Minute,
		HealthPort:      9091,
		MetricsPort:     9090,
		LookupBaseURL:   scraper.DefaultLookupBaseURL,
	}
}

// Validate checks every field, collecting all failures into one error.
func (c *Config) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.HarvestSchedule); err != nil {
		errs = append(errs, fmt.Errorf("harvest schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateDuration(c.HarvestTimeout, 30*time.Second, 30*time.Minute); err != nil {
		errs = append(errs, fmt.Errorf("harvest timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}
	if err := config.ValidateAbsoluteURL(c.LookupBaseURL); err != nil {
		errs = append(errs, fmt.Errorf("lookup base URL: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv loads the worker configuration from environment
// variables with fail-open fallback: every invalid value is replaced by its
// default, logged, and counted, and the returned configuration is always
// valid.
//
// Environment variables:
//   - HARVEST_SCHEDULE: cron expression (default "*/15 * * * *")
//   - WORKER_TIMEZONE: IANA timezone (default "Europe/Oslo")
//   - HARVEST_TIMEOUT: duration between 30s and 30m (default "5m")
//   - WORKER_HEALTH_PORT: port 1024-65535 (default 9091)
//   - WORKER_METRICS_PORT: port 1024-65535 (default 9090)
//   - LOOKUP_BASE_URL: absolute http(s) URL (default scraper.DefaultLookupBaseURL)
func LoadConfigFromEnv(logger *slog.Logger, metrics *HarvestMetrics) *Config {
	cfg := DefaultConfig()
	fallbackApplied := false

	apply := func(field string, result config.Result, set func(config.Result)) {
		set(result)
		if !result.FallbackApplied {
			return
		}
		fallbackApplied = true
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field)
		for _, warning := range result.Warnings {
			logger.Warn("configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	apply("harvest_schedule",
		config.LoadEnvWithFallback("HARVEST_SCHEDULE", cfg.HarvestSchedule, config.ValidateCronSchedule),
		func(r config.Result) { cfg.HarvestSchedule = r.Value.(string) })

	apply("timezone",
		config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone),
		func(r config.Result) { cfg.Timezone = r.Value.(string) })

	apply("harvest_timeout",
		config.LoadEnvDuration("HARVEST_TIMEOUT", cfg.HarvestTimeout, func(d time.Duration) error {
			return config.ValidateDuration(d, 30*time.Second, 30*time.Minute)
		}),
		func(r config.Result) { cfg.HarvestTimeout = r.Value.(time.Duration) })

	apply("health_port",
		config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
			return config.ValidateIntRange(v, 1024, 65535)
		}),
		func(r config.Result) { cfg.HealthPort = r.Value.(int) })

	apply("metrics_port",
		config.LoadEnvInt("WORKER_METRICS_PORT", cfg.MetricsPort, func(v int) error {
			return config.ValidateIntRange(v, 1024, 65535)
		}),
		func(r config.Result) { cfg.MetricsPort = r.Value.(int) })

	apply("lookup_base_url",
		config.LoadEnvWithFallback("LOOKUP_BASE_URL", cfg.LookupBaseURL, config.ValidateAbsoluteURL),
		func(r config.Result) { cfg.LookupBaseURL = r.Value.(string) })

	metrics.SetFallbackActive(fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg
}
