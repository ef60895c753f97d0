// Package config provides environment-based configuration loading with
// validation and fail-open fallback, plus the Prometheus metrics that track
// fallback behavior. Components load their configuration through these
// helpers so an invalid value degrades to a safe default instead of
// preventing startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Result holds the outcome of loading a single configuration value.
// Value is always usable: either the validated environment value or the
// provided default.
type Result struct {
	Value           any
	FallbackApplied bool
	Warnings        []string
}

// LoadEnvWithFallback loads a string environment variable, validates it, and
// falls back to the default on failure.
//
// Fallback is applied (and recorded in the Result) when the variable is set
// but fails validation. An unset variable silently uses the default.
func LoadEnvWithFallback(key, defaultValue string, validate func(string) error) Result {
	raw := os.Getenv(key)
	if raw == "" {
		return Result{Value: defaultValue}
	}

	if validate != nil {
		if err := validate(raw); err != nil {
			return Result{
				Value:           defaultValue,
				FallbackApplied: true,
				Warnings: []string{fmt.Sprintf(
					"%s=%q failed validation (%v), using default %q", key, raw, err, defaultValue)},
			}
		}
	}

	return Result{Value: raw}
}

// LoadEnvInt loads an integer environment variable with validation and
// fallback semantics matching LoadEnvWithFallback.
func LoadEnvInt(key string, defaultValue int, validate func(int) error) Result {
	raw := os.Getenv(key)
	if raw == "" {
		return Result{Value: defaultValue}
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return Result{
			Value:           defaultValue,
			FallbackApplied: true,
			Warnings: []string{fmt.Sprintf(
				"%s=%q is not an integer, using default %d", key, raw, defaultValue)},
		}
	}

	if validate != nil {
		if err := validate(value); err != nil {
			return Result{
				Value:           defaultValue,
				FallbackApplied: true,
				Warnings: []string{fmt.Sprintf(
					"%s=%d failed validation (%v), using default %d", key, value, err, defaultValue)},
			}
		}
	}

	return Result{Value: value}
}

// LoadEnvDuration loads a time.Duration environment variable (parsed by
// time.ParseDuration, e.g. "15m") with validation and fallback semantics
// matching LoadEnvWithFallback.
func LoadEnvDuration(key string, defaultValue time.Duration, validate func(time.Duration) error) Result {
	raw := os.Getenv(key)
	if raw == "" {
		return Result{Value: defaultValue}
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		return Result{
			Value:           defaultValue,
			FallbackApplied: true,
			Warnings: []string{fmt.Sprintf(
				"%s=%q is not a duration, using default %v", key, raw, defaultValue)},
		}
	}

	if validate != nil {
		if err := validate(value); err != nil {
			return Result{
				Value:           defaultValue,
				FallbackApplied: true,
				Warnings: []string{fmt.Sprintf(
					"%s=%v failed validation (%v), using default %v", key, value, err, defaultValue)},
			}
		}
	}

	return Result{Value: value}
}

// GetEnvString returns the value of an environment variable or the default
// value if it is not set. No validation is performed.
func GetEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
