// Package circuitbreaker wraps github.com/sony/gobreaker for the harvester's
// upstreams. Each upstream (feed endpoint, index page, metadata lookup
// service) carries its own breaker so a persistently failing upstream stops
// being hammered while the others keep harvesting.
package circuitbreaker

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Config holds the configuration for a circuit breaker.
type Config struct {
	// Name identifies the breaker in logs and metrics.
	Name string

	// MaxRequests is the number of requests allowed through in half-open state.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state after which counts reset.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration

	// FailureThreshold is the failure ratio that trips the circuit.
	FailureThreshold float64

	// MinRequests is the minimum sample size before the ratio is evaluated.
	MinRequests uint32
}

// FeedFetchConfig returns the breaker profile for syndication feed fetches.
// The feed is polled every tick, so the breaker recovers faster than a tick
// interval and a single bad poll never trips it.
func FeedFetchConfig() Config {
	return Config{
		Name:             "feed-fetch",
		MaxRequests:      3,
		Interval:         5 * time.Minute,
		Timeout:          10 * time.Minute,
		FailureThreshold: 0.7,
		MinRequests:      4,
	}
}

// PageScrapeConfig returns the breaker profile for HTML index page fetches.
func PageScrapeConfig() Config {
	return Config{
		Name:             "page-scrape",
		MaxRequests:      3,
		Interval:         5 * time.Minute,
		Timeout:          10 * time.Minute,
		FailureThreshold: 0.7,
		MinRequests:      4,
	}
}

// MetaLookupConfig returns the breaker profile for the metadata lookup
// service. One tick issues many lookups, so the sample size is larger and
// the threshold stricter: a broken lookup service fails an entire batch and
// should back off quickly.
func MetaLookupConfig() Config {
	return Config{
		Name:             "meta-lookup",
		MaxRequests:      5,
		Interval:         2 * time.Minute,
		Timeout:          5 * time.Minute,
		FailureThreshold: 0.5,
		MinRequests:      10,
	}
}

// CircuitBreaker wraps gobreaker.CircuitBreaker with state-change logging.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New creates a circuit breaker with the given configuration.
func New(cfg Config) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}

	return &CircuitBreaker{
		breaker: gobreaker.NewCircuitBreaker(settings),
		name:    cfg.Name,
	}
}

// Execute runs fn through the circuit breaker. When the circuit is open it
// returns gobreaker.ErrOpenState without invoking fn.
func (cb *CircuitBreaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	return cb.breaker.Execute(fn)
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.breaker.State()
}

// Name returns the breaker name.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}
