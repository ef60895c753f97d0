package worker

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Prometheus metrics register globally, so all tests in this package share
// one HarvestMetrics instance.
var (
	testMetricsOnce sync.Once
	testMetrics     *HarvestMetrics
)

func sharedMetrics() *HarvestMetrics {
	testMetricsOnce.Do(func() {
		testMetrics = NewHarvestMetrics()
	})
	return testMetrics
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "*/15 * * * *", cfg.HarvestSchedule)
	assert.Equal(t, "Europe/Oslo", cfg.Timezone)
	assert.Equal(t, 5*time.Minute, cfg.HarvestTimeout)
	assert.Equal(t, 9091, cfg.HealthPort)
	assert.Equal(t, 9090, cfg.MetricsPort)
	assert.NotEmpty(t, cfg.LookupBaseURL)

	require.NoError(t, cfg.Validate())
}

func TestConfigValidate_CollectsAllErrors(t *testing.T) {
	cfg := Config{
		HarvestSchedule: "not a schedule",
		Timezone:        "Atlantis/Lost",
		HarvestTimeout:  time.Second,
		HealthPort:      80,
		MetricsPort:     9090,
		LookupBaseURL:   "not-a-url",
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "harvest schedule")
	assert.Contains(t, err.Error(), "timezone")
	assert.Contains(t, err.Error(), "harvest timeout")
	assert.Contains(t, err.Error(), "health port")
	assert.Contains(t, err.Error(), "lookup base URL")
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("HARVEST_SCHEDULE", "")
	t.Setenv("WORKER_TIMEZONE", "")
	t.Setenv("HARVEST_TIMEOUT", "")
	t.Setenv("WORKER_HEALTH_PORT", "")
	t.Setenv("WORKER_METRICS_PORT", "")
	t.Setenv("LOOKUP_BASE_URL", "")

	cfg := LoadConfigFromEnv(discardLogger(), sharedMetrics())

	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("HARVEST_SCHEDULE", "*/5 * * * *")
	t.Setenv("WORKER_TIMEZONE", "UTC")
	t.Setenv("HARVEST_TIMEOUT", "2m")
	t.Setenv("WORKER_HEALTH_PORT", "8081")
	t.Setenv("WORKER_METRICS_PORT", "8080")
	t.Setenv("LOOKUP_BASE_URL", "https://lookup.example/api?url=")

	cfg := LoadConfigFromEnv(discardLogger(), sharedMetrics())

	assert.Equal(t, "*/5 * * * *", cfg.HarvestSchedule)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 2*time.Minute, cfg.HarvestTimeout)
	assert.Equal(t, 8081, cfg.HealthPort)
	assert.Equal(t, 8080, cfg.MetricsPort)
	assert.Equal(t, "https://lookup.example/api?url=", cfg.LookupBaseURL)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv_FailOpen(t *testing.T) {
	t.Setenv("HARVEST_SCHEDULE", "every full moon")
	t.Setenv("WORKER_TIMEZONE", "Atlantis/Lost")
	t.Setenv("HARVEST_TIMEOUT", "12h")
	t.Setenv("WORKER_HEALTH_PORT", "80")
	t.Setenv("WORKER_METRICS_PORT", "")
	t.Setenv("LOOKUP_BASE_URL", "ftp://nope")

	cfg := LoadConfigFromEnv(discardLogger(), sharedMetrics())

	// Every invalid value degrades to its default; the result is valid.
	assert.Equal(t, DefaultConfig(), *cfg)
	require.NoError(t, cfg.Validate())
}
