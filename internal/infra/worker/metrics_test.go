package worker

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHarvestMetrics_RecordArticles(t *testing.T) {
	m := sharedMetrics()

	before := testutil.ToFloat64(m.HarvestArticlesTotal.WithLabelValues("NRK", "inserted"))
	m.RecordArticles("NRK", 3, 2)

	assert.Equal(t, before+3,
		testutil.ToFloat64(m.HarvestArticlesTotal.WithLabelValues("NRK", "inserted")))
	assert.GreaterOrEqual(t,
		testutil.ToFloat64(m.HarvestArticlesTotal.WithLabelValues("NRK", "duplicated")), 2.0)
}

func TestHarvestMetrics_RecordRun(t *testing.T) {
	m := sharedMetrics()

	before := testutil.ToFloat64(m.HarvestRunsTotal.WithLabelValues("BBC", "failure"))
	m.RecordRun("BBC", "failure")

	assert.Equal(t, before+1,
		testutil.ToFloat64(m.HarvestRunsTotal.WithLabelValues("BBC", "failure")))
}

func TestHarvestMetrics_RecordDuration(t *testing.T) {
	m := sharedMetrics()

	m.RecordDuration("OSLO-TEST", 1.5)

	metric, ok := m.HarvestDurationSeconds.WithLabelValues("OSLO-TEST").(prometheus.Metric)
	require.True(t, ok)
	pb := &dto.Metric{}
	require.NoError(t, metric.Write(pb))
	assert.Equal(t, uint64(1), pb.GetHistogram().GetSampleCount())
	assert.InDelta(t, 1.5, pb.GetHistogram().GetSampleSum(), 0.001)
}

func TestHarvestMetrics_LastSuccess(t *testing.T) {
	m := sharedMetrics()

	m.RecordLastSuccess("NRK")
	assert.Greater(t,
		testutil.ToFloat64(m.HarvestLastSuccessTimestamp.WithLabelValues("NRK")), 0.0)
}
