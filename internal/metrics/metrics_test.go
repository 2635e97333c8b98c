package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsRegistered(t *testing.T) {
	RemindersTotal.WithLabelValues(ResultSent).Add(0)
	HTTPRequestsTotal.WithLabelValues("GET /health", "200", "get").Add(0)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["maintenance_reminders_total"])
	assert.True(t, names["maintenance_reminder_runs_total"])
	assert.True(t, names["http_requests_total"])
}

func TestRemindersTotal_ByResult(t *testing.T) {
	before := testutil.ToFloat64(RemindersTotal.WithLabelValues(ResultSkipped))
	RemindersTotal.WithLabelValues(ResultSkipped).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(RemindersTotal.WithLabelValues(ResultSkipped)))
}
