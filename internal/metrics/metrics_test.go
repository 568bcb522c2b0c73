package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejusbharadwaj/renugrid/internal/dashboard"
	"github.com/tejusbharadwaj/renugrid/internal/models"
)

func TestNew_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err, "duplicate registration must fail")
}

func TestObserve(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.ObservePoll(ResultSuccess, 20*time.Millisecond)
	m.ObservePoll(ResultError, time.Millisecond)
	m.ObservePoll(ResultError, time.Millisecond)
	m.ObserveSkip()
	m.ObserveStale()
	m.ObserveSinkError("influx")
	m.ObserveRequest("http", "/api/state", time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Polls.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Polls.WithLabelValues(ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SkippedTicks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaleOutcomes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SinkErrors.WithLabelValues("influx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("http", "/api/state")))
}

func TestObserveState(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	store := dashboard.NewStore()
	store.Succeed(1, []models.Sample{{Voltage: 12.5, CurrentMilliamps: -150, PowerMilliwatts: 1875}})
	m.ObserveState(store.Snapshot())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Connected))
	assert.Equal(t, 12.5, testutil.ToFloat64(m.Voltage))
	assert.Equal(t, -150.0, testutil.ToFloat64(m.Current))
	assert.Equal(t, 1875.0, testutil.ToFloat64(m.Power))

	store.Fail(2, "Network Error: 500")
	m.ObserveState(store.Snapshot())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Connected))
	assert.Equal(t, 12.5, testutil.ToFloat64(m.Voltage), "gauges keep the last known value")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObservePoll(ResultSuccess, time.Second)
		m.ObserveSkip()
		m.ObserveStale()
		m.ObserveSinkError("x")
		m.ObserveState(dashboard.State{})
		m.ObserveRequest("grpc", "Check", time.Second)
	})
}
