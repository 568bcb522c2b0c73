// Package metrics defines the Prometheus collectors of the monitor.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tejusbharadwaj/renugrid/internal/dashboard"
)

const namespace = "renugrid"

// Poll results used as the "result" label.
const (
	ResultSuccess = "success"
	ResultEmpty   = "empty"
	ResultError   = "error"
)

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Polls         *prometheus.CounterVec
	PollDuration  prometheus.Histogram
	SkippedTicks  prometheus.Counter
	StaleOutcomes prometheus.Counter
	SinkErrors    *prometheus.CounterVec

	Voltage   prometheus.Gauge
	Current   prometheus.Gauge
	Power     prometheus.Gauge
	Connected prometheus.Gauge

	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Feed polls by result.",
		}, []string{"result"}),
		PollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Duration of one fetch-parse-update cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		SkippedTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_ticks_total",
			Help:      "Ticks skipped because a poll was still in flight.",
		}),
		StaleOutcomes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_outcomes_total",
			Help:      "Poll outcomes discarded because a newer poll was already applied.",
		}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Failed sample writes by sink.",
		}, []string{"sink"}),
		Voltage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "voltage_volts",
			Help:      "Latest voltage reading.",
		}),
		Current: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_milliamps",
			Help:      "Latest current reading; negative while generating.",
		}),
		Power: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "power_milliwatts",
			Help:      "Latest power reading.",
		}),
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_connected",
			Help:      "1 when the last poll succeeded.",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Served requests by transport and method.",
		}, []string{"transport", "method"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Served request latency by transport and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"transport", "method"}),
	}

	for _, c := range []prometheus.Collector{
		m.Polls, m.PollDuration, m.SkippedTicks, m.StaleOutcomes, m.SinkErrors,
		m.Voltage, m.Current, m.Power, m.Connected,
		m.Requests, m.Latency,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ObservePoll(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.Polls.WithLabelValues(result).Inc()
	m.PollDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveSkip() {
	if m == nil {
		return
	}
	m.SkippedTicks.Inc()
}

func (m *Metrics) ObserveStale() {
	if m == nil {
		return
	}
	m.StaleOutcomes.Inc()
}

func (m *Metrics) ObserveSinkError(sink string) {
	if m == nil {
		return
	}
	m.SinkErrors.WithLabelValues(sink).Inc()
}

// ObserveState mirrors the dashboard state into the gauges.
func (m *Metrics) ObserveState(st dashboard.State) {
	if m == nil {
		return
	}
	if st.Connectivity.Status() == dashboard.StatusConnected {
		m.Connected.Set(1)
	} else {
		m.Connected.Set(0)
	}
	if st.Latest != nil {
		m.Voltage.Set(st.Latest.Voltage)
		m.Current.Set(st.Latest.CurrentMilliamps)
		m.Power.Set(st.Latest.PowerMilliwatts)
	}
}

func (m *Metrics) ObserveRequest(transport, method string, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(transport, method).Inc()
	m.Latency.WithLabelValues(transport, method).Observe(d.Seconds())
}
