package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejusbharadwaj/renugrid/internal/dashboard"
	"github.com/tejusbharadwaj/renugrid/internal/metrics"
	"github.com/tejusbharadwaj/renugrid/internal/models"
	"github.com/tejusbharadwaj/renugrid/internal/telemetry"
)

type fakeArchive struct {
	data []models.TimeSeriesData
	err  error

	window, aggregation string
}

func (f *fakeArchive) Query(ctx context.Context, start, end time.Time, window string, aggregation string) ([]models.TimeSeriesData, error) {
	f.window, f.aggregation = window, aggregation
	return f.data, f.err
}

func testConfig() Config {
	return Config{RateLimit: 1000, RateLimitBurst: 1000, CacheSize: 16, Location: time.UTC}
}

func newTestServer(t *testing.T, cfg Config, opts ...Option) (*httptest.Server, *Server, *dashboard.Store) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := dashboard.NewStore(dashboard.WithLocation(time.UTC))
	s, err := NewServer(store, cfg, logger, opts...)
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, s, store
}

func samples(n int) []models.Sample {
	base := time.Date(2025, 9, 14, 10, 0, 0, 0, time.UTC)
	out := make([]models.Sample, n)
	for i := range out {
		out[i] = models.Sample{
			Timestamp:        base.Add(time.Duration(i) * 15 * time.Second).Format(time.RFC3339),
			EntryID:          int64(i + 1),
			Voltage:          12.346,
			CurrentMilliamps: -150,
			PowerMilliwatts:  float64(1800 + i),
		}
	}
	return out
}

func getJSON(t *testing.T, url string, v interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp
}

type stateDoc struct {
	Seq          uint64            `json:"seq"`
	Loading      bool              `json:"loading"`
	Connectivity map[string]string `json:"connectivity"`
	Latest       *models.Sample    `json:"latest"`
	Display      telemetry.Display `json:"display"`
	LastUpdated  string            `json:"last_updated"`
}

func TestHealthz(t *testing.T) {
	ts, _, _ := newTestServer(t, testConfig())

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", string(body))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestState(t *testing.T) {
	ts, s, store := newTestServer(t, testConfig())

	var doc stateDoc
	resp := getJSON(t, ts.URL+"/api/state", &doc)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Nil(t, doc.Latest)
	assert.Equal(t, "connecting", doc.Connectivity["status"])
	assert.Equal(t, "Connecting...", doc.Connectivity["text"])
	assert.Equal(t, telemetry.Placeholder, doc.Display.Voltage)
	assert.Equal(t, "Status Unknown", doc.Display.ModeLabel)

	store.Begin(1)
	store.Succeed(1, samples(3))

	getJSON(t, ts.URL+"/api/state", &doc)
	assert.Equal(t, uint64(1), doc.Seq)
	require.NotNil(t, doc.Latest)
	assert.Equal(t, int64(3), doc.Latest.EntryID)
	assert.Equal(t, "connected", doc.Connectivity["status"])
	assert.Equal(t, "12.35", doc.Display.Voltage)
	assert.Equal(t, "-150", doc.Display.Current)
	assert.Equal(t, "GENERATING", doc.Display.Mode)
	assert.Equal(t, "10:00:30", doc.LastUpdated)

	// the same poll is served from the cache
	before := s.cache.Len()
	getJSON(t, ts.URL+"/api/state", &doc)
	assert.Equal(t, before, s.cache.Len())

	store.Begin(2)
	store.Fail(2, "Network Error: 500")
	getJSON(t, ts.URL+"/api/state", &doc)
	assert.Equal(t, "failed", doc.Connectivity["status"])
	assert.Equal(t, "Network Error: 500", doc.Connectivity["text"])
	assert.Equal(t, "12.35", doc.Display.Voltage, "values survive a failed poll")
}

func TestHistory(t *testing.T) {
	ts, _, store := newTestServer(t, testConfig())

	var series telemetry.Series
	getJSON(t, ts.URL+"/api/history", &series)
	assert.Empty(t, series.Labels)

	store.Begin(1)
	store.Succeed(1, samples(2))

	getJSON(t, ts.URL+"/api/history", &series)
	assert.Equal(t, []string{"10:00:00", "10:00:15"}, series.Labels)
	assert.Equal(t, []float64{1800, 1801}, series.Power)
	assert.Equal(t, []float64{-150, -150}, series.Current)
}

func TestArchive(t *testing.T) {
	at := time.Date(2025, 9, 14, 10, 0, 0, 0, time.UTC)
	archive := &fakeArchive{data: []models.TimeSeriesData{
		{Time: at, Voltage: 12.1, CurrentMilliamps: 80, PowerMilliwatts: 970},
	}}
	ts, _, _ := newTestServer(t, testConfig(), WithArchive(archive))

	url := ts.URL + "/api/archive?start=2025-09-14T00:00:00Z&end=2025-09-15T00:00:00Z&window=5m&aggregation=MAX"

	var doc archiveResponse
	resp := getJSON(t, url, &doc)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "5m", archive.window)
	assert.Equal(t, "MAX", archive.aggregation)
	require.Len(t, doc.Data, 1)
	assert.Equal(t, 970.0, doc.Data[0].PowerMilliwatts)

	// defaults
	getJSON(t, ts.URL+"/api/archive?start=2025-09-14T00:00:00Z&end=2025-09-15T00:00:00Z", &doc)
	assert.Equal(t, "1h", doc.Window)
	assert.Equal(t, "AVG", doc.Aggregation)
}

func TestArchive_Errors(t *testing.T) {
	tests := []struct {
		name       string
		archive    Archive
		query      string
		wantStatus int
		wantError  string
	}{
		{"disabled", nil, "?start=2025-09-14T00:00:00Z&end=2025-09-15T00:00:00Z", http.StatusNotFound, "archive is not enabled"},
		{"bad start", &fakeArchive{}, "?start=yesterday&end=2025-09-15T00:00:00Z", http.StatusBadRequest, "invalid start"},
		{"missing end", &fakeArchive{}, "?start=2025-09-14T00:00:00Z", http.StatusBadRequest, "missing timestamp"},
		{"bad window", &fakeArchive{}, "?start=2025-09-14T00:00:00Z&end=2025-09-15T00:00:00Z&window=2h", http.StatusBadRequest, "invalid window: 2h"},
		{"query failure", &fakeArchive{err: errors.New("connection reset")}, "?start=2025-09-14T00:00:00Z&end=2025-09-15T00:00:00Z", http.StatusInternalServerError, "query failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.archive != nil {
				opts = append(opts, WithArchive(tt.archive))
			}
			ts, _, _ := newTestServer(t, testConfig(), opts...)

			var doc map[string]string
			resp := getJSON(t, ts.URL+"/api/archive"+tt.query, &doc)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Contains(t, doc["error"], tt.wantError)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	ts, _, _ := newTestServer(t, testConfig(), WithGatherer(reg), WithMetrics(m))

	getJSON(t, ts.URL+"/api/state", nil)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "renugrid_skipped_ticks_total")
	assert.Contains(t, string(body), `renugrid_requests_total{method="GET /api/state",transport="http"} 1`)
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	ts, _, _ := newTestServer(t, testConfig())

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	ts, _, _ := newTestServer(t, Config{RateLimit: 0.001, RateLimitBurst: 1, CacheSize: 4})

	resp := getJSON(t, ts.URL+"/api/state", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = getJSON(t, ts.URL+"/api/state", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	// probes are never throttled
	resp = getJSON(t, ts.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _, _ := newTestServer(t, testConfig())

	resp, err := http.Post(ts.URL+"/api/state", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRequestIDIsEchoed(t *testing.T) {
	ts, _, _ := newTestServer(t, testConfig())

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "trace-me")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "trace-me", resp.Header.Get("X-Request-ID"))
}

func TestStream(t *testing.T) {
	ts, _, store := newTestServer(t, testConfig())

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var doc stateDoc
	require.NoError(t, conn.ReadJSON(&doc))
	assert.Equal(t, "connecting", doc.Connectivity["status"])

	store.Begin(1)
	store.Succeed(1, samples(1))

	// the Begin may or may not publish first; read until the poll lands
	for doc.Seq != 1 {
		require.NoError(t, conn.ReadJSON(&doc))
	}
	assert.Equal(t, "connected", doc.Connectivity["status"])
	require.NotNil(t, doc.Latest)

	store.Close()
	for {
		if _, _, err = conn.ReadMessage(); err != nil {
			break
		}
	}
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))
}

func TestNewServer_Validation(t *testing.T) {
	store := dashboard.NewStore()

	_, err := NewServer(nil, testConfig(), nil)
	assert.Error(t, err)

	_, err = NewServer(store, Config{RateLimit: 1, RateLimitBurst: 1, CacheSize: 0}, nil)
	assert.Error(t, err)

	_, err = NewServer(store, Config{CacheSize: 4}, nil)
	assert.Error(t, err)

	s, err := NewServer(store, DefaultConfig(), nil)
	require.NoError(t, err)
	assert.NotNil(t, s.Handler())
}
