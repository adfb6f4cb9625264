package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nijaru/golf-directory/config"
	"github.com/nijaru/golf-directory/errors"
	"github.com/nijaru/golf-directory/metrics"
	"github.com/nijaru/golf-directory/models"
	"github.com/nijaru/golf-directory/services/scheduler"
)

type fakeQuota struct {
	usage *models.QuotaUsage
	err   error
}

func (f fakeQuota) Usage(context.Context) (*models.QuotaUsage, error) { return f.usage, f.err }
func (f fakeQuota) Ceiling() int64                                    { return 10000 }

type fakeDB struct{ err error }

func (f fakeDB) Ping(context.Context) error { return f.err }

type fakeJobs []scheduler.JobStatus

func (f fakeJobs) Status() []scheduler.JobStatus { return f }

type healthBody struct {
	Success bool `json:"success"`
	Data    struct {
		Status   string `json:"status"`
		Version  string `json:"version"`
		Uptime   string `json:"uptime"`
		Database string `json:"database"`
		Quota    *struct {
			UnitsUsed      int64 `json:"units_used"`
			UnitsRemaining int64 `json:"units_remaining"`
			Ceiling        int64 `json:"ceiling"`
		} `json:"quota"`
		Jobs []scheduler.JobStatus `json:"jobs"`
	} `json:"data"`
	RequestID string `json:"request_id"`
}

func quiet() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestHealthReportsQuotaAndJobs(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := start
	s := NewServer(config.OpsConfig{Port: "0"},
		WithLogger(quiet()),
		WithVersion("1.2.3"),
		WithClock(func() time.Time { return clock }),
		WithDatabase(fakeDB{}),
		WithQuota(fakeQuota{usage: &models.QuotaUsage{Date: "2024-06-01", SearchOperations: 2, VideoListOperations: 40}}),
		WithJobs(fakeJobs{{Name: "fast_refresh", Schedule: "every 2m0s", Runs: 3}}),
	)
	clock = start.Add(90 * time.Second)

	rr := get(t, s.Handler(), "/health")
	require.Equal(t, http.StatusOK, rr.Code)

	var body healthBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.RequestID)
	assert.Equal(t, "ok", body.Data.Status)
	assert.Equal(t, "1.2.3", body.Data.Version)
	assert.Equal(t, "1m30s", body.Data.Uptime)
	assert.Equal(t, "ok", body.Data.Database)
	require.NotNil(t, body.Data.Quota)
	assert.Equal(t, int64(240), body.Data.Quota.UnitsUsed)
	assert.Equal(t, int64(9760), body.Data.Quota.UnitsRemaining)
	assert.Equal(t, int64(10000), body.Data.Quota.Ceiling)
	require.Len(t, body.Data.Jobs, 1)
	assert.Equal(t, "fast_refresh", body.Data.Jobs[0].Name)
}

func TestHealthDegradedWhenDatabaseDown(t *testing.T) {
	s := NewServer(config.OpsConfig{},
		WithLogger(quiet()),
		WithDatabase(fakeDB{err: errors.Persistence("ping", nil, "connection refused")}),
		WithQuota(fakeQuota{err: errors.Persistence("usage", nil, "connection refused")}),
	)

	rr := get(t, s.Handler(), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	var body healthBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "degraded", body.Data.Status)
	assert.Equal(t, "unreachable", body.Data.Database)
	assert.Nil(t, body.Data.Quota)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ObserveQuota(&models.QuotaUsage{Date: "2024-06-01", SearchOperations: 1}, 10000)

	s := NewServer(config.OpsConfig{}, WithLogger(quiet()), WithMetrics(reg, m))
	h := s.Handler()

	get(t, h, "/health")
	rr := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "golf_quota_units_used 100")
	assert.Contains(t, rr.Body.String(), `golf_ops_request_duration_seconds_count{method="GET",path="/health",status="2xx"} 1`)
}

func TestMetricsDisabledWithoutGatherer(t *testing.T) {
	s := NewServer(config.OpsConfig{}, WithLogger(quiet()))
	rr := get(t, s.Handler(), "/metrics")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
