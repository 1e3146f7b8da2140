package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordUpload(OutcomeSuccess)
	m.RecordStageCleanup(true)
	m.RecordRemoteDelete(false)
	m.RecordRateLimited()
	m.ObserveHTTPRequest("GET", "/", "200", time.Millisecond)
}

func TestCounters(t *testing.T) {
	m := New()

	m.RecordUpload(OutcomeSuccess)
	m.RecordUpload(OutcomeSuccess)
	m.RecordUpload(OutcomeForwardFailed)
	m.RecordStageCleanup(true)
	m.RecordStageCleanup(false)
	m.RecordRateLimited()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.uploads.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues(OutcomeForwardFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stageCleanups.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stageCleanups.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTPRequest("GET", "/api/products", "200", 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "marketplace_http_requests_total")
}
