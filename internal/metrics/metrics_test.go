package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveFrame(160)
	m.ObserveFrame(40)
	m.ObserveFrameError("timeout")
	m.ObserveRecord("STATS")
	m.ObserveRecord("DATA")
	m.ObserveRecord("DATA")
	m.ObserveDiscard("shape")
	m.ObserveRow()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FramesDecoded))
	assert.Equal(t, 200.0, testutil.ToFloat64(m.SamplesDecoded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FrameErrors.WithLabelValues("timeout")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TelemetryRecords.WithLabelValues("DATA")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DiscardedLines.WithLabelValues("shape")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RowsWritten))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveFrame(1)
		m.ObserveFrameError("timeout")
		m.ObserveRecord("DATA")
		m.ObserveDiscard("data")
		m.ObserveRow()
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRecord("PATTERN")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, metricsPath, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `acoustic_telemetry_records_total{kind="PATTERN"} 1`), body)
}
