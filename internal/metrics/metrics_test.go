package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOperation(t *testing.T) {
	m := New()
	m.RecordOperation("pick", "ok", 5*time.Millisecond)
	m.RecordOperation("pick", "STOCK", time.Millisecond)
	m.RecordOperation("pick", "ok", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("pick", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("pick", "STOCK")))
}

func TestRecordUnits_IgnoresNonPositive(t *testing.T) {
	m := New()
	m.RecordUnits("OUT", 6)
	m.RecordUnits("OUT", 0)
	m.RecordUnits("OUT", -3)

	assert.Equal(t, 6.0, testutil.ToFloat64(m.UnitsMoved.WithLabelValues("OUT")))
}

func TestHandler_ExposesRegistry(t *testing.T) {
	m := New()
	m.RecordHTTPRequest(http.MethodGet, "/api/health", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "inventory_http_requests_total"))
}
