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

func TestRecordBillingEvent(t *testing.T) {
	before := testutil.ToFloat64(billingEvents.WithLabelValues("payment_succeeded", "applied"))
	RecordBillingEvent("payment_succeeded", "applied")
	RecordBillingEvent("payment_succeeded", "applied")
	assert.Equal(t, before+2, testutil.ToFloat64(billingEvents.WithLabelValues("payment_succeeded", "applied")))
}

func TestRecordHTTPRequest_UnmatchedRoute(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "unmatched", "404"))
	RecordHTTPRequest("get", "", http.StatusNotFound, time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestTrackInFlight(t *testing.T) {
	before := testutil.ToFloat64(httpInFlight)
	done := TrackInFlight()
	assert.Equal(t, before+1, testutil.ToFloat64(httpInFlight))
	done()
	assert.Equal(t, before, testutil.ToFloat64(httpInFlight))
}

func TestHandlerExposesAppMetrics(t *testing.T) {
	RecordRateLimited("/api/v1/auth/login")

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `fitness_hub_http_rate_limited_total{route="/api/v1/auth/login"}`)
}
