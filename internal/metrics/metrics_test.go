package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordersUpdateCounters(t *testing.T) {
	m := New()

	m.RecordItem("succeeded")
	m.RecordItem("succeeded")
	m.RecordItem("failed")
	m.RecordRetry()
	m.RecordPage("ok")
	m.RecordRun("completed")

	if got := testutil.ToFloat64(m.IngestItemsTotal.WithLabelValues("succeeded")); got != 2 {
		t.Errorf("succeeded items = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.IngestItemsTotal.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed items = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.UpstreamRetriesTotal); got != 1 {
		t.Errorf("retries = %v, want 1", got)
	}
}

func TestNewIsolatesRegistries(t *testing.T) {
	// Two instances must not collide on registration
	a := New()
	b := New()
	a.RecordRetry()

	if got := testutil.ToFloat64(b.UpstreamRetriesTotal); got != 0 {
		t.Errorf("second registry saw %v retries, want 0", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordItem("failed")
	m.RecordPage("error")
	m.RecordRun("cancelled")
	m.RecordRetry()
	m.RecordHTTPRequest("/healthz", "200", time.Millisecond)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.RecordHTTPRequest("/healthz", "200", 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "stackdigest_http_requests_total") {
		t.Errorf("exposition missing request counter:\n%s", body)
	}
}
