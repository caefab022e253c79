package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveExtraction(t *testing.T) {
	m := New(time.Hour)
	m.ObserveExtraction("pdf", 20*time.Millisecond, 4, nil)
	m.ObserveExtraction("pdf", time.Millisecond, 0, errors.New("bad"))

	if got := testutil.ToFloat64(m.ExtractionsTotal.WithLabelValues("pdf", OutcomeOK)); got != 1 {
		t.Errorf("expected 1 ok extraction, got %v", got)
	}
	if got := testutil.ToFloat64(m.ExtractionsTotal.WithLabelValues("pdf", OutcomeError)); got != 1 {
		t.Errorf("expected 1 failed extraction, got %v", got)
	}
	if snap := m.ExtractLatency.Snapshot(); snap.Count != 1 {
		t.Errorf("expected failed extraction to be left out of the latency window, got %d samples", snap.Count)
	}
}

func TestObserveRankAndJobs(t *testing.T) {
	m := New(time.Hour)
	m.ObserveRank(5*time.Millisecond, nil)
	m.ObserveJob("completed")
	m.ObserveJob("completed")
	m.SetQueueDepth(3)

	if got := testutil.ToFloat64(m.AnalysesTotal.WithLabelValues(OutcomeOK)); got != 1 {
		t.Errorf("expected 1 analysis, got %v", got)
	}
	if got := testutil.ToFloat64(m.IngestJobsTotal.WithLabelValues("completed")); got != 2 {
		t.Errorf("expected 2 completed jobs, got %v", got)
	}
	if got := testutil.ToFloat64(m.IngestQueueDepth); got != 3 {
		t.Errorf("expected queue depth 3, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveExtraction("pdf", time.Second, 1, nil)
	m.ObserveRank(time.Second, nil)
	m.ObserveJob("failed")
	m.SetQueueDepth(1)
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New(time.Hour)
	m.ObserveRank(time.Millisecond, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "docpersona_analyses_total") {
		t.Errorf("expected analyses counter in exposition output")
	}
}

func TestTwoInstancesDoNotConflict(t *testing.T) {
	New(time.Hour)
	New(time.Hour)
}
