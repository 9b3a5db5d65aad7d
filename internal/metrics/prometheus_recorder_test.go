package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

var _ Recorder = (*PrometheusRecorder)(nil)
var _ Recorder = NoopRecorder{}

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("render", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncStageResult("render", ResultSuccess)
	pr.IncBuildOutcome(BuildOutcomeSuccess)
	pr.IncBuildOutcome(BuildOutcomeSuccess)
	pr.SetNavEntries(12)
	pr.IncLinkCheck("external", false)
	pr.IncWatchTrigger("config")

	if got := gathered(t, reg, "docnav_build_outcomes_total", "success"); got != 2 {
		t.Fatalf("expected 2 successful builds, got %v", got)
	}
	if got := gathered(t, reg, "docnav_nav_entries"); got != 12 {
		t.Fatalf("expected nav gauge 12, got %v", got)
	}
	if got := gathered(t, reg, "docnav_link_checks_total", "external", "broken"); got != 1 {
		t.Fatalf("expected one broken external link, got %v", got)
	}
}

// gathered returns the counter or gauge value of the series whose label
// values equal labels, in order.
func gathered(t *testing.T, reg *prom.Registry, name string, labels ...string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			pairs := m.GetLabel()
			if len(pairs) != len(labels) {
				continue
			}
			for i, pair := range pairs {
				if pair.GetValue() != labels[i] {
					continue metrics
				}
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	t.Fatalf("series %s%v not found", name, labels)
	return 0
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncBuildOutcome(BuildOutcomeFailed)
	pr.SetNavEntries(1)
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncWatchTrigger("docs")

	srv := httptest.NewServer(HTTPHandler(reg))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `docnav_watch_triggers_total{source="docs"} 1`) {
		t.Fatalf("expected watch trigger counter in scrape output:\n%s", body)
	}
}

func TestHTTPHandler_NilRegistry(t *testing.T) {
	rec := httptest.NewRecorder()
	HTTPHandler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
