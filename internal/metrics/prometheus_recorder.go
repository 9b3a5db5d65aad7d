package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "docnav"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration     *prom.HistogramVec
	buildDuration     prom.Histogram
	stageResults      *prom.CounterVec
	buildOutcome      *prom.CounterVec
	navEntries        prom.Gauge
	linkChecks        *prom.CounterVec
	linkCheckDuration prom.Histogram
	watchTriggers     *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
// A nil registry gets a private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		navEntries: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "nav_entries",
			Help:      "Navigation entries, group items and sidebar prefixes in the last validated site",
		}),
		linkChecks: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "link_checks_total",
			Help:      "Navigation link checks by link kind and result",
		}, []string{"kind", "result"}),
		linkCheckDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "link_check_duration_seconds",
			Help:      "Duration of a full link check run",
			Buckets:   prom.DefBuckets,
		}),
		watchTriggers: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "watch_triggers_total",
			Help:      "Rebuilds and checks started by watch mode",
		}, []string{"source"}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
		pr.navEntries, pr.linkChecks, pr.linkCheckDuration, pr.watchTriggers)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetNavEntries(n int) {
	if p == nil {
		return
	}
	p.navEntries.Set(float64(n))
}

func (p *PrometheusRecorder) IncLinkCheck(kind string, ok bool) {
	if p == nil {
		return
	}
	res := "broken"
	if ok {
		res = "ok"
	}
	p.linkChecks.WithLabelValues(kind, res).Inc()
}

func (p *PrometheusRecorder) ObserveLinkCheckDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.linkCheckDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncWatchTrigger(source string) {
	if p == nil {
		return
	}
	p.watchTriggers.WithLabelValues(source).Inc()
}
