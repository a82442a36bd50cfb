package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "routegen"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	stageDuration  *prom.HistogramVec
	buildDuration  prom.Histogram
	stageResults   *prom.CounterVec
	buildOutcome   *prom.CounterVec
	cacheDecisions *prom.CounterVec
	pagesWritten   prom.Counter
	concurrency    prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total run duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_route_results_total",
			Help:      "Per-route stage results by outcome",
		}, []string{"stage", "result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Run outcomes by final status",
		}, []string{"outcome"})
		pr.cacheDecisions = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cache_decisions_total",
			Help:      "Incremental cache decisions by result",
		}, []string{"result"})
		pr.pagesWritten = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pages_written_total",
			Help:      "Output files written",
		})
		pr.concurrency = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_concurrency",
			Help:      "Configured per-stage concurrency limit",
		})
		reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
			pr.cacheDecisions, pr.pagesWritten, pr.concurrency)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncCacheDecision(cached bool) {
	if p == nil || p.cacheDecisions == nil {
		return
	}
	res := "compile"
	if cached {
		res = "cached"
	}
	p.cacheDecisions.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) AddPagesWritten(n int) {
	if p == nil || p.pagesWritten == nil || n <= 0 {
		return
	}
	p.pagesWritten.Add(float64(n))
}

func (p *PrometheusRecorder) SetConcurrency(n int) {
	if p == nil || p.concurrency == nil {
		return
	}
	p.concurrency.Set(float64(n))
}
