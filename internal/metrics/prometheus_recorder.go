package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	stageDuration   *prom.HistogramVec
	buildDuration   prom.Histogram
	stageResults    *prom.CounterVec
	buildOutcome    *prom.CounterVec
	publishDuration *prom.HistogramVec
	publishResults  *prom.CounterVec
	pagesRendered   prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "softice",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "softice",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "softice",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "softice",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.publishDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "softice",
			Name:      "publish_duration_seconds",
			Help:      "Duration of publish branch pushes",
			Buckets:   prom.DefBuckets,
		}, []string{"result"})
		pr.publishResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "softice",
			Name:      "publish_results_total",
			Help:      "Publish results by success/failure",
		}, []string{"result"})
		pr.pagesRendered = prom.NewGauge(prom.GaugeOpts{
			Namespace: "softice",
			Name:      "pages_rendered",
			Help:      "Pages rendered by the last build",
		})
		reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults,
			pr.buildOutcome, pr.publishDuration, pr.publishResults, pr.pagesRendered)
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

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObservePublishDuration(d time.Duration, result string) {
	if p == nil || p.publishDuration == nil {
		return
	}
	p.publishDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPublishResult(result string) {
	if p == nil || p.publishResults == nil {
		return
	}
	p.publishResults.WithLabelValues(result).Inc()
}

func (p *PrometheusRecorder) SetPagesRendered(n int) {
	if p == nil || p.pagesRendered == nil {
		return
	}
	p.pagesRendered.Set(float64(n))
}
