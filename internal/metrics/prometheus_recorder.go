package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	buildDuration  *prom.HistogramVec
	buildOutcome   *prom.CounterVec
	pageResults    *prom.CounterVec
	tagErrors      *prom.CounterVec
	snapshotWrites *prom.CounterVec
	watchEvents    *prom.CounterVec
	queueDepth     prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.buildDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "nocms",
			Name:      "build_duration_seconds",
			Help:      "Duration of build passes by kind (full, page)",
			Buckets:   prom.DefBuckets,
		}, []string{"kind"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "nocms",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.pageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "nocms",
			Name:      "page_results_total",
			Help:      "Per-page results (rendered, skipped, failed)",
		}, []string{"result"})
		pr.tagErrors = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "nocms",
			Name:      "tag_errors_total",
			Help:      "Failed tag invocations by tag name",
		}, []string{"tag"})
		pr.snapshotWrites = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "nocms",
			Name:      "snapshot_writes_total",
			Help:      "Snapshot writes by result",
		}, []string{"result"})
		pr.watchEvents = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "nocms",
			Name:      "watch_events_total",
			Help:      "Debounced filesystem events by root and operation",
		}, []string{"root", "op"})
		pr.queueDepth = prom.NewGauge(prom.GaugeOpts{
			Namespace: "nocms",
			Name:      "watch_queue_depth",
			Help:      "Events waiting for the watch worker",
		})
		reg.MustRegister(pr.buildDuration, pr.buildOutcome, pr.pageResults, pr.tagErrors, pr.snapshotWrites, pr.watchEvents, pr.queueDepth)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveBuildDuration(kind string, d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncPageResult(result ResultLabel) {
	if p == nil || p.pageResults == nil {
		return
	}
	p.pageResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncTagError(tag string) {
	if p == nil || p.tagErrors == nil {
		return
	}
	p.tagErrors.WithLabelValues(tag).Inc()
}

func (p *PrometheusRecorder) IncSnapshotWrite(success bool) {
	if p == nil || p.snapshotWrites == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.snapshotWrites.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) IncWatchEvent(root, op string) {
	if p == nil || p.watchEvents == nil {
		return
	}
	p.watchEvents.WithLabelValues(root, op).Inc()
}

func (p *PrometheusRecorder) SetQueueDepth(n int) {
	if p == nil || p.queueDepth == nil {
		return
	}
	p.queueDepth.Set(float64(n))
}
