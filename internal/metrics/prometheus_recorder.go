package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	buildDuration    *prom.HistogramVec
	buildOutcome     *prom.CounterVec
	artifactReads    *prom.CounterVec
	baselineChecks   *prom.CounterVec
	buildDirsRemoved prom.Counter
}

// NewPrometheusRecorder constructs and registers the harness metrics on reg.
// A nil reg gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		buildDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "docharness",
			Name:      "build_duration_seconds",
			Help:      "Duration of build driver invocations",
			Buckets:   prom.DefBuckets,
		}, []string{"builder"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docharness",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by builder and final status",
		}, []string{"builder", "outcome"}),
		artifactReads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docharness",
			Name:      "artifact_reads_total",
			Help:      "Artifact reads by kind and result",
		}, []string{"kind", "result"}),
		baselineChecks: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docharness",
			Name:      "baseline_checks_total",
			Help:      "Baseline comparisons by extension and result",
		}, []string{"extension", "result"}),
		buildDirsRemoved: prom.NewCounter(prom.CounterOpts{
			Namespace: "docharness",
			Name:      "build_dirs_removed_total",
			Help:      "Generated build directories removed by cleanup",
		}),
	}
	reg.MustRegister(pr.buildDuration, pr.buildOutcome, pr.artifactReads, pr.baselineChecks, pr.buildDirsRemoved)
	return pr
}

func (p *PrometheusRecorder) ObserveBuildDuration(builder string, d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.WithLabelValues(builder).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(builder string, outcome BuildOutcome) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(builder, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncArtifactRead(kind ArtifactKind, result ReadResult) {
	if p == nil {
		return
	}
	p.artifactReads.WithLabelValues(string(kind), string(result)).Inc()
}

func (p *PrometheusRecorder) IncBaselineCheck(extension string, result BaselineResult) {
	if p == nil {
		return
	}
	p.baselineChecks.WithLabelValues(extension, string(result)).Inc()
}

func (p *PrometheusRecorder) AddBuildDirsRemoved(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.buildDirsRemoved.Add(float64(n))
}
