// Package metrics provides observability hooks for docharness.
//
// Components receive a Recorder through their options and default to
// NoopRecorder, so metrics cost nothing unless a PrometheusRecorder is
// injected:
//
//	reg := prometheus.NewRegistry()
//	h := harness.New(harness.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// The recorder covers build invocations, artifact reads, baseline
// comparisons and cleanup.
package metrics
