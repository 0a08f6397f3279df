// Package metrics records build and watch metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics stay optional:
//
//	engine := build.NewEngine(cfg, deps) // deps.Recorder nil -> NoopRecorder
//
// When `monitoring.metrics_addr` is set, the watch command installs a
// PrometheusRecorder and serves its registry with HTTPHandler.
package metrics
