// Package metrics records build, link check and watch metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection needs no nil checks:
//
//	svc := build.NewService(cfg, store)           // NoopRecorder
//	svc = svc.WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// Watch mode serves the Prometheus registry on /metrics via HTTPHandler.
package metrics
