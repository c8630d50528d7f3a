// Package metrics provides observability hooks for build cycles and
// workflow tasks.
//
// Components receive a Recorder and default to NoopRecorder, so metrics
// never require nil checks:
//
//	pipeline := build.NewPipeline(cfg, build.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// The dev server exposes the registry through HTTPHandler when
// metrics.enabled is set.
package metrics
