// Package metrics provides build metrics for sitebuilder.
//
// Components receive a Recorder. NoopRecorder is the default and does
// nothing; PrometheusRecorder registers collectors on a registry that the
// preview server exposes on /metrics.
//
//	recorder := metrics.NewPrometheusRecorder(registry)
//	svc := build.NewService(cfg, logger).WithRecorder(recorder)
package metrics
