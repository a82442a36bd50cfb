// Package metrics provides run and stage metrics for routegen.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs a nil check:
//
//	svc := build.NewService().WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// PrometheusRecorder registers its collectors on the given registry, and
// HTTPHandler exposes that registry for scraping (used by `routegen watch`
// when metrics.listen_address is configured).
package metrics
