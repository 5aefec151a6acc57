// Package monitoring provides Prometheus metrics for the HTTP API, the module
// registry and the sandbox.
//
// Every Metrics value owns its prometheus.Registry, so tests and multiple
// servers never collide on metric names.
//
//   - HTTP: request counts, durations and sizes labelled by route template
//   - Registry: lookup hits and misses, constructions, depth-limit rejections
//     and progress callbacks, fed through Recorder
//   - Sandbox: executions by outcome, duration and require counts
//
// Example Usage:
//
//	metrics := monitoring.NewMetrics()
//	router.Use(monitoring.Middleware(metrics))
//	cfg.Recorder = metrics.NewRecorder()
//	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))
package monitoring
