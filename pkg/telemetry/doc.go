// Package telemetry collects Prometheus metrics and OpenTelemetry spans for
// the mount engine.
//
// Metrics implements mount.Recorder:
//
//	metrics := telemetry.NewMetrics(telemetry.WithNamespace("myapp"))
//	m := mount.New(h,
//	    mount.WithRecorder(metrics),
//	    mount.WithTracer(telemetry.Tracer("myapp")),
//	)
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
//
// Metrics collected:
//   - blueprint_mounts_total: Counter of top-level mounts by class and status
//   - blueprint_mount_duration_seconds: Histogram of top-level mount duration
//   - blueprint_rollbacks_total: Counter of rolled back nodes by error code
//   - blueprint_unmounts_total: Counter of unmounted nodes by class
//   - blueprint_live_handles: Gauge of mounted handles
package telemetry
