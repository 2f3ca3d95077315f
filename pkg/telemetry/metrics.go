package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/blueprint/pkg/mount"
)

// MetricsConfig holds the naming and registration settings shared by every
// mount metric.
type MetricsConfig struct {
	Namespace   string
	Subsystem   string
	ConstLabels prometheus.Labels

	// Buckets bound mount_duration_seconds. Defaults to prometheus.DefBuckets.
	Buckets []float64

	// Registry receives the collectors. Defaults to prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// MetricsOption adjusts a MetricsConfig.
type MetricsOption func(*MetricsConfig)

// WithNamespace overrides the "blueprint" namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) { c.Namespace = namespace }
}

func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) { c.Subsystem = subsystem }
}

// WithConstLabels attaches labels to every mount metric.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) { c.ConstLabels = labels }
}

// WithBuckets sets the mount duration histogram buckets, in seconds.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) { c.Buckets = buckets }
}

// WithRegistry registers the collectors with r instead of the default
// registerer.
func WithRegistry(r prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) { c.Registry = r }
}

func (c MetricsConfig) counter(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   c.Namespace,
		Subsystem:   c.Subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: c.ConstLabels,
	}
}

// Metrics is a mount.Recorder backed by Prometheus collectors.
type Metrics struct {
	mounts    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	rollbacks *prometheus.CounterVec
	unmounts  *prometheus.CounterVec
	live      prometheus.Gauge
}

var _ mount.Recorder = (*Metrics)(nil)

// NewMetrics creates and registers the mount metrics. It panics if they are
// already registered with the same registry.
func NewMetrics(opts ...MetricsOption) *Metrics {
	c := MetricsConfig{
		Namespace: "blueprint",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&c)
	}
	f := promauto.With(c.Registry)

	return &Metrics{
		mounts: f.NewCounterVec(
			c.counter("mounts_total", "Top-level mounts by root class and outcome."),
			[]string{"class", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   c.Namespace,
			Subsystem:   c.Subsystem,
			Name:        "mount_duration_seconds",
			Help:        "Time taken by top-level mounts, including rollback.",
			ConstLabels: c.ConstLabels,
			Buckets:     c.Buckets,
		}, []string{"class"}),
		rollbacks: f.NewCounterVec(
			c.counter("rollbacks_total", "Nodes torn down because a mount failed, by error code."),
			[]string{"code"}),
		unmounts: f.NewCounterVec(
			c.counter("unmounts_total", "Nodes torn down by Unmount, by class."),
			[]string{"class"}),
		live: f.NewGauge(prometheus.GaugeOpts{
			Namespace:   c.Namespace,
			Subsystem:   c.Subsystem,
			Name:        "live_handles",
			Help:        "Handles currently mounted.",
			ConstLabels: c.ConstLabels,
		}),
	}
}

func (m *Metrics) MountFinished(class string, elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.mounts.WithLabelValues(class, status).Inc()
	m.duration.WithLabelValues(class).Observe(elapsed.Seconds())
}

func (m *Metrics) NodeMounted(string) { m.live.Inc() }

// NodeRolledBack counts failures without a code under "unknown".
func (m *Metrics) NodeRolledBack(_, code string) {
	if code == "" {
		code = "unknown"
	}
	m.rollbacks.WithLabelValues(code).Inc()
}

func (m *Metrics) NodeUnmounted(class string) {
	m.unmounts.WithLabelValues(class).Inc()
	m.live.Dec()
}
