package telemetry_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/blueprint/pkg/blueprint"
	"github.com/vango-dev/blueprint/pkg/bptest"
	"github.com/vango-dev/blueprint/pkg/mount"
	"github.com/vango-dev/blueprint/pkg/telemetry"
)

func gather(t *testing.T, reg *prometheus.Registry, name string) int {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return len(f.GetMetric())
		}
	}
	return 0
}

func TestMetrics_RecordsMountLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(telemetry.WithRegistry(reg))

	h := bptest.NewHost()
	m := mount.New(h, mount.WithRecorder(metrics), mount.WithTracer(telemetry.Tracer("")))

	tree := blueprint.MustCreate("Frame", blueprint.Properties(),
		blueprint.Unkeyed(blueprint.MustCreate("Label", blueprint.Properties())),
	)
	handle, err := m.Mount(tree, h.Root())
	require.NoError(t, err)

	expected := `
# HELP blueprint_live_handles Handles currently mounted.
# TYPE blueprint_live_handles gauge
blueprint_live_handles 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "blueprint_live_handles"))

	require.NoError(t, handle.Unmount())

	expected = `
# HELP blueprint_live_handles Handles currently mounted.
# TYPE blueprint_live_handles gauge
blueprint_live_handles 0
# HELP blueprint_mounts_total Top-level mounts by root class and outcome.
# TYPE blueprint_mounts_total counter
blueprint_mounts_total{class="Frame",status="success"} 1
# HELP blueprint_unmounts_total Nodes torn down by Unmount, by class.
# TYPE blueprint_unmounts_total counter
blueprint_unmounts_total{class="Frame"} 1
blueprint_unmounts_total{class="Label"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"blueprint_live_handles", "blueprint_mounts_total", "blueprint_unmounts_total"))
	assert.Equal(t, 1, gather(t, reg, "blueprint_mount_duration_seconds"))
}

func TestMetrics_RecordsRollbacks(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(telemetry.WithRegistry(reg), telemetry.WithNamespace("ui"))

	h := bptest.NewHost()
	m := mount.New(h, mount.WithRecorder(metrics))
	h.FailSet("Label", "Text")

	tree := blueprint.MustCreate("Frame", blueprint.Properties(),
		blueprint.Unkeyed(blueprint.MustCreate("Button", blueprint.Properties())),
		blueprint.Unkeyed(blueprint.MustCreate("Label", blueprint.Properties(blueprint.Set("Text", "x")))),
	)
	_, err := m.Mount(tree, h.Root())
	require.Error(t, err)

	expected := `
# HELP ui_live_handles Handles currently mounted.
# TYPE ui_live_handles gauge
ui_live_handles 0
# HELP ui_mounts_total Top-level mounts by root class and outcome.
# TYPE ui_mounts_total counter
ui_mounts_total{class="Frame",status="error"} 1
# HELP ui_rollbacks_total Nodes torn down because a mount failed, by error code.
# TYPE ui_rollbacks_total counter
ui_rollbacks_total{code="B021"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"ui_live_handles", "ui_mounts_total", "ui_rollbacks_total"))
}

func TestMetrics_UnknownCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(telemetry.WithRegistry(reg), telemetry.WithConstLabels(prometheus.Labels{"app": "test"}))
	metrics.NodeRolledBack("Frame", "")
	metrics.MountFinished("Frame", 0, fmt.Errorf("boom"))
	assert.Equal(t, 1, gather(t, reg, "blueprint_rollbacks_total"))
	assert.Equal(t, 1, gather(t, reg, "blueprint_mounts_total"))
}

func TestMetrics_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	telemetry.NewMetrics(telemetry.WithRegistry(reg))
	assert.Panics(t, func() { telemetry.NewMetrics(telemetry.WithRegistry(reg)) })
	assert.NotPanics(t, func() {
		telemetry.NewMetrics(telemetry.WithRegistry(reg), telemetry.WithSubsystem("second"))
	})
}

func TestTracer(t *testing.T) {
	assert.NotNil(t, telemetry.Tracer(""))
	assert.NotNil(t, telemetry.Tracer("custom"))
}
