package mount

import "time"

// Recorder receives mount lifecycle observations. telemetry.Metrics
// implements it with Prometheus collectors.
type Recorder interface {
	// MountFinished is called once per Mount call with the root class.
	MountFinished(class string, elapsed time.Duration, err error)

	// NodeMounted is called for every node that completed mounting.
	NodeMounted(class string)

	// NodeRolledBack is called for every node torn down by a failed mount.
	NodeRolledBack(class, code string)

	// NodeUnmounted is called for every node torn down by Unmount.
	NodeUnmounted(class string)
}

type nopRecorder struct{}

func (nopRecorder) MountFinished(string, time.Duration, error) {}
func (nopRecorder) NodeMounted(string)                         {}
func (nopRecorder) NodeRolledBack(string, string)              {}
func (nopRecorder) NodeUnmounted(string)                       {}
