package mount

import (
	stderrors "errors"
	"reflect"

	"github.com/vango-dev/blueprint/pkg/blueprint"
	"github.com/vango-dev/blueprint/pkg/errors"
	"github.com/vango-dev/blueprint/pkg/host"
)

// State is the lifecycle state of a Handle.
type State uint8

const (
	StateMounting   State = iota // Subtree under construction
	StateMounted                 // Live
	StateUnmounting              // Teardown in progress
	StateUnmounted               // Terminal
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case StateMounting:
		return "Mounting"
	case StateMounted:
		return "Mounted"
	case StateUnmounting:
		return "Unmounting"
	case StateUnmounted:
		return "Unmounted"
	default:
		return "Unknown"
	}
}

type pluginRun struct {
	plugin *blueprint.Plugin
	config any
}

// Handle is the live result of mounting one blueprint node. It owns its host
// object, its child handles, the event connections and plugin runs it made,
// and the animation goals it registered.
//
// A Handle is not safe for concurrent use; like the rest of the engine it
// belongs to the host's main loop.
type Handle struct {
	mounter *Mounter
	node    *blueprint.Node
	ref     host.Ref
	parent  *Handle
	key     any
	state   State

	children []*Handle
	conns    []host.Connection
	plugins  []pluginRun
	goals    []string
	pending  []func()

	// unmountQueued records an Unmount requested while mounting.
	unmountQueued bool
}

var _ blueprint.Instance = (*Handle)(nil)

// Unwrap returns the live host object. It is the canonical equivalent of
// invoking the handle like a function, and fails with a StaleHandle error
// once the handle is unmounted.
func (h *Handle) Unwrap() (host.Ref, error) {
	if h.state == StateUnmounted {
		return nil, errors.New("B030").WithClass(h.node.ClassName())
	}
	return h.ref, nil
}

// Instance is an alias for Unwrap.
func (h *Handle) Instance() (host.Ref, error) {
	return h.Unwrap()
}

// Get reads a property of the live host object.
func (h *Handle) Get(name string) (any, error) {
	ref, err := h.Unwrap()
	if err != nil {
		return nil, errors.New("B030").WithClass(h.node.ClassName()).WithKey(name)
	}
	return h.mounter.host.Get(ref, name)
}

// Child returns the child handle addressed by key: its declared key, or its
// zero-based position when it was declared without one.
func (h *Handle) Child(key any) (*Handle, bool) {
	if !reflect.ValueOf(key).Comparable() {
		return nil, false
	}
	for _, c := range h.children {
		if c.key == key {
			return c, true
		}
	}
	return nil, false
}

// Children returns the child handles in declared order.
func (h *Handle) Children() []*Handle {
	out := make([]*Handle, len(h.children))
	copy(out, h.children)
	return out
}

// Parent returns the owning handle, or nil for a root handle.
func (h *Handle) Parent() *Handle { return h.parent }

// Key returns the address of this handle within its parent, or nil for a
// root handle.
func (h *Handle) Key() any { return h.key }

// ClassName returns the class of the mounted node.
func (h *Handle) ClassName() string { return h.node.ClassName() }

// Node returns the blueprint this handle was mounted from.
func (h *Handle) Node() *blueprint.Node { return h.node }

// State returns the lifecycle state.
func (h *Handle) State() State { return h.state }

// Mounted reports whether the handle is live.
func (h *Handle) Mounted() bool { return h.state == StateMounted }

// Walk visits h and its descendants depth-first in declared order.
func (h *Handle) Walk(fn func(depth int, h *Handle)) {
	h.walk(0, fn)
}

func (h *Handle) walk(depth int, fn func(int, *Handle)) {
	fn(depth, h)
	for _, c := range h.children {
		c.walk(depth+1, fn)
	}
}

// Unmount tears down the handle's subtree. Calling it on an unmounted
// handle is a no-op. Teardown always runs to completion; host and hook
// failures are joined into the returned error.
//
// Called while the handle is still mounting, for example from a child's
// callback, Unmount returns nil and the teardown runs as soon as the
// subtree has finished mounting.
func (h *Handle) Unmount() error {
	switch h.state {
	case StateUnmounted, StateUnmounting:
		return nil
	case StateMounting:
		h.unmountQueued = true
		return nil
	}
	class := h.node.ClassName()
	err := h.teardown()
	h.mounter.recorder.NodeUnmounted(class)
	h.mounter.logger.Debug("unmounted", "class", class)
	return err
}

// teardown releases everything h acquired, in reverse of the mount order.
// It also serves as the rollback path for a node that failed to mount.
func (h *Handle) teardown() error {
	h.state = StateUnmounting
	h.pending = nil
	m := h.mounter
	var errs []error

	for i := len(h.children) - 1; i >= 0; i-- {
		if err := h.children[i].Unmount(); err != nil {
			errs = append(errs, err)
		}
	}

	for _, c := range h.conns {
		c.Disconnect()
	}
	h.conns = nil

	for i := len(h.plugins) - 1; i >= 0; i-- {
		run := h.plugins[i]
		if err := runOnUnmount(run.plugin, h.ref, run.config); err != nil {
			errs = append(errs, err)
		}
	}
	h.plugins = nil

	for i := len(h.goals) - 1; i >= 0; i-- {
		m.solver.Deregister(h.ref, h.goals[i])
	}
	h.goals = nil

	if err := m.host.Destroy(h.ref); err != nil {
		errs = append(errs, err)
	}

	h.ref = nil
	h.state = StateUnmounted
	return stderrors.Join(errs...)
}

// dispatch delivers a signal to cb, queueing it while the subtree is still
// mounting and dropping it once teardown has begun.
func (h *Handle) dispatch(cb blueprint.Callback, args []any) {
	switch h.state {
	case StateMounting:
		h.pending = append(h.pending, func() { cb(h, args...) })
	case StateMounted:
		cb(h, args...)
	}
}

// flush delivers signals queued during mounting, in arrival order.
func (h *Handle) flush() {
	for len(h.pending) > 0 && h.state == StateMounted {
		next := h.pending[0]
		h.pending = h.pending[1:]
		next()
	}
	h.pending = nil
}
