package blueprint

import (
	"sync"

	"github.com/vango-dev/blueprint/pkg/host"
)

// Instance is what an event callback receives as its first argument: the
// handle that owns the subscription, never the raw host object.
type Instance interface {
	// Unwrap returns the live host object.
	Unwrap() (host.Ref, error)

	// Get reads a property of the live host object.
	Get(name string) (any, error)

	// Mounted reports whether the handle is still mounted.
	Mounted() bool

	// Unmount tears down the handle's subtree.
	Unmount() error
}

// Callback is the value type of an Event key.
type Callback func(self Instance, args ...any)

// Event is an interned identity bound to a host signal name.
type Event struct {
	signal string
	ns     *EventNamespace
}

// Signal returns the host signal name.
func (e *Event) Signal() string { return e.signal }

// Key returns the property key for this event.
func (e *Event) Key() PropKey {
	return PropKey{kind: KeyEvent, event: e}
}

// String returns the event's readable form.
func (e *Event) String() string { return "on:" + e.signal }

// EventNamespace interns Event identities by signal name. The zero value is
// an empty namespace ready to use.
type EventNamespace struct {
	mu     sync.Mutex
	events map[string]*Event
}

// Events is the namespace of event identities.
var Events = &EventNamespace{}

// Named returns the event for signal, creating it on first use. The same
// pointer is returned for the same signal. An empty signal yields nil.
func (ns *EventNamespace) Named(signal string) *Event {
	if signal == "" {
		return nil
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if e, ok := ns.events[signal]; ok {
		return e
	}
	if ns.events == nil {
		ns.events = make(map[string]*Event)
	}
	e := &Event{signal: signal, ns: ns}
	ns.events[signal] = e
	return e
}

// Changed returns the event fired when property changes on the host object.
func (ns *EventNamespace) Changed(property string) *Event {
	if property == "" {
		return nil
	}
	return ns.Named(host.ChangedSignal(property))
}
