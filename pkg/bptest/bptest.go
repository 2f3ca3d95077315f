package bptest

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vango-dev/blueprint/pkg/animate"
	"github.com/vango-dev/blueprint/pkg/blueprint"
	"github.com/vango-dev/blueprint/pkg/host"
)

// Log is an ordered, concurrency-safe list of recorded calls.
type Log struct {
	mu      sync.Mutex
	entries []string
}

// Add appends a formatted entry.
func (l *Log) Add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, fmt.Sprintf(format, args...))
}

// Entries returns a copy of all entries.
func (l *Log) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// Filter returns the entries starting with any of the prefixes.
func (l *Log) Filter(prefixes ...string) []string {
	var out []string
	for _, e := range l.Entries() {
		for _, p := range prefixes {
			if strings.HasPrefix(e, p) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// Reset clears the log.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

type failure struct {
	op    string
	class string
	name  string
}

// Host is a recording host backed by a permissive host.Memory.
type Host struct {
	*host.Memory
	Log *Log

	mu       sync.Mutex
	classes  map[string]string
	failures []failure
}

var _ host.Host = (*Host)(nil)

// NewHost creates a recording host.
func NewHost() *Host {
	return &Host{
		Memory:  host.NewMemory(host.WithAnyClass()),
		Log:     &Log{},
		classes: make(map[string]string),
	}
}

// FailCreate makes the next Create of class fail.
func (h *Host) FailCreate(class string) { h.addFailure("create", class, "") }

// FailSet makes the next Set of property on an object of class fail.
func (h *Host) FailSet(class, property string) { h.addFailure("set", class, property) }

// FailSubscribe makes the next Subscribe to signal on class fail.
func (h *Host) FailSubscribe(class, signal string) { h.addFailure("subscribe", class, signal) }

// FailAttach makes the next Attach of an object of class fail.
func (h *Host) FailAttach(class string) { h.addFailure("attach", class, "") }

// FailDestroy makes the next Destroy of an object of class fail.
func (h *Host) FailDestroy(class string) { h.addFailure("destroy", class, "") }

func (h *Host) addFailure(op, class, name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures = append(h.failures, failure{op: op, class: class, name: name})
}

// takeFailure consumes a matching injected failure.
func (h *Host) takeFailure(op, class, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, f := range h.failures {
		if f.op == op && f.class == class && f.name == name {
			h.failures = append(h.failures[:i], h.failures[i+1:]...)
			return fmt.Errorf("injected %s failure on %s", op, describe(class, name))
		}
	}
	return nil
}

func describe(class, name string) string {
	if name == "" {
		return class
	}
	return class + "." + name
}

// ClassOf returns the class an object was created with.
func (h *Host) ClassOf(ref host.Ref) string {
	if ref == nil {
		return "<nil>"
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.classes[ref.HostID()]; ok {
		return c
	}
	return host.RootClass
}

// Create implements host.Host.
func (h *Host) Create(className string) (host.Ref, error) {
	if err := h.takeFailure("create", className, ""); err != nil {
		h.Log.Add("create %s failed", className)
		return nil, err
	}
	ref, err := h.Memory.Create(className)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	h.classes[ref.HostID()] = className
	h.mu.Unlock()
	h.Log.Add("create %s", className)
	return ref, nil
}

// Set implements host.Host.
func (h *Host) Set(ref host.Ref, name string, value any) error {
	class := h.ClassOf(ref)
	if err := h.takeFailure("set", class, name); err != nil {
		h.Log.Add("set %s.%s failed", class, name)
		return err
	}
	h.Log.Add("set %s.%s", class, name)
	return h.Memory.Set(ref, name, value)
}

// Subscribe implements host.Host.
func (h *Host) Subscribe(ref host.Ref, signal string, handler host.Handler) (host.Connection, error) {
	class := h.ClassOf(ref)
	if err := h.takeFailure("subscribe", class, signal); err != nil {
		h.Log.Add("subscribe %s.%s failed", class, signal)
		return nil, err
	}
	conn, err := h.Memory.Subscribe(ref, signal, handler)
	if err != nil {
		return nil, err
	}
	h.Log.Add("subscribe %s.%s", class, signal)
	return &connection{Connection: conn, log: h.Log, name: class + "." + signal}, nil
}

type connection struct {
	host.Connection
	log  *Log
	name string
}

func (c *connection) Disconnect() {
	c.log.Add("disconnect %s", c.name)
	c.Connection.Disconnect()
}

// Attach implements host.Host.
func (h *Host) Attach(parent, child host.Ref) error {
	class := h.ClassOf(child)
	if err := h.takeFailure("attach", class, ""); err != nil {
		h.Log.Add("attach %s failed", class)
		return err
	}
	h.Log.Add("attach %s>%s", h.ClassOf(parent), class)
	return h.Memory.Attach(parent, child)
}

// Destroy implements host.Host.
func (h *Host) Destroy(ref host.Ref) error {
	class := h.ClassOf(ref)
	if err := h.takeFailure("destroy", class, ""); err != nil {
		h.Log.Add("destroy %s failed", class)
		return err
	}
	h.Log.Add("destroy %s", class)
	return h.Memory.Destroy(ref)
}

// Plugin creates a plugin that records "mount <name>" and "unmount <name>".
func (h *Host) Plugin(name string) *blueprint.Plugin {
	return blueprint.MustPlugin(name, blueprint.Hooks{
		OnMount: func(ref host.Ref, config any) error {
			h.Log.Add("mount %s", name)
			return nil
		},
		OnUnmount: func(ref host.Ref, config any) {
			h.Log.Add("unmount %s", name)
		},
	})
}

// FailingPlugin creates a plugin whose OnMount records and returns err.
func (h *Host) FailingPlugin(name string, err error) *blueprint.Plugin {
	return blueprint.MustPlugin(name, blueprint.Hooks{
		OnMount: func(ref host.Ref, config any) error {
			h.Log.Add("mount %s failed", name)
			return err
		},
		OnUnmount: func(ref host.Ref, config any) {
			h.Log.Add("unmount %s", name)
		},
	})
}

// Solver returns an animation solver that records registrations in the log.
func (h *Host) Solver() *Solver {
	return &Solver{host: h, Goals: make(map[string]animate.Goal)}
}

// Solver is a recording animate.Solver.
type Solver struct {
	host *Host
	mu   sync.Mutex
	// Goals holds the active goals keyed by "<id>.<property>".
	Goals map[string]animate.Goal
}

var _ animate.Solver = (*Solver)(nil)

// Register implements animate.Solver.
func (s *Solver) Register(ref host.Ref, property string, goal animate.Goal) error {
	s.mu.Lock()
	s.Goals[ref.HostID()+"."+property] = goal
	s.mu.Unlock()
	s.host.Log.Add("animate %s.%s", s.host.ClassOf(ref), property)
	return nil
}

// Deregister implements animate.Solver.
func (s *Solver) Deregister(ref host.Ref, property string) {
	s.mu.Lock()
	delete(s.Goals, ref.HostID()+"."+property)
	s.mu.Unlock()
	s.host.Log.Add("deanimate %s.%s", s.host.ClassOf(ref), property)
}

// Active returns the number of registered goals.
func (s *Solver) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Goals)
}

// ExpectLog asserts that the log holds exactly want, in order.
func ExpectLog(t testing.TB, log *Log, want ...string) bool {
	t.Helper()
	return assert.Equal(t, want, log.Entries())
}

// ExpectNoLeaks asserts that no host objects or subscriptions remain.
func ExpectNoLeaks(t testing.TB, h *Host) bool {
	t.Helper()
	ok := assert.Equal(t, 0, h.Live(), "live host objects")
	return assert.Equal(t, 0, h.Subscriptions(), "active subscriptions") && ok
}
