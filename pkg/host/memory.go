package host

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/vango-dev/blueprint/pkg/errors"
)

// RootClass is the class name of the root object every Memory starts with.
const RootClass = "Root"

// PropertyKind constrains the values a property accepts.
type PropertyKind string

const (
	KindString PropertyKind = "string"
	KindNumber PropertyKind = "number"
	KindBool   PropertyKind = "bool"
	KindAny    PropertyKind = "any"
)

// accepts reports whether value is assignable to a property of kind k.
func (k PropertyKind) accepts(value any) bool {
	switch k {
	case KindAny, "":
		return true
	case KindString:
		_, ok := value.(string)
		return ok
	case KindBool:
		_, ok := value.(bool)
		return ok
	case KindNumber:
		switch value.(type) {
		case int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
			return true
		}
		return false
	default:
		return false
	}
}

// ClassSchema describes the properties and signals of a class.
type ClassSchema struct {
	Properties map[string]PropertyKind
	Signals    []string
}

func (s ClassSchema) hasSignal(name string) bool {
	if prop, ok := strings.CutPrefix(name, ChangedPrefix); ok {
		_, known := s.Properties[prop]
		return known
	}
	for _, sig := range s.Signals {
		if sig == name {
			return true
		}
	}
	return false
}

// MemoryOption configures a Memory host.
type MemoryOption func(*Memory)

// WithClass registers a class schema.
func WithClass(name string, schema ClassSchema) MemoryOption {
	return func(m *Memory) {
		m.classes[name] = schema
	}
}

// WithAnyClass makes the host accept every class name, property and signal.
func WithAnyClass() MemoryOption {
	return func(m *Memory) {
		m.permissive = true
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) MemoryOption {
	return func(m *Memory) {
		m.logger = logger
	}
}

// Object is a host object owned by a Memory.
type Object struct {
	id        string
	class     string
	props     map[string]any
	parent    *Object
	children  []*Object
	subs      []*subscription
	destroyed bool
}

// HostID implements Ref.
func (o *Object) HostID() string {
	return o.id
}

type subscription struct {
	owner   *Memory
	object  *Object
	signal  string
	handler Handler
	active  bool
}

// Disconnect implements Connection.
func (s *subscription) Disconnect() {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	if !s.active {
		return
	}
	s.active = false
	subs := s.object.subs
	for i, other := range subs {
		if other == s {
			s.object.subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}

// Memory is an in-process scene graph.
type Memory struct {
	mu         sync.Mutex
	classes    map[string]ClassSchema
	permissive bool
	objects    map[string]*Object
	root       *Object
	logger     *slog.Logger
}

// NewMemory creates an empty scene graph with a single root object.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		classes: make(map[string]ClassSchema),
		objects: make(map[string]*Object),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.root = &Object{id: "root", class: RootClass, props: make(map[string]any)}
	m.objects[m.root.id] = m.root
	return m
}

// Root returns the root object.
func (m *Memory) Root() Ref {
	return m.root
}

func (m *Memory) schema(class string) (ClassSchema, bool) {
	s, ok := m.classes[class]
	return s, ok
}

// lookup resolves a Ref to a live object. Callers hold m.mu.
func (m *Memory) lookup(ref Ref) (*Object, error) {
	if ref == nil {
		return nil, errors.New("B043").WithDetail("nil host reference")
	}
	obj, ok := m.objects[ref.HostID()]
	if !ok || obj.destroyed {
		return nil, errors.New("B043").WithKey(ref.HostID())
	}
	return obj, nil
}

// Create implements Host.
func (m *Memory) Create(className string) (Ref, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.schema(className); !ok && !m.permissive {
		return nil, errors.New("B040").WithClass(className)
	}
	obj := &Object{
		id:    uuid.NewString(),
		class: className,
		props: make(map[string]any),
	}
	m.objects[obj.id] = obj
	m.logger.Debug("host object created", "class", className, "id", obj.id)
	return obj, nil
}

// Set implements Host. Writing a value fires the property's changed signal.
func (m *Memory) Set(ref Ref, name string, value any) error {
	m.mu.Lock()
	obj, err := m.lookup(ref)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if !m.permissive {
		schema, _ := m.schema(obj.class)
		kind, ok := schema.Properties[name]
		if !ok {
			m.mu.Unlock()
			return errors.New("B041").WithClass(obj.class).WithKey(name).
				WithDetail("unknown property")
		}
		if !kind.accepts(value) {
			m.mu.Unlock()
			return errors.New("B041").WithClass(obj.class).WithKey(name).
				WithDetail(fmt.Sprintf("expected %s, got %T", kind, value))
		}
	}
	obj.props[name] = value
	handlers := obj.handlersFor(ChangedSignal(name))
	m.mu.Unlock()

	for _, h := range handlers {
		h(value)
	}
	return nil
}

// Get implements Host. ClassName is always readable.
func (m *Memory) Get(ref Ref, name string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, err := m.lookup(ref)
	if err != nil {
		return nil, err
	}
	if name == "ClassName" {
		return obj.class, nil
	}
	if v, ok := obj.props[name]; ok {
		return v, nil
	}
	if !m.permissive {
		schema, _ := m.schema(obj.class)
		if _, ok := schema.Properties[name]; !ok {
			return nil, errors.New("B041").WithClass(obj.class).WithKey(name).
				WithDetail("unknown property")
		}
	}
	return nil, nil
}

// Destroy implements Host.
func (m *Memory) Destroy(ref Ref) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, err := m.lookup(ref)
	if err != nil {
		return err
	}
	if obj == m.root {
		return errors.New("B043").WithClass(RootClass).WithDetail("the root object cannot be destroyed")
	}
	if obj.parent != nil {
		obj.parent.removeChild(obj)
	}
	m.destroy(obj)
	return nil
}

func (m *Memory) destroy(obj *Object) {
	for _, child := range obj.children {
		child.parent = nil
		m.destroy(child)
	}
	for _, s := range obj.subs {
		s.active = false
	}
	obj.subs = nil
	obj.children = nil
	obj.destroyed = true
	delete(m.objects, obj.id)
	m.logger.Debug("host object destroyed", "class", obj.class, "id", obj.id)
}

// Attach implements Host.
func (m *Memory) Attach(parent, child Ref) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.lookup(parent)
	if err != nil {
		return err
	}
	c, err := m.lookup(child)
	if err != nil {
		return err
	}
	if c == m.root {
		return errors.New("B043").WithClass(RootClass).WithDetail("the root object cannot be parented")
	}
	for a := p; a != nil; a = a.parent {
		if a == c {
			return errors.New("B041").WithClass(c.class).WithKey("Parent").
				WithDetail("attaching would create a cycle")
		}
	}
	if c.parent != nil {
		c.parent.removeChild(c)
	}
	c.parent = p
	p.children = append(p.children, c)
	return nil
}

// Subscribe implements Host.
func (m *Memory) Subscribe(ref Ref, signal string, handler Handler) (Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, err := m.lookup(ref)
	if err != nil {
		return nil, err
	}
	if !m.permissive {
		schema, _ := m.schema(obj.class)
		if !schema.hasSignal(signal) {
			return nil, errors.New("B042").WithClass(obj.class).WithKey(signal)
		}
	}
	s := &subscription{owner: m, object: obj, signal: signal, handler: handler, active: true}
	obj.subs = append(obj.subs, s)
	return s, nil
}

// Fire emits signal on ref, invoking connected handlers in subscription
// order. Handlers run on the caller's goroutine without the host lock held.
func (m *Memory) Fire(ref Ref, signal string, args ...any) error {
	m.mu.Lock()
	obj, err := m.lookup(ref)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	handlers := obj.handlersFor(signal)
	m.mu.Unlock()

	for _, h := range handlers {
		h(args...)
	}
	return nil
}

func (o *Object) handlersFor(signal string) []Handler {
	var out []Handler
	for _, s := range o.subs {
		if s.active && s.signal == signal {
			out = append(out, s.handler)
		}
	}
	return out
}

func (o *Object) removeChild(child *Object) {
	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}

// Live returns the number of live objects, excluding the root.
func (m *Memory) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects) - 1
}

// Subscriptions returns the number of active subscriptions across all objects.
func (m *Memory) Subscriptions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, obj := range m.objects {
		n += len(obj.subs)
	}
	return n
}

// Snapshot is a point-in-time copy of an object subtree.
type Snapshot struct {
	ID         string         `json:"id"`
	Class      string         `json:"class"`
	Properties map[string]any `json:"properties,omitempty"`
	Children   []Snapshot     `json:"children,omitempty"`
}

// Snapshot copies the subtree rooted at ref.
func (m *Memory) Snapshot(ref Ref) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, err := m.lookup(ref)
	if err != nil {
		return Snapshot{}, err
	}
	return obj.snapshot(), nil
}

func (o *Object) snapshot() Snapshot {
	s := Snapshot{ID: o.id, Class: o.class}
	if len(o.props) > 0 {
		s.Properties = make(map[string]any, len(o.props))
		for k, v := range o.props {
			s.Properties[k] = v
		}
	}
	for _, c := range o.children {
		s.Children = append(s.Children, c.snapshot())
	}
	return s
}

// Classes returns the registered class names in sorted order.
func (m *Memory) Classes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.classes))
	for name := range m.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
