package mount

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/blueprint/pkg/animate"
	"github.com/vango-dev/blueprint/pkg/blueprint"
	"github.com/vango-dev/blueprint/pkg/errors"
	"github.com/vango-dev/blueprint/pkg/host"
)

// Default tracer name for mount spans.
const defaultTracerName = "github.com/vango-dev/blueprint/pkg/mount"

// Option configures a Mounter.
type Option func(*Mounter)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mounter) {
		m.logger = logger
	}
}

// WithSolver sets the animation solver goal properties are registered with.
// Without a solver, goal properties fail to mount.
func WithSolver(solver animate.Solver) Option {
	return func(m *Mounter) {
		m.solver = solver
	}
}

// WithRecorder sets the lifecycle recorder.
func WithRecorder(r Recorder) Option {
	return func(m *Mounter) {
		m.recorder = r
	}
}

// WithTracer sets the tracer. The default resolves a tracer from the global
// OpenTelemetry provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(m *Mounter) {
		m.tracer = tracer
	}
}

// Mounter turns blueprint trees into live host objects. A Mounter holds no
// per-mount state and may be used re-entrantly from plugin hooks and event
// callbacks.
type Mounter struct {
	host     host.Host
	solver   animate.Solver
	logger   *slog.Logger
	recorder Recorder
	tracer   trace.Tracer
}

// New creates a Mounter driving h.
func New(h host.Host, opts ...Option) *Mounter {
	m := &Mounter{
		host:     h,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.tracer == nil {
		m.tracer = otel.Tracer(defaultTracerName)
	}
	return m
}

// Host returns the host collaborator.
func (m *Mounter) Host() host.Host {
	return m.host
}

// Mount instantiates node under parent. It either returns a fully mounted
// handle or an error with nothing left behind on the host.
func (m *Mounter) Mount(node *blueprint.Node, parent host.Ref) (*Handle, error) {
	return m.MountContext(context.Background(), node, parent)
}

// MountContext is Mount with a context carrying the parent trace span.
// Mounting cannot be cancelled.
func (m *Mounter) MountContext(ctx context.Context, node *blueprint.Node, parent host.Ref) (*Handle, error) {
	if node == nil {
		return nil, errors.New("B020").WithDetail("nil blueprint node")
	}
	if parent == nil {
		return nil, errors.New("B020").WithClass(node.ClassName()).WithDetail("nil host parent")
	}

	class := node.ClassName()
	_, span := m.tracer.Start(ctx, "blueprint.mount", trace.WithAttributes(
		attribute.String("blueprint.class", class),
		attribute.Int("blueprint.nodes", node.Size()),
		attribute.String("blueprint.parent", parent.HostID()),
	))
	defer span.End()

	start := time.Now()
	h, err := m.mountNode(node, parent, nil, nil)
	elapsed := time.Since(start)
	m.recorder.MountFinished(class, elapsed, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.logger.Warn("mount failed",
			"class", class,
			"code", errors.CodeOf(err),
			"error", err,
		)
		return nil, err
	}

	m.logger.Debug("mounted", "class", class, "nodes", node.Size(), "elapsed", elapsed)
	return h, nil
}

// Replace unmounts old (if any) and mounts node in its place. There is no
// reconciliation between the two trees.
func (m *Mounter) Replace(old *Handle, node *blueprint.Node, parent host.Ref) (*Handle, error) {
	if old != nil {
		if err := old.Unmount(); err != nil {
			m.logger.Warn("unmount before replace reported errors", "class", old.ClassName(), "error", err)
		}
	}
	return m.Mount(node, parent)
}

// mountNode mounts one node and its subtree. All state lives on the stack
// and in the handle under construction.
func (m *Mounter) mountNode(node *blueprint.Node, parent host.Ref, owner *Handle, key any) (*Handle, error) {
	class := node.ClassName()

	ref, err := m.host.Create(class)
	if err != nil {
		return nil, errors.New("B020").WithClass(class).Wrap(err)
	}

	h := &Handle{
		mounter: m,
		node:    node,
		ref:     ref,
		parent:  owner,
		key:     key,
		state:   StateMounting,
	}

	if err := m.build(h, parent); err != nil {
		code := errors.CodeOf(err)
		if rbErr := h.teardown(); rbErr != nil {
			m.logger.Warn("rollback reported errors", "class", class, "error", rbErr)
		}
		m.recorder.NodeRolledBack(class, code)
		m.logger.Debug("node rolled back", "class", class, "code", code)
		return nil, err
	}

	h.state = StateMounted
	m.recorder.NodeMounted(class)
	h.flush()
	if h.unmountQueued {
		if err := h.Unmount(); err != nil {
			m.logger.Warn("deferred unmount reported errors", "class", class, "error", err)
		}
	}
	return h, nil
}

// build runs steps 2-5 of the mount order against h.
func (m *Mounter) build(h *Handle, parent host.Ref) error {
	class := h.node.ClassName()
	props := h.node.Props()

	for _, e := range props.Filter(blueprint.KeyString) {
		name := e.Key.PropertyName()
		if err := m.applyProperty(h, name, e.Value); err != nil {
			return errors.New("B021").WithClass(class).WithKey(name).Wrap(err)
		}
	}

	for _, e := range props.Filter(blueprint.KeyEvent) {
		cb := e.Value.(blueprint.Callback)
		signal := e.Key.Event().Signal()
		conn, err := m.host.Subscribe(h.ref, signal, func(args ...any) {
			h.dispatch(cb, args)
		})
		if err != nil {
			return errors.New("B023").WithClass(class).WithKey(e.Key.String()).Wrap(err)
		}
		h.conns = append(h.conns, conn)
	}

	for _, e := range props.Filter(blueprint.KeyPlugin) {
		p := e.Key.Plugin()
		if err := runOnMount(p, h.ref, e.Value); err != nil {
			return errors.New("B022").WithClass(class).WithKey(e.Key.String()).Wrap(err)
		}
		h.plugins = append(h.plugins, pluginRun{plugin: p, config: e.Value})
	}

	for i, c := range h.node.Children() {
		addr := h.node.ChildAddress(i)
		child, err := m.mountNode(c.Node, h.ref, h, addr)
		if err != nil {
			return err
		}
		h.children = append(h.children, child)
	}

	if err := m.host.Attach(parent, h.ref); err != nil {
		return errors.New("B020").WithClass(class).WithDetail("attach to parent failed").Wrap(err)
	}
	return nil
}

// applyProperty writes value, or registers it with the solver when it is an
// animation goal.
func (m *Mounter) applyProperty(h *Handle, name string, value any) error {
	var goal animate.Goal
	switch v := value.(type) {
	case animate.Goal:
		goal = v
	case *animate.Goal:
		if v == nil {
			return m.host.Set(h.ref, name, nil)
		}
		goal = *v
	default:
		return m.host.Set(h.ref, name, value)
	}

	if m.solver == nil {
		return fmt.Errorf("property %q is an animation goal but no solver is configured", name)
	}
	if goal.From != nil {
		if err := m.host.Set(h.ref, name, *goal.From); err != nil {
			return err
		}
	}
	if err := m.solver.Register(h.ref, name, goal); err != nil {
		return err
	}
	h.goals = append(h.goals, name)
	return nil
}

// runOnMount invokes a plugin's OnMount hook, converting a panic into an error.
func runOnMount(p *blueprint.Plugin, ref host.Ref, config any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plugin %q panicked: %v", p.Name(), r)
		}
	}()
	return p.Hooks().OnMount(ref, config)
}

// runOnUnmount invokes a plugin's OnUnmount hook, converting a panic into an
// error so teardown can continue.
func runOnUnmount(p *blueprint.Plugin, ref host.Ref, config any) (err error) {
	hook := p.Hooks().OnUnmount
	if hook == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plugin %q panicked during unmount: %v", p.Name(), r)
		}
	}()
	hook(ref, config)
	return nil
}
