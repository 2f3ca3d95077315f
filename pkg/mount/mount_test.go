package mount_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/blueprint/pkg/animate"
	"github.com/vango-dev/blueprint/pkg/blueprint"
	"github.com/vango-dev/blueprint/pkg/bptest"
	"github.com/vango-dev/blueprint/pkg/errors"
	"github.com/vango-dev/blueprint/pkg/host"
	"github.com/vango-dev/blueprint/pkg/mount"
)

var (
	set   = blueprint.Set
	props = blueprint.Properties
)

func noop(blueprint.Instance, ...any) {}

func TestMount_EndToEnd(t *testing.T) {
	h := host.NewMemory(
		host.WithClass("Frame", host.ClassSchema{Properties: map[string]host.PropertyKind{"Text": host.KindString}}),
		host.WithClass("Label", host.ClassSchema{Properties: map[string]host.PropertyKind{"Text": host.KindString}}),
	)
	m := mount.New(h)

	tree := blueprint.MustCreate("Frame", props(set("Text", "A")),
		blueprint.Unkeyed(blueprint.MustCreate("Label", props(set("Text", "B")))),
	)

	handle, err := m.Mount(tree, h.Root())
	require.NoError(t, err)
	assert.True(t, handle.Mounted())
	assert.Equal(t, "Frame", handle.ClassName())

	text, err := handle.Get("Text")
	require.NoError(t, err)
	assert.Equal(t, "A", text)

	class, err := handle.Get("ClassName")
	require.NoError(t, err)
	assert.Equal(t, "Frame", class)

	require.Len(t, handle.Children(), 1)
	label, ok := handle.Child(0)
	require.True(t, ok)
	assert.Same(t, handle, label.Parent())
	assert.Equal(t, 0, label.Key())
	text, err = label.Get("Text")
	require.NoError(t, err)
	assert.Equal(t, "B", text)

	snap, err := h.Snapshot(h.Root())
	require.NoError(t, err)
	require.Len(t, snap.Children, 1)
	assert.Equal(t, "Frame", snap.Children[0].Class)
	assert.Equal(t, "Label", snap.Children[0].Children[0].Class)

	require.NoError(t, handle.Unmount())
	assert.Equal(t, mount.StateUnmounted, handle.State())
	assert.Equal(t, mount.StateUnmounted, label.State())
	assert.Equal(t, 0, h.Live())

	_, err = handle.Unwrap()
	assert.ErrorIs(t, err, errors.ErrStaleHandle)
	_, err = handle.Instance()
	assert.ErrorIs(t, err, errors.ErrStaleHandle)
	_, err = handle.Get("Text")
	assert.ErrorIs(t, err, errors.ErrStaleHandle)
	_, err = label.Unwrap()
	assert.ErrorIs(t, err, errors.ErrStaleHandle)
}

func TestMount_Order(t *testing.T) {
	h := bptest.NewHost()
	m := mount.New(h, mount.WithSolver(h.Solver()))
	p1 := h.Plugin("P1")
	p2 := h.Plugin("P2")

	tree := blueprint.MustCreate("Frame",
		props(
			set("Text", "A"),
			blueprint.Use(p1, nil),
			set("Width", animate.To(100, animate.DefaultSpring())),
			blueprint.On(blueprint.Events.Named("Activated"), noop),
			blueprint.Use(p2, nil),
		),
		blueprint.Keyed("Title", blueprint.MustCreate("Label", props(set("Text", "B")))),
	)

	handle, err := m.Mount(tree, h.Root())
	require.NoError(t, err)
	bptest.ExpectLog(t, h.Log,
		"create Frame",
		"set Frame.Text",
		"animate Frame.Width",
		"subscribe Frame.Activated",
		"mount P1",
		"mount P2",
		"create Label",
		"set Label.Text",
		"attach Frame>Label",
		"attach Root>Frame",
	)

	h.Log.Reset()
	require.NoError(t, handle.Unmount())
	bptest.ExpectLog(t, h.Log,
		"destroy Label",
		"disconnect Frame.Activated",
		"unmount P2",
		"unmount P1",
		"deanimate Frame.Width",
		"destroy Frame",
	)
	bptest.ExpectNoLeaks(t, h)

	// A second unmount performs no hooks and no destructions.
	h.Log.Reset()
	require.NoError(t, handle.Unmount())
	assert.Empty(t, h.Log.Entries())
}

func TestMount_PluginOrderFollowsBag(t *testing.T) {
	h := bptest.NewHost()
	m := mount.New(h)
	p1 := h.Plugin("P1")
	p2 := h.Plugin("P2")

	reversed := blueprint.MustCreate("Frame", props(blueprint.Use(p2, nil), blueprint.Use(p1, nil)))
	handle, err := m.Mount(reversed, h.Root())
	require.NoError(t, err)
	require.NoError(t, handle.Unmount())

	assert.Equal(t, []string{"mount P2", "mount P1", "unmount P1", "unmount P2"}, h.Log.Filter("mount", "unmount"))
}

func TestMount_PluginReceivesRefAndConfig(t *testing.T) {
	h := bptest.NewHost()
	m := mount.New(h)

	var gotRef, gotUnmountRef host.Ref
	var gotConfig any
	p := blueprint.MustPlugin("capture", blueprint.Hooks{
		OnMount: func(ref host.Ref, config any) error {
			gotRef, gotConfig = ref, config
			v, err := h.Get(ref, "Text")
			require.NoError(t, err)
			assert.Equal(t, "ready", v, "properties are applied before plugins run")
			return nil
		},
		OnUnmount: func(ref host.Ref, config any) {
			gotUnmountRef = ref
		},
	})

	handle, err := m.Mount(blueprint.MustCreate("Frame", props(blueprint.Use(p, 42), set("Text", "ready"))), h.Root())
	require.NoError(t, err)
	ref, err := handle.Unwrap()
	require.NoError(t, err)
	assert.Same(t, ref, gotRef)
	assert.Equal(t, 42, gotConfig)

	require.NoError(t, handle.Unmount())
	assert.Same(t, ref, gotUnmountRef)
}

func TestMount_RollbackOnPropertyError(t *testing.T) {
	h := bptest.NewHost()
	m := mount.New(h)
	p := h.Plugin("P")

	tree := blueprint.MustCreate("Frame", props(set("Text", "root")),
		blueprint.Unkeyed(blueprint.MustCreate("First", props(blueprint.Use(p, nil)))),
		blueprint.Unkeyed(blueprint.MustCreate("Second", props(blueprint.On(blueprint.Events.Named("Activated"), noop)))),
		blueprint.Unkeyed(blueprint.MustCreate("Third", props(set("Text", "boom")))),
	)
	h.FailSet("Third", "Text")

	handle, err := m.Mount(tree, h.Root())
	assert.Nil(t, handle)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrPropertyAssignment)

	var be *errors.Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "Third", be.Class)
	assert.Equal(t, "Text", be.Key)

	assert.Equal(t, []string{
		"set Third.Text failed",
		"destroy Third",
		"disconnect Second.Activated",
		"destroy Second",
		"unmount P",
		"destroy First",
		"destroy Frame",
	}, h.Log.Filter("set Third", "destroy", "disconnect", "unmount"))
	bptest.ExpectNoLeaks(t, h)
}

func TestMount_RollbackOnPluginError(t *testing.T) {
	h := bptest.NewHost()
	m := mount.New(h, mount.WithSolver(h.Solver()))
	ok := h.Plugin("ok")
	bad := h.FailingPlugin("bad", fmt.Errorf("layout unavailable"))
	never := h.Plugin("never")

	tree := blueprint.MustCreate("Frame", props(
		set("Width", animate.To(5, animate.Spring{})),
		blueprint.On(blueprint.Events.Named("Activated"), noop),
		blueprint.Use(ok, nil),
		blueprint.Use(bad, nil),
		blueprint.Use(never, nil),
	), blueprint.Unkeyed(blueprint.MustCreate("Label", props())))

	_, err := m.Mount(tree, h.Root())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrPluginMount)
	assert.Contains(t, err.Error(), "layout unavailable")

	bptest.ExpectLog(t, h.Log,
		"create Frame",
		"animate Frame.Width",
		"subscribe Frame.Activated",
		"mount ok",
		"mount bad failed",
		"disconnect Frame.Activated",
		"unmount ok",
		"deanimate Frame.Width",
		"destroy Frame",
	)
	bptest.ExpectNoLeaks(t, h)
}

func TestMount_PluginPanicIsMountError(t *testing.T) {
	h := bptest.NewHost()
	m := mount.New(h)
	p := blueprint.MustPlugin("panicky", blueprint.Hooks{
		OnMount: func(host.Ref, any) error { panic("nope") },
	})

	_, err := m.Mount(blueprint.MustCreate("Frame", props(blueprint.Use(p, nil))), h.Root())
	assert.ErrorIs(t, err, errors.ErrPluginMount)
	assert.Contains(t, err.Error(), "panicked")
	bptest.ExpectNoLeaks(t, h)
}

func TestMount_HostFailures(t *testing.T) {
	tests := []struct {
		name   string
		inject func(h *bptest.Host)
		want   error
	}{
		{
			name:   "child creation",
			inject: func(h *bptest.Host) { h.FailCreate("Label") },
			want:   errors.ErrHostObjectCreation,
		},
		{
			name:   "root creation",
			inject: func(h *bptest.Host) { h.FailCreate("Frame") },
			want:   errors.ErrHostObjectCreation,
		},
		{
			name:   "attach",
			inject: func(h *bptest.Host) { h.FailAttach("Frame") },
			want:   errors.ErrHostObjectCreation,
		},
		{
			name:   "subscribe",
			inject: func(h *bptest.Host) { h.FailSubscribe("Label", "Activated") },
			want:   errors.ErrEventBind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := bptest.NewHost()
			m := mount.New(h)
			p := h.Plugin("P")
			tree := blueprint.MustCreate("Frame", props(blueprint.Use(p, nil)),
				blueprint.Unkeyed(blueprint.MustCreate("Label", props(
					blueprint.On(blueprint.Events.Named("Activated"), noop),
				))),
			)
			tt.inject(h)

			handle, err := m.Mount(tree, h.Root())
			assert.Nil(t, handle)
			assert.ErrorIs(t, err, tt.want)
			bptest.ExpectNoLeaks(t, h)
			assert.Equal(t, len(h.Log.Filter("mount P")), len(h.Log.Filter("unmount P")))
		})
	}
}

func TestMount_UnknownClassOnSchemaHost(t *testing.T) {
	h := host.NewMemory()
	_, err := mount.New(h).Mount(blueprint.MustCreate("Window", props()), h.Root())
	assert.ErrorIs(t, err, errors.ErrHostObjectCreation)
	assert.ErrorIs(t, err, errors.ErrUnknownClass)
}

func TestMount_NilArguments(t *testing.T) {
	h := bptest.NewHost()
	m := mount.New(h)
	_, err := m.Mount(nil, h.Root())
	assert.ErrorIs(t, err, errors.ErrHostObjectCreation)
	_, err = m.Mount(blueprint.MustCreate("Frame", props()), nil)
	assert.ErrorIs(t, err, errors.ErrHostObjectCreation)
	assert.Empty(t, h.Log.Entries())
}

func TestMount_KeyedAddressing(t *testing.T) {
	h := bptest.NewHost()
	m := mount.New(h)

	build := func(reversed bool) *blueprint.Node {
		kids := []blueprint.Child{
			blueprint.Keyed("Title", blueprint.MustCreate("Label", props(set("Text", "Shoes")))),
			blueprint.Keyed("BuyButton", blueprint.MustCreate("Button", props(set("Text", "Buy")))),
		}
		if reversed {
			kids[0], kids[1] = kids[1], kids[0]
		}
		kids = append(kids, blueprint.Unkeyed(blueprint.MustCreate("Divider", props())))
		return blueprint.MustCreate("Frame", props(), kids...)
	}

	for _, reversed := range []bool{false, true} {
		handle, err := m.Mount(build(reversed), h.Root())
		require.NoError(t, err)

		title, ok := handle.Child("Title")
		require.True(t, ok)
		assert.Equal(t, "Label", title.ClassName())
		v, _ := title.Get("Text")
		assert.Equal(t, "Shoes", v)

		buy, ok := handle.Child("BuyButton")
		require.True(t, ok)
		assert.Equal(t, "Button", buy.ClassName())

		divider, ok := handle.Child(2)
		require.True(t, ok)
		assert.Equal(t, "Divider", divider.ClassName())

		_, ok = handle.Child("Missing")
		assert.False(t, ok)
		_, ok = handle.Child([]int{1})
		assert.False(t, ok)
		_, ok = handle.Child(nil)
		assert.False(t, ok)

		require.NoError(t, handle.Unmount())
	}
	bptest.ExpectNoLeaks(t, h)
}

func TestMount_EventInsulation(t *testing.T) {
	h := bptest.NewHost()
	m := mount.New(h)

	var received blueprint.Instance
	var gotArgs []any
	onActivated := func(self blueprint.Instance, args ...any) {
		received = self
		gotArgs = args
	}

	handle, err := m.Mount(blueprint.MustCreate("Button", props(
		blueprint.On(blueprint.Events.Named("Activated"), onActivated),
	)), h.Root())
	require.NoError(t, err)

	ref, err := handle.Unwrap()
	require.NoError(t, err)
	require.NoError(t, h.Fire(ref, "Activated", 1, "left"))

	require.NotNil(t, received)
	self, ok := received.(*mount.Handle)
	require.True(t, ok, "callbacks receive the handle, not the host object")
	assert.Same(t, handle, self)
	assert.Equal(t, []any{1, "left"}, gotArgs)

	require.NoError(t, handle.Unmount())
	_, err = received.Unwrap()
	assert.ErrorIs(t, err, errors.ErrStaleHandle)
	assert.False(t, received.Mounted())
}

func TestMount_ChangedEvent(t *testing.T) {
	h := bptest.NewHost()
	m := mount.New(h)

	var seen []any
	handle, err := m.Mount(blueprint.MustCreate("TextBox", props(
		set("Text", "initial"),
		blueprint.On(blueprint.Events.Changed("Text"), func(self blueprint.Instance, args ...any) {
			v, err := self.Get("Text")
			require.NoError(t, err)
			seen = append(seen, v)
		}),
	)), h.Root())
	require.NoError(t, err)
	assert.Empty(t, seen, "events are bound after properties are applied")

	ref, _ := handle.Unwrap()
	require.NoError(t, h.Set(ref, "Text", "typed"))
	assert.Equal(t, []any{"typed"}, seen)
	require.NoError(t, handle.Unmount())
}

func TestMount_SignalsQueuedUntilSubtreeMounted(t *testing.T) {
	h := bptest.NewHost()
	m := mount.New(h)

	var childrenAtDelivery int
	delivered := 0
	firer := blueprint.MustPlugin("firer", blueprint.Hooks{
		OnMount: func(ref host.Ref, config any) error {
			return h.Fire(ref, "Activated", "early")
		},
	})

	tree := blueprint.MustCreate("Frame", props(
		blueprint.On(blueprint.Events.Named("Activated"), func(self blueprint.Instance, args ...any) {
			delivered++
			childrenAtDelivery = len(self.(*mount.Handle).Children())
			assert.True(t, self.Mounted())
			assert.Equal(t, []any{"early"}, args)
		}),
		blueprint.Use(firer, nil),
	),
		blueprint.Unkeyed(blueprint.MustCreate("Label", props())),
		blueprint.Unkeyed(blueprint.MustCreate("Label", props())),
	)

	handle, err := m.Mount(tree, h.Root())
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 2, childrenAtDelivery)
	require.NoError(t, handle.Unmount())
}

func TestMount_QueuedSignalsDroppedOnRollback(t *testing.T) {
	h := bptest.NewHost()
	m := mount.New(h)

	delivered := 0
	firer := blueprint.MustPlugin("firer", blueprint.Hooks{
		OnMount: func(ref host.Ref, config any) error {
			return h.Fire(ref, "Activated")
		},
	})
	tree := blueprint.MustCreate("Frame", props(
		blueprint.On(blueprint.Events.Named("Activated"), func(blueprint.Instance, ...any) { delivered++ }),
		blueprint.Use(firer, nil),
	), blueprint.Unkeyed(blueprint.MustCreate("Label", props())))
	h.FailCreate("Label")

	_, err := m.Mount(tree, h.Root())
	require.Error(t, err)
	assert.Equal(t, 0, delivered)
}

func TestMount_UnmountParentWhileMounting(t *testing.T) {
	h := bptest.NewHost()
	rec := &countingRecorder{}
	m := mount.New(h, mount.WithRecorder(rec))

	firer := blueprint.MustPlugin("firer", blueprint.Hooks{
		OnMount: func(ref host.Ref, config any) error {
			return h.Fire(ref, "Activated")
		},
	})

	var parentState mount.State
	var unmountErr error
	tree := blueprint.MustCreate("Frame", props(),
		blueprint.Unkeyed(blueprint.MustCreate("Label", props(
			blueprint.On(blueprint.Events.Named("Activated"), func(self blueprint.Instance, _ ...any) {
				parent := self.(*mount.Handle).Parent()
				parentState = parent.State()
				unmountErr = parent.Unmount()
			}),
			blueprint.Use(firer, nil),
		))),
		blueprint.Unkeyed(blueprint.MustCreate("Button", props())),
	)

	handle, err := m.Mount(tree, h.Root())
	require.NoError(t, err)
	require.NoError(t, unmountErr)
	assert.Equal(t, mount.StateMounting, parentState)

	// The whole subtree mounted before the queued unmount ran.
	assert.Equal(t, []string{"create Frame", "create Label", "create Button"}, h.Log.Filter("create"))
	assert.Equal(t, mount.StateUnmounted, handle.State())
	assert.Equal(t, []string{"Label", "Button", "Frame"}, rec.mounted)
	assert.ElementsMatch(t, rec.mounted, rec.unmounted)
	assert.Empty(t, rec.rolledBack)
	bptest.ExpectNoLeaks(t, h)
}

func TestMount_GoalProperties(t *testing.T) {
	h := bptest.NewHost()
	solver := h.Solver()
	m := mount.New(h, mount.WithSolver(solver))

	goal := animate.To(200, animate.DefaultSpring()).StartingAt(0)
	handle, err := m.Mount(blueprint.MustCreate("Frame", props(set("Width", goal), set("Height", &goal))), h.Root())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"set Frame.Width", "animate Frame.Width",
		"set Frame.Height", "animate Frame.Height",
	}, h.Log.Filter("set", "animate"))
	assert.Equal(t, 2, solver.Active())

	v, err := handle.Get("Width")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	require.NoError(t, handle.Unmount())
	assert.Equal(t, 0, solver.Active())
	assert.Equal(t, []string{"deanimate Frame.Height", "deanimate Frame.Width"}, h.Log.Filter("deanimate"))
}

func TestMount_GoalWithoutSolver(t *testing.T) {
	h := bptest.NewHost()
	_, err := mount.New(h).Mount(blueprint.MustCreate("Frame", props(set("Width", animate.To(1, animate.Spring{})))), h.Root())
	assert.ErrorIs(t, err, errors.ErrPropertyAssignment)
	bptest.ExpectNoLeaks(t, h)
}

func TestMount_SpringSolverEndToEnd(t *testing.T) {
	h := host.NewMemory(host.WithClass("Frame", host.ClassSchema{
		Properties: map[string]host.PropertyKind{"Width": host.KindNumber},
	}))
	solver := animate.NewSpringSolver(h)
	m := mount.New(h, mount.WithSolver(solver))

	handle, err := m.Mount(blueprint.MustCreate("Frame", props(
		set("Width", animate.To(120, animate.DefaultSpring()).StartingAt(20)),
	)), h.Root())
	require.NoError(t, err)

	for i := 0; i < 600 && solver.Active() > 0; i++ {
		require.NoError(t, solver.Step(1.0/60))
	}
	v, err := handle.Get("Width")
	require.NoError(t, err)
	assert.Equal(t, 120.0, v)
	require.NoError(t, handle.Unmount())
}

func TestMount_Reentrant(t *testing.T) {
	h := bptest.NewHost()
	m := mount.New(h)

	var overlay *mount.Handle
	spawner := blueprint.MustPlugin("spawner", blueprint.Hooks{
		OnMount: func(ref host.Ref, config any) error {
			var err error
			overlay, err = m.Mount(blueprint.MustCreate("Overlay", props(set("Text", "nested"))), h.Root())
			return err
		},
		OnUnmount: func(ref host.Ref, config any) {
			_ = overlay.Unmount()
		},
	})

	handle, err := m.Mount(blueprint.MustCreate("Frame", props(blueprint.Use(spawner, nil)),
		blueprint.Unkeyed(blueprint.MustCreate("Label", props())),
	), h.Root())
	require.NoError(t, err)
	require.NotNil(t, overlay)
	assert.True(t, overlay.Mounted())
	assert.Equal(t, 3, h.Live())

	require.NoError(t, handle.Unmount())
	assert.False(t, overlay.Mounted())
	bptest.ExpectNoLeaks(t, h)
}

func TestMount_UnmountFromOwnCallback(t *testing.T) {
	h := bptest.NewHost()
	m := mount.New(h)

	handle, err := m.Mount(blueprint.MustCreate("Button", props(
		blueprint.On(blueprint.Events.Named("Activated"), func(self blueprint.Instance, _ ...any) {
			require.NoError(t, self.Unmount())
		}),
	)), h.Root())
	require.NoError(t, err)

	ref, _ := handle.Unwrap()
	require.NoError(t, h.Fire(ref, "Activated"))
	assert.False(t, handle.Mounted())
	bptest.ExpectNoLeaks(t, h)
}

func TestMount_ReentrantUnmountDuringTeardown(t *testing.T) {
	h := bptest.NewHost()
	m := mount.New(h)

	var self *mount.Handle
	p := blueprint.MustPlugin("selfish", blueprint.Hooks{
		OnMount: func(host.Ref, any) error { return nil },
		OnUnmount: func(host.Ref, any) {
			assert.NoError(t, self.Unmount())
		},
	})
	var err error
	self, err = m.Mount(blueprint.MustCreate("Frame", props(blueprint.Use(p, nil))), h.Root())
	require.NoError(t, err)
	require.NoError(t, self.Unmount())
	assert.Len(t, h.Log.Filter("destroy"), 1)
}

func TestHandle_UnmountChildThenParent(t *testing.T) {
	h := bptest.NewHost()
	m := mount.New(h)
	handle, err := m.Mount(blueprint.MustCreate("Frame", props(),
		blueprint.Keyed("Title", blueprint.MustCreate("Label", props())),
	), h.Root())
	require.NoError(t, err)

	title, _ := handle.Child("Title")
	require.NoError(t, title.Unmount())
	assert.True(t, handle.Mounted())

	require.NoError(t, handle.Unmount())
	assert.Len(t, h.Log.Filter("destroy Label"), 1)
	bptest.ExpectNoLeaks(t, h)
}

func TestHandle_TeardownErrorsAreJoined(t *testing.T) {
	h := bptest.NewHost()
	m := mount.New(h)
	p := blueprint.MustPlugin("grumpy", blueprint.Hooks{
		OnMount:   func(host.Ref, any) error { return nil },
		OnUnmount: func(host.Ref, any) { panic("teardown bug") },
	})
	handle, err := m.Mount(blueprint.MustCreate("Frame", props(blueprint.Use(p, nil)),
		blueprint.Unkeyed(blueprint.MustCreate("Label", props())),
	), h.Root())
	require.NoError(t, err)

	h.FailDestroy("Label")
	err = handle.Unmount()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teardown bug")
	assert.Contains(t, err.Error(), "injected destroy failure")
	assert.Equal(t, mount.StateUnmounted, handle.State())
	assert.Contains(t, h.Log.Entries(), "destroy Frame")
}

func TestHandle_Walk(t *testing.T) {
	h := bptest.NewHost()
	m := mount.New(h)
	handle, err := m.Mount(blueprint.MustCreate("Frame", props(),
		blueprint.Unkeyed(blueprint.MustCreate("Row", props(),
			blueprint.Unkeyed(blueprint.MustCreate("Label", props())),
		)),
		blueprint.Unkeyed(blueprint.MustCreate("Button", props())),
	), h.Root())
	require.NoError(t, err)

	var visited []string
	handle.Walk(func(depth int, h *mount.Handle) {
		visited = append(visited, fmt.Sprintf("%d:%s", depth, h.ClassName()))
	})
	assert.Equal(t, []string{"0:Frame", "1:Row", "2:Label", "1:Button"}, visited)
}

func TestMounter_Replace(t *testing.T) {
	h := bptest.NewHost()
	m := mount.New(h)
	first, err := m.Mount(blueprint.MustCreate("Frame", props(set("Text", "v1"))), h.Root())
	require.NoError(t, err)

	second, err := m.Replace(first, blueprint.MustCreate("Frame", props(set("Text", "v2"))), h.Root())
	require.NoError(t, err)
	assert.False(t, first.Mounted())
	v, _ := second.Get("Text")
	assert.Equal(t, "v2", v)
	assert.Equal(t, 1, h.Live())

	third, err := m.Replace(nil, blueprint.MustCreate("Label", props()), h.Root())
	require.NoError(t, err)
	assert.Equal(t, 2, h.Live())
	require.NoError(t, second.Unmount())
	require.NoError(t, third.Unmount())
	assert.Same(t, h, m.Host())
}

type countingRecorder struct {
	finished   []error
	mounted    []string
	rolledBack []string
	unmounted  []string
}

func (r *countingRecorder) MountFinished(class string, _ time.Duration, err error) {
	r.finished = append(r.finished, err)
}
func (r *countingRecorder) NodeMounted(class string) { r.mounted = append(r.mounted, class) }
func (r *countingRecorder) NodeRolledBack(class, code string) {
	r.rolledBack = append(r.rolledBack, class+":"+code)
}
func (r *countingRecorder) NodeUnmounted(class string) { r.unmounted = append(r.unmounted, class) }

func TestMounter_Recorder(t *testing.T) {
	h := bptest.NewHost()
	rec := &countingRecorder{}
	m := mount.New(h, mount.WithRecorder(rec))

	handle, err := m.Mount(blueprint.MustCreate("Frame", props(), blueprint.Unkeyed(blueprint.MustCreate("Label", props()))), h.Root())
	require.NoError(t, err)
	require.NoError(t, handle.Unmount())

	h.FailSet("Frame", "Text")
	_, err = m.Mount(blueprint.MustCreate("Frame", props(set("Text", "x"))), h.Root())
	require.Error(t, err)

	require.Len(t, rec.finished, 2)
	assert.NoError(t, rec.finished[0])
	assert.Error(t, rec.finished[1])
	assert.Equal(t, []string{"Label", "Frame"}, rec.mounted)
	assert.Equal(t, []string{"Label", "Frame"}, rec.unmounted)
	assert.Equal(t, []string{"Frame:B021"}, rec.rolledBack)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Mounting", mount.StateMounting.String())
	assert.Equal(t, "Mounted", mount.StateMounted.String())
	assert.Equal(t, "Unmounting", mount.StateUnmounting.String())
	assert.Equal(t, "Unmounted", mount.StateUnmounted.String())
	assert.Equal(t, "Unknown", mount.State(99).String())
}
