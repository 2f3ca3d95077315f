package bptest_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/blueprint/pkg/animate"
	"github.com/vango-dev/blueprint/pkg/bptest"
	"github.com/vango-dev/blueprint/pkg/host"
)

func TestHost_RecordsCalls(t *testing.T) {
	h := bptest.NewHost()

	frame, err := h.Create("Frame")
	require.NoError(t, err)
	require.NoError(t, h.Set(frame, "Text", "Hi"))
	conn, err := h.Subscribe(frame, "Activated", func(...any) {})
	require.NoError(t, err)
	require.NoError(t, h.Attach(h.Root(), frame))
	conn.Disconnect()
	require.NoError(t, h.Destroy(frame))

	bptest.ExpectLog(t, h.Log,
		"create Frame",
		"set Frame.Text",
		"subscribe Frame.Activated",
		"attach Root>Frame",
		"disconnect Frame.Activated",
		"destroy Frame",
	)
	assert.Equal(t, []string{"create Frame", "destroy Frame"}, h.Log.Filter("create", "destroy"))
	bptest.ExpectNoLeaks(t, h)

	h.Log.Reset()
	assert.Empty(t, h.Log.Entries())
}

func TestHost_InjectedFailuresAreConsumed(t *testing.T) {
	h := bptest.NewHost()
	h.FailCreate("Frame")

	_, err := h.Create("Frame")
	require.Error(t, err)
	assert.Equal(t, "injected create failure on Frame", err.Error())

	frame, err := h.Create("Frame")
	require.NoError(t, err)

	h.FailSet("Frame", "Text")
	require.Error(t, h.Set(frame, "Text", "x"))
	require.NoError(t, h.Set(frame, "Text", "x"))

	h.FailSubscribe("Frame", "Activated")
	_, err = h.Subscribe(frame, "Activated", func(...any) {})
	require.Error(t, err)

	h.FailAttach("Frame")
	require.Error(t, h.Attach(h.Root(), frame))

	h.FailDestroy("Frame")
	require.Error(t, h.Destroy(frame))
	require.NoError(t, h.Destroy(frame))

	assert.Equal(t, []string{
		"create Frame failed",
		"set Frame.Text failed",
		"subscribe Frame.Activated failed",
		"attach Frame failed",
		"destroy Frame failed",
	}, filterFailed(h.Log.Entries()))
}

func filterFailed(entries []string) []string {
	var out []string
	for _, e := range entries {
		if len(e) > 7 && e[len(e)-7:] == " failed" {
			out = append(out, e)
		}
	}
	return out
}

func TestHost_ClassOf(t *testing.T) {
	h := bptest.NewHost()
	assert.Equal(t, "<nil>", h.ClassOf(nil))
	assert.Equal(t, host.RootClass, h.ClassOf(h.Root()))

	label, err := h.Create("Label")
	require.NoError(t, err)
	assert.Equal(t, "Label", h.ClassOf(label))
}

func TestPlugins(t *testing.T) {
	h := bptest.NewHost()
	ref, err := h.Create("Frame")
	require.NoError(t, err)

	p := h.Plugin("log")
	assert.Equal(t, "log", p.Name())
	require.NoError(t, p.Hooks().OnMount(ref, nil))
	p.Hooks().OnUnmount(ref, nil)

	boom := errors.New("boom")
	f := h.FailingPlugin("bad", boom)
	assert.Same(t, boom, f.Hooks().OnMount(ref, nil))

	assert.Equal(t, []string{"mount log", "unmount log", "mount bad failed"}, h.Log.Filter("mount", "unmount"))
}

func TestSolver(t *testing.T) {
	h := bptest.NewHost()
	ref, err := h.Create("Frame")
	require.NoError(t, err)

	s := h.Solver()
	require.NoError(t, s.Register(ref, "Width", animate.To(10, animate.DefaultSpring())))
	assert.Equal(t, 1, s.Active())
	assert.Equal(t, 10.0, s.Goals[ref.HostID()+".Width"].Target)

	s.Deregister(ref, "Width")
	assert.Equal(t, 0, s.Active())
	assert.Equal(t, []string{"animate Frame.Width", "deanimate Frame.Width"}, h.Log.Filter("animate", "deanimate"))
}
