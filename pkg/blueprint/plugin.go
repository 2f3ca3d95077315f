package blueprint

import (
	"sync/atomic"

	"github.com/vango-dev/blueprint/pkg/errors"
	"github.com/vango-dev/blueprint/pkg/host"
)

// Hooks is the lifecycle hook set of a plugin.
type Hooks struct {
	// OnMount runs after the node's properties and events are applied and
	// before its children mount. Returning an error fails the mount.
	OnMount func(ref host.Ref, config any) error

	// OnUnmount runs after the node's children are torn down and its events
	// disconnected. Optional.
	OnUnmount func(ref host.Ref, config any)
}

var pluginSeq atomic.Uint64

// Plugin is a stateless identity carrying lifecycle hooks. It is attached to
// nodes as a property key; each occurrence carries its own config value.
type Plugin struct {
	id    uint64
	name  string
	hooks Hooks
}

// CreatePlugin registers a new plugin identity.
func CreatePlugin(name string, hooks Hooks) (*Plugin, error) {
	if name == "" {
		return nil, errors.New("B006").WithDetail("plugin name is empty")
	}
	if hooks.OnMount == nil {
		return nil, errors.New("B006").WithKey("@" + name).WithDetail("OnMount hook is required")
	}
	return &Plugin{
		id:    pluginSeq.Add(1),
		name:  name,
		hooks: hooks,
	}, nil
}

// MustPlugin is like CreatePlugin but panics on error.
func MustPlugin(name string, hooks Hooks) *Plugin {
	p, err := CreatePlugin(name, hooks)
	if err != nil {
		panic(err)
	}
	return p
}

// Name returns the plugin name.
func (p *Plugin) Name() string { return p.name }

// Hooks returns the plugin's hook set.
func (p *Plugin) Hooks() Hooks { return p.hooks }

// Key returns the property key for this plugin.
func (p *Plugin) Key() PropKey {
	return PropKey{kind: KeyPlugin, plugin: p}
}
