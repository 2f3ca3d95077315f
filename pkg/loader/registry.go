package loader

import (
	"sort"
	"sync"

	"github.com/vango-dev/blueprint/pkg/blueprint"
)

// Registry resolves the plugin and handler names used in documents.
type Registry struct {
	mu       sync.RWMutex
	plugins  map[string]*blueprint.Plugin
	handlers map[string]blueprint.Callback
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		plugins:  make(map[string]*blueprint.Plugin),
		handlers: make(map[string]blueprint.Callback),
	}
}

// RegisterPlugin makes p available as "@<name>". A later registration with
// the same name replaces the earlier one.
func (r *Registry) RegisterPlugin(p *blueprint.Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[p.Name()] = p
}

// RegisterHandler makes cb available to "on:" keys as name.
func (r *Registry) RegisterHandler(name string, cb blueprint.Callback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = cb
}

// Plugin returns the plugin registered as name.
func (r *Registry) Plugin(name string) (*blueprint.Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

// Handler returns the handler registered as name.
func (r *Registry) Handler(name string) (blueprint.Callback, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cb, ok := r.handlers[name]
	return cb, ok
}

// PluginNames returns the registered plugin names in sorted order.
func (r *Registry) PluginNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.plugins)
}

// HandlerNames returns the registered handler names in sorted order.
func (r *Registry) HandlerNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.handlers)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
