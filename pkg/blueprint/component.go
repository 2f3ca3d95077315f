package blueprint

import "fmt"

// Factory wraps a pure function from props to a Node.
type Factory[P any] struct {
	name string
	fn   func(P) (*Node, error)
}

// Component creates a Factory. fn must not have observable side effects: it
// may run any number of times, including zero.
func Component[P any](name string, fn func(P) (*Node, error)) *Factory[P] {
	if fn == nil {
		panic(fmt.Sprintf("blueprint: component %q has a nil render function", name))
	}
	return &Factory[P]{name: name, fn: fn}
}

// Call invokes the component function. It is the canonical equivalent of
// calling the component like a function.
func (f *Factory[P]) Call(props P) (*Node, error) {
	return f.fn(props)
}

// Name returns the component name.
func (f *Factory[P]) Name() string { return f.name }
