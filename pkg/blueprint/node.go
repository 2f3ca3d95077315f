package blueprint

import (
	"fmt"
	"reflect"

	"github.com/vango-dev/blueprint/pkg/errors"
)

// Child is one entry of a node's ordered children. A nil Key means the
// child is addressed by its zero-based position among its siblings.
type Child struct {
	Key  any
	Node *Node
}

// Keyed creates a child addressed by key.
func Keyed(key any, node *Node) Child {
	return Child{Key: key, Node: node}
}

// Unkeyed creates a child addressed by position.
func Unkeyed(node *Node) Child {
	return Child{Node: node}
}

// Node is an immutable description of a host object and its children.
type Node struct {
	className string
	props     Props
	children  []Child
}

// Create validates and builds a Node. It never touches a host.
func Create(className string, props Props, children ...Child) (*Node, error) {
	if className == "" {
		return nil, errors.New("B001")
	}

	entries := make([]Entry, 0, props.Len())
	for _, e := range props.entries {
		if !e.Key.valid() {
			return nil, errors.New("B003").WithClass(className).WithKey(e.Key.String())
		}
		if e.Key.kind == KeyEvent {
			cb, ok := asCallback(e.Value)
			if !ok {
				return nil, errors.New("B003").WithClass(className).WithKey(e.Key.String()).
					WithDetail(fmt.Sprintf("event value must be a Callback, got %T", e.Value))
			}
			e.Value = cb
		}
		entries = append(entries, e)
	}

	seen := make(map[any]int, len(children))
	kids := make([]Child, len(children))
	for i, c := range children {
		if c.Node == nil {
			return nil, errors.New("B005").WithClass(className).WithKey(fmt.Sprint(i))
		}
		if c.Key != nil && !reflect.ValueOf(c.Key).Comparable() {
			return nil, errors.New("B004").WithClass(className).WithKey(fmt.Sprintf("%T", c.Key))
		}
		addr := address(c, i)
		if prev, dup := seen[addr]; dup {
			return nil, errors.New("B002").WithClass(className).WithKey(fmt.Sprint(addr)).
				WithDetail(fmt.Sprintf("children %d and %d share the address %v", prev, i, addr))
		}
		seen[addr] = i
		kids[i] = c
	}

	return &Node{
		className: className,
		props:     Properties(entries...),
		children:  kids,
	}, nil
}

// MustCreate is like Create but panics on error.
func MustCreate(className string, props Props, children ...Child) *Node {
	n, err := Create(className, props, children...)
	if err != nil {
		panic(err)
	}
	return n
}

func asCallback(v any) (Callback, bool) {
	switch cb := v.(type) {
	case Callback:
		return cb, cb != nil
	case func(Instance, ...any):
		return Callback(cb), cb != nil
	default:
		return nil, false
	}
}

// address returns the addressing key of the i-th child.
func address(c Child, i int) any {
	if c.Key != nil {
		return c.Key
	}
	return i
}

// ClassName returns the class of host object this node describes.
func (n *Node) ClassName() string { return n.className }

// Props returns the node's property bag.
func (n *Node) Props() Props { return n.props }

// Children returns a copy of the node's children.
func (n *Node) Children() []Child {
	out := make([]Child, len(n.children))
	copy(out, n.children)
	return out
}

// ChildAddress returns the key under which the i-th child's handle is
// reachable after mount: its explicit key, or i.
func (n *Node) ChildAddress(i int) any {
	return address(n.children[i], i)
}

// Size returns the number of nodes in the tree rooted at n.
func (n *Node) Size() int {
	size := 1
	for _, c := range n.children {
		size += c.Node.Size()
	}
	return size
}
