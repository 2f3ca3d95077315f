package loader

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/blueprint/pkg/animate"
	"github.com/vango-dev/blueprint/pkg/blueprint"
	"github.com/vango-dev/blueprint/pkg/errors"
)

const (
	// PluginPrefix marks a props key naming a plugin.
	PluginPrefix = "@"
	// EventPrefix marks a props key binding a signal to a handler.
	EventPrefix = "on:"
)

const (
	// maxDepth bounds how deeply nodes may nest.
	maxDepth = 256
	// maxNodes bounds the expanded tree size, which aliases can multiply.
	maxNodes = 100_000
)

var yamlLine = regexp.MustCompile(`line (\d+)`)

// Parse builds a blueprint tree from a YAML or JSON document. file names the
// document in error locations.
func Parse(data []byte, file string, reg *Registry) (*blueprint.Node, error) {
	if reg == nil {
		reg = NewRegistry()
	}
	p := &parser{
		file:   file,
		lines:  strings.Split(string(data), "\n"),
		reg:    reg,
		active: make(map[*yaml.Node]bool),
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		line := 0
		if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
			line, _ = strconv.Atoi(m[1])
		}
		e := errors.New("B060").WithDetail("syntax error").Wrap(err)
		if line > 0 {
			p.locate(e, line, 0)
		}
		return nil, e
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("B060").WithDetail("empty document")
	}

	node, key, err := p.node(doc.Content[0])
	if err != nil {
		return nil, err
	}
	if key != nil {
		return nil, p.fail("B060", doc.Content[0], "the root node cannot have a key")
	}
	return node, nil
}

type parser struct {
	file  string
	lines []string
	reg   *Registry

	// active holds the mappings on the current path from the root.
	active map[*yaml.Node]bool
	nodes  int
}

// fail builds a document error located at n.
func (p *parser) fail(code string, n *yaml.Node, format string, args ...any) *errors.Error {
	e := errors.New(code).WithDetail(fmt.Sprintf(format, args...))
	p.locate(e, n.Line, n.Column)
	return e
}

func (p *parser) locate(e *errors.Error, line, column int) {
	e.Location = &errors.Location{File: p.file, Line: line, Column: column}
	start := max(line-2, 1)
	end := min(line+2, len(p.lines))
	if start <= end {
		e.WithContext(start, p.lines[start-1:end])
	}
}

// node parses one mapping into a blueprint node and its optional child key.
func (p *parser) node(n *yaml.Node) (*blueprint.Node, any, error) {
	if n.Kind == yaml.AliasNode {
		if p.active[n.Alias] {
			return nil, nil, p.fail("B060", n, "alias %q refers to itself", n.Value)
		}
		n = n.Alias
	}
	if n.Kind != yaml.MappingNode {
		return nil, nil, p.fail("B060", n, "expected a mapping with a class, got %s", kindName(n))
	}
	if len(p.active) >= maxDepth {
		return nil, nil, p.fail("B060", n, "nodes nest deeper than %d levels", maxDepth)
	}
	if p.nodes++; p.nodes > maxNodes {
		return nil, nil, p.fail("B060", n, "document expands to more than %d nodes", maxNodes)
	}
	p.active[n] = true
	defer delete(p.active, n)

	var (
		classNode, keyNode, propsNode, childrenNode *yaml.Node
	)
	seen := make(map[string]bool)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if seen[k.Value] {
			return nil, nil, p.fail("B060", k, "duplicate field %q", k.Value)
		}
		seen[k.Value] = true
		switch k.Value {
		case "class":
			classNode = v
		case "key":
			keyNode = v
		case "props":
			propsNode = v
		case "children":
			childrenNode = v
		default:
			return nil, nil, p.fail("B060", k, "unknown field %q", k.Value).
				WithSuggestion("A node has the fields class, key, props and children.")
		}
	}

	if classNode == nil {
		return nil, nil, p.fail("B060", n, "missing class")
	}
	if classNode.Kind != yaml.ScalarNode || classNode.Tag != "!!str" {
		return nil, nil, p.fail("B001", classNode, "class must be a string")
	}
	class := classNode.Value

	props, err := p.props(propsNode)
	if err != nil {
		return nil, nil, err
	}

	children, err := p.children(childrenNode)
	if err != nil {
		return nil, nil, err
	}

	node, err := blueprint.Create(class, props, children...)
	if err != nil {
		if be, ok := err.(*errors.Error); ok && be.Location == nil {
			p.locate(be, n.Line, n.Column)
		}
		return nil, nil, err
	}

	var key any
	if keyNode != nil {
		if key, err = p.key(keyNode); err != nil {
			return nil, nil, err
		}
	}
	return node, key, nil
}

func (p *parser) key(n *yaml.Node) (any, error) {
	if n.Kind != yaml.ScalarNode || n.Tag == "!!null" {
		return nil, p.fail("B004", n, "a child key must be a string or a number")
	}
	var key any
	if err := n.Decode(&key); err != nil {
		return nil, p.fail("B004", n, "%v", err)
	}
	return key, nil
}

func (p *parser) children(n *yaml.Node) ([]blueprint.Child, error) {
	if n == nil || n.Tag == "!!null" {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, p.fail("B060", n, "children must be a sequence, got %s", kindName(n))
	}
	children := make([]blueprint.Child, 0, len(n.Content))
	for _, c := range n.Content {
		if c.Tag == "!!null" {
			return nil, p.fail("B005", c, "empty child entry")
		}
		node, key, err := p.node(c)
		if err != nil {
			return nil, err
		}
		if key != nil {
			children = append(children, blueprint.Keyed(key, node))
		} else {
			children = append(children, blueprint.Unkeyed(node))
		}
	}
	return children, nil
}

// props converts the props mapping into an ordered property bag, keeping
// document order.
func (p *parser) props(n *yaml.Node) (blueprint.Props, error) {
	if n == nil || n.Tag == "!!null" {
		return blueprint.Properties(), nil
	}
	if n.Kind != yaml.MappingNode {
		return blueprint.Props{}, p.fail("B060", n, "props must be a mapping, got %s", kindName(n))
	}

	entries := make([]blueprint.Entry, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		name := k.Value

		switch {
		case strings.HasPrefix(name, PluginPrefix):
			pluginName := strings.TrimPrefix(name, PluginPrefix)
			plugin, ok := p.reg.Plugin(pluginName)
			if !ok {
				return blueprint.Props{}, p.fail("B061", k, "plugin %q is not registered", pluginName).
					WithKey(name).
					WithSuggestion(suggest("plugins", p.reg.PluginNames()))
			}
			config, err := p.value(v)
			if err != nil {
				return blueprint.Props{}, err
			}
			entries = append(entries, blueprint.Use(plugin, config))

		case strings.HasPrefix(name, EventPrefix):
			signal := strings.TrimPrefix(name, EventPrefix)
			event := blueprint.Events.Named(signal)
			if event == nil {
				return blueprint.Props{}, p.fail("B003", k, "event key without a signal name")
			}
			if v.Kind != yaml.ScalarNode || v.Tag != "!!str" {
				return blueprint.Props{}, p.fail("B062", v, "an event must name a handler")
			}
			cb, ok := p.reg.Handler(v.Value)
			if !ok {
				return blueprint.Props{}, p.fail("B062", v, "handler %q is not registered", v.Value).
					WithKey(name).
					WithSuggestion(suggest("handlers", p.reg.HandlerNames()))
			}
			entries = append(entries, blueprint.On(event, cb))

		default:
			if name == "" {
				return blueprint.Props{}, p.fail("B003", k, "empty property name")
			}
			value, err := p.value(v)
			if err != nil {
				return blueprint.Props{}, err
			}
			entries = append(entries, blueprint.Set(name, value))
		}
	}
	return blueprint.Properties(entries...), nil
}

type springDoc struct {
	Target    *float64 `yaml:"target"`
	From      *float64 `yaml:"from"`
	Stiffness float64  `yaml:"stiffness"`
	Damping   float64  `yaml:"damping"`
	Mass      float64  `yaml:"mass"`
}

// value decodes a property value. A mapping holding only "spring" becomes
// an animation goal.
func (p *parser) value(n *yaml.Node) (any, error) {
	if n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	if n.Kind == yaml.MappingNode && len(n.Content) == 2 && n.Content[0].Value == "spring" {
		return p.spring(n.Content[1])
	}
	if n.Tag == "!!null" {
		return nil, nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, p.fail("B060", n, "%v", err)
	}
	return v, nil
}

func (p *parser) spring(n *yaml.Node) (any, error) {
	var doc springDoc
	if err := n.Decode(&doc); err != nil {
		return nil, p.fail("B060", n, "invalid spring: %v", err)
	}
	if doc.Target == nil {
		return nil, p.fail("B060", n, "spring requires a target")
	}
	goal := animate.To(*doc.Target, animate.Spring{
		Stiffness: doc.Stiffness,
		Damping:   doc.Damping,
		Mass:      doc.Mass,
	})
	if doc.From != nil {
		goal = goal.StartingAt(*doc.From)
	}
	return goal, nil
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "a mapping"
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return "null"
		}
		return "a scalar"
	default:
		return "an unsupported node"
	}
}

func suggest(what string, names []string) string {
	if len(names) == 0 {
		return fmt.Sprintf("No %s are registered.", what)
	}
	return fmt.Sprintf("Registered %s: %s", what, strings.Join(names, ", "))
}
