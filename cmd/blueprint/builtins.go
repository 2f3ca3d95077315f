package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vango-dev/blueprint/pkg/blueprint"
	"github.com/vango-dev/blueprint/pkg/host"
	"github.com/vango-dev/blueprint/pkg/loader"
	"github.com/vango-dev/blueprint/pkg/mount"
)

// builtinRegistry returns the plugins and handlers documents can name.
//
//	@log      logs the node's mount and unmount with its config
//	print     prints the class and arguments of a fired signal
//	unmount   unmounts the node whose signal fired
func builtinRegistry(out io.Writer, logger *slog.Logger) *loader.Registry {
	reg := loader.NewRegistry()

	reg.RegisterPlugin(blueprint.MustPlugin("log", blueprint.Hooks{
		OnMount: func(ref host.Ref, config any) error {
			logger.Info("node mounted", "id", ref.HostID(), "config", config)
			return nil
		},
		OnUnmount: func(ref host.Ref, config any) {
			logger.Info("node unmounted", "id", ref.HostID(), "config", config)
		},
	}))

	reg.RegisterHandler("print", func(self blueprint.Instance, args ...any) {
		class := "?"
		if named, ok := self.(interface{ ClassName() string }); ok {
			class = named.ClassName()
		}
		fmt.Fprintf(out, "  %s fired %v\n", class, args)
	})

	reg.RegisterHandler("unmount", func(self blueprint.Instance, args ...any) {
		if err := self.Unmount(); err != nil {
			logger.Warn("unmount from handler failed", "error", err)
		}
	})

	return reg
}

// printTree writes the mounted handle tree, one handle per line.
func printTree(w io.Writer, root *mount.Handle) {
	root.Walk(func(depth int, h *mount.Handle) {
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth+1), label(h.ClassName(), h.Key()))
	})
}

// printNode writes a blueprint tree, one node per line.
func printNode(w io.Writer, n *blueprint.Node, key any, depth int) {
	fmt.Fprintf(w, "%s%s", strings.Repeat("  ", depth+1), label(n.ClassName(), key))
	if n.Props().Len() > 0 {
		keys := make([]string, 0, n.Props().Len())
		for _, e := range n.Props().Entries() {
			keys = append(keys, e.Key.String())
		}
		fmt.Fprintf(w, " {%s}", strings.Join(keys, ", "))
	}
	fmt.Fprintln(w)
	for i, c := range n.Children() {
		printNode(w, c.Node, n.ChildAddress(i), depth+1)
	}
}

func label(class string, key any) string {
	if key == nil {
		return class
	}
	return fmt.Sprintf("%s [%v]", class, key)
}
