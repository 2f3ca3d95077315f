// Package host defines the contract between the mount engine and the scene
// graph that owns the real objects, and ships an in-memory scene graph that
// implements it.
//
// The engine never creates, mutates or destroys objects itself; it goes
// through a Host. Any scene graph that can create objects by class name, read
// and write named properties, parent objects and expose named signals can be
// driven by the engine.
//
// # Memory
//
// Memory is a thread-safe, schema-checked scene graph kept entirely in
// process. It backs the CLI, the remote host server and the test suites:
//
//	h := host.NewMemory(
//	    host.WithClass("Frame", host.ClassSchema{
//	        Properties: map[string]host.PropertyKind{"Text": host.KindString},
//	        Signals:    []string{"Activated"},
//	    }),
//	)
//	ref, _ := h.Create("Frame")
//	_ = h.Set(ref, "Text", "hello")
//	_ = h.Attach(h.Root(), ref)
package host
