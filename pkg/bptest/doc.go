// Package bptest provides testing helpers for code built on blueprint.
//
// Host wraps a permissive in-memory scene graph and records every
// collaborator call in a shared Log, so tests can assert the exact order of
// creation, property writes, bindings, plugin hooks and teardown:
//
//	h := bptest.NewHost()
//	m := mount.New(h, mount.WithSolver(h.Solver()))
//	p := h.Plugin("tooltip")
//	handle, _ := m.Mount(tree, h.Root())
//	bptest.ExpectLog(t, h.Log, "create Frame", "set Frame.Text", "mount tooltip", ...)
//
// # Failure Injection
//
// Fail* methods make the next matching call fail, which is how the rollback
// paths are exercised:
//
//	h.FailSet("Frame", "Text")
//	h.FailAttach("Label")
package bptest
