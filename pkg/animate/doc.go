// Package animate defines animation goals for numeric host properties and the
// solver contract the mount engine registers them with.
//
// A property whose value is a Goal is not written directly. The mount engine
// hands it to a Solver, which moves the property toward the target over
// time, and deregisters it when the owning node unmounts. SpringSolver is a
// damped-spring reference solver driven by Step from the host's frame loop:
//
//	solver := animate.NewSpringSolver(h)
//	m := mount.New(h, mount.WithSolver(solver))
//	...
//	for range ticker.C {
//	    solver.Step(1.0 / 60)
//	}
package animate
