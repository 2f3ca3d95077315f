package animate

import (
	"math"

	"github.com/vango-dev/blueprint/pkg/host"
)

// Spring holds damped-spring parameters.
type Spring struct {
	Stiffness float64
	Damping   float64
	Mass      float64
}

// DefaultSpring returns a critically damped-ish spring that settles in
// roughly half a second.
func DefaultSpring() Spring {
	return Spring{Stiffness: 170, Damping: 26, Mass: 1}
}

// withDefaults returns DefaultSpring for the zero Spring and otherwise
// fills invalid fields from it.
func (s Spring) withDefaults() Spring {
	d := DefaultSpring()
	if s == (Spring{}) {
		return d
	}
	if s.Stiffness <= 0 {
		s.Stiffness = d.Stiffness
	}
	if s.Damping < 0 {
		s.Damping = d.Damping
	}
	if s.Mass <= 0 {
		s.Mass = d.Mass
	}
	return s
}

// coefficients returns the angular frequency and damping ratio of a spring
// with valid fields.
func (s Spring) coefficients() (omega, zeta float64) {
	omega = math.Sqrt(s.Stiffness / s.Mass)
	zeta = s.Damping / (2 * math.Sqrt(s.Stiffness*s.Mass))
	return omega, zeta
}

// Goal is a property value that animates toward Target.
type Goal struct {
	Target float64
	// From, when set, is written to the property before registration.
	From   *float64
	Spring Spring
}

// To creates a goal using spring.
func To(target float64, spring Spring) Goal {
	return Goal{Target: target, Spring: spring}
}

// StartingAt returns a copy of g that starts from the given value.
func (g Goal) StartingAt(from float64) Goal {
	g.From = &from
	return g
}

// Solver drives registered goals. Registration is keyed by object and
// property; registering the same pair again replaces the previous goal.
type Solver interface {
	Register(ref host.Ref, property string, goal Goal) error
	Deregister(ref host.Ref, property string)
}
