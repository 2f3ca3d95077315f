package animate

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/charmbracelet/harmonica"

	"github.com/vango-dev/blueprint/pkg/host"
)

// restDelta is the distance and speed below which a spring settles.
const restDelta = 1e-3

type animKey struct {
	id       string
	property string
}

type simulation struct {
	ref      host.Ref
	property string
	spring   Spring
	target   float64
	position float64
	velocity float64

	// motion is the harmonica spring for the last step size dt.
	motion harmonica.Spring
	dt     float64
}

// step advances the simulation by dt seconds and reports whether it settled.
func (s *simulation) step(dt float64) bool {
	if dt != s.dt {
		omega, zeta := s.spring.coefficients()
		s.motion = harmonica.NewSpring(dt, omega, zeta)
		s.dt = dt
	}
	s.position, s.velocity = s.motion.Update(s.position, s.velocity, s.target)
	if math.Abs(s.position-s.target) < restDelta && math.Abs(s.velocity) < restDelta {
		s.position = s.target
		s.velocity = 0
		return true
	}
	return false
}

// SpringSolverOption configures a SpringSolver.
type SpringSolverOption func(*SpringSolver)

// WithLogger sets the solver logger.
func WithLogger(logger *slog.Logger) SpringSolverOption {
	return func(s *SpringSolver) {
		s.logger = logger
	}
}

// WithDefaultSpring sets the spring used for goals that leave Spring zero.
func WithDefaultSpring(spring Spring) SpringSolverOption {
	return func(s *SpringSolver) {
		s.defaultSpring = spring.withDefaults()
	}
}

// SpringSolver animates registered goals with damped springs and writes the
// positions through a Host.
type SpringSolver struct {
	host          host.Host
	logger        *slog.Logger
	defaultSpring Spring

	mu    sync.Mutex
	sims  map[animKey]*simulation
	order []animKey
}

// NewSpringSolver creates a solver writing to h.
func NewSpringSolver(h host.Host, opts ...SpringSolverOption) *SpringSolver {
	s := &SpringSolver{
		host:          h,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		defaultSpring: DefaultSpring(),
		sims:          make(map[animKey]*simulation),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register implements Solver. The current property value is the starting
// position; a non-numeric or unset value starts the spring at rest on the
// target.
func (s *SpringSolver) Register(ref host.Ref, property string, goal Goal) error {
	if math.IsNaN(goal.Target) || math.IsInf(goal.Target, 0) {
		return fmt.Errorf("animate: target %v is not finite", goal.Target)
	}
	start := goal.Target
	current, err := s.host.Get(ref, property)
	if err != nil {
		return err
	}
	if v, ok := toFloat(current); ok {
		start = v
	}

	spring := s.defaultSpring
	if goal.Spring != (Spring{}) {
		spring = goal.Spring.withDefaults()
	}

	key := animKey{id: ref.HostID(), property: property}
	sim := &simulation{
		ref:      ref,
		property: property,
		spring:   spring,
		target:   goal.Target,
		position: start,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sims[key]; !exists {
		s.order = append(s.order, key)
	}
	s.sims[key] = sim
	s.logger.Debug("animation registered", "property", property, "from", start, "to", goal.Target)
	return nil
}

// Deregister implements Solver.
func (s *SpringSolver) Deregister(ref host.Ref, property string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(animKey{id: ref.HostID(), property: property})
}

// remove drops key. Callers hold s.mu.
func (s *SpringSolver) remove(key animKey) {
	if _, ok := s.sims[key]; !ok {
		return
	}
	delete(s.sims, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

type write struct {
	ref      host.Ref
	property string
	value    float64
}

// Step advances every active spring by dt seconds, writes the new positions
// and drops settled springs. Writes happen in registration order, outside
// the solver lock, so host signal handlers may register or deregister.
func (s *SpringSolver) Step(dt float64) error {
	if dt <= 0 {
		return nil
	}

	s.mu.Lock()
	writes := make([]write, 0, len(s.order))
	var settled []animKey
	for _, key := range s.order {
		sim := s.sims[key]
		if sim.step(dt) {
			settled = append(settled, key)
		}
		writes = append(writes, write{ref: sim.ref, property: sim.property, value: sim.position})
	}
	for _, key := range settled {
		s.remove(key)
	}
	s.mu.Unlock()

	var firstErr error
	for _, w := range writes {
		if err := s.host.Set(w.ref, w.property, w.value); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Active returns the number of springs still moving.
func (s *SpringSolver) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sims)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
