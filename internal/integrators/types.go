package integrators

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrUnknownIntegrator indicates an integrator name with no registered stepper.
var ErrUnknownIntegrator = errors.New("integrators: unknown integrator")

// State is a point in phase space. The first half holds positions and the
// second half the matching velocities.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System gives the time derivative of a state: velocities, then
// accelerations.
type System interface {
	Derive(x State, t float64) State
}

type Integrator interface {
	Step(sys System, x State, t, dt float64) State
}

var constructors = map[string]func() Integrator{
	"euler":         func() Integrator { return NewEuler() },
	"semi_implicit": func() Integrator { return NewSemiImplicitEuler() },
	"verlet":        func() Integrator { return NewVerlet() },
	"leapfrog":      func() Integrator { return NewLeapfrog() },
	"rk4":           func() Integrator { return NewRK4() },
}

// ByName returns a fresh integrator. Steppers keep scratch buffers, so each
// body needs its own.
func ByName(name string) (Integrator, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntegrator, name)
	}
	return ctor(), nil
}

func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
