package integrators

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys System, x State, t, dt float64) State {
	dx := sys.Derive(x, t)
	result := make(State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}

// SemiImplicitEuler updates velocities first and moves positions with the
// new velocities, which is what most game physics engines do.
type SemiImplicitEuler struct{}

func NewSemiImplicitEuler() *SemiImplicitEuler {
	return &SemiImplicitEuler{}
}

func (e *SemiImplicitEuler) Step(sys System, x State, t, dt float64) State {
	half := len(x) / 2
	dx := sys.Derive(x, t)
	result := make(State, len(x))
	for i := 0; i < half; i++ {
		result[half+i] = x[half+i] + dt*dx[half+i]
		result[i] = x[i] + dt*result[half+i]
	}
	return result
}
