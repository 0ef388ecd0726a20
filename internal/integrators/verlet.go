package integrators

// Verlet is velocity Verlet: positions advance with the current
// acceleration, velocities with the average of the old and new ones.
type Verlet struct {
	scratch State
}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(sys System, x State, t, dt float64) State {
	n := len(x)
	half := n / 2
	if len(v.scratch) != n {
		v.scratch = make(State, n)
	}

	a0 := sys.Derive(x, t)
	result := make(State, n)
	for i := 0; i < half; i++ {
		result[i] = x[i] + x[half+i]*dt + 0.5*a0[half+i]*dt*dt
		v.scratch[i] = result[i]
		v.scratch[half+i] = x[half+i]
	}

	a1 := sys.Derive(v.scratch, t+dt)
	for i := 0; i < half; i++ {
		result[half+i] = x[half+i] + 0.5*(a0[half+i]+a1[half+i])*dt
	}
	return result
}

// Leapfrog is the kick-drift-kick form.
type Leapfrog struct {
	scratch State
}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Step(sys System, x State, t, dt float64) State {
	n := len(x)
	half := n / 2
	if len(l.scratch) != n {
		l.scratch = make(State, n)
	}

	kick := sys.Derive(x, t)
	result := make(State, n)
	for i := 0; i < half; i++ {
		vHalf := x[half+i] + 0.5*dt*kick[half+i]
		result[i] = x[i] + dt*vHalf
		l.scratch[i] = result[i]
		l.scratch[half+i] = vHalf
	}

	kick = sys.Derive(l.scratch, t+dt)
	for i := 0; i < half; i++ {
		result[half+i] = l.scratch[half+i] + 0.5*dt*kick[half+i]
	}
	return result
}
