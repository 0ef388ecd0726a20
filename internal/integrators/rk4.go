package integrators

type RK4 struct {
	k       [4]State
	scratch State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(sys System, x State, t, dt float64) State {
	n := len(x)
	if len(r.scratch) != n {
		for i := range r.k {
			r.k[i] = make(State, n)
		}
		r.scratch = make(State, n)
	}

	copy(r.k[0], sys.Derive(x, t))
	r.stage(x, r.k[0], 0.5*dt)
	copy(r.k[1], sys.Derive(r.scratch, t+0.5*dt))
	r.stage(x, r.k[1], 0.5*dt)
	copy(r.k[2], sys.Derive(r.scratch, t+0.5*dt))
	r.stage(x, r.k[2], dt)
	copy(r.k[3], sys.Derive(r.scratch, t+dt))

	result := make(State, n)
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt/6*(r.k[0][i]+2*r.k[1][i]+2*r.k[2][i]+r.k[3][i])
	}
	return result
}

func (r *RK4) stage(x, k State, h float64) {
	for i := range x {
		r.scratch[i] = x[i] + h*k[i]
	}
}
