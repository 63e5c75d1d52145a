package integrators

import "github.com/san-kum/quadtask/internal/dynamo"

// RK4 is the classic fourth-order Runge-Kutta stepper.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	half := dt * 0.5

	k1 := sys.Derive(x, u, t)
	k2 := sys.Derive(x.Axpy(half, k1), u, t+half)
	k3 := sys.Derive(x.Axpy(half, k2), u, t+half)
	k4 := sys.Derive(x.Axpy(dt, k3), u, t+dt)

	result := make(dynamo.State, len(x))
	dt6 := dt / 6.0
	for i := range x {
		result[i] = x[i] + dt6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}

	return result
}
