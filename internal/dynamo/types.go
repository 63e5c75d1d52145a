package dynamo

import "math"

// State is a flat vector of simulator state variables.
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

// Axpy returns s + h*dx as a new state. Components of dx beyond len(s) are
// ignored.
func (s State) Axpy(h float64, dx State) State {
	out := make(State, len(s))
	for i := range s {
		out[i] = s[i]
		if i < len(dx) {
			out[i] += h * dx[i]
		}
	}
	return out
}

// Control holds actuator commands, one per actuator.
type Control []float64

// System is a continuous-time model dX/dt = f(X, u, t).
type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// Integrator advances a System by one fixed step.
type Integrator interface {
	Step(sys System, x State, u Control, t, dt float64) State
}
