package physics

import (
	"errors"

	"github.com/san-kum/quadtask/internal/dynamo"
)

const (
	// DefaultDt is the fixed simulation increment (50 Hz).
	DefaultDt = 1.0 / 50.0

	// DefaultRuntime is the episode time limit.
	DefaultRuntime = 5.0
)

var ErrInvalidParam = errors.New("physics: invalid parameter")

// DefaultInitPose hovers at the default target height.
var DefaultInitPose = [6]float64{0, 0, 10, 0, 0, 0}

var (
	DefaultLowerBounds = [3]float64{-150, -150, 0}
	DefaultUpperBounds = [3]float64{150, 150, 300}
)

// InitialConditions seeds every episode. Nil slices take the defaults:
// DefaultInitPose and zero velocities.
type InitialConditions struct {
	Pose            []float64
	Velocity        []float64
	AngularVelocity []float64
}

// Sim is the reference quadcopter simulator. It advances a fixed dt per
// call and reports termination on the time limit or when the airframe
// leaves its bounding box.
type Sim struct {
	model   *Quadcopter
	integ   dynamo.Integrator
	dt      float64
	runtime float64
	lower   [3]float64
	upper   [3]float64

	init dynamo.State
	x    dynamo.State
	time float64
	step int
	err  error
}

func NewSim(model *Quadcopter, integ dynamo.Integrator, ic InitialConditions, runtime float64) *Sim {
	if runtime <= 0 {
		runtime = DefaultRuntime
	}

	init := make(dynamo.State, StateDim)
	copy(init[0:6], DefaultInitPose[:])
	if ic.Pose != nil {
		copy(init[0:6], ic.Pose[:6])
	}
	if ic.Velocity != nil {
		copy(init[6:9], ic.Velocity[:3])
	}
	if ic.AngularVelocity != nil {
		copy(init[9:12], ic.AngularVelocity[:3])
	}

	s := &Sim{
		model:   model,
		integ:   integ,
		dt:      DefaultDt,
		runtime: runtime,
		lower:   DefaultLowerBounds,
		upper:   DefaultUpperBounds,
		init:    init,
	}
	s.Reset()
	return s
}

// SetDt overrides the integration step. Non-positive values are ignored.
func (s *Sim) SetDt(dt float64) {
	if dt > 0 {
		s.dt = dt
	}
}

func (s *Sim) Reset() {
	s.x = s.init.Clone()
	s.time = 0
	s.step = 0
	s.err = nil
}

// NextTimestep applies the rotor speed to every rotor for one dt and
// reports whether the episode is over.
func (s *Sim) NextTimestep(rotorSpeed float64) bool {
	u := make(dynamo.Control, Rotors)
	for i := range u {
		u[i] = rotorSpeed
	}

	next := s.integ.Step(s.model, s.x, u, s.time, s.dt)
	s.time += s.dt
	s.step++

	if !next.IsValid() {
		s.err = &dynamo.SimulationError{Step: s.step, Time: s.time, Wrapped: dynamo.ErrInvalidState}
		return true
	}
	s.x = next

	done := false
	for i := 0; i < 3; i++ {
		if s.x[i] < s.lower[i] {
			s.x[i] = s.lower[i]
			done = true
		} else if s.x[i] > s.upper[i] {
			s.x[i] = s.upper[i]
			done = true
		}
	}

	if s.time > s.runtime {
		done = true
	}
	return done
}

func (s *Sim) Pose() []float64 {
	p := make([]float64, 6)
	copy(p, s.x[0:6])
	return p
}

func (s *Sim) Velocity() []float64 {
	v := make([]float64, 3)
	copy(v, s.x[6:9])
	return v
}

func (s *Sim) AngularVelocity() []float64 {
	w := make([]float64, 3)
	copy(w, s.x[9:12])
	return w
}

// NudgeAltitude shifts the vertical position in place.
func (s *Sim) NudgeAltitude(delta float64) {
	s.x[2] += delta
}

func (s *Sim) Time() float64    { return s.time }
func (s *Sim) Runtime() float64 { return s.runtime }

// Err reports a numerical failure in the last episode, if any.
func (s *Sim) Err() error { return s.err }
