package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/quadtask/internal/dynamo"
)

const (
	DefaultMass         = 0.958
	DefaultGravity      = 9.81
	DefaultAirDensity   = 1.2
	DefaultPropDiameter = 0.1
	DefaultDragCoeff    = 0.3
	DefaultAngDrag      = 0.05

	// Rotors on the airframe. A scalar command drives all of them.
	Rotors = 4

	// State layout: position (3), Euler angles (3), velocity (3), body rates (3).
	StateDim = 12
)

// Quadcopter is a rigid-body quadrotor with identical rotors. Equal rotor
// speeds produce no net torque, so the body rates only decay under
// rotational drag.
type Quadcopter struct {
	Mass, Gravity float64
	AirDensity    float64
	PropDiameter  float64
	DragCoeff     float64
	AngDrag       float64

	// airframe box dimensions, used for drag areas and inertia
	Width, Length, Height float64
	Ixx, Iyy, Izz         float64
}

func NewQuadcopter() *Quadcopter {
	q := &Quadcopter{
		Mass:         DefaultMass,
		Gravity:      DefaultGravity,
		AirDensity:   DefaultAirDensity,
		PropDiameter: DefaultPropDiameter,
		DragCoeff:    DefaultDragCoeff,
		AngDrag:      DefaultAngDrag,
		Width:        0.51,
		Length:       0.51,
		Height:       0.235,
	}
	q.updateInertia()
	return q
}

// box inertia about the body axes
func (q *Quadcopter) updateInertia() {
	q.Ixx = q.Mass / 12 * (q.Height*q.Height + q.Width*q.Width)
	q.Iyy = q.Mass / 12 * (q.Height*q.Height + q.Length*q.Length)
	q.Izz = q.Mass / 12 * (q.Width*q.Width + q.Length*q.Length)
}

func (q *Quadcopter) StateDim() int   { return StateDim }
func (q *Quadcopter) ControlDim() int { return Rotors }

// bodyZ is the world-frame direction of the body z axis for ZYX Euler angles.
func bodyZ(phi, theta, psi float64) (float64, float64, float64) {
	sphi, cphi := math.Sincos(phi)
	sth, cth := math.Sincos(theta)
	spsi, cpsi := math.Sincos(psi)
	return cphi*sth*cpsi + sphi*spsi,
		cphi*sth*spsi - sphi*cpsi,
		cphi * cth
}

// RotorThrust returns the thrust of one rotor spinning at n revolutions per
// second while the airframe climbs at w along its body z axis.
func (q *Quadcopter) RotorThrust(n, w float64) float64 {
	if n <= 0 {
		return 0
	}
	d := q.PropDiameter
	j := math.Max(0, w) / (n * d)
	ct := math.Max(0.12-0.07*j-0.1*j*j, 0)
	return q.AirDensity * n * n * d * d * d * d * ct
}

// Thrust sums the rotor thrusts. A single command is replicated across all
// rotors.
func (q *Quadcopter) Thrust(u dynamo.Control, w float64) float64 {
	if len(u) == 1 {
		return Rotors * q.RotorThrust(u[0], w)
	}
	total := 0.0
	for _, n := range u {
		total += q.RotorThrust(n, w)
	}
	return total
}

func (q *Quadcopter) drag(v, area float64) float64 {
	return 0.5 * q.AirDensity * v * math.Abs(v) * q.DragCoeff * area
}

func (q *Quadcopter) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	phi, theta, psi := x[3], x[4], x[5]
	vx, vy, vz := x[6], x[7], x[8]
	p, r, s := x[9], x[10], x[11]

	zx, zy, zz := bodyZ(phi, theta, psi)
	w := zx*vx + zy*vy + zz*vz
	thrust := q.Thrust(u, w)

	ax := (thrust*zx - q.drag(vx, q.Length*q.Height)) / q.Mass
	ay := (thrust*zy - q.drag(vy, q.Width*q.Height)) / q.Mass
	az := (thrust*zz-q.drag(vz, q.Width*q.Length))/q.Mass - q.Gravity

	return dynamo.State{
		vx, vy, vz,
		p, r, s,
		ax, ay, az,
		-q.AngDrag * p / q.Ixx,
		-q.AngDrag * r / q.Iyy,
		-q.AngDrag * s / q.Izz,
	}
}

// HoverSpeed solves for the rotor speed whose thrust balances gravity at
// rest, by bisection over [0, 2000].
func (q *Quadcopter) HoverSpeed() float64 {
	weight := q.Mass * q.Gravity
	lo, hi := 0.0, 2000.0
	for i := 0; i < 60; i++ {
		mid := (lo + hi) / 2
		if Rotors*q.RotorThrust(mid, 0) < weight {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

func (q *Quadcopter) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":          q.Mass,
		"gravity":       q.Gravity,
		"air_density":   q.AirDensity,
		"prop_diameter": q.PropDiameter,
		"drag":          q.DragCoeff,
		"ang_drag":      q.AngDrag,
	}
}

func (q *Quadcopter) SetParam(name string, value float64) error {
	switch name {
	case "mass":
		q.Mass = value
		q.updateInertia()
	case "gravity":
		q.Gravity = value
	case "air_density":
		q.AirDensity = value
	case "prop_diameter":
		q.PropDiameter = value
	case "drag":
		q.DragCoeff = value
	case "ang_drag":
		q.AngDrag = value
	default:
		return fmt.Errorf("%w: unknown param %q", ErrInvalidParam, name)
	}
	return nil
}
