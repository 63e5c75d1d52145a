// Package physics provides the reference quadcopter simulator used to run
// hover episodes.
//
// [Quadcopter] implements [dynamo.System]: a rigid body with four identical
// rotors, quadratic drag and gravity. [Sim] wraps it with a fixed-step
// integrator, per-episode initial conditions, a time limit and a bounding
// box, exposing the narrow surface the task layer needs:
//
//	sim := physics.NewSim(physics.NewQuadcopter(), integrators.NewRK4(), physics.InitialConditions{}, 5)
//	for done := false; !done; {
//	    done = sim.NextTimestep(404)
//	}
//
// Sim is not safe for concurrent use.
package physics
