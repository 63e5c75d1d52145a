// Package dynamo provides the numerical primitives the reference quadcopter
// simulator is built from:
//
//   - [State]: flat state vector
//   - [System]: continuous-time model (dX/dt = f(X, u, t))
//   - [Integrator]: fixed-step numerical stepper
//
// Nothing in this package knows about rewards or episodes; the task layer
// only sees the simulator through its own narrow interface.
package dynamo
