// Package physics provides the ODE systems that back the oscillator ring.
//
// Each model implements [dynamo.System] and [dynamo.EnergyPartitioner]:
//
//   - [SpringMass]: a chain of damped masses and springs
//   - [Pendulum]: a damped simple pendulum
//
// Both also implement [dynamo.Configurable] so scenario files can set their
// parameters by name.
package physics
