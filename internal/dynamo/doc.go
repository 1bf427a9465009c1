// Package dynamo provides the numeric primitives shared by the integrators
// and the ODE-backed ring adapters.
//
//   - [State]: plain numeric state vector
//   - [System]: ODE interface (dX/dt = f(X, u, t))
//   - [DeriveFunc]: adapts a bare derivative function to a [System]
//   - [Integrator]: one-step numerical scheme
//   - [Hamiltonian], [EnergyPartitioner]: energy queries on a state
//
// # Example
//
//	fall := dynamo.DeriveFunc{Dim: 2, F: func(x dynamo.State, t float64) dynamo.State {
//	    return dynamo.State{x[1], -9.8}
//	}}
//	x := integrators.NewRK4().Step(fall, dynamo.State{10, 0}, nil, 0, 0.1)
//
// Nothing in this package is safe for concurrent use; integrators keep
// scratch buffers between calls.
package dynamo
