// Package rings provides reference ring adapters for the kernel:
//
//   - [Mechanical]: a damped body on a spring that reports its friction loss
//   - [Thermal]: a heat reservoir with a temperature; the usual thermal sink
//   - [Oscillator]: any [dynamo.EnergyPartitioner] system advanced by an
//     integrator, optionally driven by another ring's snapshot
//   - [Static]: a ring with fixed energy and no storage concept
//
// Mechanical and Oscillator advertise a dissipation coupling through
// [ring.CouplingSource], so kernel.Couple can wire them to a sink directly.
package rings
