// Package kernel coordinates a fixed set of rings through one shared clock
// while enforcing global energy conservation and entropy monotonicity.
//
// A client registers rings and couplings, optionally calls [Kernel.Initialize]
// to lock the energy baseline, then calls [Kernel.Spin] repeatedly. Each spin
// runs a strictly ordered pipeline:
//
//  1. snapshot exchange: coupling targets that implement
//     [ring.CouplingReceiver] receive their source's serialized state
//  2. isolated steps, in registration order, each followed by a finiteness check
//  3. couplings, in registration order, applied to the target only
//  4. entropy accounting for every positive transfer, at the sink temperature
//  5. drift correction into the thermal sink
//  6. clock advance and [SpinResult]
//
// Conservation shortfalls are reported through [SpinResult.Conserved] and
// [SpinResult.EnergyDrift]; they are never returned as errors. Registration
// mistakes and numerical corruption are.
//
// # Example
//
//	k, _ := kernel.New(kernel.DefaultConfig(), kernel.WithLogger(logger))
//	body, _ := rings.NewMechanical("body", rings.MechanicalParams{Mass: 1, Stiffness: 20, Damping: 2, Position: 1})
//	heat, _ := rings.NewThermal("heat", rings.ThermalParams{HeatCapacity: 10})
//	_ = k.RegisterRing(body)
//	_ = k.RegisterRing(heat)
//	k.Couple("body", "heat")
//	res, err := k.Spin(0.1, nil)
//
// # Thread Safety
//
// A Kernel is NOT safe for concurrent use, and a ring must never be
// registered with two kernels that spin concurrently.
package kernel
