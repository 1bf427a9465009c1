// Package coupling provides reusable transfer functions for kernel couplings.
//
// Every function here delivers energy to the coupling target only. The
// source must already account for the matching loss in its own step, so
// each function documents which source-side quantity it mirrors.
package coupling

import (
	"github.com/san-kum/ringsim/internal/ring"
)

// DissipatedKey is the serialized-state key under which rings report the
// energy they dissipated during their last isolated step.
const DissipatedKey = "dissipated"

// Dissipation delivers exactly what the source reports under DissipatedKey.
// Pairing is exact: the target gains what the source lost, no more.
func Dissipation() ring.TransferFunc {
	return func(source, _ ring.Snapshot, _ float64) float64 {
		return source.Value(DissipatedKey)
	}
}

// ViscousFriction estimates friction power as c·v² from the source's
// kinematic summary. It is a heuristic: it does not see the source's actual
// loss, and the mismatch is left to the kernel's drift correction.
//
// Paired with a body whose own damping is c and whose loss no other
// coupling delivers, the estimate taken on the post-step velocity never
// exceeds the loss: the sink receives the remainder through correction.
func ViscousFriction(c float64) ring.TransferFunc {
	return func(source, _ ring.Snapshot, dt float64) float64 {
		v := source.Kinematics.Velocity
		return c * v * v * dt
	}
}

// Proportional delivers gain·source[key]·dt.
func Proportional(key string, gain float64) ring.TransferFunc {
	return func(source, _ ring.Snapshot, dt float64) float64 {
		return gain * source.Value(key) * dt
	}
}

// Constant delivers a fixed amount every step regardless of dt.
func Constant(amount float64) ring.TransferFunc {
	return func(_, _ ring.Snapshot, _ float64) float64 {
		return amount
	}
}

// Link delivers nothing. Registering it only makes the kernel hand the
// target the source's snapshot before every step.
func Link() ring.TransferFunc {
	return Constant(0)
}

// Named wraps a transfer function as ring-advertised coupling data.
func Named(name string, fn ring.TransferFunc) *ring.CouplingData {
	return &ring.CouplingData{Name: name, Transfer: fn}
}
