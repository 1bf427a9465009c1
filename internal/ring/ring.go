// Package ring defines the capability contract every physics-domain module
// implements to take part in a kernel run.
//
// A ring owns its state exclusively. After registration it is mutated only
// through kernel-issued calls: [Ring.Step], [Ring.AbsorbEnergy],
// [Ring.ProduceEntropy] and [Ring.Reset]. Optional capabilities are separate
// interfaces discovered by type assertion:
//
//   - [CouplingSource]: advertises a default coupling to another ring
//   - [CouplingReceiver]: accepts another ring's pre-step snapshot
//   - [Thermal]: reports a temperature, qualifying the ring as a heat sink
package ring

import (
	"errors"
	"fmt"
	"math"
)

// ErrNegativeEntropy is returned by ProduceEntropy for negative or NaN input.
// It signals a programming error in the caller, never a physical state.
var ErrNegativeEntropy = errors.New("ring: entropy production must be non-negative")

// Params are free-form per-spin parameters passed through to every ring.
type Params map[string]float64

// Energy is a ring's energy decomposition. Total is always the sum of the
// other three; build values with NewEnergy.
type Energy struct {
	Kinetic   float64 `json:"kinetic"`
	Potential float64 `json:"potential"`
	Internal  float64 `json:"internal"`
	Total     float64 `json:"total"`
}

func NewEnergy(kinetic, potential, internal float64) Energy {
	return Energy{
		Kinetic:   kinetic,
		Potential: potential,
		Internal:  internal,
		Total:     kinetic + potential + internal,
	}
}

// IsFinite reports whether every component is a finite number.
func (e Energy) IsFinite() bool {
	for _, v := range [...]float64{e.Kinetic, e.Potential, e.Internal, e.Total} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Entropy is a ring's entropy signature. Irreversible reflects only the
// ring's own accumulator.
type Entropy struct {
	Thermal      float64 `json:"thermal"`
	Irreversible float64 `json:"irreversible"`
	Total        float64 `json:"total"`
}

func NewEntropy(thermal, irreversible float64) Entropy {
	return Entropy{Thermal: thermal, Irreversible: irreversible, Total: thermal + irreversible}
}

// Kinematics is a domain-defined summary used only by heuristic couplings.
type Kinematics struct {
	Position float64 `json:"position"`
	Velocity float64 `json:"velocity"`
	Mass     float64 `json:"mass"`
}

type Ring interface {
	ID() string
	Energy() Energy
	Entropy() Entropy
	Kinematics() Kinematics

	// Step advances the ring's own physics for dt in isolation and returns
	// the resulting energy delta, for diagnostics only.
	Step(dt float64, params Params) float64

	// AbsorbEnergy applies an external energy delta (positive is a gain) and
	// returns the amount actually applied. Rings may reject or clip.
	AbsorbEnergy(amount float64) float64

	// ProduceEntropy adds to the irreversible accumulator.
	ProduceEntropy(amount float64) error

	// Reset restores the construction-time snapshot.
	Reset()

	// Serialize returns a flat numeric view of the ring's state.
	Serialize() map[string]float64
}

type CouplingSource interface {
	// CouplingTo returns the ring's default coupling towards targetID, or nil.
	CouplingTo(targetID string) *CouplingData
}

type CouplingReceiver interface {
	ReceiveCouplingData(sourceID string, data map[string]float64)
}

type Thermal interface {
	Temperature() float64
}

// Accumulator is the monotone irreversible-entropy counter rings embed.
type Accumulator struct {
	total float64
}

func (a *Accumulator) Produce(amount float64) error {
	if amount < 0 || math.IsNaN(amount) {
		return fmt.Errorf("%w: got %g", ErrNegativeEntropy, amount)
	}
	a.total += amount
	return nil
}

func (a *Accumulator) Value() float64 { return a.total }
func (a *Accumulator) Reset()         { a.total = 0 }
