package metrics

import (
	"math"

	"github.com/san-kum/ringsim/internal/kernel"
)

// EnergyDrift is the largest post-correction drift seen.
type EnergyDrift struct {
	name     string
	maxDrift float64
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "max_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(res kernel.SpinResult) {
	e.maxDrift = math.Max(e.maxDrift, res.EnergyDrift)
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }
func (e *EnergyDrift) Reset()         { e.maxDrift = 0 }

// EntropyProduced is the irreversible entropy booked over the observed spins.
type EntropyProduced struct {
	name  string
	total float64
}

func NewEntropyProduced() *EntropyProduced {
	return &EntropyProduced{name: "entropy_produced"}
}

func (e *EntropyProduced) Name() string { return e.name }

func (e *EntropyProduced) Observe(res kernel.SpinResult) {
	e.total += res.EntropyProduced
}

func (e *EntropyProduced) Value() float64 { return e.total }
func (e *EntropyProduced) Reset()         { e.total = 0 }
