package rings

import (
	"fmt"
	"math"

	"github.com/san-kum/ringsim/internal/dynamo"
	"github.com/san-kum/ringsim/internal/ring"
)

const (
	DefaultTemperature    = 300.0
	DefaultMinTemperature = 1e-3
)

type ThermalParams struct {
	HeatCapacity float64
	Temperature  float64
	// ReferenceTemperature is where internal energy reads zero. Zero means
	// the initial temperature.
	ReferenceTemperature float64
	MinTemperature       float64
}

// Thermal is an adiabatic heat reservoir with constant heat capacity. Its
// internal energy is C·(T − T_ref) and its thermal entropy C·ln(T/T_ref).
// Internal energy is the stored quantity so absorption is exact.
type Thermal struct {
	id       string
	params   ThermalParams
	internal float64
	initial  float64
	entropy  ring.Accumulator
}

func NewThermal(id string, p ThermalParams) (*Thermal, error) {
	if !(p.HeatCapacity > 0) {
		return nil, fmt.Errorf("thermal %q: %w: heat capacity must be positive, got %g", id, dynamo.ErrParameterBounds, p.HeatCapacity)
	}
	if p.Temperature == 0 {
		p.Temperature = DefaultTemperature
	}
	if p.ReferenceTemperature == 0 {
		p.ReferenceTemperature = p.Temperature
	}
	if p.MinTemperature == 0 {
		p.MinTemperature = DefaultMinTemperature
	}
	if p.Temperature < p.MinTemperature || p.ReferenceTemperature <= 0 {
		return nil, fmt.Errorf("thermal %q: %w: temperatures must be positive", id, dynamo.ErrParameterBounds)
	}

	u := p.HeatCapacity * (p.Temperature - p.ReferenceTemperature)
	return &Thermal{id: id, params: p, internal: u, initial: u}, nil
}

func (t *Thermal) ID() string { return t.id }

func (t *Thermal) Temperature() float64 {
	return t.params.ReferenceTemperature + t.internal/t.params.HeatCapacity
}

func (t *Thermal) Energy() ring.Energy {
	return ring.NewEnergy(0, 0, t.internal)
}

func (t *Thermal) Entropy() ring.Entropy {
	s := t.params.HeatCapacity * math.Log(t.Temperature()/t.params.ReferenceTemperature)
	return ring.NewEntropy(s, t.entropy.Value())
}

func (t *Thermal) Kinematics() ring.Kinematics {
	return ring.Kinematics{}
}

// Step is a no-op: the reservoir is closed and only changes through
// absorption.
func (t *Thermal) Step(float64, ring.Params) float64 {
	return 0
}

// AbsorbEnergy clips withdrawals at MinTemperature.
func (t *Thermal) AbsorbEnergy(amount float64) float64 {
	floor := t.params.HeatCapacity * (t.params.MinTemperature - t.params.ReferenceTemperature)
	target := t.internal + amount
	if target < floor {
		target = floor
	}
	got := target - t.internal
	t.internal = target
	return got
}

func (t *Thermal) ProduceEntropy(amount float64) error {
	return t.entropy.Produce(amount)
}

func (t *Thermal) Reset() {
	t.internal = t.initial
	t.entropy.Reset()
}

func (t *Thermal) Serialize() map[string]float64 {
	return map[string]float64{
		"temperature":   t.Temperature(),
		"internal":      t.internal,
		"heat_capacity": t.params.HeatCapacity,
		"irreversible":  t.entropy.Value(),
	}
}
