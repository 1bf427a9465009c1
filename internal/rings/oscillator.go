package rings

import (
	"fmt"
	"math"

	"github.com/san-kum/ringsim/internal/coupling"
	"github.com/san-kum/ringsim/internal/dynamo"
	"github.com/san-kum/ringsim/internal/integrators"
	"github.com/san-kum/ringsim/internal/ring"
)

// ForceParam is the per-spin parameter added to the oscillator's control.
const ForceParam = "force"

// Oscillator adapts any dynamo.System that can split its energy into a ring.
// State is laid out as [positions..., velocities...]. The net energy lost
// over a step is reported under coupling.DissipatedKey.
type Oscillator struct {
	id    string
	sys   dynamo.System
	parts dynamo.EnergyPartitioner
	integ dynamo.Integrator

	x0 dynamo.State
	x  dynamo.State
	t  float64

	driveFrom string
	driveKey  string
	driveGain float64
	drive     float64

	lost    float64
	entropy ring.Accumulator
}

type OscillatorOption func(*Oscillator)

// WithIntegrator replaces the default RK4 integrator.
func WithIntegrator(integ dynamo.Integrator) OscillatorOption {
	return func(o *Oscillator) {
		if integ != nil {
			o.integ = integ
		}
	}
}

// WithDrive makes the oscillator accept sourceID's snapshot and apply
// gain·snapshot[key] as an external force during its next step.
func WithDrive(sourceID, key string, gain float64) OscillatorOption {
	return func(o *Oscillator) {
		o.driveFrom = sourceID
		o.driveKey = key
		o.driveGain = gain
	}
}

func NewOscillator(id string, sys dynamo.System, x0 dynamo.State, opts ...OscillatorOption) (*Oscillator, error) {
	parts, ok := sys.(dynamo.EnergyPartitioner)
	if !ok {
		return nil, fmt.Errorf("oscillator %q: system %T does not partition its energy", id, sys)
	}
	if len(x0) != sys.StateDim() {
		return nil, fmt.Errorf("oscillator %q: %w: state has %d components, system wants %d",
			id, dynamo.ErrDimensionMismatch, len(x0), sys.StateDim())
	}
	if !x0.IsValid() {
		return nil, fmt.Errorf("oscillator %q: %w", id, dynamo.ErrInvalidState)
	}

	o := &Oscillator{
		id:    id,
		sys:   sys,
		parts: parts,
		integ: integrators.NewRK4(),
		x0:    x0.Clone(),
		x:     x0.Clone(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

func (o *Oscillator) ID() string { return o.id }

func (o *Oscillator) State() dynamo.State { return o.x.Clone() }

func (o *Oscillator) Energy() ring.Energy {
	return ring.NewEnergy(o.parts.KineticEnergy(o.x), o.parts.PotentialEnergy(o.x), 0)
}

func (o *Oscillator) Entropy() ring.Entropy {
	return ring.NewEntropy(0, o.entropy.Value())
}

func (o *Oscillator) mass() float64 {
	if c, ok := o.sys.(dynamo.Configurable); ok {
		if m, ok := c.GetParams()["mass"]; ok && m > 0 {
			return m
		}
	}
	return 1
}

func (o *Oscillator) Kinematics() ring.Kinematics {
	pos, vel := o.x.Split()
	k := ring.Kinematics{Mass: o.mass()}
	if len(pos) > 0 {
		k.Position = pos[0]
	}
	if len(vel) > 0 {
		k.Velocity = vel[0]
	}
	return k
}

func (o *Oscillator) Step(dt float64, params ring.Params) float64 {
	e0 := o.parts.Energy(o.x)

	var u dynamo.Control
	if force := o.drive + params[ForceParam]; force != 0 {
		u = dynamo.Control{force}
	}
	o.x = o.integ.Step(o.sys, o.x, u, o.t, dt)
	o.t += dt
	o.drive = 0

	e1 := o.parts.Energy(o.x)
	o.lost = e0 - e1
	return e1 - e0
}

// ReceiveCouplingData records the drive force for the next step. Data from
// rings other than the configured drive source is ignored.
func (o *Oscillator) ReceiveCouplingData(sourceID string, data map[string]float64) {
	if o.driveFrom == "" || sourceID != o.driveFrom {
		return
	}
	o.drive = o.driveGain * data[o.driveKey]
}

// AbsorbEnergy rescales all velocities. An oscillator at rest has no
// direction to push in, so it rejects the transfer.
func (o *Oscillator) AbsorbEnergy(amount float64) float64 {
	ke := o.parts.KineticEnergy(o.x)
	if ke == 0 {
		return 0
	}
	scale := math.Sqrt(math.Max(ke+amount, 0) / ke)
	half := len(o.x) / 2
	for i := half; i < 2*half; i++ {
		o.x[i] *= scale
	}
	return o.parts.KineticEnergy(o.x) - ke
}

func (o *Oscillator) ProduceEntropy(amount float64) error {
	return o.entropy.Produce(amount)
}

func (o *Oscillator) Reset() {
	o.x = o.x0.Clone()
	o.t = 0
	o.drive = 0
	o.lost = 0
	o.entropy.Reset()
}

func (o *Oscillator) Serialize() map[string]float64 {
	e := o.Energy()
	k := o.Kinematics()
	return map[string]float64{
		"position":             k.Position,
		"velocity":             k.Velocity,
		"mass":                 k.Mass,
		"kinetic":              e.Kinetic,
		"potential":            e.Potential,
		"drive":                o.drive,
		coupling.DissipatedKey: o.lost,
		"irreversible":         o.entropy.Value(),
	}
}

func (o *Oscillator) CouplingTo(targetID string) *ring.CouplingData {
	return coupling.Named("damping:"+o.id+"->"+targetID, coupling.Dissipation())
}
