package rings

import (
	"fmt"
	"math"

	"github.com/san-kum/ringsim/internal/coupling"
	"github.com/san-kum/ringsim/internal/dynamo"
	"github.com/san-kum/ringsim/internal/integrators"
	"github.com/san-kum/ringsim/internal/physics"
	"github.com/san-kum/ringsim/internal/ring"
)

type MechanicalParams struct {
	Mass      float64
	Stiffness float64
	Damping   float64
	Position  float64
	Velocity  float64
}

// Mechanical is a 1D body on a spring with viscous friction. The spring is
// advanced with velocity Verlet; friction is applied afterwards as an exact
// exponential velocity decay, and the kinetic energy it removes is reported
// under coupling.DissipatedKey.
type Mechanical struct {
	id      string
	params  MechanicalParams
	sys     *physics.SpringMass
	integ   *integrators.Verlet
	x       dynamo.State
	lost    float64
	entropy ring.Accumulator
}

func NewMechanical(id string, p MechanicalParams) (*Mechanical, error) {
	if !(p.Mass > 0) {
		return nil, fmt.Errorf("mechanical %q: %w: mass must be positive, got %g", id, dynamo.ErrParameterBounds, p.Mass)
	}
	if p.Stiffness < 0 || p.Damping < 0 {
		return nil, fmt.Errorf("mechanical %q: %w: stiffness and damping must be non-negative", id, dynamo.ErrParameterBounds)
	}
	return &Mechanical{
		id:     id,
		params: p,
		sys: &physics.SpringMass{
			NumMasses: 1,
			Masses:    []float64{p.Mass},
			Stiffness: []float64{p.Stiffness},
			Damping:   []float64{0},
		},
		integ: integrators.NewVerlet(),
		x:     dynamo.State{p.Position, p.Velocity},
	}, nil
}

func (m *Mechanical) ID() string { return m.id }

func (m *Mechanical) Energy() ring.Energy {
	return ring.NewEnergy(m.sys.KineticEnergy(m.x), m.sys.PotentialEnergy(m.x), 0)
}

func (m *Mechanical) Entropy() ring.Entropy {
	return ring.NewEntropy(0, m.entropy.Value())
}

func (m *Mechanical) Kinematics() ring.Kinematics {
	return ring.Kinematics{Position: m.x[0], Velocity: m.x[1], Mass: m.params.Mass}
}

func (m *Mechanical) Step(dt float64, _ ring.Params) float64 {
	before := m.Energy().Total
	m.x = m.integ.Step(m.sys, m.x, nil, 0, dt)

	keBefore := m.sys.KineticEnergy(m.x)
	m.x[1] *= math.Exp(-m.params.Damping / m.params.Mass * dt)
	m.lost = keBefore - m.sys.KineticEnergy(m.x)

	return m.Energy().Total - before
}

// AbsorbEnergy changes the speed, keeping the direction of motion. A body
// at rest is pushed in the positive direction. Kinetic energy cannot drop
// below zero, so large withdrawals are clipped.
func (m *Mechanical) AbsorbEnergy(amount float64) float64 {
	ke := m.sys.KineticEnergy(m.x)
	target := math.Max(ke+amount, 0)
	dir := 1.0
	if m.x[1] < 0 {
		dir = -1.0
	}
	m.x[1] = dir * math.Sqrt(2*target/m.params.Mass)
	return m.sys.KineticEnergy(m.x) - ke
}

func (m *Mechanical) ProduceEntropy(amount float64) error {
	return m.entropy.Produce(amount)
}

func (m *Mechanical) Reset() {
	m.x = dynamo.State{m.params.Position, m.params.Velocity}
	m.lost = 0
	m.entropy.Reset()
}

func (m *Mechanical) Serialize() map[string]float64 {
	e := m.Energy()
	return map[string]float64{
		"position":             m.x[0],
		"velocity":             m.x[1],
		"mass":                 m.params.Mass,
		"kinetic":              e.Kinetic,
		"potential":            e.Potential,
		coupling.DissipatedKey: m.lost,
		"irreversible":         m.entropy.Value(),
	}
}

// CouplingTo offers the friction loss to any target.
func (m *Mechanical) CouplingTo(targetID string) *ring.CouplingData {
	return coupling.Named("friction:"+m.id+"->"+targetID, coupling.Dissipation())
}
