package physics

import (
	"fmt"

	"github.com/san-kum/ringsim/internal/dynamo"
)

const (
	DefaultMass      = 1.0
	DefaultStiffness = 10.0
	DefaultDamping   = 0.5
)

// SpringMass is a chain of masses joined by springs, anchored to a wall on
// the left (and on the right when Stiffness has NumMasses+1 entries).
// State layout: [x_0..x_n-1, v_0..v_n-1]; u[0] is an external force on mass 0.
type SpringMass struct {
	NumMasses int
	Masses    []float64
	Stiffness []float64
	Damping   []float64
}

func NewSpringMass() *SpringMass {
	return &SpringMass{
		NumMasses: 1,
		Masses:    []float64{DefaultMass},
		Stiffness: []float64{DefaultStiffness},
		Damping:   []float64{DefaultDamping},
	}
}

func NewSpringMassChain(n int) *SpringMass {
	masses := make([]float64, n)
	stiffness := make([]float64, n+1)
	damping := make([]float64, n)

	for i := 0; i < n; i++ {
		masses[i] = DefaultMass
		stiffness[i] = DefaultStiffness
		damping[i] = 0.2
	}
	stiffness[n] = DefaultStiffness

	return &SpringMass{
		NumMasses: n,
		Masses:    masses,
		Stiffness: stiffness,
		Damping:   damping,
	}
}

func (s *SpringMass) StateDim() int   { return s.NumMasses * 2 }
func (s *SpringMass) ControlDim() int { return 1 }

func (s *SpringMass) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	n := s.NumMasses
	dx := make(dynamo.State, n*2)

	for i := 0; i < n; i++ {
		dx[i] = x[n+i]
	}

	extForce := 0.0
	if len(u) > 0 {
		extForce = u[0]
	}

	for i := 0; i < n; i++ {
		pos, vel := x[i], x[n+i]

		var forceLeft, forceRight float64
		if i == 0 {
			forceLeft = -s.Stiffness[0] * pos
		} else {
			forceLeft = -s.Stiffness[i] * (pos - x[i-1])
		}

		if i == n-1 {
			if len(s.Stiffness) > n {
				forceRight = -s.Stiffness[n] * pos
			}
		} else {
			forceRight = -s.Stiffness[i+1] * (pos - x[i+1])
		}

		totalForce := forceLeft + forceRight - s.Damping[i]*vel
		if i == 0 {
			totalForce += extForce
		}
		dx[n+i] = totalForce / s.Masses[i]
	}

	return dx
}

func (s *SpringMass) KineticEnergy(x dynamo.State) float64 {
	n := s.NumMasses
	ke := 0.0
	for i := 0; i < n; i++ {
		v := x[n+i]
		ke += 0.5 * s.Masses[i] * v * v
	}
	return ke
}

func (s *SpringMass) PotentialEnergy(x dynamo.State) float64 {
	n := s.NumMasses
	pe := 0.0
	for i := 0; i < n; i++ {
		stretch := x[i]
		if i > 0 {
			stretch -= x[i-1]
		}
		pe += 0.5 * s.Stiffness[i] * stretch * stretch
	}
	if len(s.Stiffness) > n {
		pe += 0.5 * s.Stiffness[n] * x[n-1] * x[n-1]
	}
	return pe
}

func (s *SpringMass) Energy(x dynamo.State) float64 {
	return s.KineticEnergy(x) + s.PotentialEnergy(x)
}

// GetParams exposes the first mass's parameters.
func (s *SpringMass) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":      s.Masses[0],
		"stiffness": s.Stiffness[0],
		"damping":   s.Damping[0],
	}
}

// SetParam applies the value to every mass or spring in the chain.
func (s *SpringMass) SetParam(name string, value float64) error {
	var target []float64
	switch name {
	case "mass":
		if value <= 0 {
			return fmt.Errorf("%w: mass must be positive, got %g", dynamo.ErrParameterBounds, value)
		}
		target = s.Masses
	case "stiffness":
		target = s.Stiffness
	case "damping":
		target = s.Damping
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	for i := range target {
		target[i] = value
	}
	return nil
}
