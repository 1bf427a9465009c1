package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/ringsim/internal/dynamo"
)

// Pendulum is a damped simple pendulum; state [theta, omega], u[0] torque.
type Pendulum struct {
	Mass    float64
	Length  float64
	Damping float64
	Gravity float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{
		Mass:    1.0,
		Length:  1.0,
		Damping: 0.1,
		Gravity: 9.81,
	}
}

func (p *Pendulum) StateDim() int {
	return 2
}

func (p *Pendulum) ControlDim() int {
	return 1
}

func (p *Pendulum) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	theta := x[0]
	omega := x[1]

	torque := 0.0
	if len(u) > 0 {
		torque = u[0]
	}
	inertia := p.Mass * p.Length * p.Length
	alpha := (-p.Damping*omega - p.Mass*p.Gravity*p.Length*math.Sin(theta) + torque) / inertia

	return dynamo.State{omega, alpha}
}

func (p *Pendulum) KineticEnergy(x dynamo.State) float64 {
	v := p.Length * x[1]
	return 0.5 * p.Mass * v * v
}

func (p *Pendulum) PotentialEnergy(x dynamo.State) float64 {
	return p.Mass * p.Gravity * p.Length * (1.0 - math.Cos(x[0]))
}

func (p *Pendulum) Energy(x dynamo.State) float64 {
	return p.KineticEnergy(x) + p.PotentialEnergy(x)
}

func (p *Pendulum) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":    p.Mass,
		"length":  p.Length,
		"damping": p.Damping,
		"gravity": p.Gravity,
	}
}

func (p *Pendulum) SetParam(name string, value float64) error {
	switch name {
	case "mass":
		p.Mass = value
	case "length":
		p.Length = value
	case "damping":
		p.Damping = value
	case "gravity":
		p.Gravity = value
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	return nil
}
