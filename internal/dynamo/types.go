package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Split returns the position and velocity halves of a second-order state.
func (s State) Split() (pos, vel State) {
	half := len(s) / 2
	return s[:half], s[half:]
}

type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// Hamiltonian systems report their total mechanical energy.
type Hamiltonian interface {
	Energy(x State) float64
}

// EnergyPartitioner splits energy into kinetic and potential parts.
// Systems used behind a ring adapter must implement it.
type EnergyPartitioner interface {
	Hamiltonian
	KineticEnergy(x State) float64
	PotentialEnergy(x State) float64
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// DeriveFunc adapts a bare derivative function of dimension Dim to a System.
type DeriveFunc struct {
	Dim int
	F   func(x State, t float64) State
}

func (d DeriveFunc) Derive(x State, u Control, t float64) State { return d.F(x, t) }
func (d DeriveFunc) StateDim() int                               { return d.Dim }
func (d DeriveFunc) ControlDim() int                             { return 0 }

// EnergyFunc measures a conserved quantity of a plain state vector.
type EnergyFunc func(x State) float64
