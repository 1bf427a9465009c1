package integrators

import (
	"math"

	"github.com/san-kum/ringsim/internal/dynamo"
)

// StepReport is the outcome of one diagnosed step.
type StepReport struct {
	State        dynamo.State
	EnergyBefore float64
	EnergyAfter  float64
	Delta        float64
}

// Advance steps x once and reports the local change in energy. A nil
// energy function falls back to the system's own Hamiltonian, if any.
func Advance(integ dynamo.Integrator, dyn dynamo.System, x dynamo.State, t, dt float64, energy dynamo.EnergyFunc) StepReport {
	energy = resolveEnergy(dyn, energy)
	next := integ.Step(dyn, x, nil, t, dt)
	before, after := energy(x), energy(next)
	return StepReport{
		State:        next,
		EnergyBefore: before,
		EnergyAfter:  after,
		Delta:        after - before,
	}
}

// Measurement summarizes how well an integrator kept energy over a run.
// It only observes; nothing is corrected.
type Measurement struct {
	Final         dynamo.State
	Steps         int
	InitialEnergy float64
	FinalEnergy   float64
	Drift         float64
	MaxDrift      float64
	RelativeDrift float64
	Valid         bool
	// Err is set when the run stopped on a non-finite state.
	Err error
}

// Measure runs steps fixed-size steps from x0 and tracks energy drift.
// It stops early when the state stops being finite.
func Measure(integ dynamo.Integrator, dyn dynamo.System, x0 dynamo.State, dt float64, steps int, energy dynamo.EnergyFunc) Measurement {
	energy = resolveEnergy(dyn, energy)
	x := x0.Clone()
	m := Measurement{InitialEnergy: energy(x), Valid: true}

	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, nil, float64(i)*dt, dt)
		if !x.IsValid() {
			m.Valid = false
			m.Err = &dynamo.SimulationError{Step: i + 1, Time: float64(i+1) * dt, State: x, Wrapped: dynamo.ErrInvalidState}
			break
		}
		m.Steps++
		m.MaxDrift = math.Max(m.MaxDrift, math.Abs(energy(x)-m.InitialEnergy))
	}

	m.Final = x
	m.FinalEnergy = energy(x)
	m.Drift = math.Abs(m.FinalEnergy - m.InitialEnergy)
	if m.InitialEnergy != 0 {
		m.RelativeDrift = m.Drift / math.Abs(m.InitialEnergy)
	}
	return m
}

func resolveEnergy(dyn dynamo.System, energy dynamo.EnergyFunc) dynamo.EnergyFunc {
	if energy != nil {
		return energy
	}
	if h, ok := dyn.(dynamo.Hamiltonian); ok {
		return h.Energy
	}
	return func(dynamo.State) float64 { return 0 }
}
