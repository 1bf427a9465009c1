package rings

import "github.com/san-kum/ringsim/internal/ring"

// Static holds a fixed energy and has no storage concept: it never steps
// and rejects every absorption.
type Static struct {
	id      string
	energy  ring.Energy
	entropy ring.Accumulator
}

func NewStatic(id string, kinetic, potential, internal float64) *Static {
	return &Static{id: id, energy: ring.NewEnergy(kinetic, potential, internal)}
}

func (s *Static) ID() string                        { return s.id }
func (s *Static) Energy() ring.Energy               { return s.energy }
func (s *Static) Entropy() ring.Entropy             { return ring.NewEntropy(0, s.entropy.Value()) }
func (s *Static) Kinematics() ring.Kinematics       { return ring.Kinematics{} }
func (s *Static) Step(float64, ring.Params) float64 { return 0 }
func (s *Static) AbsorbEnergy(float64) float64      { return 0 }
func (s *Static) ProduceEntropy(amount float64) error {
	return s.entropy.Produce(amount)
}
func (s *Static) Reset() { s.entropy.Reset() }

func (s *Static) Serialize() map[string]float64 {
	return map[string]float64{"energy": s.energy.Total}
}
