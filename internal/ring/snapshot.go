package ring

import "maps"

// Snapshot is a read-only capture of a ring at one instant.
type Snapshot struct {
	ID         string
	Energy     Energy
	Entropy    Entropy
	Kinematics Kinematics
	State      map[string]float64
}

// Capture queries r once and copies its serialized state.
func Capture(r Ring) Snapshot {
	return Snapshot{
		ID:         r.ID(),
		Energy:     r.Energy(),
		Entropy:    r.Entropy(),
		Kinematics: r.Kinematics(),
		State:      maps.Clone(r.Serialize()),
	}
}

// Value returns State[key], or 0 when the key is absent.
func (s Snapshot) Value(key string) float64 {
	return s.State[key]
}

// TransferFunc computes the energy to deliver to the target for one step.
// It must be pure: same snapshots and dt, same answer.
type TransferFunc func(source, target Snapshot, dt float64) float64

// CouplingData is a ring-advertised default coupling.
type CouplingData struct {
	Name     string
	Transfer TransferFunc
}
