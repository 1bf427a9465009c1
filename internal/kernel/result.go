package kernel

import "github.com/san-kum/ringsim/internal/ring"

// Phase is the kernel's lifecycle state.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseInitialized
	PhaseStepping
	PhaseFaulted
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseInitialized:
		return "initialized"
	case PhaseStepping:
		return "stepping"
	case PhaseFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// RingState is one ring's part of a SystemState.
type RingState struct {
	ID      string             `json:"id"`
	Energy  ring.Energy        `json:"energy"`
	Entropy ring.Entropy       `json:"entropy"`
	State   map[string]float64 `json:"state"`
}

// SystemState is a full snapshot of the kernel and its rings.
type SystemState struct {
	Time           float64      `json:"time"`
	Phase          string       `json:"phase"`
	Baseline       float64      `json:"baseline"`
	BaselineLocked bool         `json:"baseline_locked"`
	TotalEnergy    float64      `json:"total_energy"`
	Entropy        ring.Entropy `json:"entropy"`
	Rings          []RingState  `json:"rings"`
}

// Ring returns the named ring's state.
func (s SystemState) Ring(id string) (RingState, bool) {
	for _, r := range s.Rings {
		if r.ID == id {
			return r, true
		}
	}
	return RingState{}, false
}

// SpinResult records one accepted spin.
type SpinResult struct {
	Step            int                `json:"step"`
	Dt              float64            `json:"dt"`
	Time            float64            `json:"time"`
	EnergyBefore    float64            `json:"energy_before"`
	EnergyAfter     float64            `json:"energy_after"`
	EnergyDrift     float64            `json:"energy_drift"`
	Correction      float64            `json:"correction"`
	EntropyProduced float64            `json:"entropy_produced"`
	Transfers       map[string]float64 `json:"transfers"`
	Absorbed        map[string]float64 `json:"absorbed"`
	Conserved       bool               `json:"conserved"`
	State           SystemState        `json:"state"`
}
