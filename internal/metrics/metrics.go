package metrics

import "github.com/san-kum/ringsim/internal/kernel"

// Metric folds spin results into a single number.
type Metric interface {
	Name() string
	Observe(res kernel.SpinResult)
	Value() float64
	Reset()
}

// Set fans every spin out to its metrics. It is a kernel.Observer.
type Set []Metric

func Default() Set {
	return Set{
		NewEnergyDrift(),
		NewConservationRate(),
		NewEntropyProduced(),
		NewTransferVolume(),
	}
}

func (s Set) OnSpin(res kernel.SpinResult) {
	for _, m := range s {
		m.Observe(res)
	}
}

func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, m := range s {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s Set) Reset() {
	for _, m := range s {
		m.Reset()
	}
}
