package metrics

import "github.com/san-kum/ringsim/internal/kernel"

// ConservationRate is the fraction of spins that ended within tolerance.
type ConservationRate struct {
	name       string
	violations int
	samples    int
}

func NewConservationRate() *ConservationRate {
	return &ConservationRate{name: "conservation_rate"}
}

func (c *ConservationRate) Name() string {
	return c.name
}

func (c *ConservationRate) Observe(res kernel.SpinResult) {
	c.samples++
	if !res.Conserved {
		c.violations++
	}
}

func (c *ConservationRate) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *ConservationRate) Reset() {
	c.violations = 0
	c.samples = 0
}
