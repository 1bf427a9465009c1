package config

import "sort"

var presets = map[string]func() *Scenario{
	"friction": func() *Scenario {
		return &Scenario{
			Name:        "friction",
			Description: "damped body on a spring losing its energy to a heat bath",
			Dt:          0.1, Steps: 300, Integrator: "verlet",
			Rings: []RingConfig{
				{ID: "body", Kind: KindMechanical, Params: map[string]float64{"mass": 1, "stiffness": 20, "damping": 2, "position": 1}},
				{ID: "heat", Kind: KindThermal, Params: map[string]float64{"heat_capacity": 10}},
			},
			Couplings: []CouplingConfig{
				{Source: "body", Target: "heat", Kind: CouplingAuto},
			},
		}
	},
	"pendulum": func() *Scenario {
		return &Scenario{
			Name:        "pendulum",
			Description: "damped pendulum warming a small reservoir",
			Dt:          0.01, Steps: 2000, Integrator: "rk4",
			Rings: []RingConfig{
				{ID: "pendulum", Kind: KindPendulum, State: []float64{1.0, 0},
					Params: map[string]float64{"mass": 1, "length": 1, "damping": 0.2, "gravity": 9.81}},
				{ID: "heat", Kind: KindThermal, Params: map[string]float64{"heat_capacity": 1, "temperature": 290}},
			},
			Couplings: []CouplingConfig{
				{Source: "pendulum", Target: "heat", Kind: CouplingAuto},
			},
		}
	},
	"driven": func() *Scenario {
		return &Scenario{
			Name:        "driven",
			Description: "frictionless motor driving a damped spring through snapshot exchange",
			Dt:          0.01, Steps: 1500, Integrator: "rk4",
			Rings: []RingConfig{
				{ID: "motor", Kind: KindMechanical, Params: map[string]float64{"mass": 1, "stiffness": 4, "position": 1}},
				{ID: "spring", Kind: KindSpring, State: []float64{0, 0},
					Params: map[string]float64{"mass": 1, "stiffness": 10, "damping": 0.5},
					Drive:  &DriveConfig{Source: "motor", Key: "position", Gain: 2}},
				{ID: "heat", Kind: KindThermal, Params: map[string]float64{"heat_capacity": 5}},
			},
			Couplings: []CouplingConfig{
				{Source: "spring", Target: "heat", Kind: CouplingAuto},
			},
		}
	},
	"cascade": func() *Scenario {
		return &Scenario{
			Name:        "cascade",
			Description: "two damped bodies heating one reservoir, one exactly and one through a viscous estimate",
			Dt:          0.05, Steps: 600, Integrator: "verlet",
			Kernel:      KernelConfig{ThermalSink: "warm"},
			Rings: []RingConfig{
				{ID: "upper", Kind: KindMechanical, Params: map[string]float64{"mass": 2, "stiffness": 30, "damping": 1, "position": 0.5}},
				{ID: "lower", Kind: KindMechanical, Params: map[string]float64{"mass": 1, "stiffness": 10, "damping": 0.5, "velocity": 1}},
				{ID: "wall", Kind: KindStatic, Params: map[string]float64{"internal": 5}},
				{ID: "warm", Kind: KindThermal, Params: map[string]float64{"heat_capacity": 2}},
			},
			Couplings: []CouplingConfig{
				{Source: "upper", Target: "warm", Kind: CouplingAuto},
				// c matches lower's damping, so the estimate never exceeds its loss.
				{Name: "viscous:lower->warm", Source: "lower", Target: "warm", Kind: CouplingViscous, Params: map[string]float64{"c": 0.5}},
			},
		}
	},
}

// Preset returns a fresh copy of the named scenario.
func Preset(name string) (*Scenario, bool) {
	build, ok := presets[name]
	if !ok {
		return nil, false
	}
	return build(), true
}

func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
