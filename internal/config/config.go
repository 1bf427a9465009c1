package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/ringsim/internal/kernel"
)

const (
	DefaultDt         = 0.1
	DefaultSteps      = 100
	DefaultIntegrator = "rk4"
)

// Ring kinds understood by the experiment builder.
const (
	KindMechanical = "mechanical"
	KindThermal    = "thermal"
	KindSpring     = "spring"
	KindPendulum   = "pendulum"
	KindStatic     = "static"
)

// Coupling kinds. Auto asks the source ring for its advertised coupling.
const (
	CouplingAuto         = "auto"
	CouplingDissipation  = "dissipation"
	CouplingViscous      = "viscous"
	CouplingProportional = "proportional"
	CouplingConstant     = "constant"
)

var ErrInvalidScenario = errors.New("config: invalid scenario")

// Scenario describes one kernel run: its rings, couplings and clock.
type Scenario struct {
	Name        string             `yaml:"name" validate:"required"`
	Description string             `yaml:"description,omitempty"`
	Dt          float64            `yaml:"dt" validate:"gt=0"`
	Steps       int                `yaml:"steps" validate:"gt=0"`
	Integrator  string             `yaml:"integrator" validate:"omitempty,oneof=euler rk4 verlet leapfrog"`
	Params      map[string]float64 `yaml:"params,omitempty"`
	Kernel      KernelConfig       `yaml:"kernel"`
	Rings       []RingConfig       `yaml:"rings" validate:"required,min=1,unique=ID,dive"`
	Couplings   []CouplingConfig   `yaml:"couplings,omitempty" validate:"dive"`
}

// KernelConfig mirrors kernel.Config; zero fields take the kernel defaults.
type KernelConfig struct {
	Tolerance          float64 `yaml:"tolerance,omitempty" validate:"gte=0"`
	AmbientTemperature float64 `yaml:"ambient_temperature,omitempty" validate:"gte=0"`
	ThermalSink        string  `yaml:"thermal_sink,omitempty"`
	CorrectionPasses   int     `yaml:"correction_passes,omitempty" validate:"gte=0"`
}

type RingConfig struct {
	ID     string             `yaml:"id" validate:"required"`
	Kind   string             `yaml:"kind" validate:"required,oneof=mechanical thermal spring pendulum static"`
	Params map[string]float64 `yaml:"params,omitempty"`
	// State is the initial [positions..., velocities...] of oscillator kinds.
	State []float64    `yaml:"state,omitempty"`
	Drive *DriveConfig `yaml:"drive,omitempty"`
}

// DriveConfig feeds gain·source[key] into an oscillator as external force.
type DriveConfig struct {
	Source string  `yaml:"source" validate:"required"`
	Key    string  `yaml:"key" validate:"required"`
	Gain   float64 `yaml:"gain"`
}

type CouplingConfig struct {
	Name   string             `yaml:"name,omitempty"`
	Source string             `yaml:"source" validate:"required"`
	Target string             `yaml:"target" validate:"required"`
	Kind   string             `yaml:"kind" validate:"required,oneof=auto dissipation viscous proportional constant"`
	Key    string             `yaml:"key,omitempty" validate:"required_if=Kind proportional"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

func DefaultScenario() *Scenario {
	return &Scenario{
		Name:       "custom",
		Dt:         DefaultDt,
		Steps:      DefaultSteps,
		Integrator: DefaultIntegrator,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (s *Scenario) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	return nil
}

// UsesIntegrator reports whether any ring steps through the scenario's
// integrator. Mechanical rings always use their own scheme.
func (s *Scenario) UsesIntegrator() bool {
	for _, rc := range s.Rings {
		if rc.Kind == KindSpring || rc.Kind == KindPendulum {
			return true
		}
	}
	return false
}

// Duration is the simulated time the scenario covers.
func (s *Scenario) Duration() float64 {
	return s.Dt * float64(s.Steps)
}

// Resolve converts the YAML block into a kernel.Config.
func (k KernelConfig) Resolve() kernel.Config {
	cfg := kernel.DefaultConfig()
	if k.Tolerance > 0 {
		cfg.Tolerance = k.Tolerance
	}
	if k.AmbientTemperature > 0 {
		cfg.AmbientTemperature = k.AmbientTemperature
	}
	if k.CorrectionPasses > 0 {
		cfg.CorrectionPasses = k.CorrectionPasses
	}
	cfg.ThermalSinkID = k.ThermalSink
	return cfg
}

func Parse(data []byte) (*Scenario, error) {
	s := DefaultScenario()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Save(path string, s *Scenario) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Param returns params[name], or def when absent.
func Param(params map[string]float64, name string, def float64) float64 {
	if v, ok := params[name]; ok {
		return v
	}
	return def
}
