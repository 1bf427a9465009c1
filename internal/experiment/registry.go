package experiment

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/ringsim/internal/config"
	"github.com/san-kum/ringsim/internal/coupling"
	"github.com/san-kum/ringsim/internal/dynamo"
	"github.com/san-kum/ringsim/internal/integrators"
	"github.com/san-kum/ringsim/internal/physics"
	"github.com/san-kum/ringsim/internal/ring"
	"github.com/san-kum/ringsim/internal/rings"
)

var (
	ErrUnknownKind       = errors.New("experiment: unknown kind")
	ErrUnknownIntegrator = errors.New("experiment: unknown integrator")
)

// RingFactory builds a ring from its scenario entry. integ is the
// scenario-wide integrator for kinds that use one.
type RingFactory func(rc config.RingConfig, integ dynamo.Integrator) (ring.Ring, error)

// TransferFactory builds the transfer function of an explicit coupling.
type TransferFactory func(cc config.CouplingConfig) (ring.TransferFunc, error)

type Registry struct {
	rings       map[string]RingFactory
	integrators map[string]func() dynamo.Integrator
	transfers   map[string]TransferFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		rings:       make(map[string]RingFactory),
		integrators: make(map[string]func() dynamo.Integrator),
		transfers:   make(map[string]TransferFactory),
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["verlet"] = func() dynamo.Integrator { return integrators.NewVerlet() }
	r.integrators["leapfrog"] = func() dynamo.Integrator { return integrators.NewLeapfrog() }

	r.rings[config.KindMechanical] = func(rc config.RingConfig, _ dynamo.Integrator) (ring.Ring, error) {
		return rings.NewMechanical(rc.ID, rings.MechanicalParams{
			Mass:      config.Param(rc.Params, "mass", physics.DefaultMass),
			Stiffness: config.Param(rc.Params, "stiffness", 0),
			Damping:   config.Param(rc.Params, "damping", 0),
			Position:  config.Param(rc.Params, "position", 0),
			Velocity:  config.Param(rc.Params, "velocity", 0),
		})
	}
	r.rings[config.KindThermal] = func(rc config.RingConfig, _ dynamo.Integrator) (ring.Ring, error) {
		return rings.NewThermal(rc.ID, rings.ThermalParams{
			HeatCapacity:         config.Param(rc.Params, "heat_capacity", 0),
			Temperature:          config.Param(rc.Params, "temperature", 0),
			ReferenceTemperature: config.Param(rc.Params, "reference_temperature", 0),
			MinTemperature:       config.Param(rc.Params, "min_temperature", 0),
		})
	}
	r.rings[config.KindStatic] = func(rc config.RingConfig, _ dynamo.Integrator) (ring.Ring, error) {
		return rings.NewStatic(rc.ID,
			config.Param(rc.Params, "kinetic", 0),
			config.Param(rc.Params, "potential", 0),
			config.Param(rc.Params, "internal", 0)), nil
	}
	r.rings[config.KindSpring] = func(rc config.RingConfig, integ dynamo.Integrator) (ring.Ring, error) {
		sys := physics.NewSpringMass()
		return newOscillator(rc, sys, integ)
	}
	r.rings[config.KindPendulum] = func(rc config.RingConfig, integ dynamo.Integrator) (ring.Ring, error) {
		return newOscillator(rc, physics.NewPendulum(), integ)
	}

	r.transfers[config.CouplingDissipation] = func(config.CouplingConfig) (ring.TransferFunc, error) {
		return coupling.Dissipation(), nil
	}
	r.transfers[config.CouplingViscous] = func(cc config.CouplingConfig) (ring.TransferFunc, error) {
		return coupling.ViscousFriction(config.Param(cc.Params, "c", 0)), nil
	}
	r.transfers[config.CouplingProportional] = func(cc config.CouplingConfig) (ring.TransferFunc, error) {
		return coupling.Proportional(cc.Key, config.Param(cc.Params, "gain", 1)), nil
	}
	r.transfers[config.CouplingConstant] = func(cc config.CouplingConfig) (ring.TransferFunc, error) {
		return coupling.Constant(config.Param(cc.Params, "amount", 0)), nil
	}

	return r
}

// newOscillator applies the ring's params to the system and wraps it.
func newOscillator(rc config.RingConfig, sys interface {
	dynamo.System
	dynamo.Configurable
}, integ dynamo.Integrator) (ring.Ring, error) {
	names := make([]string, 0, len(rc.Params))
	for name := range rc.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := sys.SetParam(name, rc.Params[name]); err != nil {
			return nil, fmt.Errorf("ring %q: %w", rc.ID, err)
		}
	}

	x0 := dynamo.State(rc.State)
	if len(x0) == 0 {
		x0 = make(dynamo.State, sys.StateDim())
	}

	opts := []rings.OscillatorOption{rings.WithIntegrator(integ)}
	if d := rc.Drive; d != nil {
		opts = append(opts, rings.WithDrive(d.Source, d.Key, d.Gain))
	}
	return rings.NewOscillator(rc.ID, sys, x0, opts...)
}

func (r *Registry) RegisterRing(kind string, f RingFactory) {
	r.rings[kind] = f
}

func (r *Registry) RegisterTransfer(kind string, f TransferFactory) {
	r.transfers[kind] = f
}

func (r *Registry) Ring(rc config.RingConfig, integ dynamo.Integrator) (ring.Ring, error) {
	fn, ok := r.rings[rc.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: ring %q has kind %q", ErrUnknownKind, rc.ID, rc.Kind)
	}
	return fn(rc, integ)
}

func (r *Registry) Integrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIntegrator, name)
	}
	return fn(), nil
}

func (r *Registry) Transfer(cc config.CouplingConfig) (ring.TransferFunc, error) {
	fn, ok := r.transfers[cc.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: coupling %s->%s has kind %q", ErrUnknownKind, cc.Source, cc.Target, cc.Kind)
	}
	return fn(cc)
}

func (r *Registry) ListRingKinds() []string {
	return sortedKeys(r.rings)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
