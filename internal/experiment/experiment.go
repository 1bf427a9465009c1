package experiment

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/ringsim/internal/config"
	"github.com/san-kum/ringsim/internal/coupling"
	"github.com/san-kum/ringsim/internal/kernel"
	"github.com/san-kum/ringsim/internal/metrics"
)

var (
	// ErrUncoupled is returned when an auto coupling finds nothing to wire.
	ErrUncoupled = errors.New("experiment: auto coupling was not registered")
	// ErrUnknownDriveSource is returned when a drive names a ring the
	// scenario does not declare.
	ErrUnknownDriveSource = errors.New("experiment: unknown drive source")
)

// Result is a finished (or interrupted) run.
type Result struct {
	Scenario string
	Spins    []kernel.SpinResult
	Metrics  map[string]float64
	Final    kernel.SystemState
}

// Conserved reports whether every spin stayed within tolerance.
func (r *Result) Conserved() bool {
	for _, s := range r.Spins {
		if !s.Conserved {
			return false
		}
	}
	return true
}

type Experiment struct {
	scenario *config.Scenario
	kernel   *kernel.Kernel
	metrics  metrics.Set
	log      *zap.Logger
}

type Option func(*options)

type options struct {
	registry  *Registry
	log       *zap.Logger
	observers []kernel.Observer
}

func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

func WithObserver(obs kernel.Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs) }
}

// New validates the scenario and builds its kernel.
func New(s *config.Scenario, opts ...Option) (*Experiment, error) {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = NewRegistry()
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	set := metrics.Default()
	log := o.log.With(zap.String("scenario", s.Name))
	kopts := []kernel.Option{kernel.WithLogger(log), kernel.WithObserver(set)}
	for _, obs := range o.observers {
		kopts = append(kopts, kernel.WithObserver(obs))
	}

	k, err := Build(o.registry, s, kopts...)
	if err != nil {
		return nil, err
	}
	return &Experiment{scenario: s, kernel: k, metrics: set, log: log}, nil
}

// Build registers the scenario's rings and couplings on a fresh kernel and
// locks its baseline.
func Build(reg *Registry, s *config.Scenario, opts ...kernel.Option) (*kernel.Kernel, error) {
	k, err := kernel.New(s.Kernel.Resolve(), opts...)
	if err != nil {
		return nil, err
	}

	integName := s.Integrator
	if integName == "" {
		integName = config.DefaultIntegrator
	}

	for _, rc := range s.Rings {
		integ, err := reg.Integrator(integName)
		if err != nil {
			return nil, err
		}
		r, err := reg.Ring(rc, integ)
		if err != nil {
			return nil, err
		}
		if err := k.RegisterRing(r); err != nil {
			return nil, err
		}
	}

	for _, cc := range s.Couplings {
		if cc.Kind == config.CouplingAuto {
			if !k.Couple(cc.Source, cc.Target) {
				return nil, fmt.Errorf("%w: %s->%s", ErrUncoupled, cc.Source, cc.Target)
			}
			continue
		}
		fn, err := reg.Transfer(cc)
		if err != nil {
			return nil, err
		}
		err = k.RegisterCoupling(kernel.CouplingDefinition{
			SourceID: cc.Source,
			TargetID: cc.Target,
			Name:     cc.Name,
			Transfer: fn,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := linkDrives(k, s); err != nil {
		return nil, err
	}

	if err := k.Initialize(); err != nil {
		return nil, err
	}
	return k, nil
}

// linkDrives makes sure every driven ring receives its source's snapshot.
// The kernel only exchanges snapshots along couplings, so a drive without
// one gets a zero-energy link registered for it.
func linkDrives(k *kernel.Kernel, s *config.Scenario) error {
	for _, rc := range s.Rings {
		d := rc.Drive
		if d == nil {
			continue
		}
		if _, ok := k.Lookup(d.Source); !ok || d.Source == rc.ID {
			return fmt.Errorf("%w: ring %q is driven by %q", ErrUnknownDriveSource, rc.ID, d.Source)
		}
		if linked(k, d.Source, rc.ID) {
			continue
		}
		err := k.RegisterCoupling(kernel.CouplingDefinition{
			SourceID: d.Source,
			TargetID: rc.ID,
			Name:     "drive:" + d.Source + "->" + rc.ID,
			Transfer: coupling.Link(),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func linked(k *kernel.Kernel, sourceID, targetID string) bool {
	for _, c := range k.Couplings() {
		if c.SourceID == sourceID && c.TargetID == targetID {
			return true
		}
	}
	return false
}

func (e *Experiment) Kernel() *kernel.Kernel     { return e.kernel }
func (e *Experiment) Scenario() *config.Scenario { return e.scenario }

// Run spins the kernel for the scenario's step count. Cancellation is
// checked between spins; the partial result is returned with ctx.Err().
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		Scenario: e.scenario.Name,
		Spins:    make([]kernel.SpinResult, 0, e.scenario.Steps),
	}
	err := e.RunWithCallback(ctx, func(s kernel.SpinResult) bool {
		res.Spins = append(res.Spins, s)
		return true
	})
	res.Metrics = e.metrics.Values()
	res.Final = e.kernel.State()
	return res, err
}

// RunWithCallback spins until the step count is reached, fn returns false,
// ctx is done or the kernel rejects a spin.
func (e *Experiment) RunWithCallback(ctx context.Context, fn func(kernel.SpinResult) bool) error {
	for i := 0; i < e.scenario.Steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s, err := e.Step()
		if err != nil {
			e.log.Error("spin rejected", zap.Int("step", i+1), zap.Error(err))
			return err
		}
		if !fn(s) {
			return nil
		}
	}
	e.log.Info("run complete",
		zap.Int("steps", e.scenario.Steps),
		zap.Float64("time", e.kernel.Time()),
		zap.Float64("max_drift", e.metrics.Values()["max_drift"]))
	return nil
}

// Step performs a single spin with the scenario's dt and params.
func (e *Experiment) Step() (kernel.SpinResult, error) {
	return e.kernel.Spin(e.scenario.Dt, e.scenario.Params)
}

// Metrics returns the current metric values.
func (e *Experiment) Metrics() map[string]float64 {
	return e.metrics.Values()
}

// Reset rewinds the kernel and clears the metrics.
func (e *Experiment) Reset() {
	e.kernel.Reset()
	e.metrics.Reset()
}
