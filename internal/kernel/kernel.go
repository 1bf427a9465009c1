package kernel

import (
	"maps"
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/ringsim/internal/ring"
)

// Kernel owns the ring registry, the coupling list, the simulation clock,
// the locked baseline energy and the cumulative irreversible entropy.
type Kernel struct {
	cfg       Config
	log       *zap.Logger
	observers []Observer

	rings     []ring.Ring
	index     map[string]int
	couplings []CouplingDefinition
	names     map[string]struct{}
	sink      int

	phase       Phase
	time        float64
	steps       int
	baseline    float64
	baselineSet bool
	entropy     float64
}

func New(cfg Config, opts ...Option) (*Kernel, error) {
	k := &Kernel{
		cfg:   cfg,
		log:   zap.NewNop(),
		index: make(map[string]int),
		names: make(map[string]struct{}),
		sink:  -1,
	}
	for _, opt := range opts {
		opt(k)
	}
	if err := k.cfg.Validate(); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *Kernel) Config() Config { return k.cfg }
func (k *Kernel) Phase() Phase   { return k.phase }
func (k *Kernel) Time() float64  { return k.time }

// Baseline returns the locked baseline energy and whether it is locked.
func (k *Kernel) Baseline() (float64, bool) {
	return k.baseline, k.baselineSet
}

// RegisterRing adds r to the registry. Ring ids must be unique and the
// registry closes for good once the kernel is initialized.
func (k *Kernel) RegisterRing(r ring.Ring) error {
	if r == nil {
		return &ConfigError{Op: "register ring", Err: ErrNilRing}
	}
	id := r.ID()
	if k.phase != PhaseUninitialized {
		return &ConfigError{Op: "register ring", RingID: id, Err: ErrRegistryLocked}
	}
	if _, ok := k.index[id]; ok {
		return &ConfigError{Op: "register ring", RingID: id, Err: ErrDuplicateRing}
	}
	k.index[id] = len(k.rings)
	k.rings = append(k.rings, r)
	k.log.Debug("ring registered", zap.String("ring", id), zap.Float64("energy", r.Energy().Total))
	return nil
}

// Rings returns the registered ring ids in registration order.
func (k *Kernel) Rings() []string {
	ids := make([]string, len(k.rings))
	for i, r := range k.rings {
		ids[i] = r.ID()
	}
	return ids
}

// Lookup returns the registered ring with the given id.
func (k *Kernel) Lookup(id string) (ring.Ring, bool) {
	i, ok := k.index[id]
	if !ok {
		return nil, false
	}
	return k.rings[i], true
}

// Initialize locks the current total energy as the baseline. It may be
// repeated until the first spin; after that only Reset re-opens it.
func (k *Kernel) Initialize() error {
	switch k.phase {
	case PhaseFaulted:
		return ErrFaulted
	case PhaseStepping:
		return ErrAlreadyStepping
	}
	if len(k.rings) == 0 {
		return ErrNoRings
	}
	if err := k.resolveSink(); err != nil {
		return err
	}
	for _, r := range k.rings {
		if !r.Energy().IsFinite() {
			return &RingError{RingID: r.ID(), Phase: "initialize", Time: k.time, Err: ErrNonFiniteEnergy}
		}
	}

	k.baseline = k.TotalEnergy()
	k.baselineSet = true
	k.phase = PhaseInitialized
	k.log.Info("baseline locked",
		zap.Float64("energy", k.baseline),
		zap.Int("rings", len(k.rings)),
		zap.Int("couplings", len(k.couplings)),
		zap.String("sink", k.sinkID()))
	return nil
}

func (k *Kernel) resolveSink() error {
	k.sink = -1
	if id := k.cfg.ThermalSinkID; id != "" {
		i, ok := k.index[id]
		if !ok {
			return &ConfigError{Op: "thermal sink", RingID: id, Err: ErrUnknownRing}
		}
		k.sink = i
		return nil
	}
	for i, r := range k.rings {
		if _, ok := r.(ring.Thermal); ok {
			k.sink = i
			return nil
		}
	}
	k.log.Warn("no thermal ring registered, drift correction disabled")
	return nil
}

func (k *Kernel) sinkRing() ring.Ring {
	if k.sink < 0 {
		return nil
	}
	return k.rings[k.sink]
}

func (k *Kernel) sinkID() string {
	if r := k.sinkRing(); r != nil {
		return r.ID()
	}
	return ""
}

// temperature is the sink's temperature when it reports a usable one.
func (k *Kernel) temperature() float64 {
	if th, ok := k.sinkRing().(ring.Thermal); ok {
		if t := th.Temperature(); t > 0 && !math.IsInf(t, 0) {
			return t
		}
	}
	return k.cfg.AmbientTemperature
}

func (k *Kernel) TotalEnergy() float64 {
	total := 0.0
	for _, r := range k.rings {
		total += r.Energy().Total
	}
	return total
}

// TotalEntropy sums the rings' thermal entropy and reports the kernel's
// cumulative irreversible entropy.
func (k *Kernel) TotalEntropy() ring.Entropy {
	thermal := 0.0
	for _, r := range k.rings {
		thermal += r.Entropy().Thermal
	}
	return ring.NewEntropy(thermal, k.entropy)
}

func (k *Kernel) State() SystemState {
	st := SystemState{
		Time:           k.time,
		Phase:          k.phase.String(),
		Baseline:       k.baseline,
		BaselineLocked: k.baselineSet,
		TotalEnergy:    k.TotalEnergy(),
		Entropy:        k.TotalEntropy(),
		Rings:          make([]RingState, len(k.rings)),
	}
	for i, r := range k.rings {
		st.Rings[i] = RingState{
			ID:      r.ID(),
			Energy:  r.Energy(),
			Entropy: r.Entropy(),
			State:   maps.Clone(r.Serialize()),
		}
	}
	return st
}

// Reset restores every ring, zeroes the clock and the entropy ledger and
// unlocks the baseline. The registry and couplings stay as they are.
func (k *Kernel) Reset() {
	for _, r := range k.rings {
		r.Reset()
	}
	k.time = 0
	k.steps = 0
	k.entropy = 0
	k.baseline = 0
	k.baselineSet = false
	if k.phase != PhaseUninitialized {
		k.phase = PhaseInitialized
	}
	k.log.Debug("kernel reset", zap.Int("rings", len(k.rings)))
}

// Clear drops rings and couplings as well; the instance must be
// re-registered before it can spin again.
func (k *Kernel) Clear() {
	k.Reset()
	k.rings = nil
	k.couplings = nil
	k.index = make(map[string]int)
	k.names = make(map[string]struct{})
	k.sink = -1
	k.phase = PhaseUninitialized
	k.log.Debug("kernel cleared")
}
