package kernel

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/san-kum/ringsim/internal/ring"
)

// fakeRing gains leak on every step and accepts every absorption unless
// reject is set.
type fakeRing struct {
	id        string
	initial   float64
	energy    float64
	leak      float64
	reject    bool
	advertise ring.TransferFunc
	received  []map[string]float64
	entropy   ring.Accumulator
}

func newFake(id string, energy float64) *fakeRing {
	return &fakeRing{id: id, initial: energy, energy: energy}
}

func (f *fakeRing) ID() string                  { return f.id }
func (f *fakeRing) Energy() ring.Energy         { return ring.NewEnergy(0, 0, f.energy) }
func (f *fakeRing) Entropy() ring.Entropy       { return ring.NewEntropy(0, f.entropy.Value()) }
func (f *fakeRing) Kinematics() ring.Kinematics { return ring.Kinematics{} }

func (f *fakeRing) Step(float64, ring.Params) float64 {
	f.energy += f.leak
	return f.leak
}

func (f *fakeRing) AbsorbEnergy(amount float64) float64 {
	if f.reject {
		return 0
	}
	f.energy += amount
	return amount
}

func (f *fakeRing) ProduceEntropy(amount float64) error { return f.entropy.Produce(amount) }

func (f *fakeRing) Reset() {
	f.energy = f.initial
	f.received = nil
	f.entropy.Reset()
}

func (f *fakeRing) Serialize() map[string]float64 {
	return map[string]float64{"energy": f.energy}
}

func (f *fakeRing) CouplingTo(targetID string) *ring.CouplingData {
	if f.advertise == nil {
		return nil
	}
	return &ring.CouplingData{Transfer: f.advertise}
}

func (f *fakeRing) ReceiveCouplingData(_ string, data map[string]float64) {
	f.received = append(f.received, data)
}

type fakeSink struct {
	*fakeRing
	temp float64
}

func (s fakeSink) Temperature() float64 { return s.temp }

func newSink(id string, temp float64) fakeSink {
	return fakeSink{fakeRing: newFake(id, 0), temp: temp}
}

func constant(v float64) ring.TransferFunc {
	return func(_, _ ring.Snapshot, _ float64) float64 { return v }
}

func newKernel(t *testing.T, opts ...Option) *Kernel {
	t.Helper()
	k, err := New(DefaultConfig(), opts...)
	require.NoError(t, err)
	return k
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	for name, cfg := range map[string]Config{
		"zero tolerance":   {Tolerance: 0, AmbientTemperature: 300, CorrectionPasses: 1},
		"nan tolerance":    {Tolerance: math.NaN(), AmbientTemperature: 300, CorrectionPasses: 1},
		"cold ambient":     {Tolerance: 1e-14, AmbientTemperature: 0, CorrectionPasses: 1},
		"no corrections":   {Tolerance: 1e-14, AmbientTemperature: 300},
		"infinite ambient": {Tolerance: 1e-14, AmbientTemperature: math.Inf(1), CorrectionPasses: 1},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := New(cfg)
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestRegisterRing(t *testing.T) {
	k := newKernel(t)

	require.ErrorIs(t, k.RegisterRing(nil), ErrNilRing)
	require.NoError(t, k.RegisterRing(newFake("a", 1)))

	err := k.RegisterRing(newFake("a", 2))
	require.ErrorIs(t, err, ErrDuplicateRing)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "a", cfgErr.RingID)

	require.NoError(t, k.RegisterRing(newFake("b", 2)))
	assert.Equal(t, []string{"a", "b"}, k.Rings())

	r, ok := k.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, "b", r.ID())
	_, ok = k.Lookup("c")
	assert.False(t, ok)
}

func TestRegistryLocksAfterInitialize(t *testing.T) {
	k := newKernel(t)
	require.NoError(t, k.RegisterRing(newFake("a", 1)))
	require.NoError(t, k.RegisterRing(newFake("b", 1)))
	require.NoError(t, k.Initialize())

	require.ErrorIs(t, k.RegisterRing(newFake("c", 1)), ErrRegistryLocked)
	err := k.RegisterCoupling(CouplingDefinition{SourceID: "a", TargetID: "b", Transfer: constant(1)})
	require.ErrorIs(t, err, ErrRegistryLocked)
}

func TestRegisterCoupling_Validation(t *testing.T) {
	k := newKernel(t)
	require.NoError(t, k.RegisterRing(newFake("A", 1)))

	err := k.RegisterCoupling(CouplingDefinition{SourceID: "A", TargetID: "missing", Transfer: constant(1)})
	require.ErrorIs(t, err, ErrUnknownRing)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "missing", cfgErr.RingID)

	require.NoError(t, k.RegisterRing(newFake("B", 1)))
	require.ErrorIs(t, k.RegisterCoupling(CouplingDefinition{SourceID: "A", TargetID: "B"}), ErrNilTransfer)

	require.NoError(t, k.RegisterCoupling(CouplingDefinition{SourceID: "A", TargetID: "B", Transfer: constant(1)}))
	assert.Equal(t, "A->B", k.Couplings()[0].Name)

	err = k.RegisterCoupling(CouplingDefinition{SourceID: "B", TargetID: "A", Name: "A->B", Transfer: constant(1)})
	require.ErrorIs(t, err, ErrDuplicateCoupling)
	assert.Len(t, k.Couplings(), 1)
}

func TestCouple_IsLenient(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	k := newKernel(t, WithLogger(zap.New(core)))

	src := newFake("src", 1)
	require.NoError(t, k.RegisterRing(src))
	require.NoError(t, k.RegisterRing(newFake("dst", 0)))

	assert.False(t, k.Couple("src", "missing"))
	assert.False(t, k.Couple("missing", "dst"))
	assert.False(t, k.Couple("src", "dst"), "source advertises nothing yet")
	assert.Empty(t, k.Couplings())
	assert.Equal(t, 3, logs.FilterMessage("couple skipped").Len())

	src.advertise = constant(0.5)
	assert.True(t, k.Couple("src", "dst"))
	require.Len(t, k.Couplings(), 1)
	assert.Equal(t, "src->dst", k.Couplings()[0].Name)

	assert.False(t, k.Couple("src", "dst"), "second coupling collides on name")
	assert.Len(t, k.Couplings(), 1)
}

func TestInitialize_Lifecycle(t *testing.T) {
	k := newKernel(t)
	assert.Equal(t, PhaseUninitialized, k.Phase())
	require.ErrorIs(t, k.Initialize(), ErrNoRings)

	a := newFake("a", 3)
	require.NoError(t, k.RegisterRing(a))
	require.NoError(t, k.Initialize())
	assert.Equal(t, PhaseInitialized, k.Phase())

	// repeatable until the first spin
	a.energy = 4
	require.NoError(t, k.Initialize())
	base, locked := k.Baseline()
	assert.True(t, locked)
	assert.Equal(t, 4.0, base)

	_, err := k.Spin(0.1, nil)
	require.NoError(t, err)
	assert.Equal(t, PhaseStepping, k.Phase())
	require.ErrorIs(t, k.Initialize(), ErrAlreadyStepping)
}

func TestInitialize_UnknownSink(t *testing.T) {
	k := newKernel(t, WithThermalSink("nope"))
	require.NoError(t, k.RegisterRing(newFake("a", 1)))
	require.ErrorIs(t, k.Initialize(), ErrUnknownRing)
}

func TestSpin_RejectsBadInput(t *testing.T) {
	k := newKernel(t)
	_, err := k.Spin(0.1, nil)
	require.ErrorIs(t, err, ErrNoRings)

	require.NoError(t, k.RegisterRing(newFake("a", 1)))
	for _, dt := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := k.Spin(dt, nil)
		require.ErrorIs(t, err, ErrInvalidDt)
	}
	assert.Zero(t, k.Time())
}

func TestSpin_AutoInitializes(t *testing.T) {
	k := newKernel(t)
	require.NoError(t, k.RegisterRing(newFake("a", 7)))

	res, err := k.Spin(0.5, nil)
	require.NoError(t, err)
	base, locked := k.Baseline()
	assert.True(t, locked)
	assert.Equal(t, 7.0, base)
	assert.Equal(t, 1, res.Step)
	assert.Equal(t, 0.5, res.Time)
	assert.True(t, res.Conserved)
}

func TestSpin_CorrectsDriftIntoSink(t *testing.T) {
	k := newKernel(t)
	leaky := newFake("leaky", 5)
	leaky.leak = 0.1
	sink := newSink("heat", 300)
	require.NoError(t, k.RegisterRing(leaky))
	require.NoError(t, k.RegisterRing(sink))

	for i := 0; i < 10; i++ {
		res, err := k.Spin(1, nil)
		require.NoError(t, err)
		assert.True(t, res.Conserved)
		assert.Less(t, res.EnergyDrift, DefaultTolerance)
		assert.InDelta(t, -0.1, res.Correction, 1e-12)
	}
	assert.InDelta(t, -1.0, sink.energy, 1e-12)
	assert.InDelta(t, 5.0, k.TotalEnergy(), 1e-14)
}

func TestSpin_WithoutSinkReportsDrift(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	k := newKernel(t, WithLogger(zap.New(core)))
	leaky := newFake("leaky", 5)
	leaky.leak = 0.25
	require.NoError(t, k.RegisterRing(leaky))

	res, err := k.Spin(1, nil)
	require.NoError(t, err)
	assert.False(t, res.Conserved)
	assert.Zero(t, res.Correction)
	assert.InDelta(t, 0.25, res.EnergyDrift, 1e-15)
	assert.Positive(t, logs.FilterMessage("energy not conserved").Len())
}

func TestSpin_RejectingSinkStopsCorrection(t *testing.T) {
	k := newKernel(t)
	leaky := newFake("leaky", 5)
	leaky.leak = 1
	sink := newSink("heat", 300)
	sink.reject = true
	require.NoError(t, k.RegisterRing(leaky))
	require.NoError(t, k.RegisterRing(sink))

	res, err := k.Spin(1, nil)
	require.NoError(t, err)
	assert.False(t, res.Conserved)
	assert.Zero(t, res.Correction)
}

func TestSpin_EntropyFromAbsorbedTransfers(t *testing.T) {
	k := newKernel(t)
	src := newFake("src", 10)
	sink := newSink("heat", 400)
	require.NoError(t, k.RegisterRing(src))
	require.NoError(t, k.RegisterRing(sink))
	require.NoError(t, k.RegisterCoupling(CouplingDefinition{SourceID: "src", TargetID: "heat", Name: "push", Transfer: constant(2)}))

	res, err := k.Spin(0.1, nil)
	require.NoError(t, err)

	assert.Equal(t, 2.0, res.Transfers["push"])
	assert.Equal(t, 2.0, res.Absorbed["push"])
	assert.InDelta(t, 2.0/400, res.EntropyProduced, 1e-18)
	assert.InDelta(t, 2.0/400, k.TotalEntropy().Irreversible, 1e-18)
	assert.InDelta(t, 2.0/400, sink.Entropy().Irreversible, 1e-18)
	assert.InDelta(t, -2.0, res.Correction, 1e-12)
	assert.True(t, res.Conserved)
}

func TestSpin_AmbientTemperatureWithoutSink(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AmbientTemperature = 250
	k, err := New(cfg)
	require.NoError(t, err)

	require.NoError(t, k.RegisterRing(newFake("a", 1)))
	require.NoError(t, k.RegisterRing(newFake("b", 0)))
	require.NoError(t, k.RegisterCoupling(CouplingDefinition{SourceID: "a", TargetID: "b", Transfer: constant(5)}))

	res, err := k.Spin(1, nil)
	require.NoError(t, err)
	assert.InDelta(t, 5.0/250, res.EntropyProduced, 1e-18)
}

func TestSpin_NegativeAndTinyTransfers(t *testing.T) {
	k := newKernel(t)
	require.NoError(t, k.RegisterRing(newFake("a", 1)))
	b := newFake("b", 3)
	require.NoError(t, k.RegisterRing(b))
	require.NoError(t, k.RegisterCoupling(CouplingDefinition{SourceID: "a", TargetID: "b", Name: "tiny", Transfer: constant(1e-15)}))
	require.NoError(t, k.RegisterCoupling(CouplingDefinition{SourceID: "a", TargetID: "b", Name: "drain", Transfer: constant(-1)}))

	res, err := k.Spin(1, nil)
	require.NoError(t, err)

	assert.Equal(t, 1e-15, res.Transfers["tiny"])
	assert.Zero(t, res.Absorbed["tiny"])
	assert.Equal(t, -1.0, res.Absorbed["drain"])
	assert.Zero(t, res.EntropyProduced)
	assert.Equal(t, 2.0, b.energy)
}

func TestSpin_ExchangesSnapshotsBeforeStepping(t *testing.T) {
	k := newKernel(t)
	src := newFake("src", 3)
	src.leak = 1
	recv := newFake("recv", 0)
	require.NoError(t, k.RegisterRing(src))
	require.NoError(t, k.RegisterRing(recv))
	require.NoError(t, k.RegisterCoupling(CouplingDefinition{SourceID: "src", TargetID: "recv", Transfer: constant(0)}))

	for i := 0; i < 3; i++ {
		_, err := k.Spin(1, nil)
		require.NoError(t, err)
	}
	require.Len(t, recv.received, 3)
	assert.Equal(t, 3.0, recv.received[0]["energy"])
	assert.Equal(t, 4.0, recv.received[1]["energy"])
	assert.Equal(t, 5.0, recv.received[2]["energy"])
	assert.Empty(t, src.received)
}

func TestSpin_NonFiniteEnergyFaults(t *testing.T) {
	k := newKernel(t)
	bad := newFake("bad", 1)
	require.NoError(t, k.RegisterRing(bad))
	require.NoError(t, k.RegisterRing(newSink("heat", 300)))
	_, err := k.Spin(1, nil)
	require.NoError(t, err)

	bad.leak = math.Inf(1)
	_, err = k.Spin(1, nil)
	require.ErrorIs(t, err, ErrNonFiniteEnergy)
	var ringErr *RingError
	require.True(t, errors.As(err, &ringErr))
	assert.Equal(t, "bad", ringErr.RingID)
	assert.Equal(t, PhaseFaulted, k.Phase())
	assert.Equal(t, 1.0, k.Time(), "clock must not advance on a rejected spin")

	_, err = k.Spin(1, nil)
	require.ErrorIs(t, err, ErrFaulted)
	require.ErrorIs(t, k.Initialize(), ErrFaulted)

	bad.leak = 0
	k.Reset()
	assert.Equal(t, PhaseInitialized, k.Phase())
	res, err := k.Spin(1, nil)
	require.NoError(t, err)
	assert.True(t, res.Conserved)
}

func TestSpin_NonFiniteTransferFaults(t *testing.T) {
	k := newKernel(t)
	require.NoError(t, k.RegisterRing(newFake("a", 1)))
	require.NoError(t, k.RegisterRing(newFake("b", 1)))
	require.NoError(t, k.RegisterCoupling(CouplingDefinition{SourceID: "a", TargetID: "b", Transfer: constant(math.NaN())}))

	_, err := k.Spin(1, nil)
	require.ErrorIs(t, err, ErrNonFiniteTransfer)
	assert.Equal(t, PhaseFaulted, k.Phase())
}

func TestInitialize_NonFiniteRing(t *testing.T) {
	k := newKernel(t)
	require.NoError(t, k.RegisterRing(newFake("nan", math.NaN())))
	require.ErrorIs(t, k.Initialize(), ErrNonFiniteEnergy)
}

func TestObservers(t *testing.T) {
	var seen []int
	k := newKernel(t, WithObserver(ObserverFunc(func(r SpinResult) {
		seen = append(seen, r.Step)
	})))
	require.NoError(t, k.RegisterRing(newFake("a", 1)))

	for i := 0; i < 3; i++ {
		_, err := k.Spin(0.1, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestState(t *testing.T) {
	k := newKernel(t)
	require.NoError(t, k.RegisterRing(newFake("a", 1)))
	require.NoError(t, k.RegisterRing(newSink("heat", 300)))
	require.NoError(t, k.Initialize())

	st := k.State()
	assert.Equal(t, "initialized", st.Phase)
	assert.True(t, st.BaselineLocked)
	assert.Equal(t, 1.0, st.TotalEnergy)
	require.Len(t, st.Rings, 2)

	heat, ok := st.Ring("heat")
	require.True(t, ok)
	assert.Equal(t, 0.0, heat.State["energy"])
	_, ok = st.Ring("nope")
	assert.False(t, ok)
}

func TestResetAndClear(t *testing.T) {
	k := newKernel(t)
	a := newFake("a", 2)
	a.leak = 1
	require.NoError(t, k.RegisterRing(a))
	require.NoError(t, k.RegisterRing(newSink("heat", 300)))
	require.NoError(t, k.RegisterRing(newFake("b", 0)))
	require.NoError(t, k.RegisterCoupling(CouplingDefinition{SourceID: "a", TargetID: "b", Transfer: constant(1)}))

	for i := 0; i < 4; i++ {
		_, err := k.Spin(0.25, nil)
		require.NoError(t, err)
	}
	require.Positive(t, k.TotalEntropy().Irreversible)

	k.Reset()
	assert.Zero(t, k.Time())
	assert.Zero(t, k.TotalEntropy().Irreversible)
	_, locked := k.Baseline()
	assert.False(t, locked)
	assert.Equal(t, 2.0, a.energy)
	assert.Len(t, k.Couplings(), 1)
	assert.Equal(t, PhaseInitialized, k.Phase())

	k.Clear()
	assert.Equal(t, PhaseUninitialized, k.Phase())
	assert.Empty(t, k.Rings())
	assert.Empty(t, k.Couplings())
	_, err := k.Spin(1, nil)
	require.ErrorIs(t, err, ErrNoRings)
	require.NoError(t, k.RegisterRing(newFake("a", 1)))
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "stepping", PhaseStepping.String())
	assert.Equal(t, "faulted", PhaseFaulted.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
