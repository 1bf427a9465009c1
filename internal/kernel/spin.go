package kernel

import (
	"fmt"
	"maps"
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/ringsim/internal/ring"
)

// Spin advances every ring by dt and enforces conservation. The first spin
// locks the baseline if Initialize was not called.
//
// An error means the spin was not accepted: the clock did not advance. A
// numerical-corruption error additionally faults the kernel until Reset.
func (k *Kernel) Spin(dt float64, params ring.Params) (SpinResult, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return SpinResult{}, fmt.Errorf("%w: got %g", ErrInvalidDt, dt)
	}
	if k.phase == PhaseFaulted {
		return SpinResult{}, ErrFaulted
	}
	if len(k.rings) == 0 {
		return SpinResult{}, ErrNoRings
	}
	if !k.baselineSet {
		if err := k.Initialize(); err != nil {
			return SpinResult{}, err
		}
	}

	before := k.TotalEnergy()

	k.exchangeSnapshots()

	if err := k.stepRings(dt, params); err != nil {
		return SpinResult{}, err
	}

	transfers, absorbed, gains, err := k.applyCouplings(dt)
	if err != nil {
		return SpinResult{}, err
	}

	produced, err := k.accountEntropy(gains)
	if err != nil {
		return SpinResult{}, err
	}

	correction := k.correctDrift()

	k.time += dt
	k.steps++
	k.phase = PhaseStepping

	after := k.TotalEnergy()
	drift := math.Abs(after - k.baseline)
	result := SpinResult{
		Step:            k.steps,
		Dt:              dt,
		Time:            k.time,
		EnergyBefore:    before,
		EnergyAfter:     after,
		EnergyDrift:     drift,
		Correction:      correction,
		EntropyProduced: produced,
		Transfers:       transfers,
		Absorbed:        absorbed,
		Conserved:       drift < k.cfg.Tolerance,
		State:           k.State(),
	}

	if !result.Conserved {
		k.log.Warn("energy not conserved",
			zap.Int("step", k.steps),
			zap.Float64("drift", drift),
			zap.Float64("tolerance", k.cfg.Tolerance))
	}
	for _, o := range k.observers {
		o.OnSpin(result)
	}
	return result, nil
}

// exchangeSnapshots hands every receiving target its source's settled state
// from the previous spin, before anything steps.
func (k *Kernel) exchangeSnapshots() {
	for _, c := range k.couplings {
		recv, ok := k.rings[k.index[c.TargetID]].(ring.CouplingReceiver)
		if !ok {
			continue
		}
		src := k.rings[k.index[c.SourceID]]
		recv.ReceiveCouplingData(c.SourceID, maps.Clone(src.Serialize()))
	}
}

func (k *Kernel) stepRings(dt float64, params ring.Params) error {
	for _, r := range k.rings {
		delta := r.Step(dt, params)
		if !r.Energy().IsFinite() {
			return k.fault(&RingError{RingID: r.ID(), Phase: "step", Time: k.time, Err: ErrNonFiniteEnergy})
		}
		if ce := k.log.Check(zap.DebugLevel, "ring stepped"); ce != nil {
			ce.Write(zap.String("ring", r.ID()), zap.Float64("delta", delta))
		}
	}
	return nil
}

type gain struct {
	target ring.Ring
	amount float64
}

// applyCouplings evaluates every coupling against post-step snapshots taken
// once, so no coupling sees another's absorption.
func (k *Kernel) applyCouplings(dt float64) (transfers, absorbed map[string]float64, gains []gain, err error) {
	transfers = make(map[string]float64, len(k.couplings))
	absorbed = make(map[string]float64, len(k.couplings))
	if len(k.couplings) == 0 {
		return transfers, absorbed, nil, nil
	}

	snaps := make([]ring.Snapshot, len(k.rings))
	for i, r := range k.rings {
		snaps[i] = ring.Capture(r)
	}

	for _, c := range k.couplings {
		ti := k.index[c.TargetID]
		amount := c.Transfer(snaps[k.index[c.SourceID]], snaps[ti], dt)
		if math.IsNaN(amount) || math.IsInf(amount, 0) {
			return nil, nil, nil, k.fault(&RingError{RingID: c.TargetID, Phase: "coupling " + c.Name, Time: k.time, Err: ErrNonFiniteTransfer})
		}
		transfers[c.Name] = amount
		if math.Abs(amount) <= k.cfg.Tolerance {
			absorbed[c.Name] = 0
			continue
		}

		target := k.rings[ti]
		got := target.AbsorbEnergy(amount)
		absorbed[c.Name] = got
		if got > 0 {
			gains = append(gains, gain{target: target, amount: got})
		}
	}
	return transfers, absorbed, gains, nil
}

// accountEntropy books got/T for every positive absorbed transfer, on the
// kernel ledger and on the receiving ring.
func (k *Kernel) accountEntropy(gains []gain) (float64, error) {
	if len(gains) == 0 {
		return 0, nil
	}
	temp := k.temperature()
	produced := 0.0
	for _, g := range gains {
		ds := g.amount / temp
		if err := g.target.ProduceEntropy(ds); err != nil {
			return 0, k.fault(&RingError{RingID: g.target.ID(), Phase: "entropy", Time: k.time, Err: err})
		}
		produced += ds
	}
	k.entropy += produced
	return produced, nil
}

// correctDrift injects the negated drift into the thermal sink until the
// drift is within tolerance, the sink refuses, or the passes run out.
func (k *Kernel) correctDrift() float64 {
	injected := 0.0
	for pass := 0; pass < k.cfg.CorrectionPasses; pass++ {
		drift := k.TotalEnergy() - k.baseline
		if math.Abs(drift) < k.cfg.Tolerance {
			break
		}
		sink := k.sinkRing()
		if sink == nil {
			k.log.Warn("drift left uncorrected, no thermal sink", zap.Float64("drift", drift))
			break
		}
		got := sink.AbsorbEnergy(-drift)
		injected += got
		if ce := k.log.Check(zap.DebugLevel, "drift corrected"); ce != nil {
			ce.Write(zap.Int("pass", pass), zap.Float64("drift", drift), zap.Float64("absorbed", got))
		}
		if got == 0 {
			break
		}
	}
	return injected
}

func (k *Kernel) fault(err *RingError) error {
	k.phase = PhaseFaulted
	k.log.Error("kernel faulted", zap.Error(err))
	return err
}
