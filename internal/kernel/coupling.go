package kernel

import (
	"go.uber.org/zap"

	"github.com/san-kum/ringsim/internal/ring"
)

// CouplingDefinition is a named, directed energy transfer. It is applied to
// the target only; the source accounts for its own loss in its isolated step.
type CouplingDefinition struct {
	SourceID string
	TargetID string
	Name     string
	Transfer ring.TransferFunc
}

// DefaultCouplingName is used when a ring-advertised coupling has no name.
func DefaultCouplingName(sourceID, targetID string) string {
	return sourceID + "->" + targetID
}

// RegisterCoupling adds def after checking that both endpoints exist.
func (k *Kernel) RegisterCoupling(def CouplingDefinition) error {
	if k.phase != PhaseUninitialized {
		return &ConfigError{Op: "register coupling", RingID: def.SourceID, Err: ErrRegistryLocked}
	}
	if def.Transfer == nil {
		return &ConfigError{Op: "register coupling", RingID: def.SourceID, Err: ErrNilTransfer}
	}
	for _, id := range [...]string{def.SourceID, def.TargetID} {
		if _, ok := k.index[id]; !ok {
			return &ConfigError{Op: "register coupling", RingID: id, Err: ErrUnknownRing}
		}
	}
	if def.Name == "" {
		def.Name = DefaultCouplingName(def.SourceID, def.TargetID)
	}
	if _, ok := k.names[def.Name]; ok {
		return &ConfigError{Op: "register coupling " + def.Name, RingID: def.SourceID, Err: ErrDuplicateCoupling}
	}

	k.names[def.Name] = struct{}{}
	k.couplings = append(k.couplings, def)
	k.log.Debug("coupling registered",
		zap.String("name", def.Name),
		zap.String("source", def.SourceID),
		zap.String("target", def.TargetID))
	return nil
}

// Couple registers the source ring's advertised coupling to the target.
// Unlike RegisterCoupling it tolerates missing rings: it reports false and
// logs the reason instead of failing.
func (k *Kernel) Couple(sourceID, targetID string) bool {
	skip := func(reason string) bool {
		k.log.Warn("couple skipped",
			zap.String("source", sourceID),
			zap.String("target", targetID),
			zap.String("reason", reason))
		return false
	}

	src, ok := k.Lookup(sourceID)
	if !ok {
		return skip("unknown source ring")
	}
	if _, ok := k.Lookup(targetID); !ok {
		return skip("unknown target ring")
	}
	cs, ok := src.(ring.CouplingSource)
	if !ok {
		return skip("source advertises no couplings")
	}
	data := cs.CouplingTo(targetID)
	if data == nil || data.Transfer == nil {
		return skip("source has no coupling for target")
	}

	err := k.RegisterCoupling(CouplingDefinition{
		SourceID: sourceID,
		TargetID: targetID,
		Name:     data.Name,
		Transfer: data.Transfer,
	})
	if err != nil {
		return skip(err.Error())
	}
	return true
}

// Couplings returns the registered couplings in evaluation order.
func (k *Kernel) Couplings() []CouplingDefinition {
	out := make([]CouplingDefinition, len(k.couplings))
	copy(out, k.couplings)
	return out
}
