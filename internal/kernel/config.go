package kernel

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

const (
	DefaultTolerance          = 1e-14
	DefaultAmbientTemperature = 300.0
	DefaultCorrectionPasses   = 4
)

// Config holds the kernel's tunables.
type Config struct {
	// Tolerance is the absolute energy drift below which a spin counts as
	// conserved, and above which drift correction and transfers apply.
	Tolerance float64
	// AmbientTemperature is used for entropy accounting when no thermal
	// sink reports a usable temperature.
	AmbientTemperature float64
	// ThermalSinkID names the ring that absorbs drift corrections. Empty
	// selects the first registered ring implementing ring.Thermal.
	ThermalSinkID string
	// CorrectionPasses bounds how many times drift is re-measured and
	// re-injected in one spin.
	CorrectionPasses int
}

func DefaultConfig() Config {
	return Config{
		Tolerance:          DefaultTolerance,
		AmbientTemperature: DefaultAmbientTemperature,
		CorrectionPasses:   DefaultCorrectionPasses,
	}
}

func (c Config) Validate() error {
	if !(c.Tolerance > 0) || math.IsInf(c.Tolerance, 0) {
		return fmt.Errorf("%w: tolerance must be positive and finite, got %g", ErrInvalidConfig, c.Tolerance)
	}
	if !(c.AmbientTemperature > 0) || math.IsInf(c.AmbientTemperature, 0) {
		return fmt.Errorf("%w: ambient temperature must be positive and finite, got %g", ErrInvalidConfig, c.AmbientTemperature)
	}
	if c.CorrectionPasses < 1 {
		return fmt.Errorf("%w: correction passes must be at least 1, got %d", ErrInvalidConfig, c.CorrectionPasses)
	}
	return nil
}

type Option func(*Kernel)

func WithLogger(l *zap.Logger) Option {
	return func(k *Kernel) {
		if l != nil {
			k.log = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(k *Kernel) {
		if o != nil {
			k.observers = append(k.observers, o)
		}
	}
}

func WithThermalSink(id string) Option {
	return func(k *Kernel) { k.cfg.ThermalSinkID = id }
}

// Observer is notified synchronously after every accepted spin.
type Observer interface {
	OnSpin(result SpinResult)
}

type ObserverFunc func(SpinResult)

func (f ObserverFunc) OnSpin(r SpinResult) { f(r) }
