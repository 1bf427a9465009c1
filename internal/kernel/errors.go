package kernel

import (
	"errors"
	"fmt"
)

// Configuration errors, raised at registration time.
var (
	ErrNilRing           = errors.New("kernel: ring is nil")
	ErrDuplicateRing     = errors.New("kernel: duplicate ring id")
	ErrUnknownRing       = errors.New("kernel: unknown ring id")
	ErrDuplicateCoupling = errors.New("kernel: duplicate coupling name")
	ErrNilTransfer       = errors.New("kernel: coupling has no transfer function")
	ErrRegistryLocked    = errors.New("kernel: registry is locked after initialize")
	ErrInvalidConfig     = errors.New("kernel: invalid configuration")
)

// Lifecycle and stepping errors.
var (
	ErrNoRings           = errors.New("kernel: no rings registered")
	ErrAlreadyStepping   = errors.New("kernel: initialize after spin requires reset")
	ErrInvalidDt         = errors.New("kernel: dt must be positive and finite")
	ErrNonFiniteEnergy   = errors.New("kernel: ring reported non-finite energy")
	ErrNonFiniteTransfer = errors.New("kernel: coupling produced non-finite transfer")
	ErrFaulted           = errors.New("kernel: faulted by numerical corruption, reset required")
)

// ConfigError reports a rejected registration.
type ConfigError struct {
	Op     string
	RingID string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.RingID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.RingID, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// RingError reports corruption detected while spinning.
type RingError struct {
	RingID string
	Phase  string
	Time   float64
	Err    error
}

func (e *RingError) Error() string {
	return fmt.Sprintf("ring %q during %s (t=%.4f): %v", e.RingID, e.Phase, e.Time, e.Err)
}

func (e *RingError) Unwrap() error {
	return e.Err
}
