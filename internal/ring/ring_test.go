package ring

import (
	"errors"
	"math"
	"testing"
)

func TestNewEnergy_TotalIsSum(t *testing.T) {
	e := NewEnergy(1.5, 2.25, -0.75)
	if e.Total != 3.0 {
		t.Errorf("Total = %v, want 3", e.Total)
	}
}

func TestEnergy_IsFinite(t *testing.T) {
	tests := []struct {
		name   string
		energy Energy
		want   bool
	}{
		{"finite", NewEnergy(1, 2, 3), true},
		{"nan kinetic", NewEnergy(math.NaN(), 0, 0), false},
		{"inf internal", NewEnergy(0, 0, math.Inf(-1)), false},
		{"inf total only", Energy{Total: math.Inf(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.energy.IsFinite(); got != tt.want {
				t.Errorf("IsFinite() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAccumulator(t *testing.T) {
	var a Accumulator
	if err := a.Produce(0.5); err != nil {
		t.Fatal(err)
	}
	if err := a.Produce(0); err != nil {
		t.Fatal(err)
	}
	if err := a.Produce(-1e-18); !errors.Is(err, ErrNegativeEntropy) {
		t.Errorf("expected ErrNegativeEntropy, got %v", err)
	}
	if err := a.Produce(math.NaN()); !errors.Is(err, ErrNegativeEntropy) {
		t.Errorf("expected ErrNegativeEntropy for NaN, got %v", err)
	}
	if a.Value() != 0.5 {
		t.Errorf("Value() = %v, want 0.5", a.Value())
	}
	a.Reset()
	if a.Value() != 0 {
		t.Errorf("Value() after reset = %v", a.Value())
	}
}

type fixedRing struct {
	state map[string]float64
}

func (f *fixedRing) ID() string                     { return "fixed" }
func (f *fixedRing) Energy() Energy                 { return NewEnergy(1, 0, 0) }
func (f *fixedRing) Entropy() Entropy               { return NewEntropy(0, 0) }
func (f *fixedRing) Kinematics() Kinematics         { return Kinematics{Mass: 2} }
func (f *fixedRing) Step(float64, Params) float64   { return 0 }
func (f *fixedRing) AbsorbEnergy(float64) float64   { return 0 }
func (f *fixedRing) ProduceEntropy(float64) error   { return nil }
func (f *fixedRing) Reset()                         {}
func (f *fixedRing) Serialize() map[string]float64 { return f.state }

func TestCapture_CopiesState(t *testing.T) {
	r := &fixedRing{state: map[string]float64{"x": 1}}
	snap := Capture(r)
	r.state["x"] = 2

	if snap.Value("x") != 1 {
		t.Errorf("snapshot aliased ring state: x = %v", snap.Value("x"))
	}
	if snap.Value("missing") != 0 {
		t.Errorf("missing key should read as 0")
	}
	if snap.ID != "fixed" || snap.Kinematics.Mass != 2 || snap.Energy.Total != 1 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}
