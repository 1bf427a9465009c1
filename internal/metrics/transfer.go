package metrics

import (
	"maps"
	"math"
	"slices"

	"github.com/san-kum/ringsim/internal/kernel"
)

// TransferVolume is the mean absolute energy absorbed through couplings per
// spin. Couplings are summed in name order so replays match bit for bit.
type TransferVolume struct {
	name    string
	sum     float64
	samples int
}

func NewTransferVolume() *TransferVolume {
	return &TransferVolume{name: "transfer_volume"}
}

func (t *TransferVolume) Name() string {
	return t.name
}

func (t *TransferVolume) Observe(res kernel.SpinResult) {
	for _, name := range slices.Sorted(maps.Keys(res.Absorbed)) {
		t.sum += math.Abs(res.Absorbed[name])
	}
	t.samples++
}

func (t *TransferVolume) Value() float64 {
	if t.samples == 0 {
		return 0
	}
	return t.sum / float64(t.samples)
}

func (t *TransferVolume) Reset() {
	t.sum = 0
	t.samples = 0
}
