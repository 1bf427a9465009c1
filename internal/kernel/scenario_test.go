package kernel_test

import (
	"math"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ringsim/internal/coupling"
	"github.com/san-kum/ringsim/internal/kernel"
	"github.com/san-kum/ringsim/internal/rings"
)

func frictionKernel() (*kernel.Kernel, *rings.Mechanical, *rings.Thermal) {
	k, err := kernel.New(kernel.DefaultConfig())
	Expect(err).NotTo(HaveOccurred())

	// 10 J, all potential, at rest
	body, err := rings.NewMechanical("body", rings.MechanicalParams{Mass: 1, Stiffness: 20, Damping: 2, Position: 1})
	Expect(err).NotTo(HaveOccurred())
	heat, err := rings.NewThermal("heat", rings.ThermalParams{HeatCapacity: 10})
	Expect(err).NotTo(HaveOccurred())

	Expect(k.RegisterRing(body)).To(Succeed())
	Expect(k.RegisterRing(heat)).To(Succeed())
	Expect(k.Couple("body", "heat")).To(BeTrue())
	return k, body, heat
}

func spinN(k *kernel.Kernel, n int, dt float64) []kernel.SpinResult {
	out := make([]kernel.SpinResult, 0, n)
	for i := 0; i < n; i++ {
		res, err := k.Spin(dt, nil)
		Expect(err).NotTo(HaveOccurred())
		out = append(out, res)
	}
	return out
}

var _ = Describe("Kernel", func() {
	Describe("mechanical ring coupled to a heat sink by friction", func() {
		var (
			k    *kernel.Kernel
			body *rings.Mechanical
			heat *rings.Thermal
		)

		BeforeEach(func() {
			k, body, heat = frictionKernel()
			Expect(k.Initialize()).To(Succeed())
		})

		It("starts with ten joules of potential energy and a cold sink", func() {
			Expect(body.Energy().Potential).To(BeNumerically("~", 10, 1e-12))
			Expect(body.Energy().Kinetic).To(BeZero())
			Expect(heat.Energy().Total).To(BeZero())
			base, locked := k.Baseline()
			Expect(locked).To(BeTrue())
			Expect(base).To(BeNumerically("~", 10, 1e-12))
		})

		It("holds total energy at the baseline after every spin", func() {
			base, _ := k.Baseline()
			for _, res := range spinN(k, 300, 0.1) {
				Expect(res.Conserved).To(BeTrue(), "step %d drifted by %g", res.Step, res.EnergyDrift)
				Expect(math.Abs(k.TotalEnergy() - base)).To(BeNumerically("<", 1e-14))
			}
		})

		It("moves all the energy into heat once the body comes to rest", func() {
			spinN(k, 300, 0.1)

			Expect(body.Energy().Total).To(BeNumerically("<", 1e-9))
			Expect(body.Energy().Total + heat.Energy().Total).To(BeNumerically("~", 10, 1e-11))
			Expect(heat.Temperature()).To(BeNumerically("~", rings.DefaultTemperature+1, 1e-9))
		})

		It("never decreases cumulative entropy", func() {
			prev := 0.0
			for _, res := range spinN(k, 100, 0.1) {
				Expect(res.EntropyProduced).To(BeNumerically(">=", 0))
				Expect(res.State.Entropy.Irreversible).To(BeNumerically(">=", prev))
				prev = res.State.Entropy.Irreversible
			}
			Expect(prev).To(BeNumerically(">", 0))
		})

		It("credits friction heat through the advertised coupling", func() {
			res := spinN(k, 5, 0.1)[4]
			Expect(res.Transfers).To(HaveKey("friction:body->heat"))
			Expect(res.Absorbed["friction:body->heat"]).To(BeNumerically(">", 0))
			st, ok := res.State.Ring("body")
			Expect(ok).To(BeTrue())
			Expect(st.State).To(HaveKeyWithValue(coupling.DissipatedKey, BeNumerically(">", 0)))
		})

		It("replays an identical trajectory after Reset", func() {
			dts := []float64{0.1, 0.05, 0.2, 0.1, 0.01, 0.3}
			run := func() []kernel.SpinResult {
				var out []kernel.SpinResult
				for _, dt := range dts {
					res, err := k.Spin(dt, nil)
					Expect(err).NotTo(HaveOccurred())
					out = append(out, res)
				}
				return out
			}

			first := run()
			k.Reset()
			second := run()
			Expect(cmp.Diff(first, second)).To(BeEmpty())
		})
	})

	Describe("registration strictness", func() {
		var k *kernel.Kernel

		BeforeEach(func() {
			var err error
			k, err = kernel.New(kernel.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			a, err := rings.NewMechanical("A", rings.MechanicalParams{Mass: 1, Velocity: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(k.RegisterRing(a)).To(Succeed())
		})

		It("raises immediately for a coupling to a missing ring", func() {
			err := k.RegisterCoupling(kernel.CouplingDefinition{
				SourceID: "A",
				TargetID: "missing",
				Transfer: coupling.Constant(1),
			})
			Expect(err).To(MatchError(kernel.ErrUnknownRing))
			Expect(k.Couplings()).To(BeEmpty())
			Expect(k.Phase()).To(Equal(kernel.PhaseUninitialized))
		})

		It("completes quietly when Couple names a missing ring", func() {
			Expect(k.Couple("A", "missing")).To(BeFalse())
			Expect(k.Couplings()).To(BeEmpty())
			Expect(k.Initialize()).To(Succeed())
		})
	})

	Describe("without a thermal sink", func() {
		It("reports drift instead of hiding it", func() {
			k, err := kernel.New(kernel.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			body, err := rings.NewMechanical("body", rings.MechanicalParams{Mass: 1, Stiffness: 20, Damping: 2, Position: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(k.RegisterRing(body)).To(Succeed())

			res := spinN(k, 10, 0.1)[9]
			Expect(res.Conserved).To(BeFalse())
			Expect(res.EnergyDrift).To(BeNumerically(">", 1))
			Expect(res.Correction).To(BeZero())
		})
	})
})
