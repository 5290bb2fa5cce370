package fmu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/fmusim/internal/fmi"
	"github.com/san-kum/fmusim/internal/fmi/fmitest"
	"github.com/san-kum/fmusim/internal/fmu"
	"github.com/san-kum/fmusim/internal/model"
)

var _ = Describe("Derivative queries", func() {
	var (
		m    *model.Model
		fake *fmitest.Fake
		in   *fmu.Instance

		unknowns = []uint32{20, 21}
		knowns   = []uint32{10, 11}
	)

	BeforeEach(func() {
		m = demoModel()
		fake = demoFake()
	})

	JustBeforeEach(func() {
		d, err := fmu.New(m, fmu.Options{Table: fake.Table()})
		Expect(err).NotTo(HaveOccurred())
		in = d.NewInstance()
		Expect(in.Instantiate()).To(Succeed())
	})

	AfterEach(func() {
		in.Free()
	})

	Context("without the capability", func() {
		BeforeEach(func() {
			fake.Directional = true
			fake.Adjoint = true
		})

		It("fails with a precondition error and never calls the unit", func() {
			Expect(in.EnterInitializationMode()).To(Succeed())

			err := in.DirectionalDerivative(unknowns, knowns, []float64{1, 0}, make([]float64, 2))
			Expect(err).To(MatchError(fmu.ErrNoDirectionalDerivative))
			Expect(err).To(MatchError(fmu.ErrPrecondition))

			err = in.AdjointDerivative(unknowns, knowns, []float64{1, 0}, make([]float64, 2))
			Expect(err).To(MatchError(fmu.ErrNoAdjointDerivative))

			Expect(fake.Count(fmi.SymGetDirectionalDerivative)).To(Equal(0))
			Expect(fake.Count(fmi.SymGetAdjointDerivative)).To(Equal(0))
		})
	})

	Context("with both capabilities", func() {
		BeforeEach(func() {
			m.ProvidesDirectionalDerivatives = true
			m.ProvidesAdjointDerivatives = true
			fake.Directional = true
			fake.Adjoint = true
		})

		It("is only legal after entering initialization", func() {
			err := in.DirectionalDerivative(unknowns, knowns, []float64{1, 0}, make([]float64, 2))
			Expect(err).To(MatchError(fmu.ErrPrecondition))
		})

		It("computes a Jacobian-vector product", func() {
			Expect(in.EnterInitializationMode()).To(Succeed())
			Expect(in.ExitInitializationMode()).To(Succeed())

			sens := make([]float64, 2)
			Expect(in.DirectionalDerivative(unknowns, knowns, []float64{1, 0}, sens)).To(Succeed())
			Expect(sens).To(Equal([]float64{3, 0}))

			Expect(in.DirectionalDerivative(unknowns, knowns, []float64{0, 1}, sens)).To(Succeed())
			Expect(sens).To(Equal([]float64{1, -2}))
		})

		It("computes a vector-Jacobian product", func() {
			Expect(in.EnterInitializationMode()).To(Succeed())

			sens := make([]float64, 2)
			Expect(in.AdjointDerivative(unknowns, knowns, []float64{1, 1}, sens)).To(Succeed())
			Expect(sens).To(Equal([]float64{3, -1}))
		})

		It("checks seed and sensitivity lengths", func() {
			Expect(in.EnterInitializationMode()).To(Succeed())

			Expect(in.DirectionalDerivative(unknowns, knowns[:1], []float64{1, 0}, make([]float64, 2))).
				To(MatchError(fmu.ErrLengthMismatch))
			Expect(in.AdjointDerivative(unknowns, knowns, []float64{1, 0}, make([]float64, 3))).
				To(MatchError(fmu.ErrLengthMismatch))
			Expect(fake.Count(fmi.SymGetDirectionalDerivative)).To(Equal(0))
		})

		It("reports a failed query as recoverable", func() {
			fake.Fail[fmi.SymGetDirectionalDerivative] = fmi.StatusError
			Expect(in.EnterInitializationMode()).To(Succeed())

			err := in.DirectionalDerivative(unknowns, knowns, []float64{1, 0}, make([]float64, 2))
			Expect(fmu.IsRecoverable(err)).To(BeTrue())
		})
	})
})
