package fmu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/fmusim/internal/fmi"
	"github.com/san-kum/fmusim/internal/fmi/fmitest"
	"github.com/san-kum/fmusim/internal/fmu"
	"github.com/san-kum/fmusim/internal/model"
)

var _ = Describe("Value exchange", func() {
	var (
		m    *model.Model
		fake *fmitest.Fake
		d    *fmu.Driver
		in   *fmu.Instance
	)

	BeforeEach(func() {
		m = demoModel()
		fake = demoFake()
	})

	JustBeforeEach(func() {
		var err error
		d, err = fmu.New(m, fmu.Options{Table: fake.Table()})
		Expect(err).NotTo(HaveOccurred())
		in = d.NewInstance()
		Expect(in.Instantiate()).To(Succeed())
	})

	AfterEach(func() {
		in.Free()
	})

	It("rejects mismatched lengths before the native call", func() {
		err := in.SetReal([]uint32{10, 11}, []float64{1})
		Expect(err).To(MatchError(fmu.ErrLengthMismatch))
		Expect(err).To(MatchError(fmu.ErrPrecondition))
		Expect(fake.Count(fmi.SymSetFloat64)).To(Equal(0))

		Expect(in.GetInteger([]uint32{10}, nil)).To(MatchError(fmu.ErrLengthMismatch))
		Expect(fake.Count(fmi.SymGetInt32)).To(Equal(0))
	})

	It("round-trips booleans through the real buffer", func() {
		Expect(in.SetBoolean([]uint32{3, 31}, []bool{true, false})).To(Succeed())

		got := make([]bool, 2)
		Expect(in.GetBoolean([]uint32{3, 31}, got)).To(Succeed())
		Expect(got).To(Equal([]bool{true, false}))

		Expect(in.SetBoolean([]uint32{31}, []bool{true})).To(Succeed())
		Expect(in.GetBoolean([]uint32{31}, got[:1])).To(Succeed())
		Expect(got[0]).To(BeTrue())
	})

	It("round-trips strings", func() {
		Expect(in.SetString([]uint32{4}, []string{"world"})).To(Succeed())
		got := make([]string, 1)
		Expect(in.GetString([]uint32{4}, got)).To(Succeed())
		Expect(got[0]).To(Equal("world"))
	})

	It("round-trips integers", func() {
		Expect(in.SetInteger([]uint32{10, 30}, []int32{-4, 12})).To(Succeed())
		got := make([]int32, 2)
		Expect(in.GetInteger([]uint32{10, 30}, got)).To(Succeed())
		Expect(got).To(Equal([]int32{-4, 12}))
	})

	It("keeps type classes apart for a shared value reference", func() {
		Expect(in.SetReal([]uint32{10}, []float64{1.5})).To(Succeed())
		Expect(in.SetInteger([]uint32{10}, []int32{8})).To(Succeed())
		Expect(fake.Real(in.Handle(), 10)).To(Equal(1.5))
	})

	Context("on failure", func() {
		It("treats real exchange failure as recoverable", func() {
			fake.Fail[fmi.SymGetFloat64] = fmi.StatusError
			err := in.GetReal([]uint32{20}, make([]float64, 1))
			Expect(fmu.IsRecoverable(err)).To(BeTrue())
		})

		It("treats string exchange failure as fatal", func() {
			fake.Fail[fmi.SymSetString] = fmi.StatusDiscard
			err := in.SetString([]uint32{4}, []string{"x"})
			Expect(err).To(MatchError(fmu.ErrStatus))
			Expect(fmu.IsRecoverable(err)).To(BeFalse())
		})
	})

	Context("start values", func() {
		It("pushes every type class once", func() {
			Expect(in.SetValues()).To(Succeed())
			h := in.Handle()
			Expect(fake.Real(h, 1)).To(Equal(2.0))
			Expect(fake.Real(h, 10)).To(Equal(0.5))
			Expect(fake.Bool(h, 3)).To(BeTrue())
			Expect(fake.Text(h, 4)).To(Equal("hello"))
			Expect(fake.Count(fmi.SymSetString)).To(Equal(1))
		})

		It("is fatal when a string start value is rejected", func() {
			fake.Fail[fmi.SymSetString] = fmi.StatusError
			err := in.SetValues()
			var fe *fmu.FatalError
			Expect(err).To(BeAssignableToTypeOf(fe))
		})

		It("is recoverable when a real start value is rejected", func() {
			fake.Fail[fmi.SymSetFloat64] = fmi.StatusDiscard
			Expect(fmu.IsRecoverable(in.SetValues())).To(BeTrue())
			Expect(fake.Count(fmi.SymSetString)).To(Equal(0))
		})
	})

	Context("group helpers", func() {
		JustBeforeEach(func() {
			Expect(in.SetValues()).To(Succeed())
			Expect(in.EnterInitializationMode()).To(Succeed())
		})

		It("sets all inputs in dense order and reads outputs", func() {
			Expect(d.Index().In.Names).To(Equal([]string{"x", "u", "n"}))

			Expect(in.SetInputs([]float64{1, 2, 3.6})).To(Succeed())
			Expect(in.ExitInitializationMode()).To(Succeed())

			ints := make([]int32, 1)
			Expect(in.GetInteger([]uint32{10}, ints)).To(Succeed())
			Expect(ints[0]).To(Equal(int32(4)))

			out := make([]float64, 2)
			Expect(in.GetOutputs(out)).To(Succeed())
			Expect(out).To(Equal([]float64{5, -3}))
			Expect(in.Inputs()).To(Equal([]float64{1, 2, 3.6}))
		})

		It("addresses one named group", func() {
			Expect(in.SetInputGroup("ctrl", []float64{-1, 2})).To(Succeed())
			Expect(in.Inputs()).To(Equal([]float64{0.5, -1, 2}))

			z := make([]float64, 2)
			Expect(in.GetOutputGroup("out", z)).To(Succeed())
			Expect(z[1]).To(Equal(3.0))
		})

		It("caches only the type classes the unit accepted", func() {
			fake.Fail[fmi.SymSetInt32] = fmi.StatusError

			err := in.SetInputs([]float64{1, 2, 3})
			Expect(fmu.IsRecoverable(err)).To(BeTrue())
			Expect(in.Inputs()).To(Equal([]float64{1, 2, 0}))
			Expect(in.Stats("ctrl").Group("ctrl")).To(Equal([]float64{2, 0}))
		})

		It("rejects unknown groups and wrong lengths", func() {
			Expect(in.SetInputGroup("nope", nil)).To(MatchError(fmu.ErrUnknownGroup))
			Expect(in.GetOutputGroup("nope", nil)).To(MatchError(fmu.ErrUnknownGroup))
			Expect(in.SetInputs([]float64{1})).To(MatchError(fmu.ErrLengthMismatch))
			Expect(in.GetOutputs(make([]float64, 5))).To(MatchError(fmu.ErrLengthMismatch))
		})
	})

	Context("with a string input", func() {
		BeforeEach(func() {
			m.Scheme.Groups["ctrl"] = []int{2, 5}
		})

		It("rejects numeric access", func() {
			Expect(in.SetInputGroup("ctrl", []float64{1, 2})).To(MatchError(fmu.ErrNotNumeric))
		})
	})
})
