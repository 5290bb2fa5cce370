package fmu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/fmusim/internal/fmi"
	"github.com/san-kum/fmusim/internal/fmi/fmitest"
	"github.com/san-kum/fmusim/internal/fmu"
)

var _ = Describe("Auxiliary collection", func() {
	var (
		fake *fmitest.Fake
		d    *fmu.Driver
		in   *fmu.Instance
	)

	BeforeEach(func() {
		fake = demoFake()
		var err error
		d, err = fmu.New(demoModel(), fmu.Options{Table: fake.Table()})
		Expect(err).NotTo(HaveOccurred())
		in = d.NewInstance()
	})

	AfterEach(func() {
		in.Free()
	})

	It("requires a live instance", func() {
		Expect(in.CollectAux()).To(MatchError(fmu.ErrPrecondition))
	})

	It("reads every type class with the get entry points", func() {
		Expect(in.Evaluate([]float64{1, 2, 3}, make([]float64, 2))).To(Succeed())
		setStrings := fake.Count(fmi.SymSetString)

		Expect(in.CollectAux()).To(Succeed())
		Expect(fake.Count(fmi.SymGetString)).To(Equal(1))
		Expect(fake.Count(fmi.SymSetString)).To(Equal(setStrings))

		aux := d.Aux()
		Expect(aux.Real).To(Equal([]float64{2, 0.25}))
		Expect(aux.Integer).To(Equal([]int32{7}))
		Expect(aux.Boolean).To(Equal([]bool{true}))
		Expect(aux.String).To(Equal([]string{"ready"}))
	})

	It("reports aux values and input groups", func() {
		Expect(in.Evaluate([]float64{1, 2, 3}, make([]float64, 2))).To(Succeed())

		stats, err := in.Snapshot()
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Aux()).To(Equal(map[string]any{
			"p":    2.0,
			"gain": 0.25,
			"k":    int32(7),
			"flag": true,
			"tag":  "ready",
		}))
		Expect(stats.Group("state")).To(Equal([]float64{1}))
		Expect(stats.Group("ctrl")).To(Equal([]float64{2, 3}))

		only := in.Stats("ctrl", "missing")
		Expect(only).To(HaveKey("ctrl"))
		Expect(only).NotTo(HaveKey("state"))
		Expect(only).NotTo(HaveKey("missing"))
	})

	It("is fatal when string retrieval fails", func() {
		Expect(in.Instantiate()).To(Succeed())
		fake.Fail[fmi.SymGetString] = fmi.StatusError
		err := in.CollectAux()
		Expect(err).To(HaveOccurred())
		Expect(fmu.IsRecoverable(err)).To(BeFalse())
	})
})
