package fmu_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/fmusim/internal/fmi"
	"github.com/san-kum/fmusim/internal/fmi/fmitest"
	"github.com/san-kum/fmusim/internal/fmu"
	"github.com/san-kum/fmusim/internal/model"
	"github.com/san-kum/fmusim/internal/scheme"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var _ = Describe("Driver setup", func() {
	It("rejects a declared capability the table does not provide", func() {
		m := demoModel()
		m.ProvidesDirectionalDerivatives = true

		d, err := fmu.New(m, fmu.Options{Table: demoFake().Table()})
		Expect(d).To(BeNil())
		Expect(errors.Is(err, fmi.ErrCapabilityViolation)).To(BeTrue())
	})

	It("aborts on scheme configuration errors", func() {
		m := demoModel()
		m.Scheme.Groups["ctrl"] = []int{2, 1}

		_, err := fmu.New(m, fmu.Options{Table: demoFake().Table()})
		Expect(err).To(MatchError(scheme.ErrDuplicateVariable))
		Expect(err.Error()).To(ContainSubstring("x"))
	})

	It("fails to load a missing binary", func() {
		m := demoModel()
		m.Path = GinkgoT().TempDir()

		_, err := fmu.New(m, fmu.Options{})
		Expect(err).To(HaveOccurred())
	})

	It("hides optional entry points the model does not declare", func() {
		f := demoFake()
		f.Directional = true

		d, err := fmu.New(demoModel(), fmu.Options{Table: f.Table()})
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Capabilities().DirectionalDerivatives).To(BeFalse())
	})
})

var _ = Describe("Instance lifecycle", func() {
	var (
		m    *model.Model
		fake *fmitest.Fake
		d    *fmu.Driver
		in   *fmu.Instance
		logs *observer.ObservedLogs
	)

	build := func() {
		var core zapcore.Core
		core, logs = observer.New(zapcore.DebugLevel)
		var err error
		d, err = fmu.New(m, fmu.Options{Table: fake.Table(), Logger: zap.New(core)})
		Expect(err).NotTo(HaveOccurred())
		in = d.NewInstance()
	}

	BeforeEach(func() {
		m = demoModel()
		fake = demoFake()
	})

	Context("instantiate and free", func() {
		BeforeEach(build)

		It("leaves nothing leaked", func() {
			Expect(in.State()).To(Equal(fmu.Unloaded))
			Expect(in.Instantiate()).To(Succeed())
			Expect(in.State()).To(Equal(fmu.Instantiated))
			Expect(fake.Live()).To(Equal(1))

			in.Free()
			Expect(in.State()).To(Equal(fmu.Freed))
			Expect(fake.Live()).To(Equal(0))
			Expect(fake.Instantiated()).To(Equal(1))
			Expect(fake.Freed()).To(Equal(1))
		})

		It("frees exactly once", func() {
			Expect(in.Instantiate()).To(Succeed())
			in.Free()
			in.Free()
			Expect(fake.Count(fmi.SymFreeInstance)).To(Equal(1))
		})

		It("does nothing when freeing an unloaded instance", func() {
			in.Free()
			Expect(in.State()).To(Equal(fmu.Unloaded))
			Expect(fake.Calls()).To(BeEmpty())
		})

		It("passes the instantiation parameters", func() {
			Expect(in.Instantiate()).To(Succeed())
			p := fake.LastParams()
			Expect(p.InstanceName).To(Equal(in.Name()))
			Expect(p.InstantiationToken).To(Equal(m.InstantiationToken))
			Expect(p.ResourcePath).To(Equal("file:///models/demo/resources"))
			Expect(p.Visible).To(BeFalse())
			Expect(p.LoggingOn).To(BeFalse())
			in.Free()
		})

		It("rejects a second instantiate", func() {
			Expect(in.Instantiate()).To(Succeed())
			Expect(in.Instantiate()).To(MatchError(fmu.ErrPrecondition))
			Expect(fake.Instantiated()).To(Equal(1))
			in.Free()
		})
	})

	Context("when the unit returns a null instance", func() {
		BeforeEach(func() {
			fake.FailInstantiate = true
			build()
		})

		It("fails fatally and stays unloaded", func() {
			err := in.Instantiate()
			Expect(err).To(MatchError(fmu.ErrInstantiate))
			Expect(fmu.IsRecoverable(err)).To(BeFalse())

			var fe *fmu.FatalError
			Expect(errors.As(err, &fe)).To(BeTrue())
			Expect(in.State()).To(Equal(fmu.Unloaded))
		})

		It("makes With return the error without freeing anything", func() {
			called := false
			err := d.With(func(*fmu.Instance) error {
				called = true
				return nil
			})
			Expect(err).To(MatchError(fmu.ErrInstantiate))
			Expect(called).To(BeFalse())
			Expect(fake.Count(fmi.SymFreeInstance)).To(Equal(0))
		})
	})

	Context("out-of-order calls", func() {
		BeforeEach(build)

		It("rejects enterInitializationMode before instantiate", func() {
			err := in.EnterInitializationMode()
			Expect(err).To(MatchError(fmu.ErrPrecondition))

			var te *fmu.TransitionError
			Expect(errors.As(err, &te)).To(BeTrue())
			Expect(te.State).To(Equal(fmu.Unloaded))
			Expect(fake.Calls()).To(BeEmpty())
		})

		It("rejects exitInitializationMode before enterInitializationMode", func() {
			Expect(in.Instantiate()).To(Succeed())
			Expect(in.ExitInitializationMode()).To(MatchError(fmu.ErrPrecondition))
			Expect(fake.Count(fmi.SymExitInitializationMode)).To(Equal(0))
			in.Free()
		})

		It("rejects setValues outside the instantiated state", func() {
			Expect(in.SetValues()).To(MatchError(fmu.ErrPrecondition))
			Expect(in.Instantiate()).To(Succeed())
			Expect(in.EnterInitializationMode()).To(Succeed())
			Expect(in.SetValues()).To(MatchError(fmu.ErrPrecondition))
			in.Free()
		})

		It("rejects reset before initialization", func() {
			Expect(in.Instantiate()).To(Succeed())
			Expect(in.Reset()).To(MatchError(fmu.ErrPrecondition))
			in.Free()
		})

		It("rejects every operation after free", func() {
			Expect(in.Instantiate()).To(Succeed())
			in.Free()
			Expect(in.EnterInitializationMode()).To(MatchError(fmu.ErrPrecondition))
			Expect(in.GetReal([]uint32{1}, make([]float64, 1))).To(MatchError(fmu.ErrPrecondition))
		})
	})

	Context("mode transitions", func() {
		BeforeEach(func() {
			m.Tolerance = 1e-6
			build()
			Expect(in.Instantiate()).To(Succeed())
		})

		AfterEach(func() {
			in.Free()
			Expect(fake.Live()).To(Equal(0))
		})

		It("enters initialization over the unit interval", func() {
			Expect(in.EnterInitializationMode()).To(Succeed())
			Expect(in.State()).To(Equal(fmu.InitializationMode))
			Expect(fake.LastInit()).To(Equal(fmitest.InitArgs{
				ToleranceDefined: true,
				Tolerance:        1e-6,
				StartTime:        0,
				StopTimeDefined:  true,
				StopTime:         1,
			}))
		})

		It("enters continuous-time mode on exit", func() {
			Expect(in.EnterInitializationMode()).To(Succeed())
			Expect(in.ExitInitializationMode()).To(Succeed())
			Expect(in.State()).To(Equal(fmu.ContinuousTimeMode))

			calls := fake.Calls()
			Expect(calls[len(calls)-2:]).To(Equal([]string{
				fmi.SymExitInitializationMode,
				fmi.SymEnterContinuousTimeMode,
			}))
		})

		It("resets back to the instantiated state", func() {
			Expect(in.EnterInitializationMode()).To(Succeed())
			Expect(in.ExitInitializationMode()).To(Succeed())
			Expect(in.SetReal([]uint32{40}, []float64{9})).To(Succeed())

			Expect(in.Reset()).To(Succeed())
			Expect(in.State()).To(Equal(fmu.Instantiated))
			Expect(fake.Real(in.Handle(), 40)).To(Equal(0.25))

			Expect(in.SetValues()).To(Succeed())
			Expect(in.EnterInitializationMode()).To(Succeed())
		})

		It("reports a failed transition as recoverable", func() {
			fake.Fail[fmi.SymExitInitializationMode] = fmi.StatusDiscard
			Expect(in.EnterInitializationMode()).To(Succeed())

			err := in.ExitInitializationMode()
			Expect(err).To(MatchError(fmu.ErrStatus))
			Expect(fmu.IsRecoverable(err)).To(BeTrue())
			Expect(in.State()).To(Equal(fmu.InitializationMode))
			Expect(logs.FilterMessage("entry point failed").Len()).To(Equal(1))
		})

		It("treats a warning status as success", func() {
			fake.Fail[fmi.SymEnterInitializationMode] = fmi.StatusWarning
			Expect(in.EnterInitializationMode()).To(Succeed())
			Expect(in.State()).To(Equal(fmu.InitializationMode))

			warned := logs.FilterMessage("entry point warning").FilterLevelExact(zapcore.WarnLevel)
			Expect(warned.Len()).To(Equal(1))
		})

		It("reports a fatal status as unrecoverable", func() {
			fake.Fail[fmi.SymReset] = fmi.StatusFatal
			Expect(in.EnterInitializationMode()).To(Succeed())

			err := in.Reset()
			var fe *fmu.FatalError
			Expect(errors.As(err, &fe)).To(BeTrue())
			Expect(fe.Status).To(Equal(fmi.StatusFatal))
			Expect(fmu.IsRecoverable(err)).To(BeFalse())
		})
	})

	Context("without a free-instance entry point", func() {
		BeforeEach(func() {
			fake.NoFree = true
			build()
		})

		It("warns and abandons the handle", func() {
			Expect(in.Instantiate()).To(Succeed())
			in.Free()
			Expect(in.State()).To(Equal(fmu.Freed))
			Expect(fake.Live()).To(Equal(1))
			Expect(logs.FilterMessageSnippet("free-instance entry point missing").Len()).To(Equal(1))
		})
	})

	Context("scope guard", func() {
		BeforeEach(build)

		It("frees on the error path", func() {
			boom := errors.New("boom")
			err := d.With(func(in *fmu.Instance) error {
				Expect(in.State()).To(Equal(fmu.Instantiated))
				return boom
			})
			Expect(err).To(MatchError(boom))
			Expect(fake.Live()).To(Equal(0))
			Expect(fake.Freed()).To(Equal(1))
		})

		It("frees on the success path", func() {
			Expect(d.With(func(in *fmu.Instance) error {
				return in.EnterInitializationMode()
			})).To(Succeed())
			Expect(fake.Live()).To(Equal(0))
		})
	})

	Context("native logging", func() {
		BeforeEach(func() {
			m.Debug = true
			build()
		})

		It("forwards messages to the injected logger", func() {
			Expect(in.Instantiate()).To(Succeed())
			Expect(fake.LastParams().LoggingOn).To(BeTrue())

			entries := logs.FilterMessage("instantiated " + in.Name()).All()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].ContextMap()).To(HaveKeyWithValue("category", "logEvents"))
			in.Free()
		})
	})
})
