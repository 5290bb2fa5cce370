// Package fmitest provides an in-memory unit for exercising the driver
// without a native binary.
package fmitest

import (
	"fmt"
	"sync"

	"github.com/san-kum/fmusim/internal/fmi"
)

// Fake is an instrumented unit. Values live per instance and start from the
// Start* maps on instantiate and reset. Outputs listed in Linear are computed
// as Offset[y] + sum(Linear[y][x] * x) over real values.
type Fake struct {
	StartReals   map[uint32]float64
	StartInts    map[uint32]int32
	StartBools   map[uint32]bool
	StartStrings map[uint32]string

	Linear map[uint32]map[uint32]float64
	Offset map[uint32]float64

	// Fail makes the named entry point return the given status.
	Fail map[string]fmi.Status

	FailInstantiate bool
	NoFree          bool
	Directional     bool
	Adjoint         bool

	mu        sync.Mutex
	next      fmi.Instance
	instances map[fmi.Instance]*instance
	calls     []string

	instantiated int
	freed        int

	lastParams fmi.InstantiateParams
	lastInit   InitArgs
}

// InitArgs are the arguments of the last enter-initialization call.
type InitArgs struct {
	ToleranceDefined bool
	Tolerance        float64
	StartTime        float64
	StopTimeDefined  bool
	StopTime         float64
}

type instance struct {
	reals   map[uint32]float64
	ints    map[uint32]int32
	bools   map[uint32]bool
	strings map[uint32]string
}

func New() *Fake {
	return &Fake{
		StartReals:   map[uint32]float64{},
		StartInts:    map[uint32]int32{},
		StartBools:   map[uint32]bool{},
		StartStrings: map[uint32]string{},
		Linear:       map[uint32]map[uint32]float64{},
		Offset:       map[uint32]float64{},
		Fail:         map[string]fmi.Status{},
		instances:    map[fmi.Instance]*instance{},
	}
}

func (f *Fake) Capabilities() fmi.Capabilities {
	return fmi.Capabilities{DirectionalDerivatives: f.Directional, AdjointDerivatives: f.Adjoint}
}

// Live returns the number of instantiated instances not yet freed.
func (f *Fake) Live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.instances)
}

func (f *Fake) Instantiated() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.instantiated
}

func (f *Fake) Freed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.freed
}

// Calls returns the entry points invoked so far, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *Fake) Count(name string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == name {
			n++
		}
	}
	return n
}

func (f *Fake) LastParams() fmi.InstantiateParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastParams
}

func (f *Fake) LastInit() InitArgs {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastInit
}

// Real returns the current real value of vr in inst.
func (f *Fake) Real(inst fmi.Instance, vr uint32) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.instances[inst].reals[vr]
}

func (f *Fake) Bool(inst fmi.Instance, vr uint32) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.instances[inst].bools[vr]
}

func (f *Fake) Text(inst fmi.Instance, vr uint32) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.instances[inst].strings[vr]
}

func (f *Fake) enter(name string) (fmi.Status, bool) {
	f.calls = append(f.calls, name)
	if st, ok := f.Fail[name]; ok {
		return st, true
	}
	return fmi.StatusOK, false
}

func (f *Fake) fresh(inst *instance) {
	inst.reals = copyMap(f.StartReals)
	inst.ints = copyMap(f.StartInts)
	inst.bools = copyMap(f.StartBools)
	inst.strings = copyMap(f.StartStrings)
}

func (f *Fake) live(inst fmi.Instance) (*instance, error) {
	in, ok := f.instances[inst]
	if !ok {
		return nil, fmt.Errorf("fmitest: unknown instance %d", inst)
	}
	return in, nil
}

func (f *Fake) instantiate(p fmi.InstantiateParams) fmi.Instance {
	f.mu.Lock()
	f.calls = append(f.calls, fmi.SymInstantiateModelExchange)
	f.lastParams = p
	if f.FailInstantiate {
		f.mu.Unlock()
		return 0
	}
	f.next++
	h := f.next
	in := &instance{}
	f.fresh(in)
	f.instances[h] = in
	f.instantiated++
	f.mu.Unlock()

	if p.LoggingOn {
		fmi.Forward(p.Environment, fmi.StatusOK, "logEvents", "instantiated "+p.InstanceName)
	}
	return h
}

func (f *Fake) free(inst fmi.Instance) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmi.SymFreeInstance)
	if _, ok := f.instances[inst]; ok {
		delete(f.instances, inst)
		f.freed++
	}
}

func (f *Fake) mode(name string) func(fmi.Instance) fmi.Status {
	return func(inst fmi.Instance) fmi.Status {
		f.mu.Lock()
		defer f.mu.Unlock()
		if st, failed := f.enter(name); failed {
			return st
		}
		in, err := f.live(inst)
		if err != nil {
			return fmi.StatusFatal
		}
		if name == fmi.SymReset {
			f.fresh(in)
		}
		return fmi.StatusOK
	}
}

func (f *Fake) enterInit(inst fmi.Instance, tolDefined bool, tol, start float64, stopDefined bool, stop float64) fmi.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastInit = InitArgs{tolDefined, tol, start, stopDefined, stop}
	if st, failed := f.enter(fmi.SymEnterInitializationMode); failed {
		return st
	}
	if _, err := f.live(inst); err != nil {
		return fmi.StatusFatal
	}
	return fmi.StatusOK
}

func (f *Fake) output(in *instance, vr uint32) (float64, bool) {
	coeffs, ok := f.Linear[vr]
	if !ok {
		return 0, false
	}
	y := f.Offset[vr]
	for x, a := range coeffs {
		y += a * in.reals[x]
	}
	return y, true
}

func getter[T any](f *Fake, name string, pick func(*instance) map[uint32]T) func(fmi.Instance, []fmi.ValueReference, []T) fmi.Status {
	return func(inst fmi.Instance, vrs []fmi.ValueReference, values []T) fmi.Status {
		f.mu.Lock()
		defer f.mu.Unlock()
		if st, failed := f.enter(name); failed {
			return st
		}
		in, err := f.live(inst)
		if err != nil || len(vrs) != len(values) {
			return fmi.StatusError
		}
		m := pick(in)
		for i, vr := range vrs {
			values[i] = m[vr]
		}
		return fmi.StatusOK
	}
}

func setter[T any](f *Fake, name string, pick func(*instance) map[uint32]T) func(fmi.Instance, []fmi.ValueReference, []T) fmi.Status {
	return func(inst fmi.Instance, vrs []fmi.ValueReference, values []T) fmi.Status {
		f.mu.Lock()
		defer f.mu.Unlock()
		if st, failed := f.enter(name); failed {
			return st
		}
		in, err := f.live(inst)
		if err != nil || len(vrs) != len(values) {
			return fmi.StatusError
		}
		m := pick(in)
		for i, vr := range vrs {
			m[vr] = values[i]
		}
		return fmi.StatusOK
	}
}

func (f *Fake) getFloat64(inst fmi.Instance, vrs []fmi.ValueReference, values []float64) fmi.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	if st, failed := f.enter(fmi.SymGetFloat64); failed {
		return st
	}
	in, err := f.live(inst)
	if err != nil || len(vrs) != len(values) {
		return fmi.StatusError
	}
	for i, vr := range vrs {
		if y, ok := f.output(in, vr); ok {
			values[i] = y
		} else {
			values[i] = in.reals[vr]
		}
	}
	return fmi.StatusOK
}

// derivative returns d(unknown)/d(known) of the linear model.
func (f *Fake) derivative(unknown, known uint32) float64 {
	return f.Linear[unknown][known]
}

func (f *Fake) directional(inst fmi.Instance, unknowns, knowns []fmi.ValueReference, seed, sens []float64) fmi.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	if st, failed := f.enter(fmi.SymGetDirectionalDerivative); failed {
		return st
	}
	if _, err := f.live(inst); err != nil || len(seed) != len(knowns) || len(sens) != len(unknowns) {
		return fmi.StatusError
	}
	for i, u := range unknowns {
		sens[i] = 0
		for j, k := range knowns {
			sens[i] += f.derivative(u, k) * seed[j]
		}
	}
	return fmi.StatusOK
}

func (f *Fake) adjoint(inst fmi.Instance, unknowns, knowns []fmi.ValueReference, seed, sens []float64) fmi.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	if st, failed := f.enter(fmi.SymGetAdjointDerivative); failed {
		return st
	}
	if _, err := f.live(inst); err != nil || len(seed) != len(unknowns) || len(sens) != len(knowns) {
		return fmi.StatusError
	}
	for j, k := range knowns {
		sens[j] = 0
		for i, u := range unknowns {
			sens[j] += seed[i] * f.derivative(u, k)
		}
	}
	return fmi.StatusOK
}

// Table returns an entry-point table backed by f.
func (f *Fake) Table() *fmi.Table {
	t := &fmi.Table{
		InstantiateModelExchange: f.instantiate,
		Reset:                    f.mode(fmi.SymReset),
		EnterInitializationMode:  f.enterInit,
		ExitInitializationMode:   f.mode(fmi.SymExitInitializationMode),
		EnterContinuousTimeMode:  f.mode(fmi.SymEnterContinuousTimeMode),

		GetFloat64: f.getFloat64,
		SetFloat64: setter(f, fmi.SymSetFloat64, func(in *instance) map[uint32]float64 { return in.reals }),
		GetInt32:   getter(f, fmi.SymGetInt32, func(in *instance) map[uint32]int32 { return in.ints }),
		SetInt32:   setter(f, fmi.SymSetInt32, func(in *instance) map[uint32]int32 { return in.ints }),
		GetBoolean: getter(f, fmi.SymGetBoolean, func(in *instance) map[uint32]bool { return in.bools }),
		SetBoolean: setter(f, fmi.SymSetBoolean, func(in *instance) map[uint32]bool { return in.bools }),
		GetString:  getter(f, fmi.SymGetString, func(in *instance) map[uint32]string { return in.strings }),
		SetString:  setter(f, fmi.SymSetString, func(in *instance) map[uint32]string { return in.strings }),
	}
	if !f.NoFree {
		t.FreeInstance = fmi.Some(f.free)
	}
	if f.Directional {
		t.GetDirectionalDerivative = fmi.Some[fmi.DerivativeFunc](f.directional)
	}
	if f.Adjoint {
		t.GetAdjointDerivative = fmi.Some[fmi.DerivativeFunc](f.adjoint)
	}
	return t
}

func copyMap[T any](m map[uint32]T) map[uint32]T {
	out := make(map[uint32]T, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
