//go:build darwin || freebsd || (linux && (amd64 || arm64))

package fmi

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"go.uber.org/zap"
)

var (
	trampolineOnce sync.Once
	trampoline     uintptr
)

// logTrampoline returns the C function pointer handed to every instance as
// its log callback. Callbacks are never freed by purego, so it is created once.
func logTrampoline() uintptr {
	trampolineOnce.Do(func() {
		trampoline = purego.NewCallback(func(env, status, category, message uintptr) uintptr {
			Forward(env, Status(int32(status)), goString(category), goString(message))
			return 0
		})
	})
	return trampoline
}

type dlSymbols struct {
	handle uintptr
}

func (s *dlSymbols) Lookup(name string) (uintptr, error) {
	return purego.Dlsym(s.handle, name)
}

func (s *dlSymbols) Close() error {
	return purego.Dlclose(s.handle)
}

// Open loads the binary at path and resolves its entry points. Optional
// derivative entry points are resolved only when caps declares them.
func Open(path string, caps Capabilities, log *zap.Logger) (*Library, error) {
	if log == nil {
		log = zap.NewNop()
	}

	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpen, path, err)
	}
	sym := &dlSymbols{handle: handle}

	addrs, err := resolve(path, sym, caps)
	if err != nil {
		if cerr := sym.Close(); cerr != nil {
			log.Warn("closing library after failed resolve", zap.String("path", path), zap.Error(cerr))
		}
		return nil, err
	}

	log.Debug("library loaded",
		zap.String("path", path),
		zap.Bool("directional", caps.DirectionalDerivatives),
		zap.Bool("adjoint", caps.AdjointDerivatives),
	)
	return &Library{Path: path, Table: bind(addrs), sym: sym, log: log}, nil
}

type valueFunc func(inst uintptr, vrs unsafe.Pointer, nvr uintptr, values unsafe.Pointer, nvalues uintptr) int32

type derivativeFunc func(inst uintptr, unknowns unsafe.Pointer, nUnknowns uintptr, knowns unsafe.Pointer, nKnowns uintptr, seed unsafe.Pointer, nSeed uintptr, sensitivity unsafe.Pointer, nSensitivity uintptr) int32

func register[F any](addr uintptr) F {
	var fn F
	purego.RegisterFunc(&fn, addr)
	return fn
}

func bind(addrs map[string]uintptr) *Table {
	instantiate := register[func(name, token, resources string, visible, loggingOn bool, env, logger uintptr) uintptr](addrs[SymInstantiateModelExchange])
	enterInit := register[func(inst uintptr, toleranceDefined bool, tolerance, startTime float64, stopTimeDefined bool, stopTime float64) int32](addrs[SymEnterInitializationMode])

	t := &Table{
		InstantiateModelExchange: func(p InstantiateParams) Instance {
			return Instance(instantiate(p.InstanceName, p.InstantiationToken, p.ResourcePath, p.Visible, p.LoggingOn, p.Environment, logTrampoline()))
		},
		Reset:                   modeCall(addrs[SymReset]),
		ExitInitializationMode:  modeCall(addrs[SymExitInitializationMode]),
		EnterContinuousTimeMode: modeCall(addrs[SymEnterContinuousTimeMode]),
		EnterInitializationMode: func(inst Instance, toleranceDefined bool, tolerance, startTime float64, stopTimeDefined bool, stopTime float64) Status {
			return Status(enterInit(uintptr(inst), toleranceDefined, tolerance, startTime, stopTimeDefined, stopTime))
		},
		GetFloat64: valueCall[float64](addrs[SymGetFloat64]),
		SetFloat64: valueCall[float64](addrs[SymSetFloat64]),
		GetInt32:   valueCall[int32](addrs[SymGetInt32]),
		SetInt32:   valueCall[int32](addrs[SymSetInt32]),
		GetBoolean: valueCall[bool](addrs[SymGetBoolean]),
		SetBoolean: valueCall[bool](addrs[SymSetBoolean]),
		GetString:  getStrings(addrs[SymGetString]),
		SetString:  setStrings(addrs[SymSetString]),
	}

	if addr, ok := addrs[SymFreeInstance]; ok {
		free := register[func(inst uintptr)](addr)
		t.FreeInstance = Some(func(inst Instance) { free(uintptr(inst)) })
	}
	if addr, ok := addrs[SymGetDirectionalDerivative]; ok {
		t.GetDirectionalDerivative = Some(derivativeCall(addr))
	}
	if addr, ok := addrs[SymGetAdjointDerivative]; ok {
		t.GetAdjointDerivative = Some(derivativeCall(addr))
	}
	return t
}

func modeCall(addr uintptr) func(Instance) Status {
	fn := register[func(inst uintptr) int32](addr)
	return func(inst Instance) Status {
		return Status(fn(uintptr(inst)))
	}
}

// valueCall binds a typed batched get or set. Go's bool has the same
// one-byte layout as the C bool used for booleans.
func valueCall[T float64 | int32 | bool](addr uintptr) func(Instance, []ValueReference, []T) Status {
	fn := register[valueFunc](addr)
	return func(inst Instance, vrs []ValueReference, values []T) Status {
		st := fn(uintptr(inst), sliceData(vrs), uintptr(len(vrs)), sliceData(values), uintptr(len(values)))
		runtime.KeepAlive(vrs)
		runtime.KeepAlive(values)
		return Status(st)
	}
}

// getStrings copies the strings out before returning. The unit owns the
// returned memory only until its next call.
func getStrings(addr uintptr) func(Instance, []ValueReference, []string) Status {
	fn := register[valueFunc](addr)
	return func(inst Instance, vrs []ValueReference, values []string) Status {
		ptrs := make([]uintptr, len(values))
		st := fn(uintptr(inst), sliceData(vrs), uintptr(len(vrs)), sliceData(ptrs), uintptr(len(ptrs)))
		runtime.KeepAlive(vrs)
		if Status(st) == StatusOK || Status(st) == StatusWarning {
			for i, p := range ptrs {
				values[i] = goString(p)
			}
		}
		return Status(st)
	}
}

func setStrings(addr uintptr) func(Instance, []ValueReference, []string) Status {
	fn := register[valueFunc](addr)
	return func(inst Instance, vrs []ValueReference, values []string) Status {
		var pinner runtime.Pinner
		defer pinner.Unpin()

		ptrs := make([]uintptr, len(values))
		for i, s := range values {
			b := cBytes(s)
			pinner.Pin(&b[0])
			ptrs[i] = uintptr(unsafe.Pointer(&b[0]))
		}
		st := fn(uintptr(inst), sliceData(vrs), uintptr(len(vrs)), sliceData(ptrs), uintptr(len(ptrs)))
		runtime.KeepAlive(vrs)
		runtime.KeepAlive(ptrs)
		return Status(st)
	}
}

func derivativeCall(addr uintptr) DerivativeFunc {
	fn := register[derivativeFunc](addr)
	return func(inst Instance, unknowns, knowns []ValueReference, seed, sensitivity []float64) Status {
		st := fn(uintptr(inst),
			sliceData(unknowns), uintptr(len(unknowns)),
			sliceData(knowns), uintptr(len(knowns)),
			sliceData(seed), uintptr(len(seed)),
			sliceData(sensitivity), uintptr(len(sensitivity)),
		)
		runtime.KeepAlive(unknowns)
		runtime.KeepAlive(knowns)
		runtime.KeepAlive(seed)
		runtime.KeepAlive(sensitivity)
		return Status(st)
	}
}
