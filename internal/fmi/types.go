package fmi

import "fmt"

type ValueReference = uint32

// Instance is the opaque handle returned by the instantiate entry point.
type Instance uintptr

// Status is the return code of every entry point.
type Status int32

const (
	StatusOK Status = iota
	StatusWarning
	StatusDiscard
	StatusError
	StatusFatal
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarning:
		return "warning"
	case StatusDiscard:
		return "discard"
	case StatusError:
		return "error"
	case StatusFatal:
		return "fatal"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// Capabilities are the optional features a model declares.
type Capabilities struct {
	DirectionalDerivatives bool
	AdjointDerivatives     bool
}

// Optional holds an entry point that may not have been resolved.
type Optional[F any] struct {
	fn F
	ok bool
}

func Some[F any](fn F) Optional[F] {
	return Optional[F]{fn: fn, ok: true}
}

func (o Optional[F]) Get() (F, bool) {
	return o.fn, o.ok
}

func (o Optional[F]) Resolved() bool {
	return o.ok
}

// InstantiateParams are passed to the model-exchange instantiate entry point.
// Environment identifies the logger registered with RegisterLogger.
type InstantiateParams struct {
	InstanceName       string
	InstantiationToken string
	ResourcePath       string
	Visible            bool
	LoggingOn          bool
	Environment        uintptr
}

// DerivativeFunc evaluates a directional or adjoint derivative.
// For directional derivatives seed runs over knowns and sensitivity over
// unknowns; adjoint derivatives swap the two.
type DerivativeFunc func(inst Instance, unknowns, knowns []ValueReference, seed, sensitivity []float64) Status

// Table is the resolved entry-point table of a unit. It is read-only after
// setup and may be shared between goroutines driving distinct instances.
type Table struct {
	InstantiateModelExchange func(p InstantiateParams) Instance
	FreeInstance             Optional[func(inst Instance)]

	Reset                   func(inst Instance) Status
	EnterInitializationMode func(inst Instance, toleranceDefined bool, tolerance, startTime float64, stopTimeDefined bool, stopTime float64) Status
	ExitInitializationMode  func(inst Instance) Status
	EnterContinuousTimeMode func(inst Instance) Status

	GetFloat64 func(inst Instance, vrs []ValueReference, values []float64) Status
	SetFloat64 func(inst Instance, vrs []ValueReference, values []float64) Status
	GetInt32   func(inst Instance, vrs []ValueReference, values []int32) Status
	SetInt32   func(inst Instance, vrs []ValueReference, values []int32) Status
	GetBoolean func(inst Instance, vrs []ValueReference, values []bool) Status
	SetBoolean func(inst Instance, vrs []ValueReference, values []bool) Status
	GetString  func(inst Instance, vrs []ValueReference, values []string) Status
	SetString  func(inst Instance, vrs []ValueReference, values []string) Status

	GetDirectionalDerivative Optional[DerivativeFunc]
	GetAdjointDerivative     Optional[DerivativeFunc]
}

// Capabilities reports which optional derivative entry points are resolved.
func (t *Table) Capabilities() Capabilities {
	return Capabilities{
		DirectionalDerivatives: t.GetDirectionalDerivative.Resolved(),
		AdjointDerivatives:     t.GetAdjointDerivative.Resolved(),
	}
}

// Validate checks a hand-built table the same way Open checks a native one.
// A missing free-instance entry point is tolerated.
func (t *Table) Validate(caps Capabilities) error {
	present := map[string]bool{
		SymInstantiateModelExchange: t.InstantiateModelExchange != nil,
		SymFreeInstance:             true,
		SymReset:                    t.Reset != nil,
		SymEnterInitializationMode:  t.EnterInitializationMode != nil,
		SymExitInitializationMode:   t.ExitInitializationMode != nil,
		SymEnterContinuousTimeMode:  t.EnterContinuousTimeMode != nil,
		SymGetFloat64:               t.GetFloat64 != nil,
		SymSetFloat64:               t.SetFloat64 != nil,
		SymGetInt32:                 t.GetInt32 != nil,
		SymSetInt32:                 t.SetInt32 != nil,
		SymGetBoolean:               t.GetBoolean != nil,
		SymSetBoolean:               t.SetBoolean != nil,
		SymGetString:                t.GetString != nil,
		SymSetString:                t.SetString != nil,
		SymGetDirectionalDerivative: t.GetDirectionalDerivative.Resolved(),
		SymGetAdjointDerivative:     t.GetAdjointDerivative.Resolved(),
	}
	_, err := resolve("", tableSymbols(present), caps)
	return err
}

type tableSymbols map[string]bool

func (s tableSymbols) Lookup(name string) (uintptr, error) {
	if !s[name] {
		return 0, fmt.Errorf("%s not set", name)
	}
	return 1, nil
}

func (s tableSymbols) Close() error { return nil }
