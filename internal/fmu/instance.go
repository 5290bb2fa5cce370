package fmu

import (
	"github.com/san-kum/fmusim/internal/fmi"
	"go.uber.org/zap"
)

// Instance drives one native instance through its lifecycle. It is not safe
// for concurrent use.
type Instance struct {
	d       *Driver
	name    string
	log     *zap.Logger
	handle  fmi.Instance
	state   State
	release func()

	// last input values in dense input order
	inputs []float64
}

func (in *Instance) Name() string         { return in.name }
func (in *Instance) State() State         { return in.state }
func (in *Instance) Handle() fmi.Instance { return in.handle }
func (in *Instance) Driver() *Driver      { return in.d }

func (in *Instance) require(op string, allowed ...State) error {
	for _, s := range allowed {
		if in.state == s {
			return nil
		}
	}
	return &TransitionError{Op: op, State: in.state, Allowed: allowed}
}

// check converts a status into an error. Warnings are logged and succeed.
func (in *Instance) check(op string, st fmi.Status) error {
	switch st {
	case fmi.StatusOK:
		return nil
	case fmi.StatusWarning:
		in.log.Warn("entry point warning", zap.String("op", op))
		return nil
	case fmi.StatusFatal:
		in.log.Error("entry point failed", zap.String("op", op), zap.Stringer("status", st))
		return &FatalError{Op: op, Status: st, Wrapped: ErrStatus}
	default:
		in.log.Warn("entry point failed", zap.String("op", op), zap.Stringer("status", st))
		return &StatusError{Op: op, Status: st}
	}
}

// checkFatal is check for calls whose failure leaves the instance unusable.
func (in *Instance) checkFatal(op string, st fmi.Status) error {
	if err := in.check(op, st); err != nil {
		return &FatalError{Op: op, Status: st, Wrapped: ErrStatus}
	}
	return nil
}

// Instantiate creates the native instance.
func (in *Instance) Instantiate() error {
	if err := in.require("instantiate", Unloaded); err != nil {
		return err
	}

	env, release := fmi.RegisterLogger(in.log)
	m := in.d.model
	h := in.d.table.InstantiateModelExchange(fmi.InstantiateParams{
		InstanceName:       in.name,
		InstantiationToken: m.InstantiationToken,
		ResourcePath:       in.d.resources,
		Visible:            false,
		LoggingOn:          m.Debug,
		Environment:        env,
	})
	if h == 0 {
		release()
		return &FatalError{Op: in.name, Wrapped: ErrInstantiate}
	}

	in.handle = h
	in.release = release
	in.state = Instantiated
	copy(in.inputs, in.d.start)
	in.log.Debug("instantiated")
	return nil
}

// SetValues pushes the start values of parameters and inputs. Real, integer
// and boolean failures are recoverable; a string failure is fatal.
func (in *Instance) SetValues() error {
	if err := in.require("setValues", Instantiated); err != nil {
		return err
	}
	t := in.d.table
	b := &in.d.index.Init

	if b.Real.Len() > 0 {
		if err := in.check("setFloat64", t.SetFloat64(in.handle, b.Real.Refs, b.Real.Values)); err != nil {
			return err
		}
	}
	if b.Integer.Len() > 0 {
		if err := in.check("setInt32", t.SetInt32(in.handle, b.Integer.Refs, b.Integer.Values)); err != nil {
			return err
		}
	}
	if b.Boolean.Len() > 0 {
		if err := in.check("setBoolean", t.SetBoolean(in.handle, b.Boolean.Refs, b.Boolean.Values)); err != nil {
			return err
		}
	}
	for k, vr := range b.String.Refs {
		st := t.SetString(in.handle, b.String.Refs[k:k+1], b.String.Values[k:k+1])
		if err := in.checkFatal("setString", st); err != nil {
			in.log.Error("string start value rejected", zap.Uint32("vr", vr))
			return err
		}
	}
	return nil
}

// EnterInitializationMode enters initialization over the unit interval with
// the model tolerance, if positive.
func (in *Instance) EnterInitializationMode() error {
	if err := in.require("enterInitializationMode", Instantiated); err != nil {
		return err
	}
	tol := in.d.model.Tolerance
	st := in.d.table.EnterInitializationMode(in.handle, tol > 0, tol, 0, true, 1)
	if err := in.check("enterInitializationMode", st); err != nil {
		return err
	}
	in.state = InitializationMode
	return nil
}

// ExitInitializationMode leaves initialization and enters continuous-time mode.
func (in *Instance) ExitInitializationMode() error {
	if err := in.require("exitInitializationMode", InitializationMode); err != nil {
		return err
	}
	t := in.d.table
	if err := in.check("exitInitializationMode", t.ExitInitializationMode(in.handle)); err != nil {
		return err
	}
	if err := in.check("enterContinuousTimeMode", t.EnterContinuousTimeMode(in.handle)); err != nil {
		return err
	}
	in.state = ContinuousTimeMode
	return nil
}

// Reset returns the instance to the instantiated state so that start values
// and initialization can be run again without re-instantiating.
func (in *Instance) Reset() error {
	if err := in.require("reset", InitializationMode, ContinuousTimeMode); err != nil {
		return err
	}
	if err := in.check("reset", in.d.table.Reset(in.handle)); err != nil {
		return err
	}
	in.state = Instantiated
	copy(in.inputs, in.d.start)
	return nil
}

// Free releases the native instance. It is safe to call more than once and
// on instances that were never instantiated.
func (in *Instance) Free() {
	if !in.state.Live() {
		return
	}

	if free, ok := in.d.table.FreeInstance.Get(); ok {
		free(in.handle)
	} else {
		in.log.Warn("free-instance entry point missing, abandoning handle")
	}
	if in.release != nil {
		in.release()
		in.release = nil
	}
	in.handle = 0
	in.state = Freed
	in.log.Debug("freed")
}
