package fmu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/fmusim/internal/fmi"
)

var (
	// ErrPrecondition indicates an operation called out of order or with bad arguments.
	ErrPrecondition = errors.New("fmu: precondition violated")

	// ErrLengthMismatch indicates value-reference and value slices of different lengths.
	ErrLengthMismatch = fmt.Errorf("%w: length mismatch", ErrPrecondition)

	// ErrNoDirectionalDerivative indicates the model does not provide directional derivatives.
	ErrNoDirectionalDerivative = fmt.Errorf("%w: directional derivatives not provided", ErrPrecondition)

	// ErrNoAdjointDerivative indicates the model does not provide adjoint derivatives.
	ErrNoAdjointDerivative = fmt.Errorf("%w: adjoint derivatives not provided", ErrPrecondition)

	// ErrUnknownGroup indicates a group name missing from the scheme.
	ErrUnknownGroup = fmt.Errorf("%w: unknown group", ErrPrecondition)

	// ErrNotNumeric indicates a string variable addressed through a numeric group.
	ErrNotNumeric = fmt.Errorf("%w: string variable in numeric group", ErrPrecondition)

	// ErrInstantiate indicates the unit returned a null instance.
	ErrInstantiate = errors.New("fmu: instantiate failed")

	// ErrStatus indicates an entry point returned a non-ok status.
	ErrStatus = errors.New("fmu: entry point failed")
)

// TransitionError reports a lifecycle operation called in the wrong state.
type TransitionError struct {
	Op      string
	State   State
	Allowed []State
}

func (e *TransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = s.String()
	}
	return fmt.Sprintf("fmu: %s not allowed in state %s (want %s)", e.Op, e.State, strings.Join(allowed, " or "))
}

func (e *TransitionError) Unwrap() error {
	return ErrPrecondition
}

// StatusError is a recoverable non-ok status. The instance stays usable and
// the caller decides whether to retry, skip the point or abort.
type StatusError struct {
	Op     string
	Status fmi.Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fmu: %s returned %s", e.Op, e.Status)
}

func (e *StatusError) Unwrap() error {
	return ErrStatus
}

// FatalError is a failure after which the instance must be freed.
type FatalError struct {
	Op      string
	Status  fmi.Status
	Wrapped error
}

func (e *FatalError) Error() string {
	if errors.Is(e.Wrapped, ErrInstantiate) {
		return fmt.Sprintf("%v: %s", e.Wrapped, e.Op)
	}
	return fmt.Sprintf("fmu: %s returned %s (fatal)", e.Op, e.Status)
}

func (e *FatalError) Unwrap() error {
	return e.Wrapped
}

// IsRecoverable reports whether err leaves the instance usable.
func IsRecoverable(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}
