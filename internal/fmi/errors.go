package fmi

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOpen indicates the binary could not be loaded.
	ErrOpen = errors.New("fmi: cannot open binary")

	// ErrMissingSymbol indicates a mandatory entry point is not exported.
	ErrMissingSymbol = errors.New("fmi: missing entry point")

	// ErrCapabilityViolation indicates a declared capability whose entry point is not exported.
	ErrCapabilityViolation = errors.New("fmi: declared capability not exported")

	ErrUnsupportedPlatform = errors.New("fmi: native loading not supported on this platform")
)

// MissingSymbolsError lists every entry point that failed to resolve.
type MissingSymbolsError struct {
	Path       string
	Missing    []string
	Undeclared []string
}

func (e *MissingSymbolsError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("%v: %s", ErrMissingSymbol, strings.Join(e.Missing, ", ")))
	}
	if len(e.Undeclared) > 0 {
		parts = append(parts, fmt.Sprintf("%v: %s", ErrCapabilityViolation, strings.Join(e.Undeclared, ", ")))
	}
	msg := strings.Join(parts, "; ")
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	return msg
}

func (e *MissingSymbolsError) Unwrap() []error {
	var errs []error
	if len(e.Missing) > 0 {
		errs = append(errs, ErrMissingSymbol)
	}
	if len(e.Undeclared) > 0 {
		errs = append(errs, ErrCapabilityViolation)
	}
	return errs
}
