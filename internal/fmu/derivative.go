package fmu

import (
	"fmt"

	"github.com/san-kum/fmusim/internal/fmi"
)

// DirectionalDerivative computes sensitivity = J * seed where J is the
// Jacobian of unknowns with respect to knowns. seed runs over knowns and
// sensitivity over unknowns.
func (in *Instance) DirectionalDerivative(unknowns, knowns []uint32, seed, sensitivity []float64) error {
	fn, ok := in.d.table.GetDirectionalDerivative.Get()
	if !ok {
		return ErrNoDirectionalDerivative
	}
	return in.derivative("getDirectionalDerivative", fn, unknowns, knowns, seed, knowns, sensitivity, unknowns)
}

// AdjointDerivative computes sensitivity = seed^T * J. seed runs over
// unknowns and sensitivity over knowns.
func (in *Instance) AdjointDerivative(unknowns, knowns []uint32, seed, sensitivity []float64) error {
	fn, ok := in.d.table.GetAdjointDerivative.Get()
	if !ok {
		return ErrNoAdjointDerivative
	}
	return in.derivative("getAdjointDerivative", fn, unknowns, knowns, seed, unknowns, sensitivity, knowns)
}

func (in *Instance) derivative(op string, fn fmi.DerivativeFunc, unknowns, knowns []uint32, seed []float64, seedOver []uint32, sens []float64, sensOver []uint32) error {
	if err := in.require(op, InitializationMode, ContinuousTimeMode); err != nil {
		return err
	}
	if len(seed) != len(seedOver) {
		return fmt.Errorf("%w: %s seed has %d entries for %d references", ErrLengthMismatch, op, len(seed), len(seedOver))
	}
	if len(sens) != len(sensOver) {
		return fmt.Errorf("%w: %s sensitivity has %d entries for %d references", ErrLengthMismatch, op, len(sens), len(sensOver))
	}
	return in.check(op, fn(in.handle, unknowns, knowns, seed, sens))
}
