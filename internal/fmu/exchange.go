package fmu

import (
	"fmt"
	"math"

	"github.com/san-kum/fmusim/internal/fmi"
	"github.com/san-kum/fmusim/internal/model"
	"github.com/san-kum/fmusim/internal/scheme"
)

type exchangeFunc[T any] func(fmi.Instance, []fmi.ValueReference, []T) fmi.Status

// exchange validates a batched call and runs it. Mismatched lengths never
// reach the unit.
func exchange[T any](in *Instance, op string, fn exchangeFunc[T], vrs []uint32, values []T, fatal bool) error {
	if err := in.require(op, live...); err != nil {
		return err
	}
	if len(vrs) != len(values) {
		return fmt.Errorf("%w: %s with %d references and %d values", ErrLengthMismatch, op, len(vrs), len(values))
	}
	if len(vrs) == 0 {
		return nil
	}
	st := fn(in.handle, vrs, values)
	if fatal {
		return in.checkFatal(op, st)
	}
	return in.check(op, st)
}

func (in *Instance) SetReal(vrs []uint32, values []float64) error {
	return exchange(in, "setFloat64", in.d.table.SetFloat64, vrs, values, false)
}

func (in *Instance) GetReal(vrs []uint32, values []float64) error {
	return exchange(in, "getFloat64", in.d.table.GetFloat64, vrs, values, false)
}

// SetInteger sets integer and enumeration variables.
func (in *Instance) SetInteger(vrs []uint32, values []int32) error {
	return exchange(in, "setInt32", in.d.table.SetInt32, vrs, values, false)
}

func (in *Instance) GetInteger(vrs []uint32, values []int32) error {
	return exchange(in, "getInt32", in.d.table.GetInt32, vrs, values, false)
}

func (in *Instance) SetBoolean(vrs []uint32, values []bool) error {
	return exchange(in, "setBoolean", in.d.table.SetBoolean, vrs, values, false)
}

func (in *Instance) GetBoolean(vrs []uint32, values []bool) error {
	return exchange(in, "getBoolean", in.d.table.GetBoolean, vrs, values, false)
}

// SetString failures are fatal.
func (in *Instance) SetString(vrs []uint32, values []string) error {
	return exchange(in, "setString", in.d.table.SetString, vrs, values, true)
}

func (in *Instance) GetString(vrs []uint32, values []string) error {
	return exchange(in, "getString", in.d.table.GetString, vrs, values, true)
}

// typed splits dense positions of a role by type class.
type typed struct {
	real, integer, boolean      []int
	realRefs, intRefs, boolRefs []uint32
}

func split(role *scheme.RoleIndex, positions []int) (typed, error) {
	var t typed
	for k, pos := range positions {
		vr := role.ValueRefs[pos]
		switch role.Types[pos] {
		case model.Real:
			t.real = append(t.real, k)
			t.realRefs = append(t.realRefs, vr)
		case model.Integer, model.Enum:
			t.integer = append(t.integer, k)
			t.intRefs = append(t.intRefs, vr)
		case model.Boolean:
			t.boolean = append(t.boolean, k)
			t.boolRefs = append(t.boolRefs, vr)
		default:
			return typed{}, fmt.Errorf("%w: %s", ErrNotNumeric, role.Names[pos])
		}
	}
	return t, nil
}

func (in *Instance) setDense(positions []int, values []float64) error {
	if len(positions) != len(values) {
		return fmt.Errorf("%w: %d inputs and %d values", ErrLengthMismatch, len(positions), len(values))
	}
	t, err := split(&in.d.index.In, positions)
	if err != nil {
		return err
	}

	reals := make([]float64, len(t.real))
	for i, k := range t.real {
		reals[i] = values[k]
	}
	if err := in.SetReal(t.realRefs, reals); err != nil {
		return err
	}
	in.cache(positions, t.real, values)

	ints := make([]int32, len(t.integer))
	for i, k := range t.integer {
		ints[i] = int32(math.Round(values[k]))
	}
	if err := in.SetInteger(t.intRefs, ints); err != nil {
		return err
	}
	in.cache(positions, t.integer, values)

	bools := make([]bool, len(t.boolean))
	for i, k := range t.boolean {
		bools[i] = values[k] != 0
	}
	if err := in.SetBoolean(t.boolRefs, bools); err != nil {
		return err
	}
	in.cache(positions, t.boolean, values)
	return nil
}

// cache records the values of one type class once the unit has accepted
// them, so the cached inputs never run ahead of or behind the unit.
func (in *Instance) cache(positions, class []int, values []float64) {
	for _, k := range class {
		in.inputs[positions[k]] = values[k]
	}
}

func (in *Instance) getDense(positions []int, dst []float64) error {
	if len(positions) != len(dst) {
		return fmt.Errorf("%w: %d outputs and %d values", ErrLengthMismatch, len(positions), len(dst))
	}
	t, err := split(&in.d.index.Out, positions)
	if err != nil {
		return err
	}

	reals := make([]float64, len(t.real))
	if err := in.GetReal(t.realRefs, reals); err != nil {
		return err
	}
	ints := make([]int32, len(t.integer))
	if err := in.GetInteger(t.intRefs, ints); err != nil {
		return err
	}
	bools := make([]bool, len(t.boolean))
	if err := in.GetBoolean(t.boolRefs, bools); err != nil {
		return err
	}

	for i, k := range t.real {
		dst[k] = reals[i]
	}
	for i, k := range t.integer {
		dst[k] = float64(ints[i])
	}
	for i, k := range t.boolean {
		if bools[i] {
			dst[k] = 1
		} else {
			dst[k] = 0
		}
	}
	return nil
}

// SetInputs sets every input in dense order. Integer inputs are rounded and
// boolean inputs are true when non-zero.
func (in *Instance) SetInputs(values []float64) error {
	return in.setDense(identity(in.d.index.In.Len()), values)
}

// SetInputGroup sets the inputs of one named group in declaration order.
func (in *Instance) SetInputGroup(name string, values []float64) error {
	pos, ok := in.d.index.In.Group(name)
	if !ok {
		return fmt.Errorf("%w: input %q", ErrUnknownGroup, name)
	}
	return in.setDense(pos, values)
}

// GetOutputs reads every output in dense order.
func (in *Instance) GetOutputs(dst []float64) error {
	return in.getDense(identity(in.d.index.Out.Len()), dst)
}

// GetOutputGroup reads the outputs of one named group in declaration order.
func (in *Instance) GetOutputGroup(name string, dst []float64) error {
	pos, ok := in.d.index.Out.Group(name)
	if !ok {
		return fmt.Errorf("%w: output %q", ErrUnknownGroup, name)
	}
	return in.getDense(pos, dst)
}

// Inputs returns the last input values set through the group helpers.
func (in *Instance) Inputs() []float64 {
	return append([]float64(nil), in.inputs...)
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
