// Package sensitivity assembles Jacobians of a unit's outputs with respect to
// its inputs from directional or adjoint probes, guided by the structural
// sparsity of the model.
package sensitivity

import (
	"errors"
	"fmt"

	"github.com/san-kum/fmusim/internal/fmu"
	"github.com/san-kum/fmusim/internal/model"
	"gonum.org/v1/gonum/mat"
)

var ErrShape = errors.New("sensitivity: sparsity does not match the scheme")

// Pattern returns the structural Jacobian pattern of the driver's outputs
// with respect to its inputs, in dense order.
func Pattern(d *fmu.Driver) model.Sparsity {
	idx := d.Index()
	return d.Model().JacSparsity(idx.Out.Reduced, idx.In.Reduced)
}

// Jacobian evaluates d(outputs)/d(inputs) at the instance's current point.
// Forward probes are used when available, one per structurally non-zero
// column; otherwise one adjoint probe per non-zero row.
func Jacobian(in *fmu.Instance, sp model.Sparsity) (*mat.Dense, error) {
	idx := in.Driver().Index()
	rows, cols := idx.Out.Len(), idx.In.Len()
	if sp.Rows != rows || sp.Cols != cols {
		return nil, fmt.Errorf("%w: pattern is %dx%d, scheme is %dx%d", ErrShape, sp.Rows, sp.Cols, rows, cols)
	}

	caps := in.Driver().Capabilities()
	switch {
	case caps.DirectionalDerivatives:
		return forward(in, sp)
	case caps.AdjointDerivatives:
		return reverse(in, sp)
	default:
		return nil, fmu.ErrNoDirectionalDerivative
	}
}

func forward(in *fmu.Instance, sp model.Sparsity) (*mat.Dense, error) {
	idx := in.Driver().Index()
	jac := mat.NewDense(max(sp.Rows, 1), max(sp.Cols, 1), nil)
	seed := []float64{1}

	for c := 0; c < sp.Cols; c++ {
		rows := realOnly(sp.Column(c), idx.Out.Types)
		if len(rows) == 0 || idx.In.Types[c] != model.Real {
			continue
		}
		unknowns := make([]uint32, len(rows))
		for k, r := range rows {
			unknowns[k] = idx.Out.ValueRefs[r]
		}
		sens := make([]float64, len(rows))
		if err := in.DirectionalDerivative(unknowns, idx.In.ValueRefs[c:c+1], seed, sens); err != nil {
			return nil, err
		}
		for k, r := range rows {
			jac.Set(r, c, sens[k])
		}
	}
	return trim(jac, sp.Rows, sp.Cols), nil
}

func reverse(in *fmu.Instance, sp model.Sparsity) (*mat.Dense, error) {
	idx := in.Driver().Index()
	jac := mat.NewDense(max(sp.Rows, 1), max(sp.Cols, 1), nil)
	seed := []float64{1}

	for r := 0; r < sp.Rows; r++ {
		cols := realOnly(sp.Row(r), idx.In.Types)
		if len(cols) == 0 || idx.Out.Types[r] != model.Real {
			continue
		}
		knowns := make([]uint32, len(cols))
		for k, c := range cols {
			knowns[k] = idx.In.ValueRefs[c]
		}
		sens := make([]float64, len(cols))
		if err := in.AdjointDerivative(idx.Out.ValueRefs[r:r+1], knowns, seed, sens); err != nil {
			return nil, err
		}
		for k, c := range cols {
			jac.Set(r, c, sens[k])
		}
	}
	return trim(jac, sp.Rows, sp.Cols), nil
}

// realOnly drops positions of non-real variables, which have no derivatives.
func realOnly(pos []int, types []model.Type) []int {
	out := make([]int, 0, len(pos))
	for _, p := range pos {
		if types[p] == model.Real {
			out = append(out, p)
		}
	}
	return out
}

// trim narrows the placeholder row or column gonum needs for empty shapes.
func trim(m *mat.Dense, rows, cols int) *mat.Dense {
	if rows == 0 || cols == 0 {
		return &mat.Dense{}
	}
	return m
}
