package sensitivity

import (
	"math"

	"github.com/san-kum/fmusim/internal/fmu"
	"gonum.org/v1/gonum/mat"
)

// FiniteDifferences approximates the Jacobian at x with central differences.
// The step for input j is h times its nominal value. Each probe is a full
// evaluation round on in.
func FiniteDifferences(in *fmu.Instance, x []float64, h float64) (*mat.Dense, error) {
	d := in.Driver()
	rows, cols := d.Index().Out.Len(), d.Index().In.Len()
	nominal := d.Nominal()

	jac := mat.NewDense(max(rows, 1), max(cols, 1), nil)
	probe := append([]float64(nil), x...)
	plus := make([]float64, rows)
	minus := make([]float64, rows)

	for j := 0; j < cols; j++ {
		step := h * nominal[j]

		probe[j] = x[j] + step
		if err := in.Evaluate(probe, plus); err != nil {
			return nil, err
		}
		probe[j] = x[j] - step
		if err := in.Evaluate(probe, minus); err != nil {
			return nil, err
		}
		probe[j] = x[j]

		for i := 0; i < rows; i++ {
			jac.Set(i, j, (plus[i]-minus[i])/(2*step))
		}
	}

	// leave the instance at x
	if err := in.Evaluate(x, plus); err != nil {
		return nil, err
	}
	return trim(jac, rows, cols), nil
}

// MaxAbsDiff returns the largest absolute entry of a - b.
func MaxAbsDiff(a, b mat.Matrix) float64 {
	if r, c := a.Dims(); r == 0 || c == 0 {
		return 0
	}
	var diff mat.Dense
	diff.Sub(a, b)
	r, c := diff.Dims()
	worst := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			worst = math.Max(worst, math.Abs(diff.At(i, j)))
		}
	}
	return worst
}
