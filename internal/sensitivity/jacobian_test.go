package sensitivity

import (
	"testing"

	"github.com/san-kum/fmusim/internal/fmi/fmitest"
	"github.com/san-kum/fmusim/internal/fmu"
	"github.com/san-kum/fmusim/internal/model"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// linearModel has y1 = 2a - b, y2 = 4c, y3 = a + c + 1.
func linearModel(directional, adjoint bool) (*model.Model, *fmitest.Fake) {
	m := &model.Model{
		Identifier:                     "lin",
		ProvidesDirectionalDerivatives: directional,
		ProvidesAdjointDerivatives:     adjoint,
		Variables: []model.Variable{
			{Name: "a", ValueReference: 1, Type: model.Real, Causality: model.Input, Nominal: 1},
			{Name: "b", ValueReference: 2, Type: model.Real, Causality: model.Input, Nominal: 10},
			{Name: "c", ValueReference: 3, Type: model.Real, Causality: model.Input},
			{Name: "y1", ValueReference: 11, Type: model.Real, Causality: model.Output, DependsOn: []string{"a", "b"}},
			{Name: "y2", ValueReference: 12, Type: model.Real, Causality: model.Output, DependsOn: []string{"c"}},
			{Name: "y3", ValueReference: 13, Type: model.Real, Causality: model.Output, DependsOn: []string{"a", "c"}},
		},
		Scheme: model.Scheme{
			Inputs:  []string{"in"},
			Outputs: []string{"out"},
			Groups:  map[string][]int{"in": {0, 1, 2}, "out": {3, 4, 5}},
		},
	}

	f := fmitest.New()
	f.Directional = directional
	f.Adjoint = adjoint
	f.Linear[11] = map[uint32]float64{1: 2, 2: -1}
	f.Linear[12] = map[uint32]float64{3: 4}
	f.Linear[13] = map[uint32]float64{1: 1, 3: 1}
	f.Offset[13] = 1
	return m, f
}

var want = mat.NewDense(3, 3, []float64{
	2, -1, 0,
	0, 0, 4,
	1, 0, 1,
})

func evaluated(t *testing.T, m *model.Model, f *fmitest.Fake) (*fmu.Driver, *fmu.Instance) {
	t.Helper()
	d, err := fmu.New(m, fmu.Options{Table: f.Table()})
	require.NoError(t, err)
	in := d.NewInstance()
	t.Cleanup(in.Free)
	require.NoError(t, in.Evaluate([]float64{1, 2, 3}, make([]float64, 3)))
	return d, in
}

func TestJacobian(t *testing.T) {
	tests := []struct {
		name        string
		directional bool
		adjoint     bool
		probe       string
		probes      int
	}{
		{"forward", true, false, "fmi3GetDirectionalDerivative", 3},
		{"forward preferred", true, true, "fmi3GetDirectionalDerivative", 3},
		{"reverse", false, true, "fmi3GetAdjointDerivative", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, f := linearModel(tt.directional, tt.adjoint)
			d, in := evaluated(t, m, f)

			sp := Pattern(d)
			require.Equal(t, 5, sp.NNZ())

			jac, err := Jacobian(in, sp)
			require.NoError(t, err)
			require.True(t, mat.Equal(want, jac), "got\n%v", mat.Formatted(jac))
			require.Equal(t, tt.probes, f.Count(tt.probe))
		})
	}
}

func TestJacobianSkipsStructuralZeros(t *testing.T) {
	m, f := linearModel(true, false)
	m.Variables[3].DependsOn = []string{"a"}
	d, in := evaluated(t, m, f)

	jac, err := Jacobian(in, Pattern(d))
	require.NoError(t, err)
	require.Equal(t, 0.0, jac.At(0, 1))
	require.Equal(t, 2, f.Count("fmi3GetDirectionalDerivative"))
}

func TestJacobianWithoutCapabilities(t *testing.T) {
	m, f := linearModel(false, false)
	d, in := evaluated(t, m, f)

	_, err := Jacobian(in, Pattern(d))
	require.ErrorIs(t, err, fmu.ErrNoDirectionalDerivative)
}

func TestJacobianShapeMismatch(t *testing.T) {
	m, f := linearModel(true, false)
	_, in := evaluated(t, m, f)

	_, err := Jacobian(in, model.Dense(2, 3))
	require.ErrorIs(t, err, ErrShape)
}

func TestFiniteDifferences(t *testing.T) {
	m, f := linearModel(false, false)
	_, in := evaluated(t, m, f)

	fd, err := FiniteDifferences(in, []float64{1, 2, 3}, 1e-6)
	require.NoError(t, err)
	require.Less(t, MaxAbsDiff(want, fd), 1e-6)

	out := make([]float64, 3)
	require.NoError(t, in.GetOutputs(out))
	require.InDeltaSlice(t, []float64{0, 12, 5}, out, 1e-12)
}
