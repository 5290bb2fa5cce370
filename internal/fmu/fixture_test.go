package fmu_test

import (
	"github.com/san-kum/fmusim/internal/fmi/fmitest"
	"github.com/san-kum/fmusim/internal/model"
)

// demoModel has inputs x, u (real) and n (integer), outputs y and z, and
// auxiliary variables of every type class.
func demoModel() *model.Model {
	return &model.Model{
		Path:               "/models/demo",
		Identifier:         "org.demo.Model",
		InstantiationToken: "{8c4e810f-3df3-4a00-8276-176fa3c9f000}",
		Variables: []model.Variable{
			{Name: "p", ValueReference: 1, Type: model.Real, Causality: model.Parameter, Value: model.Float(2)},
			{Name: "x", ValueReference: 10, Type: model.Real, Causality: model.Input, Value: model.Float(0.5), Nominal: 2},
			{Name: "u", ValueReference: 11, Type: model.Real, Causality: model.Input},
			{Name: "n", ValueReference: 10, Type: model.Integer, Causality: model.Input},
			{Name: "on", ValueReference: 3, Type: model.Boolean, Causality: model.Parameter, Value: model.Float(1)},
			{Name: "label", ValueReference: 4, Type: model.String, Causality: model.Parameter, StringValue: model.Text("hello")},
			{Name: "y", ValueReference: 20, Type: model.Real, Causality: model.Output, DependsOn: []string{"x", "u"}},
			{Name: "z", ValueReference: 21, Type: model.Real, Causality: model.Output, DependsOn: []string{"u"}},
			{Name: "k", ValueReference: 30, Type: model.Integer, Causality: model.Local},
			{Name: "flag", ValueReference: 31, Type: model.Boolean, Causality: model.Local},
			{Name: "tag", ValueReference: 32, Type: model.String, Causality: model.Local},
			{Name: "gain", ValueReference: 40, Type: model.Real, Causality: model.Local},
		},
		Scheme: model.Scheme{
			Inputs:  []string{"state", "ctrl"},
			Outputs: []string{"out"},
			Groups: map[string][]int{
				"state": {1},
				"ctrl":  {2, 3},
				"out":   {6, 7},
			},
		},
		Aux: []int{0, 8, 9, 10, 11},
	}
}

// demoFake computes y = 3x + u and z = 1 - 2u.
func demoFake() *fmitest.Fake {
	f := fmitest.New()
	f.Linear[20] = map[uint32]float64{10: 3, 11: 1}
	f.Linear[21] = map[uint32]float64{11: -2}
	f.Offset[21] = 1
	f.StartInts[30] = 7
	f.StartBools[31] = true
	f.StartStrings[32] = "ready"
	f.StartReals[40] = 0.25
	return f
}
