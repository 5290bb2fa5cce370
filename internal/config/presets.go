package config

import "sort"

// Presets are starter model files for the reference units distributed with
// the FMI standard. The instantiation token must be copied from the unit's
// modelDescription.xml.
var Presets = map[string]*Config{
	"dahlquist": {
		Path:       "Dahlquist",
		Identifier: "Dahlquist",
		Tolerance:  DefaultTolerance,
		Variables: []VariableConfig{
			{Name: "x", ValueReference: 1, Type: "real", Causality: "local", Start: ptr(1)},
			{Name: "der(x)", ValueReference: 2, Type: "real", Causality: "local", DependsOn: []string{"x", "k"}},
			{Name: "k", ValueReference: 3, Type: "real", Causality: "parameter", Start: ptr(1)},
		},
		Inputs: []GroupConfig{
			{Name: "state", Variables: []string{"x"}},
			{Name: "param", Variables: []string{"k"}},
		},
		Outputs: []GroupConfig{
			{Name: "derivative", Variables: []string{"der(x)"}},
		},
	},
	"van_der_pol": {
		Path:       "VanDerPol",
		Identifier: "VanDerPol",
		Tolerance:  DefaultTolerance,
		Capabilities: CapabilitiesConfig{
			DirectionalDerivatives: true,
			AdjointDerivatives:     true,
		},
		Variables: []VariableConfig{
			{Name: "x0", ValueReference: 1, Type: "real", Causality: "output", Start: ptr(2)},
			{Name: "der(x0)", ValueReference: 2, Type: "real", Causality: "local", DependsOn: []string{"x1"}},
			{Name: "x1", ValueReference: 3, Type: "real", Causality: "output", Start: ptr(0)},
			{Name: "der(x1)", ValueReference: 4, Type: "real", Causality: "local", DependsOn: []string{"x0", "x1", "mu"}},
			{Name: "mu", ValueReference: 5, Type: "real", Causality: "parameter", Start: ptr(1)},
		},
		Inputs: []GroupConfig{
			{Name: "state", Variables: []string{"x0", "x1"}},
			{Name: "param", Variables: []string{"mu"}},
		},
		Outputs: []GroupConfig{
			{Name: "derivative", Variables: []string{"der(x0)", "der(x1)"}},
		},
	},
}

func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ptr(v float64) *float64 { return &v }
