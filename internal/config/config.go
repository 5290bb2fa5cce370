package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/san-kum/fmusim/internal/model"
	"github.com/san-kum/fmusim/internal/scheme"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTolerance = 1e-6
	DefaultStep      = 1e-6
	DefaultNominal   = 1.0
)

var (
	ErrUnknownVariable   = errors.New("config: unknown variable")
	ErrDuplicateName     = errors.New("config: duplicate variable name")
	ErrConflictingGroups = errors.New("config: group declared twice with different members")
)

// Config is the on-disk description of a unit: where it lives, its
// variables and the named input and output groups over them.
type Config struct {
	Path               string             `yaml:"path"`
	Identifier         string             `yaml:"identifier"`
	InstantiationToken string             `yaml:"instantiation_token"`
	Tolerance          float64            `yaml:"tolerance"`
	Debug              bool               `yaml:"debug"`
	Capabilities       CapabilitiesConfig `yaml:"capabilities"`
	Variables          []VariableConfig   `yaml:"variables"`
	Inputs             []GroupConfig      `yaml:"inputs"`
	Outputs            []GroupConfig      `yaml:"outputs"`
	Aux                []string           `yaml:"aux,omitempty"`
	AutoAux            bool               `yaml:"auto_aux,omitempty"`

	dir string
}

type CapabilitiesConfig struct {
	DirectionalDerivatives bool `yaml:"directional_derivatives"`
	AdjointDerivatives     bool `yaml:"adjoint_derivatives"`
}

type VariableConfig struct {
	Name           string   `yaml:"name"`
	ValueReference uint32   `yaml:"vr"`
	Type           string   `yaml:"type"`
	Causality      string   `yaml:"causality,omitempty"`
	Numel          int      `yaml:"numel,omitempty"`
	Start          *float64 `yaml:"start,omitempty"`
	StartString    *string  `yaml:"start_string,omitempty"`
	Nominal        float64  `yaml:"nominal,omitempty"`
	Min            *float64 `yaml:"min,omitempty"`
	Max            *float64 `yaml:"max,omitempty"`
	DependsOn      []string `yaml:"depends_on,omitempty"`
}

type GroupConfig struct {
	Name      string   `yaml:"name"`
	Variables []string `yaml:"variables"`
}

func DefaultConfig() *Config {
	return &Config{
		Tolerance: DefaultTolerance,
	}
}

// Load reads a model file. A relative unit path is taken relative to the
// file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// UnitPath returns the unit directory, resolved against the model file.
func (c *Config) UnitPath() string {
	if c.Path == "" || filepath.IsAbs(c.Path) || c.dir == "" {
		return c.Path
	}
	return filepath.Join(c.dir, c.Path)
}

// Model converts the file into the driver's model. Variable names in groups
// and aux lists are resolved to table indices.
func (c *Config) Model() (*model.Model, error) {
	m := &model.Model{
		Path:                           c.UnitPath(),
		Identifier:                     c.Identifier,
		InstantiationToken:             c.InstantiationToken,
		Tolerance:                      c.Tolerance,
		Debug:                          c.Debug,
		ProvidesDirectionalDerivatives: c.Capabilities.DirectionalDerivatives,
		ProvidesAdjointDerivatives:     c.Capabilities.AdjointDerivatives,
		Variables:                      make([]model.Variable, len(c.Variables)),
		Scheme:                         model.Scheme{Groups: map[string][]int{}},
	}

	index := make(map[string]int, len(c.Variables))
	for i, vc := range c.Variables {
		if _, dup := index[vc.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, vc.Name)
		}
		index[vc.Name] = i

		v, err := vc.variable()
		if err != nil {
			return nil, err
		}
		m.Variables[i] = v
	}

	resolve := func(names []string) ([]int, error) {
		out := make([]int, len(names))
		for k, n := range names {
			i, ok := index[n]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownVariable, n)
			}
			out[k] = i
		}
		return out, nil
	}

	addGroups := func(groups []GroupConfig) ([]string, error) {
		names := make([]string, 0, len(groups))
		for _, g := range groups {
			members, err := resolve(g.Variables)
			if err != nil {
				return nil, fmt.Errorf("group %q: %w", g.Name, err)
			}
			if prev, ok := m.Scheme.Groups[g.Name]; ok && !sameMembers(prev, members) {
				return nil, fmt.Errorf("%w: %s", ErrConflictingGroups, g.Name)
			}
			m.Scheme.Groups[g.Name] = members
			names = append(names, g.Name)
		}
		return names, nil
	}

	var err error
	if m.Scheme.Inputs, err = addGroups(c.Inputs); err != nil {
		return nil, err
	}
	if m.Scheme.Outputs, err = addGroups(c.Outputs); err != nil {
		return nil, err
	}

	if c.AutoAux {
		m.Aux = scheme.Observable(m.Variables, m.Scheme)
	} else if m.Aux, err = resolve(c.Aux); err != nil {
		return nil, fmt.Errorf("aux: %w", err)
	}
	return m, nil
}

func (vc VariableConfig) variable() (model.Variable, error) {
	typ, err := model.ParseType(vc.Type)
	if err != nil {
		return model.Variable{}, fmt.Errorf("variable %q: %w", vc.Name, err)
	}
	caus, err := model.ParseCausality(vc.Causality)
	if err != nil {
		return model.Variable{}, fmt.Errorf("variable %q: %w", vc.Name, err)
	}

	v := model.Variable{
		Name:           vc.Name,
		ValueReference: vc.ValueReference,
		Type:           typ,
		Causality:      caus,
		Numel:          vc.Numel,
		Value:          vc.Start,
		StringValue:    vc.StartString,
		Nominal:        vc.Nominal,
		Min:            math.Inf(-1),
		Max:            math.Inf(1),
	}
	if v.Nominal == 0 {
		v.Nominal = DefaultNominal
	}
	if vc.Min != nil {
		v.Min = *vc.Min
	}
	if vc.Max != nil {
		v.Max = *vc.Max
	}
	if len(vc.DependsOn) > 0 {
		v.DependsOn = append([]string(nil), vc.DependsOn...)
	}
	return v, nil
}

// FromModel describes m as a model file, the inverse of Model.
func FromModel(m *model.Model) *Config {
	c := &Config{
		Path:               m.Path,
		Identifier:         m.Identifier,
		InstantiationToken: m.InstantiationToken,
		Tolerance:          m.Tolerance,
		Debug:              m.Debug,
		Capabilities: CapabilitiesConfig{
			DirectionalDerivatives: m.ProvidesDirectionalDerivatives,
			AdjointDerivatives:     m.ProvidesAdjointDerivatives,
		},
	}

	for _, v := range m.Variables {
		vc := VariableConfig{
			Name:           v.Name,
			ValueReference: v.ValueReference,
			Type:           string(v.Type),
			Causality:      string(v.Causality),
			Numel:          v.Numel,
			Start:          v.Value,
			StartString:    v.StringValue,
			Nominal:        v.Nominal,
			DependsOn:      v.DependsOn,
		}
		if !math.IsInf(v.Min, -1) {
			vc.Min = model.Float(v.Min)
		}
		if !math.IsInf(v.Max, 1) {
			vc.Max = model.Float(v.Max)
		}
		c.Variables = append(c.Variables, vc)
	}

	names := func(idx []int) []string {
		out := make([]string, len(idx))
		for k, i := range idx {
			out[k] = m.Variables[i].Name
		}
		return out
	}
	for _, g := range m.Scheme.Inputs {
		c.Inputs = append(c.Inputs, GroupConfig{Name: g, Variables: names(m.Scheme.Groups[g])})
	}
	for _, g := range m.Scheme.Outputs {
		c.Outputs = append(c.Outputs, GroupConfig{Name: g, Variables: names(m.Scheme.Groups[g])})
	}
	c.Aux = names(m.Aux)
	return c
}

func sameMembers(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
