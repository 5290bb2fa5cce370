package model

import "fmt"

// Scheme declares the named input and output groups over the variable table.
// Group members are indices into Model.Variables.
type Scheme struct {
	Inputs  []string
	Outputs []string
	Groups  map[string][]int
}

// Model is everything the driver needs to know about a unit before loading it.
type Model struct {
	Path               string
	Identifier         string
	InstantiationToken string
	Tolerance          float64
	Debug              bool

	ProvidesDirectionalDerivatives bool
	ProvidesAdjointDerivatives     bool

	Variables []Variable
	Scheme    Scheme

	// Aux lists the indices of diagnostic variables collected after evaluation.
	Aux []int
}

// Index returns the table position of the named variable.
func (m *Model) Index(name string) (int, bool) {
	for i, v := range m.Variables {
		if v.Name == name {
			return i, true
		}
	}
	return -1, false
}

func (m *Model) Lookup(name string) (Variable, error) {
	i, ok := m.Index(name)
	if !ok {
		return Variable{}, fmt.Errorf("model: no variable named %q", name)
	}
	return m.Variables[i], nil
}

// JacSparsity returns the structural pattern of d(out)/d(in) where out and in
// are variable indices. Row i is out[i], column j is in[j].
func (m *Model) JacSparsity(out, in []int) Sparsity {
	b := newBuilder(len(out), len(in))
	for j, col := range in {
		name := m.Variables[col].Name
		for i, row := range out {
			if m.dependsOn(row, name) {
				b.add(i, j)
			}
		}
	}
	return b.build()
}

// HessSparsity returns the structural pattern of the second derivatives of
// the outputs with respect to in. Entry (j, k) is non-zero when some output in
// out depends on both in[j] and in[k].
func (m *Model) HessSparsity(out, in []int) Sparsity {
	n := len(in)
	seen := make([]bool, n*n)
	for _, row := range out {
		deps := make([]int, 0, n)
		for j, col := range in {
			if m.dependsOn(row, m.Variables[col].Name) {
				deps = append(deps, j)
			}
		}
		for _, j := range deps {
			for _, k := range deps {
				seen[k*n+j] = true
			}
		}
	}

	b := newBuilder(n, n)
	for k := 0; k < n; k++ {
		for j := 0; j < n; j++ {
			if seen[k*n+j] {
				b.add(j, k)
			}
		}
	}
	return b.build()
}

func (m *Model) dependsOn(row int, name string) bool {
	deps := m.Variables[row].DependsOn
	if deps == nil {
		return true
	}
	for _, d := range deps {
		if d == name {
			return true
		}
	}
	return false
}
