package scheme

import (
	"math"

	"github.com/san-kum/fmusim/internal/model"
	"go.uber.org/zap"
)

const (
	roleInput  = "input"
	roleOutput = "output"
	roleAux    = "aux"
)

// Build reconciles the scheme with the variable table. aux lists the indices
// of diagnostic variables. A nil logger is replaced with a no-op one.
func Build(vars []model.Variable, s model.Scheme, aux []int, log *zap.Logger) (*Index, error) {
	if log == nil {
		log = zap.NewNop()
	}

	for _, v := range vars {
		if !v.Scalar() {
			return nil, &ConfigError{Role: "variable", Variable: v.Name, Wrapped: ErrVectorVariable}
		}
	}

	idx := &Index{}
	var err error
	if idx.In, err = buildRole(vars, s.Groups, s.Inputs, roleInput); err != nil {
		return nil, err
	}
	if idx.Out, err = buildRole(vars, s.Groups, s.Outputs, roleOutput); err != nil {
		return nil, err
	}

	idx.Init = initialValues(vars, log)

	if idx.Aux, err = classifyAux(vars, aux, log); err != nil {
		return nil, err
	}

	log.Debug("scheme indexed",
		zap.Int("inputs", idx.In.Len()),
		zap.Int("outputs", idx.Out.Len()),
		zap.Int("aux", idx.Aux.Len()),
	)
	return idx, nil
}

func buildRole(vars []model.Variable, groups map[string][]int, names []string, role string) (RoleIndex, error) {
	n := len(vars)
	marked := make([]bool, n)
	count := 0

	for _, g := range names {
		members, ok := groups[g]
		if !ok {
			return RoleIndex{}, &ConfigError{Role: role, Group: g, Wrapped: ErrUnknownGroup}
		}
		for _, i := range members {
			if i < 0 || i >= n {
				return RoleIndex{}, &ConfigError{Role: role, Group: g, Index: i, Wrapped: ErrIndexOutOfRange}
			}
			if marked[i] {
				return RoleIndex{}, &ConfigError{Role: role, Group: g, Variable: vars[i].Name, Index: i, Wrapped: ErrDuplicateVariable}
			}
			marked[i] = true
			count++
		}
	}

	r := RoleIndex{
		Reduced:  make([]int, 0, count),
		Lookup:   make([]int, n),
		Groups:   make([][]int, len(names)),
		groupPos: make(map[string]int, len(names)),
	}
	for i, m := range marked {
		if m {
			r.Lookup[i] = len(r.Reduced)
			r.Reduced = append(r.Reduced, i)
		} else {
			r.Lookup[i] = Absent
		}
	}

	r.groupNames = append([]string(nil), names...)
	for gi, g := range names {
		members := groups[g]
		pos := make([]int, len(members))
		for k, i := range members {
			pos[k] = r.Lookup[i]
		}
		r.Groups[gi] = pos
		r.groupPos[g] = gi
	}

	r.Nominal = make([]float64, count)
	r.Min = make([]float64, count)
	r.Max = make([]float64, count)
	r.Names = make([]string, count)
	r.ValueRefs = make([]uint32, count)
	r.Types = make([]model.Type, count)
	for k, i := range r.Reduced {
		v := vars[i]
		r.Nominal[k] = v.Nominal
		r.Min[k] = v.Min
		r.Max[k] = v.Max
		r.Names[k] = v.Name
		r.ValueRefs[k] = v.ValueReference
		r.Types[k] = v.Type
	}
	return r, nil
}

func initialValues(vars []model.Variable, log *zap.Logger) Batches {
	var b Batches
	for _, v := range vars {
		if !v.Settable() || !v.IsSet() {
			continue
		}
		switch v.Type {
		case model.Real:
			b.Real.add(v.ValueReference, *v.Value)
		case model.Integer, model.Enum:
			b.Integer.add(v.ValueReference, int32(math.Round(*v.Value)))
		case model.Boolean:
			b.Boolean.add(v.ValueReference, *v.Value != 0)
		case model.String:
			b.String.add(v.ValueReference, *v.StringValue)
		default:
			log.Warn("ignoring start value", zap.String("variable", v.Name), zap.String("type", string(v.Type)))
		}
	}
	return b
}

func classifyAux(vars []model.Variable, aux []int, log *zap.Logger) (AuxBatches, error) {
	var a AuxBatches
	seen := make(map[int]bool, len(aux))
	for _, i := range aux {
		if i < 0 || i >= len(vars) {
			return AuxBatches{}, &ConfigError{Role: roleAux, Index: i, Wrapped: ErrIndexOutOfRange}
		}
		v := vars[i]
		if seen[i] {
			return AuxBatches{}, &ConfigError{Role: roleAux, Variable: v.Name, Index: i, Wrapped: ErrDuplicateVariable}
		}
		seen[i] = true

		switch v.Type {
		case model.Real:
			a.Real.add(v.Name, v.ValueReference)
		case model.Integer, model.Enum:
			a.Integer.add(v.Name, v.ValueReference)
		case model.Boolean:
			a.Boolean.add(v.Name, v.ValueReference)
		case model.String:
			a.String.add(v.Name, v.ValueReference)
		default:
			log.Warn("ignoring auxiliary variable", zap.String("variable", v.Name), zap.String("type", string(v.Type)))
		}
	}
	return a, nil
}

// Observable returns the indices of variables that belong to no input or
// output group and can still be read back for diagnostics.
func Observable(vars []model.Variable, s model.Scheme) []int {
	used := make([]bool, len(vars))
	for _, names := range [][]string{s.Inputs, s.Outputs} {
		for _, g := range names {
			for _, i := range s.Groups[g] {
				if i >= 0 && i < len(vars) {
					used[i] = true
				}
			}
		}
	}

	var out []int
	for i, v := range vars {
		if used[i] || !v.Scalar() {
			continue
		}
		if v.Type == model.Binary || v.Causality == model.Independent {
			continue
		}
		out = append(out, i)
	}
	return out
}
