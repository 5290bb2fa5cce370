package fmu

// Stats is the diagnostic record of an evaluation: the auxiliary values
// under "aux" and the current values of each input group under its name.
type Stats map[string]any

// AuxKey holds the auxiliary values in Stats.
const AuxKey = "aux"

// Stats reports the last collected auxiliary values and the current values
// of the named input groups, or of all input groups when none are named.
// Unknown group names are skipped.
func (in *Instance) Stats(groups ...string) Stats {
	in.d.auxMu.Lock()
	defer in.d.auxMu.Unlock()
	return in.statsLocked(groups)
}

// Snapshot collects the auxiliary values and reports them atomically with
// respect to other instances of the same driver.
func (in *Instance) Snapshot(groups ...string) (Stats, error) {
	in.d.auxMu.Lock()
	defer in.d.auxMu.Unlock()
	if err := in.collectAuxLocked(); err != nil {
		return nil, err
	}
	return in.statsLocked(groups), nil
}

func (in *Instance) statsLocked(groups []string) Stats {
	a := &in.d.index.Aux
	v := &in.d.aux

	aux := make(map[string]any, a.Len())
	for i, name := range a.Real.Names {
		aux[name] = v.Real[i]
	}
	for i, name := range a.Integer.Names {
		aux[name] = v.Integer[i]
	}
	for i, name := range a.Boolean.Names {
		aux[name] = v.Boolean[i]
	}
	for i, name := range a.String.Names {
		aux[name] = v.String[i]
	}

	s := Stats{AuxKey: aux}
	if len(groups) == 0 {
		groups = in.d.index.In.GroupNames()
	}
	for _, g := range groups {
		pos, ok := in.d.index.In.Group(g)
		if !ok {
			continue
		}
		values := make([]float64, len(pos))
		for k, p := range pos {
			values[k] = in.inputs[p]
		}
		s[g] = values
	}
	return s
}

// Aux returns the auxiliary sub-record.
func (s Stats) Aux() map[string]any {
	aux, _ := s[AuxKey].(map[string]any)
	return aux
}

// Group returns the recorded values of an input group.
func (s Stats) Group(name string) []float64 {
	v, _ := s[name].([]float64)
	return v
}
