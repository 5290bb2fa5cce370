package fmu

// CollectAux refreshes the driver's auxiliary values from this instance.
func (in *Instance) CollectAux() error {
	in.d.auxMu.Lock()
	defer in.d.auxMu.Unlock()
	return in.collectAuxLocked()
}

func (in *Instance) collectAuxLocked() error {
	if err := in.require("collectAux", live...); err != nil {
		return err
	}
	a := &in.d.index.Aux
	v := &in.d.aux

	if err := in.GetReal(a.Real.Refs, v.Real); err != nil {
		return err
	}
	if err := in.GetInteger(a.Integer.Refs, v.Integer); err != nil {
		return err
	}
	if err := in.GetBoolean(a.Boolean.Refs, v.Boolean); err != nil {
		return err
	}
	return in.GetString(a.String.Refs, v.String)
}
