package fmu

// Evaluate runs one evaluation round: the instance is instantiated or reset
// as needed, start values are pushed, inputs are set during initialization
// and outputs are read in continuous-time mode. inputs and outputs are in
// dense order.
func (in *Instance) Evaluate(inputs, outputs []float64) error {
	switch in.state {
	case Unloaded:
		if err := in.Instantiate(); err != nil {
			return err
		}
	case InitializationMode, ContinuousTimeMode:
		if err := in.Reset(); err != nil {
			return err
		}
	}

	if err := in.SetValues(); err != nil {
		return err
	}
	if err := in.EnterInitializationMode(); err != nil {
		return err
	}
	if err := in.SetInputs(inputs); err != nil {
		return err
	}
	if err := in.ExitInitializationMode(); err != nil {
		return err
	}
	return in.GetOutputs(outputs)
}

// Evaluate runs a single round on a fresh instance that is freed afterwards.
func (d *Driver) Evaluate(inputs []float64) ([]float64, Stats, error) {
	outputs := make([]float64, d.index.Out.Len())
	var stats Stats
	err := d.With(func(in *Instance) error {
		if err := in.Evaluate(inputs, outputs); err != nil {
			return err
		}
		var err error
		stats, err = in.Snapshot()
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return outputs, stats, nil
}
