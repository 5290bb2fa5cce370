package fmi

// Entry point names.
const (
	SymInstantiateModelExchange = "fmi3InstantiateModelExchange"
	SymFreeInstance             = "fmi3FreeInstance"
	SymReset                    = "fmi3Reset"
	SymEnterInitializationMode  = "fmi3EnterInitializationMode"
	SymExitInitializationMode   = "fmi3ExitInitializationMode"
	SymEnterContinuousTimeMode  = "fmi3EnterContinuousTimeMode"
	SymGetFloat64               = "fmi3GetFloat64"
	SymSetFloat64               = "fmi3SetFloat64"
	SymGetInt32                 = "fmi3GetInt32"
	SymSetInt32                 = "fmi3SetInt32"
	SymGetBoolean               = "fmi3GetBoolean"
	SymSetBoolean               = "fmi3SetBoolean"
	SymGetString                = "fmi3GetString"
	SymSetString                = "fmi3SetString"
	SymGetDirectionalDerivative = "fmi3GetDirectionalDerivative"
	SymGetAdjointDerivative     = "fmi3GetAdjointDerivative"
)

var mandatory = []string{
	SymInstantiateModelExchange,
	SymFreeInstance,
	SymReset,
	SymEnterInitializationMode,
	SymExitInitializationMode,
	SymEnterContinuousTimeMode,
	SymGetFloat64,
	SymSetFloat64,
	SymGetInt32,
	SymSetInt32,
	SymGetBoolean,
	SymSetBoolean,
	SymGetString,
	SymSetString,
}

// Symbols looks up exported entry points of a loaded binary.
type Symbols interface {
	Lookup(name string) (uintptr, error)
	Close() error
}

// resolve looks up every mandatory entry point and the optional ones the
// capabilities declare. Optional entry points that were not declared are
// never looked up.
func resolve(path string, sym Symbols, caps Capabilities) (map[string]uintptr, error) {
	addrs := make(map[string]uintptr, len(mandatory)+2)
	var missing, undeclared []string

	for _, name := range mandatory {
		if addr, err := sym.Lookup(name); err == nil && addr != 0 {
			addrs[name] = addr
		} else {
			missing = append(missing, name)
		}
	}

	optional := []struct {
		name     string
		declared bool
	}{
		{SymGetDirectionalDerivative, caps.DirectionalDerivatives},
		{SymGetAdjointDerivative, caps.AdjointDerivatives},
	}
	for _, o := range optional {
		if !o.declared {
			continue
		}
		if addr, err := sym.Lookup(o.name); err == nil && addr != 0 {
			addrs[o.name] = addr
		} else {
			undeclared = append(undeclared, o.name)
		}
	}

	if len(missing) > 0 || len(undeclared) > 0 {
		return nil, &MissingSymbolsError{Path: path, Missing: missing, Undeclared: undeclared}
	}
	return addrs, nil
}
