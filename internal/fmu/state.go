package fmu

import "fmt"

// State is the lifecycle state of an instance.
type State int

const (
	Unloaded State = iota
	Instantiated
	InitializationMode
	ContinuousTimeMode
	Freed
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Instantiated:
		return "instantiated"
	case InitializationMode:
		return "initialization"
	case ContinuousTimeMode:
		return "continuous-time"
	case Freed:
		return "freed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Live reports whether the state holds a native handle.
func (s State) Live() bool {
	return s == Instantiated || s == InitializationMode || s == ContinuousTimeMode
}

var live = []State{Instantiated, InitializationMode, ContinuousTimeMode}
