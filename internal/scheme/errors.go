package scheme

import (
	"errors"
	"fmt"
)

// Configuration errors. All of them abort setup.
var (
	ErrDuplicateVariable = errors.New("scheme: duplicate variable")
	ErrIndexOutOfRange   = errors.New("scheme: variable index out of range")
	ErrUnknownGroup      = errors.New("scheme: unknown scheme group")
	ErrVectorVariable    = errors.New("scheme: vector variable support not implemented")
)

// ConfigError locates a configuration error within the scheme.
type ConfigError struct {
	Role     string
	Group    string
	Variable string
	Index    int
	Wrapped  error
}

func (e *ConfigError) Error() string {
	switch {
	case e.Variable != "" && e.Group != "":
		return fmt.Sprintf("%v: %s (%s group %q)", e.Wrapped, e.Variable, e.Role, e.Group)
	case e.Variable != "":
		return fmt.Sprintf("%v: %s", e.Wrapped, e.Variable)
	case e.Group != "":
		return fmt.Sprintf("%v: index %d in %s group %q", e.Wrapped, e.Index, e.Role, e.Group)
	default:
		return fmt.Sprintf("%v: index %d (%s)", e.Wrapped, e.Index, e.Role)
	}
}

func (e *ConfigError) Unwrap() error {
	return e.Wrapped
}
