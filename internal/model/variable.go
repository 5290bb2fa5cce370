package model

import "fmt"

// Type is the declared value type of a variable.
type Type string

const (
	Real    Type = "real"
	Integer Type = "integer"
	Enum    Type = "enum"
	Boolean Type = "boolean"
	String  Type = "string"
	Binary  Type = "binary"
)

func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case Real, Integer, Enum, Boolean, String, Binary:
		return t, nil
	case "float64", "float":
		return Real, nil
	case "int32", "int":
		return Integer, nil
	case "bool":
		return Boolean, nil
	}
	return "", fmt.Errorf("model: unknown variable type %q", s)
}

// Causality is the role a variable plays in the model.
type Causality string

const (
	Parameter           Causality = "parameter"
	CalculatedParameter Causality = "calculatedParameter"
	StructuralParameter Causality = "structuralParameter"
	Input               Causality = "input"
	Output              Causality = "output"
	Local               Causality = "local"
	Independent         Causality = "independent"
)

func ParseCausality(s string) (Causality, error) {
	switch c := Causality(s); c {
	case Parameter, CalculatedParameter, StructuralParameter, Input, Output, Local, Independent:
		return c, nil
	case "":
		return Local, nil
	}
	return "", fmt.Errorf("model: unknown causality %q", s)
}

// Variable is one entry of the flat variable table.
//
// ValueReference is assigned by the unit's own description. References are
// unique within a type class only and carry no relation to the variable's
// position in the table.
type Variable struct {
	Name           string
	ValueReference uint32
	Type           Type
	Causality      Causality

	// Numel is the number of scalar elements; 0 and 1 both mean scalar.
	Numel int

	// Value and StringValue hold an explicitly set start value, nil when unset.
	Value       *float64
	StringValue *string

	Nominal float64
	Min     float64
	Max     float64

	// DependsOn lists the names this variable depends on. A nil slice means
	// unknown (dense), an empty non-nil slice means no dependencies.
	DependsOn []string
}

func (v Variable) IsSet() bool {
	if v.Type == String {
		return v.StringValue != nil
	}
	return v.Value != nil
}

func (v Variable) Scalar() bool {
	return v.Numel <= 1
}

// Settable reports whether the variable's start value is pushed to a fresh instance.
func (v Variable) Settable() bool {
	switch v.Causality {
	case Parameter, Input:
		return true
	}
	return false
}

func (v Variable) String() string {
	return fmt.Sprintf("%s[%s vr=%d]", v.Name, v.Type, v.ValueReference)
}

func Float(v float64) *float64 { return &v }

func Text(s string) *string { return &s }
