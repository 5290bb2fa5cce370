// Package scheme reconciles the declared input and output groups of a model
// with the unit's own value references.
//
// The authoring layer numbers variables by their position in a flat table.
// The unit addresses them by value references that are sparse and unique
// only within a type class. Build computes, for each role, a dense local
// numbering of the participating variables:
//
//	vars:    p  x  y  z
//	inputs:  [x]          Reduced = [1]     Lookup = [-1 0 -1 -1]
//	outputs: [y z]        Reduced = [2 3]   Lookup = [-1 -1 0 1]
//
// together with per-position metadata (nominal, bounds, name and value
// reference), the start values pushed to every fresh instance and the
// auxiliary variables grouped by type.
package scheme
