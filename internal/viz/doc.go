// Package viz renders driver state for the terminal: variable tables, the
// reduced input and output layout, sparsity patterns, Jacobians and sweep
// plots. Styles use lipgloss and plots use asciigraph.
package viz
