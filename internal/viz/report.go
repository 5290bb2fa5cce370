package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/fmusim/internal/model"
	"github.com/san-kum/fmusim/internal/scheme"
	"gonum.org/v1/gonum/mat"
)

// Variables renders the variable table of a model.
func Variables(m *model.Model) string {
	var b strings.Builder
	b.WriteString(Header.Render(fmt.Sprintf("%-20s %6s %-8s %-20s %s", "NAME", "VR", "TYPE", "CAUSALITY", "START")))
	b.WriteString("\n")
	for _, v := range m.Variables {
		start := Subtle.Render("-")
		switch {
		case v.Value != nil:
			start = Value.Render(fmt.Sprintf("%g", *v.Value))
		case v.StringValue != nil:
			start = Value.Render(fmt.Sprintf("%q", *v.StringValue))
		}
		fmt.Fprintf(&b, "%-20s %6d %-8s %-20s %s\n", v.Name, v.ValueReference, v.Type, v.Causality, start)
	}
	return b.String()
}

// Roles renders the reduced input and output layout of an index.
func Roles(idx *scheme.Index) string {
	var b strings.Builder
	for _, r := range []struct {
		name string
		role *scheme.RoleIndex
	}{{"inputs", &idx.In}, {"outputs", &idx.Out}} {
		b.WriteString(Title.Render(r.name))
		b.WriteString("\n")
		for _, g := range r.role.GroupNames() {
			pos, _ := r.role.Group(g)
			names := make([]string, len(pos))
			for k, p := range pos {
				names[k] = r.role.Names[p]
			}
			fmt.Fprintf(&b, "  %s %s\n", Label.Render(g+":"), strings.Join(names, ", "))
		}
	}
	if n := idx.Aux.Len(); n > 0 {
		fmt.Fprintf(&b, "%s %d variables\n", Title.Render("aux"), n)
	}
	return b.String()
}

// Pattern renders a sparsity pattern with row and column labels.
func Pattern(sp model.Sparsity, rows, cols []string) string {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}

	var b strings.Builder
	for r := 0; r < sp.Rows; r++ {
		fmt.Fprintf(&b, "%-*s ", width, label(rows, r))
		for c := 0; c < sp.Cols; c++ {
			if sp.Has(r, c) {
				b.WriteString(OK.Render("*"))
			} else {
				b.WriteString(Subtle.Render("."))
			}
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%s %d/%d non-zeros, columns: %s\n", Label.Render("nnz"), sp.NNZ(), sp.Rows*sp.Cols, strings.Join(cols, " "))
	return b.String()
}

// Matrix renders a dense matrix with row and column labels.
func Matrix(m mat.Matrix, rows, cols []string) string {
	r, c := m.Dims()
	var b strings.Builder
	fmt.Fprintf(&b, "%-12s", "")
	for j := 0; j < c; j++ {
		fmt.Fprintf(&b, " %12s", label(cols, j))
	}
	b.WriteString("\n")
	for i := 0; i < r; i++ {
		fmt.Fprintf(&b, "%-12s", label(rows, i))
		for j := 0; j < c; j++ {
			fmt.Fprintf(&b, " %12.6g", m.At(i, j))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Aux renders auxiliary values sorted by name.
func Aux(values map[string]any) string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "  %s %v\n", Label.Render(name+":"), values[name])
	}
	return b.String()
}

// Plot draws one or more series against their sample index.
func Plot(caption string, height, width int, series ...[]float64) string {
	if len(series) == 0 || len(series[0]) == 0 {
		return Subtle.Render("no data")
	}
	opts := []asciigraph.Option{
		asciigraph.Height(height),
		asciigraph.Caption(caption),
	}
	if width > 0 {
		opts = append(opts, asciigraph.Width(width))
	}
	if len(series) == 1 {
		return asciigraph.Plot(series[0], opts...)
	}
	return asciigraph.PlotMany(series, opts...)
}

func label(names []string, i int) string {
	if i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("#%d", i)
}
