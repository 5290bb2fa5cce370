package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/fmusim/internal/fmu"
)

var ErrNoFeasiblePoint = errors.New("optim: every grid point failed")

// GridSearch minimises one output over a grid of input values. Inputs not
// on the grid keep their base value.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Points expands the grid into full input vectors in dense order.
func (g *GridSearch) Points(names []string, base []float64) ([][]float64, error) {
	pos := make([]int, len(g.paramNames))
	for k, p := range g.paramNames {
		pos[k] = indexOf(names, p)
		if pos[k] < 0 {
			return nil, fmt.Errorf("optim: no input named %q", p)
		}
	}

	var points [][]float64
	g.pointsRecursive(0, pos, append([]float64(nil), base...), &points)
	return points, nil
}

func (g *GridSearch) pointsRecursive(depth int, pos []int, current []float64, points *[][]float64) {
	if depth == len(g.paramNames) {
		*points = append(*points, append([]float64(nil), current...))
		return
	}

	for _, val := range g.ranges[depth] {
		current[pos[depth]] = val
		g.pointsRecursive(depth+1, pos, current, points)
	}
}

// Best is the winning grid point.
type Best struct {
	Params map[string]float64
	Inputs []float64
	Value  float64
	Failed int
}

// Search evaluates every grid point on the ensemble and returns the one with
// the smallest value of the named output. Points that fail recoverably are
// counted and skipped.
func (g *GridSearch) Search(ctx context.Context, e *fmu.Ensemble, d *fmu.Driver, base []float64, objective string) (*Best, error) {
	idx := d.Index()
	obj := indexOf(idx.Out.Names, objective)
	if obj < 0 {
		return nil, fmt.Errorf("optim: no output named %q", objective)
	}

	points, err := g.Points(idx.In.Names, base)
	if err != nil {
		return nil, err
	}

	results, err := e.Run(ctx, points)
	if err != nil {
		return nil, err
	}

	best := &Best{Value: math.Inf(1)}
	for _, r := range results {
		if r.Err != nil {
			best.Failed++
			continue
		}
		if val := r.Outputs[obj]; val < best.Value {
			best.Value = val
			best.Inputs = r.Inputs
		}
	}
	if best.Inputs == nil {
		return best, ErrNoFeasiblePoint
	}

	best.Params = make(map[string]float64, len(g.paramNames))
	for _, p := range g.paramNames {
		best.Params[p] = best.Inputs[indexOf(idx.In.Names, p)]
	}
	return best, nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
