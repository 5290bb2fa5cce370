package fmu

import (
	"context"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one ensemble point. Err holds a recoverable
// failure; the point is skipped and the run continues.
type Result struct {
	Inputs  []float64
	Outputs []float64
	Stats   Stats
	Err     error
}

// Ensemble evaluates many input points concurrently, one instance per worker.
type Ensemble struct {
	pool    *Pool
	workers int
}

func NewEnsemble(d *Driver, workers int) *Ensemble {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Ensemble{pool: NewPool(d), workers: workers}
}

// Run evaluates every point. A fatal error or a cancelled context stops the
// run and is returned.
func (e *Ensemble) Run(ctx context.Context, points [][]float64) ([]Result, error) {
	results := make([]Result, len(points))
	jobs := make(chan int)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for i := range points {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	workers := e.workers
	if workers > len(points) {
		workers = len(points)
	}
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			return e.work(ctx, points, results, jobs)
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (e *Ensemble) work(ctx context.Context, points [][]float64, results []Result, jobs <-chan int) error {
	in, err := e.pool.Get()
	if err != nil {
		return err
	}
	log := in.d.log

	for i := range jobs {
		if err := ctx.Err(); err != nil {
			e.pool.Put(in)
			return err
		}

		r := &results[i]
		r.Inputs = points[i]
		r.Outputs = make([]float64, in.d.index.Out.Len())

		err := in.Evaluate(points[i], r.Outputs)
		if err == nil {
			r.Stats, err = in.Snapshot()
		}
		if err != nil {
			if !IsRecoverable(err) {
				e.pool.Discard(in)
				return err
			}
			log.Warn("skipping point", zap.Int("point", i), zap.Error(err))
			r.Outputs = nil
			r.Err = err
		}
	}

	e.pool.Put(in)
	return nil
}

// Close frees the instances kept between runs.
func (e *Ensemble) Close() {
	e.pool.Close()
}
