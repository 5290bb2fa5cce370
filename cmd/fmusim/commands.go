package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/san-kum/fmusim/internal/fmu"
	"github.com/san-kum/fmusim/internal/optim"
	"github.com/san-kum/fmusim/internal/platform"
	"github.com/san-kum/fmusim/internal/sensitivity"
	"github.com/san-kum/fmusim/internal/storage"
	"github.com/san-kum/fmusim/internal/tui"
	"github.com/san-kum/fmusim/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func showPlatform(cmd *cobra.Command, args []string) error {
	fmt.Printf("tuple:  %s\n", platform.Tuple())
	fmt.Printf("suffix: %s\n", platform.LibrarySuffix())

	if configFile == "" && preset == "" {
		return nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fmt.Printf("binary: %s\n", platform.BinaryPath(cfg.UnitPath(), cfg.Identifier))
	fmt.Printf("resources: %s\n", platform.ResourceURI(cfg.UnitPath()))
	return nil
}

func inspectModel(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	m, err := cfg.Model()
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render(m.Identifier) + "  " + viz.Subtle.Render(cfg.UnitPath()))
	fmt.Println()
	fmt.Print(viz.Variables(m))
	fmt.Println()

	// Opening the driver checks the scheme against the binary.
	d, log, err := openDriver()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer d.Close()

	idx := d.Index()
	fmt.Print(viz.Roles(idx))
	fmt.Println()
	fmt.Println(viz.Title.Render("jacobian pattern"))
	fmt.Print(viz.Pattern(sensitivity.Pattern(d), idx.Out.Names, idx.In.Names))

	caps := d.Capabilities()
	fmt.Printf("\n%s directional=%v adjoint=%v\n", viz.Label.Render("derivatives:"), caps.DirectionalDerivatives, caps.AdjointDerivatives)
	return nil
}

func evalModel(cmd *cobra.Command, args []string) error {
	d, log, err := openDriver()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer d.Close()

	x, err := inputPoint(d)
	if err != nil {
		return err
	}

	start := time.Now()
	y, stats, err := d.Evaluate(x)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	idx := d.Index()
	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(storage.Run{
			Model:   d.Model().Identifier,
			Kind:    "eval",
			Inputs:  idx.In.Names,
			Outputs: idx.Out.Names,
			Results: []fmu.Result{{Inputs: x, Outputs: y, Stats: stats}},
		})
		if err != nil {
			return err
		}
		log.Info("saved run", zap.String("run", runID))
	}

	if asJSON {
		return storage.ExportJSON(os.Stdout, d.Model().Identifier, idx.In.Names, x, idx.Out.Names, y, stats)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OUTPUT\tVALUE")
	for i, name := range idx.Out.Names {
		fmt.Fprintf(w, "%s\t%.10g\n", name, y[i])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if aux := stats.Aux(); len(aux) > 0 {
		fmt.Println("\naux:")
		fmt.Print(viz.Aux(aux))
	}
	fmt.Printf("\nevaluated in %v\n", elapsed)
	return nil
}

func jacobian(cmd *cobra.Command, args []string) error {
	d, log, err := openDriver()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer d.Close()

	x, err := inputPoint(d)
	if err != nil {
		return err
	}

	idx := d.Index()
	y := make([]float64, idx.Out.Len())
	return d.With(func(in *fmu.Instance) error {
		if err := in.Evaluate(x, y); err != nil {
			return err
		}
		jac, err := sensitivity.Jacobian(in, sensitivity.Pattern(d))
		if err != nil {
			return err
		}
		fmt.Print(viz.Matrix(jac, idx.Out.Names, idx.In.Names))

		if !check {
			return nil
		}
		fd, err := sensitivity.FiniteDifferences(in, x, step)
		if err != nil {
			return err
		}
		fmt.Printf("\nmax |analytic - finite difference| = %.3e (step %g)\n", sensitivity.MaxAbsDiff(jac, fd), step)
		return nil
	})
}

func sweep(cmd *cobra.Command, args []string) error {
	d, log, err := openDriver()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer d.Close()

	idx := d.Index()
	axis := indexOf(idx.In.Names, args[0])
	if axis < 0 {
		return fmt.Errorf("no input named %s", args[0])
	}
	base, err := inputPoint(d)
	if err != nil {
		return err
	}

	values := optim.Linspace(from, to, points)
	grid := make([][]float64, len(values))
	for i, v := range values {
		grid[i] = append([]float64(nil), base...)
		grid[i][axis] = v
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	e := fmu.NewEnsemble(d, workers)
	defer e.Close()

	start := time.Now()
	results, err := e.Run(ctx, grid)
	if err != nil {
		return err
	}
	fmt.Printf("%d points in %v\n\n", len(results), time.Since(start))

	for j, name := range idx.Out.Names {
		if output != "" && name != output {
			continue
		}
		series := make([]float64, 0, len(results))
		for _, r := range results {
			if r.Err == nil {
				series = append(series, r.Outputs[j])
			}
		}
		caption := fmt.Sprintf("%s over %s in [%g, %g]", name, args[0], from, to)
		fmt.Println(viz.Plot(caption, 10, 80, series))
		fmt.Println()
	}

	if !save {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.Run{
		Model:   d.Model().Identifier,
		Kind:    "sweep",
		Inputs:  idx.In.Names,
		Outputs: idx.Out.Names,
		Results: results,
	})
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func search(cmd *cobra.Command, args []string) error {
	d, log, err := openDriver()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer d.Close()

	if len(params) == 0 {
		return fmt.Errorf("no grid: pass at least one --param")
	}
	names := make([]string, len(params))
	ranges := make([][]float64, len(params))
	for i, p := range params {
		name, lo, hi, n, err := parseAxis(p)
		if err != nil {
			return err
		}
		names[i] = name
		ranges[i] = optim.Linspace(lo, hi, n)
	}

	base, err := inputPoint(d)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	e := fmu.NewEnsemble(d, workers)
	defer e.Close()

	best, err := optim.NewGridSearch(names, ranges).Search(ctx, e, d, base, objective)
	if err != nil {
		return err
	}

	fmt.Printf("%s = %.10g\n", objective, best.Value)
	for _, name := range names {
		fmt.Printf("  %s = %g\n", name, best.Params[name])
	}
	if best.Failed > 0 {
		fmt.Printf("%d points failed\n", best.Failed)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tKIND\tTIME\tPOINTS\tFAILED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
			run.ID,
			run.Model,
			run.Kind,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Points,
			run.Failed,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	results, err := st.LoadResults(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s (%s)\n", meta.Model, meta.Kind)
	fmt.Printf("points: %d, failed: %d\n\n", meta.Points, meta.Failed)

	if len(results) == 1 {
		r := results[0]
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for i, name := range meta.Outputs {
			if i < len(r.Outputs) {
				fmt.Fprintf(w, "%s\t%.10g\n", name, r.Outputs[i])
			}
		}
		return w.Flush()
	}

	for j, name := range meta.Outputs {
		series := make([]float64, 0, len(results))
		for _, r := range results {
			if r.Err == nil && j < len(r.Outputs) {
				series = append(series, r.Outputs[j])
			}
		}
		fmt.Println(viz.Plot(name, 10, 80, series))
		fmt.Println()
	}
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui needs a terminal; use eval or sweep instead")
	}
	d, log, err := openDriver()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer d.Close()
	return tui.RunInteractive(d)
}
