package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/fmusim/internal/config"
	"github.com/san-kum/fmusim/internal/fmu"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	dataDir    string
	configFile string
	preset     string
	verbose    bool
	setValues  []string
	asJSON     bool
	save       bool
	workers    int
	// jac
	check bool
	step  float64
	// sweep
	from   float64
	to     float64
	points int
	output string
	// search
	params    []string
	objective string
)

// main registers the fmusim commands and runs the root command. It exits
// with status 1 if the command returns an error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "fmusim",
		Short:         "drive FMI 3 model-exchange units",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fmusim", "data directory")
	rootCmd.PersistentFlags().StringVarP(&configFile, "model", "m", "", "model file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use a preset model file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging, including unit messages")

	platformCmd := &cobra.Command{
		Use:   "platform",
		Short: "show the platform tuple and binary path",
		RunE:  showPlatform,
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "show variables, scheme layout and sparsity",
		RunE:  inspectModel,
	}

	evalCmd := &cobra.Command{
		Use:   "eval",
		Short: "evaluate outputs at one input point",
		RunE:  evalModel,
	}
	evalCmd.Flags().StringArrayVar(&setValues, "set", nil, "input value as name=value (repeatable)")
	evalCmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	evalCmd.Flags().BoolVar(&save, "save", false, "store the result in the data directory")

	jacCmd := &cobra.Command{
		Use:   "jac",
		Short: "evaluate the output Jacobian at one input point",
		RunE:  jacobian,
	}
	jacCmd.Flags().StringArrayVar(&setValues, "set", nil, "input value as name=value (repeatable)")
	jacCmd.Flags().BoolVar(&check, "check", false, "compare against central finite differences")
	jacCmd.Flags().Float64Var(&step, "step", config.DefaultStep, "relative finite difference step")

	sweepCmd := &cobra.Command{
		Use:   "sweep [input]",
		Short: "evaluate outputs over a range of one input",
		Args:  cobra.ExactArgs(1),
		RunE:  sweep,
	}
	sweepCmd.Flags().StringArrayVar(&setValues, "set", nil, "base input value as name=value (repeatable)")
	sweepCmd.Flags().Float64Var(&from, "from", 0, "first value")
	sweepCmd.Flags().Float64Var(&to, "to", 1, "last value")
	sweepCmd.Flags().IntVarP(&points, "points", "n", 21, "number of values")
	sweepCmd.Flags().StringVar(&output, "output", "", "output to plot (default: all)")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel instances (default: GOMAXPROCS)")
	sweepCmd.Flags().BoolVar(&save, "save", true, "store the sweep in the data directory")

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "grid search for the smallest value of an output",
		RunE:  search,
	}
	searchCmd.Flags().StringArrayVar(&setValues, "set", nil, "base input value as name=value (repeatable)")
	searchCmd.Flags().StringArrayVarP(&params, "param", "p", nil, "grid axis as name=lo:hi:n (repeatable)")
	searchCmd.Flags().StringVar(&objective, "objective", "", "output to minimise")
	searchCmd.Flags().IntVar(&workers, "workers", 0, "parallel instances (default: GOMAXPROCS)")
	_ = searchCmd.MarkFlagRequired("objective")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "edit inputs and watch outputs interactively",
		RunE:  runTUI,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [preset] [file]",
		Short: "write a preset model file to edit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetPreset(args[0])
			if cfg == nil {
				return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
			}
			return config.Save(args[1], cfg)
		},
	}

	rootCmd.AddCommand(platformCmd, inspectCmd, evalCmd, jacCmd, sweepCmd, searchCmd, listCmd, showCmd, tuiCmd, presetsCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func loadConfig() (*config.Config, error) {
	switch {
	case configFile != "":
		return config.Load(configFile)
	case preset != "":
		cfg := config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		return cfg, nil
	default:
		return nil, fmt.Errorf("no model: pass --model or --preset")
	}
}

// openDriver loads the model file and the unit binary. The caller closes
// the driver and syncs the logger.
func openDriver() (*fmu.Driver, *zap.Logger, error) {
	log, err := newLogger()
	if err != nil {
		return nil, nil, err
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, log, err
	}
	m, err := cfg.Model()
	if err != nil {
		return nil, log, fmt.Errorf("model file: %w", err)
	}
	if verbose {
		m.Debug = true
	}

	d, err := fmu.New(m, fmu.Options{Logger: log})
	if err != nil {
		return nil, log, err
	}
	return d, log, nil
}

// inputPoint starts from the model's start values and applies --set.
func inputPoint(d *fmu.Driver) ([]float64, error) {
	names := d.Index().In.Names
	x := d.NewInstance().Inputs()
	for _, kv := range setValues {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("bad --set %q: want name=value", kv)
		}
		val, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("bad --set %q: %w", kv, err)
		}
		i := indexOf(names, strings.TrimSpace(name))
		if i < 0 {
			return nil, fmt.Errorf("bad --set %q: no input named %s", kv, name)
		}
		x[i] = val
	}
	return x, nil
}

// parseAxis reads name=lo:hi:n.
func parseAxis(s string) (string, float64, float64, int, error) {
	name, axis, ok := strings.Cut(s, "=")
	parts := strings.Split(axis, ":")
	if !ok || len(parts) != 3 {
		return "", 0, 0, 0, fmt.Errorf("bad --param %q: want name=lo:hi:n", s)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", 0, 0, 0, fmt.Errorf("bad --param %q: %w", s, err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", 0, 0, 0, fmt.Errorf("bad --param %q: %w", s, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 1 {
		return "", 0, 0, 0, fmt.Errorf("bad --param %q: n must be a positive integer", s)
	}
	return strings.TrimSpace(name), lo, hi, n, nil
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
