package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/report"
	"github.com/sarchlab/cachesim/sweep"
)

var sweepFlags struct {
	configPath  string
	plans       []string
	format      string
	sqlitePath  string
	workers     int
	replacement string
	skipInvalid bool
	verify      bool
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Sweep cache parameters over traces.",
	Long: "`sweep` runs the plans of a sweep configuration (the built-in " +
		"fixed, cache_size, block_size and associativity experiments by " +
		"default) over every trace and reports hit and miss rates.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		write, err := resultWriter(sweepFlags.format)
		if err != nil {
			return err
		}

		config, err := sweepConfig(cmd)
		if err != nil {
			return err
		}

		plans, err := config.Select(sweepFlags.plans...)
		if err != nil {
			return err
		}

		runID := report.NewRunID()

		var recorder *report.SQLiteRecorder
		if sweepFlags.sqlitePath != "" {
			recorder, err = report.NewSQLiteRecorder(sweepFlags.sqlitePath, runID)
			if err != nil {
				return err
			}
			atexit.Register(func() { recorder.Close() })
			logger(cmd).Printf("recording run %s in %s", recorder.RunID(), sweepFlags.sqlitePath)
		}

		results, err := runSweep(cmd, config, plans)
		if err != nil {
			return err
		}

		if recorder != nil {
			if err := recorder.Record(results); err != nil {
				return err
			}
		}

		return write(cmd.OutOrStdout(), runID, results)
	},
}

type writeFunc func(w io.Writer, runID string, results []sweep.Result) error

// resultWriter returns the writer for an output format.
func resultWriter(format string) (writeFunc, error) {
	switch format {
	case "table":
		return func(w io.Writer, _ string, results []sweep.Result) error {
			return report.WriteTable(w, results, tableOptions()...)
		}, nil
	case "csv":
		return func(w io.Writer, _ string, results []sweep.Result) error {
			return report.WriteCSV(w, results)
		}, nil
	case "json":
		return report.WriteJSON, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// sweepConfig loads the configuration file, if any, and applies the flags
// the user set explicitly. The loaded file is left untouched so overrides can
// be logged against it.
func sweepConfig(cmd *cobra.Command) (*sweep.Config, error) {
	base := sweep.DefaultConfig()
	if sweepFlags.configPath != "" {
		var err error
		base, err = sweep.LoadConfig(sweepFlags.configPath)
		if err != nil {
			return nil, err
		}
	}

	config := base.Clone()
	flags := cmd.Flags()
	if flags.Changed("workers") {
		config.Workers = sweepFlags.workers
	}
	if flags.Changed("replacement") {
		config.Replacement = sweepFlags.replacement
	}
	if flags.Changed("skip-invalid") {
		config.SkipInvalid = sweepFlags.skipInvalid
	}
	if flags.Changed("verify") {
		config.Verify = sweepFlags.verify
	}

	logOverrides(logger(cmd), base, config)

	return config, nil
}

func logOverrides(progress *log.Logger, base, config *sweep.Config) {
	if config.Workers != base.Workers {
		progress.Printf("workers: %d (config: %d)", config.Workers, base.Workers)
	}
	if config.Replacement != base.Replacement {
		progress.Printf("replacement: %q (config: %q)", config.Replacement, base.Replacement)
	}
	if config.SkipInvalid != base.SkipInvalid {
		progress.Printf("skip-invalid: %v (config: %v)", config.SkipInvalid, base.SkipInvalid)
	}
	if config.Verify != base.Verify {
		progress.Printf("verify: %v (config: %v)", config.Verify, base.Verify)
	}
}

// runSweep validates config, loads its traces and runs plans. Interrupts
// cancel the run.
func runSweep(cmd *cobra.Command, config *sweep.Config, plans []sweep.Plan) ([]sweep.Result, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sweep config: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	progress := logger(cmd)

	traces, err := sweep.LoadTraces(ctx, traceDir(), config.Traces)
	if err != nil {
		return nil, err
	}
	for _, t := range traces {
		progress.Printf("loaded %s: %d accesses", t.Name, len(t.Addrs))
	}

	runner, err := sweep.NewRunner(config)
	if err != nil {
		return nil, err
	}
	runner.Logger = progress

	return runner.Run(ctx, plans, traces)
}

func init() {
	flags := sweepCmd.Flags()
	flags.StringVarP(&sweepFlags.configPath, "config", "c", "",
		"Path to sweep configuration (JSON or YAML)")
	flags.StringSliceVarP(&sweepFlags.plans, "plan", "p", nil,
		"Plans to run (default: all)")
	flags.StringVarP(&sweepFlags.format, "format", "f", "table",
		"Output format: table, csv or json")
	flags.StringVar(&sweepFlags.sqlitePath, "sqlite", "",
		"Also record results in this SQLite database")
	flags.IntVarP(&sweepFlags.workers, "workers", "w", 0,
		"Caches simulated in parallel (0: one per CPU)")
	flags.StringVar(&sweepFlags.replacement, "replacement", "stamp",
		"LRU bookkeeping: stamp or ordered")
	flags.BoolVar(&sweepFlags.skipInvalid, "skip-invalid", false,
		"Report invalid configurations instead of aborting")
	flags.BoolVar(&sweepFlags.verify, "verify", false,
		"Cross-check every access against the reference model")

	rootCmd.AddCommand(sweepCmd)
}
