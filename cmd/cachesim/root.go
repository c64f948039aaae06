package main

import (
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/report"
)

// traceDirEnv names the environment variable holding the base directory of
// relative trace paths.
const traceDirEnv = "CACHESIM_TRACE_DIR"

var (
	verbose     bool
	colorOutput bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cachesim",
	Short: "Cachesim simulates set-associative LRU caches over memory traces.",
	Long: `Cachesim simulates the hit/miss behavior of set-associative caches ` +
		`with LRU replacement over memory access traces, and sweeps cache ` +
		`size, block size and associativity.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadEnv(".env")
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Verbose output")
	rootCmd.PersistentFlags().BoolVar(&colorOutput, "color", false,
		"Highlight hit and miss columns in table output")
}

// loadEnv loads path into the environment if it exists. Variables already
// set take precedence.
func loadEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	return godotenv.Load(path)
}

// tableOptions returns the report options selected on the command line.
func tableOptions() []report.TableOption {
	return []report.TableOption{report.WithColor(colorOutput)}
}

// traceDir returns the base directory for relative trace paths.
func traceDir() string {
	return os.Getenv(traceDirEnv)
}

// logger returns the progress logger, which writes to the command's error
// output only in verbose mode.
func logger(cmd *cobra.Command) *log.Logger {
	if !verbose {
		return log.New(io.Discard, "", 0)
	}

	return log.New(cmd.ErrOrStderr(), "cachesim: ", log.Ltime)
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It exits through atexit so registered flushes run.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
