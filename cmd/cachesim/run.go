package main

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/report"
	"github.com/sarchlab/cachesim/sweep"
)

var runFlags struct {
	size          int
	blockSize     int
	associativity int
	replacement   string
	verify        bool
}

var runCmd = &cobra.Command{
	Use:   "run <trace>...",
	Short: "Simulate one cache configuration over traces.",
	Long: "`run` reports the hit and miss rates of one cache configuration " +
		"on each of the given traces.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config := sweep.DefaultConfig()
		config.Traces = args
		config.Replacement = runFlags.replacement
		config.Verify = runFlags.verify
		config.Plans = []sweep.Plan{{
			Name: "run",
			Base: cache.Config{
				Size:          runFlags.size,
				BlockSize:     runFlags.blockSize,
				Associativity: runFlags.associativity,
			},
		}}

		results, err := runSweep(cmd, config, config.Plans)
		if err != nil {
			return err
		}

		return report.WriteTable(cmd.OutOrStdout(), results, tableOptions()...)
	},
}

func init() {
	defaults := cache.DefaultConfig()

	flags := runCmd.Flags()
	flags.IntVar(&runFlags.size, "size", defaults.Size, "Cache size in bytes")
	flags.IntVar(&runFlags.blockSize, "block-size", defaults.BlockSize, "Block size in bytes")
	flags.IntVar(&runFlags.associativity, "assoc", defaults.Associativity, "Associativity (ways per set)")
	flags.StringVar(&runFlags.replacement, "replacement", cache.StampLRU.String(),
		"LRU bookkeeping: stamp or ordered")
	flags.BoolVar(&runFlags.verify, "verify", false,
		"Cross-check every access against the reference model")

	rootCmd.AddCommand(runCmd)
}
