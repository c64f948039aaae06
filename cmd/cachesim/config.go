package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/sweep"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create and check sweep configurations.",
}

var configInitCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write the default sweep configuration.",
	Long: "`config init <path>` writes the built-in sweep configuration as " +
		"JSON, or YAML when path ends in .yaml or .yml.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := sweep.DefaultConfig().SaveConfig(args[0]); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Sweep config written to %s\n", args[0])

		return nil
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check <path>",
	Short: "Validate a sweep configuration and list its runs.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := sweep.LoadConfig(args[0])
		if err != nil {
			return err
		}
		if err := config.Validate(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, p := range config.Plans {
			for _, c := range p.Configs() {
				status := "ok"
				if err := c.Validate(); err != nil {
					status = err.Error()
				}
				fmt.Fprintf(out, "%-16s %-24s %s\n", p.Name, c, status)
			}
		}

		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}
