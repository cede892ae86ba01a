// Command blockgeo builds block-hierarchy geometry models described in HCL
// or in the Lisp DSL.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	config    string
	logLevel  string
	logFormat string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	rootCmd := &cobra.Command{
		Use:   "blockgeo",
		Short: "Build block-structured geometry models",
		Long: `blockgeo assembles a hierarchy of hexahedral blocks into canonical
geometry entities. Shared points, curves and surfaces are created once,
children become cavities of their parents, and optional transfinite
structure and recombination are applied.

Models are read from .hcl files or from Lisp programs (.lisp, .zy).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.config, "config", "", "YAML config file (default $BLOCKGEO_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "Override log format (text, json)")

	rootCmd.AddCommand(
		buildCmd(&g),
		validateCmd(&g),
		versionCmd(),
	)
	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "blockgeo %s (%s)\n", version, commit)
		},
	}
}
