// Package cmd provides the CLI commands for hotness-cli.
package cmd

import (
	"github.com/spf13/cobra"
)

// version is set via ldflags at build time.
var version = "dev"

// debug enables debug-level, file-backed logging for the run command.
var debug bool

// NewRootCmd creates the root command for hotness-cli.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "hotness-cli",
		Short:   "Measure retrieval-hotness concentration over an HNSW-served corpus",
		Version: version,
	}
	root.SetVersionTemplate("hotness-cli version {{.Version}}\n")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug-level logging to <output-directory>/run.log")

	root.AddCommand(newRunCmd())
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
