// Package commands implements the dendrotime subcommands.
package commands

import (
	"github.com/spf13/cobra"
)

// Persistent flag names.
const (
	flagConfig  = "config"
	flagVerbose = "verbose"
	flagQuiet   = "quiet"
	flagBackend = "backend"
)

// NewRootCommand creates the dendrotime root command with every subcommand
// except version.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dendrotime",
		Short: "DendroTime - follow progressive hierarchical clustering jobs",
		Long: `DendroTime follows a progressive hierarchical clustering job and renders
its partial dendrogram and quality convergence while the job runs.

Commands:
  serve     Live dashboard in the browser
  watch     Follow a job in the terminal
  start     Start a clustering job
  cancel    Cancel a running job
  datasets  List datasets offered by the server
  render    Render a progress snapshot file
  validate  Check progress snapshot files against the schema
  replay    Replay a recorded job
  mcp       MCP server for AI agents`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String(flagConfig, "", "config file (default ./config.yaml)")
	rootCmd.PersistentFlags().BoolP(flagVerbose, "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP(flagQuiet, "q", false, "suppress output")

	rootCmd.AddCommand(
		NewServeCommand(),
		NewWatchCommand(),
		NewStartCommand(),
		NewCancelCommand(),
		NewDatasetsCommand(),
		NewRenderCommand(),
		NewValidateCommand(),
		NewReplayCommand(),
		NewMCPCommand(),
	)

	return rootCmd
}
