package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/dendrotime/pkg/mcp"
	"github.com/Sumatoshi-tech/dendrotime/pkg/observability"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes the dendrotime cores as tools that AI agents can
discover and invoke:
  - dendrotime_build_hierarchy: Reconstruct a cluster tree from partial merge records
  - dendrotime_layout: Compute dendrogram coordinates
  - dendrotime_convergence: Turn quality metrics into plottable series`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, observability.ModeMCP)
			if err != nil {
				return err
			}
			defer a.close()

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:  a.logger(),
				Metrics: a.red,
				Tracer:  a.providers.Tracer,
			})

			return srv.Run(cmd.Context())
		},
	}

	return cmd
}
