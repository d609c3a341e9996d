package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/dendrotime/pkg/convergence"
	"github.com/Sumatoshi-tech/dendrotime/pkg/dendrogram"
	"github.com/Sumatoshi-tech/dendrotime/pkg/hierarchy"
	"github.com/Sumatoshi-tech/dendrotime/pkg/terminal"
)

// HierarchyResult is the payload of dendrotime_build_hierarchy.
type HierarchyResult struct {
	Tree  *hierarchy.Node `json:"tree"`
	Text  string          `json:"text"`
	Stats hierarchy.Stats `json:"stats"`
	Nodes int             `json:"nodes"`
}

// ConvergenceResult is the payload of dendrotime_convergence.
type ConvergenceResult struct {
	AxisLabel string                `json:"axis_label"`
	Series    []convergence.Series  `json:"series"`
	Summaries []convergence.Summary `json:"summaries"`
	MaxIndex  int64                 `json:"max_index"`
}

func handleBuildHierarchy(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input HierarchyInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := input.validate()
	if err != nil {
		return errorResult(err)
	}

	root, stats := hierarchy.BuildWithStats(mergeRecords(input.Records), input.LeafCount)

	return jsonResult(HierarchyResult{
		Tree:  root,
		Stats: stats,
		Nodes: root.Count(),
		Text:  terminal.RenderTree(root),
	})
}

func handleLayout(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input LayoutInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := input.validate()
	if err != nil {
		return errorResult(err)
	}

	cfg := dendrogram.DefaultConfig()
	cfg.Mode = dendrogram.ModeFor(input.EqualNodeDistance)

	if input.Width > 0 {
		cfg.Width = input.Width
	}

	if input.NodeSpacing > 0 {
		cfg.NodeSpacing = input.NodeSpacing
	}

	root := hierarchy.Build(mergeRecords(input.Records), input.LeafCount)

	return jsonResult(dendrogram.Layout(root, cfg))
}

func handleConvergence(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input ConvergenceInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := input.validate()
	if err != nil {
		return errorResult(err)
	}

	series := convergence.Aggregate(input.Steps, input.Timestamps, input.Metrics, input.UseTimestamps)

	return jsonResult(ConvergenceResult{
		AxisLabel: convergence.AxisLabel(input.UseTimestamps),
		Series:    series,
		Summaries: convergence.Summarize(series),
		MaxIndex:  convergence.MaxIndex(series),
	})
}
