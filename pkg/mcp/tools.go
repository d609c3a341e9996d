package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/dendrotime/pkg/hierarchy"
)

// Tool name constants.
const (
	ToolNameBuildHierarchy = "dendrotime_build_hierarchy"
	ToolNameLayout         = "dendrotime_layout"
	ToolNameConvergence    = "dendrotime_convergence"
)

// MaxRecords bounds the merge records accepted by one call.
const MaxRecords = 1 << 17

// Sentinel errors for tool input validation.
var (
	// ErrNegativeLeafCount indicates n is negative.
	ErrNegativeLeafCount = errors.New("n must not be negative")
	// ErrTooManyRecords indicates the record list exceeds MaxRecords.
	ErrTooManyRecords = errors.New("too many merge records")
	// ErrTooManyLeaves indicates n exceeds hierarchy.MaxLeafCount.
	ErrTooManyLeaves = errors.New("too many leaves")
	// ErrNoAxis indicates neither steps nor timestamps were given.
	ErrNoAxis = errors.New("steps or timestamps are required")
)

const (
	buildHierarchyDescription = "Reconstruct a cluster tree from a possibly partial list of merge records. " +
		"Records are in merge order; unresolved records may omit the distance. " +
		"Returns the repaired tree, repair statistics and a text rendering."

	layoutDescription = "Compute dendrogram coordinates for a list of merge records: " +
		"node positions, elbow links, viewport and distance scale."

	convergenceDescription = "Turn per-step quality metrics into plottable series indexed by step or by " +
		"milliseconds since the first timestamp, with a summary per series."
)

// RecordInput is one merge record as sent by the clustering server.
type RecordInput struct {
	Distance    *float64 `json:"distance,omitempty" jsonschema:"merge distance; omit or null while unresolved"`
	LeftID      int      `json:"cId1"               jsonschema:"id of the first merged cluster"`
	RightID     int      `json:"cId2"               jsonschema:"id of the second merged cluster"`
	Cardinality int      `json:"cardinality"        jsonschema:"number of leaves under the merge"`
}

// HierarchyInput is the input schema for dendrotime_build_hierarchy.
type HierarchyInput struct {
	Records   []RecordInput `json:"records" jsonschema:"merge records in merge order"`
	LeafCount int           `json:"n"       jsonschema:"number of leaves (time series)"`
}

// LayoutInput is the input schema for dendrotime_layout.
type LayoutInput struct {
	Records           []RecordInput `json:"records"                       jsonschema:"merge records in merge order"`
	LeafCount         int           `json:"n"                             jsonschema:"number of leaves (time series)"`
	Width             float64       `json:"width,omitempty"               jsonschema:"drawing width (default 900)"`
	NodeSpacing       float64       `json:"node_spacing,omitempty"        jsonschema:"distance between neighboring leaves (default 15)"`
	EqualNodeDistance bool          `json:"equal_node_distance,omitempty" jsonschema:"place nodes by height instead of merge distance"`
}

// ConvergenceInput is the input schema for dendrotime_convergence.
type ConvergenceInput struct {
	Metrics       map[string][]float64 `json:"metrics"                  jsonschema:"metric name to per-step values, e.g. hierarchySimilarities"`
	Steps         []int64              `json:"steps,omitempty"          jsonschema:"step numbers"`
	Timestamps    []int64              `json:"timestamps,omitempty"     jsonschema:"epoch milliseconds per step"`
	UseTimestamps bool                 `json:"use_timestamps,omitempty" jsonschema:"index by milliseconds since the first timestamp"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

func (in HierarchyInput) validate() error {
	return validateRecords(in.Records, in.LeafCount)
}

func (in LayoutInput) validate() error {
	return validateRecords(in.Records, in.LeafCount)
}

func (in ConvergenceInput) validate() error {
	if len(in.Steps) == 0 && len(in.Timestamps) == 0 {
		return ErrNoAxis
	}

	return nil
}

func validateRecords(records []RecordInput, leafCount int) error {
	if leafCount < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeLeafCount, leafCount)
	}

	if leafCount > hierarchy.MaxLeafCount {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManyLeaves, leafCount, hierarchy.MaxLeafCount)
	}

	if len(records) > MaxRecords {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManyRecords, len(records), MaxRecords)
	}

	return nil
}

func mergeRecords(records []RecordInput) []hierarchy.MergeRecord {
	out := make([]hierarchy.MergeRecord, len(records))

	for i, r := range records {
		out[i] = hierarchy.MergeRecord{
			Distance:    r.Distance,
			LeftID:      r.LeftID,
			RightID:     r.RightID,
			Cardinality: r.Cardinality,
		}
	}

	return out
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}
