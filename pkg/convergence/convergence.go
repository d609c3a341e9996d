// Package convergence turns the per-step quality metrics of a clustering job
// into index aligned series for plotting.
package convergence

import (
	"math"
	"sort"
)

// Metric names as they appear in job progress snapshots.
const (
	MetricHierarchySimilarities = "hierarchySimilarities"
	MetricHierarchyQualities    = "hierarchyQualities"
	MetricClusterQualities      = "clusterQualities"
)

// Axis labels.
const (
	AxisTimestamps = "Timestamps in ms"
	AxisSteps      = "Steps"
)

type metricLabel struct {
	metric string
	label  string
}

// canonical fixes legend order and therefore color assignment.
var canonical = []metricLabel{
	{MetricHierarchySimilarities, "Hierarchy Similarity"},
	{MetricHierarchyQualities, "Hierarchy Quality"},
	{MetricClusterQualities, "Cluster Quality"},
}

// Point is one sample of a series.
type Point struct {
	Index int64   `json:"index" yaml:"index"`
	Value float64 `json:"value" yaml:"value"`
}

// Series is a labeled metric series.
type Series struct {
	Label  string  `json:"label"  yaml:"label"`
	Metric string  `json:"metric" yaml:"metric"`
	Points []Point `json:"points" yaml:"points"`
}

// Label returns the display label of a metric. Unknown metrics keep their name.
func Label(metric string) string {
	for _, c := range canonical {
		if c.metric == metric {
			return c.label
		}
	}

	return metric
}

// AxisLabel returns the index axis label for the chosen axis.
func AxisLabel(useTimestamps bool) string {
	if useTimestamps {
		return AxisTimestamps
	}

	return AxisSteps
}

// Aggregate zips every non-empty metric array with the index axis. The axis is
// steps, or timestamps relative to the first timestamp when useTimestamps is
// set. Values beyond the end of the axis and non-finite values are dropped;
// nothing is resampled. Series follow the canonical metric order, then any
// other metric in lexical order. A metric left with no points is omitted, so a
// non-empty input can yield no series.
func Aggregate(steps, timestamps []int64, metrics map[string][]float64, useTimestamps bool) []Series {
	axis := steps

	var base int64

	if useTimestamps {
		axis = timestamps
		if len(timestamps) > 0 {
			base = timestamps[0]
		}
	}

	var out []Series

	for _, name := range orderedMetrics(metrics) {
		values := metrics[name]
		if len(values) == 0 {
			continue
		}

		points := make([]Point, 0, min(len(values), len(axis)))

		for i, v := range values {
			if i >= len(axis) {
				break
			}

			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}

			points = append(points, Point{Index: axis[i] - base, Value: v})
		}

		if len(points) == 0 {
			continue
		}

		out = append(out, Series{Label: Label(name), Metric: name, Points: points})
	}

	return out
}

func orderedMetrics(metrics map[string][]float64) []string {
	names := make([]string, 0, len(metrics))
	known := make(map[string]bool, len(canonical))

	for _, c := range canonical {
		known[c.metric] = true

		if _, ok := metrics[c.metric]; ok {
			names = append(names, c.metric)
		}
	}

	var extra []string

	for name := range metrics {
		if !known[name] {
			extra = append(extra, name)
		}
	}

	sort.Strings(extra)

	return append(names, extra...)
}

// MaxIndex returns the largest index over all series, or 0.
func MaxIndex(series []Series) int64 {
	var maxIndex int64

	for _, s := range series {
		for _, p := range s.Points {
			maxIndex = max(maxIndex, p.Index)
		}
	}

	return maxIndex
}
