package convergence_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/dendrotime/pkg/convergence"
)

func TestAggregate_OmitsEmptyMetrics(t *testing.T) {
	t.Parallel()

	series := convergence.Aggregate([]int64{0, 1, 2}, nil, map[string][]float64{
		convergence.MetricHierarchySimilarities: {0.1, 0.2, 0.3},
		convergence.MetricClusterQualities:      {},
	}, false)

	require.Len(t, series, 1)
	assert.Equal(t, "Hierarchy Similarity", series[0].Label)
	assert.Equal(t, []convergence.Point{{0, 0.1}, {1, 0.2}, {2, 0.3}}, series[0].Points)
}

func TestAggregate_CanonicalOrder(t *testing.T) {
	t.Parallel()

	series := convergence.Aggregate([]int64{0, 1}, nil, map[string][]float64{
		"zeta":                                  {1},
		convergence.MetricClusterQualities:      {0.5},
		"alpha":                                 {2},
		convergence.MetricHierarchyQualities:    {0.4},
		convergence.MetricHierarchySimilarities: {0.3},
	}, false)

	labels := make([]string, len(series))
	for i, s := range series {
		labels[i] = s.Label
	}

	assert.Equal(t, []string{"Hierarchy Similarity", "Hierarchy Quality", "Cluster Quality", "alpha", "zeta"}, labels)
}

func TestAggregate_TimestampsAreRelative(t *testing.T) {
	t.Parallel()

	series := convergence.Aggregate([]int64{0, 1, 2}, []int64{1000, 1250, 1600}, map[string][]float64{
		convergence.MetricHierarchyQualities: {0.2, 0.4, 0.9},
	}, true)

	require.Len(t, series, 1)
	assert.Equal(t, []convergence.Point{{0, 0.2}, {250, 0.4}, {600, 0.9}}, series[0].Points)
	assert.Equal(t, int64(600), convergence.MaxIndex(series))
}

func TestAggregate_DifferentLengthsAreIndependent(t *testing.T) {
	t.Parallel()

	series := convergence.Aggregate([]int64{0, 1, 2, 3}, nil, map[string][]float64{
		convergence.MetricHierarchySimilarities: {0.1, 0.2, 0.3, 0.4},
		convergence.MetricClusterQualities:      {0.9, 0.8},
	}, false)

	require.Len(t, series, 2)
	assert.Len(t, series[0].Points, 4)
	assert.Len(t, series[1].Points, 2)
}

func TestAggregate_TruncatesToAxis(t *testing.T) {
	t.Parallel()

	series := convergence.Aggregate([]int64{5, 6}, nil, map[string][]float64{
		convergence.MetricHierarchySimilarities: {0.1, 0.2, 0.3},
		convergence.MetricHierarchyQualities:    {0.5},
	}, false)

	require.Len(t, series, 2)
	assert.Equal(t, []convergence.Point{{5, 0.1}, {6, 0.2}}, series[0].Points)
	assert.Equal(t, []convergence.Point{{5, 0.5}}, series[1].Points)
}

func TestAggregate_NoAxisYieldsNoSeries(t *testing.T) {
	t.Parallel()

	series := convergence.Aggregate([]int64{0, 1}, nil, map[string][]float64{
		convergence.MetricHierarchySimilarities: {0.1, 0.2},
	}, true)

	assert.Empty(t, series)
}

func TestAggregate_SkipsNonFiniteValues(t *testing.T) {
	t.Parallel()

	series := convergence.Aggregate([]int64{0, 1, 2}, nil, map[string][]float64{
		convergence.MetricHierarchySimilarities: {math.NaN(), 0.5, math.Inf(1)},
	}, false)

	require.Len(t, series, 1)
	assert.Equal(t, []convergence.Point{{1, 0.5}}, series[0].Points)
}

func TestAggregate_AllValuesDroppedOmitsMetric(t *testing.T) {
	t.Parallel()

	series := convergence.Aggregate([]int64{0, 1}, nil, map[string][]float64{
		convergence.MetricHierarchySimilarities: {math.NaN(), math.Inf(-1)},
		convergence.MetricClusterQualities:      {0.3},
	}, false)

	require.Len(t, series, 1)
	assert.Equal(t, convergence.MetricClusterQualities, series[0].Metric)
}

func TestAxisLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Timestamps in ms", convergence.AxisLabel(true))
	assert.Equal(t, "Steps", convergence.AxisLabel(false))
	assert.Equal(t, "custom", convergence.Label("custom"))
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	series := []convergence.Series{
		{Label: "Hierarchy Quality", Points: []convergence.Point{{0, 0.2}, {1, 0.6}, {2, 0.4}}},
		{Label: "empty"},
	}

	summaries := convergence.Summarize(series)

	require.Len(t, summaries, 1)
	s := summaries[0]
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 0.4, s.Last, 1e-12)
	assert.InDelta(t, 0.2, s.Min, 1e-12)
	assert.InDelta(t, 0.6, s.Max, 1e-12)
	// 0.2 -> 0.3*0.6+0.7*0.2 = 0.32 -> 0.3*0.4+0.7*0.32 = 0.344
	assert.InDelta(t, 0.344, s.Smoothed, 1e-12)
}
