package view_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/dendrotime/pkg/convergence"
	"github.com/Sumatoshi-tech/dendrotime/pkg/observability"
	"github.com/Sumatoshi-tech/dendrotime/pkg/progress"
	"github.com/Sumatoshi-tech/dendrotime/pkg/view"
)

func dist(v float64) *float64 {
	return &v
}

func partialSnapshot() *progress.Snapshot {
	return &progress.Snapshot{
		State:    string(progress.PhaseApproximating),
		Progress: 40,
		Hierarchy: progress.Hierarchy{
			LeafCount: 4,
			Records: []progress.Record{
				{LeftID: 0, RightID: 1, Cardinality: 2, Distance: dist(0.1)},
				{LeftID: 4, RightID: 2, Cardinality: 3, Index: 1},
			},
		},
		Steps:                 []int64{0, 1, 2},
		Timestamps:            []int64{500, 700, 900},
		HierarchySimilarities: []float64{0.1, 0.2, 0.3},
	}
}

func TestDerive_CombinesCores(t *testing.T) {
	t.Parallel()

	v := view.Derive(9, partialSnapshot(), view.DefaultOptions())

	require.True(t, v.HasTree())
	assert.Equal(t, 5, v.Tree.ID)
	require.NotNil(t, v.Layout)
	assert.Len(t, v.Layout.Nodes, 6)
	assert.Equal(t, 1, v.Repairs.Attached)
	assert.False(t, v.DendrogramSkipped)

	require.Len(t, v.Series, 1)
	assert.Equal(t, "Hierarchy Similarity", v.Series[0].Label)
	assert.Equal(t, int64(400), v.MaxIndex)
	assert.Equal(t, convergence.AxisTimestamps, v.AxisLabel)

	require.Len(t, v.Phases, 4)
	assert.True(t, v.Phases[1].Active)
	assert.InDelta(t, 40, v.Phases[1].Progress, 1e-12)
	assert.False(t, v.Finished())
}

func TestDerive_NoRecordsNoTree(t *testing.T) {
	t.Parallel()

	snap := partialSnapshot()
	snap.Hierarchy.Records = nil

	v := view.Derive(1, snap, view.DefaultOptions())

	assert.False(t, v.HasTree())
	assert.Nil(t, v.Layout)
	assert.NotEmpty(t, v.Series)
}

func TestDerive_SkipsLargeTrees(t *testing.T) {
	t.Parallel()

	opts := view.DefaultOptions()
	opts.MaxLeaves = 3

	v := view.Derive(1, partialSnapshot(), opts)

	assert.True(t, v.HasTree())
	assert.True(t, v.DendrogramSkipped)
	assert.Nil(t, v.Layout)

	opts.ForceDendrogram = true

	v = view.Derive(1, partialSnapshot(), opts)

	assert.False(t, v.DendrogramSkipped)
	assert.NotNil(t, v.Layout)
}

func TestDerive_ClampsOversizedLeafCount(t *testing.T) {
	t.Parallel()

	snap := partialSnapshot()
	snap.Hierarchy.LeafCount = math.MaxInt

	var v view.View

	require.NotPanics(t, func() { v = view.Derive(1, snap, view.DefaultOptions()) })
	require.NotNil(t, v.Tree)
	assert.True(t, v.Tree.IsLeaf())
	assert.True(t, v.Repairs.Clamped)
	assert.True(t, v.DendrogramSkipped)
}

func TestDerive_StepAxis(t *testing.T) {
	t.Parallel()

	opts := view.DefaultOptions()
	opts.UseTimestamps = false

	v := view.Derive(1, partialSnapshot(), opts)

	assert.Equal(t, convergence.AxisSteps, v.AxisLabel)
	assert.Equal(t, int64(2), v.MaxIndex)
}

func TestDeriver_TracksPhasesAcrossSnapshots(t *testing.T) {
	t.Parallel()

	d := view.NewDeriver(view.DefaultOptions())
	ctx := context.Background()

	snap := partialSnapshot()
	snap.State = string(progress.PhaseInitializing)
	d.Derive(ctx, 3, snap)

	snap.State = string(progress.PhaseApproximating)
	d.Derive(ctx, 3, snap)

	snap.State = string(progress.PhaseComputingFullDistances)
	v := d.Derive(ctx, 3, snap)

	assert.InDelta(t, 100, v.Phases[0].Progress, 1e-12)
	assert.InDelta(t, 100, v.Phases[1].Progress, 1e-12)
	assert.True(t, v.Phases[2].Active)
}

func TestDeriver_FallsBackToLastTree(t *testing.T) {
	t.Parallel()

	d := view.NewDeriver(view.DefaultOptions(), view.WithCapacity(4))
	ctx := context.Background()

	first := d.Derive(ctx, 5, partialSnapshot())
	require.True(t, first.HasTree())

	empty := partialSnapshot()
	empty.Hierarchy.Records = nil

	v := d.Derive(ctx, 5, empty)

	assert.True(t, v.Stale)
	assert.Same(t, first.Tree, v.Tree)
	assert.Equal(t, first.Layout, v.Layout)

	other := d.Derive(ctx, 6, empty)
	assert.False(t, other.HasTree())
	assert.False(t, other.Stale)

	last, ok := d.Last(5)
	require.True(t, ok)
	assert.Same(t, first.Tree, last.Tree)

	d.Forget(5)

	_, ok = d.Last(5)
	assert.False(t, ok)
}

func TestDeriver_SetOptions(t *testing.T) {
	t.Parallel()

	d := view.NewDeriver(view.DefaultOptions())

	opts := d.Options()
	opts.UseTimestamps = false
	d.SetOptions(opts)

	v := d.Derive(context.Background(), 1, partialSnapshot())
	assert.Equal(t, convergence.AxisSteps, v.AxisLabel)
}

func TestDeriver_RecordsMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	dm, err := observability.NewDeriveMetrics(mp.Meter("test"))
	require.NoError(t, err)

	d := view.NewDeriver(view.DefaultOptions(), view.WithMetrics(dm))
	d.Derive(context.Background(), 1, partialSnapshot())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var snapshots int64

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "dendrotime.snapshots.total" {
				continue
			}

			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)

			for _, dp := range sum.DataPoints {
				snapshots += dp.Value
			}
		}
	}

	assert.Equal(t, int64(1), snapshots)
}
