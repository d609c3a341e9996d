package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricSnapshotsTotal   = "dendrotime.snapshots.total"
	metricDeriveDuration   = "dendrotime.derive.duration.seconds"
	metricRepairsTotal     = "dendrotime.repairs.total"
	metricTreeNodes        = "dendrotime.tree.nodes"
	metricSkippedLayouts   = "dendrotime.layouts.skipped.total"
	metricDashboardClients = "dendrotime.dashboard.clients"

	attrRepair = "repair"

	// RepairAttached counts nodes hung under the root.
	RepairAttached = "attached"
	// RepairDropped counts discarded child references.
	RepairDropped = "dropped"
	// RepairRootDistance counts synthesized root distances.
	RepairRootDistance = "root_distance"
)

// deriveBuckets covers sub-millisecond derivations of small trees up to large ones.
var deriveBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}

// DeriveMetrics instruments the snapshot to view derivation.
type DeriveMetrics struct {
	snapshots metric.Int64Counter
	duration  metric.Float64Histogram
	repairs   metric.Int64Counter
	treeNodes metric.Int64Histogram
	skipped   metric.Int64Counter
	clients   metric.Int64UpDownCounter
}

// DeriveRecord is one derivation outcome.
type DeriveRecord struct {
	Duration             time.Duration
	Nodes                int
	Attached             int
	Dropped              int
	RootDistanceRepaired bool
	LayoutSkipped        bool
}

// NewDeriveMetrics creates the derivation instruments from mt.
func NewDeriveMetrics(mt metric.Meter) (*DeriveMetrics, error) {
	snapshots, err := mt.Int64Counter(metricSnapshotsTotal,
		metric.WithDescription("Snapshots turned into views"),
		metric.WithUnit("{snapshot}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricSnapshotsTotal, err)
	}

	duration, err := mt.Float64Histogram(metricDeriveDuration,
		metric.WithDescription("Time to build, lay out and aggregate one snapshot"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(deriveBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricDeriveDuration, err)
	}

	repairs, err := mt.Int64Counter(metricRepairsTotal,
		metric.WithDescription("Hierarchy repairs by kind"),
		metric.WithUnit("{repair}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRepairsTotal, err)
	}

	treeNodes, err := mt.Int64Histogram(metricTreeNodes,
		metric.WithDescription("Nodes in the reconstructed tree"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTreeNodes, err)
	}

	skipped, err := mt.Int64Counter(metricSkippedLayouts,
		metric.WithDescription("Dendrogram layouts skipped because the tree was too large"),
		metric.WithUnit("{layout}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricSkippedLayouts, err)
	}

	clients, err := mt.Int64UpDownCounter(metricDashboardClients,
		metric.WithDescription("Connected dashboard websocket clients"),
		metric.WithUnit("{client}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricDashboardClients, err)
	}

	return &DeriveMetrics{
		snapshots: snapshots,
		duration:  duration,
		repairs:   repairs,
		treeNodes: treeNodes,
		skipped:   skipped,
		clients:   clients,
	}, nil
}

// Record stores one derivation outcome.
func (dm *DeriveMetrics) Record(ctx context.Context, rec DeriveRecord) {
	dm.snapshots.Add(ctx, 1)
	dm.duration.Record(ctx, rec.Duration.Seconds())
	dm.treeNodes.Record(ctx, int64(rec.Nodes))

	if rec.Attached > 0 {
		dm.repairs.Add(ctx, int64(rec.Attached), metric.WithAttributes(attribute.String(attrRepair, RepairAttached)))
	}

	if rec.Dropped > 0 {
		dm.repairs.Add(ctx, int64(rec.Dropped), metric.WithAttributes(attribute.String(attrRepair, RepairDropped)))
	}

	if rec.RootDistanceRepaired {
		dm.repairs.Add(ctx, 1, metric.WithAttributes(attribute.String(attrRepair, RepairRootDistance)))
	}

	if rec.LayoutSkipped {
		dm.skipped.Add(ctx, 1)
	}
}

// ClientConnected tracks a dashboard client and returns its disconnect hook.
func (dm *DeriveMetrics) ClientConnected(ctx context.Context) func() {
	dm.clients.Add(ctx, 1)

	return func() {
		dm.clients.Add(ctx, -1)
	}
}
