package view

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/dendrotime/pkg/observability"
	"github.com/Sumatoshi-tech/dendrotime/pkg/progress"
	"github.com/Sumatoshi-tech/dendrotime/pkg/viewcache"
)

const tracerName = "dendrotime/view"

// Deriver follows jobs across snapshots. It tracks phases per job and keeps
// the last view with a tree so that snapshots without merge records still
// render the latest known dendrogram. Derivations of one job must not
// overlap; Derive serializes them.
type Deriver struct {
	logger   *slog.Logger
	metrics  *observability.DeriveMetrics
	tracer   trace.Tracer
	trackers map[int64]*progress.Tracker
	last     *viewcache.Cache[int64, View]
	opts     Options
	mu       sync.Mutex
}

// DeriverOption configures a Deriver.
type DeriverOption func(*Deriver)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) DeriverOption {
	return func(d *Deriver) {
		d.logger = logger
	}
}

// WithMetrics records derivation metrics.
func WithMetrics(metrics *observability.DeriveMetrics) DeriverOption {
	return func(d *Deriver) {
		d.metrics = metrics
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer trace.Tracer) DeriverOption {
	return func(d *Deriver) {
		d.tracer = tracer
	}
}

// WithCapacity bounds the number of jobs whose last view is kept.
func WithCapacity(jobs int) DeriverOption {
	return func(d *Deriver) {
		d.last = viewcache.New[int64, View](jobs)
	}
}

// NewDeriver creates a Deriver with opts.
func NewDeriver(opts Options, options ...DeriverOption) *Deriver {
	d := &Deriver{
		opts:     opts,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
		trackers: make(map[int64]*progress.Tracker),
		last:     viewcache.New[int64, View](viewcache.DefaultMaxEntries),
	}

	for _, opt := range options {
		opt(d)
	}

	return d
}

// Options returns the current derivation options.
func (d *Deriver) Options() Options {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.opts
}

// SetOptions replaces the derivation options for subsequent snapshots.
func (d *Deriver) SetOptions(opts Options) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.opts = opts
}

// Derive turns a snapshot of jobID into a view.
func (d *Deriver) Derive(ctx context.Context, jobID int64, snap *progress.Snapshot) View {
	ctx, span := d.tracer.Start(ctx, "view.derive", trace.WithAttributes(
		attribute.Int64("job.id", jobID),
		attribute.Int("hierarchy.records", len(snap.Hierarchy.Records)),
		attribute.Int("hierarchy.leaves", snap.Hierarchy.LeafCount),
	))
	defer span.End()

	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()

	tracker, ok := d.trackers[jobID]
	if !ok {
		tracker = progress.NewTracker()
		d.trackers[jobID] = tracker
	}

	tracker.Advance(progress.Phase(snap.State), snap.Progress)

	v := derive(jobID, snap, d.opts, tracker)

	if v.HasTree() {
		d.last.Put(jobID, v)
	} else if prev, found := d.last.Get(jobID); found {
		v.Tree = prev.Tree
		v.Layout = prev.Layout
		v.Repairs = prev.Repairs
		v.DendrogramSkipped = prev.DendrogramSkipped
		v.LeafCount = prev.LeafCount
		v.Stale = true
	}

	d.observe(ctx, v, time.Since(start))

	return v
}

// Last returns the latest view with a tree for jobID.
func (d *Deriver) Last(jobID int64) (View, bool) {
	return d.last.Get(jobID)
}

// Forget drops all state kept for jobID.
func (d *Deriver) Forget(jobID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.trackers, jobID)
	d.last.Delete(jobID)
}

func (d *Deriver) observe(ctx context.Context, v View, elapsed time.Duration) {
	ctx = observability.ContextWithJob(ctx, v.JobID)

	rec := observability.DeriveRecord{Duration: elapsed}
	if v.Tree != nil {
		rec.Nodes = v.Tree.Count()
	}

	if !v.Stale {
		rec.Attached = v.Repairs.Attached
		rec.Dropped = v.Repairs.Dropped
		rec.RootDistanceRepaired = v.Repairs.RootDistanceRepaired
		rec.LayoutSkipped = v.DendrogramSkipped

		if v.Repairs.Repaired() {
			d.logger.DebugContext(ctx, "hierarchy repaired",
				"attached", v.Repairs.Attached,
				"dropped", v.Repairs.Dropped,
				"skipped", v.Repairs.Skipped,
				"root_distance", v.Repairs.RootDistanceRepaired,
			)
		}
	}

	if d.metrics != nil {
		d.metrics.Record(ctx, rec)
	}
}
