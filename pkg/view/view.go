// Package view derives the renderable state of a job from a progress
// snapshot: the repaired tree, its layout, the convergence series and the
// phase list.
package view

import (
	"time"

	"github.com/Sumatoshi-tech/dendrotime/pkg/convergence"
	"github.com/Sumatoshi-tech/dendrotime/pkg/dendrogram"
	"github.com/Sumatoshi-tech/dendrotime/pkg/hierarchy"
	"github.com/Sumatoshi-tech/dendrotime/pkg/progress"
)

// DefaultMaxLeaves is the largest tree laid out without ForceDendrogram.
const DefaultMaxLeaves = 300

// Options control how snapshots are turned into views.
type Options struct {
	Layout          dendrogram.Config `json:"layout"           yaml:"layout"`
	MaxLeaves       int               `json:"max_leaves"       yaml:"max_leaves"`
	UseTimestamps   bool              `json:"use_timestamps"   yaml:"use_timestamps"`
	ForceDendrogram bool              `json:"force_dendrogram" yaml:"force_dendrogram"`
}

// DefaultOptions returns the dashboard defaults.
func DefaultOptions() Options {
	return Options{
		Layout:        dendrogram.DefaultConfig(),
		MaxLeaves:     DefaultMaxLeaves,
		UseTimestamps: true,
	}
}

func (o Options) maxLeaves() int {
	if o.MaxLeaves <= 0 {
		return DefaultMaxLeaves
	}

	return o.MaxLeaves
}

// View is the renderable state of one job at one snapshot.
type View struct {
	UpdatedAt         time.Time              `json:"updated_at"         yaml:"updated_at"`
	Tree              *hierarchy.Node        `json:"tree,omitempty"     yaml:"tree,omitempty"`
	Layout            *dendrogram.Result     `json:"layout,omitempty"   yaml:"layout,omitempty"`
	State             string                 `json:"state"              yaml:"state"`
	AxisLabel         string                 `json:"axis_label"         yaml:"axis_label"`
	Phases            []progress.PhaseStatus `json:"phases"             yaml:"phases"`
	Series            []convergence.Series   `json:"series,omitempty"   yaml:"series,omitempty"`
	Repairs           hierarchy.Stats        `json:"repairs"            yaml:"repairs"`
	JobID             int64                  `json:"job_id"             yaml:"job_id"`
	Progress          float64                `json:"progress"           yaml:"progress"`
	LeafCount         int                    `json:"leaf_count"         yaml:"leaf_count"`
	MaxIndex          int64                  `json:"max_index"          yaml:"max_index"`
	DendrogramSkipped bool                   `json:"dendrogram_skipped" yaml:"dendrogram_skipped"`
	Stale             bool                   `json:"stale"              yaml:"stale"`
}

// HasTree reports whether the view carries a tree.
func (v View) HasTree() bool {
	return v.Tree != nil
}

// Finished reports whether the job had finished at this snapshot.
func (v View) Finished() bool {
	return progress.Phase(v.State) == progress.PhaseFinished
}

// Derive builds the view of a single snapshot. Phases are derived as if the
// job had jumped straight to the snapshot state; use a Deriver to follow a
// job across snapshots.
func Derive(jobID int64, snap *progress.Snapshot, opts Options) View {
	tracker := progress.NewTracker()
	tracker.Advance(progress.Phase(snap.State), snap.Progress)

	return derive(jobID, snap, opts, tracker)
}

func derive(jobID int64, snap *progress.Snapshot, opts Options, tracker *progress.Tracker) View {
	v := View{
		JobID:     jobID,
		State:     snap.State,
		Progress:  snap.Progress,
		Phases:    tracker.Statuses(),
		LeafCount: snap.Hierarchy.LeafCount,
		AxisLabel: convergence.AxisLabel(opts.UseTimestamps),
		UpdatedAt: time.Now().UTC(),
	}

	if snap.HasHierarchy() {
		v.Tree, v.Repairs = hierarchy.BuildWithStats(snap.MergeRecords(), snap.Hierarchy.LeafCount)

		if v.LeafCount > opts.maxLeaves() && !opts.ForceDendrogram {
			v.DendrogramSkipped = true
		} else {
			layout := dendrogram.Layout(v.Tree, opts.Layout)
			v.Layout = &layout
		}
	}

	v.Series = snap.Series(opts.UseTimestamps)
	v.MaxIndex = convergence.MaxIndex(v.Series)

	return v
}
