package plotpage

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/dendrotime/pkg/hierarchy"
	"github.com/Sumatoshi-tech/dendrotime/pkg/view"
)

// Report builds the report page of a view: a summary, the dendrogram when it
// was laid out, and the convergence chart when any series has points.
func Report(v view.View, theme Theme) *Page {
	cOpts := NewChartOpts(theme)

	page := NewPage(fmt.Sprintf("Job %d", v.JobID), "Progressive hierarchical clustering").WithTheme(theme)
	page.AddStats(
		Stat{Label: "State", Value: v.State},
		Stat{Label: "Progress", Value: fmt.Sprintf("%.0f%%", v.Progress)},
		Stat{Label: "Leaves", Value: humanize.Comma(int64(v.LeafCount))},
		Stat{Label: "Updated", Value: humanize.Time(v.UpdatedAt)},
	)

	switch {
	case v.Layout != nil:
		page.Add(Section{
			Title:    "Dendrogram",
			Subtitle: dendrogramSubtitle(v),
			Chart:    BuildDendrogramChart(cOpts, *v.Layout),
			Hint:     repairHint(v),
		})
	case v.DendrogramSkipped:
		page.Add(Section{
			Title:    "Dendrogram",
			Subtitle: fmt.Sprintf("Not drawn: %s leaves exceed the layout limit", humanize.Comma(int64(v.LeafCount))),
			Hint:     repairHint(v),
		})
	}

	if len(v.Series) > 0 {
		page.Add(Section{
			Title:    "Convergence",
			Subtitle: "Quality of the intermediate hierarchies",
			Chart:    BuildConvergenceChart(cOpts, v.Series, v.AxisLabel),
		})
	}

	return page
}

func dendrogramSubtitle(v view.View) string {
	s := fmt.Sprintf("%s nodes, %s axis", humanize.Comma(int64(len(v.Layout.Nodes))), v.Layout.Scale.Mode)
	if v.Stale {
		s += ", from an earlier snapshot"
	}

	return s
}

func repairHint(v view.View) Hint {
	if !v.Repairs.Repaired() {
		return Hint{}
	}

	var items []string

	if v.Repairs.Attached > 0 {
		items = append(items, fmt.Sprintf("%d nodes without a parent were attached to the root", v.Repairs.Attached))
	}

	if v.Repairs.Dropped > 0 {
		items = append(items, fmt.Sprintf("%d invalid child references were dropped", v.Repairs.Dropped))
	}

	if v.Repairs.RootDistanceRepaired {
		items = append(items, "The root distance was synthesized from the largest merge distance")
	}

	if v.Repairs.Clamped {
		items = append(items, fmt.Sprintf("The leaf count exceeded %d and the tree was not built", hierarchy.MaxLeafCount))
	}

	return Hint{Title: "Partial hierarchy", Items: items}
}
