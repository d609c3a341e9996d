package terminal

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/dendrotime/pkg/progress"
	"github.com/Sumatoshi-tech/dendrotime/pkg/view"
)

const (
	statusBarWidth = 20
	percent        = 100
)

// StatusLine summarizes a view in one line: the colored phase, a progress
// bar, and the tree and series sizes.
func (c Config) StatusLine(v view.View) string {
	phase := progress.Phase(v.State)

	parts := []string{
		c.Colorize("["+v.State+"]", ColorForPhase(phase)),
		fmt.Sprintf("%s %3.0f%%", DrawProgressBar(v.Progress/percent, statusBarWidth), v.Progress),
		humanize.Comma(int64(v.LeafCount)) + " leaves",
	}

	if v.Tree != nil {
		parts = append(parts, humanize.Comma(int64(v.Tree.Count()))+" nodes")
	}

	if points := countPoints(v); points > 0 {
		parts = append(parts, humanize.Comma(int64(points))+" points")
	}

	if v.Repairs.Repaired() {
		parts = append(parts, c.Colorize("repaired", ColorYellow))
	}

	if v.Stale {
		parts = append(parts, c.Colorize("stale", ColorGray))
	}

	if v.DendrogramSkipped {
		parts = append(parts, c.Colorize("layout skipped", ColorGray))
	}

	return strings.Join(parts, "  ")
}

// PhaseList renders each phase with its progress, highlighting the active one.
func (c Config) PhaseList(phases []progress.PhaseStatus) string {
	lines := make([]string, 0, len(phases))

	for _, p := range phases {
		name := PadRight(string(p.Name), phaseNameWidth)
		if p.Active {
			name = c.Colorize(name, ColorForPhase(p.Name))
		}

		lines = append(lines, fmt.Sprintf("%s %s %3.0f%%", name, DrawProgressBar(p.Progress/percent, statusBarWidth), p.Progress))
	}

	return strings.Join(lines, "\n")
}

const phaseNameWidth = len(progress.PhaseComputingFullDistances)

// PadRight pads s with spaces to width runes.
func PadRight(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}

	return s + strings.Repeat(" ", width-n)
}

func countPoints(v view.View) int {
	n := 0
	for _, s := range v.Series {
		n += len(s.Points)
	}

	return n
}
