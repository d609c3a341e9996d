package terminal_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/dendrotime/pkg/convergence"
	"github.com/Sumatoshi-tech/dendrotime/pkg/hierarchy"
	"github.com/Sumatoshi-tech/dendrotime/pkg/progress"
	"github.com/Sumatoshi-tech/dendrotime/pkg/terminal"
	"github.com/Sumatoshi-tech/dendrotime/pkg/view"
)

func dist(v float64) *float64 {
	return &v
}

func sampleTree() *hierarchy.Node {
	return hierarchy.Build([]hierarchy.MergeRecord{
		{LeftID: 0, RightID: 1, Cardinality: 2, Distance: dist(0.25)},
		{LeftID: 4, RightID: 2, Cardinality: 3, Distance: dist(0.5)},
		{LeftID: 5, RightID: 3, Cardinality: 4, Distance: dist(0.75)},
	}, 4)
}

func TestRenderTree(t *testing.T) {
	t.Parallel()

	want := strings.Join([]string{
		"6 (d=0.750, n=4)",
		"├── 5 (d=0.500, n=3)",
		"│   ├── 4 (d=0.250, n=2)",
		"│   │   ├── 0",
		"│   │   └── 1",
		"│   └── 2",
		"└── 3",
		"",
	}, "\n")

	assert.Equal(t, want, terminal.RenderTree(sampleTree()))
}

func TestRenderTree_Nil(t *testing.T) {
	t.Parallel()

	assert.Empty(t, terminal.RenderTree(nil))
}

func TestRenderTree_SingleLeaf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0\n", terminal.RenderTree(hierarchy.Build(nil, 1)))
}

func TestRenderSeriesTable(t *testing.T) {
	t.Parallel()

	series := convergence.Aggregate([]int64{0, 1, 2}, nil, map[string][]float64{
		convergence.MetricHierarchyQualities: {0.2, 0.6, 0.4},
	}, false)

	out := terminal.RenderSeriesTable(series)

	assert.Contains(t, out, "Hierarchy Quality")
	assert.Contains(t, out, "0.400")
	assert.Contains(t, out, "0.200")
	assert.Contains(t, out, "0.600")
	assert.Empty(t, terminal.RenderSeriesTable(nil))
}

func TestColorize(t *testing.T) {
	t.Parallel()

	plain := terminal.Config{NoColor: true}
	assert.Equal(t, "x", plain.Colorize("x", terminal.ColorRed))

	colored := terminal.Config{}
	out := colored.Colorize("x", terminal.ColorGreen)
	assert.Contains(t, out, "\x1b[32m")
	assert.Contains(t, out, "x")
	assert.Equal(t, "x", colored.Colorize("x", terminal.ColorNone))
}

func TestColorForPhase(t *testing.T) {
	t.Parallel()

	assert.Equal(t, terminal.ColorGreen, terminal.ColorForPhase(progress.PhaseFinished))
	assert.Equal(t, terminal.ColorRed, terminal.ColorForPhase("Failed"))
}

func TestDrawProgressBar(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "███░", terminal.DrawProgressBar(0.75, 4))
	assert.Equal(t, "░░░░", terminal.DrawProgressBar(-1, 4))
	assert.Equal(t, "████", terminal.DrawProgressBar(2, 4))
	assert.Empty(t, terminal.DrawProgressBar(0.5, 0))
}

func TestStatusLine(t *testing.T) {
	t.Parallel()

	v := view.View{
		State:     string(progress.PhaseApproximating),
		Progress:  50,
		LeafCount: 1200,
		Tree:      sampleTree(),
		Repairs:   hierarchy.Stats{Attached: 1},
		Stale:     true,
	}

	line := terminal.Config{NoColor: true}.StatusLine(v)

	assert.True(t, strings.HasPrefix(line, "[Approximating]"))
	assert.Contains(t, line, " 50%")
	assert.Contains(t, line, "1,200 leaves")
	assert.Contains(t, line, "7 nodes")
	assert.Contains(t, line, "repaired")
	assert.Contains(t, line, "stale")
	assert.NotContains(t, line, "points")
}

func TestPhaseList(t *testing.T) {
	t.Parallel()

	tracker := progress.NewTracker()
	tracker.Advance(progress.PhaseApproximating, 25)

	out := terminal.Config{NoColor: true}.PhaseList(tracker.Statuses())
	lines := strings.Split(out, "\n")

	require.Len(t, lines, len(progress.Phases()))
	assert.True(t, strings.HasPrefix(lines[0], "Initializing "))
	assert.True(t, strings.HasSuffix(lines[0], "100%"))
	assert.True(t, strings.HasSuffix(lines[1], " 25%"))
}

func TestDiffFrames(t *testing.T) {
	t.Parallel()

	cfg := terminal.Config{NoColor: true}

	prev := "a\nb\nc\n"
	next := "a\nc\nd\n"

	assert.Equal(t, "- b\n+ d\n", cfg.DiffFrames(prev, next))
	assert.Empty(t, cfg.DiffFrames(prev, prev))
}

func TestPadRight(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ab  ", terminal.PadRight("ab", 4))
	assert.Equal(t, "abcdef", terminal.PadRight("abcdef", 4))
}
