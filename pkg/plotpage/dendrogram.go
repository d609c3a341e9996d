package plotpage

import (
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/dendrotime/pkg/dendrogram"
)

const (
	dendrogramSeries = "dendrogram"
	leafSymbolSize   = 6
	nodeSymbolSize   = 4
	linkWidth        = 1.2

	// Keeps coordinates strictly positive; zero values are omitted from
	// the chart options.
	coordPad = 1
)

// ElbowName returns the graph node name of the corner on the link to childID.
func ElbowName(childID int) string {
	return "elbow-" + strconv.Itoa(childID)
}

// BuildDendrogramChart draws a laid out tree as a graph with fixed node
// positions. The distance axis runs horizontally. Each link becomes two
// straight edges through an invisible corner node so the tree is drawn with
// elbows. If cOpts is nil, DefaultChartOpts() is used.
func BuildDendrogramChart(cOpts *ChartOpts, res dendrogram.Result) *charts.Graph {
	if cOpts == nil {
		cOpts = DefaultChartOpts()
	}

	theme := cOpts.Theme()

	graph := charts.NewGraph()
	graph.SetGlobalOptions(
		charts.WithInitializationOpts(cOpts.Init()),
		charts.WithTooltipOpts(cOpts.Tooltip("item")),
	)

	nodes, links := graphElements(res, theme)

	graph.AddSeries(dendrogramSeries, nodes, links,
		charts.WithGraphChartOpts(opts.GraphChart{
			Layout: "none",
			Roam:   opts.Bool(true),
		}),
		charts.WithLabelOpts(opts.Label{
			Show:     opts.Bool(!res.HoverLabels),
			Position: "right",
			Color:    theme.ChartText,
		}),
		charts.WithLineStyleOpts(opts.LineStyle{
			Color: theme.Link,
			Width: linkWidth,
		}),
	)

	return graph
}

func graphElements(res dendrogram.Result, theme ThemeConfig) ([]opts.GraphNode, []opts.GraphLink) {
	ox := coordPad - res.Viewport.MinX
	oy := coordPad - res.Viewport.MinY

	screen := func(p dendrogram.Point) (float32, float32) {
		return float32(p.Y + ox), float32(p.X + oy)
	}

	nodes := make([]opts.GraphNode, 0, 2*len(res.Nodes))
	names := make(map[int]string, len(res.Nodes))

	for _, n := range res.Nodes {
		x, y := screen(dendrogram.Point{X: n.X, Y: n.Y})

		node := opts.GraphNode{
			Name:       n.Label,
			X:          x,
			Y:          y,
			Value:      float32(n.Distance),
			Fixed:      opts.Bool(true),
			SymbolSize: nodeSymbolSize,
			ItemStyle:  &opts.ItemStyle{Color: theme.Node},
		}

		if !n.HasChildren {
			node.SymbolSize = leafSymbolSize
			node.ItemStyle = &opts.ItemStyle{Color: theme.Leaf}
		}

		names[n.ID] = n.Label
		nodes = append(nodes, node)
	}

	links := make([]opts.GraphLink, 0, 2*len(res.Links))

	for _, l := range res.Links {
		corner := ElbowName(l.ChildID)
		x, y := screen(l.Elbow)

		nodes = append(nodes, opts.GraphNode{
			Name:   corner,
			X:      x,
			Y:      y,
			Fixed:  opts.Bool(true),
			Symbol: "none",
		})

		links = append(links,
			opts.GraphLink{Source: names[l.ParentID], Target: corner},
			opts.GraphLink{Source: corner, Target: names[l.ChildID]},
		)
	}

	return nodes, links
}
