package dendrogram

import (
	"math"
	"sort"
	"strconv"

	"github.com/Sumatoshi-tech/dendrotime/pkg/hierarchy"
)

// Point is a layout position. X is the breadth coordinate and Y the distance
// coordinate, matching PositionedNode.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// PositionedNode is a tree node with its layout coordinates.
type PositionedNode struct {
	Label       string  `json:"label"        yaml:"label"`
	LabelAnchor string  `json:"label_anchor" yaml:"label_anchor"`
	ID          int     `json:"id"           yaml:"id"`
	X           float64 `json:"x"            yaml:"x"`
	Y           float64 `json:"y"            yaml:"y"`
	Distance    float64 `json:"distance"     yaml:"distance"`
	LabelOffset float64 `json:"label_offset" yaml:"label_offset"`
	Size        int     `json:"size"         yaml:"size"`
	Height      int     `json:"height"       yaml:"height"`
	HasChildren bool    `json:"has_children" yaml:"has_children"`
}

// Link is a parent to child edge drawn as a horizontal elbow: from the parent
// along the breadth axis to Elbow, then along the distance axis to the child.
type Link struct {
	From     Point `json:"from"      yaml:"from"`
	Elbow    Point `json:"elbow"     yaml:"elbow"`
	To       Point `json:"to"        yaml:"to"`
	ParentID int   `json:"parent_id" yaml:"parent_id"`
	ChildID  int   `json:"child_id"  yaml:"child_id"`
}

// Viewport is the drawing box in screen orientation: the distance axis runs
// horizontally and the breadth axis vertically.
type Viewport struct {
	MinX   float64 `json:"min_x"  yaml:"min_x"`
	MinY   float64 `json:"min_y"  yaml:"min_y"`
	Width  float64 `json:"width"  yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Scale maps distance axis values onto coordinates. The domain [0, DomainMax]
// is inverted onto [RangeMax, 0].
type Scale struct {
	Mode      Mode    `json:"mode"       yaml:"mode"`
	DomainMax float64 `json:"domain_max" yaml:"domain_max"`
	RangeMax  float64 `json:"range_max"  yaml:"range_max"`
}

// Position returns the coordinate of a distance axis value.
func (s Scale) Position(v float64) float64 {
	if s.DomainMax <= 0 || math.IsNaN(v) {
		return s.RangeMax
	}

	v = math.Min(math.Max(v, 0), s.DomainMax)

	return s.RangeMax * (1 - v/s.DomainMax)
}

// Ticks returns count+1 evenly spaced domain values from DomainMax down to 0.
func (s Scale) Ticks(count int) []float64 {
	if count <= 0 || s.DomainMax <= 0 {
		return []float64{0}
	}

	ticks := make([]float64, count+1)
	for i := range ticks {
		ticks[i] = s.DomainMax * float64(count-i) / float64(count)
	}

	return ticks
}

// Result is the complete layout of one tree.
type Result struct {
	Nodes       []PositionedNode `json:"nodes"        yaml:"nodes"`
	Links       []Link           `json:"links"        yaml:"links"`
	Viewport    Viewport         `json:"viewport"     yaml:"viewport"`
	Scale       Scale            `json:"scale"        yaml:"scale"`
	Leaves      int              `json:"leaves"       yaml:"leaves"`
	HoverLabels bool             `json:"hover_labels" yaml:"hover_labels"`
}

// Layout positions every node of the tree rooted at root. Children are ordered
// by height descending then id ascending, so the same tree always yields the
// same coordinates and node order. The tree is not modified.
func Layout(root *hierarchy.Node, cfg Config) Result {
	cfg = cfg.normalized()

	l := &layouter{
		cfg:     cfg,
		heights: make(map[*hierarchy.Node]int),
	}

	if root == nil {
		return Result{
			Viewport:    l.viewport(0, 0),
			Scale:       Scale{Mode: cfg.Mode, RangeMax: cfg.PlotWidth()},
			HoverLabels: cfg.ShowLabelsOnHover,
		}
	}

	l.height(root)
	l.scale = l.buildScale(root)
	l.place(root)

	rootBreadth := l.breadth[root]
	minBreadth, maxBreadth := math.Inf(1), math.Inf(-1)

	nodes := make([]PositionedNode, 0, len(l.order))
	for _, node := range l.order {
		b := l.breadth[node] - rootBreadth
		minBreadth = math.Min(minBreadth, b)
		maxBreadth = math.Max(maxBreadth, b)

		nodes = append(nodes, l.positioned(node, b))
	}

	index := make(map[int]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
	}

	links := make([]Link, 0, max(len(nodes)-1, 0))
	for _, node := range l.order {
		for _, child := range l.children[node] {
			from := nodes[index[node.ID]]
			to := nodes[index[child.ID]]

			links = append(links, Link{
				ParentID: node.ID,
				ChildID:  child.ID,
				From:     Point{X: from.X, Y: from.Y},
				Elbow:    Point{X: to.X, Y: from.Y},
				To:       Point{X: to.X, Y: to.Y},
			})
		}
	}

	return Result{
		Nodes:       nodes,
		Links:       links,
		Viewport:    l.viewport(minBreadth, maxBreadth),
		Scale:       l.scale,
		Leaves:      l.leaves,
		HoverLabels: cfg.ShowLabelsOnHover,
	}
}

type layouter struct {
	heights  map[*hierarchy.Node]int
	breadth  map[*hierarchy.Node]float64
	children map[*hierarchy.Node][]*hierarchy.Node
	order    []*hierarchy.Node
	cfg      Config
	scale    Scale
	leaves   int
}

func (l *layouter) height(node *hierarchy.Node) int {
	h := 0

	for _, child := range node.Children {
		h = max(h, l.height(child)+1)
	}

	l.heights[node] = h

	return h
}

func (l *layouter) buildScale(root *hierarchy.Node) Scale {
	s := Scale{Mode: l.cfg.Mode, RangeMax: l.cfg.PlotWidth()}

	if l.cfg.Mode == ModeEqual {
		s.DomainMax = float64(l.heights[root])

		return s
	}

	root.Walk(func(n *hierarchy.Node) bool {
		if !math.IsNaN(n.Distance) && n.Distance > s.DomainMax {
			s.DomainMax = n.Distance
		}

		return true
	})

	return s
}

// place visits the tree in pre-order with sorted children. Leaves are spaced
// in visitation order and internal nodes sit at the mean of their children.
func (l *layouter) place(root *hierarchy.Node) {
	l.breadth = make(map[*hierarchy.Node]float64, len(l.heights))
	l.children = make(map[*hierarchy.Node][]*hierarchy.Node, len(l.heights))

	var visit func(node *hierarchy.Node) float64

	visit = func(node *hierarchy.Node) float64 {
		l.order = append(l.order, node)

		kids := l.sortedChildren(node)
		l.children[node] = kids

		if len(kids) == 0 {
			b := float64(l.leaves) * l.cfg.NodeSpacing
			l.leaves++
			l.breadth[node] = b

			return b
		}

		var sum float64
		for _, child := range kids {
			sum += visit(child)
		}

		b := sum / float64(len(kids))
		l.breadth[node] = b

		return b
	}

	visit(root)
}

func (l *layouter) sortedChildren(node *hierarchy.Node) []*hierarchy.Node {
	kids := make([]*hierarchy.Node, len(node.Children))
	copy(kids, node.Children)

	sort.SliceStable(kids, func(i, j int) bool {
		hi, hj := l.heights[kids[i]], l.heights[kids[j]]
		if hi != hj {
			return hi > hj
		}

		return kids[i].ID < kids[j].ID
	})

	return kids
}

func (l *layouter) positioned(node *hierarchy.Node, breadth float64) PositionedNode {
	hasChildren := len(node.Children) > 0

	pn := PositionedNode{
		ID:          node.ID,
		X:           breadth,
		Y:           l.distanceCoord(node),
		Distance:    node.Distance,
		Size:        node.Size,
		Height:      l.heights[node],
		HasChildren: hasChildren,
		Label:       strconv.Itoa(node.ID),
		LabelAnchor: AnchorStart,
		LabelOffset: labelOffset,
	}

	if hasChildren {
		pn.LabelAnchor = AnchorEnd
		pn.LabelOffset = -labelOffset
	}

	return pn
}

func (l *layouter) distanceCoord(node *hierarchy.Node) float64 {
	if len(node.Children) == 0 {
		return l.scale.RangeMax
	}

	if l.cfg.Mode == ModeEqual {
		return l.scale.Position(float64(l.heights[node]))
	}

	return l.scale.Position(node.Distance)
}

func (l *layouter) viewport(minBreadth, maxBreadth float64) Viewport {
	top := minBreadth - l.cfg.AxisHeight

	return Viewport{
		MinX:   -l.cfg.HorizontalMargin,
		MinY:   top,
		Width:  l.cfg.Width,
		Height: maxBreadth - top + 2*l.cfg.NodeSpacing,
	}
}
