package terminal

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/dendrotime/pkg/hierarchy"
)

// Tree drawing prefixes.
const (
	branchMid  = "├── "
	branchLast = "└── "
	stemMid    = "│   "
	stemLast   = "    "
)

// RenderTree draws the tree rooted at root as an indented text dendrogram.
// Internal nodes show their merge distance and size. Children are listed by
// height descending then id ascending, matching the graphical layout.
func RenderTree(root *hierarchy.Node) string {
	if root == nil {
		return ""
	}

	tw := &treeWriter{heights: make(map[*hierarchy.Node]int)}
	tw.height(root)

	tw.sb.WriteString(nodeLabel(root))
	tw.sb.WriteByte('\n')

	tw.writeChildren(root, "")

	return tw.sb.String()
}

type treeWriter struct {
	heights map[*hierarchy.Node]int
	sb      strings.Builder
}

func (tw *treeWriter) height(node *hierarchy.Node) int {
	h := 0
	for _, child := range node.Children {
		h = max(h, tw.height(child)+1)
	}

	tw.heights[node] = h

	return h
}

func (tw *treeWriter) writeChildren(node *hierarchy.Node, indent string) {
	kids := tw.orderedChildren(node)

	for i, child := range kids {
		branch, stem := branchMid, stemMid
		if i == len(kids)-1 {
			branch, stem = branchLast, stemLast
		}

		tw.sb.WriteString(indent)
		tw.sb.WriteString(branch)
		tw.sb.WriteString(nodeLabel(child))
		tw.sb.WriteByte('\n')

		tw.writeChildren(child, indent+stem)
	}
}

func (tw *treeWriter) orderedChildren(node *hierarchy.Node) []*hierarchy.Node {
	kids := make([]*hierarchy.Node, len(node.Children))
	copy(kids, node.Children)

	sort.SliceStable(kids, func(i, j int) bool {
		hi, hj := tw.heights[kids[i]], tw.heights[kids[j]]
		if hi != hj {
			return hi > hj
		}

		return kids[i].ID < kids[j].ID
	})

	return kids
}

func nodeLabel(node *hierarchy.Node) string {
	if node.IsLeaf() {
		return strconv.Itoa(node.ID)
	}

	return strconv.Itoa(node.ID) +
		" (d=" + strconv.FormatFloat(node.Distance, 'f', 3, 64) +
		", n=" + strconv.Itoa(node.Size) + ")"
}
