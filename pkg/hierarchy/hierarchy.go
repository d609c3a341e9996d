// Package hierarchy reconstructs a single rooted cluster tree from a partial
// stream of merge records.
package hierarchy

import (
	"math"
)

// rootDistanceFactor lifts a repaired root above the highest real merge.
const rootDistanceFactor = 1.1

// MaxLeafCount is the largest leaf count a tree is built for. Larger counts
// yield the degenerate single-node tree with Stats.Clamped set.
const MaxLeafCount = 1 << 20

// MergeRecord is one step of a hierarchical clustering. Distance is nil while
// the merge height has not been computed yet.
type MergeRecord struct {
	Distance    *float64
	LeftID      int
	RightID     int
	Cardinality int
}

// Resolved reports whether the record carries a usable merge height.
func (r MergeRecord) Resolved() bool {
	return r.Distance != nil && !math.IsNaN(*r.Distance)
}

// Stats describes the repairs applied while building a tree.
type Stats struct {
	// Attached counts nodes that were unreachable and got hung under the root.
	Attached int `json:"attached" yaml:"attached"`
	// Skipped counts unresolved records that were not the last record.
	Skipped int `json:"skipped" yaml:"skipped"`
	// Dropped counts child references that pointed to missing or already owned nodes.
	Dropped int `json:"dropped" yaml:"dropped"`
	// RootDistanceRepaired is set when the root distance was synthesized.
	RootDistanceRepaired bool `json:"root_distance_repaired" yaml:"root_distance_repaired"`
	// Clamped is set when the leaf count or record count exceeded the arena limit.
	Clamped bool `json:"clamped,omitempty" yaml:"clamped,omitempty"`
}

// Repaired reports whether any repair was applied.
func (s Stats) Repaired() bool {
	return s.Attached > 0 || s.Dropped > 0 || s.RootDistanceRepaired || s.Clamped
}

// Build returns the root of the tree described by records over leafCount leaves.
// It never fails: gaps in the record stream are repaired so that the result is
// always a single tree containing every leaf exactly once.
func Build(records []MergeRecord, leafCount int) *Node {
	root, _ := BuildWithStats(records, leafCount)

	return root
}

// BuildWithStats is Build that also reports the repairs it applied.
func BuildWithStats(records []MergeRecord, leafCount int) (*Node, Stats) {
	var stats Stats

	if leafCount <= 0 {
		return &Node{ID: 0}, stats
	}

	if leafCount > MaxLeafCount || len(records) > math.MaxInt-leafCount {
		stats.Clamped = true

		return &Node{ID: 0}, stats
	}

	b := newBuilder(records, leafCount)
	b.walk(&stats)

	root := b.root()
	b.attachUnreachable(root, &stats)

	if root.Distance <= 0 {
		root.Distance = rootDistanceFactor * b.maxDistance()
		stats.RootDistanceRepaired = root.Distance > 0
	}

	return root, stats
}

// builder is the arena of nodes addressed by id.
type builder struct {
	records   []MergeRecord
	nodes     []*Node
	reachable []bool
	leafCount int
}

func newBuilder(records []MergeRecord, leafCount int) *builder {
	total := leafCount + len(records)

	b := &builder{
		records:   records,
		leafCount: leafCount,
		nodes:     make([]*Node, total),
		reachable: make([]bool, total),
	}

	for id := range leafCount {
		b.nodes[id] = &Node{ID: id, Size: 1}
	}

	return b
}

func (b *builder) rootID() int {
	if len(b.records) == 0 {
		return 0
	}

	return b.leafCount + len(b.records) - 1
}

func (b *builder) root() *Node {
	return b.nodes[b.rootID()]
}

func (b *builder) walk(stats *Stats) {
	last := len(b.records) - 1

	for i, rec := range b.records {
		id := b.leafCount + i

		switch {
		case rec.Resolved():
			node := &Node{ID: id, Distance: math.Max(*rec.Distance, 0)}
			b.adopt(node, rec, stats)

			node.Size = rec.Cardinality
			if node.Size < 1 {
				node.Size = max(node.childSize(), 1)
			}

			b.nodes[id] = node
		case i == last:
			node := &Node{ID: id}
			b.adopt(node, rec, stats)
			node.Size = node.childSize()
			b.nodes[id] = node
		default:
			stats.Skipped++
		}
	}

	b.reachable[b.rootID()] = true
}

// adopt attaches the record's children to node. A child must already exist and
// must not be owned by another parent; self references contribute one child.
func (b *builder) adopt(node *Node, rec MergeRecord, stats *Stats) {
	for n, childID := range [2]int{rec.LeftID, rec.RightID} {
		if n == 1 && childID == rec.LeftID {
			continue
		}

		child := b.lookup(childID)
		if child == nil || b.reachable[childID] {
			stats.Dropped++

			continue
		}

		b.reachable[childID] = true
		node.Children = append(node.Children, child)
	}
}

func (b *builder) lookup(id int) *Node {
	if id < 0 || id >= len(b.nodes) {
		return nil
	}

	return b.nodes[id]
}

func (b *builder) attachUnreachable(root *Node, stats *Stats) {
	for id, node := range b.nodes {
		if node == nil || b.reachable[id] {
			continue
		}

		b.reachable[id] = true
		root.Children = append(root.Children, node)
		root.Size += node.Size
		stats.Attached++
	}
}

func (b *builder) maxDistance() float64 {
	var maxDist float64

	for _, node := range b.nodes {
		if node != nil && node.Distance > maxDist {
			maxDist = node.Distance
		}
	}

	return maxDist
}
