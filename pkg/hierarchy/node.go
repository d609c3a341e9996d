package hierarchy

// Node is a cluster in the reconstructed tree. Leaves have no children, a zero
// distance and size 1. Children are owned exclusively by their parent.
type Node struct {
	Children []*Node `json:"children,omitempty" yaml:"children,omitempty"`
	ID       int     `json:"id"                 yaml:"id"`
	Distance float64 `json:"distance"           yaml:"distance"`
	Size     int     `json:"size"               yaml:"size"`
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Height returns the number of edges on the longest path down to a leaf.
func (n *Node) Height() int {
	height := 0

	for _, child := range n.Children {
		height = max(height, child.Height()+1)
	}

	return height
}

// Walk visits the subtree in pre-order. Returning false from fn prunes the
// children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}

	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Count returns the number of nodes in the subtree.
func (n *Node) Count() int {
	count := 0

	n.Walk(func(*Node) bool {
		count++

		return true
	})

	return count
}

// IDs returns the ids of all nodes in pre-order.
func (n *Node) IDs() []int {
	ids := make([]int, 0, n.Count())

	n.Walk(func(node *Node) bool {
		ids = append(ids, node.ID)

		return true
	})

	return ids
}

// Find returns the node with the given id, or nil.
func (n *Node) Find(id int) *Node {
	var found *Node

	n.Walk(func(node *Node) bool {
		if found != nil {
			return false
		}

		if node.ID == id {
			found = node

			return false
		}

		return true
	})

	return found
}

func (n *Node) childSize() int {
	size := 0

	for _, child := range n.Children {
		size += child.Size
	}

	return size
}
