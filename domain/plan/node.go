package plan

// Node is a partial plan in a search tree. Nodes are created by expansion
// and never mutated afterwards, except to record exploration order.
type Node struct {
	// Steps are the plan steps accumulated so far, in order.
	Steps []string `json:"steps"`

	// Score is the step-reward estimate for the partial plan
	// (-100..100), or the full verification score (0-100) once the
	// node is complete.
	Score float64 `json:"score"`

	// Depth is the distance from the root.
	Depth int `json:"depth"`

	// Complete reports whether the partial plan already constitutes a
	// full solution.
	Complete bool `json:"complete"`

	// Parent is the arena index of the parent node, or -1 for the root.
	Parent int `json:"parent"`

	// Order is the exploration sequence number assigned when the node
	// was added to the arena.
	Order int `json:"order"`

	// Feedback is the step-reward or verification feedback text.
	Feedback string `json:"feedback,omitempty"`
}

// Arena owns the nodes of one search run. Nodes reference each other by
// arena index rather than by pointer, which keeps the structure acyclic
// and trivially serializable into run metadata.
type Arena struct {
	nodes []Node
}

// NewArena creates an empty node arena.
func NewArena() *Arena {
	return &Arena{}
}

// Add appends a node and returns its index. The node's Order field is
// assigned by the arena; Parent must be -1 or a valid existing index.
func (a *Arena) Add(n Node) int {
	n.Order = len(a.nodes)
	a.nodes = append(a.nodes, n)
	return len(a.nodes) - 1
}

// Node returns the node at index i.
func (a *Arena) Node(i int) Node {
	return a.nodes[i]
}

// Len returns the number of nodes in the arena.
func (a *Arena) Len() int {
	return len(a.nodes)
}

// Nodes returns a copy of the node slice for inclusion in run metadata.
func (a *Arena) Nodes() []Node {
	out := make([]Node, len(a.nodes))
	copy(out, a.nodes)
	return out
}

// Children returns the indices of the direct children of node i in
// exploration order.
func (a *Arena) Children(i int) []int {
	var out []int
	for j, n := range a.nodes {
		if n.Parent == i {
			out = append(out, j)
		}
	}
	return out
}
