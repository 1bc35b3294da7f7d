// Package visualization provides an observer that turns algorithm
// events into a node/edge graph suitable for JSON export. Image
// rendering is out of scope; consumers render the exported graph.
package visualization

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/felixgeelhaar/plansearch-go/domain/event"
)

// Node is one vertex of the recorded search graph.
type Node struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	Kind      string  `json:"kind"` // root, candidate, step, iteration, delegation
	Score     float64 `json:"score"`
	Depth     int     `json:"depth,omitempty"`
	Complete  bool    `json:"complete,omitempty"`
	Selected  bool    `json:"selected,omitempty"`
	Plan      string  `json:"plan,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

// Edge links two nodes.
type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// Graph is the exported shape of a recorded run.
type Graph struct {
	AlgorithmType string `json:"algorithm_type"`
	Nodes         []Node `json:"nodes"`
	Edges         []Edge `json:"edges"`
}

// GraphRecorder implements event.Observer, accumulating the search
// graph as events arrive. It is safe for use from parallel candidate
// workers.
type GraphRecorder struct {
	mu            sync.Mutex
	algorithmType string
	nodes         []Node
	edges         []Edge
	nodeIndex     map[string]int
}

// NewGraphRecorder creates an empty recorder.
func NewGraphRecorder() *GraphRecorder {
	return &GraphRecorder{nodeIndex: make(map[string]int)}
}

// Update implements event.Observer.
func (g *GraphRecorder) Update(e event.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.algorithmType == "" {
		g.algorithmType = e.AlgorithmType()
	}

	switch e.AlgorithmType() {
	case "TreeOfThought":
		g.updateTree(e)
	case "REBASE":
		g.updateChain(e)
	case "BestOfN":
		g.updateFan(e)
	case "MixtureOfAlgorithms":
		g.updateDelegation(e)
	default:
		g.updateGeneric(e)
	}
}

// addNode inserts or updates a node by ID.
func (g *GraphRecorder) addNode(n Node) {
	n.Timestamp = time.Now().UnixNano()
	if i, ok := g.nodeIndex[n.ID]; ok {
		g.nodes[i] = n
		return
	}
	g.nodeIndex[n.ID] = len(g.nodes)
	g.nodes = append(g.nodes, n)
}

func (g *GraphRecorder) addEdge(from, to, label string) {
	if _, ok := g.nodeIndex[from]; !ok {
		return
	}
	g.edges = append(g.edges, Edge{From: from, To: to, Label: label})
}

// ensureRoot adds the problem root node once.
func (g *GraphRecorder) ensureRoot() {
	if _, ok := g.nodeIndex["root"]; !ok {
		g.addNode(Node{ID: "root", Label: "Problem", Kind: "root"})
	}
}

// updateTree consumes TreeOfThought "new_nodes" payloads. Each element
// is a mapping with id, parent_id, steps, score, depth, complete.
func (g *GraphRecorder) updateTree(e event.Event) {
	rawNodes, ok := e["new_nodes"].([]map[string]any)
	if !ok {
		return
	}
	g.ensureRoot()

	for _, raw := range rawNodes {
		id, _ := raw["id"].(string)
		if id == "" {
			continue
		}
		score, _ := raw["score"].(float64)
		depth, _ := raw["depth"].(int)
		complete, _ := raw["complete"].(bool)

		label := fmt.Sprintf("d%d %.0f", depth, score)
		g.addNode(Node{ID: id, Label: label, Kind: "step", Score: score, Depth: depth, Complete: complete})

		parent, _ := raw["parent_id"].(string)
		if parent == "" {
			parent = "root"
		}
		g.addEdge(parent, id, "")
	}
}

// updateChain consumes REBASE iteration events into a linear chain.
func (g *GraphRecorder) updateChain(e event.Event) {
	iter, ok := e["iteration"].(int)
	if !ok {
		return
	}
	g.ensureRoot()

	score, _ := e["score"].(float64)
	planText, _ := e["plan"].(string)

	id := fmt.Sprintf("iteration_%d", iter)
	g.addNode(Node{
		ID:    id,
		Label: fmt.Sprintf("Iteration %d", iter),
		Kind:  "iteration",
		Score: score,
		Plan:  planText,
	})

	if iter == 0 {
		g.addEdge("root", id, "")
	} else {
		g.addEdge(fmt.Sprintf("iteration_%d", iter-1), id, "refinement")
	}
}

// updateFan consumes BestOfN per-candidate events into a fan from root.
func (g *GraphRecorder) updateFan(e event.Event) {
	planID, ok := e["plan_id"].(int)
	if !ok {
		return
	}
	g.ensureRoot()

	score, _ := e["score"].(float64)
	planText, _ := e["plan"].(string)
	selected, _ := e["is_selected"].(bool)

	id := fmt.Sprintf("plan_%d", planID)
	g.addNode(Node{
		ID:       id,
		Label:    fmt.Sprintf("Plan %d (%.0f)", planID, score),
		Kind:     "candidate",
		Score:    score,
		Selected: selected,
		Plan:     planText,
	})
	g.addEdge("root", id, "")
}

// updateDelegation tracks which strategies the meta-controller ran.
// Delegated child events pass through with their own algorithm type and
// are handled by the shape-specific handlers above.
func (g *GraphRecorder) updateDelegation(e event.Event) {
	g.ensureRoot()

	switch e.Lifecycle() {
	case "algorithm_selected", "algorithm_switch":
		name, _ := e["selected_algorithm"].(string)
		if name == "" {
			return
		}
		round, _ := e["round"].(int)
		id := fmt.Sprintf("delegate_%d_%s", round, name)
		g.addNode(Node{ID: id, Label: name, Kind: "delegation"})
		if round == 0 {
			g.addEdge("root", id, "selected")
		} else {
			prev, _ := e["previous_algorithm"].(string)
			g.addEdge(fmt.Sprintf("delegate_%d_%s", round-1, prev), id, "switch")
		}
	case event.BestPlanSelected:
		score, _ := e["score"].(float64)
		g.addNode(Node{ID: "final", Label: fmt.Sprintf("Best (%.0f)", score), Kind: "candidate", Score: score, Selected: true})
		g.addEdge("root", "final", "final")
	}
}

// updateGeneric records lifecycle milestones for unknown algorithms.
func (g *GraphRecorder) updateGeneric(e event.Event) {
	g.ensureRoot()
	id := fmt.Sprintf("event_%d", len(g.nodes))
	g.addNode(Node{ID: id, Label: e.Lifecycle(), Kind: "step"})
	g.addEdge("root", id, "")
}

// Graph returns a copy of the recorded graph.
func (g *GraphRecorder) Graph() Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	nodes := make([]Node, len(g.nodes))
	copy(nodes, g.nodes)
	edges := make([]Edge, len(g.edges))
	copy(edges, g.edges)

	return Graph{AlgorithmType: g.algorithmType, Nodes: nodes, Edges: edges}
}

// MarshalJSON serializes the recorded graph.
func (g *GraphRecorder) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Graph())
}

// WriteFile exports the graph as indented JSON.
func (g *GraphRecorder) WriteFile(path string) error {
	data, err := json.MarshalIndent(g.Graph(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal graph: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write graph: %w", err)
	}
	return nil
}
