package plan

import (
	"errors"
	"testing"
)

func TestArena_AddAssignsOrder(t *testing.T) {
	a := NewArena()
	root := a.Add(Node{Parent: -1})
	c1 := a.Add(Node{Parent: root, Depth: 1})
	c2 := a.Add(Node{Parent: root, Depth: 1})

	if a.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", a.Len())
	}
	if a.Node(root).Order != 0 || a.Node(c1).Order != 1 || a.Node(c2).Order != 2 {
		t.Error("orders not assigned in insertion sequence")
	}
}

func TestArena_Children(t *testing.T) {
	a := NewArena()
	root := a.Add(Node{Parent: -1})
	c1 := a.Add(Node{Parent: root})
	c2 := a.Add(Node{Parent: root})
	g1 := a.Add(Node{Parent: c1})

	children := a.Children(root)
	if len(children) != 2 || children[0] != c1 || children[1] != c2 {
		t.Errorf("Children(root) = %v, want [%d %d]", children, c1, c2)
	}
	if got := a.Children(c1); len(got) != 1 || got[0] != g1 {
		t.Errorf("Children(c1) = %v, want [%d]", got, g1)
	}
	if got := a.Children(c2); got != nil {
		t.Errorf("Children(c2) = %v, want nil", got)
	}
}

func TestArena_NodesReturnsCopy(t *testing.T) {
	a := NewArena()
	a.Add(Node{Parent: -1, Score: 10})

	nodes := a.Nodes()
	nodes[0].Score = 99

	if a.Node(0).Score != 10 {
		t.Error("mutating the Nodes() copy changed the arena")
	}
}

func TestExecutionError_WrapsCause(t *testing.T) {
	cause := errors.New("provider exploded")
	err := NewExecutionError("BestOfN", "candidate_generation", map[string]any{"n": 3}, cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is failed to find the wrapped cause")
	}

	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatal("errors.As failed to extract *ExecutionError")
	}
	if execErr.Algorithm != "BestOfN" || execErr.Step != "candidate_generation" {
		t.Errorf("context = %q/%q, want BestOfN/candidate_generation", execErr.Algorithm, execErr.Step)
	}
	if execErr.Metadata["n"] != 3 {
		t.Error("partial metadata lost")
	}
}

func TestExecutionError_WrapsInvalidInput(t *testing.T) {
	err := NewExecutionError("REBASE", "validate", nil, ErrInvalidInput)
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("errors.Is(err, ErrInvalidInput) = false, want true")
	}
}
