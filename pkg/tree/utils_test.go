package tree

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

// chain builds (((A,B),C),D) with branch lengths 1 on every edge.
func chain(t *testing.T) *Node {
	t.Helper()
	root := New("")
	inner := New("")
	ab := New("")
	a, b, c, d := New("A"), New("B"), New("C"), New("D")
	for _, n := range []*Node{a, b, c, d, ab, inner} {
		n.Length = 1
	}
	mustAdd(t, ab, a, b)
	mustAdd(t, inner, ab, c)
	mustAdd(t, root, inner, d)
	return root
}

func mustAdd(t *testing.T, parent *Node, children ...*Node) {
	t.Helper()
	for _, c := range children {
		if err := parent.AddChild(c); err != nil {
			t.Fatalf("AddChild() error: %v", err)
		}
	}
}

func TestWalkPreOrder(t *testing.T) {
	root := chain(t)

	var names []string
	Walk(root, func(n *Node) bool {
		if n.IsLeaf() {
			names = append(names, n.Name)
		}
		return true
	})
	if !reflect.DeepEqual(names, []string{"A", "B", "C", "D"}) {
		t.Errorf("leaf visit order = %v", names)
	}
}

func TestWalkEarlyExit(t *testing.T) {
	root := chain(t)

	visits := 0
	completed := Walk(root, func(n *Node) bool {
		visits++
		return n.Name != "B"
	})
	if completed {
		t.Error("Walk() should report early exit")
	}
	if visits != 5 { // root, inner, ab, A, then stop at B
		t.Errorf("visits = %d, want 5", visits)
	}
}

func TestWalkLevelOrder(t *testing.T) {
	root := chain(t)

	var leaves []string
	WalkLevel(root, func(n *Node) bool {
		if n.IsLeaf() {
			leaves = append(leaves, n.Name)
		}
		return true
	})
	// Level order: D before C before A, B.
	if !reflect.DeepEqual(leaves, []string{"D", "C", "A", "B"}) {
		t.Errorf("level-order leaves = %v", leaves)
	}
}

func TestLeafNamesOrder(t *testing.T) {
	root := chain(t)
	if got := LeafNames(root); !reflect.DeepEqual(got, []string{"A", "B", "C", "D"}) {
		t.Errorf("LeafNames() = %v", got)
	}
}

func TestLeafCount(t *testing.T) {
	root := chain(t)
	if got := LeafCount(root); got != 4 {
		t.Errorf("LeafCount() = %d, want 4", got)
	}
	if got := LeafCount(New("solo")); got != 1 {
		t.Errorf("LeafCount(leaf) = %d, want 1", got)
	}
}

func TestLadderizeDescending(t *testing.T) {
	root := chain(t)

	Ladderize(root, false)
	if root.Child(0).IsLeaf() {
		t.Error("descending ladderize should put the big clade first")
	}
	if root.Size != 4 {
		t.Errorf("root.Size = %d, want 4", root.Size)
	}
}

func TestLadderizeAscending(t *testing.T) {
	root := chain(t)

	Ladderize(root, true)
	if !root.Child(0).IsLeaf() {
		t.Error("ascending ladderize should put the leaf first")
	}
}

func TestLadderizeIdempotent(t *testing.T) {
	root := chain(t)

	Ladderize(root, false)
	first := LeafNames(root)
	Ladderize(root, false)
	second := LeafNames(root)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("ladderize not idempotent: %v then %v", first, second)
	}
}

func TestLadderizeStableForTies(t *testing.T) {
	// Two clades of equal size must keep their relative order.
	root := New("")
	left, right := New(""), New("")
	mustAdd(t, left, New("A"), New("B"))
	mustAdd(t, right, New("C"), New("D"))
	mustAdd(t, root, left, right)

	Ladderize(root, false)
	if root.Child(0) != left {
		t.Error("equal-size clades should keep their original order")
	}
}

func TestRerootSplitsEdge(t *testing.T) {
	root := chain(t)

	got, err := Reroot(root, "A")
	if err != nil {
		t.Fatalf("Reroot() error: %v", err)
	}
	if got == root {
		t.Error("rerooting at a deep leaf should produce a new root")
	}

	// A hangs directly under the new root with half its old length.
	a, err := Find(got, "A")
	if err != nil {
		t.Fatalf("Find(A) error: %v", err)
	}
	if a.Parent() != got {
		t.Error("A should be a direct child of the new root")
	}
	if math.Abs(a.Length-0.5) > 1e-12 {
		t.Errorf("A.Length = %g, want 0.5", a.Length)
	}

	// No leaf disappears and the invariant holds.
	names := LeafNames(got)
	if len(names) != 4 {
		t.Errorf("leaf count after reroot = %d, want 4", len(names))
	}
	Walk(got, func(n *Node) bool {
		for _, c := range n.Children() {
			if c.Parent() != n {
				t.Errorf("parent invariant broken at %q", c.Name)
			}
		}
		return true
	})
}

func TestRerootPreservesTotalLength(t *testing.T) {
	root := chain(t)

	var before float64
	Walk(root, func(n *Node) bool {
		if n != root {
			before += n.Length
		}
		return true
	})

	got, err := Reroot(root, "B")
	if err != nil {
		t.Fatalf("Reroot() error: %v", err)
	}

	var after float64
	Walk(got, func(n *Node) bool {
		if n != got {
			after += n.Length
		}
		return true
	})
	if math.Abs(before-after) > 1e-9 {
		t.Errorf("total branch length changed: %g -> %g", before, after)
	}
}

func TestRerootAtRootIsNoop(t *testing.T) {
	root := chain(t)
	root.Name = "r"

	got, err := Reroot(root, "r")
	if err != nil {
		t.Fatalf("Reroot() error: %v", err)
	}
	if got != root {
		t.Error("rerooting at the root should return the tree unchanged")
	}
}

func TestRerootAtRootChildIsNoop(t *testing.T) {
	root := chain(t)

	got, err := Reroot(root, "D")
	if err != nil {
		t.Fatalf("Reroot() error: %v", err)
	}
	if got != root {
		t.Error("rerooting at a root child should return the tree unchanged")
	}
}

func TestRerootUnknownName(t *testing.T) {
	root := chain(t)
	if _, err := Reroot(root, "Z"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Reroot(missing) error = %v, want ErrNodeNotFound", err)
	}
}
