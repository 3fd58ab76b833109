// Package tree implements the rooted, ordered, n-ary tree model used by
// all phylogenetic algorithms in phylotangle.
//
// A [Node] owns an ordered slice of children and holds a non-owning
// back-reference to its parent. The structural invariant maintained by
// every mutating operation is: for every node n and every child c of n,
// c.Parent() == n. Callers never touch the parent pointer directly;
// AddChild, RemoveChild, SwapChildren and Reroot restore the invariant
// before returning.
//
// Phylogenetic payload (name, branch length, bootstrap support) lives in
// exported fields. Structure (parent, children) is unexported and mutated
// only through methods, so a tree can never silently degrade into a DAG.
package tree

import (
	"errors"
	"slices"
)

var (
	// ErrNilChild is returned by [Node.AddChild] when the child is nil.
	ErrNilChild = errors.New("child must not be nil")

	// ErrAdoptAncestor is returned by [Node.AddChild] when adopting the
	// node itself or one of its ancestors, which would create a cycle.
	ErrAdoptAncestor = errors.New("cannot adopt self or ancestor")

	// ErrChildIndex is returned by [Node.SwapChildren] when an index is
	// out of range.
	ErrChildIndex = errors.New("child index out of range")

	// ErrNodeNotFound is returned by [Reroot] and [Find] when no node
	// with the requested name exists in the tree.
	ErrNodeNotFound = errors.New("node not found")
)

// Node is a single node of a rooted, ordered phylogenetic tree.
//
// The zero value is a usable anonymous leaf with zero branch length.
// Node is not safe for concurrent mutation; a tree is single-writer.
type Node struct {
	Name      string  // taxon or clade label, may be empty
	Length    float64 // branch length to the parent, 0 if unknown
	Bootstrap float64 // statistical support for the branch, 0 = unset
	ID        int     // assigned at construction or parse time
	Size      int     // auxiliary subtree weight, maintained by Ladderize

	parent   *Node
	children []*Node
}

// New returns a leaf node with the given name.
func New(name string) *Node {
	return &Node{Name: name}
}

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the ordered children of n.
// The returned slice is a copy; reordering it does not affect the tree.
func (n *Node) Children() []*Node { return slices.Clone(n.children) }

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int { return len(n.children) }

// Child returns the i-th child. It panics if i is out of range,
// mirroring slice indexing.
func (n *Node) Child(i int) *Node { return n.children[i] }

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return len(n.children) == 0 }

// IsRoot reports whether n has no parent.
func (n *Node) IsRoot() bool { return n.parent == nil }

// Root walks the parent chain and returns the root of the tree
// containing n.
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// AddChild appends c to n's children. If c is currently attached to
// another parent it is detached first, so a node is always owned by at
// most one parent. Returns ErrNilChild for a nil child and
// ErrAdoptAncestor if c is n itself or an ancestor of n.
func (n *Node) AddChild(c *Node) error {
	if c == nil {
		return ErrNilChild
	}
	for a := n; a != nil; a = a.parent {
		if a == c {
			return ErrAdoptAncestor
		}
	}
	if c.parent != nil {
		c.parent.RemoveChild(c)
	}
	c.parent = n
	n.children = append(n.children, c)
	return nil
}

// RemoveChild detaches c from n and reports whether c was a child of n.
// The detached subtree keeps its own structure and becomes a root.
func (n *Node) RemoveChild(c *Node) bool {
	for i, ch := range n.children {
		if ch == c {
			n.children = slices.Delete(n.children, i, i+1)
			c.parent = nil
			return true
		}
	}
	return false
}

// Detach removes n from its parent, turning n into the root of its own
// subtree. Detaching a root is a no-op.
func (n *Node) Detach() {
	if n.parent != nil {
		n.parent.RemoveChild(n)
	}
}

// SwapChildren exchanges the children at positions i and j.
// Returns ErrChildIndex if either index is out of range.
func (n *Node) SwapChildren(i, j int) error {
	if i < 0 || i >= len(n.children) || j < 0 || j >= len(n.children) {
		return ErrChildIndex
	}
	n.children[i], n.children[j] = n.children[j], n.children[i]
	return nil
}

// Find returns the first node with the given name in a pre-order walk
// of the subtree rooted at n, or ErrNodeNotFound.
func Find(n *Node, name string) (*Node, error) {
	var found *Node
	Walk(n, func(v *Node) bool {
		if v.Name == name {
			found = v
			return false
		}
		return true
	})
	if found == nil {
		return nil, ErrNodeNotFound
	}
	return found, nil
}

// AssignIDs numbers every node in the subtree rooted at n in pre-order,
// starting at first, and returns the next unused ID.
func AssignIDs(n *Node, first int) int {
	next := first
	Walk(n, func(v *Node) bool {
		v.ID = next
		next++
		return true
	})
	return next
}
