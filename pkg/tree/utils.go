package tree

import (
	"cmp"
	"slices"
)

// Walk visits the subtree rooted at n in pre-order (node before its
// children, children left to right). The visit function returns false
// to stop the walk early; Walk reports whether the walk ran to
// completion.
func Walk(n *Node, visit func(*Node) bool) bool {
	if !visit(n) {
		return false
	}
	for _, c := range n.children {
		if !Walk(c, visit) {
			return false
		}
	}
	return true
}

// WalkLevel visits the subtree rooted at n in level order (breadth
// first, each level left to right). The visit function returns false to
// stop early; WalkLevel reports whether the walk ran to completion.
func WalkLevel(n *Node, visit func(*Node) bool) bool {
	queue := []*Node{n}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		if !visit(v) {
			return false
		}
		queue = append(queue, v.children...)
	}
	return true
}

// Leaves returns every descendant of n with no children, in
// left-to-right document order. If n itself is a leaf the result is
// [n]. Leaves never mutates the tree.
func Leaves(n *Node) []*Node {
	var leaves []*Node
	Walk(n, func(v *Node) bool {
		if v.IsLeaf() {
			leaves = append(leaves, v)
		}
		return true
	})
	return leaves
}

// LeafNames returns the names of Leaves(n), in the same order.
func LeafNames(n *Node) []string {
	leaves := Leaves(n)
	names := make([]string, len(leaves))
	for i, l := range leaves {
		names[i] = l.Name
	}
	return names
}

// LeafCount returns the number of leaves below n (1 if n is a leaf).
func LeafCount(n *Node) int {
	if n.IsLeaf() {
		return 1
	}
	count := 0
	for _, c := range n.children {
		count += LeafCount(c)
	}
	return count
}

// Ladderize reorders the children of every internal node in the subtree
// by descendant leaf count, ascending or descending. Sorting is stable,
// so applying Ladderize twice with the same direction yields the same
// order as applying it once. Each node's Size field is updated to its
// descendant leaf count as a side effect.
func Ladderize(n *Node, ascending bool) {
	ladderize(n, ascending)
}

func ladderize(n *Node, ascending bool) int {
	if n.IsLeaf() {
		n.Size = 1
		return 1
	}
	total := 0
	for _, c := range n.children {
		total += ladderize(c, ascending)
	}
	n.Size = total
	slices.SortStableFunc(n.children, func(a, b *Node) int {
		if ascending {
			return cmp.Compare(a.Size, b.Size)
		}
		return cmp.Compare(b.Size, a.Size)
	})
	return total
}

// Reroot restructures the tree rooted at root so that the node named
// name becomes a direct child of a fresh root, reversing the parent
// chain above it. Branch lengths move with their edges: the edge between
// the target and its old parent is split evenly across the new root's
// two children, and every reversed edge keeps the length it had before.
//
// Rerooting at the root or at a direct child of the root returns root
// unchanged. If the old root is left with a single child after the
// reversal it is spliced out and the two adjacent branch lengths are
// summed. Returns ErrNodeNotFound if no node carries the name.
func Reroot(root *Node, name string) (*Node, error) {
	target, err := Find(root, name)
	if err != nil {
		return nil, err
	}
	if target == root || target.parent == root {
		return root, nil
	}

	// Collect the chain from the target's parent up to the old root
	// before any detaching rearranges parent pointers.
	var chain []*Node
	for p := target.parent; p != nil; p = p.parent {
		chain = append(chain, p)
	}
	// Edge lengths are stored on the child side; remember the length of
	// each chain node's edge to ITS parent before reversal.
	upLengths := make([]float64, len(chain))
	for i, p := range chain {
		upLengths[i] = p.Length
	}

	newRoot := &Node{}
	half := target.Length / 2
	target.Detach()
	if err := newRoot.AddChild(target); err != nil {
		return nil, err
	}
	target.Length = half

	prev := newRoot
	prevLen := half
	for i, p := range chain {
		p.Detach()
		if err := prev.AddChild(p); err != nil {
			return nil, err
		}
		p.Length = prevLen
		prevLen = upLengths[i]
		prev = p
	}

	spliceSingleChild(chain[len(chain)-1].parent, chain[len(chain)-1])
	return newRoot, nil
}

// spliceSingleChild removes node from under parent if node has exactly
// one child, reattaching that child to parent with the two branch
// lengths summed. Used to clean up the old root after rerooting.
func spliceSingleChild(parent, node *Node) {
	// The old root itself is deepest in the reversed chain; after the
	// reversal it may hold a single leftover child.
	if node == nil || len(node.children) != 1 || parent == nil {
		return
	}
	only := node.children[0]
	combined := node.Length + only.Length
	node.Detach()
	only.Detach()
	parent.AddChild(only)
	only.Length = combined
}
