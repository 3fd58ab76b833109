// Package layout computes rectangular phylogram coordinates for
// phylogenetic trees, including the mirrored dual-tree form used by
// tanglegrams.
//
// Layout never touches the data tree. A [GraphicNode] shadow tree is
// built per draw call by [Snapshot]: identical topology, a non-owning
// reference back to the data node, and presentation attributes only
// (anchor coordinates, collapsed flag, stroke). The whole layout is
// recomputed on every call rather than incrementally; at typical tree
// sizes (hundreds to low thousands of leaves) a full recompute is cheap
// enough for interactive redraw.
package layout

import (
	"errors"
	"fmt"

	"github.com/phylotangle/phylotangle/pkg/tree"
)

var (
	// ErrEmptyTree is returned by [Snapshot] and [Build] for a nil root.
	ErrEmptyTree = errors.New("empty tree")

	// ErrBadFrame is returned by [Build] when the frame is too small to
	// hold the margins.
	ErrBadFrame = errors.New("frame smaller than margins")
)

// rootStub is the fixed horizontal offset of the root's parent anchor
// from its own anchor. The root has no parent branch, so its stub gets
// a short synthetic one that cannot coincide with any real node anchor.
const rootStub = 8.0

// Orientation selects which edge of the frame the root hugs.
type Orientation int

const (
	// Left lays the root near the left edge, growing rightward with
	// depth. This is the standard phylogram orientation.
	Left Orientation = iota

	// Right mirrors Left: root near the right edge, growing leftward.
	// Used for the second tree of a tanglegram so the trees face each
	// other.
	Right
)

// Stroke describes how a branch is drawn. It is pure presentation data
// carried on the shadow tree for the rendering surface.
type Stroke struct {
	Color string
	Width float64
}

// GraphicNode is one node of the shadow layout tree. It mirrors the
// topology of a data tree exactly, holds a non-owning reference to the
// reflected data node, and carries only presentation state. It is
// rebuilt or fully recomputed whenever layout inputs change.
type GraphicNode struct {
	Data *tree.Node // reflected node, never owned

	XSelf, YSelf     float64 // the node's own anchor
	XParent, YParent float64 // anchor of the branch attachment on the parent

	Collapsed bool // draw this subtree as a single tip
	Stroke    Stroke

	Parent   *GraphicNode
	Children []*GraphicNode
}

// Snapshot builds a shadow tree with the exact child topology of the
// data tree rooted at root: one GraphicNode per data node, no semantic
// transformation. Returns ErrEmptyTree for a nil root.
func Snapshot(root *tree.Node) (*GraphicNode, error) {
	if root == nil {
		return nil, ErrEmptyTree
	}
	return snapshot(root, nil), nil
}

func snapshot(n *tree.Node, parent *GraphicNode) *GraphicNode {
	g := &GraphicNode{Data: n, Parent: parent}
	for _, c := range n.Children() {
		g.Children = append(g.Children, snapshot(c, g))
	}
	return g
}

// tip reports whether g terminates a branch for layout purposes:
// a real leaf, or a collapsed subtree drawn as one tip.
func (g *GraphicNode) tip() bool {
	return len(g.Children) == 0 || g.Collapsed
}

// Tips returns the layout tips of the subtree in left-to-right order.
func (g *GraphicNode) Tips() []*GraphicNode {
	var tips []*GraphicNode
	g.walkTips(&tips)
	return tips
}

func (g *GraphicNode) walkTips(out *[]*GraphicNode) {
	if g.tip() {
		*out = append(*out, g)
		return
	}
	for _, c := range g.Children {
		c.walkTips(out)
	}
}

// Build assigns pixel coordinates to every node of the shadow tree, in
// place. The frame is width×height with the same margin on all four
// sides; orient picks the left-growing or right-growing variant.
//
// Two passes: the first accumulates cumulative branch length from the
// root to find the deepest tip (the root's own length is excluded — it
// has no parent branch), the second assigns positions depth-first while
// tracking a running tip counter. Internal nodes sit at the arithmetic
// mean of their children's vertical anchors.
//
// If every branch length is zero the depth scan degenerates; Build then
// falls back to uniform unit spacing per tree level instead of dividing
// by zero.
func Build(g *GraphicNode, width, height, margin float64, orient Orientation) error {
	if g == nil {
		return ErrEmptyTree
	}
	innerW := width - 2*margin
	innerH := height - 2*margin
	if innerW <= 0 || innerH <= 0 {
		return fmt.Errorf("%w: %gx%g with margin %g", ErrBadFrame, width, height, margin)
	}

	unit := false
	maxDepth := maxLengthDepth(g, 0)
	if maxDepth == 0 {
		unit = true
		maxDepth = float64(maxLevelDepth(g, 0))
	}
	scale := 0.0
	if maxDepth > 0 {
		scale = innerW / maxDepth
	}

	tipCount := len(g.Tips())
	rowHeight := innerH / float64(tipCount)

	counter := 0
	place(g, 0, scale, unit, width, margin, rowHeight, orient, &counter)

	// The root's branch attaches to a short stub rather than a parent.
	g.YParent = g.YSelf
	if orient == Left {
		g.XParent = g.XSelf - rootStub
	} else {
		g.XParent = g.XSelf + rootStub
	}
	return nil
}

// maxLengthDepth returns the largest cumulative branch length from the
// node to any tip below it. The node's own length is not included.
func maxLengthDepth(g *GraphicNode, acc float64) float64 {
	if g.tip() {
		return acc
	}
	max := acc
	for _, c := range g.Children {
		if d := maxLengthDepth(c, acc+c.Data.Length); d > max {
			max = d
		}
	}
	return max
}

// maxLevelDepth returns the largest edge count from the node to any tip.
func maxLevelDepth(g *GraphicNode, level int) int {
	if g.tip() {
		return level
	}
	max := level
	for _, c := range g.Children {
		if d := maxLevelDepth(c, level+1); d > max {
			max = d
		}
	}
	return max
}

// place performs the depth-first position assignment pass. depth is the
// cumulative distance from the root: branch lengths normally, tree
// levels in unit-spacing mode.
func place(g *GraphicNode, depth, scale float64, unit bool, width, margin, rowHeight float64, orient Orientation, counter *int) {
	if orient == Left {
		g.XSelf = margin + depth*scale
	} else {
		g.XSelf = width - margin - depth*scale
	}

	if g.tip() {
		g.YSelf = margin + float64(*counter)*rowHeight
		*counter++
	} else {
		sum := 0.0
		for _, c := range g.Children {
			step := c.Data.Length
			if unit {
				step = 1
			}
			place(c, depth+step, scale, unit, width, margin, rowHeight, orient, counter)
			sum += c.YSelf
		}
		// Mean of the children's anchors, not the midpoint of the
		// extremes: a heavy side pulls its parent toward it.
		g.YSelf = sum / float64(len(g.Children))
	}

	for _, c := range g.Children {
		c.XParent = g.XSelf
		c.YParent = g.YSelf
	}
}

// Shift translates every anchor in the subtree by (dx, dy).
func Shift(g *GraphicNode, dx, dy float64) {
	g.XSelf += dx
	g.YSelf += dy
	g.XParent += dx
	g.YParent += dy
	for _, c := range g.Children {
		Shift(c, dx, dy)
	}
}

// Walk visits the shadow tree in pre-order. The visit function returns
// false to stop early; Walk reports whether the walk ran to completion.
func Walk(g *GraphicNode, visit func(*GraphicNode) bool) bool {
	if !visit(g) {
		return false
	}
	for _, c := range g.Children {
		if !Walk(c, visit) {
			return false
		}
	}
	return true
}
