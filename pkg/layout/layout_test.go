package layout

import (
	"errors"
	"math"
	"testing"

	"github.com/phylotangle/phylotangle/pkg/newick"
	"github.com/phylotangle/phylotangle/pkg/tree"
)

const (
	frameW = 800.0
	frameH = 600.0
	margin = 20.0
)

func mustDecode(t *testing.T, text string) *tree.Node {
	t.Helper()
	root, err := newick.Decode(text)
	if err != nil {
		t.Fatalf("Decode(%q) error: %v", text, err)
	}
	return root
}

func mustLayout(t *testing.T, text string, orient Orientation) *GraphicNode {
	t.Helper()
	g, err := Snapshot(mustDecode(t, text))
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if err := Build(g, frameW, frameH, margin, orient); err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return g
}

func TestSnapshotMirrorsTopology(t *testing.T) {
	root := mustDecode(t, "((A,B),C);")

	g, err := Snapshot(root)
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if g.Data != root {
		t.Error("shadow root should reference the data root")
	}
	if len(g.Children) != 2 {
		t.Fatalf("shadow root children = %d, want 2", len(g.Children))
	}
	if g.Children[0].Parent != g {
		t.Error("shadow child should point back at its parent")
	}
	if got := g.Children[1].Data.Name; got != "C" {
		t.Errorf("second child = %q, want C", got)
	}
}

func TestSnapshotNilRoot(t *testing.T) {
	if _, err := Snapshot(nil); !errors.Is(err, ErrEmptyTree) {
		t.Errorf("Snapshot(nil) error = %v, want ErrEmptyTree", err)
	}
}

func TestBuildRejectsTinyFrame(t *testing.T) {
	g, err := Snapshot(mustDecode(t, "(A,B);"))
	if err != nil {
		t.Fatal(err)
	}
	if err := Build(g, 30, 600, 20, Left); !errors.Is(err, ErrBadFrame) {
		t.Errorf("Build(tiny frame) error = %v, want ErrBadFrame", err)
	}
}

func TestBuildTipsWithinFrame(t *testing.T) {
	g := mustLayout(t, "((A:1,B:2):1,(C:3,D:1):2);", Left)

	for _, tip := range g.Tips() {
		if tip.XSelf < margin-1e-9 || tip.XSelf > frameW-margin+1e-9 {
			t.Errorf("tip %q XSelf = %g outside frame", tip.Data.Name, tip.XSelf)
		}
		if tip.YSelf < margin-1e-9 || tip.YSelf > frameH-margin+1e-9 {
			t.Errorf("tip %q YSelf = %g outside frame", tip.Data.Name, tip.YSelf)
		}
	}
}

func TestBuildTipRowsDistinctAndOrdered(t *testing.T) {
	g := mustLayout(t, "((A:1,B:2):1,(C:3,D:1):2);", Left)

	tips := g.Tips()
	for i := 1; i < len(tips); i++ {
		if tips[i].YSelf <= tips[i-1].YSelf {
			t.Errorf("tip rows not strictly increasing: %q=%g, %q=%g",
				tips[i-1].Data.Name, tips[i-1].YSelf, tips[i].Data.Name, tips[i].YSelf)
		}
	}
}

func TestBuildDeepestTipHitsRightEdge(t *testing.T) {
	g := mustLayout(t, "((A:1,B:2):1,(C:3,D:1):2);", Left)

	// C has the largest cumulative length (2+3=5) and must land on the
	// inner right edge.
	var c *GraphicNode
	Walk(g, func(n *GraphicNode) bool {
		if n.Data.Name == "C" {
			c = n
			return false
		}
		return true
	})
	if c == nil {
		t.Fatal("C not found in shadow tree")
	}
	if math.Abs(c.XSelf-(frameW-margin)) > 1e-9 {
		t.Errorf("C.XSelf = %g, want %g", c.XSelf, frameW-margin)
	}
}

func TestBuildInternalAtMeanOfChildren(t *testing.T) {
	g := mustLayout(t, "((A:1,B:1):1,C:1);", Left)

	ab := g.Children[0]
	mean := (ab.Children[0].YSelf + ab.Children[1].YSelf) / 2
	if math.Abs(ab.YSelf-mean) > 1e-9 {
		t.Errorf("internal YSelf = %g, want mean %g", ab.YSelf, mean)
	}
}

func TestBuildZeroLengthsFallBackToLevels(t *testing.T) {
	g := mustLayout(t, "((A,B),C);", Left)

	// Unit spacing: leaves A and B sit one level deeper than C.
	var a, c *GraphicNode
	Walk(g, func(n *GraphicNode) bool {
		switch n.Data.Name {
		case "A":
			a = n
		case "C":
			c = n
		}
		return true
	})
	if a.XSelf <= c.XSelf {
		t.Errorf("A.XSelf = %g should be right of C.XSelf = %g", a.XSelf, c.XSelf)
	}
	if math.Abs(a.XSelf-(frameW-margin)) > 1e-9 {
		t.Errorf("deepest level should hit the inner edge, got %g", a.XSelf)
	}
}

func TestBuildRootStub(t *testing.T) {
	left := mustLayout(t, "((A:1,B:2):1,C:3);", Left)
	if got := left.XSelf - left.XParent; math.Abs(got-rootStub) > 1e-9 {
		t.Errorf("left root stub = %g, want %g", got, rootStub)
	}
	if left.YParent != left.YSelf {
		t.Error("root stub should be horizontal")
	}

	right := mustLayout(t, "((A:1,B:2):1,C:3);", Right)
	if got := right.XParent - right.XSelf; math.Abs(got-rootStub) > 1e-9 {
		t.Errorf("right root stub = %g, want %g", got, rootStub)
	}
}

func TestBuildRightMirrors(t *testing.T) {
	left := mustLayout(t, "((A:1,B:2):1,C:3);", Left)
	right := mustLayout(t, "((A:1,B:2):1,C:3);", Right)

	// Same tree, mirrored: XSelf positions reflect around the frame center.
	var pairs [][2]*GraphicNode
	l, r := left.Tips(), right.Tips()
	for i := range l {
		pairs = append(pairs, [2]*GraphicNode{l[i], r[i]})
	}
	for _, p := range pairs {
		sum := p[0].XSelf + p[1].XSelf
		if math.Abs(sum-frameW) > 1e-9 {
			t.Errorf("tip %q not mirrored: %g + %g != %g", p[0].Data.Name, p[0].XSelf, p[1].XSelf, frameW)
		}
	}
}

func TestCollapsedSubtreeIsATip(t *testing.T) {
	g, err := Snapshot(mustDecode(t, "((A:1,B:1):1,C:1);"))
	if err != nil {
		t.Fatal(err)
	}
	g.Children[0].Collapsed = true
	if err := Build(g, frameW, frameH, margin, Left); err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	tips := g.Tips()
	if len(tips) != 2 {
		t.Fatalf("tips with collapsed clade = %d, want 2", len(tips))
	}
	if tips[0] != g.Children[0] {
		t.Error("the collapsed clade itself should be the first tip")
	}
}

func TestShift(t *testing.T) {
	g := mustLayout(t, "(A:1,B:1);", Left)
	before := g.Children[0].XSelf

	Shift(g, 100, -10)
	if got := g.Children[0].XSelf; math.Abs(got-(before+100)) > 1e-9 {
		t.Errorf("XSelf after shift = %g, want %g", got, before+100)
	}
}
