package layout

import (
	"github.com/phylotangle/phylotangle/pkg/tree"
)

// charWidth is the per-character width estimate used to keep connector
// curves clear of leaf labels. Actual font metrics are the rendering
// surface's business; a fixed estimate is enough to reserve space.
const charWidth = 7.0

// Connector is one tanglegram connecting line: a cubic curve from a
// leaf of the left tree to the identically named leaf of the right
// tree. Endpoints are inset past the leaf labels so the curve does not
// overlap text.
type Connector struct {
	Name           string
	X1, Y1         float64 // start anchor (left tree side)
	CX1, CY1       float64 // first control point
	CX2, CY2       float64 // second control point
	X2, Y2         float64 // end anchor (right tree side)
}

// Tanglegram holds two independently laid out trees facing each other
// plus the leaf correspondence for connecting lines.
type Tanglegram struct {
	Left, Right   *GraphicNode
	Connectors    []Connector
	Width, Height float64
	Margin        float64
}

// BuildTanglegram lays out two trees sharing a leaf set so matching
// leaves land at comparable positions. The left tree grows rightward in
// the left half of the frame, the right tree grows leftward and is
// shifted by the half-width of the canvas. Leaves of the right tree
// whose names have no counterpart on the left are skipped silently.
func BuildTanglegram(a, b *tree.Node, width, height, margin float64) (*Tanglegram, error) {
	left, err := Snapshot(a)
	if err != nil {
		return nil, err
	}
	right, err := Snapshot(b)
	if err != nil {
		return nil, err
	}

	half := width / 2
	if err := Build(left, half, height, margin, Left); err != nil {
		return nil, err
	}
	if err := Build(right, half, height, margin, Right); err != nil {
		return nil, err
	}
	Shift(right, half, 0)

	t := &Tanglegram{
		Left:   left,
		Right:  right,
		Width:  width,
		Height: height,
		Margin: margin,
	}
	t.Connectors = connect(left, right)
	return t, nil
}

// connect builds a name→position index from the left tree's tips and
// pairs it against the right tree's tips. Anonymous tips never match.
func connect(left, right *GraphicNode) []Connector {
	index := make(map[string]*GraphicNode)
	for _, tip := range left.Tips() {
		if name := tip.Data.Name; name != "" {
			index[name] = tip
		}
	}

	var conns []Connector
	for _, tip := range right.Tips() {
		name := tip.Data.Name
		l, ok := index[name]
		if name == "" || !ok {
			continue
		}
		inset := labelWidth(name)
		x1 := l.XSelf + inset
		x2 := tip.XSelf - inset
		span := x2 - x1
		conns = append(conns, Connector{
			Name: name,
			X1:   x1, Y1: l.YSelf,
			CX1: x1 + span/3, CY1: l.YSelf,
			CX2: x1 + 2*span/3, CY2: tip.YSelf,
			X2: x2, Y2: tip.YSelf,
		})
	}
	return conns
}

// labelWidth estimates the horizontal space a leaf label occupies,
// including a small gap between text and curve.
func labelWidth(name string) float64 {
	return float64(len(name))*charWidth + charWidth
}
