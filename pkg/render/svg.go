// Package render turns computed layouts into output artifacts: SVG
// phylograms and tanglegrams, Graphviz node-link diagrams, JSON layout
// exports, and PNG/PDF conversions of any of those.
//
// The SVG renderers draw onto a coordinate surface produced by
// [pkg/layout]: line segments for branches, cubic curves for tanglegram
// connectors, and text labels keyed to node anchors. Font loading and
// stroke rasterization are the viewer's concern.
package render

import (
	"bytes"
	"fmt"

	"github.com/phylotangle/phylotangle/pkg/layout"
)

// fontSize is the label font size in user units.
const fontSize = 11.0

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	stroke     layout.Stroke
	connStroke layout.Stroke
	labels     bool
	bootstrap  bool
}

// WithStroke overrides the default branch stroke.
func WithStroke(s layout.Stroke) SVGOption {
	return func(r *svgRenderer) { r.stroke = s }
}

// WithConnectorStroke overrides the stroke used for tanglegram
// connector curves.
func WithConnectorStroke(s layout.Stroke) SVGOption {
	return func(r *svgRenderer) { r.connStroke = s }
}

// WithoutLabels suppresses leaf name labels.
func WithoutLabels() SVGOption {
	return func(r *svgRenderer) { r.labels = false }
}

// WithBootstrap draws bootstrap support values at internal nodes.
func WithBootstrap() SVGOption {
	return func(r *svgRenderer) { r.bootstrap = true }
}

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{
		stroke:     layout.Stroke{Color: "#333333", Width: 1.5},
		connStroke: layout.Stroke{Color: "#7a9ec9", Width: 1.0},
		labels:     true,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// RenderSVG renders a single laid-out tree as a rectangular phylogram.
// The shadow tree must already carry coordinates from [layout.Build].
func RenderSVG(g *layout.GraphicNode, width, height float64, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)

	var buf bytes.Buffer
	openSVG(&buf, width, height)
	r.drawTree(&buf, g, layout.Left)
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// RenderTanglegramSVG renders both trees of a tanglegram facing each
// other with connector curves between identically named leaves.
func RenderTanglegramSVG(t *layout.Tanglegram, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)

	var buf bytes.Buffer
	openSVG(&buf, t.Width, t.Height)
	r.drawTree(&buf, t.Left, layout.Left)
	r.drawTree(&buf, t.Right, layout.Right)
	for _, c := range t.Connectors {
		fmt.Fprintf(&buf,
			`  <path d="M %.1f %.1f C %.1f %.1f, %.1f %.1f, %.1f %.1f" fill="none" stroke="%s" stroke-width="%.1f"/>`+"\n",
			c.X1, c.Y1, c.CX1, c.CY1, c.CX2, c.CY2, c.X2, c.Y2,
			r.connStroke.Color, r.connStroke.Width)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func openSVG(buf *bytes.Buffer, width, height float64) {
	fmt.Fprintf(buf,
		`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
}

// drawTree emits the branch elbows and labels for one tree. A branch is
// two segments: vertical along the parent's depth from the parent's
// anchor to the child's row, then horizontal out to the child's anchor.
func (r *svgRenderer) drawTree(buf *bytes.Buffer, g *layout.GraphicNode, orient layout.Orientation) {
	layout.Walk(g, func(n *layout.GraphicNode) bool {
		stroke := n.Stroke
		if stroke == (layout.Stroke{}) {
			stroke = r.stroke
		}
		fmt.Fprintf(buf,
			`  <polyline points="%.1f,%.1f %.1f,%.1f %.1f,%.1f" fill="none" stroke="%s" stroke-width="%.1f"/>`+"\n",
			n.XParent, n.YParent, n.XParent, n.YSelf, n.XSelf, n.YSelf,
			stroke.Color, stroke.Width)

		if r.labels && (len(n.Children) == 0 || n.Collapsed) {
			r.drawLabel(buf, n, orient)
		}
		if r.bootstrap && len(n.Children) > 0 && n.Data.Bootstrap != 0 {
			fmt.Fprintf(buf,
				`  <text x="%.1f" y="%.1f" font-size="%.0f" fill="#888888">%.0f</text>`+"\n",
				n.XSelf+2, n.YSelf-3, fontSize-2, n.Data.Bootstrap)
		}
		if n.Collapsed {
			return false // children carry no coordinates
		}
		return true
	})
}

func (r *svgRenderer) drawLabel(buf *bytes.Buffer, n *layout.GraphicNode, orient layout.Orientation) {
	name := n.Data.Name
	if name == "" {
		return
	}
	anchor := "start"
	x := n.XSelf + 4
	if orient == layout.Right {
		anchor = "end"
		x = n.XSelf - 4
	}
	fmt.Fprintf(buf,
		`  <text x="%.1f" y="%.1f" font-size="%.0f" font-family="sans-serif" text-anchor="%s">%s</text>`+"\n",
		x, n.YSelf+fontSize/3, fontSize, anchor, escapeXML(name))
}

func escapeXML(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
