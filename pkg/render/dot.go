package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/phylotangle/phylotangle/pkg/tree"
)

// DOTOptions configures node-link DOT export.
type DOTOptions struct {
	// Lengths labels each edge with its branch length.
	Lengths bool

	// Bootstrap labels internal nodes with their support value.
	Bootstrap bool
}

// ToDOT converts a tree to Graphviz DOT format for a node-link view,
// an alternative to the rectangular phylogram that emphasizes topology
// over branch length. Internal nodes without names are drawn as small
// points; leaves as boxes carrying the taxon name.
func ToDOT(root *tree.Node, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph phylo {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12];\n")
	buf.WriteString("  edge [arrowhead=none];\n")
	buf.WriteString("\n")

	tree.Walk(root, func(n *tree.Node) bool {
		fmt.Fprintf(&buf, "  n%d [%s];\n", n.ID, strings.Join(nodeAttrs(n, opts), ", "))
		return true
	})

	buf.WriteString("\n")
	tree.Walk(root, func(n *tree.Node) bool {
		if p := n.Parent(); p != nil {
			if opts.Lengths {
				fmt.Fprintf(&buf, "  n%d -> n%d [label=\"%g\"];\n", p.ID, n.ID, n.Length)
			} else {
				fmt.Fprintf(&buf, "  n%d -> n%d;\n", p.ID, n.ID)
			}
		}
		return true
	})

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n *tree.Node, opts DOTOptions) []string {
	if n.IsLeaf() {
		return []string{fmt.Sprintf("label=%q", n.Name)}
	}
	label := n.Name
	if opts.Bootstrap && n.Bootstrap != 0 {
		if label != "" {
			label += "\\n"
		}
		label += fmt.Sprintf("%g", n.Bootstrap)
	}
	if label == "" {
		return []string{"shape=point", "width=0.08"}
	}
	return []string{fmt.Sprintf("label=%q", label), "shape=ellipse"}
}

// RenderDOTSVG renders a DOT graph to SVG using Graphviz.
func RenderDOTSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderDOTPNG renders a DOT graph as PNG via SVG conversion.
// Requires librsvg (see [ToPNG]).
func RenderDOTPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderDOTSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return ToPNG(svg, scale)
}

// RenderDOTPDF renders a DOT graph as PDF via SVG conversion.
// Requires librsvg (see [ToPDF]).
func RenderDOTPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderDOTSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return ToPDF(svg)
}
