package render

import (
	"encoding/json"

	"github.com/phylotangle/phylotangle/pkg/layout"
)

// jsonNode is the serialized form of one laid-out node.
type jsonNode struct {
	ID      int     `json:"id"`
	Name    string  `json:"name,omitempty"`
	XSelf   float64 `json:"x_self"`
	YSelf   float64 `json:"y_self"`
	XParent float64 `json:"x_parent"`
	YParent float64 `json:"y_parent"`
	Leaf    bool    `json:"leaf,omitempty"`
}

type jsonConnector struct {
	Name   string  `json:"name"`
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
}

type jsonLayout struct {
	Width      float64         `json:"width"`
	Height     float64         `json:"height"`
	Nodes      []jsonNode      `json:"nodes"`
	Right      []jsonNode      `json:"right,omitempty"`
	Connectors []jsonConnector `json:"connectors,omitempty"`
}

// RenderJSON serializes a laid-out tree's coordinates for external
// consumers. The format can be fed to any rendering surface that draws
// line segments and labels keyed to node anchors.
func RenderJSON(g *layout.GraphicNode, width, height float64) ([]byte, error) {
	out := jsonLayout{
		Width:  width,
		Height: height,
		Nodes:  collectNodes(g),
	}
	return json.MarshalIndent(out, "", "  ")
}

// RenderTanglegramJSON serializes both trees of a tanglegram plus the
// connector anchor pairs.
func RenderTanglegramJSON(t *layout.Tanglegram) ([]byte, error) {
	out := jsonLayout{
		Width:  t.Width,
		Height: t.Height,
		Nodes:  collectNodes(t.Left),
		Right:  collectNodes(t.Right),
	}
	for _, c := range t.Connectors {
		out.Connectors = append(out.Connectors, jsonConnector{
			Name: c.Name,
			X1:   c.X1, Y1: c.Y1,
			X2: c.X2, Y2: c.Y2,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

func collectNodes(g *layout.GraphicNode) []jsonNode {
	var nodes []jsonNode
	layout.Walk(g, func(n *layout.GraphicNode) bool {
		nodes = append(nodes, jsonNode{
			ID:      n.Data.ID,
			Name:    n.Data.Name,
			XSelf:   n.XSelf,
			YSelf:   n.YSelf,
			XParent: n.XParent,
			YParent: n.YParent,
			Leaf:    len(n.Children) == 0,
		})
		return true
	})
	return nodes
}
