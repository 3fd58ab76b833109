package render

import (
	"encoding/json"
	"testing"

	"github.com/phylotangle/phylotangle/pkg/layout"
)

func TestRenderJSON(t *testing.T) {
	g := mustLayout(t, "((A:1,B:2):1,C:3);")

	data, err := RenderJSON(g, frameW, frameH)
	if err != nil {
		t.Fatalf("RenderJSON() error: %v", err)
	}

	var out jsonLayout
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if out.Width != frameW || out.Height != frameH {
		t.Errorf("frame = %gx%g, want %gx%g", out.Width, out.Height, frameW, frameH)
	}
	if len(out.Nodes) != 5 {
		t.Fatalf("node count = %d, want 5", len(out.Nodes))
	}

	leaves := 0
	for _, n := range out.Nodes {
		if n.Leaf {
			leaves++
			if n.Name == "" {
				t.Error("leaf node should carry its name")
			}
		}
	}
	if leaves != 3 {
		t.Errorf("leaf count = %d, want 3", leaves)
	}

	// Pre-order: the root comes first and owns ID 0.
	if out.Nodes[0].ID != 0 || out.Nodes[0].Leaf {
		t.Errorf("first node = %+v, want internal root with id 0", out.Nodes[0])
	}
}

func TestRenderTanglegramJSON(t *testing.T) {
	tg, err := layout.BuildTanglegram(
		mustDecode(t, "((A:1,B:1):1,C:1);"),
		mustDecode(t, "((A:1,C:1):1,B:1);"),
		frameW, frameH, margin)
	if err != nil {
		t.Fatalf("BuildTanglegram() error: %v", err)
	}

	data, err := RenderTanglegramJSON(tg)
	if err != nil {
		t.Fatalf("RenderTanglegramJSON() error: %v", err)
	}

	var out jsonLayout
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(out.Nodes) == 0 || len(out.Right) == 0 {
		t.Fatal("both trees should be serialized")
	}
	if len(out.Connectors) != len(tg.Connectors) {
		t.Errorf("connector count = %d, want %d", len(out.Connectors), len(tg.Connectors))
	}
	for _, c := range out.Connectors {
		if c.Name == "" {
			t.Error("connector should name its leaf")
		}
		if c.X2 <= c.X1 {
			t.Errorf("connector %s should run left to right: x1=%g x2=%g", c.Name, c.X1, c.X2)
		}
	}
}
