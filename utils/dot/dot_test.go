package dot

import (
	"strings"
	"testing"
)

func TestAttrsAreSorted(t *testing.T) {
	attrs := DotAttrs{"shape": "box", "label": "entry", "fillcolor": "#d3d3d3"}
	if found, expected := attrs.String(), `fillcolor="#d3d3d3"; label="entry"; shape="box";`; found != expected {
		t.Errorf("Expected %s, found %s", expected, found)
	}
}

func TestWriteDot(t *testing.T) {
	a := &DotNode{ID: "f-0", Attrs: DotAttrs{"label": "entry"}}
	b := &DotNode{ID: "f-1", Attrs: DotAttrs{"label": "exit"}}
	G := &DotGraph{
		Title:   "f",
		Nodes:   []*DotNode{a, b},
		Edges:   []*DotEdge{{From: a, To: b}},
		Options: map[string]string{"minlen": "2", "nodesep": "0.35"},
	}

	var sb strings.Builder
	if err := G.WriteDot(&sb); err != nil {
		t.Fatal(err)
	}

	out := sb.String()
	for _, expected := range []string{
		"digraph CFG {",
		`label="f";`,
		`"f-0" [ label="entry"; ]`,
		`"f-0" -> "f-1" [  ]`,
		`rankdir="LR";`,
	} {
		if !strings.Contains(out, expected) {
			t.Errorf("Expected %q in:\n%s", expected, out)
		}
	}
}
