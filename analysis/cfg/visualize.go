package cfg

import (
	"fmt"

	"github.com/cs-au-dk/dfa/utils"
	"github.com/cs-au-dk/dfa/utils/dot"
)

var opts = utils.Opts()

// ToDotGraph creates a Dot Graph of the blocks of f. The label function
// may attach additional lines (e. g. dataflow facts) to every block.
// Unreachable blocks are greyed out.
func ToDotGraph(f Function, label func(Block) string) *dot.DotGraph {
	G := &dot.DotGraph{
		Title: f.Name(),
		Options: map[string]string{
			"minlen":  fmt.Sprint(opts.Minlen()),
			"nodesep": fmt.Sprint(opts.Nodesep()),
			"rankdir": "TB",
		},
	}

	reach := Reachable(f)
	blockToDotNode := make(map[Block]*dot.DotNode, len(f.Blocks()))

	for i, b := range f.Blocks() {
		text := b.Name() + ":\n"
		for _, insn := range b.Instructions() {
			text += "  " + insn.String() + "\n"
		}
		if label != nil {
			text += label(b)
		}

		dnode := &dot.DotNode{
			// Make node IDs unique across functions
			ID: fmt.Sprintf("%s-%d", f.Name(), i),
			Attrs: dot.DotAttrs{
				"label": text,
				"shape": "box",
			},
		}
		if !reach.Has(i) {
			dnode.Attrs["fillcolor"] = "#d3d3d3"
		}

		G.Nodes = append(G.Nodes, dnode)
		blockToDotNode[b] = dnode
	}

	for _, b := range f.Blocks() {
		succs := b.Succs()
		for j, succ := range succs {
			var attrs dot.DotAttrs
			// The first successor of a conditional branch is the "true" edge.
			if len(succs) == 2 {
				attrs = dot.DotAttrs{"label": fmt.Sprint(j == 0)}
			}
			G.Edges = append(G.Edges, &dot.DotEdge{
				From:  blockToDotNode[b],
				To:    blockToDotNode[succ],
				Attrs: attrs,
			})
		}
	}

	return G
}
