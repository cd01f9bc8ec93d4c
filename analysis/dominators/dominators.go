// Package dominators computes the dominator sets of basic blocks as a
// forward must-problem: a block dominates itself, and every block
// dominating all of its predecessors.
package dominators

import (
	"fmt"
	"strings"

	"github.com/cs-au-dk/dfa/analysis/cfg"
	"github.com/cs-au-dk/dfa/analysis/dataflow"
	L "github.com/cs-au-dk/dfa/analysis/lattice"
	"github.com/cs-au-dk/dfa/utils/dot"
	"github.com/cs-au-dk/dfa/utils/graph"
)

// Problem creates the dominators problem. GEN is the block itself and KILL
// is empty. Blocks without predecessors are only dominated by themselves.
func Problem() dataflow.Problem[cfg.Block] {
	return dataflow.Problem[cfg.Block]{
		Name:      "dominators",
		Direction: dataflow.Forward,
		Meet:      dataflow.Intersection,
		Extract: func(x *dataflow.Extractor[cfg.Block], b cfg.Block) (gen, kill L.BitVector) {
			d := x.Domain()
			gen = L.Of(d.Len(), d.IndexOf(b))
			return gen, L.Empty(d.Len())
		},
		Render: cfg.Block.Name,
	}
}

// Analysis wraps the solver with queries in terms of blocks.
type Analysis struct {
	*dataflow.Analysis[cfg.Block]
}

// New creates a dominators analysis of f.
func New(f cfg.Function, opts dataflow.Options) Analysis {
	return Analysis{dataflow.New(Problem(), f, opts)}
}

// Dominators lists the blocks dominating b, including b itself.
func (a Analysis) Dominators(b cfg.Block) []cfg.Block {
	return a.Facts(b).Out
}

// Dominates holds if d dominates b.
func (a Analysis) Dominates(d, b cfg.Block) bool {
	i, ok := a.Domain().Lookup(d)
	return ok && a.Out(b).Test(i)
}

// Idom retrieves the immediate dominator of b: the strict dominator of b
// that is dominated by every other strict dominator of b. Blocks without
// strict dominators have none.
func (a Analysis) Idom(b cfg.Block) (idom cfg.Block, ok bool) {
	doms := a.Out(b)
	i, found := a.Domain().Lookup(b)
	if !found {
		return
	}
	doms.Clear(i)

	// The immediate dominator has the largest dominator set among the
	// strict dominators, as they form a chain.
	best := -1
	doms.ForEach(func(j int) {
		d := a.Domain().At(j)
		if n := a.Out(d).Count(); n > best {
			best, idom, ok = n, d, true
		}
	})
	return
}

// reachable lists the blocks reachable from the entry.
func (a Analysis) reachable() (blocks []cfg.Block) {
	f := a.Function()
	reach := cfg.Reachable(f)
	for i, b := range f.Blocks() {
		if reach.Has(i) {
			blocks = append(blocks, b)
		}
	}
	return
}

// Tree is the dominator tree of the blocks reachable from the entry, with
// edges from immediate dominators to the blocks they immediately
// dominate. Unreachable blocks are left out: in a dead cycle every block
// dominates every other, so their immediate dominators are meaningless.
func (a Analysis) Tree() graph.Graph[cfg.Block] {
	children := make(map[cfg.Block][]cfg.Block)
	reachable := a.reachable()
	inTree := make(map[cfg.Block]bool, len(reachable))
	for _, b := range reachable {
		inTree[b] = true
	}
	for _, b := range reachable {
		if idom, ok := a.Idom(b); ok && inTree[idom] {
			children[idom] = append(children[idom], b)
		}
	}
	return graph.OfHashable(func(b cfg.Block) []cfg.Block {
		return children[b]
	})
}

// TreeDot renders the dominator tree.
func (a Analysis) TreeDot() *dot.DotGraph {
	f := a.Function()
	pos := cfg.Positions(f)
	G := a.Tree().ToDotGraph(a.reachable(), &graph.VisualizationConfig[cfg.Block]{
		NodeAttrs: func(b cfg.Block) (string, dot.DotAttrs) {
			return fmt.Sprintf("%s-dom-%d", f.Name(), pos[b]), dot.DotAttrs{
				"label": b.Name(),
				"shape": "box",
			}
		},
	})
	G.Title = f.Name() + " (dominator tree)"
	return G
}

// Verify cross-checks the dominator sets against the dominator tree of the
// blocks reachable from the entry. Blocks that can be reached from an
// unreachable block are skipped, as their sets also account for the dead
// paths.
func (a Analysis) Verify() error {
	f := a.Function()
	entry := cfg.Entry(f)
	if entry == nil {
		return nil
	}

	G := graph.Successors()
	dt := G.DominatorTree(entry)

	tainted := map[cfg.Block]bool{}
	G.BFSV(func(b cfg.Block) bool {
		tainted[b] = true
		return false
	}, cfg.Unreachable(f)...)

	var mismatches []string
	for _, b := range f.Blocks() {
		if tainted[b] || !dt.Reachable(b) {
			continue
		}

		for _, d := range f.Blocks() {
			if !dt.Reachable(d) {
				continue
			}
			if expected, found := dt.Dominates(d, b), a.Dominates(d, b); expected != found {
				mismatches = append(mismatches, fmt.Sprintf("%s dom %s: expected %v, found %v",
					d.Name(), b.Name(), expected, found))
			}
		}
	}

	if len(mismatches) > 0 {
		return fmt.Errorf("dominators of %s disagree with the dominator tree:\n%s",
			f.Name(), strings.Join(mismatches, "\n"))
	}
	return nil
}
