package dataflow

import (
	"github.com/cs-au-dk/dfa/analysis/cfg"
	"github.com/cs-au-dk/dfa/utils/graph"
)

func (a *Analysis[E]) computeOrder() []cfg.Block {
	blocks := a.fun.Blocks()
	if a.opts.Order == OrderDocument || len(blocks) == 0 {
		return blocks
	}

	G := graph.Successors()

	var order []cfg.Block
	if a.problem.Direction == Forward {
		order = G.ReversePostOrder(blocks[0])
	} else {
		order = G.PostOrder(blocks[0])
	}

	visited := make(map[cfg.Block]bool, len(order))
	for _, b := range order {
		visited[b] = true
	}
	for _, b := range blocks {
		if !visited[b] {
			order = append(order, b)
		}
	}

	return order
}
