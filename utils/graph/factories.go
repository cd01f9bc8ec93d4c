package graph

import "github.com/cs-au-dk/dfa/analysis/cfg"

// Successors creates a graph over basic blocks with edges to their successors.
func Successors() Graph[cfg.Block] {
	return OfHashable(func(b cfg.Block) []cfg.Block {
		return b.Succs()
	})
}
