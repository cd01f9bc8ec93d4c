// Package dataflow implements a generic, monotone, round-based solver for
// bit-vector dataflow problems over control-flow graphs.
//
// A problem is described by a Problem value: a direction, a meet family,
// a gen/kill extractor and a boundary value. The solver visits all blocks
// in a fixed order, recomputing the inward value of every block with the
// meet over its neighbours and the outward value with the transfer
// function, until a full round makes no change.
package dataflow

import (
	"github.com/cs-au-dk/dfa/analysis/cfg"
	L "github.com/cs-au-dk/dfa/analysis/lattice"
)

// Direction is the direction facts flow in.
type Direction int

const (
	// Forward problems compute OUT from IN, and IN from the OUT of predecessors.
	Forward Direction = iota
	// Backward problems compute IN from OUT, and OUT from the IN of successors.
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Meet is the confluence operator family.
type Meet int

const (
	// Intersection is used by must-analyses. Its identity is the full domain.
	Intersection Meet = iota
	// Union is used by may-analyses. Its identity is the empty set.
	Union
)

func (m Meet) String() string {
	if m == Union {
		return "union"
	}
	return "intersection"
}

// Problem bundles the parameters of a dataflow problem over elements of type E.
type Problem[E comparable] struct {
	Name      string
	Direction Direction
	Meet      Meet

	// Setup is invoked once when an analysis is created, before any
	// extraction. Problems use it to install domain observers.
	Setup func(x *Extractor[E])

	// Extract computes the GEN and KILL sets of a block. For backward
	// problems GEN and KILL play the roles of USE and DEF. Extract must
	// register new elements through the extractor's domain.
	Extract func(x *Extractor[E], b cfg.Block) (gen, kill L.BitVector)

	// Boundary supplies the inward value of blocks that have no relevant
	// neighbours: the entry and unreachable blocks for forward problems,
	// exit blocks for backward problems. A nil Boundary means the empty set.
	Boundary func(d *L.Domain[E], b cfg.Block) L.BitVector

	// Transfer computes the outward value of a block from its inward value.
	// A nil Transfer means GEN ∪ (in ∖ KILL).
	Transfer func(in, gen, kill L.BitVector) L.BitVector

	// Render is used when printing elements. A nil Render uses fmt.
	Render func(E) string
}

// GenKillTransfer is the standard transfer function GEN ∪ (in ∖ KILL).
func GenKillTransfer(in, gen, kill L.BitVector) L.BitVector {
	return in.Difference(kill).UnionWith(gen)
}

func (p *Problem[E]) transfer(in, gen, kill L.BitVector) L.BitVector {
	if p.Transfer != nil {
		return p.Transfer(in, gen, kill)
	}
	return GenKillTransfer(in, gen, kill)
}

func (p *Problem[E]) boundary(d *L.Domain[E], b cfg.Block) L.BitVector {
	if p.Boundary != nil {
		return p.Boundary(d, b)
	}
	return L.Empty(d.Len())
}

// identity is the neutral element of the meet operator.
func (p *Problem[E]) identity(w int) L.BitVector {
	if p.Meet == Intersection {
		return L.Full(w)
	}
	return L.Empty(w)
}

func (p *Problem[E]) meetWith(acc, v L.BitVector) L.BitVector {
	if p.Meet == Intersection {
		return acc.IntersectWith(v)
	}
	return acc.UnionWith(v)
}

// neighbours are the blocks whose outward values flow into b.
func (p *Problem[E]) neighbours(b cfg.Block) []cfg.Block {
	if p.Direction == Backward {
		return b.Succs()
	}
	return b.Preds()
}
