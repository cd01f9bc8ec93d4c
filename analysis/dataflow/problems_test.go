package dataflow

import (
	"github.com/cs-au-dk/dfa/analysis/cfg"
	L "github.com/cs-au-dk/dfa/analysis/lattice"
)

// Small problems used to exercise the solver.

// assigned computes the variables that are definitely assigned on every
// path, a forward must-problem.
func assigned() Problem[cfg.Value] {
	return Problem[cfg.Value]{
		Name:      "assigned",
		Direction: Forward,
		Meet:      Intersection,
		Extract: func(x *Extractor[cfg.Value], b cfg.Block) (gen, kill L.BitVector) {
			d := x.Domain()
			gen, kill = L.Empty(d.Len()), L.Empty(d.Len())
			for _, insn := range b.Instructions() {
				if v, ok := cfg.Defines(insn); ok {
					gen.Set(d.IndexOf(v))
				}
			}
			return
		},
		Render: cfg.Value.Name,
	}
}

// live computes live variables, a backward may-problem. Variables in
// exitLive are live at every exit.
func live(exitLive ...string) Problem[cfg.Value] {
	return Problem[cfg.Value]{
		Name:      "live",
		Direction: Backward,
		Meet:      Union,
		Extract: func(x *Extractor[cfg.Value], b cfg.Block) (use, def L.BitVector) {
			d := x.Domain()
			use, def = L.Empty(d.Len()), L.Empty(d.Len())
			for _, insn := range b.Instructions() {
				for _, v := range cfg.Uses(insn) {
					if i := d.IndexOf(v); !def.Test(i) {
						use.Set(i)
					}
				}
				if v, ok := cfg.Defines(insn); ok {
					def.Set(d.IndexOf(v))
				}
			}
			return
		},
		Boundary: func(d *L.Domain[cfg.Value], b cfg.Block) L.BitVector {
			bv := L.Empty(d.Len())
			for i, v := range d.Slice() {
				for _, name := range exitLive {
					if v.Name() == name {
						bv.Set(i)
					}
				}
			}
			return bv
		},
		Render: cfg.Value.Name,
	}
}

// toggle alternates between the full and the empty set on every
// application of its transfer function.
func toggle() Problem[cfg.Value] {
	p := assigned()
	p.Name, p.Meet = "toggle", Union

	calls := 0
	p.Transfer = func(in, gen, kill L.BitVector) L.BitVector {
		calls++
		if calls%2 == 1 {
			return L.Full(in.Width())
		}
		return L.Empty(in.Width())
	}
	return p
}
