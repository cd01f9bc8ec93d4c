// Package reaching computes reaching definitions. A definition is a
// value-producing instruction, and it reaches a program point if there is
// a path from it to the point.
//
// By default every variable is assumed to be defined at most once (as in
// SSA form), so definitions are never killed. Redefinitions are tracked
// when the analysis is created with NewKilling.
package reaching

import (
	"github.com/cs-au-dk/dfa/analysis/cfg"
	"github.com/cs-au-dk/dfa/analysis/dataflow"
	L "github.com/cs-au-dk/dfa/analysis/lattice"
)

// Definition sites are instructions, compared by identity.
type Definition = cfg.Instruction

// Problem creates the reaching definitions problem under the
// single-assignment assumption: GEN holds the definitions of a block and
// KILL is always empty.
func Problem() dataflow.Problem[Definition] {
	return dataflow.Problem[Definition]{
		Name:      "reaching",
		Direction: dataflow.Forward,
		Meet:      dataflow.Union,
		Extract: func(x *dataflow.Extractor[Definition], b cfg.Block) (gen, kill L.BitVector) {
			d := x.Domain()
			gen = L.Empty(d.Len())
			for _, insn := range b.Instructions() {
				if _, ok := cfg.Defines(insn); ok {
					gen.Set(d.IndexOf(insn))
				} else if insn.Kind() == cfg.KindUnknown {
					x.Conservative(b, insn)
				}
			}
			return gen, L.Empty(d.Len())
		},
		Render: Definition.String,
	}
}

type killing struct {
	// defs maps variables to the indices of their definitions.
	defs map[cfg.Value][]int
	// defines maps extracted blocks to the variables they define.
	defines map[cfg.Block][]cfg.Value
}

// KillingProblem creates the classic formulation for programs that may
// redefine variables: a block generates the last definition of each
// variable it defines, and kills all other definitions of those variables.
func KillingProblem() dataflow.Problem[Definition] {
	s := &killing{
		defs:    make(map[cfg.Value][]int),
		defines: make(map[cfg.Block][]cfg.Value),
	}

	p := Problem()
	p.Name = "reaching-killing"
	p.Setup = func(x *dataflow.Extractor[Definition]) {
		x.Domain().OnAppend(func(i int, def Definition) {
			v := def.Result()
			s.defs[v] = append(s.defs[v], i)
			for b, vs := range s.defines {
				for _, w := range vs {
					if w != v {
						continue
					}
					if _, kill, ok := x.Cached(b); ok {
						kill.Set(i)
					}
				}
			}
		})
	}
	p.Extract = func(x *dataflow.Extractor[Definition], b cfg.Block) (gen, kill L.BitVector) {
		delete(s.defines, b)

		d := x.Domain()
		last := make(map[cfg.Value]int)
		var defined []cfg.Value
		for _, insn := range b.Instructions() {
			v, ok := cfg.Defines(insn)
			if !ok {
				if insn.Kind() == cfg.KindUnknown {
					x.Conservative(b, insn)
				}
				continue
			}
			if _, seen := last[v]; !seen {
				defined = append(defined, v)
			}
			last[v] = d.IndexOf(insn)
		}

		gen, kill = L.Empty(d.Len()), L.Empty(d.Len())
		for _, v := range defined {
			gen.Set(last[v])
			for _, i := range s.defs[v] {
				kill.Set(i)
			}
		}
		s.defines[b] = defined
		return
	}
	return p
}

// Analysis wraps the solver with queries in terms of definitions.
type Analysis struct {
	*dataflow.Analysis[Definition]
	kills bool
}

// New creates a reaching definitions analysis of f for SSA-form programs.
func New(f cfg.Function, opts dataflow.Options) Analysis {
	return Analysis{Analysis: dataflow.New(Problem(), f, opts)}
}

// NewKilling creates a reaching definitions analysis of f that accounts for
// variables being redefined.
func NewKilling(f cfg.Function, opts dataflow.Options) Analysis {
	return Analysis{dataflow.New(KillingProblem(), f, opts), true}
}

// ReachingAt lists the definitions reaching the entry of b.
func (a Analysis) ReachingAt(b cfg.Block) []Definition {
	return a.Facts(b).In
}

// ReachingAfter lists the definitions reaching the exit of b.
func (a Analysis) ReachingAfter(b cfg.Block) []Definition {
	return a.Facts(b).Out
}

// DefsOf lists the definitions of v that reach the entry of b.
func (a Analysis) DefsOf(b cfg.Block, v cfg.Value) (defs []Definition) {
	for _, def := range a.ReachingAt(b) {
		if def.Result() == v {
			defs = append(defs, def)
		}
	}
	return
}

// DefsBefore lists the definitions of v that reach the i'th instruction
// of b, taking the preceding instructions of the block into account.
func (a Analysis) DefsBefore(b cfg.Block, i int, v cfg.Value) []Definition {
	defs := a.DefsOf(b, v)
	for _, insn := range b.Instructions()[:i] {
		if w, ok := cfg.Defines(insn); ok && w == v {
			if a.kills {
				defs = defs[:0]
			}
			defs = append(defs, insn)
		}
	}
	return defs
}
