// Package available computes available expressions: the binary
// expressions that have been computed on every path to a program point,
// without any of their operands being redefined since.
package available

import (
	"github.com/cs-au-dk/dfa/analysis/cfg"
	"github.com/cs-au-dk/dfa/analysis/dataflow"
	L "github.com/cs-au-dk/dfa/analysis/lattice"
)

// Expression is a binary expression. Expressions are equal when they apply
// the same operator to the same operand values.
type Expression struct {
	Op   string
	X, Y cfg.Value
}

func (e Expression) String() string {
	return e.X.Name() + " " + e.Op + " " + e.Y.Name()
}

// Reads holds if v is an operand of e.
func (e Expression) Reads(v cfg.Value) bool {
	return e.X == v || e.Y == v
}

// ExpressionOf retrieves the expression computed by a binary instruction.
func ExpressionOf(insn cfg.Instruction) (Expression, bool) {
	if insn.Kind() != cfg.KindBinary {
		return Expression{}, false
	}
	ops := insn.Operands()
	return Expression{insn.Op(), ops[0], ops[1]}, true
}

// extraction is the state shared by the extractor and the domain
// observer of a single analysis.
type extraction struct {
	// reads maps variables to the domain indices of the expressions reading them.
	reads map[cfg.Value][]int
	// defines maps extracted blocks to the variables they (re)define.
	defines map[cfg.Block][]cfg.Value
}

// Problem creates the available expressions problem. Every analysis
// requires a fresh problem.
func Problem() dataflow.Problem[Expression] {
	s := &extraction{
		reads:   make(map[cfg.Value][]int),
		defines: make(map[cfg.Block][]cfg.Value),
	}

	return dataflow.Problem[Expression]{
		Name:      "available",
		Direction: dataflow.Forward,
		Meet:      dataflow.Intersection,
		Setup:     s.setup,
		Extract:   s.extract,
		Render:    Expression.String,
	}
}

// setup keeps KILL sets complete when expressions are discovered after
// a block redefining one of their operands was extracted.
func (s *extraction) setup(x *dataflow.Extractor[Expression]) {
	x.Domain().OnAppend(func(i int, e Expression) {
		for _, v := range [...]cfg.Value{e.X, e.Y} {
			if v.IsConstant() {
				continue
			}
			s.reads[v] = append(s.reads[v], i)

			for b, vs := range s.defines {
				for _, def := range vs {
					if def != v {
						continue
					}
					if _, kill, ok := x.Cached(b); ok {
						kill.Set(i)
					}
				}
			}
		}
	})
}

func (s *extraction) extract(x *dataflow.Extractor[Expression], b cfg.Block) (gen, kill L.BitVector) {
	// Forget what a previous extraction of the block defined.
	delete(s.defines, b)

	d := x.Domain()
	gen = L.Empty(d.Len())
	var defined []cfg.Value

	for _, insn := range b.Instructions() {
		if e, ok := ExpressionOf(insn); ok {
			gen.Set(d.IndexOf(e))
		} else if insn.Kind() == cfg.KindUnknown {
			x.Conservative(b, insn)
		}

		// Any result, including that of an unrecognized instruction,
		// invalidates the expressions reading it.
		if r := insn.Result(); r != nil {
			defined = append(defined, r)
			for _, i := range s.reads[r] {
				gen.Clear(i)
			}
		}
	}

	kill = L.Empty(d.Len())
	for _, v := range defined {
		for _, i := range s.reads[v] {
			kill.Set(i)
		}
	}
	s.defines[b] = defined

	return
}

// Analysis wraps the solver with queries in terms of expressions.
type Analysis struct {
	*dataflow.Analysis[Expression]
}

// New creates an available expressions analysis of f.
func New(f cfg.Function, opts dataflow.Options) Analysis {
	return Analysis{dataflow.New(Problem(), f, opts)}
}

// AvailableAt lists the expressions available on entry to b.
func (a Analysis) AvailableAt(b cfg.Block) []Expression {
	return a.Facts(b).In
}

// AvailableAfter lists the expressions available on exit from b.
func (a Analysis) AvailableAfter(b cfg.Block) []Expression {
	return a.Facts(b).Out
}

// IsAvailable holds if e is available on entry to b.
func (a Analysis) IsAvailable(b cfg.Block, e Expression) bool {
	i, ok := a.Domain().Lookup(e)
	return ok && a.In(b).Test(i)
}
