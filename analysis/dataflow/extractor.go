package dataflow

import (
	"log"

	"github.com/cs-au-dk/dfa/analysis/cfg"
	L "github.com/cs-au-dk/dfa/analysis/lattice"
	"github.com/cs-au-dk/dfa/utils"
)

var opts = utils.Opts()

// Extractor is handed to the gen/kill extraction and setup functions of
// a problem. It exposes the domain of the analysis and the gen/kill cache.
type Extractor[E comparable] struct {
	a *Analysis[E]
}

func (x *Extractor[E]) Domain() *L.Domain[E] {
	return x.a.domain
}

func (x *Extractor[E]) Function() cfg.Function {
	return x.a.fun
}

// Cached retrieves the gen/kill pair of an already extracted block.
// Problems may update the returned vectors in place, e. g. to extend a
// KILL set with elements discovered after the block was extracted.
func (x *Extractor[E]) Cached(b cfg.Block) (gen, kill L.BitVector, ok bool) {
	if gk, found := x.a.cache[b]; found {
		return gk.gen, gk.kill, true
	}
	return
}

// Conservative records that an instruction was not specifically
// recognized and has been approximated.
func (x *Extractor[E]) Conservative(b cfg.Block, insn cfg.Instruction) {
	x.a.stats.Unsupported++
	if opts.Verbose() {
		log.Printf("%s: %s: unsupported instruction %q (%v) in block %s, approximating",
			x.a.problem.Name, x.a.fun.Name(), insn, insn.Kind(), b.Name())
	}
}

// genKill is a cache entry. It is valid as long as the block holds the
// same instructions as when it was extracted.
type genKill struct {
	gen, kill L.BitVector
	instrs    []cfg.Instruction
}

func (gk *genKill) validFor(b cfg.Block) bool {
	instrs := b.Instructions()
	if len(instrs) != len(gk.instrs) {
		return false
	}
	for i, insn := range instrs {
		if insn != gk.instrs[i] {
			return false
		}
	}
	return true
}
