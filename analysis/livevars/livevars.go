// Package livevars computes the variables that are live at the boundaries
// of every block: those that may be read on some path before being
// redefined.
package livevars

import (
	"log"

	"github.com/benbjohnson/immutable"

	"github.com/cs-au-dk/dfa/analysis/cfg"
	"github.com/cs-au-dk/dfa/analysis/dataflow"
	L "github.com/cs-au-dk/dfa/analysis/lattice"
	"github.com/cs-au-dk/dfa/utils"
)

var opts = utils.Opts()

// UseDef computes the variables read by b before being (re)defined in b,
// and the variables defined in b. Unrecognized instructions read all their
// non-constant operands and define nothing.
func UseDef(x *dataflow.Extractor[cfg.Value], b cfg.Block) (use, def L.BitVector) {
	d := x.Domain()
	use, def = L.Empty(d.Len()), L.Empty(d.Len())

	for _, insn := range b.Instructions() {
		if insn.Kind() == cfg.KindUnknown {
			x.Conservative(b, insn)
		}

		for _, v := range cfg.Uses(insn) {
			if i := d.IndexOf(v); !def.Test(i) {
				use.Set(i)
			}
		}
		if v, ok := cfg.Defines(insn); ok && !v.IsConstant() {
			def.Set(d.IndexOf(v))
		}
	}

	return
}

// Problem creates the live variables problem. USE plays the role of GEN
// and DEF the role of KILL. Nothing is live after an exit.
func Problem() dataflow.Problem[cfg.Value] {
	return dataflow.Problem[cfg.Value]{
		Name:      "liveness",
		Direction: dataflow.Backward,
		Meet:      dataflow.Union,
		Extract:   UseDef,
		Render:    cfg.Value.Name,
	}
}

// Analysis wraps the solver with queries in terms of variables.
type Analysis struct {
	*dataflow.Analysis[cfg.Value]
}

// New creates a live variables analysis of f.
func New(f cfg.Function, opts dataflow.Options) Analysis {
	return Analysis{dataflow.New(Problem(), f, opts)}
}

// LiveIn lists the variables live on entry to b.
func (a Analysis) LiveIn(b cfg.Block) []cfg.Value {
	return a.Facts(b).In
}

// LiveOut lists the variables live on exit from b.
func (a Analysis) LiveOut(b cfg.Block) []cfg.Value {
	return a.Facts(b).Out
}

// IsLiveOut holds if v is live on exit from b.
func (a Analysis) IsLiveOut(b cfg.Block, v cfg.Value) bool {
	i, ok := a.Domain().Lookup(v)
	return ok && a.Out(b).Test(i)
}

// LiveVars computes the variables live on entry to every block of f.
func LiveVars(f cfg.Function, dopts dataflow.Options) (*immutable.Map[cfg.Block, []cfg.Value], error) {
	if opts.Verbose() {
		log.Printf("Starting liveness analysis of %s...", f.Name())
	}

	a := New(f, dopts)
	if err := a.Run(); err != nil {
		return nil, err
	}

	liveVars := immutable.NewMapBuilder[cfg.Block, []cfg.Value](utils.PointerHasher[cfg.Block]{})
	for _, b := range f.Blocks() {
		liveVars.Set(b, a.LiveIn(b))
	}

	if opts.Verbose() {
		log.Printf("Liveness analysis of %s done after %d rounds", f.Name(), a.Stats().Rounds)
	}
	return liveVars.Map(), nil
}
