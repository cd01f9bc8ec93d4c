package dataflow

import (
	"fmt"
	"io"

	"github.com/benbjohnson/immutable"
	"github.com/fatih/color"

	"github.com/cs-au-dk/dfa/analysis/cfg"
	L "github.com/cs-au-dk/dfa/analysis/lattice"
	"github.com/cs-au-dk/dfa/utils"
)

// Facts are the GEN, KILL, IN and OUT sets of a block as element
// sequences in domain insertion order.
type Facts[E comparable] struct {
	Gen, Kill, In, Out []E
}

// Facts retrieves the current sets of b.
func (a *Analysis[E]) Facts(b cfg.Block) Facts[E] {
	d := a.domain
	return Facts[E]{
		Gen:  d.Elements(a.Gen(b)),
		Kill: d.Elements(a.Kill(b)),
		In:   d.Elements(a.In(b)),
		Out:  d.Elements(a.Out(b)),
	}
}

// converged fails with ErrNotConverged unless the sets are final.
func (a *Analysis[E]) converged() error {
	if a.state != Converged {
		return fmt.Errorf("%w: %s analysis of %s is %s", ErrNotConverged, a.problem.Name, a.fun.Name(), a.state)
	}
	return nil
}

// Snapshot captures the converged facts of every block in a read-only map.
func (a *Analysis[E]) Snapshot() (*immutable.Map[cfg.Block, Facts[E]], error) {
	if err := a.converged(); err != nil {
		return nil, err
	}
	mb := immutable.NewMapBuilder[cfg.Block, Facts[E]](utils.PointerHasher[cfg.Block]{})
	for _, b := range a.fun.Blocks() {
		mb.Set(b, a.Facts(b))
	}
	return mb.Map(), nil
}

var colorize = struct {
	Block func(...interface{}) string
	Set   func(...interface{}) string
	Elem  func(...interface{}) string
}{
	Block: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiBlue).SprintFunc())(is...)
	},
	Set: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgYellow).SprintFunc())(is...)
	},
	Elem: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgCyan).SprintFunc())(is...)
	},
}

// Dump writes the GEN, KILL, IN and OUT sets of every block to w, in
// document order. The output is stable for identical input. Only
// converged analyses can be dumped.
func (a *Analysis[E]) Dump(w io.Writer) error {
	return a.dump(w, false)
}

// Print is like Dump, but colorizes the output unless colors are disabled.
func (a *Analysis[E]) Print(w io.Writer) error {
	return a.dump(w, true)
}

func (a *Analysis[E]) render() func(E) string {
	if a.problem.Render != nil {
		return a.problem.Render
	}
	return func(e E) string { return fmt.Sprint(e) }
}

// Sets renders the IN and OUT sets of b without colors.
func (a *Analysis[E]) Sets(b cfg.Block) (in, out string) {
	render := a.render()
	return a.domain.Format(a.In(b), render), a.domain.Format(a.Out(b), render)
}

func (a *Analysis[E]) dump(w io.Writer, colors bool) error {
	if err := a.converged(); err != nil {
		return err
	}

	id := func(is ...interface{}) string { return fmt.Sprint(is...) }
	blockC, setC, elemC := id, id, id
	if colors {
		blockC, setC, elemC = colorize.Block, colorize.Set, colorize.Elem
	}

	render := a.render()
	format := func(bv L.BitVector) string {
		return a.domain.Format(bv, func(e E) string { return elemC(render(e)) })
	}

	for _, b := range a.fun.Blocks() {
		if _, err := fmt.Fprintf(w, "%s:\n", blockC(b.Name())); err != nil {
			return err
		}

		for _, line := range []struct {
			name string
			bv   L.BitVector
		}{
			{"gen", a.Gen(b)},
			{"kill", a.Kill(b)},
			{"in", a.In(b)},
			{"out", a.Out(b)},
		} {
			if _, err := fmt.Fprintf(w, "  %-5s %s\n", setC(line.name+":"), format(line.bv)); err != nil {
				return err
			}
		}
	}

	return nil
}
