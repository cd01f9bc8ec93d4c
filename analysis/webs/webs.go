// Package webs groups definitions and uses of variables into webs: maximal
// sets of definitions that reach a common use, together with those uses.
// Webs are the units of register allocation and renaming.
package webs

import (
	"fmt"
	"io"
	"strings"

	uf "github.com/spakin/disjoint"

	"github.com/cs-au-dk/dfa/analysis/cfg"
	"github.com/cs-au-dk/dfa/analysis/reaching"
)

// Use is an occurrence of a variable as an operand.
type Use struct {
	Block cfg.Block
	// Index of the instruction in the block.
	Index int
}

func (u Use) Instruction() cfg.Instruction {
	return u.Block.Instructions()[u.Index]
}

func (u Use) String() string {
	return fmt.Sprintf("%s[%d]", u.Block.Name(), u.Index)
}

type Web struct {
	Var  cfg.Value
	Defs []reaching.Definition
	Uses []Use
}

func (w Web) String() string {
	defs := make([]string, 0, len(w.Defs))
	for _, def := range w.Defs {
		defs = append(defs, def.String())
	}
	uses := make([]string, 0, len(w.Uses))
	for _, use := range w.Uses {
		uses = append(uses, use.String())
	}
	return fmt.Sprintf("%s: defs {%s} uses {%s}", w.Var.Name(),
		strings.Join(defs, "; "), strings.Join(uses, ", "))
}

// Compute builds the webs of a converged reaching definitions analysis.
// Webs are ordered by the domain index of their first definition, and
// uses by their position in the function. Uses that no definition reaches
// (e. g. of parameters) belong to no web.
func Compute(a reaching.Analysis) []Web {
	f := a.Function()
	d := a.Domain()

	elements := make([]*uf.Element, d.Len())
	for i := range elements {
		elements[i] = uf.NewElement()
		elements[i].Data = i
	}
	element := func(def reaching.Definition) *uf.Element {
		i, _ := d.Lookup(def)
		return elements[i]
	}

	type pending struct {
		use Use
		rep *uf.Element
	}
	var uses []pending

	for _, b := range f.Blocks() {
		for i, insn := range b.Instructions() {
			for _, v := range cfg.Uses(insn) {
				defs := a.DefsBefore(b, i, v)
				if len(defs) == 0 {
					continue
				}

				first := element(defs[0])
				for _, def := range defs[1:] {
					uf.Union(first, element(def))
				}
				uses = append(uses, pending{Use{b, i}, first})
			}
		}
	}

	webs := []*Web{}
	byRep := make(map[*uf.Element]*Web)
	for i, def := range d.Slice() {
		rep := elements[i].Find()
		web, ok := byRep[rep]
		if !ok {
			web = &Web{Var: def.Result()}
			byRep[rep] = web
			webs = append(webs, web)
		}
		web.Defs = append(web.Defs, def)
	}
	for _, p := range uses {
		web := byRep[p.rep.Find()]
		web.Uses = append(web.Uses, p.use)
	}

	res := make([]Web, 0, len(webs))
	for _, web := range webs {
		res = append(res, *web)
	}
	return res
}

// Fprint writes one line per web to w.
func Fprint(w io.Writer, webs []Web) error {
	for _, web := range webs {
		if _, err := fmt.Fprintln(w, web); err != nil {
			return err
		}
	}
	return nil
}
