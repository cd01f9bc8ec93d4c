package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/benbjohnson/immutable"

	"github.com/cs-au-dk/dfa/analysis/cfg"
	"github.com/cs-au-dk/dfa/utils/graph"
)

// shape summarizes the structure of a function.
type shape struct {
	params, blocks, loops, instructions int
	// addSub and mulDiv count binary operators by family.
	addSub, mulDiv int
	kinds          [cfg.KindReturn + 1]int
}

func measure(f cfg.Function) (s shape) {
	s.params = len(cfg.Parameters(f))
	s.blocks = len(f.Blocks())

	if entry := cfg.Entry(f); entry != nil {
		scc := graph.Successors().SCC([]cfg.Block{entry})
		for i := range scc.Components {
			if scc.Cyclic(i) {
				s.loops++
			}
		}
	}

	for _, b := range f.Blocks() {
		for _, insn := range b.Instructions() {
			s.instructions++
			s.kinds[insn.Kind()]++
			if insn.Kind() != cfg.KindBinary {
				continue
			}
			switch insn.Op() {
			case "+", "-":
				s.addSub++
			case "*", "/":
				s.mulDiv++
			}
		}
	}
	return
}

func (s shape) String() string {
	var kinds []string
	for k, n := range s.kinds {
		if n > 0 {
			kinds = append(kinds, fmt.Sprintf("%s: %d", cfg.Kind(k), n))
		}
	}

	return fmt.Sprintf("Arguments: %d, blocks: %d, loops: %d, instructions: %d\n", s.params, s.blocks, s.loops, s.instructions) +
		fmt.Sprintf("Add/sub: %d, mul/div: %d, branches (cond): %d, branches (uncond): %d\n",
			s.addSub, s.mulDiv, s.kinds[cfg.KindCondBranch], s.kinds[cfg.KindBranch]) +
		"Kinds: " + strings.Join(kinds, ", ") + "\n"
}

// gatherMetrics summarizes the shape and solver statistics of every
// function and the totals per analysis.
func gatherMetrics(w io.Writer, reports *immutable.SortedMap[string, report]) {
	if reports.Len() == 0 {
		return
	}

	type total struct {
		runs, failures  int
		rounds, updates int
		unsupported     int
		duration        time.Duration
	}
	totals := map[string]*total{}
	var order []string

	msg := "================ Results =====================\n\n"

	for itr := reports.Iterator(); !itr.Done(); {
		name, r, _ := itr.Next()
		msg += "Function: " + name + "\n"
		msg += r.shape.String()

		for i, s := range r.stats {
			t, ok := totals[s.name]
			if !ok {
				t = &total{}
				totals[s.name] = t
				order = append(order, s.name)
			}
			t.runs++
			t.rounds += s.Rounds
			t.updates += s.Updates
			t.unsupported += s.Unsupported
			t.duration += s.Duration

			msg += fmt.Sprintf("  %-10s rounds: %d, updates: %d, extractions: %d, domain: %d, unsupported: %d, time: %s",
				s.name, s.Rounds, s.Updates, s.Extractions, s.DomainSize, s.Unsupported, s.Duration)
			// Only the last analysis of a function can have failed.
			if r.err != nil && i == len(r.stats)-1 {
				t.failures++
				msg += " (failed)"
			}
			msg += "\n"
		}
		if r.err != nil {
			msg += "Error: " + r.err.Error() + "\n"
		}
		msg += "\n"
	}

	msg += "Totals:\n"
	for _, name := range order {
		t := totals[name]
		msg += fmt.Sprintf("  %-10s functions: %d, failed: %d, rounds: %d, updates: %d, unsupported: %d, time: %s\n",
			name, t.runs, t.failures, t.rounds, t.updates, t.unsupported, t.duration)
	}
	msg += "================ Results ====================="
	fmt.Fprintln(w, msg)
}
