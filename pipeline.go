package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/benbjohnson/immutable"

	"github.com/cs-au-dk/dfa/analysis/available"
	"github.com/cs-au-dk/dfa/analysis/cfg"
	"github.com/cs-au-dk/dfa/analysis/dataflow"
	"github.com/cs-au-dk/dfa/analysis/dominators"
	"github.com/cs-au-dk/dfa/analysis/livevars"
	"github.com/cs-au-dk/dfa/analysis/reaching"
	"github.com/cs-au-dk/dfa/analysis/webs"
	"github.com/cs-au-dk/dfa/utils"
	"github.com/cs-au-dk/dfa/utils/dot"
	"github.com/cs-au-dk/dfa/utils/worklist"
)

var (
	errUnknownAnalysis = errors.New("unknown analysis")
	errPanic           = errors.New("analysis panicked")
)

type outputMode int

const (
	// Print the GEN, KILL, IN and OUT sets of every block.
	modeFacts outputMode = iota
	// Print the def-use webs computed from reaching definitions.
	modeWebs
	// Build a dot graph of the CFG annotated with IN and OUT sets.
	modeDot
)

// pipeline analyses functions independently of each other, in parallel.
type pipeline struct {
	// analyses are run on every function, in order.
	analyses []string
	mode     outputMode
	dopts    dataflow.Options
	// killing selects the reaching definitions variant that accounts
	// for redefinitions.
	killing bool
	colors  bool
	workers int
}

// solver is the part of a dataflow analysis the pipeline needs, regardless
// of the element type.
type solver interface {
	Run() error
	Dump(io.Writer) error
	Print(io.Writer) error
	Sets(cfg.Block) (in, out string)
	Stats() dataflow.Stats
}

type analysisStats struct {
	name string
	dataflow.Stats
}

// report is the outcome of analysing a single function.
type report struct {
	fun    string
	output string
	graph  *dot.DotGraph
	// tree is the dominator tree, when rendering dominators.
	tree  *dot.DotGraph
	stats []analysisStats
	shape shape
	err   error
}

func (p pipeline) solver(name string, f cfg.Function) (solver, error) {
	switch name {
	case "available":
		return available.New(f, p.dopts), nil
	case "reaching":
		if p.killing {
			return reaching.NewKilling(f, p.dopts), nil
		}
		return reaching.New(f, p.dopts), nil
	case "liveness":
		return livevars.New(f, p.dopts), nil
	case "dominators":
		return dominators.New(f, p.dopts), nil
	}
	return nil, fmt.Errorf("%w: %q", errUnknownAnalysis, name)
}

// analyse runs every analysis of the pipeline on f. Failures, including
// panics, only abort the analysis of f.
func (p pipeline) analyse(f cfg.Function) (r report) {
	r.fun = f.Name()

	defer func() {
		if err := recover(); err != nil {
			r.err = fmt.Errorf("%w on %s: %v", errPanic, r.fun, err)
		}
	}()

	r.shape = measure(f)

	var buf bytes.Buffer
	for _, name := range p.analyses {
		s, err := p.solver(name, f)
		if err != nil {
			r.err = err
			return
		}

		err = s.Run()
		r.stats = append(r.stats, analysisStats{name, s.Stats()})
		if err != nil {
			r.err = err
			return
		}

		if d, ok := s.(dominators.Analysis); ok {
			if err := d.Verify(); err != nil {
				r.err = err
				return
			}
		}

		switch p.mode {
		case modeWebs:
			if a, ok := s.(reaching.Analysis); ok {
				if err := webs.Fprint(&buf, webs.Compute(a)); err != nil {
					r.err = err
					return
				}
			}
		case modeDot:
			r.graph = cfg.ToDotGraph(f, func(b cfg.Block) string {
				in, out := s.Sets(b)
				return fmt.Sprintf("%s in:  %s\n%s out: %s\n", name, in, name, out)
			})
			if d, ok := s.(dominators.Analysis); ok {
				r.tree = d.TreeDot()
			}
		default:
			if len(p.analyses) > 1 {
				header := "# " + name
				if p.colors {
					header = utils.StatString(header)
				}
				fmt.Fprintln(&buf, header)
			}
			if p.colors {
				err = s.Print(&buf)
			} else {
				err = s.Dump(&buf)
			}
			if err != nil {
				r.err = err
				return
			}
		}
	}

	r.output = buf.String()
	return
}

// run analyses every function on a pool of workers. Reports are ordered
// by function name.
func (p pipeline) run(funs []cfg.Function) *immutable.SortedMap[string, report] {
	W := worklist.Of(funs...)

	workers := p.workers
	if workers < 1 {
		workers = 1
	}

	results := make(chan report)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				f, ok := W.TryNextConc()
				if !ok {
					return
				}

				start := time.Now()
				r := p.analyse(f)
				opts.OnVerbose(func() {
					log.Printf("Analysed %s in %s", r.fun, time.Since(start))
				})
				results <- r
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	reports := immutable.NewSortedMap[string, report](utils.StringComparer{})
	for r := range results {
		name := r.fun
		// Functions of an IR file may share a name.
		for i := 2; ; i++ {
			if _, seen := reports.Get(name); !seen {
				break
			}
			name = fmt.Sprintf("%s#%d", r.fun, i)
		}
		reports = reports.Set(name, r)
	}
	return reports
}

// write prints the reports in order. Failed functions are listed with
// their error. It returns the number of failures.
func (p pipeline) write(w io.Writer, reports *immutable.SortedMap[string, report]) (failures int, err error) {
	funC, errC := fmt.Sprint, func(err error) string { return err.Error() }
	if p.colors {
		funC = func(is ...interface{}) string { return utils.FunString(fmt.Sprint(is...)) }
		errC = utils.ErrString
	}

	for itr := reports.Iterator(); !itr.Done(); {
		name, r, _ := itr.Next()

		if _, err = fmt.Fprintf(w, "func %s\n", funC(name)); err != nil {
			return
		}
		if r.err != nil {
			failures++
			if _, err = fmt.Fprintf(w, "error: %s\n", errC(r.err)); err != nil {
				return
			}
			continue
		}
		if _, err = io.WriteString(w, r.output); err != nil {
			return
		}
	}
	return
}
