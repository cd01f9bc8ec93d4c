package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/benbjohnson/immutable"

	"github.com/cs-au-dk/dfa/analysis/cfg"
	"github.com/cs-au-dk/dfa/analysis/cfg/ssacfg"
	"github.com/cs-au-dk/dfa/analysis/cfg/textcfg"
	"github.com/cs-au-dk/dfa/analysis/dataflow"
	"github.com/cs-au-dk/dfa/pkgutil"
	"github.com/cs-au-dk/dfa/utils"
	"github.com/cs-au-dk/dfa/utils/dot"
)

var (
	opts = utils.Opts()
	task = opts.Task()
)

func main() {
	utils.ParseArgs()
	path, err := utils.MakePath()
	if err != nil {
		fmt.Fprintln(os.Stderr, "usage: dfa [flags] <package | file.ir>")
		log.Fatalln(err)
	}

	order, err := dataflow.ParseOrder(opts.Order())
	if err != nil {
		log.Fatalln(err)
	}

	if opts.Metrics() {
		defer utils.TimeTrack(time.Now(), "Analysis")
	}

	var funs []cfg.Function
	if opts.IR() {
		funs, err = loadIR(path, opts.Function())
	} else {
		funs, err = loadGo(path)
	}
	if err != nil {
		log.Println("Failed to load", path)
		log.Fatalln(err)
	}
	if len(funs) == 0 {
		log.Println("No functions matching", opts.Function())
		return
	}
	log.Printf("Analysing %d function(s) with %s", len(funs), strings.Join(task.Analyses(), ", "))

	p := pipeline{
		analyses: task.Analyses(),
		dopts: dataflow.Options{
			Order:     order,
			MaxRounds: opts.MaxRounds(),
			MaxDomain: opts.MaxDomain(),
			Strict:    opts.Strict(),
		},
		killing: opts.KillRedefinitions(),
		colors:  !opts.NoColorize(),
		workers: opts.Workers(),
	}
	switch {
	case task.IsWebs():
		p.mode = modeWebs
	case task.IsCfgToDot():
		p.mode = modeDot
	}

	reports := p.run(funs)

	if p.mode == modeDot {
		exportGraphs(reports)
	}

	failures, err := p.write(os.Stdout, reports)
	if err != nil {
		log.Fatalln(err)
	}
	if opts.Metrics() {
		gatherMetrics(os.Stdout, reports)
	}
	if failures > 0 {
		log.Printf("%d of %d function(s) could not be analysed", failures, reports.Len())
	}
}

// loadIR parses the functions of a textual IR file, keeping those
// selected by name.
func loadIR(path, name string) ([]cfg.Function, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fs, err := textcfg.ParseFile(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return selectIR(fs, name), nil
}

func selectIR(fs []*textcfg.Function, name string) (res []cfg.Function) {
	for _, f := range fs {
		if name == "" || name == "." || f.Name() == name {
			res = append(res, f)
		}
	}
	return
}

// loadGo loads the packages matching the query, and wraps the selected
// functions of the matched packages, or of all local packages with
// -local-pkgs.
func loadGo(query string) ([]cfg.Function, error) {
	prog, err := pkgutil.Load(pkgutil.LoadConfig{
		GoPath:       opts.GoPath(),
		ModulePath:   opts.ModulePath(),
		IncludeTests: opts.IncludeTests(),
	}, query)
	if err != nil {
		return nil, err
	}

	opts.OnVerbose(func() {
		for _, pkg := range prog.Pkgs {
			if pkg != nil {
				log.Println("Loaded package", utils.SSAPkgString(pkg))
			}
		}
	})

	var funs []cfg.Function
	for _, fn := range prog.Functions(pkgutil.FunctionFilter{
		Name:  opts.Function(),
		Local: opts.LocalPackages(),
		Tests: opts.TestsOnly(),
	}) {
		funs = append(funs, ssacfg.New(fn))
	}
	return funs, nil
}

// exportGraphs renders the annotated CFG of every analysed function, and
// its dominator tree if computed.
func exportGraphs(reports *immutable.SortedMap[string, report]) {
	for itr := reports.Iterator(); !itr.Done(); {
		name, r, _ := itr.Next()
		if r.graph != nil {
			exportGraph(name, r.graph)
		}
		if r.tree != nil {
			exportGraph(name+"-domtree", r.tree)
		}
	}
}

func exportGraph(name string, G *dot.DotGraph) {
	if opts.Visualize() {
		G.ShowDot()
		return
	}

	var buf bytes.Buffer
	if err := G.WriteDot(&buf); err != nil {
		log.Println(utils.ErrString(err))
		return
	}
	out := filepath.Join(os.TempDir(), "dfa-"+fileName(name))
	img, err := dot.DotToImage(out, opts.OutputFormat(), buf.Bytes())
	if err != nil {
		log.Println(utils.ErrString(err))
		return
	}
	log.Println("Exported", name, "to", img)
}

// fileName replaces the characters of a qualified function name that
// cannot appear in file names.
func fileName(fun string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '(', ')', '*', ' ', '$', ':', '#':
			return '_'
		}
		return r
	}, fun)
}
