package utils

import (
	"flag"
	"fmt"
	"log"
	"runtime"
	"strings"
)

type options struct {
	minlen        uint
	nodesep       float64
	maxRounds     int
	maxDomain     int
	workers       int
	function      string
	outputFormat  string
	gopath        string
	modulePath    string
	order         string
	config        string
	dotFacts      string
	task          string
	metrics       bool
	noColorize    bool
	verbose       bool
	ir            bool
	strict        bool
	killing       bool
	includeTests  bool
	testsOnly     bool
	localPackages bool
	visualize     bool
}

const (
	_ALL = iota
	_AVAILABLE
	_REACHING
	_LIVENESS
	_DOMINATORS
	_WEBS
	_CFG_TO_DOT
)

func CanColorize(col func(...interface{}) string) func(...interface{}) string {
	if opts.noColorize {
		return func(is ...interface{}) string {
			return fmt.Sprintf(strings.Repeat("%s", len(is)), is...)
		}
	}
	return col
}

var task = []struct{ flag, explanation string }{{
	"all",
	"Run every dataflow analysis and print the facts of every block",
}, {
	"available",
	"Compute available expressions",
}, {
	"reaching",
	"Compute reaching definitions",
}, {
	"liveness",
	"Compute live variables",
}, {
	"dominators",
	"Compute dominators and cross-check them against the dominator tree",
}, {
	"webs",
	"Group definitions and uses into webs, using reaching definitions",
}, {
	"cfg-to-dot",
	"Create a graph for the control-flow graph, annotated with the facts of -dot-facts",
}}

var opts = &options{}

type optInterface struct{}

type taskInterface struct{}

func Opts() optInterface {
	return optInterface{}
}

func (optInterface) NoColorize() bool {
	return opts.noColorize
}
func (optInterface) Minlen() uint {
	return opts.minlen
}
func (optInterface) Nodesep() float64 {
	return opts.nodesep
}
func (optInterface) Function() string {
	return opts.function
}
func (optInterface) OutputFormat() string {
	return opts.outputFormat
}
func (optInterface) GoPath() string {
	return opts.gopath
}
func (optInterface) ModulePath() string {
	return opts.modulePath
}
func (optInterface) Order() string {
	return opts.order
}
func (optInterface) MaxRounds() int {
	return opts.maxRounds
}
func (optInterface) MaxDomain() int {
	return opts.maxDomain
}
func (optInterface) Strict() bool {
	return opts.strict
}
func (optInterface) KillRedefinitions() bool {
	return opts.killing
}
func (optInterface) Workers() int {
	if opts.workers <= 0 {
		return runtime.NumCPU()
	}
	return opts.workers
}
func (optInterface) IR() bool {
	return opts.ir
}
func (optInterface) Task() taskInterface {
	return taskInterface{}
}
func (taskInterface) IsAll() bool {
	return opts.task == task[_ALL].flag
}
func (taskInterface) IsAvailable() bool {
	return opts.task == task[_AVAILABLE].flag
}
func (taskInterface) IsReaching() bool {
	return opts.task == task[_REACHING].flag
}
func (taskInterface) IsLiveness() bool {
	return opts.task == task[_LIVENESS].flag
}
func (taskInterface) IsDominators() bool {
	return opts.task == task[_DOMINATORS].flag
}
func (taskInterface) IsWebs() bool {
	return opts.task == task[_WEBS].flag
}
func (taskInterface) IsCfgToDot() bool {
	return opts.task == task[_CFG_TO_DOT].flag
}

// Analyses lists the dataflow analyses required by the task.
func (t taskInterface) Analyses() []string {
	switch {
	case t.IsAll():
		return []string{task[_AVAILABLE].flag, task[_REACHING].flag, task[_LIVENESS].flag, task[_DOMINATORS].flag}
	case t.IsWebs():
		return []string{task[_REACHING].flag}
	case t.IsCfgToDot():
		return []string{opts.dotFacts}
	}
	return []string{opts.task}
}

func (t taskInterface) String() string {
	return opts.task
}

func (optInterface) Metrics() bool {
	return opts.metrics
}
func (optInterface) Verbose() bool {
	return opts.verbose
}
func (optInterface) IncludeTests() bool {
	return opts.includeTests || opts.testsOnly
}
func (optInterface) TestsOnly() bool {
	return opts.testsOnly
}
func (optInterface) LocalPackages() bool {
	return opts.localPackages
}
func (optInterface) Visualize() bool {
	return opts.visualize
}

func init() {
	taskFlag := "\n"
	for _, task := range task {
		taskFlag += task.flag + " -- " + task.explanation + "\n"
	}
	taskFlag += "\n"

	flag.UintVar(&(opts.minlen), "minlen", 2, "Minimum edge length (for wider output).")
	flag.Float64Var(&(opts.nodesep), "nodesep", 0.35, "Minimum space between two adjacent nodes in the same rank (for taller output).")
	flag.StringVar(&(opts.function), "fun", ".", "target a specific function w. r. t. the given task.\n"+
		"- Function names need not be fully qualified w.r.t. package name. "+
		"A simple name matches every function of that name in the analysed packages.\n"+
		"- Use '.' to analyse all functions in the analysed packages.\n")
	flag.StringVar(&(opts.outputFormat), "format", "svg", "output file format [svg | png | jpg | ...]")
	flag.StringVar(&(opts.gopath), "gopath", "examples", "specify GOPATH to be used for packages.Load")
	flag.StringVar(&(opts.modulePath), "modulepath", "", `specify a path to a directory containing a Go module.
- If provided this will make our code loading tools (that piggyback on Go's tools) run
in "module-aware" mode (GO111MODULE=on).`)
	flag.StringVar(&(opts.task), "task", task[_ALL].flag, "Set the task to do during execution. Options:"+taskFlag)
	flag.StringVar(&(opts.order), "order", "document", "block visitation order of every round [document | rpo]")
	flag.StringVar(&(opts.config), "config", "", "YAML file with default values for the flags that are not given explicitly")
	flag.StringVar(&(opts.dotFacts), "dot-facts", task[_LIVENESS].flag, "analysis whose IN and OUT sets annotate the blocks of -task=cfg-to-dot")
	flag.IntVar(&(opts.maxRounds), "max-rounds", 0, "abort an analysis after this many rounds (0 derives a bound from the size of the function)")
	flag.IntVar(&(opts.maxDomain), "max-domain", 0, "abort an analysis once its domain exceeds this many elements (0 is unbounded)")
	flag.IntVar(&(opts.workers), "workers", 0, "number of functions analysed in parallel (0 uses every CPU)")
	flag.BoolVar(&(opts.ir), "ir", false, "treat the argument as a file in the textual IR instead of a Go package")
	flag.BoolVar(&(opts.strict), "strict", false, "fail as soon as a block's facts move against the direction of the lattice")
	flag.BoolVar(&(opts.killing), "kill-redefs", false, "reaching definitions kill earlier definitions of redefined variables")
	flag.BoolVar(&(opts.metrics), "metrics", false, "Enable collection of performance metrics")
	flag.BoolVar(&(opts.noColorize), "no-colorize", false, "Disable pretty printer colorization")
	flag.BoolVar(&(opts.verbose), "verbose", false, "enable verbose output")
	flag.BoolVar(&(opts.localPackages), "local-pkgs", false, "analyse all local packages, not just the ones matching the query")
	flag.BoolVar(&(opts.includeTests), "include-tests", false, "include main package test files in the analysis.")
	flag.BoolVar(&(opts.testsOnly), "tests", false, "only analyse the Test functions of the packages (implies -include-tests)")
	flag.BoolVar(&(opts.visualize), "visualize", false, "enable visualization via XDot")

	// Set up logging
	log.SetFlags(log.Ltime | log.Lshortfile)
}

func ParseArgs() {
	// Calling flag.Parse in init messes up unit tests.
	// See https://stackoverflow.com/questions/60235896/flag-provided-but-not-defined-test-v
	flag.Parse()

	if opts.config != "" {
		config, err := LoadConfig(opts.config)
		if err != nil {
			log.Fatal(err)
		}

		explicit := map[string]bool{}
		flag.Visit(func(f *flag.Flag) {
			explicit[f.Name] = true
		})
		config.apply(opts, explicit)
	}

	if !validTask(opts.task) {
		log.Fatalf("Value \"%s\" is not valid for -task", opts.task)
	}
	switch opts.dotFacts {
	case task[_AVAILABLE].flag, task[_REACHING].flag, task[_LIVENESS].flag, task[_DOMINATORS].flag:
	default:
		log.Fatalf("Value \"%s\" is not valid for -dot-facts", opts.dotFacts)
	}
	if opts.order != "document" && opts.order != "rpo" {
		log.Fatalf("Value \"%s\" is not valid for -order", opts.order)
	}

	if Opts().Task().IsCfgToDot() {
		opts.noColorize = true
	}
}

func validTask(name string) bool {
	for _, task := range task {
		if task.flag == name {
			return true
		}
	}
	return false
}

func (optInterface) AnalyzeAllFuncs() bool {
	return opts.function == "."
}

func (optInterface) OnVerbose(do func()) {
	if Opts().Verbose() {
		do()
	}
}
