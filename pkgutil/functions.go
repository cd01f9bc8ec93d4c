package pkgutil

import (
	"go/types"
	"strings"

	"golang.org/x/exp/slices"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// FunctionFilter selects the functions to analyse.
type FunctionFilter struct {
	// Name is a function name, qualified or not. Empty or "." selects every function.
	Name string
	// Local searches every local package of the program instead of the
	// loaded packages.
	Local bool
	// Tests only selects the Test functions of the searched packages.
	Tests bool
}

func (ff FunctionFilter) matches(fun *ssa.Function) bool {
	switch ff.Name {
	case "", ".":
		return true
	}
	return fun.Name() == ff.Name || fun.String() == ff.Name || fun.RelString(nil) == ff.Name
}

// isTest recognizes test entry points, func TestXxx(*testing.T).
func isTest(fun *ssa.Function, tPtr types.Type) bool {
	return tPtr != nil && fun.Parent() == nil && strings.HasPrefix(fun.Name(), "Test") &&
		len(fun.Params) == 1 && types.Identical(fun.Params[0].Type(), tPtr)
}

// searched decides which packages are searched for functions.
func (p Program) searched(ff FunctionFilter) func(*ssa.Function) bool {
	if !ff.Local {
		selected := make(map[*ssa.Package]bool, len(p.Pkgs))
		for _, pkg := range p.Pkgs {
			if pkg != nil {
				selected[pkg] = true
			}
		}
		return func(fun *ssa.Function) bool { return selected[fun.Pkg] }
	}

	if local, err := LocalPackages(p.Prog); err == nil {
		return func(fun *ssa.Function) bool { return local[fun.Pkg] }
	}
	// Without a main package, everything outside GOROOT is searched.
	return func(fun *ssa.Function) bool { return fun.Pkg != nil && !CheckInGoroot(fun) }
}

// Functions lists the functions with bodies declared in the searched
// packages, including anonymous functions and methods, ordered by their
// qualified names.
func (p Program) Functions(ff FunctionFilter) []*ssa.Function {
	inPkgs := p.searched(ff)

	var tPtr types.Type
	if testingPkg := p.Prog.ImportedPackage("testing"); testingPkg != nil {
		tPtr = types.NewPointer(testingPkg.Type("T").Type())
	}

	var res []*ssa.Function
	for fun := range ssautil.AllFunctions(p.Prog) {
		// Synthetic wrappers and functions without bodies are not analysed.
		if fun.Blocks == nil || fun.Synthetic != "" || !inPkgs(fun) {
			continue
		}
		if ff.Tests && !isTest(fun, tPtr) {
			continue
		}
		if ff.matches(fun) {
			res = append(res, fun)
		}
	}

	slices.SortFunc(res, func(a, b *ssa.Function) bool {
		return a.String() < b.String()
	})
	return res
}
