package pkgutil

import (
	"errors"
	"go/types"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/cs-au-dk/dfa/utils"
)

var errNoMain = errors.New("no main package")

func inGoroot(pkg *types.Package) bool {
	fi, err := os.Stat(filepath.Join(runtime.GOROOT(), "src", pkg.Path()))
	return err == nil && fi.IsDir()
}

// CheckInGoroot holds if the function is declared in a standard library
// package.
func CheckInGoroot(fun *ssa.Function) bool {
	return fun != nil && fun.Pkg != nil && inGoroot(fun.Pkg.Pkg)
}

func pathSegments(pkg *ssa.Package) []string {
	path := strings.Split(strings.TrimSuffix(pkg.Pkg.Path(), ".test"), "/")
	if path[0] == "vendor" {
		path = path[1:]
	}
	return path
}

// LocalPackages collects the packages outside GOROOT whose import paths
// agree with the main package on the first three segments. Of several
// main packages, the largest one that is not a test main is used.
func LocalPackages(prog *ssa.Program) (map[*ssa.Package]bool, error) {
	mains := ssautil.MainPackages(prog.AllPackages())
	if len(mains) == 0 {
		return nil, errNoMain
	}

	main := mains[0]
	for _, mp := range mains {
		if strings.HasSuffix(mp.String(), ".test") {
			continue
		}
		if strings.HasSuffix(main.String(), ".test") || len(main.Members) < len(mp.Members) {
			main = mp
		}
	}
	prefix := pathSegments(main)

	local := make(map[*ssa.Package]bool)
	for _, pkg := range prog.AllPackages() {
		if inGoroot(pkg.Pkg) {
			continue
		}
		path := pathSegments(pkg)
		shared := 0
		for shared < 3 && shared < len(prefix) && shared < len(path) && prefix[shared] == path[shared] {
			shared++
		}
		if shared == 3 || shared == len(prefix) || shared == len(path) {
			local[pkg] = true
		}
	}

	utils.Opts().OnVerbose(func() {
		log.Println("Main package:", main.Pkg.Path())
		for pkg := range local {
			log.Println("Local package:", utils.SSAPkgString(pkg))
		}
	})
	return local, nil
}
