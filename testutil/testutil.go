package testutil

import (
	"bytes"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/exp/slices"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"

	"github.com/cs-au-dk/dfa/analysis/cfg/ssacfg"
	"github.com/cs-au-dk/dfa/analysis/cfg/textcfg"
	"github.com/cs-au-dk/dfa/pkgutil"
)

// LoadResult contains the SSA representation of a loaded Go program.
type LoadResult struct {
	// MainPkg is the package focused by the test.
	MainPkg *packages.Package
	// Prog is the SSA representation of the entire program.
	Prog *ssa.Program
	// Pkg is the SSA package of MainPkg.
	Pkg *ssa.Package
}

// Function wraps the package-level function with the given name. The test
// fails if there is no such function.
func (res LoadResult) Function(t *testing.T, name string) *ssacfg.Function {
	t.Helper()
	fn := res.Pkg.Func(name)
	if fn == nil {
		t.Fatalf("No function %s in %s", name, res.Pkg.Pkg.Path())
	}
	return ssacfg.New(fn)
}

// Functions wraps every function with a body in the local packages of the
// program, ordered by name.
func (res LoadResult) Functions() []*ssacfg.Function {
	var fs []*ssacfg.Function
	prog := pkgutil.Program{Prog: res.Prog, Pkgs: []*ssa.Package{res.Pkg}}
	for _, fn := range prog.Functions(pkgutil.FunctionFilter{Local: true}) {
		fs = append(fs, ssacfg.New(fn))
	}
	return fs
}

// LoadExampleAsPackages loads an example package to be used for a test.
func LoadExampleAsPackages(t *testing.T, pathToRoot string, pkg string) []*packages.Package {
	// Invoking the package tools is slow because it uses `go list` under the hood.
	// If the package doesn't have imports we can take a fast path by loading the
	// code manually and parsing it ourselves.
	srcDir := filepath.Join(pathToRoot, "examples", "src", pkg)
	if entries, err := os.ReadDir(srcDir); err == nil {
		if len(entries) == 1 {
			entry := entries[0]
			if !entry.IsDir() && entry.Name() == "main.go" {
				if content, err := os.ReadFile(filepath.Join(srcDir, "main.go")); err == nil &&
					// Assert no imports
					!bytes.Contains(content, []byte("import")) {
					return LoadSourceAsPackages(t, pkg, string(content))
				}
			}
		}
	}

	pkgs, err := pkgutil.LoadPackages(pkgutil.LoadConfig{GoPath: filepath.Join(pathToRoot, "examples")}, pkg)
	if err != nil {
		t.Fatal(err)
	}

	if len(pkgs) != 1 {
		t.Fatal("Example contains more than just a main package?")
	}
	return pkgs
}

func LoadExamplePackage(t *testing.T, pathToRoot string, pkg string) LoadResult {
	return LoadResultFromPackages(t, LoadExampleAsPackages(t, pathToRoot, pkg))
}

func LoadResultFromPackages(t *testing.T, pkgs []*packages.Package) (res LoadResult) {
	res.MainPkg = pkgs[0]

	prog := pkgutil.Build(pkgs)
	res.Prog = prog.Prog
	if res.Pkg = prog.Pkgs[0]; res.Pkg == nil {
		t.Fatalf("Failed to build SSA for %s", res.MainPkg.PkgPath)
	}
	return
}

func LoadSourceAsPackages(t *testing.T, importPath string, content string) []*packages.Package {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(
		fset,
		"main.go",
		content,
		parser.ParseComments)
	if err != nil {
		t.Fatal(err)
	}

	files := []*ast.File{file}

	// First argument is package path, the second is name.
	pkg := types.NewPackage(importPath, "main")
	info := &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Implicits:  make(map[ast.Node]types.Object),
		Instances:  make(map[*ast.Ident]types.Instance),
		Scopes:     make(map[ast.Node]*types.Scope),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
	}
	if err := types.NewChecker(
		&types.Config{Importer: importer.Default()},
		fset, pkg, info).Files(files); err != nil {
		t.Fatal(err)
	}

	// If the package does not have imports we can take a fast path.
	if len(pkg.Imports()) == 0 {
		return []*packages.Package{{
			ID:        "pkg-loaded-from-src",
			Name:      pkg.Name(),
			PkgPath:   pkg.Path(),
			Types:     pkg,
			Fset:      fset,
			Syntax:    files,
			TypesInfo: info,
		}}
	}

	// Otherwise we need to invoke the packages tool that can import code for
	// dependencies. It is a lot slower than the above because it needs to
	// invoke the go tool in a subprocess.
	pkgs, err := pkgutil.LoadPackagesFromSource(content)
	if err != nil {
		t.Fatal(err)
	}
	return pkgs
}

// LoadPackageFromSource builds the SSA form of a main package given as source.
func LoadPackageFromSource(t *testing.T, importPath string, content string) LoadResult {
	return LoadResultFromPackages(t, LoadSourceAsPackages(t, importPath, content))
}

// ParseIR parses a single textual IR function.
func ParseIR(t *testing.T, src string) *textcfg.Function {
	t.Helper()
	f, err := textcfg.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

// ListPackagesIn lists the example packages in bmDir that are not blacklisted,
// recursively descending into directories that do not contain Go files.
func ListPackagesIn(t *testing.T, pathToRoot string, blacklist []string, bmDir string) []string {
	path := filepath.Join(pathToRoot, "examples", "src")

	packages := []string{}

	var processDir func(string)
	processDir = func(dir string) {
		entries, err := os.ReadDir(filepath.Join(path, dir))
		if err != nil {
			t.Fatal(err)
		}

		isPkg := false
		for _, entry := range entries {
			if !entry.IsDir() && filepath.Ext(entry.Name()) == ".go" {
				isPkg = true
			}
		}
		if isPkg {
			packages = append(packages, dir)
			return
		}

		for _, entry := range entries {
			if entry.IsDir() && !slices.Contains(blacklist, entry.Name()) {
				processDir(filepath.Join(dir, entry.Name()))
			}
		}
	}

	processDir(bmDir)

	return packages
}
