package pkgutil

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

var errLoad = errors.New("errors encountered while loading packages")

// LoadConfig selects how packages are found. With a ModulePath, packages
// are loaded from that module (GO111MODULE=on); otherwise from GoPath.
// IncludeTests also loads the test files of the matched packages.
type LoadConfig struct {
	GoPath, ModulePath string
	IncludeTests       bool
}

// Everything up to type-checked syntax of all dependencies, since SSA is
// built for the whole program.
const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
	packages.NeedImports | packages.NeedDeps | packages.NeedTypes | packages.NeedTypesSizes |
	packages.NeedSyntax | packages.NeedTypesInfo

var moduleDecl = regexp.MustCompile(`(?m)^module\s+\S+`)

// parseRelative parses files under their path relative to the working
// directory, so that positions in block names and facts are stable
// across checkouts.
var parseRelative = func() func(*token.FileSet, string, []byte) (*ast.File, error) {
	wd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return func(fset *token.FileSet, filename string, src []byte) (*ast.File, error) {
		if rel, err := filepath.Rel(wd, filename); err == nil {
			filename = rel
		}
		return parser.ParseFile(fset, filename, src, parser.AllErrors|parser.ParseComments)
	}
}()

func (cfg LoadConfig) packagesConfig() (*packages.Config, error) {
	gopath, err := filepath.Abs(cfg.GoPath)
	if err != nil {
		return nil, err
	}

	config := &packages.Config{
		Mode:      loadMode,
		Tests:     cfg.IncludeTests,
		ParseFile: parseRelative,
	}
	if cfg.ModulePath == "" {
		config.Env = append(os.Environ(), "GOPATH="+gopath, "GO111MODULE=off")
		return config, nil
	}

	dir, err := filepath.Abs(cfg.ModulePath)
	if err != nil {
		return nil, err
	}
	gomod, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return nil, fmt.Errorf("no go.mod in %s: %w", cfg.ModulePath, err)
	}
	if !moduleDecl.Match(gomod) {
		return nil, fmt.Errorf("%s: go.mod declares no module", cfg.ModulePath)
	}

	config.Dir = dir
	config.Env = append(os.Environ(), "GOPATH="+gopath, "GO111MODULE=on")
	return config, nil
}

// LoadPackages type-checks the packages matching query.
func LoadPackages(cfg LoadConfig, query string) ([]*packages.Package, error) {
	config, err := cfg.packagesConfig()
	if err != nil {
		return nil, err
	}
	return load(config, query)
}

// LoadPackagesFromSource type-checks a main package given as source text.
// Unlike testutil, it supports imports, at the cost of running go list.
func LoadPackagesFromSource(source string) ([]*packages.Package, error) {
	const file = "/fake/testpackage/main.go"
	return load(&packages.Config{
		Mode:    loadMode,
		Env:     append(os.Environ(), "GO111MODULE=off", "GOPATH=/fake"),
		Overlay: map[string][]byte{file: []byte(source)},
	}, file)
}

func load(config *packages.Config, query string) ([]*packages.Package, error) {
	pkgs, err := packages.Load(config, query)
	if err != nil {
		return nil, err
	}
	if packages.PrintErrors(pkgs) > 0 {
		return nil, errLoad
	}
	if !config.Tests {
		return pkgs, nil
	}

	// A package with test files is listed twice, as "p" and "p [p.test]".
	// Only the variant with tests is kept, or every function would appear
	// twice.
	ids := make(map[string]bool, len(pkgs))
	for _, pkg := range pkgs {
		ids[pkg.ID] = true
	}
	kept := pkgs[:0]
	for _, pkg := range pkgs {
		if !ids[fmt.Sprintf("%s [%s.test]", pkg.ID, pkg.ID)] {
			kept = append(kept, pkg)
		}
	}
	return kept, nil
}

// Program is the SSA form of loaded packages and all their dependencies.
type Program struct {
	Prog *ssa.Program
	// Pkgs correspond to the loaded packages, index by index.
	Pkgs []*ssa.Package
}

// Build constructs the SSA form of pkgs.
func Build(pkgs []*packages.Package) Program {
	prog, ssaPkgs := ssautil.AllPackages(pkgs, ssa.SanityCheckFunctions)
	prog.Build()
	return Program{prog, ssaPkgs}
}

// Load loads the packages matching query and builds their SSA form.
func Load(cfg LoadConfig, query string) (Program, error) {
	pkgs, err := LoadPackages(cfg, query)
	if err != nil {
		return Program{}, err
	}
	return Build(pkgs), nil
}
