package utils

import (
	"fmt"

	"github.com/fatih/color"

	"golang.org/x/tools/go/ssa"
)

var pkgColor = func(is ...interface{}) string {
	return CanColorize(color.New(color.FgBlue).SprintFunc())(is...)
}
var funColor = func(is ...interface{}) string {
	return CanColorize(color.New(color.FgHiYellow).SprintFunc())(is...)
}
var errColor = func(is ...interface{}) string {
	return CanColorize(color.New(color.FgHiRed).SprintFunc())(is...)
}
var statColor = func(is ...interface{}) string {
	return CanColorize(color.New(color.FgHiWhite, color.Faint).SprintFunc())(is...)
}

func SSAPkgString(pkg *ssa.Package) string {
	if pkg != nil {
		return pkgColor(pkg.Pkg.Path())
	}
	return pkgColor("<synthetic>")
}

// FunString renders the name of an analysed function.
func FunString(name string) string {
	return funColor(name)
}

func ErrString(err error) string {
	return errColor(err.Error())
}

func StatString(format string, a ...interface{}) string {
	return statColor(fmt.Sprintf(format, a...))
}
