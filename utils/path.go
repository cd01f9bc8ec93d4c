package utils

import (
	"errors"
	"flag"
)

var ErrNoTarget = errors.New("no package or IR file given")

// MakePath returns the target of the analysis: the first non-flag argument,
// which is either a Go package pattern or, with -ir, a file in the textual IR.
func MakePath() (string, error) {
	args := flag.Args()
	if len(args) == 0 {
		return "", ErrNoTarget
	}
	return args[0], nil
}
