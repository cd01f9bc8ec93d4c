package dataflow

import (
	"errors"
	"fmt"
)

var (
	// ErrNonMonotonic is reported when the solver fails to converge within
	// its round cap, or, in strict mode, when an outward value moves
	// against the direction of the lattice. Either indicates a faulty
	// transfer or meet function.
	ErrNonMonotonic = errors.New("non-monotonic transfer")
	// ErrDomainOverflow is reported when the domain grows beyond the
	// configured maximum. Elements are never truncated.
	ErrDomainOverflow = errors.New("domain overflow")
	// ErrNotConverged is reported when snapshotting or dumping an analysis
	// that has not been run, has failed, or was invalidated since.
	ErrNotConverged = errors.New("analysis has not converged")
)

// EngineError is an internal fault that aborted an analysis of a function.
type EngineError struct {
	Analysis string
	Function string
	Round    int
	Err      error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s analysis of %s failed in round %d: %v", e.Analysis, e.Function, e.Round, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}
