package dataflow

import (
	"fmt"
	"time"

	"golang.org/x/exp/slices"

	"github.com/cs-au-dk/dfa/analysis/cfg"
	L "github.com/cs-au-dk/dfa/analysis/lattice"
)

// State of the fixpoint driver.
type State int

const (
	Uninitialized State = iota
	Running
	Converged
	Failed
)

func (s State) String() string {
	return [...]string{"uninitialized", "running", "converged", "failed"}[s]
}

// Stats summarizes the last run of an analysis.
type Stats struct {
	// Rounds performed by the last run, including the final round without changes.
	Rounds int
	// Updates counts the outward values that changed during the last run.
	Updates int
	// Extractions counts gen/kill cache misses over the lifetime of the analysis.
	Extractions int
	// Unsupported counts instructions that were approximated conservatively.
	Unsupported int
	DomainSize  int
	Duration    time.Duration
}

// Analysis is an instance of a dataflow problem for a single function.
// It owns the domain and the per-block IN, OUT, GEN and KILL sets.
// An Analysis must not be used concurrently.
type Analysis[E comparable] struct {
	problem *Problem[E]
	fun     cfg.Function
	opts    Options

	domain *L.Domain[E]
	x      *Extractor[E]
	state  State
	stats  Stats

	cache map[cfg.Block]*genKill
	in    map[cfg.Block]L.BitVector
	out   map[cfg.Block]L.BitVector
	// order is the fixed block visitation order of every round.
	order []cfg.Block
	// boundary marks blocks whose inward value is the boundary value.
	boundary map[cfg.Block]bool
}

// New creates an analysis of f for the given problem.
func New[E comparable](p Problem[E], f cfg.Function, opts Options) *Analysis[E] {
	a := &Analysis[E]{
		problem: &p,
		fun:     f,
		opts:    opts,
		domain:  L.NewDomain[E](),
		cache:   make(map[cfg.Block]*genKill),
		in:      make(map[cfg.Block]L.BitVector),
		out:     make(map[cfg.Block]L.BitVector),
	}
	a.x = &Extractor[E]{a}

	if p.Setup != nil {
		p.Setup(a.x)
	}
	return a
}

// Run drives the analysis to its fixpoint.
//
// Every block is extracted before the first round, so the domain is
// complete when the initial values are chosen. A converged analysis
// whose gen/kill caches are still valid is not reinitialized: running it
// again performs a single round that changes nothing.
func (a *Analysis[E]) Run() error {
	start := time.Now()
	defer func() {
		a.stats.Duration = time.Since(start)
		a.stats.DomainSize = a.domain.Len()
	}()

	if a.state != Converged || a.stale() {
		if err := a.initialize(); err != nil {
			return a.fail(0, err)
		}
	}

	a.state = Running
	a.stats.Rounds, a.stats.Updates = 0, 0

	for round := 1; ; round++ {
		if max := a.roundCap(); round > max {
			return a.fail(round, fmt.Errorf("%w: no fixpoint after %d rounds", ErrNonMonotonic, max))
		}

		a.stats.Rounds = round
		changed, err := a.round()
		if err != nil {
			return a.fail(round, err)
		}
		if !changed {
			break
		}
	}

	a.state = Converged
	return nil
}

func (a *Analysis[E]) fail(round int, err error) error {
	a.state = Failed
	return &EngineError{
		Analysis: a.problem.Name,
		Function: a.fun.Name(),
		Round:    round,
		Err:      err,
	}
}

// roundCap bounds the number of rounds. Every outward value can change
// at most D times in a monotone framework, so (N+1)·(D+1)+1 rounds
// suffice for N blocks.
func (a *Analysis[E]) roundCap() int {
	if a.opts.MaxRounds > 0 {
		return a.opts.MaxRounds
	}
	return (len(a.fun.Blocks())+1)*(a.domain.Len()+1) + 1
}

func (a *Analysis[E]) stale() bool {
	for _, b := range a.fun.Blocks() {
		if gk, ok := a.cache[b]; !ok || !gk.validFor(b) {
			return true
		}
	}
	return false
}

func (a *Analysis[E]) initialize() error {
	a.state = Running
	blocks := a.fun.Blocks()

	for _, b := range blocks {
		if _, err := a.genKill(b); err != nil {
			return err
		}
	}

	a.order = a.computeOrder()

	entry := cfg.Entry(a.fun)
	a.boundary = make(map[cfg.Block]bool, len(blocks))
	for _, b := range blocks {
		switch a.problem.Direction {
		case Forward:
			a.boundary[b] = b == entry || len(b.Preds()) == 0
		case Backward:
			a.boundary[b] = len(b.Succs()) == 0
		}
	}

	w := a.domain.Len()
	a.in = make(map[cfg.Block]L.BitVector, len(blocks))
	a.out = make(map[cfg.Block]L.BitVector, len(blocks))
	for _, b := range blocks {
		inward := a.problem.identity(w)
		if a.boundary[b] {
			inward = a.problem.boundary(a.domain, b).Resize(w)
		}
		a.set(b, inward, a.problem.identity(w))
	}

	return nil
}

// round visits every block once. It reports whether any outward value changed.
func (a *Analysis[E]) round() (changed bool, err error) {
	w := a.domain.Len()

	for _, b := range a.order {
		var inward L.BitVector
		if a.boundary[b] {
			inward = a.problem.boundary(a.domain, b).Resize(w)
		} else {
			inward = a.problem.identity(w)
			for _, n := range a.problem.neighbours(b) {
				a.problem.meetWith(inward, a.outwardOf(n))
			}
		}

		gk := a.cache[b]
		outward := a.problem.transfer(inward, gk.gen, gk.kill)

		if old := a.outwardOf(b); !outward.Eq(old) {
			if a.opts.Strict && !a.descends(old, outward) {
				return false, fmt.Errorf("%w: block %s moved from %v to %v",
					ErrNonMonotonic, b.Name(), old, outward)
			}
			changed = true
			a.stats.Updates++
		}

		a.set(b, inward, outward)
	}

	return
}

// descends checks that the update from old to new moves away from the
// initial value: down for intersection problems, up for union problems.
func (a *Analysis[E]) descends(old, new L.BitVector) bool {
	if a.problem.Meet == Intersection {
		return new.Leq(old)
	}
	return old.Leq(new)
}

func (a *Analysis[E]) outwardOf(b cfg.Block) L.BitVector {
	if a.problem.Direction == Forward {
		return a.out[b]
	}
	return a.in[b]
}

func (a *Analysis[E]) set(b cfg.Block, inward, outward L.BitVector) {
	if a.problem.Direction == Forward {
		a.in[b], a.out[b] = inward, outward
	} else {
		a.out[b], a.in[b] = inward, outward
	}
}

func (a *Analysis[E]) genKill(b cfg.Block) (*genKill, error) {
	if gk, ok := a.cache[b]; ok && gk.validFor(b) {
		return gk, nil
	}

	gen, kill := a.problem.Extract(a.x, b)
	gk := &genKill{
		gen:    gen,
		kill:   kill,
		instrs: slices.Clone(b.Instructions()),
	}
	a.cache[b] = gk
	a.stats.Extractions++

	if max := a.opts.MaxDomain; max > 0 && a.domain.Len() > max {
		return nil, fmt.Errorf("%w: %d elements exceed the maximum of %d", ErrDomainOverflow, a.domain.Len(), max)
	}
	return gk, nil
}

// GenKill retrieves the cached GEN and KILL sets of b, extracting them
// if the cache entry is missing or stale. A re-extraction resets the
// solution of the analysis.
func (a *Analysis[E]) GenKill(b cfg.Block) (gen, kill L.BitVector, err error) {
	if gk, ok := a.cache[b]; !ok || !gk.validFor(b) {
		a.reset()
	}

	gk, err := a.genKill(b)
	if err != nil {
		return
	}
	return gk.gen.Clone(), gk.kill.Clone(), nil
}

// Invalidate drops the cached GEN and KILL sets of b, e. g. after a
// transformation rewrote the block, and resets the solution.
func (a *Analysis[E]) Invalidate(b cfg.Block) {
	delete(a.cache, b)
	a.reset()
}

func (a *Analysis[E]) reset() {
	if a.state != Uninitialized {
		a.state = Uninitialized
		a.in = make(map[cfg.Block]L.BitVector)
		a.out = make(map[cfg.Block]L.BitVector)
	}
}

// Transfer applies the transfer function of b to s.
func (a *Analysis[E]) Transfer(b cfg.Block, s L.BitVector) (L.BitVector, error) {
	gk, err := a.genKill(b)
	if err != nil {
		return L.BitVector{}, err
	}
	return a.problem.transfer(s.Clone().Resize(a.domain.Len()), gk.gen, gk.kill), nil
}

func (a *Analysis[E]) get(m map[cfg.Block]L.BitVector, b cfg.Block) L.BitVector {
	if bv, ok := m[b]; ok {
		return bv.Clone()
	}
	return L.Empty(a.domain.Len())
}

// In retrieves a copy of the IN set of b.
func (a *Analysis[E]) In(b cfg.Block) L.BitVector {
	return a.get(a.in, b)
}

// Out retrieves a copy of the OUT set of b.
func (a *Analysis[E]) Out(b cfg.Block) L.BitVector {
	return a.get(a.out, b)
}

// Gen retrieves a copy of the cached GEN set of b.
func (a *Analysis[E]) Gen(b cfg.Block) L.BitVector {
	if gk, ok := a.cache[b]; ok {
		return gk.gen.Clone()
	}
	return L.Empty(a.domain.Len())
}

// Kill retrieves a copy of the cached KILL set of b.
func (a *Analysis[E]) Kill(b cfg.Block) L.BitVector {
	if gk, ok := a.cache[b]; ok {
		return gk.kill.Clone()
	}
	return L.Empty(a.domain.Len())
}

func (a *Analysis[E]) Domain() *L.Domain[E] {
	return a.domain
}

func (a *Analysis[E]) Function() cfg.Function {
	return a.fun
}

func (a *Analysis[E]) Problem() *Problem[E] {
	return a.problem
}

func (a *Analysis[E]) State() State {
	return a.state
}

func (a *Analysis[E]) Stats() Stats {
	return a.stats
}

// Order retrieves the visitation order of the last initialization.
func (a *Analysis[E]) Order() []cfg.Block {
	return a.order
}
