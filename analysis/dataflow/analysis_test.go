package dataflow

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/cs-au-dk/dfa/analysis/cfg"
	"github.com/cs-au-dk/dfa/analysis/cfg/textcfg"
	L "github.com/cs-au-dk/dfa/analysis/lattice"
	"github.com/cs-au-dk/dfa/utils/set"
)

const loop = `
func loop
entry:
  %i = 0
  %n = 10
  br head
head:
  %c = %i < %n
  br %c, body, exit
body:
  %t = %i * 2
  %i = %i + 1
  br head
exit:
  ret %t
`

func names(vs []cfg.Value) []string {
	res := make([]string, 0, len(vs))
	for _, v := range vs {
		res = append(res, v.Name())
	}
	return res
}

func assertNames(t *testing.T, what string, found []cfg.Value, expected ...string) {
	t.Helper()
	strs := names(found)
	if len(strs) != len(expected) {
		t.Errorf("%s: expected %v, found %v", what, expected, strs)
		return
	}
	for i := range strs {
		if strs[i] != expected[i] {
			t.Errorf("%s: expected %v, found %v", what, expected, strs)
			return
		}
	}
}

func run[E comparable](t *testing.T, p Problem[E], f cfg.Function, opts Options) *Analysis[E] {
	t.Helper()
	a := New(p, f, opts)
	if err := a.Run(); err != nil {
		t.Fatal(err)
	}
	return a
}

func TestForwardMust(t *testing.T) {
	f := textcfg.MustParse(loop)
	a := New(assigned(), f, Options{})

	if a.State() != Uninitialized {
		t.Errorf("Expected a fresh analysis to be uninitialized, found %v", a.State())
	}
	if err := a.Run(); err != nil {
		t.Fatal(err)
	}
	if a.State() != Converged {
		t.Errorf("Expected analysis to converge, found %v", a.State())
	}

	entry, head, body, exit := f.Block("entry"), f.Block("head"), f.Block("body"), f.Block("exit")
	assertNames(t, "IN[entry]", a.Facts(entry).In)
	assertNames(t, "OUT[entry]", a.Facts(entry).Out, "%i", "%n")
	assertNames(t, "IN[head]", a.Facts(head).In, "%i", "%n")
	assertNames(t, "OUT[head]", a.Facts(head).Out, "%i", "%n", "%c")
	assertNames(t, "OUT[body]", a.Facts(body).Out, "%i", "%n", "%c", "%t")
	assertNames(t, "IN[exit]", a.Facts(exit).In, "%i", "%n", "%c")

	if st := a.Stats(); st.Rounds != 2 || st.DomainSize != 4 {
		t.Errorf("Expected 2 rounds over a domain of 4, found %+v", st)
	}
}

func TestBackwardMay(t *testing.T) {
	f := textcfg.MustParse(loop)

	for _, test := range []struct {
		order  Order
		rounds int
	}{
		{OrderDocument, 4},
		{OrderRPO, 3},
	} {
		t.Run(test.order.String(), func(t *testing.T) {
			a := run(t, live(), f, Options{Order: test.order})

			entry, head, body, exit := f.Block("entry"), f.Block("head"), f.Block("body"), f.Block("exit")
			// %t is read uninitialized on the path entry -> head -> exit.
			assertNames(t, "IN[entry]", a.Facts(entry).In, "%t")
			assertNames(t, "IN[head]", a.Facts(head).In, "%i", "%n", "%t")
			assertNames(t, "IN[body]", a.Facts(body).In, "%i", "%n")
			assertNames(t, "USE[exit]", a.Facts(exit).Gen, "%t")
			assertNames(t, "OUT[exit]", a.Facts(exit).Out)

			if rounds := a.Stats().Rounds; rounds != test.rounds {
				t.Errorf("Expected %d rounds, found %d", test.rounds, rounds)
			}
		})
	}
}

func TestOrder(t *testing.T) {
	f := textcfg.MustParse(`
entry:
  br b
c:
  ret
b:
  br c
dead:
  br c`)

	for _, test := range []struct {
		name     string
		p        Problem[cfg.Value]
		order    Order
		expected []string
	}{
		{"forward-document", assigned(), OrderDocument, []string{"entry", "c", "b", "dead"}},
		{"forward-rpo", assigned(), OrderRPO, []string{"entry", "b", "c", "dead"}},
		{"backward-rpo", live(), OrderRPO, []string{"c", "b", "entry", "dead"}},
	} {
		t.Run(test.name, func(t *testing.T) {
			a := run(t, test.p, f, Options{Order: test.order})
			order := a.Order()
			if len(order) != len(test.expected) {
				t.Fatalf("Expected %v, found %v", test.expected, order)
			}
			for i, b := range order {
				if b.Name() != test.expected[i] {
					t.Fatalf("Expected %v, found %v", test.expected, order)
				}
			}
		})
	}
}

func TestIdempotence(t *testing.T) {
	f := textcfg.MustParse(loop)

	for _, p := range []Problem[cfg.Value]{assigned(), live()} {
		t.Run(p.Name, func(t *testing.T) {
			a := run(t, p, f, Options{})
			before, err := a.Snapshot()
			if err != nil {
				t.Fatal(err)
			}
			extractions := a.Stats().Extractions

			if err := a.Run(); err != nil {
				t.Fatal(err)
			}

			st := a.Stats()
			if st.Rounds != 1 || st.Updates != 0 {
				t.Errorf("Expected a single round without updates, found %+v", st)
			}
			if st.Extractions != extractions {
				t.Errorf("Re-running should not re-extract, %d != %d", st.Extractions, extractions)
			}

			for _, b := range f.Blocks() {
				facts, _ := before.Get(b)
				assertNames(t, "IN["+b.Name()+"]", a.Facts(b).In, names(facts.In)...)
				assertNames(t, "OUT["+b.Name()+"]", a.Facts(b).Out, names(facts.Out)...)
			}
		})
	}
}

func TestBoundaryFidelity(t *testing.T) {
	// The entry is its own predecessor, but its IN is still the boundary.
	selfLoop := textcfg.MustParse(`
entry:
  %x = 1
  br %x, entry, exit
exit:
  ret %x`)

	a := run(t, assigned(), selfLoop, Options{})
	if in := a.In(selfLoop.Block("entry")); !in.IsEmpty() {
		t.Errorf("Expected IN[entry] to be empty, found %v", in)
	}

	f := textcfg.MustParse(loop)
	b := run(t, live("%n"), f, Options{})
	assertNames(t, "OUT[exit]", b.Facts(f.Block("exit")).Out, "%n")
	assertNames(t, "IN[exit]", b.Facts(f.Block("exit")).In, "%n", "%t")
}

func TestUnreachableBoundary(t *testing.T) {
	f := textcfg.MustParse(`
entry:
  %a = 1
  br exit
dead:
  %b = 2
  br exit
exit:
  ret`)

	a := run(t, assigned(), f, Options{})

	// The unreachable block has no predecessors, so it receives the boundary
	// value instead of the identity of the meet.
	assertNames(t, "IN[dead]", a.Facts(f.Block("dead")).In)
	assertNames(t, "OUT[dead]", a.Facts(f.Block("dead")).Out, "%b")
	assertNames(t, "IN[exit]", a.Facts(f.Block("exit")).In)
}

func TestConvergenceBound(t *testing.T) {
	sources := []string{loop, `
entry:
  br a
a:
  %x = 1
  br %x, b, c
b:
  %y = %x + 1
  br d
c:
  %z = %x + 2
  br d
d:
  br %x, a, e
e:
  ret`, `
entry:
  ret`}

	for _, src := range sources {
		f := textcfg.MustParse(src)
		for _, p := range []Problem[cfg.Value]{assigned(), live()} {
			a := run(t, p, f, Options{})
			N, D := len(f.Blocks()), a.Domain().Len()
			if rounds := a.Stats().Rounds; rounds > (N+1)*(D+1)+1 {
				t.Errorf("%s: %d rounds exceed the bound for N=%d, D=%d", p.Name, rounds, N, D)
			}
		}
	}
}

func TestMonotonicity(t *testing.T) {
	f := textcfg.MustParse(loop)

	for _, p := range []Problem[cfg.Value]{assigned(), live()} {
		a := run(t, p, f, Options{})
		D := a.Domain().Len()

		indices := make([]int, D)
		for i := range indices {
			indices[i] = i
		}

		for _, b := range f.Blocks() {
			set.Subsets(indices).ForEach(func(s2 []int) {
				S2 := L.Of(D, s2...)
				t2, err := a.Transfer(b, S2)
				if err != nil {
					t.Fatal(err)
				}

				set.Subsets(s2).ForEach(func(s1 []int) {
					S1 := L.Of(D, s1...)
					t1, _ := a.Transfer(b, S1)
					if !t1.Leq(t2) {
						t.Errorf("%s: transfer of %s is not monotone: %v ⊆ %v, but %v ⊈ %v",
							p.Name, b.Name(), S1, S2, t1, t2)
					}
				})
			})
		}
	}
}

func TestNonMonotonic(t *testing.T) {
	f := textcfg.MustParse(`
  %a = 1
  ret`)

	for _, test := range []struct {
		name  string
		opts  Options
		round int
	}{
		// N = 1, D = 1
		{"default-cap", Options{}, 6},
		{"max-rounds", Options{MaxRounds: 3}, 4},
		{"strict", Options{Strict: true}, 2},
	} {
		t.Run(test.name, func(t *testing.T) {
			a := New(toggle(), f, test.opts)
			err := a.Run()

			if !errors.Is(err, ErrNonMonotonic) {
				t.Fatalf("Expected a non-monotonicity error, found %v", err)
			}

			var engErr *EngineError
			if !errors.As(err, &engErr) {
				t.Fatalf("Expected an engine error, found %T", err)
			}
			if engErr.Analysis != "toggle" || engErr.Function != "f" || engErr.Round != test.round {
				t.Errorf("Unexpected error details: %+v", engErr)
			}
			if a.State() != Failed {
				t.Errorf("Expected failed state, found %v", a.State())
			}
		})
	}
}

func TestDomainOverflow(t *testing.T) {
	f := textcfg.MustParse(loop)

	a := New(assigned(), f, Options{MaxDomain: 3})
	if err := a.Run(); !errors.Is(err, ErrDomainOverflow) {
		t.Fatalf("Expected a domain overflow, found %v", err)
	}
	if a.Domain().Len() != 4 {
		t.Errorf("Elements must not be truncated, domain has %d elements", a.Domain().Len())
	}

	run(t, assigned(), f, Options{MaxDomain: 4})
}

func TestNotConverged(t *testing.T) {
	f := textcfg.MustParse(loop)
	var out bytes.Buffer

	a := New(assigned(), f, Options{})
	if _, err := a.Snapshot(); !errors.Is(err, ErrNotConverged) {
		t.Errorf("Expected a fresh analysis to not be converged, found %v", err)
	}
	if err := a.Dump(&out); !errors.Is(err, ErrNotConverged) {
		t.Errorf("Expected dumping a fresh analysis to fail, found %v", err)
	}

	if err := a.Run(); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Snapshot(); err != nil {
		t.Error(err)
	}

	a.Invalidate(f.Block("body"))
	if err := a.Print(&out); !errors.Is(err, ErrNotConverged) {
		t.Errorf("Expected an invalidated analysis to not be converged, found %v", err)
	}

	failed := New(assigned(), f, Options{MaxDomain: 1})
	if err := failed.Run(); err == nil {
		t.Fatal("Expected a domain overflow")
	}
	if _, err := failed.Snapshot(); !errors.Is(err, ErrNotConverged) {
		t.Errorf("Expected a failed analysis to not be converged, found %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("Nothing should be written, found:\n%s", out.String())
	}
}

func TestGenKillCache(t *testing.T) {
	f := textcfg.MustParse(loop)
	a := run(t, assigned(), f, Options{})
	body := f.Block("body")

	if n := a.Stats().Extractions; n != 4 {
		t.Fatalf("Expected 4 extractions, found %d", n)
	}

	gen1, _, err := a.GenKill(body)
	if err != nil {
		t.Fatal(err)
	}
	gen2, _, _ := a.GenKill(body)
	if !gen1.Eq(gen2) || a.Stats().Extractions != 4 {
		t.Error("Repeated queries should hit the cache")
	}
	if a.State() != Converged {
		t.Error("Cache hits should not reset the solution")
	}

	// Rewriting a block invalidates its entry. Only that block is re-extracted.
	if err := body.Rewrite("%t = %i * 3", "%i = %i + 1", "%u = 5", "br head"); err != nil {
		t.Fatal(err)
	}
	if err := a.Run(); err != nil {
		t.Fatal(err)
	}
	if n := a.Stats().Extractions; n != 5 {
		t.Errorf("Expected 5 extractions, found %d", n)
	}
	assertNames(t, "GEN[body]", a.Facts(body).Gen, "%i", "%t", "%u")
	assertNames(t, "IN[exit]", a.Facts(f.Block("exit")).In, "%i", "%n", "%c")

	a.Invalidate(f.Block("head"))
	if a.State() != Uninitialized {
		t.Errorf("Expected invalidation to reset the analysis, found %v", a.State())
	}
	if err := a.Run(); err != nil {
		t.Fatal(err)
	}
	if n := a.Stats().Extractions; n != 6 {
		t.Errorf("Expected 6 extractions, found %d", n)
	}
}

func TestDumpGolden(t *testing.T) {
	f := textcfg.MustParse(loop)

	for name, p := range map[string]Problem[cfg.Value]{
		"assigned_loop": assigned(),
		"live_loop":     live(),
	} {
		t.Run(name, func(t *testing.T) {
			a := run(t, p, f, Options{})

			var out bytes.Buffer
			if err := a.Dump(&out); err != nil {
				t.Fatal(err)
			}
			goldie.New(t).Assert(t, name, out.Bytes())
		})
	}
}
