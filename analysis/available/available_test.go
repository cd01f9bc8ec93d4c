package available

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/cs-au-dk/dfa/analysis/cfg/textcfg"
	"github.com/cs-au-dk/dfa/analysis/dataflow"
)

func run(t *testing.T, src string) (*textcfg.Function, Analysis) {
	t.Helper()
	f := textcfg.MustParse(src)
	a := New(f, dataflow.Options{})
	if err := a.Run(); err != nil {
		t.Fatal(err)
	}
	return f, a
}

func strs(es []Expression) []string {
	res := make([]string, 0, len(es))
	for _, e := range es {
		res = append(res, e.String())
	}
	return res
}

func assertExprs(t *testing.T, what string, found []Expression, expected ...string) {
	t.Helper()
	ss := strs(found)
	if len(ss) != len(expected) {
		t.Errorf("%s: expected %v, found %v", what, expected, ss)
		return
	}
	for i := range ss {
		if ss[i] != expected[i] {
			t.Errorf("%s: expected %v, found %v", what, expected, ss)
			return
		}
	}
}

func TestAvailableAcrossBlocks(t *testing.T) {
	f, a := run(t, `
B1:
  %x = %a + %b
  br B2
B2:
  %y = %a + %b
  ret %y
`)
	b1, b2 := f.Block("B1"), f.Block("B2")

	assertExprs(t, "IN[B1]", a.AvailableAt(b1))
	assertExprs(t, "OUT[B1]", a.AvailableAfter(b1), "%a + %b")
	assertExprs(t, "IN[B2]", a.AvailableAt(b2), "%a + %b")
	assertExprs(t, "OUT[B2]", a.AvailableAfter(b2), "%a + %b")

	e := Expression{"+", f.Var("%a"), f.Var("%b")}
	if !a.IsAvailable(b2, e) {
		t.Errorf("Expected %v to be available on entry to B2", e)
	}
	if a.IsAvailable(b1, e) {
		t.Errorf("Expected %v to be unavailable on entry to B1", e)
	}
	if d := a.Domain().Len(); d != 1 {
		t.Errorf("Expected a single expression in the domain, found %d", d)
	}
}

func TestRedefinedOperand(t *testing.T) {
	f, a := run(t, `
entry:
  %x = %a + %b
  %a = 1
  br exit
exit:
  ret %x
`)
	entry, exit := f.Block("entry"), f.Block("exit")

	facts := a.Facts(entry)
	assertExprs(t, "GEN[entry]", facts.Gen)
	assertExprs(t, "KILL[entry]", facts.Kill, "%a + %b")
	assertExprs(t, "IN[exit]", a.AvailableAt(exit))
}

func TestKillCompletedForLaterExpressions(t *testing.T) {
	f, a := run(t, `
entry:
  %a = 1
  br next
next:
  %c = %a + %b
  br %c, next, exit
exit:
  ret %c
`)
	entry, next := f.Block("entry"), f.Block("next")

	// %a + %b is only discovered after entry has been extracted.
	assertExprs(t, "KILL[entry]", a.Facts(entry).Kill, "%a + %b")
	assertExprs(t, "IN[next]", a.AvailableAt(next))
	assertExprs(t, "OUT[next]", a.AvailableAfter(next), "%a + %b")
	assertExprs(t, "IN[exit]", a.AvailableAt(f.Block("exit")), "%a + %b")
}

func TestSelfReferentialExpression(t *testing.T) {
	f, a := run(t, `
entry:
  %i = %i + 1
  ret %i
`)
	facts := a.Facts(f.Block("entry"))
	assertExprs(t, "GEN[entry]", facts.Gen)
	assertExprs(t, "KILL[entry]", facts.Kill, "%i + 1")
}

func TestUnknownInstructions(t *testing.T) {
	f, a := run(t, `
entry:
  %x = %a + %b
  %a = frob %x
  br exit
exit:
  ret %x
`)
	if n := a.Stats().Unsupported; n != 1 {
		t.Errorf("Expected 1 unsupported instruction, found %d", n)
	}
	// The result of an unrecognized instruction is still a redefinition.
	assertExprs(t, "OUT[entry]", a.AvailableAfter(f.Block("entry")))
}

func TestEntryBoundary(t *testing.T) {
	f, a := run(t, `
entry:
  %x = %a + %b
  br entry
`)
	// The entry has a predecessor, but its IN is still the boundary value.
	assertExprs(t, "IN[entry]", a.AvailableAt(f.Block("entry")))
}

func TestDumpGolden(t *testing.T) {
	_, a := run(t, `
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
`)
	if r := a.Stats().Rounds; r != 2 {
		t.Errorf("Expected 2 rounds, found %d", r)
	}

	var out bytes.Buffer
	if err := a.Dump(&out); err != nil {
		t.Fatal(err)
	}
	goldie.New(t).Assert(t, "loop", out.Bytes())
}
