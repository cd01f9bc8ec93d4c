package cfg_test

import (
	"strings"
	"testing"

	"github.com/cs-au-dk/dfa/analysis/cfg"
	"github.com/cs-au-dk/dfa/analysis/cfg/textcfg"
)

const loopWithDeadCode = `
func loop
entry:
  %i = 0
  br head
head:
  %c = %i < 10
  br %c, body, exit
body:
  %i = %i + 1
  br head
dead:
  %d = 42
  br exit
exit:
  ret %i
`

func TestEntryExits(t *testing.T) {
	f := textcfg.MustParse(loopWithDeadCode)

	if e := cfg.Entry(f); e == nil || e.Name() != "entry" {
		t.Errorf("Expected entry block, found %v", e)
	}

	exits := cfg.Exits(f)
	if len(exits) != 1 || exits[0].Name() != "exit" {
		t.Errorf("Expected exit to be the only exit, found %v", exits)
	}
}

func TestReachable(t *testing.T) {
	f := textcfg.MustParse(loopWithDeadCode)

	reach := cfg.Reachable(f)
	for i, b := range f.Blocks() {
		if expected := b.Name() != "dead"; reach.Has(i) != expected {
			t.Errorf("Block %s: expected reachable = %v", b.Name(), expected)
		}
	}

	unreach := cfg.Unreachable(f)
	if len(unreach) != 1 || unreach[0].Name() != "dead" {
		t.Errorf("Expected only dead to be unreachable, found %v", unreach)
	}
}

func TestUsesDefines(t *testing.T) {
	f := textcfg.MustParse(`
  %a = %b + %b
  %c = frob %a, 1
  store %a, %c
  ret`)
	entry := f.Block("entry")

	uses := cfg.Uses(entry.Instr(0))
	if len(uses) != 1 || uses[0].Name() != "%b" {
		t.Errorf("Expected uses [%%b], found %v", uses)
	}

	if v, ok := cfg.Defines(entry.Instr(0)); !ok || v.Name() != "%a" {
		t.Errorf("Expected definition of %%a, found %v", v)
	}
	if _, ok := cfg.Defines(entry.Instr(1)); ok {
		t.Error("Unknown instructions should not define values")
	}
	if uses := cfg.Uses(entry.Instr(1)); len(uses) != 1 || uses[0].Name() != "%a" {
		t.Errorf("Constant operands should not be uses, found %v", uses)
	}
	if _, ok := cfg.Defines(entry.Instr(2)); ok {
		t.Error("Stores should not define values")
	}
}

func TestKindString(t *testing.T) {
	for k, s := range map[cfg.Kind]string{
		cfg.KindUnknown:    "unknown",
		cfg.KindBinary:     "binary",
		cfg.KindCondBranch: "condbr",
		cfg.Kind(100):      "invalid",
	} {
		if k.String() != s {
			t.Errorf("Expected %s, found %s", s, k)
		}
	}

	if cfg.KindCall.IsTerminator() || !cfg.KindReturn.IsTerminator() {
		t.Error("Wrong terminator classification")
	}
}

func TestToDotGraph(t *testing.T) {
	f := textcfg.MustParse(loopWithDeadCode)

	G := cfg.ToDotGraph(f, func(b cfg.Block) string {
		return "facts of " + b.Name()
	})

	if len(G.Nodes) != len(f.Blocks()) {
		t.Fatalf("Expected %d nodes, found %d", len(f.Blocks()), len(G.Nodes))
	}

	// 3 unconditional edges and 2 from the conditional branch
	if len(G.Edges) != 5 {
		t.Errorf("Expected 5 edges, found %d", len(G.Edges))
	}

	for i, n := range G.Nodes {
		b := f.Blocks()[i]
		if !strings.Contains(n.Attrs["label"], "facts of "+b.Name()) {
			t.Errorf("Missing annotation in label of %s: %q", b.Name(), n.Attrs["label"])
		}
		if _, grey := n.Attrs["fillcolor"]; grey != (b.Name() == "dead") {
			t.Errorf("Unexpected fill colour for %s", b.Name())
		}
	}
}

func TestParameters(t *testing.T) {
	f := textcfg.MustParse(`
func free
entry:
  %a = %p + %q
  br %a, then, exit
then:
  %b = %p * %r
  br exit
exit:
  ret %b
`)

	var names []string
	for _, v := range cfg.Parameters(f) {
		names = append(names, v.Name())
	}
	if strings.Join(names, " ") != "%p %q %r" {
		t.Errorf("Expected parameters %%p %%q %%r, found %v", names)
	}

	if params := cfg.Parameters(textcfg.MustParse(loopWithDeadCode)); len(params) != 0 {
		t.Errorf("Expected no parameters, found %v", params)
	}
}
