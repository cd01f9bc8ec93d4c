package textcfg

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/cs-au-dk/dfa/analysis/cfg"
)

var (
	ErrSyntax = errors.New("syntax error")

	labelRegex  = regexp.MustCompile(`^([A-Za-z_.$][\w.$]*):$`)
	funcRegex   = regexp.MustCompile(`^func\s+([\w.$]+)$`)
	defRegex    = regexp.MustCompile(`^(%[\w.$]+)\s*=\s*(.+)$`)
	callRegex   = regexp.MustCompile(`^call\s+([\w.$@]+)\s*\((.*)\)$`)
	varRegex    = regexp.MustCompile(`^%[\w.$]+$`)
	constRegex  = regexp.MustCompile(`^(-?[0-9]+(\.[0-9]+)?|@[\w.$]+|true|false|null)$`)
	opcodeRegex = regexp.MustCompile(`^[a-z][\w.]*$`)
)

var binaryOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"&": true, "|": true, "^": true, "&^": true, "<<": true, ">>": true,
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
	"xor": true,
}

// assignOpcodes are recognized value-producing opcodes besides binary operators and calls.
var assignOpcodes = map[string]bool{
	"phi": true, "neg": true, "not": true, "load": true, "copy": true, "alloca": true,
}

// effectOpcodes are recognized opcodes that only have side effects.
var effectOpcodes = map[string]bool{
	"store": true, "send": true, "print": true,
}

type parser struct {
	fn    *Function
	cur   *Block
	funcs []*Function
	line  int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("line %d: %w: %s", p.line, ErrSyntax, fmt.Sprintf(format, args...))
}

// ParseFile parses all the functions in src. Instructions preceding the
// first label go into an implicit "entry" block, and a missing function
// header yields a function named "f".
func ParseFile(src string) ([]*Function, error) {
	p := &parser{}
	for i, raw := range strings.Split(src, "\n") {
		p.line = i + 1
		line := stripComment(raw)
		if line == "" {
			continue
		}
		if err := p.parseLine(line); err != nil {
			return nil, err
		}
	}

	for _, f := range p.funcs {
		if err := f.link(); err != nil {
			return nil, err
		}
	}
	return p.funcs, nil
}

// Parse parses src, which must contain exactly one function.
func Parse(src string) (*Function, error) {
	funcs, err := ParseFile(src)
	if err != nil {
		return nil, err
	}
	if len(funcs) != 1 {
		return nil, fmt.Errorf("%w: expected one function, found %d", ErrSyntax, len(funcs))
	}
	return funcs[0], nil
}

// MustParse is like Parse but panics on errors. It is intended for tests.
func MustParse(src string) *Function {
	f, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return f
}

func stripComment(line string) string {
	if i := strings.IndexAny(line, ";#"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

func newFunction(name string) *Function {
	return &Function{
		name:   name,
		vars:   make(map[string]*Value),
		consts: make(map[string]*Value),
	}
}

func (p *parser) parseLine(line string) error {
	if m := funcRegex.FindStringSubmatch(line); m != nil {
		p.fn = newFunction(m[1])
		p.funcs = append(p.funcs, p.fn)
		p.cur = nil
		return nil
	}

	if p.fn == nil {
		p.fn = newFunction("f")
		p.funcs = append(p.funcs, p.fn)
	}

	if m := labelRegex.FindStringSubmatch(line); m != nil {
		if p.fn.Block(m[1]) != nil {
			return p.errorf("duplicate label %q", m[1])
		}
		p.cur = p.fn.addBlock(m[1])
		return nil
	}

	if p.cur == nil {
		p.cur = p.fn.addBlock("entry")
	}

	if n := len(p.cur.instrs); n > 0 && p.cur.instrs[n-1].Kind().IsTerminator() {
		return p.errorf("instruction after terminator in block %s", p.cur.name)
	}

	insn, err := p.fn.parseInstruction(line)
	if err != nil {
		return p.errorf("%v", err)
	}
	insn.block = p.cur
	p.cur.instrs = append(p.cur.instrs, insn)
	return nil
}

func (f *Function) addBlock(name string) *Block {
	b := &Block{name: name, parent: f}
	f.blocks = append(f.blocks, b)
	f.cfgBlocks = append(f.cfgBlocks, b)
	return b
}

func (f *Function) operand(tok string) (*Value, error) {
	switch {
	case varRegex.MatchString(tok):
		if v, ok := f.vars[tok]; ok {
			return v, nil
		}
		v := &Value{name: tok}
		f.vars[tok] = v
		return v, nil
	case constRegex.MatchString(tok):
		if v, ok := f.consts[tok]; ok {
			return v, nil
		}
		v := &Value{name: tok, constant: true}
		f.consts[tok] = v
		return v, nil
	}
	return nil, fmt.Errorf("invalid operand %q", tok)
}

func (f *Function) operandList(list string) ([]cfg.Value, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}
	var vs []cfg.Value
	for _, tok := range strings.Split(list, ",") {
		v, err := f.operand(strings.TrimSpace(tok))
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	return vs, nil
}

func (f *Function) parseInstruction(line string) (*Instruction, error) {
	insn := &Instruction{}
	rhs := line
	if m := defRegex.FindStringSubmatch(line); m != nil {
		res, err := f.operand(m[1])
		if err != nil {
			return nil, err
		}
		insn.result = res
		rhs = strings.TrimSpace(m[2])
	}

	fields := strings.Fields(rhs)
	if len(fields) == 0 {
		return nil, fmt.Errorf("missing right-hand side in %q", line)
	}

	switch {
	case callRegex.MatchString(rhs):
		m := callRegex.FindStringSubmatch(rhs)
		ops, err := f.operandList(m[2])
		if err != nil {
			return nil, err
		}
		insn.kind, insn.callee, insn.operands = cfg.KindCall, m[1], ops
	case fields[0] == "br" || fields[0] == "ret":
		if insn.result != nil {
			return nil, fmt.Errorf("%s does not produce a value", fields[0])
		}
		return insn, f.parseTerminator(insn, fields[0], strings.TrimSpace(strings.TrimPrefix(rhs, fields[0])))
	case len(fields) == 3 && binaryOps[fields[1]]:
		x, err := f.operand(fields[0])
		if err != nil {
			return nil, err
		}
		y, err := f.operand(fields[2])
		if err != nil {
			return nil, err
		}
		if insn.result == nil {
			return nil, fmt.Errorf("binary operation without result")
		}
		insn.kind, insn.op, insn.operands = cfg.KindBinary, fields[1], []cfg.Value{x, y}
	case len(fields) == 1 && insn.result != nil:
		x, err := f.operand(fields[0])
		if err != nil {
			return nil, err
		}
		insn.kind, insn.operands = cfg.KindAssign, []cfg.Value{x}
	case opcodeRegex.MatchString(fields[0]):
		ops, err := f.operandList(strings.TrimPrefix(rhs, fields[0]))
		if err != nil {
			return nil, err
		}
		insn.opcode, insn.operands = fields[0], ops
		switch {
		case assignOpcodes[fields[0]] && insn.result != nil:
			insn.kind = cfg.KindAssign
		case effectOpcodes[fields[0]] && insn.result == nil:
			insn.kind = cfg.KindEffect
		default:
			insn.kind = cfg.KindUnknown
		}
	default:
		return nil, fmt.Errorf("unrecognized instruction %q", line)
	}

	return insn, nil
}

func (f *Function) parseTerminator(insn *Instruction, opcode, rest string) error {
	var args []string
	if rest != "" {
		for _, a := range strings.Split(rest, ",") {
			args = append(args, strings.TrimSpace(a))
		}
	}

	switch opcode {
	case "ret":
		insn.kind = cfg.KindReturn
		if len(args) > 1 {
			return fmt.Errorf("ret takes at most one operand")
		}
		if len(args) == 1 {
			v, err := f.operand(args[0])
			if err != nil {
				return err
			}
			insn.operands = []cfg.Value{v}
		}
	case "br":
		switch len(args) {
		case 1:
			insn.kind, insn.targets = cfg.KindBranch, args
		case 3:
			v, err := f.operand(args[0])
			if err != nil {
				return err
			}
			insn.kind, insn.targets, insn.operands = cfg.KindCondBranch, args[1:], []cfg.Value{v}
		default:
			return fmt.Errorf("br expects a label or a condition and two labels")
		}
	}
	return nil
}

// link resolves branch targets and computes predecessor lists.
// Predecessors are ordered by the document order of the branching blocks.
func (f *Function) link() error {
	for _, b := range f.blocks {
		b.preds, b.succs = nil, nil
	}

	for _, b := range f.blocks {
		if len(b.instrs) == 0 {
			continue
		}
		last := b.instrs[len(b.instrs)-1].(*Instruction)
		for _, target := range last.targets {
			succ := f.Block(target)
			if succ == nil {
				return fmt.Errorf("%w: block %s: unknown label %q", ErrSyntax, b.name, target)
			}
			b.succs = append(b.succs, succ)
			succ.preds = append(succ.preds, b)
		}
	}
	return nil
}

// Rewrite replaces the instructions of b with the parsed lines and
// re-links the function. Rewriting is how tests model transformations
// that invalidate cached gen/kill sets.
func (b *Block) Rewrite(lines ...string) error {
	f := b.parent
	instrs := make([]cfg.Instruction, 0, len(lines))
	for n, line := range lines {
		line = stripComment(line)
		if line == "" {
			continue
		}
		if len(instrs) > 0 && instrs[len(instrs)-1].Kind().IsTerminator() {
			return fmt.Errorf("%w: block %s, line %d: instruction after terminator", ErrSyntax, b.name, n+1)
		}
		insn, err := f.parseInstruction(line)
		if err != nil {
			return fmt.Errorf("%w: block %s, line %d: %v", ErrSyntax, b.name, n+1, err)
		}
		insn.block = b
		instrs = append(instrs, insn)
	}

	b.instrs = instrs
	return f.link()
}
