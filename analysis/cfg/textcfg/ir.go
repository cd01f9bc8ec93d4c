// Package textcfg implements a small textual, LLVM-flavoured IR that
// satisfies the cfg interfaces. It is used by tests, golden files and the
// -ir mode of the command line tool.
//
// Example:
//
//	func f
//	entry:
//	  %a = 1
//	  %b = %a + 2
//	  br %b, then, exit
//	then:
//	  call print(%b)
//	  br exit
//	exit:
//	  ret %b
package textcfg

import (
	"strings"

	"github.com/cs-au-dk/dfa/analysis/cfg"
)

type (
	// Function is a parsed function.
	Function struct {
		name   string
		blocks []*Block
		// cfgBlocks mirrors blocks as cfg.Block values.
		cfgBlocks []cfg.Block
		// vars and consts intern operands so that every occurrence of the
		// same name denotes the same value.
		vars   map[string]*Value
		consts map[string]*Value
	}

	// Block is a labelled basic block.
	Block struct {
		name   string
		parent *Function
		instrs []cfg.Instruction
		preds  []cfg.Block
		succs  []cfg.Block
	}

	// Instruction is a single parsed instruction.
	Instruction struct {
		kind     cfg.Kind
		op       string
		opcode   string
		callee   string
		targets  []string
		operands []cfg.Value
		result   *Value
		block    *Block
	}

	// Value is either a variable (%x) or a constant (numbers, @globals).
	Value struct {
		name     string
		constant bool
	}
)

func (f *Function) Name() string                 { return f.name }
func (f *Function) Blocks() []cfg.Block          { return f.cfgBlocks }
func (f *Function) String() string               { return cfg.Sprint(f) }
func (b *Block) Name() string                    { return b.name }
func (b *Block) Instructions() []cfg.Instruction { return b.instrs }
func (b *Block) Preds() []cfg.Block              { return b.preds }
func (b *Block) Succs() []cfg.Block              { return b.succs }
func (b *Block) String() string                  { return b.name }
func (v *Value) Name() string                    { return v.name }
func (v *Value) IsConstant() bool                { return v.constant }
func (v *Value) String() string                  { return v.name }

// Block retrieves the block with the given label, or nil.
func (f *Function) Block(name string) *Block {
	for _, b := range f.blocks {
		if b.name == name {
			return b
		}
	}
	return nil
}

// Var retrieves the variable with the given name (including the % sigil), or nil.
func (f *Function) Var(name string) *Value {
	return f.vars[name]
}

// Instr retrieves the i'th instruction of the block.
func (b *Block) Instr(i int) *Instruction {
	return b.instrs[i].(*Instruction)
}

func (i *Instruction) Kind() cfg.Kind        { return i.kind }
func (i *Instruction) Op() string            { return i.op }
func (i *Instruction) Operands() []cfg.Value { return i.operands }
func (i *Instruction) Block() *Block         { return i.block }

// Result returns the defined variable, or nil.
func (i *Instruction) Result() cfg.Value {
	if i.result == nil {
		return nil
	}
	return i.result
}

// Name is the defined variable for value-producing instructions, and the
// instruction text otherwise.
func (i *Instruction) Name() string {
	if i.result != nil {
		return i.result.name
	}
	return i.String()
}

func (i *Instruction) String() string {
	var sb strings.Builder
	if i.result != nil {
		sb.WriteString(i.result.name)
		sb.WriteString(" = ")
	}

	names := make([]string, len(i.operands))
	for j, v := range i.operands {
		names[j] = v.Name()
	}

	switch i.kind {
	case cfg.KindBinary:
		sb.WriteString(names[0] + " " + i.op + " " + names[1])
	case cfg.KindCall:
		sb.WriteString("call " + i.callee + "(" + strings.Join(names, ", ") + ")")
	case cfg.KindBranch:
		sb.WriteString("br " + i.targets[0])
	case cfg.KindCondBranch:
		sb.WriteString("br " + names[0] + ", " + strings.Join(i.targets, ", "))
	case cfg.KindReturn:
		sb.WriteString("ret")
		if len(names) > 0 {
			sb.WriteString(" " + names[0])
		}
	default:
		if i.opcode != "" {
			sb.WriteString(i.opcode)
			if len(names) > 0 {
				sb.WriteString(" ")
			}
		}
		sb.WriteString(strings.Join(names, ", "))
	}

	return sb.String()
}
