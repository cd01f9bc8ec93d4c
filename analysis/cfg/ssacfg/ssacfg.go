// Package ssacfg exposes functions in the SSA form of golang.org/x/tools
// through the cfg interfaces.
package ssacfg

import (
	"fmt"
	"go/types"

	"golang.org/x/tools/go/ssa"

	"github.com/cs-au-dk/dfa/analysis/cfg"
)

type (
	Function struct {
		fn      *ssa.Function
		blocks  []cfg.Block
		byBlock map[*ssa.BasicBlock]*Block
		// values interns operands. Constants are interned by their name,
		// since every occurrence of a literal is a distinct ssa.Const.
		values map[ssa.Value]*Value
		consts map[string]*Value
		params []cfg.Value
	}

	Block struct {
		bb     *ssa.BasicBlock
		instrs []cfg.Instruction
		preds  []cfg.Block
		succs  []cfg.Block
	}

	Instruction struct {
		insn     ssa.Instruction
		kind     cfg.Kind
		op       string
		operands []cfg.Value
		result   *Value
	}

	Value struct {
		v        ssa.Value
		constant bool
	}
)

// New wraps an SSA function. The function must not be modified afterwards.
func New(fn *ssa.Function) *Function {
	f := &Function{
		fn:      fn,
		byBlock: make(map[*ssa.BasicBlock]*Block, len(fn.Blocks)),
		values:  make(map[ssa.Value]*Value),
		consts:  make(map[string]*Value),
	}

	for _, p := range fn.Params {
		f.params = append(f.params, f.value(p))
	}

	for _, bb := range fn.Blocks {
		b := &Block{bb: bb}
		f.byBlock[bb] = b
		f.blocks = append(f.blocks, b)
	}

	for _, bb := range fn.Blocks {
		b := f.byBlock[bb]
		for _, pred := range bb.Preds {
			b.preds = append(b.preds, f.byBlock[pred])
		}
		for _, succ := range bb.Succs {
			b.succs = append(b.succs, f.byBlock[succ])
		}
		for _, insn := range bb.Instrs {
			b.instrs = append(b.instrs, f.instruction(insn))
		}
	}

	return f
}

func (f *Function) value(v ssa.Value) *Value {
	if c, ok := v.(*ssa.Const); ok {
		key := c.Name()
		if val, found := f.consts[key]; found {
			return val
		}
		val := &Value{v, true}
		f.consts[key] = val
		return val
	}

	if val, found := f.values[v]; found {
		return val
	}

	val := &Value{v: v}
	switch v.(type) {
	case *ssa.Function, *ssa.Global, *ssa.Builtin:
		val.constant = true
	}
	f.values[v] = val
	return val
}

func (f *Function) instruction(insn ssa.Instruction) *Instruction {
	i := &Instruction{insn: insn, kind: Classify(insn)}
	if binop, ok := insn.(*ssa.BinOp); ok {
		i.op = binop.Op.String()
	}

	for _, op := range insn.Operands(nil) {
		if op == nil || *op == nil {
			continue
		}
		i.operands = append(i.operands, f.value(*op))
	}

	if v, ok := insn.(ssa.Value); ok && producesValue(v) {
		i.result = f.value(v)
	}
	return i
}

// producesValue holds for values with a non-empty result type.
func producesValue(v ssa.Value) bool {
	switch t := v.Type().(type) {
	case nil:
		return false
	case *types.Tuple:
		return t.Len() > 0
	}
	return true
}

// Classify computes the kind of an SSA instruction.
func Classify(insn ssa.Instruction) cfg.Kind {
	switch insn.(type) {
	case *ssa.BinOp:
		return cfg.KindBinary
	case *ssa.If:
		return cfg.KindCondBranch
	case *ssa.Jump:
		return cfg.KindBranch
	case *ssa.Return, *ssa.Panic:
		return cfg.KindReturn
	case *ssa.Call, *ssa.Go, *ssa.Defer:
		return cfg.KindCall
	case *ssa.Store, *ssa.Send, *ssa.MapUpdate, *ssa.DebugRef, *ssa.RunDefers:
		return cfg.KindEffect
	case ssa.Value:
		return cfg.KindAssign
	}
	return cfg.KindUnknown
}

func (f *Function) Name() string        { return f.fn.String() }
func (f *Function) Blocks() []cfg.Block { return f.blocks }
func (f *Function) SSA() *ssa.Function  { return f.fn }
func (f *Function) Params() []cfg.Value { return f.params }

// Block retrieves the wrapper of an SSA block of the function.
func (f *Function) Block(bb *ssa.BasicBlock) *Block {
	return f.byBlock[bb]
}

// Value retrieves the interned wrapper of an SSA value used or defined in
// the function.
func (f *Function) Value(v ssa.Value) (cfg.Value, bool) {
	var (
		val   *Value
		found bool
	)
	if c, ok := v.(*ssa.Const); ok {
		val, found = f.consts[c.Name()]
	} else {
		val, found = f.values[v]
	}

	if !found {
		return nil, false
	}
	return val, true
}

func (b *Block) Name() string                    { return fmt.Sprintf("%d.%s", b.bb.Index, b.bb.Comment) }
func (b *Block) Instructions() []cfg.Instruction { return b.instrs }
func (b *Block) Preds() []cfg.Block              { return b.preds }
func (b *Block) Succs() []cfg.Block              { return b.succs }
func (b *Block) SSA() *ssa.BasicBlock            { return b.bb }

func (i *Instruction) Kind() cfg.Kind        { return i.kind }
func (i *Instruction) Op() string            { return i.op }
func (i *Instruction) Operands() []cfg.Value { return i.operands }
func (i *Instruction) SSA() ssa.Instruction  { return i.insn }

func (i *Instruction) Result() cfg.Value {
	if i.result == nil {
		return nil
	}
	return i.result
}

func (i *Instruction) Name() string {
	if i.result != nil {
		return i.result.Name()
	}
	return i.insn.String()
}

func (i *Instruction) String() string {
	if i.result != nil {
		return i.result.Name() + " = " + i.insn.String()
	}
	return i.insn.String()
}

func (v *Value) Name() string     { return v.v.Name() }
func (v *Value) IsConstant() bool { return v.constant }
func (v *Value) SSA() ssa.Value   { return v.v }
func (v *Value) String() string   { return v.v.Name() }
