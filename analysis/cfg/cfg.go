package cfg

import (
	"golang.org/x/tools/container/intsets"
)

// Value is a program value that instructions may define or read.
// Values are compared by identity: two operands denote the same variable
// iff they are the same interface value.
type Value interface {
	// Name is a stable, human readable identifier, e. g. "%a" or "1".
	Name() string
	// IsConstant is true for values that are never (re)defined by an
	// instruction, i. e. literals, functions, globals and builtins.
	IsConstant() bool
}

// Instruction is a single instruction of a basic block.
type Instruction interface {
	// Kind classifies the instruction.
	Kind() Kind
	// Op is the operator symbol of binary instructions. It is empty for
	// every other kind.
	Op() string
	// Operands lists the values read by the instruction, in order.
	Operands() []Value
	// Result is the value defined by the instruction, or nil if it
	// produces nothing.
	Result() Value
	// Name is a stable identifier used for diagnostics.
	Name() string
	String() string
}

// Block is a basic block: an ordered instruction sequence with a single entry.
type Block interface {
	Name() string
	Instructions() []Instruction
	Preds() []Block
	Succs() []Block
}

// Function is the control-flow graph of a single function.
type Function interface {
	Name() string
	// Blocks lists all the blocks of the function in document order.
	// The first block is the designated entry.
	Blocks() []Block
}

// Entry retrieves the designated entry block of a function, or nil if the
// function has no body.
func Entry(f Function) Block {
	if bs := f.Blocks(); len(bs) > 0 {
		return bs[0]
	}
	return nil
}

// Parameters lists the parameters of f. For functions that do not declare
// them, these are the non-constant values read but never defined by f, in
// order of first use.
func Parameters(f Function) []Value {
	if pf, ok := f.(interface{ Params() []Value }); ok {
		return pf.Params()
	}

	defined := map[Value]bool{}
	for _, b := range f.Blocks() {
		for _, i := range b.Instructions() {
			if v, ok := Defines(i); ok {
				defined[v] = true
			}
		}
	}

	var params []Value
	for _, b := range f.Blocks() {
		for _, i := range b.Instructions() {
			for _, v := range Uses(i) {
				if !defined[v] {
					defined[v] = true
					params = append(params, v)
				}
			}
		}
	}
	return params
}

// Exits retrieves all the blocks without successors, in document order.
func Exits(f Function) (exits []Block) {
	for _, b := range f.Blocks() {
		if len(b.Succs()) == 0 {
			exits = append(exits, b)
		}
	}
	return
}

// Positions maps every block of f to its index in document order.
func Positions(f Function) map[Block]int {
	pos := make(map[Block]int, len(f.Blocks()))
	for i, b := range f.Blocks() {
		pos[b] = i
	}
	return pos
}

// Reachable computes the document positions of all blocks reachable
// from the entry of f.
func Reachable(f Function) *intsets.Sparse {
	var seen intsets.Sparse
	entry := Entry(f)
	if entry == nil {
		return &seen
	}

	pos := Positions(f)
	stack := []Block{entry}
	seen.Insert(pos[entry])
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, succ := range b.Succs() {
			if seen.Insert(pos[succ]) {
				stack = append(stack, succ)
			}
		}
	}

	return &seen
}

// Unreachable lists the blocks that cannot be reached from the entry, in
// document order.
func Unreachable(f Function) (blocks []Block) {
	reach := Reachable(f)
	for i, b := range f.Blocks() {
		if !reach.Has(i) {
			blocks = append(blocks, b)
		}
	}
	return
}
