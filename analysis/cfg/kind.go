package cfg

// Kind is the opcode classification of an instruction.
type Kind int

const (
	// KindUnknown marks instruction shapes without a specific
	// classification. Analyses treat them conservatively.
	KindUnknown Kind = iota
	// KindBinary is a binary operator: Result = Operands[0] Op Operands[1].
	KindBinary
	// KindAssign is any other value-producing operation: copies, constants,
	// unary operators, conversions, allocations, phi nodes, etc.
	KindAssign
	// KindEffect has side effects but defines no value, e. g. a store.
	KindEffect
	KindCall
	KindBranch
	KindCondBranch
	KindReturn
)

var kindNames = [...]string{
	KindUnknown:    "unknown",
	KindBinary:     "binary",
	KindAssign:     "assign",
	KindEffect:     "effect",
	KindCall:       "call",
	KindBranch:     "br",
	KindCondBranch: "condbr",
	KindReturn:     "ret",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "invalid"
	}
	return kindNames[k]
}

// IsTerminator holds for the kinds that end a basic block.
func (k Kind) IsTerminator() bool {
	switch k {
	case KindBranch, KindCondBranch, KindReturn:
		return true
	}
	return false
}

// Defines returns the value defined by i, if i is a recognized
// value-producing instruction. Unknown instructions define nothing.
func Defines(i Instruction) (Value, bool) {
	if i.Kind() == KindUnknown {
		return nil, false
	}
	if r := i.Result(); r != nil {
		return r, true
	}
	return nil, false
}

// Uses lists the non-constant operands of i, in order, with duplicates removed.
func Uses(i Instruction) (uses []Value) {
	for _, v := range i.Operands() {
		if v == nil || v.IsConstant() {
			continue
		}
		dup := false
		for _, u := range uses {
			if u == v {
				dup = true
				break
			}
		}
		if !dup {
			uses = append(uses, v)
		}
	}
	return
}
