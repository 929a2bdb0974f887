package bytecode

// Label marks a position within a fragment (the main script, or a single
// function body) that a BranchAddrToken can target. Labels are scoped to
// the fragment they're emitted in; the compiler allocates fresh Label
// values per fragment via its own counter.
type Label uint32

// BytecodeElement is either an Operation or a Label marker placed into a
// Bytecode's element stream. Labels carry no wire bytes of their own; they
// exist only so Pass A of finalization can record, for each Label, the byte
// offset it resolved to.
type BytecodeElement interface {
	isBytecodeElement()
}

func (Operation) isBytecodeElement() {}
func (Label) isBytecodeElement()     {}
