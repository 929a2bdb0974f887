package bytecode

import "fmt"

// Bytecode is one fragment of assembled output: either the main script or a
// single function body. It is built by repeated Append calls during AST
// walking, then finalized (resolving BranchAddr/BytecodeEnd tokens from
// Label offsets, then rewriting FunctionAddr/FunctionArguments tokens)
// before Encode is called.
type Bytecode struct {
	Elements []BytecodeElement
}

// New returns an empty fragment.
func New() *Bytecode {
	return &Bytecode{}
}

// Append adds an Operation or Label to the end of the fragment.
func (b *Bytecode) Append(e BytecodeElement) {
	b.Elements = append(b.Elements, e)
}

// Length is the fragment's total encoded size in bytes, counting
// unresolved tokens at their reserved width. It is valid to call before
// finalization; the size is stable across resolution since every token
// reserves its eventual width up front.
func (b *Bytecode) Length() int {
	n := 0
	for _, e := range b.Elements {
		if op, ok := e.(Operation); ok {
			n += op.encodedLen()
		}
	}
	return n
}

// LabelOffsets computes, for every Label in the fragment, the byte offset
// (relative to the start of this fragment) of the Operation immediately
// following it. This is Pass A of finalization.
func (b *Bytecode) LabelOffsets() map[Label]int {
	offsets := make(map[Label]int)
	offset := 0
	for _, e := range b.Elements {
		switch v := e.(type) {
		case Label:
			offsets[v] = offset
		case Operation:
			offset += v.encodedLen()
		}
	}
	return offsets
}

// Operations returns the Elements index of every Operation, in source
// order, so a finalization pass can read each one with OperationAt and
// mutate operands in place via SetOperand.
func (b *Bytecode) Operations() []int {
	indices := make([]int, 0, len(b.Elements))
	for i, e := range b.Elements {
		if _, ok := e.(Operation); ok {
			indices = append(indices, i)
		}
	}
	return indices
}

// OperationAt returns the Operation stored at the given Elements index.
func (b *Bytecode) OperationAt(index int) Operation {
	return b.Elements[index].(Operation)
}

// SetOperand replaces one operand of the Operation at elemIndex, used
// during finalization to overwrite a resolved token in place.
func (b *Bytecode) SetOperand(elemIndex, operandIndex int, resolved Operand) {
	op := b.Elements[elemIndex].(Operation)
	op.Operands[operandIndex] = resolved
	b.Elements[elemIndex] = op
}

// Encode renders the fragment to its final byte stream. Every operand must
// be resolved (no FunctionAddr/BranchAddr/FunctionArguments/BytecodeEnd
// token left unresolved) or Encode returns an error identifying the first
// one found, rather than panicking.
func (b *Bytecode) Encode() ([]byte, error) {
	buf := make([]byte, 0, b.Length())
	for _, e := range b.Elements {
		op, ok := e.(Operation)
		if !ok {
			continue
		}
		if _, unresolved := op.unresolvedOperand(); unresolved {
			return nil, fmt.Errorf("bytecode: cannot encode %s: unresolved operand", op.Instruction.Name())
		}
		buf = op.appendTo(buf)
	}
	return buf, nil
}
