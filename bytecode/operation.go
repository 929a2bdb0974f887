package bytecode

import "fmt"

// Operation is one instruction together with its operands, in source
// order. A freshly emitted Operation may carry unresolved token operands;
// by the time a Bytecode is Encode()d every operand must be resolved.
type Operation struct {
	Instruction Instruction
	Operands    []Operand
}

// NewOperation builds an Operation, asserting that the operand count
// matches the instruction's fixed shape. This catches a compiler bug (the
// wrong number of operands emitted for an opcode) before it ever reaches
// the wire.
func NewOperation(instr Instruction, operands ...Operand) Operation {
	if want, ok := operandCounts[instr]; ok && want != len(operands) {
		panic(fmt.Sprintf("bytecode: %s takes %d operands, got %d", instr.Name(), want, len(operands)))
	}
	return Operation{Instruction: instr, Operands: operands}
}

// encodedLen is the number of bytes this operation occupies: one opcode
// byte plus each operand's width (reserved width, for an unresolved
// token).
func (op Operation) encodedLen() int {
	n := 1
	for _, operand := range op.Operands {
		n += operand.encodedLen()
	}
	return n
}

func (op Operation) unresolvedOperand() (Operand, bool) {
	for _, operand := range op.Operands {
		if !operand.resolved() {
			return operand, true
		}
	}
	return nil, false
}

func (op Operation) appendTo(buf []byte) []byte {
	buf = append(buf, byte(op.Instruction))
	for _, operand := range op.Operands {
		buf = operand.appendTo(buf)
	}
	return buf
}
