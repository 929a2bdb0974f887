package compiler

import (
	"bcvm/bytecode"
	"bcvm/token"
)

// binaryInstructionFor maps a binary/comparison operator token to the
// Instruction that implements it. This is the compiler's one place of
// truth for operator-to-opcode mapping, so every call site (Binary
// expressions, compound assignment's implicit binary op) goes through it
// instead of re-deriving the mapping inline.
func binaryInstructionFor(op token.TokenType) (bytecode.Instruction, error) {
	switch op {
	case token.ADD:
		return bytecode.Add, nil
	case token.SUB:
		return bytecode.Minus, nil
	case token.MULT:
		return bytecode.Mul, nil
	case token.DIV:
		return bytecode.Div, nil
	case token.EQUAL_EQUAL:
		return bytecode.Equal, nil
	case token.NOT_EQUAL:
		return bytecode.NotEqual, nil
	case token.STRICT_EQ:
		return bytecode.StrictEqual, nil
	case token.STRICT_NEQ:
		return bytecode.StrictNotEqual, nil
	case token.LESS:
		return bytecode.LessThan, nil
	case token.LARGER:
		return bytecode.GreaterThan, nil
	case token.LESS_EQUAL:
		return bytecode.LessThanEqual, nil
	case token.LARGER_EQUAL:
		return bytecode.GreaterThanEqual, nil
	default:
		return 0, CustomError{Message: "no binary instruction for operator " + string(op)}
	}
}

// compoundAssignBinaryOp maps a compound-assignment operator ("+=", "-=",
// "*=", "/=") to the binary operator it implicitly performs before storing
// the result back into the target.
func compoundAssignBinaryOp(op token.TokenType) (token.TokenType, bool) {
	switch op {
	case token.PLUS_ASSIGN:
		return token.ADD, true
	case token.MINUS_ASSIGN:
		return token.SUB, true
	case token.STAR_ASSIGN:
		return token.MULT, true
	case token.SLASH_ASSIGN:
		return token.DIV, true
	default:
		return "", false
	}
}

// updateDelta maps a prefix "++"/"--" operator to the binary operator
// (ADD with common-literal-1, or SUB with common-literal-1) that advances
// the target by one.
func updateDelta(op token.TokenType) token.TokenType {
	if op == token.INCREMENT {
		return token.ADD
	}
	return token.SUB
}
