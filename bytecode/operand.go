package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Operand is one argument of an Operation. Most operands carry a concrete
// value from the moment the compiler emits them; the four token operands
// (FunctionAddrToken, BranchAddrToken, FunctionArgumentsToken,
// BytecodeEndToken) are placeholders reserved at emission time and replaced
// with a concrete operand during the compiler's two-pass finalization, once
// the offset or register layout they depend on is known.
type Operand interface {
	// encodedLen is the number of bytes this operand occupies on the wire.
	// For an unresolved token it is the width reserved for its eventual
	// resolved form, so that later operands keep stable offsets.
	encodedLen() int
	// appendTo appends this operand's wire bytes to buf and returns it.
	appendTo(buf []byte) []byte
	// resolved is false only for the four token operand kinds, before
	// finalization overwrites them in place with a concrete operand.
	resolved() bool
}

// StringOperand carries a UTF-8 string, encoded as a 2-byte big-endian
// length followed by the raw bytes. The source string must not exceed 65535
// bytes.
type StringOperand struct{ Value string }

func (o StringOperand) encodedLen() int { return 2 + len(o.Value) }
func (o StringOperand) appendTo(buf []byte) []byte {
	var length [2]byte
	binary.BigEndian.PutUint16(length[:], uint16(len(o.Value)))
	buf = append(buf, length[:]...)
	return append(buf, o.Value...)
}
func (o StringOperand) resolved() bool { return true }

// FloatOperand carries a 64-bit IEEE-754 double, encoded big-endian.
type FloatOperand struct{ Value float64 }

func (o FloatOperand) encodedLen() int { return 8 }
func (o FloatOperand) appendTo(buf []byte) []byte {
	var raw [8]byte
	binary.BigEndian.PutUint64(raw[:], math.Float64bits(o.Value))
	return append(buf, raw[:]...)
}
func (o FloatOperand) resolved() bool { return true }

// LongNumOperand carries a 32-bit two's-complement integer, encoded
// big-endian. It is also the resolved form of a FunctionAddrToken or
// BranchAddrToken once an absolute byte offset is known.
type LongNumOperand struct{ Value int32 }

func (o LongNumOperand) encodedLen() int { return 4 }
func (o LongNumOperand) appendTo(buf []byte) []byte {
	var raw [4]byte
	binary.BigEndian.PutUint32(raw[:], uint32(o.Value))
	return append(buf, raw[:]...)
}
func (o LongNumOperand) resolved() bool { return true }

// ShortNumOperand carries a small integer in a single byte (a LoadNum
// literal in 0..255).
type ShortNumOperand struct{ Value uint8 }

func (o ShortNumOperand) encodedLen() int { return 1 }
func (o ShortNumOperand) appendTo(buf []byte) []byte {
	return append(buf, o.Value)
}
func (o ShortNumOperand) resolved() bool { return true }

// RegOperand names a single register in one byte.
type RegOperand struct{ Value Register }

func (o RegOperand) encodedLen() int { return 1 }
func (o RegOperand) appendTo(buf []byte) []byte {
	return append(buf, byte(o.Value))
}
func (o RegOperand) resolved() bool { return true }

// RegistersArrayOperand carries a 1-byte count followed by that many
// register bytes. It is also the resolved form of a
// FunctionArgumentsToken, once parameter/caller register pairs are known.
type RegistersArrayOperand struct{ Registers []Register }

func (o RegistersArrayOperand) encodedLen() int { return 1 + len(o.Registers) }
func (o RegistersArrayOperand) appendTo(buf []byte) []byte {
	buf = append(buf, uint8(len(o.Registers)))
	for _, r := range o.Registers {
		buf = append(buf, byte(r))
	}
	return buf
}
func (o RegistersArrayOperand) resolved() bool { return true }

// FunctionAddrToken reserves 4 bytes for the absolute byte offset of a
// function body, unknown until finalization lays out every function after
// the main script. It is emitted at every call site of a function declared
// in the program.
type FunctionAddrToken struct{ FunctionName string }

func (o FunctionAddrToken) encodedLen() int      { return 4 }
func (o FunctionAddrToken) resolved() bool       { return false }
func (o FunctionAddrToken) appendTo(buf []byte) []byte {
	panic(fmt.Sprintf("unresolved FunctionAddrToken(%s) reached encoding", o.FunctionName))
}

// BranchAddrToken reserves 4 bytes for the byte offset a Jump/JumpCond/
// JumpCondNeg instruction should land on, identified by the Label it
// targets within the same fragment.
type BranchAddrToken struct{ Target Label }

func (o BranchAddrToken) encodedLen() int { return 4 }
func (o BranchAddrToken) resolved() bool  { return false }
func (o BranchAddrToken) appendTo(buf []byte) []byte {
	panic(fmt.Sprintf("unresolved BranchAddrToken(label %d) reached encoding", o.Target))
}

// FunctionArgumentsToken reserves space for a CallBytecodeFunc's register
// array before the callee's parameter registers are known. It resolves to
// a RegistersArrayOperand twice as long as CallerRegisters, interleaved as
// [param_reg, caller_reg, param_reg, caller_reg, ...].
type FunctionArgumentsToken struct {
	FunctionName    string
	CallerRegisters []Register
}

func (o FunctionArgumentsToken) encodedLen() int { return 1 + 2*len(o.CallerRegisters) }
func (o FunctionArgumentsToken) resolved() bool  { return false }
func (o FunctionArgumentsToken) appendTo(buf []byte) []byte {
	panic(fmt.Sprintf("unresolved FunctionArgumentsToken(%s) reached encoding", o.FunctionName))
}

// BytecodeEndToken reserves 4 bytes for the total byte length of the
// fragment it appears in. The compiler emits it as the operand of the
// "stop-flow" LoadLongNum that ends each try, catch and finally block.
type BytecodeEndToken struct{}

func (o BytecodeEndToken) encodedLen() int { return 4 }
func (o BytecodeEndToken) resolved() bool  { return false }
func (o BytecodeEndToken) appendTo(buf []byte) []byte {
	panic("unresolved BytecodeEndToken reached encoding")
}
