package compiler

import (
	"encoding/base64"

	"bcvm/bytecode"
)

// Finalized is the fully-resolved output of a compilation: the main
// script's fragment, every declared function's fragment keyed by name, and
// the order functions were declared in — the order their bodies are laid
// out after the main script in the final byte stream.
type Finalized struct {
	Main          *bytecode.Bytecode
	Functions     map[string]*bytecode.Bytecode
	FunctionOrder []string
}

// Bytes concatenates the main script with every function body, in
// declaration order, into the final wire format.
func (f *Finalized) Bytes() ([]byte, error) {
	out, err := f.Main.Encode()
	if err != nil {
		return nil, err
	}
	for _, name := range f.FunctionOrder {
		body, err := f.Functions[name].Encode()
		if err != nil {
			return nil, err
		}
		out = append(out, body...)
	}
	return out, nil
}

// Base64 is the CLI's on-disk representation of the bytecode.
func (f *Finalized) Base64() string {
	raw, err := f.Bytes()
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(raw)
}

// finalize runs the compiler's assembly in three passes:
//
// Pass 0 truncates every FunctionArgumentsToken's caller-register list down
// to the callee's parameter count, now that every function has been
// compiled and every functionRecord.ParamRegs is final. This has to happen
// before anything measures a fragment's length: a call site with more
// arguments than the callee takes reserves space for the untruncated list
// at emission time (the callee's parameter count isn't always known yet —
// a forward or recursive reference points at a functionRecord still being
// filled in), so the reservation has to shrink to its real size before any
// offset in the same fragment is computed from that size.
//
// Pass A resolves every BranchAddrToken to a byte offset relative to the
// start of its own fragment (the main script, or one function body —
// branch targets never cross a fragment boundary), and every
// BytecodeEndToken to that same fragment's total encoded length.
//
// Pass B lays out every function body after the main script in
// declaration order, computing each function's absolute offset from the
// start of the whole file; every FunctionAddrToken is rewritten to that
// offset, and every (already-truncated) FunctionArgumentsToken is
// rewritten to the interleaved [param_reg, caller_reg, ...] array the
// CallBytecodeFunc calling convention expects.
func (c *Compiler) finalize() (*Finalized, error) {
	fragments := map[string]*bytecode.Bytecode{"": c.main}
	for _, name := range c.funcOrder {
		fragments[name] = c.functions[name].Body
	}
	for _, frag := range fragments {
		c.truncateFunctionArguments(frag)
	}
	for _, frag := range fragments {
		resolveBranches(frag)
	}

	functionBases := make(map[string]int32)
	cumulative := int32(c.main.Length())
	for _, name := range c.funcOrder {
		functionBases[name] = cumulative
		cumulative += int32(c.functions[name].Body.Length())
	}

	for _, frag := range fragments {
		c.resolveFunctionTokens(frag, functionBases)
	}

	functions := make(map[string]*bytecode.Bytecode, len(c.funcOrder))
	for _, name := range c.funcOrder {
		functions[name] = c.functions[name].Body
	}
	return &Finalized{Main: c.main, Functions: functions, FunctionOrder: c.funcOrder}, nil
}

// truncateFunctionArguments rewrites each FunctionArgumentsToken in frag so
// its CallerRegisters holds at most one entry per callee parameter,
// dropping excess caller arguments rather than pairing them with
// register 0 (a live general-purpose register, not a sentinel) once
// interleaved in resolveFunctionTokens.
func (c *Compiler) truncateFunctionArguments(frag *bytecode.Bytecode) {
	for _, idx := range frag.Operations() {
		op := frag.OperationAt(idx)
		for operandIdx, operand := range op.Operands {
			tok, ok := operand.(bytecode.FunctionArgumentsToken)
			if !ok {
				continue
			}
			record := c.functions[tok.FunctionName]
			if len(record.ParamRegs) >= len(tok.CallerRegisters) {
				continue
			}
			frag.SetOperand(idx, operandIdx, bytecode.FunctionArgumentsToken{
				FunctionName:    tok.FunctionName,
				CallerRegisters: tok.CallerRegisters[:len(record.ParamRegs)],
			})
		}
	}
}

func resolveBranches(frag *bytecode.Bytecode) {
	offsets := frag.LabelOffsets()
	total := int32(frag.Length())
	for _, idx := range frag.Operations() {
		op := frag.OperationAt(idx)
		for operandIdx, operand := range op.Operands {
			switch tok := operand.(type) {
			case bytecode.BranchAddrToken:
				frag.SetOperand(idx, operandIdx, bytecode.LongNumOperand{Value: int32(offsets[tok.Target])})
			case bytecode.BytecodeEndToken:
				frag.SetOperand(idx, operandIdx, bytecode.LongNumOperand{Value: total})
			}
		}
	}
}

func (c *Compiler) resolveFunctionTokens(frag *bytecode.Bytecode, bases map[string]int32) {
	for _, idx := range frag.Operations() {
		op := frag.OperationAt(idx)
		for operandIdx, operand := range op.Operands {
			switch tok := operand.(type) {
			case bytecode.FunctionAddrToken:
				frag.SetOperand(idx, operandIdx, bytecode.LongNumOperand{Value: bases[tok.FunctionName]})
			case bytecode.FunctionArgumentsToken:
				record := c.functions[tok.FunctionName]
				pairCount := len(tok.CallerRegisters)
				if len(record.ParamRegs) < pairCount {
					pairCount = len(record.ParamRegs)
				}
				interleaved := make([]bytecode.Register, 0, 2*pairCount)
				for i := 0; i < pairCount; i++ {
					interleaved = append(interleaved, record.ParamRegs[i], tok.CallerRegisters[i])
				}
				frag.SetOperand(idx, operandIdx, bytecode.RegistersArrayOperand{Registers: interleaved})
			}
		}
	}
}
