package compiler

import (
	"bcvm/ast"
	"bcvm/bytecode"
	"bcvm/token"
)

// exprResult is what every ExpressionVisitor method returns (boxed in the
// `any` the ast.ExpressionVisitor interface requires): the register
// holding the expression's value, and whether that register is a
// temporary the caller should release once it has consumed the value.
// Identifiers and the three common-literal registers are never temps —
// releasing them would corrupt a live variable or a shared literal.
type exprResult struct {
	Reg    bytecode.Register
	IsTemp bool
}

func (c *Compiler) compileExpr(e ast.Expression) exprResult {
	return e.Accept(c).(exprResult)
}

// release returns a result's register to the pool if it was a temporary.
func (c *Compiler) release(r exprResult) {
	if r.IsTemp {
		c.scope.ReleaseTemp(r.Reg)
	}
}

// compileInto compiles e and ensures its value ends up in dest, copying
// only when the expression's natural register differs from dest — the
// "maybe compile" pattern that avoids a spurious Copy when e already
// computes straight into the register the caller wanted (e.g. a variable
// declaration's initializer compiling directly into the new variable's
// register).
func (c *Compiler) compileInto(e ast.Expression, dest bytecode.Register) {
	result := c.compileExpr(e)
	if result.Reg != dest {
		c.emit(bytecode.Copy, bytecode.RegOperand{Value: dest}, bytecode.RegOperand{Value: result.Reg})
	}
	c.release(result)
}

func (c *Compiler) VisitLiteral(literal ast.Literal) any {
	switch v := literal.Value.(type) {
	case nil:
		return exprResult{Reg: bytecode.CommonLiteralUndefinedReg}
	case ast.Undefined:
		return exprResult{Reg: bytecode.CommonLiteralUndefinedReg}
	case bool:
		if v {
			return exprResult{Reg: bytecode.CommonLiteralOneReg}
		}
		return exprResult{Reg: bytecode.CommonLiteralZeroReg}
	case string:
		dest, err := c.scope.AllocTemp()
		if err != nil {
			panic(err)
		}
		c.emit(bytecode.LoadString, bytecode.RegOperand{Value: dest}, bytecode.StringOperand{Value: v})
		return exprResult{Reg: dest, IsTemp: true}
	case int64:
		if v == 0 {
			return exprResult{Reg: bytecode.CommonLiteralZeroReg}
		}
		if v == 1 {
			return exprResult{Reg: bytecode.CommonLiteralOneReg}
		}
		dest, err := c.scope.AllocTemp()
		if err != nil {
			panic(err)
		}
		if bytecode.FitsShortNum(v) {
			c.emit(bytecode.LoadNum, bytecode.RegOperand{Value: dest}, bytecode.ShortNumOperand{Value: uint8(v)})
		} else {
			c.emit(bytecode.LoadLongNum, bytecode.RegOperand{Value: dest}, bytecode.LongNumOperand{Value: int32(v)})
		}
		return exprResult{Reg: dest, IsTemp: true}
	case float64:
		dest, err := c.scope.AllocTemp()
		if err != nil {
			panic(err)
		}
		c.emit(bytecode.LoadFloatNum, bytecode.RegOperand{Value: dest}, bytecode.FloatOperand{Value: v})
		return exprResult{Reg: dest, IsTemp: true}
	default:
		panic(CustomError{Message: "literal of unhandled Go type reached the compiler"})
	}
}

func (c *Compiler) VisitIdentifier(identifier ast.Identifier) any {
	reg, err := c.resolveIdentifier(identifier.Name.Lexeme)
	if err != nil {
		panic(err)
	}
	return exprResult{Reg: reg}
}

func (c *Compiler) VisitGrouping(grouping ast.Grouping) any {
	return c.compileExpr(grouping.Expression)
}

func (c *Compiler) VisitBinary(binary ast.Binary) any {
	left := c.compileExpr(binary.Left)
	right := c.compileExpr(binary.Right)
	instr, err := binaryInstructionFor(binary.Operator.TokenType)
	if err != nil {
		panic(err)
	}
	dest, allocErr := c.scope.AllocTemp()
	if allocErr != nil {
		panic(allocErr)
	}
	c.emit(instr, bytecode.RegOperand{Value: dest}, bytecode.RegOperand{Value: left.Reg}, bytecode.RegOperand{Value: right.Reg})
	c.release(left)
	c.release(right)
	return exprResult{Reg: dest, IsTemp: true}
}

func (c *Compiler) VisitLogical(logical ast.Logical) any {
	dest, err := c.scope.AllocTemp()
	if err != nil {
		panic(err)
	}
	c.compileInto(logical.Left, dest)
	end := c.freshLabel()
	if logical.Operator.TokenType == token.AND_AND {
		c.emit(bytecode.JumpCondNeg, bytecode.RegOperand{Value: dest}, bytecode.BranchAddrToken{Target: end})
	} else {
		c.emit(bytecode.JumpCond, bytecode.RegOperand{Value: dest}, bytecode.BranchAddrToken{Target: end})
	}
	c.compileInto(logical.Right, dest)
	c.emitLabel(end)
	return exprResult{Reg: dest, IsTemp: true}
}

// VisitUnary implements "-x", "+x", "!x" and "void x" in terms of the
// arithmetic/equality instructions the target machine actually has: there
// is no dedicated negate, unary-plus or logical-not opcode, so "-x"
// compiles to "0 - x", "+x" to "0 + x", and "!x" to "x == 0". "void x"
// likewise has no dedicated opcode, but its value is always the
// undefined-register regardless of what x evaluates to, so it compiles to
// "evaluate x for its side effects, then yield undefined". "typeof"/
// "delete" have no bytecode representation at all and are rejected here
// rather than in the parser, since syntactically they're ordinary unary
// expressions.
func (c *Compiler) VisitUnary(unary ast.Unary) any {
	switch unary.Operator.TokenType {
	case token.SUB:
		right := c.compileExpr(unary.Right)
		dest, err := c.scope.AllocTemp()
		if err != nil {
			panic(err)
		}
		c.emit(bytecode.Minus, bytecode.RegOperand{Value: dest}, bytecode.RegOperand{Value: bytecode.CommonLiteralZeroReg}, bytecode.RegOperand{Value: right.Reg})
		c.release(right)
		return exprResult{Reg: dest, IsTemp: true}
	case token.ADD:
		right := c.compileExpr(unary.Right)
		dest, err := c.scope.AllocTemp()
		if err != nil {
			panic(err)
		}
		c.emit(bytecode.Add, bytecode.RegOperand{Value: dest}, bytecode.RegOperand{Value: bytecode.CommonLiteralZeroReg}, bytecode.RegOperand{Value: right.Reg})
		c.release(right)
		return exprResult{Reg: dest, IsTemp: true}
	case token.BANG:
		right := c.compileExpr(unary.Right)
		dest, err := c.scope.AllocTemp()
		if err != nil {
			panic(err)
		}
		c.emit(bytecode.Equal, bytecode.RegOperand{Value: dest}, bytecode.RegOperand{Value: right.Reg}, bytecode.RegOperand{Value: bytecode.CommonLiteralZeroReg})
		c.release(right)
		return exprResult{Reg: dest, IsTemp: true}
	case token.VOID:
		right := c.compileExpr(unary.Right)
		c.release(right)
		return exprResult{Reg: bytecode.CommonLiteralUndefinedReg}
	default:
		panic(UnsupportedFeatureError{Feature: unary.Operator.Lexeme, Line: unary.Operator.Line})
	}
}

// VisitUpdate implements prefix "++x"/"--x": the target is read, advanced
// by the common-literal-1 register, written back, and the new value is
// returned (prefix semantics).
func (c *Compiler) VisitUpdate(update ast.Update) any {
	op := updateDelta(update.Operator.TokenType)
	instr, _ := binaryInstructionFor(op)

	switch target := update.Target.(type) {
	case ast.Identifier:
		reg, err := c.resolveIdentifier(target.Name.Lexeme)
		if err != nil {
			panic(err)
		}
		c.emit(instr, bytecode.RegOperand{Value: reg}, bytecode.RegOperand{Value: reg}, bytecode.RegOperand{Value: bytecode.CommonLiteralOneReg})
		return exprResult{Reg: reg}
	case ast.Member:
		objReg, propReg := c.compileMemberTarget(target)
		dest, err := c.scope.AllocTemp()
		if err != nil {
			panic(err)
		}
		c.emit(bytecode.PropAccess, bytecode.RegOperand{Value: dest}, objReg, propReg)
		c.emit(instr, bytecode.RegOperand{Value: dest}, bytecode.RegOperand{Value: dest}, bytecode.RegOperand{Value: bytecode.CommonLiteralOneReg})
		c.emit(bytecode.PropertySet, objReg, propReg, bytecode.RegOperand{Value: dest})
		return exprResult{Reg: dest, IsTemp: true}
	default:
		panic(CustomError{Message: "update target must be an identifier or member expression"})
	}
}

func (c *Compiler) VisitAssign(assign ast.Assign) any {
	switch target := assign.Target.(type) {
	case ast.Identifier:
		reg, err := c.resolveIdentifier(target.Name.Lexeme)
		if err != nil {
			panic(err)
		}
		if assign.Operator.TokenType == token.ASSIGN {
			c.compileInto(assign.Value, reg)
			return exprResult{Reg: reg}
		}
		op, _ := compoundAssignBinaryOp(assign.Operator.TokenType)
		instr, err := binaryInstructionFor(op)
		if err != nil {
			panic(err)
		}
		rhs := c.compileExpr(assign.Value)
		c.emit(instr, bytecode.RegOperand{Value: reg}, bytecode.RegOperand{Value: reg}, bytecode.RegOperand{Value: rhs.Reg})
		c.release(rhs)
		return exprResult{Reg: reg}
	case ast.Member:
		objReg, propReg := c.compileMemberTarget(target)
		if assign.Operator.TokenType == token.ASSIGN {
			value := c.compileExpr(assign.Value)
			c.emit(bytecode.PropertySet, objReg, propReg, bytecode.RegOperand{Value: value.Reg})
			return value
		}
		op, _ := compoundAssignBinaryOp(assign.Operator.TokenType)
		instr, err := binaryInstructionFor(op)
		if err != nil {
			panic(err)
		}
		dest, allocErr := c.scope.AllocTemp()
		if allocErr != nil {
			panic(allocErr)
		}
		c.emit(bytecode.PropAccess, bytecode.RegOperand{Value: dest}, objReg, propReg)
		rhs := c.compileExpr(assign.Value)
		c.emit(instr, bytecode.RegOperand{Value: dest}, bytecode.RegOperand{Value: dest}, bytecode.RegOperand{Value: rhs.Reg})
		c.release(rhs)
		c.emit(bytecode.PropertySet, objReg, propReg, bytecode.RegOperand{Value: dest})
		return exprResult{Reg: dest, IsTemp: true}
	default:
		panic(SemanticError{Message: "invalid assignment target"})
	}
}

func (c *Compiler) VisitConditional(cond ast.Conditional) any {
	dest, err := c.scope.AllocTemp()
	if err != nil {
		panic(err)
	}
	condResult := c.compileExpr(cond.Condition)
	elseLabel := c.freshLabel()
	end := c.freshLabel()
	c.emit(bytecode.JumpCondNeg, bytecode.RegOperand{Value: condResult.Reg}, bytecode.BranchAddrToken{Target: elseLabel})
	c.release(condResult)
	c.compileInto(cond.Then, dest)
	c.emit(bytecode.Jump, bytecode.BranchAddrToken{Target: end})
	c.emitLabel(elseLabel)
	c.compileInto(cond.Else, dest)
	c.emitLabel(end)
	return exprResult{Reg: dest, IsTemp: true}
}

// VisitCall distinguishes a call to a function declared in this program
// (compiled via CallBytecodeFunc, linked to its body's eventual offset by
// finalization) from a call through an arbitrary expression value — a
// captured function, or a host/builtin function — compiled via the
// dynamic CallFunc instruction instead.
func (c *Compiler) VisitCall(call ast.Call) any {
	if ident, ok := call.Callee.(ast.Identifier); ok {
		if record, known := c.functions[ident.Name.Lexeme]; known {
			return c.compileBytecodeFuncCall(record, call.Arguments)
		}
	}

	callee := c.compileExpr(call.Callee)
	var argRegs []bytecode.Register
	var argResults []exprResult
	for _, argExpr := range call.Arguments {
		r := c.compileExpr(argExpr)
		argResults = append(argResults, r)
		argRegs = append(argRegs, r.Reg)
	}
	dest, err := c.scope.AllocTemp()
	if err != nil {
		panic(err)
	}
	c.emit(bytecode.CallFunc, bytecode.RegOperand{Value: dest}, bytecode.RegOperand{Value: callee.Reg}, bytecode.RegistersArrayOperand{Registers: argRegs})
	c.release(callee)
	for _, r := range argResults {
		c.release(r)
	}
	return exprResult{Reg: dest, IsTemp: true}
}

func (c *Compiler) compileBytecodeFuncCall(record *functionRecord, arguments []ast.Expression) any {
	var argRegs []bytecode.Register
	var argResults []exprResult
	for _, argExpr := range arguments {
		r := c.compileExpr(argExpr)
		argResults = append(argResults, r)
		argRegs = append(argRegs, r.Reg)
	}
	c.emit(bytecode.CallBytecodeFunc,
		bytecode.FunctionAddrToken{FunctionName: record.Name},
		bytecode.FunctionArgumentsToken{FunctionName: record.Name, CallerRegisters: argRegs},
	)
	for _, r := range argResults {
		c.release(r)
	}
	// By convention the callee leaves its return value in the trash
	// register (ReturnBytecodeFunc's operand); the caller copies it out
	// immediately so a second call can't clobber it first.
	dest, err := c.scope.AllocTemp()
	if err != nil {
		panic(err)
	}
	c.emit(bytecode.Copy, bytecode.RegOperand{Value: dest}, bytecode.RegOperand{Value: bytecode.TrashReg})
	return exprResult{Reg: dest, IsTemp: true}
}

// compileMemberTarget compiles a Member expression's object and property
// down to the registers a PropAccess/PropertySet instruction needs,
// without reading the property's current value.
func (c *Compiler) compileMemberTarget(member ast.Member) (bytecode.Operand, bytecode.Operand) {
	obj := c.compileExpr(member.Object)
	if !member.Computed {
		ident, ok := member.Property.(ast.Identifier)
		if !ok {
			panic(CustomError{Message: "non-computed member property must be an identifier"})
		}
		propReg, err := c.scope.AllocTemp()
		if err != nil {
			panic(err)
		}
		c.emit(bytecode.LoadString, bytecode.RegOperand{Value: propReg}, bytecode.StringOperand{Value: ident.Name.Lexeme})
		return bytecode.RegOperand{Value: obj.Reg}, bytecode.RegOperand{Value: propReg}
	}
	prop := c.compileExpr(member.Property)
	return bytecode.RegOperand{Value: obj.Reg}, bytecode.RegOperand{Value: prop.Reg}
}

func (c *Compiler) VisitMember(member ast.Member) any {
	objOperand, propOperand := c.compileMemberTarget(member)
	dest, err := c.scope.AllocTemp()
	if err != nil {
		panic(err)
	}
	c.emit(bytecode.PropAccess, bytecode.RegOperand{Value: dest}, objOperand, propOperand)
	return exprResult{Reg: dest, IsTemp: true}
}

// VisitArray compiles each element into its own register, then emits a
// single LoadArray carrying all of them as a RegistersArray operand — the
// array is built with its initial elements in one instruction, rather than
// allocated empty and filled in with one PropertySet per index.
func (c *Compiler) VisitArray(array ast.Array) any {
	if len(array.Elements) > 255 {
		panic(CustomError{Message: "array literal exceeds 255 elements"})
	}
	elemRegs := make([]bytecode.Register, len(array.Elements))
	elemResults := make([]exprResult, len(array.Elements))
	for i, elemExpr := range array.Elements {
		elem := c.compileExpr(elemExpr)
		elemResults[i] = elem
		elemRegs[i] = elem.Reg
	}
	dest, err := c.scope.AllocTemp()
	if err != nil {
		panic(err)
	}
	c.emit(bytecode.LoadArray, bytecode.RegOperand{Value: dest}, bytecode.RegistersArrayOperand{Registers: elemRegs})
	for _, elem := range elemResults {
		c.release(elem)
	}
	return exprResult{Reg: dest, IsTemp: true}
}

func (c *Compiler) VisitUnsupportedExpr(expr ast.UnsupportedExpr) any {
	panic(UnsupportedFeatureError{Feature: expr.Kind, Line: expr.Token.Line})
}
