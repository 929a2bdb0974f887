package compiler

import (
	"bcvm/ast"
	"bcvm/bytecode"
)

func (c *Compiler) VisitExpressionStmt(stmt ast.ExpressionStmt) any {
	result := c.compileExpr(stmt.Expression)
	c.release(result)
	return nil
}

func (c *Compiler) VisitVarStmt(stmt ast.VarStmt) any {
	reg, err := c.scope.Declare(stmt.Name.Lexeme)
	if err != nil {
		panic(err)
	}
	if stmt.Initializer != nil {
		c.compileInto(stmt.Initializer, reg)
	} else {
		c.emit(bytecode.Copy, bytecode.RegOperand{Value: reg}, bytecode.RegOperand{Value: bytecode.CommonLiteralUndefinedReg})
	}
	return nil
}

// withChildScope runs fn with c.scope replaced by a fresh child scope,
// restoring the previous scope and releasing the child's registers on the
// way out.
func (c *Compiler) withChildScope(fn func()) {
	parent := c.scope
	c.scope = parent.Child()
	defer func() {
		c.scope.Exit()
		c.scope = parent
	}()
	fn()
}

func (c *Compiler) VisitBlockStmt(stmt ast.BlockStmt) any {
	c.withChildScope(func() {
		for _, s := range stmt.Statements {
			c.compileTopLevelStmt(s)
		}
	})
	return nil
}

func (c *Compiler) VisitIfStmt(stmt ast.IfStmt) any {
	cond := c.compileExpr(stmt.Condition)
	elseLabel := c.freshLabel()
	c.emit(bytecode.JumpCondNeg, bytecode.RegOperand{Value: cond.Reg}, bytecode.BranchAddrToken{Target: elseLabel})
	c.release(cond)

	stmt.Then.Accept(c)

	if stmt.Else != nil {
		end := c.freshLabel()
		c.emit(bytecode.Jump, bytecode.BranchAddrToken{Target: end})
		c.emitLabel(elseLabel)
		stmt.Else.Accept(c)
		c.emitLabel(end)
	} else {
		c.emitLabel(elseLabel)
	}
	return nil
}

// compileLoopBody runs the loop's body with the given break/continue
// targets pushed, consuming any pending source label (from an enclosing
// LabeledStmt) so a labeled break/continue can find this loop.
func (c *Compiler) compileLoopBody(breakLabel, continueLabel bytecode.Label, body ast.Stmt) {
	name := c.pendingLabel
	c.pendingLabel = ""
	c.loops.push(loopContext{breakLabel: breakLabel, continueLabel: continueLabel, name: name})
	body.Accept(c)
	c.loops.pop()
}

func (c *Compiler) VisitWhileStmt(stmt ast.WhileStmt) any {
	start := c.freshLabel()
	end := c.freshLabel()
	c.emitLabel(start)
	cond := c.compileExpr(stmt.Condition)
	c.emit(bytecode.JumpCondNeg, bytecode.RegOperand{Value: cond.Reg}, bytecode.BranchAddrToken{Target: end})
	c.release(cond)
	c.compileLoopBody(end, start, stmt.Body)
	c.emit(bytecode.Jump, bytecode.BranchAddrToken{Target: start})
	c.emitLabel(end)
	return nil
}

func (c *Compiler) VisitDoWhileStmt(stmt ast.DoWhileStmt) any {
	start := c.freshLabel()
	condLabel := c.freshLabel()
	end := c.freshLabel()
	c.emitLabel(start)
	c.compileLoopBody(end, condLabel, stmt.Body)
	c.emitLabel(condLabel)
	cond := c.compileExpr(stmt.Condition)
	c.emit(bytecode.JumpCond, bytecode.RegOperand{Value: cond.Reg}, bytecode.BranchAddrToken{Target: start})
	c.release(cond)
	c.emitLabel(end)
	return nil
}

func (c *Compiler) VisitForStmt(stmt ast.ForStmt) any {
	c.withChildScope(func() {
		if stmt.Init != nil {
			stmt.Init.Accept(c)
		}
		condLabel := c.freshLabel()
		postLabel := c.freshLabel()
		end := c.freshLabel()

		c.emitLabel(condLabel)
		if stmt.Condition != nil {
			cond := c.compileExpr(stmt.Condition)
			c.emit(bytecode.JumpCondNeg, bytecode.RegOperand{Value: cond.Reg}, bytecode.BranchAddrToken{Target: end})
			c.release(cond)
		}
		c.compileLoopBody(end, postLabel, stmt.Body)
		c.emitLabel(postLabel)
		if stmt.Post != nil {
			post := c.compileExpr(stmt.Post)
			c.release(post)
		}
		c.emit(bytecode.Jump, bytecode.BranchAddrToken{Target: condLabel})
		c.emitLabel(end)
	})
	return nil
}

func (c *Compiler) VisitReturnStmt(stmt ast.ReturnStmt) any {
	if !c.inFunction {
		panic(SemanticError{Message: "'return' outside of a function"})
	}
	usedDecls := bytecode.RegistersArrayOperand{Registers: c.scope.UsedDeclRegisters()}
	if stmt.Value == nil {
		c.emit(bytecode.ReturnBytecodeFunc, bytecode.RegOperand{Value: bytecode.CommonLiteralUndefinedReg}, usedDecls)
		return nil
	}
	value := c.compileExpr(stmt.Value)
	c.emit(bytecode.ReturnBytecodeFunc, bytecode.RegOperand{Value: value.Reg}, usedDecls)
	c.release(value)
	return nil
}

func (c *Compiler) VisitBreakStmt(stmt ast.BreakStmt) any {
	ctx, ok := c.loopTarget(stmt.Label)
	if !ok {
		panic(SemanticError{Message: "'break' outside of a loop"})
	}
	c.emit(bytecode.Jump, bytecode.BranchAddrToken{Target: ctx.breakLabel})
	return nil
}

func (c *Compiler) VisitContinueStmt(stmt ast.ContinueStmt) any {
	ctx, ok := c.loopTarget(stmt.Label)
	if !ok {
		panic(SemanticError{Message: "'continue' outside of a loop"})
	}
	c.emit(bytecode.Jump, bytecode.BranchAddrToken{Target: ctx.continueLabel})
	return nil
}

func (c *Compiler) loopTarget(label string) (loopContext, bool) {
	if label == "" {
		return c.loops.top()
	}
	return c.loops.find(label)
}

func (c *Compiler) VisitLabeledStmt(stmt ast.LabeledStmt) any {
	c.pendingLabel = stmt.Label.Lexeme
	stmt.Body.Accept(c)
	c.pendingLabel = ""
	return nil
}

func (c *Compiler) VisitThrowStmt(stmt ast.ThrowStmt) any {
	value := c.compileExpr(stmt.Value)
	c.emit(bytecode.Throw, bytecode.RegOperand{Value: value.Reg})
	c.release(value)
	return nil
}

// VisitTryStmt compiles a try/catch/finally using the Try instruction to
// register the catch register and the catch/finally entry points with the
// VM for the duration of the protected block: Try's operands are the
// register the VM deposits a thrown value into, and the byte offsets
// execution should resume at on a thrown exception (the catch block, or
// the finally block if there is no catch) and on normal completion of the
// finally block. Each of the try, catch and finally blocks ends with a
// "stop-flow" sentinel — LoadLongNum bytecode_pointer_reg, BytecodeEnd —
// rather than an ordinary Jump, since the bytecode-pointer register is how
// this VM's dispatch loop is told where to resume instead of falling
// through. The exact exception-dispatch contract beyond "these are
// distinct, reachable offsets" is left to the VM this bytecode targets;
// the compiler's job is only to emit them consistently.
func (c *Compiler) VisitTryStmt(stmt ast.TryStmt) any {
	catchLabel := c.freshLabel()
	finallyLabel := c.freshLabel()

	catchReg, err := c.scope.AllocTemp()
	if err != nil {
		panic(err)
	}
	throwTarget := catchLabel
	if stmt.CatchBlock == nil {
		throwTarget = finallyLabel
	}
	c.emit(bytecode.Try,
		bytecode.RegOperand{Value: catchReg},
		bytecode.BranchAddrToken{Target: throwTarget},
		bytecode.BranchAddrToken{Target: finallyLabel},
	)

	c.withChildScope(func() {
		for _, s := range stmt.Block.Statements {
			c.compileTopLevelStmt(s)
		}
	})
	c.emit(bytecode.LoadLongNum, bytecode.RegOperand{Value: bytecode.BytecodePointerReg}, bytecode.BytecodeEndToken{})

	c.emitLabel(catchLabel)
	if stmt.CatchBlock != nil {
		c.withChildScope(func() {
			if stmt.CatchParam != nil {
				if declErr := c.scope.DeclareAt(stmt.CatchParam.Lexeme, catchReg); declErr != nil {
					panic(declErr)
				}
			}
			for _, s := range stmt.CatchBlock.Statements {
				c.compileTopLevelStmt(s)
			}
		})
	} else {
		c.scope.ReleaseTemp(catchReg)
	}
	c.emit(bytecode.LoadLongNum, bytecode.RegOperand{Value: bytecode.BytecodePointerReg}, bytecode.BytecodeEndToken{})

	c.emitLabel(finallyLabel)
	if stmt.Finally != nil {
		c.withChildScope(func() {
			for _, s := range stmt.Finally.Statements {
				c.compileTopLevelStmt(s)
			}
		})
	}
	c.emit(bytecode.LoadLongNum, bytecode.RegOperand{Value: bytecode.BytecodePointerReg}, bytecode.BytecodeEndToken{})
	return nil
}

func (c *Compiler) VisitFunctionDecl(stmt ast.FunctionDecl) any {
	// Bodies are compiled up front by hoistFunctionDecls; nothing to do
	// when the declaration is reached in statement order.
	return nil
}

func (c *Compiler) VisitUnsupportedStmt(stmt ast.UnsupportedStmt) any {
	panic(UnsupportedFeatureError{Feature: stmt.Kind, Line: stmt.Token.Line})
}
