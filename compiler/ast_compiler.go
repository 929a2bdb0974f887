// Package compiler walks the AST produced by the parser and emits
// register-machine bytecode, following the same "visit the tree, emit
// instructions as you go" shape as the stack-machine compiler this was
// grounded on, generalized to a register-based instruction set with a
// two-pass finalization step for forward references (branch targets and
// function addresses).
package compiler

import (
	"fmt"
	"os"
	"strings"

	"bcvm/ast"
	"bcvm/bytecode"
)

// functionRecord is the phantom entry for a declared function: registered
// with a nil Body the moment its declaration is seen (so a call to it
// compiles cleanly wherever it appears, including recursive or
// forward-referencing calls), then filled in once its body has actually
// been walked.
type functionRecord struct {
	Name       string
	Params     []string
	ParamRegs  []bytecode.Register
	Body       *bytecode.Bytecode
}

// Compiler walks a parsed Program and produces its bytecode. It implements
// both ast.ExpressionVisitor and ast.StmtVisitor; Visit methods panic with
// a SemanticError/UnsupportedFeatureError/CustomError on failure, caught
// and converted back to a plain error by CompileProgram's recover, mirroring
// the per-statement panic/recover idiom this package was grounded on.
type Compiler struct {
	pool  *RegisterPool
	scope *Scope

	main     *bytecode.Bytecode
	current  *bytecode.Bytecode // fragment currently being emitted into
	labels   *labelAllocator
	loops    loopStack
	pendingLabel string // set by VisitLabeledStmt just before compiling a loop

	functions map[string]*functionRecord
	funcOrder []string
	inFunction bool

	// dependencies is the set described in §9's "scope-crossing references"
	// design note: identifiers that resolve neither to a local/ancestor
	// declaration nor to a declared bytecode function are assumed to be
	// bindings the composer will splice in later (VM built-ins, host
	// functions). Each gets one register, allocated the first time it is
	// referenced and never reused for anything else.
	dependencies map[string]bytecode.Register
}

// New creates a Compiler ready to compile one Program.
func New() *Compiler {
	pool := NewRegisterPool()
	return &Compiler{
		pool:         pool,
		scope:        NewRootScope(pool),
		main:         bytecode.New(),
		labels:       &labelAllocator{},
		functions:    make(map[string]*functionRecord),
		dependencies: make(map[string]bytecode.Register),
	}
}

// DeclaredDependencies returns the external identifier → register mapping
// discovered while compiling, for the composer to bind. Only meaningful
// after a successful CompileProgram.
func (c *Compiler) DeclaredDependencies() map[string]bytecode.Register {
	out := make(map[string]bytecode.Register, len(c.dependencies))
	for name, reg := range c.dependencies {
		out[name] = reg
	}
	return out
}

// resolveIdentifier looks name up in the current scope chain. A name found
// nowhere in scope, and not the name of a declared bytecode function, is
// treated as externally provided: it gets a fresh register, permanently
// captured so no later allocation can collide with the binding the
// composer will insert, and is recorded in the dependency set.
func (c *Compiler) resolveIdentifier(name string) (bytecode.Register, error) {
	if reg, ok := c.scope.Resolve(name); ok {
		return reg, nil
	}
	if reg, ok := c.dependencies[name]; ok {
		return reg, nil
	}
	if _, isFunction := c.functions[name]; isFunction {
		return 0, SemanticError{Message: "function '" + name + "' cannot be used as a plain value"}
	}
	reg, ok := c.pool.AllocFront()
	if !ok {
		return 0, CustomError{Message: "register pool exhausted reserving external dependency '" + name + "'"}
	}
	c.pool.Capture(reg)
	c.dependencies[name] = reg
	return reg, nil
}

// emit appends one operation to whichever fragment is currently active
// (the main script, or the body of the function presently being
// compiled).
func (c *Compiler) emit(instr bytecode.Instruction, operands ...bytecode.Operand) {
	c.current.Append(bytecode.NewOperation(instr, operands...))
}

func (c *Compiler) emitLabel(l bytecode.Label) {
	c.current.Append(l)
}

func (c *Compiler) freshLabel() bytecode.Label {
	return c.labels.fresh()
}

// CompileProgram compiles every top-level statement, links every declared
// function's body, and returns the finalized, fully-resolved bytecode
// ready for Encode.
func (c *Compiler) CompileProgram(program ast.Program) (finalized *Finalized, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case UnsupportedFeatureError:
				err = v
			case SemanticError:
				err = v
			case CustomError:
				err = v
			default:
				panic(r)
			}
		}
	}()

	c.current = c.main
	c.hoistFunctionDecls(program.Statements)

	for _, stmt := range program.Statements {
		c.compileTopLevelStmt(stmt)
	}
	c.emit(bytecode.Exit)

	return c.finalize()
}

// compileTopLevelStmt skips FunctionDecl nodes at the point they're
// reached in statement order: their bodies were already compiled by
// hoistFunctionDecls (via compileFunctionBody), consulted from the phantom
// functionRecord registered during hoisting.
func (c *Compiler) compileTopLevelStmt(stmt ast.Stmt) {
	if _, ok := stmt.(ast.FunctionDecl); ok {
		return
	}
	stmt.Accept(c)
}

// hoistFunctionDecls walks the statement tree (including nested blocks,
// matching how the supported subset allows a function declaration
// anywhere a statement can appear) registering every function name before
// any body is compiled, so a call site anywhere in the program — including
// inside the function itself, for recursion — resolves cleanly. Each
// function's body is compiled immediately after its phantom record is
// registered, in declaration order, into its own fragment.
func (c *Compiler) hoistFunctionDecls(stmts []ast.Stmt) {
	var decls []ast.FunctionDecl
	var walk func(stmts []ast.Stmt)
	walk = func(stmts []ast.Stmt) {
		for _, stmt := range stmts {
			switch s := stmt.(type) {
			case ast.FunctionDecl:
				decls = append(decls, s)
				walk(s.Body.Statements)
			case ast.BlockStmt:
				walk(s.Statements)
			case ast.WhileStmt:
				walk([]ast.Stmt{s.Body})
			case ast.DoWhileStmt:
				walk([]ast.Stmt{s.Body})
			case ast.ForStmt:
				walk([]ast.Stmt{s.Body})
			case ast.LabeledStmt:
				walk([]ast.Stmt{s.Body})
			case ast.TryStmt:
				walk(s.Block.Statements)
				if s.CatchBlock != nil {
					walk(s.CatchBlock.Statements)
				}
				if s.Finally != nil {
					walk(s.Finally.Statements)
				}
			case ast.IfStmt:
				if s.Then != nil {
					walk([]ast.Stmt{s.Then})
				}
				if s.Else != nil {
					walk([]ast.Stmt{s.Else})
				}
			}
		}
	}
	walk(stmts)

	for _, decl := range decls {
		name := decl.Name.Lexeme
		if _, exists := c.functions[name]; exists {
			panic(SemanticError{Message: "function '" + name + "' is already declared"})
		}
		var params []string
		for _, p := range decl.Params {
			params = append(params, p.Lexeme)
		}
		c.functions[name] = &functionRecord{Name: name, Params: params}
		c.funcOrder = append(c.funcOrder, name)
	}
	for _, decl := range decls {
		c.compileFunctionBody(decl)
	}
}

// compileFunctionBody compiles one function's body into its own fragment,
// binding each parameter to a front-allocated register in a child of a
// brand-new root scope. The function body sees none of the program's
// declarations, top level included: a name it does not declare itself
// resolves through resolveIdentifier's external-dependency path.
func (c *Compiler) compileFunctionBody(decl ast.FunctionDecl) {
	record := c.functions[decl.Name.Lexeme]

	savedCurrent, savedScope, savedLoops, savedLabels, savedInFunc := c.current, c.scope, c.loops, c.labels, c.inFunction
	defer func() {
		c.current, c.scope, c.loops, c.labels, c.inFunction = savedCurrent, savedScope, savedLoops, savedLabels, savedInFunc
	}()

	c.current = bytecode.New()
	c.scope = NewRootScope(c.pool).Child() // fresh scope chain rooted independently of caller scopes
	c.loops = nil
	c.labels = &labelAllocator{}
	c.inFunction = true

	for _, param := range decl.Params {
		reg, err := c.scope.Declare(param.Lexeme)
		if err != nil {
			panic(err)
		}
		record.ParamRegs = append(record.ParamRegs, reg)
	}
	for _, stmt := range decl.Body.Statements {
		c.compileTopLevelStmt(stmt)
	}
	// Fall off the end of a function body without an explicit return:
	// return undefined.
	c.emit(bytecode.ReturnBytecodeFunc,
		bytecode.RegOperand{Value: bytecode.CommonLiteralUndefinedReg},
		bytecode.RegistersArrayOperand{Registers: c.scope.UsedDeclRegisters()},
	)

	record.Body = c.current
}

// DumpBytecode writes the finalized, base64-encoded bytecode to disk.
func DumpBytecode(f *Finalized, filePath string) error {
	if filePath == "" {
		filePath = "bytecode.base64"
	}
	fd, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("error creating bytecode file: %s", err.Error())
	}
	defer fd.Close()
	_, err = fd.WriteString(f.Base64())
	return err
}

// Disassemble renders the finalized bytecode's operations as a
// human-readable instruction listing, optionally saving it to disk.
func Disassemble(f *Finalized, saveToDisk bool, filePath string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "; main (%d bytes)\n", f.Main.Length())
	disassembleFragment(&b, f.Main)
	for _, name := range f.FunctionOrder {
		fn := f.Functions[name]
		fmt.Fprintf(&b, "; function %s (%d bytes)\n", name, fn.Length())
		disassembleFragment(&b, fn)
	}
	out := b.String()
	if saveToDisk {
		if filePath == "" {
			filePath = "bytecode.dis"
		}
		if err := os.WriteFile(filePath, []byte(out), 0o644); err != nil {
			return "", fmt.Errorf("error creating disassembly file: %s", err.Error())
		}
	}
	return out, nil
}

func disassembleFragment(b *strings.Builder, frag *bytecode.Bytecode) {
	for _, idx := range frag.Operations() {
		op := frag.OperationAt(idx)
		fmt.Fprintf(b, "  %s\n", op.Instruction.Name())
	}
}
