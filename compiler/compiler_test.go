package compiler

import (
	"testing"

	"bcvm/ast"
	"bcvm/bytecode"
	"bcvm/lexer"
	"bcvm/parser"
)

func compileSource(t *testing.T, src string) (*Finalized, error) {
	t.Helper()
	tokens, err := lexer.New(src).Scan()
	if err != nil {
		t.Fatalf("lexer error for %q: %v", src, err)
	}
	program, parseErrs := parser.Make(tokens).Parse()
	if len(parseErrs) > 0 {
		t.Fatalf("parse errors for %q: %v", src, parseErrs)
	}
	return New().CompileProgram(program)
}

func mustParse(t *testing.T, src string) ast.Program {
	t.Helper()
	tokens, err := lexer.New(src).Scan()
	if err != nil {
		t.Fatalf("lexer error for %q: %v", src, err)
	}
	program, parseErrs := parser.Make(tokens).Parse()
	if len(parseErrs) > 0 {
		t.Fatalf("parse errors for %q: %v", src, parseErrs)
	}
	return program
}

func mustCompile(t *testing.T, src string) *Finalized {
	t.Helper()
	f, err := compileSource(t, src)
	if err != nil {
		t.Fatalf("compiling %q: %v", src, err)
	}
	return f
}

func mnemonics(f *Finalized) []string {
	var out []string
	for _, idx := range f.Main.Operations() {
		out = append(out, f.Main.OperationAt(idx).Instruction.Name())
	}
	return out
}

func containsMnemonic(mnems []string, want string) bool {
	for _, m := range mnems {
		if m == want {
			return true
		}
	}
	return false
}

func TestCompileArithmeticExpression(t *testing.T) {
	f := mustCompile(t, "var x = 1 + 2 * 3;")
	mnems := mnemonics(f)
	if !containsMnemonic(mnems, "Mul") || !containsMnemonic(mnems, "Add") {
		t.Fatalf("expected Mul and Add in %v", mnems)
	}
	if _, err := f.Bytes(); err != nil {
		t.Fatalf("Bytes() failed on a fully resolved program: %v", err)
	}
}

func TestCompileIfElse(t *testing.T) {
	f := mustCompile(t, "var x = 0; if (x < 1) { x = 1; } else { x = 2; }")
	mnems := mnemonics(f)
	if !containsMnemonic(mnems, "JumpCondNeg") || !containsMnemonic(mnems, "Jump") {
		t.Fatalf("expected JumpCondNeg and Jump in %v", mnems)
	}
}

func TestCompileWhileLoop(t *testing.T) {
	f := mustCompile(t, "var i = 0; while (i < 10) { i = i + 1; }")
	mnems := mnemonics(f)
	if !containsMnemonic(mnems, "JumpCondNeg") {
		t.Fatalf("expected a loop-exit JumpCondNeg in %v", mnems)
	}
}

func TestCompileForLoopWithBreakAndContinue(t *testing.T) {
	f := mustCompile(t, `
		var total = 0;
		for (var i = 0; i < 10; i = i + 1) {
			if (i == 5) { break; }
			if (i == 2) { continue; }
			total = total + i;
		}
	`)
	if _, err := f.Bytes(); err != nil {
		t.Fatalf("Bytes() failed: %v", err)
	}
}

func TestCompileFunctionDeclAndRecursiveCall(t *testing.T) {
	f := mustCompile(t, `
		function fact(n) {
			if (n == 0) { return 1; }
			return n * fact(n - 1);
		}
		var r = fact(5);
	`)
	if len(f.FunctionOrder) != 1 || f.FunctionOrder[0] != "fact" {
		t.Fatalf("expected one function 'fact', got %v", f.FunctionOrder)
	}
	body := f.Functions["fact"]
	var bodyMnems []string
	for _, idx := range body.Operations() {
		bodyMnems = append(bodyMnems, body.OperationAt(idx).Instruction.Name())
	}
	if !containsMnemonic(bodyMnems, "CallBytecodeFunc") {
		t.Fatalf("expected the recursive call to compile to CallBytecodeFunc, got %v", bodyMnems)
	}
	if _, err := f.Bytes(); err != nil {
		t.Fatalf("Bytes() failed: %v", err)
	}
}

func TestCompileFunctionBodyHasItsOwnRegisterScope(t *testing.T) {
	// Top-level functions are compiled with an independent scope chain
	// rather than one rooted in the calling scope's declarations, so a
	// function can declare a local with the same name as something at the
	// call site without either register allocation stepping on the other.
	f, err := compileSource(t, `
		var total = 0;
		function bump() {
			var total = 1;
			return total;
		}
		total = total + bump();
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.Bytes(); err != nil {
		t.Fatalf("Bytes() failed: %v", err)
	}
}

func TestCompileFunctionReferencingOuterNameTreatsItAsADependency(t *testing.T) {
	// Functions don't see the enclosing program scope (their scope chain is
	// rooted independently), so a name that's actually a top-level variable
	// still compiles: it's indistinguishable, from inside the function, from
	// a binding the composer will splice in later.
	compiler := New()
	_, err := compiler.CompileProgram(mustParse(t, `
		var total = 0;
		function bump() {
			return total;
		}
	`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	deps := compiler.DeclaredDependencies()
	if _, ok := deps["total"]; !ok {
		t.Fatalf("expected 'total' in declared dependencies, got %v", deps)
	}
}

func TestCompileTryCatchFinally(t *testing.T) {
	f := mustCompile(t, `
		try {
			throw "boom";
		} catch (e) {
			var caught = e;
		} finally {
			var done = 1;
		}
	`)
	mnems := mnemonics(f)
	if !containsMnemonic(mnems, "Try") || !containsMnemonic(mnems, "Throw") {
		t.Fatalf("expected Try and Throw in %v", mnems)
	}
}

func TestCompileArrayLiteral(t *testing.T) {
	f := mustCompile(t, "var a = [1, 2, 3];")
	mnems := mnemonics(f)
	if !containsMnemonic(mnems, "LoadArray") {
		t.Fatalf("expected LoadArray in %v", mnems)
	}
	for _, idx := range f.Main.Operations() {
		op := f.Main.OperationAt(idx)
		if op.Instruction.Name() != "LoadArray" {
			continue
		}
		arr, ok := op.Operands[1].(bytecode.RegistersArrayOperand)
		if !ok {
			t.Fatalf("expected LoadArray's second operand to be a RegistersArray, got %#v", op.Operands[1])
		}
		if len(arr.Registers) != 3 {
			t.Fatalf("expected 3 element registers, got %d", len(arr.Registers))
		}
	}
}

func TestCompileUnaryMinusAndNot(t *testing.T) {
	f := mustCompile(t, "var a = -5; var b = !a;")
	mnems := mnemonics(f)
	if !containsMnemonic(mnems, "Minus") || !containsMnemonic(mnems, "Equal") {
		t.Fatalf("expected Minus (negation) and Equal (logical not) in %v", mnems)
	}
}

func TestCompileUnaryPlus(t *testing.T) {
	f := mustCompile(t, "var a = +5;")
	mnems := mnemonics(f)
	if !containsMnemonic(mnems, "Add") {
		t.Fatalf("expected Add (unary plus) in %v", mnems)
	}
}

func TestCompileVoidEvaluatesOperandAndYieldsUndefined(t *testing.T) {
	if _, err := compileSource(t, "var a = void 1;"); err != nil {
		t.Fatalf("expected 'void' to compile, got %v", err)
	}
}

func TestCompileTernary(t *testing.T) {
	f := mustCompile(t, "var a = 1 < 2 ? 10 : 20;")
	if _, err := f.Bytes(); err != nil {
		t.Fatalf("Bytes() failed: %v", err)
	}
}

func TestCompileMemberAccessAndAssignment(t *testing.T) {
	f := mustCompile(t, "var a = [1]; a[0] = 2; var b = a[0];")
	mnems := mnemonics(f)
	if !containsMnemonic(mnems, "PropAccess") || !containsMnemonic(mnems, "PropertySet") {
		t.Fatalf("expected PropAccess and PropertySet in %v", mnems)
	}
}

func TestUnsupportedFeatureErrors(t *testing.T) {
	cases := map[string]string{
		"class declaration":  "class Foo {}",
		"import declaration": "import x from 'y';",
		"export declaration": "export var x = 1;",
		"switch statement":   "switch (x) { case 1: break; }",
		"with statement":     "with (x) { y; }",
		"for-in loop":        "for (var k in obj) { k; }",
		"postfix update":     "var x = 1; x++;",
		"object literal":     "var o = { a: 1 };",
		"this expression":    "var x = this;",
		"new expression":     "var x = new Foo();",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := compileSource(t, src)
			if err == nil {
				t.Fatalf("expected an UnsupportedFeatureError for %q", src)
			}
			if _, ok := err.(UnsupportedFeatureError); !ok {
				t.Fatalf("expected UnsupportedFeatureError for %q, got %T: %v", src, err, err)
			}
		})
	}
}

func TestUnsupportedOperatorsErrorAtCompileTime(t *testing.T) {
	cases := map[string]string{
		"typeof": "var x = typeof 1;",
		"delete": "var o = [1]; delete o[0];",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := compileSource(t, src)
			if err == nil {
				t.Fatalf("expected an UnsupportedFeatureError for %q", src)
			}
			if _, ok := err.(UnsupportedFeatureError); !ok {
				t.Fatalf("expected UnsupportedFeatureError for %q, got %T: %v", src, err, err)
			}
		})
	}
}

func TestBreakOutsideLoopIsSemanticError(t *testing.T) {
	_, err := compileSource(t, "break;")
	if _, ok := err.(SemanticError); !ok {
		t.Fatalf("expected SemanticError for a top-level break, got %T: %v", err, err)
	}
}

func TestUndeclaredIdentifierBecomesADeclaredDependency(t *testing.T) {
	// A name that resolves nowhere in scope isn't a compile error: it's
	// assumed to be a binding the composer will supply (a VM built-in or
	// host function), per the dependency set.
	compiler := New()
	f, err := compiler.CompileProgram(mustParse(t, "var x = y;"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	deps := compiler.DeclaredDependencies()
	if _, ok := deps["y"]; !ok {
		t.Fatalf("expected 'y' in declared dependencies, got %v", deps)
	}
	if _, err := f.Bytes(); err != nil {
		t.Fatalf("Bytes() failed: %v", err)
	}
}

func TestDeclaredDependencyRegisterIsStableAcrossReferences(t *testing.T) {
	compiler := New()
	if _, err := compiler.CompileProgram(mustParse(t, "var a = y; var b = y;")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	deps := compiler.DeclaredDependencies()
	if len(deps) != 1 {
		t.Fatalf("expected exactly one dependency for two references to the same name, got %v", deps)
	}
}

func TestLabeledBreakTargetsOuterLoop(t *testing.T) {
	f, err := compileSource(t, `
		outer: for (var i = 0; i < 3; i = i + 1) {
			for (var j = 0; j < 3; j = j + 1) {
				if (j == 1) { break outer; }
			}
		}
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.Bytes(); err != nil {
		t.Fatalf("Bytes() failed: %v", err)
	}
}
