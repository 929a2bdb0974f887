package parser

import (
	"testing"

	"bcvm/ast"
	"bcvm/lexer"
)

func parseSource(t *testing.T, src string) ([]ast.Stmt, []error) {
	t.Helper()
	tokens, err := lexer.New(src).Scan()
	if err != nil {
		t.Fatalf("lexer error for %q: %v", src, err)
	}
	program, errs := Make(tokens).Parse()
	return program.Statements, errs
}

func mustParseOne(t *testing.T, src string) ast.Stmt {
	t.Helper()
	stmts, errs := parseSource(t, src)
	if len(errs) > 0 {
		t.Fatalf("parse errors for %q: %v", src, errs)
	}
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement for %q, got %d", src, len(stmts))
	}
	return stmts[0]
}

func TestParseVarDeclarationWithAndWithoutSemicolon(t *testing.T) {
	if _, ok := mustParseOne(t, "var a = 5;").(ast.VarStmt); !ok {
		t.Fatal("expected a VarStmt")
	}
	if _, ok := mustParseOne(t, "var a = 5").(ast.VarStmt); !ok {
		t.Fatal("expected a VarStmt when the trailing semicolon is omitted")
	}
}

func TestParseLetAndConstProduceVarStmt(t *testing.T) {
	// §4.5: let/const are compiled as var; the parser tags them via
	// Keyword but doesn't produce a distinct node type.
	letStmt, ok := mustParseOne(t, "let a = 1;").(ast.VarStmt)
	if !ok {
		t.Fatal("expected a VarStmt for 'let'")
	}
	if letStmt.Keyword.Lexeme != "let" {
		t.Fatalf("expected Keyword 'let', got %q", letStmt.Keyword.Lexeme)
	}
	constStmt, ok := mustParseOne(t, "const a = 1;").(ast.VarStmt)
	if !ok {
		t.Fatal("expected a VarStmt for 'const'")
	}
	if constStmt.Keyword.Lexeme != "const" {
		t.Fatalf("expected Keyword 'const', got %q", constStmt.Keyword.Lexeme)
	}
}

func TestParseIfElse(t *testing.T) {
	stmt, ok := mustParseOne(t, "if (x) { y; } else { z; }").(ast.IfStmt)
	if !ok {
		t.Fatal("expected an IfStmt")
	}
	if stmt.Else == nil {
		t.Fatal("expected a non-nil Else branch")
	}
}

func TestParseForLoopHeader(t *testing.T) {
	stmt, ok := mustParseOne(t, "for (var i = 0; i < 10; i = i + 1) { x; }").(ast.ForStmt)
	if !ok {
		t.Fatal("expected a ForStmt")
	}
	if stmt.Init == nil || stmt.Condition == nil || stmt.Post == nil {
		t.Fatal("expected Init, Condition and Post all populated")
	}
}

func TestParseForInProducesUnsupportedStmt(t *testing.T) {
	stmt, ok := mustParseOne(t, "for (var k in obj) { k; }").(ast.UnsupportedStmt)
	if !ok {
		t.Fatalf("expected UnsupportedStmt, got %T", mustParseOne(t, "for (var k in obj) { k; }"))
	}
	if stmt.Kind != "for-in loop" {
		t.Fatalf("expected Kind 'for-in loop', got %q", stmt.Kind)
	}
}

func TestParseForOfProducesUnsupportedStmt(t *testing.T) {
	stmt, ok := mustParseOne(t, "for (var k of xs) { k; }").(ast.UnsupportedStmt)
	if !ok {
		t.Fatal("expected UnsupportedStmt")
	}
	if stmt.Kind != "for-of loop" {
		t.Fatalf("expected Kind 'for-of loop', got %q", stmt.Kind)
	}
}

func TestParseFunctionDeclaration(t *testing.T) {
	stmt, ok := mustParseOne(t, "function add(a, b) { return a + b; }").(ast.FunctionDecl)
	if !ok {
		t.Fatal("expected a FunctionDecl")
	}
	if stmt.Name.Lexeme != "add" || len(stmt.Params) != 2 {
		t.Fatalf("expected function 'add' with 2 params, got %q with %d params", stmt.Name.Lexeme, len(stmt.Params))
	}
}

func TestParseTryCatchFinally(t *testing.T) {
	stmt, ok := mustParseOne(t, `try { x; } catch (e) { y; } finally { z; }`).(ast.TryStmt)
	if !ok {
		t.Fatal("expected a TryStmt")
	}
	if stmt.CatchParam == nil || stmt.CatchBlock == nil || stmt.Finally == nil {
		t.Fatal("expected catch param, catch block and finally all populated")
	}
}

func TestParseTernaryConditional(t *testing.T) {
	stmt, ok := mustParseOne(t, "1 < 2 ? 10 : 20;").(ast.ExpressionStmt)
	if !ok {
		t.Fatal("expected an ExpressionStmt")
	}
	if _, ok := stmt.Expression.(ast.Conditional); !ok {
		t.Fatalf("expected a Conditional expression, got %T", stmt.Expression)
	}
}

func TestParsePostfixUpdateIsUnsupported(t *testing.T) {
	stmt, ok := mustParseOne(t, "x++;").(ast.ExpressionStmt)
	if !ok {
		t.Fatal("expected an ExpressionStmt")
	}
	if _, ok := stmt.Expression.(ast.UnsupportedExpr); !ok {
		t.Fatalf("expected UnsupportedExpr for postfix update, got %T", stmt.Expression)
	}
}

func TestParsePrefixUpdateIsSupported(t *testing.T) {
	stmt, ok := mustParseOne(t, "++x;").(ast.ExpressionStmt)
	if !ok {
		t.Fatal("expected an ExpressionStmt")
	}
	if _, ok := stmt.Expression.(ast.Update); !ok {
		t.Fatalf("expected an Update expression for prefix '++', got %T", stmt.Expression)
	}
}

func TestParseArrayLiteral(t *testing.T) {
	stmt, ok := mustParseOne(t, "[1, 2, 3];").(ast.ExpressionStmt)
	if !ok {
		t.Fatal("expected an ExpressionStmt")
	}
	arr, ok := stmt.Expression.(ast.Array)
	if !ok {
		t.Fatalf("expected an Array expression, got %T", stmt.Expression)
	}
	if len(arr.Elements) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(arr.Elements))
	}
}

func TestParseMemberAccessComputedAndDotted(t *testing.T) {
	dotted, ok := mustParseOne(t, "a.b;").(ast.ExpressionStmt)
	if !ok {
		t.Fatal("expected an ExpressionStmt")
	}
	member, ok := dotted.Expression.(ast.Member)
	if !ok || member.Computed {
		t.Fatalf("expected a non-computed Member, got %#v", dotted.Expression)
	}

	computed, ok := mustParseOne(t, "a[0];").(ast.ExpressionStmt)
	if !ok {
		t.Fatal("expected an ExpressionStmt")
	}
	cMember, ok := computed.Expression.(ast.Member)
	if !ok || !cMember.Computed {
		t.Fatalf("expected a computed Member, got %#v", computed.Expression)
	}
}

func unsupportedStmtKindOf(t *testing.T, src string) string {
	t.Helper()
	stmts, errs := parseSource(t, src)
	if len(errs) > 0 {
		t.Fatalf("parse errors for %q: %v", src, errs)
	}
	if len(stmts) == 0 {
		t.Fatalf("expected at least 1 statement for %q", src)
	}
	stmt, ok := stmts[0].(ast.UnsupportedStmt)
	if !ok {
		t.Fatalf("expected UnsupportedStmt for %q, got %T", src, stmts[0])
	}
	return stmt.Kind
}

func TestUnsupportedStatements(t *testing.T) {
	cases := map[string]string{
		"class C {}":           "class declaration",
		"import foo from 'y';": "import declaration",
		"export var x = 1;":    "export declaration",
		"switch (x) {}":        "switch statement",
		"with (x) {}":          "with statement",
	}
	for src, wantKind := range cases {
		t.Run(wantKind, func(t *testing.T) {
			if got := unsupportedStmtKindOf(t, src); got != wantKind {
				t.Fatalf("expected Kind %q, got %q", wantKind, got)
			}
		})
	}
}

func unsupportedExprKindOf(t *testing.T, src string) string {
	t.Helper()
	stmt := mustParseOne(t, src)
	exprStmt, ok := stmt.(ast.ExpressionStmt)
	if !ok {
		t.Fatalf("expected an ExpressionStmt for %q, got %T", src, stmt)
	}
	expr, ok := exprStmt.Expression.(ast.UnsupportedExpr)
	if !ok {
		t.Fatalf("expected UnsupportedExpr for %q, got %T", src, exprStmt.Expression)
	}
	return expr.Kind
}

func TestUnsupportedExpressions(t *testing.T) {
	cases := map[string]string{
		"this;":      "this expression",
		"new Foo();": "new expression",
	}
	for src, wantKind := range cases {
		t.Run(wantKind, func(t *testing.T) {
			if got := unsupportedExprKindOf(t, src); got != wantKind {
				t.Fatalf("expected Kind %q, got %q", wantKind, got)
			}
		})
	}
}

func TestObjectLiteralInVarInitializerIsUnsupported(t *testing.T) {
	stmt, ok := mustParseOne(t, "var o = { a: 1 };").(ast.VarStmt)
	if !ok {
		t.Fatal("expected a VarStmt")
	}
	if _, ok := stmt.Initializer.(ast.UnsupportedExpr); !ok {
		t.Fatalf("expected an UnsupportedExpr initializer, got %T", stmt.Initializer)
	}
}
