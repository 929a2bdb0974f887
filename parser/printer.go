package parser

import (
	"encoding/json"
	"fmt"
	"os"

	"bcvm/ast"
)

const (
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

// astPrinter implements the Visitor interfaces and builds a
// JSON-friendly representation of the AST using maps and slices.
// Each Visit method returns an object that can be marshaled to JSON.
type astPrinter struct{}

func (p astPrinter) VisitExpressionStmt(stmt ast.ExpressionStmt) any {
	return map[string]any{
		"type":       "ExpressionStmt",
		"expression": stmt.Expression.Accept(p),
	}
}

func (p astPrinter) VisitVarStmt(stmt ast.VarStmt) any {
	return map[string]any{
		"type":        "VarStmt",
		"keyword":     stmt.Keyword.Lexeme,
		"name":        stmt.Name.Lexeme,
		"initializer": nilOrAcceptExpr(stmt.Initializer, p),
	}
}

func (p astPrinter) VisitBlockStmt(stmt ast.BlockStmt) any {
	return map[string]any{
		"type":       "BlockStmt",
		"statements": acceptStmts(stmt.Statements, p),
	}
}

func (p astPrinter) VisitIfStmt(stmt ast.IfStmt) any {
	return map[string]any{
		"type":      "IfStmt",
		"condition": stmt.Condition.Accept(p),
		"then":      stmt.Then.Accept(p),
		"else":      nilOrAcceptStmt(stmt.Else, p),
	}
}

func (p astPrinter) VisitWhileStmt(stmt ast.WhileStmt) any {
	return map[string]any{
		"type":      "WhileStmt",
		"condition": stmt.Condition.Accept(p),
		"body":      stmt.Body.Accept(p),
	}
}

func (p astPrinter) VisitDoWhileStmt(stmt ast.DoWhileStmt) any {
	return map[string]any{
		"type":      "DoWhileStmt",
		"body":      stmt.Body.Accept(p),
		"condition": stmt.Condition.Accept(p),
	}
}

func (p astPrinter) VisitForStmt(stmt ast.ForStmt) any {
	return map[string]any{
		"type":      "ForStmt",
		"init":      nilOrAcceptStmt(stmt.Init, p),
		"condition": nilOrAcceptExpr(stmt.Condition, p),
		"post":      nilOrAcceptExpr(stmt.Post, p),
		"body":      stmt.Body.Accept(p),
	}
}

func (p astPrinter) VisitReturnStmt(stmt ast.ReturnStmt) any {
	return map[string]any{
		"type":  "ReturnStmt",
		"value": nilOrAcceptExpr(stmt.Value, p),
	}
}

func (p astPrinter) VisitBreakStmt(stmt ast.BreakStmt) any {
	return map[string]any{
		"type":  "BreakStmt",
		"label": stmt.Label,
	}
}

func (p astPrinter) VisitContinueStmt(stmt ast.ContinueStmt) any {
	return map[string]any{
		"type":  "ContinueStmt",
		"label": stmt.Label,
	}
}

func (p astPrinter) VisitLabeledStmt(stmt ast.LabeledStmt) any {
	return map[string]any{
		"type":  "LabeledStmt",
		"label": stmt.Label.Lexeme,
		"body":  stmt.Body.Accept(p),
	}
}

func (p astPrinter) VisitThrowStmt(stmt ast.ThrowStmt) any {
	return map[string]any{
		"type":  "ThrowStmt",
		"value": stmt.Value.Accept(p),
	}
}

func (p astPrinter) VisitTryStmt(stmt ast.TryStmt) any {
	out := map[string]any{
		"type":  "TryStmt",
		"block": stmt.Block.Accept(p),
	}
	if stmt.CatchParam != nil {
		out["catchParam"] = stmt.CatchParam.Lexeme
	}
	if stmt.CatchBlock != nil {
		out["catchBlock"] = stmt.CatchBlock.Accept(p)
	}
	if stmt.Finally != nil {
		out["finally"] = stmt.Finally.Accept(p)
	}
	return out
}

func (p astPrinter) VisitFunctionDecl(stmt ast.FunctionDecl) any {
	params := make([]string, 0, len(stmt.Params))
	for _, param := range stmt.Params {
		params = append(params, param.Lexeme)
	}
	return map[string]any{
		"type":   "FunctionDecl",
		"name":   stmt.Name.Lexeme,
		"params": params,
		"body":   stmt.Body.Accept(p),
	}
}

func (p astPrinter) VisitUnsupportedStmt(stmt ast.UnsupportedStmt) any {
	return map[string]any{
		"type": "UnsupportedStmt",
		"kind": stmt.Kind,
	}
}

func (p astPrinter) VisitLiteral(l ast.Literal) any {
	// literals are terminal values and can be used directly in JSON
	switch l.Value.(type) {
	case ast.Undefined:
		return "undefined"
	default:
		return l.Value
	}
}

func (p astPrinter) VisitIdentifier(identifier ast.Identifier) any {
	return map[string]any{
		"type": "Identifier",
		"name": identifier.Name.Lexeme,
	}
}

func (p astPrinter) VisitGrouping(g ast.Grouping) any {
	return map[string]any{
		"type":       "Grouping",
		"expression": g.Expression.Accept(p),
	}
}

func (p astPrinter) VisitBinary(b ast.Binary) any {
	return map[string]any{
		"type":     "Binary",
		"operator": b.Operator.Lexeme,
		"left":     b.Left.Accept(p),
		"right":    b.Right.Accept(p),
	}
}

func (p astPrinter) VisitLogical(l ast.Logical) any {
	return map[string]any{
		"type":     "Logical",
		"operator": l.Operator.Lexeme,
		"left":     l.Left.Accept(p),
		"right":    l.Right.Accept(p),
	}
}

func (p astPrinter) VisitUnary(u ast.Unary) any {
	return map[string]any{
		"type":     "Unary",
		"operator": u.Operator.Lexeme,
		"right":    u.Right.Accept(p),
	}
}

func (p astPrinter) VisitUpdate(u ast.Update) any {
	return map[string]any{
		"type":     "Update",
		"operator": u.Operator.Lexeme,
		"target":   u.Target.Accept(p),
	}
}

func (p astPrinter) VisitAssign(a ast.Assign) any {
	return map[string]any{
		"type":     "Assign",
		"operator": a.Operator.Lexeme,
		"target":   a.Target.Accept(p),
		"value":    a.Value.Accept(p),
	}
}

func (p astPrinter) VisitConditional(c ast.Conditional) any {
	return map[string]any{
		"type":      "Conditional",
		"condition": c.Condition.Accept(p),
		"then":      c.Then.Accept(p),
		"else":      c.Else.Accept(p),
	}
}

func (p astPrinter) VisitCall(c ast.Call) any {
	return map[string]any{
		"type":      "Call",
		"callee":    c.Callee.Accept(p),
		"arguments": acceptExprs(c.Arguments, p),
	}
}

func (p astPrinter) VisitMember(m ast.Member) any {
	return map[string]any{
		"type":     "Member",
		"object":   m.Object.Accept(p),
		"property": m.Property.Accept(p),
		"computed": m.Computed,
	}
}

func (p astPrinter) VisitArray(a ast.Array) any {
	return map[string]any{
		"type":     "Array",
		"elements": acceptExprs(a.Elements, p),
	}
}

func (p astPrinter) VisitUnsupportedExpr(expr ast.UnsupportedExpr) any {
	return map[string]any{
		"type": "UnsupportedExpr",
		"kind": expr.Kind,
	}
}

func nilOrAcceptExpr(expr ast.Expression, p ast.ExpressionVisitor) any {
	if expr == nil {
		return nil
	}
	return expr.Accept(p)
}

func nilOrAcceptStmt(stmt ast.Stmt, p ast.StmtVisitor) any {
	if stmt == nil {
		return nil
	}
	return stmt.Accept(p)
}

func acceptStmts(stmts []ast.Stmt, p ast.StmtVisitor) []any {
	out := make([]any, 0, len(stmts))
	for _, stmt := range stmts {
		out = append(out, stmt.Accept(p))
	}
	return out
}

func acceptExprs(exprs []ast.Expression, p ast.ExpressionVisitor) []any {
	out := make([]any, 0, len(exprs))
	for _, expr := range exprs {
		out = append(out, expr.Accept(p))
	}
	return out
}

// PrintASTJSON converts a slice of statements into a prettified JSON string.
func PrintASTJSON(statements []ast.Stmt) (string, error) {
	printer := astPrinter{}
	out := acceptStmts(statements, printer)
	bytes, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}

	jsonStr := string(bytes)
	fmt.Println(colorYellow + "----- AST JSON -----")
	fmt.Println(colorYellow + jsonStr)
	fmt.Println(colorYellow + "-----" + colorReset)
	fmt.Println("")
	return jsonStr, nil
}

// WriteASTJSONToFile writes the prettified AST JSON to the given file path.
func WriteASTJSONToFile(statements []ast.Stmt, path string) error {
	s, err := PrintASTJSON(statements)
	if err != nil {
		return err
	}
	fDescriptor, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating AST file: %s", err.Error())
	}
	defer fDescriptor.Close()

	_, err = fDescriptor.Write([]byte(s))
	if err != nil {
		return fmt.Errorf("error writing AST to file: %s", err.Error())
	}
	return nil
}
