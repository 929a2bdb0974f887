// interfaces.go contains the visitor interfaces that any code traversing
// expression and statement AST nodes must implement, and the base
// interfaces that all expression and statement nodes implement in turn,
// following the visitor design pattern.
package ast

// ExpressionVisitor is the interface for operating on all Expression AST
// nodes. The compiler implements this to walk an expression tree and emit
// bytecode; each Visit method corresponds to a distinct Expression type.
type ExpressionVisitor interface {
	VisitLiteral(literal Literal) any
	VisitIdentifier(identifier Identifier) any
	VisitGrouping(grouping Grouping) any
	VisitBinary(binary Binary) any
	VisitLogical(logical Logical) any
	VisitUnary(unary Unary) any
	VisitUpdate(update Update) any
	VisitAssign(assign Assign) any
	VisitConditional(conditional Conditional) any
	VisitCall(call Call) any
	VisitMember(member Member) any
	VisitArray(array Array) any
	VisitUnsupportedExpr(expr UnsupportedExpr) any
}

// StmtVisitor is the interface for operating on all Statement AST nodes.
// Like ExpressionVisitor, it defines one Visit method per statement type.
type StmtVisitor interface {
	VisitExpressionStmt(stmt ExpressionStmt) any
	VisitVarStmt(stmt VarStmt) any
	VisitBlockStmt(stmt BlockStmt) any
	VisitIfStmt(stmt IfStmt) any
	VisitWhileStmt(stmt WhileStmt) any
	VisitDoWhileStmt(stmt DoWhileStmt) any
	VisitForStmt(stmt ForStmt) any
	VisitReturnStmt(stmt ReturnStmt) any
	VisitBreakStmt(stmt BreakStmt) any
	VisitContinueStmt(stmt ContinueStmt) any
	VisitLabeledStmt(stmt LabeledStmt) any
	VisitThrowStmt(stmt ThrowStmt) any
	VisitTryStmt(stmt TryStmt) any
	VisitFunctionDecl(stmt FunctionDecl) any
	VisitUnsupportedStmt(stmt UnsupportedStmt) any
}

// Expression is the base interface for all expression nodes in the AST. An
// expression always evaluates to a value.
type Expression interface {
	// Accept dispatches this expression to the appropriate Visit method of
	// the given ExpressionVisitor.
	Accept(v ExpressionVisitor) any
}

// Stmt is the base interface for all statement nodes in the AST. A
// statement performs an action and does not itself produce a value.
type Stmt interface {
	// Accept dispatches this statement to the appropriate Visit method of
	// the given StmtVisitor.
	Accept(v StmtVisitor) any
}

// Program is the root node produced by the parser: an ordered sequence of
// top-level statements.
type Program struct {
	Statements []Stmt
}
