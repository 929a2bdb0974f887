package compiler

import "fmt"

// UnsupportedFeatureError reports a syntactic construct the parser
// recognized but which the compiler cannot lower to bytecode: classes,
// imports/exports, switch, with, for-in/for-of, postfix update, object
// literals, "new"/"this"/"super". Arrow functions, generators and async
// functions are not among them: the parser rejects those with a
// SyntaxError before compilation starts.
type UnsupportedFeatureError struct {
	Feature string
	Line    int32
}

func (e UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("🤖 UnsupportedFeature: %s is not supported, line %d", e.Feature, e.Line)
}

// SemanticError reports a program that parses but is meaningless to
// compile: a redeclared identifier, a break or continue outside any loop, a
// labeled break/continue to a label that doesn't enclose it, a function
// name used as a plain value, and the like. A name that resolves nowhere in
// scope is not a SemanticError on its own — see the dependency set in
// Compiler.DeclaredDependencies.
type SemanticError struct {
	Message string
}

func (e SemanticError) Error() string {
	return fmt.Sprintf("💥 SemanticError: %s", e.Message)
}

// CustomError wraps any other compiler-internal failure that doesn't fit
// the two categories above (e.g. exhausting the register pool).
type CustomError struct {
	Message string
}

func (e CustomError) Error() string {
	return fmt.Sprintf("🤖 CompilerError: %s", e.Message)
}

// IsUnsupportedFeature reports whether err is (or wraps) an
// UnsupportedFeatureError, letting a caller distinguish "this program uses
// a construct outside the supported subset" from a hard compile failure,
// per §6.4/§7.
func IsUnsupportedFeature(err error) bool {
	_, ok := err.(UnsupportedFeatureError)
	return ok
}
