// Package source wraps the external parser the compiler core is built
// against: a named chunk of source text, the AST it parses to, and the
// Parser interface the composer/CLI injects to produce one from the other.
// This is the "Source/AST wrapper" named component — the compiler package
// never lexes or parses on its own; it only ever sees an ast.Program handed
// to it by something implementing Parser.
package source

import (
	"errors"
	"fmt"

	"bcvm/ast"
	"bcvm/lexer"
	"bcvm/parser"
)

// Source is an opaque handle around one chunk of source text, tagged with a
// name (a file path, "<repl>", etc.) used only for diagnostics.
type Source struct {
	name string
	text string
}

// New wraps text as a Source tagged with name.
func New(name, text string) Source {
	return Source{name: name, text: text}
}

// Name returns the tag this Source was created with.
func (s Source) Name() string { return s.name }

// Text returns the raw source text.
func (s Source) Text() string { return s.text }

// Program is an opaque handle around a parsed AST. Nothing outside this
// package inspects its contents directly; AST gives the compiler the
// ast.Program it expects.
type Program struct {
	source     Source
	statements []ast.Stmt
}

// AST unwraps the handle into the ast.Program the compiler package expects.
func (p Program) AST() ast.Program {
	return ast.Program{Statements: p.statements}
}

// Source returns the Source this Program was parsed from.
func (p Program) Source() Source { return p.source }

// Wrap builds a Program handle around an AST a caller already produced by
// some other means (e.g. the REPL, which tokenizes ahead of parsing to
// decide whether a fragment is complete). Most callers should go through a
// Parser instead.
func Wrap(src Source, program ast.Program) Program {
	return Program{source: src, statements: program.Statements}
}

// ParseError wraps an error surfaced by a Parser, tagging it with which
// Source it came from, per §7's "ParseError — wraps the underlying
// parser's error verbatim."
type ParseError struct {
	SourceName string
	Err        error
}

func (e ParseError) Error() string {
	return fmt.Sprintf("🤖 ParseError in %s: %v", e.SourceName, e.Err)
}

func (e ParseError) Unwrap() error { return e.Err }

// Parser is the AST-producing facility the compiler expects to be injected
// with, per §6.4: "Parser is injected; the compiler expects an
// AST-producing facility with errors surfaced as a parser error variant."
// DefaultParser is the only implementation in this repository (the
// hand-rolled lexer+parser pair); the interface exists so a caller can
// substitute a stub or a different grammar without touching the compiler.
type Parser interface {
	Parse(Source) (Program, error)
}

// DefaultParser parses with this repository's own lexer and recursive-
// descent parser.
type DefaultParser struct{}

// Parse lexes and parses src, returning a ParseError (never a bare lexer or
// parser error) on failure.
func (DefaultParser) Parse(src Source) (Program, error) {
	tokens, err := lexer.New(src.Text()).Scan()
	if err != nil {
		return Program{}, ParseError{SourceName: src.name, Err: err}
	}
	program, parseErrs := parser.Make(tokens).Parse()
	if len(parseErrs) > 0 {
		return Program{}, ParseError{SourceName: src.name, Err: errors.Join(parseErrs...)}
	}
	return Program{source: src, statements: program.Statements}, nil
}
