package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"bcvm/compiler"
	"bcvm/lexer"
	"bcvm/parser"
	"bcvm/source"
	"bcvm/token"
)

// replCmd compiles one source fragment per line (buffering across lines
// until braces balance and the last token doesn't dangle), printing the
// disassembly of whatever it compiles. It never runs the bytecode — there
// is no VM in this tree to run it on.
type replCmd struct {
	disassemble bool
	dumpAST     bool
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive compile-and-disassemble session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive session that compiles each fragment you enter and
  prints its disassembly.
`
}

func (cmd *replCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.disassemble, "disassemble", true, "print the disassembly of each compiled fragment")
	f.BoolVar(&cmd.dumpAST, "dumpAST", false, "print the parsed AST as JSON for each fragment")
}

func (cmd *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     "",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 %s\n", err.Error())
		return subcommands.ExitFailure
	}
	defer rl.Close()

	fmt.Println("Welcome to bcvm — compile fragments, one at a time. Type 'exit' to quit.")

	var buffer strings.Builder
	for {
		if buffer.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			buffer.Reset()
			continue
		}
		if err == io.EOF {
			return subcommands.ExitSuccess
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 %s\n", err.Error())
			return subcommands.ExitFailure
		}

		if strings.TrimSpace(line) == "exit" && buffer.Len() == 0 {
			return subcommands.ExitSuccess
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		fragmentText := buffer.String()

		lex := lexer.New(fragmentText)
		tokens, err := lex.Scan()
		if err != nil {
			fmt.Println(err)
			buffer.Reset()
			continue
		}

		if !isInputReady(tokens) {
			continue
		}

		p := parser.Make(tokens)
		program, parseErrs := p.Parse()
		if len(parseErrs) > 0 {
			// If every parse error sits at the position of the EOF token, the
			// user just hasn't finished typing yet — keep buffering instead
			// of reporting an error.
			if allParseErrorsAtEOF(parseErrs, tokens[len(tokens)-1]) {
				continue
			}
			fmt.Fprintf(os.Stdout, "Parse error:\n")
			for _, pErr := range parseErrs {
				fmt.Fprintf(os.Stdout, "\t%v\n", pErr)
			}
			buffer.Reset()
			continue
		}

		if cmd.dumpAST {
			parser.PrintASTJSON(program.Statements)
		}

		wrapped := source.Wrap(source.New("<repl>", fragmentText), program)
		finalized, cErr := compiler.New().CompileProgram(wrapped.AST())
		if cErr != nil {
			fmt.Fprintln(os.Stderr, cErr.Error())
			if compiler.IsUnsupportedFeature(cErr) {
				fmt.Fprintln(os.Stderr, "   (unsupported feature, not a malformed fragment)")
			}
			buffer.Reset()
			continue
		}

		if cmd.disassemble {
			dis, err := compiler.Disassemble(finalized, false, "")
			if err != nil {
				fmt.Fprintf(os.Stderr, "💥 disassemble error:\n\t%s\n", err.Error())
			} else {
				fmt.Print(dis)
			}
		}
		fmt.Println(finalized.Base64())

		buffer.Reset()
	}
}

// isInputReady reports whether the buffered tokens form a fragment worth
// attempting to parse: braces must balance, and the last non-EOF token
// can't be one that obviously expects more input to follow.
func isInputReady(tokens []token.Token) bool {
	braceBalance := 0
	for _, tok := range tokens {
		switch tok.TokenType {
		case token.LCUR:
			braceBalance++
		case token.RCUR:
			braceBalance--
		}
	}
	if braceBalance > 0 {
		return false
	}

	last := lastNonEOF(tokens)
	if last == nil {
		return true
	}

	switch last.TokenType {
	case token.ASSIGN,
		token.PLUS_ASSIGN,
		token.MINUS_ASSIGN,
		token.STAR_ASSIGN,
		token.SLASH_ASSIGN,
		token.ADD,
		token.SUB,
		token.MULT,
		token.DIV,
		token.BANG,
		token.EQUAL_EQUAL,
		token.NOT_EQUAL,
		token.LESS,
		token.LESS_EQUAL,
		token.LARGER,
		token.LARGER_EQUAL,
		token.COMMA,
		token.LPA,
		token.LCUR,
		token.IF,
		token.ELSE,
		token.WHILE,
		token.FOR,
		token.FUNCTION,
		token.RETURN,
		token.VAR,
		token.AND_AND,
		token.OR_OR:
		return false
	}

	return true
}

// lastNonEOF returns the last non-EOF token, or nil if there isn't one.
func lastNonEOF(tokens []token.Token) *token.Token {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].TokenType != token.EOF {
			return &tokens[i]
		}
	}
	return nil
}

// allParseErrorsAtEOF reports whether every parse error is a syntax error
// located at the EOF token's position — the signature of an incomplete
// fragment rather than a genuinely malformed one.
func allParseErrorsAtEOF(parseErrs []error, eof token.Token) bool {
	for _, parseErr := range parseErrs {
		syntaxErr, ok := parseErr.(parser.SyntaxError)
		if !ok {
			return false
		}
		if syntaxErr.Line != eof.Line || syntaxErr.Column != eof.Column {
			return false
		}
	}
	return len(parseErrs) > 0
}
