package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/subcommands"

	"bcvm/bytecode"
	"bcvm/compiler"
	"bcvm/parser"
	"bcvm/source"
)

type compileCmd struct {
	disassemble      bool
	dumpBytecode     bool
	dumpAST          bool
	showDependencies bool
	filePath         string
}

func (*compileCmd) Name() string { return "compile" }
func (*compileCmd) Synopsis() string {
	return "Compile a source file to the register bytecode format"
}
func (*compileCmd) Usage() string {
	return `compile <file>:
  Compile <file> to bytecode.
`
}

func (cmd *compileCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.disassemble, "disassemble", true, "disassemble the bytecode and write it to a .dis file")
	f.BoolVar(&cmd.dumpBytecode, "dumpBytecode", true, "write the base64-encoded bytecode to a .base64 file")
	f.BoolVar(&cmd.dumpAST, "dumpAST", false, "write the parsed AST as JSON to a .ast.json file")
	f.BoolVar(&cmd.showDependencies, "show-dependencies", false, "print the external identifier -> register dependency set the composer must bind")
	f.StringVar(&cmd.filePath, "out", "", "base path to write output files under (defaults to the source file's path, minus its extension)")
}

func (cmd *compileCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}
	sourceFile := args[0]
	data, err := os.ReadFile(sourceFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file:\n\t%v\n", err)
		return subcommands.ExitFailure
	}

	outBase := cmd.filePath
	if outBase == "" {
		outBase = strings.TrimSuffix(sourceFile, filepath.Ext(sourceFile))
	}

	program, perr := source.DefaultParser{}.Parse(source.New(sourceFile, string(data)))
	if perr != nil {
		fmt.Fprintf(os.Stderr, "💥 %v\n", perr)
		return subcommands.ExitFailure
	}

	if cmd.dumpAST {
		if err := writeASTJSON(program, outBase+".ast.json"); err != nil {
			fmt.Fprintf(os.Stderr, "💥 Dump AST error:\n\t%s\n", err.Error())
			return subcommands.ExitFailure
		}
	}

	comp := compiler.New()
	finalized, cErr := comp.CompileProgram(program.AST())
	if cErr != nil {
		fmt.Fprintf(os.Stderr, "💥 Compilation error:\n\t%v\n", cErr)
		if compiler.IsUnsupportedFeature(cErr) {
			fmt.Fprintf(os.Stderr, "   (this is an unsupported-feature error, not a malformed program)\n")
		}
		return subcommands.ExitFailure
	}

	if cmd.dumpBytecode {
		if err := compiler.DumpBytecode(finalized, outBase+".base64"); err != nil {
			fmt.Fprintf(os.Stderr, "💥 Dump bytecode error:\n\t%s\n", err.Error())
			return subcommands.ExitFailure
		}
	}

	if cmd.disassemble {
		if _, err := compiler.Disassemble(finalized, true, outBase+".dis"); err != nil {
			fmt.Fprintf(os.Stderr, "💥 Disassemble error:\n\t%s\n", err.Error())
			return subcommands.ExitFailure
		}
	}

	if cmd.showDependencies {
		printDependencies(comp.DeclaredDependencies())
	}

	return subcommands.ExitSuccess
}

func writeASTJSON(program source.Program, path string) error {
	return parser.WriteASTJSONToFile(program.AST().Statements, path)
}

func printDependencies(deps map[string]bytecode.Register) {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("dependencies:")
	for _, name := range names {
		fmt.Printf("  %s -> r%d\n", name, deps[name])
	}
}
