// Command bcvm compiles a supported JavaScript subset into the register
// bytecode this module targets. It never executes that bytecode itself —
// there is no interpreter or VM in this tree, only a compiler and the
// tooling to inspect what it produced.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&compileCmd{}, "")
	subcommands.Register(&replCmd{}, "")

	flag.Parse()
	ctx := context.Background()
	fmt.Fprintln(os.Stderr, "")
	os.Exit(int(subcommands.Execute(ctx)))
}
