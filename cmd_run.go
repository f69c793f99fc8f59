package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"asml/config"
	"asml/interpreter"
	"asml/lexer"
	"asml/memory"
	"asml/parser"
)

type runCmd struct {
	dumpState bool
}

func (*runCmd) Name() string { return "run" }

func (*runCmd) Synopsis() string { return "Lex, parse and execute the given source program." }

func (*runCmd) Usage() string {
	return `run [-dump-state] <file...>:
Run subcommand parses the given source program and executes it immediately.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.dumpState, "dump-state", false, "print machine state after execution")
}

func (c *runCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %s\n", err)
		return subcommands.ExitFailure
	}

	for _, file := range f.Args() {
		if status := c.runFile(cfg, file); status != subcommands.ExitSuccess {
			return status
		}
	}
	return subcommands.ExitSuccess
}

func (c *runCmd) runFile(cfg *config.Config, file string) subcommands.ExitStatus {
	input, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading %s: %s\n", file, err)
		return subcommands.ExitFailure
	}

	p := parser.New(lexer.New(string(input)), cfg.Labels.Capacity)
	prog, err := p.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", file, err)
		return subcommands.ExitFailure
	}

	mach := interpreter.New(memory.New(cfg.Memory.Size), p.Labels())
	runErr := mach.Run(prog)

	if c.dumpState {
		mach.Dump(os.Stdout)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", file, runErr)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
