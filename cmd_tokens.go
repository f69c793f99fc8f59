package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"asml/lexer"
	"asml/token"
)

type tokensCmd struct{}

func (*tokensCmd) Name() string { return "tokens" }

func (*tokensCmd) Synopsis() string { return "Show the lexed output of the given program." }

func (*tokensCmd) Usage() string {
	return `tokens <file...>:
Show how the lexer performed by dumping the given input file as a stream of tokens.
`
}

func (*tokensCmd) SetFlags(f *flag.FlagSet) {}

func (*tokensCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	for _, file := range f.Args() {
		input, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading %s: %s\n", file, err)
			return subcommands.ExitFailure
		}

		l := lexer.New(string(input))
		for {
			tok := l.NextToken()
			fmt.Printf("line %d: type -> %s, literal -> %q\n", tok.Line, tok.Type, tok.Literal)
			if tok.Type == token.EOF {
				break
			}
		}
	}
	return subcommands.ExitSuccess
}
