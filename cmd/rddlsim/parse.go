package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/rddlsim/go-rddlsim/lang"
)

func parse(args []string) error {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	tokens := fs.Bool("tokens", false, "Dump the token stream instead of parsing")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: rddlsim parse <domain.rddl> [options]

Parse a domain file and print its structure.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("domain file required")
	}

	src, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read domain: %w", err)
	}

	if *tokens {
		for _, tok := range lang.Tokenize(string(src)) {
			fmt.Println(tok)
		}
		return nil
	}

	p := lang.NewParser(string(src))
	p.Lexer().Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	model, err := p.ParseModel()
	if err != nil {
		return err
	}

	d := model.Domain
	fmt.Printf("domain %s\n", d.Name)
	if len(d.Requirements) > 0 {
		fmt.Printf("  requirements: %v\n", d.Requirements)
	}
	for _, t := range d.Types {
		if t.IsObject() {
			fmt.Printf("  type %s: object\n", t.Name)
		} else {
			fmt.Printf("  type %s: enum %v\n", t.Name, t.Enum)
		}
	}
	for _, pv := range d.PVariables {
		fmt.Printf("  %s %s(%d): %s, default %s\n",
			pv.Class, pv.Name, pv.Arity(), pv.Range, pv.Default)
	}
	if model.Instance != nil {
		fmt.Printf("instance %s\n", model.Instance.Name)
	}
	if model.NonFluents != nil {
		fmt.Printf("non-fluents %s\n", model.NonFluents.Name)
	}
	if n := len(p.Lexer().Errors()); n > 0 {
		fmt.Fprintf(os.Stderr, "%d illegal characters skipped\n", n)
	}
	return nil
}
