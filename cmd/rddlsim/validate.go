package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rddlsim/go-rddlsim/compiler"
	"github.com/rddlsim/go-rddlsim/graph"
	"github.com/rddlsim/go-rddlsim/lang"
)

func validate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	instanceFile := fs.String("instance", "", "Instance data file to compile against (optional)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: rddlsim validate <domain.rddl> [options]

Parse and validate a domain. With --instance, also compile the domain
against the instance data so shape and expression errors surface.

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

	model, err := lang.Parse(string(src))
	if err != nil {
		return err
	}
	if err := model.Validate(); err != nil {
		return err
	}

	if *instanceFile != "" {
		f, err := os.Open(*instanceFile)
		if err != nil {
			return fmt.Errorf("read instance: %w", err)
		}
		defer f.Close()

		data, err := compiler.InstanceFromJSON(f)
		if err != nil {
			return err
		}
		c, err := compiler.New(model, graph.NewGraph(0), 1)
		if err != nil {
			return err
		}
		if _, err := c.Compile(data); err != nil {
			return err
		}
		fmt.Printf("domain %s compiles against %s\n", model.Domain.Name, *instanceFile)
		return nil
	}

	fmt.Printf("domain %s is valid (%d types, %d pvariables)\n",
		model.Domain.Name, len(model.Domain.Types), len(model.Domain.PVariables))
	return nil
}
