package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "parse":
		if err := parse(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "validate":
		if err := validate(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "simulate":
		if err := simulate(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "runs":
		if err := runs(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Println("rddlsim version 1.0.0")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`rddlsim - planning-domain modeling and batched simulation tool

Usage:
  rddlsim <command> [options]

Commands:
  parse      Parse a domain file and print its structure
  validate   Parse and validate a domain, optionally against instance data
  simulate   Compile a domain with instance data and run batched trajectories
  runs       List recent simulation runs from the run database
  help       Show this help message
  version    Show version information

Examples:
  # Inspect a domain file
  rddlsim parse reservoir.rddl

  # Validate a domain against its instance data
  rddlsim validate reservoir.rddl --instance res8.json

  # Run 100 trajectories of 40 steps
  rddlsim simulate reservoir.rddl --instance res8.json --batch 100 --output results.json

For command-specific help, run:
  rddlsim <command> --help`)
}
