package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rddlsim/go-rddlsim/compiler"
	"github.com/rddlsim/go-rddlsim/config"
	"github.com/rddlsim/go-rddlsim/graph"
	"github.com/rddlsim/go-rddlsim/lang"
	"github.com/rddlsim/go-rddlsim/policy"
	"github.com/rddlsim/go-rddlsim/results"
	"github.com/rddlsim/go-rddlsim/sim"
	"github.com/rddlsim/go-rddlsim/storage"
)

func simulate(args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	instanceFile := fs.String("instance", "", "Instance data file (required)")
	output := fs.String("output", "", "Output file for results JSON")
	batch := fs.Int("batch", 0, "Batch size (default from environment)")
	horizon := fs.Int("horizon", 0, "Horizon override (default from instance)")
	seed := fs.Int64("seed", -1, "Sampling seed (default from environment)")
	policyName := fs.String("policy", "default", "Policy: default or random")
	envFile := fs.String("env", ".env", "Environment file for configuration")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: rddlsim simulate <domain.rddl> --instance <data.json> [options]

Compile a domain against instance data and run batched trajectories.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Run with the default-action policy
  rddlsim simulate reservoir.rddl --instance res8.json --output results.json

  # 100 random-policy trajectories with a fixed seed
  rddlsim simulate reservoir.rddl --instance res8.json --policy random --batch 100 --seed 42
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("domain file required")
	}
	if *instanceFile == "" {
		fs.Usage()
		return fmt.Errorf("--instance required")
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}
	if *batch > 0 {
		cfg.BatchSize = *batch
	}
	if *seed >= 0 {
		cfg.Seed = *seed
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	domainFile := fs.Arg(0)
	src, err := os.ReadFile(domainFile)
	if err != nil {
		return fmt.Errorf("read domain: %w", err)
	}

	p := lang.NewParser(string(src))
	p.Lexer().Logger = logger
	model, err := p.ParseModel()
	if err != nil {
		return err
	}

	f, err := os.Open(*instanceFile)
	if err != nil {
		return fmt.Errorf("read instance: %w", err)
	}
	data, err := compiler.InstanceFromJSON(f)
	f.Close()
	if err != nil {
		return err
	}
	if *horizon > 0 {
		data.Horizon = *horizon
	}

	g := graph.NewGraph(cfg.Seed)
	c, err := compiler.New(model, g, cfg.BatchSize)
	if err != nil {
		return err
	}
	compiled, err := c.Compile(data)
	if err != nil {
		return err
	}

	var pol sim.Policy
	switch *policyName {
	case "default":
		pol = policy.NewDefault(compiled)
	case "random":
		pol = policy.NewRandom(compiled, 0, 1)
	default:
		return fmt.Errorf("unknown policy %q", *policyName)
	}

	logger.Info().
		Str("domain", model.Domain.Name).
		Int("batch", cfg.BatchSize).
		Int("horizon", compiled.Horizon).
		Int64("seed", cfg.Seed).
		Msg("starting simulation")

	simulator := sim.NewSimulator(sim.NewCell(compiled), pol)
	start := time.Now()
	run, runErr := simulator.Run(compiled.Horizon)
	elapsed := time.Since(start)

	instanceName := strings.TrimSuffix(*instanceFile, ".json")
	builder := results.NewBuilder().
		WithModel(compiled, model.Domain.Name, instanceName).
		WithPolicy(*policyName)
	if runErr != nil {
		builder.WithError(runErr)
	} else {
		builder.WithRun(compiled, run, elapsed)
	}
	res := builder.Build()

	if cfg.DBPath != "" {
		store, err := storage.New(cfg.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveRun(res); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		logger.Info().Str("run", res.Metadata.RunID).Str("db", cfg.DBPath).Msg("run persisted")
	}

	if runErr != nil {
		return runErr
	}

	if *output != "" {
		if err := results.WriteJSON(res, *output); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
	}

	fmt.Fprintf(os.Stderr, "Simulation complete\n")
	fmt.Fprintf(os.Stderr, "  Batch: %d, horizon: %d\n", cfg.BatchSize, compiled.Horizon)
	fmt.Fprintf(os.Stderr, "  Mean total reward: %.4f\n", res.Results.Summary.MeanTotalReward)
	fmt.Fprintf(os.Stderr, "  Compute time: %.3fs\n", elapsed.Seconds())
	if *output != "" {
		fmt.Fprintf(os.Stderr, "  Output: %s\n", *output)
	}

	return nil
}
