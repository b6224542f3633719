package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rddlsim/go-rddlsim/config"
	"github.com/rddlsim/go-rddlsim/storage"
)

func runs(args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Maximum number of runs to list")
	dbPath := fs.String("db", "", "Run database path (default from environment)")
	envFile := fs.String("env", ".env", "Environment file for configuration")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: rddlsim runs [options]

List recent simulation runs from the run database.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	path := *dbPath
	if path == "" {
		cfg, err := config.Load(*envFile)
		if err != nil {
			return err
		}
		path = cfg.DBPath
	}
	if path == "" {
		return fmt.Errorf("no run database configured (--db or RDDLSIM_DB)")
	}

	store, err := storage.New(path)
	if err != nil {
		return err
	}
	defer store.Close()

	recent, err := store.RecentRuns(*limit)
	if err != nil {
		return err
	}
	if len(recent) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	fmt.Printf("%-36s  %-16s  %-8s  %5s  %7s  %12s  %s\n",
		"RUN", "DOMAIN", "POLICY", "BATCH", "HORIZON", "MEAN REWARD", "STATUS")
	for _, r := range recent {
		fmt.Printf("%-36s  %-16s  %-8s  %5d  %7d  %12.4f  %s\n",
			r.ID, r.Domain, r.Policy, r.BatchSize, r.Horizon, r.MeanTotalReward, r.Status)
	}
	return nil
}
