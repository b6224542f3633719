// Package config loads simulator settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings of the simulator.
type Config struct {
	BatchSize int    // RDDLSIM_BATCH
	Seed      int64  // RDDLSIM_SEED
	DBPath    string // RDDLSIM_DB, empty disables run persistence
	LogLevel  string // RDDLSIM_LOG_LEVEL
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		BatchSize: 128,
		Seed:      0,
		DBPath:    "",
		LogLevel:  "info",
	}
}

// Load reads configuration from the environment. If envFile is non-empty
// and exists, it is loaded first without overriding variables already set.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return Config{}, fmt.Errorf("load %s: %w", envFile, err)
			}
		}
	}

	cfg := Defaults()

	if v := os.Getenv("RDDLSIM_BATCH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("RDDLSIM_BATCH: invalid batch size %q", v)
		}
		cfg.BatchSize = n
	}
	if v := os.Getenv("RDDLSIM_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("RDDLSIM_SEED: invalid seed %q", v)
		}
		cfg.Seed = n
	}
	if v := os.Getenv("RDDLSIM_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("RDDLSIM_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg, nil
}
