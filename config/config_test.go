package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"RDDLSIM_BATCH", "RDDLSIM_SEED", "RDDLSIM_DB", "RDDLSIM_LOG_LEVEL"} {
		os.Unsetenv(key)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BatchSize != 128 || cfg.Seed != 0 || cfg.DBPath != "" || cfg.LogLevel != "info" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("RDDLSIM_BATCH", "32")
	t.Setenv("RDDLSIM_SEED", "42")
	t.Setenv("RDDLSIM_DB", "runs.db")
	t.Setenv("RDDLSIM_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BatchSize != 32 {
		t.Errorf("expected batch 32, got %d", cfg.BatchSize)
	}
	if cfg.Seed != 42 {
		t.Errorf("expected seed 42, got %d", cfg.Seed)
	}
	if cfg.DBPath != "runs.db" {
		t.Errorf("expected db 'runs.db', got %q", cfg.DBPath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %q", cfg.LogLevel)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("RDDLSIM_BATCH", "zero")
	if _, err := Load(""); err == nil {
		t.Error("non-numeric batch size should fail")
	}

	t.Setenv("RDDLSIM_BATCH", "0")
	if _, err := Load(""); err == nil {
		t.Error("zero batch size should fail")
	}

	t.Setenv("RDDLSIM_BATCH", "8")
	t.Setenv("RDDLSIM_SEED", "not-a-number")
	if _, err := Load(""); err == nil {
		t.Error("non-numeric seed should fail")
	}
}

func TestLoad_EnvFile(t *testing.T) {
	for _, key := range []string{"RDDLSIM_BATCH", "RDDLSIM_SEED", "RDDLSIM_DB", "RDDLSIM_LOG_LEVEL"} {
		os.Unsetenv(key)
	}

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("RDDLSIM_BATCH=16\nRDDLSIM_LOG_LEVEL=warn\n"), 0644); err != nil {
		t.Fatal(err)
	}
	defer func() {
		os.Unsetenv("RDDLSIM_BATCH")
		os.Unsetenv("RDDLSIM_LOG_LEVEL")
	}()

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BatchSize != 16 || cfg.LogLevel != "warn" {
		t.Errorf("env file not applied: %+v", cfg)
	}
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing env file should be ignored, got %v", err)
	}
}
