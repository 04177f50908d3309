package main

import (
	"io"
	"os"
	"strconv"
	"time"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now    func() time.Time
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
}

// defaultEnv returns the production environment.
func defaultEnv() *Environment {
	return &Environment{
		Now:    time.Now,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Getenv: os.Getenv,
	}
}

// envConfig holds overrides from OBSIDIAN_TYPST_PDF_* environment
// variables, for CI use without a config file. Precedence is CLI flags
// over env vars over config file.
type envConfig struct {
	ConfigPath string
	OutputDir  string
	Engine     string
	Timeout    time.Duration
	Workers    int
}

func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("OBSIDIAN_TYPST_PDF_CONFIG"),
		OutputDir:  getenv("OBSIDIAN_TYPST_PDF_OUTPUT_DIR"),
		Engine:     getenv("OBSIDIAN_TYPST_PDF_ENGINE"),
	}
	if v := getenv("OBSIDIAN_TYPST_PDF_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if v := getenv("OBSIDIAN_TYPST_PDF_WORKERS"); v != "" {
		if w, err := strconv.Atoi(v); err == nil && w > 0 {
			cfg.Workers = w
		}
	}
	return cfg
}
