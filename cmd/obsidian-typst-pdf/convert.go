package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	typstexport "github.com/AlexKucera/obsidian-typst-pdf-export-sub001"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrReadNote           = errors.New("failed to read note")
	ErrInvalidExtension   = errors.New("file must have .md or .markdown extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// Converter is the conversion service surface the CLI depends on.
type Converter interface {
	Export(ctx context.Context, doc typstexport.Document, outputPath string, cfg *typstexport.ExportConfig) (*typstexport.Result, error)
	Close() error
}

var _ Converter = (*typstexport.Service)(nil)

// Pool abstracts service pool operations for testability.
type Pool interface {
	Acquire() Converter
	Release(Converter)
	Size() int
}

// FileToConvert represents a single note to process.
type FileToConvert struct {
	InputPath  string
	OutputPath string
}

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Warnings   []string
	Err        error
	Duration   time.Duration
}

// runConvertCmd parses flags, builds the pool, and runs the batch.
func runConvertCmd(args []string, env *Environment) int {
	flags, positional, err := parseConvertFlags(args)
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	if err := runConvert(ctx, positional, flags, env); err != nil {
		fmt.Fprintln(env.Stderr, err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// runConvert orchestrates one convert invocation end to end.
func runConvert(ctx context.Context, positional []string, flags *convertFlags, env *Environment) error {
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	envCfg := loadEnvConfig(env.Getenv)

	cfg := DefaultConfig()
	configPath := flags.common.config
	if configPath == "" {
		configPath = envCfg.ConfigPath
	}
	if configPath != "" {
		var err error
		cfg, err = LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}
	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)

	timeout, err := resolveTimeout(cfg)
	if err != nil {
		return err
	}

	exportCfg := buildExportConfig(cfg)
	if err := exportCfg.Validate(); err != nil {
		return err
	}

	inputPath, err := resolveInputPath(positional, cfg)
	if err != nil {
		return err
	}
	outputDir := resolveOutputDir(flags.output, cfg)

	files, err := discoverFiles(inputPath, outputDir)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no notes found in %s", inputPath)
	}

	var opts []typstexport.Option
	if timeout > 0 {
		opts = append(opts, typstexport.WithTimeout(timeout))
	}
	if cfg.Renderer.Engine != "" {
		opts = append(opts, typstexport.WithEngine(cfg.Renderer.Engine))
	}
	if cfg.Export.Template != "" {
		opts = append(opts, typstexport.WithTemplate(cfg.Export.Template))
	}

	poolSize := resolvePoolSize(cfg.Workers)
	if flags.common.verbose {
		fmt.Fprintf(env.Stderr, "Pool size: %d\n", poolSize)
	}
	pool := NewServicePool(poolSize, opts...)
	defer func() { _ = pool.Close() }()

	results := convertBatch(ctx, pool, files, cfg.Vault, exportCfg)

	failed := printResults(results, flags.common.quiet, flags.common.verbose, env)
	if failed > 0 {
		return fmt.Errorf("%d conversion(s) failed", failed)
	}
	return nil
}

// buildExportConfig maps the merged CLI/file config onto the library's
// per-export configuration.
func buildExportConfig(cfg *Config) *typstexport.ExportConfig {
	return &typstexport.ExportConfig{
		Format:        cfg.Export.Format,
		Template:      cfg.Export.Template,
		PageSize:      cfg.Export.PageSize,
		Orientation:   cfg.Export.Orientation,
		MarginTop:     cfg.Export.MarginTop,
		MarginRight:   cfg.Export.MarginRight,
		MarginBottom:  cfg.Export.MarginBottom,
		MarginLeft:    cfg.Export.MarginLeft,
		BodyFont:      cfg.Export.BodyFont,
		HeadingFont:   cfg.Export.HeadingFont,
		MonospaceFont: cfg.Export.MonospaceFont,
		BodyFontSize:  cfg.Export.BodyFontSize,
		EmbedPDFs:     cfg.Export.EmbedPDFs,
		EmbedAllFiles: cfg.Export.EmbedAllFiles,
	}
}

// resolveInputPath determines the input path from args or config.
func resolveInputPath(args []string, cfg *Config) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Input.DefaultDir != "" {
		return cfg.Input.DefaultDir, nil
	}
	return "", ErrNoInput
}

// resolveOutputDir determines the output directory from flag or config.
func resolveOutputDir(flagOutput string, cfg *Config) string {
	if flagOutput != "" {
		return flagOutput
	}
	return cfg.Output.DefaultDir
}

// discoverFiles finds all notes to convert. A file input yields one
// entry; a directory is walked recursively.
func discoverFiles(inputPath, outputDir string) ([]FileToConvert, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if err := validateNoteExtension(inputPath); err != nil {
			return nil, err
		}
		return []FileToConvert{{
			InputPath:  inputPath,
			OutputPath: resolveOutputPath(inputPath, outputDir, ""),
		}}, nil
	}

	var files []FileToConvert
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Hidden directories (.obsidian, .trash) hold vault
			// internals, never notes.
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".md" && ext != ".markdown" {
			return nil
		}
		files = append(files, FileToConvert{
			InputPath:  path,
			OutputPath: resolveOutputPath(path, outputDir, inputPath),
		})
		return nil
	})
	return files, err
}

// resolveOutputPath determines the PDF output path for a note.
func resolveOutputPath(inputPath, outputDir, baseInputDir string) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), ext)

	if outputDir == "" {
		return filepath.Join(filepath.Dir(inputPath), base+".pdf")
	}
	if strings.HasSuffix(outputDir, ".pdf") {
		return outputDir
	}
	if baseInputDir != "" {
		if relPath, err := filepath.Rel(baseInputDir, inputPath); err == nil {
			return filepath.Join(outputDir, filepath.Dir(relPath), base+".pdf")
		}
	}
	return filepath.Join(outputDir, base+".pdf")
}

// validateNoteExtension checks for a markdown extension.
func validateNoteExtension(path string) error {
	ext := filepath.Ext(path)
	if ext != ".md" && ext != ".markdown" {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, ext)
	}
	return nil
}

// validateWorkers checks that the worker count is within bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, MaxPoolSize)
	}
	return nil
}

// convertBatch processes files concurrently using the service pool.
// Results keep input order regardless of completion order.
func convertBatch(ctx context.Context, pool Pool, files []FileToConvert, vault string, cfg *typstexport.ExportConfig) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := pool.Size()
	if concurrency > len(files) {
		concurrency = len(files)
	}

	results := make([]ConversionResult, len(files))
	jobs := make(chan int, len(files))
	var wg sync.WaitGroup

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			svc := pool.Acquire()
			defer pool.Release(svc)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = convertFile(ctx, svc, files[idx], vault, cfg)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// convertFile exports a single note.
func convertFile(ctx context.Context, svc Converter, f FileToConvert, vault string, cfg *typstexport.ExportConfig) ConversionResult {
	start := time.Now()
	result := ConversionResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
	}

	content, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrReadNote, err)
		result.Duration = time.Since(start)
		return result
	}

	exported, err := svc.Export(ctx, typstexport.Document{
		Body: string(content),
		Path: f.InputPath,
		Root: vault,
	}, f.OutputPath, cfg)
	result.Duration = time.Since(start)
	if err != nil {
		result.Err = err
		return result
	}

	result.Warnings = exported.Warnings
	return result
}

// printResults reports conversion outcomes and returns the failure count.
func printResults(results []ConversionResult, quiet, verbose bool, env *Environment) int {
	var succeeded, failed int

	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}

		succeeded++
		for _, warn := range r.Warnings {
			fmt.Fprintf(env.Stderr, "WARN %s: %s\n", r.InputPath, warn)
		}
		if quiet {
			continue
		}
		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", succeeded, failed)
	}
	return failed
}
