package typstexport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/AlexKucera/obsidian-typst-pdf-export-sub001/internal/pandoc"
	"github.com/AlexKucera/obsidian-typst-pdf-export-sub001/internal/pathutil"
	"github.com/AlexKucera/obsidian-typst-pdf-export-sub001/internal/preprocess"
	"github.com/AlexKucera/obsidian-typst-pdf-export-sub001/internal/resolve"
	"github.com/AlexKucera/obsidian-typst-pdf-export-sub001/internal/respath"
)

// renderRunner abstracts the subprocess supervisor, for tests.
type renderRunner interface {
	Run(ctx context.Context, job *pandoc.Job) *pandoc.Result
}

// Service converts notes to PDF. Construct once with New and reuse
// across conversions; it is safe for concurrent use. Close releases the
// scratch directory.
type Service struct {
	timeout     time.Duration
	progress    pandoc.ProgressFunc
	links       LinkResolver
	scratchRoot string
	enginePath  string
	template    string

	pipeline *preprocess.Pipeline
	engine   *resolve.Engine
	respath  *respath.Resolver
	run      renderRunner

	mu      sync.Mutex
	scratch string // lazily created under scratchRoot
	closed  bool
}

var _ renderRunner = (*pandoc.Runner)(nil)

// New creates a Service with the given options.
func New(opts ...Option) *Service {
	s := &Service{
		timeout:    pandoc.DefaultTimeout,
		enginePath: "typst",
		pipeline:   preprocess.New(),
		engine:     resolve.NewEngine(),
		respath:    respath.NewResolver(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.run = pandoc.NewRunner(s.progress)
	return s
}

// Export converts doc and writes the PDF to outputPath. cfg may be nil
// for defaults. The returned Result carries warnings and diagnostics
// accumulated along the way; a non-nil Result means a PDF exists at
// OutputPath even if Warnings is non-empty.
func (s *Service) Export(ctx context.Context, doc Document, outputPath string, cfg *ExportConfig) (*Result, error) {
	start := time.Now()

	if doc.Body == "" {
		return nil, ErrEmptyDocument
	}
	if outputPath == "" {
		return nil, ErrMissingOutputPath
	}
	if cfg == nil {
		cfg = &ExportConfig{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	jobDir, err := s.newJobDir()
	if err != nil {
		return nil, err
	}

	pre := preprocess.NewResult(doc.Body, doc.Path)
	s.pipeline.Run(pre)

	root := doc.root()
	if err := s.engine.Resolve(ctx, pre, resolve.Options{
		Root:          root,
		SourcePath:    doc.Path,
		ScratchDir:    jobDir,
		Links:         s.links,
		EmbedPDFs:     cfg.EmbedPDFs,
		EmbedAllFiles: cfg.EmbedAllFiles,
	}); err != nil {
		_ = os.RemoveAll(jobDir)
		return nil, err
	}

	inputPath := filepath.Join(jobDir, "input.md")
	if err := os.WriteFile(inputPath, []byte(pre.Content), 0o600); err != nil {
		_ = os.RemoveAll(jobDir)
		return nil, fmt.Errorf("writing renderer input: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := pathutil.EnsureDir(dir); err != nil {
			_ = os.RemoveAll(jobDir)
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}

	template := cfg.Template
	if template == "" {
		template = s.template
	}

	cmd := &pandoc.Command{
		Input:        inputPath,
		Output:       outputPath,
		EnginePath:   s.enginePath,
		TemplatePath: template,
		Variables:    cfg.variables(pre.Meta.Title),
	}
	if root != "" {
		cmd.ResourcePaths = s.respath.ResourcePaths(root)
	}

	argv, err := cmd.Build()
	if err != nil {
		_ = os.RemoveAll(jobDir)
		return nil, err
	}

	job := &pandoc.Job{
		Args:       argv,
		WorkingDir: root,
		OutputPath: outputPath,
		Timeout:    s.timeout,
	}
	job.AddCleanup(func() { _ = os.RemoveAll(jobDir) })

	res := s.run.Run(ctx, job)
	if res.Err != nil {
		return nil, fmt.Errorf("rendering %s: %w", filepath.Base(outputPath), res.Err)
	}

	return &Result{
		OutputPath: res.OutputPath,
		Title:      pre.Meta.Title,
		Tags:       pre.Meta.TagList(),
		Warnings:   pre.Warnings,
		Errors:     pre.Errors,
		Duration:   time.Since(start),
	}, nil
}

// Close removes the scratch directory. The Service is unusable after.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.scratch == "" {
		return nil
	}
	return os.RemoveAll(s.scratch)
}

// newJobDir creates a per-export scratch directory, lazily creating the
// shared parent on first use.
func (s *Service) newJobDir() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrServiceClosed
	}
	if s.scratch == "" {
		parent, err := os.MkdirTemp(s.scratchRoot, "typstexport-")
		if err != nil {
			return "", fmt.Errorf("creating scratch directory: %w", err)
		}
		s.scratch = parent
	}

	jobDir, err := os.MkdirTemp(s.scratch, "export-")
	if err != nil {
		return "", fmt.Errorf("creating job directory: %w", err)
	}
	return jobDir, nil
}
