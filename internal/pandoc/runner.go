package pandoc

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AlexKucera/obsidian-typst-pdf-export-sub001/internal/process"
)

// Sentinel errors for renderer supervision.
var (
	ErrRendererNotFound = errors.New("renderer not found on PATH")
	ErrRendererFailed   = errors.New("renderer failed")
	ErrRendererTimeout  = errors.New("renderer timed out")
)

// DefaultTimeout bounds one renderer invocation.
const DefaultTimeout = 60 * time.Second

// extraSearchDirs are appended to PATH so common install locations are
// found even when the ambient environment misses them (GUI-launched
// hosts often carry a minimal PATH).
var extraSearchDirs = []string{
	"/usr/local/bin",
	"/opt/homebrew/bin",
	"/opt/local/bin",
}

// ProgressFunc receives coarse progress updates: a percentage and the
// stderr phrase that triggered it.
type ProgressFunc func(percent int, phase string)

// Job is one renderer invocation, owned by a single Run call. Cleanup
// handlers are consumed exactly once on every exit path.
type Job struct {
	Tool       string // renderer binary name or path; defaults to "pandoc"
	Args       []string
	WorkingDir string // document root, so relative resources resolve
	OutputPath string
	Timeout    time.Duration

	mu       sync.Mutex
	cleanups []func()
	consumed bool
}

// AddCleanup registers a handler run when the job finishes, regardless
// of outcome.
func (j *Job) AddCleanup(fn func()) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.consumed {
		// Job already finished; run immediately rather than leaking.
		fn()
		return
	}
	j.cleanups = append(j.cleanups, fn)
}

// runCleanups consumes the handlers, newest first.
func (j *Job) runCleanups() {
	j.mu.Lock()
	cleanups := j.cleanups
	j.cleanups = nil
	j.consumed = true
	j.mu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

// Result is the terminal outcome of one renderer run.
type Result struct {
	Success    bool
	OutputPath string
	Stdout     string
	Stderr     string
	ExitCode   int
	Err        error
}

// Runner supervises renderer subprocesses: augmented search path, piped
// stdio, timeout enforcement, heuristic progress, and guaranteed cleanup.
type Runner struct {
	progress ProgressFunc
	lookPath func(string) (string, error)
}

// NewRunner creates a Runner. progress may be nil.
func NewRunner(progress ProgressFunc) *Runner {
	r := &Runner{progress: progress}
	r.lookPath = r.lookOnAugmentedPath
	return r
}

// Run spawns the job's tool and blocks until it exits, times out, or the
// context is canceled. Cleanup handlers run on every path before return.
func (r *Runner) Run(ctx context.Context, job *Job) *Result {
	defer job.runCleanups()

	tool := job.Tool
	if tool == "" {
		tool = "pandoc"
	}
	bin, err := r.lookPath(tool)
	if err != nil {
		return &Result{Err: fmt.Errorf("%w: %s", ErrRendererNotFound, tool), ExitCode: -1}
	}

	timeout := job.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	cmd := exec.Command(bin, job.Args...) // #nosec G204 -- argv is built by Command, not user concatenation
	cmd.Dir = job.WorkingDir
	cmd.Env = append(os.Environ(), "PATH="+augmentedPath())
	process.Setpgid(cmd)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return &Result{Err: fmt.Errorf("creating stderr pipe: %w", err), ExitCode: -1}
	}

	if err := cmd.Start(); err != nil {
		return &Result{Err: fmt.Errorf("%w: starting %s: %v", ErrRendererFailed, tool, err), ExitCode: -1}
	}

	r.report(2, "started")

	// Stream stderr incrementally: the renderer has no structured
	// progress protocol, so phases are inferred from log phrases.
	var stderr strings.Builder
	stderrDone := make(chan struct{})
	go func() {
		defer close(stderrDone)
		scanner := bufio.NewScanner(stderrPipe)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			stderr.WriteString(line)
			stderr.WriteByte('\n')
			if pct, phase, ok := progressForLine(line); ok {
				r.report(pct, phase)
			}
		}
	}()

	// The timer must never fire after a normal exit; it is stopped
	// before the result is built.
	var timedOut atomic.Bool
	timer := time.AfterFunc(timeout, func() {
		timedOut.Store(true)
		process.KillProcessGroup(cmd.Process.Pid)
	})

	waitDone := make(chan error, 1)
	go func() {
		<-stderrDone
		waitDone <- cmd.Wait()
	}()

	var waitErr error
	var canceled bool
	select {
	case waitErr = <-waitDone:
	case <-ctx.Done():
		canceled = true
		process.Interrupt(cmd.Process.Pid)
		select {
		case waitErr = <-waitDone:
		case <-time.After(2 * time.Second):
			process.KillProcessGroup(cmd.Process.Pid)
			waitErr = <-waitDone
		}
	}
	timer.Stop()

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode(cmd, waitErr),
	}

	switch {
	case timedOut.Load():
		result.Err = fmt.Errorf("%w after %s", ErrRendererTimeout, timeout)
	case canceled:
		result.Err = ctx.Err()
	case waitErr != nil:
		result.Err = fmt.Errorf("%w: %s", ErrRendererFailed, classifyStderr(result.Stderr, tool))
	default:
		result.Success = true
		result.OutputPath = job.OutputPath
		r.report(100, "done")
	}

	return result
}

func (r *Runner) report(pct int, phase string) {
	if r.progress != nil {
		r.progress(pct, phase)
	}
}

// lookOnAugmentedPath resolves the tool against the augmented PATH.
func (r *Runner) lookOnAugmentedPath(tool string) (string, error) {
	if strings.ContainsAny(tool, "/\\") {
		if _, err := os.Stat(tool); err != nil {
			return "", err
		}
		return tool, nil
	}

	if bin, err := exec.LookPath(tool); err == nil {
		return bin, nil
	}
	for _, dir := range extraSearchDirs {
		candidate := filepath.Join(dir, tool)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%q not found", tool)
}

// augmentedPath returns PATH with the common install dirs appended.
func augmentedPath() string {
	path := os.Getenv("PATH")
	for _, dir := range extraSearchDirs {
		if !strings.Contains(path, dir) {
			path += string(os.PathListSeparator) + dir
		}
	}
	return path
}

// exitCode extracts the process exit code, -1 when unknown.
func exitCode(cmd *exec.Cmd, waitErr error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
