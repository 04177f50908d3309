// Package resolve turns the embed markers queued by preprocessing into
// concrete file references. This is the asynchronous half of the
// two-phase design: everything here may touch the filesystem or network,
// while the preprocessing stages stay pure.
package resolve

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/AlexKucera/obsidian-typst-pdf-export-sub001/internal/pathutil"
	"github.com/AlexKucera/obsidian-typst-pdf-export-sub001/internal/preprocess"
)

// maxConcurrentResolutions bounds parallel marker resolution so a
// document with hundreds of embeds cannot exhaust file descriptors.
const maxConcurrentResolutions = 8

// State tracks a marker through resolution. All three outcomes are
// terminal; there are no retries within a single conversion.
type State int

const (
	StateQueued State = iota
	StateResolving
	StateResolved
	StateResolvedWithFallback
	StateFailed
)

// LinkResolver is the host application's canonical link lookup. It
// respects the host's own shortcut rules and is tried first when present.
type LinkResolver interface {
	Resolve(ref, fromPath string) (string, bool)
}

// Options configures one resolution pass.
type Options struct {
	Root       string       // vault/document root, sandbox for all joins
	SourcePath string       // converted note's path, for sibling lookups
	ScratchDir string       // writable dir for fetched/transcoded files
	Links      LinkResolver // optional host resolver, tried first

	EmbedPDFs     bool // false = preview-only, no link to the original
	EmbedAllFiles bool // false = generic file embeds render as plain text
}

// Engine resolves embed markers against the real filesystem with
// multi-strategy fallback. Construct once per Service; safe for
// concurrent use across independent conversions.
type Engine struct {
	fetcher   *remoteFetcher
	images    ImageConverter
	previewer Previewer
}

// NewEngine creates an Engine with the default fetcher, image converter,
// and PDF previewer.
func NewEngine() *Engine {
	return &Engine{
		fetcher:   newRemoteFetcher(),
		images:    NewImageConverter(),
		previewer: NewPreviewer(),
	}
}

// NewEngineWith injects collaborators, for tests.
func NewEngineWith(images ImageConverter, previewer Previewer) *Engine {
	return &Engine{
		fetcher:   newRemoteFetcher(),
		images:    images,
		previewer: previewer,
	}
}

// resolution is the outcome for one marker.
type resolution struct {
	token       string
	replacement string
	state       State
	warning     string
}

// Resolve replaces every marker token in r.Content with its resolved
// reference. Failed markers become human-readable inline warnings, never
// raw tokens. Independent markers resolve concurrently; the final
// replacement is by token match, so output is deterministic regardless
// of completion order. Returns an error only on context cancellation.
func (e *Engine) Resolve(ctx context.Context, r *preprocess.Result, opts Options) error {
	markers := r.AllMarkers()
	if len(markers) == 0 {
		return nil
	}

	resolutions := make([]resolution, len(markers))
	sem := make(chan struct{}, maxConcurrentResolutions)
	var wg sync.WaitGroup

	for i, m := range markers {
		i, m := i, m
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				resolutions[i] = failedResolution(m, "conversion canceled")
				return
			}

			if ctx.Err() != nil {
				resolutions[i] = failedResolution(m, "conversion canceled")
				return
			}
			resolutions[i] = e.resolveMarker(ctx, m, opts)
		}()
	}
	wg.Wait()

	for _, res := range resolutions {
		r.Content = strings.Replace(r.Content, res.token, res.replacement, 1)
		if res.warning != "" {
			r.Warnf("%s", res.warning)
		}
	}

	return ctx.Err()
}

// resolveMarker runs one marker through the state machine.
func (e *Engine) resolveMarker(ctx context.Context, m preprocess.EmbedMarker, opts Options) resolution {
	switch m.Kind {
	case preprocess.KindImage:
		return e.resolveImage(ctx, m, opts)
	case preprocess.KindPDF:
		return e.resolvePDF(m, opts)
	default:
		return e.resolveFile(m, opts)
	}
}

// resolveImage handles local and remote image embeds, including format
// normalization for rasters the renderer cannot load.
func (e *Engine) resolveImage(ctx context.Context, m preprocess.EmbedMarker, opts Options) resolution {
	var path string
	state := StateResolved

	if pathutil.IsRemoteURL(m.OriginalPath) {
		fetched, err := e.fetcher.Fetch(ctx, m.OriginalPath, opts.ScratchDir)
		if err != nil {
			return failedResolution(m, fmt.Sprintf("could not fetch remote image %s: %v", m.OriginalPath, err))
		}
		path = fetched
	} else {
		found, st := resolveLocal(m, opts, true)
		if found == "" {
			return failedResolution(m, fmt.Sprintf("could not resolve image %q", m.OriginalPath))
		}
		path, state = found, st
	}

	normalized, err := e.images.Normalize(path, opts.ScratchDir)
	if err != nil {
		// Transcode failure is never fatal; the original is used as-is.
		return resolution{
			token:       m.Token,
			replacement: imageReference(path, m.Options),
			state:       StateResolvedWithFallback,
			warning:     fmt.Sprintf("image %s kept in original format: %v", m.FileName, err),
		}
	}

	return resolution{token: m.Token, replacement: imageReference(normalized, m.Options), state: state}
}

// resolvePDF generates a first-page preview and, unless preview-only
// mode is set, links the original document after it.
func (e *Engine) resolvePDF(m preprocess.EmbedMarker, opts Options) resolution {
	path, state := resolveLocal(m, opts, false)
	if path == "" {
		return failedResolution(m, fmt.Sprintf("could not resolve PDF %q", m.OriginalPath))
	}

	var parts []string
	preview, err := e.previewer.Preview(path, opts.ScratchDir)
	if err != nil {
		state = StateResolvedWithFallback
	} else {
		parts = append(parts, imageReference(preview, ""))
	}

	if opts.EmbedPDFs || len(parts) == 0 {
		parts = append(parts, fileReference(m.FileName, path))
	}

	res := resolution{token: m.Token, replacement: strings.Join(parts, "\n\n"), state: state}
	if err != nil {
		res.warning = fmt.Sprintf("no preview for %s: %v", m.FileName, err)
	}
	return res
}

// resolveFile handles generic file embeds (video, audio, office, notes).
func (e *Engine) resolveFile(m preprocess.EmbedMarker, opts Options) resolution {
	path, state := resolveLocal(m, opts, false)
	if path == "" {
		return failedResolution(m, fmt.Sprintf("could not resolve file %q", m.OriginalPath))
	}

	if !opts.EmbedAllFiles {
		return resolution{token: m.Token, replacement: "**" + m.FileName + "**", state: state}
	}
	return resolution{token: m.Token, replacement: fileReference(m.FileName, path), state: state}
}

// resolveLocal tries the resolution strategies in priority order: host
// resolver, root-relative, source-dir-relative, and (images only) the
// conventional attachments folders. First hit wins.
func resolveLocal(m preprocess.EmbedMarker, opts Options, isImage bool) (string, State) {
	rel := pathutil.UnescapePath(m.SanitizedPath)

	if opts.Links != nil {
		if p, ok := opts.Links.Resolve(m.OriginalPath, opts.SourcePath); ok && pathutil.FileExists(p) {
			return p, StateResolved
		}
	}

	if p, err := pathutil.SafeJoin(opts.Root, rel); err == nil && pathutil.FileExists(p) {
		return p, StateResolved
	}

	if opts.SourcePath != "" {
		sourceDir := filepath.Dir(opts.SourcePath)
		if p, err := pathutil.SafeJoin(sourceDir, rel); err == nil && pathutil.FileExists(p) {
			return p, StateResolvedWithFallback
		}
	}

	if isImage {
		for _, dir := range attachmentFallbackDirs(opts) {
			p := filepath.Join(dir, m.FileName)
			if pathutil.FileExists(p) {
				return p, StateResolvedWithFallback
			}
		}
	}

	return "", StateFailed
}

// attachmentFallbackDirs lists the conventional attachment folders tried
// for images, nearest first.
func attachmentFallbackDirs(opts Options) []string {
	var dirs []string
	if opts.SourcePath != "" {
		dirs = append(dirs, filepath.Join(filepath.Dir(opts.SourcePath), "attachments"))
	}
	dirs = append(dirs,
		filepath.Join(opts.Root, "attachments"),
		filepath.Join(opts.Root, "Attachments"),
		filepath.Join(opts.Root, "assets"),
	)
	return dirs
}

// failedResolution builds the terminal failure outcome: an inline
// warning string in content plus a diagnostic, so downstream conversion
// never sees an internal marker token.
func failedResolution(m preprocess.EmbedMarker, reason string) resolution {
	return resolution{
		token:       m.Token,
		replacement: fmt.Sprintf("> ⚠️ **Missing embed:** %s", m.FileName),
		state:       StateFailed,
		warning:     reason,
	}
}

// imageReference renders a markdown image, translating a size option
// into a pandoc width attribute.
func imageReference(path, options string) string {
	href := escapeSpaces(path)
	if w := widthOption(options); w != "" {
		return fmt.Sprintf("![](%s){width=%s}", href, w)
	}
	return fmt.Sprintf("![](%s)", href)
}

// fileReference renders a markdown link to a resolved file.
func fileReference(name, path string) string {
	return fmt.Sprintf("[%s](%s)", name, escapeSpaces(path))
}

// widthOption extracts a numeric width from an embed option suffix.
// "300" and "300x200" both yield "300px"; anything else yields "".
func widthOption(options string) string {
	options = strings.TrimSpace(options)
	if options == "" {
		return ""
	}
	width, _, _ := strings.Cut(options, "x")
	for _, r := range width {
		if r < '0' || r > '9' {
			return ""
		}
	}
	if width == "" {
		return ""
	}
	return width + "px"
}

func escapeSpaces(path string) string {
	return strings.ReplaceAll(path, " ", "%20")
}
