package preprocess

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/AlexKucera/obsidian-typst-pdf-export-sub001/internal/pathutil"
)

// EmbedKind classifies an embed directive by target type.
type EmbedKind string

// Embed kinds. Anything not recognized as an image or PDF is a generic
// file embed, including video, audio, and office formats.
const (
	KindImage EmbedKind = "image"
	KindPDF   EmbedKind = "pdf"
	KindFile  EmbedKind = "file"
)

// EmbedMarker records one detected embed directive. The directive text is
// replaced in content by Token; resolution later replaces Token exactly
// once with the resolved reference.
type EmbedMarker struct {
	Kind          EmbedKind
	OriginalPath  string // as written by the author
	SanitizedPath string // percent-encoded, safe for path joins
	FileName      string // last path segment, unescaped
	BaseName      string // FileName without extension
	Options       string // free-form suffix, e.g. size hints ("300")
	Token         string // unique placeholder embedded in content
}

// newMarkerToken returns a placeholder string that cannot plausibly occur
// in note text. The UUID guarantees uniqueness across markers and across
// concurrent conversions of the same document.
func newMarkerToken(kind EmbedKind) string {
	return fmt.Sprintf("%%%%EMBED-%s-%s%%%%", kind, uuid.NewString())
}

// Metadata accumulates everything the stages learn about a document.
type Metadata struct {
	Title       string
	Frontmatter map[string]any
	Tags        map[string]struct{}

	// Append-only embed queues, populated by embed extraction and
	// consumed in order by the resolution engine.
	ImageEmbeds []EmbedMarker
	PDFEmbeds   []EmbedMarker
	FileEmbeds  []EmbedMarker
}

// TagList returns the tag set in sorted order.
func (m *Metadata) TagList() []string {
	tags := make([]string, 0, len(m.Tags))
	for tag := range m.Tags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// AddTag normalizes and records a tag. Leading '#' is stripped.
func (m *Metadata) AddTag(tag string) {
	tag = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
	if tag == "" {
		return
	}
	if m.Tags == nil {
		m.Tags = make(map[string]struct{})
	}
	m.Tags[tag] = struct{}{}
}

// Result is the pipeline's working record, threaded by reference through
// every stage. Content is mutated in place; Errors and Warnings are
// append-only diagnostic channels that never halt the pipeline.
type Result struct {
	Content    string
	SourcePath string
	Meta       Metadata
	Errors     []string
	Warnings   []string
}

// NewResult creates the working record for one document conversion.
func NewResult(content, sourcePath string) *Result {
	return &Result{
		Content:    content,
		SourcePath: sourcePath,
		Meta: Metadata{
			Tags: make(map[string]struct{}),
		},
	}
}

// Warnf appends a formatted warning.
func (r *Result) Warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Errorf appends a formatted error. Errors here are diagnostics, not
// control flow: the pipeline continues regardless.
func (r *Result) Errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// AllMarkers returns every queued marker across the three kinds.
func (r *Result) AllMarkers() []EmbedMarker {
	out := make([]EmbedMarker, 0, len(r.Meta.ImageEmbeds)+len(r.Meta.PDFEmbeds)+len(r.Meta.FileEmbeds))
	out = append(out, r.Meta.ImageEmbeds...)
	out = append(out, r.Meta.PDFEmbeds...)
	out = append(out, r.Meta.FileEmbeds...)
	return out
}

// newMarker builds an EmbedMarker for a raw embed target.
func newMarker(kind EmbedKind, rawPath, options string) EmbedMarker {
	sanitized := pathutil.SanitizeEmbedPath(rawPath)
	fileName := pathutil.UnescapePath(filepath.Base(sanitized))
	ext := filepath.Ext(fileName)

	return EmbedMarker{
		Kind:          kind,
		OriginalPath:  rawPath,
		SanitizedPath: sanitized,
		FileName:      fileName,
		BaseName:      strings.TrimSuffix(fileName, ext),
		Options:       options,
		Token:         newMarkerToken(kind),
	}
}
