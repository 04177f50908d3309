package resolve

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AlexKucera/obsidian-typst-pdf-export-sub001/internal/preprocess"
)

// passthroughImages returns resolved images unchanged.
type passthroughImages struct{}

func (passthroughImages) Normalize(path, scratchDir string) (string, error) {
	return path, nil
}

// fakePreviewer returns a fixed preview path or error.
type fakePreviewer struct {
	path string
	err  error
}

func (p *fakePreviewer) Preview(pdfPath, scratchDir string) (string, error) {
	return p.path, p.err
}

// mapLinkResolver is a canned host link resolver.
type mapLinkResolver map[string]string

func (m mapLinkResolver) Resolve(ref, fromPath string) (string, bool) {
	p, ok := m[ref]
	return p, ok
}

func testEngine() *Engine {
	return NewEngineWith(passthroughImages{}, &fakePreviewer{path: "preview.png"})
}

func write(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

// preprocessDoc runs the real pipeline so markers carry real tokens.
func preprocessDoc(t *testing.T, content, sourcePath string) *preprocess.Result {
	t.Helper()
	r := preprocess.NewResult(content, sourcePath)
	preprocess.New().Run(r)
	return r
}

func TestResolveImageAtRoot(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "diagram.png"))

	r := preprocessDoc(t, "![[diagram.png|300]]", filepath.Join(root, "note.md"))
	err := testEngine().Resolve(context.Background(), r, Options{
		Root:       root,
		SourcePath: filepath.Join(root, "note.md"),
		ScratchDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	expected := "![](" + filepath.Join(root, "diagram.png") + "){width=300px}"
	if r.Content != expected {
		t.Errorf("content = %q, want %q", r.Content, expected)
	}
	if len(r.Errors) != 0 {
		t.Errorf("Errors = %v, want none", r.Errors)
	}
}

// A path absent at the primary location but present next to the source
// document must resolve to the sibling, not fail.
func TestResolveFallsBackToSourceSibling(t *testing.T) {
	root := t.TempDir()
	sourceDir := filepath.Join(root, "projects", "alpha")
	write(t, filepath.Join(sourceDir, "spec.pdf"))

	r := preprocessDoc(t, "![[spec.pdf]]", filepath.Join(sourceDir, "note.md"))
	err := testEngine().Resolve(context.Background(), r, Options{
		Root:       root,
		SourcePath: filepath.Join(sourceDir, "note.md"),
		ScratchDir: t.TempDir(),
		EmbedPDFs:  true,
	})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if !strings.Contains(r.Content, filepath.Join(sourceDir, "spec.pdf")) {
		t.Errorf("sibling path not used: %q", r.Content)
	}
	if strings.Contains(r.Content, "%%EMBED") {
		t.Errorf("raw marker token left in content: %q", r.Content)
	}
}

func TestResolveImageAttachmentsFallback(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "attachments", "chart.png"))

	r := preprocessDoc(t, "![[chart.png]]", filepath.Join(root, "note.md"))
	err := testEngine().Resolve(context.Background(), r, Options{
		Root:       root,
		SourcePath: filepath.Join(root, "note.md"),
		ScratchDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if !strings.Contains(r.Content, filepath.Join(root, "attachments", "chart.png")) {
		t.Errorf("attachments fallback not used: %q", r.Content)
	}
}

func TestResolveHostLinkResolverWinsOverFallbacks(t *testing.T) {
	root := t.TempDir()
	canonical := filepath.Join(root, "media", "pic.png")
	write(t, canonical)
	// Decoy at the root-relative location; the host resolver is tried first.
	write(t, filepath.Join(root, "pic.png"))

	r := preprocessDoc(t, "![[pic.png]]", filepath.Join(root, "note.md"))
	err := testEngine().Resolve(context.Background(), r, Options{
		Root:       root,
		SourcePath: filepath.Join(root, "note.md"),
		ScratchDir: t.TempDir(),
		Links:      mapLinkResolver{"pic.png": canonical},
	})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if !strings.Contains(r.Content, canonical) {
		t.Errorf("host resolver result ignored: %q", r.Content)
	}
}

func TestUnresolvedMarkerBecomesInlineWarning(t *testing.T) {
	root := t.TempDir()

	r := preprocessDoc(t, "before ![[ghost.png]] after", filepath.Join(root, "note.md"))
	err := testEngine().Resolve(context.Background(), r, Options{
		Root:       root,
		SourcePath: filepath.Join(root, "note.md"),
		ScratchDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if strings.Contains(r.Content, "%%EMBED") {
		t.Errorf("raw marker token left in content: %q", r.Content)
	}
	if !strings.Contains(r.Content, "Missing embed:") || !strings.Contains(r.Content, "ghost.png") {
		t.Errorf("no inline warning for unresolved embed: %q", r.Content)
	}
	if len(r.Warnings) == 0 {
		t.Error("expected a diagnostic warning")
	}
}

func TestResolvePDFPreviewModes(t *testing.T) {
	tests := []struct {
		name       string
		embedPDFs  bool
		previewErr error
		wantImage  bool
		wantLink   bool
	}{
		{name: "preview plus original", embedPDFs: true, wantImage: true, wantLink: true},
		{name: "preview only", embedPDFs: false, wantImage: true, wantLink: false},
		{name: "preview failed falls back to link", embedPDFs: false, previewErr: ErrNoRasterizer, wantImage: false, wantLink: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			write(t, filepath.Join(root, "doc.pdf"))

			engine := NewEngineWith(passthroughImages{}, &fakePreviewer{path: "preview.png", err: tt.previewErr})
			r := preprocessDoc(t, "![[doc.pdf]]", filepath.Join(root, "note.md"))
			err := engine.Resolve(context.Background(), r, Options{
				Root:       root,
				SourcePath: filepath.Join(root, "note.md"),
				ScratchDir: t.TempDir(),
				EmbedPDFs:  tt.embedPDFs,
			})
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}

			if got := strings.Contains(r.Content, "![](preview.png)"); got != tt.wantImage {
				t.Errorf("preview image present = %v, want %v (content %q)", got, tt.wantImage, r.Content)
			}
			if got := strings.Contains(r.Content, "[doc.pdf]("); got != tt.wantLink {
				t.Errorf("original link present = %v, want %v (content %q)", got, tt.wantLink, r.Content)
			}
		})
	}
}

func TestResolveGenericFileModes(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "slides.pptx"))

	// Link mode.
	r := preprocessDoc(t, "![[slides.pptx]]", filepath.Join(root, "note.md"))
	err := testEngine().Resolve(context.Background(), r, Options{
		Root: root, SourcePath: filepath.Join(root, "note.md"),
		ScratchDir: t.TempDir(), EmbedAllFiles: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(r.Content, "[slides.pptx](") {
		t.Errorf("file link missing: %q", r.Content)
	}

	// Name-only mode.
	r = preprocessDoc(t, "![[slides.pptx]]", filepath.Join(root, "note.md"))
	err = testEngine().Resolve(context.Background(), r, Options{
		Root: root, SourcePath: filepath.Join(root, "note.md"),
		ScratchDir: t.TempDir(), EmbedAllFiles: false,
	})
	if err != nil {
		t.Fatal(err)
	}
	if r.Content != "**slides.pptx**" {
		t.Errorf("content = %q, want bold filename", r.Content)
	}
}

func TestResolveManyMarkersDeterministic(t *testing.T) {
	root := t.TempDir()
	var doc strings.Builder
	for i := 0; i < 20; i++ {
		name := filepath.Join(root, "img", string(rune('a'+i))+".png")
		write(t, name)
		doc.WriteString("![[img/" + string(rune('a'+i)) + ".png]]\n")
	}

	r := preprocessDoc(t, doc.String(), filepath.Join(root, "note.md"))
	err := testEngine().Resolve(context.Background(), r, Options{
		Root: root, SourcePath: filepath.Join(root, "note.md"), ScratchDir: t.TempDir(),
	})
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(r.Content), "\n")
	if len(lines) != 20 {
		t.Fatalf("got %d lines, want 20", len(lines))
	}
	for i, line := range lines {
		wantPath := filepath.Join(root, "img", string(rune('a'+i))+".png")
		if line != "![]("+wantPath+")" {
			t.Errorf("line %d = %q, want reference to %q", i, line, wantPath)
		}
	}
	if len(r.Errors) != 0 {
		t.Errorf("Errors = %v", r.Errors)
	}
}

func TestResolveCanceledContext(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a.png"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := preprocessDoc(t, "![[a.png]]", filepath.Join(root, "note.md"))
	err := testEngine().Resolve(ctx, r, Options{
		Root: root, SourcePath: filepath.Join(root, "note.md"), ScratchDir: t.TempDir(),
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Resolve() error = %v, want context.Canceled", err)
	}
	if strings.Contains(r.Content, "%%EMBED") {
		t.Errorf("raw marker token left in content after cancel: %q", r.Content)
	}
}

func TestWidthOption(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "300", expected: "300px"},
		{input: "300x200", expected: "300px"},
		{input: "", expected: ""},
		{input: "left", expected: ""},
		{input: "12a", expected: ""},
	}

	for _, tt := range tests {
		if got := widthOption(tt.input); got != tt.expected {
			t.Errorf("widthOption(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
