package resolve

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeRasterizer wires a cliPreviewer whose tool run writes the given
// output files instead of invoking a real binary.
func fakeRasterizer(t *testing.T, pages int, outputs func(prefix string) []string) *cliPreviewer {
	t.Helper()
	return &cliPreviewer{
		lookPath: func(name string) (string, error) {
			if name == "pdftoppm" {
				return "/usr/bin/pdftoppm", nil
			}
			return "", errors.New("not found")
		},
		runTool: func(tool string, args []string) error {
			prefix := args[len(args)-1]
			for _, out := range outputs(prefix) {
				if err := os.WriteFile(out, []byte("png"), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			return nil
		},
		pageCount: func(string) (int, error) { return pages, nil },
	}
}

func TestPreviewLocatesSingleOutput(t *testing.T) {
	scratch := t.TempDir()
	p := fakeRasterizer(t, 3, func(prefix string) []string {
		// pdftoppm zero-pads page numbers depending on page count.
		return []string{prefix + "-01.png"}
	})

	got, err := p.Preview("/vault/paper.pdf", scratch)
	if err != nil {
		t.Fatalf("Preview() error: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(got), "preview-paper") || filepath.Ext(got) != ".png" {
		t.Errorf("Preview() = %q, want preview-paper…png", got)
	}
}

func TestPreviewAmbiguousOutputFailsLoudly(t *testing.T) {
	p := fakeRasterizer(t, 1, func(prefix string) []string {
		return []string{prefix + "-1.png", prefix + "-01.png"}
	})

	_, err := p.Preview("/vault/paper.pdf", t.TempDir())
	if !errors.Is(err, ErrAmbiguousPreview) {
		t.Errorf("Preview() error = %v, want ErrAmbiguousPreview", err)
	}
}

func TestPreviewEmptyPDFFails(t *testing.T) {
	p := fakeRasterizer(t, 0, func(prefix string) []string { return nil })

	_, err := p.Preview("/vault/empty.pdf", t.TempDir())
	if !errors.Is(err, ErrEmptyPDF) {
		t.Errorf("Preview() error = %v, want ErrEmptyPDF", err)
	}
}

func TestPreviewInvalidPDFFails(t *testing.T) {
	p := &cliPreviewer{
		lookPath:  func(string) (string, error) { return "/usr/bin/pdftoppm", nil },
		runTool:   func(string, []string) error { t.Fatal("must not rasterize invalid PDF"); return nil },
		pageCount: func(string) (int, error) { return 0, errors.New("pdfcpu: malformed xref") },
	}

	if _, err := p.Preview("/vault/broken.pdf", t.TempDir()); err == nil {
		t.Error("Preview() accepted invalid PDF, want error")
	}
}

func TestPreviewNoRasterizerInstalled(t *testing.T) {
	p := &cliPreviewer{
		lookPath:  func(string) (string, error) { return "", errors.New("not found") },
		runTool:   func(string, []string) error { return nil },
		pageCount: func(string) (int, error) { return 1, nil },
	}

	if _, err := p.Preview("/vault/paper.pdf", t.TempDir()); !errors.Is(err, ErrNoRasterizer) {
		t.Errorf("Preview() error = %v, want ErrNoRasterizer", err)
	}
}

func TestNoRasterizerProbesInOrder(t *testing.T) {
	var probed []string
	p := &cliPreviewer{
		lookPath: func(name string) (string, error) {
			probed = append(probed, name)
			if name == "gs" {
				return "/usr/bin/gs", nil
			}
			return "", errors.New("not found")
		},
		runTool: func(tool string, args []string) error {
			// gs writes the file named by -sOutputFile=.
			for _, a := range args {
				if out, ok := strings.CutPrefix(a, "-sOutputFile="); ok {
					return os.WriteFile(out, []byte("png"), 0o644)
				}
			}
			return errors.New("no output arg")
		},
		pageCount: func(string) (int, error) { return 2, nil },
	}

	if _, err := p.Preview("/vault/paper.pdf", t.TempDir()); err != nil {
		t.Fatalf("Preview() error: %v", err)
	}

	want := []string{"pdftoppm", "mutool", "gs"}
	if len(probed) != len(want) {
		t.Fatalf("probed %v, want %v", probed, want)
	}
	for i := range want {
		if probed[i] != want[i] {
			t.Errorf("probe %d = %q, want %q", i, probed[i], want[i])
		}
	}
}
