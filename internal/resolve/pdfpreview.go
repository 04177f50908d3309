package resolve

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/AlexKucera/obsidian-typst-pdf-export-sub001/internal/pathutil"
)

// Sentinel errors for preview generation.
var (
	ErrNoRasterizer     = errors.New("no PDF rasterizer found")
	ErrEmptyPDF         = errors.New("PDF has no pages")
	ErrAmbiguousPreview = errors.New("rasterizer produced ambiguous output")
)

// previewDPI keeps previews readable without ballooning the artifact.
const previewDPI = "150"

// Previewer produces a first-page raster preview for a PDF embed.
type Previewer interface {
	Preview(pdfPath, scratchDir string) (imagePath string, err error)
}

// rasterizerTools are probed in order. Each renders page 1 to PNG files
// named with the given prefix; the produced filename varies by tool and
// is located afterwards by glob.
var rasterizerTools = []struct {
	name string
	args func(pdf, prefix string) []string
}{
	{name: "pdftoppm", args: func(pdf, prefix string) []string {
		return []string{"-png", "-f", "1", "-l", "1", "-r", previewDPI, pdf, prefix}
	}},
	{name: "mutool", args: func(pdf, prefix string) []string {
		return []string{"draw", "-o", prefix + "-1.png", "-r", previewDPI, pdf, "1"}
	}},
	{name: "gs", args: func(pdf, prefix string) []string {
		return []string{"-dNOPAUSE", "-dBATCH", "-sDEVICE=png16m", "-r" + previewDPI,
			"-dFirstPage=1", "-dLastPage=1", "-sOutputFile=" + prefix + "-1.png", pdf}
	}},
}

// cliPreviewer validates the PDF with pdfcpu, then rasterizes the first
// page with whichever CLI tool is installed.
type cliPreviewer struct {
	lookPath  func(string) (string, error)
	runTool   func(tool string, args []string) error
	pageCount func(pdfPath string) (int, error)
}

// NewPreviewer returns the default pdfcpu+CLI previewer.
func NewPreviewer() Previewer {
	return &cliPreviewer{
		lookPath: exec.LookPath,
		runTool: func(tool string, args []string) error {
			out, err := exec.Command(tool, args...).CombinedOutput() // #nosec G204 -- tool names come from a fixed table
			if err != nil {
				return fmt.Errorf("%s: %v: %s", tool, err, firstLine(string(out)))
			}
			return nil
		},
		pageCount: api.PageCountFile,
	}
}

// Preview renders page one of pdfPath to a PNG in scratchDir.
//
// Rasterizers mangle output names in tool-specific ways (zero padding,
// added page suffixes), so the result is located by glob. Multiple
// candidates mean the prefix collided with leftovers from another run;
// that is reported as an error rather than silently picking one.
func (p *cliPreviewer) Preview(pdfPath, scratchDir string) (string, error) {
	pages, err := p.pageCount(pdfPath)
	if err != nil {
		return "", fmt.Errorf("validating %s: %w", filepath.Base(pdfPath), err)
	}
	if pages == 0 {
		return "", ErrEmptyPDF
	}

	if err := pathutil.EnsureDir(scratchDir); err != nil {
		return "", err
	}

	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	prefix := filepath.Join(scratchDir, "preview-"+sanitizeGlobMeta(base))

	tool, bin, err := p.findRasterizer()
	if err != nil {
		return "", err
	}

	if err := p.runTool(bin, tool.args(pdfPath, prefix)); err != nil {
		return "", err
	}

	return locatePreview(prefix)
}

// findRasterizer returns the first installed tool from the table.
func (p *cliPreviewer) findRasterizer() (struct {
	name string
	args func(pdf, prefix string) []string
}, string, error) {
	for _, tool := range rasterizerTools {
		if bin, err := p.lookPath(tool.name); err == nil {
			return tool, bin, nil
		}
	}
	return rasterizerTools[0], "", ErrNoRasterizer
}

// locatePreview fuzzy-matches the produced file. Exactly one match is
// required; ambiguity fails loudly instead of guessing.
func locatePreview(prefix string) (string, error) {
	matches, err := filepath.Glob(prefix + "*.png")
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("rasterizer produced no output for %s", prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousPreview, strings.Join(matches, ", "))
	}
}

// sanitizeGlobMeta strips glob metacharacters from a filename destined
// for a Glob pattern prefix.
func sanitizeGlobMeta(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(`*?[]`, r) {
			return '-'
		}
		return r
	}, s)
}
