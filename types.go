package typstexport

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/AlexKucera/obsidian-typst-pdf-export-sub001/internal/pandoc"
)

// LinkResolver is the host application's canonical link lookup. When
// installed it is consulted before any filesystem fallback strategy, so
// host-specific shortcut rules win over path guessing.
type LinkResolver interface {
	Resolve(ref, fromPath string) (string, bool)
}

// Document is one note to convert. Body is the raw note text including
// any frontmatter; Path is where the note lives on disk and anchors
// sibling-relative embed lookups. Root is the vault root used as the
// sandbox for all path resolution; when empty it defaults to the
// directory containing Path.
type Document struct {
	Body string
	Path string
	Root string
}

// root returns the effective resolution root.
func (d Document) root() string {
	if d.Root != "" {
		return filepath.Clean(d.Root)
	}
	if d.Path != "" {
		return filepath.Dir(d.Path)
	}
	return ""
}

// Output formats.
const (
	// FormatStandard paginates normally.
	FormatStandard = "standard"
	// FormatSinglePage renders the whole note as one continuous page.
	FormatSinglePage = "single-page"
)

var validPageSizes = map[string]struct{}{
	"a3": {}, "a4": {}, "a5": {}, "letter": {}, "legal": {}, "tabloid": {},
}

var validOrientations = map[string]struct{}{
	"portrait": {}, "landscape": {},
}

// Margin and font-size bounds, chosen to catch unit confusion (margins
// are centimeters, sizes are points) rather than to police taste.
const (
	maxMarginCM = 10.0
	minFontPt   = 6
	maxFontPt   = 72
)

// ExportConfig controls one export. The zero value is valid and means
// defaults throughout: standard format, A4 portrait, the renderer's
// built-in template, and preview-only PDF embeds.
type ExportConfig struct {
	Format   string // FormatStandard (default) or FormatSinglePage
	Template string // path to a Typst template, empty for the built-in

	PageSize    string // a4, a5, a3, letter, legal, tabloid
	Orientation string // portrait or landscape

	// Margins in centimeters. Zero means the default for that side.
	MarginTop    float64
	MarginRight  float64
	MarginBottom float64
	MarginLeft   float64

	BodyFont      string
	HeadingFont   string
	MonospaceFont string
	BodyFontSize  int // points; zero means default

	// EmbedPDFs links the original document after its preview image.
	EmbedPDFs bool
	// EmbedAllFiles links generic file embeds instead of rendering
	// their names as plain bold text.
	EmbedAllFiles bool
}

// Validate checks the configuration. Empty fields are defaults and
// always pass.
func (c *ExportConfig) Validate() error {
	if c.Format != "" && c.Format != FormatStandard && c.Format != FormatSinglePage {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Format)
	}
	if c.PageSize != "" {
		if _, ok := validPageSizes[strings.ToLower(c.PageSize)]; !ok {
			return fmt.Errorf("%w: %q", ErrInvalidPageSize, c.PageSize)
		}
	}
	if c.Orientation != "" {
		if _, ok := validOrientations[strings.ToLower(c.Orientation)]; !ok {
			return fmt.Errorf("%w: %q", ErrInvalidOrientation, c.Orientation)
		}
	}
	for _, m := range []struct {
		side  string
		value float64
	}{
		{side: "top", value: c.MarginTop},
		{side: "right", value: c.MarginRight},
		{side: "bottom", value: c.MarginBottom},
		{side: "left", value: c.MarginLeft},
	} {
		if m.value < 0 || m.value > maxMarginCM {
			return fmt.Errorf("%w: %s margin %.1fcm", ErrInvalidMargin, m.side, m.value)
		}
	}
	if c.BodyFontSize != 0 && (c.BodyFontSize < minFontPt || c.BodyFontSize > maxFontPt) {
		return fmt.Errorf("%w: %dpt", ErrInvalidFontSize, c.BodyFontSize)
	}
	return nil
}

// variables renders the config as semantic renderer variables. Only set
// fields are emitted; the command layer fills defaults.
func (c *ExportConfig) variables(title string) map[string]string {
	vars := make(map[string]string)

	set := func(name, value string) {
		if value != "" {
			vars[name] = value
		}
	}
	setMargin := func(name string, value float64) {
		if value > 0 {
			vars[name] = strconv.FormatFloat(value, 'f', -1, 64)
		}
	}

	set("title", title)
	set("page-size", strings.ToLower(c.PageSize))
	set("orientation", strings.ToLower(c.Orientation))
	set("body-font", c.BodyFont)
	set("heading-font", c.HeadingFont)
	set("monospace-font", c.MonospaceFont)
	if c.BodyFontSize > 0 {
		vars["body-font-size"] = strconv.Itoa(c.BodyFontSize)
	}
	setMargin("margin-top", c.MarginTop)
	setMargin("margin-right", c.MarginRight)
	setMargin("margin-bottom", c.MarginBottom)
	setMargin("margin-left", c.MarginLeft)

	if c.Format == FormatSinglePage {
		vars["page-height"] = "auto"
	}

	return vars
}

// Result reports a completed export.
type Result struct {
	OutputPath string
	Title      string
	Tags       []string

	// Warnings are degradations that did not stop the export, such as
	// an embed that could not be resolved. Errors are diagnostics from
	// rewriting stages; a non-empty slice still means a PDF was written.
	Warnings []string
	Errors   []string

	Duration time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout bounds each renderer invocation.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithProgress registers a callback for coarse conversion progress.
func WithProgress(fn func(percent int, phase string)) Option {
	return func(s *Service) { s.progress = pandoc.ProgressFunc(fn) }
}

// WithLinkResolver installs the host application's canonical link
// lookup, tried before the filesystem fallback strategies.
func WithLinkResolver(lr LinkResolver) Option {
	return func(s *Service) { s.links = lr }
}

// WithScratchDir places per-export scratch directories under dir
// instead of the system temp directory.
func WithScratchDir(dir string) Option {
	return func(s *Service) { s.scratchRoot = dir }
}

// WithEngine sets the Typst binary name or path handed to the renderer.
func WithEngine(path string) Option {
	return func(s *Service) { s.enginePath = path }
}

// WithTemplate sets the default template used when ExportConfig leaves
// Template empty.
func WithTemplate(path string) Option {
	return func(s *Service) { s.template = path }
}
