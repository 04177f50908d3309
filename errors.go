package typstexport

import (
	"errors"

	"github.com/AlexKucera/obsidian-typst-pdf-export-sub001/internal/pandoc"
)

// Sentinel errors returned by the public API. Test with errors.Is.
var (
	ErrEmptyDocument      = errors.New("document body cannot be empty")
	ErrMissingOutputPath  = errors.New("output path cannot be empty")
	ErrInvalidFormat      = errors.New("invalid output format")
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("margin out of range")
	ErrInvalidFontSize    = errors.New("font size out of range")
	ErrServiceClosed      = errors.New("service is closed")
)

// Renderer failures are re-exported so callers can classify Export
// errors without reaching into internal packages.
var (
	ErrRendererNotFound = pandoc.ErrRendererNotFound
	ErrRendererFailed   = pandoc.ErrRendererFailed
	ErrRendererTimeout  = pandoc.ErrRendererTimeout
)
