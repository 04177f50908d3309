package main

import (
	"context"
	"errors"
	"os"

	typstexport "github.com/AlexKucera/obsidian-typst-pdf-export-sub001"
)

// Exit codes follow Unix conventions: 0=success, 1=general, 2=usage,
// plus custom codes below 126.
const (
	ExitSuccess  = 0 // successful conversion
	ExitGeneral  = 1 // general/unexpected error
	ExitUsage    = 2 // invalid flags, config, or validation
	ExitIO       = 3 // file not found, permission denied
	ExitRenderer = 4 // renderer missing, failed, or timed out
)

// exitCodeFor maps an error to the process exit code. It uses errors.Is,
// so producers must wrap with fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, typstexport.ErrRendererNotFound) ||
		errors.Is(err, typstexport.ErrRendererFailed) ||
		errors.Is(err, typstexport.ErrRendererTimeout) ||
		errors.Is(err, context.DeadlineExceeded) {
		return ExitRenderer
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadNote) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	if errors.Is(err, ErrConfigNotFound) ||
		errors.Is(err, ErrConfigParse) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, typstexport.ErrEmptyDocument) ||
		errors.Is(err, typstexport.ErrMissingOutputPath) ||
		errors.Is(err, typstexport.ErrInvalidFormat) ||
		errors.Is(err, typstexport.ErrInvalidPageSize) ||
		errors.Is(err, typstexport.ErrInvalidOrientation) ||
		errors.Is(err, typstexport.ErrInvalidMargin) ||
		errors.Is(err, typstexport.ErrInvalidFontSize) {
		return ExitUsage
	}

	return ExitGeneral
}
