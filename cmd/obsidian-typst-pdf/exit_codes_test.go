package main

import (
	"errors"
	"fmt"
	"os"
	"testing"

	typstexport "github.com/AlexKucera/obsidian-typst-pdf-export-sub001"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitSuccess},
		{name: "renderer missing", err: typstexport.ErrRendererNotFound, want: ExitRenderer},
		{name: "renderer failed", err: typstexport.ErrRendererFailed, want: ExitRenderer},
		{name: "renderer timeout wrapped", err: fmt.Errorf("rendering x.pdf: %w", typstexport.ErrRendererTimeout), want: ExitRenderer},
		{name: "file missing", err: os.ErrNotExist, want: ExitIO},
		{name: "no input", err: ErrNoInput, want: ExitIO},
		{name: "note unreadable", err: fmt.Errorf("%w: permission denied", ErrReadNote), want: ExitIO},
		{name: "config missing", err: ErrConfigNotFound, want: ExitUsage},
		{name: "config parse", err: ErrConfigParse, want: ExitUsage},
		{name: "bad extension", err: ErrInvalidExtension, want: ExitUsage},
		{name: "bad workers", err: ErrInvalidWorkerCount, want: ExitUsage},
		{name: "bad page size", err: typstexport.ErrInvalidPageSize, want: ExitUsage},
		{name: "empty document", err: typstexport.ErrEmptyDocument, want: ExitUsage},
		{name: "unknown error", err: errors.New("boom"), want: ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
