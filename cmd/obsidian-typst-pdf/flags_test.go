package main

import "testing"

func TestParseConvertFlags(t *testing.T) {
	flags, positional, err := parseConvertFlags([]string{
		"notes/",
		"-o", "out/",
		"--vault", "/vault",
		"-w", "4",
		"--format", "single-page",
		"-p", "a5",
		"--margin", "2",
		"--body-font", "Georgia",
		"--font-size", "13",
		"--embed-pdfs",
		"-v",
	})
	if err != nil {
		t.Fatalf("parseConvertFlags() error: %v", err)
	}

	if len(positional) != 1 || positional[0] != "notes/" {
		t.Errorf("positional = %v, want [notes/]", positional)
	}
	if flags.output != "out/" {
		t.Errorf("output = %q", flags.output)
	}
	if flags.vault != "/vault" {
		t.Errorf("vault = %q", flags.vault)
	}
	if flags.workers != 4 {
		t.Errorf("workers = %d", flags.workers)
	}
	if flags.format != "single-page" {
		t.Errorf("format = %q", flags.format)
	}
	if flags.page.size != "a5" {
		t.Errorf("page size = %q", flags.page.size)
	}
	if flags.page.margin != 2 {
		t.Errorf("margin = %v", flags.page.margin)
	}
	if flags.fonts.bodyFont != "Georgia" || flags.fonts.fontSize != 13 {
		t.Errorf("fonts = %+v", flags.fonts)
	}
	if !flags.embeds.pdfs {
		t.Error("embed-pdfs not set")
	}
	if !flags.common.verbose {
		t.Error("verbose not set")
	}
}

func TestParseConvertFlagsRejectsUnknown(t *testing.T) {
	if _, _, err := parseConvertFlags([]string{"--no-such-flag"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestValidateWorkers(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		wantErr bool
	}{
		{name: "auto", workers: 0},
		{name: "explicit", workers: 4},
		{name: "maximum", workers: MaxPoolSize},
		{name: "negative", workers: -1, wantErr: true},
		{name: "above maximum", workers: MaxPoolSize + 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateWorkers(tt.workers)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateWorkers(%d) = %v, wantErr %v", tt.workers, err, tt.wantErr)
			}
		})
	}
}
