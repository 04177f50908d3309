package pandoc

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestCommandBuildContract(t *testing.T) {
	cmd := &Command{
		Input:         "note.md",
		Output:        "note.pdf",
		EnginePath:    "/usr/local/bin/typst",
		TemplatePath:  "/templates/default.typ",
		ResourcePaths: []string{"/vault", "/vault/attachments"},
		Variables:     map[string]string{"title": "My Note"},
		EngineOpts:    []string{"--font-path=/fonts"},
	}

	argv, err := cmd.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	joined := strings.Join(argv, " ")

	// Fixed head: input, output, reader.
	wantHead := []string{"note.md", "-o", "note.pdf", "--from", DefaultSourceFormat}
	if !slices.Equal(argv[:5], wantHead) {
		t.Errorf("argv head = %v, want %v", argv[:5], wantHead)
	}

	for _, want := range []string{
		"--pdf-engine=/usr/local/bin/typst",
		"--standalone",
		"--embed-resources",
		"--resource-path /vault",
		"--resource-path /vault/attachments",
		"--template /templates/default.typ",
		"-V title=My Note",
		"--pdf-engine-opt --font-path=/fonts",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("argv missing %q:\n%s", want, joined)
		}
	}
}

func TestCommandBuildValidation(t *testing.T) {
	if _, err := (&Command{Output: "x.pdf"}).Build(); !errors.Is(err, ErrMissingInput) {
		t.Errorf("Build() error = %v, want ErrMissingInput", err)
	}
	if _, err := (&Command{Input: "x.md"}).Build(); !errors.Is(err, ErrMissingOutput) {
		t.Errorf("Build() error = %v, want ErrMissingOutput", err)
	}
}

func TestSemanticVariableTranslation(t *testing.T) {
	cmd := &Command{
		Input:  "a.md",
		Output: "a.pdf",
		Variables: map[string]string{
			"body-font":      "Georgia",
			"body-font-size": "13",
			"margin-top":     "1.5",
		},
	}

	argv, err := cmd.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	joined := strings.Join(argv, " ")

	tests := []struct {
		name string
		want string
	}{
		{name: "semantic font name maps to native", want: "-V mainfont=Georgia"},
		{name: "size gains pt unit", want: "-V fontsize=13pt"},
		{name: "margin gains cm unit", want: "-V margin-top=1.5cm"},
		{name: "defaults fill unset variables", want: "-V papersize=a4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(joined, tt.want) {
				t.Errorf("argv missing %q:\n%s", tt.want, joined)
			}
		})
	}

	// Semantic names never leak into the argv.
	if strings.Contains(joined, "body-font") {
		t.Errorf("semantic name leaked into argv:\n%s", joined)
	}
}

func TestUnknownSemanticVariableRejected(t *testing.T) {
	cmd := &Command{
		Input:     "a.md",
		Output:    "a.pdf",
		Variables: map[string]string{"line-height": "1.4"},
	}

	if _, err := cmd.Build(); !errors.Is(err, ErrUnknownVariable) {
		t.Errorf("Build() error = %v, want ErrUnknownVariable", err)
	}
}

func TestUnitNotDoubled(t *testing.T) {
	cmd := &Command{
		Input:     "a.md",
		Output:    "a.pdf",
		Variables: map[string]string{"body-font-size": "12pt"},
	}

	argv, err := cmd.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	joined := strings.Join(argv, " ")
	if strings.Contains(joined, "12ptpt") {
		t.Errorf("unit suffix doubled:\n%s", joined)
	}
	if !strings.Contains(joined, "-V fontsize=12pt") {
		t.Errorf("explicit unit not preserved:\n%s", joined)
	}
}

func TestBuildDeterministic(t *testing.T) {
	cmd := &Command{
		Input:  "a.md",
		Output: "a.pdf",
		Variables: map[string]string{
			"body-font": "X", "heading-font": "Y", "monospace-font": "Z",
		},
	}

	first, err := cmd.Build()
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, err := cmd.Build()
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(first, again) {
			t.Fatalf("Build() not deterministic:\n%v\n%v", first, again)
		}
	}
}
