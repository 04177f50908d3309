package preprocess

import (
	"strings"
	"testing"
)

func TestFrontmatterExtraction(t *testing.T) {
	input := "---\ntitle: My Note\ntags:\n  - project\n  - draft\n---\n# Body\n"

	r := NewResult(input, "note.md")
	(&frontmatterStage{}).Apply(r)

	if r.Meta.Title != "My Note" {
		t.Errorf("Title = %q, want %q", r.Meta.Title, "My Note")
	}
	if _, ok := r.Meta.Tags["project"]; !ok {
		t.Error("missing tag 'project'")
	}
	if _, ok := r.Meta.Tags["draft"]; !ok {
		t.Error("missing tag 'draft'")
	}
	if strings.Contains(r.Content, "---") {
		t.Errorf("frontmatter block not removed from content: %q", r.Content)
	}
	if !strings.HasPrefix(r.Content, "# Body") {
		t.Errorf("content = %q, want to start with %q", r.Content, "# Body")
	}
	if len(r.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", r.Warnings)
	}
}

func TestFrontmatterMalformedFallsBackToLooseParse(t *testing.T) {
	// Unquoted colon in value is invalid YAML.
	input := "---\ntitle: Meeting: Q3 Review\n\tbad indent\n---\nbody\n"

	r := NewResult(input, "note.md")
	(&frontmatterStage{}).Apply(r)

	if r.Meta.Title != "Meeting: Q3 Review" {
		t.Errorf("Title = %q, want fallback-parsed title", r.Meta.Title)
	}
	if len(r.Warnings) == 0 {
		t.Error("expected a warning about the permissive parse")
	}
	if len(r.Errors) != 0 {
		t.Errorf("frontmatter fallback must not produce errors, got %v", r.Errors)
	}
}

func TestFrontmatterTagShapes(t *testing.T) {
	tests := []struct {
		name     string
		block    string
		expected []string
	}{
		{name: "inline list", block: "tags: [a, b]", expected: []string{"a", "b"}},
		{name: "comma string", block: "tags: a, b", expected: []string{"a", "b"}},
		{name: "single string", block: "tags: solo", expected: []string{"solo"}},
		{name: "hash prefixes stripped", block: "tags: [\"#x\"]", expected: []string{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResult("---\n"+tt.block+"\n---\nbody", "note.md")
			(&frontmatterStage{}).Apply(r)

			got := r.Meta.TagList()
			if len(got) != len(tt.expected) {
				t.Fatalf("TagList() = %v, want %v", got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("TagList()[%d] = %q, want %q", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestFrontmatterAbsentOrUnclosed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "no frontmatter", input: "# Just a heading\n"},
		{name: "unclosed block", input: "---\ntitle: x\nno closing delimiter"},
		{name: "delimiter mid-document", input: "text\n---\ntitle: x\n---\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResult(tt.input, "note.md")
			(&frontmatterStage{}).Apply(r)

			if r.Content != tt.input {
				t.Errorf("content changed: %q -> %q", tt.input, r.Content)
			}
			if r.Meta.Title != "" {
				t.Errorf("Title = %q, want empty", r.Meta.Title)
			}
		})
	}
}

func TestLinkFilterRemovesHostProtocolLinks(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "markdown link keeps label",
			input:    "see [open here](obsidian://open?vault=main&file=Note) for details",
			expected: "see open here for details",
		},
		{
			name:     "bare link removed",
			input:    "ref: obsidian://open?vault=main end",
			expected: "ref:  end",
		},
		{
			name:     "normal links untouched",
			input:    "[site](https://example.com) and [rel](other.md)",
			expected: "[site](https://example.com) and [rel](other.md)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResult(tt.input, "note.md")
			(&linkFilterStage{}).Apply(r)
			if r.Content != tt.expected {
				t.Errorf("content = %q, want %q", r.Content, tt.expected)
			}
		})
	}
}
