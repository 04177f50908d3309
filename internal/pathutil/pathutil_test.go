package pathutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSafeJoin(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name    string
		rel     string
		wantErr error
	}{
		{name: "simple relative", rel: "notes/today.md"},
		{name: "dot segments inside root", rel: "notes/../today.md"},
		{name: "escape via dotdot", rel: "../outside.md", wantErr: ErrPathTraversal},
		{name: "deep escape", rel: "a/../../../etc/passwd", wantErr: ErrPathTraversal},
		{name: "empty", rel: "", wantErr: ErrEmptyPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafeJoin(root, tt.rel)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SafeJoin() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SafeJoin() unexpected error: %v", err)
			}
			if !IsPathUnderDir(got, root) {
				t.Errorf("SafeJoin() = %q, not under root %q", got, root)
			}
		})
	}
}

func TestSafeJoinAbsoluteInsideRoot(t *testing.T) {
	root := t.TempDir()
	abs := filepath.Join(root, "attachments", "img.png")

	got, err := SafeJoin(root, abs)
	if err != nil {
		t.Fatalf("SafeJoin() unexpected error: %v", err)
	}
	if got != abs {
		t.Errorf("SafeJoin() = %q, want %q", got, abs)
	}

	if _, err := SafeJoin(root, "/etc/passwd"); !errors.Is(err, ErrPathTraversal) {
		t.Errorf("SafeJoin(absolute outside) error = %v, want ErrPathTraversal", err)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "note.md")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !FileExists(file) {
		t.Error("FileExists(file) = false, want true")
	}
	if FileExists(dir) {
		t.Error("FileExists(dir) = true, want false")
	}
	if FileExists(filepath.Join(dir, "missing.md")) {
		t.Error("FileExists(missing) = true, want false")
	}
}

func TestEnsureDir(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b", "c")

	if err := EnsureDir(nested); err != nil {
		t.Fatalf("EnsureDir() error: %v", err)
	}
	if !DirExists(nested) {
		t.Error("EnsureDir() did not create directory")
	}

	// Idempotent on existing dirs.
	if err := EnsureDir(nested); err != nil {
		t.Errorf("EnsureDir() on existing dir error: %v", err)
	}

	if err := EnsureDir(""); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("EnsureDir(\"\") error = %v, want ErrEmptyPath", err)
	}
}

func TestSanitizeEmbedPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "spaces percent-encoded",
			input:    "My Diagram.png",
			expected: "My%20Diagram.png",
		},
		{
			name:     "backslashes normalized",
			input:    "attachments\\img.png",
			expected: "attachments/img.png",
		},
		{
			name:     "illegal characters dropped",
			input:    "bad<file>:name?.png",
			expected: "badfilename.png",
		},
		{
			name:     "nested path keeps separators",
			input:    "sub dir/some file.pdf",
			expected: "sub%20dir/some%20file.pdf",
		},
		{
			name:     "plain path unchanged",
			input:    "diagram.png",
			expected: "diagram.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeEmbedPath(tt.input)
			if got != tt.expected {
				t.Errorf("SanitizeEmbedPath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestUnescapePathRoundTrip(t *testing.T) {
	original := "sub dir/some file.pdf"
	sanitized := SanitizeEmbedPath(original)
	if got := UnescapePath(sanitized); got != original {
		t.Errorf("UnescapePath(SanitizeEmbedPath(%q)) = %q, want %q", original, got, original)
	}

	// Invalid escape sequences pass through untouched.
	if got := UnescapePath("bad%zzescape"); got != "bad%zzescape" {
		t.Errorf("UnescapePath(invalid) = %q, want input unchanged", got)
	}
}

func TestIsRemoteURL(t *testing.T) {
	if !IsRemoteURL("https://example.com/x.png") {
		t.Error("IsRemoteURL(https) = false")
	}
	if !IsRemoteURL("http://example.com/x.png") {
		t.Error("IsRemoteURL(http) = false")
	}
	if IsRemoteURL("attachments/x.png") {
		t.Error("IsRemoteURL(relative path) = true")
	}
	if IsRemoteURL("file:///x.png") {
		t.Error("IsRemoteURL(file URL) = true")
	}
}
