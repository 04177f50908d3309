// Package pathutil provides safe path primitives over a sandboxed root.
//
// Every component that touches the vault filesystem goes through these
// helpers so that author-supplied paths can never escape the document root.
package pathutil

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for path operations.
var (
	ErrEmptyPath     = errors.New("path cannot be empty")
	ErrPathTraversal = errors.New("path escapes the document root")
)

// Directory permissions for created scratch/output directories.
const DirPermissions = 0o750

// SafeJoin joins rel onto root and verifies the result stays under root.
// Absolute rel paths are rejected unless they already live under root.
func SafeJoin(root, rel string) (string, error) {
	if rel == "" {
		return "", ErrEmptyPath
	}

	var joined string
	if filepath.IsAbs(rel) {
		joined = filepath.Clean(rel)
	} else {
		joined = filepath.Join(root, rel)
	}

	if !IsPathUnderDir(joined, root) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, rel)
	}
	return joined, nil
}

// IsPathUnderDir checks if absPath is under dir (prevents path traversal).
func IsPathUnderDir(absPath, dir string) bool {
	cleanPath := filepath.Clean(absPath)
	cleanDir := filepath.Clean(dir)

	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}

	return strings.HasPrefix(cleanPath+string(filepath.Separator), cleanDir)
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists returns true if the path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// EnsureDir creates the directory (and parents) if it does not exist.
func EnsureDir(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	return os.MkdirAll(path, DirPermissions)
}

// IsRemoteURL returns true if the string is an http or https URL.
func IsRemoteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// illegalFilenameChars are stripped from embed paths before any join.
// Covers Windows-reserved characters plus null; forward slashes survive
// because they separate path segments.
const illegalFilenameChars = "<>:\"|?*\x00"

// SanitizeEmbedPath converts an author-written embed target into a form
// safe for later path joins: backslashes become slashes, characters
// illegal in filenames are dropped, and spaces are percent-encoded per
// segment so the result survives markdown link syntax.
func SanitizeEmbedPath(raw string) string {
	s := strings.ReplaceAll(raw, "\\", "/")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(illegalFilenameChars, r) {
			continue
		}
		b.WriteRune(r)
	}
	s = b.String()

	segments := strings.Split(s, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

// UnescapePath reverses percent-encoding applied by SanitizeEmbedPath.
// Invalid escapes return the input unchanged rather than failing.
func UnescapePath(s string) string {
	out, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return out
}
