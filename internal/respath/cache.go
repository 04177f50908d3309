// Package respath computes the directory list the external renderer
// searches for relative assets, caching the per-root scan with a TTL so
// repeated conversions out of the same vault skip the tree walk.
package respath

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/AlexKucera/obsidian-typst-pdf-export-sub001/internal/pathutil"
)

// DefaultTTL is how long a scan result stays valid.
const DefaultTTL = 5 * time.Minute

// conventionalAttachmentDirs are checked for existence directly, without
// scanning, and included when present.
var conventionalAttachmentDirs = []string{
	"attachments",
	"Attachments",
	"assets",
	"images",
	"files",
}

// imageFileExtensions mark a subdirectory as attachment-bearing.
var imageFileExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".svg": {},
	".bmp": {}, ".webp": {}, ".tiff": {}, ".tif": {}, ".avif": {},
}

// entry is one cached scan. Entries are immutable once stored; the cache
// is safe to share across concurrent conversion jobs.
type entry struct {
	rootPath  string
	paths     []string
	timestamp time.Time
}

// Resolver caches resource-path discovery per vault root.
type Resolver struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewResolver creates a Resolver with the default TTL.
func NewResolver() *Resolver {
	return &Resolver{
		entries: make(map[string]entry),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
}

// NewResolverWithClock injects ttl and clock, for tests.
func NewResolverWithClock(ttl time.Duration, now func() time.Time) *Resolver {
	return &Resolver{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     now,
	}
}

// ResourcePaths returns the directories the renderer should search for
// relative assets under root: the root itself, conventional attachment
// folders that exist, and top-level subdirectories containing image
// files. Results are cached per root; a stale-but-unexpired entry is
// served as-is, an expired or foreign-root entry is discarded and
// rebuilt, never partially trusted.
func (r *Resolver) ResourcePaths(root string) []string {
	root = filepath.Clean(root)

	r.mu.RLock()
	e, ok := r.entries[root]
	r.mu.RUnlock()
	if ok && e.rootPath == root && r.now().Sub(e.timestamp) < r.ttl {
		return e.paths
	}

	paths := scanRoot(root)

	r.mu.Lock()
	r.entries[root] = entry{rootPath: root, paths: paths, timestamp: r.now()}
	r.mu.Unlock()

	return paths
}

// Invalidate drops the cached entry for root, if any.
func (r *Resolver) Invalidate(root string) {
	r.mu.Lock()
	delete(r.entries, filepath.Clean(root))
	r.mu.Unlock()
}

// scanRoot performs the uncached discovery walk.
func scanRoot(root string) []string {
	paths := []string{root}
	seen := map[string]struct{}{root: {}}

	add := func(p string) {
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}

	for _, name := range conventionalAttachmentDirs {
		dir := filepath.Join(root, name)
		if pathutil.DirExists(dir) {
			add(dir)
		}
	}

	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return paths
	}

	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		name := de.Name()
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			continue
		}
		dir := filepath.Join(root, name)
		if containsImageFiles(dir) {
			add(dir)
		}
	}

	return paths
}

// containsImageFiles reports whether the directory directly holds at
// least one image file. Only the first level is inspected; deep nesting
// is the author's problem to surface via conventional folders.
func containsImageFiles(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if _, ok := imageFileExtensions[ext]; ok {
			return true
		}
	}
	return false
}
