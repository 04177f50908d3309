package preprocess

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Precompiled embed directive patterns.
var (
	// Wikilink embeds: ![[target]] or ![[target|options]].
	wikilinkEmbed = regexp.MustCompile(`!\[\[([^\]|]+)(?:\|([^\]]*))?\]\]`)

	// Remote markdown images: ![alt](https://...). Local markdown images
	// are already portable and pass through untouched.
	remoteImageEmbed = regexp.MustCompile(`!\[([^\]]*)\]\((https?://[^)\s]+)\)`)
)

// imageExtensions are the raster/vector formats treated as image embeds.
var imageExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".svg": {},
	".bmp": {}, ".webp": {}, ".tiff": {}, ".tif": {}, ".avif": {},
}

// embedStage replaces every embed directive with a unique marker token
// and queues a typed EmbedMarker for the resolution engine. Detection is
// synchronous and pure; everything needing I/O is deferred to the marker.
//
// Must run before wikilink conversion: embeds share the bracket syntax
// and would otherwise be rewritten as plain links.
type embedStage struct{}

func (s *embedStage) Name() string { return "embeds" }

func (s *embedStage) Apply(r *Result) {
	r.Content = wikilinkEmbed.ReplaceAllStringFunc(r.Content, func(match string) string {
		groups := wikilinkEmbed.FindStringSubmatch(match)
		target := strings.TrimSpace(groups[1])
		options := strings.TrimSpace(groups[2])
		if target == "" {
			r.Warnf("empty embed directive %q left unchanged", match)
			return match
		}

		marker := newMarker(classifyEmbed(target), target, options)
		queueMarker(r, marker)
		return marker.Token
	})

	r.Content = remoteImageEmbed.ReplaceAllStringFunc(r.Content, func(match string) string {
		groups := remoteImageEmbed.FindStringSubmatch(match)
		marker := newRemoteImageMarker(groups[2], groups[1])
		queueMarker(r, marker)
		return marker.Token
	})
}

// classifyEmbed maps a target's extension to exactly one embed kind.
func classifyEmbed(target string) EmbedKind {
	ext := strings.ToLower(filepath.Ext(target))
	if _, ok := imageExtensions[ext]; ok {
		return KindImage
	}
	if ext == ".pdf" {
		return KindPDF
	}
	return KindFile
}

// queueMarker appends the marker to the queue matching its kind.
func queueMarker(r *Result, m EmbedMarker) {
	switch m.Kind {
	case KindImage:
		r.Meta.ImageEmbeds = append(r.Meta.ImageEmbeds, m)
	case KindPDF:
		r.Meta.PDFEmbeds = append(r.Meta.PDFEmbeds, m)
	default:
		r.Meta.FileEmbeds = append(r.Meta.FileEmbeds, m)
	}
}

// newRemoteImageMarker builds a marker for a remote image URL. The URL is
// kept verbatim as the sanitized path; percent-escaping it would corrupt
// the query string.
func newRemoteImageMarker(url, alt string) EmbedMarker {
	fileName := url
	if idx := strings.LastIndex(url, "/"); idx >= 0 && idx < len(url)-1 {
		fileName = url[idx+1:]
	}
	if idx := strings.IndexAny(fileName, "?#"); idx >= 0 {
		fileName = fileName[:idx]
	}
	ext := filepath.Ext(fileName)

	return EmbedMarker{
		Kind:          KindImage,
		OriginalPath:  url,
		SanitizedPath: url,
		FileName:      fileName,
		BaseName:      strings.TrimSuffix(fileName, ext),
		Options:       alt,
		Token:         newMarkerToken(KindImage),
	}
}
