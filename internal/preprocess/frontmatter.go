package preprocess

import (
	"strings"

	"github.com/AlexKucera/obsidian-typst-pdf-export-sub001/internal/yamlutil"
)

const frontmatterDelimiter = "---"

// frontmatterStage extracts the leading YAML metadata block. A strict
// parse is attempted first; on failure the permissive line scanner takes
// over so a single malformed line never discards the whole block. The
// block is removed from content either way.
type frontmatterStage struct{}

func (s *frontmatterStage) Name() string { return "frontmatter" }

func (s *frontmatterStage) Apply(r *Result) {
	block, rest, found := splitFrontmatter(r.Content)
	if !found {
		return
	}
	r.Content = rest

	var fm map[string]any
	if err := yamlutil.Unmarshal([]byte(block), &fm); err != nil {
		fm = yamlutil.LooseParse(block)
		r.Warnf("frontmatter is not valid YAML, using permissive parse: %v", err)
	}
	if len(fm) == 0 {
		return
	}
	r.Meta.Frontmatter = fm

	if title, ok := fm["title"].(string); ok {
		r.Meta.Title = strings.TrimSpace(title)
	}
	collectTags(r, fm["tags"])
	collectTags(r, fm["tag"])
}

// collectTags accepts the shapes authors actually write: a single string,
// a YAML list, or a comma-separated string.
func collectTags(r *Result, raw any) {
	switch v := raw.(type) {
	case string:
		for _, tag := range strings.Split(v, ",") {
			r.Meta.AddTag(tag)
		}
	case []string:
		for _, tag := range v {
			r.Meta.AddTag(tag)
		}
	case []any:
		for _, item := range v {
			if tag, ok := item.(string); ok {
				r.Meta.AddTag(tag)
			}
		}
	}
}

// splitFrontmatter separates a leading "---" delimited block from the
// body. Returns found=false when no complete block opens the document.
func splitFrontmatter(content string) (block, rest string, found bool) {
	if !strings.HasPrefix(content, frontmatterDelimiter+"\n") &&
		content != frontmatterDelimiter {
		return "", content, false
	}

	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontmatterDelimiter {
			block = strings.Join(lines[1:i], "\n")
			rest = strings.TrimPrefix(strings.Join(lines[i+1:], "\n"), "\n")
			return block, rest, true
		}
	}

	// Opening delimiter without a closing one: not frontmatter.
	return "", content, false
}
