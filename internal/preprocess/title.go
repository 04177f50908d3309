package preprocess

import (
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// titleStage backfills the document title when frontmatter supplied none:
// the first heading of the rewritten content wins, then the source file's
// base name. Runs last so headings reflect the converted text.
type titleStage struct{}

func (s *titleStage) Name() string { return "title" }

func (s *titleStage) Apply(r *Result) {
	if r.Meta.Title != "" {
		return
	}

	if title := firstHeading(r.Content); title != "" {
		r.Meta.Title = title
		return
	}

	if r.SourcePath != "" {
		base := filepath.Base(r.SourcePath)
		r.Meta.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
}

// firstHeading parses the markdown and returns the text of the first
// heading node, depth-first. Returns "" when no heading exists.
func firstHeading(content string) string {
	source := []byte(content)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		title = strings.TrimSpace(headingText(heading, source))
		return ast.WalkStop, nil
	})
	return title
}

// headingText concatenates the literal text of a heading's children.
func headingText(heading *ast.Heading, source []byte) string {
	var b strings.Builder
	for c := heading.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
		}
	}
	return b.String()
}
