package preprocess

import "regexp"

// Precompiled patterns for host-internal link directives.
var (
	// Markdown links whose target is the host application's own protocol,
	// e.g. [open in app](obsidian://open?vault=...). The label survives.
	obsidianMarkdownLink = regexp.MustCompile(`\[([^\]]*)\]\(obsidian://[^)]*\)`)

	// Bare protocol URLs have no portable meaning at all.
	obsidianBareLink = regexp.MustCompile(`obsidian://\S+`)
)

// linkFilterStage removes directives referencing the host application's
// internal protocols. Such links only work inside the note app; in a
// rendered PDF they would be dead.
type linkFilterStage struct{}

func (s *linkFilterStage) Name() string { return "linkfilter" }

func (s *linkFilterStage) Apply(r *Result) {
	content := obsidianMarkdownLink.ReplaceAllString(r.Content, "$1")
	content = obsidianBareLink.ReplaceAllString(content, "")
	r.Content = content
}
