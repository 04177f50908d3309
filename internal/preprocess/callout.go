package preprocess

import (
	"fmt"
	"regexp"
	"strings"
)

// Precompiled callout patterns.
var (
	// > [!type] Optional title — opening line of a styled block.
	calloutHeader = regexp.MustCompile(`^>\s*\[!([A-Za-z][\w-]*)\][-+]?\s*(.*)$`)

	// Body continuation: any further blockquote line.
	calloutBody = regexp.MustCompile(`^>\s?(.*)$`)
)

// messageCalloutType marks the structured message block form, rendered as
// an inline directive for the Typst engine instead of a blockquote.
const messageCalloutType = "message"

// calloutStage rewrites custom callout syntax into a portable
// blockquote-with-marker form, and structured message blocks into an
// inline Typst directive string literal.
type calloutStage struct{}

func (s *calloutStage) Name() string { return "callouts" }

func (s *calloutStage) Apply(r *Result) {
	lines := strings.Split(r.Content, "\n")
	out := make([]string, 0, len(lines))

	for i := 0; i < len(lines); i++ {
		groups := calloutHeader.FindStringSubmatch(lines[i])
		if groups == nil {
			out = append(out, lines[i])
			continue
		}

		kind := strings.ToLower(groups[1])
		title := strings.TrimSpace(groups[2])
		body, consumed := collectCalloutBody(lines[i+1:])
		i += consumed

		if kind == messageCalloutType {
			out = append(out, buildMessageDirective(title, body))
			continue
		}

		out = append(out, buildCalloutQuote(kind, title, body)...)
	}

	r.Content = strings.Join(out, "\n")
}

// collectCalloutBody gathers the blockquote continuation lines following a
// callout header. Returns the body lines (markers stripped) and how many
// input lines were consumed.
func collectCalloutBody(lines []string) (body []string, consumed int) {
	for _, line := range lines {
		groups := calloutBody.FindStringSubmatch(line)
		if groups == nil {
			break
		}
		body = append(body, groups[1])
		consumed++
	}
	return body, consumed
}

// buildCalloutQuote renders a callout as a blockquote with a bold marker
// line, the form the renderer's template styles into a box.
func buildCalloutQuote(kind, title string, body []string) []string {
	marker := "> **" + titleCase(kind)
	if title != "" {
		marker += ": " + title
	}
	marker += "**"

	out := []string{marker}
	for _, line := range body {
		if line == "" {
			out = append(out, ">")
		} else {
			out = append(out, "> "+line)
		}
	}
	return out
}

// buildMessageDirective renders a structured message block as a raw Typst
// inline call. The header's free text (before an optional "|") is the
// sender, the remainder a timestamp; body lines join with literal \n.
func buildMessageDirective(header string, body []string) string {
	sender, meta, _ := strings.Cut(header, "|")

	escaped := make([]string, len(body))
	for i, line := range body {
		escaped[i] = EscapeTypstString(line)
	}

	return fmt.Sprintf("`#notemessage(sender: \"%s\", meta: \"%s\", body: \"%s\")`{=typst}",
		EscapeTypstString(strings.TrimSpace(sender)),
		EscapeTypstString(strings.TrimSpace(meta)),
		strings.Join(escaped, `\n`))
}

// typstUnicodeReplacer normalizes characters that break Typst string
// literals or render as tofu: non-breaking spaces, Unicode dashes, and
// zero-width characters.
var typstUnicodeReplacer = strings.NewReplacer(
	" ", " ", // non-breaking space
	"‒", "-", // figure dash
	"–", "-", // en dash
	"—", "-", // em dash
	"―", "-", // horizontal bar
	"​", "", // zero-width space
	"‌", "", // zero-width non-joiner
	"‍", "", // zero-width joiner
	"\uFEFF", "", // BOM / zero-width no-break space
)

// EscapeTypstString makes text safe for embedding in a Typst string
// literal: backslashes and quotes are escaped, problematic Unicode is
// normalized. Escaping order matters: backslashes first.
func EscapeTypstString(s string) string {
	s = typstUnicodeReplacer.Replace(s)
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// titleCase capitalizes the first letter of an ASCII word.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
