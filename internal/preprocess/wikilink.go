package preprocess

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Precompiled wikilink patterns.
var (
	// [[Target]], [[Target#Heading]], [[Target|label]], [[Target#Heading|label]].
	// Embeds were already extracted, so any remaining "![[" is malformed
	// input and deliberately not matched here.
	wikilinkPattern = regexp.MustCompile(`(^|[^!])\[\[([^\]|#]*)(?:#([^\]|]+))?(?:\|([^\]]*))?\]\]`)

	slugInvalidChars   = regexp.MustCompile(`[^\w\- ]`)
	slugWhitespace     = regexp.MustCompile(`\s+`)
	slugRepeatedHyphen = regexp.MustCompile(`-{2,}`)
)

// wikilinkStage converts internal cross-references to portable relative
// markdown links. Heading references become slugified anchor fragments.
//
// Idempotent: output contains no "[[", so a second run is a no-op, and
// targets already carrying an extension are not suffixed again.
type wikilinkStage struct{}

func (s *wikilinkStage) Name() string { return "wikilinks" }

func (s *wikilinkStage) Apply(r *Result) {
	r.Content = wikilinkPattern.ReplaceAllStringFunc(r.Content, func(match string) string {
		groups := wikilinkPattern.FindStringSubmatch(match)
		prefix := groups[1]
		target := strings.TrimSpace(groups[2])
		heading := strings.TrimSpace(groups[3])
		label := strings.TrimSpace(groups[4])

		if target == "" && heading == "" {
			r.Warnf("empty wikilink %q left unchanged", strings.TrimPrefix(match, prefix))
			return match
		}

		return prefix + convertWikilink(target, heading, label)
	})
}

// convertWikilink builds the portable markdown link for one wikilink.
func convertWikilink(target, heading, label string) string {
	if label == "" {
		label = target
		if heading != "" {
			if label != "" {
				label += " > " + heading
			} else {
				label = heading
			}
		}
	}

	// Same-document heading reference: [[#Heading]].
	if target == "" {
		return "[" + label + "](#" + Slugify(heading) + ")"
	}

	href := target
	if filepath.Ext(href) == "" {
		href += ".md"
	}
	href = strings.ReplaceAll(href, " ", "%20")
	if heading != "" {
		href += "#" + Slugify(heading)
	}

	return "[" + label + "](" + href + ")"
}

// Slugify derives a heading anchor: lowercase, whitespace to hyphens,
// non-word characters stripped, repeated hyphens collapsed.
func Slugify(heading string) string {
	slug := strings.ToLower(strings.TrimSpace(heading))
	slug = slugInvalidChars.ReplaceAllString(slug, "")
	slug = slugWhitespace.ReplaceAllString(slug, "-")
	slug = slugRepeatedHyphen.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
