package pandoc

import "strings"

// progressPhrases maps renderer log phrases to coarse percentages. The
// external tool exposes no structured progress protocol, so this is
// inherently approximate: the mapping exists for UI feedback only and
// deliberately stays small.
var progressPhrases = []struct {
	phrase  string
	percent int
}{
	{phrase: "reading", percent: 10},
	{phrase: "parsing", percent: 25},
	{phrase: "running filter", percent: 35},
	{phrase: "compiling", percent: 55},
	{phrase: "layout", percent: 70},
	{phrase: "rendering", percent: 80},
	{phrase: "writing", percent: 90},
}

// progressForLine matches one stderr line against the phrase table.
func progressForLine(line string) (percent int, phase string, ok bool) {
	lower := strings.ToLower(line)
	for _, p := range progressPhrases {
		if strings.Contains(lower, p.phrase) {
			return p.percent, p.phrase, true
		}
	}
	return 0, "", false
}

// errorLinePatterns match, case-insensitively, lines worth surfacing to
// the user from a failed renderer run.
var errorLinePatterns = []string{
	"error:",
	"fatal",
	"failed",
}

// classifyStderr extracts the user-facing error line from a failed run:
// the first line matching an error pattern or prefixed with the tool's
// name, then the first non-empty line, then a generic message. The
// renderer's own diagnostic always wins over a wrapper message.
func classifyStderr(stderr, tool string) string {
	var firstNonEmpty string

	for _, line := range strings.Split(stderr, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if firstNonEmpty == "" {
			firstNonEmpty = trimmed
		}

		lower := strings.ToLower(trimmed)
		if strings.HasPrefix(lower, strings.ToLower(tool)+":") {
			return trimmed
		}
		for _, pattern := range errorLinePatterns {
			if strings.Contains(lower, pattern) {
				return trimmed
			}
		}
	}

	if firstNonEmpty != "" {
		return firstNonEmpty
	}
	return "renderer exited with an error and no diagnostics"
}
