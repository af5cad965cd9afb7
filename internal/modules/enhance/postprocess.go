package enhance

import (
	"regexp"
	"strings"
)

var leadingLabel = regexp.MustCompile(
	`(?i)^\s*(?:(?:sure|certainly|of\s+course|okay|ok|absolutely|great)\s*[!,.]*\s*)?` +
		`(?:` +
		`(?:\*\*)?(?:refined|enhanced|improved|rewritten|optimized|optimised|revised)\s+prompt\s*(?:\*\*)?\s*:\s*(?:\*\*)?` +
		`|` +
		`(?:here(?:'s|’s|\s+is)|below\s+is)\s+(?:the|your|an?)\s+(?:[\w-]+\s+){0,3}?(?:prompt|version)[^\n:]{0,40}:` +
		`)\s*`)

// StripLabels removes a leading "Enhanced Prompt:"-style label or greeting that
// models sometimes prepend, then trims surrounding whitespace. The rest of the
// text is returned as is.
func StripLabels(text string) string {
	loc := leadingLabel.FindStringIndex(text)
	if loc != nil && loc[0] == 0 {
		text = text[loc[1]:]
	}
	return strings.TrimSpace(text)
}
