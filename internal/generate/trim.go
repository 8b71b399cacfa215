// Package generate produces the day's post text by fanning a prompt out to
// one or more models and arbitrating between their candidates.
package generate

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// PostLimit is the platform's character budget for a single post, counted
// in characters, not bytes.
const PostLimit = 300

// sentencePattern matches runs of text ending in sentence punctuation.
var sentencePattern = regexp.MustCompile(`[^.!?]*[.!?]`)

// TrimToSentence cuts text down to at most limit characters, keeping only
// whole sentences. Text that yields no complete sentence inside the budget
// is hard-truncated instead so the result is never empty.
func TrimToSentence(text string, limit int) string {
	var out strings.Builder
	length := 0
	for _, sentence := range sentencePattern.FindAllString(text, -1) {
		n := utf8.RuneCountInString(sentence)
		if length+n > limit {
			break
		}
		out.WriteString(sentence)
		length += n
	}

	trimmed := strings.TrimSpace(out.String())
	if trimmed != "" {
		return trimmed
	}

	raw := strings.TrimSpace(text)
	if utf8.RuneCountInString(raw) > limit {
		raw = string([]rune(raw)[:limit])
	}
	return raw
}
