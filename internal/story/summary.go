package story

import (
	"strings"
	"unicode/utf8"
)

const (
	// summaryLimit bounds the summary handed to the resolution prompt.
	summaryLimit = 200

	// fallbackSummary is used when the month produced too few posts to
	// summarize.
	fallbackSummary = "an amazing journey filled with unexpected twists and turns."
)

// Summarizer produces a short recap of a month's posts for the resolution
// phase prompt.
type Summarizer interface {
	Summarize(posts []string) string
}

// RecapSummarizer builds a deterministic recap from the bookends of the
// month: the first two and last two posts, truncated to a fixed budget.
type RecapSummarizer struct{}

// Summarize implements Summarizer.
func (RecapSummarizer) Summarize(posts []string) string {
	var summary string
	switch {
	case len(posts) >= 4:
		parts := append([]string{}, posts[:2]...)
		parts = append(parts, posts[len(posts)-2:]...)
		summary = strings.Join(parts, " ")
	case len(posts) >= 2:
		summary = strings.Join(posts, " ")
	default:
		return fallbackSummary
	}

	if utf8.RuneCountInString(summary) > summaryLimit {
		summary = string([]rune(summary)[:summaryLimit-3]) + "..."
	}
	return summary
}
