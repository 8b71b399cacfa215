package story

import "strings"

// MonthWindow selects the posts that belong to the current month's story.
//
// posts must be ordered newest first, as returned by the author feed. The
// month-boundary announcement (any post whose text begins with marker) is a
// segmentation point: scanning from the newest post backwards, the first
// marker post and everything older than it are excluded. The result is
// reversed into chronological order, oldest first, ready to be joined into
// generation context.
func MonthWindow(posts []string, marker string) []string {
	var window []string
	for _, text := range posts {
		if marker != "" && strings.HasPrefix(text, marker) {
			break
		}
		window = append(window, text)
	}

	// Newest-first to oldest-first.
	for i, j := 0, len(window)-1; i < j; i, j = i+1, j-1 {
		window[i], window[j] = window[j], window[i]
	}
	return window
}
