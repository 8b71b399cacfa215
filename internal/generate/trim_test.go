package generate

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTrimToSentence(t *testing.T) {
	t.Run("conforming text is unchanged", func(t *testing.T) {
		text := "The ship sailed at dawn. Nobody looked back."
		assert.Equal(t, text, TrimToSentence(text, PostLimit))
	})

	t.Run("idempotent", func(t *testing.T) {
		text := strings.Repeat("A short sentence here. ", 30)
		once := TrimToSentence(text, PostLimit)
		assert.Equal(t, once, TrimToSentence(once, PostLimit))
	})

	t.Run("drops a trailing incomplete sentence", func(t *testing.T) {
		got := TrimToSentence("It was over. But then the", PostLimit)
		assert.Equal(t, "It was over.", got)
	})

	t.Run("stops at the first sentence that exceeds the budget", func(t *testing.T) {
		text := "One. Two. " + strings.Repeat("x", 400) + "."
		got := TrimToSentence(text, 20)
		assert.Equal(t, "One. Two.", got)
	})

	t.Run("no punctuation returns the original text", func(t *testing.T) {
		text := "a fragment with no terminator"
		assert.Equal(t, text, TrimToSentence(text, PostLimit))
	})

	t.Run("oversized text with no fitting sentence is hard truncated", func(t *testing.T) {
		text := strings.Repeat("y", 500)
		got := TrimToSentence(text, PostLimit)
		assert.Len(t, got, PostLimit)
	})

	t.Run("budget is counted in characters, not bytes", func(t *testing.T) {
		// 120 characters but well over 300 bytes.
		text := strings.Repeat("🐉", 119) + "."
		assert.Equal(t, text, TrimToSentence(text, PostLimit))
	})

	t.Run("hard truncation never splits a character", func(t *testing.T) {
		text := strings.Repeat("é", 500)
		got := TrimToSentence(text, PostLimit)

		assert.Equal(t, PostLimit, utf8.RuneCountInString(got))
		assert.True(t, utf8.ValidString(got))
	})

	t.Run("question and exclamation terminators count", func(t *testing.T) {
		got := TrimToSentence("Who goes there? Halt! trailing", PostLimit)
		assert.Equal(t, "Who goes there? Halt!", got)
	})
}
