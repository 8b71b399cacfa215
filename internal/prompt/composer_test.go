package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brendenrossin/collectivelore/internal/story"
)

func writeTemplates(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "phase_prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func loadTestTemplates(t *testing.T) *TemplateStore {
	t.Helper()
	path := writeTemplates(t, `exposition: "Introduce the setting and the main character."
rising_action: "Raise the stakes."
climax: "Bring the conflict to a head."
falling_action: "Show the aftermath."
resolution: "Wrap up the month's story."
`)
	store, err := LoadTemplates(path)
	require.NoError(t, err)
	return store
}

func TestLoadTemplates(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTemplates(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeTemplates(t, "exposition: [unterminated")
		_, err := LoadTemplates(path)
		require.Error(t, err)
	})

	t.Run("empty mapping", func(t *testing.T) {
		path := writeTemplates(t, "{}")
		_, err := LoadTemplates(path)
		require.Error(t, err)
	})

	t.Run("empty template value", func(t *testing.T) {
		path := writeTemplates(t, `exposition: ""`)
		_, err := LoadTemplates(path)
		require.Error(t, err)
	})

	t.Run("missing phase falls back", func(t *testing.T) {
		path := writeTemplates(t, `exposition: "Open the story."`)
		store, err := LoadTemplates(path)
		require.NoError(t, err)

		assert.Equal(t, "Open the story.", store.Get(story.PhaseExposition))
		assert.Equal(t, defaultTemplate, store.Get(story.PhaseClimax))
	})
}

func TestCompose(t *testing.T) {
	store := loadTestTemplates(t)

	t.Run("no prior posts forces exposition", func(t *testing.T) {
		c := NewComposer(store, story.RecapSummarizer{})

		got := c.Compose(story.PhaseClimax, nil, "")
		assert.Contains(t, got, "Introduce the setting and the main character.")
		assert.NotContains(t, got, "Bring the conflict to a head.")
	})

	t.Run("resolution appends the month summary", func(t *testing.T) {
		c := NewComposer(store, story.RecapSummarizer{})
		posts := []string{"It began.", "It grew.", "It peaked.", "It faded."}

		got := c.Compose(story.PhaseResolution, posts, "")
		assert.Contains(t, got, "Wrap up the month's story.")
		assert.Contains(t, got, "Summary: It began. It grew. It peaked. It faded.")
	})

	t.Run("resolution without summarizer uses the continuation form", func(t *testing.T) {
		c := NewComposer(store, nil)
		posts := []string{"It began.", "It grew."}

		got := c.Compose(story.PhaseResolution, posts, "")
		assert.NotContains(t, got, "Summary:")
		assert.Contains(t, got, "Previous Posts:")
	})

	t.Run("continuation without comment", func(t *testing.T) {
		c := NewComposer(store, story.RecapSummarizer{})
		posts := []string{"The ship sailed.", "A storm rose."}

		got := c.Compose(story.PhaseRisingAction, posts, "")
		assert.Contains(t, got, `Previous Posts: "The ship sailed. A storm rose."`)
		assert.Contains(t, got, "Raise the stakes.")
		assert.NotContains(t, got, "User Comment")
		assert.Contains(t, got, "**Advance** the story")

		// The repetition ban carries the deliberate-emphasis exception.
		assert.Contains(t, got, "unless they serve a specific narrative purpose")
	})

	t.Run("continuation with comment steers the story", func(t *testing.T) {
		c := NewComposer(store, story.RecapSummarizer{})
		posts := []string{"The ship sailed."}

		got := c.Compose(story.PhaseRisingAction, posts, "make the captain a traitor")
		assert.Contains(t, got, `User Comment: "make the captain a traitor"`)
		assert.Contains(t, got, "**Focus** on the user comment, making it the central element")
	})

	t.Run("continuations forbid meta-commentary and ask for the story only", func(t *testing.T) {
		c := NewComposer(store, story.RecapSummarizer{})
		posts := []string{"The ship sailed."}

		for _, got := range []string{
			c.Compose(story.PhaseRisingAction, posts, ""),
			c.Compose(story.PhaseRisingAction, posts, "make the captain a traitor"),
		} {
			assert.Contains(t, got, "**Do not** include the instructions or any meta-commentary in your output.")
			assert.Contains(t, got, "**Provide only** the next part of the story.")
		}
	})

	t.Run("hard constraint is always last", func(t *testing.T) {
		c := NewComposer(store, story.RecapSummarizer{})

		for _, got := range []string{
			c.Compose(story.PhaseExposition, nil, ""),
			c.Compose(story.PhaseRisingAction, []string{"A post."}, "a comment"),
			c.Compose(story.PhaseResolution, []string{"a", "b", "c", "d"}, ""),
		} {
			assert.True(t, strings.HasSuffix(got, hardConstraint))
		}
	})
}
