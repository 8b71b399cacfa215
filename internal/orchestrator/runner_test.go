package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brendenrossin/collectivelore/internal/bluesky"
	"github.com/brendenrossin/collectivelore/internal/generate"
	"github.com/brendenrossin/collectivelore/internal/journal"
	"github.com/brendenrossin/collectivelore/internal/moderation"
	"github.com/brendenrossin/collectivelore/internal/story"
)

const fakeMarker = "Welcome to a new month"

type fakeSocial struct {
	posts      []bluesky.Post
	postsErr   error
	replies    []bluesky.Reply
	repliesErr error
	publishErr error

	repliesURI string
	published  []string
}

func (f *fakeSocial) RecentPosts(ctx context.Context, limit int) ([]bluesky.Post, error) {
	return f.posts, f.postsErr
}

func (f *fakeSocial) Replies(ctx context.Context, postURI string) ([]bluesky.Reply, error) {
	f.repliesURI = postURI
	return f.replies, f.repliesErr
}

func (f *fakeSocial) Publish(ctx context.Context, text string) (bluesky.PostRef, error) {
	if f.publishErr != nil {
		return bluesky.PostRef{}, f.publishErr
	}
	f.published = append(f.published, text)
	return bluesky.PostRef{URI: fmt.Sprintf("at://fake/%d", len(f.published)), CID: "cid"}, nil
}

func (f *fakeSocial) Metrics(ctx context.Context, postURI string) (bluesky.Engagement, error) {
	return bluesky.Engagement{Likes: 3, Reposts: 1, Replies: 2}, nil
}

type fakeGenerator struct {
	inputs []generate.Input
	text   string
}

func (f *fakeGenerator) Generate(ctx context.Context, in generate.Input) string {
	f.inputs = append(f.inputs, in)
	return f.text
}

type fakeComposer struct {
	phases   []story.Phase
	windows  [][]string
	comments []string
}

func (f *fakeComposer) Compose(phase story.Phase, priorPosts []string, comment string) string {
	f.phases = append(f.phases, phase)
	f.windows = append(f.windows, priorPosts)
	f.comments = append(f.comments, comment)
	return "composed prompt"
}

type fakeTemplates struct{}

func (fakeTemplates) Get(phase story.Phase) string { return "guideline for " + string(phase) }

type fakeQualifier struct {
	comment string
	ok      bool
	seen    []moderation.Comment
}

func (f *fakeQualifier) SelectBest(ctx context.Context, comments []moderation.Comment) (string, bool) {
	f.seen = comments
	return f.comment, f.ok
}

type fakeGate struct {
	rejected map[string]bool
	checked  []string
}

func (f *fakeGate) IsSafe(ctx context.Context, text string) bool {
	f.checked = append(f.checked, text)
	return !f.rejected[text]
}

type fakeJournal struct {
	entries []journal.Entry
	err     error
}

func (f *fakeJournal) Record(entry journal.Entry) error {
	f.entries = append(f.entries, entry)
	return f.err
}

type harness struct {
	social    *fakeSocial
	generator *fakeGenerator
	composer  *fakeComposer
	qualifier *fakeQualifier
	gate      *fakeGate
	journal   *fakeJournal
	runner    *Runner
}

func newHarness(t *testing.T, mutate func(*RunnerConfig)) *harness {
	t.Helper()
	h := &harness{
		social:    &fakeSocial{},
		generator: &fakeGenerator{text: "The story goes on."},
		composer:  &fakeComposer{},
		qualifier: &fakeQualifier{},
		gate:      &fakeGate{rejected: map[string]bool{}},
		journal:   &fakeJournal{},
	}

	cfg := RunnerConfig{
		Social:       h.social,
		Generator:    h.generator,
		Composer:     h.composer,
		Templates:    fakeTemplates{},
		Qualifier:    h.qualifier,
		Gate:         h.gate,
		Journal:      h.journal,
		Logger:       zap.NewNop(),
		Schedule:     story.DefaultSchedule(),
		MonthMarker:  fakeMarker,
		HistoryLimit: 31,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	runner, err := NewRunner(cfg)
	require.NoError(t, err)
	h.runner = runner
	return h
}

func day(d int) time.Time {
	return time.Date(2025, time.July, d, 12, 0, 0, 0, time.UTC)
}

func TestRunDayOne(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.runner.Run(context.Background(), day(1)))

	// Exactly two items: the opening announcement and one continuation.
	require.Len(t, h.social.published, 2)
	assert.Contains(t, h.social.published[0], "For the next 31 days")
	assert.True(t, strings.HasPrefix(h.social.published[0], fakeMarker))
	assert.Equal(t, "The story goes on.", h.social.published[1])

	// Both items pass through the gate independently.
	assert.Len(t, h.gate.checked, 2)

	// The first continuation is autonomous exposition.
	require.Len(t, h.composer.windows, 1)
	assert.Empty(t, h.composer.windows[0])
	assert.Equal(t, story.PhaseExposition, h.composer.phases[0])
	assert.Empty(t, h.composer.comments[0])
}

func TestRunMidMonth(t *testing.T) {
	t.Run("steered by the best qualifying comment", func(t *testing.T) {
		h := newHarness(t, nil)
		h.social.posts = []bluesky.Post{
			{URI: "at://p/3", Text: "day three"},
			{URI: "at://p/2", Text: "day two"},
			{URI: "at://p/announce", Text: fakeMarker + " of our interactive story!"},
		}
		h.social.replies = []bluesky.Reply{
			{Text: "add a dragon", LikeCount: 5, RepostCount: 1},
		}
		h.qualifier.comment = "add a dragon"
		h.qualifier.ok = true

		require.NoError(t, h.runner.Run(context.Background(), day(10)))

		// Replies come from the newest story post, not the announcement.
		assert.Equal(t, "at://p/3", h.social.repliesURI)
		require.Len(t, h.qualifier.seen, 1)
		assert.Equal(t, moderation.Comment{Text: "add a dragon", Likes: 5, Reposts: 1}, h.qualifier.seen[0])

		// The composer gets the month's posts in chronological order.
		require.Len(t, h.composer.windows, 1)
		assert.Equal(t, []string{"day two", "day three"}, h.composer.windows[0])
		assert.Equal(t, "add a dragon", h.composer.comments[0])
		assert.Equal(t, story.PhaseRisingAction, h.composer.phases[0])

		require.Len(t, h.social.published, 1)
		assert.Equal(t, "The story goes on.", h.social.published[0])
	})

	t.Run("no qualifying comment continues autonomously", func(t *testing.T) {
		h := newHarness(t, nil)
		h.social.posts = []bluesky.Post{{URI: "at://p/1", Text: "day one"}}
		h.qualifier.ok = false

		require.NoError(t, h.runner.Run(context.Background(), day(10)))

		require.Len(t, h.composer.comments, 1)
		assert.Empty(t, h.composer.comments[0])
	})

	t.Run("replies fetch failure continues autonomously", func(t *testing.T) {
		h := newHarness(t, nil)
		h.social.posts = []bluesky.Post{{URI: "at://p/1", Text: "day one"}}
		h.social.repliesErr = fmt.Errorf("thread unavailable")

		require.NoError(t, h.runner.Run(context.Background(), day(10)))

		require.Len(t, h.social.published, 1)
		require.Len(t, h.composer.comments, 1)
		assert.Empty(t, h.composer.comments[0])
	})

	t.Run("empty month restarts the arc with days remaining", func(t *testing.T) {
		h := newHarness(t, nil)
		h.social.posts = []bluesky.Post{
			{URI: "at://p/announce", Text: fakeMarker + " of our interactive story!"},
		}

		require.NoError(t, h.runner.Run(context.Background(), day(10)))

		require.Len(t, h.social.published, 2)
		assert.Contains(t, h.social.published[0], "For the next 21 days")
	})

	t.Run("history fetch failure loses the day's post", func(t *testing.T) {
		h := newHarness(t, nil)
		h.social.postsErr = fmt.Errorf("feed unavailable")

		require.Error(t, h.runner.Run(context.Background(), day(10)))
		assert.Empty(t, h.social.published)
	})

	t.Run("history fetch failure still publishes the closing announcement", func(t *testing.T) {
		h := newHarness(t, nil)
		h.social.postsErr = fmt.Errorf("feed unavailable")

		require.Error(t, h.runner.Run(context.Background(), day(31)))
		require.Len(t, h.social.published, 1)
		assert.Contains(t, h.social.published[0], "And so concludes our story for July.")
	})
}

func TestRunMonthEnd(t *testing.T) {
	h := newHarness(t, nil)
	h.social.posts = []bluesky.Post{{URI: "at://p/30", Text: "day thirty"}}

	require.NoError(t, h.runner.Run(context.Background(), day(31)))

	require.Len(t, h.social.published, 2)
	assert.Equal(t, "The story goes on.", h.social.published[0])
	assert.Contains(t, h.social.published[1], "And so concludes our story for July.")
	assert.Equal(t, story.PhaseResolution, h.composer.phases[0])
}

func TestPublishAll(t *testing.T) {
	t.Run("unsafe items are dropped without aborting the batch", func(t *testing.T) {
		h := newHarness(t, nil)
		h.gate.rejected["The story goes on."] = true

		require.NoError(t, h.runner.Run(context.Background(), day(1)))

		// The announcement still goes out; only the continuation is dropped.
		require.Len(t, h.social.published, 1)
		assert.True(t, strings.HasPrefix(h.social.published[0], fakeMarker))
	})

	t.Run("publish failure does not abort remaining items", func(t *testing.T) {
		h := newHarness(t, nil)
		h.social.publishErr = fmt.Errorf("rate limited")

		require.NoError(t, h.runner.Run(context.Background(), day(1)))
		assert.Empty(t, h.social.published)
		assert.Empty(t, h.journal.entries)
	})

	t.Run("dry run gates but never publishes", func(t *testing.T) {
		h := newHarness(t, func(cfg *RunnerConfig) { cfg.DryRun = true })

		require.NoError(t, h.runner.Run(context.Background(), day(1)))

		assert.Len(t, h.gate.checked, 2)
		assert.Empty(t, h.social.published)
		assert.Empty(t, h.journal.entries)
	})

	t.Run("published items are journaled with engagement", func(t *testing.T) {
		h := newHarness(t, nil)

		require.NoError(t, h.runner.Run(context.Background(), day(1)))

		require.Len(t, h.journal.entries, 2)
		entry := h.journal.entries[1]
		assert.Equal(t, "The story goes on.", entry.Text)
		assert.Equal(t, 3, entry.Likes)
		assert.Equal(t, 1, entry.Reposts)
		assert.Equal(t, 2, entry.Replies)
	})

	t.Run("journal failure does not abort publishing", func(t *testing.T) {
		h := newHarness(t, nil)
		h.journal.err = fmt.Errorf("disk full")

		require.NoError(t, h.runner.Run(context.Background(), day(1)))
		assert.Len(t, h.social.published, 2)
	})
}

func TestNewRunnerValidation(t *testing.T) {
	base := func() RunnerConfig {
		return RunnerConfig{
			Social:       &fakeSocial{},
			Generator:    &fakeGenerator{},
			Composer:     &fakeComposer{},
			Templates:    fakeTemplates{},
			Qualifier:    &fakeQualifier{},
			Gate:         &fakeGate{},
			Journal:      &fakeJournal{},
			Schedule:     story.DefaultSchedule(),
			MonthMarker:  fakeMarker,
			HistoryLimit: 31,
		}
	}

	t.Run("valid", func(t *testing.T) {
		_, err := NewRunner(base())
		require.NoError(t, err)
	})

	t.Run("missing social client", func(t *testing.T) {
		cfg := base()
		cfg.Social = nil
		_, err := NewRunner(cfg)
		require.Error(t, err)
	})

	t.Run("missing marker", func(t *testing.T) {
		cfg := base()
		cfg.MonthMarker = ""
		_, err := NewRunner(cfg)
		require.Error(t, err)
	})

	t.Run("non-positive history limit", func(t *testing.T) {
		cfg := base()
		cfg.HistoryLimit = 0
		_, err := NewRunner(cfg)
		require.Error(t, err)
	})
}
