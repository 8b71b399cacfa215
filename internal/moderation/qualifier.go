package moderation

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/brendenrossin/collectivelore/internal/llm"
)

// Comment is a candidate steering comment from the audience.
type Comment struct {
	Text    string
	Likes   int
	Reposts int
}

// Qualifier picks the best audience comment to steer the next post.
type Qualifier struct {
	judge  llm.Client
	logger *zap.Logger
}

// NewQualifier creates a Qualifier backed by the given judge.
func NewQualifier(judge llm.Client, logger *zap.Logger) *Qualifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Qualifier{judge: judge, logger: logger}
}

// SelectBest returns the most-liked comment that passes both the tone and
// relevance checks. Equal like counts keep their original order. The second
// return value is false when no comment qualifies.
func (q *Qualifier) SelectBest(ctx context.Context, comments []Comment) (string, bool) {
	ranked := append([]Comment(nil), comments...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Likes > ranked[j].Likes
	})

	for _, c := range ranked {
		if q.Qualifies(ctx, c.Text) {
			q.logger.Info("selected steering comment",
				zap.String("comment", c.Text),
				zap.Int("likes", c.Likes))
			return c.Text, true
		}
	}
	return "", false
}

// Qualifies reports whether a single comment passes both checks.
func (q *Qualifier) Qualifies(ctx context.Context, text string) bool {
	return askYesNo(ctx, q.judge, tonePrompt(text)) &&
		askYesNo(ctx, q.judge, relevancePrompt(text))
}

// The tone check is asymmetric: dark narrative elements pass, and 'No' is
// reserved for hate speech, explicit content, and promotion of violence.
func tonePrompt(text string) string {
	return fmt.Sprintf("Analyze the following comment and determine if it is ethically and morally suitable for guiding a story. "+
		"Allow for creative freedom, including romance and dark story elements such as danger or characters being killed off, "+
		"but ensure the content avoids hate speech, explicit material, or anything that promotes real-world violence. "+
		"Only respond with 'No' if the comment contains hate speech, explicit content, or promotes violence. "+
		"Otherwise, respond with 'Yes' to allow the comment.\n\nComment: %q", text)
}

func relevancePrompt(text string) string {
	return fmt.Sprintf("Determine if the following comment is intended to guide the storyline of a serialized story. "+
		"Respond with 'Yes' if the comment introduces a new direction, new characters, or new plot developments, "+
		"including imaginative or unconventional ideas like fantasy, scifi, romance or other book genre elements. "+
		"Respond with 'No' if the comment is a general reaction (e.g., praise, feedback) or does not contribute to "+
		"advancing the storyline.\n\nComment: %q", text)
}
