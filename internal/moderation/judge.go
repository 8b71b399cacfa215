// Package moderation screens crowd comments and generated posts with
// yes/no model judgments. Every check fails closed: a judge error or an
// ambiguous answer counts as a rejection.
package moderation

import (
	"context"
	"strings"

	"github.com/brendenrossin/collectivelore/internal/llm"
)

// judgeMaxTokens keeps yes/no answers terse.
const judgeMaxTokens = 3

// askYesNo asks the judge a yes/no question and returns true only for an
// unambiguous affirmative.
func askYesNo(ctx context.Context, client llm.Client, prompt string) bool {
	answer, err := client.Complete(ctx, llm.Request{
		Prompt:      prompt,
		MaxTokens:   judgeMaxTokens,
		Temperature: 0,
	})
	if err != nil {
		return false
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	answer = strings.Trim(answer, ".!\"'")
	return answer == "yes"
}
