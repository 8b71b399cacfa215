package prompt

import (
	"fmt"
	"strings"

	"github.com/brendenrossin/collectivelore/internal/story"
)

// hardConstraint is appended to every composed prompt so the model keeps
// posts inside the platform's character budget.
const hardConstraint = "**Ensure the response does not exceed 300 characters and ends at a natural stopping point or a complete sentence!**"

// Composer assembles the full generation prompt for a day's post.
type Composer struct {
	templates  *TemplateStore
	summarizer story.Summarizer
}

// NewComposer creates a Composer over the given templates. The summarizer
// may be nil, in which case resolution prompts omit the month recap.
func NewComposer(templates *TemplateStore, summarizer story.Summarizer) *Composer {
	return &Composer{templates: templates, summarizer: summarizer}
}

// Compose builds the prompt for the given phase, prior posts, and optional
// steering comment. A month with no prior posts always opens with the
// exposition template regardless of the nominal phase.
func (c *Composer) Compose(phase story.Phase, priorPosts []string, comment string) string {
	var body string
	switch {
	case len(priorPosts) == 0:
		body = c.templates.Get(story.PhaseExposition)
	case phase == story.PhaseResolution && c.summarizer != nil:
		recap := c.summarizer.Summarize(priorPosts)
		body = fmt.Sprintf("%s\n\nSummary: %s", c.templates.Get(phase), recap)
	default:
		body = c.writeContinuation(phase, priorPosts, comment)
	}

	return body + "\n\n" + hardConstraint
}

func (c *Composer) writeContinuation(phase story.Phase, priorPosts []string, comment string) string {
	var b strings.Builder

	b.WriteString("Continue the following story based on the context below. ")
	fmt.Fprintf(&b, "Previous Posts: %q\n\n", strings.Join(priorPosts, " "))
	if comment != "" {
		fmt.Fprintf(&b, "User Comment: %q\n\n", comment)
	}
	b.WriteString("Write the next part of the story in the style of a top short story author in this genre. ")
	fmt.Fprintf(&b, "**%s**\n\n", c.templates.Get(phase))

	b.WriteString("Instructions:\n")
	if comment != "" {
		b.WriteString("1. **Focus** on the user comment, making it the central element of the next part of the story.\n")
		b.WriteString("2. **Integrate** elements from previous posts to maintain continuity.\n")
		b.WriteString("3. **Maintain** continuity with previous posts, incorporating necessary elements to keep the story cohesive.\n")
		b.WriteString("4. **Advance** the plot meaningfully, introducing new developments.\n")
		b.WriteString("5. **Keep** the tone, style, and pacing consistent with the story so far.\n")
		b.WriteString("6. **Do not** include the instructions or any meta-commentary in your output.\n")
		b.WriteString("7. **Provide only** the next part of the story.\n")
	} else {
		b.WriteString("1. **Advance** the story by introducing new developments or escalating tension based on the previous posts.\n")
		b.WriteString("2. **Build upon** the most recent section of the story, ensuring a cohesive continuation.\n")
		b.WriteString("3. **Maintain** continuity with previous posts, incorporating necessary elements to keep the story cohesive.\n")
		b.WriteString("4. **Advance** the plot meaningfully, introducing new developments.\n")
		b.WriteString("5. **Do not** repeat any sentences or phrases verbatim from previous posts unless they serve a specific narrative purpose, such as emphasizing an important detail.\n")
		b.WriteString("6. **Add** dialogue where appropriate, as long as it advances the plot.\n")
		b.WriteString("7. **Keep** the tone, style, and pacing consistent with the story so far.\n")
		b.WriteString("8. **Do not** include the instructions or any meta-commentary in your output.\n")
		b.WriteString("9. **Provide only** the next part of the story.\n")
	}

	b.WriteString("\nNow, generate the next post in the storyline.")
	return b.String()
}
