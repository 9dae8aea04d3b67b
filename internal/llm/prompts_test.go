package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joescharf/ideas/internal/models"
	"github.com/joescharf/ideas/internal/parse"
)

func TestBuildPitchPrompt(t *testing.T) {
	t.Run("default profile", func(t *testing.T) {
		prompt := BuildPitchPrompt("", "A vector database written in Rust")

		assert.True(t, strings.HasPrefix(prompt, DefaultProfile))
		assert.Contains(t, prompt, "JSON array")
		assert.Contains(t, prompt, `"call_to_action"`)
		assert.Contains(t, prompt, `"mvp_effort"`)
		assert.Contains(t, prompt, "A vector database written in Rust")
	})

	t.Run("custom profile", func(t *testing.T) {
		prompt := BuildPitchPrompt("You are a civic-tech founder.", "summary")
		assert.True(t, strings.HasPrefix(prompt, "You are a civic-tech founder."))
		assert.NotContains(t, prompt, DefaultProfile)
	})
}

func TestBuildDeepDivePrompt(t *testing.T) {
	p := models.Pitch{
		Title:     "Museum Guide",
		Hook:      "Exhibits that talk back",
		Kind:      "side_hustle",
		Score:     models.IntPtr(8),
		MVPEffort: models.IntPtr(3),
	}
	prompt := BuildDeepDivePrompt("", p)

	for _, h := range parse.Headings {
		assert.Contains(t, prompt, h.Emoji+" "+h.Title)
	}
	assert.Contains(t, prompt, "Title: Museum Guide")
	assert.Contains(t, prompt, "Hook: Exhibits that talk back")
	assert.Contains(t, prompt, "Score: 8")
	assert.Contains(t, prompt, "MVP effort: 3")
	assert.NotContains(t, prompt, "Evidence:")
}

func TestBuildRegeneratePrompt(t *testing.T) {
	current := models.NewDeepDive()
	current[models.SectionTiming] = "Regulation changed in 2026."

	prompt := BuildRegeneratePrompt("", models.Pitch{Title: "X"}, current)
	assert.Contains(t, prompt, "Regulation changed in 2026.")
	assert.Contains(t, prompt, "edited by the founder")
}

func TestDeepDivePromptHeadersParse(t *testing.T) {
	// The generator echoing the header lines must be understood by the parser.
	var sb strings.Builder
	for _, h := range parse.Headings {
		sb.WriteString(h.Emoji + " " + h.Title + "\ncontent for " + h.Key + "\n")
	}
	dd, outcome := parse.ParseDeepDive(sb.String())
	assert.Equal(t, parse.ParsedHeadings, outcome)
	for _, key := range models.DeepDiveSections {
		assert.Equal(t, "content for "+key, dd[key])
	}
}
