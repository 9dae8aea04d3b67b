package llm

import (
	"fmt"
	"strings"

	"github.com/joescharf/ideas/internal/models"
	"github.com/joescharf/ideas/internal/parse"
)

// DefaultProfile describes the founder the pitches are tailored to.
const DefaultProfile = `You are a technologist, startup founder and product strategist with experience in:
- AI/ML experimentation (RAG, LLMs, agents)
- MVP builds, product management and data analytics
- Cloud infrastructure and developer tooling
- Lean, low-code development and go-to-market strategy
You prefer ideas that are unusual, real and fundable.`

const pitchInstructions = `
Your mission: generate 3-4 highly tailored, non-obvious elevator pitches for how the technology below could be applied to solve real-world problems.

Each idea must:
- Be aligned with the background above
- Be either a "side_hustle" (small, quick to market) or a "full_scale" (larger, more ambitious) idea
- Avoid generic SaaS dashboards, CRUD apps, marketplaces and productivity clones

Quality filter: include only ideas with a score of at least 8 and an MVP effort of at most 4.
If you cannot find enough high-quality ideas, return fewer.

Return ONLY a JSON array. Each element must have exactly these fields:
{
  "title": "Catchy name",
  "hook": "Open strong to get attention.",
  "value": "What does the solution actually do?",
  "evidence": "A brief insight or statistic that supports credibility, with a source.",
  "differentiator": "Why is this solution different or better?",
  "call_to_action": "What would you say to a decision-maker to move forward?",
  "type": "side_hustle or full_scale",
  "score": 1-10,
  "mvp_effort": 1-10
}
No markdown fencing or explanation.`

var sectionQuestions = map[string]string{
	models.SectionProductClarity: `- What is the MVP, and what is the fastest path to validating product-market fit?
- Which features are essential to test core value, and how would you build them?
- Effort level for the MVP on a 1-10 scale.`,
	models.SectionTiming: `- Why is now the right time for this idea?
- Which technology, market or regulatory shifts make it more viable than before?`,
	models.SectionMarketOpportunity: `- Who is the target customer and what pain is being solved?
- How big is the market? Estimate with real logic.
- What is the monetization strategy and the rough time to profitability?`,
	models.SectionStrategicMoat: `- What is hard to copy here? Any defensible IP or network effect?
- Is there a strategic wedge to expand later?`,
	models.SectionBusinessFunding: `- What is the ask for an angel or seed investor, and how would the first 6 months be spent?
- Who are the main competitors, and what is a realistic exit?`,
	models.SectionInvestorScoring: `- Score 1-10: product-market fit, market size and timing, ability to execute, technical feasibility, moat, profitability, exit potential, overall attractiveness.
- Give a final Go / No-Go rating.`,
	models.SectionSummary: `- A one-paragraph executive summary an investor could paste into a memo.`,
}

// BuildPitchPrompt asks for pitches derived from a collection summary.
func BuildPitchPrompt(profile, summary string) string {
	if strings.TrimSpace(profile) == "" {
		profile = DefaultProfile
	}
	var sb strings.Builder
	sb.WriteString(profile)
	sb.WriteString("\n")
	sb.WriteString(pitchInstructions)
	sb.WriteString("\n\nTechnology:\n")
	sb.WriteString(summary)
	return sb.String()
}

// BuildDeepDivePrompt asks for an investor-style analysis of one pitch, using
// the emoji section headers the parser recognises.
func BuildDeepDivePrompt(profile string, p models.Pitch) string {
	var sb strings.Builder
	writeDeepDivePreamble(&sb, profile)
	writePitch(&sb, p)
	return sb.String()
}

// BuildRegeneratePrompt asks for a revised deep dive that builds on edited sections.
func BuildRegeneratePrompt(profile string, p models.Pitch, current models.DeepDive) string {
	var sb strings.Builder
	writeDeepDivePreamble(&sb, profile)
	writePitch(&sb, p)
	sb.WriteString("\nA previous analysis was edited by the founder. Treat these notes as ground truth and revise the analysis around them:\n")
	for _, h := range parse.Headings {
		if v := strings.TrimSpace(current[h.Key]); v != "" {
			fmt.Fprintf(&sb, "\n%s %s\n%s\n", h.Emoji, h.Title, v)
		}
	}
	return sb.String()
}

func writeDeepDivePreamble(sb *strings.Builder, profile string) {
	if strings.TrimSpace(profile) == "" {
		profile = DefaultProfile
	}
	sb.WriteString(profile)
	sb.WriteString(`

You are a founder-operator and strategic investor combined. Evaluate the idea below as if preparing an internal investment memo. Be specific and data-backed where possible.

Answer under each of these headers, each on its own line, exactly as written:
`)
	for _, h := range parse.Headings {
		fmt.Fprintf(sb, "\n%s %s\n%s\n", h.Emoji, h.Title, sectionQuestions[h.Key])
	}
	sb.WriteString("\nWrite in English.\n")
}

func writePitch(sb *strings.Builder, p models.Pitch) {
	sb.WriteString("\nIdea:\n")
	field := func(label, v string) {
		if strings.TrimSpace(v) != "" {
			fmt.Fprintf(sb, "%s: %s\n", label, v)
		}
	}
	field("Title", p.Title)
	field("Hook", p.Hook)
	field("Value", p.Value)
	field("Evidence", p.Evidence)
	field("Differentiator", p.Differentiator)
	field("Call to action", p.CallToAction)
	field("Type", p.Kind)
	if p.Score != nil {
		fmt.Fprintf(sb, "Score: %d\n", *p.Score)
	}
	if p.MVPEffort != nil {
		fmt.Fprintf(sb, "MVP effort: %d\n", *p.MVPEffort)
	}
}
