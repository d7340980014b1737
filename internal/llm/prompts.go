package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/fundgate/internal/model"
)

// BuildQueryPrompt asks for a short retrieval query for one axis
func BuildQueryPrompt(entity model.Entity, axis model.Axis) string {
	return fmt.Sprintf(`Write one short search query (at most 12 words) that would retrieve evidence about the %s of the company %q.
Website: %s
Known tags: %s

Return only the query text, without quotes or explanation.`,
		axis.Label(), entity.Name, orNone(entity.Website), orNone(strings.Join(entity.Tags, ", ")))
}

// BuildClassifyPrompt asks which scorecard axis a text fragment supports
func BuildClassifyPrompt(text string) string {
	var axes []string
	for _, a := range model.Axes() {
		axes = append(axes, fmt.Sprintf("- %s (%s)", a.String(), a.Label()))
	}
	return fmt.Sprintf(`Classify the text fragment below by the venture-screening axis it is evidence for.

Axes:
%s

Strength is "strong" for concrete, verifiable facts (figures, named customers, filings), "medium" for specific but unverified statements, "weak" for generic marketing language.
If the fragment supports no axis, use "none" as the axis.

Reply with JSON: {"axis": "<axis>", "strength": "<weak|medium|strong>"}

Fragment:
"""
%s
"""`, strings.Join(axes, "\n"), text)
}

// BuildNarrativePrompt constructs the report commentary prompt with strict evidence mode
func BuildNarrativePrompt(report model.Report, urls []string) string {
	card := report.ScoreCard

	var b strings.Builder
	fmt.Fprintf(&b, `You are writing commentary for a venture screening report. The score and decision are final and were computed without you.

CRITICAL RULES:
1. You MUST ONLY cite URLs from this allowed list:
%s

2. DO NOT infer, speculate, or cite external sources beyond this list.
3. If evidence for an axis is thin, say so explicitly.
4. Never contradict or re-grade the scores.

Company: %s
Website: %s
Total score: %.2f
Mean confidence: %.2f
Decision: %s

Axis scores:
`, joinURLs(urls), report.Entity.Name, orNone(report.Entity.Website), card.Total, card.MeanConfidence, card.Decision)

	for _, item := range card.Items {
		fmt.Fprintf(&b, "- %s: value %.2f, confidence %.2f\n", item.Axis.Label(), item.Value, item.Confidence)
		for i, ev := range item.Evidence {
			if i >= 2 {
				break
			}
			fmt.Fprintf(&b, "    * [%s] %s (%s)\n", ev.Strength, truncate(ev.Text, 200), ev.Source)
		}
	}

	b.WriteString("\nWrite a short Markdown summary with three parts: an overview (2-3 sentences), key strengths, and key risks.")
	return b.String()
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
