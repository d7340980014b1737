package report

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/fundgate/internal/llm"
	"github.com/ppiankov/fundgate/internal/model"
)

const evidenceTextLimit = 300

// RenderMarkdown renders a report. At most perAxis evidence items are listed
// under each axis.
func RenderMarkdown(r model.Report, perAxis int, footer bool) string {
	var b strings.Builder
	card := r.ScoreCard
	e := r.Entity

	name := e.Name
	if name == "" {
		name = e.ID
	}
	fmt.Fprintf(&b, "# %s\n\n", name)

	if card.Invest() {
		b.WriteString("> **Decision: INVEST**\n\n")
	} else {
		fmt.Fprintf(&b, "> **Decision: %s**\n\n", strings.ToUpper(string(card.Decision)))
	}

	fmt.Fprintf(&b, "- **Total score**: %.2f\n", card.Total)
	fmt.Fprintf(&b, "- **Mean confidence**: %.3f\n", card.MeanConfidence)
	if r.Query != "" {
		fmt.Fprintf(&b, "- **Query**: %s\n", r.Query)
	}
	if e.Website != "" {
		fmt.Fprintf(&b, "- **Website**: %s\n", e.Website)
	}
	if e.FoundedYear != nil {
		fmt.Fprintf(&b, "- **Founded**: %d\n", *e.FoundedYear)
	}
	if e.Stage != "" {
		fmt.Fprintf(&b, "- **Stage**: %s\n", e.Stage)
	}
	if e.Region != "" {
		fmt.Fprintf(&b, "- **Region**: %s\n", e.Region)
	}
	fmt.Fprintf(&b, "- **Generated**: %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04 MST"))

	b.WriteString("## Scorecard\n\n")
	b.WriteString("| Axis | Score | Confidence | Coverage | Diversity | Recency | Rationale |\n")
	b.WriteString("|------|------:|-----------:|---------:|----------:|--------:|-----------|\n")
	for _, item := range card.Items {
		fmt.Fprintf(&b, "| %s | %.1f | %.3f | %.2f | %.2f | %.2f | %s |\n",
			item.Axis.Label(), item.Value, item.Confidence, item.Coverage, item.Diversity, item.Recency, cell(item.Rationale))
	}
	b.WriteString("\n")

	b.WriteString("## Evidence\n\n")
	for _, item := range card.Items {
		fmt.Fprintf(&b, "### %s\n\n", item.Axis.Label())
		if len(item.Evidence) == 0 {
			b.WriteString("_No evidence collected._\n\n")
			continue
		}
		for i, ev := range item.Evidence {
			if i >= perAxis {
				fmt.Fprintf(&b, "- _... and %d more_\n", len(item.Evidence)-perAxis)
				break
			}
			b.WriteString(evidenceLine(ev))
		}
		b.WriteString("\n")
	}

	if r.Narrative != nil {
		b.WriteString(llm.RenderMarkdown(r.Narrative))
		b.WriteString("\n")
	}

	if footer {
		b.WriteString("---\n\n")
		b.WriteString("_Generated by fundgate. Scores and the decision are computed from the collected evidence only and are not investment advice._\n")
	}

	return b.String()
}

func evidenceLine(ev model.Evidence) string {
	source := ev.Source
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		source = fmt.Sprintf("[%s](%s)", ev.Domain(), ev.Source)
	}
	date := ""
	if ev.Published != nil {
		date = " (" + ev.Published.Format("2006-01-02") + ")"
	}
	return fmt.Sprintf("- **%s** %s%s: %s\n", ev.Strength, source, date, clip(ev.Text, evidenceTextLimit))
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}

func clip(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
