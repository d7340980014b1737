package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/ppiankov/fundgate/internal/pipeline"
)

const rule = "═══════════════════════════════════════════════════════════"

// RenderSummary prints the scored entities ranked by total, the written
// reports and the reasons every other entity was left out
func RenderSummary(w io.Writer, s *pipeline.State) {
	cards := s.ScoreCards()
	sort.SliceStable(cards, func(i, j int) bool {
		if cards[i].Total != cards[j].Total {
			return cards[i].Total > cards[j].Total
		}
		return cards[i].EntityID < cards[j].EntityID
	})

	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintf(w, "  Run Summary: %s\n", s.Query())
	fmt.Fprintf(w, "%s\n\n", rule)
	fmt.Fprintf(w, "  Discovered: %d\n", len(s.Entities()))
	fmt.Fprintf(w, "  Active:     %d\n", len(s.Active()))
	fmt.Fprintf(w, "  Scored:     %d\n", len(cards))
	fmt.Fprintf(w, "  Failures:   %d\n\n", len(s.Failures()))

	if len(cards) > 0 {
		fmt.Fprintf(w, "  %-4s %-32s %7s %10s  %s\n", "#", "Entity", "Total", "Confidence", "Decision")
		for i, card := range cards {
			fmt.Fprintf(w, "  %-4d %-32s %7.2f %10.3f  %s\n",
				i+1, entityLabel(s, card.EntityID), card.Total, card.MeanConfidence, card.Decision)
		}
		fmt.Fprintln(w)
	}

	if reports := s.Reports(); len(reports) > 0 {
		fmt.Fprintf(w, "  Reports:\n")
		for _, id := range sortedIDs(reports) {
			loc := reports[id]
			if loc == "" {
				loc = "(not written)"
			}
			fmt.Fprintf(w, "    ✓ %s: %s\n", entityLabel(s, id), loc)
		}
		fmt.Fprintln(w)
	}

	left := s.Skipped()
	for id, reason := range s.Filtered() {
		left[id] = "filtered: " + reason
	}
	if len(left) > 0 {
		fmt.Fprintf(w, "  Skipped:\n")
		for _, id := range sortedIDs(left) {
			fmt.Fprintf(w, "    - %s: %s\n", entityLabel(s, id), left[id])
		}
		fmt.Fprintln(w)
	}
}

func entityLabel(s *pipeline.State, id string) string {
	e, ok := s.Entity(id)
	if !ok || e.Name == "" {
		return id
	}
	label := fmt.Sprintf("%s (%s)", e.Name, id)
	if len(label) > 32 {
		label = clip(label, 29)
	}
	return label
}

func sortedIDs(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
