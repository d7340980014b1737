package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/fundgate/internal/model"
)

// Narrator writes optional report commentary. It never affects scores.
type Narrator struct {
	provider Provider
	config   Config
}

// NewNarrator creates a narrator from config. A disabled config yields a
// narrator whose Narrate returns nil.
func NewNarrator(config Config) (*Narrator, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}
	return &Narrator{provider: provider, config: config}, nil
}

// NewNarratorWithProvider wraps an existing provider
func NewNarratorWithProvider(provider Provider, config Config) *Narrator {
	return &Narrator{provider: provider, config: config}
}

// IsEnabled returns true if a provider is configured
func (n *Narrator) IsEnabled() bool {
	return n != nil && n.provider != nil
}

// ProviderName returns the name of the configured provider
func (n *Narrator) ProviderName() string {
	if !n.IsEnabled() {
		return ""
	}
	return n.provider.Name()
}

// Narrate generates commentary for report. Failures are reported as
// warnings on the returned narrative, never as errors.
func (n *Narrator) Narrate(ctx context.Context, report model.Report) *model.Narrative {
	if !n.IsEnabled() {
		return nil
	}

	narrative := &model.Narrative{
		Provider:       n.provider.Name(),
		Model:          n.config.Model,
		StrictEvidence: n.config.StrictEvidence,
	}

	if !n.provider.IsAvailable(ctx) {
		narrative.Warnings = append(narrative.Warnings,
			fmt.Sprintf("LLM provider %s is not available (check API key or connectivity)", n.provider.Name()))
		return narrative
	}
	narrative.Enabled = true

	allowed := evidenceURLs(report.ScoreCard)
	resp, err := n.provider.Complete(ctx, CompletionRequest{
		Prompt: BuildNarrativePrompt(report, allowed),
	})
	if err != nil {
		narrative.Warnings = append(narrative.Warnings, fmt.Sprintf("LLM narrative generation failed: %v", err))
		return narrative
	}

	cited := extractURLs(resp.Text)
	if n.config.StrictEvidence {
		for _, u := range cited {
			if !contains(allowed, u) {
				narrative.Warnings = append(narrative.Warnings,
					fmt.Sprintf("Narrative discarded: cited URL outside the evidence set: %s", u))
				return narrative
			}
		}
	}

	if resp.Model != "" {
		narrative.Model = resp.Model
	}
	narrative.SummaryMD = resp.Text
	narrative.Warnings = append(narrative.Warnings, fmt.Sprintf("Tokens used: %d", resp.TokensUsed))
	if len(cited) > 0 {
		narrative.Warnings = append(narrative.Warnings, fmt.Sprintf("Verified %d citations against evidence", len(cited)))
	}

	return narrative
}

// RenderMarkdown renders a narrative as a Markdown section
func RenderMarkdown(narrative *model.Narrative) string {
	if narrative == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Analyst Narrative\n\n")
	b.WriteString("> GENERATED CONTENT. Scores and the decision were determined independently of this text.\n\n")
	fmt.Fprintf(&b, "- **Provider**: %s\n", narrative.Provider)
	if narrative.Model != "" {
		fmt.Fprintf(&b, "- **Model**: %s\n", narrative.Model)
	}
	fmt.Fprintf(&b, "- **Strict Evidence Mode**: %t\n\n", narrative.StrictEvidence)

	if narrative.SummaryMD != "" {
		b.WriteString(narrative.SummaryMD)
		b.WriteString("\n")
	} else {
		b.WriteString("_No narrative generated._\n")
	}

	if len(narrative.Warnings) > 0 {
		b.WriteString("\n### Notes\n\n")
		for _, w := range narrative.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return b.String()
}
