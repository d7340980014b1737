package llm

import (
	"context"
	"strings"

	"github.com/ppiankov/fundgate/internal/model"
)

// QueryWriter phrases axis retrieval queries with a language model and
// falls back to a template on any failure
type QueryWriter struct {
	provider Provider
	fallback func(model.Entity, model.Axis) string
}

// NewQueryWriter creates a query writer. A nil provider always uses fallback.
func NewQueryWriter(provider Provider, fallback func(model.Entity, model.Axis) string) *QueryWriter {
	return &QueryWriter{provider: provider, fallback: fallback}
}

// AxisQuery returns a query for entity and axis. It never fails.
func (w *QueryWriter) AxisQuery(ctx context.Context, entity model.Entity, axis model.Axis) string {
	if w.provider == nil {
		return w.fallback(entity, axis)
	}

	resp, err := w.provider.Complete(ctx, CompletionRequest{
		Prompt:    BuildQueryPrompt(entity, axis),
		MaxTokens: 60,
	})
	if err != nil {
		return w.fallback(entity, axis)
	}

	query := strings.Trim(strings.TrimSpace(firstLine(resp.Text)), `"'`)
	if query == "" {
		return w.fallback(entity, axis)
	}
	return query
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
