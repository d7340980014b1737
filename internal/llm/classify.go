package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/fundgate/internal/model"
)

// ErrUnclassified means the model placed the fragment on no axis
var ErrUnclassified = errors.New("fragment supports no axis")

// Classification is the model's axis label for a fragment.
// Strength is zero when the model gave none or an invalid one.
type Classification struct {
	Axis     model.Axis
	Strength model.Strength
}

type classificationJSON struct {
	Axis     string `json:"axis"`
	Strength string `json:"strength"`
}

// AxisClassifier labels evidence fragments with a language model
type AxisClassifier struct {
	provider Provider
}

// NewAxisClassifier creates a classifier backed by provider
func NewAxisClassifier(provider Provider) *AxisClassifier {
	return &AxisClassifier{provider: provider}
}

// Classify asks the model for an axis and strength
func (c *AxisClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	if c.provider == nil {
		return Classification{}, errors.New("no LLM provider configured")
	}

	resp, err := c.provider.Complete(ctx, CompletionRequest{
		Prompt:    BuildClassifyPrompt(truncate(text, 2000)),
		MaxTokens: 60,
		JSON:      true,
	})
	if err != nil {
		return Classification{}, err
	}

	return ParseClassification(resp.Text)
}

// ParseClassification reads the JSON reply, tolerating code fences and
// surrounding prose
func ParseClassification(raw string) (Classification, error) {
	body := raw
	if start := strings.IndexByte(body, '{'); start >= 0 {
		if end := strings.LastIndexByte(body, '}'); end > start {
			body = body[start : end+1]
		}
	}

	var parsed classificationJSON
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return Classification{}, fmt.Errorf("parse classification: %w", err)
	}

	label := strings.ToLower(strings.TrimSpace(parsed.Axis))
	if label == "" || label == "none" || label == "null" {
		return Classification{}, ErrUnclassified
	}

	axis, err := model.ParseAxis(label)
	if err != nil {
		return Classification{}, err
	}

	out := Classification{Axis: axis}
	if s, err := model.ParseStrength(parsed.Strength); err == nil {
		out.Strength = s
	}
	return out, nil
}
