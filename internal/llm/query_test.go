package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/fundgate/internal/model"
)

func fallbackQuery(e model.Entity, a model.Axis) string {
	return "fallback " + e.Name + " " + a.String()
}

func TestQueryWriter_AxisQuery(t *testing.T) {
	entity := model.Entity{ID: "cand_01", Name: "Acme AI", Tags: []string{"legaltech"}}

	tests := []struct {
		desc     string
		provider Provider
		want     string
	}{
		{"nil provider", nil, "fallback Acme AI traction"},
		{"provider error", &MockProvider{err: errors.New("down")}, "fallback Acme AI traction"},
		{"empty reply", &MockProvider{response: &CompletionResponse{Text: "  \n"}}, "fallback Acme AI traction"},
		{"first line unquoted", &MockProvider{response: &CompletionResponse{Text: "\"Acme AI customer growth revenue\"\nextra"}}, "Acme AI customer growth revenue"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			w := NewQueryWriter(tt.provider, fallbackQuery)
			if got := w.AxisQuery(context.Background(), entity, model.AxisTraction); got != tt.want {
				t.Errorf("AxisQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildQueryPrompt(t *testing.T) {
	prompt := BuildQueryPrompt(model.Entity{Name: "Acme AI"}, model.AxisCompetitiveMoat)
	if !strings.Contains(prompt, "Acme AI") || !strings.Contains(prompt, model.AxisCompetitiveMoat.Label()) {
		t.Errorf("Prompt missing entity or axis: %s", prompt)
	}
	if !strings.Contains(prompt, "(none)") {
		t.Error("Expected placeholder for missing website")
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{})
	if err != nil || p != nil {
		t.Errorf("Expected disabled provider, got %v, %v", p, err)
	}

	if _, err := NewProvider(Config{Provider: "openai"}); err == nil {
		t.Error("Expected missing key error for openai")
	}

	p, err = NewProvider(Config{Provider: "Ollama", Model: "llama3.1"})
	if err != nil || p.Name() != "ollama" {
		t.Errorf("Expected ollama provider, got %v, %v", p, err)
	}

	p, err = NewProvider(Config{Provider: "claude", APIKey: "k"})
	if err != nil || p.Name() != "anthropic" {
		t.Errorf("Expected anthropic provider, got %v, %v", p, err)
	}
}
