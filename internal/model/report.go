package model

import "time"

// FetchMeta contains HTTP metadata from fetching a page
type FetchMeta struct {
	URL          string            `json:"url"`
	StatusCode   int               `json:"status_code"`
	ContentType  string            `json:"content_type,omitempty"`
	LastModified string            `json:"last_modified,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
}

// Report is the JSON artifact written for an entity that cleared the gate
type Report struct {
	Entity      Entity     `json:"entity"`
	Query       string     `json:"query,omitempty"`
	GeneratedAt time.Time  `json:"generated_at"`
	ScoreCard   ScoreCard  `json:"scorecard"`
	Narrative   *Narrative `json:"narrative,omitempty"`
}

// Narrative contains the optional LLM-written commentary.
// It never affects scoring or the decision.
type Narrative struct {
	Enabled        bool     `json:"enabled"`
	Provider       string   `json:"provider,omitempty"` // openai, anthropic, ollama
	Model          string   `json:"model,omitempty"`
	StrictEvidence bool     `json:"strict_evidence"`
	SummaryMD      string   `json:"summary_md,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}

// RunSummary condenses one pipeline run for batch output and the run log
type RunSummary struct {
	RunID      string            `json:"run_id"`
	Query      string            `json:"query"`
	StartedAt  time.Time         `json:"started_at"`
	Duration   time.Duration     `json:"duration"`
	Discovered int               `json:"discovered"`
	Active     int               `json:"active"`
	Scored     int               `json:"scored"`
	Reports    map[string]string `json:"reports,omitempty"` // entity id -> artifact path
	Skipped    map[string]string `json:"skipped,omitempty"` // entity id -> reason
	Failures   int               `json:"failures"`          // per-entity task failures
}
