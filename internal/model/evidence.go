package model

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Evidence is a single axis-tagged fragment supporting a claim about an entity
type Evidence struct {
	Source    string     `json:"source"`              // URL or document identifier
	Text      string     `json:"text"`                // Extracted fragment
	Axis      Axis       `json:"axis"`                // Scorecard dimension it supports
	Strength  Strength   `json:"strength"`            // weak, medium, strong
	Published *time.Time `json:"published,omitempty"` // Publication time if known
	EntityID  string     `json:"entity_id,omitempty"` // Set by matching or retrieval only
}

// Attach returns a copy of the evidence associated with entityID
func (e Evidence) Attach(entityID string) Evidence {
	out := e
	out.EntityID = entityID
	if e.Published != nil {
		t := *e.Published
		out.Published = &t
	}
	return out
}

// EvidenceKey identifies one observation. Items with equal keys are the
// same evidence regardless of owner or publication date.
type EvidenceKey struct {
	Source   string
	Text     string
	Axis     Axis
	Strength Strength
}

// Key returns the identity of e
func (e Evidence) Key() EvidenceKey {
	return EvidenceKey{Source: e.Source, Text: e.Text, Axis: e.Axis, Strength: e.Strength}
}

// Domain returns the host of the source with any leading "www." removed.
// Sources that are not URLs are keyed by their lowercased locator.
func (e Evidence) Domain() string {
	return DomainOf(e.Source)
}

// Validate checks the closed enumerations
func (e Evidence) Validate() error {
	if !e.Axis.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidAxis, int(e.Axis))
	}
	if !e.Strength.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStrength, int(e.Strength))
	}
	return nil
}

// DomainOf normalizes a URL or bare host to a comparable domain key
func DomainOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	candidate := raw
	if !strings.Contains(candidate, "://") {
		candidate = "http://" + candidate
	}
	u, err := url.Parse(candidate)
	if err != nil || u.Hostname() == "" || !strings.Contains(u.Hostname(), ".") {
		return strings.ToLower(raw)
	}

	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

type evidenceJSON struct {
	Source    string   `json:"source"`
	Text      string   `json:"text"`
	Axis      Axis     `json:"axis"`
	Strength  Strength `json:"strength"`
	Published string   `json:"published,omitempty"`
	EntityID  string   `json:"entity_id,omitempty"`
}

// MarshalJSON writes Published as RFC 3339
func (e Evidence) MarshalJSON() ([]byte, error) {
	out := evidenceJSON{
		Source:   e.Source,
		Text:     e.Text,
		Axis:     e.Axis,
		Strength: e.Strength,
		EntityID: e.EntityID,
	}
	if e.Published != nil {
		out.Published = e.Published.UTC().Format(time.RFC3339)
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts Published as RFC 3339 or a bare YYYY-MM-DD date
func (e *Evidence) UnmarshalJSON(data []byte) error {
	var in evidenceJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*e = Evidence{
		Source:   in.Source,
		Text:     in.Text,
		Axis:     in.Axis,
		Strength: in.Strength,
		EntityID: in.EntityID,
	}

	if in.Published != "" {
		t, err := ParseDate(in.Published)
		if err != nil {
			return fmt.Errorf("evidence published: %w", err)
		}
		e.Published = &t
	}
	return nil
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	time.RFC1123,
	time.RFC1123Z,
}

// ParseDate parses the timestamp formats seen in page metadata and fixtures
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// AuthorityTier represents the classification of source authority
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Not yet classified
	TierPrimary   AuthorityTier = 1 // Filings, official registries, peer-reviewed work
	TierSecondary AuthorityTier = 2 // Major publishers, analyst coverage
	TierTertiary  AuthorityTier = 3 // Company marketing, blogs, aggregators
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// Strength maps an authority tier to the evidence strength it implies
func (t AuthorityTier) Strength() Strength {
	switch t {
	case TierPrimary:
		return StrengthStrong
	case TierSecondary:
		return StrengthMedium
	default:
		return StrengthWeak
	}
}
