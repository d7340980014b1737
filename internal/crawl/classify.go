package crawl

import (
	"context"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/fundgate/internal/llm"
	"github.com/ppiankov/fundgate/internal/model"
	"golang.org/x/text/unicode/norm"
)

// Label is an axis assignment for a text fragment. Strength is zero when
// the classifier leaves grading to source authority.
type Label struct {
	Axis     model.Axis
	Strength model.Strength
}

// Classifier assigns a fragment to a scorecard axis. ok is false when the
// fragment supports no axis.
type Classifier interface {
	Classify(ctx context.Context, text string) (label Label, ok bool)
}

// KeywordRules are the keyword sets for one axis. Strong hits weigh more
// than weak ones and anti hits subtract.
type KeywordRules struct {
	Strong []string `json:"strong" yaml:"strong"`
	Weak   []string `json:"weak" yaml:"weak"`
	Anti   []string `json:"anti,omitempty" yaml:"anti,omitempty"`
}

const (
	strongWeight = 3
	weakWeight   = 1
	antiWeight   = 2
	strongCap    = 3
	weakCap      = 3
)

// DefaultKeywordRules returns the built-in per-axis keyword rules
func DefaultKeywordRules() map[model.Axis]KeywordRules {
	return map[model.Axis]KeywordRules{
		model.AxisTechnologyDepth: {
			Strong: []string{"patent", "proprietary model", "research paper", "arxiv", "architecture", "fine-tuned", "benchmark", "machine learning", "neural network", "large language model", "llm", "inference"},
			Weak:   []string{"ai", "algorithm", "technology", "engine", "model", "automation"},
		},
		model.AxisMarket: {
			Strong: []string{"market size", "tam", "cagr", "billion market", "addressable market", "industry", "segment"},
			Weak:   []string{"market", "demand", "sector", "enterprises", "smb", "vertical"},
		},
		model.AxisTraction: {
			Strong: []string{"customers", "revenue", "arr", "monthly active", "users", "year over year", "raised", "funding", "series a", "series b", "seed round", "partnership"},
			Weak:   []string{"clients", "pilot", "trusted by", "growth", "adoption"},
			Anti:   []string{"job opening"},
		},
		model.AxisCompetitiveMoat: {
			Strong: []string{"proprietary data", "network effect", "exclusive", "patented", "switching cost", "first mover"},
			Weak:   []string{"unique", "differentiat", "only platform", "defensib"},
		},
		model.AxisRisk: {
			Strong: []string{"soc 2", "iso 27001", "gdpr", "hipaa", "compliance", "audit", "regulat", "lawsuit", "breach"},
			Weak:   []string{"security", "privacy", "encryption", "risk", "liability"},
		},
		model.AxisTeam: {
			Strong: []string{"founder", "co-founder", "ceo", "cto", "phd", "leadership team", "previously at", "former"},
			Weak:   []string{"team", "hiring", "engineers", "advisors", "board"},
		},
		model.AxisDeploymentReadiness: {
			Strong: []string{"api", "sdk", "on-premise", "on-prem", "integration", "pricing", "free trial", "generally available", "self-serve"},
			Weak:   []string{"deploy", "onboarding", "documentation", "get started", "plans", "cloud"},
		},
	}
}

type compiledRules struct {
	strong []string
	weak   []string
	anti   []string
}

// KeywordClassifier picks the axis whose keyword rules score highest
type KeywordClassifier struct {
	rules map[model.Axis]compiledRules
}

// NewKeywordClassifier compiles rules. Nil rules use DefaultKeywordRules.
func NewKeywordClassifier(rules map[model.Axis]KeywordRules) *KeywordClassifier {
	if rules == nil {
		rules = DefaultKeywordRules()
	}
	compiled := make(map[model.Axis]compiledRules, len(rules))
	for axis, set := range rules {
		if !axis.Valid() {
			continue
		}
		compiled[axis] = compiledRules{
			strong: normalizeKeywordList(set.Strong),
			weak:   normalizeKeywordList(set.Weak),
			anti:   normalizeKeywordList(set.Anti),
		}
	}
	return &KeywordClassifier{rules: compiled}
}

// Classify implements Classifier. Ties go to the earlier axis.
func (c *KeywordClassifier) Classify(ctx context.Context, text string) (Label, bool) {
	normalized := normalizeText(text)
	if normalized == "" {
		return Label{}, false
	}

	best := model.Axis(0)
	bestScore := 0
	for _, axis := range model.Axes() {
		set, ok := c.rules[axis]
		if !ok {
			continue
		}
		if score := ruleScore(normalized, set); score > bestScore {
			best, bestScore = axis, score
		}
	}

	if bestScore == 0 {
		return Label{}, false
	}
	return Label{Axis: best}, true
}

func ruleScore(text string, set compiledRules) int {
	strong := min(countKeywordHits(text, set.strong), strongCap)
	weak := min(countKeywordHits(text, set.weak), weakCap)
	score := strongWeight*strong + weakWeight*weak - antiWeight*countKeywordHits(text, set.anti)
	return max(score, 0)
}

// LLMClassifier asks a language model and falls back to keywords when the
// model fails or answers with something unusable
type LLMClassifier struct {
	model    *llm.AxisClassifier
	fallback Classifier
}

// NewLLMClassifier creates an LLM-backed classifier
func NewLLMClassifier(provider llm.Provider, fallback Classifier) *LLMClassifier {
	if fallback == nil {
		fallback = NewKeywordClassifier(nil)
	}
	return &LLMClassifier{model: llm.NewAxisClassifier(provider), fallback: fallback}
}

// Classify implements Classifier
func (c *LLMClassifier) Classify(ctx context.Context, text string) (Label, bool) {
	got, err := c.model.Classify(ctx, text)
	switch {
	case err == nil:
		return Label{Axis: got.Axis, Strength: got.Strength}, true
	case errors.Is(err, llm.ErrUnclassified):
		return Label{}, false
	default:
		return c.fallback.Classify(ctx, text)
	}
}

func normalizeText(s string) string {
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func normalizeKeywordList(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	res := make([]string, 0, len(words))
	for _, w := range words {
		normed := normalizeText(w)
		if normed == "" {
			continue
		}
		if _, ok := seen[normed]; ok {
			continue
		}
		seen[normed] = struct{}{}
		res = append(res, normed)
	}
	return res
}

func countKeywordHits(text string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if containsKeyword(text, kw) {
			hits++
		}
	}
	return hits
}

func containsKeyword(text, kw string) bool {
	if kw == "" {
		return false
	}
	if useWordBoundary(kw) {
		return containsAsWord(text, kw)
	}
	return strings.Contains(text, kw)
}

// useWordBoundary is true for short alphanumeric ASCII keywords such as
// "ai" or "api" that would otherwise match inside longer words
func useWordBoundary(kw string) bool {
	count := 0
	for _, r := range kw {
		if r > unicode.MaxASCII || (!unicode.IsLetter(r) && !unicode.IsDigit(r)) {
			return false
		}
		count++
		if count > 3 {
			return false
		}
	}
	return count > 0
}

func containsAsWord(text, word string) bool {
	start := 0
	for start < len(text) {
		idx := strings.Index(text[start:], word)
		if idx < 0 {
			return false
		}
		idx += start
		var before rune
		if idx > 0 {
			before, _ = utf8.DecodeLastRuneInString(text[:idx])
		}
		var after rune
		if end := idx + len(word); end < len(text) {
			after, _ = utf8.DecodeRuneInString(text[end:])
		}
		if !isAlphaNumRune(before) && !isAlphaNumRune(after) {
			return true
		}
		start = idx + len(word)
	}
	return false
}

func isAlphaNumRune(r rune) bool {
	if r == 0 || r == utf8.RuneError {
		return false
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
