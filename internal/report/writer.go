package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/ppiankov/fundgate/internal/llm"
	"github.com/ppiankov/fundgate/internal/model"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	defaultEvidencePerAxis = 3
	maxSlugLength          = 80
)

// Writer emits the Markdown and JSON report of an entity that cleared the gate
type Writer struct {
	dir             string
	evidencePerAxis int
	includeFooter   bool
	narrator        *llm.Narrator
	now             func() time.Time
}

// NewWriter creates a Writer for cfg. narrator may be nil.
func NewWriter(cfg model.OutputConfig, narrator *llm.Narrator) *Writer {
	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	perAxis := cfg.EvidencePerAxis
	if perAxis <= 0 {
		perAxis = defaultEvidencePerAxis
	}
	return &Writer{
		dir:             dir,
		evidencePerAxis: perAxis,
		includeFooter:   cfg.IncludeFooter,
		narrator:        narrator,
		now:             time.Now,
	}
}

// Emit implements pipeline.Reporter. It returns the Markdown path.
func (w *Writer) Emit(ctx context.Context, query string, entity model.Entity, card model.ScoreCard) (string, error) {
	report := model.Report{
		Entity:      entity,
		Query:       query,
		GeneratedAt: w.now().UTC(),
		ScoreCard:   card,
	}
	// Narrative is generated after scoring and never feeds back into it
	report.Narrative = w.narrator.Narrate(ctx, report)

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	base := filepath.Join(w.dir, Slug(entity))
	jsonPath := base + ".json"
	mdPath := base + ".md"

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write JSON: %w", err)
	}

	md := RenderMarkdown(report, w.evidencePerAxis, w.includeFooter)
	if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
		return "", fmt.Errorf("write Markdown: %w", err)
	}

	return mdPath, nil
}

// Slug builds a file-safe name from the entity name and id
func Slug(entity model.Entity) string {
	name := slugify(entity.Name)
	id := slugify(entity.ID)
	switch {
	case name == "" && id == "":
		return "entity"
	case name == "":
		return id
	case id == "":
		return name
	default:
		return name + "_" + id
	}
}

func slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	out := strings.Trim(b.String(), "-")
	if len(out) > maxSlugLength {
		out = strings.TrimRight(out[:maxSlugLength], "-")
	}
	return out
}
