package pipeline

import (
	"context"
	"fmt"

	"github.com/ppiankov/fundgate/internal/model"
	"github.com/ppiankov/fundgate/internal/runlog"
)

// Discoverer finds candidate entities for a query
type Discoverer interface {
	Discover(ctx context.Context, query string) ([]model.Entity, error)
}

// Filter drops irrelevant candidates. dropped maps ids to reasons.
type Filter interface {
	Filter(ctx context.Context, entities []model.Entity) (kept []model.Entity, dropped map[string]string)
}

// Augmenter crawls an entity's sources into raw evidence
type Augmenter interface {
	Augment(ctx context.Context, entity model.Entity) (model.Augmentation, error)
}

// EvidenceIndex receives crawled evidence for later retrieval
type EvidenceIndex interface {
	Append(entityID string, items []model.Evidence) error
}

// Retriever returns up to topN evidence items for one entity and axis
type Retriever interface {
	Retrieve(ctx context.Context, entity model.Entity, axis model.Axis, query string, topN int) ([]model.Evidence, error)
}

// QueryWriter phrases the retrieval query for an axis. It never fails.
type QueryWriter interface {
	AxisQuery(ctx context.Context, entity model.Entity, axis model.Axis) string
}

// Reporter emits the report of a gated entity and returns its locator
type Reporter interface {
	Emit(ctx context.Context, query string, entity model.Entity, card model.ScoreCard) (string, error)
}

// RunRecorder persists per-entity run outcomes
type RunRecorder interface {
	Record(entry runlog.Entry) error
}

// StaticDiscoverer returns a fixed entity list regardless of the query
type StaticDiscoverer []model.Entity

// Discover implements Discoverer
func (d StaticDiscoverer) Discover(ctx context.Context, query string) ([]model.Entity, error) {
	return append([]model.Entity(nil), d...), nil
}

// TemplateQueries builds axis queries without a language model
type TemplateQueries struct{}

// AxisQuery implements QueryWriter
func (TemplateQueries) AxisQuery(ctx context.Context, entity model.Entity, axis model.Axis) string {
	return TemplateQuery(entity, axis)
}

var axisHints = map[model.Axis]string{
	model.AxisTechnologyDepth:     "technology models architecture patents research",
	model.AxisMarket:              "market customers segment size demand",
	model.AxisTraction:            "customers revenue growth users partnerships funding",
	model.AxisCompetitiveMoat:     "proprietary data network effects integrations differentiation",
	model.AxisRisk:                "security compliance regulation audit privacy",
	model.AxisTeam:                "founders leadership team experience hiring",
	model.AxisDeploymentReadiness: "deployment api integration pricing onboarding enterprise",
}

// TemplateQuery is the fallback axis query
func TemplateQuery(entity model.Entity, axis model.Axis) string {
	return fmt.Sprintf("%s %s %s", entity.Name, axis.Label(), axisHints[axis])
}
