package pipeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/ppiankov/fundgate/internal/model"
)

// Stage names a pipeline step
type Stage string

const (
	StageDiscovery Stage = "discovery"
	StageFilter    Stage = "filter"
	StageAugment   Stage = "augment"
	StageRetrieval Stage = "retrieval"
	StageScoring   Stage = "scoring"
	StageReport    Stage = "report"
)

var stageOrder = []Stage{StageDiscovery, StageFilter, StageAugment, StageRetrieval, StageScoring, StageReport}

// Failure records a per-entity task error that was absorbed by the run
type Failure struct {
	Stage    Stage  `json:"stage"`
	EntityID string `json:"entity_id,omitempty"`
	Err      string `json:"error"`
}

// State is the data threaded through a run. Stages read it through
// accessors and change it only by applying their own patch type.
type State struct {
	query string
	asOf  time.Time

	entities []model.Entity
	index    map[string]int
	active   []string
	filtered map[string]string

	seed      []model.Evidence
	crawled   map[string][]model.Evidence
	retrieved map[string]map[model.Axis][]model.Evidence

	scoreCards map[string]model.ScoreCard
	reports    map[string]string
	skipped    map[string]string

	failures []Failure
	applied  map[Stage]bool
}

// NewState starts a run for query. asOf anchors recency for the whole run.
// seed is evidence supplied up front; it is matched like crawled evidence.
// Callers check seed with CheckEvidence first.
func NewState(query string, asOf time.Time, seed []model.Evidence) *State {
	return &State{
		query:      query,
		asOf:       asOf,
		index:      make(map[string]int),
		filtered:   make(map[string]string),
		seed:       append([]model.Evidence(nil), seed...),
		crawled:    make(map[string][]model.Evidence),
		retrieved:  make(map[string]map[model.Axis][]model.Evidence),
		scoreCards: make(map[string]model.ScoreCard),
		reports:    make(map[string]string),
		skipped:    make(map[string]string),
		applied:    make(map[Stage]bool),
	}
}

func (s *State) Query() string       { return s.query }
func (s *State) AsOf() time.Time     { return s.asOf }
func (s *State) Failures() []Failure { return append([]Failure(nil), s.failures...) }

// Entities returns every discovered entity, including filtered ones
func (s *State) Entities() []model.Entity {
	return append([]model.Entity(nil), s.entities...)
}

// Entity looks up a discovered entity by id
func (s *State) Entity(id string) (model.Entity, bool) {
	i, ok := s.index[id]
	if !ok {
		return model.Entity{}, false
	}
	return s.entities[i], true
}

// Active returns the entities that survived filtering, in discovery order
func (s *State) Active() []model.Entity {
	out := make([]model.Entity, 0, len(s.active))
	for _, id := range s.active {
		out = append(out, s.entities[s.index[id]])
	}
	return out
}

// Filtered returns filtered entity ids mapped to the reason
func (s *State) Filtered() map[string]string { return copyStrings(s.filtered) }

// Seed returns the evidence supplied at run start
func (s *State) Seed() []model.Evidence { return append([]model.Evidence(nil), s.seed...) }

// Crawled returns the raw evidence produced by an entity's augmentation
func (s *State) Crawled(id string) []model.Evidence {
	return append([]model.Evidence(nil), s.crawled[id]...)
}

// Retrieved returns the per-axis retrieval results of an entity
func (s *State) Retrieved(id string) map[model.Axis][]model.Evidence {
	src := s.retrieved[id]
	out := make(map[model.Axis][]model.Evidence, len(src))
	for axis, items := range src {
		out[axis] = append([]model.Evidence(nil), items...)
	}
	return out
}

// ScoreCard returns the scorecard of an entity, if it was scored
func (s *State) ScoreCard(id string) (model.ScoreCard, bool) {
	c, ok := s.scoreCards[id]
	return c, ok
}

// ScoreCards returns all scorecards in active order
func (s *State) ScoreCards() []model.ScoreCard {
	out := make([]model.ScoreCard, 0, len(s.scoreCards))
	for _, id := range s.active {
		if c, ok := s.scoreCards[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Reports returns entity ids mapped to report locators
func (s *State) Reports() map[string]string { return copyStrings(s.reports) }

// Skipped returns entity ids mapped to the reason no report was written
func (s *State) Skipped() map[string]string { return copyStrings(s.skipped) }

// Summary condenses the state for batch output
func (s *State) Summary(runID string, duration time.Duration) *model.RunSummary {
	return &model.RunSummary{
		RunID:      runID,
		Query:      s.query,
		StartedAt:  s.asOf,
		Duration:   duration,
		Discovered: len(s.entities),
		Active:     len(s.active),
		Scored:     len(s.scoreCards),
		Reports:    copyStrings(s.reports),
		Skipped:    copyStrings(s.skipped),
		Failures:   len(s.failures),
	}
}

func (s *State) recordFailure(stage Stage, entityID string, err error) {
	s.failures = append(s.failures, Failure{Stage: stage, EntityID: entityID, Err: err.Error()})
}

// begin enforces stage order and single application
func (s *State) begin(stage Stage) error {
	if s.applied[stage] {
		return violation("%s patch applied twice", stage)
	}
	for _, prev := range stageOrder {
		if prev == stage {
			break
		}
		if !s.applied[prev] {
			return violation("%s patch before %s", stage, prev)
		}
	}
	return nil
}

func (s *State) isActive(id string) bool {
	for _, a := range s.active {
		if a == id {
			return true
		}
	}
	return false
}

// DiscoveryPatch sets the discovered entities
type DiscoveryPatch struct {
	Entities []model.Entity
}

// ApplyDiscovery records discovered entities. Ids must be non-empty and unique.
func (s *State) ApplyDiscovery(p DiscoveryPatch) error {
	if err := s.begin(StageDiscovery); err != nil {
		return err
	}
	index := make(map[string]int, len(p.Entities))
	for i, e := range p.Entities {
		if e.ID == "" {
			return violation("discovered entity %q has no id", e.Name)
		}
		if _, dup := index[e.ID]; dup {
			return violation("duplicate entity id %q", e.ID)
		}
		index[e.ID] = i
	}

	s.entities = append([]model.Entity(nil), p.Entities...)
	s.index = index
	s.active = make([]string, 0, len(p.Entities))
	for _, e := range p.Entities {
		s.active = append(s.active, e.ID)
	}
	s.applied[StageDiscovery] = true
	return nil
}

// FilterPatch narrows the active set
type FilterPatch struct {
	Keep    []string          // ids that stay active
	Reasons map[string]string // reasons for the ids that were dropped
}

// ApplyFilter keeps only Keep. Keeping an id that is not active widens the
// set and is rejected.
func (s *State) ApplyFilter(p FilterPatch) error {
	if err := s.begin(StageFilter); err != nil {
		return err
	}
	keep := make(map[string]bool, len(p.Keep))
	for _, id := range p.Keep {
		if !s.isActive(id) {
			return violation("filter kept unknown or inactive entity %q", id)
		}
		keep[id] = true
	}

	active := make([]string, 0, len(keep))
	for _, id := range s.active {
		if keep[id] {
			active = append(active, id)
			continue
		}
		reason := p.Reasons[id]
		if reason == "" {
			reason = "filtered"
		}
		s.filtered[id] = reason
	}
	s.active = active
	s.applied[StageFilter] = true
	return nil
}

// AugmentPatch carries crawl output per entity
type AugmentPatch struct {
	Crawled    map[string][]model.Evidence
	Enrichment map[string]model.Enrichment
}

// ApplyAugment stores crawled evidence and enriches entities. Only optional
// entity fields may change.
func (s *State) ApplyAugment(p AugmentPatch) error {
	if err := s.begin(StageAugment); err != nil {
		return err
	}
	for id, items := range p.Crawled {
		if !s.isActive(id) {
			return violation("augment wrote evidence for inactive entity %q", id)
		}
		for _, ev := range items {
			if ev.EntityID != "" && ev.EntityID != id {
				return violation("augment evidence for %q attached to %q", id, ev.EntityID)
			}
		}
		if err := CheckEvidence(items); err != nil {
			return fmt.Errorf("augment evidence for %q: %w", id, err)
		}
	}
	for id := range p.Enrichment {
		if !s.isActive(id) {
			return violation("augment enriched inactive entity %q", id)
		}
	}

	for id, items := range p.Crawled {
		s.crawled[id] = append([]model.Evidence(nil), items...)
	}
	for _, id := range sortedKeys(p.Enrichment) {
		i := s.index[id]
		s.entities[i] = s.entities[i].Enrich(p.Enrichment[id])
	}
	s.applied[StageAugment] = true
	return nil
}

// RetrievalPatch carries per-axis retrieval results per entity
type RetrievalPatch struct {
	Retrieved map[string]map[model.Axis][]model.Evidence
}

// ApplyRetrieval stores retrieval results. Every item must be attached to
// the entity it is stored under and sit under its own axis.
func (s *State) ApplyRetrieval(p RetrievalPatch) error {
	if err := s.begin(StageRetrieval); err != nil {
		return err
	}
	for id, byAxis := range p.Retrieved {
		if !s.isActive(id) {
			return violation("retrieval for inactive entity %q", id)
		}
		for axis, items := range byAxis {
			if !axis.Valid() {
				return violation("retrieval for %q under axis %d", id, int(axis))
			}
			if err := CheckEvidence(items); err != nil {
				return fmt.Errorf("retrieved evidence for %q: %w", id, err)
			}
			for _, ev := range items {
				if ev.EntityID != id {
					return violation("retrieved evidence for %q attached to %q", id, ev.EntityID)
				}
				if ev.Axis != axis {
					return violation("retrieved %s evidence stored under %s", ev.Axis, axis)
				}
			}
		}
	}

	for id, byAxis := range p.Retrieved {
		dst := make(map[model.Axis][]model.Evidence, len(byAxis))
		for axis, items := range byAxis {
			dst[axis] = append([]model.Evidence(nil), items...)
		}
		s.retrieved[id] = dst
	}
	s.applied[StageRetrieval] = true
	return nil
}

// ScoringPatch carries the scorecards produced for active entities
type ScoringPatch struct {
	Cards map[string]model.ScoreCard
}

// ApplyScoring stores scorecards; each is written once and never replaced
func (s *State) ApplyScoring(p ScoringPatch) error {
	if err := s.begin(StageScoring); err != nil {
		return err
	}
	for id, card := range p.Cards {
		if !s.isActive(id) {
			return violation("scorecard for inactive entity %q", id)
		}
		if card.EntityID != id {
			return violation("scorecard for %q stored under %q", card.EntityID, id)
		}
		if len(card.Items) != len(model.Axes()) {
			return violation("scorecard for %q has %d axes", id, len(card.Items))
		}
	}
	for id, card := range p.Cards {
		s.scoreCards[id] = card
	}
	s.applied[StageScoring] = true
	return nil
}

// ReportPatch records the outcome of the gated report stage
type ReportPatch struct {
	Reports map[string]string
	Skipped map[string]string
}

// ApplyReport stores report locators and skip reasons. Only entities that
// cleared the gate may have a report; no entity may be both.
func (s *State) ApplyReport(p ReportPatch) error {
	if err := s.begin(StageReport); err != nil {
		return err
	}
	for id := range p.Reports {
		card, ok := s.scoreCards[id]
		if !ok {
			return violation("report for unscored entity %q", id)
		}
		if !card.Invest() {
			return violation("report for entity %q with decision %s", id, card.Decision)
		}
		if _, both := p.Skipped[id]; both {
			return violation("entity %q both reported and skipped", id)
		}
	}
	for id := range p.Skipped {
		if !s.isActive(id) {
			return violation("skip reason for inactive entity %q", id)
		}
	}

	for id, loc := range p.Reports {
		s.reports[id] = loc
	}
	for id, reason := range p.Skipped {
		s.skipped[id] = reason
	}
	s.applied[StageReport] = true
	return nil
}

// CheckEvidence rejects items whose axis or strength is outside the fixed
// enumerations with model.ErrInvariantViolation
func CheckEvidence(items []model.Evidence) error {
	for i, ev := range items {
		if err := ev.Validate(); err != nil {
			return violation("evidence %d (%s): %v", i, ev.Source, err)
		}
	}
	return nil
}

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", model.ErrInvariantViolation, fmt.Sprintf(format, args...))
}

func copyStrings(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
