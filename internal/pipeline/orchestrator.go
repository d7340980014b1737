package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/fundgate/internal/match"
	"github.com/ppiankov/fundgate/internal/model"
	"github.com/ppiankov/fundgate/internal/runlog"
	"github.com/ppiankov/fundgate/internal/score"
	"github.com/ppiankov/fundgate/internal/worker"
)

// Components are the collaborators of a run. Discoverer and Scorer are
// required; the rest are optional and skipped when nil.
type Components struct {
	Discoverer Discoverer
	Filter     Filter
	Augmenter  Augmenter
	Index      EvidenceIndex
	Retriever  Retriever
	Queries    QueryWriter
	Scorer     *score.Scorer
	Reporter   Reporter
	Recorder   RunRecorder

	// OpenEvidence, when set, returns a fresh index and retriever for one
	// run and replaces Index and Retriever for that run. Discovery ids are
	// positional, so evidence stored under an id must not outlive its run.
	OpenEvidence func(runID string) (EvidenceIndex, Retriever)
}

// Options tune a run
type Options struct {
	Workers int
	TopN    int
	Log     io.Writer // warnings and progress; defaults to stderr
	Verbose bool
	Now     func() time.Time
}

// Pipeline sequences the stages of a run and fans out per entity within each
type Pipeline struct {
	c       Components
	matcher *match.Matcher
	workers int
	topN    int
	log     io.Writer
	verbose bool
	now     func() time.Time
}

// New creates a pipeline
func New(c Components, opts Options) (*Pipeline, error) {
	if c.Discoverer == nil {
		return nil, errors.New("pipeline: discoverer is required")
	}
	if c.Scorer == nil {
		return nil, errors.New("pipeline: scorer is required")
	}
	if c.Queries == nil {
		c.Queries = TemplateQueries{}
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.TopN < 1 {
		opts.TopN = 3
	}
	if opts.Log == nil {
		opts.Log = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Pipeline{
		c:       c,
		matcher: match.NewMatcher(),
		workers: opts.Workers,
		topN:    opts.TopN,
		log:     opts.Log,
		verbose: opts.Verbose,
		now:     opts.Now,
	}, nil
}

// RunQuery runs the pipeline without seed evidence and returns a summary.
// It satisfies worker.Runner for batch mode.
func (p *Pipeline) RunQuery(ctx context.Context, query string) (*model.RunSummary, error) {
	runID := uuid.NewString()
	start := p.now()
	state, err := p.Run(ctx, runID, query, nil)
	if err != nil {
		return nil, err
	}
	return state.Summary(runID, p.now().Sub(start)), nil
}

// Run executes every stage for query. Per-entity failures are logged and
// absorbed; the returned error is non-nil only for invariant violations or
// cancellation. An empty runID gets a generated one.
func (p *Pipeline) Run(ctx context.Context, runID, query string, seed []model.Evidence) (*State, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	state := NewState(query, p.now().UTC(), seed)
	if err := CheckEvidence(seed); err != nil {
		return state, fmt.Errorf("seed: %w", err)
	}
	rp := p.forRun(runID)

	steps := []struct {
		stage Stage
		run   func(context.Context, *State) error
	}{
		{StageDiscovery, rp.discover},
		{StageFilter, rp.filter},
		{StageAugment, rp.augment},
		{StageRetrieval, rp.retrieve},
		{StageScoring, rp.scoreAll},
		{StageReport, rp.report},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return state, fmt.Errorf("%s: %w", step.stage, err)
		}
		if err := step.run(ctx, state); err != nil {
			return state, fmt.Errorf("%s: %w", step.stage, err)
		}
	}

	rp.record(runID, state)
	return state, nil
}

// forRun returns the pipeline a single run executes with
func (p *Pipeline) forRun(runID string) *Pipeline {
	if p.c.OpenEvidence == nil {
		return p
	}
	rp := *p
	rp.c.Index, rp.c.Retriever = p.c.OpenEvidence(runID)
	return &rp
}

// 1. Discovery
func (p *Pipeline) discover(ctx context.Context, s *State) error {
	entities, err := p.c.Discoverer.Discover(ctx, s.Query())
	if err != nil {
		p.fail(s, StageDiscovery, "", err)
		entities = nil
	}
	if err := s.ApplyDiscovery(DiscoveryPatch{Entities: entities}); err != nil {
		return err
	}
	p.progress("discovery: %d candidate(s)", len(entities))
	return nil
}

// 2. Relevance filter
func (p *Pipeline) filter(ctx context.Context, s *State) error {
	active := s.Active()
	patch := FilterPatch{Keep: ids(active)}
	if p.c.Filter != nil {
		kept, dropped := p.c.Filter.Filter(ctx, active)
		patch = FilterPatch{Keep: ids(kept), Reasons: dropped}
	}
	if err := s.ApplyFilter(patch); err != nil {
		return err
	}
	p.progress("filter: %d kept, %d dropped", len(s.Active()), len(s.Filtered()))
	return nil
}

// 3. Augmentation (fan-out)
func (p *Pipeline) augment(ctx context.Context, s *State) error {
	patch := AugmentPatch{
		Crawled:    make(map[string][]model.Evidence),
		Enrichment: make(map[string]model.Enrichment),
	}
	if p.c.Augmenter == nil {
		return s.ApplyAugment(patch)
	}

	active := s.Active()
	outcomes, err := worker.FanOut(ctx, p.workers, active, func(ctx context.Context, e model.Entity) (model.Augmentation, error) {
		aug, err := p.c.Augmenter.Augment(ctx, e)
		if err != nil {
			return model.Augmentation{}, err
		}
		if p.c.Index != nil && len(aug.Evidence) > 0 {
			if err := p.c.Index.Append(e.ID, aug.Evidence); err != nil {
				return aug, fmt.Errorf("index evidence: %w", err)
			}
		}
		return aug, nil
	})
	if err != nil {
		return err
	}

	total := 0
	for i, o := range outcomes {
		id := active[i].ID
		if o.Err != nil {
			p.fail(s, StageAugment, id, o.Err)
		}
		for _, w := range o.Value.Warnings {
			fmt.Fprintf(p.log, "Warning: [%s] entity=%s: %s\n", StageAugment, id, w)
		}
		patch.Crawled[id] = o.Value.Evidence
		patch.Enrichment[id] = o.Value.Enrichment
		total += len(o.Value.Evidence)
	}
	if err := s.ApplyAugment(patch); err != nil {
		return err
	}
	p.progress("augment: %d entities, %d evidence item(s)", len(active), total)
	return nil
}

// 4. Evidence retrieval (fan-out)
func (p *Pipeline) retrieve(ctx context.Context, s *State) error {
	patch := RetrievalPatch{Retrieved: make(map[string]map[model.Axis][]model.Evidence)}
	if p.c.Retriever == nil {
		return s.ApplyRetrieval(patch)
	}

	type axisFailure struct {
		axis model.Axis
		err  error
	}
	type retrieval struct {
		byAxis   map[model.Axis][]model.Evidence
		failures []axisFailure
	}

	active := s.Active()
	outcomes, err := worker.FanOut(ctx, p.workers, active, func(ctx context.Context, e model.Entity) (retrieval, error) {
		out := retrieval{byAxis: make(map[model.Axis][]model.Evidence)}
		for _, axis := range model.Axes() {
			q := p.c.Queries.AxisQuery(ctx, e, axis)
			items, err := p.c.Retriever.Retrieve(ctx, e, axis, q, p.topN)
			if err != nil {
				out.failures = append(out.failures, axisFailure{axis: axis, err: err})
				continue
			}
			for _, ev := range items {
				if ev.EntityID == "" {
					ev = ev.Attach(e.ID)
				}
				out.byAxis[axis] = append(out.byAxis[axis], ev)
			}
		}
		return out, nil
	})
	if err != nil {
		return err
	}

	total := 0
	for i, o := range outcomes {
		id := active[i].ID
		if o.Err != nil {
			p.fail(s, StageRetrieval, id, o.Err)
			continue
		}
		for _, f := range o.Value.failures {
			p.fail(s, StageRetrieval, id, fmt.Errorf("%s: %w", f.axis, f.err))
		}
		patch.Retrieved[id] = o.Value.byAxis
		for _, items := range o.Value.byAxis {
			total += len(items)
		}
	}
	if err := s.ApplyRetrieval(patch); err != nil {
		return err
	}
	p.progress("retrieval: %d item(s) across %d entities", total, len(active))
	return nil
}

// 5. Scoring (fan-out)
func (p *Pipeline) scoreAll(ctx context.Context, s *State) error {
	active := s.Active()
	seed := s.Seed()
	asOf := s.AsOf()

	outcomes, err := worker.FanOut(ctx, p.workers, active, func(ctx context.Context, e model.Entity) (model.ScoreCard, error) {
		return p.c.Scorer.Score(e.ID, p.evidenceFor(s, e, seed), asOf)
	})
	if err != nil {
		return err
	}

	patch := ScoringPatch{Cards: make(map[string]model.ScoreCard)}
	for i, o := range outcomes {
		id := active[i].ID
		if o.Err != nil {
			if errors.Is(o.Err, model.ErrInvariantViolation) {
				return o.Err
			}
			p.fail(s, StageScoring, id, o.Err)
			continue
		}
		patch.Cards[id] = o.Value
	}
	if err := s.ApplyScoring(patch); err != nil {
		return err
	}
	p.progress("scoring: %d scorecard(s)", len(patch.Cards))
	return nil
}

// evidenceFor picks the scoring input of one entity. When retrieval found
// anything its results stand in for the crawl output and are joined with
// the seed items the matcher assigns to the entity; otherwise the matcher
// runs over the seed plus the entity's own crawl output. A seed item that
// retrieval also returned counts once.
func (p *Pipeline) evidenceFor(s *State, e model.Entity, seed []model.Evidence) map[model.Axis][]model.Evidence {
	retrieved := s.Retrieved(e.ID)
	if !hasEvidence(retrieved) {
		pool := make([]model.Evidence, 0, len(seed)+len(s.Crawled(e.ID)))
		pool = append(pool, seed...)
		pool = append(pool, s.Crawled(e.ID)...)
		return p.matcher.Collect(e, pool).ByAxis
	}
	if len(seed) == 0 {
		return retrieved
	}
	return joinNew(retrieved, p.matcher.Collect(e, seed).ByAxis)
}

func hasEvidence(byAxis map[model.Axis][]model.Evidence) bool {
	for _, items := range byAxis {
		if len(items) > 0 {
			return true
		}
	}
	return false
}

// joinNew appends to base the items of extra whose key base lacks
func joinNew(base, extra map[model.Axis][]model.Evidence) map[model.Axis][]model.Evidence {
	out := make(map[model.Axis][]model.Evidence, len(base))
	for _, axis := range model.Axes() {
		seen := make(map[model.EvidenceKey]bool, len(base[axis]))
		items := append([]model.Evidence(nil), base[axis]...)
		for _, ev := range items {
			seen[ev.Key()] = true
		}
		for _, ev := range extra[axis] {
			if !seen[ev.Key()] {
				items = append(items, ev)
			}
		}
		if len(items) > 0 {
			out[axis] = items
		}
	}
	return out
}

// 6. Gated report emission (fan-out over gated entities only)
func (p *Pipeline) report(ctx context.Context, s *State) error {
	patch := ReportPatch{
		Reports: make(map[string]string),
		Skipped: make(map[string]string),
	}

	var gated []model.Entity
	for _, e := range s.Active() {
		card, ok := s.ScoreCard(e.ID)
		switch {
		case !ok:
			patch.Skipped[e.ID] = "not scored"
		case !card.Invest():
			patch.Skipped[e.ID] = gateReason(card, p.c.Scorer.Gate())
		default:
			gated = append(gated, e)
		}
	}

	if p.c.Reporter == nil {
		for _, e := range gated {
			patch.Reports[e.ID] = ""
		}
		return s.ApplyReport(patch)
	}

	outcomes, err := worker.FanOut(ctx, p.workers, gated, func(ctx context.Context, e model.Entity) (string, error) {
		card, _ := s.ScoreCard(e.ID)
		return p.c.Reporter.Emit(ctx, s.Query(), e, card)
	})
	if err != nil {
		return err
	}

	for i, o := range outcomes {
		id := gated[i].ID
		if o.Err != nil {
			p.fail(s, StageReport, id, o.Err)
			patch.Skipped[id] = "report failed: " + o.Err.Error()
			continue
		}
		patch.Reports[id] = o.Value
	}
	if err := s.ApplyReport(patch); err != nil {
		return err
	}
	p.progress("report: %d written, %d skipped", len(patch.Reports), len(patch.Skipped))
	return nil
}

func gateReason(card model.ScoreCard, g score.Gate) string {
	var parts []string
	if card.Total < g.MinTotal {
		parts = append(parts, fmt.Sprintf("total %.2f < %.2f", card.Total, g.MinTotal))
	}
	if card.MeanConfidence < g.MinConfidence {
		parts = append(parts, fmt.Sprintf("mean confidence %.3f < %.2f", card.MeanConfidence, g.MinConfidence))
	}
	if len(parts) == 0 {
		return "gate: " + string(card.Decision)
	}
	reason := "gate: " + parts[0]
	for _, part := range parts[1:] {
		reason += ", " + part
	}
	return reason
}

// record writes one run log entry per discovered entity
func (p *Pipeline) record(runID string, s *State) {
	if p.c.Recorder == nil {
		return
	}
	filtered := s.Filtered()
	reports := s.Reports()
	skipped := s.Skipped()

	for _, e := range s.Entities() {
		entry := runlog.Entry{
			RunID:    runID,
			Query:    s.Query(),
			At:       s.AsOf(),
			EntityID: e.ID,
			Name:     e.Name,
			Website:  e.Website,
		}
		if card, ok := s.ScoreCard(e.ID); ok {
			total, conf := card.Total, card.MeanConfidence
			entry.Total = &total
			entry.MeanConfidence = &conf
			entry.Decision = card.Decision
		}
		if reason, ok := filtered[e.ID]; ok {
			entry.Status = runlog.StatusFiltered
			entry.Reason = reason
		} else if loc, ok := reports[e.ID]; ok {
			entry.Status = runlog.StatusReported
			entry.Report = loc
		} else {
			entry.Status = runlog.StatusSkipped
			entry.Reason = skipped[e.ID]
		}

		if err := p.c.Recorder.Record(entry); err != nil {
			fmt.Fprintf(p.log, "Warning: run log: %v\n", err)
			return
		}
	}
}

func (p *Pipeline) fail(s *State, stage Stage, entityID string, err error) {
	s.recordFailure(stage, entityID, err)
	if entityID == "" {
		fmt.Fprintf(p.log, "Warning: [%s] %v\n", stage, err)
		return
	}
	fmt.Fprintf(p.log, "Warning: [%s] entity=%s: %v\n", stage, entityID, err)
}

func (p *Pipeline) progress(format string, args ...any) {
	if p.verbose {
		fmt.Fprintf(p.log, "✓ "+format+"\n", args...)
	}
}

func ids(entities []model.Entity) []string {
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.ID)
	}
	return out
}
