package cli

import (
	"fmt"
	"io"
	"net/http"

	"github.com/ppiankov/fundgate/internal/cache"
	"github.com/ppiankov/fundgate/internal/crawl"
	"github.com/ppiankov/fundgate/internal/discovery"
	"github.com/ppiankov/fundgate/internal/llm"
	"github.com/ppiankov/fundgate/internal/model"
	"github.com/ppiankov/fundgate/internal/pipeline"
	"github.com/ppiankov/fundgate/internal/report"
	"github.com/ppiankov/fundgate/internal/runlog"
	"github.com/ppiankov/fundgate/internal/score"
	"github.com/ppiankov/fundgate/internal/store"
	"github.com/ppiankov/fundgate/internal/util"
	"github.com/ppiankov/fundgate/internal/validate"
	"github.com/ppiankov/fundgate/internal/worker"
)

// buildOptions select which stages a command wires
type buildOptions struct {
	discoverer pipeline.Discoverer // overrides the configured discovery provider
	offline    bool                // no filter, crawl or retrieval
	log        io.Writer
}

// buildPipeline wires the configured collaborators into a pipeline
func buildPipeline(cfg *model.Config, opts buildOptions) (*pipeline.Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client := util.NewHTTPClient(cfg.HTTP)
	pages := cache.FromConfig(cfg.Cache)
	if p, ok := pages.(cache.Pruner); ok {
		if n, err := p.Prune(); err != nil {
			logf(opts.log, "Warning: cache prune failed: %v\n", err)
		} else if n > 0 && cfg.Output.Verbose {
			logf(opts.log, "Pruned %d expired cache entries\n", n)
		}
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}

	scorer, err := score.NewScorerFromConfig(cfg.Scoring)
	if err != nil {
		return nil, err
	}

	c := pipeline.Components{
		Discoverer: opts.discoverer,
		Scorer:     scorer,
		Reporter:   report.NewWriter(cfg.Output, newNarrator(cfg, provider)),
	}
	if c.Discoverer == nil {
		if c.Discoverer, err = newDiscoverer(cfg, client, opts.log); err != nil {
			return nil, err
		}
	}
	if cfg.Output.RunLog != "" {
		c.Recorder = runlog.NewWriter(cfg.Output.RunLog)
	}

	if !opts.offline {
		c.Filter = newFilter(cfg, client)
		c.Augmenter = newAugmenter(cfg, client, pages, provider)

		c.OpenEvidence = func(runID string) (pipeline.EvidenceIndex, pipeline.Retriever) {
			index := store.NewIndex(
				store.WithNamespace(runID),
				store.WithPersistence(pages, cfg.Cache.DiskTTL),
				store.WithLoadErrorHandler(func(id string, err error) {
					logf(opts.log, "Warning: evidence cache for %s ignored: %v\n", id, err)
				}),
			)
			if !cfg.Retrieval.Enabled {
				return index, nil
			}
			return index, index
		}
		if provider != nil && cfg.LLM.AxisQueries {
			c.Queries = llm.NewQueryWriter(provider, pipeline.TemplateQuery)
		}
	}

	return pipeline.New(c, pipeline.Options{
		Workers: cfg.Concurrency.Workers,
		TopN:    cfg.Retrieval.TopN,
		Log:     opts.log,
		Verbose: cfg.Output.Verbose,
	})
}

func newProvider(cfg *model.Config) (llm.Provider, error) {
	if !cfg.LLM.Enabled() {
		return nil, nil
	}
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}
	return provider, nil
}

func newNarrator(cfg *model.Config, provider llm.Provider) *llm.Narrator {
	if provider == nil || !cfg.LLM.Narrative {
		return nil
	}
	return llm.NewNarratorWithProvider(provider, llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
}

func newDiscoverer(cfg *model.Config, client *http.Client, log io.Writer) (pipeline.Discoverer, error) {
	var d pipeline.Discoverer
	switch cfg.Discovery.Provider {
	case "serpapi", "":
		d = discovery.NewSerpAPI(cfg.Discovery, client)
	case "file":
		if cfg.Discovery.File == "" {
			return nil, fmt.Errorf("discovery.file is required for the file provider")
		}
		d = discovery.File{Path: cfg.Discovery.File}
	default:
		return nil, fmt.Errorf("unknown discovery provider: %s", cfg.Discovery.Provider)
	}
	if cfg.Output.SaveCandidates != "" {
		d = discovery.Recording{Next: d, Path: cfg.Output.SaveCandidates, Log: log}
	}
	return d, nil
}

func newFilter(cfg *model.Config, client *http.Client) pipeline.Filter {
	chain := discovery.Chain{discovery.NewRelevanceFilter(cfg.Filter)}
	if cfg.Filter.CheckReachable {
		v := validate.NewValidator(client, cfg.Concurrency.ValidationWorkers, cfg.HTTP.UserAgent)
		chain = append(chain, discovery.NewReachabilityFilter(v))
	}
	return chain
}

func newAugmenter(cfg *model.Config, client *http.Client, pages cache.Cache, provider llm.Provider) *crawl.Augmenter {
	fetchOpts := []crawl.FetcherOption{
		crawl.WithLimiter(worker.NewLimiterFromConfig(cfg.RateLimiting)),
		crawl.WithCache(pages, cfg.Cache.DiskTTL),
	}
	if cfg.Crawl.RespectRobots {
		fetchOpts = append(fetchOpts, crawl.WithRobots(util.NewRobotsChecker(client, cfg.HTTP.UserAgent, pages, cfg.Cache.DiskTTL)))
	}
	fetcher := crawl.NewFetcher(client, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes, fetchOpts...)

	keywords := crawl.NewKeywordClassifier(nil)
	var classifier crawl.Classifier = keywords
	if cfg.Crawl.Classifier == "llm" && provider != nil {
		classifier = crawl.NewLLMClassifier(provider, keywords)
	}

	authority := validate.NewAuthorityClassifier(&cfg.Authority)
	return crawl.NewAugmenter(fetcher, classifier, authority, cfg.Crawl)
}

func logf(w io.Writer, format string, args ...any) {
	if w != nil {
		fmt.Fprintf(w, format, args...)
	}
}
