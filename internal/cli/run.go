package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/fundgate/internal/model"
	"github.com/ppiankov/fundgate/internal/report"
	"github.com/spf13/cobra"
)

var (
	runTimeout     time.Duration
	seedFile       string
	candidatesFile string
	saveCandidates string
	outputDir      string
	workers        int
	noCache        bool
	noFooter       bool
	checkReachable bool
	llmProvider    string
	llmModel       string
	classifier     string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <query>",
	Short: "Discover, crawl, score and gate candidates for a query",
	Long: `Run executes the full pipeline for one discovery query:
- Discover candidates (SerpAPI or a candidates file)
- Drop news, regulator and blog domains
- Crawl each website into axis-tagged evidence
- Retrieve the best evidence per axis
- Score seven axes with confidence and apply the investment gate
- Write Markdown and JSON reports for invest decisions

Example:
  fundgate run "AI fintech robo-advisory startup"
  fundgate run "AI wealth management" --seed evidence.json --save-candidates data/candidates.json
  fundgate run "AI wealth management" --llm openai --llm-model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().DurationVar(&runTimeout, "timeout", 15*time.Minute, "overall run timeout")
	runCmd.Flags().StringVar(&seedFile, "seed", "", "JSON file of seed evidence matched to candidates")
	runCmd.Flags().StringVar(&candidatesFile, "candidates", "", "load candidates from a JSON file instead of searching")
	runCmd.Flags().StringVar(&saveCandidates, "save-candidates", "", "write discovered candidates to this JSON file")
	addCommonFlags(runCmd)
}

// addCommonFlags registers the flags shared by run, score and batch
func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&outputDir, "out", "", "report output directory (default from config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "per-stage worker count (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the on-disk cache")
	cmd.Flags().BoolVar(&noFooter, "no-footer", false, "omit the footer from Markdown reports")
	cmd.Flags().BoolVar(&checkReachable, "check-reachable", false, "drop candidates whose website is dead before crawling")
	cmd.Flags().StringVar(&llmProvider, "llm", "", "LLM provider for queries and narratives (openai, anthropic, ollama)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
	cmd.Flags().StringVar(&classifier, "classifier", "", "evidence classifier (keyword, llm)")
}

// applyFlags layers explicitly set flags over the loaded configuration
func applyFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.Output.Dir = outputDir
	}
	if flags.Changed("workers") {
		cfg.Concurrency.Workers = workers
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if checkReachable {
		cfg.Filter.CheckReachable = true
	}
	if flags.Changed("llm") {
		cfg.LLM.Provider = llmProvider
	}
	if flags.Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
	if flags.Changed("classifier") {
		cfg.Crawl.Classifier = classifier
	}
	if flags.Lookup("save-candidates") != nil && flags.Changed("save-candidates") {
		cfg.Output.SaveCandidates = saveCandidates
	}
	if flags.Lookup("candidates") != nil && flags.Changed("candidates") {
		cfg.Discovery.Provider = "file"
		cfg.Discovery.File = candidatesFile
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	query := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}

	seed, err := loadEvidence(seedFile)
	if err != nil {
		return err
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Query:      %s\n", query)
		fmt.Fprintf(os.Stderr, "Discovery:  %s\n", cfg.Discovery.Provider)
		fmt.Fprintf(os.Stderr, "Workers:    %d\n", cfg.Concurrency.Workers)
		fmt.Fprintf(os.Stderr, "Seed:       %d evidence item(s)\n", len(seed))
		fmt.Fprintf(os.Stderr, "Cache:      %v\n", cfg.Cache.Enabled)
		if cfg.LLM.Enabled() {
			fmt.Fprintf(os.Stderr, "LLM:        %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
		}
		fmt.Fprintln(os.Stderr)
	}

	p, err := buildPipeline(cfg, buildOptions{log: os.Stderr})
	if err != nil {
		return err
	}

	state, err := p.Run(ctx, uuid.NewString(), query, seed)
	if state != nil {
		report.RenderSummary(os.Stderr, state)
	}
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	return nil
}
