package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/ppiankov/fundgate/internal/discovery"
	"github.com/ppiankov/fundgate/internal/pipeline"
	"github.com/ppiankov/fundgate/internal/report"
	"github.com/spf13/cobra"
)

var evidenceFile string

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score <candidates.json>",
	Short: "Score known candidates against an evidence file without crawling",
	Long: `Score runs the matching, scoring, gating and report stages for a fixed
candidate list. No search, filtering, crawling or retrieval happens, so
the outcome depends only on the two input files.

Example:
  fundgate score data/candidates.json --evidence data/evidence.json
  fundgate score data/candidates.json --evidence data/evidence.json --out ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringVar(&evidenceFile, "evidence", "", "JSON file of evidence items (required)")
	_ = scoreCmd.MarkFlagRequired("evidence")
	addCommonFlags(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}

	entities, err := discovery.LoadCandidates(args[0])
	if err != nil {
		return err
	}
	seed, err := loadEvidence(evidenceFile)
	if err != nil {
		return err
	}

	p, err := buildPipeline(cfg, buildOptions{
		discoverer: pipeline.StaticDiscoverer(entities),
		offline:    true,
		log:        os.Stderr,
	})
	if err != nil {
		return err
	}

	state, err := p.Run(context.Background(), uuid.NewString(), args[0], seed)
	if state != nil {
		report.RenderSummary(os.Stderr, state)
	}
	if err != nil {
		return fmt.Errorf("score failed: %w", err)
	}
	return nil
}
