package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/wikimend/internal/guardrail"
	"github.com/ppiankov/wikimend/internal/model"
	"github.com/ppiankov/wikimend/internal/pipeline"
)

var (
	analyzeJSON    string
	analyzeNoDiff  bool
	analyzeTimeout time.Duration
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <title>",
	Short: "Propose and validate edits for one article without submitting",
	Long: `Analyze fetches an article, asks the configured model for minimal
edit proposals, resolves any cited sources, and runs every proposal
through the guardrail rule set. Nothing is submitted.

The per-edit verdicts, the aggregate verdict, and a unified diff of
the composed change are printed for review.

Example:
  wikimend analyze "Quercus alnifolia"
  wikimend analyze "Quercus alnifolia" --json result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeJSON, "json", "", "write the full result as JSON to this path")
	analyzeCmd.Flags().BoolVar(&analyzeNoDiff, "no-diff", false, "suppress the unified diff")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 5*time.Minute, "overall analyze timeout")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	title := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requireAgentKey(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n\n", title)
	}

	result, err := p.Analyze(ctx, title)
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	renderResult(result, !analyzeNoDiff)

	if analyzeJSON != "" {
		if err := writeResultJSON(result, analyzeJSON); err != nil {
			return err
		}
		fmt.Printf("\n✓ Wrote JSON: %s\n", analyzeJSON)
	}
	return nil
}

func renderResult(result *pipeline.AnalyzeResult, withDiff bool) {
	fmt.Printf("Article: %s\n", result.Article.Title)
	fmt.Printf("Revision: %s\n", result.Article.RevisionID)

	if result.Skipped {
		fmt.Printf("Skipped: %s\n", result.SkipReason)
		return
	}

	fmt.Printf("Proposed edits: %d\n\n", len(result.Proposal.Edits))

	for i, outcome := range result.Batch.Outcomes {
		fmt.Printf("%2d. [%s] %s\n", i+1, outcome.Edit.Kind, statusLabel(outcome))
		if outcome.Err != nil {
			fmt.Printf("    stale: %v\n", outcome.Err)
			continue
		}
		if !outcome.Verdict.Accepted() {
			fmt.Printf("    %s: %s\n", outcome.Verdict.FailedRule, outcome.Verdict.Reason)
		}
	}

	fmt.Printf("\nAccepted: %d of %d\n", len(result.Batch.Accepted), len(result.Batch.Outcomes))
	if v := result.Batch.Verdict; v.Status != model.VerdictAccepted {
		fmt.Printf("Aggregate: %s (%s)\n", v.Status, v.Reason)
	}

	for _, warning := range result.Batch.Warnings {
		fmt.Printf("Warning: %s\n", warning)
	}

	if withDiff {
		if diff := result.Diff(); diff != "" {
			fmt.Printf("\n%s", diff)
		}
	}
}

func statusLabel(outcome guardrail.EditOutcome) string {
	switch {
	case outcome.Err != nil:
		return "stale"
	case outcome.Verdict.Accepted():
		return "accepted"
	case outcome.Verdict.Status == model.VerdictSoftFail:
		return "soft fail"
	default:
		return "rejected"
	}
}

func writeResultJSON(result *pipeline.AnalyzeResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
