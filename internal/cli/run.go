package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/wikimend/internal/pipeline"
	"github.com/ppiankov/wikimend/internal/wiki"
	"github.com/ppiankov/wikimend/internal/worker"
)

var (
	runTitles  []string
	runFile    string
	runLimit   int
	runDryRun  bool
	runTimeout time.Duration
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Analyze candidate articles and submit accepted edits",
	Long: `Run is the end-to-end flow: select candidate articles (or take
explicit titles), analyze them concurrently, and submit each accepted
result to the live wiki.

Submission is serial and rate limited. When the hourly window fills,
remaining articles are reported as deferred rather than dropped. Use
--dry-run to see what would be submitted without saving anything.

Example:
  wikimend run --dry-run
  wikimend run --limit 5
  wikimend run --title "Quercus alnifolia" --title "Laksa"
  wikimend run --file titles.txt --dry-run`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringArrayVar(&runTitles, "title", nil, "analyze a specific article (repeatable)")
	runCmd.Flags().StringVar(&runFile, "file", "", "read article titles from a file, one per line")
	runCmd.Flags().IntVar(&runLimit, "limit", 3, "maximum candidates to select when no titles are given")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "analyze and report, submit nothing")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Minute, "overall run timeout")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requireAgentKey(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	titles, err := gatherTitles(ctx, p)
	if err != nil {
		return err
	}
	if len(titles) == 0 {
		fmt.Println("Nothing to do: no titles and no suitable candidates.")
		return nil
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing %d articles with %d workers\n\n", len(titles), cfg.Concurrency.AnalyzeWorkers)
	}

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.AnalyzeWorkers)
	outcomes := processor.ProcessTitles(ctx, titles)

	var submitted, deferred, failed int
	for _, outcome := range outcomes {
		fmt.Printf("=== %s ===\n", outcome.Title)
		if outcome.Error != nil {
			failed++
			fmt.Printf("Error: %v\n\n", outcome.Error)
			continue
		}

		renderResult(outcome.Result, verbose)
		if outcome.Result.Skipped || len(outcome.Result.Batch.Accepted) == 0 {
			fmt.Println()
			continue
		}

		if runDryRun {
			fmt.Printf("Dry run: would submit %d edits\n\n", len(outcome.Result.Batch.Accepted))
			continue
		}

		switch err := p.Submit(ctx, outcome.Result); {
		case err == nil:
			submitted++
			fmt.Printf("✓ Submitted %d edits\n\n", len(outcome.Result.Batch.Accepted))
		case errors.Is(err, wiki.ErrRateLimited):
			deferred++
			fmt.Printf("Deferred: %v\n\n", err)
		case errors.Is(err, wiki.ErrConflict):
			failed++
			fmt.Printf("Conflict: %v\n\n", err)
		default:
			failed++
			fmt.Printf("Submit failed: %v\n\n", err)
		}
	}

	if !runDryRun {
		fmt.Printf("Done: %d submitted, %d deferred, %d failed, %d analyzed\n",
			submitted, deferred, failed, len(outcomes))
	}
	return nil
}

// gatherTitles resolves the articles to process: explicit titles, a
// title file, or the candidate picker, in that order.
func gatherTitles(ctx context.Context, p *pipeline.Pipeline) ([]string, error) {
	if len(runTitles) > 0 {
		return runTitles, nil
	}
	if runFile != "" {
		return worker.ReadTitlesFromFile(runFile)
	}

	candidates, err := p.Candidates(ctx, runLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	titles := make([]string, 0, len(candidates))
	for _, c := range candidates {
		titles = append(titles, c.Title)
	}
	return titles, nil
}
