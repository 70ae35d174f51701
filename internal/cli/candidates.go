package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/wikimend/internal/pipeline"
)

var (
	candidatesLimit   int
	candidatesTimeout time.Duration
)

// candidatesCmd represents the candidates command
var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "List candidate articles for cleanup",
	Long: `Fetch articles from the configured maintenance category and screen
them for suitability: stubs with a short body, not redirects, not
protected, and (by default) not biographies of living persons.

Example:
  wikimend candidates
  wikimend candidates --limit 20`,
	RunE: runCandidates,
}

func init() {
	rootCmd.AddCommand(candidatesCmd)

	candidatesCmd.Flags().IntVar(&candidatesLimit, "limit", 10, "maximum candidates to return")
	candidatesCmd.Flags().DurationVar(&candidatesTimeout, "timeout", 2*time.Minute, "overall timeout")
}

func runCandidates(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), candidatesTimeout)
	defer cancel()

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	candidates, err := p.Candidates(ctx, candidatesLimit)
	if err != nil {
		return fmt.Errorf("fetch candidates: %w", err)
	}

	if len(candidates) == 0 {
		fmt.Printf("No suitable candidates found in category %q\n", cfg.Selection.Category)
		return nil
	}

	fmt.Printf("Candidates from %q:\n\n", cfg.Selection.Category)
	for i, c := range candidates {
		fmt.Printf("%2d. %s\n", i+1, c.Title)
		fmt.Printf("    %s\n", c.URL)
		fmt.Printf("    body lines: %d", c.BodyLines)
		if c.HasInfobox {
			fmt.Printf(", has infobox")
		}
		fmt.Println()
	}
	return nil
}
