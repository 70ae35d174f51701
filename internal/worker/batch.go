package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/wikimend/internal/pipeline"
)

// Analyzer defines the interface for analyzing an article by title
type Analyzer interface {
	Analyze(ctx context.Context, title string) (*pipeline.AnalyzeResult, error)
}

// AnalyzeJob analyzes one article
type AnalyzeJob struct {
	Title    string
	Analyzer Analyzer
}

// Execute runs the analysis
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	result, err := j.Analyzer.Analyze(ctx, j.Title)
	return &AnalyzeOutcome{
		Title:  j.Title,
		Result: result,
		Error:  err,
	}
}

// AnalyzeOutcome is the result of one analyze job
type AnalyzeOutcome struct {
	Title  string
	Result *pipeline.AnalyzeResult
	Error  error
}

// GetError returns the error from the outcome
func (o *AnalyzeOutcome) GetError() error {
	return o.Error
}

// BatchProcessor analyzes multiple articles concurrently. Submission is
// never done here: pushes go through the rate-limited pipeline serially
// so the hourly window is respected.
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// ProcessTitles analyzes multiple article titles concurrently
func (b *BatchProcessor) ProcessTitles(ctx context.Context, titles []string) []*AnalyzeOutcome {
	if len(titles) == 0 {
		return []*AnalyzeOutcome{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, title := range titles {
		pool.Submit(&AnalyzeJob{Title: title, Analyzer: b.analyzer})
	}

	results := pool.Wait()

	outcomes := make([]*AnalyzeOutcome, 0, len(results))
	for _, result := range results {
		outcomes = append(outcomes, result.(*AnalyzeOutcome))
	}
	return outcomes
}

// ProcessFile reads article titles from a file and analyzes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*AnalyzeOutcome, error) {
	titles, err := ReadTitlesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read titles: %w", err)
	}
	return b.ProcessTitles(ctx, titles), nil
}

// ReadTitlesFromFile reads article titles from a file, one per line.
// Empty lines and #-comments are skipped; duplicates are dropped.
func ReadTitlesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var titles []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			titles = append(titles, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return titles, nil
}
