// Package pipeline wires the full analyze-validate-submit flow: fetch
// an article, ask the proposer for edits, resolve cited sources, run
// the guardrail engine, and optionally push the accepted result.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/wikimend/internal/agent"
	"github.com/ppiankov/wikimend/internal/cache"
	"github.com/ppiankov/wikimend/internal/guardrail"
	"github.com/ppiankov/wikimend/internal/model"
	"github.com/ppiankov/wikimend/internal/ratelimit"
	"github.com/ppiankov/wikimend/internal/sources"
	"github.com/ppiankov/wikimend/internal/wiki"
)

// Pipeline orchestrates the complete edit flow for one wiki
type Pipeline struct {
	client   *wiki.Client
	picker   *wiki.Picker
	proposer *agent.Proposer
	resolver *sources.Resolver
	composer *guardrail.Composer
	pusher   *wiki.PushService
	store    cache.Cache
	config   *model.Config
}

// New creates a pipeline from the configuration. The agent provider is
// optional: without one the pipeline can still screen candidates, but
// Analyze returns an error.
func New(cfg *model.Config) (*Pipeline, error) {
	client := wiki.NewClient(cfg.Wikipedia, cfg.HTTP)
	registry := sources.NewRegistry(nil)
	resolver := sources.NewResolver(cfg.HTTP, cfg.Concurrency, registry)

	var store cache.Cache
	if cfg.Cache.Enabled {
		dir := cfg.Cache.Dir
		if dir == "" {
			dir = defaultCacheDir()
		}
		store = cache.NewLayeredCache(cfg.Cache.MemoryTTL, dir, cfg.Cache.DiskTTL)
		resolver.SetCache(store, cfg.Cache.DiskTTL)
	}

	provider, err := agent.NewProvider(cfg.Agent)
	if err != nil {
		return nil, fmt.Errorf("initialize agent provider: %w", err)
	}
	var proposer *agent.Proposer
	if provider != nil {
		finder := sources.NewFinder(cfg.Sources, cfg.HTTP, registry)
		proposer = agent.NewProposer(provider, finder, cfg.Agent)
	}

	limiter := ratelimit.NewSubmissionLimiter(cfg.Wikipedia.RateLimitEditsPerHour)

	return &Pipeline{
		client:   client,
		picker:   wiki.NewPicker(client, cfg.Selection),
		proposer: proposer,
		resolver: resolver,
		composer: guardrail.NewComposer(cfg.Guardrails, cfg.Agent.MaxEditsPerArticle),
		pusher:   wiki.NewPushService(client, limiter, cfg.Wikipedia),
		store:    store,
		config:   cfg,
	}, nil
}

// AnalyzeResult is the outcome of analyzing one article
type AnalyzeResult struct {
	Article    model.Article
	Policy     model.PolicyContext
	Proposal   *model.EditProposal
	Batch      guardrail.BatchResult
	Skipped    bool
	SkipReason string
}

// Diff renders a unified diff of the composed change, or "" when
// nothing was accepted.
func (r *AnalyzeResult) Diff() string {
	if len(r.Batch.Accepted) == 0 {
		return ""
	}
	return wiki.PreviewDiff(r.Article, r.Batch.FinalText)
}

// Candidates fetches and screens candidate articles for cleanup
func (p *Pipeline) Candidates(ctx context.Context, limit int) ([]model.CandidateArticle, error) {
	return p.picker.FetchCandidates(ctx, limit)
}

// Analyze runs the propose-resolve-validate flow for one article
// without submitting anything.
func (p *Pipeline) Analyze(ctx context.Context, title string) (*AnalyzeResult, error) {
	if p.proposer == nil {
		return nil, fmt.Errorf("no agent provider configured")
	}

	page, err := p.fetchPage(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", title, err)
	}
	if page.Missing {
		return nil, fmt.Errorf("article %q does not exist", title)
	}

	result := &AnalyzeResult{
		Article: model.Article{
			Title:      page.Title,
			URL:        p.client.ArticleURL(page.Title),
			Wikitext:   page.Wikitext,
			RevisionID: page.RevisionID,
		},
		Policy: wiki.PolicyContextFor(page),
	}

	// Excluded subjects are skipped before any model call. The rule set
	// would reject every edit anyway; skipping saves the tokens.
	if reason := p.excluded(result.Policy); reason != "" {
		result.Skipped = true
		result.SkipReason = reason
		return result, nil
	}

	proposal, err := p.proposer.Propose(ctx, result.Article)
	if err != nil {
		return nil, err
	}
	result.Proposal = proposal

	resolutions := p.resolver.ResolveAll(ctx, citedURLs(proposal.Edits))
	resolve := func(edit model.ProposedEdit) *model.Resolution {
		if edit.Source == nil {
			return nil
		}
		return resolutions[edit.Source.Identifier()]
	}

	result.Batch = p.composer.Compose(proposal.Edits, result.Article.Wikitext, result.Policy, resolve)
	result.Batch.Warnings = append(proposal.Warnings, result.Batch.Warnings...)
	return result, nil
}

// Submit pushes an analyzed result to the live wiki. The submission
// limiter and conflict check are enforced by the push service.
func (p *Pipeline) Submit(ctx context.Context, result *AnalyzeResult) error {
	if result.Skipped {
		return fmt.Errorf("article %q was skipped: %s", result.Article.Title, result.SkipReason)
	}
	if len(result.Batch.Accepted) == 0 {
		return fmt.Errorf("no accepted edits for %q", result.Article.Title)
	}
	return p.pusher.Push(ctx, result.Article, result.Batch.FinalText, result.Batch.Accepted)
}

// fetchPage reads through the cache when one is configured. Stale
// cached revisions are harmless: the push service re-checks the live
// revision before saving.
func (p *Pipeline) fetchPage(ctx context.Context, title string) (*wiki.Page, error) {
	if p.store != nil {
		var cached wiki.Page
		if cache.GetJSON(p.store, cache.PageKey(title), &cached) {
			return &cached, nil
		}
	}
	page, err := p.client.FetchPage(ctx, title)
	if err != nil {
		return nil, err
	}
	if p.store != nil {
		_ = cache.SetJSON(p.store, cache.PageKey(title), page, p.config.Cache.MemoryTTL)
	}
	return page, nil
}

func (p *Pipeline) excluded(policy model.PolicyContext) string {
	switch {
	case p.config.Guardrails.SkipBLPArticles && policy.IsBiographyOfLivingPerson:
		return "biography of a living person"
	case policy.IsProtected:
		return "protected article"
	case policy.UnderDispute:
		return "content dispute in progress"
	case policy.FlaggedForDeletion:
		return "flagged for deletion"
	}
	return ""
}

// citedURLs collects the resolvable identifiers from citation edits
func citedURLs(edits []model.ProposedEdit) []string {
	var urls []string
	for _, edit := range edits {
		if edit.Kind == model.EditCitationAdd && edit.Source != nil {
			if id := edit.Source.Identifier(); id != "" {
				urls = append(urls, id)
			}
		}
	}
	return urls
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wikimend-cache"
	}
	return filepath.Join(home, ".wikimend", "cache")
}
