package wiki

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/ppiankov/wikimend/internal/model"
	"github.com/ppiankov/wikimend/internal/ratelimit"
)

// ErrRateLimited signals that the submission window is full. The caller
// should defer and retry after the window rotates; it is not an
// edit-quality failure.
var ErrRateLimited = errors.New("submission rate limit reached")

// ErrConflict signals the article changed since it was fetched. Edits
// must be re-derived against the current revision.
var ErrConflict = errors.New("edit conflict: article modified since analysis")

// PushService submits composed edits to the live wiki. It is the last
// gate: only text that passed the batch composer reaches it, and the
// submission limiter is consulted before every save.
type PushService struct {
	client  *Client
	limiter *ratelimit.SubmissionLimiter
	config  model.WikipediaConfig
	nowFunc func() time.Time
}

// NewPushService creates a push service. The limiter is injected so
// independent services (and tests) never share window state.
func NewPushService(client *Client, limiter *ratelimit.SubmissionLimiter, cfg model.WikipediaConfig) *PushService {
	return &PushService{
		client:  client,
		limiter: limiter,
		config:  cfg,
		nowFunc: time.Now,
	}
}

// HasConflict reports whether the article moved past the revision the
// edits were derived from. Errors count as conflicts: when the current
// state is unknown, submitting is the wrong default.
func (s *PushService) HasConflict(ctx context.Context, title, baseRevision string) bool {
	current, err := s.client.CurrentRevision(ctx, title)
	if err != nil {
		return true
	}
	return current != baseRevision
}

// Push submits the final text for an article. The accepted edits are
// only used to synthesize the edit summary; the text itself comes from
// the batch composer and is submitted verbatim. A conflicted or failed
// save does not consume a submission slot.
func (s *PushService) Push(ctx context.Context, article model.Article, finalText string, accepted []model.ProposedEdit) error {
	if len(accepted) == 0 {
		return fmt.Errorf("no accepted edits to push")
	}
	if s.HasConflict(ctx, article.Title, article.RevisionID) {
		return ErrConflict
	}
	now := s.nowFunc()
	if !s.limiter.TryAcquire(now) {
		return ErrRateLimited
	}

	summary := s.EditSummary(accepted)
	if err := s.client.SaveEdit(ctx, article.Title, finalText, summary); err != nil {
		s.limiter.Release(now)
		return fmt.Errorf("push %q: %w", article.Title, err)
	}
	return nil
}

// EditSummary synthesizes a human-readable edit summary from the
// accepted edit kinds.
func (s *PushService) EditSummary(accepted []model.ProposedEdit) string {
	counts := make(map[model.EditKind]int)
	for _, edit := range accepted {
		counts[edit.Kind]++
	}

	var parts []string
	if n := counts[model.EditCitationAdd]; n > 0 {
		parts = append(parts, fmt.Sprintf("added %d %s", n, plural("citation", n)))
	}
	if n := counts[model.EditWikilinkAdd]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", n, plural("wikilink", n)))
	}
	if counts[model.EditGrammarFix] > 0 {
		parts = append(parts, "fixed grammar")
	}
	if counts[model.EditStyleFix] > 0 {
		parts = append(parts, "style fixes")
	}
	if counts[model.EditPolicyFix] > 0 {
		parts = append(parts, "policy compliance")
	}
	if counts[model.EditFormattingFix] > 0 {
		parts = append(parts, "formatting")
	}

	summary := "Copyedit: " + strings.Join(parts, ", ")
	if s.config.EditSummarySuffix != "" {
		summary += " " + s.config.EditSummarySuffix
	}
	return summary
}

// PreviewDiff renders a unified diff of the composed change for review
func PreviewDiff(article model.Article, finalText string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(article.Wikitext),
		B:        difflib.SplitLines(finalText),
		FromFile: article.Title + " (original)",
		ToFile:   article.Title + " (modified)",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}

func plural(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
