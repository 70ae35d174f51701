package agent

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ppiankov/wikimend/internal/guardrail"
	"github.com/ppiankov/wikimend/internal/model"
	"github.com/ppiankov/wikimend/internal/sources"
	"github.com/ppiankov/wikimend/internal/wikitext"
)

const (
	maxClaimsPerArticle = 3
	sourcesPerClaim     = 3
	minClaimWords       = 6
)

// Proposer asks the configured model for edit proposals against one
// article, feeding it candidate sources for the article's uncited
// claims. Its output is raw material for the guardrail engine, never
// submitted directly.
type Proposer struct {
	provider Provider
	finder   *sources.Finder
	config   model.AgentConfig
}

// NewProposer creates a proposer. The finder may be nil, in which case
// no sources are offered and the model is told to skip citations.
func NewProposer(provider Provider, finder *sources.Finder, cfg model.AgentConfig) *Proposer {
	return &Proposer{
		provider: provider,
		finder:   finder,
		config:   cfg,
	}
}

// Propose generates an edit proposal for the article. Source search
// failures degrade to an empty source list rather than aborting: the
// model can still propose grammar and style fixes.
func (p *Proposer) Propose(ctx context.Context, article model.Article) (*model.EditProposal, error) {
	if p.provider == nil {
		return nil, fmt.Errorf("no agent provider configured")
	}

	proposal := &model.EditProposal{
		ID:      newProposalID(),
		Article: article,
	}

	sourcesByClaim := make(map[string][]model.Source)
	if p.finder != nil {
		for _, claim := range ExtractClaims(article.Wikitext, maxClaimsPerArticle) {
			found, err := p.finder.FindForClaim(ctx, claim, sourcesPerClaim)
			if err != nil {
				proposal.Warnings = append(proposal.Warnings,
					fmt.Sprintf("source search failed for %q: %v", truncateClaim(claim), err))
				continue
			}
			if len(found) > 0 {
				sourcesByClaim[claim] = found
			}
		}
	}

	completion, err := p.provider.Complete(ctx, systemPrompt, userPrompt(article, sourcesByClaim), p.config.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("propose edits for %q: %w", article.Title, err)
	}

	edits, err := ParseEdits(completion)
	if err != nil {
		return nil, fmt.Errorf("propose edits for %q: %w", article.Title, err)
	}

	for i := range edits {
		if edits[i].Kind == model.EditCitationAdd {
			edits[i].Source = matchSource(edits[i].ProposedText, sourcesByClaim)
		}
	}

	if limit := p.config.MaxEditsPerArticle; limit > 0 && len(edits) > limit {
		proposal.Warnings = append(proposal.Warnings,
			fmt.Sprintf("proposer returned %d edits, keeping first %d", len(edits), limit))
		edits = edits[:limit]
	}
	proposal.Edits = edits

	for _, edit := range edits {
		for _, finding := range guardrail.ScanLanguage(edit.ProposedText) {
			proposal.Warnings = append(proposal.Warnings,
				fmt.Sprintf("edit %q: %s", truncateClaim(edit.ProposedText), finding))
		}
	}

	return proposal, nil
}

// ExtractClaims pulls uncited declarative sentences out of article
// wikitext for source search. Lines that already carry a reference are
// skipped; so are fragments too short to be searchable claims.
func ExtractClaims(text string, max int) []string {
	var claims []string
	for _, line := range strings.Split(wikitext.StripHeaders(text), "\n") {
		if strings.Contains(line, "<ref") {
			continue
		}
		plain := strings.TrimSpace(wikitext.Strip(line))
		if plain == "" {
			continue
		}
		for _, sentence := range splitSentences(plain) {
			if len(strings.Fields(sentence)) < minClaimWords {
				continue
			}
			claims = append(claims, sentence)
			if len(claims) >= max {
				return claims
			}
		}
	}
	return claims
}

// splitSentences breaks text on terminal punctuation. Good enough for
// search queries; it does not try to handle abbreviations.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// matchSource finds the offered source whose URL or DOI appears in the
// proposed citation text. Returns nil when the model cited something it
// was not given; the source validity rule rejects those edits.
func matchSource(proposedText string, sourcesByClaim map[string][]model.Source) *model.Source {
	for _, srcs := range sourcesByClaim {
		for i := range srcs {
			s := srcs[i]
			if s.DOI != "" && strings.Contains(proposedText, s.DOI) {
				return &s
			}
			if s.URL != "" && strings.Contains(proposedText, s.URL) {
				return &s
			}
			if s.Title != "" && strings.Contains(proposedText, s.Title) {
				return &s
			}
		}
	}
	return nil
}

func newProposalID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "proposal"
	}
	return hex.EncodeToString(b[:])
}
