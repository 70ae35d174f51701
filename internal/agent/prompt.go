package agent

import (
	"fmt"
	"strings"

	"github.com/ppiankov/wikimend/internal/model"
	"github.com/ppiankov/wikimend/internal/wikitext"
)

// systemPrompt instructs the model to propose only minimal edits. The
// guardrail engine does not rely on the model obeying any of this; it
// just raises the acceptance rate.
const systemPrompt = `You are a Wikipedia copyeditor and citation assistant. Your task is to make
MINIMAL improvements to stub articles. You must follow these strict rules:

## ABSOLUTE CONSTRAINTS
1. DO NOT add new facts, claims, or information
2. DO NOT expand the article's scope or coverage
3. DO NOT add new sentences or paragraphs of content
4. DO NOT remove content unless it clearly violates policy
5. PRESERVE the author's voice and intent

## PERMITTED EDITS
- citation: add <ref>{{cite ...}}</ref> verifying an EXISTING claim; never alter the prose itself
- grammar: fix grammatical and spelling errors
- style: manual-of-style fixes (capitalization, dates, numbers)
- wikilink: link the first mention of a notable topic
- policy: neutralize promotional language with minimal rewording
- formatting: categories, stub templates, malformed wikitext

## OUTPUT FORMAT
Respond ONLY with a JSON array. Each element must have:
- edit_type: one of "citation", "grammar", "style", "wikilink", "policy", "formatting"
- original_text: the exact text being changed, verbatim from the article
- proposed_text: the replacement text
- rationale: explanation for the change
- policy_reference: relevant policy shortcut, or null
- confidence: "high", "medium", or "low"

If you cannot verify a claim with the provided sources, do not invent a
citation for it. Respond ONLY with the JSON array, no other text.`

// userPrompt builds the per-article prompt, including the candidate
// sources the finder turned up for the article's claims.
func userPrompt(article model.Article, sourcesByClaim map[string][]model.Source) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Please analyze this Wikipedia article and propose minimal edits:\n\n")
	fmt.Fprintf(&b, "## Article Title\n%s\n\n", article.Title)
	fmt.Fprintf(&b, "## Article Text\n%s\n\n", article.Wikitext)

	if len(sourcesByClaim) > 0 {
		b.WriteString("## Available Sources for Citation\n\n")
		i := 0
		for claim, srcs := range sourcesByClaim {
			i++
			fmt.Fprintf(&b, "### Claim %d: %q\n", i, truncateClaim(claim))
			for j, src := range srcs {
				fmt.Fprintf(&b, "%d. %s\n", j+1, wikitext.CitationTemplate(&src))
			}
			b.WriteString("\n")
		}
	} else {
		b.WriteString("No candidate sources were found; propose non-citation edits only.\n\n")
	}

	b.WriteString("Remember:\n")
	b.WriteString("1. Only cite EXISTING claims, never add new information\n")
	b.WriteString("2. Keep edits minimal - grammar, style, wikilinks, citations only\n")
	b.WriteString("3. Respond with the JSON array only\n")

	return b.String()
}

func truncateClaim(claim string) string {
	if len(claim) <= 100 {
		return claim
	}
	return claim[:100] + "..."
}
