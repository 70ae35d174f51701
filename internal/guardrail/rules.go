// Package guardrail decides whether proposed edits are minimal and
// policy-compliant. Rules are pure functions over already-computed
// inputs: the engine performs no I/O, and the only network-derived fact
// it consumes (source reachability) arrives pre-resolved.
package guardrail

import (
	"fmt"

	"github.com/ppiankov/wikimend/internal/model"
	"github.com/ppiankov/wikimend/internal/wikitext"
)

// Rule names, as recorded in verdicts
const (
	RuleProtectedSubject   = "protected_subject"
	RuleNewWordBudget      = "new_word_budget"
	RuleContentRemoval     = "content_removal"
	RuleSimilarityFloor    = "similarity_floor"
	RuleSourceValidity     = "source_validity"
	RuleReferenceStructure = "reference_structure"
	RuleMalformedEdit      = "malformed_edit"
	RuleAggregateBounds    = "aggregate_bounds"
)

// Input bundles everything a rule may consult
type Input struct {
	Edit       model.ProposedEdit
	Metric     model.DiffMetric
	Context    model.PolicyContext
	Config     model.GuardrailConfig
	Resolution *model.Resolution // Pre-resolved source status; nil when not yet resolved
}

// Outcome is a single rule's judgment
type Outcome struct {
	Pass   bool
	Soft   bool // Transient failure: retryable after re-resolution
	Reason string
}

var pass = Outcome{Pass: true}

func fail(format string, args ...any) Outcome {
	return Outcome{Reason: fmt.Sprintf(format, args...)}
}

func softFail(format string, args ...any) Outcome {
	return Outcome{Soft: true, Reason: fmt.Sprintf(format, args...)}
}

// Rule is one named check. Evaluation order is fixed; the first failure
// short-circuits and the remaining rules are skipped for that verdict.
type Rule struct {
	Name     string
	Evaluate func(in Input) Outcome
}

// Rules returns the full rule set in evaluation order
func Rules() []Rule {
	return []Rule{
		{RuleProtectedSubject, protectedSubject},
		{RuleNewWordBudget, newWordBudget},
		{RuleContentRemoval, contentRemoval},
		{RuleSimilarityFloor, similarityFloor},
		{RuleSourceValidity, sourceValidity},
		{RuleReferenceStructure, referenceStructure},
	}
}

// protectedSubject rejects edits on documents whose risk profile
// bypasses text analysis entirely: BLPs (when configured), protected
// pages, disputed pages, and pages flagged for deletion.
func protectedSubject(in Input) Outcome {
	switch {
	case in.Context.IsBiographyOfLivingPerson && in.Config.SkipBLPArticles:
		return fail("article is a biography of a living person")
	case in.Context.IsProtected:
		return fail("article is protected")
	case in.Context.UnderDispute:
		return fail("article is under dispute")
	case in.Context.FlaggedForDeletion:
		return fail("article is flagged for deletion")
	}
	return pass
}

// newWordBudget caps prose additions. Citation-adds are exempt: their
// reference markup contributes zero counted words, and the structural
// rules below still apply to them.
func newWordBudget(in Input) Outcome {
	if in.Edit.Kind == model.EditCitationAdd {
		return pass
	}
	if in.Metric.WordsAdded > in.Config.MaxNewWords {
		return fail("adds too many new words (%d > %d)", in.Metric.WordsAdded, in.Config.MaxNewWords)
	}
	return pass
}

// contentRemoval caps how much of the original prose may disappear.
// There is no exemption: removal is the higher-risk direction
// regardless of edit kind.
func contentRemoval(in Input) Outcome {
	pct := in.Metric.RemovalFraction * 100
	if pct > in.Config.MaxContentRemovalPct {
		return fail("removes too much content (%.0f%% > %.0f%%)", pct, in.Config.MaxContentRemovalPct)
	}
	return pass
}

// similarityFloor rejects edits whose raw similarity drops below the
// configured floor. A pure citation-add (prose byte-identical, only
// reference markup appended) skips the floor: appended markup can
// legitimately depress raw similarity without being a substantive change.
func similarityFloor(in Input) Outcome {
	if _, ok := wikitext.AppendedReference(in.Edit.OriginalText, in.Edit.ProposedText); ok {
		return pass
	}
	if in.Metric.SimilarityRatio < in.Config.MinSimilarityRatio {
		return fail("edit changes too much (similarity %.2f < %.2f)", in.Metric.SimilarityRatio, in.Config.MinSimilarityRatio)
	}
	return pass
}

// sourceValidity applies to citation-adds only: the citation payload
// must be present, its identifier reachable, and its origin off the
// disallowed registry. A transient resolution failure is a soft fail so
// the caller can re-resolve and re-validate.
func sourceValidity(in Input) Outcome {
	if in.Edit.Kind != model.EditCitationAdd {
		return pass
	}
	if in.Edit.Source == nil {
		return fail("citation edit has no source reference")
	}
	if in.Edit.Source.Identifier() == "" {
		return fail("source has no resolvable identifier (URL or DOI)")
	}
	res := in.Resolution
	if res == nil {
		return softFail("source %s not yet resolved", in.Edit.Source.Identifier())
	}
	if res.Transient {
		return softFail("source resolution transient failure: %s", res.Error)
	}
	if !res.Reachable {
		return fail("source unreachable (status %d)", res.StatusCode)
	}
	if res.Registry == model.ReliabilityDeprecated {
		return fail("source origin is on the disallowed registry")
	}
	return pass
}

// referenceStructure rejects edits whose proposed text carries malformed
// reference markup that would corrupt the rendered article.
func referenceStructure(in Input) Outcome {
	if err := wikitext.CheckStructure(in.Edit.ProposedText); err != nil {
		return fail("malformed reference markup: %v", err)
	}
	return pass
}
