package guardrail

import (
	"fmt"

	"github.com/ppiankov/wikimend/internal/model"
	"github.com/ppiankov/wikimend/internal/textdiff"
	"github.com/ppiankov/wikimend/internal/wikitext"
)

// EditOutcome pairs an input edit with its verdict. Err is non-nil only
// for stale edits (StructuralError); such edits are skipped, surfaced,
// and never applied.
type EditOutcome struct {
	Edit    model.ProposedEdit
	Verdict model.Verdict
	Err     error
}

// BatchResult is the outcome of composing and validating a set of edits
type BatchResult struct {
	Outcomes  []EditOutcome
	Accepted  []model.ProposedEdit // Final accepted subset, in application order
	FinalText string               // Base document with the accepted subset applied
	Verdict   model.Verdict        // Aggregate verdict over base vs FinalText
	Warnings  []string             // Truncation and downgrade notes
}

// ResolutionFunc supplies the pre-resolved source status for an edit.
// May return nil when the edit has no source or resolution is pending.
type ResolutionFunc func(edit model.ProposedEdit) *model.Resolution

// Composer validates edits applied together. Individually-minimal edits
// can compose into a non-minimal net change, so after per-edit
// validation the composer re-checks the budget, removal, and similarity
// bounds against the aggregate diff between the base document and the
// cumulative result.
type Composer struct {
	validator *Validator
	config    model.GuardrailConfig
	maxEdits  int
}

// NewComposer creates a batch composer. maxEdits bounds the input
// sequence length; excess edits are truncated with a recorded warning.
func NewComposer(cfg model.GuardrailConfig, maxEdits int) *Composer {
	if maxEdits < 1 {
		maxEdits = 1
	}
	return &Composer{
		validator: NewValidator(cfg),
		config:    cfg,
		maxEdits:  maxEdits,
	}
}

// Compose applies edits in order, each against the cumulative result of
// prior accepted edits. Rejected and stale edits are skipped without
// shifting later edits' expected original text. The accepted subset is
// then re-checked as a whole; if the aggregate fails, the
// lowest-confidence edit is dropped and the check repeats until the
// aggregate passes or the set is empty (an empty set passes trivially).
func (c *Composer) Compose(edits []model.ProposedEdit, documentBase string, ctx model.PolicyContext, resolve ResolutionFunc) BatchResult {
	result := BatchResult{}

	if len(edits) > c.maxEdits {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("truncated %d proposed edits to the per-article limit of %d", len(edits), c.maxEdits))
		edits = edits[:c.maxEdits]
	}

	// Per-edit validation against the cumulative text.
	current := documentBase
	var acceptedIdx []int
	for _, edit := range edits {
		var res *model.Resolution
		if resolve != nil {
			res = resolve(edit)
		}
		verdict, err := c.validator.Validate(edit, current, ctx, res)
		outcome := EditOutcome{Edit: edit, Verdict: verdict, Err: err}
		result.Outcomes = append(result.Outcomes, outcome)
		if err != nil || !verdict.Accepted() {
			continue
		}
		next, applyErr := Apply(edit, current)
		if applyErr != nil {
			// Validate already applied this edit; a failure here means a
			// prior accepted edit consumed the match.
			result.Outcomes[len(result.Outcomes)-1].Err = applyErr
			continue
		}
		current = next
		acceptedIdx = append(acceptedIdx, len(result.Outcomes)-1)
	}

	// Aggregate re-check with confidence-ordered downgrade. Dropping an
	// edit can strand a later one whose original text only existed in
	// the dropped edit's output; stranded edits are demoted to stale so
	// the accepted set is exactly what composed the final text.
	for {
		final, surviving, stranded := applyAll(documentBase, result.Outcomes, acceptedIdx)
		for _, i := range stranded {
			result.Outcomes[i].Err = &StructuralError{Snippet: result.Outcomes[i].Edit.OriginalText}
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s edit no longer applies after a dropped edit", result.Outcomes[i].Edit.Kind))
		}
		acceptedIdx = surviving

		metric, ruleName, out := c.aggregate(documentBase, final)
		if out.Pass {
			result.FinalText = final
			result.Verdict = model.Verdict{Status: model.VerdictAccepted, Metric: metric}
			break
		}
		if len(acceptedIdx) == 0 {
			result.FinalText = documentBase
			result.Verdict = model.Verdict{
				Status:     model.VerdictHardReject,
				FailedRule: ruleName,
				Reason:     out.Reason,
				Metric:     metric,
			}
			break
		}
		drop := lowestConfidence(result.Outcomes, acceptedIdx)
		result.Outcomes[drop].Verdict = model.Verdict{
			Status:     model.VerdictHardReject,
			FailedRule: RuleAggregateBounds,
			Reason:     fmt.Sprintf("dropped to satisfy aggregate bounds: %s", out.Reason),
			Metric:     result.Outcomes[drop].Verdict.Metric,
		}
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("dropped %s edit (%s confidence) to satisfy aggregate bounds",
				result.Outcomes[drop].Edit.Kind, result.Outcomes[drop].Edit.Confidence))
		acceptedIdx = removeIndex(acceptedIdx, drop)
	}

	for _, i := range acceptedIdx {
		result.Accepted = append(result.Accepted, result.Outcomes[i].Edit)
	}
	return result
}

// aggregate re-runs the budget, removal, and similarity rules against
// the whole change. The citation exemption generalizes here: when the
// stripped prose is unchanged, the batch is pure reference markup and
// the word budget and similarity floor do not apply.
func (c *Composer) aggregate(base, final string) (model.DiffMetric, string, Outcome) {
	metric := textdiff.Compute(base, final)
	pureMarkup := wikitext.Strip(base) == wikitext.Strip(final)

	if !pureMarkup && metric.WordsAdded > c.config.MaxNewWords {
		return metric, RuleNewWordBudget,
			fail("batch adds too many new words (%d > %d)", metric.WordsAdded, c.config.MaxNewWords)
	}
	if pct := metric.RemovalFraction * 100; pct > c.config.MaxContentRemovalPct {
		return metric, RuleContentRemoval,
			fail("batch removes too much content (%.0f%% > %.0f%%)", pct, c.config.MaxContentRemovalPct)
	}
	if !pureMarkup && metric.SimilarityRatio < c.config.MinSimilarityRatio {
		return metric, RuleSimilarityFloor,
			fail("batch changes too much (similarity %.2f < %.2f)", metric.SimilarityRatio, c.config.MinSimilarityRatio)
	}
	return metric, "", pass
}

// applyAll reapplies the accepted edits cumulatively. Edits whose
// original text is no longer present are returned as stranded rather
// than kept in the surviving set.
func applyAll(base string, outcomes []EditOutcome, acceptedIdx []int) (string, []int, []int) {
	current := base
	var surviving, stranded []int
	for _, i := range acceptedIdx {
		next, err := Apply(outcomes[i].Edit, current)
		if err != nil {
			stranded = append(stranded, i)
			continue
		}
		current = next
		surviving = append(surviving, i)
	}
	return current, surviving, stranded
}

// lowestConfidence picks the accepted edit to drop: lowest confidence
// rank first, and among equals the latest in proposal order.
func lowestConfidence(outcomes []EditOutcome, acceptedIdx []int) int {
	drop := acceptedIdx[0]
	for _, i := range acceptedIdx[1:] {
		if outcomes[i].Edit.Confidence.Rank() <= outcomes[drop].Edit.Confidence.Rank() {
			drop = i
		}
	}
	return drop
}

func removeIndex(indexes []int, value int) []int {
	out := indexes[:0]
	for _, i := range indexes {
		if i != value {
			out = append(out, i)
		}
	}
	return out
}
