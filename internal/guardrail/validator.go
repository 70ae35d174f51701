package guardrail

import (
	"fmt"
	"strings"

	"github.com/ppiankov/wikimend/internal/model"
	"github.com/ppiankov/wikimend/internal/textdiff"
)

// StructuralError indicates an edit whose original text no longer
// appears verbatim in the current document. The edit is stale and must
// be re-derived; it is never silently skipped.
type StructuralError struct {
	Snippet string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("original text not found in document: %q", truncate(e.Snippet, 60))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Apply performs the edit as a verbatim substring replacement of the
// first occurrence. Returns a StructuralError when the original text is
// absent from the document.
func Apply(edit model.ProposedEdit, document string) (string, error) {
	if edit.OriginalText == "" {
		// Pure insertion: append to the document.
		return document + edit.ProposedText, nil
	}
	if !strings.Contains(document, edit.OriginalText) {
		return "", &StructuralError{Snippet: edit.OriginalText}
	}
	return strings.Replace(document, edit.OriginalText, edit.ProposedText, 1), nil
}

// Validator runs the rule set against individual edits
type Validator struct {
	config model.GuardrailConfig
	rules  []Rule
}

// NewValidator creates a validator with the given guardrail bounds
func NewValidator(cfg model.GuardrailConfig) *Validator {
	return &Validator{config: cfg, rules: Rules()}
}

// Validate applies the edit to documentBefore, computes the diff metric,
// and runs the rule set in order. The first failing rule determines the
// verdict. A stale edit surfaces as a StructuralError, not a verdict.
//
// The protected-subject rule runs before any text analysis: on excluded
// documents the returned verdict carries a zero metric.
func (v *Validator) Validate(edit model.ProposedEdit, documentBefore string, ctx model.PolicyContext, res *model.Resolution) (model.Verdict, error) {
	// Malformed edit content is a verdict, not a fault: the validator is
	// total over well-typed inputs.
	if edit.OriginalText == "" && edit.ProposedText == "" {
		return model.Verdict{
			Status:     model.VerdictHardReject,
			FailedRule: RuleMalformedEdit,
			Reason:     "edit has neither original nor proposed text",
		}, nil
	}

	in := Input{
		Edit:       edit,
		Context:    ctx,
		Config:     v.config,
		Resolution: res,
	}

	// Document-level exclusions short-circuit before the metric is computed.
	if out := v.rules[0].Evaluate(in); !out.Pass {
		return verdictFor(v.rules[0].Name, out, model.DiffMetric{}), nil
	}

	documentAfter, err := Apply(edit, documentBefore)
	if err != nil {
		return model.Verdict{}, err
	}
	in.Metric = textdiff.Compute(documentBefore, documentAfter)

	for _, rule := range v.rules[1:] {
		if out := rule.Evaluate(in); !out.Pass {
			return verdictFor(rule.Name, out, in.Metric), nil
		}
	}

	return model.Verdict{Status: model.VerdictAccepted, Metric: in.Metric}, nil
}

func verdictFor(ruleName string, out Outcome, metric model.DiffMetric) model.Verdict {
	status := model.VerdictHardReject
	if out.Soft {
		status = model.VerdictSoftFail
	}
	return model.Verdict{
		Status:     status,
		FailedRule: ruleName,
		Reason:     out.Reason,
		Metric:     metric,
	}
}
