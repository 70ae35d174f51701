package model

// EditKind categorizes the nature of a proposed edit
type EditKind string

const (
	EditCitationAdd   EditKind = "citation"   // Appends a reference to existing prose
	EditGrammarFix    EditKind = "grammar"    // Grammar or spelling correction
	EditStyleFix      EditKind = "style"      // Manual-of-style fix (caps, dates, numbers)
	EditWikilinkAdd   EditKind = "wikilink"   // Links an existing mention
	EditPolicyFix     EditKind = "policy"     // Neutralizes or flags policy-violating text
	EditFormattingFix EditKind = "formatting" // Categories, stub templates, malformed markup
)

// ParseEditKind maps a raw kind string (e.g. from LLM output) to an EditKind.
// Returns false for anything outside the closed set.
func ParseEditKind(s string) (EditKind, bool) {
	switch EditKind(s) {
	case EditCitationAdd, EditGrammarFix, EditStyleFix, EditWikilinkAdd, EditPolicyFix, EditFormattingFix:
		return EditKind(s), true
	}
	return "", false
}

// Confidence is the proposer's self-reported confidence in an edit
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Rank orders confidence levels for batch downgrade decisions (higher is better)
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// ProposedEdit represents one atomic textual change to an article.
// Edits are created by the proposer, validated by the guardrail engine,
// and never mutated after construction.
type ProposedEdit struct {
	Kind         EditKind   `json:"edit_type"`
	OriginalText string     `json:"original_text"` // Verbatim substring of the current article
	ProposedText string     `json:"proposed_text"` // Replacement text
	Rationale    string     `json:"rationale"`
	PolicyRef    string     `json:"policy_reference,omitempty"` // e.g. "WP:CITE"
	Confidence   Confidence `json:"confidence"`
	Source       *Source    `json:"source,omitempty"` // Required when Kind == EditCitationAdd
}

// EditProposal is a complete set of proposed edits for one article
type EditProposal struct {
	ID       string           `json:"id"`
	Article  Article          `json:"article"`
	Edits    []ProposedEdit   `json:"edits"`
	Warnings []string         `json:"warnings,omitempty"` // Advisory notes (language screen, truncation)
}
