package model

// DiffMetric is the measured change between an original and a proposed text.
// It is a pure function of its two inputs and is recomputed per validation
// call, never cached across revisions.
type DiffMetric struct {
	SimilarityRatio float64 `json:"similarity_ratio"` // Symmetric, in [0,1], 1.0 iff identical
	WordsAdded      int     `json:"words_added"`      // Tokens in proposed but not original, markup excluded
	WordsRemoved    int     `json:"words_removed"`    // Tokens in original but not proposed, markup excluded
	RemovalFraction float64 `json:"removal_fraction"` // WordsRemoved / max(1, original token count)
}

// VerdictStatus is the outcome class of a validation
type VerdictStatus string

const (
	VerdictAccepted   VerdictStatus = "accepted"
	VerdictHardReject VerdictStatus = "hard_reject" // Rule failed deterministically; never retried
	VerdictSoftFail   VerdictStatus = "soft_fail"   // External fact unresolved; caller re-resolves and retries
)

// Verdict is the immutable audit record produced for one edit or one batch
type Verdict struct {
	Status     VerdictStatus `json:"status"`
	FailedRule string        `json:"failed_rule,omitempty"` // First failing rule, empty when accepted
	Reason     string        `json:"reason,omitempty"`
	Metric     DiffMetric    `json:"metric"`
}

// Accepted reports whether the verdict allows the edit through
func (v Verdict) Accepted() bool {
	return v.Status == VerdictAccepted
}
