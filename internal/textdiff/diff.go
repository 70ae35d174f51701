// Package textdiff computes the change metric every guardrail rule is
// judged against. Compute is pure and deterministic: same inputs, same
// metric, no I/O and no shared state.
package textdiff

import (
	"github.com/agnivade/levenshtein"

	"github.com/ppiankov/wikimend/internal/model"
	"github.com/ppiankov/wikimend/internal/wikitext"
)

// Compute measures the change from original to proposed.
//
// SimilarityRatio is 1 - d/(len(a)+len(b)) where d is the Levenshtein
// distance over runes: symmetric, bounded in [0,1], and exactly 1.0 when
// the inputs are equal. Word counts are multiset differences over
// markup-stripped tokens, so appending a citation contributes zero
// added words.
func Compute(original, proposed string) model.DiffMetric {
	origWords := wikitext.Words(original)
	propWords := wikitext.Words(proposed)

	added, removed := multisetDiff(origWords, propWords)

	removalFraction := float64(removed) / float64(max(1, len(origWords)))

	return model.DiffMetric{
		SimilarityRatio: similarity(original, proposed),
		WordsAdded:      added,
		WordsRemoved:    removed,
		RemovalFraction: removalFraction,
	}
}

// similarity returns the normalized edit-distance ratio between two
// strings. Both empty counts as identical.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	lenA := len([]rune(a))
	lenB := len([]rune(b))
	total := lenA + lenB
	if total == 0 {
		return 1.0
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(d)/float64(total)
}

// multisetDiff counts tokens present in proposed but not original (added)
// and tokens present in original but not proposed (removed), with
// multiplicity. A word rewritten in place registers on both sides.
func multisetDiff(original, proposed []string) (added, removed int) {
	counts := make(map[string]int, len(original))
	for _, w := range original {
		counts[w]++
	}
	for _, w := range proposed {
		if counts[w] > 0 {
			counts[w]--
		} else {
			added++
		}
	}
	for _, n := range counts {
		removed += n
	}
	return added, removed
}
