package textdiff

import (
	"testing"
)

func TestCompute_IdenticalText(t *testing.T) {
	text := "Laksa is a spicy noodle soup popular in Southeast Asia."
	metric := Compute(text, text)

	if metric.SimilarityRatio != 1.0 {
		t.Errorf("Expected similarity 1.0 for identical text, got %f", metric.SimilarityRatio)
	}
	if metric.WordsAdded != 0 || metric.WordsRemoved != 0 {
		t.Errorf("Expected no word changes, got added=%d removed=%d", metric.WordsAdded, metric.WordsRemoved)
	}
	if metric.RemovalFraction != 0 {
		t.Errorf("Expected removal fraction 0, got %f", metric.RemovalFraction)
	}
}

func TestCompute_BothEmpty(t *testing.T) {
	metric := Compute("", "")
	if metric.SimilarityRatio != 1.0 {
		t.Errorf("Expected similarity 1.0 for two empty strings, got %f", metric.SimilarityRatio)
	}
}

func TestCompute_GrammarFix(t *testing.T) {
	original := "The cat are sleeping."
	proposed := "The cat is sleeping."

	metric := Compute(original, proposed)

	if metric.WordsAdded != 1 {
		t.Errorf("Expected 1 word added (is), got %d", metric.WordsAdded)
	}
	if metric.WordsRemoved != 1 {
		t.Errorf("Expected 1 word removed (are), got %d", metric.WordsRemoved)
	}
	if metric.SimilarityRatio < 0.9 {
		t.Errorf("Expected high similarity for a one-word fix, got %f", metric.SimilarityRatio)
	}
	if metric.RemovalFraction != 0.25 {
		t.Errorf("Expected removal fraction 0.25 (1 of 4 words), got %f", metric.RemovalFraction)
	}
}

func TestCompute_CitationAppendCountsZeroWords(t *testing.T) {
	original := "Laksa is a spicy noodle soup."
	proposed := original + `<ref>{{cite web |title=Laksa |url=https://example.org/laksa}}</ref>`

	metric := Compute(original, proposed)

	if metric.WordsAdded != 0 {
		t.Errorf("Expected citation markup to add 0 prose words, got %d", metric.WordsAdded)
	}
	if metric.WordsRemoved != 0 {
		t.Errorf("Expected 0 words removed, got %d", metric.WordsRemoved)
	}
	// The raw character similarity still drops: the markup is real text.
	if metric.SimilarityRatio >= 1.0 {
		t.Errorf("Expected similarity below 1.0 after appending markup, got %f", metric.SimilarityRatio)
	}
}

func TestCompute_FullRemoval(t *testing.T) {
	metric := Compute("One two three four.", "")

	if metric.WordsRemoved != 4 {
		t.Errorf("Expected 4 words removed, got %d", metric.WordsRemoved)
	}
	if metric.RemovalFraction != 1.0 {
		t.Errorf("Expected removal fraction 1.0, got %f", metric.RemovalFraction)
	}
}

func TestCompute_RewrittenWordCountsBothSides(t *testing.T) {
	metric := Compute("alpha beta gamma", "alpha delta gamma")

	if metric.WordsAdded != 1 || metric.WordsRemoved != 1 {
		t.Errorf("Expected rewrite to register on both sides, got added=%d removed=%d",
			metric.WordsAdded, metric.WordsRemoved)
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"The cat are sleeping.", "The cat is sleeping."},
		{"", "something"},
		{"short", "a much longer replacement string"},
		{"héllo wörld", "hello world"},
	}
	for _, pair := range pairs {
		ab := Compute(pair[0], pair[1]).SimilarityRatio
		ba := Compute(pair[1], pair[0]).SimilarityRatio
		if ab != ba {
			t.Errorf("Expected symmetric similarity for %q/%q, got %f vs %f", pair[0], pair[1], ab, ba)
		}
	}
}

func TestSimilarity_Bounds(t *testing.T) {
	pairs := [][2]string{
		{"", ""},
		{"a", ""},
		{"abc", "xyz"},
		{"same", "same"},
	}
	for _, pair := range pairs {
		s := Compute(pair[0], pair[1]).SimilarityRatio
		if s < 0 || s > 1 {
			t.Errorf("Similarity out of bounds for %q/%q: %f", pair[0], pair[1], s)
		}
	}
}

func FuzzSimilarity(f *testing.F) {
	f.Add("The cat are sleeping.", "The cat is sleeping.")
	f.Add("", "")
	f.Add("abc", "abcd")
	f.Fuzz(func(t *testing.T, a, b string) {
		s := similarity(a, b)
		if s < 0 || s > 1 {
			t.Errorf("similarity(%q, %q) = %f, out of [0,1]", a, b, s)
		}
		if a == b && s != 1.0 {
			t.Errorf("similarity of equal strings must be 1.0, got %f", s)
		}
		if got := similarity(b, a); got != s {
			t.Errorf("similarity not symmetric: %f vs %f", s, got)
		}
	})
}
